package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func activeCoupon() *Coupon {
	now := time.Now()
	return &Coupon{
		Code:          "SAVE10",
		Type:          CouponPercentage,
		Value:         10,
		MinOrderValue: 15,
		ValidFrom:     now.Add(-24 * time.Hour),
		ValidTo:       now.Add(24 * time.Hour),
		UsageLimit:    100,
		PerUserLimit:  2,
		UserUsage:     map[string]int{},
		IsActive:      true,
	}
}

func TestCouponEligibleFor(t *testing.T) {
	storeID := primitive.NewObjectID()
	now := time.Now()

	t.Run("eligible", func(t *testing.T) {
		assert.NoError(t, activeCoupon().EligibleFor("u1", storeID, 20, now))
	})

	t.Run("inactive", func(t *testing.T) {
		c := activeCoupon()
		c.IsActive = false
		assert.ErrorIs(t, c.EligibleFor("u1", storeID, 20, now), ErrCouponInactive)
	})

	t.Run("not valid yet", func(t *testing.T) {
		c := activeCoupon()
		c.ValidFrom = now.Add(time.Hour)
		assert.ErrorIs(t, c.EligibleFor("u1", storeID, 20, now), ErrCouponNotYet)
	})

	t.Run("expired", func(t *testing.T) {
		c := activeCoupon()
		c.ValidTo = now.Add(-time.Hour)
		assert.ErrorIs(t, c.EligibleFor("u1", storeID, 20, now), ErrCouponExpired)
	})

	t.Run("usage limit reached", func(t *testing.T) {
		c := activeCoupon()
		c.UsedCount = 100
		assert.ErrorIs(t, c.EligibleFor("u1", storeID, 20, now), ErrCouponExhausted)
	})

	t.Run("unlimited usage when limit is zero", func(t *testing.T) {
		c := activeCoupon()
		c.UsageLimit = 0
		c.UsedCount = 100000
		assert.NoError(t, c.EligibleFor("u1", storeID, 20, now))
	})

	t.Run("per-user limit reached", func(t *testing.T) {
		c := activeCoupon()
		c.UserUsage["u1"] = 2
		assert.ErrorIs(t, c.EligibleFor("u1", storeID, 20, now), ErrCouponUserLimit)
		assert.NoError(t, c.EligibleFor("u2", storeID, 20, now))
	})

	t.Run("below minimum order", func(t *testing.T) {
		c := activeCoupon()
		assert.ErrorIs(t, c.EligibleFor("u1", storeID, 10, now), ErrCouponMinOrder)
	})

	t.Run("store scope", func(t *testing.T) {
		c := activeCoupon()
		c.StoreID = primitive.NewObjectID()
		assert.ErrorIs(t, c.EligibleFor("u1", storeID, 20, now), ErrCouponStore)
		assert.NoError(t, c.EligibleFor("u1", c.StoreID, 20, now))
	})
}

func TestCouponDiscountFor(t *testing.T) {
	t.Run("percentage", func(t *testing.T) {
		c := &Coupon{Type: CouponPercentage, Value: 10}
		assert.Equal(t, 2.0, c.DiscountFor(20, 3))
	})

	t.Run("percentage with cap", func(t *testing.T) {
		c := &Coupon{Type: CouponPercentage, Value: 50, MaxDiscount: 5}
		assert.Equal(t, 5.0, c.DiscountFor(20, 3))
	})

	t.Run("fixed", func(t *testing.T) {
		c := &Coupon{Type: CouponFixed, Value: 5}
		assert.Equal(t, 5.0, c.DiscountFor(20, 3))
	})

	t.Run("fixed clamps at subtotal", func(t *testing.T) {
		c := &Coupon{Type: CouponFixed, Value: 50}
		assert.Equal(t, 20.0, c.DiscountFor(20, 3))
	})

	t.Run("free delivery", func(t *testing.T) {
		c := &Coupon{Type: CouponFreeDelivery}
		assert.Equal(t, 3.0, c.DiscountFor(20, 3))
	})

	t.Run("unknown type is worthless", func(t *testing.T) {
		c := &Coupon{Type: CouponType("mystery"), Value: 50}
		assert.Equal(t, 0.0, c.DiscountFor(20, 3))
	})
}

func TestCouponTypeValid(t *testing.T) {
	assert.True(t, CouponPercentage.Valid())
	assert.True(t, CouponFixed.Valid())
	assert.True(t, CouponFreeDelivery.Valid())
	assert.False(t, CouponType("bogo").Valid())
}
