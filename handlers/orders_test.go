package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mealmart/mealmart-backend-go/models"
)

func TestSettlementFor(t *testing.T) {
	order := &models.Order{
		CouponCode: "SAVE10",
		Pricing:    models.PricingBreakdown{LoyaltySpent: 25, LoyaltyEarned: 18},
	}

	t.Run("cancelled restores stock, refunds points, releases coupon", func(t *testing.T) {
		s := settlementFor(order, models.OrderStatusCancelled)
		assert.True(t, s.restoreStock)
		assert.Equal(t, 25, s.loyaltyDelta)
		assert.True(t, s.releaseCoupon)
	})

	t.Run("cancelled without coupon releases nothing", func(t *testing.T) {
		plain := &models.Order{Pricing: models.PricingBreakdown{LoyaltySpent: 5}}
		s := settlementFor(plain, models.OrderStatusCancelled)
		assert.True(t, s.restoreStock)
		assert.Equal(t, 5, s.loyaltyDelta)
		assert.False(t, s.releaseCoupon)
	})

	t.Run("delivered credits earned points only", func(t *testing.T) {
		s := settlementFor(order, models.OrderStatusDelivered)
		assert.False(t, s.restoreStock)
		assert.Equal(t, 18, s.loyaltyDelta)
		assert.False(t, s.releaseCoupon)
	})

	t.Run("intermediate statuses owe nothing", func(t *testing.T) {
		for _, status := range []models.OrderStatus{
			models.OrderStatusConfirmed,
			models.OrderStatusPreparing,
			models.OrderStatusReady,
			models.OrderStatusOnWay,
		} {
			assert.Equal(t, settlement{}, settlementFor(order, status))
		}
	})
}
