package models

import (
	"errors"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CouponType string

const (
	CouponPercentage   CouponType = "percentage"
	CouponFixed        CouponType = "fixed"
	CouponFreeDelivery CouponType = "free_delivery"
)

var (
	ErrCouponInactive  = errors.New("coupon is not active")
	ErrCouponNotYet    = errors.New("coupon is not valid yet")
	ErrCouponExpired   = errors.New("coupon has expired")
	ErrCouponExhausted = errors.New("coupon usage limit reached")
	ErrCouponUserLimit = errors.New("coupon already used the maximum number of times")
	ErrCouponMinOrder  = errors.New("order subtotal below coupon minimum")
	ErrCouponStore     = errors.New("coupon not valid for this store")
)

type Coupon struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code          string             `bson:"code" json:"code"`
	Type          CouponType         `bson:"type" json:"type"`
	Value         float64            `bson:"value" json:"value"`             // percent or amount, unused for free_delivery
	MaxDiscount   float64            `bson:"maxDiscount" json:"maxDiscount"` // 0 = uncapped, percentage only
	MinOrderValue float64            `bson:"minOrderValue" json:"minOrderValue"`
	StoreID       primitive.ObjectID `bson:"storeId,omitempty" json:"storeId,omitempty"` // zero = any store
	ValidFrom     time.Time          `bson:"validFrom" json:"validFrom"`
	ValidTo       time.Time          `bson:"validTo" json:"validTo"`
	UsageLimit    int                `bson:"usageLimit" json:"usageLimit"`     // 0 = unlimited
	UsedCount     int                `bson:"usedCount" json:"usedCount"`
	PerUserLimit  int                `bson:"perUserLimit" json:"perUserLimit"` // 0 = unlimited
	UserUsage     map[string]int     `bson:"userUsage" json:"-"`
	IsActive      bool               `bson:"isActive" json:"isActive"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (t CouponType) Valid() bool {
	switch t {
	case CouponPercentage, CouponFixed, CouponFreeDelivery:
		return true
	}
	return false
}

// EligibleFor checks every usage rule against the given checkout context.
func (c *Coupon) EligibleFor(userID string, storeID primitive.ObjectID, subtotal float64, now time.Time) error {
	if !c.IsActive {
		return ErrCouponInactive
	}
	if now.Before(c.ValidFrom) {
		return ErrCouponNotYet
	}
	if now.After(c.ValidTo) {
		return ErrCouponExpired
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return ErrCouponExhausted
	}
	if c.PerUserLimit > 0 && c.UserUsage[userID] >= c.PerUserLimit {
		return ErrCouponUserLimit
	}
	if subtotal < c.MinOrderValue {
		return ErrCouponMinOrder
	}
	if !c.StoreID.IsZero() && c.StoreID != storeID {
		return ErrCouponStore
	}
	return nil
}

// DiscountFor computes the discount amount against a subtotal and the
// delivery fee that would otherwise be charged.
func (c *Coupon) DiscountFor(subtotal, deliveryFee float64) float64 {
	switch c.Type {
	case CouponPercentage:
		d := subtotal * c.Value / 100
		if c.MaxDiscount > 0 && d > c.MaxDiscount {
			d = c.MaxDiscount
		}
		return roundMoney(d)
	case CouponFixed:
		return roundMoney(math.Min(c.Value, subtotal))
	case CouponFreeDelivery:
		return roundMoney(deliveryFee)
	}
	return 0
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
