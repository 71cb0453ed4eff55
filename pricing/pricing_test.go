package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mealmart/mealmart-backend-go/models"
)

var (
	sizeGroupID = primitive.NewObjectID()
	smallOptID  = primitive.NewObjectID()
	largeOptID  = primitive.NewObjectID()
	cheeseID    = primitive.NewObjectID()
)

func testProduct() *models.Product {
	return &models.Product{
		ID:          primitive.NewObjectID(),
		Name:        "Margherita",
		Price:       10.0,
		Stock:       5,
		IsAvailable: true,
		Customizations: []models.CustomizationGroup{
			{
				ID:        sizeGroupID,
				Name:      "Size",
				Required:  true,
				MaxSelect: 1,
				Options: []models.CustomizationOption{
					{ID: smallOptID, Name: "Small", PriceDelta: 0},
					{ID: largeOptID, Name: "Large", PriceDelta: 2.5},
				},
			},
		},
		Addons: []models.Addon{
			{ID: cheeseID, Name: "Extra cheese", Price: 1.5},
		},
	}
}

func TestPriceItem(t *testing.T) {
	large := []Selection{{GroupID: sizeGroupID, OptionID: largeOptID}}

	t.Run("happy path", func(t *testing.T) {
		item, err := PriceItem(testProduct(), 2, large, []primitive.ObjectID{cheeseID})
		require.NoError(t, err)

		assert.Equal(t, 14.0, item.UnitPrice)
		assert.Equal(t, 28.0, item.LineTotal)
		assert.Equal(t, 2, item.Quantity)
		require.Len(t, item.Selections, 1)
		assert.Equal(t, "Large", item.Selections[0].Name)
		require.Len(t, item.Addons, 1)
		assert.Equal(t, "Extra cheese", item.Addons[0].Name)
	})

	t.Run("missing required selection", func(t *testing.T) {
		_, err := PriceItem(testProduct(), 1, nil, nil)
		assert.ErrorIs(t, err, ErrSelectionBounds)
	})

	t.Run("too many selections", func(t *testing.T) {
		both := []Selection{
			{GroupID: sizeGroupID, OptionID: smallOptID},
			{GroupID: sizeGroupID, OptionID: largeOptID},
		}
		_, err := PriceItem(testProduct(), 1, both, nil)
		assert.ErrorIs(t, err, ErrSelectionBounds)
	})

	t.Run("unknown option", func(t *testing.T) {
		bogus := []Selection{{GroupID: sizeGroupID, OptionID: primitive.NewObjectID()}}
		_, err := PriceItem(testProduct(), 1, bogus, nil)
		assert.ErrorIs(t, err, ErrUnknownOption)
	})

	t.Run("unknown addon", func(t *testing.T) {
		_, err := PriceItem(testProduct(), 1, large, []primitive.ObjectID{primitive.NewObjectID()})
		assert.ErrorIs(t, err, ErrUnknownAddon)
	})

	t.Run("zero quantity", func(t *testing.T) {
		_, err := PriceItem(testProduct(), 0, large, nil)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("unavailable product", func(t *testing.T) {
		p := testProduct()
		p.IsAvailable = false
		_, err := PriceItem(p, 1, large, nil)
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("insufficient stock", func(t *testing.T) {
		_, err := PriceItem(testProduct(), 6, large, nil)
		assert.ErrorIs(t, err, ErrInsufficientStock)
	})
}

func testStore() *models.Store {
	return &models.Store{
		ID:               primitive.NewObjectID(),
		Name:             "Corner Deli",
		DeliveryRadiusKm: 8,
		BaseDeliveryFee:  2.0,
		PerKmDeliveryFee: 0.5,
		FreeDeliveryMin:  50,
		MinOrderAmount:   10,
		PrepTimeMinutes:  15,
		TaxRate:          0.08,
	}
}

func testCoupon(typ models.CouponType, value float64) *models.Coupon {
	now := time.Now()
	return &models.Coupon{
		ID:        primitive.NewObjectID(),
		Code:      "TEST",
		Type:      typ,
		Value:     value,
		ValidFrom: now.Add(-time.Hour),
		ValidTo:   now.Add(time.Hour),
		IsActive:  true,
	}
}

func items(lineTotals ...float64) []models.CartItem {
	out := make([]models.CartItem, len(lineTotals))
	for i, lt := range lineTotals {
		out[i] = models.CartItem{Quantity: 1, UnitPrice: lt, LineTotal: lt}
	}
	return out
}

func baseInput() Input {
	return Input{
		Items:          items(20.0),
		Store:          testStore(),
		DistanceKm:     3,
		UserID:         "user1",
		Now:            time.Now(),
		ServiceFeeRate: 0.05,
		ServiceFeeCap:  10,
	}
}

func TestCompute(t *testing.T) {
	t.Run("no coupon", func(t *testing.T) {
		q, err := Compute(baseInput())
		require.NoError(t, err)

		assert.Equal(t, 20.0, q.Subtotal)
		assert.Equal(t, 0.0, q.Discount)
		assert.Equal(t, 3.0, q.DeliveryFee) // 2.00 base + 0.50 * 2km past the first
		assert.Equal(t, 1.6, q.Tax)
		assert.Equal(t, 1.0, q.ServiceFee)
		assert.Equal(t, 25.6, q.Total)
		assert.Equal(t, 25, q.LoyaltyEarned)
		assert.Equal(t, 21, q.EtaMinutes) // 15 prep + 6 travel
	})

	t.Run("percentage coupon hits its cap", func(t *testing.T) {
		in := baseInput()
		in.Coupon = testCoupon(models.CouponPercentage, 50)
		in.Coupon.MaxDiscount = 5

		q, err := Compute(in)
		require.NoError(t, err)

		assert.Equal(t, 5.0, q.Discount)
		assert.Equal(t, 1.2, q.Tax) // tax on the discounted subtotal
		assert.Equal(t, 20.2, q.Total)
	})

	t.Run("fixed coupon never exceeds subtotal", func(t *testing.T) {
		in := baseInput()
		in.Coupon = testCoupon(models.CouponFixed, 100)

		q, err := Compute(in)
		require.NoError(t, err)

		assert.Equal(t, 20.0, q.Discount)
		assert.Equal(t, 0.0, q.Tax)
		assert.Equal(t, 4.0, q.Total) // fee + service fee survive
	})

	t.Run("free delivery coupon offsets the fee", func(t *testing.T) {
		in := baseInput()
		in.Coupon = testCoupon(models.CouponFreeDelivery, 0)

		q, err := Compute(in)
		require.NoError(t, err)

		assert.Equal(t, 3.0, q.Discount)
		assert.Equal(t, 3.0, q.DeliveryFee)
		assert.Equal(t, 22.6, q.Total)
	})

	t.Run("free delivery threshold", func(t *testing.T) {
		in := baseInput()
		in.Items = items(60.0)

		q, err := Compute(in)
		require.NoError(t, err)

		assert.Equal(t, 0.0, q.DeliveryFee)
	})

	t.Run("below minimum order", func(t *testing.T) {
		in := baseInput()
		in.Items = items(5.0)

		_, err := Compute(in)
		assert.ErrorIs(t, err, ErrBelowMinOrder)
	})

	t.Run("outside delivery radius", func(t *testing.T) {
		in := baseInput()
		in.DistanceKm = 9

		_, err := Compute(in)
		assert.ErrorIs(t, err, ErrOutOfRange)
	})

	t.Run("ineligible coupon fails the quote", func(t *testing.T) {
		in := baseInput()
		in.Coupon = testCoupon(models.CouponFixed, 5)
		in.Coupon.ValidTo = in.Now.Add(-time.Minute)

		_, err := Compute(in)
		assert.ErrorIs(t, err, models.ErrCouponExpired)
	})

	t.Run("loyalty points cover most of the total", func(t *testing.T) {
		in := baseInput()
		in.LoyaltyPoints = 30
		in.UsePoints = true

		q, err := Compute(in)
		require.NoError(t, err)

		assert.Equal(t, 25, q.LoyaltySpent) // floor(25.60), capped by the total
		assert.InDelta(t, 0.6, q.Total, 1e-9)
		assert.Equal(t, 0, q.LoyaltyEarned)
	})

	t.Run("points are ignored when not requested", func(t *testing.T) {
		in := baseInput()
		in.LoyaltyPoints = 30

		q, err := Compute(in)
		require.NoError(t, err)
		assert.Equal(t, 0, q.LoyaltySpent)
	})
}

func TestDeliveryFee(t *testing.T) {
	store := testStore()

	assert.Equal(t, 2.0, DeliveryFee(store, 0.5, 20)) // inside the base radius
	assert.Equal(t, 3.5, DeliveryFee(store, 4, 20))
	assert.Equal(t, 0.0, DeliveryFee(store, 4, 50)) // threshold met exactly

	store.FreeDeliveryMin = 0 // disabled
	assert.Equal(t, 3.5, DeliveryFee(store, 4, 500))
}

func TestEta(t *testing.T) {
	store := testStore()

	assert.Equal(t, 15, Eta(store, 0))
	assert.Equal(t, 21, Eta(store, 3))
	assert.Equal(t, 16, Eta(store, 0.1)) // travel time rounds up
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.23, Round(1.2345))
	assert.Equal(t, 1.24, Round(1.236))
	assert.Equal(t, -1.24, Round(-1.236))
	assert.Equal(t, 0.0, Round(0))
}
