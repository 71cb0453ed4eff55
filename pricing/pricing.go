// Package pricing implements the cart computation pipeline: line pricing
// with customizations and addons, delivery fee and ETA from distance, tax,
// service fee, coupon discounts, and loyalty point spend/earn.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mealmart/mealmart-backend-go/models"
)

const (
	// Distance included in the base delivery fee before per-km pricing kicks in.
	baseRadiusKm = 1.0
	// Assumed courier speed for ETA estimation.
	courierSpeedKmh = 30.0
)

var (
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrUnavailable       = errors.New("product is not available")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrUnknownOption     = errors.New("unknown customization option")
	ErrUnknownAddon      = errors.New("unknown addon")
	ErrSelectionBounds   = errors.New("customization selection out of bounds")
	ErrOutOfRange        = errors.New("delivery address outside store radius")
	ErrBelowMinOrder     = errors.New("subtotal below store minimum order")
)

// Selection is an incoming customization pick, by id.
type Selection struct {
	GroupID  primitive.ObjectID `json:"groupId"`
	OptionID primitive.ObjectID `json:"optionId"`
}

// PriceItem validates the selections against the product's customization
// groups and addon list, then snapshots names and prices into a cart item.
func PriceItem(p *models.Product, qty int, selections []Selection, addonIDs []primitive.ObjectID) (models.CartItem, error) {
	if qty <= 0 {
		return models.CartItem{}, ErrInvalidQuantity
	}
	if !p.Purchasable() {
		return models.CartItem{}, fmt.Errorf("%w: %s", ErrUnavailable, p.Name)
	}
	if p.Stock < qty {
		return models.CartItem{}, fmt.Errorf("%w: %s", ErrInsufficientStock, p.Name)
	}

	unit := p.Price

	picked := make([]models.SelectedOption, 0, len(selections))
	perGroup := make(map[primitive.ObjectID]int)
	for _, sel := range selections {
		opt, ok := findOption(p, sel.GroupID, sel.OptionID)
		if !ok {
			return models.CartItem{}, ErrUnknownOption
		}
		perGroup[sel.GroupID]++
		unit += opt.PriceDelta
		picked = append(picked, models.SelectedOption{
			GroupID:    sel.GroupID,
			OptionID:   opt.ID,
			Name:       opt.Name,
			PriceDelta: opt.PriceDelta,
		})
	}

	for _, g := range p.Customizations {
		n := perGroup[g.ID]
		min := g.MinSelect
		if g.Required && min == 0 {
			min = 1
		}
		if n < min {
			return models.CartItem{}, fmt.Errorf("%w: %s requires at least %d selection(s)", ErrSelectionBounds, g.Name, min)
		}
		if g.MaxSelect > 0 && n > g.MaxSelect {
			return models.CartItem{}, fmt.Errorf("%w: %s allows at most %d selection(s)", ErrSelectionBounds, g.Name, g.MaxSelect)
		}
	}

	chosenAddons := make([]models.SelectedAddon, 0, len(addonIDs))
	for _, id := range addonIDs {
		addon, ok := findAddon(p, id)
		if !ok {
			return models.CartItem{}, ErrUnknownAddon
		}
		unit += addon.Price
		chosenAddons = append(chosenAddons, models.SelectedAddon{
			AddonID: addon.ID,
			Name:    addon.Name,
			Price:   addon.Price,
		})
	}

	unit = Round(unit)
	return models.CartItem{
		ProductID:  p.ID,
		Name:       p.Name,
		UnitPrice:  unit,
		Quantity:   qty,
		Selections: picked,
		Addons:     chosenAddons,
		LineTotal:  Round(unit * float64(qty)),
	}, nil
}

func findOption(p *models.Product, groupID, optionID primitive.ObjectID) (models.CustomizationOption, bool) {
	for _, g := range p.Customizations {
		if g.ID != groupID {
			continue
		}
		for _, o := range g.Options {
			if o.ID == optionID {
				return o, true
			}
		}
	}
	return models.CustomizationOption{}, false
}

func findAddon(p *models.Product, id primitive.ObjectID) (models.Addon, bool) {
	for _, a := range p.Addons {
		if a.ID == id {
			return a, true
		}
	}
	return models.Addon{}, false
}

// Input carries everything the quote pipeline needs, already loaded.
type Input struct {
	Items          []models.CartItem
	Store          *models.Store
	DistanceKm     float64
	Coupon         *models.Coupon // nil when no code supplied
	UserID         string
	Now            time.Time
	ServiceFeeRate float64
	ServiceFeeCap  float64
	LoyaltyPoints  int
	UsePoints      bool
}

// Quote is the priced result, every money figure rounded to 2 decimals.
type Quote struct {
	Subtotal      float64 `json:"subtotal"`
	Discount      float64 `json:"discount"`
	DeliveryFee   float64 `json:"deliveryFee"`
	Tax           float64 `json:"tax"`
	ServiceFee    float64 `json:"serviceFee"`
	Total         float64 `json:"total"`
	LoyaltySpent  int     `json:"loyaltySpent"`
	LoyaltyEarned int     `json:"loyaltyEarned"`
	EtaMinutes    int     `json:"etaMinutes"`
}

// Compute runs the full pipeline over an already re-priced item list.
func Compute(in Input) (Quote, error) {
	if in.DistanceKm > in.Store.DeliveryRadiusKm {
		return Quote{}, ErrOutOfRange
	}

	var subtotal float64
	for _, item := range in.Items {
		subtotal += item.LineTotal
	}
	subtotal = Round(subtotal)

	if subtotal < in.Store.MinOrderAmount {
		return Quote{}, fmt.Errorf("%w: minimum is %.2f", ErrBelowMinOrder, in.Store.MinOrderAmount)
	}

	fee := DeliveryFee(in.Store, in.DistanceKm, subtotal)

	var discount float64
	taxable := subtotal
	if in.Coupon != nil {
		if err := in.Coupon.EligibleFor(in.UserID, in.Store.ID, subtotal, in.Now); err != nil {
			return Quote{}, err
		}
		discount = in.Coupon.DiscountFor(subtotal, fee)
		// A free-delivery discount targets the fee, not the goods, so it
		// leaves the taxable base alone.
		if in.Coupon.Type != models.CouponFreeDelivery {
			taxable = subtotal - discount
		}
	}

	tax := Round(taxable * in.Store.TaxRate)
	service := Round(subtotal * in.ServiceFeeRate)
	if in.ServiceFeeCap > 0 && service > in.ServiceFeeCap {
		service = in.ServiceFeeCap
	}

	remaining := subtotal - discount + fee + tax + service

	var spent int
	if in.UsePoints && in.LoyaltyPoints > 0 && remaining > 0 {
		spent = in.LoyaltyPoints
		if max := int(math.Floor(remaining)); spent > max {
			spent = max
		}
	}

	total := Round(remaining - float64(spent))
	if total < 0 {
		total = 0
	}

	return Quote{
		Subtotal:      subtotal,
		Discount:      discount,
		DeliveryFee:   fee,
		Tax:           tax,
		ServiceFee:    service,
		Total:         total,
		LoyaltySpent:  spent,
		LoyaltyEarned: int(math.Floor(total)),
		EtaMinutes:    Eta(in.Store, in.DistanceKm),
	}, nil
}

// DeliveryFee charges the store's base fee plus per-km pricing past the
// first kilometre, waived entirely once the free-delivery threshold is met.
func DeliveryFee(s *models.Store, distanceKm, subtotal float64) float64 {
	if s.FreeDeliveryMin > 0 && subtotal >= s.FreeDeliveryMin {
		return 0
	}
	extra := math.Max(0, distanceKm-baseRadiusKm)
	return Round(s.BaseDeliveryFee + s.PerKmDeliveryFee*extra)
}

// Eta estimates minutes until delivery: prep time plus travel time.
func Eta(s *models.Store, distanceKm float64) int {
	travel := distanceKm / courierSpeedKmh * 60
	return s.PrepTimeMinutes + int(math.Ceil(travel))
}

// Round rounds a money amount half away from zero to 2 decimals.
func Round(v float64) float64 {
	return math.Round(v*100) / 100
}
