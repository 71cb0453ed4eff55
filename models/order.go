package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusOnWay     OrderStatus = "on_way"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRefunded  OrderStatus = "refunded"
)

var ErrInvalidTransition = errors.New("invalid order status transition")

// statusTransitions is the linear progression plus the cancelled/refunded
// side exits.
var statusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing: {OrderStatusReady, OrderStatusCancelled},
	OrderStatusReady:     {OrderStatusOnWay},
	OrderStatusOnWay:     {OrderStatusDelivered},
	OrderStatusDelivered: {OrderStatusRefunded},
	OrderStatusCancelled: {OrderStatusRefunded},
	OrderStatusRefunded:  {},
}

func (s OrderStatus) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransition reports whether from may move directly to to.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Cancellable reports whether a customer may still cancel the order.
func (s OrderStatus) Cancellable() bool {
	return CanTransition(s, OrderStatusCancelled)
}

type OrderItem struct {
	ProductID  primitive.ObjectID `bson:"productId" json:"productId"`
	Name       string             `bson:"name" json:"name"`
	UnitPrice  float64            `bson:"unitPrice" json:"unitPrice"`
	Quantity   int                `bson:"quantity" json:"quantity"`
	Selections []SelectedOption   `bson:"selections" json:"selections"`
	Addons     []SelectedAddon    `bson:"addons" json:"addons"`
	LineTotal  float64            `bson:"lineTotal" json:"lineTotal"`
}

// PricingBreakdown is the immutable money snapshot computed at checkout.
type PricingBreakdown struct {
	Subtotal      float64 `bson:"subtotal" json:"subtotal"`
	Discount      float64 `bson:"discount" json:"discount"`
	DeliveryFee   float64 `bson:"deliveryFee" json:"deliveryFee"`
	Tax           float64 `bson:"tax" json:"tax"`
	ServiceFee    float64 `bson:"serviceFee" json:"serviceFee"`
	Total         float64 `bson:"total" json:"total"`
	LoyaltyEarned int     `bson:"loyaltyEarned" json:"loyaltyEarned"`
	LoyaltySpent  int     `bson:"loyaltySpent" json:"loyaltySpent"`
}

type StatusChange struct {
	Status OrderStatus `bson:"status" json:"status"`
	At     time.Time   `bson:"at" json:"at"`
}

type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Number          string             `bson:"number" json:"number"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	StoreID         primitive.ObjectID `bson:"storeId" json:"storeId"`
	Items           []OrderItem        `bson:"items" json:"items"`
	Pricing         PricingBreakdown   `bson:"pricing" json:"pricing"`
	DeliveryAddress Address            `bson:"deliveryAddress" json:"deliveryAddress"`
	DistanceKm      float64            `bson:"distanceKm" json:"distanceKm"`
	EtaMinutes      int                `bson:"etaMinutes" json:"etaMinutes"`
	CouponCode      string             `bson:"couponCode,omitempty" json:"couponCode,omitempty"`
	Status          OrderStatus        `bson:"status" json:"status"`
	StatusHistory   []StatusChange     `bson:"statusHistory" json:"statusHistory"`
	PlacedAt        time.Time          `bson:"placedAt" json:"placedAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}
