package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SelectedOption records a customization pick with its price snapshotted at
// the time it was added.
type SelectedOption struct {
	GroupID    primitive.ObjectID `bson:"groupId" json:"groupId"`
	OptionID   primitive.ObjectID `bson:"optionId" json:"optionId"`
	Name       string             `bson:"name" json:"name"`
	PriceDelta float64            `bson:"priceDelta" json:"priceDelta"`
}

type SelectedAddon struct {
	AddonID primitive.ObjectID `bson:"addonId" json:"addonId"`
	Name    string             `bson:"name" json:"name"`
	Price   float64            `bson:"price" json:"price"`
}

type CartItem struct {
	ProductID  primitive.ObjectID `bson:"productId" json:"productId"`
	Name       string             `bson:"name" json:"name"`
	UnitPrice  float64            `bson:"unitPrice" json:"unitPrice"` // base + selections + addons
	Quantity   int                `bson:"quantity" json:"quantity"`
	Selections []SelectedOption   `bson:"selections" json:"selections"`
	Addons     []SelectedAddon    `bson:"addons" json:"addons"`
	LineTotal  float64            `bson:"lineTotal" json:"lineTotal"`
}

// Cart stages items from a single store ahead of checkout.
type Cart struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	StoreID   primitive.ObjectID `bson:"storeId" json:"storeId"`
	Items     []CartItem         `bson:"items" json:"items"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (c *Cart) Subtotal() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.LineTotal
	}
	return total
}
