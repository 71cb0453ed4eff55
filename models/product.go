package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CustomizationOption is a single pickable variant inside a group, priced as
// a delta on the product's base price.
type CustomizationOption struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	PriceDelta float64            `bson:"priceDelta" json:"priceDelta"`
}

// CustomizationGroup bounds how many options a customer may pick, e.g.
// "Size" (required, exactly one) or "Toppings" (up to three).
type CustomizationGroup struct {
	ID        primitive.ObjectID    `bson:"_id,omitempty" json:"id"`
	Name      string                `bson:"name" json:"name"`
	Required  bool                  `bson:"required" json:"required"`
	MinSelect int                   `bson:"minSelect" json:"minSelect"`
	MaxSelect int                   `bson:"maxSelect" json:"maxSelect"`
	Options   []CustomizationOption `bson:"options" json:"options"`
}

type Addon struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Price float64            `bson:"price" json:"price"`
}

type Product struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	StoreID        primitive.ObjectID   `bson:"storeId" json:"storeId"`
	CategoryID     primitive.ObjectID   `bson:"categoryId,omitempty" json:"categoryId,omitempty"`
	Name           string               `bson:"name" json:"name"`
	Description    string               `bson:"description" json:"description"`
	Price          float64              `bson:"price" json:"price"`
	Images         []string             `bson:"images" json:"images"`
	Stock          int                  `bson:"stock" json:"stock"`
	Customizations []CustomizationGroup `bson:"customizations" json:"customizations"`
	Addons         []Addon              `bson:"addons" json:"addons"`
	IsAvailable    bool                 `bson:"isAvailable" json:"isAvailable"`
	Rating         RatingSummary        `bson:"rating" json:"rating"`
	CreatedAt      time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// Purchasable reports whether the product can currently be added to a cart.
func (p *Product) Purchasable() bool {
	return p.IsAvailable && p.Stock > 0
}
