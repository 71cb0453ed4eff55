package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductRating struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Rating    int                `bson:"rating" json:"rating"` // 1-5
}

// Review is written once per delivered order.
type Review struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID        primitive.ObjectID `bson:"orderId" json:"orderId"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	StoreID        primitive.ObjectID `bson:"storeId" json:"storeId"`
	Rating         int                `bson:"rating" json:"rating"` // 1-5, store overall
	Comment        string             `bson:"comment,omitempty" json:"comment,omitempty"`
	ProductRatings []ProductRating    `bson:"productRatings,omitempty" json:"productRatings,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}

// ValidRating reports whether r is inside the 1-5 scale.
func ValidRating(r int) bool {
	return r >= 1 && r <= 5
}
