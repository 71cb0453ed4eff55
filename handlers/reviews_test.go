package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mealmart/mealmart-backend-go/models"
)

func TestRatingsMatchOrder(t *testing.T) {
	burger := primitive.NewObjectID()
	fries := primitive.NewObjectID()
	items := []models.OrderItem{{ProductID: burger}, {ProductID: fries}}

	t.Run("no product ratings is fine", func(t *testing.T) {
		assert.True(t, ratingsMatchOrder(nil, items))
	})

	t.Run("ratings for ordered products pass", func(t *testing.T) {
		ratings := []models.ProductRating{
			{ProductID: burger, Rating: 5},
			{ProductID: fries, Rating: 4},
		}
		assert.True(t, ratingsMatchOrder(ratings, items))
	})

	t.Run("rating for a product outside the order fails", func(t *testing.T) {
		ratings := []models.ProductRating{{ProductID: primitive.NewObjectID(), Rating: 4}}
		assert.False(t, ratingsMatchOrder(ratings, items))
	})

	t.Run("one stray rating poisons the batch", func(t *testing.T) {
		ratings := []models.ProductRating{
			{ProductID: burger, Rating: 5},
			{ProductID: primitive.NewObjectID(), Rating: 1},
		}
		assert.False(t, ratingsMatchOrder(ratings, items))
	})
}
