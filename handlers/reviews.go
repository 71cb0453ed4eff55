package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mealmart/mealmart-backend-go/database"
	"github.com/mealmart/mealmart-backend-go/models"
	"github.com/mealmart/mealmart-backend-go/pricing"
)

type CreateReviewRequest struct {
	OrderID        string                 `json:"orderId"`
	Rating         int                    `json:"rating"`
	Comment        string                 `json:"comment"`
	ProductRatings []models.ProductRating `json:"productRatings"`
}

// CreateReview records a rating for a delivered order, one per order, and
// refreshes the store's (and rated products') aggregates.
func CreateReview(c echo.Context) error {
	userID := c.Get("userID").(primitive.ObjectID)

	var req CreateReviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}

	if !models.ValidRating(req.Rating) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Rating must be between 1 and 5"})
	}
	for _, pr := range req.ProductRatings {
		if !models.ValidRating(pr.Rating) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Product ratings must be between 1 and 5"})
		}
	}

	orderID, err := primitive.ObjectIDFromHex(req.OrderID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid order ID"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var order models.Order
	err = database.DB.Collection("orders").FindOne(ctx, bson.M{"_id": orderID, "userId": userID}).Decode(&order)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Order not found"})
	}
	if order.Status != models.OrderStatusDelivered {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "Only delivered orders can be reviewed"})
	}
	if !ratingsMatchOrder(req.ProductRatings, order.Items) {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "Product ratings must reference items from the order"})
	}

	review := models.Review{
		ID:             primitive.NewObjectID(),
		OrderID:        orderID,
		UserID:         userID,
		StoreID:        order.StoreID,
		Rating:         req.Rating,
		Comment:        req.Comment,
		ProductRatings: req.ProductRatings,
		CreatedAt:      time.Now(),
	}

	_, err = database.DB.Collection("reviews").InsertOne(ctx, review)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return c.JSON(http.StatusConflict, map[string]string{"error": "Order already reviewed"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create review"})
	}

	if err := refreshStoreRating(ctx, order.StoreID); err != nil {
		log.Printf("Failed to refresh store rating: %v", err)
	}
	for _, pr := range req.ProductRatings {
		if err := refreshProductRating(ctx, pr.ProductID); err != nil {
			log.Printf("Failed to refresh product rating: %v", err)
		}
	}

	return c.JSON(http.StatusCreated, review)
}

// ratingsMatchOrder reports whether every rated product was actually part of
// the order, so a review cannot push ratings onto products it never bought.
func ratingsMatchOrder(ratings []models.ProductRating, items []models.OrderItem) bool {
	ordered := make(map[primitive.ObjectID]bool, len(items))
	for _, item := range items {
		ordered[item.ProductID] = true
	}
	for _, pr := range ratings {
		if !ordered[pr.ProductID] {
			return false
		}
	}
	return true
}

// GetStoreReviews lists a store's reviews, newest first.
func GetStoreReviews(c echo.Context) error {
	storeID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid store ID"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := database.DB.Collection("reviews").Find(ctx, bson.M{"storeId": storeID}, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch reviews"})
	}
	defer cursor.Close(ctx)

	reviews := []models.Review{}
	for cursor.Next(ctx) {
		var review models.Review
		if err := cursor.Decode(&review); err == nil {
			reviews = append(reviews, review)
		}
	}

	return c.JSON(http.StatusOK, reviews)
}

// refreshStoreRating recomputes the aggregate from stored reviews instead of
// nudging the running average, so it never drifts.
func refreshStoreRating(ctx context.Context, storeID primitive.ObjectID) error {
	cursor, err := database.DB.Collection("reviews").Find(ctx, bson.M{"storeId": storeID})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	var sum, count int
	for cursor.Next(ctx) {
		var review models.Review
		if err := cursor.Decode(&review); err != nil {
			continue
		}
		sum += review.Rating
		count++
	}

	summary := models.RatingSummary{Count: count}
	if count > 0 {
		summary.Average = pricing.Round(float64(sum) / float64(count))
	}

	_, err = database.DB.Collection("stores").UpdateOne(ctx,
		bson.M{"_id": storeID},
		bson.M{"$set": bson.M{"rating": summary, "updatedAt": time.Now()}},
	)
	return err
}

func refreshProductRating(ctx context.Context, productID primitive.ObjectID) error {
	cursor, err := database.DB.Collection("reviews").Find(ctx, bson.M{"productRatings.productId": productID})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	var sum, count int
	for cursor.Next(ctx) {
		var review models.Review
		if err := cursor.Decode(&review); err != nil {
			continue
		}
		for _, pr := range review.ProductRatings {
			if pr.ProductID == productID {
				sum += pr.Rating
				count++
			}
		}
	}

	summary := models.RatingSummary{Count: count}
	if count > 0 {
		summary.Average = pricing.Round(float64(sum) / float64(count))
	}

	_, err = database.DB.Collection("products").UpdateOne(ctx,
		bson.M{"_id": productID},
		bson.M{"$set": bson.M{"rating": summary, "updatedAt": time.Now()}},
	)
	return err
}
