package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mealmart/mealmart-backend-go/database"
	"github.com/mealmart/mealmart-backend-go/models"
)

// GetStores lists active stores, optionally filtered by category and
// open-now.
func GetStores(c echo.Context) error {
	filter := bson.M{"isActive": true}

	if category := c.QueryParam("category"); category != "" {
		catID, err := primitive.ObjectIDFromHex(category)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid category ID"})
		}
		filter["categoryIds"] = catID
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := database.DB.Collection("stores").Find(ctx, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch stores"})
	}
	defer cursor.Close(ctx)

	openNow := c.QueryParam("open") == "true"
	now := time.Now()

	stores := []models.Store{}
	for cursor.Next(ctx) {
		var store models.Store
		if err := cursor.Decode(&store); err != nil {
			continue
		}
		if openNow && !store.IsOpenAt(now) {
			continue
		}
		stores = append(stores, store)
	}

	return c.JSON(http.StatusOK, stores)
}

func GetStore(c echo.Context) error {
	storeID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid store ID"})
	}

	var store models.Store
	err = database.DB.Collection("stores").FindOne(c.Request().Context(), bson.M{"_id": storeID}).Decode(&store)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Store not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch store"})
	}

	return c.JSON(http.StatusOK, store)
}

// CreateStore registers a new store owned by the calling merchant.
func CreateStore(c echo.Context) error {
	userID := c.Get("userID").(primitive.ObjectID)

	var store models.Store
	if err := c.Bind(&store); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}

	if store.Name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Store name is required"})
	}
	if store.DeliveryRadiusKm <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Delivery radius must be positive"})
	}
	if store.TaxRate < 0 || store.TaxRate >= 1 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Tax rate must be a fraction in [0, 1)"})
	}

	store.ID = primitive.NewObjectID()
	store.OwnerID = userID
	store.IsActive = true
	store.Rating = models.RatingSummary{}
	store.CreatedAt = time.Now()
	store.UpdatedAt = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := database.DB.Collection("stores").InsertOne(ctx, store)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create store"})
	}

	return c.JSON(http.StatusCreated, store)
}

// UpdateStore lets the owner edit store settings.
func UpdateStore(c echo.Context) error {
	userID := c.Get("userID").(primitive.ObjectID)
	storeID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid store ID"})
	}

	store, err := loadOwnedStore(c, storeID, userID)
	if err != nil {
		return err
	}

	var req models.Store
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}
	if req.DeliveryRadiusKm <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Delivery radius must be positive"})
	}

	update := bson.M{
		"$set": bson.M{
			"name":             req.Name,
			"description":      req.Description,
			"categoryIds":      req.CategoryIDs,
			"address":          req.Address,
			"location":         req.Location,
			"deliveryRadiusKm": req.DeliveryRadiusKm,
			"baseDeliveryFee":  req.BaseDeliveryFee,
			"perKmDeliveryFee": req.PerKmDeliveryFee,
			"freeDeliveryMin":  req.FreeDeliveryMin,
			"minOrderAmount":   req.MinOrderAmount,
			"prepTimeMinutes":  req.PrepTimeMinutes,
			"taxRate":          req.TaxRate,
			"hours":            req.Hours,
			"updatedAt":        time.Now(),
		},
	}

	_, err = database.DB.Collection("stores").UpdateOne(c.Request().Context(), bson.M{"_id": store.ID}, update)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update store"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Store updated successfully"})
}

// DeleteStore soft-deletes by flipping isActive.
func DeleteStore(c echo.Context) error {
	userID := c.Get("userID").(primitive.ObjectID)
	storeID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid store ID"})
	}

	if _, err := loadOwnedStore(c, storeID, userID); err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now()}}
	_, err = database.DB.Collection("stores").UpdateOne(c.Request().Context(), bson.M{"_id": storeID}, update)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete store"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Store deactivated"})
}

// loadOwnedStore fetches the store and enforces ownership (admins pass).
// Failures come back as *echo.HTTPError for the caller to return directly.
func loadOwnedStore(c echo.Context, storeID, userID primitive.ObjectID) (*models.Store, error) {
	var store models.Store
	err := database.DB.Collection("stores").FindOne(c.Request().Context(), bson.M{"_id": storeID}).Decode(&store)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Store not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch store")
	}

	role, _ := c.Get("userRole").(models.UserRole)
	if store.OwnerID != userID && role != models.RoleAdmin {
		return nil, echo.NewHTTPError(http.StatusForbidden, "Not the store owner")
	}

	return &store, nil
}
