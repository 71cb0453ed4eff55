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

// GetStoreProducts lists a store's catalog.
func GetStoreProducts(c echo.Context) error {
	storeID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid store ID"})
	}

	filter := bson.M{"storeId": storeID}
	if c.QueryParam("available") == "true" {
		filter["isAvailable"] = true
		filter["stock"] = bson.M{"$gt": 0}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := database.DB.Collection("products").Find(ctx, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch products"})
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	for cursor.Next(ctx) {
		var product models.Product
		if err := cursor.Decode(&product); err == nil {
			products = append(products, product)
		}
	}

	return c.JSON(http.StatusOK, products)
}

func GetProduct(c echo.Context) error {
	productID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid product ID"})
	}

	var product models.Product
	err = database.DB.Collection("products").FindOne(c.Request().Context(), bson.M{"_id": productID}).Decode(&product)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Product not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch product"})
	}

	return c.JSON(http.StatusOK, product)
}

// CreateProduct adds a product to a store the caller owns.
func CreateProduct(c echo.Context) error {
	userID := c.Get("userID").(primitive.ObjectID)

	var product models.Product
	if err := c.Bind(&product); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}

	if product.Name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Product name is required"})
	}
	if product.Price < 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Price cannot be negative"})
	}

	if _, err := loadOwnedStore(c, product.StoreID, userID); err != nil {
		return err
	}

	// Give embedded groups, options and addons stable ids for cart references.
	for i := range product.Customizations {
		if product.Customizations[i].ID.IsZero() {
			product.Customizations[i].ID = primitive.NewObjectID()
		}
		for j := range product.Customizations[i].Options {
			if product.Customizations[i].Options[j].ID.IsZero() {
				product.Customizations[i].Options[j].ID = primitive.NewObjectID()
			}
		}
	}
	for i := range product.Addons {
		if product.Addons[i].ID.IsZero() {
			product.Addons[i].ID = primitive.NewObjectID()
		}
	}

	product.ID = primitive.NewObjectID()
	product.Rating = models.RatingSummary{}
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := database.DB.Collection("products").InsertOne(ctx, product); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create product"})
	}

	return c.JSON(http.StatusCreated, product)
}

func UpdateProduct(c echo.Context) error {
	userID := c.Get("userID").(primitive.ObjectID)
	productID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid product ID"})
	}

	product, err := loadOwnedProduct(c, productID, userID)
	if err != nil {
		return err
	}

	var req models.Product
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}
	if req.Price < 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Price cannot be negative"})
	}

	update := bson.M{
		"$set": bson.M{
			"name":           req.Name,
			"description":    req.Description,
			"categoryId":     req.CategoryID,
			"price":          req.Price,
			"images":         req.Images,
			"customizations": req.Customizations,
			"addons":         req.Addons,
			"isAvailable":    req.IsAvailable,
			"updatedAt":      time.Now(),
		},
	}

	_, err = database.DB.Collection("products").UpdateOne(c.Request().Context(), bson.M{"_id": product.ID}, update)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update product"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Product updated successfully"})
}

// UpdateProductStock sets the absolute stock level.
func UpdateProductStock(c echo.Context) error {
	userID := c.Get("userID").(primitive.ObjectID)
	productID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid product ID"})
	}

	if _, err := loadOwnedProduct(c, productID, userID); err != nil {
		return err
	}

	var req struct {
		Stock int `json:"stock"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}
	if req.Stock < 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Stock cannot be negative"})
	}

	update := bson.M{"$set": bson.M{"stock": req.Stock, "updatedAt": time.Now()}}
	_, err = database.DB.Collection("products").UpdateOne(c.Request().Context(), bson.M{"_id": productID}, update)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update stock"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Stock updated successfully"})
}

func DeleteProduct(c echo.Context) error {
	userID := c.Get("userID").(primitive.ObjectID)
	productID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid product ID"})
	}

	if _, err := loadOwnedProduct(c, productID, userID); err != nil {
		return err
	}

	_, err = database.DB.Collection("products").DeleteOne(c.Request().Context(), bson.M{"_id": productID})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete product"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Product deleted successfully"})
}

// loadOwnedProduct fetches the product and checks the caller owns its store.
func loadOwnedProduct(c echo.Context, productID, userID primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	err := database.DB.Collection("products").FindOne(c.Request().Context(), bson.M{"_id": productID}).Decode(&product)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Product not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch product")
	}

	if _, err := loadOwnedStore(c, product.StoreID, userID); err != nil {
		return nil, err
	}

	return &product, nil
}
