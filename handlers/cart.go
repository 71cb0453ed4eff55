package handlers

import (
	"context"
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

type AddCartItemRequest struct {
	ProductID  string               `json:"productId"`
	Quantity   int                  `json:"quantity"`
	Selections []pricing.Selection  `json:"selections"`
	AddonIDs   []primitive.ObjectID `json:"addonIds"`
}

// GetCart retrieves the user's cart
func GetCart(c echo.Context) error {
	userID := c.Get("userID").(primitive.ObjectID)

	var cart models.Cart
	err := database.DB.Collection("carts").FindOne(c.Request().Context(), bson.M{"userId": userID}).Decode(&cart)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusOK, models.Cart{UserID: userID, Items: []models.CartItem{}})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch cart"})
	}

	return c.JSON(http.StatusOK, cart)
}

// AddCartItem prices the item against the current product document and adds
// it. Adding from a different store replaces the cart: one store per cart.
func AddCartItem(c echo.Context) error {
	userID := c.Get("userID").(primitive.ObjectID)

	var req AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}

	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid product ID"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var product models.Product
	err = database.DB.Collection("products").FindOne(ctx, bson.M{"_id": productID}).Decode(&product)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Product not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch product"})
	}

	item, err := pricing.PriceItem(&product, req.Quantity, req.Selections, req.AddonIDs)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	collection := database.DB.Collection("carts")

	var cart models.Cart
	err = collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&cart)
	switch {
	case err != nil && err != mongo.ErrNoDocuments:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch cart"})
	case err == mongo.ErrNoDocuments || cart.StoreID != product.StoreID:
		// Fresh cart, or the item comes from a different store.
		update := bson.M{
			"$set": bson.M{
				"userId":    userID,
				"storeId":   product.StoreID,
				"items":     []models.CartItem{item},
				"updatedAt": time.Now(),
			},
		}
		_, err = collection.UpdateOne(ctx, bson.M{"userId": userID}, update, options.Update().SetUpsert(true))
	default:
		update := bson.M{
			"$push": bson.M{"items": item},
			"$set":  bson.M{"updatedAt": time.Now()},
		}
		_, err = collection.UpdateOne(ctx, bson.M{"userId": userID}, update)
	}

	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update cart"})
	}

	return c.JSON(http.StatusOK, item)
}

// UpdateCartItemQuantity sets an item's quantity; zero removes it.
func UpdateCartItemQuantity(c echo.Context) error {
	userID := c.Get("userID").(primitive.ObjectID)
	productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid product ID"})
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}
	if req.Quantity < 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Quantity cannot be negative"})
	}
	if req.Quantity == 0 {
		return RemoveCartItem(c)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Line totals are derived from the stored unit price, so reload the cart
	// to recompute them per matching line.
	var cart models.Cart
	err = database.DB.Collection("carts").FindOne(ctx, bson.M{"userId": userID}).Decode(&cart)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Cart not found"})
	}

	updated := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity = req.Quantity
			cart.Items[i].LineTotal = pricing.Round(cart.Items[i].UnitPrice * float64(req.Quantity))
			updated = true
		}
	}
	if !updated {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Item not found in cart"})
	}

	update := bson.M{"$set": bson.M{"items": cart.Items, "updatedAt": time.Now()}}
	if _, err := database.DB.Collection("carts").UpdateOne(ctx, bson.M{"userId": userID}, update); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update cart"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Quantity updated successfully"})
}

// RemoveCartItem removes all lines for a product from the cart.
func RemoveCartItem(c echo.Context) error {
	userID := c.Get("userID").(primitive.ObjectID)
	productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid product ID"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	update := bson.M{
		"$pull": bson.M{
			"items": bson.M{"productId": productID},
		},
		"$set": bson.M{"updatedAt": time.Now()},
	}

	result, err := database.DB.Collection("carts").UpdateOne(ctx, bson.M{"userId": userID}, update)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if result.ModifiedCount == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Item not found in cart"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Item removed from cart"})
}

// ClearCart empties the cart.
func ClearCart(c echo.Context) error {
	userID := c.Get("userID").(primitive.ObjectID)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{"items": []models.CartItem{}, "updatedAt": time.Now()}}
	if _, err := database.DB.Collection("carts").UpdateOne(ctx, bson.M{"userId": userID}, update); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to clear cart"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Cart cleared"})
}

// GetCartSummary runs the checkout pricing pipeline without writing
// anything, so the storefront can preview totals.
func GetCartSummary(c echo.Context) error {
	userID := c.Get("userID").(primitive.ObjectID)

	q := checkoutRequest{
		AddressID:  c.QueryParam("addressId"),
		CouponCode: c.QueryParam("coupon"),
		UsePoints:  c.QueryParam("usePoints") == "true",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	priced, err := buildQuote(ctx, userID, q)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"items":      priced.items,
		"distanceKm": priced.distanceKm,
		"quote":      priced.quote,
	})
}
