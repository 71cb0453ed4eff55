package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mealmart/mealmart-backend-go/database"
	"github.com/mealmart/mealmart-backend-go/models"
)

// CreateCoupon registers a discount rule. A missing code gets generated.
func CreateCoupon(c echo.Context) error {
	var coupon models.Coupon
	if err := c.Bind(&coupon); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}

	if !coupon.Type.Valid() {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid coupon type"})
	}
	if coupon.Type != models.CouponFreeDelivery && coupon.Value <= 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Coupon value must be positive"})
	}
	if coupon.Type == models.CouponPercentage && coupon.Value > 100 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Percentage cannot exceed 100"})
	}
	if !coupon.ValidTo.IsZero() && coupon.ValidTo.Before(coupon.ValidFrom) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "validTo must be after validFrom"})
	}

	if coupon.Code == "" {
		coupon.Code = generateCouponCode()
	}
	coupon.Code = strings.ToUpper(strings.TrimSpace(coupon.Code))
	coupon.ID = primitive.NewObjectID()
	coupon.UsedCount = 0
	coupon.UserUsage = map[string]int{}
	coupon.IsActive = true
	coupon.CreatedAt = time.Now()
	coupon.UpdatedAt = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := database.DB.Collection("coupons").InsertOne(ctx, coupon)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return c.JSON(http.StatusConflict, map[string]string{"error": "Coupon code already exists"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create coupon"})
	}

	return c.JSON(http.StatusCreated, coupon)
}

func GetCoupons(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := database.DB.Collection("coupons").Find(ctx, bson.M{})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch coupons"})
	}
	defer cursor.Close(ctx)

	coupons := []models.Coupon{}
	for cursor.Next(ctx) {
		var coupon models.Coupon
		if err := cursor.Decode(&coupon); err == nil {
			coupons = append(coupons, coupon)
		}
	}

	return c.JSON(http.StatusOK, coupons)
}

func UpdateCoupon(c echo.Context) error {
	couponID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid coupon ID"})
	}

	var req models.Coupon
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}
	if !req.Type.Valid() {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid coupon type"})
	}

	update := bson.M{
		"$set": bson.M{
			"type":          req.Type,
			"value":         req.Value,
			"maxDiscount":   req.MaxDiscount,
			"minOrderValue": req.MinOrderValue,
			"storeId":       req.StoreID,
			"validFrom":     req.ValidFrom,
			"validTo":       req.ValidTo,
			"usageLimit":    req.UsageLimit,
			"perUserLimit":  req.PerUserLimit,
			"isActive":      req.IsActive,
			"updatedAt":     time.Now(),
		},
	}

	result, err := database.DB.Collection("coupons").UpdateOne(c.Request().Context(), bson.M{"_id": couponID}, update)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update coupon"})
	}
	if result.MatchedCount == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Coupon not found"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Coupon updated successfully"})
}

func DeleteCoupon(c echo.Context) error {
	couponID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid coupon ID"})
	}

	result, err := database.DB.Collection("coupons").DeleteOne(c.Request().Context(), bson.M{"_id": couponID})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete coupon"})
	}
	if result.DeletedCount == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Coupon not found"})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Coupon deleted successfully"})
}

// ValidateCoupon previews a coupon against a subtotal without consuming it.
func ValidateCoupon(c echo.Context) error {
	userID := c.Get("userID").(primitive.ObjectID)

	var req struct {
		Code        string  `json:"code"`
		StoreID     string  `json:"storeId"`
		Subtotal    float64 `json:"subtotal"`
		DeliveryFee float64 `json:"deliveryFee"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}

	storeID, err := primitive.ObjectIDFromHex(req.StoreID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid store ID"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var coupon models.Coupon
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if err := database.DB.Collection("coupons").FindOne(ctx, bson.M{"code": code}).Decode(&coupon); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Coupon not found"})
	}

	if err := coupon.EligibleFor(userID.Hex(), storeID, req.Subtotal, time.Now()); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"code":     coupon.Code,
		"type":     coupon.Type,
		"discount": coupon.DiscountFor(req.Subtotal, req.DeliveryFee),
	})
}

func generateCouponCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
}
