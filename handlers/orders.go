package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mealmart/mealmart-backend-go/config"
	"github.com/mealmart/mealmart-backend-go/database"
	"github.com/mealmart/mealmart-backend-go/models"
	"github.com/mealmart/mealmart-backend-go/pricing"
	"github.com/mealmart/mealmart-backend-go/realtime"
	"github.com/mealmart/mealmart-backend-go/utils"
)

type checkoutRequest struct {
	AddressID  string `json:"addressId"`
	CouponCode string `json:"couponCode"`
	UsePoints  bool   `json:"usePoints"`
}

// pricedCart is the fully resolved checkout context: documents loaded,
// items re-priced against current products, quote computed.
type pricedCart struct {
	user       *models.User
	cart       *models.Cart
	store      *models.Store
	address    models.Address
	coupon     *models.Coupon
	items      []models.CartItem
	distanceKm float64
	quote      pricing.Quote
}

// buildQuote runs the read-only half of the checkout pipeline. Failures come
// back as *echo.HTTPError.
func buildQuote(ctx context.Context, userID primitive.ObjectID, req checkoutRequest) (*pricedCart, error) {
	var user models.User
	if err := database.DB.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "User not found")
	}

	var cart models.Cart
	err := database.DB.Collection("carts").FindOne(ctx, bson.M{"userId": userID}).Decode(&cart)
	if err != nil || len(cart.Items) == 0 {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Cart is empty")
	}

	var store models.Store
	if err := database.DB.Collection("stores").FindOne(ctx, bson.M{"_id": cart.StoreID}).Decode(&store); err != nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Store not found")
	}
	if !store.IsActive {
		return nil, echo.NewHTTPError(http.StatusUnprocessableEntity, "Store is no longer active")
	}
	if !store.IsOpenAt(time.Now()) {
		return nil, echo.NewHTTPError(http.StatusUnprocessableEntity, "Store is currently closed")
	}

	address, err := resolveAddress(&user, req.AddressID)
	if err != nil {
		return nil, err
	}

	distance := utils.HaversineKm(store.Location, address.Location)

	// Re-price every line against the current product documents; the order
	// snapshots current prices, not the prices at add-to-cart time.
	items := make([]models.CartItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		var product models.Product
		if err := database.DB.Collection("products").FindOne(ctx, bson.M{"_id": line.ProductID}).Decode(&product); err != nil {
			return nil, echo.NewHTTPError(http.StatusUnprocessableEntity, "Product no longer available: "+line.Name)
		}

		selections := make([]pricing.Selection, len(line.Selections))
		for i, s := range line.Selections {
			selections[i] = pricing.Selection{GroupID: s.GroupID, OptionID: s.OptionID}
		}
		addonIDs := make([]primitive.ObjectID, len(line.Addons))
		for i, a := range line.Addons {
			addonIDs[i] = a.AddonID
		}

		item, err := pricing.PriceItem(&product, line.Quantity, selections, addonIDs)
		if err != nil {
			if errors.Is(err, pricing.ErrInsufficientStock) {
				return nil, echo.NewHTTPError(http.StatusConflict, err.Error())
			}
			return nil, echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		items = append(items, item)
	}

	var coupon *models.Coupon
	if req.CouponCode != "" {
		var cpn models.Coupon
		code := strings.ToUpper(strings.TrimSpace(req.CouponCode))
		if err := database.DB.Collection("coupons").FindOne(ctx, bson.M{"code": code}).Decode(&cpn); err != nil {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Coupon not found")
		}
		coupon = &cpn
	}

	quote, err := pricing.Compute(pricing.Input{
		Items:          items,
		Store:          &store,
		DistanceKm:     distance,
		Coupon:         coupon,
		UserID:         userID.Hex(),
		Now:            time.Now(),
		ServiceFeeRate: config.C.Pricing.ServiceFeeRate,
		ServiceFeeCap:  config.C.Pricing.ServiceFeeCap,
		LoyaltyPoints:  user.LoyaltyPoints,
		UsePoints:      req.UsePoints,
	})
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	return &pricedCart{
		user:       &user,
		cart:       &cart,
		store:      &store,
		address:    address,
		coupon:     coupon,
		items:      items,
		distanceKm: distance,
		quote:      quote,
	}, nil
}

func resolveAddress(user *models.User, addressID string) (models.Address, error) {
	if addressID != "" {
		id, err := primitive.ObjectIDFromHex(addressID)
		if err != nil {
			return models.Address{}, echo.NewHTTPError(http.StatusBadRequest, "Invalid address ID")
		}
		addr, ok := user.AddressByID(id)
		if !ok {
			return models.Address{}, echo.NewHTTPError(http.StatusNotFound, "Address not found")
		}
		return addr, nil
	}

	for _, a := range user.Addresses {
		if a.IsDefault {
			return a, nil
		}
	}
	if len(user.Addresses) > 0 {
		return user.Addresses[0], nil
	}
	return models.Address{}, echo.NewHTTPError(http.StatusBadRequest, "No delivery address on file")
}

// CreateOrder turns the cart into an immutable priced order. Writes are a
// best-effort sequence of guarded single-document updates; the stock
// decrement filter makes each individual write race-safe.
func CreateOrder(c echo.Context) error {
	userID := c.Get("userID").(primitive.ObjectID)

	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	priced, err := buildQuote(ctx, userID, req)
	if err != nil {
		return err
	}

	// Decrement stock, guarded per document so a concurrent checkout cannot
	// drive it negative. On failure, restore what was already taken.
	products := database.DB.Collection("products")
	taken := make([]models.CartItem, 0, len(priced.items))
	for _, item := range priced.items {
		res, err := products.UpdateOne(ctx,
			bson.M{"_id": item.ProductID, "stock": bson.M{"$gte": item.Quantity}},
			bson.M{"$inc": bson.M{"stock": -item.Quantity}},
		)
		if err != nil || res.ModifiedCount == 0 {
			restoreStock(ctx, taken)
			return c.JSON(http.StatusConflict, map[string]string{
				"error": "Insufficient stock for " + item.Name,
			})
		}
		taken = append(taken, item)
	}

	if priced.coupon != nil {
		update := bson.M{"$inc": bson.M{
			"usedCount":                 1,
			"userUsage." + userID.Hex(): 1,
		}}
		if _, err := database.DB.Collection("coupons").UpdateOne(ctx, bson.M{"_id": priced.coupon.ID}, update); err != nil {
			log.Printf("Failed to record coupon usage: %v", err)
		}
	}

	if priced.quote.LoyaltySpent > 0 {
		update := bson.M{"$inc": bson.M{"loyaltyPoints": -priced.quote.LoyaltySpent}}
		if _, err := database.DB.Collection("users").UpdateOne(ctx, bson.M{"_id": userID}, update); err != nil {
			log.Printf("Failed to deduct loyalty points: %v", err)
		}
	}

	now := time.Now()
	orderItems := make([]models.OrderItem, len(priced.items))
	for i, item := range priced.items {
		orderItems[i] = models.OrderItem(item)
	}

	order := models.Order{
		ID:              primitive.NewObjectID(),
		Number:          orderNumber(),
		UserID:          userID,
		StoreID:         priced.store.ID,
		Items:           orderItems,
		Pricing:         quoteToBreakdown(priced.quote),
		DeliveryAddress: priced.address,
		DistanceKm:      priced.distanceKm,
		EtaMinutes:      priced.quote.EtaMinutes,
		Status:          models.OrderStatusPending,
		StatusHistory:   []models.StatusChange{{Status: models.OrderStatusPending, At: now}},
		PlacedAt:        now,
		UpdatedAt:       now,
	}
	if priced.coupon != nil {
		order.CouponCode = priced.coupon.Code
	}

	if _, err := database.DB.Collection("orders").InsertOne(ctx, order); err != nil {
		restoreStock(ctx, taken)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create order"})
	}

	// Clear cart after successful order creation
	_, err = database.DB.Collection("carts").UpdateOne(
		ctx,
		bson.M{"userId": userID},
		bson.M{"$set": bson.M{"items": []models.CartItem{}, "updatedAt": now}},
	)
	if err != nil {
		log.Printf("Failed to clear cart after order creation: %v", err)
	}

	return c.JSON(http.StatusCreated, order)
}

// settlement lists the stateful follow-ups owed when an order reaches a
// status with side effects: stock back on cancel, loyalty points moving in
// either direction, coupon usage released.
type settlement struct {
	restoreStock  bool
	loyaltyDelta  int
	releaseCoupon bool
}

// settlementFor decides what entering status owes the rest of the system,
// independent of which endpoint drove the transition.
func settlementFor(order *models.Order, status models.OrderStatus) settlement {
	switch status {
	case models.OrderStatusCancelled:
		return settlement{
			restoreStock:  true,
			loyaltyDelta:  order.Pricing.LoyaltySpent,
			releaseCoupon: order.CouponCode != "",
		}
	case models.OrderStatusDelivered:
		// Loyalty points are earned when the food actually arrives.
		return settlement{loyaltyDelta: order.Pricing.LoyaltyEarned}
	default:
		return settlement{}
	}
}

// applySettlement performs the writes settlementFor decided on. Each write is
// best-effort and logged, matching the rest of the post-order bookkeeping.
func applySettlement(ctx context.Context, order *models.Order, s settlement) {
	if s.restoreStock {
		items := make([]models.CartItem, len(order.Items))
		for i, item := range order.Items {
			items[i] = models.CartItem(item)
		}
		restoreStock(ctx, items)
	}

	if s.loyaltyDelta != 0 {
		update := bson.M{"$inc": bson.M{"loyaltyPoints": s.loyaltyDelta}}
		if _, err := database.DB.Collection("users").UpdateOne(ctx, bson.M{"_id": order.UserID}, update); err != nil {
			log.Printf("Failed to adjust loyalty points: %v", err)
		}
	}

	if s.releaseCoupon {
		update := bson.M{"$inc": bson.M{
			"usedCount":                       -1,
			"userUsage." + order.UserID.Hex(): -1,
		}}
		if _, err := database.DB.Collection("coupons").UpdateOne(ctx, bson.M{"code": order.CouponCode}, update); err != nil {
			log.Printf("Failed to release coupon usage: %v", err)
		}
	}
}

func restoreStock(ctx context.Context, items []models.CartItem) {
	products := database.DB.Collection("products")
	for _, item := range items {
		if _, err := products.UpdateOne(ctx,
			bson.M{"_id": item.ProductID},
			bson.M{"$inc": bson.M{"stock": item.Quantity}},
		); err != nil {
			log.Printf("Failed to restore stock for %s: %v", item.ProductID.Hex(), err)
		}
	}
}

func quoteToBreakdown(q pricing.Quote) models.PricingBreakdown {
	return models.PricingBreakdown{
		Subtotal:      q.Subtotal,
		Discount:      q.Discount,
		DeliveryFee:   q.DeliveryFee,
		Tax:           q.Tax,
		ServiceFee:    q.ServiceFee,
		Total:         q.Total,
		LoyaltyEarned: q.LoyaltyEarned,
		LoyaltySpent:  q.LoyaltySpent,
	}
}

func orderNumber() string {
	return "MM-" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:10])
}

// GetOrders lists the caller's orders, newest first.
func GetOrders(c echo.Context) error {
	userID := c.Get("userID").(primitive.ObjectID)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "placedAt", Value: -1}})
	cursor, err := database.DB.Collection("orders").Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch orders"})
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	for cursor.Next(ctx) {
		var order models.Order
		if err := cursor.Decode(&order); err == nil {
			orders = append(orders, order)
		}
	}

	return c.JSON(http.StatusOK, orders)
}

// GetOrder returns one order to its customer, the store owner, or an admin.
func GetOrder(c echo.Context) error {
	userID := c.Get("userID").(primitive.ObjectID)

	order, err := loadVisibleOrder(c, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, order)
}

func GetOrderStatus(c echo.Context) error {
	userID := c.Get("userID").(primitive.ObjectID)

	order, err := loadVisibleOrder(c, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"status": string(order.Status)})
}

// UpdateOrderStatus advances the order along its status progression and
// notifies the order's WebSocket room.
func UpdateOrderStatus(c echo.Context) error {
	userID := c.Get("userID").(primitive.ObjectID)
	orderID, err := primitive.ObjectIDFromHex(c.Param("orderId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid order ID"})
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}

	next := models.OrderStatus(req.Status)
	if !next.Valid() {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown order status"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var order models.Order
	if err := database.DB.Collection("orders").FindOne(ctx, bson.M{"_id": orderID}).Decode(&order); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Order not found"})
	}

	// Only the store owner or an admin moves an order forward.
	if _, err := loadOwnedStore(c, order.StoreID, userID); err != nil {
		return err
	}

	if !models.CanTransition(order.Status, next) {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{
			"error": "Cannot move order from " + string(order.Status) + " to " + string(next),
		})
	}

	if err := setOrderStatus(ctx, &order, next); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update order"})
	}

	// A merchant-side cancel owes the same restocking and refunds as a
	// customer-side one.
	applySettlement(ctx, &order, settlementFor(&order, next))

	return c.JSON(http.StatusOK, map[string]string{"status": string(next)})
}

// CancelOrder lets the customer back out while the order is still
// cancellable, restoring stock and refunding spent loyalty points.
func CancelOrder(c echo.Context) error {
	userID := c.Get("userID").(primitive.ObjectID)
	orderID, err := primitive.ObjectIDFromHex(c.Param("orderId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid order ID"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var order models.Order
	if err := database.DB.Collection("orders").FindOne(ctx, bson.M{"_id": orderID, "userId": userID}).Decode(&order); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Order not found"})
	}

	if !order.Status.Cancellable() {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{
			"error": "Order can no longer be cancelled",
		})
	}

	if err := setOrderStatus(ctx, &order, models.OrderStatusCancelled); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to cancel order"})
	}

	applySettlement(ctx, &order, settlementFor(&order, models.OrderStatusCancelled))

	return c.JSON(http.StatusOK, map[string]string{"status": string(models.OrderStatusCancelled)})
}

// setOrderStatus persists the transition, appends history and broadcasts.
func setOrderStatus(ctx context.Context, order *models.Order, status models.OrderStatus) error {
	now := time.Now()
	change := models.StatusChange{Status: status, At: now}

	update := bson.M{
		"$set":  bson.M{"status": status, "updatedAt": now},
		"$push": bson.M{"statusHistory": change},
	}

	_, err := database.DB.Collection("orders").UpdateOne(ctx, bson.M{"_id": order.ID}, update)
	if err != nil {
		return err
	}

	order.Status = status
	realtime.DefaultHub.Broadcast(realtime.StatusEvent{
		OrderID: order.ID.Hex(),
		Status:  string(status),
		At:      now,
	})
	return nil
}

// loadVisibleOrder fetches the :orderId order if the caller may see it.
func loadVisibleOrder(c echo.Context, userID primitive.ObjectID) (*models.Order, error) {
	orderID, err := primitive.ObjectIDFromHex(c.Param("orderId"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid order ID")
	}

	var order models.Order
	err = database.DB.Collection("orders").FindOne(c.Request().Context(), bson.M{"_id": orderID}).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, echo.NewHTTPError(http.StatusNotFound, "Order not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch order")
	}

	if order.UserID == userID {
		return &order, nil
	}
	role, _ := c.Get("userRole").(models.UserRole)
	if role == models.RoleAdmin {
		return &order, nil
	}

	var store models.Store
	err = database.DB.Collection("stores").FindOne(c.Request().Context(), bson.M{"_id": order.StoreID}).Decode(&store)
	if err == nil && store.OwnerID == userID {
		return &order, nil
	}

	return nil, echo.NewHTTPError(http.StatusForbidden, "Not allowed to view this order")
}
