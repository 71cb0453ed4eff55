package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mealmart/mealmart-backend-go/handlers"
	customMiddleware "github.com/mealmart/mealmart-backend-go/middleware"
	"github.com/mealmart/mealmart-backend-go/models"
)

func SetupRoutes(e *echo.Echo) {
	// Public routes
	e.POST("/register", handlers.Register)
	e.POST("/login", handlers.Login)

	e.GET("/categories", handlers.GetCategories)
	e.GET("/stores", handlers.GetStores)
	e.GET("/stores/:id", handlers.GetStore)
	e.GET("/stores/:id/products", handlers.GetStoreProducts)
	e.GET("/stores/:id/reviews", handlers.GetStoreReviews)
	e.GET("/products/:id", handlers.GetProduct)

	// Realtime order status (token via query param)
	e.GET("/ws/orders/:orderId", handlers.OrderSocket)

	// Protected API routes
	api := e.Group("/api")
	api.Use(customMiddleware.AuthMiddleware())

	// User routes
	api.GET("/users/me", handlers.GetUserProfile)
	api.PUT("/users/me", handlers.UpdateUserProfile)
	api.GET("/users/me/addresses", handlers.GetUserAddresses)
	api.POST("/users/me/addresses", handlers.AddUserAddress)
	api.PUT("/users/me/addresses/:id", handlers.UpdateUserAddress)
	api.DELETE("/users/me/addresses/:id", handlers.DeleteUserAddress)

	// Store management (merchants)
	merchant := customMiddleware.RequireRole(models.RoleMerchant)
	api.POST("/stores", handlers.CreateStore, merchant)
	api.PUT("/stores/:id", handlers.UpdateStore, merchant)
	api.DELETE("/stores/:id", handlers.DeleteStore, merchant)
	api.POST("/products", handlers.CreateProduct, merchant)
	api.PUT("/products/:id", handlers.UpdateProduct, merchant)
	api.PUT("/products/:id/stock", handlers.UpdateProductStock, merchant)
	api.DELETE("/products/:id", handlers.DeleteProduct, merchant)

	// Admin-only catalog and coupon management
	admin := customMiddleware.RequireRole(models.RoleAdmin)
	api.POST("/categories", handlers.CreateCategory, admin)
	api.PUT("/categories/:id", handlers.UpdateCategory, admin)
	api.DELETE("/categories/:id", handlers.DeleteCategory, admin)
	api.POST("/coupons", handlers.CreateCoupon, admin)
	api.GET("/coupons", handlers.GetCoupons, admin)
	api.PUT("/coupons/:id", handlers.UpdateCoupon, admin)
	api.DELETE("/coupons/:id", handlers.DeleteCoupon, admin)

	api.POST("/coupons/validate", handlers.ValidateCoupon)

	// Cart routes
	api.GET("/cart", handlers.GetCart)
	api.GET("/cart/summary", handlers.GetCartSummary)
	api.POST("/cart/items", handlers.AddCartItem)
	api.PUT("/cart/items/:productId", handlers.UpdateCartItemQuantity)
	api.DELETE("/cart/items/:productId", handlers.RemoveCartItem)
	api.DELETE("/cart", handlers.ClearCart)

	// Order routes
	api.POST("/orders", handlers.CreateOrder)
	api.GET("/orders", handlers.GetOrders)
	api.GET("/orders/:orderId", handlers.GetOrder)
	api.GET("/orders/:orderId/status", handlers.GetOrderStatus)
	api.PATCH("/orders/:orderId/status", handlers.UpdateOrderStatus, customMiddleware.RequireRole(models.RoleMerchant))
	api.POST("/orders/:orderId/cancel", handlers.CancelOrder)

	// Review routes
	api.POST("/reviews", handlers.CreateReview)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})
}
