package main

import (
	"log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mealmart/mealmart-backend-go/config"
	"github.com/mealmart/mealmart-backend-go/database"
	customMiddleware "github.com/mealmart/mealmart-backend-go/middleware"
	"github.com/mealmart/mealmart-backend-go/realtime"
	"github.com/mealmart/mealmart-backend-go/routes"
)

func main() {
	// Load environment variables
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize Echo
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
	}))

	metrics, err := customMiddleware.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatal("Failed to register metrics:", err)
	}
	e.Use(metrics.Middleware())

	// Connect to MongoDB
	if err := database.ConnectDB(); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Order status push
	go realtime.DefaultHub.Run()

	// Setup routes
	routes.SetupRoutes(e)

	// Start the server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
