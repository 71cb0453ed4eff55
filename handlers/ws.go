package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mealmart/mealmart-backend-go/models"
	"github.com/mealmart/mealmart-backend-go/realtime"
	"github.com/mealmart/mealmart-backend-go/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS is enforced on the REST surface; the socket authenticates by token.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// OrderSocket subscribes the caller to live status updates for one order.
// Browsers cannot set headers on WebSocket handshakes, so the token comes in
// as a query parameter.
func OrderSocket(c echo.Context) error {
	claims, err := utils.ValidateJWT(c.QueryParam("token"))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or expired token"})
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid user ID"})
	}
	c.Set("userID", userID)
	c.Set("userRole", models.UserRole(claims.Role))

	order, err := loadVisibleOrder(c, userID)
	if err != nil {
		return err
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	realtime.DefaultHub.Subscribe(order.ID.Hex(), conn)
	return nil
}
