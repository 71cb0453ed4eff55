package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mealmart/mealmart-backend-go/config"
	"github.com/mealmart/mealmart-backend-go/models"
	"github.com/mealmart/mealmart-backend-go/utils"
)

func doRequest(t *testing.T, authHeader string, mw echo.MiddlewareFunc, next echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := mw(next)(c)
	require.NoError(t, err)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	config.C = &config.Config{JWTSecret: "test-secret"}

	userID := primitive.NewObjectID()
	token, err := utils.GenerateJWT(userID.Hex(), "customer")
	require.NoError(t, err)

	t.Run("valid token populates context", func(t *testing.T) {
		var gotID primitive.ObjectID
		var gotRole models.UserRole

		rec := doRequest(t, "Bearer "+token, AuthMiddleware(), func(c echo.Context) error {
			gotID = c.Get("userID").(primitive.ObjectID)
			gotRole = c.Get("userRole").(models.UserRole)
			return c.NoContent(http.StatusOK)
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, userID, gotID)
		assert.Equal(t, models.RoleCustomer, gotRole)
	})

	t.Run("missing header", func(t *testing.T) {
		rec := doRequest(t, "", AuthMiddleware(), func(c echo.Context) error {
			t.Fatal("next should not run")
			return nil
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		rec := doRequest(t, token, AuthMiddleware(), func(c echo.Context) error {
			t.Fatal("next should not run")
			return nil
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("tampered token", func(t *testing.T) {
		rec := doRequest(t, "Bearer "+token+"x", AuthMiddleware(), func(c echo.Context) error {
			t.Fatal("next should not run")
			return nil
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	run := func(role models.UserRole, mw echo.MiddlewareFunc) *httptest.ResponseRecorder {
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/api/stores", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set("userRole", role)

		err := mw(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})(c)
		require.NoError(t, err)
		return rec
	}

	merchantOnly := RequireRole(models.RoleMerchant)

	assert.Equal(t, http.StatusOK, run(models.RoleMerchant, merchantOnly).Code)
	assert.Equal(t, http.StatusOK, run(models.RoleAdmin, merchantOnly).Code, "admins always pass")
	assert.Equal(t, http.StatusForbidden, run(models.RoleCustomer, merchantOnly).Code)
}
