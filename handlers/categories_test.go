package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/mealmart/mealmart-backend-go/database"
)

func postCategory(body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/categories", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestCreateCategoryRequiresName(t *testing.T) {
	c, rec := postCategory(`{"slug":"no-name"}`)
	require.NoError(t, CreateCategory(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateCategory(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("creates category", func(mt *mtest.T) {
		database.DB = mt.DB
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		c, rec := postCategory(`{"name":"Fresh Produce"}`)
		require.NoError(mt, CreateCategory(c))
		assert.Equal(mt, http.StatusCreated, rec.Code)
	})

	// The slug_1 unique index turns a racing duplicate insert into a write
	// error instead of a second category.
	mt.Run("duplicate slug conflicts", func(mt *mtest.T) {
		database.DB = mt.DB
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: categories index: slug_1",
		}))

		c, rec := postCategory(`{"name":"Fresh Produce"}`)
		require.NoError(mt, CreateCategory(c))
		assert.Equal(mt, http.StatusConflict, rec.Code)
	})
}
