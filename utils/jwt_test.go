package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mealmart/mealmart-backend-go/config"
)

func TestJWTRoundTrip(t *testing.T) {
	config.C = &config.Config{JWTSecret: "test-secret"}

	userID := primitive.NewObjectID().Hex()
	token, err := GenerateJWT(userID, "merchant")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "merchant", claims.Role)
}

func TestValidateJWTRejectsWrongSecret(t *testing.T) {
	config.C = &config.Config{JWTSecret: "test-secret"}
	token, err := GenerateJWT(primitive.NewObjectID().Hex(), "customer")
	require.NoError(t, err)

	config.C = &config.Config{JWTSecret: "other-secret"}
	_, err = ValidateJWT(token)
	assert.Error(t, err)
}

func TestValidateJWTRejectsGarbage(t *testing.T) {
	config.C = &config.Config{JWTSecret: "test-secret"}
	_, err := ValidateJWT("not-a-token")
	assert.Error(t, err)
}
