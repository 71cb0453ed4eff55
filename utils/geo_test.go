package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mealmart/mealmart-backend-go/models"
)

func TestHaversineKm(t *testing.T) {
	paris := models.GeoPoint{Lat: 48.8566, Lng: 2.3522}
	london := models.GeoPoint{Lat: 51.5074, Lng: -0.1278}

	d := HaversineKm(paris, london)
	assert.InDelta(t, 343.5, d, 1.0)

	// Symmetric and zero at the same point.
	assert.InDelta(t, d, HaversineKm(london, paris), 1e-9)
	assert.Equal(t, 0.0, HaversineKm(paris, paris))
}

func TestHaversineKmShortRange(t *testing.T) {
	// Two points ~1.11km apart along a meridian (0.01 degrees of latitude).
	a := models.GeoPoint{Lat: 40.0, Lng: -73.0}
	b := models.GeoPoint{Lat: 40.01, Lng: -73.0}

	assert.InDelta(t, 1.11, HaversineKm(a, b), 0.01)
}
