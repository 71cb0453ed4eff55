package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BusinessHours describes one weekday's opening window. A close time earlier
// than the open time means the window runs past midnight.
type BusinessHours struct {
	Weekday time.Weekday `bson:"weekday" json:"weekday"`
	Open    string       `bson:"open" json:"open"`   // "HH:MM"
	Close   string       `bson:"close" json:"close"` // "HH:MM"
	Closed  bool         `bson:"closed" json:"closed"`
}

type RatingSummary struct {
	Average float64 `bson:"average" json:"average"`
	Count   int     `bson:"count" json:"count"`
}

type Store struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	OwnerID          primitive.ObjectID   `bson:"ownerId" json:"ownerId"`
	Name             string               `bson:"name" json:"name"`
	Description      string               `bson:"description" json:"description"`
	CategoryIDs      []primitive.ObjectID `bson:"categoryIds" json:"categoryIds"`
	Address          string               `bson:"address" json:"address"`
	Location         GeoPoint             `bson:"location" json:"location"`
	DeliveryRadiusKm float64              `bson:"deliveryRadiusKm" json:"deliveryRadiusKm"`
	BaseDeliveryFee  float64              `bson:"baseDeliveryFee" json:"baseDeliveryFee"`
	PerKmDeliveryFee float64              `bson:"perKmDeliveryFee" json:"perKmDeliveryFee"`
	FreeDeliveryMin  float64              `bson:"freeDeliveryMin" json:"freeDeliveryMin"` // 0 disables
	MinOrderAmount   float64              `bson:"minOrderAmount" json:"minOrderAmount"`
	PrepTimeMinutes  int                  `bson:"prepTimeMinutes" json:"prepTimeMinutes"`
	TaxRate          float64              `bson:"taxRate" json:"taxRate"` // fraction, e.g. 0.08
	Hours            []BusinessHours      `bson:"hours" json:"hours"`
	Rating           RatingSummary        `bson:"rating" json:"rating"`
	IsActive         bool                 `bson:"isActive" json:"isActive"`
	CreatedAt        time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// IsOpenAt reports whether the store accepts orders at t. A store with no
// configured hours is treated as always open.
func (s *Store) IsOpenAt(t time.Time) bool {
	if len(s.Hours) == 0 {
		return true
	}

	minutes := t.Hour()*60 + t.Minute()

	for _, h := range s.Hours {
		if h.Closed {
			continue
		}

		open, err := parseClock(h.Open)
		if err != nil {
			continue
		}
		close, err := parseClock(h.Close)
		if err != nil {
			continue
		}

		if close > open {
			if h.Weekday == t.Weekday() && minutes >= open && minutes < close {
				return true
			}
			continue
		}

		// Overnight window: the tail end belongs to the next weekday.
		if h.Weekday == t.Weekday() && minutes >= open {
			return true
		}
		if (h.Weekday+1)%7 == t.Weekday() && minutes < close {
			return true
		}
	}
	return false
}

func parseClock(v string) (int, error) {
	var hh, mm int
	if _, err := fmt.Sscanf(v, "%d:%d", &hh, &mm); err != nil {
		return 0, err
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("invalid clock value %q", v)
	}
	return hh*60 + mm, nil
}
