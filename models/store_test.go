package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// at returns a time on the first occurrence of wd in 2026 with the given clock.
func at(wd time.Weekday, hour, min int) time.Time {
	t := time.Date(2026, 1, 1, hour, min, 0, 0, time.UTC)
	for t.Weekday() != wd {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

func TestStoreIsOpenAt(t *testing.T) {
	store := &Store{
		Hours: []BusinessHours{
			{Weekday: time.Monday, Open: "09:00", Close: "17:00"},
			{Weekday: time.Friday, Open: "22:00", Close: "02:00"},
			{Weekday: time.Sunday, Closed: true},
		},
	}

	t.Run("inside a plain window", func(t *testing.T) {
		assert.True(t, store.IsOpenAt(at(time.Monday, 10, 0)))
		assert.True(t, store.IsOpenAt(at(time.Monday, 9, 0)))
		assert.True(t, store.IsOpenAt(at(time.Monday, 16, 59)))
	})

	t.Run("outside a plain window", func(t *testing.T) {
		assert.False(t, store.IsOpenAt(at(time.Monday, 8, 59)))
		assert.False(t, store.IsOpenAt(at(time.Monday, 17, 0)))
		assert.False(t, store.IsOpenAt(at(time.Monday, 23, 0)))
	})

	t.Run("day with no window", func(t *testing.T) {
		assert.False(t, store.IsOpenAt(at(time.Tuesday, 12, 0)))
	})

	t.Run("closed day", func(t *testing.T) {
		assert.False(t, store.IsOpenAt(at(time.Sunday, 12, 0)))
	})

	t.Run("overnight window", func(t *testing.T) {
		assert.True(t, store.IsOpenAt(at(time.Friday, 23, 0)))
		assert.True(t, store.IsOpenAt(at(time.Saturday, 1, 59)))
		assert.False(t, store.IsOpenAt(at(time.Saturday, 2, 0)))
		assert.False(t, store.IsOpenAt(at(time.Friday, 21, 59)))
	})

	t.Run("no hours means always open", func(t *testing.T) {
		open := &Store{}
		assert.True(t, open.IsOpenAt(at(time.Sunday, 3, 0)))
	})

	t.Run("malformed clock values are skipped", func(t *testing.T) {
		broken := &Store{
			Hours: []BusinessHours{
				{Weekday: time.Monday, Open: "nine", Close: "17:00"},
			},
		}
		assert.False(t, broken.IsOpenAt(at(time.Monday, 10, 0)))
	})
}
