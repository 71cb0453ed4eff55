package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		// The linear happy path.
		{OrderStatusPending, OrderStatusConfirmed, true},
		{OrderStatusConfirmed, OrderStatusPreparing, true},
		{OrderStatusPreparing, OrderStatusReady, true},
		{OrderStatusReady, OrderStatusOnWay, true},
		{OrderStatusOnWay, OrderStatusDelivered, true},

		// No skipping ahead or moving backwards.
		{OrderStatusPending, OrderStatusPreparing, false},
		{OrderStatusPending, OrderStatusDelivered, false},
		{OrderStatusConfirmed, OrderStatusPending, false},
		{OrderStatusDelivered, OrderStatusOnWay, false},

		// Cancellation window closes once the food is ready.
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusConfirmed, OrderStatusCancelled, true},
		{OrderStatusPreparing, OrderStatusCancelled, true},
		{OrderStatusReady, OrderStatusCancelled, false},
		{OrderStatusOnWay, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusCancelled, false},

		// Refunds only after a terminal outcome.
		{OrderStatusDelivered, OrderStatusRefunded, true},
		{OrderStatusCancelled, OrderStatusRefunded, true},
		{OrderStatusPending, OrderStatusRefunded, false},
		{OrderStatusRefunded, OrderStatusPending, false},
		{OrderStatusRefunded, OrderStatusRefunded, false},
	}

	for _, tt := range tests {
		got := CanTransition(tt.from, tt.to)
		assert.Equal(t, tt.want, got, "%s -> %s", tt.from, tt.to)
	}
}

func TestOrderStatusValid(t *testing.T) {
	for _, s := range []OrderStatus{
		OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusReady, OrderStatusOnWay, OrderStatusDelivered,
		OrderStatusCancelled, OrderStatusRefunded,
	} {
		assert.True(t, s.Valid(), string(s))
	}

	assert.False(t, OrderStatus("shipped").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestCancellable(t *testing.T) {
	assert.True(t, OrderStatusPending.Cancellable())
	assert.True(t, OrderStatusPreparing.Cancellable())
	assert.False(t, OrderStatusReady.Cancellable())
	assert.False(t, OrderStatusDelivered.Cancellable())
}
