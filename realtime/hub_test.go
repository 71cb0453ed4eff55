package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcastReachesOnlyTheRoom(t *testing.T) {
	h := NewHub()
	go h.Run()

	sub := func(room string) *client {
		c := &client{room: room, send: make(chan StatusEvent, 8)}
		h.register <- subscription{room: room, c: c}
		return c
	}

	a := sub("order-1")
	b := sub("order-1")
	other := sub("order-2")

	h.Broadcast(StatusEvent{OrderID: "order-1", Status: "confirmed", At: time.Now()})

	for _, c := range []*client{a, b} {
		select {
		case ev := <-c.send:
			assert.Equal(t, "confirmed", ev.Status)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for broadcast")
		}
	}

	select {
	case ev := <-other.send:
		t.Fatalf("unrelated room received %v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	h := NewHub()
	go h.Run()

	c := &client{room: "order-1", send: make(chan StatusEvent, 8)}
	h.register <- subscription{room: "order-1", c: c}
	h.unregister <- subscription{room: "order-1", c: c}

	select {
	case _, ok := <-c.send:
		require.False(t, ok, "send channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for close")
	}

	// Broadcasting to the now-empty room must not panic or block.
	h.Broadcast(StatusEvent{OrderID: "order-1", Status: "ready", At: time.Now()})
}

func TestHubPrunesRoomWhenLastSlowClientDropped(t *testing.T) {
	h := NewHub()

	// Drive the loop bodies directly so the room map can be inspected
	// without racing the Run goroutine.
	c := &client{room: "order-1", send: make(chan StatusEvent)}
	h.add(subscription{room: "order-1", c: c})
	require.Contains(t, h.rooms, "order-1")

	h.deliver(StatusEvent{OrderID: "order-1", Status: "confirmed", At: time.Now()})

	_, ok := <-c.send
	assert.False(t, ok, "slow client should have been dropped")
	assert.NotContains(t, h.rooms, "order-1", "empty room should be pruned")
}

func TestHubDropsSlowClients(t *testing.T) {
	h := NewHub()
	go h.Run()

	// No buffer: the first undelivered event marks the client as slow.
	c := &client{room: "order-1", send: make(chan StatusEvent)}
	h.register <- subscription{room: "order-1", c: c}

	h.Broadcast(StatusEvent{OrderID: "order-1", Status: "confirmed", At: time.Now()})

	select {
	case _, ok := <-c.send:
		assert.False(t, ok, "slow client should have been dropped")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for drop")
	}
}
