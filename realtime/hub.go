// Package realtime pushes order status changes to subscribed WebSocket
// clients, one room per order.
package realtime

import (
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// StatusEvent is the frame broadcast to an order's room.
type StatusEvent struct {
	OrderID string    `json:"orderId"`
	Status  string    `json:"status"`
	At      time.Time `json:"at"`
}

type client struct {
	room string
	conn *websocket.Conn
	send chan StatusEvent
}

type subscription struct {
	room string
	c    *client
}

// Hub owns the room registry. All map access happens on the Run goroutine.
type Hub struct {
	rooms      map[string]map[*client]bool
	broadcast  chan StatusEvent
	register   chan subscription
	unregister chan subscription
}

// DefaultHub is the process-wide hub, started from main.
var DefaultHub = NewHub()

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*client]bool),
		broadcast:  make(chan StatusEvent, 64),
		register:   make(chan subscription),
		unregister: make(chan subscription),
	}
}

// Run processes registrations and broadcasts until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case sub := <-h.register:
			h.add(sub)
		case sub := <-h.unregister:
			h.remove(sub)
		case ev := <-h.broadcast:
			h.deliver(ev)
		}
	}
}

func (h *Hub) add(sub subscription) {
	room := h.rooms[sub.room]
	if room == nil {
		room = make(map[*client]bool)
		h.rooms[sub.room] = room
	}
	room[sub.c] = true
}

func (h *Hub) remove(sub subscription) {
	room, ok := h.rooms[sub.room]
	if !ok {
		return
	}
	if _, ok := room[sub.c]; ok {
		delete(room, sub.c)
		close(sub.c.send)
	}
	if len(room) == 0 {
		delete(h.rooms, sub.room)
	}
}

func (h *Hub) deliver(ev StatusEvent) {
	room := h.rooms[ev.OrderID]
	for c := range room {
		select {
		case c.send <- ev:
		default:
			// Slow client: drop it rather than block the hub.
			delete(room, c)
			close(c.send)
		}
	}
	if len(room) == 0 {
		delete(h.rooms, ev.OrderID)
	}
}

// Broadcast queues a status event for the order's room.
func (h *Hub) Broadcast(ev StatusEvent) {
	select {
	case h.broadcast <- ev:
	default:
		log.Printf("realtime: dropping status event for order %s, hub backlogged", ev.OrderID)
	}
}

// Subscribe attaches an upgraded connection to an order's room and pumps
// events until the client goes away.
func (h *Hub) Subscribe(orderID string, conn *websocket.Conn) {
	c := &client{room: orderID, conn: conn, send: make(chan StatusEvent, 8)}
	h.register <- subscription{room: orderID, c: c}

	go c.writePump()
	c.readPump(h)
}

func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister <- subscription{room: c.room, c: c}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Clients only listen; the read loop exists to detect disconnects.
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
