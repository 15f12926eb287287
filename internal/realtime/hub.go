package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub fans events out to websocket subscribers. Channels are keyed by
// "contract:<id>" for chat threads and "user:<id>" for notification push.
// Delivery is fire-and-forget, at-most-once per attempt; a client that missed
// events re-fetches history over REST after reconnecting.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[*websocket.Conn]*client
}

// client wraps a subscriber connection with a write lock; gorilla/websocket
// does not allow concurrent writers on one conn.
type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (cl *client) write(payload []byte) error {
	cl.writeMu.Lock()
	defer cl.writeMu.Unlock()
	return cl.conn.WriteMessage(websocket.TextMessage, payload)
}

// NewHub creates an empty Hub
func NewHub() *Hub {
	return &Hub{channels: make(map[string]map[*websocket.Conn]*client)}
}

// ContractChannel is the channel key for a contract's chat thread
func ContractChannel(contractID uint) string {
	return fmt.Sprintf("contract:%d", contractID)
}

// UserChannel is the channel key for a user's notification stream
func UserChannel(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}

// Subscribe registers a connection on a channel
func (h *Hub) Subscribe(channel string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.channels[channel] == nil {
		h.channels[channel] = make(map[*websocket.Conn]*client)
	}
	h.channels[channel][conn] = &client{conn: conn}
}

// Unsubscribe removes a connection from a channel
func (h *Hub) Unsubscribe(channel string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.channels[channel]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.channels, channel)
		}
	}
}

// Broadcast pushes an event to every subscriber of a channel. Write errors
// are swallowed; the read loop owns connection teardown.
func (h *Hub) Broadcast(channel string, evt Event) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, cl := range h.channels[channel] {
		_ = cl.write(payload)
	}
}

// SubscriberCount reports how many connections a channel has
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

// Upgrader is the shared websocket upgrader for the hub endpoints
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}
