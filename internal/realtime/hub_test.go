package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// dialTestConn spins a websocket server that subscribes every incoming
// connection to channel, then dials it.
func dialTestConn(t *testing.T, hub *Hub, channel string) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		hub.Subscribe(channel, ws)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub()
	channel := ContractChannel(5)

	conn := dialTestConn(t, hub, channel)

	// Subscription happens on the server side of the dial; wait for it.
	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount(channel) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Broadcast(channel, Event{Type: EventNewMessage, Data: map[string]any{"content": "oi"}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var evt struct {
		Type EventType       `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &evt); err != nil {
		t.Fatalf("invalid event payload: %v", err)
	}
	if evt.Type != EventNewMessage {
		t.Fatalf("expected %s, got %s", EventNewMessage, evt.Type)
	}
}

func TestHub_ConcurrentBroadcast(t *testing.T) {
	hub := NewHub()
	channel := ContractChannel(9)

	conn := dialTestConn(t, hub, channel)

	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount(channel) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Writes to one conn must be serialized; simultaneous broadcasts on the
	// same channel would otherwise trip gorilla's concurrent-write panic.
	const writers, perWriter = 8, 25
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				hub.Broadcast(channel, Event{Type: EventNotification, Data: map[string]any{"seq": j}})
			}
		}()
	}
	wg.Wait()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for read := 0; read < writers*perWriter; read++ {
		if _, _, err := conn.ReadMessage(); err != nil {
			t.Fatalf("read %d failed: %v", read, err)
		}
	}
}

func TestHub_ChannelKeys(t *testing.T) {
	if got := ContractChannel(5); got != "contract:5" {
		t.Fatalf("unexpected contract channel key %q", got)
	}
	if got := UserChannel(12); got != "user:12" {
		t.Fatalf("unexpected user channel key %q", got)
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub()
	channel := UserChannel(1)

	conn := dialTestConn(t, hub, channel)

	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount(channel) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// The hub tracks the server-side conn, not the client's. Unsubscribing an
	// unknown conn must be a no-op, and the channel survives.
	hub.Unsubscribe(channel, conn)
	if hub.SubscriberCount(channel) != 1 {
		t.Fatalf("expected 1 subscriber, got %d", hub.SubscriberCount(channel))
	}

	// Broadcast to an empty channel must not panic.
	hub.Broadcast("contract:999", Event{Type: EventPresenceJoin})
}
