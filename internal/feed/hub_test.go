package feed

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/chaz8081/gesturelink/internal/gesture"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if h.ClientCount() == n {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("ClientCount() = %d, want %d", h.ClientCount(), n)
}

type received struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

func TestHubBroadcastsGesture(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	c1 := dial(t, srv)
	c2 := dial(t, srv)
	waitClients(t, hub, 2)

	at := time.Date(2024, 3, 2, 1, 0, 0, 0, time.UTC)
	hub.Broadcast(GestureMessage(gesture.Event{Gesture: gesture.SwipeRight, Confidence: 88, ObservedAt: at}))

	for _, c := range []*websocket.Conn{c1, c2} {
		c.SetReadDeadline(time.Now().Add(time.Second))
		var msg received
		if err := c.ReadJSON(&msg); err != nil {
			t.Fatalf("ReadJSON() error = %v", err)
		}
		if msg.Type != "gesture" {
			t.Errorf("Type = %q, want gesture", msg.Type)
		}
		if msg.Payload["gesture"] != "SWIPE_RIGHT" || msg.Payload["label"] != "SWIPE RIGHT" {
			t.Errorf("Payload = %v", msg.Payload)
		}
		if msg.Payload["confidence"] != float64(88) {
			t.Errorf("confidence = %v, want 88", msg.Payload["confidence"])
		}
		if msg.Payload["observed_at"] != "2024-03-02T01:00:00Z" {
			t.Errorf("observed_at = %v", msg.Payload["observed_at"])
		}
	}
}

type state string

func (s state) String() string { return string(s) }

func TestHubBroadcastsLinkState(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	c := dial(t, srv)
	waitClients(t, hub, 1)

	hub.Broadcast(LinkStateMessage(state("CONNECTING"), state("LISTENING")))

	c.SetReadDeadline(time.Now().Add(time.Second))
	var msg received
	if err := c.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if msg.Type != "link_state" || msg.Payload["from"] != "CONNECTING" || msg.Payload["to"] != "LISTENING" {
		t.Errorf("message = %+v", msg)
	}
}

func TestHubRemovesClosedClient(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	c := dial(t, srv)
	waitClients(t, hub, 1)

	c.Close()
	waitClients(t, hub, 0)

	// Broadcasting with no clients is a no-op.
	hub.Broadcast(GestureMessage(gesture.Event{Gesture: gesture.Idle}))
}
