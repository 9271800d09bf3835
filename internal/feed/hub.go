// Package feed broadcasts gesture events and link-state changes to
// WebSocket clients, for presentation layers running outside the process.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/chaz8081/gesturelink/internal/gesture"
)

const writeTimeout = 100 * time.Millisecond

// Message is the JSON envelope sent to clients.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// GesturePayload describes one decoded gesture.
type GesturePayload struct {
	Gesture    string    `json:"gesture"`
	Label      string    `json:"label"`
	Confidence int       `json:"confidence"`
	ObservedAt time.Time `json:"observed_at"`
}

// LinkStatePayload describes a supervisor transition.
type LinkStatePayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// GestureMessage wraps ev for broadcast.
func GestureMessage(ev gesture.Event) Message {
	return Message{
		Type: "gesture",
		Payload: GesturePayload{
			Gesture:    ev.Gesture.String(),
			Label:      ev.Gesture.Label(),
			Confidence: ev.Confidence,
			ObservedAt: ev.ObservedAt,
		},
	}
}

// LinkStateMessage wraps a link transition for broadcast.
func LinkStateMessage(from, to fmt.Stringer) Message {
	return Message{
		Type:    "link_state",
		Payload: LinkStatePayload{From: from.String(), To: to.String()},
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub tracks connected clients.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool

	// broadcastMu serializes writers; a websocket.Conn allows one
	// concurrent writer.
	broadcastMu sync.Mutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
	}
}

func (h *Hub) addClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
}

func (h *Hub) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends msg to every client. Clients that fail or are too slow
// are dropped.
func (h *Hub) Broadcast(msg Message) {
	h.broadcastMu.Lock()
	defer h.broadcastMu.Unlock()

	h.mu.Lock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		clients = append(clients, conn)
	}
	h.mu.Unlock()

	var wg sync.WaitGroup
	var failedMu sync.Mutex
	var failed []*websocket.Conn

	for _, conn := range clients {
		wg.Add(1)
		go func(c *websocket.Conn) {
			defer wg.Done()
			c.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.WriteJSON(msg); err != nil {
				failedMu.Lock()
				failed = append(failed, c)
				failedMu.Unlock()
			}
		}(conn)
	}
	wg.Wait()

	for _, c := range failed {
		slog.Debug("[FEED] dropping client", "remote", c.RemoteAddr())
		h.removeClient(c)
	}
}

// ServeHTTP upgrades the request and registers the client until it
// disconnects. Client messages are read and discarded.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("[FEED] upgrade failed", "error", err)
		return
	}
	h.addClient(conn)
	slog.Info("[FEED] client connected", "remote", conn.RemoteAddr())

	defer h.removeClient(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Serve runs an HTTP server exposing the hub at /ws until ctx is done.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("[FEED] listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("feed: serve %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		h.closeAll()
		return server.Shutdown(shutdownCtx)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
