package ws

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/gofiber/websocket/v2"
)

// Hub tracks the clients connected to the orders channel and fans events out
// to all of them. There is no buffering and no replay: a client only sees
// events published while it is connected.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Handle registers the connection and blocks until it closes. Incoming
// frames are read and discarded; the channel is broadcast-only.
func (h *Hub) Handle(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
	log.Printf("Client connected: %s", conn.RemoteAddr())

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
		log.Printf("Client disconnected: %s", conn.RemoteAddr())
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// ClientCount returns the number of currently connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// BroadcastJSON sends v as a JSON text frame to every connected client.
// A failing client does not stop delivery to the rest; the last write
// error is returned. The lock also serializes writes to each connection.
func (h *Hub) BroadcastJSON(v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal broadcast payload: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var lastErr error
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("Warning: failed to write to client %s: %v", conn.RemoteAddr(), err)
			lastErr = err
		}
	}
	return lastErr
}
