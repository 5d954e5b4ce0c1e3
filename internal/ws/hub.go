// Package ws fans match patches out to every connected client.
package ws

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const DefaultWriteTimeout = 3 * time.Second

type Hub struct {
	mu           sync.Mutex
	clients      map[*websocket.Conn]struct{}
	writeTimeout time.Duration
}

func NewHub() *Hub {
	return &Hub{
		clients:      make(map[*websocket.Conn]struct{}),
		writeTimeout: DefaultWriteTimeout,
	}
}

func (h *Hub) Add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Send writes one message to a single client.
func (h *Hub) Send(ctx context.Context, conn *websocket.Conn, message []byte) error {
	ctx, cancel := context.WithTimeout(ctx, h.writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, message)
}

// Broadcast writes message to every client, dropping those that fail, and
// reports how many received it.
func (h *Hub) Broadcast(message []byte) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for conn := range h.clients {
		if err := h.Send(context.Background(), conn, message); err != nil {
			_ = conn.Close(websocket.StatusNormalClosure, "")
			delete(h.clients, conn)
			continue
		}
		delivered++
	}
	return delivered
}

// CloseAll disconnects every client, e.g. once the match is final-scored.
func (h *Hub) CloseAll(reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		_ = conn.Close(websocket.StatusGoingAway, reason)
		delete(h.clients, conn)
	}
}
