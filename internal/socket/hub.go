// server/internal/socket/hub.go
package socket

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const writeWait = 10 * time.Second

// client pairs a connection with its write lock; gorilla connections allow one
// concurrent writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(message []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, message)
}

// Hub tracks connected scanning sessions.
type Hub struct {
	// clients is keyed by scan session id.
	clients map[string]*client
	mu      sync.RWMutex
	log     zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*client),
		log:     log,
	}
}

// Register adds a session to the Hub.
func (h *Hub) Register(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[sessionID] = &client{conn: conn}
	h.log.Debug().Str("session", sessionID).Msg("websocket client registered")
}

// Unregister removes a session from the Hub.
func (h *Hub) Unregister(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[sessionID]; ok {
		delete(h.clients, sessionID)
		h.log.Debug().Str("session", sessionID).Msg("websocket client unregistered")
	}
}

// Count reports connected sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Send writes v as JSON to one session. An unknown session is not an error;
// the client may already be gone.
func (h *Hub) Send(sessionID string, v any) error {
	message, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode websocket message: %w", err)
	}

	h.mu.RLock()
	c, ok := h.clients[sessionID]
	h.mu.RUnlock()
	if !ok {
		h.log.Debug().Str("session", sessionID).Msg("websocket client not found, message dropped")
		return nil
	}
	return c.write(message)
}

// Broadcast writes v to every session. Failed writes are logged and skipped.
func (h *Hub) Broadcast(v any) {
	message, err := json.Marshal(v)
	if err != nil {
		h.log.Error().Err(err).Msg("encode websocket broadcast")
		return
	}

	h.mu.RLock()
	targets := make(map[string]*client, len(h.clients))
	for id, c := range h.clients {
		targets[id] = c
	}
	h.mu.RUnlock()

	for id, c := range targets {
		if err := c.write(message); err != nil {
			h.log.Warn().Err(err).Str("session", id).Msg("websocket broadcast failed")
		}
	}
}
