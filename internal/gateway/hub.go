// Package gateway is the in-memory reference implementation of the chat
// socket contract, used for local development and integration tests. It
// stands in for the production backend; nothing here persists.
package gateway

import (
	"sync"

	"go.uber.org/zap"
)

// Hub holds the live connections, one per user id.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	log     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*Client),
		log:     log,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.UserID] = c
	h.mu.Unlock()
	h.log.Debug("gateway: client registered", zap.String("user", c.UserID))
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if h.clients[c.UserID] == c {
		delete(h.clients, c.UserID)
	}
	h.mu.Unlock()
	h.log.Debug("gateway: client unregistered", zap.String("user", c.UserID))
}

// SendToUser queues a frame for one user, if connected. The send never
// blocks; a slow consumer loses the frame.
func (h *Hub) SendToUser(userID string, frame []byte) {
	h.mu.RLock()
	c, ok := h.clients[userID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case c.send <- frame:
	default:
		h.log.Warn("gateway: send buffer full, frame dropped", zap.String("user", userID))
	}
}
