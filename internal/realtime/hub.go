package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Hub tracks every live websocket connection, keyed by user. One user may
// hold several connections at once; each one receives every push addressed
// to that user.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]bool
	logger  *zap.Logger
	closed  bool
}

// NewHub constructs an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]map[*client]bool),
		logger:  logger,
	}
}

// PushCount delivers the user's unread notification count to every one of
// their connections. Delivery is best effort; a user with no connections
// is a no-op.
func (h *Hub) PushCount(userID string, unread int64) {
	h.PushEvent(userID, Event{Type: EventUnreadCount, Data: UnreadCountData{Count: unread}})
}

// PushEvent delivers an event to every connection the user holds. A
// connection whose outbound buffer is full is dropped rather than allowed
// to stall the rest.
func (h *Hub) PushEvent(userID string, event Event) {
	if userID == "" {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Warn("realtime event marshal failed", zap.String("event_type", event.Type), zap.Error(err))
		return
	}

	h.mu.RLock()
	connections := h.clients[userID]
	slow := make([]*client, 0)
	for connection := range connections {
		select {
		case connection.send <- payload:
		default:
			slow = append(slow, connection)
		}
	}
	h.mu.RUnlock()

	for _, connection := range slow {
		h.logger.Warn("realtime send buffer full, dropping connection", zap.String("user_id", userID))
		h.remove(connection)
	}
}

// ConnectedUserIDs enumerates the users holding at least one connection.
func (h *Hub) ConnectedUserIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	userIDs := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		userIDs = append(userIDs, userID)
	}
	return userIDs
}

// Shutdown closes every connection and rejects future registrations.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, connections := range h.clients {
		for connection := range connections {
			close(connection.send)
		}
	}
	h.clients = make(map[string]map[*client]bool)
	h.logger.Info("realtime hub shut down")
}

func (h *Hub) add(connection *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	if _, ok := h.clients[connection.userID]; !ok {
		h.clients[connection.userID] = make(map[*client]bool)
	}
	h.clients[connection.userID][connection] = true
	h.logger.Debug("realtime client connected",
		zap.String("user_id", connection.userID),
		zap.Int("connections", len(h.clients[connection.userID])))
	return true
}

func (h *Hub) remove(connection *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	connections, ok := h.clients[connection.userID]
	if !ok {
		return
	}
	if _, exists := connections[connection]; !exists {
		return
	}
	delete(connections, connection)
	close(connection.send)
	if len(connections) == 0 {
		delete(h.clients, connection.userID)
	}
	h.logger.Debug("realtime client disconnected", zap.String("user_id", connection.userID))
}
