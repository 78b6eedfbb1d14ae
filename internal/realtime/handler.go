package realtime

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	errMissingHub      = errors.New("realtime: hub is required")
	errMissingVerifier = errors.New("realtime: token verifier is required")
)

// TokenVerifier authenticates the handshake token and resolves it to a user.
// Browsers cannot attach headers to a websocket handshake, so the token
// rides on the query string instead of the Authorization header.
type TokenVerifier interface {
	VerifyToken(tokenString string) (userID string, err error)
}

// UnreadCounter supplies the unread notification count pushed to a client
// immediately after it connects.
type UnreadCounter interface {
	UnreadCount(ctx context.Context, userID string) (int64, error)
}

// HandlerConfig describes the dependencies required by the websocket handler.
type HandlerConfig struct {
	Hub      *Hub
	Verifier TokenVerifier
	Counter  UnreadCounter
	Logger   *zap.Logger
}

// Handler upgrades authenticated HTTP requests to websocket connections and
// registers them with the hub.
type Handler struct {
	hub      *Hub
	verifier TokenVerifier
	counter  UnreadCounter
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandler constructs the websocket handler.
func NewHandler(cfg HandlerConfig) (*Handler, error) {
	if cfg.Hub == nil {
		return nil, errMissingHub
	}
	if cfg.Verifier == nil {
		return nil, errMissingVerifier
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		hub:      cfg.Hub,
		verifier: cfg.Verifier,
		counter:  cfg.Counter,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}, nil
}

// ServeHTTP authenticates the handshake, upgrades the connection, and starts
// the client pumps. A missing or invalid token is rejected before the
// upgrade with 401; no anonymous socket is ever registered.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	userID, err := h.verifier.VerifyToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("user_id", userID), zap.Error(err))
		return
	}

	connection := &client{
		hub:    h.hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
		logger: h.logger,
	}
	if !h.hub.add(connection) {
		conn.Close()
		return
	}

	go connection.writePump()
	h.pushInitialCount(r.Context(), userID)
	connection.readPump()
}

func (h *Handler) pushInitialCount(ctx context.Context, userID string) {
	if h.counter == nil {
		return
	}
	unread, err := h.counter.UnreadCount(ctx, userID)
	if err != nil {
		h.logger.Warn("initial unread count failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	h.hub.PushCount(userID, unread)
}
