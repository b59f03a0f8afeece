// Package ws is the live-update side of the server: a WebSocket hub that
// pushes record change notifications to authorized clients.
//
// Protocol: the client connects, sends one authorization message carrying
// a session token, and from then on only receives. Every accepted write
// on the HTTP API is fanned out as a created or updated message. Clients
// that miss messages while disconnected are expected to reconcile via the
// regular fetch path; the hub does not replay.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/dpavel/songsync/internal/logging"
	"github.com/dpavel/songsync/internal/server/models"
)

// authTimeout bounds how long a connection may stay unauthorized.
const authTimeout = 10 * time.Second

// Envelope is the wire format of hub messages, shared by both directions.
type Envelope struct {
	Type    string  `json:"type"`
	Payload Payload `json:"payload"`
}

type Payload struct {
	Token string       `json:"token,omitempty"`
	Song  *models.Song `json:"song,omitempty"`
}

// TokenValidator checks a session token and returns the user id.
type TokenValidator interface {
	ValidateToken(token string) (string, error)
}

// Hub tracks authorized connections and broadcasts change notifications.
type Hub struct {
	validator TokenValidator
	logger    logging.Logger

	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
}

func NewHub(validator TokenValidator, logger logging.Logger) *Hub {
	return &Hub{
		validator: validator,
		logger:    logger,
		clients:   make(map[*websocket.Conn]bool),
	}
}

// ServeHTTP upgrades the request, waits for the authorization message and
// registers the connection. It blocks until the client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Warn(r.Context(), "websocket accept failed", "error", err)
		return
	}

	ctx := r.Context()

	if err := h.authorize(ctx, conn); err != nil {
		h.logger.Warn(ctx, "websocket authorization failed", "error", err)
		_ = conn.Close(websocket.StatusPolicyViolation, "unauthorized")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Info(ctx, "live client connected", "clients", count)

	// Drain inbound frames until the client goes away. Anything after
	// the authorization message is ignored.
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			break
		}
	}

	h.removeClient(ctx, conn)
}

func (h *Hub) authorize(ctx context.Context, conn *websocket.Conn) error {
	ctx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	_, data, err := conn.Read(ctx)
	if err != nil {
		return err
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	_, err = h.validator.ValidateToken(env.Payload.Token)
	return err
}

// Broadcast fans a change notification out to every authorized client.
// Slow or dead connections are dropped rather than waited on.
func (h *Hub) Broadcast(kind string, song models.Song) {
	data, err := json.Marshal(Envelope{Type: kind, Payload: Payload{Song: &song}})
	if err != nil {
		h.logger.Error(context.Background(), "cannot marshal notification", "error", err)
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := conn.Write(ctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			h.removeClient(context.Background(), conn)
		}
	}
}

// Shutdown closes every connection.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	for conn := range h.clients {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		delete(h.clients, conn)
	}
	h.mu.Unlock()
}

func (h *Hub) removeClient(ctx context.Context, conn *websocket.Conn) {
	h.mu.Lock()
	_, exists := h.clients[conn]
	if exists {
		delete(h.clients, conn)
	}
	count := len(h.clients)
	h.mu.Unlock()

	if exists {
		_ = conn.Close(websocket.StatusNormalClosure, "")
		h.logger.Info(ctx, "live client disconnected", "clients", count)
	}
}
