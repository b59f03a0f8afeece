package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpavel/songsync/internal/logging"
	"github.com/dpavel/songsync/internal/server/models"
)

type stubValidator struct{}

func (stubValidator) ValidateToken(token string) (string, error) {
	if token != "good-token" {
		return "", errors.New("bad token")
	}
	return "user-1", nil
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialAndAuthorize(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	conn, _, err := websocket.Dial(ctx, wsURL(srv), nil)
	require.NoError(t, err)

	data, err := json.Marshal(Envelope{Type: "authorization", Payload: Payload{Token: token}})
	require.NoError(t, err)
	require.NoError(t, conn.Write(ctx, websocket.MessageText, data))

	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		hub.mu.RLock()
		count := len(hub.clients)
		hub.mu.RUnlock()
		if count == n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("clients never reached %d", n)
}

func TestHub_BroadcastReachesAuthorizedClient(t *testing.T) {
	hub := NewHub(stubValidator{}, logging.NewDiscard())
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Shutdown()
		srv.Close()
	})

	conn := dialAndAuthorize(t, srv, "good-token")
	defer conn.Close(websocket.StatusNormalClosure, "")

	waitForClients(t, hub, 1)

	hub.Broadcast("created", models.Song{ID: "srv-1", Text: "A", Length: 10, Date: "d"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, "created", env.Type)
	require.NotNil(t, env.Payload.Song)
	assert.Equal(t, "srv-1", env.Payload.Song.ID)
}

func TestHub_RejectsBadToken(t *testing.T) {
	hub := NewHub(stubValidator{}, logging.NewDiscard())
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Shutdown()
		srv.Close()
	})

	conn := dialAndAuthorize(t, srv, "bad-token")
	defer conn.Close(websocket.StatusNormalClosure, "")

	// The server closes the connection instead of registering it.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _, err := conn.Read(ctx)
	require.Error(t, err)

	hub.mu.RLock()
	count := len(hub.clients)
	hub.mu.RUnlock()
	assert.Zero(t, count)
}

func TestHub_BroadcastSkipsClosedConnections(t *testing.T) {
	hub := NewHub(stubValidator{}, logging.NewDiscard())
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Shutdown()
		srv.Close()
	})

	conn := dialAndAuthorize(t, srv, "good-token")
	waitForClients(t, hub, 1)
	conn.Close(websocket.StatusNormalClosure, "")
	waitForClients(t, hub, 0)

	// Must not panic or block with no subscribers left.
	hub.Broadcast("updated", models.Song{ID: "srv-1"})
}
