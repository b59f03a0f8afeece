package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/coder/websocket"

	"github.com/dpavel/songsync/internal/client/models"
)

// liveEnvelope is the wire format of every live-channel message, outbound
// (authorization) and inbound (change notifications).
type liveEnvelope struct {
	Type    string      `json:"type"`
	Payload livePayload `json:"payload"`
}

type livePayload struct {
	Token string       `json:"token,omitempty"`
	Song  *models.Song `json:"song,omitempty"`
}

// OpenLiveChannel dials the server's push channel, performs the
// authorization handshake, and pumps inbound notifications to onMessage
// from a background goroutine until the channel is closed.
func (g *HTTPGateway) OpenLiveChannel(ctx context.Context, token string, onMessage func(Change)) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)

	conn, _, err := websocket.Dial(ctx, g.liveURL(), nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	handshake, err := json.Marshal(liveEnvelope{
		Type:    "authorization",
		Payload: livePayload{Token: token},
	})
	if err != nil {
		cancel()
		_ = conn.Close(websocket.StatusInternalError, "handshake failed")
		return nil, err
	}
	if err := conn.Write(ctx, websocket.MessageText, handshake); err != nil {
		cancel()
		_ = conn.Close(websocket.StatusInternalError, "handshake failed")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	go g.readLoop(ctx, conn, onMessage)

	var once sync.Once
	closeFn := func() {
		once.Do(func() {
			cancel()
			_ = conn.Close(websocket.StatusNormalClosure, "session ended")
		})
	}
	return closeFn, nil
}

func (g *HTTPGateway) readLoop(ctx context.Context, conn *websocket.Conn, onMessage func(Change)) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			// Closed locally or dropped by the server; either way the
			// channel is done. Missed messages are recovered by the next
			// full reconciliation.
			g.logger.Debug(ctx, "live channel closed", "reason", err)
			return
		}

		var env liveEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			g.logger.Warn(ctx, "dropping malformed live message", "error", err)
			continue
		}

		switch ChangeKind(env.Type) {
		case ChangeCreated, ChangeUpdated:
			if env.Payload.Song == nil {
				g.logger.Warn(ctx, "dropping live message without a record", "type", env.Type)
				continue
			}
			onMessage(Change{Kind: ChangeKind(env.Type), Song: *env.Payload.Song})
		default:
			g.logger.Debug(ctx, "ignoring live message", "type", env.Type)
		}
	}
}

// liveURL derives the websocket endpoint from the REST base URL.
func (g *HTTPGateway) liveURL() string {
	u, err := url.Parse(g.baseURL)
	if err != nil {
		return g.baseURL
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.String()
}
