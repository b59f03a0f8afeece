// Package gateway wraps outbound calls to the remote record store and the
// live-update channel. It holds no record state of its own; every method is
// a single request/response attempt with no retry.
package gateway

import (
	"context"
	"errors"

	"github.com/dpavel/songsync/internal/client/models"
)

var (
	// ErrUnavailable means the server could not be reached at the
	// transport level.
	ErrUnavailable = errors.New("server unavailable")

	// ErrRejected means the server was reached but answered with a
	// non-success status.
	ErrRejected = errors.New("request rejected")

	// ErrUnauthorized means the token was missing, expired or invalid.
	ErrUnauthorized = errors.New("unauthorized")
)

// ChangeKind labels a server-pushed change notification.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
)

// Change is one inbound live-channel notification.
type Change struct {
	Kind ChangeKind
	Song models.Song
}

// Gateway is the remote record store as seen by the client.
type Gateway interface {
	Login(ctx context.Context, username, password string) (string, error)
	FetchAll(ctx context.Context, token string) ([]models.Song, error)
	Create(ctx context.Context, token string, song models.Song) (models.Song, error)
	Update(ctx context.Context, token string, song models.Song) (models.Song, error)
	Ping(ctx context.Context) error

	// OpenLiveChannel opens the push channel, sends the authorization
	// handshake and invokes onMessage for every inbound notification.
	// The returned close function is idempotent. Messages missed while
	// disconnected are not replayed; full reconciliation is the
	// authoritative correction mechanism.
	OpenLiveChannel(ctx context.Context, token string, onMessage func(Change)) (func(), error)
}
