// Package localstore provides the durable key/value persistence the client
// uses as its offline cache and pending-write outbox. Keys are record ids;
// values are serialized records. The reserved TokenKey slot holds the
// session token and is excluded from record enumeration by callers.
package localstore

import (
	"context"
	"errors"
)

// TokenKey is the reserved key under which the auth token is persisted.
const TokenKey = "token"

// ErrPersistence marks failures of the underlying storage engine.
var ErrPersistence = errors.New("local store failure")

// Store is the keyed persistence contract. Get returns (nil, nil) when the
// key is absent.
type Store interface {
	Keys(ctx context.Context) ([]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}
