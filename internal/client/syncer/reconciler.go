package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dpavel/songsync/internal/client/gateway"
	"github.com/dpavel/songsync/internal/client/localstore"
	"github.com/dpavel/songsync/internal/client/models"
	"github.com/dpavel/songsync/internal/logging"
)

// Reconciler performs the full reconciliation pass ("flush"): every locally
// persisted record is compared against the remote list and pushed up as a
// create or update where needed.
type Reconciler struct {
	gw     gateway.Gateway
	store  localstore.Store
	logger logging.Logger
}

func NewReconciler(gw gateway.Gateway, store localstore.Store, logger logging.Logger) *Reconciler {
	return &Reconciler{gw: gw, store: store, logger: logger}
}

// Flush fetches the remote record list and reconciles every local entry
// against it, one goroutine per record. Individual failures are logged and
// collected for diagnostics; they never abort the siblings. Each remote
// call is attempted exactly once; recovery relies on the next pass.
func (r *Reconciler) Flush(ctx context.Context, token string) error {
	remote, err := r.gw.FetchAll(ctx, token)
	if err != nil {
		return fmt.Errorf("flush aborted: %w", err)
	}

	index := make(map[string]models.Song, len(remote))
	for _, s := range remote {
		index[s.ID] = s
	}

	keys, err := r.store.Keys(ctx)
	if err != nil {
		return fmt.Errorf("flush aborted: %w", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error

	for _, key := range keys {
		if key == localstore.TokenKey {
			continue
		}
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			if err := r.reconcileKey(ctx, token, key, index); err != nil {
				r.logger.Error(ctx, "record reconciliation failed", "key", key, "error", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				mu.Unlock()
			}
		}(key)
	}
	wg.Wait()

	return errors.Join(errs...)
}

// reconcileKey applies the per-record decision rule: remote existence
// decides create-vs-update, content difference decides update-vs-skip.
// On update the entire local record overwrites the remote one.
func (r *Reconciler) reconcileKey(ctx context.Context, token, key string, remote map[string]models.Song) error {
	data, err := r.store.Get(ctx, key)
	if err != nil {
		return err
	}
	if data == nil {
		// Removed since Keys(), nothing left to reconcile.
		return nil
	}

	local, err := models.ParseSong(data)
	if err != nil {
		return err
	}

	onServer, found := remote[key]
	if !found {
		// The server never issued this id; create the record without it
		// and let the server-assigned id become canonical on the next
		// fetch.
		created := local
		created.ID = ""
		if _, err := r.gw.Create(ctx, token, created); err != nil {
			return err
		}
		r.logger.Info(ctx, "created remote record from local entry", "key", key)
		return r.store.Remove(ctx, key)
	}

	if onServer.Equal(local) {
		return nil
	}

	// Local content wins at record granularity; the local entry stays in
	// place and is refreshed by the next fetch.
	if _, err := r.gw.Update(ctx, token, local); err != nil {
		return err
	}
	r.logger.Info(ctx, "updated remote record from local entry", "key", key)
	return nil
}
