// Package syncer is the offline-first synchronization engine: a reducer-based
// state machine over the record collection, the online/offline read and write
// paths, the reconciliation flush, and the live-update merge.
package syncer

import (
	"context"
	"errors"
	"sync"

	"github.com/dpavel/songsync/internal/client/gateway"
	"github.com/dpavel/songsync/internal/client/localstore"
	"github.com/dpavel/songsync/internal/client/models"
	"github.com/dpavel/songsync/internal/logging"
)

// Connectivity is the boolean online signal the machine reacts to.
type Connectivity interface {
	Online() bool
	Subscribe() (<-chan bool, func())
}

// Machine owns the sync state. All transitions funnel through dispatch,
// which serializes them; gateway and store calls happen outside the lock,
// so concurrent operations interleave only at transition granularity.
type Machine struct {
	gw         gateway.Gateway
	store      localstore.Store
	net        Connectivity
	token      string
	logger     logging.Logger
	reconciler *Reconciler

	mu        sync.Mutex
	state     State
	closed    bool
	closeLive func()
	subs      map[int]chan struct{}
	nextSub   int
}

// NewMachine wires the engine together. The token is fixed for the session;
// a new login means a new machine.
func NewMachine(gw gateway.Gateway, store localstore.Store, net Connectivity, token string, logger logging.Logger) *Machine {
	return &Machine{
		gw:         gw,
		store:      store,
		net:        net,
		token:      token,
		logger:     logger,
		reconciler: NewReconciler(gw, store, logger),
		subs:       make(map[int]chan struct{}),
	}
}

// State returns a snapshot of the current sync state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.snapshot()
}

// Subscribe registers for change notifications. The channel receives a
// signal after every applied transition; coalescing is allowed.
func (m *Machine) Subscribe() (<-chan struct{}, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan struct{}, 1)
	m.subs[id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
	return ch, cancel
}

// dispatch applies one transition. After Close it is a no-op, which is how
// results of operations that outlive the session get discarded.
func (m *Machine) dispatch(a Action) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.state = reduce(m.state, a)
	for _, ch := range m.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	m.mu.Unlock()
}

func (m *Machine) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Machine) setPending(pending bool) {
	m.mu.Lock()
	if !m.closed {
		m.state.PendingLocal = pending
	}
	m.mu.Unlock()
}

// Fetch runs the read path: against the server when online (refreshing the
// local cache), or from the local store when offline.
func (m *Machine) Fetch(ctx context.Context) error {
	if m.net.Online() {
		return m.fetchOnline(ctx)
	}
	return m.fetchOffline(ctx)
}

func (m *Machine) fetchOnline(ctx context.Context) error {
	m.dispatch(Action{Kind: FetchStarted})

	songs, err := m.gw.FetchAll(ctx, m.token)
	if m.isClosed() {
		// Session ended while the fetch was in flight; observe the
		// completion but discard the result.
		return nil
	}
	if err != nil {
		m.logger.Error(ctx, "fetch failed", "error", err)
		m.dispatch(Action{Kind: FetchFailed, Err: err})
		return err
	}

	m.dispatch(Action{Kind: FetchSucceeded, Songs: songs})

	for _, song := range songs {
		data, err := models.EncodeSong(song)
		if err != nil {
			m.logger.Warn(ctx, "skipping cache refresh for record", "id", song.ID, "error", err)
			continue
		}
		if err := m.store.Set(ctx, song.ID, data); err != nil {
			m.logger.Warn(ctx, "cache refresh failed for record", "id", song.ID, "error", err)
		}
	}
	return nil
}

func (m *Machine) fetchOffline(ctx context.Context) error {
	keys, err := m.store.Keys(ctx)
	if err != nil {
		m.dispatch(Action{Kind: FetchFailed, Err: err})
		return err
	}

	songs := make([]models.Song, 0, len(keys))
	for _, key := range keys {
		if key == localstore.TokenKey {
			continue
		}
		data, err := m.store.Get(ctx, key)
		if err != nil {
			m.logger.Warn(ctx, "skipping unreadable record", "key", key, "error", err)
			continue
		}
		if data == nil {
			continue
		}
		song, err := models.ParseSong(data)
		if err != nil {
			m.logger.Warn(ctx, "skipping malformed record", "key", key, "error", err)
			continue
		}
		songs = append(songs, song)
	}

	m.dispatch(Action{Kind: FetchSucceeded, Songs: songs})
	return nil
}

// Save runs the write path. Online it creates or updates against the
// server. Offline, or when the remote attempt fails, it persists the
// record locally under a placeholder id and marks pending writes, trading
// error visibility for availability.
func (m *Machine) Save(ctx context.Context, song models.Song) (models.Song, error) {
	if !m.net.Online() {
		return m.saveLocal(ctx, song)
	}

	m.dispatch(Action{Kind: SaveStarted})

	var saved models.Song
	var err error
	if song.ID == "" {
		saved, err = m.gw.Create(ctx, m.token, song)
	} else {
		saved, err = m.gw.Update(ctx, m.token, song)
	}
	if err != nil {
		m.logger.Warn(ctx, "remote save failed, degrading to local write", "error", err)
		return m.saveLocal(ctx, song)
	}

	m.dispatch(Action{Kind: SaveSucceeded, Song: saved})
	m.mirror(ctx, saved)
	return saved, nil
}

func (m *Machine) saveLocal(ctx context.Context, song models.Song) (models.Song, error) {
	if song.ID == "" {
		song.ID = models.NewLocalID()
	}

	data, err := models.EncodeSong(song)
	if err != nil {
		m.dispatch(Action{Kind: SaveFailed, Err: err})
		return models.Song{}, err
	}
	if err := m.store.Set(ctx, song.ID, data); err != nil {
		m.dispatch(Action{Kind: SaveFailed, Err: err})
		return models.Song{}, err
	}

	// Optimistic: no server confirmation.
	m.dispatch(Action{Kind: SaveSucceeded, Song: song})
	m.setPending(true)
	return song, nil
}

// mirror refreshes the local cache entry for a server-confirmed record.
func (m *Machine) mirror(ctx context.Context, song models.Song) {
	data, err := models.EncodeSong(song)
	if err != nil {
		m.logger.Warn(ctx, "cannot mirror record locally", "id", song.ID, "error", err)
		return
	}
	if err := m.store.Set(ctx, song.ID, data); err != nil {
		m.logger.Warn(ctx, "cannot mirror record locally", "id", song.ID, "error", err)
	}
}

// Run watches connectivity until ctx is done. Every regained connection
// triggers a refetch; when local writes are pending the outbox is flushed
// first and the pending flag cleared afterwards.
func (m *Machine) Run(ctx context.Context) {
	ch, cancel := m.net.Subscribe()
	defer cancel()

	for {
		select {
		case online := <-ch:
			if !online {
				continue
			}
			if m.State().PendingLocal {
				m.flushPending(ctx)
			} else if err := m.Fetch(ctx); err != nil {
				m.logger.Warn(ctx, "refetch after reconnect failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (m *Machine) flushPending(ctx context.Context) {
	m.logger.Info(ctx, "connectivity regained, flushing pending writes")
	if err := m.Sync(ctx); err != nil {
		m.logger.Warn(ctx, "flush finished with errors", "error", err)
	}
}

// Sync runs a reconciliation pass followed by a refetch. Per-record
// failures do not abort the pass; the pending flag is cleared regardless
// because the next pass retries whatever is still local-only.
func (m *Machine) Sync(ctx context.Context) error {
	flushErr := m.reconciler.Flush(ctx, m.token)
	fetchErr := m.Fetch(ctx)
	m.setPending(false)
	return errors.Join(flushErr, fetchErr)
}

// StartLive opens the push channel and folds inbound notifications into
// the state via the same upsert used by saves. Messages arriving after
// Close are discarded by dispatch.
func (m *Machine) StartLive(ctx context.Context) error {
	closeFn, err := m.gw.OpenLiveChannel(ctx, m.token, func(c gateway.Change) {
		// created and updated merge identically.
		m.dispatch(Action{Kind: SaveSucceeded, Song: c.Song})
	})
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.closeLive = closeFn
	m.mu.Unlock()
	return nil
}

// Close ends the session: the live channel is shut down and every
// still-in-flight operation has its eventual result discarded.
func (m *Machine) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	closeLive := m.closeLive
	m.mu.Unlock()

	if closeLive != nil {
		closeLive()
	}
}
