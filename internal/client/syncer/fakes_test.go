package syncer

import (
	"context"
	"fmt"
	"sync"

	"github.com/dpavel/songsync/internal/client/gateway"
	"github.com/dpavel/songsync/internal/client/models"
)

// fakeNet is a hand-driven Connectivity signal.
type fakeNet struct {
	mu     sync.Mutex
	online bool
	subs   map[int]chan bool
	nextID int
}

func newFakeNet(online bool) *fakeNet {
	return &fakeNet{online: online, subs: make(map[int]chan bool)}
}

func (f *fakeNet) Online() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online
}

func (f *fakeNet) Subscribe() (<-chan bool, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.nextID
	f.nextID++
	ch := make(chan bool, 1)
	f.subs[id] = ch
	return ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

func (f *fakeNet) set(online bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.online == online {
		return
	}
	f.online = online
	for _, ch := range f.subs {
		select {
		case <-ch:
		default:
		}
		ch <- online
	}
}

// fakeGateway records calls and serves canned data.
type fakeGateway struct {
	mu sync.Mutex

	remote   []models.Song
	fetchErr error

	createErr error
	updateErr error
	created   []models.Song
	updated   []models.Song
	nextID    int

	// fetchGate, when set, is closed-upon by the test to release a
	// blocked FetchAll, letting tests interleave work mid-fetch.
	fetchGate chan struct{}

	onMessage  func(gateway.Change)
	liveClosed bool
}

func (f *fakeGateway) Login(ctx context.Context, username, password string) (string, error) {
	return "test-token", nil
}

func (f *fakeGateway) Ping(ctx context.Context) error { return nil }

func (f *fakeGateway) FetchAll(ctx context.Context, token string) ([]models.Song, error) {
	f.mu.Lock()
	gate := f.fetchGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]models.Song, len(f.remote))
	copy(out, f.remote)
	return out, nil
}

func (f *fakeGateway) Create(ctx context.Context, token string, song models.Song) (models.Song, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return models.Song{}, f.createErr
	}
	f.created = append(f.created, song)
	f.nextID++
	song.ID = fmt.Sprintf("srv-%d", f.nextID)
	f.remote = append(f.remote, song)
	return song, nil
}

func (f *fakeGateway) Update(ctx context.Context, token string, song models.Song) (models.Song, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return models.Song{}, f.updateErr
	}
	f.updated = append(f.updated, song)
	for i, existing := range f.remote {
		if existing.ID == song.ID {
			f.remote[i] = song
		}
	}
	return song, nil
}

func (f *fakeGateway) OpenLiveChannel(ctx context.Context, token string, onMessage func(gateway.Change)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onMessage = onMessage
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.liveClosed = true
	}, nil
}

func (f *fakeGateway) push(c gateway.Change) {
	f.mu.Lock()
	onMessage := f.onMessage
	f.mu.Unlock()
	if onMessage != nil {
		onMessage(c)
	}
}

func (f *fakeGateway) createCalls() []models.Song {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Song, len(f.created))
	copy(out, f.created)
	return out
}

func (f *fakeGateway) updateCalls() []models.Song {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Song, len(f.updated))
	copy(out, f.updated)
	return out
}
