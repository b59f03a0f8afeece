// Package netmon produces the live online/offline signal the rest of the
// client reacts to. It periodically probes the server and notifies
// subscribers on every edge transition.
package netmon

import (
	"context"
	"sync"
	"time"

	"github.com/dpavel/songsync/internal/logging"
)

// probeTimeout bounds a single reachability check.
const probeTimeout = 3 * time.Second

// Monitor polls a probe function and tracks the boolean online status.
type Monitor struct {
	probe    func(ctx context.Context) error
	interval time.Duration
	logger   logging.Logger

	mu     sync.Mutex
	online bool
	subs   map[int]chan bool
	nextID int
}

// New returns a Monitor that considers the system online whenever probe
// returns nil. The initial status is offline until the first probe.
func New(probe func(ctx context.Context) error, interval time.Duration, logger logging.Logger) *Monitor {
	return &Monitor{
		probe:    probe,
		interval: interval,
		logger:   logger,
		subs:     make(map[int]chan bool),
	}
}

// Online returns the last observed status.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Subscribe registers for edge transitions. Only status changes are
// delivered, never repeats of the current value. The cancel function
// releases the subscription.
func (m *Monitor) Subscribe() (<-chan bool, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	ch := make(chan bool, 1)
	m.subs[id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
	return ch, cancel
}

// Run probes immediately and then on every tick until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	m.check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.check(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) check(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	err := m.probe(probeCtx)
	cancel()

	m.SetOnline(err == nil)
}

// SetOnline records the status and notifies subscribers if it changed.
// Exposed so callers with out-of-band knowledge (or tests) can force a
// transition without waiting for the next probe.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.online == online {
		return
	}
	m.online = online
	m.logger.Info(context.Background(), "connectivity changed", "online", online)

	for _, ch := range m.subs {
		// Latest edge wins: replace an undelivered value rather than
		// queueing behind it.
		select {
		case <-ch:
		default:
		}
		ch <- online
	}
}
