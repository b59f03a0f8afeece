package cli

import (
	"bufio"
	"context"
	"database/sql"
	"os"

	"github.com/dpavel/songsync/internal/client/config"
	"github.com/dpavel/songsync/internal/client/gateway"
	"github.com/dpavel/songsync/internal/client/localstore"
	"github.com/dpavel/songsync/internal/client/netmon"
	"github.com/dpavel/songsync/internal/client/syncer"
	"github.com/dpavel/songsync/internal/logging"

	_ "modernc.org/sqlite"
)

type Mode string

const (
	ModeOffline  Mode = "offline"
	ModeOnline   Mode = "online"
	ModeDisabled Mode = "disabled"
)

// App glues the local store, the gateway, the connectivity monitor and the
// sync machine behind an interactive REPL. The machine is created on login
// and replaced on every new login.
type App struct {
	config   *config.Config
	store    localstore.Store
	db       *sql.DB
	gw       gateway.Gateway
	monitor  *netmon.Monitor
	machine  *syncer.Machine
	logger   logging.Logger
	userName string
	Mode     Mode
	reader   *bufio.Reader

	cancelMachine context.CancelFunc
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	store, db, err := localstore.Open(ctx, c.DatabasePath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	gw := gateway.NewHTTPGateway(c.ServerBaseURL, logger)
	monitor := netmon.New(gw.Ping, c.OnlineCheckInterval, logger)

	return &App{
		config:  c,
		store:   store,
		db:      db,
		gw:      gw,
		monitor: monitor,
		logger:  logger,
		Mode:    ModeDisabled,
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) setMode(mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		a.logger.Info(context.Background(), "switched mode", "mode", mode)
	}
}

func (a *App) isLoggedIn() bool {
	return a.machine != nil
}

// Run starts the connectivity monitor and the REPL, blocking until the
// user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	go a.monitor.Run(ctx)
	go a.watchMode(ctx)

	a.Root(ctx)
}

// watchMode mirrors connectivity edges into the displayed Mode. The
// disabled state (no session at all) is only entered by a failed login.
func (a *App) watchMode(ctx context.Context) {
	ch, cancel := a.monitor.Subscribe()
	defer cancel()

	for {
		select {
		case online := <-ch:
			if a.Mode == ModeDisabled {
				continue
			}
			if online {
				a.setMode(ModeOnline)
			} else {
				a.setMode(ModeOffline)
			}
		case <-ctx.Done():
			return
		}
	}
}

// startSession replaces the current machine with a fresh one bound to the
// given token, and starts its connectivity watcher.
func (a *App) startSession(ctx context.Context, token string) {
	a.endSession()

	a.machine = syncer.NewMachine(a.gw, a.store, a.monitor, token, a.logger)

	runCtx, cancel := context.WithCancel(ctx)
	a.cancelMachine = cancel
	go a.machine.Run(runCtx)

	if a.monitor.Online() {
		if err := a.machine.StartLive(runCtx); err != nil {
			a.logger.Warn(ctx, "live channel unavailable", "error", err)
		}
	}
}

func (a *App) endSession() {
	if a.machine != nil {
		a.machine.Close()
		a.machine = nil
	}
	if a.cancelMachine != nil {
		a.cancelMachine()
		a.cancelMachine = nil
	}
}

func (a *App) Close() {
	a.endSession()
	if a.db != nil {
		_ = a.db.Close()
	}
}
