// Package server initializes and runs the record server: storage backend
// selection, schema migrations, the HTTP API with the live-update hub, and
// graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dpavel/songsync/internal/logging"
	"github.com/dpavel/songsync/internal/server/config"
	"github.com/dpavel/songsync/internal/server/httpapi"
	"github.com/dpavel/songsync/internal/server/migrations"
	"github.com/dpavel/songsync/internal/server/repositories/songs"
	"github.com/dpavel/songsync/internal/server/repositories/users"
	"github.com/dpavel/songsync/internal/server/services"
	"github.com/dpavel/songsync/internal/server/ws"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	hub         *ws.Hub
	userService *services.UserService
	songService *services.SongService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	var (
		db       *sql.DB
		songRepo songs.Repository
		userRepo users.Repository
	)

	if c.DatabaseDSN != "" {
		var err error
		db, err = sql.Open("pgx", c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		if err := runMigrations(ctx, db); err != nil {
			return nil, fmt.Errorf("db migration error: %w", err)
		}
		songRepo = songs.NewPostgresRepository(db)
		userRepo = users.NewPostgresRepository(db)
	} else {
		logger.Info(ctx, "no database DSN configured, using in-memory store")
		songRepo = songs.NewMemoryRepository()
		userRepo = users.NewMemoryRepository()
	}

	userService := services.NewUserService(userRepo, []byte(c.SecretKey), c.TokenValidityDuration)
	hub := ws.NewHub(userService, logger)
	songService := services.NewSongService(songRepo, hub)

	app := &App{
		config:      c,
		logger:      logger,
		db:          db,
		hub:         hub,
		userService: userService,
		songService: songService,
	}

	if c.DatabaseDSN == "" {
		app.seedDefaultUser(ctx)
	}

	return app, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// seedDefaultUser creates a development account so a fresh in-memory server
// is usable without a registration endpoint call.
func (app *App) seedDefaultUser(ctx context.Context) {
	const userName, password = "admin", "password"
	if _, err := app.userService.Register(ctx, userName, password); err != nil {
		app.logger.Warn(ctx, "cannot seed default user", "error", err)
		return
	}
	app.logger.Info(ctx, "seeded default user", "username", userName)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting server", "addr", app.config.Addr)

	app.initSignalHandler(cancelFunc)

	handler := httpapi.NewHandler(app.songService, app.userService, app.hub, app.logger)
	srv := &http.Server{Addr: app.config.Addr, Handler: handler.Router()}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error(ctx, "server failed", "error", err)
		}
	case <-ctx.Done():
		app.logger.Info(ctx, "shutting down")
		app.hub.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Warn(ctx, "shutdown incomplete", "error", err)
		}
	}

	if app.db != nil {
		_ = app.db.Close()
	}
}
