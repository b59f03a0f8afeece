// Package httpapi exposes the record store over REST and mounts the
// live-update WebSocket endpoint.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dpavel/songsync/internal/logging"
	"github.com/dpavel/songsync/internal/server/services"
)

// Handler bundles the services the HTTP layer dispatches to.
type Handler struct {
	songs  *services.SongService
	users  *services.UserService
	live   http.Handler
	logger logging.Logger
}

func NewHandler(songs *services.SongService, users *services.UserService, live http.Handler, logger logging.Logger) *Handler {
	return &Handler{songs: songs, users: users, live: live, logger: logger}
}

// Router builds the route table:
//
//	POST /api/auth/login   — exchange credentials for a token
//	GET  /api/health       — reachability probe, no auth
//	GET  /api/song         — list records (bearer token)
//	POST /api/song         — create a record (bearer token)
//	PUT  /api/song/{id}    — replace a record (bearer token)
//	GET  /                 — live-update WebSocket upgrade
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/api/auth/login", h.login)
	r.Get("/api/health", h.health)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Get("/api/song", h.listSongs)
		r.Post("/api/song", h.createSong)
		r.Put("/api/song/{id}", h.updateSong)
	})

	if h.live != nil {
		r.Get("/", h.live.ServeHTTP)
	}

	return r
}
