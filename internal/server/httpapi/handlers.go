package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dpavel/songsync/internal/server/models"
	"github.com/dpavel/songsync/internal/server/repositories/songs"
	"github.com/dpavel/songsync/internal/server/services"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	token, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrUnauthorized) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		h.internalError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, loginResponse{Token: token})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) listSongs(w http.ResponseWriter, r *http.Request) {
	list, err := h.songs.List(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if list == nil {
		list = []models.Song{}
	}
	h.writeJSON(w, r, http.StatusOK, list)
}

func (h *Handler) createSong(w http.ResponseWriter, r *http.Request) {
	var song models.Song
	if err := json.NewDecoder(r.Body).Decode(&song); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	created, err := h.songs.Create(r.Context(), song)
	if err != nil {
		if errors.Is(err, services.ErrInvalidRecord) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		h.internalError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, created)
}

func (h *Handler) updateSong(w http.ResponseWriter, r *http.Request) {
	var song models.Song
	if err := json.NewDecoder(r.Body).Decode(&song); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	// The path id wins over whatever is in the body.
	song.ID = chi.URLParam(r, "id")

	updated, err := h.songs.Update(r.Context(), song)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidRecord):
			w.WriteHeader(http.StatusBadRequest)
		case errors.Is(err, songs.ErrNotFound):
			w.WriteHeader(http.StatusNotFound)
		default:
			h.internalError(w, r, err)
		}
		return
	}

	h.writeJSON(w, r, http.StatusOK, updated)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn(r.Context(), "cannot write response", "error", err)
	}
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	w.WriteHeader(http.StatusInternalServerError)
}
