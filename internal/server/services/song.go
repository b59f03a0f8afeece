// Package services contains server-side business logic: the record
// collection operations and account handling.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dpavel/songsync/internal/server/models"
	"github.com/dpavel/songsync/internal/server/repositories/songs"
)

var ErrInvalidRecord = errors.New("invalid record")

// Notifier pushes change notifications to connected live clients.
// The ws hub implements it; a no-op implementation is fine for tests.
type Notifier interface {
	Broadcast(kind string, song models.Song)
}

// SongService owns the record collection: listing, creating and updating
// records, and fanning every accepted write out to live subscribers.
type SongService struct {
	repo     songs.Repository
	notifier Notifier
}

func NewSongService(repo songs.Repository, notifier Notifier) *SongService {
	return &SongService{repo: repo, notifier: notifier}
}

func (s *SongService) List(ctx context.Context) ([]models.Song, error) {
	return s.repo.List(ctx)
}

func validate(song *models.Song) error {
	if song.Text == "" {
		return fmt.Errorf("%w: empty text", ErrInvalidRecord)
	}
	if song.Length < 0 {
		return fmt.Errorf("%w: negative length", ErrInvalidRecord)
	}
	return nil
}

// Create stores a new record under a server-assigned id. Any id sent by
// the client, placeholder or not, is discarded.
func (s *SongService) Create(ctx context.Context, song models.Song) (*models.Song, error) {
	if err := validate(&song); err != nil {
		return nil, err
	}

	song.ID = uuid.NewString()
	if err := s.repo.Insert(ctx, &song); err != nil {
		return nil, fmt.Errorf("error creating record: %w", err)
	}

	s.notifier.Broadcast("created", song)
	return &song, nil
}

// Update replaces the record with the given id. songs.ErrNotFound passes
// through unwrapped so handlers can map it to a status code.
func (s *SongService) Update(ctx context.Context, song models.Song) (*models.Song, error) {
	if err := validate(&song); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, &song); err != nil {
		if errors.Is(err, songs.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error updating record: %w", err)
	}

	s.notifier.Broadcast("updated", song)
	return &song, nil
}
