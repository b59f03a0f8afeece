package songs

import (
	"context"
	"sync"

	"github.com/dpavel/songsync/internal/server/models"
)

// MemoryRepository keeps the collection in process memory, preserving
// insertion order. Used when no database DSN is configured and in tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	songs []models.Song
	index map[string]int
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{index: make(map[string]int)}
}

func (r *MemoryRepository) List(ctx context.Context) ([]models.Song, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Song, len(r.songs))
	copy(out, r.songs)
	return out, nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*models.Song, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[id]
	if !ok {
		return nil, ErrNotFound
	}
	song := r.songs[i]
	return &song, nil
}

func (r *MemoryRepository) Insert(ctx context.Context, song *models.Song) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.index[song.ID] = len(r.songs)
	r.songs = append(r.songs, *song)
	return nil
}

func (r *MemoryRepository) Update(ctx context.Context, song *models.Song) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[song.ID]
	if !ok {
		return ErrNotFound
	}
	r.songs[i] = *song
	return nil
}
