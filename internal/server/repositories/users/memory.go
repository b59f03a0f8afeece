package users

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dpavel/songsync/internal/server/models"
)

// MemoryRepository keeps accounts in process memory. Used when no database
// DSN is configured and in tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]models.User)}
}

func (r *MemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	r.users[user.UserName] = *user
	return user, nil
}

func (r *MemoryRepository) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[userName]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}
