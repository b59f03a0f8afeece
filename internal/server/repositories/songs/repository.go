// Package songs stores the record collection.
package songs

import (
	"context"
	"errors"

	"github.com/dpavel/songsync/internal/server/models"
)

var ErrNotFound = errors.New("record not found")

type Repository interface {
	List(ctx context.Context) ([]models.Song, error)
	Get(ctx context.Context, id string) (*models.Song, error)
	Insert(ctx context.Context, song *models.Song) error
	Update(ctx context.Context, song *models.Song) error
}
