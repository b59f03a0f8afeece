// Package users stores server accounts.
package users

import (
	"context"
	"errors"

	"github.com/dpavel/songsync/internal/server/models"
)

var ErrNotFound = errors.New("user not found")

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByUserName(ctx context.Context, userName string) (*models.User, error)
}
