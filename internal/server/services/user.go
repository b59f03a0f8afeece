package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dpavel/songsync/internal/server/auth"
	"github.com/dpavel/songsync/internal/server/models"
	"github.com/dpavel/songsync/internal/server/repositories/users"
)

var ErrUnauthorized = errors.New("unauthorized")

// UserService handles registration, credential checks and JWT issuance.
type UserService struct {
	repo          users.Repository
	jwtSecret     []byte
	tokenValidity time.Duration
}

func NewUserService(repo users.Repository, jwtSecret []byte, tokenValidity time.Duration) *UserService {
	return &UserService{repo: repo, jwtSecret: jwtSecret, tokenValidity: tokenValidity}
}

// Register creates a new account with a bcrypt password hash.
func (s *UserService) Register(ctx context.Context, userName, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{UserName: userName, PasswordHash: hash}
	u, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login verifies the credentials and mints a session token. Unknown users
// and wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, userName, password string) (string, error) {
	user, err := s.repo.GetByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return "", ErrUnauthorized
		}
		return "", fmt.Errorf("error searching user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return "", ErrUnauthorized
	}

	return auth.GenerateToken(user.ID, s.jwtSecret, s.tokenValidity)
}

// ValidateToken returns the user id carried by a session token.
func (s *UserService) ValidateToken(token string) (string, error) {
	userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		return "", ErrUnauthorized
	}
	return userID, nil
}
