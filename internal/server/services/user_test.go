package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpavel/songsync/internal/server/repositories/users"
)

func newUserService() *UserService {
	return NewUserService(users.NewMemoryRepository(), []byte("test-secret"), time.Hour)
}

func TestUserService_RegisterAndLogin(t *testing.T) {
	svc := newUserService()
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "pass123")
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	assert.NotEqual(t, "pass123", string(u.PasswordHash))

	token, err := svc.Login(ctx, "alice", "pass123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, userID)
}

func TestUserService_Login_WrongPassword(t *testing.T) {
	svc := newUserService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "pass123")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestUserService_Login_UnknownUser(t *testing.T) {
	svc := newUserService()

	_, err := svc.Login(context.Background(), "nobody", "pass")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestUserService_ValidateToken_Garbage(t *testing.T) {
	svc := newUserService()

	_, err := svc.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
