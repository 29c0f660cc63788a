package service

import (
	"alcyxob/gym-tracker/internal/repository/memory"
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	auth := NewAuthService(store.Users(), "test-secret", time.Hour)

	email := "Mixed.Case@Example.com"
	password := gofakeit.Password(true, true, true, false, false, 12)

	user, err := auth.Register(ctx, "  Alex  ", email, password)
	require.NoError(t, err)
	assert.Equal(t, "Alex", user.Name)
	assert.Equal(t, "mixed.case@example.com", user.Email)
	assert.Empty(t, user.PasswordHash)
	assert.Zero(t, user.CurrentStreak)
	assert.Empty(t, user.Badges)

	_, err = auth.Register(ctx, "Other", "mixed.case@EXAMPLE.com", password)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	token, loggedIn, err := auth.Login(ctx, email, password)
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.Empty(t, loggedIn.PasswordHash)

	uid, err := auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), uid)

	_, _, err = auth.Login(ctx, email, "wrong-password")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	_, _, err = auth.Login(ctx, "nobody@example.com", password)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	auth := NewAuthService(memory.NewStore().Users(), "test-secret", time.Hour)

	_, err := auth.Register(context.Background(), "", "a@example.com", "password1")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = auth.Register(context.Background(), "A", "not-an-email", "password1")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAuthService_ParseToken(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	expired := NewAuthService(store.Users(), "test-secret", time.Nanosecond)
	_, err := expired.Register(ctx, "A", "a@example.com", "password1")
	require.NoError(t, err)
	token, _, err := expired.Login(ctx, "a@example.com", "password1")
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)
	_, err = expired.ParseToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)

	auth := NewAuthService(store.Users(), "test-secret", time.Hour)
	other := NewAuthService(store.Users(), "other-secret", time.Hour)
	token, _, err = other.Login(ctx, "a@example.com", "password1")
	require.NoError(t, err)
	_, err = auth.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = auth.ParseToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
