package service

import (
	"alcyxob/gym-tracker/internal/domain"
	"alcyxob/gym-tracker/internal/repository/memory"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// recordingInvalidator remembers which users had their dashboard invalidated.
type recordingInvalidator struct {
	mu    sync.Mutex
	users []primitive.ObjectID
}

func (r *recordingInvalidator) Invalidate(userID primitive.ObjectID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, userID)
}

func (r *recordingInvalidator) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

func createUser(t *testing.T, store *memory.Store) primitive.ObjectID {
	t.Helper()
	id, err := store.Users().Create(context.Background(), &domain.User{
		Name:         gofakeit.Name(),
		Email:        gofakeit.Email(),
		PasswordHash: "not-a-real-hash",
	})
	require.NoError(t, err)
	return id
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// fakeStorage is an in-memory FileStorage.
type fakeStorage struct {
	mu      sync.Mutex
	deleted []string
	failGet bool
}

func (f *fakeStorage) GeneratePresignedUploadURL(_ context.Context, key, contentType string, _ time.Duration) (string, error) {
	return "https://storage.test/put/" + key + "?ct=" + strings.ReplaceAll(contentType, "/", "%2F"), nil
}

func (f *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if f.failGet {
		return "", context.DeadlineExceeded
	}
	return "https://storage.test/get/" + key, nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return nil
}
