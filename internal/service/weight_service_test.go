package service

import (
	"alcyxob/gym-tracker/internal/domain"
	"alcyxob/gym-tracker/internal/repository/memory"
	"alcyxob/gym-tracker/internal/storage"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newWeightService(t *testing.T, fs storage.FileStorage, loc *time.Location, now time.Time) (*weightService, *memory.Store, primitive.ObjectID) {
	t.Helper()
	store := memory.NewStore()
	svc := NewWeightService(store.Weights(), fs, nil, loc).(*weightService)
	svc.now = fixedClock(now)
	return svc, store, createUser(t, store)
}

func TestWeightService_OnePerDay(t *testing.T) {
	now := time.Date(2026, 4, 1, 7, 0, 0, 0, time.UTC)
	svc, _, userID := newWeightService(t, nil, time.UTC, now)
	ctx := context.Background()

	w, err := svc.Log(ctx, userID, LogWeightInput{Weight: 82.4})
	require.NoError(t, err)
	assert.Equal(t, domain.UnitKg, w.Unit)
	assert.Equal(t, "2026-04-01", w.Day)

	evening := now.Add(12 * time.Hour)
	_, err = svc.Log(ctx, userID, LogWeightInput{Weight: 82.9, Date: &evening})
	assert.ErrorIs(t, err, ErrWeightAlreadyLogged)

	tomorrow := now.AddDate(0, 0, 1)
	_, err = svc.Log(ctx, userID, LogWeightInput{Weight: 181, Unit: domain.UnitLbs, Date: &tomorrow})
	require.NoError(t, err)

	entries, err := svc.List(ctx, userID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2026-04-02", entries[0].Day, "newest first")
}

func TestWeightService_DayUsesConfiguredZone(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	// 20:00 UTC is already the next day in Tokyo
	now := time.Date(2026, 4, 1, 20, 0, 0, 0, time.UTC)
	svc, _, userID := newWeightService(t, nil, tokyo, now)

	w, err := svc.Log(context.Background(), userID, LogWeightInput{Weight: 60})
	require.NoError(t, err)
	assert.Equal(t, "2026-04-02", w.Day)
}

func TestWeightService_Validation(t *testing.T) {
	svc, _, userID := newWeightService(t, nil, time.UTC, time.Now())
	ctx := context.Background()

	_, err := svc.Log(ctx, userID, LogWeightInput{Weight: 0})
	assert.ErrorIs(t, err, ErrInvalidWeight)
	_, err = svc.Log(ctx, userID, LogWeightInput{Weight: 70, Unit: "stone"})
	assert.ErrorIs(t, err, ErrInvalidWeightUnit)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestWeightService_PhotoFlow(t *testing.T) {
	fs := &fakeStorage{}
	svc, _, userID := newWeightService(t, fs, time.UTC, time.Now())
	ctx := context.Background()

	w, err := svc.Log(ctx, userID, LogWeightInput{Weight: 75})
	require.NoError(t, err)

	_, err = svc.RequestPhotoUpload(ctx, userID, w.ID, "application/pdf")
	assert.ErrorIs(t, err, ErrInvalidContentType)
	_, err = svc.RequestPhotoUpload(ctx, primitive.NewObjectID(), w.ID, "image/jpeg")
	assert.ErrorIs(t, err, ErrWeightNotFound)

	upload, err := svc.RequestPhotoUpload(ctx, userID, w.ID, "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(upload.ObjectKey, ".jpg"))
	assert.Contains(t, upload.UploadURL, upload.ObjectKey)

	_, err = svc.ConfirmPhoto(ctx, userID, w.ID, "progress-photos/someone-else/x.jpg")
	assert.ErrorIs(t, err, ErrPhotoKeyMismatch)

	entry, err := svc.ConfirmPhoto(ctx, userID, w.ID, upload.ObjectKey)
	require.NoError(t, err)
	require.NotNil(t, entry.PhotoURL)
	assert.Equal(t, "https://storage.test/get/"+upload.ObjectKey, *entry.PhotoURL)

	replacement, err := svc.RequestPhotoUpload(ctx, userID, w.ID, "image/png")
	require.NoError(t, err)
	_, err = svc.ConfirmPhoto(ctx, userID, w.ID, replacement.ObjectKey)
	require.NoError(t, err)
	assert.Equal(t, []string{upload.ObjectKey}, fs.deleted, "replaced photo is removed")

	entries, err := svc.List(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].PhotoURL)

	require.NoError(t, svc.Delete(ctx, userID, w.ID))
	assert.Equal(t, []string{upload.ObjectKey, replacement.ObjectKey}, fs.deleted)
	assert.ErrorIs(t, svc.Delete(ctx, userID, w.ID), ErrWeightNotFound)
}

func TestWeightService_StorageDisabled(t *testing.T) {
	svc, _, userID := newWeightService(t, nil, time.UTC, time.Now())
	ctx := context.Background()

	w, err := svc.Log(ctx, userID, LogWeightInput{Weight: 75})
	require.NoError(t, err)

	_, err = svc.RequestPhotoUpload(ctx, userID, w.ID, "image/png")
	assert.True(t, storage.IsDisabled(err))
}
