package service

import (
	"alcyxob/gym-tracker/internal/domain"
	"alcyxob/gym-tracker/internal/repository/memory"
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestActivityService_Log(t *testing.T) {
	store := memory.NewStore()
	inv := &recordingInvalidator{}
	svc := NewActivityService(store.Activities(), inv)
	userID := createUser(t, store)
	ctx := context.Background()

	distance := 5.2
	a, err := svc.Log(ctx, userID, LogActivityInput{Distance: &distance})
	require.NoError(t, err)
	assert.Equal(t, domain.ActivityWalking, a.Type)
	assert.Equal(t, 5.2, a.Distance)
	assert.Equal(t, 1, inv.count())

	_, err = svc.Log(ctx, userID, LogActivityInput{Type: "swimming", Distance: &distance})
	assert.ErrorIs(t, err, ErrInvalidActivityType)

	_, err = svc.Log(ctx, userID, LogActivityInput{Type: domain.ActivityRunning})
	assert.ErrorIs(t, err, ErrInvalidDistance)

	negative := -1.0
	_, err = svc.Log(ctx, userID, LogActivityInput{Distance: &negative})
	assert.ErrorIs(t, err, ErrInvalidDistance)

	zero := 0.0
	_, err = svc.Log(ctx, userID, LogActivityInput{Type: domain.ActivityCycling, Distance: &zero})
	assert.NoError(t, err)
}

func TestActivityService_ListAndDelete(t *testing.T) {
	store := memory.NewStore()
	svc := NewActivityService(store.Activities(), nil).(*activityService)
	userID := createUser(t, store)
	ctx := context.Background()

	start := time.Date(2026, 5, 1, 6, 0, 0, 0, time.UTC)
	var last *domain.Activity
	for i := 0; i < 10; i++ {
		svc.now = fixedClock(start.AddDate(0, 0, i))
		d := gofakeit.Float64Range(1, 20)
		a, err := svc.Log(ctx, userID, LogActivityInput{Type: domain.ActivityRunning, Distance: &d})
		require.NoError(t, err)
		last = a
	}

	list, err := svc.List(ctx, userID, 0)
	require.NoError(t, err)
	assert.Len(t, list, 7, "default limit")
	assert.Equal(t, last.ID, list[0].ID)

	assert.ErrorIs(t, svc.Delete(ctx, primitive.NewObjectID(), last.ID), ErrActivityNotFound)
	require.NoError(t, svc.Delete(ctx, userID, last.ID))

	list, err = svc.List(ctx, userID, 100)
	require.NoError(t, err)
	assert.Len(t, list, 9)
}
