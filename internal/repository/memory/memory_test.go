package memory

import (
	"alcyxob/gym-tracker/internal/domain"
	"alcyxob/gym-tracker/internal/repository"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestWeightRepository_RejectsSecondEntrySameDay(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Weights()
	userID := primitive.NewObjectID()

	_, err := repo.Create(ctx, &domain.Weight{UserID: userID, Day: "2026-05-01", Weight: 80, Unit: domain.UnitKg})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &domain.Weight{UserID: userID, Day: "2026-05-01", Weight: 79.5, Unit: domain.UnitKg})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	// another user, same day
	_, err = repo.Create(ctx, &domain.Weight{UserID: primitive.NewObjectID(), Day: "2026-05-01", Weight: 60, Unit: domain.UnitKg})
	assert.NoError(t, err)
}

func TestUserRepository_UpdateStreakVersioning(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Users()

	id, err := repo.Create(ctx, &domain.User{Name: "A", Email: "A@Example.com", PasswordHash: "x"})
	require.NoError(t, err)

	require.NoError(t, repo.UpdateStreak(ctx, id, 0, domain.Streak{Current: 7, Longest: 7, Badges: []domain.Badge{domain.Badge7Day}, Day: "2026-05-01"}))
	assert.ErrorIs(t, repo.UpdateStreak(ctx, id, 0, domain.Streak{Current: 1, Longest: 7}), repository.ErrVersionConflict)

	// badges are merged, never removed
	require.NoError(t, repo.UpdateStreak(ctx, id, 1, domain.Streak{Current: 1, Longest: 7, Day: "2026-05-03"}))

	user, err := repo.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, user.CurrentStreak)
	assert.Equal(t, 7, user.LongestStreak)
	assert.Equal(t, []domain.Badge{domain.Badge7Day}, user.Badges)
	assert.EqualValues(t, 2, user.StreakVersion)

	assert.ErrorIs(t, repo.UpdateStreak(ctx, primitive.NewObjectID(), 0, domain.Streak{}), repository.ErrNotFound)
}

func TestWorkoutRepository_ExistsBetween(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Workouts()
	userID := primitive.NewObjectID()
	day := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)

	_, err := repo.Create(ctx, &domain.Workout{UserID: userID, Date: day.Add(-2 * time.Hour), MusclesHit: []domain.MuscleGroup{domain.MuscleLegs}})
	require.NoError(t, err)

	yesterday, err := repo.ExistsBetween(ctx, userID, day.AddDate(0, 0, -1), day)
	require.NoError(t, err)
	assert.True(t, yesterday)

	today, err := repo.ExistsBetween(ctx, userID, day, time.Time{})
	require.NoError(t, err)
	assert.False(t, today)
}

func TestOutboxRepository_ClaimAndFail(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Outbox()

	require.NoError(t, repo.Enqueue(ctx, &domain.OutboxEvent{Type: domain.EventWorkoutLogged, NeedsStreak: true}))

	claimed, err := repo.ClaimBatch(ctx, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	again, err := repo.ClaimBatch(ctx, 10, time.Minute)
	require.NoError(t, err)
	assert.Empty(t, again, "claimed event must not be handed out twice")

	require.NoError(t, repo.MarkFailed(ctx, claimed[0].ID, "boom", 2))
	claimed, err = repo.ClaimBatch(ctx, 10, time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	require.NoError(t, repo.MarkFailed(ctx, claimed[0].ID, "boom", 2))
	events := repo.Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.OutboxDead, events[0].Status)
	assert.Equal(t, 2, events[0].Attempts)
}
