package service

import (
	"alcyxob/gym-tracker/internal/cache"
	"alcyxob/gym-tracker/internal/domain"
	"alcyxob/gym-tracker/internal/repository"
	"alcyxob/gym-tracker/internal/repository/memory"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDashboardService_Aggregates(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	userID := createUser(t, store)
	now := time.Date(2026, 6, 10, 15, 0, 0, 0, time.UTC) // Wednesday

	for _, w := range []domain.Workout{
		{Date: now.Add(-time.Hour), MusclesHit: []domain.MuscleGroup{domain.MuscleLegs, domain.MuscleAbs}},
		{Date: now.Add(-2 * time.Hour), MusclesHit: []domain.MuscleGroup{domain.MuscleChest, domain.MuscleLegs}},
		{Date: now.AddDate(0, 0, -1), MusclesHit: []domain.MuscleGroup{domain.MuscleBack}},
		{Date: now.AddDate(0, 0, -6), MusclesHit: []domain.MuscleGroup{domain.MuscleArms}},
		{Date: now.AddDate(0, 0, -30), MusclesHit: []domain.MuscleGroup{domain.MuscleLegs}},
	} {
		w := w
		w.UserID = userID
		_, err := store.Workouts().Create(ctx, &w)
		require.NoError(t, err)
	}
	for _, a := range []domain.Activity{
		{Date: now.Add(-3 * time.Hour), Type: domain.ActivityRunning, Distance: 5},
		{Date: now.Add(-30 * time.Minute), Type: domain.ActivityWalking, Distance: 1.5},
		{Date: now.AddDate(0, 0, -1), Type: domain.ActivityCycling, Distance: 20},
	} {
		a := a
		a.UserID = userID
		_, err := store.Activities().Create(ctx, &a)
		require.NoError(t, err)
	}
	_, err := store.Weights().Create(ctx, &domain.Weight{UserID: userID, Date: now, Day: "2026-06-10", Weight: 80.2, Unit: domain.UnitKg})
	require.NoError(t, err)
	require.NoError(t, store.Users().UpdateStreak(ctx, userID, 0, domain.Streak{Current: 2, Longest: 8, Badges: []domain.Badge{domain.Badge7Day}, Day: "2026-06-10"}))

	svc := NewDashboardService(store.Users(), store.Workouts(), store.Weights(), store.Activities(), nil, time.UTC).(*dashboardService)
	svc.now = fixedClock(now)

	d, err := svc.Get(ctx, userID)
	require.NoError(t, err)

	require.NotNil(t, d.Today.Weight)
	assert.Equal(t, 80.2, *d.Today.Weight)
	assert.True(t, d.Today.Workout)
	assert.Equal(t, []domain.MuscleGroup{domain.MuscleChest, domain.MuscleLegs, domain.MuscleAbs}, d.Today.MusclesHit)
	assert.InDelta(t, 6.5, d.Today.Distance, 1e-9)

	require.Len(t, d.Week, 7)
	assert.Equal(t, "2026-06-04", d.Week[0].Day)
	assert.Equal(t, "Thu", d.Week[0].Label)
	assert.Equal(t, 1, d.Week[0].Workouts)
	assert.Equal(t, 1, d.Week[5].Workouts)
	assert.Equal(t, "2026-06-10", d.Week[6].Day)
	assert.Equal(t, "Wed", d.Week[6].Label)
	assert.Equal(t, 2, d.Week[6].Workouts)

	require.Len(t, d.MuscleFrequency, len(domain.MuscleGroups))
	freq := map[domain.MuscleGroup]int{}
	for _, mc := range d.MuscleFrequency {
		freq[mc.Muscle] = mc.Count
	}
	assert.Equal(t, 3, freq[domain.MuscleLegs], "frequency covers all workouts")
	assert.Equal(t, 0, freq[domain.MuscleShoulders])
	assert.Equal(t, domain.MuscleChest, d.MuscleFrequency[0].Muscle)

	assert.Equal(t, domain.StreakSummary{Current: 2, Longest: 8, Badges: []domain.Badge{domain.Badge7Day}}, d.Streak)
}

func TestDashboardService_EmptyUser(t *testing.T) {
	store := memory.NewStore()
	userID := createUser(t, store)
	svc := NewDashboardService(store.Users(), store.Workouts(), store.Weights(), store.Activities(), nil, time.UTC)

	d, err := svc.Get(context.Background(), userID)
	require.NoError(t, err)
	assert.Nil(t, d.Today.Weight)
	assert.False(t, d.Today.Workout)
	assert.Empty(t, d.Today.MusclesHit)
	assert.Len(t, d.Week, 7)
	assert.Empty(t, d.Streak.Badges)
}

func TestDashboardService_CacheInvalidation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	userID := createUser(t, store)
	dashboards := NewDashboardService(store.Users(), store.Workouts(), store.Weights(), store.Activities(), cache.NewDashboardCache(1, time.Minute), time.UTC)
	activities := NewActivityService(store.Activities(), dashboards)

	first, err := dashboards.Get(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, first.Today.Distance)

	// a direct store write is invisible until the cache entry expires or is invalidated
	_, err = store.Activities().Create(ctx, &domain.Activity{UserID: userID, Date: time.Now(), Type: domain.ActivityRunning, Distance: 3})
	require.NoError(t, err)
	cached, err := dashboards.Get(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, cached.Today.Distance)

	distance := 2.0
	_, err = activities.Log(ctx, userID, LogActivityInput{Distance: &distance})
	require.NoError(t, err)

	fresh, err := dashboards.Get(ctx, userID)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, fresh.Today.Distance, 1e-9)

	_, err = dashboards.Get(ctx, createUser(t, store))
	require.NoError(t, err)
}

// writeDuringRead runs hook once, right after today's activities were read.
type writeDuringRead struct {
	repository.ActivityRepository
	once sync.Once
	hook func()
}

func (r *writeDuringRead) ListByUserBetween(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.Activity, error) {
	activities, err := r.ActivityRepository.ListByUserBetween(ctx, userID, from, to)
	r.once.Do(r.hook)
	return activities, err
}

func TestDashboardService_InvalidationDuringComputeIsNotCached(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	userID := createUser(t, store)

	racing := &writeDuringRead{ActivityRepository: store.Activities()}
	dashboards := NewDashboardService(store.Users(), store.Workouts(), store.Weights(), racing, cache.NewDashboardCache(1, time.Minute), time.UTC)
	activities := NewActivityService(store.Activities(), dashboards)
	racing.hook = func() {
		distance := 4.0
		_, err := activities.Log(ctx, userID, LogActivityInput{Distance: &distance})
		require.NoError(t, err)
	}

	stale, err := dashboards.Get(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, stale.Today.Distance)

	fresh, err := dashboards.Get(ctx, userID)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, fresh.Today.Distance, 1e-9)
}
