package streak_test

import (
	"alcyxob/gym-tracker/internal/domain"
	"alcyxob/gym-tracker/internal/metrics"
	"alcyxob/gym-tracker/internal/repository"
	"alcyxob/gym-tracker/internal/repository/memory"
	"alcyxob/gym-tracker/internal/streak"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fixture struct {
	t        *testing.T
	store    *memory.Store
	engine   *streak.Engine
	userID   primitive.ObjectID
	now      time.Time
	loc      *time.Location
	metrics  *metrics.Manager
	users    repository.UserRepository
	workouts repository.WorkoutRepository
}

func newFixture(t *testing.T, users repository.UserRepository) *fixture {
	t.Helper()
	store := memory.NewStore()
	if users == nil {
		users = store.Users()
	}
	f := &fixture{
		t:        t,
		store:    store,
		loc:      time.FixedZone("UTC+2", 2*3600),
		metrics:  metrics.NewTestManager(),
		users:    users,
		workouts: store.Workouts(),
	}
	f.now = time.Date(2026, 1, 10, 18, 0, 0, 0, f.loc)

	id, err := store.Users().Create(context.Background(), &domain.User{Name: "Lifter", Email: "lifter@example.com", PasswordHash: "hash"})
	require.NoError(t, err)
	f.userID = id

	f.engine = streak.NewEngine(users, f.workouts, f.loc,
		streak.WithClock(func() time.Time { return f.now }),
		streak.WithMetrics(f.metrics),
	)
	return f
}

// logWorkout records a workout at the current fixture time and runs the engine.
func (f *fixture) logWorkout() *streak.Result {
	f.t.Helper()
	_, err := f.workouts.Create(context.Background(), &domain.Workout{
		UserID:     f.userID,
		Date:       f.now,
		MusclesHit: []domain.MuscleGroup{domain.MuscleChest},
	})
	require.NoError(f.t, err)
	res, err := f.engine.Update(context.Background(), f.userID)
	require.NoError(f.t, err)
	return res
}

func (f *fixture) nextDay() { f.now = f.now.AddDate(0, 0, 1) }

func (f *fixture) user() *domain.User {
	f.t.Helper()
	u, err := f.store.Users().GetByID(context.Background(), f.userID)
	require.NoError(f.t, err)
	return u
}

// seed sets streak fields directly, as if earlier days had been counted.
func (f *fixture) seed(current, longest int, badges ...domain.Badge) {
	f.t.Helper()
	u := f.user()
	require.NoError(f.t, f.store.Users().UpdateStreak(context.Background(), f.userID, u.StreakVersion, domain.Streak{
		Current: current,
		Longest: longest,
		Badges:  badges,
	}))
}

func TestEngine_ConsecutiveDays(t *testing.T) {
	f := newFixture(t, nil)

	longest := 0
	for day := 1; day <= 12; day++ {
		res := f.logWorkout()
		assert.True(t, res.Updated)
		assert.Equal(t, day, res.Current)
		assert.GreaterOrEqual(t, res.Longest, longest, "longest streak never decreases")
		assert.GreaterOrEqual(t, res.Longest, res.Current)
		longest = res.Longest
		f.nextDay()
	}

	u := f.user()
	assert.Equal(t, 12, u.CurrentStreak)
	assert.Equal(t, 12, u.LongestStreak)
	assert.Equal(t, []domain.Badge{domain.Badge7Day}, u.Badges)
}

func TestEngine_SkippedDayResets(t *testing.T) {
	f := newFixture(t, nil)
	for i := 0; i < 8; i++ {
		f.logWorkout()
		f.nextDay()
	}
	f.nextDay() // rest day

	res := f.logWorkout()
	assert.True(t, res.Updated)
	assert.False(t, res.Continued)
	assert.Equal(t, 1, res.Current)
	assert.Equal(t, 8, res.Longest)

	u := f.user()
	assert.Contains(t, u.Badges, domain.Badge7Day, "badges are never revoked")
}

func TestEngine_SixToSeven(t *testing.T) {
	f := newFixture(t, nil)
	f.now = f.now.AddDate(0, 0, -1)
	_, err := f.workouts.Create(context.Background(), &domain.Workout{UserID: f.userID, Date: f.now, MusclesHit: []domain.MuscleGroup{domain.MuscleBack}})
	require.NoError(t, err)
	f.nextDay()
	f.seed(6, 10)

	res := f.logWorkout()
	assert.Equal(t, 7, res.Current)
	assert.Equal(t, 10, res.Longest)
	assert.Equal(t, []domain.Badge{domain.Badge7Day}, res.NewBadges)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CounterBadgesAwarded.WithLabelValues("7-day")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CounterStreakUpdates.WithLabelValues(metrics.StreakContinued)))
}

func TestEngine_TwentyNineWithoutYesterday(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(29, 29, domain.Badge7Day)

	res := f.logWorkout()
	assert.Equal(t, 1, res.Current)
	assert.Equal(t, 29, res.Longest)
	assert.Empty(t, res.NewBadges)
	assert.Equal(t, []domain.Badge{domain.Badge7Day}, f.user().Badges)
}

func TestEngine_NinetyNineToHundred(t *testing.T) {
	f := newFixture(t, nil)
	f.now = f.now.AddDate(0, 0, -1)
	_, err := f.workouts.Create(context.Background(), &domain.Workout{UserID: f.userID, Date: f.now, MusclesHit: []domain.MuscleGroup{domain.MuscleLegs}})
	require.NoError(t, err)
	f.nextDay()
	f.seed(99, 99, domain.Badge7Day, domain.Badge30Day)

	res := f.logWorkout()
	assert.Equal(t, 100, res.Current)
	assert.Equal(t, 100, res.Longest)
	assert.Equal(t, []domain.Badge{domain.Badge100Day}, res.NewBadges)
	assert.ElementsMatch(t, []domain.Badge{domain.Badge7Day, domain.Badge30Day, domain.Badge100Day}, f.user().Badges)
}

func TestEngine_SecondWorkoutSameDayCountsOnce(t *testing.T) {
	f := newFixture(t, nil)
	f.logWorkout()
	f.nextDay()
	first := f.logWorkout()
	require.Equal(t, 2, first.Current)

	f.now = f.now.Add(time.Hour)
	second := f.logWorkout()
	assert.False(t, second.Updated)
	assert.Equal(t, 2, second.Current)
	assert.Equal(t, 2, f.user().CurrentStreak)
}

func TestEngine_NoWorkoutTodayIsNoop(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(3, 5)

	// a back-dated workout does not count for today
	_, err := f.workouts.Create(context.Background(), &domain.Workout{
		UserID:     f.userID,
		Date:       f.now.AddDate(0, 0, -3),
		MusclesHit: []domain.MuscleGroup{domain.MuscleAbs},
	})
	require.NoError(t, err)

	res, err := f.engine.Update(context.Background(), f.userID)
	require.NoError(t, err)
	assert.False(t, res.Updated)
	assert.Equal(t, 3, res.Current)
	assert.Equal(t, 3, f.user().CurrentStreak)
}

func TestEngine_DayBoundaryUsesConfiguredZone(t *testing.T) {
	f := newFixture(t, nil)
	// 23:30 and 00:30 local are consecutive days even though both fall on the same UTC date.
	f.now = time.Date(2026, 2, 1, 23, 30, 0, 0, f.loc)
	f.logWorkout()
	f.now = f.now.Add(time.Hour)

	res := f.logWorkout()
	assert.True(t, res.Continued)
	assert.Equal(t, 2, res.Current)
}

func TestEngine_UserNotFound(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.engine.Update(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, streak.ErrUserNotFound)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CounterStreakUpdates.WithLabelValues(metrics.StreakFailed)))
}

// racingUsers simulates a concurrent writer that wins the first few compare-and-swaps.
type racingUsers struct {
	*memory.UserRepository
	mu        sync.Mutex
	conflicts int
}

func (r *racingUsers) UpdateStreak(ctx context.Context, id primitive.ObjectID, expectedVersion int64, s domain.Streak) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflicts > 0 {
		r.conflicts--
		return repository.ErrVersionConflict
	}
	return r.UserRepository.UpdateStreak(ctx, id, expectedVersion, s)
}

func TestEngine_RetriesOnVersionConflict(t *testing.T) {
	store := memory.NewStore()
	users := &racingUsers{UserRepository: store.Users(), conflicts: 2}

	f := newFixture(t, nil)
	f.store = store
	id, err := store.Users().Create(context.Background(), &domain.User{Name: "Racer", Email: "racer@example.com", PasswordHash: "hash"})
	require.NoError(t, err)
	f.userID = id
	f.workouts = store.Workouts()
	f.engine = streak.NewEngine(users, store.Workouts(), f.loc, streak.WithClock(func() time.Time { return f.now }))

	res := f.logWorkout()
	assert.True(t, res.Updated)
	assert.Equal(t, 1, res.Current)

	users.conflicts = 100
	f.nextDay()
	_, err = f.workouts.Create(context.Background(), &domain.Workout{UserID: id, Date: f.now, MusclesHit: []domain.MuscleGroup{domain.MuscleArms}})
	require.NoError(t, err)
	_, err = f.engine.Update(context.Background(), id)
	assert.ErrorIs(t, err, streak.ErrStreakContention)
}

func TestEngine_ConcurrentUpdatesDoNotLoseIncrements(t *testing.T) {
	f := newFixture(t, nil)
	f.logWorkout()
	f.nextDay()
	_, err := f.workouts.Create(context.Background(), &domain.Workout{UserID: f.userID, Date: f.now, MusclesHit: []domain.MuscleGroup{domain.MuscleChest}})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.engine.Update(context.Background(), f.userID)
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, f.user().CurrentStreak)
}

type brokenWorkouts struct {
	repository.WorkoutRepository
}

func (brokenWorkouts) ExistsBetween(context.Context, primitive.ObjectID, time.Time, time.Time) (bool, error) {
	return false, errors.New("connection reset")
}

func TestEngine_StoreErrorPropagates(t *testing.T) {
	store := memory.NewStore()
	id, err := store.Users().Create(context.Background(), &domain.User{Name: "B", Email: "b@example.com", PasswordHash: "hash"})
	require.NoError(t, err)

	engine := streak.NewEngine(store.Users(), brokenWorkouts{store.Workouts()}, time.UTC)
	_, err = engine.Update(context.Background(), id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestAdvance(t *testing.T) {
	tests := []struct {
		name        string
		in          domain.Streak
		continued   bool
		wantCurrent int
		wantLongest int
		wantNew     []domain.Badge
	}{
		{"first day", domain.Streak{}, false, 1, 1, nil},
		{"continue", domain.Streak{Current: 4, Longest: 4}, true, 5, 5, nil},
		{"restart keeps longest", domain.Streak{Current: 40, Longest: 40}, false, 1, 40, nil},
		{"reach seven", domain.Streak{Current: 6, Longest: 6}, true, 7, 7, []domain.Badge{domain.Badge7Day}},
		{"reach thirty", domain.Streak{Current: 29, Longest: 35, Badges: []domain.Badge{domain.Badge7Day}}, true, 30, 35, []domain.Badge{domain.Badge30Day}},
		{"catch up missing lower badges", domain.Streak{Current: 30, Longest: 30}, true, 31, 31, []domain.Badge{domain.Badge7Day, domain.Badge30Day}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, awarded := streak.Advance(tt.in, tt.continued, "2026-01-01")
			assert.Equal(t, tt.wantCurrent, next.Current)
			assert.Equal(t, tt.wantLongest, next.Longest)
			assert.Equal(t, tt.wantNew, awarded)
			assert.Equal(t, "2026-01-01", next.Day)
			for _, b := range tt.in.Badges {
				assert.Contains(t, next.Badges, b)
			}
		})
	}
}
