// Package streak computes consecutive-day training streaks and milestone badges.
//
// The engine is invoked after a workout has been persisted. It reads the user,
// decides whether today's training continues yesterday's streak or starts a new
// one, and writes the result back with a versioned compare-and-swap so that two
// concurrent workouts for the same user cannot lose an increment.
package streak

import (
	"alcyxob/gym-tracker/internal/domain"
	"alcyxob/gym-tracker/internal/metrics"
	"alcyxob/gym-tracker/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrUserNotFound     = errors.New("streak: user not found")
	ErrStreakContention = errors.New("streak: too many concurrent updates")
)

const defaultMaxAttempts = 5

// Thresholds lists the badge milestones in ascending order.
var Thresholds = []struct {
	Days  int
	Badge domain.Badge
}{
	{7, domain.Badge7Day},
	{30, domain.Badge30Day},
	{100, domain.Badge100Day},
}

// Result describes the outcome of one engine run.
type Result struct {
	Updated   bool
	Continued bool
	Current   int
	Longest   int
	Badges    []domain.Badge
	NewBadges []domain.Badge
}

type Engine struct {
	users       repository.UserRepository
	workouts    repository.WorkoutRepository
	loc         *time.Location
	now         func() time.Time
	maxAttempts int
	metrics     *metrics.Manager
}

type Option func(*Engine)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithMaxAttempts bounds the compare-and-swap retries.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

func WithMetrics(m *metrics.Manager) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates a streak engine computing calendar days in loc.
// A nil loc means the server's local zone.
func NewEngine(users repository.UserRepository, workouts repository.WorkoutRepository, loc *time.Location, opts ...Option) *Engine {
	if loc == nil {
		loc = time.Local
	}
	e := &Engine{
		users:       users,
		workouts:    workouts,
		loc:         loc,
		now:         time.Now,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Location returns the zone calendar days are computed in.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Update recomputes the streak of userID. It is a no-op when the user has no
// workout dated today or when today was already counted.
func (e *Engine) Update(ctx context.Context, userID primitive.ObjectID) (*Result, error) {
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		result, err := e.tryUpdate(ctx, userID)
		if errors.Is(err, repository.ErrVersionConflict) {
			log.WithFields(log.Fields{"user": userID.Hex(), "attempt": attempt}).Debug("streak: version conflict, retrying")
			continue
		}
		if err != nil {
			e.observeFailure()
			return nil, err
		}
		e.observe(result)
		return result, nil
	}
	e.observeFailure()
	return nil, ErrStreakContention
}

func (e *Engine) tryUpdate(ctx context.Context, userID primitive.ObjectID) (*Result, error) {
	user, err := e.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID.Hex())
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	state := user.StreakState()

	today := domain.StartOfDay(e.now(), e.loc)
	yesterday := today.AddDate(0, 0, -1)
	todayKey := today.Format(domain.DayLayout)

	hasToday, err := e.workouts.ExistsBetween(ctx, userID, today, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("query today's workout: %w", err)
	}
	if !hasToday || state.Day == todayKey {
		return unchanged(state), nil
	}

	hasYesterday, err := e.workouts.ExistsBetween(ctx, userID, yesterday, today)
	if err != nil {
		return nil, fmt.Errorf("query yesterday's workout: %w", err)
	}

	next, newBadges := Advance(state, hasYesterday, todayKey)
	if err := e.users.UpdateStreak(ctx, userID, user.StreakVersion, next); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, err
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID.Hex())
		}
		return nil, fmt.Errorf("save streak: %w", err)
	}

	return &Result{
		Updated:   true,
		Continued: hasYesterday,
		Current:   next.Current,
		Longest:   next.Longest,
		Badges:    next.Badges,
		NewBadges: newBadges,
	}, nil
}

// Advance applies one counted training day to s. continued reports whether the
// previous calendar day had a workout. It returns the new state and the badges
// awarded by this step.
func Advance(s domain.Streak, continued bool, day string) (domain.Streak, []domain.Badge) {
	next := domain.Streak{
		Current: 1,
		Longest: s.Longest,
		Badges:  append([]domain.Badge{}, s.Badges...),
		Day:     day,
	}
	if continued {
		next.Current = s.Current + 1
	}
	if next.Current > next.Longest {
		next.Longest = next.Current
	}

	var awarded []domain.Badge
	for _, t := range Thresholds {
		if next.Current >= t.Days && !next.HasBadge(t.Badge) {
			next.Badges = append(next.Badges, t.Badge)
			awarded = append(awarded, t.Badge)
		}
	}
	return next, awarded
}

func unchanged(s domain.Streak) *Result {
	return &Result{
		Current: s.Current,
		Longest: s.Longest,
		Badges:  s.Badges,
	}
}

func (e *Engine) observe(r *Result) {
	if e.metrics == nil {
		return
	}
	outcome := metrics.StreakUnchanged
	if r.Updated && r.Continued {
		outcome = metrics.StreakContinued
	} else if r.Updated {
		outcome = metrics.StreakRestarted
	}
	e.metrics.CounterStreakUpdates.WithLabelValues(outcome).Inc()
	for _, b := range r.NewBadges {
		e.metrics.CounterBadgesAwarded.WithLabelValues(string(b)).Inc()
	}
}

func (e *Engine) observeFailure() {
	if e.metrics != nil {
		e.metrics.CounterStreakUpdates.WithLabelValues(metrics.StreakFailed).Inc()
	}
}
