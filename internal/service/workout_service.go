package service

import (
	"alcyxob/gym-tracker/internal/domain"
	"alcyxob/gym-tracker/internal/metrics"
	"alcyxob/gym-tracker/internal/outbox"
	"alcyxob/gym-tracker/internal/repository"
	"alcyxob/gym-tracker/internal/streak"
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultWorkoutLimit = 50
	maxListLimit        = 200
)

var (
	ErrWorkoutNotFound    = errors.New("workout not found")
	ErrNoMuscleGroups     = fmt.Errorf("%w: at least one muscle group is required", ErrValidation)
	ErrInvalidMuscleGroup = fmt.Errorf("%w: invalid muscle group", ErrValidation)
)

// StreakOutcome tells the client what happened to its streak after a workout was saved.
type StreakOutcome string

const (
	StreakUpdated   StreakOutcome = "updated"
	StreakUnchanged StreakOutcome = "unchanged"
	// StreakPending means the update was deferred to the outbox dispatcher.
	StreakPending StreakOutcome = "pending"
	// StreakFailed means the update failed and could not be deferred either.
	StreakFailed StreakOutcome = "failed"
)

// StreakMode selects whether workout creation updates the streak in the request.
type StreakMode string

const (
	StreakModeInline StreakMode = "inline"
	StreakModeAsync  StreakMode = "async"
)

// StreakUpdater runs the streak engine for a user.
type StreakUpdater interface {
	Update(ctx context.Context, userID primitive.ObjectID) (*streak.Result, error)
}

type CreateWorkoutInput struct {
	Date       *time.Time
	MusclesHit []domain.MuscleGroup
	Exercises  []domain.Exercise
	Duration   *int
	Notes      string
}

// WorkoutCreated is the outcome of logging a workout. The workout is persisted
// regardless of Streak; Snapshot is set when the streak state is known.
type WorkoutCreated struct {
	Workout  *domain.Workout
	Streak   StreakOutcome
	Snapshot *streak.Result
}

type WorkoutService interface {
	Create(ctx context.Context, userID primitive.ObjectID, input CreateWorkoutInput) (*WorkoutCreated, error)
	List(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.Workout, error)
	Get(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error)
	// Delete removes the workout. Streak counters are not recomputed.
	Delete(ctx context.Context, userID, workoutID primitive.ObjectID) error
	RecomputeStreak(ctx context.Context, userID primitive.ObjectID) (*streak.Result, error)
}

type WorkoutOptions struct {
	Mode StreakMode
	// PublishEvents enqueues a workout.logged event for every created workout.
	PublishEvents bool
}

type workoutService struct {
	workoutRepo repository.WorkoutRepository
	outboxRepo  repository.OutboxRepository
	streaks     StreakUpdater
	invalidator DashboardInvalidator
	metrics     *metrics.Manager
	opts        WorkoutOptions
	now         func() time.Time
}

func NewWorkoutService(
	workoutRepo repository.WorkoutRepository,
	outboxRepo repository.OutboxRepository,
	streaks StreakUpdater,
	invalidator DashboardInvalidator,
	m *metrics.Manager,
	opts WorkoutOptions,
) WorkoutService {
	if opts.Mode == "" {
		opts.Mode = StreakModeInline
	}
	return &workoutService{
		workoutRepo: workoutRepo,
		outboxRepo:  outboxRepo,
		streaks:     streaks,
		invalidator: invalidatorOrNoop(invalidator),
		metrics:     m,
		opts:        opts,
		now:         time.Now,
	}
}

func (s *workoutService) Create(ctx context.Context, userID primitive.ObjectID, input CreateWorkoutInput) (*WorkoutCreated, error) {
	muscles, err := validateMuscles(input.MusclesHit)
	if err != nil {
		return nil, err
	}
	if input.Duration != nil && *input.Duration < 0 {
		return nil, fmt.Errorf("%w: duration cannot be negative", ErrValidation)
	}

	workout := &domain.Workout{
		UserID:     userID,
		Date:       s.now().UTC(),
		MusclesHit: muscles,
		Exercises:  input.Exercises,
		Duration:   input.Duration,
		Notes:      input.Notes,
	}
	if input.Date != nil && !input.Date.IsZero() {
		workout.Date = input.Date.UTC()
	}
	if workout.Exercises == nil {
		workout.Exercises = []domain.Exercise{}
	}

	id, err := s.workoutRepo.Create(ctx, workout)
	if err != nil {
		return nil, fmt.Errorf("create workout: %w", err)
	}
	workout.ID = id
	if s.metrics != nil {
		s.metrics.CounterWorkoutsLogged.Inc()
	}

	created := &WorkoutCreated{Workout: workout}
	// The workout is stored; a client disconnect must not drop its streak update.
	created.Streak, created.Snapshot = s.runStreakStep(context.WithoutCancel(ctx), workout)
	s.invalidator.Invalidate(userID)
	return created, nil
}

// runStreakStep updates the streak after the workout is stored. It never fails
// the request: errors are logged and the update is handed to the outbox.
func (s *workoutService) runStreakStep(ctx context.Context, workout *domain.Workout) (StreakOutcome, *streak.Result) {
	logger := log.WithFields(log.Fields{"user": workout.UserID.Hex(), "workout": workout.ID.Hex()})

	if s.opts.Mode == StreakModeAsync {
		err := s.enqueue(ctx, workout, true)
		if err == nil {
			return StreakPending, nil
		}
		logger.WithError(err).Warn("workout: enqueue deferred streak update failed, updating inline")
	}

	res, err := s.streaks.Update(ctx, workout.UserID)
	if err != nil {
		logger.WithError(err).Warn("workout: streak update failed, deferring")
		if qerr := s.enqueue(ctx, workout, true); qerr != nil {
			logger.WithError(qerr).Error("workout: streak update lost, outbox unavailable")
			return StreakFailed, nil
		}
		return StreakPending, nil
	}

	if s.opts.PublishEvents {
		if err := s.enqueue(ctx, workout, false); err != nil {
			logger.WithError(err).Error("workout: enqueue workout.logged event")
		}
	}

	if res.Updated {
		return StreakUpdated, res
	}
	return StreakUnchanged, res
}

func (s *workoutService) enqueue(ctx context.Context, workout *domain.Workout, needsStreak bool) error {
	if s.outboxRepo == nil {
		return errors.New("outbox not configured")
	}
	event, err := outbox.NewWorkoutLoggedEvent(workout, needsStreak)
	if err != nil {
		return err
	}
	return s.outboxRepo.Enqueue(ctx, event)
}

func validateMuscles(in []domain.MuscleGroup) ([]domain.MuscleGroup, error) {
	if len(in) == 0 {
		return nil, ErrNoMuscleGroups
	}
	seen := make(map[domain.MuscleGroup]bool, len(in))
	out := make([]domain.MuscleGroup, 0, len(in))
	for _, m := range in {
		if !m.Valid() {
			return nil, fmt.Errorf("%w %q", ErrInvalidMuscleGroup, m)
		}
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *workoutService) List(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.Workout, error) {
	workouts, err := s.workoutRepo.ListByUser(ctx, userID, clampLimit(limit, defaultWorkoutLimit, maxListLimit))
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	return workouts, nil
}

func (s *workoutService) Get(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	workout, err := s.workoutRepo.GetByID(ctx, workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, fmt.Errorf("get workout: %w", err)
	}
	// someone else's workout looks the same as a missing one
	if workout.UserID != userID {
		return nil, ErrWorkoutNotFound
	}
	return workout, nil
}

func (s *workoutService) Delete(ctx context.Context, userID, workoutID primitive.ObjectID) error {
	if err := s.workoutRepo.Delete(ctx, workoutID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrWorkoutNotFound
		}
		return fmt.Errorf("delete workout: %w", err)
	}
	s.invalidator.Invalidate(userID)
	return nil
}

func (s *workoutService) RecomputeStreak(ctx context.Context, userID primitive.ObjectID) (*streak.Result, error) {
	res, err := s.streaks.Update(ctx, userID)
	if err != nil {
		if errors.Is(err, streak.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if res.Updated {
		s.invalidator.Invalidate(userID)
	}
	return res, nil
}
