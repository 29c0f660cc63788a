package repository

import (
	"alcyxob/gym-tracker/internal/domain"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound        = RepositoryError("not found")
	ErrDuplicate       = RepositoryError("duplicate entry")
	ErrVersionConflict = RepositoryError("version conflict")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	// UpdateProfile replaces the editable profile fields (name, target weight).
	UpdateProfile(ctx context.Context, user *domain.User) error
	// UpdateStreak writes the streak state only if the stored streakVersion still
	// equals expectedVersion, and bumps the version. Badges are merged, never removed.
	UpdateStreak(ctx context.Context, id primitive.ObjectID, expectedVersion int64, streak domain.Streak) error
}

// WorkoutRepository defines the interface for interacting with workout data.
type WorkoutRepository interface {
	Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.Workout, error)
	// ListByUserBetween returns workouts with from <= date < to, newest first.
	ListByUserBetween(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.Workout, error)
	// ExistsBetween reports whether a workout with from <= date (< to, unless to is zero) exists.
	ExistsBetween(ctx context.Context, userID primitive.ObjectID, from, to time.Time) (bool, error)
	CountByMuscleGroup(ctx context.Context, userID primitive.ObjectID) (map[domain.MuscleGroup]int, error)
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
}

// WeightRepository defines the interface for interacting with body weight entries.
type WeightRepository interface {
	// Create returns ErrDuplicate if the user already has an entry for weight.Day.
	Create(ctx context.Context, weight *domain.Weight) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Weight, error)
	GetByDay(ctx context.Context, userID primitive.ObjectID, day string) (*domain.Weight, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.Weight, error)
	SetPhotoKey(ctx context.Context, id, userID primitive.ObjectID, key string) error
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
}

// ActivityRepository defines the interface for interacting with cardio activities.
type ActivityRepository interface {
	Create(ctx context.Context, activity *domain.Activity) (primitive.ObjectID, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.Activity, error)
	ListByUserBetween(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.Activity, error)
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
}

// OutboxRepository stores follow-up work for persisted workouts.
type OutboxRepository interface {
	Enqueue(ctx context.Context, event *domain.OutboxEvent) error
	// ClaimBatch claims up to limit pending events that are unclaimed or whose claim
	// is older than claimTimeout.
	ClaimBatch(ctx context.Context, limit int, claimTimeout time.Duration) ([]domain.OutboxEvent, error)
	MarkProcessed(ctx context.Context, id primitive.ObjectID) error
	// MarkFailed releases the claim and records the error; once attempts reach
	// maxAttempts the event is marked dead.
	MarkFailed(ctx context.Context, id primitive.ObjectID, reason string, maxAttempts int) error
}
