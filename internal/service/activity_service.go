package service

import (
	"alcyxob/gym-tracker/internal/domain"
	"alcyxob/gym-tracker/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultActivityLimit = 7

var (
	ErrActivityNotFound    = errors.New("activity not found")
	ErrInvalidActivityType = fmt.Errorf("%w: type must be walking, running or cycling", ErrValidation)
	ErrInvalidDistance     = fmt.Errorf("%w: distance is required and cannot be negative", ErrValidation)
)

type LogActivityInput struct {
	Type     domain.ActivityType
	Distance *float64
	Duration *int
	Calories *int
	Date     *time.Time
}

type ActivityService interface {
	Log(ctx context.Context, userID primitive.ObjectID, input LogActivityInput) (*domain.Activity, error)
	List(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.Activity, error)
	Delete(ctx context.Context, userID, activityID primitive.ObjectID) error
}

type activityService struct {
	activityRepo repository.ActivityRepository
	invalidator  DashboardInvalidator
	now          func() time.Time
}

func NewActivityService(activityRepo repository.ActivityRepository, invalidator DashboardInvalidator) ActivityService {
	return &activityService{
		activityRepo: activityRepo,
		invalidator:  invalidatorOrNoop(invalidator),
		now:          time.Now,
	}
}

func (s *activityService) Log(ctx context.Context, userID primitive.ObjectID, input LogActivityInput) (*domain.Activity, error) {
	activityType := input.Type
	if activityType == "" {
		activityType = domain.ActivityWalking
	}
	if !activityType.Valid() {
		return nil, ErrInvalidActivityType
	}
	if input.Distance == nil || *input.Distance < 0 {
		return nil, ErrInvalidDistance
	}
	if (input.Duration != nil && *input.Duration < 0) || (input.Calories != nil && *input.Calories < 0) {
		return nil, fmt.Errorf("%w: duration and calories cannot be negative", ErrValidation)
	}

	activity := &domain.Activity{
		UserID:   userID,
		Date:     s.now().UTC(),
		Type:     activityType,
		Distance: *input.Distance,
		Duration: input.Duration,
		Calories: input.Calories,
	}
	if input.Date != nil && !input.Date.IsZero() {
		activity.Date = input.Date.UTC()
	}

	id, err := s.activityRepo.Create(ctx, activity)
	if err != nil {
		return nil, fmt.Errorf("create activity: %w", err)
	}
	activity.ID = id
	s.invalidator.Invalidate(userID)
	return activity, nil
}

func (s *activityService) List(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.Activity, error) {
	activities, err := s.activityRepo.ListByUser(ctx, userID, clampLimit(limit, defaultActivityLimit, maxListLimit))
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return activities, nil
}

func (s *activityService) Delete(ctx context.Context, userID, activityID primitive.ObjectID) error {
	if err := s.activityRepo.Delete(ctx, activityID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrActivityNotFound
		}
		return fmt.Errorf("delete activity: %w", err)
	}
	s.invalidator.Invalidate(userID)
	return nil
}
