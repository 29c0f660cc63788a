package service

import (
	"alcyxob/gym-tracker/internal/domain"
	"alcyxob/gym-tracker/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrUserNotFound = errors.New("user not found")

// UpdateProfileInput carries the editable profile fields. Nil fields are left as they are.
type UpdateProfileInput struct {
	Name              *string
	TargetWeight      *float64
	ClearTargetWeight bool
}

type UserService interface {
	GetProfile(ctx context.Context, userID primitive.ObjectID) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID primitive.ObjectID, input UpdateProfileInput) (*domain.User, error)
	GetStreak(ctx context.Context, userID primitive.ObjectID) (*domain.StreakSummary, error)
}

type userService struct {
	userRepo    repository.UserRepository
	invalidator DashboardInvalidator
}

func NewUserService(userRepo repository.UserRepository, invalidator DashboardInvalidator) UserService {
	return &userService{
		userRepo:    userRepo,
		invalidator: invalidatorOrNoop(invalidator),
	}
}

func (s *userService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, input UpdateProfileInput) (*domain.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		user.Name = name
	}
	switch {
	case input.ClearTargetWeight:
		user.TargetWeight = nil
	case input.TargetWeight != nil:
		if *input.TargetWeight <= 0 {
			return nil, fmt.Errorf("%w: target weight must be positive", ErrValidation)
		}
		tw := *input.TargetWeight
		user.TargetWeight = &tw
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	s.invalidator.Invalidate(userID)
	return user, nil
}

func (s *userService) GetStreak(ctx context.Context, userID primitive.ObjectID) (*domain.StreakSummary, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return streakSummary(user), nil
}

func streakSummary(user *domain.User) *domain.StreakSummary {
	badges := user.Badges
	if badges == nil {
		badges = []domain.Badge{}
	}
	return &domain.StreakSummary{
		Current: user.CurrentStreak,
		Longest: user.LongestStreak,
		Badges:  badges,
	}
}
