package service

import (
	"alcyxob/gym-tracker/internal/domain"
	"alcyxob/gym-tracker/internal/repository"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DashboardCache stores computed dashboards per user.
type DashboardCache interface {
	Get(userID primitive.ObjectID) (*domain.Dashboard, bool)
	Set(userID primitive.ObjectID, d *domain.Dashboard)
	Invalidate(userID primitive.ObjectID)
}

type DashboardService interface {
	Get(ctx context.Context, userID primitive.ObjectID) (*domain.Dashboard, error)
	DashboardInvalidator
}

type dashboardService struct {
	userRepo     repository.UserRepository
	workoutRepo  repository.WorkoutRepository
	weightRepo   repository.WeightRepository
	activityRepo repository.ActivityRepository
	cache        DashboardCache
	loc          *time.Location
	now          func() time.Time

	// generations counts invalidations per user. A dashboard computed across
	// an invalidation is returned but not cached.
	mu          sync.Mutex
	generations map[primitive.ObjectID]uint64
}

// NewDashboardService creates the dashboard aggregator. cache may be nil.
func NewDashboardService(
	userRepo repository.UserRepository,
	workoutRepo repository.WorkoutRepository,
	weightRepo repository.WeightRepository,
	activityRepo repository.ActivityRepository,
	cache DashboardCache,
	loc *time.Location,
) DashboardService {
	if loc == nil {
		loc = time.Local
	}
	return &dashboardService{
		userRepo:     userRepo,
		workoutRepo:  workoutRepo,
		weightRepo:   weightRepo,
		activityRepo: activityRepo,
		cache:        cache,
		loc:          loc,
		now:          time.Now,
		generations:  make(map[primitive.ObjectID]uint64),
	}
}

func (s *dashboardService) Invalidate(userID primitive.ObjectID) {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	s.generations[userID]++
	s.mu.Unlock()
	s.cache.Invalidate(userID)
}

func (s *dashboardService) generation(userID primitive.ObjectID) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[userID]
}

// store caches d unless userID was invalidated after gen was read.
func (s *dashboardService) store(userID primitive.ObjectID, gen uint64, d *domain.Dashboard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[userID] != gen {
		return
	}
	s.cache.Set(userID, d)
}

func (s *dashboardService) Get(ctx context.Context, userID primitive.ObjectID) (*domain.Dashboard, error) {
	if s.cache == nil {
		return s.compute(ctx, userID)
	}
	if d, ok := s.cache.Get(userID); ok {
		return d, nil
	}

	gen := s.generation(userID)
	d, err := s.compute(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.store(userID, gen, d)
	return d, nil
}

func (s *dashboardService) compute(ctx context.Context, userID primitive.ObjectID) (*domain.Dashboard, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	now := s.now()
	today := domain.StartOfDay(now, s.loc)
	tomorrow := today.AddDate(0, 0, 1)
	weekStart := today.AddDate(0, 0, -6)

	d := &domain.Dashboard{
		Streak:      *streakSummary(user),
		GeneratedAt: now.UTC(),
	}

	d.Today.MusclesHit = []domain.MuscleGroup{}
	weight, err := s.weightRepo.GetByDay(ctx, userID, domain.DayKey(now, s.loc))
	switch {
	case err == nil:
		w := weight.Weight
		d.Today.Weight = &w
		d.Today.WeightUnit = weight.Unit
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("get today's weight: %w", err)
	}

	activities, err := s.activityRepo.ListByUserBetween(ctx, userID, today, tomorrow)
	if err != nil {
		return nil, fmt.Errorf("list today's activities: %w", err)
	}
	for _, a := range activities {
		d.Today.Distance += a.Distance
	}

	week, err := s.workoutRepo.ListByUserBetween(ctx, userID, weekStart, tomorrow)
	if err != nil {
		return nil, fmt.Errorf("list week's workouts: %w", err)
	}
	perDay := make(map[string]int, 7)
	hitToday := make(map[domain.MuscleGroup]bool)
	todayKey := today.Format(domain.DayLayout)
	for _, w := range week {
		key := domain.DayKey(w.Date, s.loc)
		perDay[key]++
		if key == todayKey {
			d.Today.Workout = true
			for _, m := range w.MusclesHit {
				hitToday[m] = true
			}
		}
	}
	for _, m := range domain.MuscleGroups {
		if hitToday[m] {
			d.Today.MusclesHit = append(d.Today.MusclesHit, m)
		}
	}
	d.Week = make([]domain.DayCount, 0, 7)
	for day := weekStart; day.Before(tomorrow); day = day.AddDate(0, 0, 1) {
		key := day.Format(domain.DayLayout)
		d.Week = append(d.Week, domain.DayCount{
			Day:      key,
			Label:    day.Format("Mon"),
			Workouts: perDay[key],
		})
	}

	counts, err := s.workoutRepo.CountByMuscleGroup(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count muscle groups: %w", err)
	}
	d.MuscleFrequency = make([]domain.MuscleCount, 0, len(domain.MuscleGroups))
	for _, m := range domain.MuscleGroups {
		d.MuscleFrequency = append(d.MuscleFrequency, domain.MuscleCount{Muscle: m, Count: counts[m]})
	}

	return d, nil
}
