// Package memory provides in-process implementations of the repository interfaces.
// They mirror the MongoDB semantics (ownership filters, unique day per weight,
// versioned streak updates) and back local runs and tests.
package memory

import (
	"alcyxob/gym-tracker/internal/domain"
	"alcyxob/gym-tracker/internal/repository"
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store holds all collections behind one mutex.
type Store struct {
	mu         sync.Mutex
	users      map[primitive.ObjectID]domain.User
	workouts   map[primitive.ObjectID]domain.Workout
	weights    map[primitive.ObjectID]domain.Weight
	activities map[primitive.ObjectID]domain.Activity
	outbox     map[primitive.ObjectID]domain.OutboxEvent
}

func NewStore() *Store {
	return &Store{
		users:      make(map[primitive.ObjectID]domain.User),
		workouts:   make(map[primitive.ObjectID]domain.Workout),
		weights:    make(map[primitive.ObjectID]domain.Weight),
		activities: make(map[primitive.ObjectID]domain.Activity),
		outbox:     make(map[primitive.ObjectID]domain.OutboxEvent),
	}
}

func (s *Store) Users() *UserRepository         { return &UserRepository{s: s} }
func (s *Store) Workouts() *WorkoutRepository   { return &WorkoutRepository{s: s} }
func (s *Store) Weights() *WeightRepository     { return &WeightRepository{s: s} }
func (s *Store) Activities() *ActivityRepository { return &ActivityRepository{s: s} }
func (s *Store) Outbox() *OutboxRepository      { return &OutboxRepository{s: s} }

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

var (
	_ repository.UserRepository     = (*UserRepository)(nil)
	_ repository.WorkoutRepository  = (*WorkoutRepository)(nil)
	_ repository.WeightRepository   = (*WeightRepository)(nil)
	_ repository.ActivityRepository = (*ActivityRepository)(nil)
	_ repository.OutboxRepository   = (*OutboxRepository)(nil)
)

type UserRepository struct{ s *Store }

func (r *UserRepository) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.Email == "" || (user.PasswordHash == "" && user.GoogleID == "") {
		return primitive.NilObjectID, errors.New("user email and a password hash or google id are required")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	email := strings.ToLower(user.Email)
	for _, u := range r.s.users {
		if u.Email == email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	user.Email = email
	if user.Badges == nil {
		user.Badges = []domain.Badge{}
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.users[user.ID] = copyUser(*user)
	return user.ID, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	email = strings.ToLower(email)
	for _, u := range r.s.users {
		if u.Email == email {
			found := copyUser(u)
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	found := copyUser(u)
	return &found, nil
}

func (r *UserRepository) UpdateProfile(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Name = user.Name
	stored.TargetWeight = nil
	if user.TargetWeight != nil {
		tw := *user.TargetWeight
		stored.TargetWeight = &tw
	}
	stored.UpdatedAt = time.Now().UTC()
	r.s.users[user.ID] = stored
	return nil
}

func (r *UserRepository) UpdateStreak(_ context.Context, id primitive.ObjectID, expectedVersion int64, streak domain.Streak) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.StreakVersion != expectedVersion {
		return repository.ErrVersionConflict
	}
	stored.CurrentStreak = streak.Current
	stored.LongestStreak = streak.Longest
	stored.StreakDay = streak.Day
	for _, b := range streak.Badges {
		if !stored.StreakState().HasBadge(b) {
			stored.Badges = append(stored.Badges, b)
		}
	}
	stored.StreakVersion++
	stored.UpdatedAt = time.Now().UTC()
	r.s.users[id] = stored
	return nil
}

type WorkoutRepository struct{ s *Store }

func (r *WorkoutRepository) Create(_ context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	if workout.UserID == primitive.NilObjectID || len(workout.MusclesHit) == 0 {
		return primitive.NilObjectID, errors.New("workout requires userId and at least one muscle group")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	workout.ID = primitive.NewObjectID()
	workout.CreatedAt = time.Now().UTC()
	if workout.Date.IsZero() {
		workout.Date = workout.CreatedAt
	}
	if workout.Exercises == nil {
		workout.Exercises = []domain.Exercise{}
	}
	r.s.workouts[workout.ID] = *workout
	return workout.ID, nil
}

func (r *WorkoutRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.workouts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &w, nil
}

func (r *WorkoutRepository) ListByUser(_ context.Context, userID primitive.ObjectID, limit int) ([]domain.Workout, error) {
	return r.filter(userID, time.Time{}, time.Time{}, limit), nil
}

func (r *WorkoutRepository) ListByUserBetween(_ context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.Workout, error) {
	return r.filter(userID, from, to, 0), nil
}

func (r *WorkoutRepository) ExistsBetween(_ context.Context, userID primitive.ObjectID, from, to time.Time) (bool, error) {
	return len(r.filter(userID, from, to, 1)) > 0, nil
}

func (r *WorkoutRepository) filter(userID primitive.ObjectID, from, to time.Time, limit int) []domain.Workout {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []domain.Workout{}
	for _, w := range r.s.workouts {
		if w.UserID == userID && inRange(w.Date, from, to) {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *WorkoutRepository) CountByMuscleGroup(_ context.Context, userID primitive.ObjectID) (map[domain.MuscleGroup]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	counts := make(map[domain.MuscleGroup]int)
	for _, w := range r.s.workouts {
		if w.UserID != userID {
			continue
		}
		for _, m := range w.MusclesHit {
			counts[m]++
		}
	}
	return counts, nil
}

func (r *WorkoutRepository) Delete(_ context.Context, id, userID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.workouts[id]
	if !ok || w.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.s.workouts, id)
	return nil
}

type WeightRepository struct{ s *Store }

func (r *WeightRepository) Create(_ context.Context, weight *domain.Weight) (primitive.ObjectID, error) {
	if weight.UserID == primitive.NilObjectID || weight.Day == "" {
		return primitive.NilObjectID, errors.New("weight requires userId and day")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, w := range r.s.weights {
		if w.UserID == weight.UserID && w.Day == weight.Day {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	weight.ID = primitive.NewObjectID()
	weight.CreatedAt = time.Now().UTC()
	r.s.weights[weight.ID] = *weight
	return weight.ID, nil
}

func (r *WeightRepository) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Weight, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.weights[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &w, nil
}

func (r *WeightRepository) GetByDay(_ context.Context, userID primitive.ObjectID, day string) (*domain.Weight, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, w := range r.s.weights {
		if w.UserID == userID && w.Day == day {
			found := w
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *WeightRepository) ListByUser(_ context.Context, userID primitive.ObjectID, limit int) ([]domain.Weight, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []domain.Weight{}
	for _, w := range r.s.weights {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *WeightRepository) SetPhotoKey(_ context.Context, id, userID primitive.ObjectID, key string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.weights[id]
	if !ok || w.UserID != userID {
		return repository.ErrNotFound
	}
	w.PhotoKey = key
	r.s.weights[id] = w
	return nil
}

func (r *WeightRepository) Delete(_ context.Context, id, userID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.weights[id]
	if !ok || w.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.s.weights, id)
	return nil
}

type ActivityRepository struct{ s *Store }

func (r *ActivityRepository) Create(_ context.Context, activity *domain.Activity) (primitive.ObjectID, error) {
	if activity.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("activity requires userId")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	activity.ID = primitive.NewObjectID()
	activity.CreatedAt = time.Now().UTC()
	r.s.activities[activity.ID] = *activity
	return activity.ID, nil
}

func (r *ActivityRepository) ListByUser(_ context.Context, userID primitive.ObjectID, limit int) ([]domain.Activity, error) {
	return r.filter(userID, time.Time{}, time.Time{}, limit), nil
}

func (r *ActivityRepository) ListByUserBetween(_ context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.Activity, error) {
	return r.filter(userID, from, to, 0), nil
}

func (r *ActivityRepository) filter(userID primitive.ObjectID, from, to time.Time, limit int) []domain.Activity {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []domain.Activity{}
	for _, a := range r.s.activities {
		if a.UserID == userID && inRange(a.Date, from, to) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *ActivityRepository) Delete(_ context.Context, id, userID primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.activities[id]
	if !ok || a.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.s.activities, id)
	return nil
}

type OutboxRepository struct{ s *Store }

func (r *OutboxRepository) Enqueue(_ context.Context, event *domain.OutboxEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	event.ID = primitive.NewObjectID()
	event.Status = domain.OutboxPending
	event.CreatedAt = time.Now().UTC()
	r.s.outbox[event.ID] = *event
	return nil
}

func (r *OutboxRepository) ClaimBatch(_ context.Context, limit int, claimTimeout time.Duration) ([]domain.OutboxEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now().UTC()

	candidates := []domain.OutboxEvent{}
	for _, e := range r.s.outbox {
		if e.Status != domain.OutboxPending {
			continue
		}
		if e.ClaimedAt != nil && e.ClaimedAt.After(now.Add(-claimTimeout)) {
			continue
		}
		candidates = append(candidates, e)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].CreatedAt.Before(candidates[j].CreatedAt) })
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	for i := range candidates {
		claimed := now
		candidates[i].ClaimedAt = &claimed
		r.s.outbox[candidates[i].ID] = candidates[i]
	}
	return candidates, nil
}

func (r *OutboxRepository) MarkProcessed(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.outbox[id]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now().UTC()
	e.Status = domain.OutboxProcessed
	e.ProcessedAt = &now
	r.s.outbox[id] = e
	return nil
}

func (r *OutboxRepository) MarkFailed(_ context.Context, id primitive.ObjectID, reason string, maxAttempts int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.outbox[id]
	if !ok {
		return repository.ErrNotFound
	}
	e.Attempts++
	e.LastError = reason
	e.ClaimedAt = nil
	if maxAttempts > 0 && e.Attempts >= maxAttempts {
		e.Status = domain.OutboxDead
	}
	r.s.outbox[id] = e
	return nil
}

// Events returns a snapshot of all outbox events, oldest first.
func (r *OutboxRepository) Events() []domain.OutboxEvent {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.OutboxEvent, 0, len(r.s.outbox))
	for _, e := range r.s.outbox {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}

func copyUser(u domain.User) domain.User {
	badges := make([]domain.Badge, len(u.Badges))
	copy(badges, u.Badges)
	u.Badges = badges
	if u.TargetWeight != nil {
		tw := *u.TargetWeight
		u.TargetWeight = &tw
	}
	return u
}
