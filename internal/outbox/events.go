package outbox

import (
	"alcyxob/gym-tracker/internal/domain"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// WorkoutLogged is the message published for every persisted workout.
type WorkoutLogged struct {
	EventID    string               `json:"eventId"`
	Type       domain.EventType     `json:"type"`
	UserID     string               `json:"userId"`
	WorkoutID  string               `json:"workoutId"`
	Date       time.Time            `json:"date"`
	MusclesHit []domain.MuscleGroup `json:"musclesHit"`
	Exercises  int                  `json:"exercises"`
	OccurredAt time.Time            `json:"occurredAt"`
}

// NewWorkoutLoggedEvent builds the outbox record for a persisted workout.
func NewWorkoutLoggedEvent(w *domain.Workout, needsStreak bool) (*domain.OutboxEvent, error) {
	payload, err := json.Marshal(WorkoutLogged{
		EventID:    uuid.NewString(),
		Type:       domain.EventWorkoutLogged,
		UserID:     w.UserID.Hex(),
		WorkoutID:  w.ID.Hex(),
		Date:       w.Date.UTC(),
		MusclesHit: w.MusclesHit,
		Exercises:  len(w.Exercises),
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return &domain.OutboxEvent{
		Type:        domain.EventWorkoutLogged,
		UserID:      w.UserID,
		WorkoutID:   w.ID,
		NeedsStreak: needsStreak,
		Payload:     payload,
	}, nil
}
