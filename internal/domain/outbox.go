package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EventType string

const EventWorkoutLogged EventType = "workout.logged"

type OutboxStatus string

const (
	OutboxPending   OutboxStatus = "pending"
	OutboxProcessed OutboxStatus = "processed"
	OutboxDead      OutboxStatus = "dead"
)

// OutboxEvent records follow-up work for a persisted workout: a deferred streak
// update and/or publishing the event to the message broker.
type OutboxEvent struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Type        EventType          `bson:"type"`
	UserID      primitive.ObjectID `bson:"userId"`
	WorkoutID   primitive.ObjectID `bson:"workoutId"`
	NeedsStreak bool               `bson:"needsStreak"`
	Payload     []byte             `bson:"payload,omitempty"`
	Status      OutboxStatus       `bson:"status"`
	Attempts    int                `bson:"attempts"`
	LastError   string             `bson:"lastError,omitempty"`
	ClaimedAt   *time.Time         `bson:"claimedAt,omitempty"`
	ProcessedAt *time.Time         `bson:"processedAt,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
}
