package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityType enumerates the supported cardio activities.
type ActivityType string

const (
	ActivityWalking ActivityType = "walking"
	ActivityRunning ActivityType = "running"
	ActivityCycling ActivityType = "cycling"
)

func (t ActivityType) Valid() bool {
	switch t {
	case ActivityWalking, ActivityRunning, ActivityCycling:
		return true
	}
	return false
}

// Activity is a logged cardio session.
type Activity struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Date      time.Time          `bson:"date" json:"date"`
	Type      ActivityType       `bson:"type" json:"type"`
	Distance  float64            `bson:"distance" json:"distance"`                     // kilometers
	Duration  *int               `bson:"duration,omitempty" json:"duration,omitempty"` // minutes
	Calories  *int               `bson:"calories,omitempty" json:"calories,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
