package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MuscleGroup is a fixed category tag describing which body region a workout targeted.
type MuscleGroup string

const (
	MuscleChest     MuscleGroup = "Chest"
	MuscleBack      MuscleGroup = "Back"
	MuscleLegs      MuscleGroup = "Legs"
	MuscleArms      MuscleGroup = "Arms"
	MuscleShoulders MuscleGroup = "Shoulders"
	MuscleAbs       MuscleGroup = "Abs"
)

// MuscleGroups lists every muscle group in display order.
var MuscleGroups = []MuscleGroup{MuscleChest, MuscleBack, MuscleLegs, MuscleArms, MuscleShoulders, MuscleAbs}

// Valid reports whether m is one of the known muscle groups.
func (m MuscleGroup) Valid() bool {
	for _, known := range MuscleGroups {
		if m == known {
			return true
		}
	}
	return false
}

// Exercise is a free-form entry inside a workout. Values are not validated.
type Exercise struct {
	Name   string  `bson:"name" json:"name"`
	Sets   int     `bson:"sets" json:"sets"`
	Reps   int     `bson:"reps" json:"reps"`
	Weight float64 `bson:"weight" json:"weight"`
	Notes  string  `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Workout represents one logged training session.
type Workout struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"userId" json:"userId"`
	Date       time.Time          `bson:"date" json:"date"`
	MusclesHit []MuscleGroup      `bson:"musclesHit" json:"musclesHit"`
	Exercises  []Exercise         `bson:"exercises" json:"exercises"`
	Duration   *int               `bson:"duration,omitempty" json:"duration,omitempty"` // minutes
	Notes      string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}
