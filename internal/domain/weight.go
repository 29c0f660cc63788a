package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WeightUnit is the unit a body weight was recorded in.
type WeightUnit string

const (
	UnitKg  WeightUnit = "kg"
	UnitLbs WeightUnit = "lbs"
)

func (u WeightUnit) Valid() bool {
	return u == UnitKg || u == UnitLbs
}

// Weight is a body weight entry. At most one entry exists per user per Day.
type Weight struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"userId" json:"userId"`
	Date   time.Time          `bson:"date" json:"date"`
	Day    string             `bson:"day" json:"day"` // YYYY-MM-DD in the server zone
	Weight float64            `bson:"weight" json:"weight"`
	Unit   WeightUnit         `bson:"unit" json:"unit"`
	// PhotoKey is the object storage key of an optional progress photo.
	PhotoKey  string    `bson:"photoKey,omitempty" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
