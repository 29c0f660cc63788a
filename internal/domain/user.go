package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Badge is a permanent milestone marker granted once a streak threshold is reached.
type Badge string

const (
	Badge7Day   Badge = "7-day"
	Badge30Day  Badge = "30-day"
	Badge100Day Badge = "100-day"
)

// User represents an account together with its gamification state.
// Streak fields are written only by the streak engine.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`                       // Unique, stored lowercase
	PasswordHash string             `bson:"passwordHash,omitempty" json:"-"`          // Empty for federated accounts
	GoogleID     string             `bson:"googleId,omitempty" json:"-"`
	TargetWeight *float64           `bson:"targetWeight,omitempty" json:"targetWeight,omitempty"`

	CurrentStreak int     `bson:"currentStreak" json:"currentStreak"`
	LongestStreak int     `bson:"longestStreak" json:"longestStreak"`
	Badges        []Badge `bson:"badges" json:"badges"`
	// StreakDay is the calendar day (YYYY-MM-DD) last counted towards the streak.
	StreakDay string `bson:"streakDay,omitempty" json:"-"`
	// StreakVersion guards streak updates against lost writes.
	StreakVersion int64 `bson:"streakVersion" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Streak is the denormalized streak/badge state embedded in a User.
type Streak struct {
	Current int
	Longest int
	Badges  []Badge
	Day     string
}

// StreakState extracts the streak fields of the user.
func (u *User) StreakState() Streak {
	badges := make([]Badge, len(u.Badges))
	copy(badges, u.Badges)
	return Streak{
		Current: u.CurrentStreak,
		Longest: u.LongestStreak,
		Badges:  badges,
		Day:     u.StreakDay,
	}
}

// HasBadge reports whether the badge is in the set.
func (s Streak) HasBadge(b Badge) bool {
	for _, have := range s.Badges {
		if have == b {
			return true
		}
	}
	return false
}
