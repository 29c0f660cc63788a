package domain

import "time"

// Dashboard is the aggregated progress view of a single user.
type Dashboard struct {
	Today           TodaySummary  `json:"today"`
	Week            []DayCount    `json:"week"`
	MuscleFrequency []MuscleCount `json:"muscleFrequency"`
	Streak          StreakSummary `json:"streak"`
	GeneratedAt     time.Time     `json:"generatedAt"`
}

type TodaySummary struct {
	Weight     *float64      `json:"weight"`
	WeightUnit WeightUnit    `json:"weightUnit,omitempty"`
	Workout    bool          `json:"workout"`
	MusclesHit []MuscleGroup `json:"musclesHit"`
	Distance   float64       `json:"distance"`
}

type DayCount struct {
	Day      string `json:"day"`   // YYYY-MM-DD
	Label    string `json:"label"` // Mon, Tue, ...
	Workouts int    `json:"workouts"`
}

type MuscleCount struct {
	Muscle MuscleGroup `json:"muscle"`
	Count  int         `json:"count"`
}

type StreakSummary struct {
	Current int     `json:"currentStreak"`
	Longest int     `json:"longestStreak"`
	Badges  []Badge `json:"badges"`
}
