package cache

import (
	"alcyxob/gym-tracker/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDashboardCache(t *testing.T) {
	c := NewDashboardCache(1, time.Minute)
	userID := primitive.NewObjectID()

	_, ok := c.Get(userID)
	assert.False(t, ok)

	weight := 81.5
	c.Set(userID, &domain.Dashboard{
		Today:  domain.TodaySummary{Weight: &weight, WeightUnit: domain.UnitKg, Workout: true},
		Streak: domain.StreakSummary{Current: 3, Longest: 9, Badges: []domain.Badge{domain.Badge7Day}},
	})

	got, ok := c.Get(userID)
	require.True(t, ok)
	assert.Equal(t, 3, got.Streak.Current)
	require.NotNil(t, got.Today.Weight)
	assert.Equal(t, 81.5, *got.Today.Weight)

	_, ok = c.Get(primitive.NewObjectID())
	assert.False(t, ok, "entries are per user")

	c.Invalidate(userID)
	_, ok = c.Get(userID)
	assert.False(t, ok)
}

func TestDashboardCache_ZeroTTLDisables(t *testing.T) {
	c := NewDashboardCache(1, 0)
	userID := primitive.NewObjectID()
	c.Set(userID, &domain.Dashboard{})
	_, ok := c.Get(userID)
	assert.False(t, ok)
}
