package cache

import (
	"alcyxob/gym-tracker/internal/domain"
	"encoding/json"
	"fmt"
	"time"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const megabyte = 1024 * 1024

// DashboardCache keeps the JSON-encoded dashboard of each user for a short TTL.
type DashboardCache struct {
	cache *freecache.Cache
	ttl   time.Duration
}

// NewDashboardCache allocates sizeMB of cache memory. A non-positive ttl
// disables caching: Get always misses and Set is a no-op.
func NewDashboardCache(sizeMB int, ttl time.Duration) *DashboardCache {
	if sizeMB <= 0 {
		sizeMB = 16
	}
	return &DashboardCache{
		cache: freecache.NewCache(sizeMB * megabyte),
		ttl:   ttl,
	}
}

func key(userID primitive.ObjectID) []byte {
	return []byte(fmt.Sprintf("dashboard::%s", userID.Hex()))
}

func (c *DashboardCache) Get(userID primitive.ObjectID) (*domain.Dashboard, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	raw, err := c.cache.Get(key(userID))
	if err != nil {
		return nil, false
	}
	var d domain.Dashboard
	if err := json.Unmarshal(raw, &d); err != nil {
		log.Errorf("cache: failed to unmarshal dashboard for user %s: %s", userID.Hex(), err)
		c.Invalidate(userID)
		return nil, false
	}
	return &d, true
}

func (c *DashboardCache) Set(userID primitive.ObjectID, d *domain.Dashboard) {
	if c.ttl <= 0 || d == nil {
		return
	}
	raw, err := json.Marshal(d)
	if err != nil {
		log.Errorf("cache: failed to marshal dashboard for user %s: %s", userID.Hex(), err)
		return
	}
	seconds := int(c.ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	if err := c.cache.Set(key(userID), raw, seconds); err != nil {
		log.Errorf("cache: failed to store dashboard for user %s: %s", userID.Hex(), err)
	}
}

// Invalidate drops the cached dashboard of userID.
func (c *DashboardCache) Invalidate(userID primitive.ObjectID) {
	c.cache.Del(key(userID))
}
