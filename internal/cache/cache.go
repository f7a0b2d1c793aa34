package cache

import (
	"context"
	"sync"
	"time"

	"github.com/liam996405/uv-index-service/internal/models"
)

// Cache stores raw feed snapshots by key. Get returns ok=false on a miss;
// freshness is decided by the caller from FetchedAt, not by the store.
type Cache interface {
	Get(ctx context.Context, key string) (models.FeedSnapshot, bool, error)
	Set(ctx context.Context, key string, value models.FeedSnapshot, ttl time.Duration) error
}

// InMemoryCache implements Cache with a process-local map.
// A ttl of zero or less keeps the entry until it is overwritten.
type InMemoryCache struct {
	mu   sync.RWMutex
	data map[string]cacheEntry
	now  func() time.Time
}

type cacheEntry struct {
	value     models.FeedSnapshot
	expiresAt time.Time // zero means no expiry
}

// NewInMemoryCache creates a new in-memory cache instance.
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		data: make(map[string]cacheEntry),
		now:  time.Now,
	}
}

// Get returns the snapshot for key. Expired entries are removed on access.
func (c *InMemoryCache) Get(ctx context.Context, key string) (models.FeedSnapshot, bool, error) {
	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return models.FeedSnapshot{}, false, nil
	}

	if !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.data, key)
		c.mu.Unlock()
		return models.FeedSnapshot{}, false, nil
	}

	return entry.value, true, nil
}

// Set stores the snapshot, replacing any previous value for key.
func (c *InMemoryCache) Set(ctx context.Context, key string, value models.FeedSnapshot, ttl time.Duration) error {
	entry := cacheEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.data[key] = entry
	c.mu.Unlock()
	return nil
}
