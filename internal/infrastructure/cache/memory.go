package cache

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/nutrisnap/backend/internal/domain"
)

// cacheItem represents a single record in the cache with expiration
type cacheItem struct {
	record     domain.NutritionRecord
	expiration time.Time
}

// MemoryCache is a thread-safe in-memory nutrition cache with TTL support
type MemoryCache struct {
	data  map[string]cacheItem
	mutex sync.RWMutex

	stop     chan struct{}
	stopOnce sync.Once
}

var _ domain.NutritionCache = (*MemoryCache)(nil)

// NewMemoryCache creates a new in-memory cache that evicts expired records every
// cleanupInterval. A non-positive interval defaults to 10 minutes.
func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	if cleanupInterval <= 0 {
		cleanupInterval = 10 * time.Minute
	}

	cache := &MemoryCache{
		data: make(map[string]cacheItem),
		stop: make(chan struct{}),
	}

	go cache.cleanupExpired(cleanupInterval)

	return cache
}

// Get retrieves a copy of a cached record
func (c *MemoryCache) Get(ctx context.Context, key string) (*domain.NutritionRecord, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists || time.Now().After(item.expiration) {
		return nil, domain.ErrCacheMiss
	}

	record := cloneRecord(item.record)
	return &record, nil
}

// Set stores a copy of record with TTL
func (c *MemoryCache) Set(ctx context.Context, key string, record *domain.NutritionRecord, ttl time.Duration) error {
	if record == nil {
		return domain.ErrInvalidRequest
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = cacheItem{
		record:     cloneRecord(*record),
		expiration: time.Now().Add(ttl),
	}
	return nil
}

// Close stops the cleanup goroutine
func (c *MemoryCache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// cleanupExpired removes expired entries from the cache periodically
func (c *MemoryCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if evicted, remaining := c.evictExpired(time.Now()); evicted > 0 {
				log.Printf("[Cache] Evicted %d expired records, %d remaining", evicted, remaining)
			}
		}
	}
}

// evictExpired drops records expired at now and reports how many were dropped
// and how many remain
func (c *MemoryCache) evictExpired(now time.Time) (evicted, remaining int) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for key, item := range c.data {
		if now.After(item.expiration) {
			delete(c.data, key)
			evicted++
		}
	}
	return evicted, len(c.data)
}

// cloneRecord copies the slices so callers cannot mutate cached state
func cloneRecord(r domain.NutritionRecord) domain.NutritionRecord {
	r.Nutrients = append([]domain.Nutrient(nil), r.Nutrients...)
	r.DietLabels = append([]string(nil), r.DietLabels...)
	r.HealthLabels = append([]string(nil), r.HealthLabels...)
	return r
}
