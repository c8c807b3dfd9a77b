package application

import (
	"sync"
	"time"

	"github.com/dmcnab/toolreviews/internal/domain/model"
)

// StatsCache is a TTL cache for per-tool rating stats. It is an explicit
// dependency injected into CommentService, guarded by a mutex; entries are
// invalidated synchronously whenever review membership in the active set
// changes, so callers always read their own writes.
type StatsCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[int64]statsEntry
}

type statsEntry struct {
	stats     model.RatingStats
	expiresAt time.Time
}

// NewStatsCache creates a cache with the given TTL. A TTL of zero or less
// disables caching: Get always misses and Set is a no-op.
func NewStatsCache(ttl time.Duration) *StatsCache {
	return NewStatsCacheWithClock(ttl, time.Now)
}

// NewStatsCacheWithClock creates a cache with an injected clock for tests.
func NewStatsCacheWithClock(ttl time.Duration, now func() time.Time) *StatsCache {
	return &StatsCache{
		ttl:     ttl,
		now:     now,
		entries: make(map[int64]statsEntry),
	}
}

// Get returns the cached stats for the tool if present and not expired.
func (c *StatsCache) Get(toolID int64) (model.RatingStats, bool) {
	if c.ttl <= 0 {
		return model.RatingStats{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[toolID]
	if !ok {
		return model.RatingStats{}, false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, toolID)
		return model.RatingStats{}, false
	}

	return entry.stats, true
}

// Set stores the stats for the tool until the TTL elapses.
func (c *StatsCache) Set(toolID int64, stats model.RatingStats) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[toolID] = statsEntry{
		stats:     stats,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Invalidate drops the cached stats for the tool.
func (c *StatsCache) Invalidate(toolID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, toolID)
}
