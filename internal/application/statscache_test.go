package application_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmcnab/toolreviews/internal/application"
	"github.com/dmcnab/toolreviews/internal/domain/model"
)

func TestStatsCache_ExpiresByClock(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	cache := application.NewStatsCacheWithClock(30*time.Second, func() time.Time { return now })

	stats := model.RatingStats{ToolID: 42, TotalReviews: 3, AverageRating: 4.0}
	cache.Set(42, stats)

	got, ok := cache.Get(42)
	assert.True(t, ok)
	assert.Equal(t, stats, got)

	// Still fresh right at the deadline.
	now = now.Add(30 * time.Second)
	_, ok = cache.Get(42)
	assert.True(t, ok)

	now = now.Add(time.Nanosecond)
	_, ok = cache.Get(42)
	assert.False(t, ok)
}

func TestStatsCache_Invalidate(t *testing.T) {
	cache := application.NewStatsCache(time.Minute)

	cache.Set(42, model.RatingStats{ToolID: 42, TotalReviews: 1})
	cache.Set(43, model.RatingStats{ToolID: 43, TotalReviews: 2})

	cache.Invalidate(42)

	_, ok := cache.Get(42)
	assert.False(t, ok)

	// Other tools are untouched.
	got, ok := cache.Get(43)
	assert.True(t, ok)
	assert.Equal(t, 2, got.TotalReviews)
}

func TestStatsCache_ZeroTTLDisables(t *testing.T) {
	cache := application.NewStatsCache(0)

	cache.Set(42, model.RatingStats{ToolID: 42, TotalReviews: 1})

	_, ok := cache.Get(42)
	assert.False(t, ok)
}

func TestStatsCache_MissOnUnknownTool(t *testing.T) {
	cache := application.NewStatsCache(time.Minute)

	_, ok := cache.Get(7)
	assert.False(t, ok)
}
