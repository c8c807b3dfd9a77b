package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmcnab/toolreviews/internal/domain/model"
)

func TestComputeRatingStats_Histogram(t *testing.T) {
	stats := model.ComputeRatingStats(42, []int{5, 5, 4, 3, 1})

	assert.Equal(t, int64(42), stats.ToolID)
	assert.Equal(t, 5, stats.TotalReviews)
	assert.Equal(t, 2, stats.FiveStarCount)
	assert.Equal(t, 1, stats.FourStarCount)
	assert.Equal(t, 1, stats.ThreeStarCount)
	assert.Equal(t, 0, stats.TwoStarCount)
	assert.Equal(t, 1, stats.OneStarCount)
	// (5+5+4+3+1)/5 = 3.6
	assert.Equal(t, 3.6, stats.AverageRating)
}

func TestComputeRatingStats_Rounding(t *testing.T) {
	t.Run("half rounds up", func(t *testing.T) {
		// (5+4+4+4)/4 = 4.25 -> 4.3
		stats := model.ComputeRatingStats(1, []int{5, 4, 4, 4})
		assert.Equal(t, 4.3, stats.AverageRating)
	})

	t.Run("one decimal place", func(t *testing.T) {
		// (5+3)/2 = 4.0
		stats := model.ComputeRatingStats(1, []int{5, 3})
		assert.Equal(t, 4.0, stats.AverageRating)
	})

	t.Run("repeating decimal", func(t *testing.T) {
		// (5+4+4)/3 = 4.333... -> 4.3
		stats := model.ComputeRatingStats(1, []int{5, 4, 4})
		assert.Equal(t, 4.3, stats.AverageRating)
	})
}

func TestComputeRatingStats_Empty(t *testing.T) {
	stats := model.ComputeRatingStats(7, nil)

	assert.Equal(t, model.RatingStats{ToolID: 7}, stats)
	assert.Equal(t, 0.0, stats.AverageRating)
}

func TestComputeRatingStats_IgnoresOutOfRange(t *testing.T) {
	stats := model.ComputeRatingStats(1, []int{5, 0, -2, 9, 3})

	assert.Equal(t, 2, stats.TotalReviews)
	assert.Equal(t, 4.0, stats.AverageRating)
}

func TestComputeRatingStats_Pure(t *testing.T) {
	ratings := []int{4, 2, 5, 5, 3, 1}

	first := model.ComputeRatingStats(9, ratings)
	second := model.ComputeRatingStats(9, ratings)

	assert.Equal(t, first, second)
}
