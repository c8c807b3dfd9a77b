package model

import "math"

// RatingStats is the derived rating summary for one tool, computed from its
// active top-level comments. It is never stored independently; callers may
// cache it with explicit invalidation.
type RatingStats struct {
	ToolID         int64
	TotalReviews   int
	AverageRating  float64 // one decimal place, half-up
	FiveStarCount  int
	FourStarCount  int
	ThreeStarCount int
	TwoStarCount   int
	OneStarCount   int
}

// ComputeRatingStats derives the rating summary from the ratings of a tool's
// active top-level comments. Ratings outside 1-5 are ignored (they cannot be
// written through the service, but the aggregate must never be corrupted by
// a bad row). An empty input yields all-zero stats.
//
// The function is pure: identical inputs always produce identical stats.
func ComputeRatingStats(toolID int64, ratings []int) RatingStats {
	stats := RatingStats{ToolID: toolID}

	sum := 0
	for _, r := range ratings {
		switch r {
		case 5:
			stats.FiveStarCount++
		case 4:
			stats.FourStarCount++
		case 3:
			stats.ThreeStarCount++
		case 2:
			stats.TwoStarCount++
		case 1:
			stats.OneStarCount++
		default:
			continue
		}
		stats.TotalReviews++
		sum += r
	}

	if stats.TotalReviews > 0 {
		avg := float64(sum) / float64(stats.TotalReviews)
		stats.AverageRating = math.Round(avg*10) / 10
	}

	return stats
}
