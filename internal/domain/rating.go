package domain

import "math"

// AverageRating computes the arithmetic mean of the given ratings, rounded to
// two decimal places. An empty input yields 0: "no ratings yet" is a normal
// steady state, not an error.
//
// Rounding is half-away-from-zero, the same rule PostgreSQL applies to
// ROUND(numeric, 2), so repository-side aggregation produces identical values.
func AverageRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}

	sum := 0
	for _, r := range ratings {
		sum += r
	}

	mean := float64(sum) / float64(len(ratings))
	return math.Round(mean*100) / 100
}
