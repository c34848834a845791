package rules

import (
	"fmt"
	"math"

	"accessible-env-backend/internal/error/apperr"
	"accessible-env-backend/internal/error/code"
)

// WeightedCriterion is one criterion of a set with its weight in that set
type WeightedCriterion struct {
	CriterionID uint
	Weight      int
	MaxRating   int
}

// Score is the aggregate result of an assessment
type Score struct {
	Total      float64 `json:"total_score"`
	Max        float64 `json:"max_possible_score"`
	Percentage float64 `json:"percentage_score"`
	Answered   int     `json:"answered"`
}

// ComputeScore sums weight × rating over answered criteria and
// weight × max rating over every criterion of the set. Ratings for criteria
// outside the set are ignored; ratings above the maximum are clamped.
func ComputeScore(criteria []WeightedCriterion, ratings map[uint]int) Score {
	var s Score
	for _, c := range criteria {
		s.Max += float64(c.Weight * c.MaxRating)
		rating, ok := ratings[c.CriterionID]
		if !ok {
			continue
		}
		if rating < 0 {
			rating = 0
		}
		if rating > c.MaxRating {
			rating = c.MaxRating
		}
		s.Total += float64(c.Weight * rating)
		s.Answered++
	}
	s.Percentage = Percentage(s.Total, s.Max)
	return s
}

// Percentage returns total/max*100, or 0 when max is 0
func Percentage(total, max float64) float64 {
	if max <= 0 || math.IsNaN(total) {
		return 0
	}
	return total / max * 100
}

// ValidateRating checks 0 <= rating <= maxRating
func ValidateRating(rating, maxRating int) error {
	if rating < 0 || rating > maxRating {
		return apperr.Validation(code.ErrInvalidRating,
			fmt.Sprintf("rating must be between 0 and %d", maxRating))
	}
	return nil
}
