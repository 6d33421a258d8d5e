package performance

import "strconv"

// Summary aggregates goals and reviews for one scope (everyone, or a single
// employee). AverageRating stays nil when there are no reviews so callers can
// tell "no data" from a real zero.
type Summary struct {
	TotalGoals           int            `json:"totalGoals"`
	GoalsInProgress      int            `json:"goalsInProgress"`
	GoalsCompleted       int            `json:"goalsCompleted"`
	CompletionPercentage int            `json:"completionPercentage"`
	TotalReviews         int            `json:"totalReviews"`
	AverageRating        *float64       `json:"averageRating"`
	RatingDistribution   map[string]int `json:"ratingDistribution"`
}

// BuildSummary is a single pass over each input; order does not matter and
// recomputing over the same rows always yields the same summary.
func BuildSummary(goals []Goal, reviews []Review) Summary {
	summary := Summary{
		TotalGoals:         len(goals),
		TotalReviews:       len(reviews),
		RatingDistribution: emptyDistribution(),
	}

	for _, goal := range goals {
		switch goal.Status {
		case GoalStatusInProgress:
			summary.GoalsInProgress++
		case GoalStatusCompleted:
			summary.GoalsCompleted++
		}
	}
	if summary.TotalGoals > 0 {
		// round half up
		summary.CompletionPercentage = int(float64(summary.GoalsCompleted)/float64(summary.TotalGoals)*100 + 0.5)
	}

	ratingSum := 0
	for _, review := range reviews {
		key := strconv.Itoa(review.Rating)
		if _, ok := summary.RatingDistribution[key]; ok {
			summary.RatingDistribution[key]++
		}
		ratingSum += review.Rating
	}
	if summary.TotalReviews > 0 {
		avg := float64(ratingSum) / float64(summary.TotalReviews)
		summary.AverageRating = &avg
	}

	return summary
}

// emptyDistribution keeps every rating bucket present even at zero, so
// responses always carry keys "1" through "5".
func emptyDistribution() map[string]int {
	dist := make(map[string]int, RatingMax)
	for rating := RatingMin; rating <= RatingMax; rating++ {
		dist[strconv.Itoa(rating)] = 0
	}
	return dist
}
