package performance

const (
	LabelTopPerformer    = "Top Performer"
	LabelEmployeeOfMonth = "Employee of the Month"
)

// Standing is one employee's aggregate inputs to recognition. AverageRating
// is nil when the employee has no reviews.
type Standing struct {
	AverageRating  *float64 `json:"averageRating"`
	CompletedGoals int      `json:"completedGoals"`
}

// BuildStandings groups goals and reviews by employee. Every ID in
// employeeIDs appears in the result even with no records, so downstream
// recognition covers the whole scope.
func BuildStandings(employeeIDs []string, goals []Goal, reviews []Review) map[string]Standing {
	completed := map[string]int{}
	ratingSum := map[string]int{}
	ratingCount := map[string]int{}

	seen := make(map[string]bool, len(employeeIDs))
	for _, id := range employeeIDs {
		seen[id] = true
	}
	for _, goal := range goals {
		seen[goal.EmployeeID] = true
		if goal.Status == GoalStatusCompleted {
			completed[goal.EmployeeID]++
		}
	}
	for _, review := range reviews {
		seen[review.EmployeeID] = true
		ratingSum[review.EmployeeID] += review.Rating
		ratingCount[review.EmployeeID]++
	}

	standings := make(map[string]Standing, len(seen))
	for id := range seen {
		standing := Standing{CompletedGoals: completed[id]}
		if count := ratingCount[id]; count > 0 {
			avg := float64(ratingSum[id]) / float64(count)
			standing.AverageRating = &avg
		}
		standings[id] = standing
	}
	return standings
}

// Recognize assigns display labels from per-employee standings. Top Performer
// goes to everyone sharing the highest average rating at or above threshold;
// Employee of the Month to everyone sharing the highest completed-goal count
// when that count is positive. Ties are never broken down to a single winner.
// Every input employee appears in the result, labelless ones with an empty
// slice. Pure function: same input, same output.
func Recognize(standings map[string]Standing, threshold float64) map[string][]string {
	labels := make(map[string][]string, len(standings))
	for id := range standings {
		labels[id] = []string{}
	}

	bestRating, haveBest := 0.0, false
	for _, standing := range standings {
		if standing.AverageRating == nil || *standing.AverageRating < threshold {
			continue
		}
		if !haveBest || *standing.AverageRating > bestRating {
			bestRating = *standing.AverageRating
			haveBest = true
		}
	}
	if haveBest {
		for id, standing := range standings {
			if standing.AverageRating != nil && *standing.AverageRating == bestRating {
				labels[id] = append(labels[id], LabelTopPerformer)
			}
		}
	}

	bestCompleted := 0
	for _, standing := range standings {
		if standing.CompletedGoals > bestCompleted {
			bestCompleted = standing.CompletedGoals
		}
	}
	if bestCompleted > 0 {
		for id, standing := range standings {
			if standing.CompletedGoals == bestCompleted {
				labels[id] = append(labels[id], LabelEmployeeOfMonth)
			}
		}
	}

	return labels
}
