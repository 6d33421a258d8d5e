package performance

const (
	GoalStatusPlanned    = "planned"
	GoalStatusInProgress = "in-progress"
	GoalStatusCompleted  = "completed"
)

const (
	RatingMin = 1
	RatingMax = 5
)

const (
	ProgressMin = 0
	ProgressMax = 100
)

func ValidGoalStatus(status string) bool {
	switch status {
	case GoalStatusPlanned, GoalStatusInProgress, GoalStatusCompleted:
		return true
	}
	return false
}

func ValidRating(rating int) bool {
	return rating >= RatingMin && rating <= RatingMax
}

func ValidProgress(progress int) bool {
	return progress >= ProgressMin && progress <= ProgressMax
}
