package notifications

const (
	TypeGoalCreated    = "goal_created"
	TypeGoalUpdated    = "goal_updated"
	TypeGoalCompleted  = "goal_completed"
	TypeReviewReceived = "review_received"
	TypeAccountCreated = "account_created"
	TypePasswordReset  = "password_reset"
)
