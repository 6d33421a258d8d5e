package employees

import "time"

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type Employee struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Title      string    `json:"title"`
	Department string    `json:"department"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

func ValidStatus(status string) bool {
	return status == StatusActive || status == StatusInactive
}
