package performance

import "time"

type Goal struct {
	ID          string    `json:"id"`
	EmployeeID  string    `json:"employeeId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Status      string    `json:"status"`
	Progress    int       `json:"progress"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Review struct {
	ID           string    `json:"id"`
	EmployeeID   string    `json:"employeeId"`
	Month        string    `json:"month"`
	Rating       int       `json:"rating"`
	Feedback     string    `json:"feedback"`
	ReviewerName string    `json:"reviewerName"`
	CreatedAt    time.Time `json:"createdAt"`
}
