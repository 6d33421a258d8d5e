package reports

import (
	"bytes"
	"testing"
	"time"

	"perftrack/internal/domain/performance"
)

func TestPerformanceReport(t *testing.T) {
	avg := 4.25
	summary := performance.Summary{
		TotalGoals:           4,
		GoalsInProgress:      1,
		GoalsCompleted:       2,
		CompletionPercentage: 50,
		TotalReviews:         4,
		AverageRating:        &avg,
		RatingDistribution:   map[string]int{"1": 0, "2": 0, "3": 1, "4": 1, "5": 2},
	}
	rows := []RecognitionRow{
		{EmployeeID: "e1", Name: "Alice Johnson", AverageRating: &avg, CompletedGoals: 2,
			Labels: []string{"Top Performer", "Employee of the Month"}},
		{EmployeeID: "e2", Name: "Bob Smith", AverageRating: nil, CompletedGoals: 0, Labels: []string{}},
	}

	data, err := PerformanceReport(summary, rows, time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("output is not a PDF, starts with %q", data[:min(8, len(data))])
	}
	if len(data) < 500 {
		t.Fatalf("suspiciously small PDF: %d bytes", len(data))
	}
}

func TestPerformanceReportNoEmployees(t *testing.T) {
	summary := performance.Summary{RatingDistribution: map[string]int{"1": 0, "2": 0, "3": 0, "4": 0, "5": 0}}

	data, err := PerformanceReport(summary, nil, time.Now())
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatal("output is not a PDF")
	}
}
