package reports

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"perftrack/internal/domain/performance"
)

// RecognitionRow is one employee's standing as shown on the dashboard
// and in the exported report.
type RecognitionRow struct {
	EmployeeID     string   `json:"employeeId"`
	Name           string   `json:"name"`
	AverageRating  *float64 `json:"averageRating"`
	CompletedGoals int      `json:"completedGoals"`
	Labels         []string `json:"labels"`
}

// PerformanceReport renders the dashboard as a PDF: the aggregate
// summary block followed by a per-employee recognition table.
func PerformanceReport(summary performance.Summary, rows []RecognitionRow, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Performance Report")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generatedAt.Format("2006-01-02 15:04 UTC")))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Goals: %d total, %d in progress, %d completed (%d%% complete)",
		summary.TotalGoals, summary.GoalsInProgress, summary.GoalsCompleted, summary.CompletionPercentage))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Reviews: %d total, average rating %s",
		summary.TotalReviews, formatRating(summary.AverageRating)))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Rating distribution: 1: %d   2: %d   3: %d   4: %d   5: %d",
		summary.RatingDistribution["1"], summary.RatingDistribution["2"],
		summary.RatingDistribution["3"], summary.RatingDistribution["4"],
		summary.RatingDistribution["5"]))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Recognition")
	pdf.Ln(9)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(60, 7, "Employee", "1", 0, "L", false, 0, "")
	pdf.CellFormat(28, 7, "Avg Rating", "1", 0, "C", false, 0, "")
	pdf.CellFormat(32, 7, "Completed Goals", "1", 0, "C", false, 0, "")
	pdf.CellFormat(70, 7, "Labels", "1", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		pdf.CellFormat(60, 7, row.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(28, 7, formatRating(row.AverageRating), "1", 0, "C", false, 0, "")
		pdf.CellFormat(32, 7, strconv.Itoa(row.CompletedGoals), "1", 0, "C", false, 0, "")
		pdf.CellFormat(70, 7, strings.Join(row.Labels, ", "), "1", 1, "L", false, 0, "")
	}
	if len(rows) == 0 {
		pdf.CellFormat(190, 7, "No employees", "1", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatRating(rating *float64) string {
	if rating == nil {
		return "-"
	}
	return strconv.FormatFloat(*rating, 'f', 2, 64)
}
