package dashboardhandler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"perftrack/internal/domain/auth"
	"perftrack/internal/domain/employees"
	"perftrack/internal/domain/performance"
	"perftrack/internal/domain/reports"
	"perftrack/internal/transport/http/api"
	"perftrack/internal/transport/http/middleware"
)

type Handler struct {
	Performance *performance.Store
	Employees   *employees.Store
	// TopPerformerThreshold is the minimum average rating for the Top
	// Performer label, on the 1-5 review scale.
	TopPerformerThreshold float64
}

func NewHandler(perfStore *performance.Store, employeeStore *employees.Store, threshold float64) *Handler {
	return &Handler{Performance: perfStore, Employees: employeeStore, TopPerformerThreshold: threshold}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/dashboard", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/summary", h.handleSummary)
		r.Get("/recognition", h.handleRecognition)
		r.With(middleware.RequireRole(auth.RoleAdmin, auth.RoleManager)).Get("/report", h.handleReport)
	})
}

// handleSummary aggregates goals and reviews into one dashboard block.
// Admins and managers may scope it with ?employeeId=; employees always get
// their own numbers.
func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	scope := strings.TrimSpace(r.URL.Query().Get("employeeId"))
	decision := auth.Decide(user.Identity(), auth.ActionRead, auth.Target{Resource: auth.ResourceGoals, Collection: true})
	if !decision.Allowed() {
		scope = user.EmployeeID
		if scope == "" {
			api.Success(w, performance.BuildSummary(nil, nil), middleware.GetRequestID(r.Context()))
			return
		}
	}

	goals, err := h.Performance.ListGoals(r.Context(), scope)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "summary_failed", "failed to build summary", middleware.GetRequestID(r.Context()))
		return
	}
	reviews, err := h.Performance.ListReviews(r.Context(), scope)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "summary_failed", "failed to build summary", middleware.GetRequestID(r.Context()))
		return
	}

	api.Success(w, performance.BuildSummary(goals, reviews), middleware.GetRequestID(r.Context()))
}

// handleRecognition ranks the whole roster and returns one row per employee
// with any earned labels. Employees only see their own row, though the labels
// on it still come from the full ranking.
func (h *Handler) handleRecognition(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	rows, err := h.recognitionRows(r)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "recognition_failed", "failed to build recognition", middleware.GetRequestID(r.Context()))
		return
	}

	decision := auth.Decide(user.Identity(), auth.ActionRead, auth.Target{Resource: auth.ResourceEmployees, Collection: true})
	if !decision.Allowed() {
		own := []reports.RecognitionRow{}
		for _, row := range rows {
			if row.EmployeeID == user.EmployeeID && user.EmployeeID != "" {
				own = append(own, row)
			}
		}
		rows = own
	}

	api.Success(w, rows, middleware.GetRequestID(r.Context()))
}

// handleReport renders the dashboard as a downloadable PDF. The route is
// restricted to admins and managers.
func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	goals, err := h.Performance.ListGoals(r.Context(), "")
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build report", middleware.GetRequestID(r.Context()))
		return
	}
	reviews, err := h.Performance.ListReviews(r.Context(), "")
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build report", middleware.GetRequestID(r.Context()))
		return
	}
	rows, err := h.recognitionRows(r)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build report", middleware.GetRequestID(r.Context()))
		return
	}

	generatedAt := time.Now().UTC()
	document, err := reports.PerformanceReport(performance.BuildSummary(goals, reviews), rows, generatedAt)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to render report", middleware.GetRequestID(r.Context()))
		return
	}

	filename := fmt.Sprintf("performance-report-%s.pdf", generatedAt.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(document)
}

func (h *Handler) recognitionRows(r *http.Request) ([]reports.RecognitionRow, error) {
	roster, err := h.Employees.ListAllEmployees(r.Context())
	if err != nil {
		return nil, err
	}
	goals, err := h.Performance.ListGoals(r.Context(), "")
	if err != nil {
		return nil, err
	}
	reviews, err := h.Performance.ListReviews(r.Context(), "")
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(roster))
	for _, emp := range roster {
		ids = append(ids, emp.ID)
	}
	standings := performance.BuildStandings(ids, goals, reviews)
	labels := performance.Recognize(standings, h.TopPerformerThreshold)

	rows := make([]reports.RecognitionRow, 0, len(roster))
	for _, emp := range roster {
		standing := standings[emp.ID]
		rows = append(rows, reports.RecognitionRow{
			EmployeeID:     emp.ID,
			Name:           emp.Name,
			AverageRating:  standing.AverageRating,
			CompletedGoals: standing.CompletedGoals,
			Labels:         labels[emp.ID],
		})
	}
	return rows, nil
}
