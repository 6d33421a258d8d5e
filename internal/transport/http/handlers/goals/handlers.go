package goalshandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"perftrack/internal/domain/audit"
	"perftrack/internal/domain/auth"
	"perftrack/internal/domain/employees"
	"perftrack/internal/domain/notifications"
	"perftrack/internal/domain/performance"
	"perftrack/internal/transport/http/api"
	"perftrack/internal/transport/http/middleware"
	"perftrack/internal/transport/http/shared"
)

type Handler struct {
	Store     *performance.Store
	Employees *employees.Store
	Notifier  *notifications.Service
	Audit     *audit.Service
}

func NewHandler(store *performance.Store, employeeStore *employees.Store, notifier *notifications.Service, auditor *audit.Service) *Handler {
	return &Handler{Store: store, Employees: employeeStore, Notifier: notifier, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/goals", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Route("/{goalID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Put("/", h.handleUpdate)
			r.Delete("/", h.handleDelete)
		})
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	filter := strings.TrimSpace(r.URL.Query().Get("employeeId"))
	decision := auth.Decide(user.Identity(), auth.ActionRead, auth.Target{Resource: auth.ResourceGoals, Collection: true})
	if !decision.Allowed() {
		// Employees see their own goals regardless of the filter asked for.
		filter = user.EmployeeID
		if filter == "" {
			api.Success(w, []performance.Goal{}, middleware.GetRequestID(r.Context()))
			return
		}
	}

	goals, err := h.Store.ListGoals(r.Context(), filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list goals", middleware.GetRequestID(r.Context()))
		return
	}
	if goals == nil {
		goals = []performance.Goal{}
	}
	api.Success(w, goals, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	goalID := chi.URLParam(r, "goalID")

	goal, err := h.Store.GetGoal(r.Context(), goalID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "goal not found", middleware.GetRequestID(r.Context()))
		return
	}

	decision := auth.Decide(user.Identity(), auth.ActionRead, auth.Target{Resource: auth.ResourceGoals, EmployeeID: goal.EmployeeID})
	if !decision.Allowed() {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, goal, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	decision := auth.Decide(user.Identity(), auth.ActionCreate, auth.Target{Resource: auth.ResourceGoals})
	if !decision.Allowed() {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		EmployeeID  string `json:"employeeId"`
		Title       string `json:"title"`
		Description string `json:"description"`
		StartDate   string `json:"startDate"`
		EndDate     string `json:"endDate"`
		Status      string `json:"status"`
		Progress    *int   `json:"progress"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.Status == "" {
		payload.Status = performance.GoalStatusInProgress
	}
	progress := 0
	if payload.Progress != nil {
		progress = *payload.Progress
	}

	validator := shared.NewValidator()
	validator.Required("employeeId", payload.EmployeeID, "employeeId is required")
	validator.Required("title", payload.Title, "title is required")
	validator.Enum("status", payload.Status, []string{
		performance.GoalStatusPlanned, performance.GoalStatusInProgress, performance.GoalStatusCompleted,
	}, "must be planned, in-progress or completed")
	validator.IntRange("progress", progress, performance.ProgressMin, performance.ProgressMax, "must be between 0 and 100")
	var startDate, endDate time.Time
	if payload.StartDate != "" {
		startDate, _ = validator.Date("startDate", payload.StartDate)
	}
	if payload.EndDate != "" {
		endDate, _ = validator.Date("endDate", payload.EndDate)
	}
	validator.DateOrder("startDate", startDate, "endDate", endDate)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	exists, err := h.Employees.EmployeeExists(r.Context(), payload.EmployeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "create_failed", "failed to create goal", middleware.GetRequestID(r.Context()))
		return
	}
	if !exists {
		api.Fail(w, http.StatusBadRequest, "unknown_employee", "employee record not found", middleware.GetRequestID(r.Context()))
		return
	}

	id, err := h.Store.CreateGoal(r.Context(), performance.Goal{
		EmployeeID:  payload.EmployeeID,
		Title:       payload.Title,
		Description: payload.Description,
		StartDate:   startDate,
		EndDate:     endDate,
		Status:      payload.Status,
		Progress:    progress,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "create_failed", "failed to create goal", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "goals.create", "goal", id, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		slog.Warn("audit goals.create failed", "err", err)
	}
	if err := h.Notifier.NotifyEmployee(r.Context(), payload.EmployeeID, notifications.TypeGoalCreated,
		"New goal assigned",
		"A new goal was assigned to you: "+payload.Title); err != nil {
		slog.Warn("goal notification failed", "employeeId", payload.EmployeeID, "err", err)
	}

	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	goalID := chi.URLParam(r, "goalID")

	goal, err := h.Store.GetGoal(r.Context(), goalID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "goal not found", middleware.GetRequestID(r.Context()))
		return
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	fields := make([]string, 0, len(raw))
	for name := range raw {
		fields = append(fields, name)
	}

	decision := auth.Decide(user.Identity(), auth.ActionWrite, auth.Target{
		Resource:   auth.ResourceGoals,
		EmployeeID: goal.EmployeeID,
		Fields:     fields,
	})
	if !decision.Allowed() {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
		return
	}

	before := *goal
	validator := shared.NewValidator()
	if err := applyGoalFields(goal, raw, validator); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if goal.EmployeeID != before.EmployeeID {
		exists, err := h.Employees.EmployeeExists(r.Context(), goal.EmployeeID)
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to update goal", middleware.GetRequestID(r.Context()))
			return
		}
		if !exists {
			api.Fail(w, http.StatusBadRequest, "unknown_employee", "employee record not found", middleware.GetRequestID(r.Context()))
			return
		}
	}
	validator.Enum("status", goal.Status, []string{
		performance.GoalStatusPlanned, performance.GoalStatusInProgress, performance.GoalStatusCompleted,
	}, "must be planned, in-progress or completed")
	validator.IntRange("progress", goal.Progress, performance.ProgressMin, performance.ProgressMax, "must be between 0 and 100")
	validator.DateOrder("startDate", goal.StartDate, "endDate", goal.EndDate)
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	if err := h.Store.UpdateGoal(r.Context(), goalID, *goal); err != nil {
		if errors.Is(err, performance.ErrGoalNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "goal not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to update goal", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "goals.update", "goal", goalID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), before, goal); err != nil {
		slog.Warn("audit goals.update failed", "err", err)
	}
	if user.EmployeeID != goal.EmployeeID {
		ntype := notifications.TypeGoalUpdated
		title := "Goal updated"
		if goal.Status == performance.GoalStatusCompleted && before.Status != performance.GoalStatusCompleted {
			ntype = notifications.TypeGoalCompleted
			title = "Goal completed"
		}
		if err := h.Notifier.NotifyEmployee(r.Context(), goal.EmployeeID, ntype, title,
			"Your goal was updated: "+goal.Title); err != nil {
			slog.Warn("goal notification failed", "employeeId", goal.EmployeeID, "err", err)
		}
	}

	api.Success(w, goal, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	goalID := chi.URLParam(r, "goalID")

	goal, err := h.Store.GetGoal(r.Context(), goalID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "goal not found", middleware.GetRequestID(r.Context()))
		return
	}
	decision := auth.Decide(user.Identity(), auth.ActionDelete, auth.Target{Resource: auth.ResourceGoals, EmployeeID: goal.EmployeeID})
	if !decision.Allowed() {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Store.DeleteGoal(r.Context(), goalID); err != nil {
		if errors.Is(err, performance.ErrGoalNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "goal not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "delete_failed", "failed to delete goal", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "goals.delete", "goal", goalID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), goal, nil); err != nil {
		slog.Warn("audit goals.delete failed", "err", err)
	}

	api.Success(w, map[string]bool{"deleted": true}, middleware.GetRequestID(r.Context()))
}

// applyGoalFields merges the present payload fields onto the stored goal,
// so partial updates keep untouched columns.
func applyGoalFields(goal *performance.Goal, raw map[string]json.RawMessage, validator *shared.Validator) error {
	if data, ok := raw["employeeId"]; ok {
		if err := json.Unmarshal(data, &goal.EmployeeID); err != nil {
			return err
		}
		validator.Required("employeeId", goal.EmployeeID, "employeeId is required")
	}
	if data, ok := raw["title"]; ok {
		if err := json.Unmarshal(data, &goal.Title); err != nil {
			return err
		}
		validator.Required("title", goal.Title, "title is required")
	}
	if data, ok := raw["description"]; ok {
		if err := json.Unmarshal(data, &goal.Description); err != nil {
			return err
		}
	}
	if data, ok := raw["status"]; ok {
		if err := json.Unmarshal(data, &goal.Status); err != nil {
			return err
		}
	}
	if data, ok := raw["progress"]; ok {
		if err := json.Unmarshal(data, &goal.Progress); err != nil {
			return err
		}
	}
	if data, ok := raw["startDate"]; ok {
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		if parsed, ok := validator.Date("startDate", value); ok {
			goal.StartDate = parsed
		}
	}
	if data, ok := raw["endDate"]; ok {
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		if parsed, ok := validator.Date("endDate", value); ok {
			goal.EndDate = parsed
		}
	}
	return nil
}
