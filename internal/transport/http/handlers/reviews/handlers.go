package reviewshandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

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
	r.Route("/reviews", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Route("/{reviewID}", func(r chi.Router) {
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
	decision := auth.Decide(user.Identity(), auth.ActionRead, auth.Target{Resource: auth.ResourceReviews, Collection: true})
	if !decision.Allowed() {
		filter = user.EmployeeID
		if filter == "" {
			api.Success(w, []performance.Review{}, middleware.GetRequestID(r.Context()))
			return
		}
	}

	reviews, err := h.Store.ListReviews(r.Context(), filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list reviews", middleware.GetRequestID(r.Context()))
		return
	}
	if reviews == nil {
		reviews = []performance.Review{}
	}
	api.Success(w, reviews, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	reviewID := chi.URLParam(r, "reviewID")

	review, err := h.Store.GetReview(r.Context(), reviewID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "review not found", middleware.GetRequestID(r.Context()))
		return
	}

	decision := auth.Decide(user.Identity(), auth.ActionRead, auth.Target{Resource: auth.ResourceReviews, EmployeeID: review.EmployeeID})
	if !decision.Allowed() {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, review, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		EmployeeID   string `json:"employeeId"`
		Month        string `json:"month"`
		Rating       int    `json:"rating"`
		Feedback     string `json:"feedback"`
		ReviewerName string `json:"reviewerName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	// Employees may only file a self-evaluation; the policy enforces the
	// ownership part.
	decision := auth.Decide(user.Identity(), auth.ActionCreate, auth.Target{Resource: auth.ResourceReviews, EmployeeID: payload.EmployeeID})
	if !decision.Allowed() {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
		return
	}
	selfEvaluation := user.EmployeeID != "" && user.EmployeeID == payload.EmployeeID

	validator := shared.NewValidator()
	validator.Required("employeeId", payload.EmployeeID, "employeeId is required")
	validator.Required("month", payload.Month, "month is required")
	if payload.Month != "" {
		validator.Month("month", payload.Month)
	}
	validator.IntRange("rating", payload.Rating, performance.RatingMin, performance.RatingMax, "must be between 1 and 5")
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	exists, err := h.Employees.EmployeeExists(r.Context(), payload.EmployeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "create_failed", "failed to create review", middleware.GetRequestID(r.Context()))
		return
	}
	if !exists {
		api.Fail(w, http.StatusBadRequest, "unknown_employee", "employee record not found", middleware.GetRequestID(r.Context()))
		return
	}

	if payload.ReviewerName == "" && selfEvaluation {
		emp, err := h.Employees.GetEmployee(r.Context(), user.EmployeeID)
		if err != nil {
			slog.Warn("reviewer name lookup failed", "employeeId", user.EmployeeID, "err", err)
		} else {
			payload.ReviewerName = emp.Name
		}
	}

	id, err := h.Store.CreateReview(r.Context(), performance.Review{
		EmployeeID:   payload.EmployeeID,
		Month:        payload.Month,
		Rating:       payload.Rating,
		Feedback:     payload.Feedback,
		ReviewerName: payload.ReviewerName,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "create_failed", "failed to create review", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "reviews.create", "review", id, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		slog.Warn("audit reviews.create failed", "err", err)
	}
	if !selfEvaluation {
		if err := h.Notifier.NotifyEmployee(r.Context(), payload.EmployeeID, notifications.TypeReviewReceived,
			"New performance review",
			"A review for "+payload.Month+" was filed for you."); err != nil {
			slog.Warn("review notification failed", "employeeId", payload.EmployeeID, "err", err)
		}
	}

	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	reviewID := chi.URLParam(r, "reviewID")

	review, err := h.Store.GetReview(r.Context(), reviewID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "review not found", middleware.GetRequestID(r.Context()))
		return
	}

	decision := auth.Decide(user.Identity(), auth.ActionWrite, auth.Target{Resource: auth.ResourceReviews, EmployeeID: review.EmployeeID})
	if !decision.Allowed() {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		Month        string  `json:"month"`
		Rating       *int    `json:"rating"`
		Feedback     *string `json:"feedback"`
		ReviewerName *string `json:"reviewerName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	before := *review
	if payload.Month != "" {
		review.Month = payload.Month
	}
	if payload.Rating != nil {
		review.Rating = *payload.Rating
	}
	if payload.Feedback != nil {
		review.Feedback = *payload.Feedback
	}
	if payload.ReviewerName != nil {
		review.ReviewerName = *payload.ReviewerName
	}

	validator := shared.NewValidator()
	validator.Month("month", review.Month)
	validator.IntRange("rating", review.Rating, performance.RatingMin, performance.RatingMax, "must be between 1 and 5")
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	if err := h.Store.UpdateReview(r.Context(), reviewID, *review); err != nil {
		if errors.Is(err, performance.ErrReviewNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "review not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to update review", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "reviews.update", "review", reviewID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), before, review); err != nil {
		slog.Warn("audit reviews.update failed", "err", err)
	}

	api.Success(w, review, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	reviewID := chi.URLParam(r, "reviewID")

	review, err := h.Store.GetReview(r.Context(), reviewID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "review not found", middleware.GetRequestID(r.Context()))
		return
	}
	decision := auth.Decide(user.Identity(), auth.ActionDelete, auth.Target{Resource: auth.ResourceReviews, EmployeeID: review.EmployeeID})
	if !decision.Allowed() {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Store.DeleteReview(r.Context(), reviewID); err != nil {
		if errors.Is(err, performance.ErrReviewNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "review not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "delete_failed", "failed to delete review", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "reviews.delete", "review", reviewID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), review, nil); err != nil {
		slog.Warn("audit reviews.delete failed", "err", err)
	}

	api.Success(w, map[string]bool{"deleted": true}, middleware.GetRequestID(r.Context()))
}
