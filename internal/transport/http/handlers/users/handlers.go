package usershandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"perftrack/internal/domain/audit"
	"perftrack/internal/domain/auth"
	"perftrack/internal/domain/employees"
	"perftrack/internal/domain/notifications"
	"perftrack/internal/transport/http/api"
	"perftrack/internal/transport/http/middleware"
	"perftrack/internal/transport/http/shared"
)

type Handler struct {
	Store     *auth.Store
	Employees *employees.Store
	Notifier  *notifications.Service
	Audit     *audit.Service
}

func NewHandler(store *auth.Store, employeeStore *employees.Store, notifier *notifications.Service, auditor *audit.Service) *Handler {
	return &Handler{Store: store, Employees: employeeStore, Notifier: notifier, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	decision := auth.Decide(user.Identity(), auth.ActionRead, auth.Target{Resource: auth.ResourceUsers, Collection: true})
	if !decision.Allowed() {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
		return
	}

	users, err := h.Store.ListUsers(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list users", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, users, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	decision := auth.Decide(user.Identity(), auth.ActionCreateUser, auth.Target{Resource: auth.ResourceUsers})
	if !decision.Allowed() {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
		return
	}

	var payload struct {
		Name       string `json:"name"`
		Email      string `json:"email"`
		Password   string `json:"password"`
		Role       string `json:"role"`
		EmployeeID string `json:"employeeId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	validator := shared.NewValidator()
	validator.Required("name", payload.Name, "name is required")
	validator.Required("email", payload.Email, "email is required")
	if len(payload.Password) < 8 {
		validator.Add("password", "must be at least 8 characters")
	}
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	role, err := auth.ParseRole(payload.Role)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_role", "role must be admin, manager or employee", middleware.GetRequestID(r.Context()))
		return
	}
	if role == auth.RoleEmployee && payload.EmployeeID == "" {
		api.Fail(w, http.StatusBadRequest, "employee_link_required", "employee accounts must reference an employee record", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.EmployeeID != "" {
		exists, err := h.Employees.EmployeeExists(r.Context(), payload.EmployeeID)
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "create_failed", "failed to create user", middleware.GetRequestID(r.Context()))
			return
		}
		if !exists {
			api.Fail(w, http.StatusBadRequest, "unknown_employee", "employee record not found", middleware.GetRequestID(r.Context()))
			return
		}
	}

	hash, err := auth.HashPassword(payload.Password)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "create_failed", "failed to create user", middleware.GetRequestID(r.Context()))
		return
	}

	id, err := h.Store.CreateUser(r.Context(), payload.Name, payload.Email, hash, role, payload.EmployeeID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			api.Fail(w, http.StatusConflict, "user_exists", "email already registered", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "create_failed", "failed to create user", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "users.create", "user", id, middleware.GetRequestID(r.Context()), shared.ClientIP(r),
		nil, map[string]any{"email": payload.Email, "role": string(role), "employeeId": payload.EmployeeID}); err != nil {
		slog.Warn("audit users.create failed", "err", err)
	}
	if err := h.Notifier.Notify(r.Context(), id, notifications.TypeAccountCreated,
		"Welcome to perftrack",
		"An account was created for "+payload.Email+". Sign in to review your goals."); err != nil {
		slog.Warn("account notification failed", "userId", id, "err", err)
	}

	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}
