package employeeshandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"perftrack/internal/domain/audit"
	"perftrack/internal/domain/auth"
	"perftrack/internal/domain/employees"
	"perftrack/internal/transport/http/api"
	"perftrack/internal/transport/http/middleware"
	"perftrack/internal/transport/http/shared"
)

type Handler struct {
	Store *employees.Store
	Audit *audit.Service
}

func NewHandler(store *employees.Store, auditor *audit.Service) *Handler {
	return &Handler{Store: store, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Route("/{employeeID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Put("/", h.handleUpdate)
			r.Delete("/", h.handleDelete)
		})
	})
}

type employeePayload struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Title      string `json:"title"`
	Department string `json:"department"`
	Status     string `json:"status"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	decision := auth.Decide(user.Identity(), auth.ActionRead, auth.Target{Resource: auth.ResourceEmployees, Collection: true})
	if !decision.Allowed() {
		// Employees cannot read the collection; they get their own record
		// as a one-element list instead of a 403.
		if user.EmployeeID == "" {
			api.Success(w, []employees.Employee{}, middleware.GetRequestID(r.Context()))
			return
		}
		emp, err := h.Store.GetEmployee(r.Context(), user.EmployeeID)
		if err != nil {
			api.Success(w, []employees.Employee{}, middleware.GetRequestID(r.Context()))
			return
		}
		api.Success(w, []employees.Employee{*emp}, middleware.GetRequestID(r.Context()))
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	list, err := h.Store.ListEmployees(r.Context(), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list employees", middleware.GetRequestID(r.Context()))
		return
	}
	if list == nil {
		list = []employees.Employee{}
	}
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	employeeID := chi.URLParam(r, "employeeID")

	decision := auth.Decide(user.Identity(), auth.ActionRead, auth.Target{Resource: auth.ResourceEmployees, EmployeeID: employeeID})
	if !decision.Allowed() {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
		return
	}

	emp, err := h.Store.GetEmployee(r.Context(), employeeID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	decision := auth.Decide(user.Identity(), auth.ActionCreate, auth.Target{Resource: auth.ResourceEmployees})
	if !decision.Allowed() {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
		return
	}

	var payload employeePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.Status == "" {
		payload.Status = employees.StatusActive
	}

	validator := shared.NewValidator()
	validator.Required("name", payload.Name, "name is required")
	validator.Required("email", payload.Email, "email is required")
	validator.Enum("status", payload.Status, []string{employees.StatusActive, employees.StatusInactive}, "must be active or inactive")
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	id, err := h.Store.CreateEmployee(r.Context(), employees.Employee{
		Name:       payload.Name,
		Email:      payload.Email,
		Title:      payload.Title,
		Department: payload.Department,
		Status:     payload.Status,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			api.Fail(w, http.StatusConflict, "employee_exists", "employee email already exists", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "create_failed", "failed to create employee", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "employees.create", "employee", id, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		slog.Warn("audit employees.create failed", "err", err)
	}

	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	employeeID := chi.URLParam(r, "employeeID")

	decision := auth.Decide(user.Identity(), auth.ActionWrite, auth.Target{Resource: auth.ResourceEmployees, EmployeeID: employeeID})
	if !decision.Allowed() {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
		return
	}

	before, err := h.Store.GetEmployee(r.Context(), employeeID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
		return
	}

	var payload employeePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.Status == "" {
		payload.Status = before.Status
	}

	validator := shared.NewValidator()
	validator.Required("name", payload.Name, "name is required")
	validator.Required("email", payload.Email, "email is required")
	validator.Enum("status", payload.Status, []string{employees.StatusActive, employees.StatusInactive}, "must be active or inactive")
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	err = h.Store.UpdateEmployee(r.Context(), employeeID, employees.Employee{
		Name:       payload.Name,
		Email:      payload.Email,
		Title:      payload.Title,
		Department: payload.Department,
		Status:     payload.Status,
	})
	if errors.Is(err, employees.ErrNotFound) || errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to update employee", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "employees.update", "employee", employeeID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), before, payload); err != nil {
		slog.Warn("audit employees.update failed", "err", err)
	}

	updated, err := h.Store.GetEmployee(r.Context(), employeeID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to load employee", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	employeeID := chi.URLParam(r, "employeeID")

	decision := auth.Decide(user.Identity(), auth.ActionDelete, auth.Target{Resource: auth.ResourceEmployees, EmployeeID: employeeID})
	if !decision.Allowed() {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
		return
	}

	err := h.Store.DeleteEmployee(r.Context(), employeeID)
	if errors.Is(err, employees.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "delete_failed", "failed to delete employee", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Audit.Record(r.Context(), user.UserID, "employees.delete", "employee", employeeID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit employees.delete failed", "err", err)
	}

	api.Success(w, map[string]bool{"deleted": true}, middleware.GetRequestID(r.Context()))
}
