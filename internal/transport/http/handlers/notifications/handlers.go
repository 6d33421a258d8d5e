package notificationshandler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"perftrack/internal/domain/notifications"
	"perftrack/internal/transport/http/api"
	"perftrack/internal/transport/http/middleware"
	"perftrack/internal/transport/http/shared"
)

type Handler struct {
	Service *notifications.Service
}

func NewHandler(service *notifications.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleList)
		r.Post("/{notificationID}/read", h.handleMarkRead)
		r.Post("/read-all", h.handleMarkAllRead)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	page := shared.ParsePagination(r, 50, 200)
	items, err := h.Service.List(r.Context(), user.UserID, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "list_failed", "failed to list notifications", middleware.GetRequestID(r.Context()))
		return
	}
	if items == nil {
		items = []notifications.Notification{}
	}

	unread, err := h.Service.UnreadCount(r.Context(), user.UserID)
	if err != nil {
		slog.Warn("unread count failed", "userId", user.UserID, "err", err)
	}

	api.Success(w, map[string]any{"items": items, "unreadCount": unread}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	notificationID := chi.URLParam(r, "notificationID")
	if err := h.Service.MarkRead(r.Context(), user.UserID, notificationID); err != nil {
		if errors.Is(err, notifications.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "notification not found", middleware.GetRequestID(r.Context()))
			return
		}
		api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to update notification", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "read"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Service.MarkAllRead(r.Context(), user.UserID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to update notifications", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"status": "read"}, middleware.GetRequestID(r.Context()))
}
