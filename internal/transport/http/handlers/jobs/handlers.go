package jobshandler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"perftrack/internal/domain/auth"
	"perftrack/internal/platform/jobs"
	"perftrack/internal/transport/http/api"
	"perftrack/internal/transport/http/middleware"
)

type Handler struct {
	Service *jobs.Service
}

func NewHandler(service *jobs.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/jobs", func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleAdmin))
		r.Get("/runs", h.handleListRuns)
		r.Post("/{jobName}/run", h.handleRun)
	})
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.Service.RecentRuns(r.Context(), limit)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "job_list_failed", "failed to list job runs", middleware.GetRequestID(r.Context()))
		return
	}
	if runs == nil {
		runs = []jobs.Run{}
	}
	api.Success(w, map[string]any{"runs": runs, "known": h.Service.KnownJobs()}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "jobName")
	if err := h.Service.EnqueueNamed(name); err != nil {
		api.Fail(w, http.StatusNotFound, "unknown_job", "no job with that name", middleware.GetRequestID(r.Context()))
		return
	}
	api.WriteJSON(w, http.StatusAccepted, api.Envelope{
		Success:   true,
		Data:      map[string]string{"job": name, "status": "queued"},
		RequestID: middleware.GetRequestID(r.Context()),
	})
}
