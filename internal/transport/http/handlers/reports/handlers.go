package reportshandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"feedbackportal/internal/domain/auth"
	"feedbackportal/internal/domain/reports"
	"feedbackportal/internal/platform/jobs"
	"feedbackportal/internal/transport/http/api"
	"feedbackportal/internal/transport/http/middleware"
	"feedbackportal/internal/transport/http/shared"
)

type Service interface {
	Dashboard(ctx context.Context) (reports.Dashboard, error)
	Summary(ctx context.Context, userID string) (reports.Summary, error)
}

type JobRunner interface {
	Types() []string
	Enqueue(jobType string) bool
	RunNow(ctx context.Context, jobType string) (any, error)
	Runs(ctx context.Context, limit int) ([]jobs.Run, error)
}

type MetricsSnapshotter interface {
	Snapshot() map[string]any
}

type Handler struct {
	Service Service
	Jobs    JobRunner
	Metrics MetricsSnapshotter
	Perms   middleware.PermissionChecker
	Audit   shared.Auditor
}

func NewHandler(service Service, jobRunner JobRunner, metrics MetricsSnapshotter, perms middleware.PermissionChecker, auditor shared.Auditor) *Handler {
	return &Handler{Service: service, Jobs: jobRunner, Metrics: metrics, Perms: perms, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.With(middleware.RequireAuth).Get("/me", h.handleSummary)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(auth.PermSystemAdmin, h.Perms))
			r.Get("/dashboard", h.handleDashboard)
			r.Get("/jobs", h.handleJobRuns)
			r.Get("/jobs/types", h.handleJobTypes)
			r.Post("/jobs/{jobType}/run", h.handleRunJob)
			r.Get("/metrics", h.handleMetrics)
		})
	})
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	summary, err := h.Service.Summary(r.Context(), user.UserID)
	if err != nil {
		slog.Error("summary failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "summary_failed", "failed to load summary", requestID)
		return
	}
	api.Success(w, summary, requestID)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	dashboard, err := h.Service.Dashboard(r.Context())
	if err != nil {
		slog.Error("dashboard failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "dashboard_failed", "failed to load dashboard", requestID)
		return
	}
	api.Success(w, dashboard, requestID)
}

func (h *Handler) handleJobRuns(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if h.Jobs == nil {
		api.Success(w, []jobs.Run{}, requestID)
		return
	}
	runs, err := h.Jobs.Runs(r.Context(), shared.QueryInt(r, "limit", 50))
	if err != nil {
		slog.Error("job runs failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "job_runs_failed", "failed to list job runs", requestID)
		return
	}
	api.Success(w, runs, requestID)
}

func (h *Handler) handleJobTypes(w http.ResponseWriter, r *http.Request) {
	types := []string{}
	if h.Jobs != nil {
		types = h.Jobs.Types()
	}
	api.Success(w, types, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRunJob(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	if h.Jobs == nil {
		api.Fail(w, http.StatusServiceUnavailable, "jobs_disabled", "background jobs are disabled", requestID)
		return
	}

	jobType := chi.URLParam(r, "jobType")
	if r.URL.Query().Get("async") == "true" {
		if !h.Jobs.Enqueue(jobType) {
			api.Fail(w, http.StatusConflict, "job_not_queued", "job could not be queued", requestID)
			return
		}
		shared.RecordAudit(r, h.Audit, user.UserID, requestID, "job.enqueue", "job", jobType, nil, nil)
		api.Accepted(w, map[string]string{"status": "queued"}, requestID)
		return
	}

	result, err := h.Jobs.RunNow(r.Context(), jobType)
	if err != nil {
		if errors.Is(err, jobs.ErrUnknownJob) {
			api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
			return
		}
		slog.Error("job run failed", "jobType", jobType, "err", err)
		api.Fail(w, http.StatusInternalServerError, "job_failed", "job run failed", requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, requestID, "job.run", "job", jobType, nil, result)
	api.Success(w, result, requestID)
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if h.Metrics == nil {
		api.Fail(w, http.StatusNotFound, "metrics_disabled", "metrics are disabled", requestID)
		return
	}
	api.Success(w, h.Metrics.Snapshot(), requestID)
}
