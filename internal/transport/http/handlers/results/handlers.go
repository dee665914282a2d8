package resultshandler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"feedbackportal/internal/domain/auth"
	"feedbackportal/internal/domain/results"
	"feedbackportal/internal/transport/http/api"
	"feedbackportal/internal/transport/http/middleware"
	"feedbackportal/internal/transport/http/shared"
)

type Service interface {
	UserResults(ctx context.Context, userID, periodID string) (results.UserResult, error)
	CanView(ctx context.Context, viewerID, targetID string) (bool, error)
	Ranking(ctx context.Context, periodID string) ([]results.RankingEntry, error)
	History(ctx context.Context, userID string) ([]results.HistoryEntry, error)
	Comments(ctx context.Context, assesseeID, periodID string) ([]results.Comment, error)
	ReportPDF(ctx context.Context, userID, periodID string) ([]byte, error)
}

type Handler struct {
	Service Service
	Perms   middleware.PermissionChecker
}

func NewHandler(service Service, perms middleware.PermissionChecker) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermResultsReadOwn, h.Perms))
		r.Get("/results/me", h.handleResults)
		r.Get("/results/me/history", h.handleHistory)
		r.Get("/results/me/comments", h.handleComments)
		r.Get("/results/me/report.pdf", h.handleReport)
		r.Get("/results/users/{userID}", h.handleResults)
		r.Get("/results/users/{userID}/history", h.handleHistory)
		r.Get("/results/users/{userID}/report.pdf", h.handleReport)
	})
	r.With(middleware.RequirePermission(auth.PermResultsReadAll, h.Perms)).Get("/results/ranking", h.handleRanking)
}

func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	targetID, periodID, ok := h.target(w, r)
	if !ok {
		return
	}
	res, err := h.Service.UserResults(r.Context(), targetID, periodID)
	if err != nil {
		writeError(w, err, "results_failed", "failed to load results", requestID)
		return
	}
	api.Success(w, res, requestID)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	targetID, _, ok := h.target(w, r)
	if !ok {
		return
	}
	history, err := h.Service.History(r.Context(), targetID)
	if err != nil {
		writeError(w, err, "history_failed", "failed to load history", requestID)
		return
	}
	api.Success(w, history, requestID)
}

// Comments are only ever shown to the assessee and never carry assessor identity.
func (h *Handler) handleComments(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	targetID, periodID, ok := h.target(w, r)
	if !ok {
		return
	}
	comments, err := h.Service.Comments(r.Context(), targetID, periodID)
	if err != nil {
		writeError(w, err, "comments_failed", "failed to load comments", requestID)
		return
	}
	api.Success(w, comments, requestID)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	targetID, periodID, ok := h.target(w, r)
	if !ok {
		return
	}
	pdf, err := h.Service.ReportPDF(r.Context(), targetID, periodID)
	if err != nil {
		writeError(w, err, "report_failed", "failed to render report", requestID)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"hasil-360-%s.pdf\"", targetID))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		slog.Warn("write report failed", "userId", targetID, "err", err)
	}
}

func (h *Handler) handleRanking(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	periodID := strings.TrimSpace(r.URL.Query().Get("periodId"))
	if !shared.ValidID(periodID) {
		shared.InvalidField(w, requestID, "periodId", "must be a valid id")
		return
	}
	ranking, err := h.Service.Ranking(r.Context(), periodID)
	if err != nil {
		writeError(w, err, "ranking_failed", "failed to load ranking", requestID)
		return
	}
	api.Success(w, ranking, requestID)
}

// target resolves whose results are requested and enforces visibility.
func (h *Handler) target(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return "", "", false
	}
	periodID := strings.TrimSpace(r.URL.Query().Get("periodId"))
	if periodID != "" && !shared.ValidID(periodID) {
		shared.InvalidField(w, requestID, "periodId", "must be a valid id")
		return "", "", false
	}
	targetID := chi.URLParam(r, "userID")
	if targetID == "" {
		return user.UserID, periodID, true
	}
	if !shared.ValidID(targetID) {
		api.Fail(w, http.StatusNotFound, "not_found", results.ErrUserNotFound.Error(), requestID)
		return "", "", false
	}
	allowed, err := h.Service.CanView(r.Context(), user.UserID, targetID)
	if err != nil {
		writeError(w, err, "results_failed", "failed to check access", requestID)
		return "", "", false
	}
	if !allowed {
		api.Fail(w, http.StatusForbidden, "forbidden", results.ErrForbidden.Error(), requestID)
		return "", "", false
	}
	return targetID, periodID, true
}

func writeError(w http.ResponseWriter, err error, code, message, requestID string) {
	switch {
	case errors.Is(err, results.ErrUserNotFound), errors.Is(err, results.ErrPeriodNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, results.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), requestID)
	default:
		slog.Error(code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}
