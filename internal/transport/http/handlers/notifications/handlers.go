package notificationshandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"feedbackportal/internal/domain/notifications"
	"feedbackportal/internal/transport/http/api"
	"feedbackportal/internal/transport/http/middleware"
	"feedbackportal/internal/transport/http/shared"
)

type Service interface {
	List(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]notifications.Notification, error)
	Count(ctx context.Context, userID string) (int, int, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type Handler struct {
	Service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleList)
		r.Get("/count", h.handleCount)
		r.Post("/read-all", h.handleMarkAllRead)
		r.Post("/{notificationID}/read", h.handleMarkRead)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	page := shared.ParsePagination(r, notifications.DefaultLimit, notifications.MaxLimit)
	unreadOnly := r.URL.Query().Get("unreadOnly") == "true"
	total, unread, err := h.Service.Count(r.Context(), user.UserID)
	if err != nil {
		slog.Warn("notification count failed", "err", err)
	}

	items, err := h.Service.List(r.Context(), user.UserID, unreadOnly, page.Limit, page.Offset)
	if err != nil {
		slog.Error("notification list failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "notification_list_failed", "failed to list notifications", requestID)
		return
	}

	if unreadOnly {
		total = unread
	}
	api.List(w, items, total, requestID)
}

func (h *Handler) handleCount(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	total, unread, err := h.Service.Count(r.Context(), user.UserID)
	if err != nil {
		slog.Error("notification count failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "notification_count_failed", "failed to count notifications", requestID)
		return
	}
	api.Success(w, map[string]int{"total": total, "unread": unread}, requestID)
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	notificationID := chi.URLParam(r, "notificationID")
	if !shared.ValidID(notificationID) {
		api.Fail(w, http.StatusNotFound, "not_found", "notification not found", requestID)
		return
	}
	if err := h.Service.MarkRead(r.Context(), user.UserID, notificationID); err != nil {
		if errors.Is(err, notifications.ErrNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "notification not found", requestID)
			return
		}
		slog.Error("notification update failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "notification_update_failed", "failed to update notification", requestID)
		return
	}

	api.Success(w, map[string]string{"status": "read"}, requestID)
}

func (h *Handler) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	updated, err := h.Service.MarkAllRead(r.Context(), user.UserID)
	if err != nil {
		slog.Error("notification bulk update failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "notification_update_failed", "failed to update notifications", requestID)
		return
	}
	api.Success(w, map[string]int64{"updated": updated}, requestID)
}
