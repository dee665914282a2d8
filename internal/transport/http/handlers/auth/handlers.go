package authhandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"feedbackportal/internal/domain/auth"
	"feedbackportal/internal/transport/http/api"
	"feedbackportal/internal/transport/http/middleware"
	"feedbackportal/internal/transport/http/shared"
)

type Service interface {
	Login(ctx context.Context, email, password string) (auth.LoginResult, error)
	Logout(ctx context.Context, userID, sessionID string) error
	ChangePassword(ctx context.Context, userID, current, next string) error
}

type Handler struct {
	Service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
	r.With(middleware.RequireAuth).Post("/auth/logout", h.HandleLogout)
	r.With(middleware.RequireAuth).Post("/auth/change-password", h.HandleChangePassword)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email,max=200"`
	Password string `json:"password" validate:"required,max=128"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required,max=128"`
	NewPassword     string `json:"newPassword" validate:"required,max=128"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}

	result, err := h.Service.Login(r.Context(), payload.Email, payload.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
		return
	}
	if err != nil {
		slog.Error("login failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "login_failed", "failed to sign in", requestID)
		return
	}
	api.Success(w, result, requestID)
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	if err := h.Service.Logout(r.Context(), user.UserID, user.SessionID); err != nil {
		slog.Warn("logout session revoke failed", "userId", user.UserID, "err", err)
	}
	api.Success(w, map[string]string{"status": "logged_out"}, requestID)
}

func (h *Handler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	var payload changePasswordRequest
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}

	err := h.Service.ChangePassword(r.Context(), user.UserID, payload.CurrentPassword, payload.NewPassword)
	switch {
	case err == nil:
		api.Success(w, map[string]string{"status": "password_changed"}, requestID)
	case errors.Is(err, auth.ErrInvalidCredentials):
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "current password is incorrect", requestID)
	case errors.Is(err, auth.ErrWeakPassword):
		shared.InvalidField(w, requestID, "newPassword", err.Error())
	default:
		slog.Error("change password failed", "userId", user.UserID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "password_change_failed", "failed to change password", requestID)
	}
}
