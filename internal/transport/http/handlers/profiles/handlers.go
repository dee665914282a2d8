package profileshandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"feedbackportal/internal/domain/auth"
	"feedbackportal/internal/domain/profiles"
	"feedbackportal/internal/domain/roles"
	"feedbackportal/internal/transport/http/api"
	"feedbackportal/internal/transport/http/middleware"
	"feedbackportal/internal/transport/http/shared"
)

type Service interface {
	Me(ctx context.Context, userID string) (profiles.Profile, error)
	UpdateMe(ctx context.Context, userID string, in profiles.SelfUpdate) (profiles.Profile, error)
	Directory(ctx context.Context, filter profiles.Filter) ([]profiles.Profile, int, error)
	Departments(ctx context.Context) ([]string, error)
	Get(ctx context.Context, userID string) (profiles.Profile, error)
	Create(ctx context.Context, in profiles.CreateInput) (profiles.Profile, error)
	Update(ctx context.Context, userID string, in profiles.AdminUpdate) (profiles.Profile, error)
	Delete(ctx context.Context, actorID, userID string) error
	SetRole(ctx context.Context, userID, role string) (profiles.Profile, error)
}

type Handler struct {
	Service Service
	Perms   middleware.PermissionChecker
	Audit   shared.Auditor
}

func NewHandler(service Service, perms middleware.PermissionChecker, auditor shared.Auditor) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermProfilesRead, h.Perms))
		r.Get("/profiles/me", h.handleMe)
		r.Patch("/profiles/me", h.handleUpdateMe)
		r.Get("/profiles", h.handleDirectory)
		r.Get("/profiles/departments", h.handleDepartments)
	})
	r.Route("/admin/users", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermUsersManage, h.Perms))
		r.Post("/", h.handleCreate)
		r.Get("/{userID}", h.handleGet)
		r.Patch("/{userID}", h.handleUpdate)
		r.Delete("/{userID}", h.handleDelete)
		r.Put("/{userID}/role", h.handleSetRole)
	})
}

type roleRequest struct {
	Role string `json:"role" validate:"required,oneof=user supervisor admin"`
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	profile, err := h.Service.Me(r.Context(), user.UserID)
	if err != nil {
		writeError(w, err, "profile_failed", "failed to load profile", requestID)
		return
	}
	api.Success(w, profile, requestID)
}

func (h *Handler) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	var payload profiles.SelfUpdate
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}
	profile, err := h.Service.UpdateMe(r.Context(), user.UserID, payload)
	if err != nil {
		writeError(w, err, "profile_update_failed", "failed to update profile", requestID)
		return
	}
	api.Success(w, profile, requestID)
}

func (h *Handler) handleDirectory(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	filter := profiles.Filter{
		Query:      strings.TrimSpace(r.URL.Query().Get("q")),
		Department: strings.TrimSpace(r.URL.Query().Get("department")),
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
	list, total, err := h.Service.Directory(r.Context(), filter)
	if err != nil {
		slog.Error("profile directory failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "directory_failed", "failed to list profiles", requestID)
		return
	}
	api.List(w, list, total, requestID)
}

func (h *Handler) handleDepartments(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	list, err := h.Service.Departments(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "departments_failed", "failed to list departments", requestID)
		return
	}
	api.Success(w, list, requestID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	var payload profiles.CreateInput
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}
	profile, err := h.Service.Create(r.Context(), payload)
	if err != nil {
		writeError(w, err, "user_create_failed", "failed to create user", requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, requestID, "user.create", "profile", profile.ID, nil, profile)
	api.Created(w, profile, requestID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	userID := chi.URLParam(r, "userID")
	if !shared.ValidID(userID) {
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", requestID)
		return
	}
	profile, err := h.Service.Get(r.Context(), userID)
	if err != nil {
		writeError(w, err, "user_failed", "failed to load user", requestID)
		return
	}
	api.Success(w, profile, requestID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	userID := chi.URLParam(r, "userID")
	if !shared.ValidID(userID) {
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", requestID)
		return
	}
	var payload profiles.AdminUpdate
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}
	before, err := h.Service.Get(r.Context(), userID)
	if err != nil {
		writeError(w, err, "user_update_failed", "failed to update user", requestID)
		return
	}
	profile, err := h.Service.Update(r.Context(), userID, payload)
	if err != nil {
		writeError(w, err, "user_update_failed", "failed to update user", requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, requestID, "user.update", "profile", userID, before, profile)
	api.Success(w, profile, requestID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	userID := chi.URLParam(r, "userID")
	if !shared.ValidID(userID) {
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", requestID)
		return
	}
	if err := h.Service.Delete(r.Context(), user.UserID, userID); err != nil {
		writeError(w, err, "user_delete_failed", "failed to delete user", requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, requestID, "user.delete", "profile", userID, nil, nil)
	api.Success(w, map[string]string{"status": "deleted"}, requestID)
}

func (h *Handler) handleSetRole(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	userID := chi.URLParam(r, "userID")
	if !shared.ValidID(userID) {
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", requestID)
		return
	}
	var payload roleRequest
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}
	profile, err := h.Service.SetRole(r.Context(), userID, payload.Role)
	if err != nil {
		writeError(w, err, "role_update_failed", "failed to update role", requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, requestID, "user.role.set", "profile", userID, nil, map[string]string{"role": payload.Role})
	api.Success(w, profile, requestID)
}

func writeError(w http.ResponseWriter, err error, code, message, requestID string) {
	switch {
	case errors.Is(err, profiles.ErrNotFound), errors.Is(err, roles.ErrUserNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", requestID)
	case errors.Is(err, profiles.ErrEmailTaken):
		api.Fail(w, http.StatusConflict, "email_taken", err.Error(), requestID)
	case errors.Is(err, profiles.ErrSelfDelete):
		api.Fail(w, http.StatusBadRequest, "self_delete", err.Error(), requestID)
	case errors.Is(err, profiles.ErrEmptyUpdate):
		api.Fail(w, http.StatusBadRequest, "empty_update", err.Error(), requestID)
	case errors.Is(err, roles.ErrInvalidRole):
		shared.InvalidField(w, requestID, "role", err.Error())
	case errors.Is(err, auth.ErrWeakPassword):
		shared.InvalidField(w, requestID, "password", err.Error())
	default:
		slog.Error(code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}
