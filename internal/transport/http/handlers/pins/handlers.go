package pinshandler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"feedbackportal/internal/domain/auth"
	"feedbackportal/internal/domain/pins"
	"feedbackportal/internal/transport/http/api"
	"feedbackportal/internal/transport/http/middleware"
	"feedbackportal/internal/transport/http/shared"
)

const idempotencyEndpoint = "pins.give"

type Service interface {
	GivePin(ctx context.Context, giverID, receiverID, message string) (pins.GiveResult, error)
	Allowance(ctx context.Context, userID string) (pins.Allowance, error)
	Given(ctx context.Context, userID string, limit, offset int) ([]pins.Pin, error)
	Received(ctx context.Context, userID string, limit, offset int) ([]pins.Pin, error)
	Leaderboard(ctx context.Context, year, month int) ([]pins.LeaderboardEntry, error)
}

// IdempotencyStore is satisfied by *middleware.IdempotencyStore.
type IdempotencyStore interface {
	Check(ctx context.Context, userID, endpoint, key, requestHash string) (json.RawMessage, bool, error)
	Save(ctx context.Context, userID, endpoint, key, requestHash string, response json.RawMessage) error
}

type Handler struct {
	Service     Service
	Perms       middleware.PermissionChecker
	Idempotency IdempotencyStore
}

func NewHandler(service Service, perms middleware.PermissionChecker, idem IdempotencyStore) *Handler {
	return &Handler{Service: service, Perms: perms, Idempotency: idem}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermPinsGive, h.Perms))
		r.Post("/pins", h.handleGive)
		r.Get("/pins/allowance", h.handleAllowance)
		r.Get("/pins/given", h.handleGiven)
	})
	r.With(middleware.RequireAuth).Get("/pins/received", h.handleReceived)
	r.With(middleware.RequireAuth).Get("/pins/leaderboard", h.handleLeaderboard)
}

type giveRequest struct {
	ReceiverID string `json:"receiverId" validate:"required,uuid"`
	Message    string `json:"message" validate:"max=500"`
}

func (h *Handler) handleGive(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", requestID)
			return
		}
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	requestHash := middleware.RequestHash(body)
	if idempotencyKey != "" && h.Idempotency != nil {
		stored, found, err := h.Idempotency.Check(r.Context(), user.UserID, idempotencyEndpoint, idempotencyKey, requestHash)
		if errors.Is(err, middleware.ErrIdempotencyConflict) {
			api.Fail(w, http.StatusConflict, "idempotency_conflict", err.Error(), requestID)
			return
		}
		if err != nil {
			slog.Warn("idempotency check failed", "userId", user.UserID, "err", err)
		}
		if found {
			api.WriteJSON(w, http.StatusCreated, api.Envelope{Success: true, Data: stored, RequestID: requestID})
			return
		}
	}

	var payload giveRequest
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}
	result, err := h.Service.GivePin(r.Context(), user.UserID, payload.ReceiverID, payload.Message)
	if err != nil {
		writeError(w, err, "pin_failed", "failed to give pin", requestID)
		return
	}

	if idempotencyKey != "" && h.Idempotency != nil {
		encoded, err := json.Marshal(result)
		if err != nil {
			slog.Warn("idempotency response marshal failed", "err", err)
		} else if err := h.Idempotency.Save(r.Context(), user.UserID, idempotencyEndpoint, idempotencyKey, requestHash, encoded); err != nil {
			slog.Warn("idempotency save failed", "userId", user.UserID, "err", err)
		}
	}
	api.Created(w, result, requestID)
}

func (h *Handler) handleAllowance(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	allowance, err := h.Service.Allowance(r.Context(), user.UserID)
	if err != nil {
		writeError(w, err, "allowance_failed", "failed to load pin allowance", requestID)
		return
	}
	api.Success(w, allowance, requestID)
}

func (h *Handler) handleGiven(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Service.Given)
}

func (h *Handler) handleReceived(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Service.Received)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, fetch func(ctx context.Context, userID string, limit, offset int) ([]pins.Pin, error)) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	page := shared.ParsePagination(r, 20, 100)
	list, err := fetch(r.Context(), user.UserID, page.Limit, page.Offset)
	if err != nil {
		writeError(w, err, "pins_failed", "failed to list pins", requestID)
		return
	}
	api.Success(w, list, requestID)
}

func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	year := shared.QueryInt(r, "year", 0)
	month := shared.QueryInt(r, "month", 0)
	entries, err := h.Service.Leaderboard(r.Context(), year, month)
	if err != nil {
		writeError(w, err, "leaderboard_failed", "failed to load leaderboard", requestID)
		return
	}
	api.Success(w, entries, requestID)
}

func writeError(w http.ResponseWriter, err error, code, message, requestID string) {
	switch {
	case errors.Is(err, pins.ErrNoPinsLeft):
		api.Fail(w, http.StatusConflict, "no_pins_left", err.Error(), requestID)
	case errors.Is(err, pins.ErrDuplicatePin):
		api.Fail(w, http.StatusConflict, "duplicate_pin", err.Error(), requestID)
	case errors.Is(err, pins.ErrReceiverNotFound):
		api.Fail(w, http.StatusNotFound, "receiver_not_found", err.Error(), requestID)
	case errors.Is(err, pins.ErrSelfPin),
		errors.Is(err, pins.ErrReceiverRequired),
		errors.Is(err, pins.ErrMessageTooLong),
		errors.Is(err, pins.ErrInvalidMonth):
		api.Fail(w, http.StatusBadRequest, "invalid_pin", err.Error(), requestID)
	default:
		slog.Error(code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}
