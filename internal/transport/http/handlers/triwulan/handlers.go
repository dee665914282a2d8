package triwulanhandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"feedbackportal/internal/domain/auth"
	"feedbackportal/internal/domain/periods"
	"feedbackportal/internal/domain/triwulan"
	"feedbackportal/internal/transport/http/api"
	"feedbackportal/internal/transport/http/middleware"
	"feedbackportal/internal/transport/http/shared"
)

type Service interface {
	Candidates(ctx context.Context, key periods.QuarterKey) ([]triwulan.Candidate, error)
	Nominate(ctx context.Context, key periods.QuarterKey, userID, nominatedBy, reason string) (triwulan.Candidate, error)
	RemoveCandidate(ctx context.Context, key periods.QuarterKey, candidateID string) error
	Vote(ctx context.Context, key periods.QuarterKey, voterID, candidateID string) (triwulan.Vote, error)
	MyVote(ctx context.Context, key periods.QuarterKey, voterID string) (triwulan.Vote, bool, error)
	Rate(ctx context.Context, key periods.QuarterKey, voterID, candidateID string, scores []int) (triwulan.Rating, error)
	MyRatings(ctx context.Context, key periods.QuarterKey, voterID string) ([]triwulan.Rating, error)
	MyProgress(ctx context.Context, key periods.QuarterKey, voterID string) (triwulan.Progress, error)
	Scores(ctx context.Context, key periods.QuarterKey) ([]triwulan.Score, error)
	Overview(ctx context.Context, key periods.QuarterKey) (triwulan.Overview, error)
	DecideWinner(ctx context.Context, key periods.QuarterKey, candidateID, decidedBy string) (triwulan.Winner, error)
	Winner(ctx context.Context, key periods.QuarterKey) (triwulan.Winner, error)
	SetDeficiency(ctx context.Context, key periods.QuarterKey, candidateID string, month int, note string) (triwulan.Deficiency, error)
	Deficiencies(ctx context.Context, key periods.QuarterKey) ([]triwulan.Deficiency, error)
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
		r.Use(middleware.RequireAuth)
		r.Get("/triwulan/criteria", h.handleCriteria)
		r.Get("/triwulan/{quarterKey}/candidates", h.handleCandidates)
		r.Get("/triwulan/{quarterKey}/scores", h.handleScores)
		r.Get("/triwulan/{quarterKey}/winner", h.handleWinner)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermTriwulanVote, h.Perms))
		r.Post("/triwulan/{quarterKey}/votes", h.handleVote)
		r.Get("/triwulan/{quarterKey}/votes/me", h.handleMyVote)
		r.Put("/triwulan/{quarterKey}/ratings", h.handleRate)
		r.Get("/triwulan/{quarterKey}/ratings/me", h.handleMyRatings)
		r.Get("/triwulan/{quarterKey}/progress/me", h.handleMyProgress)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermTriwulanManage, h.Perms))
		r.Post("/admin/triwulan/{quarterKey}/candidates", h.handleNominate)
		r.Delete("/admin/triwulan/{quarterKey}/candidates/{candidateID}", h.handleRemoveCandidate)
		r.Get("/admin/triwulan/{quarterKey}/overview", h.handleOverview)
		r.Post("/admin/triwulan/{quarterKey}/winner", h.handleDecideWinner)
		r.Get("/admin/triwulan/{quarterKey}/deficiencies", h.handleDeficiencies)
		r.Put("/admin/triwulan/{quarterKey}/deficiencies", h.handleSetDeficiency)
	})
}

type voteRequest struct {
	CandidateID string `json:"candidateId" validate:"required,uuid"`
}

type rateRequest struct {
	CandidateID string `json:"candidateId" validate:"required,uuid"`
	Scores      []int  `json:"scores" validate:"required,len=13,dive,gte=1,lte=10"`
}

type nominateRequest struct {
	UserID string `json:"userId" validate:"required,uuid"`
	Reason string `json:"reason" validate:"max=1000"`
}

type winnerRequest struct {
	CandidateID string `json:"candidateId" validate:"omitempty,uuid"`
}

type deficiencyRequest struct {
	CandidateID string `json:"candidateId" validate:"required,uuid"`
	Month       int    `json:"month" validate:"required,gte=1,lte=12"`
	Note        string `json:"note" validate:"max=2000"`
}

func (h *Handler) handleCriteria(w http.ResponseWriter, r *http.Request) {
	api.Success(w, triwulan.Criteria, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCandidates(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	key, ok := quarterKey(w, r)
	if !ok {
		return
	}
	list, err := h.Service.Candidates(r.Context(), key)
	if err != nil {
		writeError(w, err, "candidates_failed", "failed to list candidates", requestID)
		return
	}
	api.Success(w, list, requestID)
}

func (h *Handler) handleScores(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	key, ok := quarterKey(w, r)
	if !ok {
		return
	}
	scores, err := h.Service.Scores(r.Context(), key)
	if err != nil {
		writeError(w, err, "scores_failed", "failed to load scores", requestID)
		return
	}
	api.Success(w, scores, requestID)
}

func (h *Handler) handleWinner(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	key, ok := quarterKey(w, r)
	if !ok {
		return
	}
	winner, err := h.Service.Winner(r.Context(), key)
	if err != nil {
		writeError(w, err, "winner_failed", "failed to load winner", requestID)
		return
	}
	api.Success(w, winner, requestID)
}

func (h *Handler) handleVote(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, key, ok := userAndKey(w, r)
	if !ok {
		return
	}
	var payload voteRequest
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}
	vote, err := h.Service.Vote(r.Context(), key, user.UserID, payload.CandidateID)
	if err != nil {
		writeError(w, err, "vote_failed", "failed to record vote", requestID)
		return
	}
	api.Created(w, vote, requestID)
}

func (h *Handler) handleMyVote(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, key, ok := userAndKey(w, r)
	if !ok {
		return
	}
	vote, found, err := h.Service.MyVote(r.Context(), key, user.UserID)
	if err != nil {
		writeError(w, err, "vote_failed", "failed to load vote", requestID)
		return
	}
	if !found {
		api.Success(w, map[string]any{"hasVoted": false}, requestID)
		return
	}
	api.Success(w, map[string]any{"hasVoted": true, "vote": vote}, requestID)
}

func (h *Handler) handleRate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, key, ok := userAndKey(w, r)
	if !ok {
		return
	}
	var payload rateRequest
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}
	rating, err := h.Service.Rate(r.Context(), key, user.UserID, payload.CandidateID, payload.Scores)
	if err != nil {
		writeError(w, err, "rating_failed", "failed to save rating", requestID)
		return
	}
	api.Success(w, rating, requestID)
}

func (h *Handler) handleMyRatings(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, key, ok := userAndKey(w, r)
	if !ok {
		return
	}
	ratings, err := h.Service.MyRatings(r.Context(), key, user.UserID)
	if err != nil {
		writeError(w, err, "ratings_failed", "failed to load ratings", requestID)
		return
	}
	api.Success(w, ratings, requestID)
}

func (h *Handler) handleMyProgress(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, key, ok := userAndKey(w, r)
	if !ok {
		return
	}
	progress, err := h.Service.MyProgress(r.Context(), key, user.UserID)
	if err != nil {
		writeError(w, err, "progress_failed", "failed to load progress", requestID)
		return
	}
	api.Success(w, progress, requestID)
}

func (h *Handler) handleNominate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, key, ok := userAndKey(w, r)
	if !ok {
		return
	}
	var payload nominateRequest
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}
	candidate, err := h.Service.Nominate(r.Context(), key, payload.UserID, user.UserID, payload.Reason)
	if err != nil {
		writeError(w, err, "nominate_failed", "failed to nominate candidate", requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, requestID, "triwulan.candidate.create", "triwulan_candidate", candidate.ID, nil, candidate)
	api.Created(w, candidate, requestID)
}

func (h *Handler) handleRemoveCandidate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, key, ok := userAndKey(w, r)
	if !ok {
		return
	}
	candidateID := chi.URLParam(r, "candidateID")
	if !shared.ValidID(candidateID) {
		api.Fail(w, http.StatusNotFound, "not_found", triwulan.ErrCandidateNotFound.Error(), requestID)
		return
	}
	if err := h.Service.RemoveCandidate(r.Context(), key, candidateID); err != nil {
		writeError(w, err, "candidate_delete_failed", "failed to remove candidate", requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, requestID, "triwulan.candidate.delete", "triwulan_candidate", candidateID, nil, nil)
	api.Success(w, map[string]string{"status": "deleted"}, requestID)
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	key, ok := quarterKey(w, r)
	if !ok {
		return
	}
	overview, err := h.Service.Overview(r.Context(), key)
	if err != nil {
		writeError(w, err, "overview_failed", "failed to load overview", requestID)
		return
	}
	api.Success(w, overview, requestID)
}

func (h *Handler) handleDecideWinner(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, key, ok := userAndKey(w, r)
	if !ok {
		return
	}
	var payload winnerRequest
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}
	winner, err := h.Service.DecideWinner(r.Context(), key, payload.CandidateID, user.UserID)
	if err != nil {
		writeError(w, err, "winner_failed", "failed to record winner", requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, requestID, "triwulan.winner.set", "triwulan_winner", key.String(), nil, winner)
	api.Success(w, winner, requestID)
}

func (h *Handler) handleDeficiencies(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	key, ok := quarterKey(w, r)
	if !ok {
		return
	}
	list, err := h.Service.Deficiencies(r.Context(), key)
	if err != nil {
		writeError(w, err, "deficiencies_failed", "failed to list deficiencies", requestID)
		return
	}
	api.Success(w, list, requestID)
}

func (h *Handler) handleSetDeficiency(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, key, ok := userAndKey(w, r)
	if !ok {
		return
	}
	var payload deficiencyRequest
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}
	deficiency, err := h.Service.SetDeficiency(r.Context(), key, payload.CandidateID, payload.Month, payload.Note)
	if err != nil {
		writeError(w, err, "deficiency_failed", "failed to save deficiency", requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, requestID, "triwulan.deficiency.set", "triwulan_candidate", payload.CandidateID, nil, deficiency)
	api.Success(w, deficiency, requestID)
}

func quarterKey(w http.ResponseWriter, r *http.Request) (periods.QuarterKey, bool) {
	key, err := periods.ParseQuarterKey(chi.URLParam(r, "quarterKey"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_quarter", err.Error(), middleware.GetRequestID(r.Context()))
		return periods.QuarterKey{}, false
	}
	return key, true
}

func userAndKey(w http.ResponseWriter, r *http.Request) (auth.UserContext, periods.QuarterKey, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return auth.UserContext{}, periods.QuarterKey{}, false
	}
	key, ok := quarterKey(w, r)
	return user, key, ok
}

func writeError(w http.ResponseWriter, err error, code, message, requestID string) {
	switch {
	case errors.Is(err, triwulan.ErrCandidateNotFound),
		errors.Is(err, triwulan.ErrUserNotFound),
		errors.Is(err, triwulan.ErrWinnerNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, triwulan.ErrNotEligible):
		api.Fail(w, http.StatusForbidden, "not_eligible", err.Error(), requestID)
	case errors.Is(err, triwulan.ErrAlreadyVoted),
		errors.Is(err, triwulan.ErrCandidateExists),
		errors.Is(err, triwulan.ErrTooManyRatings):
		api.Fail(w, http.StatusConflict, "triwulan_conflict", err.Error(), requestID)
	case errors.Is(err, triwulan.ErrNoCandidates):
		api.Fail(w, http.StatusConflict, "no_candidates", err.Error(), requestID)
	case errors.Is(err, triwulan.ErrSelfVote),
		errors.Is(err, triwulan.ErrScoreCount),
		errors.Is(err, triwulan.ErrScoreOutOfRange),
		errors.Is(err, triwulan.ErrMonthOutsideQuarter),
		errors.Is(err, triwulan.ErrReasonTooLong),
		errors.Is(err, triwulan.ErrNoteTooLong),
		errors.Is(err, periods.ErrInvalidQuarter):
		api.Fail(w, http.StatusBadRequest, "invalid_triwulan_request", err.Error(), requestID)
	default:
		slog.Error(code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}
