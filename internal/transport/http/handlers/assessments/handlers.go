package assessmentshandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"feedbackportal/internal/domain/assessment"
	"feedbackportal/internal/domain/auth"
	"feedbackportal/internal/transport/http/api"
	"feedbackportal/internal/transport/http/middleware"
	"feedbackportal/internal/transport/http/shared"
)

type Service interface {
	MyAssignments(ctx context.Context, assessorID, periodID string) ([]assessment.Assignment, error)
	Detail(ctx context.Context, assessorID, assignmentID string) (assessment.AssignmentDetail, error)
	Submit(ctx context.Context, assessorID, assignmentID string, sub assessment.Submission) error
	Team(ctx context.Context, supervisorID string) ([]assessment.TeamMember, string, error)
	RateTeamMember(ctx context.Context, supervisorID, assesseeID string, sub assessment.Submission) (string, error)
	CreateAssignments(ctx context.Context, periodID string, inputs []assessment.AssignmentInput) ([]string, error)
	Progress(ctx context.Context, periodID string) (assessment.Progress, error)
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
	r.With(middleware.RequireAuth).Get("/assessments/aspects", h.handleAspects)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermAssessmentSubmit, h.Perms))
		r.Get("/assessments", h.handleMine)
		r.Get("/assessments/{assignmentID}", h.handleDetail)
		r.Post("/assessments/{assignmentID}/submit", h.handleSubmit)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermTeamRate, h.Perms))
		r.Get("/assessments/team", h.handleTeam)
		r.Post("/assessments/team/rate", h.handleTeamRate)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermPeriodsManage, h.Perms))
		r.Post("/admin/assessments/assignments", h.handleAssign)
		r.Get("/admin/assessments/progress", h.handleProgress)
	})
}

type ratingPayload struct {
	Aspect  string `json:"aspect" validate:"required,max=100"`
	Rating  int    `json:"rating" validate:"gte=1,lte=100"`
	Comment string `json:"comment" validate:"max=2000"`
}

type submitRequest struct {
	Ratings []ratingPayload `json:"ratings" validate:"required,min=1,dive"`
}

type teamRateRequest struct {
	AssesseeID string          `json:"assesseeId" validate:"required,uuid"`
	Ratings    []ratingPayload `json:"ratings" validate:"required,min=1,dive"`
}

type assignRequest struct {
	PeriodID    string                       `json:"periodId" validate:"required,uuid"`
	Assignments []assessment.AssignmentInput `json:"assignments" validate:"required,min=1,max=500"`
}

func (h *Handler) handleAspects(w http.ResponseWriter, r *http.Request) {
	api.Success(w, assessment.Catalog, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMine(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	periodID := strings.TrimSpace(r.URL.Query().Get("periodId"))
	if periodID != "" && !shared.ValidID(periodID) {
		shared.InvalidField(w, requestID, "periodId", "must be a valid id")
		return
	}
	list, err := h.Service.MyAssignments(r.Context(), user.UserID, periodID)
	if err != nil {
		writeError(w, err, "assignments_failed", "failed to list assignments", requestID)
		return
	}
	api.Success(w, list, requestID)
}

func (h *Handler) handleDetail(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	assignmentID := chi.URLParam(r, "assignmentID")
	if !shared.ValidID(assignmentID) {
		api.Fail(w, http.StatusNotFound, "not_found", assessment.ErrAssignmentNotFound.Error(), requestID)
		return
	}
	detail, err := h.Service.Detail(r.Context(), user.UserID, assignmentID)
	if err != nil {
		writeError(w, err, "assignment_failed", "failed to load assignment", requestID)
		return
	}
	api.Success(w, detail, requestID)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	assignmentID := chi.URLParam(r, "assignmentID")
	if !shared.ValidID(assignmentID) {
		api.Fail(w, http.StatusNotFound, "not_found", assessment.ErrAssignmentNotFound.Error(), requestID)
		return
	}
	var payload submitRequest
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}
	if err := h.Service.Submit(r.Context(), user.UserID, assignmentID, toSubmission(payload.Ratings)); err != nil {
		writeError(w, err, "submit_failed", "failed to submit assessment", requestID)
		return
	}
	api.Success(w, map[string]string{"assignmentId": assignmentID, "status": "submitted"}, requestID)
}

func (h *Handler) handleTeam(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	members, periodID, err := h.Service.Team(r.Context(), user.UserID)
	if err != nil {
		writeError(w, err, "team_failed", "failed to load team", requestID)
		return
	}
	api.Success(w, map[string]any{"periodId": periodID, "members": members}, requestID)
}

func (h *Handler) handleTeamRate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	var payload teamRateRequest
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}
	assignmentID, err := h.Service.RateTeamMember(r.Context(), user.UserID, payload.AssesseeID, toSubmission(payload.Ratings))
	if err != nil {
		writeError(w, err, "team_rate_failed", "failed to rate team member", requestID)
		return
	}
	api.Success(w, map[string]string{"assignmentId": assignmentID, "status": "submitted"}, requestID)
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	var payload assignRequest
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}
	v := shared.NewValidator()
	for _, in := range payload.Assignments {
		v.ID("assignments.assessorId", in.AssessorID)
		v.ID("assignments.assesseeId", in.AssesseeID)
	}
	if v.HasIssues() {
		shared.FailValidation(w, requestID, v.Issues())
		return
	}
	ids, err := h.Service.CreateAssignments(r.Context(), payload.PeriodID, payload.Assignments)
	if err != nil {
		writeError(w, err, "assign_failed", "failed to create assignments", requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, requestID, "assessment.assign", "assessment_period", payload.PeriodID, nil, ids)
	api.Created(w, map[string]any{"assignmentIds": ids}, requestID)
}

func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	periodID := strings.TrimSpace(r.URL.Query().Get("periodId"))
	if periodID != "" && !shared.ValidID(periodID) {
		shared.InvalidField(w, requestID, "periodId", "must be a valid id")
		return
	}
	progress, err := h.Service.Progress(r.Context(), periodID)
	if err != nil {
		writeError(w, err, "progress_failed", "failed to load progress", requestID)
		return
	}
	api.Success(w, progress, requestID)
}

func toSubmission(ratings []ratingPayload) assessment.Submission {
	sub := assessment.Submission{Ratings: make([]assessment.AspectRating, 0, len(ratings))}
	for _, r := range ratings {
		sub.Ratings = append(sub.Ratings, assessment.AspectRating{Aspect: r.Aspect, Rating: r.Rating, Comment: r.Comment})
	}
	return sub
}

func writeError(w http.ResponseWriter, err error, code, message, requestID string) {
	switch {
	case errors.Is(err, assessment.ErrAssignmentNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, assessment.ErrNotAssessor), errors.Is(err, assessment.ErrNotTeamMember):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), requestID)
	case errors.Is(err, assessment.ErrNoActivePeriod):
		api.Fail(w, http.StatusNotFound, "no_active_period", err.Error(), requestID)
	case errors.Is(err, assessment.ErrPeriodClosed):
		api.Fail(w, http.StatusConflict, "period_closed", err.Error(), requestID)
	case errors.Is(err, assessment.ErrUnknownAspect),
		errors.Is(err, assessment.ErrRatingOutOfRange),
		errors.Is(err, assessment.ErrDuplicateAspect),
		errors.Is(err, assessment.ErrEmptySubmission),
		errors.Is(err, assessment.ErrSelfAssessment),
		errors.Is(err, assessment.ErrCommentTooLong):
		api.Fail(w, http.StatusBadRequest, "invalid_submission", err.Error(), requestID)
	default:
		slog.Error(code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}
