package periodshandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"feedbackportal/internal/domain/auth"
	"feedbackportal/internal/domain/periods"
	"feedbackportal/internal/transport/http/api"
	"feedbackportal/internal/transport/http/middleware"
	"feedbackportal/internal/transport/http/shared"
)

type Service interface {
	List(ctx context.Context) ([]periods.Period, error)
	Get(ctx context.Context, periodID string) (periods.Period, error)
	Active(ctx context.Context) (periods.Period, error)
	Create(ctx context.Context, in periods.PeriodInput) (periods.Period, error)
	Activate(ctx context.Context, periodID string) error
	Complete(ctx context.Context, periodID string) (int, error)
	Delete(ctx context.Context, periodID string) error
	Quarters(ctx context.Context) ([]periods.Quarter, error)
	Quarter(ctx context.Context, key periods.QuarterKey) (periods.Quarter, error)
	CreateQuarter(ctx context.Context, in periods.QuarterInput) (periods.Quarter, error)
	ReplaceQuarter(ctx context.Context, in periods.QuarterInput) (periods.Quarter, periods.CascadeResult, error)
	DeleteQuarter(ctx context.Context, key periods.QuarterKey) (periods.CascadeResult, error)
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
	r.With(middleware.RequireAuth).Get("/periods", h.handleList)
	r.With(middleware.RequireAuth).Get("/periods/active", h.handleActive)
	r.With(middleware.RequireAuth).Get("/quarters", h.handleQuarters)
	r.With(middleware.RequireAuth).Get("/quarters/{quarterKey}", h.handleQuarter)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermPeriodsManage, h.Perms))
		r.Post("/admin/periods", h.handleCreate)
		r.Post("/admin/periods/{periodID}/activate", h.handleActivate)
		r.Post("/admin/periods/{periodID}/complete", h.handleComplete)
		r.Delete("/admin/periods/{periodID}", h.handleDelete)
		r.Post("/admin/triwulan", h.handleCreateQuarter)
		r.Patch("/admin/triwulan/{quarterKey}", h.handleReplaceQuarter)
		r.Delete("/admin/triwulan/{quarterKey}", h.handleDeleteQuarter)
	})
}

type periodRequest struct {
	Month     int    `json:"month" validate:"required,gte=1,lte=12"`
	Year      int    `json:"year" validate:"required,gte=2000,lte=9999"`
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

type quarterRequest struct {
	Year      int    `json:"year" validate:"required,gte=2000,lte=9999"`
	Quarter   int    `json:"quarter" validate:"required,gte=1,lte=4"`
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

type replaceQuarterRequest struct {
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	list, err := h.Service.List(r.Context())
	if err != nil {
		writeError(w, err, "periods_failed", "failed to list periods", requestID)
		return
	}
	api.Success(w, list, requestID)
}

func (h *Handler) handleActive(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	period, err := h.Service.Active(r.Context())
	if err != nil {
		writeError(w, err, "period_failed", "failed to load active period", requestID)
		return
	}
	api.Success(w, period, requestID)
}

func (h *Handler) handleQuarters(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	list, err := h.Service.Quarters(r.Context())
	if err != nil {
		writeError(w, err, "quarters_failed", "failed to list quarters", requestID)
		return
	}
	api.Success(w, list, requestID)
}

func (h *Handler) handleQuarter(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	key, err := periods.ParseQuarterKey(chi.URLParam(r, "quarterKey"))
	if err != nil {
		writeError(w, err, "", "", requestID)
		return
	}
	quarter, err := h.Service.Quarter(r.Context(), key)
	if err != nil {
		writeError(w, err, "quarter_failed", "failed to load quarter", requestID)
		return
	}
	api.Success(w, quarter, requestID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	var payload periodRequest
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}
	in := periods.PeriodInput{Month: payload.Month, Year: payload.Year}
	if payload.StartDate != "" || payload.EndDate != "" {
		v := shared.NewValidator()
		start, _ := v.Date("start_date", payload.StartDate)
		end, _ := v.Date("end_date", payload.EndDate)
		v.DateOrder("start_date", start, "end_date", end)
		if v.HasIssues() {
			shared.FailValidation(w, requestID, v.Issues())
			return
		}
		in.StartDate, in.EndDate = start, end
	}
	period, err := h.Service.Create(r.Context(), in)
	if err != nil {
		writeError(w, err, "period_create_failed", "failed to create period", requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, requestID, "period.create", "assessment_period", period.ID, nil, period)
	api.Created(w, period, requestID)
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	h.periodAction(w, r, "period.activate", func(ctx context.Context, id string) (any, error) {
		if err := h.Service.Activate(ctx, id); err != nil {
			return nil, err
		}
		return h.Service.Get(ctx, id)
	})
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	h.periodAction(w, r, "period.complete", func(ctx context.Context, id string) (any, error) {
		snapshots, err := h.Service.Complete(ctx, id)
		if err != nil {
			return nil, err
		}
		return map[string]any{"periodId": id, "historySnapshots": snapshots}, nil
	})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	h.periodAction(w, r, "period.delete", func(ctx context.Context, id string) (any, error) {
		if err := h.Service.Delete(ctx, id); err != nil {
			return nil, err
		}
		return map[string]string{"status": "deleted"}, nil
	})
}

func (h *Handler) periodAction(w http.ResponseWriter, r *http.Request, action string, fn func(ctx context.Context, id string) (any, error)) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	periodID := chi.URLParam(r, "periodID")
	if !shared.ValidID(periodID) {
		api.Fail(w, http.StatusNotFound, "not_found", periods.ErrPeriodNotFound.Error(), requestID)
		return
	}
	out, err := fn(r.Context(), periodID)
	if err != nil {
		writeError(w, err, "period_update_failed", "failed to update period", requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, requestID, action, "assessment_period", periodID, nil, out)
	api.Success(w, out, requestID)
}

func (h *Handler) handleCreateQuarter(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	var payload quarterRequest
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}
	in, ok := quarterInput(w, requestID, periods.QuarterKey{Year: payload.Year, Quarter: payload.Quarter}, payload.StartDate, payload.EndDate)
	if !ok {
		return
	}
	quarter, err := h.Service.CreateQuarter(r.Context(), in)
	if err != nil {
		writeError(w, err, "quarter_create_failed", "failed to create quarter", requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, requestID, "quarter.create", "triwulan_period", in.Key.String(), nil, quarter)
	api.Created(w, quarter, requestID)
}

func (h *Handler) handleReplaceQuarter(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	key, err := periods.ParseQuarterKey(chi.URLParam(r, "quarterKey"))
	if err != nil {
		writeError(w, err, "", "", requestID)
		return
	}
	var payload replaceQuarterRequest
	if !shared.DecodeAndValidate(w, r, &payload, requestID) {
		return
	}
	in, ok := quarterInput(w, requestID, key, payload.StartDate, payload.EndDate)
	if !ok {
		return
	}
	quarter, result, err := h.Service.ReplaceQuarter(r.Context(), in)
	if err != nil {
		writeError(w, err, "quarter_update_failed", "failed to update quarter", requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, requestID, "quarter.replace", "triwulan_period", key.String(), result.PeriodIDs, quarter)
	api.Success(w, map[string]any{"quarter": quarter, "cascade": result}, requestID)
}

func (h *Handler) handleDeleteQuarter(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	key, err := periods.ParseQuarterKey(chi.URLParam(r, "quarterKey"))
	if err != nil {
		writeError(w, err, "", "", requestID)
		return
	}
	result, err := h.Service.DeleteQuarter(r.Context(), key)
	if err != nil {
		writeError(w, err, "quarter_delete_failed", "failed to delete quarter", requestID)
		return
	}
	shared.RecordAudit(r, h.Audit, user.UserID, requestID, "quarter.delete", "triwulan_period", key.String(), result, nil)
	api.Success(w, result, requestID)
}

// quarterInput parses the optional custom bounds. A missing bound defaults to the quarter edge.
func quarterInput(w http.ResponseWriter, requestID string, key periods.QuarterKey, rawStart, rawEnd string) (periods.QuarterInput, bool) {
	in := periods.QuarterInput{Key: key}
	v := shared.NewValidator()
	if rawStart != "" {
		if start, ok := v.Date("start_date", rawStart); ok {
			in.StartDate = &start
		}
	}
	if rawEnd != "" {
		if end, ok := v.Date("end_date", rawEnd); ok {
			in.EndDate = &end
		}
	}
	if v.HasIssues() {
		shared.FailValidation(w, requestID, v.Issues())
		return in, false
	}
	return in, true
}

func writeError(w http.ResponseWriter, err error, code, message, requestID string) {
	switch {
	case errors.Is(err, periods.ErrPeriodNotFound), errors.Is(err, periods.ErrQuarterNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, periods.ErrPeriodExists):
		api.Fail(w, http.StatusConflict, "period_exists", err.Error(), requestID)
	case errors.Is(err, periods.ErrInvalidQuarter),
		errors.Is(err, periods.ErrInvalidRange),
		errors.Is(err, periods.ErrRangeOutsideQuarter),
		errors.Is(err, periods.ErrInvalidMonth):
		api.Fail(w, http.StatusBadRequest, "invalid_period", err.Error(), requestID)
	default:
		slog.Error(code, "err", err)
		api.Fail(w, http.StatusInternalServerError, code, message, requestID)
	}
}
