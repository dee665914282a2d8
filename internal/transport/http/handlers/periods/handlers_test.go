package periodshandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"feedbackportal/internal/domain/auth"
	"feedbackportal/internal/domain/periods"
	"feedbackportal/internal/transport/http/api"
	"feedbackportal/internal/transport/http/middleware"
)

const periodID = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"

type fakeService struct {
	periods  []periods.Period
	quarters map[periods.QuarterKey]bool
	active   string
}

func newFakeService() *fakeService {
	return &fakeService{
		periods: []periods.Period{{
			ID: periodID, Month: 7, Year: 2025,
			StartDate: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC),
		}},
		quarters: map[periods.QuarterKey]bool{},
	}
}

func (f *fakeService) List(context.Context) ([]periods.Period, error) { return f.periods, nil }

func (f *fakeService) Get(_ context.Context, id string) (periods.Period, error) {
	for _, p := range f.periods {
		if p.ID == id {
			p.IsActive = p.ID == f.active
			return p, nil
		}
	}
	return periods.Period{}, periods.ErrPeriodNotFound
}

func (f *fakeService) Active(ctx context.Context) (periods.Period, error) {
	if f.active == "" {
		return periods.Period{}, periods.ErrPeriodNotFound
	}
	return f.Get(ctx, f.active)
}

func (f *fakeService) Create(_ context.Context, in periods.PeriodInput) (periods.Period, error) {
	for _, p := range f.periods {
		if p.Year == in.Year && p.Month == in.Month {
			return periods.Period{}, periods.ErrPeriodExists
		}
	}
	p := periods.Period{ID: "new", Month: in.Month, Year: in.Year}
	f.periods = append(f.periods, p)
	return p, nil
}

func (f *fakeService) Activate(ctx context.Context, id string) error {
	if _, err := f.Get(ctx, id); err != nil {
		return err
	}
	f.active = id
	return nil
}

func (f *fakeService) Complete(ctx context.Context, id string) (int, error) {
	if _, err := f.Get(ctx, id); err != nil {
		return 0, err
	}
	return 3, nil
}

func (f *fakeService) Delete(ctx context.Context, id string) error {
	_, err := f.Get(ctx, id)
	return err
}

func (f *fakeService) Quarters(context.Context) ([]periods.Quarter, error) {
	return periods.GroupQuarters(f.periods, time.Now()), nil
}

func (f *fakeService) Quarter(ctx context.Context, key periods.QuarterKey) (periods.Quarter, error) {
	list, _ := f.Quarters(ctx)
	for _, q := range list {
		if q.Key == key {
			return q, nil
		}
	}
	return periods.Quarter{}, periods.ErrQuarterNotFound
}

func (f *fakeService) CreateQuarter(_ context.Context, in periods.QuarterInput) (periods.Quarter, error) {
	start, end, err := periods.ResolveRange(in)
	if err != nil {
		return periods.Quarter{}, err
	}
	f.quarters[in.Key] = true
	return periods.Quarter{Key: in.Key, StartDate: start, EndDate: end, Persisted: true, Months: in.Key.Months()}, nil
}

func (f *fakeService) ReplaceQuarter(ctx context.Context, in periods.QuarterInput) (periods.Quarter, periods.CascadeResult, error) {
	q, err := f.CreateQuarter(ctx, in)
	return q, periods.CascadeResult{PeriodIDs: []string{periodID}, Deleted: 1}, err
}

func (f *fakeService) DeleteQuarter(_ context.Context, key periods.QuarterKey) (periods.CascadeResult, error) {
	if !f.quarters[key] {
		return periods.CascadeResult{}, periods.ErrQuarterNotFound
	}
	delete(f.quarters, key)
	return periods.CascadeResult{}, nil
}

type rolePerms map[string]string

func (p rolePerms) HasPermission(_ context.Context, userID, permission string) (bool, error) {
	return auth.RoleHasPermission(p[userID], permission), nil
}

type fakeAuditor struct {
	actions []string
}

func (a *fakeAuditor) Record(_ context.Context, _, action, _, _, _, _ string, _, _ any) error {
	a.actions = append(a.actions, action)
	return nil
}

func newRouter(svc *fakeService, auditor *fakeAuditor, userID string) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: userID}))
			next.ServeHTTP(w, req)
		})
	})
	NewHandler(svc, rolePerms{"admin": auth.RoleAdmin, "staff": auth.RoleUser}, auditor).RegisterRoutes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, api.Envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	var env api.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	return rec, env
}

func TestCreateQuarter(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "full quarter", body: `{"year":2025,"quarter":3}`, want: http.StatusCreated},
		{name: "custom range", body: `{"year":2025,"quarter":3,"start_date":"2025-07-15","end_date":"2025-09-10"}`, want: http.StatusCreated},
		{name: "range outside quarter", body: `{"year":2025,"quarter":3,"start_date":"2025-06-15"}`, want: http.StatusBadRequest},
		{name: "reversed range", body: `{"year":2025,"quarter":3,"start_date":"2025-09-15","end_date":"2025-08-01"}`, want: http.StatusBadRequest},
		{name: "bad quarter", body: `{"year":2025,"quarter":5}`, want: http.StatusBadRequest},
		{name: "bad date", body: `{"year":2025,"quarter":3,"start_date":"15/07/2025"}`, want: http.StatusBadRequest},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			rec, _ := do(t, newRouter(newFakeService(), &fakeAuditor{}, "admin"), http.MethodPost, "/admin/triwulan", tc.body)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestQuarterAdminRequiresPermission(t *testing.T) {
	rec, _ := do(t, newRouter(newFakeService(), &fakeAuditor{}, "staff"), http.MethodPost, "/admin/triwulan", `{"year":2025,"quarter":3}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestReplaceAndDeleteQuarter(t *testing.T) {
	svc := newFakeService()
	auditor := &fakeAuditor{}
	router := newRouter(svc, auditor, "admin")

	rec, _ := do(t, router, http.MethodDelete, "/admin/triwulan/2025-Q3", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before creation, got %d", rec.Code)
	}

	rec, env := do(t, router, http.MethodPatch, "/admin/triwulan/2025-Q3", `{"start_date":"2025-07-07"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	data := env.Data.(map[string]any)
	if data["cascade"].(map[string]any)["deletedPeriods"].(float64) != 1 {
		t.Fatalf("expected cascade result, got %v", data)
	}

	rec, _ = do(t, router, http.MethodDelete, "/admin/triwulan/2025-Q3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec, _ = do(t, router, http.MethodDelete, "/admin/triwulan/2025-3", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed key, got %d", rec.Code)
	}
	if len(auditor.actions) != 2 {
		t.Fatalf("expected two audit events, got %v", auditor.actions)
	}
}

func TestPeriodLifecycle(t *testing.T) {
	svc := newFakeService()
	router := newRouter(svc, &fakeAuditor{}, "admin")

	rec, _ := do(t, router, http.MethodPost, "/admin/periods", `{"month":7,"year":2025}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate month, got %d", rec.Code)
	}
	rec, _ = do(t, router, http.MethodPost, "/admin/periods", `{"month":13,"year":2025}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for month 13, got %d", rec.Code)
	}
	rec, _ = do(t, router, http.MethodPost, "/admin/periods", `{"month":8,"year":2025,"start_date":"2025-08-05","end_date":"2025-08-01"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for reversed dates, got %d", rec.Code)
	}

	rec, env := do(t, router, http.MethodPost, "/admin/periods/"+periodID+"/activate", "")
	if rec.Code != http.StatusOK || !env.Data.(map[string]any)["isActive"].(bool) {
		t.Fatalf("expected activated period, got %d %v", rec.Code, env.Data)
	}
	rec, _ = do(t, router, http.MethodGet, "/periods/active", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected active period, got %d", rec.Code)
	}
	rec, _ = do(t, router, http.MethodPost, "/admin/periods/bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb/complete", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	rec, _ = do(t, router, http.MethodGet, "/quarters/2025-Q3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected quarter, got %d", rec.Code)
	}
}
