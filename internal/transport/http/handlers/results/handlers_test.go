package resultshandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"feedbackportal/internal/domain/auth"
	"feedbackportal/internal/domain/results"
	"feedbackportal/internal/transport/http/api"
	"feedbackportal/internal/transport/http/middleware"
)

const (
	aniID    = "11111111-1111-1111-1111-111111111111"
	budiID   = "22222222-2222-2222-2222-222222222222"
	periodID = "cccccccc-cccc-cccc-cccc-cccccccccccc"
)

type fakeService struct {
	public  map[string]bool
	failAll bool
}

func (f *fakeService) UserResults(_ context.Context, userID, periodID string) (results.UserResult, error) {
	if userID != aniID && userID != budiID {
		return results.UserResult{}, results.ErrUserNotFound
	}
	score := 82.5
	return results.UserResult{UserID: userID, PeriodID: periodID, Result: results.WeightedResult{OverallScore: &score, TotalFeedback: 3}, Label: "82.50"}, nil
}

func (f *fakeService) CanView(_ context.Context, viewerID, targetID string) (bool, error) {
	if f.failAll {
		return false, errors.New("roles unavailable")
	}
	return viewerID == targetID || f.public[targetID], nil
}

func (f *fakeService) Ranking(_ context.Context, periodID string) ([]results.RankingEntry, error) {
	if periodID != "cccccccc-cccc-cccc-cccc-cccccccccccc" {
		return nil, results.ErrPeriodNotFound
	}
	return []results.RankingEntry{{Rank: 1, UserID: aniID}}, nil
}

func (f *fakeService) History(context.Context, string) ([]results.HistoryEntry, error) {
	return []results.HistoryEntry{{PeriodID: periodID, Month: 7, Year: 2025}}, nil
}

func (f *fakeService) Comments(context.Context, string, string) ([]results.Comment, error) {
	return []results.Comment{{Aspect: "Akuntabel", Comment: "Tepat waktu"}}, nil
}

func (f *fakeService) ReportPDF(context.Context, string, string) ([]byte, error) {
	return []byte("%PDF-1.3"), nil
}

type rolePerms map[string]string

func (p rolePerms) HasPermission(_ context.Context, userID, permission string) (bool, error) {
	return auth.RoleHasPermission(p[userID], permission), nil
}

func newRouter(svc *fakeService, userID string) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: userID}))
			next.ServeHTTP(w, req)
		})
	})
	NewHandler(svc, rolePerms{aniID: auth.RoleUser, budiID: auth.RoleUser, "admin": auth.RoleAdmin}).RegisterRoutes(r)
	return r
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestOwnResults(t *testing.T) {
	router := newRouter(&fakeService{}, aniID)
	rec := get(router, "/results/me?periodId="+periodID)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var env api.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Data.(map[string]any)["label"] != "82.50" {
		t.Fatalf("unexpected data %v", env.Data)
	}
	if rec := get(router, "/results/me?periodId=juli"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed period, got %d", rec.Code)
	}
	if rec := get(router, "/results/me/comments"); rec.Code != http.StatusOK {
		t.Fatalf("expected comments, got %d", rec.Code)
	}
	if rec := get(router, "/results/me/history"); rec.Code != http.StatusOK {
		t.Fatalf("expected history, got %d", rec.Code)
	}
}

func TestOtherUsersResultsVisibility(t *testing.T) {
	svc := &fakeService{public: map[string]bool{}}
	router := newRouter(svc, aniID)
	if rec := get(router, "/results/users/"+budiID); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for private profile, got %d", rec.Code)
	}
	svc.public[budiID] = true
	if rec := get(router, "/results/users/"+budiID); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for public profile, got %d", rec.Code)
	}
	svc.failAll = true
	if rec := get(router, "/results/users/"+budiID); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when roles cannot be resolved, got %d", rec.Code)
	}
}

func TestReportPDF(t *testing.T) {
	rec := get(newRouter(&fakeService{}, aniID), "/results/me/report.pdf")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("unexpected response %d %v", rec.Code, rec.Header())
	}
	if rec.Body.String() != "%PDF-1.3" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestRankingIsAdminOnly(t *testing.T) {
	if rec := get(newRouter(&fakeService{}, aniID), "/results/ranking?periodId="+periodID); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	admin := newRouter(&fakeService{}, "admin")
	if rec := get(admin, "/results/ranking?periodId="+periodID); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := get(admin, "/results/ranking?periodId=dddddddd-dddd-dddd-dddd-dddddddddddd"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := get(admin, "/results/ranking"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without period, got %d", rec.Code)
	}
}
