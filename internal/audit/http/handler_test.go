package audithttp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/campusiq/campusiq/internal/audit"
	"github.com/campusiq/campusiq/internal/rbac"
)

type stubRepo struct {
	lastList audit.ListParams
	lastUser string
}

func (s *stubRepo) ListLogs(ctx context.Context, params audit.ListParams) ([]audit.Record, int, error) {
	s.lastList = params
	return []audit.Record{{LogID: "l1", ActionType: audit.ActionLogin, Severity: audit.SeverityInfo}}, 1, nil
}

func (s *stubRepo) SecurityEvents(ctx context.Context, from, to time.Time, limit int) ([]audit.Record, error) {
	return nil, nil
}

func (s *stubRepo) LoginHistory(ctx context.Context, userID string, limit int) ([]audit.Record, error) {
	s.lastUser = userID
	return []audit.Record{{LogID: "l2", ActionType: audit.ActionLogin}}, nil
}

// newTestRouter mirrors the serving wiring: the audit routes mounted
// with the role guard, behind a middleware that stamps the given
// principal into the request context.
func newTestRouter(repo *stubRepo, p *rbac.Principal) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, audit.NewService(repo))
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(rbac.ContextWithPrincipal(req.Context(), p)))
		})
	})
	r.Route("/audit", func(ar chi.Router) {
		h.MountRoutes(ar, rbac.Middleware{Logger: logger})
	})
	return r
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func problemCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode problem body: %v", err)
	}
	return body.Code
}

func TestLogsReachableByCollegeAdmin(t *testing.T) {
	repo := &stubRepo{}
	router := newTestRouter(repo, &rbac.Principal{SubjectID: "u1", Role: rbac.RoleCollegeAdmin, CollegeID: "c1"})

	rec := get(t, router, "/audit/logs?college_id=c2")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for COLLEGE_ADMIN, got %d body %s", rec.Code, rec.Body.String())
	}
	if repo.lastList.CollegeID != "c1" {
		t.Fatalf("expected listing forced to own college, got %q", repo.lastList.CollegeID)
	}
}

func TestLogsDeniedForLowRoles(t *testing.T) {
	for _, role := range []rbac.Role{rbac.RoleFaculty, rbac.RoleStaff, rbac.RoleStudent} {
		router := newTestRouter(&stubRepo{}, &rbac.Principal{SubjectID: "u1", Role: role, CollegeID: "c1"})
		rec := get(t, router, "/audit/logs")
		if rec.Code != http.StatusForbidden {
			t.Fatalf("role %s: expected 403, got %d", role, rec.Code)
		}
		if code := problemCode(t, rec); code != rbac.CodeInsufficientRole {
			t.Fatalf("role %s: expected code %s, got %s", role, rbac.CodeInsufficientRole, code)
		}
	}
}

func TestSecurityEventsGatePassesAdminServiceDenies(t *testing.T) {
	router := newTestRouter(&stubRepo{}, &rbac.Principal{SubjectID: "u1", Role: rbac.RoleCollegeAdmin, CollegeID: "c1"})
	rec := get(t, router, "/audit/security-events")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for COLLEGE_ADMIN security events, got %d", rec.Code)
	}
	if code := problemCode(t, rec); code != rbac.CodePermissionDenied {
		t.Fatalf("expected code %s, got %s", rbac.CodePermissionDenied, code)
	}

	router = newTestRouter(&stubRepo{}, &rbac.Principal{SubjectID: "root", Role: rbac.RoleSuperAdmin})
	if rec := get(t, router, "/audit/security-events"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for SUPER_ADMIN, got %d", rec.Code)
	}
}

func TestLoginHistoryReachableBySelf(t *testing.T) {
	repo := &stubRepo{}
	router := newTestRouter(repo, &rbac.Principal{SubjectID: "u1", Role: rbac.RoleStudent, CollegeID: "c1"})

	if rec := get(t, router, "/audit/logins/u1"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for own history, got %d body %s", rec.Code, rec.Body.String())
	}
	if repo.lastUser != "u1" {
		t.Fatalf("expected lookup for u1, got %q", repo.lastUser)
	}

	rec := get(t, router, "/audit/logins/u2")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for someone else's history, got %d", rec.Code)
	}
}
