package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/campusiq/campusiq/internal/rbac"
)

type stubRepo struct {
	records       []Record
	total         int
	lastList      ListParams
	lastSecFrom   time.Time
	lastSecTo     time.Time
	lastHistoryID string
}

func (s *stubRepo) ListLogs(ctx context.Context, params ListParams) ([]Record, int, error) {
	s.lastList = params
	return s.records, s.total, nil
}

func (s *stubRepo) SecurityEvents(ctx context.Context, from, to time.Time, limit int) ([]Record, error) {
	s.lastSecFrom, s.lastSecTo = from, to
	return s.records, nil
}

func (s *stubRepo) LoginHistory(ctx context.Context, userID string, limit int) ([]Record, error) {
	s.lastHistoryID = userID
	return s.records, nil
}

func TestQueryDeniedForLowRoles(t *testing.T) {
	svc := NewService(&stubRepo{})
	for _, role := range []rbac.Role{rbac.RoleStudent, rbac.RoleStaff, rbac.RoleFaculty} {
		caller := &rbac.Principal{SubjectID: "u1", Role: role, CollegeID: "c1"}
		if _, err := svc.Query(context.Background(), caller, QueryFilters{Severity: SeverityWarning}); !errors.Is(err, ErrAccessDenied) {
			t.Fatalf("role %s: expected ErrAccessDenied, got %v", role, err)
		}
	}
	if _, err := svc.Query(context.Background(), nil, QueryFilters{}); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("nil caller: expected ErrAccessDenied, got %v", err)
	}
}

func TestQueryCollegeAdminForcedToOwnTenant(t *testing.T) {
	repo := &stubRepo{total: 1, records: []Record{{LogID: "l1"}}}
	svc := NewService(repo)
	caller := &rbac.Principal{SubjectID: "u1", Role: rbac.RoleCollegeAdmin, CollegeID: "c1"}
	// The requested filter names another tenant; the service must override it.
	if _, err := svc.Query(context.Background(), caller, QueryFilters{CollegeID: "c2"}); err != nil {
		t.Fatalf("query: %v", err)
	}
	if repo.lastList.CollegeID != "c1" {
		t.Fatalf("expected forced college c1, got %q", repo.lastList.CollegeID)
	}
}

func TestQuerySuperAdminUnfiltered(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)
	caller := &rbac.Principal{SubjectID: "u1", Role: rbac.RoleSuperAdmin}
	if _, err := svc.Query(context.Background(), caller, QueryFilters{}); err != nil {
		t.Fatalf("query: %v", err)
	}
	if repo.lastList.CollegeID != "" {
		t.Fatalf("expected no tenant filter, got %q", repo.lastList.CollegeID)
	}
	if _, err := svc.Query(context.Background(), caller, QueryFilters{CollegeID: "c2"}); err != nil {
		t.Fatalf("query: %v", err)
	}
	if repo.lastList.CollegeID != "c2" {
		t.Fatalf("expected supplied filter honored, got %q", repo.lastList.CollegeID)
	}
}

func TestQueryPaging(t *testing.T) {
	repo := &stubRepo{total: 120}
	svc := NewService(repo)
	caller := &rbac.Principal{SubjectID: "u1", Role: rbac.RoleSuperAdmin}
	page, err := svc.Query(context.Background(), caller, QueryFilters{Page: 3, PerPage: 10})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if repo.lastList.Limit != 10 || repo.lastList.Offset != 20 {
		t.Fatalf("expected limit 10 offset 20, got %d/%d", repo.lastList.Limit, repo.lastList.Offset)
	}
	if page.Paging.TotalPages != 12 {
		t.Fatalf("expected 12 pages, got %d", page.Paging.TotalPages)
	}
}

func TestSecurityEventsSuperAdminOnly(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)
	admin := &rbac.Principal{SubjectID: "u1", Role: rbac.RoleCollegeAdmin, CollegeID: "c1"}
	if _, err := svc.SecurityEvents(context.Background(), admin, time.Time{}, time.Time{}, 0); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied for COLLEGE_ADMIN, got %v", err)
	}
	super := &rbac.Principal{SubjectID: "u2", Role: rbac.RoleSuperAdmin}
	if _, err := svc.SecurityEvents(context.Background(), super, time.Time{}, time.Time{}, 0); err != nil {
		t.Fatalf("security events: %v", err)
	}
	if repo.lastSecTo.Sub(repo.lastSecFrom) != 7*24*time.Hour {
		t.Fatalf("expected default 7 day window, got %s", repo.lastSecTo.Sub(repo.lastSecFrom))
	}
}

func TestLoginHistorySelfOnlyForLowRoles(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)
	student := &rbac.Principal{SubjectID: "u1", Role: rbac.RoleStudent, CollegeID: "c1"}
	if _, err := svc.LoginHistory(context.Background(), student, "u2", 0); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if _, err := svc.LoginHistory(context.Background(), student, "u1", 0); err != nil {
		t.Fatalf("own history: %v", err)
	}
	if repo.lastHistoryID != "u1" {
		t.Fatalf("expected history for u1, got %q", repo.lastHistoryID)
	}
}
