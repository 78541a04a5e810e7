package audit

import (
	"context"
	"errors"
	"time"

	"github.com/campusiq/campusiq/internal/rbac"
	"github.com/campusiq/campusiq/internal/shared"
)

// ErrAccessDenied indicates the caller may not read the requested logs.
var ErrAccessDenied = errors.New("audit: access denied")

// QueryFilters are the caller-supplied filters for log listings.
type QueryFilters struct {
	CollegeID  string
	ActionType string
	EntityType string
	Severity   string
	From       time.Time
	To         time.Time
	Page       int
	PerPage    int
}

// Page wraps one page of records with pagination metadata.
type Page struct {
	Items  []Record          `json:"items"`
	Paging shared.Pagination `json:"paging"`
}

// Service mediates read access to the audit trail. Reads are
// role-gated: the trail itself is append-only and has no mutation path.
type Service struct {
	repo Repository
}

// NewService constructs the audit query service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Query returns a page of audit records visible to the caller.
// STUDENT, STAFF and FACULTY are denied outright. COLLEGE_ADMIN is
// always scoped to its own college regardless of requested filters.
// SUPER_ADMIN sees everything unless it supplies filters.
func (s *Service) Query(ctx context.Context, caller *rbac.Principal, filters QueryFilters) (Page, error) {
	if caller == nil {
		return Page{}, ErrAccessDenied
	}
	switch caller.Role {
	case rbac.RoleSuperAdmin:
	case rbac.RoleCollegeAdmin:
		filters.CollegeID = caller.CollegeID
	default:
		return Page{}, ErrAccessDenied
	}

	perPage := filters.PerPage
	if perPage <= 0 {
		perPage = 50
	}
	if perPage > 200 {
		perPage = 200
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	window := shared.Pagination{Page: page, PerPage: perPage}
	records, total, err := s.repo.ListLogs(ctx, ListParams{
		CollegeID:  filters.CollegeID,
		ActionType: filters.ActionType,
		EntityType: filters.EntityType,
		Severity:   filters.Severity,
		From:       filters.From,
		To:         filters.To,
		Limit:      perPage,
		Offset:     window.Offset(),
	})
	if err != nil {
		return Page{}, err
	}
	return Page{Items: records, Paging: shared.NewPagination(page, perPage, total)}, nil
}

// SecurityEvents surfaces security-relevant records. SUPER_ADMIN only.
func (s *Service) SecurityEvents(ctx context.Context, caller *rbac.Principal, from, to time.Time, limit int) ([]Record, error) {
	if caller == nil || caller.Role != rbac.RoleSuperAdmin {
		return nil, ErrAccessDenied
	}
	now := time.Now().UTC()
	if to.IsZero() {
		to = now
	}
	if from.IsZero() {
		from = to.Add(-7 * 24 * time.Hour)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.SecurityEvents(ctx, from, to, limit)
}

// LoginHistory returns session actions for one user. Non-admin roles
// may only view their own history.
func (s *Service) LoginHistory(ctx context.Context, caller *rbac.Principal, userID string, limit int) ([]Record, error) {
	if caller == nil {
		return nil, ErrAccessDenied
	}
	switch caller.Role {
	case rbac.RoleSuperAdmin, rbac.RoleCollegeAdmin:
	default:
		if caller.SubjectID != userID {
			return nil, ErrAccessDenied
		}
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.LoginHistory(ctx, userID, limit)
}
