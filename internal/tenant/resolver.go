package tenant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/campusiq/campusiq/internal/audit"
	"github.com/campusiq/campusiq/internal/rbac"
)

// HeaderTenantID names the explicit tenant override header.
const HeaderTenantID = "X-Tenant-ID"

// requestedBodyLimit bounds how much of a request body the resolver
// will inspect when sniffing a college_id field.
const requestedBodyLimit = 1 << 20

// Recorder is the slice of the audit recorder the resolver uses.
type Recorder interface {
	Record(ctx context.Context, e audit.Entry) bool
}

// Resolver derives the effective tenant scope for a request from the
// principal's claims and the tenant the caller asked for.
type Resolver struct {
	recorder Recorder
	logger   *slog.Logger
}

// NewResolver constructs a Resolver. The recorder may be nil; denials
// are then logged but not recorded in the trail.
func NewResolver(recorder Recorder, logger *slog.Logger) *Resolver {
	return &Resolver{recorder: recorder, logger: logger}
}

// Resolve maps a principal and a requested tenant onto a Context.
//
// Super admins always succeed: they receive the requested tenant as
// their effective scope (empty means platform-wide) and never hold
// write access through it. Everyone else is pinned to their own
// tenant; asking for a different one is denied and recorded as a
// security event.
func (r *Resolver) Resolve(ctx context.Context, p *rbac.Principal, requested string, origin audit.Origin) (Context, *Error) {
	if p == nil {
		return Context{}, ErrNoTenantAssociation
	}
	if p.IsSuperAdmin() {
		return Context{CollegeID: requested, IsSuperAdmin: true, CanWrite: false}, nil
	}
	if p.CollegeID == "" {
		if r.logger != nil {
			r.logger.Warn("active account has no tenant association",
				slog.String("user_id", p.SubjectID),
				slog.String("role", string(p.Role)),
			)
		}
		return Context{}, ErrNoTenantAssociation
	}
	if requested != "" && requested != p.CollegeID {
		r.recordCrossTenant(ctx, p, requested, origin)
		return Context{}, ErrCrossTenantDenied
	}
	return Context{CollegeID: p.CollegeID, CanWrite: true}, nil
}

func (r *Resolver) recordCrossTenant(ctx context.Context, p *rbac.Principal, requested string, origin audit.Origin) {
	if r.logger != nil {
		r.logger.Warn("cross-tenant access denied",
			slog.String("user_id", p.SubjectID),
			slog.String("own_college", p.CollegeID),
			slog.String("requested_college", requested),
			slog.String("ip", origin.IPAddress),
		)
	}
	if r.recorder == nil {
		return
	}
	r.recorder.Record(ctx, audit.Entry{
		CollegeID:  p.CollegeID,
		ActorID:    p.SubjectID,
		ActorEmail: p.Email,
		ActorRole:  string(p.Role),
		ActionType: audit.ActionCrossTenant,
		EntityType: "college",
		EntityID:   requested,
		Summary:    fmt.Sprintf("attempted access to college %s from college %s", requested, p.CollegeID),
		Origin:     origin,
		Severity:   audit.SeverityWarning,
	})
}

// RequestedTenant extracts the tenant the caller asked for. Precedence
// is header, then path parameter, then query, then JSON body field;
// the first non-empty source wins. The body read leaves r.Body intact
// for downstream decoders.
func RequestedTenant(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(HeaderTenantID)); v != "" {
		return v
	}
	if v := chi.URLParam(r, "college_id"); v != "" {
		return v
	}
	if v := strings.TrimSpace(r.URL.Query().Get("college_id")); v != "" {
		return v
	}
	return tenantFromBody(r)
}

func tenantFromBody(r *http.Request) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}
	if ct := r.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, requestedBodyLimit))
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return ""
	}
	var payload struct {
		CollegeID string `json:"college_id"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.CollegeID)
}

// ScopeFilter renders the tenant predicate data-access code must AND
// into tenant-scoped queries. argIndex is the positional index the
// first bound argument should use. Soft-deleted rows are always
// excluded; a platform-wide super-admin read adds no tenant clause.
func ScopeFilter(tc Context, argIndex int) (string, []any) {
	if !tc.Scoped() {
		return "is_deleted = FALSE", nil
	}
	return fmt.Sprintf("college_id = $%d AND is_deleted = FALSE", argIndex), []any{tc.CollegeID}
}
