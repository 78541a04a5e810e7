package audithttp

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/campusiq/campusiq/internal/audit"
	"github.com/campusiq/campusiq/internal/platform/httpx"
	"github.com/campusiq/campusiq/internal/rbac"
)

// Handler exposes read-only audit endpoints.
type Handler struct {
	logger  *slog.Logger
	service *audit.Service
}

// NewHandler constructs the audit HTTP handler.
func NewHandler(logger *slog.Logger, service *audit.Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers audit routes on the provided router. The guard
// pipeline (auth, tenant) runs before these handlers. Log and event
// listings are admin routes; the service scopes COLLEGE_ADMIN to its
// own college and restricts security events to SUPER_ADMIN. Login
// history stays open to every principal because the service limits
// low roles to their own records.
func (h *Handler) MountRoutes(r chi.Router, guard rbac.Middleware) {
	r.Group(func(gr chi.Router) {
		gr.Use(guard.RequireRoles(rbac.RoleCollegeAdmin))
		gr.Get("/logs", h.listLogs)
		gr.Get("/security-events", h.securityEvents)
	})
	r.Get("/logins/{user_id}", h.loginHistory)
}

func (h *Handler) listLogs(w http.ResponseWriter, r *http.Request) {
	caller := rbac.PrincipalFromContext(r.Context())
	q := r.URL.Query()
	filters := audit.QueryFilters{
		CollegeID:  q.Get("college_id"),
		ActionType: q.Get("action_type"),
		EntityType: q.Get("entity_type"),
		Severity:   q.Get("severity"),
		From:       parseTime(q.Get("from")),
		To:         parseTime(q.Get("to")),
		Page:       parseInt(q.Get("page")),
		PerPage:    parseInt(q.Get("per_page")),
	}
	page, err := h.service.Query(r.Context(), caller, filters)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) securityEvents(w http.ResponseWriter, r *http.Request) {
	caller := rbac.PrincipalFromContext(r.Context())
	q := r.URL.Query()
	events, err := h.service.SecurityEvents(r.Context(), caller, parseTime(q.Get("from")), parseTime(q.Get("to")), parseInt(q.Get("limit")))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": events, "total": len(events)})
}

func (h *Handler) loginHistory(w http.ResponseWriter, r *http.Request) {
	caller := rbac.PrincipalFromContext(r.Context())
	userID := chi.URLParam(r, "user_id")
	history, err := h.service.LoginHistory(r.Context(), caller, userID, parseInt(r.URL.Query().Get("limit")))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": history, "total": len(history)})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, audit.ErrAccessDenied) {
		httpx.ProblemCode(w, http.StatusForbidden, "Forbidden", "you do not have access to audit logs", rbac.CodePermissionDenied)
		return
	}
	if h.logger != nil {
		h.logger.Error("audit query", slog.Any("error", err))
	}
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseInt(value string) int {
	n, _ := strconv.Atoi(value)
	return n
}
