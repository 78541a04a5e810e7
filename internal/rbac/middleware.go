package rbac

import (
	"log/slog"
	"net/http"

	"github.com/campusiq/campusiq/internal/platform/httpx"
)

// DecisionObserver receives the outcome of middleware authorization
// checks, typically backed by the observability package.
type DecisionObserver interface {
	ObserveDecision(check string, allowed bool, code string)
}

// Middleware wires RBAC authorization guards for HTTP handlers. The
// guards run after the auth middleware has placed a principal in the
// request context.
type Middleware struct {
	Logger   *slog.Logger
	Observer DecisionObserver
}

// RequirePermission gates a route on a (resource, action) pair from
// the static permission table.
func (m Middleware) RequirePermission(resource, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			decision := Authorize(p, resource, action)
			m.observe("permission", decision)
			if !decision.Allowed {
				m.deny(w, r, decision)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRoles gates a route on membership in the allowed role list.
func (m Middleware) RequireRoles(allowed ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			decision := AuthorizeRoles(p, allowed...)
			m.observe("role", decision)
			if !decision.Allowed {
				m.deny(w, r, decision)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) observe(check string, decision Decision) {
	if m.Observer != nil {
		m.Observer.ObserveDecision(check, decision.Allowed, decision.Code)
	}
}

func (m Middleware) deny(w http.ResponseWriter, r *http.Request, decision Decision) {
	if m.Logger != nil {
		m.Logger.Warn("authorization denied",
			slog.String("code", decision.Code),
			slog.String("path", r.URL.Path),
			slog.String("method", r.Method),
		)
	}
	if decision.Code == CodeAuthRequired {
		httpx.ProblemCode(w, http.StatusUnauthorized, "Unauthorized", decision.Reason, decision.Code)
		return
	}
	httpx.ProblemCode(w, http.StatusForbidden, "Forbidden", decision.Reason, decision.Code)
}
