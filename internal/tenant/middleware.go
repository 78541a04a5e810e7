package tenant

import (
	"log/slog"
	"net/http"

	"github.com/campusiq/campusiq/internal/audit"
	"github.com/campusiq/campusiq/internal/platform/httpx"
	"github.com/campusiq/campusiq/internal/rbac"
)

// CodeReadOnlyScope marks a write attempted through a read-only scope.
const CodeReadOnlyScope = "READ_ONLY_SCOPE"

// Middleware resolves tenant scope for HTTP requests. It runs after
// the auth middleware and before any tenant-scoped handler.
type Middleware struct {
	Resolver *Resolver
	Logger   *slog.Logger
}

// Resolve derives the tenant scope from the principal and the
// requested tenant and stores it in the request context. Resolution
// failures are terminal 403s.
func (m Middleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := rbac.PrincipalFromContext(r.Context())
		if p == nil {
			httpx.ProblemCode(w, http.StatusUnauthorized, "Unauthorized", "authentication required", rbac.CodeAuthRequired)
			return
		}
		requested := RequestedTenant(r)
		tc, err := m.Resolver.Resolve(r.Context(), p, requested, audit.OriginFromRequest(r))
		if err != nil {
			httpx.ProblemCode(w, http.StatusForbidden, "Forbidden", err.Detail, err.Code)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithScope(r.Context(), tc)))
	})
}

// RequireWrite rejects mutating verbs issued through a read-only
// scope. Super admins browse tenant data but never change it here.
func (m Middleware) RequireWrite(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if mutating(r.Method) {
			tc, ok := ScopeFromContext(r.Context())
			if !ok || !tc.CanWrite {
				if m.Logger != nil {
					m.Logger.Warn("write rejected on read-only scope",
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
					)
				}
				httpx.ProblemCode(w, http.StatusForbidden, "Forbidden", "this scope is read-only", CodeReadOnlyScope)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
