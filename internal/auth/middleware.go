package auth

import (
	"net/http"
	"strings"

	"github.com/campusiq/campusiq/internal/audit"
	"github.com/campusiq/campusiq/internal/platform/httpx"
	"github.com/campusiq/campusiq/internal/rbac"
)

// Middleware authenticates bearer credentials and places the resolved
// principal into the request context. It is the first stage of the
// guard pipeline; tenant and permission guards run after it.
type Middleware struct {
	Service *Service
}

// Require rejects requests without a valid access credential.
func (m Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := BearerToken(r)
		principal, err := m.Service.Authenticate(r.Context(), raw, audit.OriginFromRequest(r))
		if err != nil {
			httpx.ProblemCode(w, http.StatusUnauthorized, "Unauthorized", err.Detail, err.Code)
			return
		}
		next.ServeHTTP(w, r.WithContext(rbac.ContextWithPrincipal(r.Context(), principal)))
	})
}

// BearerToken extracts the credential from the Authorization header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
