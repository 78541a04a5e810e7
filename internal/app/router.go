package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	audithttp "github.com/campusiq/campusiq/internal/audit/http"
	"github.com/campusiq/campusiq/internal/auth"
	"github.com/campusiq/campusiq/internal/observability"
	"github.com/campusiq/campusiq/internal/rbac"
	"github.com/campusiq/campusiq/internal/tenant"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	AuthHandler      *auth.Handler
	AuditHandler     *audithttp.Handler
	AuthMiddleware   auth.Middleware
	TenantMiddleware tenant.Middleware
	RBACMiddleware   rbac.Middleware
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with CampusIQ defaults. Guards
// run in a fixed order on protected routes: bearer resolution, tenant
// scope resolution, then permission checks.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/auth", func(ar chi.Router) {
			params.AuthHandler.MountRoutes(ar)
			ar.Group(func(protected chi.Router) {
				protected.Use(params.AuthMiddleware.Require)
				params.AuthHandler.MountProtectedRoutes(protected)
			})
		})

		api.Group(func(protected chi.Router) {
			protected.Use(params.AuthMiddleware.Require)
			protected.Use(params.TenantMiddleware.Resolve)
			protected.Use(params.TenantMiddleware.RequireWrite)

			protected.Route("/audit", func(ar chi.Router) {
				params.AuditHandler.MountRoutes(ar, params.RBACMiddleware)
			})
		})
	})

	return r
}
