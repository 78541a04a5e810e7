package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/campusiq/campusiq/internal/app"
	"github.com/campusiq/campusiq/internal/audit"
	audithttp "github.com/campusiq/campusiq/internal/audit/http"
	"github.com/campusiq/campusiq/internal/auth"
	"github.com/campusiq/campusiq/internal/observability"
	"github.com/campusiq/campusiq/internal/platform/cache"
	"github.com/campusiq/campusiq/internal/platform/db"
	"github.com/campusiq/campusiq/internal/rbac"
	"github.com/campusiq/campusiq/internal/security"
	"github.com/campusiq/campusiq/internal/tenant"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	recorder := audit.NewRecorder(pool, logger)
	monitor := security.NewMonitor(security.NewRedisStore(redisClient), recorder, metrics, logger, int64(cfg.SuspiciousThreshold))

	codec := auth.NewCodec(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, codec, monitor, recorder, logger)
	authHandler := auth.NewHandler(logger, authService)

	auditService := audit.NewService(audit.NewRepository(pool))
	auditHandler := audithttp.NewHandler(logger, auditService)

	tenantResolver := tenant.NewResolver(recorder, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AuthHandler:      authHandler,
		AuditHandler:     auditHandler,
		AuthMiddleware:   auth.Middleware{Service: authService},
		TenantMiddleware: tenant.Middleware{Resolver: tenantResolver, Logger: logger},
		RBACMiddleware:   rbac.Middleware{Logger: logger, Observer: metrics},
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.AppRequestTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", slog.Any("error", err))
		}
	}()

	logger.Info("campusiq listening", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("serve", slog.Any("error", err))
		os.Exit(1)
	}
}
