package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/drac2606/django-data-monitor/internal/config"
	"github.com/drac2606/django-data-monitor/internal/database"
	"github.com/drac2606/django-data-monitor/internal/handlers"
	"github.com/drac2606/django-data-monitor/internal/middleware"
	"github.com/drac2606/django-data-monitor/internal/models"
	"github.com/drac2606/django-data-monitor/internal/render"
	"github.com/drac2606/django-data-monitor/internal/repositories"
	"github.com/drac2606/django-data-monitor/internal/services"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maintenanceInterval = time.Hour

// Server owns the echo instance and the background jobs that live as long as it
type Server struct {
	echo      *echo.Echo
	cfg       *config.Config
	limiter   *middleware.RateLimiter
	blacklist repositories.BlacklistedTokenRepositoryInterface
	audit     services.AuditServiceInterface
}

// New wires repositories, services and handlers onto a fresh echo instance.
// A nil registry publishes metrics on the prometheus default registry.
func New(cfg *config.Config, db *database.DB, registry *prometheus.Registry) (*Server, error) {
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if registry != nil {
		registerer, gatherer = registry, registry
	}

	renderer, err := render.New()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	userRepo := repositories.NewUserRepository(db.DB)
	auditRepo := repositories.NewAuditLogRepository(db.DB)
	blacklistRepo := repositories.NewBlacklistedTokenRepository(db.DB)

	metrics := services.NewPrometheusMetrics(registerer)
	events := services.NewAuditLogger(slog.Default())
	breaker := services.NewUpstreamCircuitBreaker(&cfg.Upstream, metrics, events)
	upstream := services.NewUpstreamService(&cfg.Upstream, breaker, metrics, events)
	dashboardService := services.NewDashboardService(upstream, metrics, events)
	tokenService := services.NewTokenService(&cfg.JWT)
	passwordService := services.NewPasswordService(cfg.Security.BCryptCost)
	authService := services.NewAuthService(userRepo, auditRepo, blacklistRepo, passwordService, tokenService, metrics, slog.Default())
	auditService := services.NewAuditService(auditRepo)

	dashboardHandler := handlers.NewDashboardHandler(dashboardService, auditService)
	authHandler := handlers.NewAuthHandler(authService, cfg.Security.CookieSecure)
	adminHandler := handlers.NewAdminHandler(userRepo, authService, auditService)
	healthHandler := handlers.NewHealthCheckHandler(db, breaker)

	limiter := middleware.NewRateLimiter(cfg.Security.RateLimitPerSecond, cfg.Security.RateLimitBurst)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.CustomHTTPErrorHandler
	e.Validator = handlers.NewValidator()
	e.Renderer = renderer

	e.Use(middleware.RequestID())
	e.Use(middleware.PanicRecovery())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.Server.CORSAllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			middleware.TraceIDHeader,
		},
		ExposeHeaders: []string{middleware.TraceIDHeader},
	}))
	e.Use(limiter.Middleware())

	e.GET("/health", healthHandler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	e.GET(handlers.LoginPath, authHandler.LoginForm)
	e.POST(handlers.LoginPath, authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout)

	requireAuth := middleware.RequireAuth(tokenService, blacklistRepo)
	canViewIndex := middleware.RequirePermission(models.PermissionIndexViewer, events)
	canViewReservations := middleware.RequirePermission(models.PermissionReservationsViewer, events)

	e.GET("/", dashboardHandler.Index, requireAuth, canViewIndex)
	e.GET("/reservations", dashboardHandler.Reservations, requireAuth, canViewReservations)

	api := e.Group("/api/v1")

	reports := api.Group("/reports", requireAuth)
	reports.GET("/posts", dashboardHandler.PostsJSON, canViewIndex)
	reports.GET("/reservations", dashboardHandler.ReservationsJSON, canViewReservations)

	admin := api.Group("/admin", requireAuth, middleware.RequireAdmin())
	admin.POST("/users", adminHandler.CreateUser)
	admin.GET("/users", adminHandler.ListUsers)
	admin.GET("/users/:userId", adminHandler.GetUserByID)
	admin.PUT("/users/:userId/permissions", adminHandler.UpdatePermissions)
	admin.POST("/users/:userId/unlock", adminHandler.UnlockUser)
	admin.DELETE("/users/:userId", adminHandler.DeleteUser)
	admin.GET("/users/:userId/activity", adminHandler.UserActivity)

	return &Server{
		echo:      e,
		cfg:       cfg,
		limiter:   limiter,
		blacklist: blacklistRepo,
		audit:     auditService,
	}, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until ctx is cancelled, then drains in-flight requests for at
// most the configured shutdown timeout
func (s *Server) Start(ctx context.Context) error {
	s.echo.Server.ReadTimeout = s.cfg.Server.ReadTimeout
	s.echo.Server.WriteTimeout = s.cfg.Server.WriteTimeout

	jobs, stopJobs := context.WithCancel(ctx)
	defer stopJobs()

	go s.limiter.Run(jobs)
	go s.runMaintenance(jobs)

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", s.cfg.Server.Addr(), "environment", s.cfg.Server.Environment)
		serverErrors <- s.echo.Start(s.cfg.Server.Addr())
	}()

	select {
	case err := <-serverErrors:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		slog.Info("shutdown initiated")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
		return s.echo.Close()
	}

	slog.Info("server stopped")
	return nil
}

func (s *Server) runMaintenance(ctx context.Context) {
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// cleanup drops revoked tokens that have expired anyway and audit entries
// past retention
func (s *Server) cleanup() {
	if removed, err := s.blacklist.DeleteExpired(); err != nil {
		slog.Warn("failed to delete expired blacklisted tokens", "error", err)
	} else if removed > 0 {
		slog.Info("deleted expired blacklisted tokens", "count", removed)
	}

	if s.cfg.Security.AuditLogRetention <= 0 {
		return
	}

	if purged, err := s.audit.PurgeOlderThan(s.cfg.Security.AuditLogRetention); err != nil {
		slog.Warn("failed to purge audit logs", "error", err)
	} else if purged > 0 {
		slog.Info("purged audit logs", "count", purged, "retention", s.cfg.Security.AuditLogRetention.String())
	}
}
