package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"timesheet/internal/auth"
	"timesheet/internal/domain/attendance"
	"timesheet/internal/platform/clock"
	"timesheet/internal/platform/config"
	"timesheet/internal/platform/ledger"
	"timesheet/internal/platform/logging"
	"timesheet/internal/platform/metrics"
	"timesheet/internal/transport/http/api"
	attendancehandler "timesheet/internal/transport/http/handlers/attendance"
	authhandler "timesheet/internal/transport/http/handlers/auth"
	"timesheet/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	Backend *ledger.Backend
	Service *attendance.Service
	Metrics *metrics.Collector
	Router  http.Handler
}

// New opens the configured ledger backend and builds the router.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	zone, err := clock.New(cfg.TimeZone)
	if err != nil {
		return nil, err
	}
	backend, err := ledger.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewWithStore(cfg, backend, zone), nil
}

// NewWithStore builds the app around an already opened backend.
func NewWithStore(cfg config.Config, backend *ledger.Backend, clk attendance.Clock) *App {
	collector := metrics.New()
	service := attendance.NewService(backend.Store, clk).
		WithDefaultProject(cfg.DefaultProject).
		WithRecorder(collector)

	app := &App{
		Config:  cfg,
		Backend: backend,
		Service: service,
		Metrics: collector,
	}
	app.Router = app.routes()
	return app
}

func (a *App) Close() {
	if a.Backend != nil {
		a.Backend.Close()
	}
}

func (a *App) routes() http.Handler {
	cfg := a.Config
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	if cfg.MetricsEnabled {
		router.Use(middleware.Metrics(a.Metrics))
	}
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if _, err := a.Service.Ledgers(ctx); err != nil {
			slog.Warn("readiness probe failed", "backend", a.Backend.Name, "err", err)
			http.Error(w, "ledger not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	adminOnly := middleware.RequireRole(auth.RoleAdmin, cfg.JWTSecret != "")

	if cfg.MetricsEnabled {
		router.With(adminOnly).Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, a.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute, middleware.WithKeyFunc(middleware.JSONFieldOrIPKey("employeeId"))))

		authHandler := authhandler.NewHandler(auth.Issuer{
			Secret:       cfg.JWTSecret,
			PasswordHash: cfg.AdminPasswordHash,
			TTL:          cfg.TokenTTL,
		})
		authHandler.RegisterRoutes(r)

		attendanceHandler := attendancehandler.NewHandler(a.Service, cfg.RecentRecords, adminOnly)
		attendanceHandler.RegisterRoutes(r)
	})

	return router
}

func Run() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.New(os.Stdout, cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "backend", cfg.LedgerBackend, "err", err)
		stop()
		os.Exit(1)
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("timesheet server listening", "addr", cfg.Addr, "backend", cfg.LedgerBackend, "timeZone", cfg.TimeZone)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "err", err)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "err", err)
		}
	}
}
