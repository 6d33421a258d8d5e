package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"perftrack/internal/domain/audit"
	"perftrack/internal/domain/auth"
	"perftrack/internal/domain/employees"
	"perftrack/internal/domain/notifications"
	"perftrack/internal/domain/performance"
	"perftrack/internal/platform/config"
	cryptoutil "perftrack/internal/platform/crypto"
	"perftrack/internal/platform/db"
	"perftrack/internal/platform/email"
	"perftrack/internal/platform/jobs"
	"perftrack/internal/platform/metrics"
	"perftrack/internal/transport/http/api"
	audithandler "perftrack/internal/transport/http/handlers/audit"
	authhandler "perftrack/internal/transport/http/handlers/auth"
	dashboardhandler "perftrack/internal/transport/http/handlers/dashboard"
	employeeshandler "perftrack/internal/transport/http/handlers/employees"
	goalshandler "perftrack/internal/transport/http/handlers/goals"
	jobshandler "perftrack/internal/transport/http/handlers/jobs"
	notificationshandler "perftrack/internal/transport/http/handlers/notifications"
	reviewshandler "perftrack/internal/transport/http/handlers/reviews"
	usershandler "perftrack/internal/transport/http/handlers/users"
	"perftrack/internal/transport/http/middleware"
	"perftrack/migrations"
)

// App bundles the running pieces so tests can drive the full router
// against a real database without binding a port.
type App struct {
	Config config.Config
	DB     *pgxpool.Pool
	Jobs   *jobs.Service
	Router http.Handler
}

// New connects the database, applies migrations and seeds when configured,
// and assembles the router. The background worker is not started; callers
// do that via app.Jobs.Start.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, migrations.Files); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	jobRunner := jobs.New(pool, cfg)
	router, err := NewRouter(pool, cfg, jobRunner)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &App{Config: cfg, DB: pool, Jobs: jobRunner, Router: router}, nil
}

func (a *App) Close() {
	a.DB.Close()
}

// Run loads configuration, builds the app and serves HTTP until the
// process is signalled to stop.
func Run() error {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	app.Jobs.Start(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.Addr, "env", cfg.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// NewRouter wires stores, services and handlers onto one chi router.
// Exposed separately so integration tests can drive the full stack without
// binding a port.
func NewRouter(pool *pgxpool.Pool, cfg config.Config, jobRunner *jobs.Service) (http.Handler, error) {
	cryptoSvc, err := cryptoutil.New(cfg.DataEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key: %w", err)
	}

	authStore := auth.NewStore(pool)
	employeeStore := employees.NewStore(pool)
	perfStore := performance.NewStore(pool)
	notifier := notifications.New(notifications.NewStore(pool), email.New(cfg), cfg.EmailFrom, cfg.EmailEnabled)
	auditor := audit.New(pool)
	collector := metrics.New()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	if cfg.MetricsEnabled {
		router.Use(middleware.Metrics(collector))
	}
	router.Use(middleware.Auth(cfg.JWTSecret, authStore))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	if cfg.MetricsEnabled {
		router.With(middleware.RequireRole(auth.RoleAdmin)).Get("/metricz", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
		r.Use(middleware.Idempotency(middleware.NewIdempotencyStore(pool)))

		authHandler := authhandler.NewHandler(authStore, cfg.JWTSecret, cfg.TokenTTL, cryptoSvc, notifier, auditor)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/request-reset", authHandler.HandleRequestReset)
		r.Post("/auth/reset", authHandler.HandleResetPassword)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/auth/refresh", authHandler.HandleRefresh)
			r.Post("/auth/logout", authHandler.HandleLogout)
			r.Get("/auth/me", authHandler.HandleMe)
			r.Post("/auth/mfa/setup", authHandler.HandleMFASetup)
			r.Post("/auth/mfa/enable", authHandler.HandleMFAEnable)
			r.Post("/auth/mfa/disable", authHandler.HandleMFADisable)
		})

		usershandler.NewHandler(authStore, employeeStore, notifier, auditor).RegisterRoutes(r)
		employeeshandler.NewHandler(employeeStore, auditor).RegisterRoutes(r)
		goalshandler.NewHandler(perfStore, employeeStore, notifier, auditor).RegisterRoutes(r)
		reviewshandler.NewHandler(perfStore, employeeStore, notifier, auditor).RegisterRoutes(r)
		dashboardhandler.NewHandler(perfStore, employeeStore, cfg.TopPerformerThreshold).RegisterRoutes(r)
		notificationshandler.NewHandler(notifier).RegisterRoutes(r)
		audithandler.NewHandler(auditor).RegisterRoutes(r)
		jobshandler.NewHandler(jobRunner).RegisterRoutes(r)
	})

	router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})

	return router, nil
}

// spaHandler serves the built frontend, falling back to index.html so
// client-side routes survive a refresh.
type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, r.URL.Path)
	_, err := os.Stat(path)
	if err == nil {
		http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
		return
	}

	if os.IsNotExist(err) {
		http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
		return
	}

	http.NotFound(w, r)
}
