package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"feedbackportal/internal/domain/assessment"
	"feedbackportal/internal/domain/audit"
	"feedbackportal/internal/domain/auth"
	"feedbackportal/internal/domain/notifications"
	"feedbackportal/internal/domain/periods"
	"feedbackportal/internal/domain/pins"
	"feedbackportal/internal/domain/profiles"
	"feedbackportal/internal/domain/reports"
	"feedbackportal/internal/domain/results"
	"feedbackportal/internal/domain/roles"
	"feedbackportal/internal/domain/triwulan"
	"feedbackportal/internal/platform/config"
	"feedbackportal/internal/platform/crypto"
	"feedbackportal/internal/platform/db"
	"feedbackportal/internal/platform/email"
	"feedbackportal/internal/platform/jobs"
	"feedbackportal/internal/platform/metrics"
	assessmentshandler "feedbackportal/internal/transport/http/handlers/assessments"
	audithandler "feedbackportal/internal/transport/http/handlers/audit"
	authhandler "feedbackportal/internal/transport/http/handlers/auth"
	notificationshandler "feedbackportal/internal/transport/http/handlers/notifications"
	periodshandler "feedbackportal/internal/transport/http/handlers/periods"
	pinshandler "feedbackportal/internal/transport/http/handlers/pins"
	profileshandler "feedbackportal/internal/transport/http/handlers/profiles"
	reportshandler "feedbackportal/internal/transport/http/handlers/reports"
	resultshandler "feedbackportal/internal/transport/http/handlers/results"
	triwulanhandler "feedbackportal/internal/transport/http/handlers/triwulan"
	"feedbackportal/internal/transport/http/middleware"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	Config config.Config
	DB     *pgxpool.Pool
	Router http.Handler
	Jobs   *jobs.Service

	cancel context.CancelFunc
}

// New connects to the database, applies migrations and seed data when
// configured, and builds the router with every service wired in.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	cryptoSvc, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("encryption key: %w", err)
	}
	if !cryptoSvc.Configured() {
		slog.Warn("DATA_ENCRYPTION_KEY not set, feedback comments are stored unencrypted")
	}

	loc := cfg.Location()
	resolver := roles.NewResolver(roles.NewStore(pool), cfg.AdminUserIDs, cfg.SupervisorUserIDs)
	authSvc := auth.NewService(auth.NewStore(pool), cfg.JWTSecret, cfg.TokenTTL)
	auditSvc := audit.New(pool)

	notificationSvc := notifications.New(notifications.NewStore(pool), email.New(cfg))
	notificationSvc.EmailEnabled = cfg.EmailEnabled
	notificationSvc.DefaultFrom = cfg.EmailFrom

	resultsSvc := results.NewService(results.NewStore(pool), resolver, cryptoSvc)
	periodsSvc := periods.NewService(periods.NewStore(pool), resultsSvc, loc)
	assessmentSvc := assessment.NewService(assessment.NewStore(pool), cryptoSvc, notificationSvc)
	pinsSvc := pins.NewService(pins.NewStore(pool), notificationSvc, loc)
	triwulanSvc := triwulan.NewService(triwulan.NewStore(pool), resolver, notificationSvc)
	profilesSvc := profiles.NewService(profiles.NewStore(pool), resolver)
	reportsSvc := reports.NewService(reports.NewStore(pool), loc)

	idempotency := middleware.NewIdempotencyStore(pool)

	jobsSvc := jobs.New(jobs.NewStore(pool), cfg)
	jobsSvc.Register(jobs.JobAssessmentReminders, func(ctx context.Context) (any, error) {
		sent, err := assessmentSvc.SendReminders(ctx)
		return map[string]int{"sent": sent}, err
	})
	jobsSvc.Register(jobs.JobSessionCleanup, func(ctx context.Context) (any, error) {
		sessions, err := authSvc.PurgeSessions(ctx)
		if err != nil {
			return nil, err
		}
		keys, err := idempotency.Purge(ctx)
		return map[string]int64{"sessions": sessions, "idempotencyKeys": keys}, err
	})

	var recorder middleware.MetricsRecorder
	var snapshotter reportshandler.MetricsSnapshotter
	if cfg.MetricsEnabled {
		collector := metrics.New()
		recorder = collector
		snapshotter = collector
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.Logger(recorder))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

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

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret, authSvc))
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

		authhandler.NewHandler(authSvc).RegisterRoutes(r)
		profileshandler.NewHandler(profilesSvc, resolver, auditSvc).RegisterRoutes(r)
		periodshandler.NewHandler(periodsSvc, resolver, auditSvc).RegisterRoutes(r)
		assessmentshandler.NewHandler(assessmentSvc, resolver, auditSvc).RegisterRoutes(r)
		resultshandler.NewHandler(resultsSvc, resolver).RegisterRoutes(r)
		pinshandler.NewHandler(pinsSvc, resolver, idempotency).RegisterRoutes(r)
		triwulanhandler.NewHandler(triwulanSvc, resolver, auditSvc).RegisterRoutes(r)
		notificationshandler.NewHandler(notificationSvc).RegisterRoutes(r)
		audithandler.NewHandler(auditSvc, resolver).RegisterRoutes(r)
		reportshandler.NewHandler(reportsSvc, jobsSvc, snapshotter, resolver, auditSvc).RegisterRoutes(r)
	})

	jobsCtx, cancel := context.WithCancel(context.Background())
	if err := jobsSvc.Start(jobsCtx); err != nil {
		cancel()
		pool.Close()
		return nil, fmt.Errorf("start jobs: %w", err)
	}

	return &App{Config: cfg, DB: pool, Router: router, Jobs: jobsSvc, cancel: cancel}, nil
}

// Close stops background jobs and releases the database pool.
func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

// Run serves the API until ctx is cancelled, then drains in-flight requests.
func Run(ctx context.Context, cfg config.Config) error {
	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("feedback portal listening", "addr", cfg.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
