package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/naokiys/emprecord/internal/audit"
	"github.com/naokiys/emprecord/internal/cache"
	"github.com/naokiys/emprecord/internal/config"
	"github.com/naokiys/emprecord/internal/db"
	"github.com/naokiys/emprecord/internal/events"
	"github.com/naokiys/emprecord/internal/handlers"
	"github.com/naokiys/emprecord/internal/middleware"
	"github.com/naokiys/emprecord/internal/repo"
	"github.com/naokiys/emprecord/internal/scheduler"
	"github.com/naokiys/emprecord/internal/stats"
)

// app bundles the wired components so main and the router share one build path.
type app struct {
	logStats  *stats.LogStats
	txStats   *stats.TransactionStats
	cacheSts  *stats.CacheStats
	dbMonitor *stats.DatabaseMonitor
	caches    *cache.Registry
	events    *events.Logger
	recorder  *audit.Recorder
	repo      *repo.EmployeeRepo
}

func buildApp(database *sql.DB, cfg config.Config) *app {
	logStats := stats.NewLogStats()
	txStats := stats.NewTransactionStats()
	cacheSts := stats.NewCacheStats()

	ev := events.New(slog.Default(), logStats)
	rec := audit.NewRecorder(audit.NewStore(database), ev)
	ic := audit.NewInterceptor(rec)

	caches := cache.NewRegistry(cache.Config{
		Capacity:           cfg.CacheCapacity,
		NumShards:          cfg.CacheShards,
		TTL:                cfg.CacheTTL,
		EvictionPercentage: cfg.CacheEvictionPercent,
	}, cacheSts, cache.EmployeeByID, cache.EmployeeSearch)

	return &app{
		logStats:  logStats,
		txStats:   txStats,
		cacheSts:  cacheSts,
		dbMonitor: stats.NewDatabaseMonitor(database),
		caches:    caches,
		events:    ev,
		recorder:  rec,
		repo:      repo.NewEmployeeRepo(database, ic, txStats, caches),
	}
}

func newRouter(database *sql.DB, cfg config.Config, a *app) chi.Router {
	employeeH := &handlers.EmployeeHandler{Repo: a.repo, Events: a.events}
	auditH := &handlers.AuditHandler{Recorder: a.recorder, Store: audit.NewStore(database)}
	monitoringH := &handlers.MonitoringHandler{
		LogStats:  a.logStats,
		TxStats:   a.txStats,
		CacheSts:  a.cacheSts,
		DBMonitor: a.dbMonitor,
		Caches:    a.caches,
	}
	healthH := &handlers.HealthHandler{DB: database}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestContext)
	r.Use(middleware.Prometheus)
	r.Use(middleware.RequestLog(a.events))
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))
	r.Use(middleware.Identity([]byte(cfg.JWTSecret), a.events))
	r.Use(middleware.NewIPRateLimiter(rate.Limit(100), 200).Middleware)

	r.Get("/health", healthH.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1/employees", func(r chi.Router) {
		r.Post("/", employeeH.CreateEmployee)
		r.Get("/", employeeH.ListEmployees)
		r.Get("/{id}", employeeH.GetEmployee)
		r.Put("/{id}", employeeH.UpdateEmployee)
		r.Delete("/{id}", employeeH.DeleteEmployee)
	})

	r.Route("/monitoring", func(r chi.Router) {
		r.Get("/cache/stats", monitoringH.CacheStats)
		r.Delete("/cache/clear", monitoringH.ClearAllCaches)
		r.Delete("/cache/clear/{name}", monitoringH.ClearCache)
		r.Get("/logs/stats", monitoringH.LogStatsSnapshot)
		r.Get("/logs/health", monitoringH.LogHealth)
		r.Post("/logs/reset", monitoringH.ResetLogStats)
		r.Get("/transaction/stats", monitoringH.TransactionStats)
		r.Get("/database/connection/stats", monitoringH.DatabaseConnectionStats)
		r.Get("/database/performance/stats", monitoringH.DatabasePerformanceStats)
		r.Get("/database/health/stats", monitoringH.DatabaseHealth)
		r.Get("/database/table/stats", monitoringH.DatabaseTableStats)
		r.Get("/database/stats", monitoringH.DatabaseStats)
	})

	r.Route("/audit/database", func(r chi.Router) {
		r.Get("/stats", auditH.Stats)
		r.Get("/logs/operation/{type}", auditH.ByOperationType)
		r.Get("/logs/operation/{type}/table/{name}", auditH.ByTypeAndTable)
		r.Get("/logs/table/{name}", auditH.ByTable)
		r.Get("/logs/table/{name}/record/{id}", auditH.ByTableAndRecord)
		r.Get("/logs/user/{id}", auditH.ByUser)
		r.Get("/logs/user/{id}/time-range", auditH.ByUserAndTimeRange)
		r.Get("/logs/session/{id}", auditH.BySession)
		r.Get("/logs/request/{id}", auditH.ByRequest)
		r.Get("/logs/record/{id}", auditH.ByRecord)
		r.Get("/logs/status/{status}", auditH.ByStatus)
		r.Get("/logs/time-range", auditH.ByTimeRange)
		r.Get("/logs/recent", auditH.Recent)
		r.Get("/logs/errors", auditH.Errors)
		r.Get("/logs/errors/user/{id}", auditH.ErrorsByUser)
		r.Delete("/logs/cleanup", auditH.Cleanup)
	})

	return r
}

func setupLogger(cfg config.Config) {
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(handler))
}

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	if cfg.Env == "prod" && cfg.JWTSecret == "supersecretkey" {
		slog.Error("JWT_SECRET must be set in prod")
		os.Exit(1)
	}

	database, err := db.Connect(
		cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPass,
		cfg.DBMaxOpenConns, cfg.DBMaxIdleConns,
	)
	if err != nil {
		slog.Error("database connect failed", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Run(db.URL(cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPass)); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}
	slog.Info("database ready", "name", cfg.DBName)

	a := buildApp(database, cfg)
	router := newRouter(database, cfg, a)

	sched, err := scheduler.New(a.recorder, cfg.AuditCleanupCron, cfg.AuditRetentionDays)
	if err != nil {
		slog.Error("scheduler setup failed", "cron", cfg.AuditCleanupCron, "error", err)
		os.Exit(1)
	}
	sched.Start()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "port", cfg.Port, "tls", cfg.TLSCertFile != "")
		if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
			errCh <- srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			errCh <- srv.ListenAndServe()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	case sig := <-stop:
		slog.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		sched.Stop()
		// Let in-flight audit writes land before the process exits.
		a.recorder.Wait()
	}
}
