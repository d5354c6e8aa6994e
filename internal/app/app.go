// Package app wires together the inventory service's dependencies and runs
// it until shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/utafrali/inventory-es/internal/cache"
	"github.com/utafrali/inventory-es/internal/command"
	"github.com/utafrali/inventory-es/internal/config"
	"github.com/utafrali/inventory-es/internal/event"
	"github.com/utafrali/inventory-es/internal/eventbus"
	"github.com/utafrali/inventory-es/internal/eventstore"
	handler "github.com/utafrali/inventory-es/internal/handler/http"
	"github.com/utafrali/inventory-es/internal/projection"
	"github.com/utafrali/inventory-es/internal/query"
	"github.com/utafrali/inventory-es/internal/resilience"
	"github.com/utafrali/inventory-es/migrations"
	"github.com/utafrali/inventory-es/pkg/database"
	"github.com/utafrali/inventory-es/pkg/health"
	"github.com/utafrali/inventory-es/pkg/tracing"
)

// App wires together all dependencies and runs the inventory service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "inventory",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
	}

	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, "inventory")

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	store, err := eventstore.New(cfg.EventStoreDir)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("open event store: %w", err)
	}

	proj := projection.NewRepository(pool)
	bus := eventbus.New(logger)
	breaker := resilience.New(resilience.Config{
		Name:         "inventory-projection",
		MaxRequests:  1,
		Interval:     time.Duration(cfg.CircuitBreakerIntervalSecs) * time.Second,
		Timeout:      time.Duration(cfg.CircuitBreakerTimeoutSecs) * time.Second,
		FailureRatio: cfg.CircuitBreakerFailureRatio,
		MinRequests:  cfg.CircuitBreakerMinRequests,
	}, logger)
	stockCache := cache.New(time.Duration(cfg.CacheTTLSeconds)*time.Second, cfg.CacheMaxSize)

	event.NewCacheInvalidator(stockCache, logger).Subscribe(bus)

	commands := command.NewHandlers(store, proj, breaker, bus, logger)
	queries := query.New(stockCache, proj)

	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("event_store", store.CheckWritable)

	router := handler.NewRouter(commands, queries, healthHandler, logger, cfg.PprofAllowedCIDRs, cfg.DefaultReservationTTLMinutes)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
