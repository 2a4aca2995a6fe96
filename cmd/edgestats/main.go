package main

import (
	"context"
	"database/sql"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/platinummonkey/edgestats/pkg/analytics"
	"github.com/platinummonkey/edgestats/pkg/api"
	"github.com/platinummonkey/edgestats/pkg/config"
	"github.com/platinummonkey/edgestats/pkg/middleware"
	"github.com/platinummonkey/edgestats/pkg/observability"
	"github.com/platinummonkey/edgestats/pkg/storage/counters"
	"github.com/platinummonkey/edgestats/pkg/storage/timeseries"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.WithFields(map[string]interface{}{
		"port":        cfg.Server.Port,
		"health_port": cfg.Server.HealthPort,
	}).Info("Starting edgestats analytics service")

	// PostgreSQL (historical request log + dimension tables)
	db, err := sql.Open("postgres", cfg.Storage.PostgresURL)
	if err != nil {
		logger.WithError(err).Error("Failed to open database")
		os.Exit(1)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Storage.PostgresMaxConns)
	db.SetMaxIdleConns(cfg.Storage.PostgresMinConns)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(context.Background(), cfg.Storage.PostgresTimeout)
	if err := db.PingContext(pingCtx); err != nil {
		// Read derivations degrade without Postgres; ingestion does not
		// need it, so startup continues.
		logger.WithError(err).Warn("Database unreachable at startup, read derivations will degrade")
	}
	cancel()

	// Redis (daily counter cache)
	counterStore, err := counters.New(cfg.Storage)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to counter cache")
		os.Exit(1)
	}
	defer counterStore.Close()

	// InfluxDB (time-series sink)
	seriesStore := timeseries.New(cfg.Storage)
	defer seriesStore.Close()

	// OpenTelemetry (optional)
	var otelProviders *observability.OTelProviders
	if cfg.Observability.OTelEnabled {
		otelProviders, err = observability.InitOTel(context.Background(), observability.OTelConfig{
			Enabled:        true,
			Endpoint:       cfg.Observability.OTelEndpoint,
			ServiceName:    cfg.Observability.OTelServiceName,
			ServiceVersion: cfg.Observability.OTelServiceVersion,
			Insecure:       cfg.Observability.OTelInsecure,
		}, logger)
		if err != nil {
			logger.WithError(err).Warn("OpenTelemetry initialization failed, continuing without it")
		}
	}

	// Prometheus metrics
	var metrics *observability.Metrics
	registry := prometheus.NewRegistry()
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	tracker := analytics.NewTracker(seriesStore, counterStore, logger)
	engine := analytics.NewService(db, counterStore, seriesStore, logger)
	janitor := analytics.NewJanitor(db, counterStore, logger)
	health := observability.NewHealthChecker(db, counterStore.GetClient(), seriesStore)

	trackLimit := &middleware.RateLimitConfig{
		RequestsPerWindow: int(cfg.Analytics.TrackRateLimit * 60),
		WindowDuration:    time.Minute,
		BurstSize:         cfg.Analytics.TrackRateBurst,
	}
	if cfg.Analytics.TrackRateLimit <= 0 {
		trackLimit = nil
	}

	server := api.NewServer(tracker, engine, janitor, health, logger, metrics, trackLimit)

	apiServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Probes and Prometheus metrics on a separate port so the public
	// surface stays just the analytics API.
	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, health)
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}
	healthServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler:      healthMux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("addr", healthServer.Addr).Info("Health server listening")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Health server failed")
		}
	}()

	go func() {
		logger.WithField("addr", apiServer.Addr).Info("API server listening")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("API server failed")
			os.Exit(1)
		}
	}()

	shutdown := observability.NewShutdownManager(logger, apiServer, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return healthServer.Shutdown(ctx)
	})
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		seriesStore.Close()
		return nil
	})
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return counterStore.Close()
	})
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return db.Close()
	})
	if otelProviders != nil {
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
			return observability.ShutdownOTel(ctx, otelProviders, logger)
		})
	}

	if err := shutdown.WaitForShutdown(); err != nil {
		logger.WithError(err).Error("Shutdown finished with errors")
		os.Exit(1)
	}
	logger.Info("edgestats stopped")
}
