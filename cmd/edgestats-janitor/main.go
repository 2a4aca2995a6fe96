package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"github.com/platinummonkey/edgestats/pkg/analytics"
	"github.com/platinummonkey/edgestats/pkg/config"
	"github.com/platinummonkey/edgestats/pkg/observability"
	"github.com/platinummonkey/edgestats/pkg/storage/counters"
)

var (
	schedule   = flag.String("schedule", "", "Cron schedule for cleanup runs (overrides EDGESTATS_CLEANUP_SCHEDULE)")
	daysToKeep = flag.Int("days-to-keep", 0, "Retention window in days (overrides EDGESTATS_RETENTION_DAYS)")
	runOnce    = flag.Bool("run-once", false, "Run cleanup once and exit (for testing or manual sweeps)")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *schedule == "" {
		*schedule = cfg.Analytics.CleanupSchedule
	}
	if *daysToKeep <= 0 {
		*daysToKeep = cfg.Analytics.RetentionDays
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	db, err := sql.Open("postgres", cfg.Storage.PostgresURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	counterStore, err := counters.New(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to connect to counter cache: %v", err)
	}
	defer counterStore.Close()

	janitor := analytics.NewJanitor(db, counterStore, logger)

	if *runOnce {
		logger.WithField("days_to_keep", *daysToKeep).Info("Running cleanup once")
		if err := runCleanup(janitor, logger, *daysToKeep); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
		return
	}

	c := cron.New()
	_, err = c.AddFunc(*schedule, func() {
		if err := runCleanup(janitor, logger, *daysToKeep); err != nil {
			logger.WithError(err).Error("Scheduled cleanup failed")
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule cleanup: %v", err)
	}

	c.Start()
	logger.WithFields(map[string]interface{}{
		"schedule":     *schedule,
		"days_to_keep": *daysToKeep,
	}).Info("edgestats janitor started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutting down gracefully")

	// Let an in-flight sweep finish before the deferred store closes run
	<-c.Stop().Done()
	logger.Info("Janitor stopped")
}

func runCleanup(janitor *analytics.Janitor, logger *observability.Logger, daysToKeep int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	result, err := janitor.Cleanup(ctx, daysToKeep)
	if err != nil {
		return err
	}

	logger.WithFields(map[string]interface{}{
		"deleted_logs": result.DeletedLogs,
		"deleted_keys": result.DeletedKeys,
	}).Info("Cleanup run complete")
	return nil
}
