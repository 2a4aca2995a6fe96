package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/platinummonkey/edgestats/pkg/observability"
)

// Janitor deletes analytics data past the retention window from both
// the historical log store and the counter cache. It is the one
// fail-loud operation in the engine: a scheduler must see failures to
// retry or alert on them.
type Janitor struct {
	db       *sql.DB
	counters CounterStore
	logger   *observability.Logger
}

// NewJanitor creates a new retention janitor
func NewJanitor(db *sql.DB, counters CounterStore, logger *observability.Logger) *Janitor {
	return &Janitor{
		db:       db,
		counters: counters,
		logger:   logger,
	}
}

// CleanupResult reports what one cleanup pass removed
type CleanupResult struct {
	DeletedLogs int64 `json:"deleted_logs"`
	DeletedKeys int   `json:"deleted_keys"`
}

const cleanupLogsQuery = `
	DELETE FROM request_logs
	WHERE timestamp < NOW() - make_interval(days => $1)
`

// Cleanup removes request_logs rows older than daysToKeep days and the
// counter buckets for every candidate date older than the cutoff. The
// relational delete runs in a transaction committed only after the
// cache sweep succeeds; any error rolls it back and propagates. The
// sweep walks daysToKeep+30 candidate dates backward from the cutoff
// so clock drift and gaps cannot leave stale buckets behind.
func (j *Janitor) Cleanup(ctx context.Context, daysToKeep int) (*CleanupResult, error) {
	if daysToKeep <= 0 {
		daysToKeep = 90
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("cleanup begin failed: %w", err)
	}

	res, err := tx.ExecContext(ctx, cleanupLogsQuery, daysToKeep)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("cleanup of request logs failed: %w", err)
	}
	deletedLogs, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("cleanup of request logs failed: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -daysToKeep)
	deletedKeys := 0
	for i := 0; i < daysToKeep+30; i++ {
		day := dayKey(cutoff.AddDate(0, 0, -i))
		deleted, err := j.counters.DeleteDay(ctx, day)
		if err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("cleanup of counter buckets failed: %w", err)
		}
		if deleted {
			deletedKeys++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("cleanup commit failed: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"deleted_logs": deletedLogs,
		"deleted_keys": deletedKeys,
		"days_to_keep": daysToKeep,
	}).Info("Cleaned up expired analytics data")

	return &CleanupResult{
		DeletedLogs: deletedLogs,
		DeletedKeys: deletedKeys,
	}, nil
}
