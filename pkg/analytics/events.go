package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/platinummonkey/edgestats/pkg/observability"
)

// TrackingEvent is one request observation reported by an edge server.
// The cache status is stored verbatim but compared case-insensitively
// everywhere it is aggregated.
type TrackingEvent struct {
	Timestamp    int64  `json:"timestamp"`
	Method       string `json:"method"`
	Path         string `json:"path"`
	CacheStatus  string `json:"cache_status"`
	EdgeServer   string `json:"edge_server"`
	EdgeRegion   string `json:"edge_region"`
	ResponseTime int64  `json:"response_time"`
	BytesSent    int64  `json:"bytes_sent"`
	ClientIP     string `json:"client_ip"`
	UserAgent    string `json:"user_agent,omitempty"`
}

// Validate rejects payloads the pipeline cannot attribute to a point
// in time or an edge node
func (e *TrackingEvent) Validate() error {
	if e.Timestamp <= 0 {
		return fmt.Errorf("timestamp must be a positive epoch second")
	}
	if e.Method == "" {
		return fmt.Errorf("method is required")
	}
	if e.Path == "" {
		return fmt.Errorf("path is required")
	}
	if e.CacheStatus == "" {
		return fmt.Errorf("cache_status is required")
	}
	if e.EdgeServer == "" {
		return fmt.Errorf("edge_server is required")
	}
	if e.EdgeRegion == "" {
		return fmt.Errorf("edge_region is required")
	}
	if e.ResponseTime < 0 || e.BytesSent < 0 {
		return fmt.Errorf("response_time and bytes_sent must be non-negative")
	}
	return nil
}

// Time returns the event timestamp in the service-local zone, which
// also decides the counter bucket calendar day.
func (e *TrackingEvent) Time() time.Time {
	return time.Unix(e.Timestamp, 0)
}

// Tracker fans one validated tracking event out to the time-series
// sink and the daily counter cache.
type Tracker struct {
	series   SeriesStore
	counters CounterStore
	logger   *observability.Logger
}

// NewTracker creates a new ingestion tracker
func NewTracker(series SeriesStore, counters CounterStore, logger *observability.Logger) *Tracker {
	return &Tracker{
		series:   series,
		counters: counters,
		logger:   logger,
	}
}

// Track records one event in both stores. The sink write goes first;
// if it fails, the counters stay untouched and the error surfaces to
// the caller, so no compensating rollback is ever needed. A counter
// failure after a successful sink write also surfaces, leaving one
// orphaned point behind — accepted best-effort behavior between two
// stores with no shared transaction.
func (t *Tracker) Track(ctx context.Context, event TrackingEvent) error {
	ts := event.Time()

	userAgent := event.UserAgent
	if userAgent == "" {
		userAgent = "unknown"
	}

	tags := map[string]string{
		"method":       event.Method,
		"cache_status": event.CacheStatus,
		"edge_server":  event.EdgeServer,
		"edge_region":  event.EdgeRegion,
		"user_agent":   userAgent,
	}
	fields := map[string]interface{}{
		"response_time": event.ResponseTime,
		"bytes_sent":    event.BytesSent,
		"path":          event.Path,
		"client_ip":     event.ClientIP,
	}

	if err := t.series.WritePoint(ctx, Measurement, tags, fields, ts); err != nil {
		return fmt.Errorf("tracking %s %s: %w", event.EdgeServer, event.Path, err)
	}

	deltas := map[string]int64{
		"total_requests": 1,
		"cache_" + strings.ToLower(event.CacheStatus): 1,
		"total_bytes": event.BytesSent,
		// The edge does not forward its final status upstream; an
		// accepted tracking call is assumed to be a delivered response.
		"status_200": 1,
	}
	if err := t.counters.Increment(ctx, dayKey(ts), deltas); err != nil {
		return fmt.Errorf("tracking %s %s: %w", event.EdgeServer, event.Path, err)
	}

	t.logger.WithFields(map[string]interface{}{
		"edge_server":  event.EdgeServer,
		"cache_status": event.CacheStatus,
		"path":         event.Path,
	}).Debug("Tracked request")

	return nil
}
