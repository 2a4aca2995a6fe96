package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/platinummonkey/edgestats/pkg/analytics"
	"github.com/platinummonkey/edgestats/pkg/storage/timeseries"
)

// Ingestor accepts validated tracking events on the write path
type Ingestor interface {
	Track(ctx context.Context, event analytics.TrackingEvent) error
}

// Engine serves the read-side derivations. The fail-soft operations
// return empty results instead of errors; only the realtime snapshot
// can fail.
type Engine interface {
	GetRealtimeMetrics(ctx context.Context) (*analytics.RealtimeMetrics, error)
	GetTimeSeries(ctx context.Context, hours int) []timeseries.Entry
	GetGeographicDistribution(ctx context.Context) *analytics.GeoDistribution
	GetTopContent(ctx context.Context, limit int) []analytics.ContentStats
	GetEdgeServerPerformance(ctx context.Context) []analytics.EdgeServerStats
	GetDailyReport(ctx context.Context, date string) *analytics.DailyReport
}

// Cleaner runs retention cleanup over both stores
type Cleaner interface {
	Cleanup(ctx context.Context, daysToKeep int) (*analytics.CleanupResult, error)
}

// writeJSON encodes v as the response body with the given status
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError encodes a JSON error envelope with the given status
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
