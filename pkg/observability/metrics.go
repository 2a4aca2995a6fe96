package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the analytics service
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Ingestion metrics
	EventsTrackedTotal *prometheus.CounterVec
	EventTrackDuration prometheus.Histogram
	EventBytesTotal    prometheus.Counter
	TrackFailuresTotal *prometheus.CounterVec

	// Store metrics
	StoreOperationsTotal   *prometheus.CounterVec
	StoreOperationDuration *prometheus.HistogramVec

	// Cleanup metrics
	CleanupRunsTotal      *prometheus.CounterVec
	CleanupDeletedLogs    prometheus.Counter
	CleanupDeletedBuckets prometheus.Counter

	// Connection gauges
	DBConnectionsActive    prometheus.Gauge
	DBConnectionsIdle      prometheus.Gauge
	RedisConnectionsActive prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgestats_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "edgestats_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "edgestats_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),

		EventsTrackedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgestats_events_tracked_total",
				Help: "Total number of tracking events ingested",
			},
			[]string{"edge_region", "cache_status"},
		),
		EventTrackDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "edgestats_event_track_duration_seconds",
				Help:    "Fan-out duration per tracking event",
				Buckets: prometheus.DefBuckets,
			},
		),
		EventBytesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "edgestats_event_bytes_total",
				Help: "Total bytes_sent reported by ingested events",
			},
		),
		TrackFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgestats_track_failures_total",
				Help: "Tracking events that failed to fan out",
			},
			[]string{"store"},
		),

		StoreOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgestats_store_operations_total",
				Help: "Total number of backing store operations",
			},
			[]string{"operation", "store", "status"},
		),
		StoreOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "edgestats_store_operation_duration_seconds",
				Help:    "Backing store operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "store"},
		),

		CleanupRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edgestats_cleanup_runs_total",
				Help: "Retention cleanup runs by outcome",
			},
			[]string{"status"},
		),
		CleanupDeletedLogs: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "edgestats_cleanup_deleted_logs_total",
				Help: "Request log rows removed by retention cleanup",
			},
		),
		CleanupDeletedBuckets: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "edgestats_cleanup_deleted_buckets_total",
				Help: "Counter cache buckets removed by retention cleanup",
			},
		),

		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "edgestats_db_connections_active",
				Help: "Active PostgreSQL connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "edgestats_db_connections_idle",
				Help: "Idle PostgreSQL connections",
			},
		),
		RedisConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "edgestats_redis_connections_active",
				Help: "Active Redis connections",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSize,
		m.EventsTrackedTotal,
		m.EventTrackDuration,
		m.EventBytesTotal,
		m.TrackFailuresTotal,
		m.StoreOperationsTotal,
		m.StoreOperationDuration,
		m.CleanupRunsTotal,
		m.CleanupDeletedLogs,
		m.CleanupDeletedBuckets,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
		m.RedisConnectionsActive,
	)

	return m
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
			metrics.HTTPResponseSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(rw.bytesWritten))
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
