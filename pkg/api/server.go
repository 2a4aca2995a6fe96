package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/edgestats/pkg/middleware"
	"github.com/platinummonkey/edgestats/pkg/observability"
)

// Server represents the analytics API server
type Server struct {
	router     *mux.Router
	tracker    Ingestor
	engine     Engine
	janitor    Cleaner
	health     *observability.HealthChecker
	logger     *observability.Logger
	metrics    *observability.Metrics
	trackLimit *middleware.RateLimitMiddleware
}

// NewServer creates a new API server. A nil rate limit config disables
// ingestion rate limiting; metrics and health checker are optional.
func NewServer(
	tracker Ingestor,
	engine Engine,
	janitor Cleaner,
	health *observability.HealthChecker,
	logger *observability.Logger,
	metrics *observability.Metrics,
	trackLimitConfig *middleware.RateLimitConfig,
) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		tracker: tracker,
		engine:  engine,
		janitor: janitor,
		health:  health,
		logger:  logger,
		metrics: metrics,
	}
	if trackLimitConfig != nil {
		s.trackLimit = middleware.NewRateLimitMiddleware(trackLimitConfig)
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestIDMiddleware)
	s.router.Use(middleware.RecoveryMiddleware(s.logger))
	s.router.Use(middleware.LoggingMiddleware(s.logger))
	if s.metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(s.metrics))
	}

	// Ingestion; rate limited per client IP when configured
	var track http.Handler = http.HandlerFunc(s.trackEvent)
	if s.trackLimit != nil {
		track = s.trackLimit.Handler(track)
	}
	s.router.Handle("/track", track).Methods("POST")

	// Probes
	s.router.HandleFunc("/health", s.healthCheck).Methods("GET")
	s.router.HandleFunc("/ready", s.readyCheck).Methods("GET")

	// Read-side derivations
	s.router.HandleFunc("/metrics/realtime", s.getRealtimeMetrics).Methods("GET")
	s.router.HandleFunc("/metrics/timeseries", s.getTimeSeries).Methods("GET")
	s.router.HandleFunc("/metrics/geography", s.getGeography).Methods("GET")
	s.router.HandleFunc("/content/top", s.getTopContent).Methods("GET")
	s.router.HandleFunc("/servers/performance", s.getServerPerformance).Methods("GET")
	s.router.HandleFunc("/reports/daily/{date}", s.getDailyReport).Methods("GET")

	// Maintenance
	s.router.HandleFunc("/maintenance/cleanup", s.scheduleCleanup).Methods("POST")
}

// Router returns the configured handler for mounting on an http.Server
func (s *Server) Router() http.Handler {
	return s.router
}
