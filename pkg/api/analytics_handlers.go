package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/edgestats/pkg/analytics"
	"github.com/platinummonkey/edgestats/pkg/async"
)

const cleanupTimeout = 10 * time.Minute

// trackEvent handles POST /track
// Accepts one tracking event from an edge server and fans it out to
// the time-series sink and the counter cache.
func (s *Server) trackEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var event analytics.TrackingEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := event.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	err := s.tracker.Track(ctx, event)
	if s.metrics != nil {
		s.metrics.EventTrackDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.TrackFailuresTotal.WithLabelValues("fanout").Inc()
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if s.metrics != nil {
		s.metrics.EventsTrackedTotal.WithLabelValues(event.EdgeRegion, event.CacheStatus).Inc()
		s.metrics.EventBytesTotal.Add(float64(event.BytesSent))
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// healthCheck handles GET /health (liveness only)
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "analytics",
	})
}

// readyCheck handles GET /ready (pings every backing store)
func (s *Server) readyCheck(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
		return
	}
	s.health.Readiness(w, r)
}

// getRealtimeMetrics handles GET /metrics/realtime
func (s *Server) getRealtimeMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := s.engine.GetRealtimeMetrics(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

// getTimeSeries handles GET /metrics/timeseries
// Query params:
//   - hours: Look-back window (1-168) - default: 24
func (s *Server) getTimeSeries(w http.ResponseWriter, r *http.Request) {
	hours := 24
	if hoursStr := r.URL.Query().Get("hours"); hoursStr != "" {
		if h, err := strconv.Atoi(hoursStr); err == nil && h >= 1 && h <= 168 {
			hours = h
		}
	}

	data := s.engine.GetTimeSeries(r.Context(), hours)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":  data,
		"hours": hours,
	})
}

// getGeography handles GET /metrics/geography
func (s *Server) getGeography(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.GetGeographicDistribution(r.Context()))
}

// getTopContent handles GET /content/top
// Query params:
//   - limit: Number of results (1-100) - default: 20
func (s *Server) getTopContent(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l >= 1 && l <= 100 {
			limit = l
		}
	}

	content := s.engine.GetTopContent(r.Context(), limit)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"content": content,
		"limit":   limit,
	})
}

// getServerPerformance handles GET /servers/performance
func (s *Server) getServerPerformance(w http.ResponseWriter, r *http.Request) {
	servers := s.engine.GetEdgeServerPerformance(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"servers": servers,
	})
}

// getDailyReport handles GET /reports/daily/{date}
// Rejects dates that are not calendar-valid YYYY-MM-DD before touching
// the engine.
func (s *Server) getDailyReport(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]
	if _, err := analytics.ParseReportDate(date); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD")
		return
	}

	writeJSON(w, http.StatusOK, s.engine.GetDailyReport(r.Context(), date))
}

// scheduleCleanup handles POST /maintenance/cleanup
// Query params:
//   - days_to_keep: Retention window in days - default: 90
//
// The cleanup itself runs detached from the request; the response only
// acknowledges that it was scheduled.
func (s *Server) scheduleCleanup(w http.ResponseWriter, r *http.Request) {
	daysToKeep := 90
	if daysStr := r.URL.Query().Get("days_to_keep"); daysStr != "" {
		if d, err := strconv.Atoi(daysStr); err == nil && d > 0 {
			daysToKeep = d
		}
	}

	metrics := s.metrics
	janitor := s.janitor
	async.SafeGo(context.Background(), cleanupTimeout, "retention cleanup", func(ctx context.Context) error {
		result, err := janitor.Cleanup(ctx, daysToKeep)
		if metrics != nil {
			if err != nil {
				metrics.CleanupRunsTotal.WithLabelValues("error").Inc()
			} else {
				metrics.CleanupRunsTotal.WithLabelValues("success").Inc()
				metrics.CleanupDeletedLogs.Add(float64(result.DeletedLogs))
				metrics.CleanupDeletedBuckets.Add(float64(result.DeletedKeys))
			}
		}
		return err
	})

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"message":      "Cleanup task scheduled",
		"days_to_keep": daysToKeep,
	})
}
