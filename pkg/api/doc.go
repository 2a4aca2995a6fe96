// Package api exposes the analytics pipeline over HTTP.
//
// # Overview
//
// One gorilla/mux router serves the ingestion endpoint (POST /track),
// the six read-side derivations, and the maintenance trigger. Handlers
// stay thin: they parse and validate request input, call the engine
// through small interfaces, and encode the response. All domain logic
// lives in pkg/analytics.
//
// # Endpoints
//
//	POST /track                        ingest one tracking event
//	GET  /health                       liveness probe
//	GET  /ready                        readiness probe (pings all stores)
//	GET  /metrics/realtime             today's counter snapshot
//	GET  /metrics/timeseries?hours=    hourly sums from the sink
//	GET  /metrics/geography            24h country breakdown
//	GET  /content/top?limit=           24h top files
//	GET  /servers/performance          1h edge node aggregates
//	GET  /reports/daily/{date}         daily report, 400 on bad date
//	POST /maintenance/cleanup          schedules retention cleanup, 202
//
// Prometheus metrics are served on the separate health port, not here.
//
// # Related Packages
//
//   - pkg/analytics: Tracker, Service, and Janitor behind the interfaces
//   - pkg/middleware: request ID, logging, recovery, rate limiting
package api
