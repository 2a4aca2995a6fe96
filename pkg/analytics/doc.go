// Package analytics is the core of the EdgeStats pipeline: the
// ingestion fan-out and the read-side derivation engine.
//
// # Write path
//
// One validated TrackingEvent fans out to two stores with different
// characteristics:
//
//   - the InfluxDB sink gets an immutable http_requests point (tags:
//     method, cache_status, edge_server, edge_region, user_agent)
//   - the Redis counter cache gets atomic increments on the event
//     day's bucket (total_requests, total_bytes, cache_<status>,
//     status_200), refreshing the bucket's 7-day TTL
//
// The sink write goes first. If it fails the counters are never
// touched and the caller sees the error; if the counters fail after a
// successful sink write, the lone point is accepted best-effort
// inconsistency. There is no cross-store transaction.
//
//	tracker.Track(ctx, analytics.TrackingEvent{
//		Timestamp:   time.Now().Unix(),
//		Method:      "GET",
//		Path:        "/assets/logo.png",
//		CacheStatus: "HIT",
//		EdgeServer:  "edge-1",
//		EdgeRegion:  "us-east-1",
//	})
//
// # Read path
//
// Service derives every metric at query time; nothing derived is ever
// persisted. Rates are 0 whenever their denominator is 0.
//
//   - RealtimeMetrics: today's counter bucket, with the legacy
//     dual-cased cache counter merge and the fallback hit/miss estimate
//   - TimeSeries: hourly sums over the http_requests measurement
//   - Geography, TopContent, EdgeServerPerformance, DailyReport:
//     windowed SQL aggregations over request_logs and its dimensions
//
// All read derivations except cleanup are fail-soft: a store error is
// logged and an empty or degraded result is returned. Janitor.Cleanup
// is the one fail-loud operation; it rolls back the relational delete
// on any error and propagates it so a scheduler can retry or alert.
package analytics
