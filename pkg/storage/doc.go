// Package storage holds the configuration shared by the three backing
// stores of the analytics pipeline:
//
//   - Redis: per-day hash buckets of monotonic counters (storage/counters)
//   - InfluxDB: the append-only http_requests time series (storage/timeseries)
//   - PostgreSQL: durable request_logs rows plus the files and
//     edge_servers dimension tables, opened with database/sql + lib/pq
//
// The relational schema is owned by the delivery control plane; this
// service only reads it, except for retention deletes.
package storage
