// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	EDGESTATS_HOST="0.0.0.0"
//	EDGESTATS_PORT="8080"
//	EDGESTATS_HEALTH_PORT="9090"
//	EDGESTATS_READ_TIMEOUT="15s"
//	EDGESTATS_WRITE_TIMEOUT="15s"
//
// Storage settings:
//
//	EDGESTATS_POSTGRES_URL="postgres://localhost/cdn_db"
//	EDGESTATS_POSTGRES_MAX_CONNS="20"
//	EDGESTATS_REDIS_URL="redis://localhost:6379"
//	EDGESTATS_REDIS_POOL_SIZE="10"
//	EDGESTATS_INFLUXDB_URL="http://localhost:8086"
//	EDGESTATS_INFLUXDB_ORG="cdn-org"
//	EDGESTATS_INFLUXDB_BUCKET="cdn-analytics"
//	EDGESTATS_COUNTER_TTL="168h"
//
// Pipeline settings:
//
//	EDGESTATS_RETENTION_DAYS="90"
//	EDGESTATS_CLEANUP_SCHEDULE="0 3 * * *"
//	EDGESTATS_TRACK_RATE_LIMIT="200"
//	EDGESTATS_TRACK_RATE_BURST="400"
//
// Observability settings:
//
//	EDGESTATS_LOG_LEVEL="info"  # debug, info, warn, error
//	EDGESTATS_METRICS_ENABLED="true"
//	EDGESTATS_OTEL_ENABLED="true"
//	EDGESTATS_OTEL_ENDPOINT="otel-collector:4317"
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Server: %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//	fmt.Printf("Log level: %s\n", cfg.Observability.LogLevel)
//
// # Related Packages
//
//   - pkg/storage: Uses storage configuration
//   - pkg/observability: Uses observability configuration
package config
