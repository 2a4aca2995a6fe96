package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/edgestats/pkg/observability"
	"github.com/platinummonkey/edgestats/pkg/storage"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Storage configuration
	Storage storage.Config

	// Analytics configuration
	Analytics AnalyticsConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// AnalyticsConfig holds pipeline tuning knobs
type AnalyticsConfig struct {
	// RetentionDays is how long request logs and counter buckets are
	// kept before cleanup removes them.
	RetentionDays int

	// CleanupSchedule is the cron expression for scheduled cleanup runs.
	CleanupSchedule string

	// TrackRateLimit is the per-client-IP sustained rate for POST /track,
	// in requests per second. Zero disables rate limiting.
	TrackRateLimit float64

	// TrackRateBurst is the burst allowance on top of TrackRateLimit.
	TrackRateBurst int
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Storage:       loadStorageConfig(),
		Analytics:     loadAnalyticsConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("EDGESTATS_HOST", "0.0.0.0"),
		Port:            getEnv("EDGESTATS_PORT", "8080"),
		ReadTimeout:     getEnvDuration("EDGESTATS_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("EDGESTATS_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("EDGESTATS_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("EDGESTATS_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("EDGESTATS_HEALTH_PORT", "9090"),
	}
}

// loadStorageConfig loads storage configuration from environment
func loadStorageConfig() storage.Config {
	cfg := storage.DefaultConfig()

	// PostgreSQL config
	if pgURL := getEnv("EDGESTATS_POSTGRES_URL", ""); pgURL != "" {
		cfg.PostgresURL = pgURL
	}
	if maxConns := getEnvInt("EDGESTATS_POSTGRES_MAX_CONNS", 0); maxConns > 0 {
		cfg.PostgresMaxConns = maxConns
	}
	if minConns := getEnvInt("EDGESTATS_POSTGRES_MIN_CONNS", 0); minConns > 0 {
		cfg.PostgresMinConns = minConns
	}
	if timeout := getEnvDuration("EDGESTATS_POSTGRES_TIMEOUT", 0); timeout > 0 {
		cfg.PostgresTimeout = timeout
	}

	// Redis config
	if redisURL := getEnv("EDGESTATS_REDIS_URL", ""); redisURL != "" {
		cfg.RedisURL = redisURL
	}
	if redisPassword := getEnv("EDGESTATS_REDIS_PASSWORD", ""); redisPassword != "" {
		cfg.RedisPassword = redisPassword
	}
	if redisDB := getEnvInt("EDGESTATS_REDIS_DB", -1); redisDB >= 0 {
		cfg.RedisDB = redisDB
	}
	if redisMaxRetries := getEnvInt("EDGESTATS_REDIS_MAX_RETRIES", 0); redisMaxRetries > 0 {
		cfg.RedisMaxRetries = redisMaxRetries
	}
	if redisPoolSize := getEnvInt("EDGESTATS_REDIS_POOL_SIZE", 0); redisPoolSize > 0 {
		cfg.RedisPoolSize = redisPoolSize
	}

	// InfluxDB config
	if influxURL := getEnv("EDGESTATS_INFLUXDB_URL", ""); influxURL != "" {
		cfg.InfluxURL = influxURL
	}
	if influxToken := getEnv("EDGESTATS_INFLUXDB_TOKEN", ""); influxToken != "" {
		cfg.InfluxToken = influxToken
	}
	if influxOrg := getEnv("EDGESTATS_INFLUXDB_ORG", ""); influxOrg != "" {
		cfg.InfluxOrg = influxOrg
	}
	if influxBucket := getEnv("EDGESTATS_INFLUXDB_BUCKET", ""); influxBucket != "" {
		cfg.InfluxBucket = influxBucket
	}

	if counterTTL := getEnvDuration("EDGESTATS_COUNTER_TTL", 0); counterTTL > 0 {
		cfg.CounterTTL = counterTTL
	}

	return cfg
}

// loadAnalyticsConfig loads pipeline configuration from environment
func loadAnalyticsConfig() AnalyticsConfig {
	return AnalyticsConfig{
		RetentionDays:   getEnvInt("EDGESTATS_RETENTION_DAYS", 90),
		CleanupSchedule: getEnv("EDGESTATS_CLEANUP_SCHEDULE", "0 3 * * *"),
		TrackRateLimit:  getEnvFloat("EDGESTATS_TRACK_RATE_LIMIT", 200),
		TrackRateBurst:  getEnvInt("EDGESTATS_TRACK_RATE_BURST", 400),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           parseLogLevel(getEnv("EDGESTATS_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("EDGESTATS_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("EDGESTATS_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("EDGESTATS_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("EDGESTATS_OTEL_SERVICE_NAME", "edgestats"),
		OTelServiceVersion: getEnv("EDGESTATS_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("EDGESTATS_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	// Validate storage config
	if c.Storage.PostgresURL == "" {
		return fmt.Errorf("postgres URL is required")
	}
	if c.Storage.RedisURL == "" {
		return fmt.Errorf("redis URL is required")
	}
	if c.Storage.InfluxURL == "" {
		return fmt.Errorf("influxdb URL is required")
	}
	if c.Storage.InfluxOrg == "" || c.Storage.InfluxBucket == "" {
		return fmt.Errorf("influxdb org and bucket are required")
	}
	if c.Storage.CounterTTL <= 0 {
		return fmt.Errorf("counter TTL must be positive")
	}

	// Validate analytics config
	if c.Analytics.RetentionDays <= 0 {
		return fmt.Errorf("retention days must be positive")
	}
	if c.Analytics.CleanupSchedule == "" {
		return fmt.Errorf("cleanup schedule is required")
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns a float environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
