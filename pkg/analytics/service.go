package analytics

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/platinummonkey/edgestats/pkg/observability"
	"github.com/platinummonkey/edgestats/pkg/storage/timeseries"
)

// Service is the read-side derivation engine. It holds no mutable
// state of its own; every metric is recomputed from the stores at
// query time, so any number of instances can serve the same stores
// concurrently.
type Service struct {
	db       *sql.DB
	counters CounterStore
	series   SeriesStore
	logger   *observability.Logger
	reports  *reportCache
}

// NewService creates a new derivation service
func NewService(db *sql.DB, counters CounterStore, series SeriesStore, logger *observability.Logger) *Service {
	return &Service{
		db:       db,
		counters: counters,
		series:   series,
		logger:   logger,
		reports:  newReportCache(),
	}
}

// RealtimeMetrics is the snapshot derived from today's counter bucket
type RealtimeMetrics struct {
	Timestamp     time.Time        `json:"timestamp"`
	TotalRequests int64            `json:"total_requests"`
	CacheHits     int64            `json:"cache_hits"`
	CacheMisses   int64            `json:"cache_misses"`
	CacheHitRate  float64          `json:"cache_hit_rate"`
	StatusCodes   map[string]int64 `json:"status_codes"`
	BytesServed   int64            `json:"bytes_served"`
}

// GetRealtimeMetrics derives today's snapshot from the counter cache.
// Hit and miss totals merge the legacy dual-cased counter families;
// buckets with request traffic but no cache-outcome counters at all
// fall back to the estimated split. Unlike the other read derivations
// this one propagates a cache failure: with no counters there is
// nothing meaningful to degrade to.
func (s *Service) GetRealtimeMetrics(ctx context.Context) (*RealtimeMetrics, error) {
	counts, err := s.counters.Day(ctx, dayKey(time.Now()))
	if err != nil {
		return nil, err
	}

	total := counts["total_requests"]
	hits := legacyCounterSum(counts, "hit")
	misses := legacyCounterSum(counts, "miss")
	if hits == 0 && misses == 0 && total > 0 {
		hits, misses = estimateCacheSplit(total)
	}

	statusCodes := make(map[string]int64)
	for name, count := range counts {
		if strings.HasPrefix(name, "status_") {
			statusCodes[name] = count
		}
	}

	return &RealtimeMetrics{
		Timestamp:     time.Now(),
		TotalRequests: total,
		CacheHits:     hits,
		CacheMisses:   misses,
		CacheHitRate:  roundedRate(hits, total),
		StatusCodes:   statusCodes,
		BytesServed:   counts["total_bytes"],
	}, nil
}

// GetTimeSeries returns the trailing look-back window of http_requests
// summed into hourly buckets. Fail-soft: a sink error is logged and an
// empty sequence returned.
func (s *Service) GetTimeSeries(ctx context.Context, hours int) []timeseries.Entry {
	if hours <= 0 {
		hours = 24
	}

	entries, err := s.series.HourlySums(ctx, Measurement, hours)
	if err != nil {
		s.logger.WithError(err).Error("Time-series query failed")
		return []timeseries.Entry{}
	}
	if entries == nil {
		entries = []timeseries.Entry{}
	}
	return entries
}

// CountryStats is one (country, region) aggregate
type CountryStats struct {
	CountryCode  string `json:"country_code"`
	Region       string `json:"region"`
	RequestCount int64  `json:"request_count"`
	TotalBytes   int64  `json:"total_bytes"`
}

// GeoDistribution is the top-50 geographic breakdown of the last 24h
type GeoDistribution struct {
	Countries      []CountryStats `json:"countries"`
	TotalCountries int            `json:"total_countries"`
}

const geographyQuery = `
	SELECT
		country_code,
		region,
		COUNT(*) AS request_count,
		SUM(bytes_sent) AS total_bytes
	FROM request_logs
	WHERE timestamp > NOW() - INTERVAL '24 hours'
	AND country_code IS NOT NULL
	GROUP BY country_code, region
	ORDER BY request_count DESC
	LIMIT 50
`

// GetGeographicDistribution groups the last 24 hours of request rows
// by country and region. Fail-soft: errors yield an empty result.
func (s *Service) GetGeographicDistribution(ctx context.Context) *GeoDistribution {
	empty := &GeoDistribution{Countries: []CountryStats{}}

	rows, err := s.db.QueryContext(ctx, geographyQuery)
	if err != nil {
		s.logger.WithError(err).Error("Geographic query failed")
		return empty
	}
	defer rows.Close()

	var countries []CountryStats
	for rows.Next() {
		var c CountryStats
		var region sql.NullString
		if err := rows.Scan(&c.CountryCode, &region, &c.RequestCount, &c.TotalBytes); err != nil {
			s.logger.WithError(err).Error("Geographic scan failed")
			return empty
		}
		c.Region = region.String
		countries = append(countries, c)
	}
	if err := rows.Err(); err != nil {
		s.logger.WithError(err).Error("Geographic query failed")
		return empty
	}
	if countries == nil {
		countries = []CountryStats{}
	}

	return &GeoDistribution{
		Countries:      countries,
		TotalCountries: len(countries),
	}
}

// ContentStats is one file's aggregate over the last 24 hours
type ContentStats struct {
	Filename         string  `json:"filename"`
	OriginalName     string  `json:"original_name"`
	Mimetype         string  `json:"mimetype"`
	Size             int64   `json:"size"`
	RequestCount     int64   `json:"request_count"`
	TotalBytesServed int64   `json:"total_bytes_served"`
	AvgResponseTime  float64 `json:"avg_response_time"`
	CacheHits        int64   `json:"cache_hits"`
	CacheMisses      int64   `json:"cache_misses"`
	CacheHitRate     float64 `json:"cache_hit_rate"`
}

const topContentQuery = `
	SELECT
		f.filename,
		f.original_name,
		f.mimetype,
		f.size,
		COUNT(rl.id) AS request_count,
		SUM(rl.bytes_sent) AS total_bytes_served,
		AVG(rl.response_time) AS avg_response_time,
		COUNT(CASE WHEN UPPER(rl.cache_status) = 'HIT' THEN 1 END) AS cache_hits,
		COUNT(CASE WHEN UPPER(rl.cache_status) = 'MISS' THEN 1 END) AS cache_misses
	FROM files f
	JOIN request_logs rl ON f.id = rl.file_id
	WHERE rl.timestamp > NOW() - INTERVAL '24 hours'
	GROUP BY f.id, f.filename, f.original_name, f.mimetype, f.size
	ORDER BY request_count DESC
	LIMIT $1
`

// GetTopContent ranks files by request count over the last 24 hours.
// Fail-soft: errors yield an empty sequence.
func (s *Service) GetTopContent(ctx context.Context, limit int) []ContentStats {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, topContentQuery, limit)
	if err != nil {
		s.logger.WithError(err).Error("Top content query failed")
		return []ContentStats{}
	}
	defer rows.Close()

	var content []ContentStats
	for rows.Next() {
		var c ContentStats
		var avgResponse sql.NullFloat64
		if err := rows.Scan(
			&c.Filename, &c.OriginalName, &c.Mimetype, &c.Size,
			&c.RequestCount, &c.TotalBytesServed, &avgResponse,
			&c.CacheHits, &c.CacheMisses,
		); err != nil {
			s.logger.WithError(err).Error("Top content scan failed")
			return []ContentStats{}
		}
		c.AvgResponseTime = avgResponse.Float64
		c.CacheHitRate = roundedRate(c.CacheHits, c.RequestCount)
		content = append(content, c)
	}
	if err := rows.Err(); err != nil {
		s.logger.WithError(err).Error("Top content query failed")
		return []ContentStats{}
	}
	if content == nil {
		content = []ContentStats{}
	}
	return content
}

// EdgeServerStats is one edge node's live performance aggregate. Nodes
// without traffic in the window report zeros for every metric.
type EdgeServerStats struct {
	ID               string     `json:"id"`
	Region           string     `json:"region"`
	Status           string     `json:"status"`
	LastHeartbeat    *time.Time `json:"last_heartbeat"`
	TotalRequests    int64      `json:"total_requests"`
	AvgResponseTime  float64    `json:"avg_response_time"`
	TotalBytesServed int64      `json:"total_bytes_served"`
	CacheHitRate     float64    `json:"cache_hit_rate"`
}

const edgePerformanceQuery = `
	SELECT
		es.id,
		es.region,
		es.status,
		es.last_heartbeat,
		COALESCE(rl.request_count, 0) AS total_requests,
		COALESCE(rl.avg_response_time, 0) AS avg_response_time,
		COALESCE(rl.total_bytes, 0) AS total_bytes_served,
		COALESCE(rl.cache_hit_rate, 0) AS cache_hit_rate
	FROM edge_servers es
	LEFT JOIN (
		SELECT
			edge_server_id,
			COUNT(*) AS request_count,
			AVG(response_time) AS avg_response_time,
			SUM(bytes_sent) AS total_bytes,
			ROUND(
				(COUNT(CASE WHEN UPPER(cache_status) = 'HIT' THEN 1 END)::numeric /
				 COUNT(*)::numeric) * 100, 2
			) AS cache_hit_rate
		FROM request_logs
		WHERE timestamp > NOW() - INTERVAL '1 hour'
		GROUP BY edge_server_id
	) rl ON es.id = rl.edge_server_id
	ORDER BY total_requests DESC
`

// GetEdgeServerPerformance left-joins the edge node dimension against
// a one-hour aggregation window. Fail-soft: errors yield an empty
// sequence.
func (s *Service) GetEdgeServerPerformance(ctx context.Context) []EdgeServerStats {
	rows, err := s.db.QueryContext(ctx, edgePerformanceQuery)
	if err != nil {
		s.logger.WithError(err).Error("Edge performance query failed")
		return []EdgeServerStats{}
	}
	defer rows.Close()

	var servers []EdgeServerStats
	for rows.Next() {
		var es EdgeServerStats
		var heartbeat sql.NullTime
		if err := rows.Scan(
			&es.ID, &es.Region, &es.Status, &heartbeat,
			&es.TotalRequests, &es.AvgResponseTime,
			&es.TotalBytesServed, &es.CacheHitRate,
		); err != nil {
			s.logger.WithError(err).Error("Edge performance scan failed")
			return []EdgeServerStats{}
		}
		if heartbeat.Valid {
			es.LastHeartbeat = &heartbeat.Time
		}
		servers = append(servers, es)
	}
	if err := rows.Err(); err != nil {
		s.logger.WithError(err).Error("Edge performance query failed")
		return []EdgeServerStats{}
	}
	if servers == nil {
		servers = []EdgeServerStats{}
	}
	return servers
}
