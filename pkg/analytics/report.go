package analytics

import (
	"context"
	"time"
)

// ReportSummary is the single-pass aggregate of one calendar day
type ReportSummary struct {
	TotalRequests   int64   `json:"total_requests"`
	UniqueVisitors  int64   `json:"unique_visitors"`
	TotalBytes      int64   `json:"total_bytes"`
	AvgResponseTime float64 `json:"avg_response_time"`
	CacheHits       int64   `json:"cache_hits"`
	CacheMisses     int64   `json:"cache_misses"`
	SuccessRequests int64   `json:"success_requests"`
	ErrorRequests   int64   `json:"error_requests"`
	CacheHitRate    float64 `json:"cache_hit_rate"`
	ErrorRate       float64 `json:"error_rate"`
}

// ReportFile is one entry in a report's top-files ranking
type ReportFile struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	Requests     int64  `json:"requests"`
	BytesServed  int64  `json:"bytes_served"`
}

// StatusCount is one row of a report's status-code histogram
type StatusCount struct {
	StatusCode int   `json:"status_code"`
	Count      int64 `json:"count"`
}

// DailyReport is the full report for one calendar date. A report built
// against a failing store carries only the date and the error string;
// it is always structurally valid and never nil.
type DailyReport struct {
	Date        string         `json:"date"`
	Summary     *ReportSummary `json:"summary,omitempty"`
	TopFiles    []ReportFile   `json:"top_files,omitempty"`
	StatusCodes []StatusCount  `json:"status_codes,omitempty"`
	Error       string         `json:"error,omitempty"`
}

const reportSummaryQuery = `
	SELECT
		COUNT(*) AS total_requests,
		COUNT(DISTINCT client_ip) AS unique_visitors,
		COALESCE(SUM(bytes_sent), 0) AS total_bytes,
		COALESCE(AVG(response_time), 0) AS avg_response_time,
		COUNT(CASE WHEN UPPER(cache_status) = 'HIT' THEN 1 END) AS cache_hits,
		COUNT(CASE WHEN UPPER(cache_status) = 'MISS' THEN 1 END) AS cache_misses,
		COUNT(CASE WHEN status_code >= 200 AND status_code < 300 THEN 1 END) AS success_requests,
		COUNT(CASE WHEN status_code >= 400 THEN 1 END) AS error_requests
	FROM request_logs
	WHERE DATE(timestamp) = $1
`

const reportTopFilesQuery = `
	SELECT
		f.filename,
		f.original_name,
		COUNT(rl.id) AS requests,
		SUM(rl.bytes_sent) AS bytes_served
	FROM files f
	JOIN request_logs rl ON f.id = rl.file_id
	WHERE DATE(rl.timestamp) = $1
	GROUP BY f.id, f.filename, f.original_name
	ORDER BY requests DESC
	LIMIT 10
`

const reportStatusCodesQuery = `
	SELECT
		status_code,
		COUNT(*) AS count
	FROM request_logs
	WHERE DATE(timestamp) = $1
	GROUP BY status_code
	ORDER BY count DESC
`

// GetDailyReport builds the report for a YYYY-MM-DD date the caller
// has already validated. It never fails loud: on a store error the
// returned report carries the date and an error indicator in place of
// summary, top files, and status codes. Reports for past dates are
// immutable and served from an in-process LRU once built.
func (s *Service) GetDailyReport(ctx context.Context, date string) *DailyReport {
	today := dayKey(time.Now())
	if date != today {
		if cached, ok := s.reports.get(date); ok {
			return cached
		}
	}

	report := s.buildDailyReport(ctx, date)
	if report.Error == "" && date < today {
		s.reports.put(date, report)
	}
	return report
}

func (s *Service) buildDailyReport(ctx context.Context, date string) *DailyReport {
	summary := &ReportSummary{}
	err := s.db.QueryRowContext(ctx, reportSummaryQuery, date).Scan(
		&summary.TotalRequests,
		&summary.UniqueVisitors,
		&summary.TotalBytes,
		&summary.AvgResponseTime,
		&summary.CacheHits,
		&summary.CacheMisses,
		&summary.SuccessRequests,
		&summary.ErrorRequests,
	)
	if err != nil {
		return s.degradedReport(date, err)
	}

	summary.CacheHitRate = roundedRate(summary.CacheHits, summary.CacheHits+summary.CacheMisses)
	summary.ErrorRate = roundedRate(summary.ErrorRequests, summary.TotalRequests)

	rows, err := s.db.QueryContext(ctx, reportTopFilesQuery, date)
	if err != nil {
		return s.degradedReport(date, err)
	}
	defer rows.Close()

	topFiles := []ReportFile{}
	for rows.Next() {
		var f ReportFile
		if err := rows.Scan(&f.Filename, &f.OriginalName, &f.Requests, &f.BytesServed); err != nil {
			return s.degradedReport(date, err)
		}
		topFiles = append(topFiles, f)
	}
	if err := rows.Err(); err != nil {
		return s.degradedReport(date, err)
	}

	statusRows, err := s.db.QueryContext(ctx, reportStatusCodesQuery, date)
	if err != nil {
		return s.degradedReport(date, err)
	}
	defer statusRows.Close()

	statusCodes := []StatusCount{}
	for statusRows.Next() {
		var sc StatusCount
		if err := statusRows.Scan(&sc.StatusCode, &sc.Count); err != nil {
			return s.degradedReport(date, err)
		}
		statusCodes = append(statusCodes, sc)
	}
	if err := statusRows.Err(); err != nil {
		return s.degradedReport(date, err)
	}

	return &DailyReport{
		Date:        date,
		Summary:     summary,
		TopFiles:    topFiles,
		StatusCodes: statusCodes,
	}
}

func (s *Service) degradedReport(date string, err error) *DailyReport {
	s.logger.WithField("date", date).WithError(err).Error("Daily report generation failed")
	return &DailyReport{Date: date, Error: err.Error()}
}
