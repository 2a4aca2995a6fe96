package analytics

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func expectSummary(mock sqlmock.Sqlmock, date string) {
	rows := sqlmock.NewRows([]string{
		"total_requests", "unique_visitors", "total_bytes", "avg_response_time",
		"cache_hits", "cache_misses", "success_requests", "error_requests",
	}).AddRow(1000, 120, 4096000, 15.5, 700, 200, 950, 50)
	mock.ExpectQuery(regexp.QuoteMeta("COUNT(DISTINCT client_ip)")).
		WithArgs(date).
		WillReturnRows(rows)
}

func expectTopFiles(mock sqlmock.Sqlmock, date string) {
	rows := sqlmock.NewRows([]string{"filename", "original_name", "requests", "bytes_served"}).
		AddRow("a1b2.png", "logo.png", 300, 614400).
		AddRow("c3d4.css", "site.css", 150, 76800)
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY f.id, f.filename, f.original_name")).
		WithArgs(date).
		WillReturnRows(rows)
}

func expectStatusCodes(mock sqlmock.Sqlmock, date string) {
	rows := sqlmock.NewRows([]string{"status_code", "count"}).
		AddRow(200, 950).
		AddRow(404, 40).
		AddRow(500, 10)
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY status_code")).
		WithArgs(date).
		WillReturnRows(rows)
}

func TestGetDailyReport(t *testing.T) {
	svc, mock, cleanup := newTestService(t, nil, nil)
	defer cleanup()

	const date = "2024-06-01"
	expectSummary(mock, date)
	expectTopFiles(mock, date)
	expectStatusCodes(mock, date)

	report := svc.GetDailyReport(context.Background(), date)
	if report.Error != "" {
		t.Fatalf("Report degraded unexpectedly: %s", report.Error)
	}
	if report.Date != date {
		t.Errorf("Date = %q, want %q", report.Date, date)
	}
	if report.Summary == nil {
		t.Fatal("Summary missing")
	}
	if report.Summary.TotalRequests != 1000 || report.Summary.UniqueVisitors != 120 {
		t.Errorf("Unexpected summary: %+v", report.Summary)
	}
	// 700 hits / (700+200) outcomes
	if report.Summary.CacheHitRate != 77.78 {
		t.Errorf("CacheHitRate = %v, want 77.78", report.Summary.CacheHitRate)
	}
	if report.Summary.ErrorRate != 5.0 {
		t.Errorf("ErrorRate = %v, want 5.0", report.Summary.ErrorRate)
	}
	if len(report.TopFiles) != 2 || report.TopFiles[0].OriginalName != "logo.png" {
		t.Errorf("Unexpected top files: %+v", report.TopFiles)
	}
	if len(report.StatusCodes) != 3 || report.StatusCodes[0].StatusCode != 200 {
		t.Errorf("Unexpected status codes: %+v", report.StatusCodes)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestGetDailyReport_Degraded(t *testing.T) {
	svc, mock, cleanup := newTestService(t, nil, nil)
	defer cleanup()

	const date = "2024-06-01"
	mock.ExpectQuery(regexp.QuoteMeta("COUNT(DISTINCT client_ip)")).
		WithArgs(date).
		WillReturnError(errors.New("connection refused"))

	report := svc.GetDailyReport(context.Background(), date)
	if report == nil {
		t.Fatal("Degraded report must never be nil")
	}
	if report.Date != date {
		t.Errorf("Date = %q, want %q", report.Date, date)
	}
	if report.Error == "" {
		t.Error("Degraded report must carry the error")
	}
	if report.Summary != nil || report.TopFiles != nil || report.StatusCodes != nil {
		t.Errorf("Degraded report should carry no partial data: %+v", report)
	}
}

func TestGetDailyReport_PastDateCached(t *testing.T) {
	svc, mock, cleanup := newTestService(t, nil, nil)
	defer cleanup()

	const date = "2024-06-01"
	expectSummary(mock, date)
	expectTopFiles(mock, date)
	expectStatusCodes(mock, date)

	first := svc.GetDailyReport(context.Background(), date)
	if first.Error != "" {
		t.Fatalf("Report degraded unexpectedly: %s", first.Error)
	}

	// Second call must be served from the cache; no further queries are
	// expected on the mock.
	second := svc.GetDailyReport(context.Background(), date)
	if second != first {
		t.Error("Past-date report should come back from the cache")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestGetDailyReport_DegradedNotCached(t *testing.T) {
	svc, mock, cleanup := newTestService(t, nil, nil)
	defer cleanup()

	const date = "2024-06-01"
	mock.ExpectQuery(regexp.QuoteMeta("COUNT(DISTINCT client_ip)")).
		WithArgs(date).
		WillReturnError(errors.New("connection refused"))

	degraded := svc.GetDailyReport(context.Background(), date)
	if degraded.Error == "" {
		t.Fatal("Expected a degraded report")
	}

	// Once the store recovers the report is rebuilt, not replayed.
	expectSummary(mock, date)
	expectTopFiles(mock, date)
	expectStatusCodes(mock, date)

	rebuilt := svc.GetDailyReport(context.Background(), date)
	if rebuilt.Error != "" {
		t.Errorf("Rebuilt report degraded: %s", rebuilt.Error)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestGetDailyReport_TodayNotCached(t *testing.T) {
	svc, mock, cleanup := newTestService(t, nil, nil)
	defer cleanup()

	today := dayKey(time.Now())
	for i := 0; i < 2; i++ {
		expectSummary(mock, today)
		expectTopFiles(mock, today)
		expectStatusCodes(mock, today)
	}

	first := svc.GetDailyReport(context.Background(), today)
	second := svc.GetDailyReport(context.Background(), today)
	if first == second {
		t.Error("Today's report must be rebuilt on every call")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestGetDailyReport_QuietDay(t *testing.T) {
	svc, mock, cleanup := newTestService(t, nil, nil)
	defer cleanup()

	const date = "2024-06-02"
	summary := sqlmock.NewRows([]string{
		"total_requests", "unique_visitors", "total_bytes", "avg_response_time",
		"cache_hits", "cache_misses", "success_requests", "error_requests",
	}).AddRow(0, 0, 0, 0.0, 0, 0, 0, 0)
	mock.ExpectQuery(regexp.QuoteMeta("COUNT(DISTINCT client_ip)")).
		WithArgs(date).
		WillReturnRows(summary)
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY f.id, f.filename, f.original_name")).
		WithArgs(date).
		WillReturnRows(sqlmock.NewRows([]string{"filename", "original_name", "requests", "bytes_served"}))
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY status_code")).
		WithArgs(date).
		WillReturnRows(sqlmock.NewRows([]string{"status_code", "count"}))

	report := svc.GetDailyReport(context.Background(), date)
	if report.Error != "" {
		t.Fatalf("Report degraded unexpectedly: %s", report.Error)
	}
	if report.Summary.TotalRequests != 0 {
		t.Errorf("TotalRequests = %d, want 0", report.Summary.TotalRequests)
	}
	if report.Summary.CacheHitRate != 0 || report.Summary.ErrorRate != 0 {
		t.Errorf("Zero-traffic rates should be 0, got %+v", report.Summary)
	}
	if report.TopFiles == nil || report.StatusCodes == nil {
		t.Error("Quiet-day report should carry empty sequences, not nils")
	}
}
