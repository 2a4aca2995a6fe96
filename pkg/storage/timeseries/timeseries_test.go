package timeseries

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/platinummonkey/edgestats/pkg/storage"
)

func testConfig(url string) storage.Config {
	config := storage.DefaultConfig()
	config.InfluxURL = url
	config.InfluxToken = "test-token"
	config.InfluxOrg = "cdn-org"
	config.InfluxBucket = "cdn-analytics"
	return config
}

func TestWritePoint(t *testing.T) {
	var body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/v2/write") {
			raw, _ := io.ReadAll(r.Body)
			body = string(raw)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := New(testConfig(server.URL))
	defer client.Close()

	ts := time.Date(2024, 6, 1, 12, 0, 0, 500, time.UTC)
	err := client.WritePoint(context.Background(), "http_requests",
		map[string]string{"edge_server": "edge-1", "cache_status": "HIT"},
		map[string]interface{}{"bytes_sent": int64(2048), "response_time": int64(12)},
		ts,
	)
	if err != nil {
		t.Fatalf("WritePoint() error = %v", err)
	}

	if !strings.HasPrefix(body, "http_requests,") {
		t.Errorf("Line protocol should start with the measurement: %q", body)
	}
	if !strings.Contains(body, "edge_server=edge-1") || !strings.Contains(body, "cache_status=HIT") {
		t.Errorf("Line protocol missing tags: %q", body)
	}
	if !strings.Contains(body, "bytes_sent=2048i") {
		t.Errorf("Line protocol missing fields: %q", body)
	}
	// Sub-second precision is truncated away
	wantTS := strconv.FormatInt(ts.Truncate(time.Second).UnixNano(), 10)
	if !strings.HasSuffix(strings.TrimSpace(body), " "+wantTS) {
		t.Errorf("Timestamp should be truncated to seconds: %q", body)
	}
}

func TestWritePoint_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"code":"internal error","message":"engine unavailable"}`))
	}))
	defer server.Close()

	client := New(testConfig(server.URL))
	defer client.Close()

	err := client.WritePoint(context.Background(), "http_requests",
		map[string]string{"edge_server": "edge-1"},
		map[string]interface{}{"bytes_sent": int64(1)},
		time.Now(),
	)
	if err == nil {
		t.Fatal("WritePoint() should surface server errors")
	}
	if !strings.Contains(err.Error(), "time-series write failed") {
		t.Errorf("Error should be wrapped: %v", err)
	}
}

const hourlySumsCSV = `#datatype,string,long,dateTime:RFC3339,dateTime:RFC3339,dateTime:RFC3339,long,string,string
#group,false,false,true,true,false,false,true,true
#default,_result,,,,,,,
,result,table,_start,_stop,_time,_value,_field,_measurement
,,0,2024-06-01T00:00:00Z,2024-06-02T00:00:00Z,2024-06-01T01:00:00Z,4096,bytes_sent,http_requests
,,0,2024-06-01T00:00:00Z,2024-06-02T00:00:00Z,2024-06-01T02:00:00Z,2048,bytes_sent,http_requests
`

func TestHourlySums(t *testing.T) {
	var fluxQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/v2/query") {
			raw, _ := io.ReadAll(r.Body)
			fluxQuery = string(raw)
			w.Header().Set("Content-Type", "text/csv")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(hourlySumsCSV))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := New(testConfig(server.URL))
	defer client.Close()

	entries, err := client.HourlySums(context.Background(), "http_requests", 24)
	if err != nil {
		t.Fatalf("HourlySums() error = %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("HourlySums returned %d entries, want 2", len(entries))
	}
	if entries[0].Field != "bytes_sent" {
		t.Errorf("Field = %q, want bytes_sent", entries[0].Field)
	}
	if entries[0].Value != int64(4096) {
		t.Errorf("Value = %v (%T), want 4096", entries[0].Value, entries[0].Value)
	}
	want := time.Date(2024, 6, 1, 1, 0, 0, 0, time.UTC)
	if !entries[0].Time.Equal(want) {
		t.Errorf("Time = %v, want %v", entries[0].Time, want)
	}

	// The query is scoped to the configured bucket and trailing window
	for _, fragment := range []string{"cdn-analytics", "range(start: -24h)", "http_requests", "aggregateWindow(every: 1h"} {
		if !strings.Contains(fluxQuery, fragment) {
			t.Errorf("Flux query missing %q: %s", fragment, fluxQuery)
		}
	}
}

func TestHourlySums_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":"invalid","message":"compilation failed"}`))
	}))
	defer server.Close()

	client := New(testConfig(server.URL))
	defer client.Close()

	if _, err := client.HourlySums(context.Background(), "http_requests", 24); err == nil {
		t.Fatal("HourlySums() should surface server errors")
	}
}
