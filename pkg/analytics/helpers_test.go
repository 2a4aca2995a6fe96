package analytics

import (
	"testing"
	"time"
)

func TestRoundedRate(t *testing.T) {
	tests := []struct {
		name string
		num  int64
		den  int64
		want float64
	}{
		{name: "zero denominator", num: 5, den: 0, want: 0},
		{name: "negative denominator", num: 5, den: -1, want: 0},
		{name: "zero numerator", num: 0, den: 100, want: 0},
		{name: "exact percentage", num: 7, den: 10, want: 70.0},
		{name: "rounds to two places", num: 1, den: 3, want: 33.33},
		{name: "rounds up", num: 2, den: 3, want: 66.67},
		{name: "full rate", num: 10, den: 10, want: 100.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := roundedRate(tt.num, tt.den); got != tt.want {
				t.Errorf("roundedRate(%d, %d) = %v, want %v", tt.num, tt.den, got, tt.want)
			}
		})
	}
}

func TestEstimateCacheSplit(t *testing.T) {
	tests := []struct {
		name       string
		total      int64
		wantHits   int64
		wantMisses int64
	}{
		{name: "single request", total: 1, wantHits: 0, wantMisses: 1},
		{name: "below floor threshold", total: 9, wantHits: 8, wantMisses: 1},
		{name: "at threshold", total: 10, wantHits: 9, wantMisses: 1},
		{name: "large total", total: 100, wantHits: 90, wantMisses: 10},
		{name: "non-divisible total", total: 105, wantHits: 95, wantMisses: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, misses := estimateCacheSplit(tt.total)
			if hits != tt.wantHits || misses != tt.wantMisses {
				t.Errorf("estimateCacheSplit(%d) = (%d, %d), want (%d, %d)",
					tt.total, hits, misses, tt.wantHits, tt.wantMisses)
			}
			if hits+misses != tt.total {
				t.Errorf("split does not sum back to total: %d + %d != %d", hits, misses, tt.total)
			}
		})
	}
}

func TestLegacyCounterSum(t *testing.T) {
	counts := map[string]int64{
		"cache_hit":      70,
		"cache_HIT":      5,
		"cache_miss":     20,
		"total_requests": 100,
	}

	if got := legacyCounterSum(counts, "hit"); got != 75 {
		t.Errorf("legacyCounterSum(hit) = %d, want 75", got)
	}
	if got := legacyCounterSum(counts, "miss"); got != 20 {
		t.Errorf("legacyCounterSum(miss) = %d, want 20", got)
	}
	if got := legacyCounterSum(counts, "expired"); got != 0 {
		t.Errorf("legacyCounterSum(expired) = %d, want 0", got)
	}
	// Outcome casing on the way in does not matter
	if got := legacyCounterSum(counts, "HIT"); got != 75 {
		t.Errorf("legacyCounterSum(HIT) = %d, want 75", got)
	}
}

func TestDayKey(t *testing.T) {
	ts := time.Date(2024, 6, 1, 23, 59, 59, 0, time.Local)
	if got := dayKey(ts); got != "2024-06-01" {
		t.Errorf("dayKey = %q, want 2024-06-01", got)
	}
}

func TestParseReportDate(t *testing.T) {
	tests := []struct {
		date    string
		wantErr bool
	}{
		{date: "2024-06-01", wantErr: false},
		{date: "2024-12-31", wantErr: false},
		{date: "2024-02-30", wantErr: true},
		{date: "2024-13-01", wantErr: true},
		{date: "20240601", wantErr: true},
		{date: "not-a-date", wantErr: true},
		{date: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			_, err := ParseReportDate(tt.date)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseReportDate(%q) error = %v, wantErr %v", tt.date, err, tt.wantErr)
			}
		})
	}
}
