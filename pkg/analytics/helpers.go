package analytics

import (
	"math"
	"strings"
	"time"
)

// roundedRate returns num/den as a percentage rounded to two decimal
// places, or 0 when the denominator is zero. Every rate the engine
// derives goes through here so none can ever be NaN.
func roundedRate(num, den int64) float64 {
	if den <= 0 {
		return 0
	}
	return math.Round(float64(num)/float64(den)*100*100) / 100
}

// estimateCacheSplit splits a request total into assumed hits and
// misses for buckets that carry no cache_* counters at all (edges
// running builds that predate cache-outcome tracking). The 10% miss
// share is a placeholder policy inherited from the legacy pipeline,
// not a derived statistic.
func estimateCacheSplit(total int64) (hits, misses int64) {
	misses = total / 10
	if misses < 1 {
		misses = 1
	}
	return total - misses, misses
}

// legacyCounterSum merges the two historical casings of a cache
// outcome counter. Old edge builds reported upper-cased outcomes, so
// buckets can hold both cache_hit and cache_HIT; reads sum both. The
// canonical write path only produces the lower-cased family.
func legacyCounterSum(counts map[string]int64, outcome string) int64 {
	return counts["cache_"+strings.ToLower(outcome)] + counts["cache_"+strings.ToUpper(outcome)]
}

// dayKey formats a point in time as its counter bucket date, using the
// service-local clock's calendar.
func dayKey(t time.Time) string {
	return t.Format(dateLayout)
}

// ParseReportDate validates a YYYY-MM-DD calendar date. Callers reject
// bad dates as client errors before the engine is ever invoked.
func ParseReportDate(date string) (time.Time, error) {
	return time.Parse(dateLayout, date)
}
