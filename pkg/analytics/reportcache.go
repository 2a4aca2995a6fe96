package analytics

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// A report is a few KB, so entry count is the only sizing knob
	// that matters.
	reportCacheEntries = 128
	reportCacheTTL     = 12 * time.Hour
)

// reportCache memoizes daily reports for past calendar dates. Past
// dates are immutable once the day has rolled over, so the TTL exists
// only to bound memory over long uptimes, not for correctness.
// Today's report is never cached.
type reportCache struct {
	cache *lru.LRU[string, *DailyReport]
}

func newReportCache() *reportCache {
	return &reportCache{
		cache: lru.NewLRU[string, *DailyReport](reportCacheEntries, nil, reportCacheTTL),
	}
}

func (c *reportCache) get(date string) (*DailyReport, bool) {
	return c.cache.Get(date)
}

func (c *reportCache) put(date string, report *DailyReport) {
	c.cache.Add(date, report)
}
