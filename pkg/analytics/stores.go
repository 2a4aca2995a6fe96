package analytics

import (
	"context"
	"time"

	"github.com/platinummonkey/edgestats/pkg/storage/timeseries"
)

// Measurement is the time-series measurement every tracked request is
// appended to.
const Measurement = "http_requests"

// dateLayout is the calendar-date form used for counter bucket keys
// and report parameters.
const dateLayout = "2006-01-02"

// SeriesStore is the slice of the time-series sink the pipeline uses.
// Implemented by timeseries.Client; tests substitute an in-memory fake.
type SeriesStore interface {
	WritePoint(ctx context.Context, measurement string, tags map[string]string, fields map[string]interface{}, ts time.Time) error
	HourlySums(ctx context.Context, measurement string, hours int) ([]timeseries.Entry, error)
}

// CounterStore is the slice of the daily counter cache the pipeline
// uses. Implemented by counters.Client.
type CounterStore interface {
	Increment(ctx context.Context, day string, deltas map[string]int64) error
	Day(ctx context.Context, day string) (map[string]int64, error)
	DeleteDay(ctx context.Context, day string) (bool, error)
}
