package timeseries

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxapi "github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/platinummonkey/edgestats/pkg/storage"
)

// Client handles the InfluxDB time-series sink. Points are appended
// once per tracking event and never mutated; reads aggregate by time
// range, so no ordering is required between concurrent writers.
type Client struct {
	client   influxdb2.Client
	writeAPI influxapi.WriteAPIBlocking
	queryAPI influxapi.QueryAPI
	config   storage.Config
}

// Entry is one flattened record from an aggregated Flux query: the
// bucket timestamp, the field that was aggregated, its summed value,
// and the full tag/column set the record carried.
type Entry struct {
	Time  time.Time              `json:"timestamp"`
	Field string                 `json:"field"`
	Value interface{}            `json:"value"`
	Tags  map[string]interface{} `json:"tags"`
}

// New creates a new time-series sink client
func New(config storage.Config) *Client {
	client := influxdb2.NewClient(config.InfluxURL, config.InfluxToken)
	return &Client{
		client:   client,
		writeAPI: client.WriteAPIBlocking(config.InfluxOrg, config.InfluxBucket),
		queryAPI: client.QueryAPI(config.InfluxOrg),
		config:   config,
	}
}

// WritePoint appends one point to a measurement with second precision
func (c *Client) WritePoint(ctx context.Context, measurement string, tags map[string]string, fields map[string]interface{}, ts time.Time) error {
	point := influxdb2.NewPoint(measurement, tags, fields, ts.Truncate(time.Second))
	if err := c.writeAPI.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("time-series write failed: %w", err)
	}
	return nil
}

// HourlySums queries a measurement over the trailing window, summed
// into 1-hour buckets. Empty buckets are omitted by the query itself
// (createEmpty: false), so the result only carries hours with traffic.
func (c *Client) HourlySums(ctx context.Context, measurement string, hours int) ([]Entry, error) {
	flux := fmt.Sprintf(`
		from(bucket: %q)
		|> range(start: -%dh)
		|> filter(fn: (r) => r["_measurement"] == %q)
		|> aggregateWindow(every: 1h, fn: sum, createEmpty: false)
		|> yield(name: "hourly_stats")
	`, c.config.InfluxBucket, hours, measurement)

	result, err := c.queryAPI.Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("time-series query failed: %w", err)
	}

	var entries []Entry
	for result.Next() {
		record := result.Record()
		entries = append(entries, Entry{
			Time:  record.Time(),
			Field: record.Field(),
			Value: record.Value(),
			Tags:  record.Values(),
		})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("time-series query failed: %w", err)
	}
	return entries, nil
}

// Ping checks InfluxDB connectivity
func (c *Client) Ping(ctx context.Context) error {
	ok, err := c.client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("influxdb ping failed: %w", err)
	}
	if !ok {
		return fmt.Errorf("influxdb not ready")
	}
	return nil
}

// Close releases the underlying HTTP resources
func (c *Client) Close() {
	c.client.Close()
}
