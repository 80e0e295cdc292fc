package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/pdtsp/bench"
	"github.com/kilianp07/pdtsp/infra/logger"
)

// InfluxResultSink writes benchmark runs to an InfluxDB instance using the
// official client.
type InfluxResultSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
	now      func() time.Time
}

// NewInfluxResultSink creates a sink configured for the given InfluxDB endpoint.
func NewInfluxResultSink(url, token, org, bucket string) *InfluxResultSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxResultSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
		now:      time.Now,
	}
}

// NewResultSinkWithFallback tries to ping the InfluxDB instance and returns a
// NopSink if the health check fails, so benchmarks run without the database.
func NewResultSinkWithFallback(url, token, org, bucket string) bench.Sink {
	sink := NewInfluxResultSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return NopSink{}
	}
	return sink
}

// WriteRun writes one benchmark row as a point. The write uses its own
// timeout so records still land when the benchmark context was canceled.
func (s *InfluxResultSink) WriteRun(_ context.Context, rec bench.RunResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("pdtsp_run").
		AddTag("instance", rec.Instance).
		AddTag("algorithm", rec.Algorithm).
		AddTag("run_id", rec.RunID).
		AddTag("feasible", strconv.FormatBool(rec.Feasible)).
		AddField("cost", round3(rec.Cost)).
		AddField("elapsed_ms", round3(rec.Elapsed.Seconds()*1000)).
		AddField("seed", rec.Seed).
		AddField("improvements", rec.Improvements).
		AddField("best_iteration", rec.BestIteration).
		SetTime(s.now())
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying HTTP client.
func (s *InfluxResultSink) Close() {
	s.client.Close()
}

// NopSink discards benchmark records.
type NopSink struct{}

func (NopSink) WriteRun(context.Context, bench.RunResult) error { return nil }
func (NopSink) Close()                                          {}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
