package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/pdtsp/bench"
)

func TestInfluxResultSinkWriteRun(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxResultSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	fixed := time.Unix(1700000000, 0)
	sink.now = func() time.Time { return fixed }

	rec := bench.RunResult{
		RunID:         "run-1",
		Instance:      "inst",
		Algorithm:     "TabuSearch",
		Seed:          7,
		Cost:          123.456789,
		Feasible:      true,
		Elapsed:       1500 * time.Millisecond,
		Improvements:  4,
		BestIteration: 42,
	}
	if err := sink.WriteRun(context.Background(), rec); err != nil {
		t.Fatalf("write error: %v", err)
	}

	p := write.NewPointWithMeasurement("pdtsp_run").
		AddTag("instance", "inst").
		AddTag("algorithm", "TabuSearch").
		AddTag("run_id", "run-1").
		AddTag("feasible", "true").
		AddField("cost", 123.457).
		AddField("elapsed_ms", 1500.0).
		AddField("seed", int64(7)).
		AddField("improvements", 4).
		AddField("best_iteration", 42).
		SetTime(fixed)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if strings.TrimSpace(body) != expected {
		t.Errorf("unexpected body:\n got %s\nwant %s", body, expected)
	}
}

func TestNewResultSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	sink := NewResultSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(NopSink); !ok {
		t.Fatalf("expected NopSink on failing health check, got %T", sink)
	}
	if !called {
		t.Fatal("health endpoint not called")
	}
}

func TestNewResultSinkWithFallbackHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"name":"influxdb","status":"pass"}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewResultSinkWithFallback(srv.URL, "tok", "org", "bucket")
	real, ok := sink.(*InfluxResultSink)
	if !ok {
		t.Fatalf("expected live sink, got %T", sink)
	}
	real.Close()
}
