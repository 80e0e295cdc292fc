package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/pdtsp/core/solver"
	"github.com/kilianp07/pdtsp/internal/eventbus"
)

func scrape(t *testing.T, reg *prometheus.Registry) string {
	t.Helper()
	srv := httptest.NewServer(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(data)
}

func TestProgressCollectorObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewProgressCollector(reg)
	if err != nil {
		t.Fatalf("collector: %v", err)
	}
	c.Observe("inst", solver.Progress{Algorithm: "SimulatedAnnealing", Cost: 120.5, Feasible: false, Iteration: 3})
	c.Observe("inst", solver.Progress{Algorithm: "SimulatedAnnealing", Cost: 98.25, Feasible: true, Iteration: 17})

	body := scrape(t, reg)
	for _, want := range []string{
		`pdtsp_best_cost{algorithm="SimulatedAnnealing",instance="inst"} 98.25`,
		`pdtsp_best_feasible{algorithm="SimulatedAnnealing",instance="inst"} 1`,
		`pdtsp_best_iteration{algorithm="SimulatedAnnealing",instance="inst"} 17`,
		`pdtsp_improvements_total{algorithm="SimulatedAnnealing",instance="inst"} 2`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q in scrape:\n%s", want, body)
		}
	}
}

func TestProgressCollectorReregister(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewProgressCollector(reg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := NewProgressCollector(reg)
	if err != nil {
		t.Fatalf("second registration should reuse collectors: %v", err)
	}
	first.Observe("inst", solver.Progress{Algorithm: "VND", Cost: 10, Feasible: true})
	second.Observe("inst", solver.Progress{Algorithm: "VND", Cost: 9, Feasible: true})

	if body := scrape(t, reg); !strings.Contains(body, `pdtsp_improvements_total{algorithm="VND",instance="inst"} 2`) {
		t.Errorf("collectors not shared:\n%s", body)
	}
}

func TestWatchDrainsBusUntilClose(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewProgressCollector(reg)
	if err != nil {
		t.Fatalf("collector: %v", err)
	}
	bus := eventbus.New[solver.Progress](8)
	events := bus.Subscribe()
	for i := 1; i <= 3; i++ {
		bus.Publish(solver.Progress{Algorithm: "VND", Cost: float64(100 - i), Feasible: true, Iteration: i})
	}
	bus.Close()

	done := make(chan struct{})
	go func() {
		c.Watch(context.Background(), "inst", events)
		close(done)
	}()
	<-done

	body := scrape(t, reg)
	if !strings.Contains(body, `pdtsp_improvements_total{algorithm="VND",instance="inst"} 3`) {
		t.Errorf("not all events observed:\n%s", body)
	}
	if !strings.Contains(body, `pdtsp_best_cost{algorithm="VND",instance="inst"} 97`) {
		t.Errorf("last cost not recorded:\n%s", body)
	}
}

func TestWatchStopsOnContextCancel(t *testing.T) {
	c, err := NewProgressCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("collector: %v", err)
	}
	bus := eventbus.New[solver.Progress](1)
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Watch(ctx, "inst", bus.Subscribe())
}
