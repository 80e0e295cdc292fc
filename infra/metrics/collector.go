// Package metrics exports live solver progress to Prometheus and benchmark
// results to InfluxDB. Both surfaces are optional; solvers never depend on
// them and publish progress through the event bus only.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/pdtsp/core/solver"
)

// ProgressCollector records best-so-far solver progress in Prometheus
// metrics, labeled by instance and algorithm.
type ProgressCollector struct {
	best         *prometheus.GaugeVec
	feasible     *prometheus.GaugeVec
	iteration    *prometheus.GaugeVec
	improvements *prometheus.CounterVec
}

// NewProgressCollector registers the progress metrics on the provided
// registerer. A nil registerer defaults to the global Prometheus registerer.
func NewProgressCollector(reg prometheus.Registerer) (*ProgressCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	best := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pdtsp_best_cost",
		Help: "Cost of the best tour found so far",
	}, []string{"instance", "algorithm"})
	feasible := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pdtsp_best_feasible",
		Help: "Whether the best tour found so far is feasible (1) or not (0)",
	}, []string{"instance", "algorithm"})
	iteration := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pdtsp_best_iteration",
		Help: "Iteration at which the best tour so far was found",
	}, []string{"instance", "algorithm"})
	improvements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pdtsp_improvements_total",
		Help: "Number of accepted best-tour improvements",
	}, []string{"instance", "algorithm"})

	if err := reg.Register(best); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			best = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(feasible); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			feasible = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(iteration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			iteration = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(improvements); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			improvements = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}

	return &ProgressCollector{
		best:         best,
		feasible:     feasible,
		iteration:    iteration,
		improvements: improvements,
	}, nil
}

// Observe records one progress event.
func (c *ProgressCollector) Observe(instance string, p solver.Progress) {
	labels := prometheus.Labels{"instance": instance, "algorithm": p.Algorithm}
	c.best.With(labels).Set(p.Cost)
	f := 0.0
	if p.Feasible {
		f = 1
	}
	c.feasible.With(labels).Set(f)
	c.iteration.With(labels).Set(float64(p.Iteration))
	c.improvements.With(labels).Inc()
}

// Watch consumes progress events until the channel closes or ctx is
// canceled. It is meant to run in its own goroutine alongside a solve.
func (c *ProgressCollector) Watch(ctx context.Context, instance string, events <-chan solver.Progress) {
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-events:
			if !ok {
				return
			}
			c.Observe(instance, p)
		}
	}
}
