// Package bench runs repeated solver executions over one instance and
// aggregates per-algorithm statistics for comparison tables. The same harness
// backs both the compare and benchmark commands.
package bench

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/pdtsp/core/exact"
	corelogger "github.com/kilianp07/pdtsp/core/logger"
	"github.com/kilianp07/pdtsp/core/pdtsp"
	"github.com/kilianp07/pdtsp/core/solver"
	"github.com/kilianp07/pdtsp/infra/logger"
	"github.com/kilianp07/pdtsp/internal/eventbus"
)

// RunResult is one solver execution. BestIteration is the iteration at which
// the final best tour was found; Improvements counts accepted improvements.
type RunResult struct {
	RunID         string
	Instance      string
	Algorithm     string
	Seed          int64
	Cost          float64
	Feasible      bool
	Elapsed       time.Duration
	Improvements  int
	BestIteration int
}

// Sink receives one record per completed run, e.g. the Influx result sink.
type Sink interface {
	WriteRun(ctx context.Context, rec RunResult) error
	Close()
}

// Config drives a harness. Each algorithm is run Runs times, repetition r
// seeded with Seed+r so repetitions differ but whole sweeps reproduce.
type Config struct {
	Algorithms []solver.Algorithm
	Runs       int
	TimeLimit  time.Duration
	Seed       int64
	Workers    int
	// Parallel caps concurrent runs. Above 1, wall-clock timings of
	// individual runs become noisy; costs stay reproducible.
	Parallel int
	Log      corelogger.Logger
	Sink     Sink
}

// Harness executes the configured sweep over a single instance.
type Harness struct {
	in  *pdtsp.Instance
	cfg Config
}

func New(in *pdtsp.Instance, cfg Config) *Harness {
	if cfg.Runs <= 0 {
		cfg.Runs = 1
	}
	if cfg.Parallel <= 0 {
		cfg.Parallel = 1
	}
	if cfg.Log == nil {
		cfg.Log = logger.NopLogger{}
	}
	return &Harness{in: in, cfg: cfg}
}

// Report is the harness outcome for one instance. Bound is the assignment
// relaxation lower bound when the instance qualifies for it.
type Report struct {
	Instance string
	Bound    float64
	HasBound bool
	Runs     []RunResult
	Stats    []AlgorithmStats
}

// Run executes the sweep. On context cancellation the rows completed so far
// are aggregated and returned together with the context error.
func (h *Harness) Run(ctx context.Context) (Report, error) {
	rep := Report{Instance: h.in.Name()}
	if bound, err := exact.AssignmentBound(h.in); err == nil {
		rep.Bound = bound
		rep.HasBound = true
	} else {
		h.cfg.Log.Debugf("no lower bound for %s: %v", h.in.Name(), err)
	}

	rows, err := h.execute(ctx)
	rep.Runs = rows
	rep.Stats = Aggregate(rows, rep.Bound, rep.HasBound)

	if h.cfg.Sink != nil {
		for _, r := range rows {
			if serr := h.cfg.Sink.WriteRun(ctx, r); serr != nil {
				h.cfg.Log.Warnf("result sink: %v", serr)
			}
		}
	}
	return rep, err
}

func (h *Harness) execute(ctx context.Context) ([]RunResult, error) {
	type job struct {
		slot int
		alg  solver.Algorithm
		rep  int
	}
	total := len(h.cfg.Algorithms) * h.cfg.Runs
	rows := make([]RunResult, total)
	filled := make([]bool, total)

	jobs := make(chan job)
	var wg sync.WaitGroup
	workers := h.cfg.Parallel
	if workers > total {
		workers = total
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				rows[j.slot] = h.runOne(ctx, j.alg, j.rep)
				filled[j.slot] = true
			}
		}()
	}

	var err error
	slot := 0
submit:
	for _, alg := range h.cfg.Algorithms {
		for r := 0; r < h.cfg.Runs; r++ {
			if cerr := ctx.Err(); cerr != nil {
				err = cerr
				break submit
			}
			jobs <- job{slot: slot, alg: alg, rep: r}
			slot++
		}
	}
	close(jobs)
	wg.Wait()

	done := rows[:0]
	for i, ok := range filled {
		if ok {
			done = append(done, rows[i])
		}
	}
	return done, err
}

func (h *Harness) runOne(ctx context.Context, alg solver.Algorithm, rep int) RunResult {
	bus := eventbus.New[solver.Progress](256)
	events := bus.Subscribe()
	type progress struct{ count, last int }
	drained := make(chan progress, 1)
	go func() {
		var p progress
		for ev := range events {
			p.count++
			p.last = ev.Iteration
		}
		drained <- p
	}()

	seed := h.cfg.Seed + int64(rep)
	sol, err := solver.Solve(ctx, h.in, solver.Options{
		Algorithm: alg,
		TimeLimit: h.cfg.TimeLimit,
		Seed:      seed,
		Workers:   h.cfg.Workers,
		Log:       h.cfg.Log,
		Progress:  bus,
	})
	bus.Close()
	p := <-drained

	if err != nil && !errors.Is(err, solver.ErrNoFeasibleTour) {
		h.cfg.Log.Errorf("%s repetition %d: %v", alg, rep, err)
	}
	return RunResult{
		RunID:         uuid.New().String(),
		Instance:      h.in.Name(),
		Algorithm:     alg.String(),
		Seed:          seed,
		Cost:          sol.Cost,
		Feasible:      sol.Feasible,
		Elapsed:       sol.Elapsed,
		Improvements:  p.count,
		BestIteration: p.last,
	}
}
