package solver

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/kilianp07/pdtsp/core/logger"
	"github.com/kilianp07/pdtsp/core/pdtsp"
	"github.com/kilianp07/pdtsp/internal/eventbus"
)

// Algorithm identifies one solving strategy.
type Algorithm int

const (
	AlgorithmNearest Algorithm = iota
	AlgorithmGreedy
	AlgorithmSavings
	AlgorithmSweep
	AlgorithmRegret
	AlgorithmCluster
	AlgorithmProfitDensity
	AlgorithmMultiStart
	AlgorithmTwoOpt
	AlgorithmVND
	AlgorithmSA
	AlgorithmTabu
	AlgorithmILS
	AlgorithmGenetic
	AlgorithmMemetic
	AlgorithmACO
	AlgorithmMMAS
	AlgorithmHybrid
)

// Algorithms lists every selector in display order.
func Algorithms() []Algorithm {
	return []Algorithm{
		AlgorithmNearest, AlgorithmGreedy, AlgorithmSavings, AlgorithmSweep,
		AlgorithmRegret, AlgorithmCluster, AlgorithmProfitDensity,
		AlgorithmMultiStart, AlgorithmTwoOpt, AlgorithmVND, AlgorithmSA,
		AlgorithmTabu, AlgorithmILS, AlgorithmGenetic, AlgorithmMemetic,
		AlgorithmACO, AlgorithmMMAS, AlgorithmHybrid,
	}
}

// String returns the name stamped on solutions.
func (a Algorithm) String() string {
	switch a {
	case AlgorithmNearest:
		return "NearestNeighbor"
	case AlgorithmGreedy:
		return "GreedyInsertion"
	case AlgorithmSavings:
		return "Savings-ClarkeWright"
	case AlgorithmSweep:
		return "Sweep"
	case AlgorithmRegret:
		return "Regret-3"
	case AlgorithmCluster:
		return "ClusterFirst"
	case AlgorithmProfitDensity:
		return "ProfitDensity"
	case AlgorithmMultiStart:
		return "MultiStart"
	case AlgorithmTwoOpt:
		return "TwoOpt"
	case AlgorithmVND:
		return "VND"
	case AlgorithmSA:
		return "SimulatedAnnealing"
	case AlgorithmTabu:
		return "TabuSearch"
	case AlgorithmILS:
		return "ILS"
	case AlgorithmGenetic:
		return "GeneticAlgorithm"
	case AlgorithmMemetic:
		return "MemeticAlgorithm"
	case AlgorithmACO:
		return "ACO"
	case AlgorithmMMAS:
		return "MMAS"
	case AlgorithmHybrid:
		return "Hybrid"
	default:
		return "Unknown"
	}
}

// Selector returns the CLI spelling of the algorithm.
func (a Algorithm) Selector() string {
	switch a {
	case AlgorithmNearest:
		return "nn"
	case AlgorithmGreedy:
		return "greedy"
	case AlgorithmSavings:
		return "savings"
	case AlgorithmSweep:
		return "sweep"
	case AlgorithmRegret:
		return "regret"
	case AlgorithmCluster:
		return "cluster-first"
	case AlgorithmProfitDensity:
		return "profit-density"
	case AlgorithmMultiStart:
		return "multi-start"
	case AlgorithmTwoOpt:
		return "two-opt"
	case AlgorithmVND:
		return "vnd"
	case AlgorithmSA:
		return "sa"
	case AlgorithmTabu:
		return "tabu"
	case AlgorithmILS:
		return "ils"
	case AlgorithmGenetic:
		return "ga"
	case AlgorithmMemetic:
		return "memetic"
	case AlgorithmACO:
		return "aco"
	case AlgorithmMMAS:
		return "mmas"
	case AlgorithmHybrid:
		return "hybrid"
	default:
		return "unknown"
	}
}

// ParseAlgorithm maps a CLI spelling (or a display name) to its Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	for _, a := range Algorithms() {
		if s == a.Selector() || strings.EqualFold(s, a.String()) {
			return a, nil
		}
	}
	return 0, fmt.Errorf("solver: unknown algorithm %q", s)
}

// ErrNoFeasibleTour reports that a run finished without finding any tour
// satisfying the capacity window and final balance. The best infeasible
// attempt is still returned alongside it.
var ErrNoFeasibleTour = errors.New("solver: no feasible tour found")

// Options configures a single run.
type Options struct {
	Algorithm Algorithm
	TimeLimit time.Duration
	Seed      int64
	Workers   int                     // parallel offspring evaluation, 0 means GOMAXPROCS
	Log       logger.Logger           // nil disables logging
	Progress  *eventbus.Bus[Progress] // nil disables progress events
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}

// Solve runs the selected algorithm on in. The returned solution always
// carries a complete customer permutation; when no feasible tour was found
// it is the best infeasible attempt and the error is ErrNoFeasibleTour.
// Cancellation and the time limit are honored at iteration boundaries.
func Solve(ctx context.Context, in *pdtsp.Instance, opts Options) (pdtsp.Solution, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	log := opts.Log
	if log == nil {
		log = nopLogger{}
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	dl := newDeadline(ctx, opts.TimeLimit)
	tracker := newBestTracker(in, opts.Algorithm.String(), opts.Progress, dl)

	switch opts.Algorithm {
	case AlgorithmNearest, AlgorithmGreedy, AlgorithmSavings, AlgorithmSweep,
		AlgorithmRegret, AlgorithmCluster, AlgorithmProfitDensity:
		t, feasible := constructiveFor(opts.Algorithm).Build(in, rng)
		tracker.offer(t, in.TourCost(t), feasible, 0)

	case AlgorithmMultiStart:
		t, feasible := multiStart(in, rng)
		tracker.offer(t, in.TourCost(t), feasible, 0)

	case AlgorithmTwoOpt:
		t, feasible := multiStart(in, rng)
		cost := in.TourCost(t)
		tracker.offer(t, cost, feasible, 0)
		if feasible && len(t) >= 2 {
			e := pdtsp.NewEvaluator(in)
			e.Bind(t)
			cost, _ = twoOpt(e, t, cost, false)
			tracker.offer(t, cost, true, 0)
		}

	case AlgorithmVND:
		t, feasible := multiStart(in, rng)
		cost := in.TourCost(t)
		tracker.offer(t, cost, feasible, 0)
		if cost2, ok := improveTour(in, t, cost, feasible); ok {
			tracker.offer(t, cost2, true, 0)
		}

	case AlgorithmSA:
		t, feasible := multiStart(in, rng)
		cost := in.TourCost(t)
		tracker.offer(t, cost, feasible, 0)
		if feasible {
			anneal(in, t, cost, rng, tracker, dl)
		}

	case AlgorithmTabu:
		t, feasible := multiStart(in, rng)
		cost := in.TourCost(t)
		tracker.offer(t, cost, feasible, 0)
		if feasible {
			tabuSearch(in, t, cost, tracker, dl)
		}

	case AlgorithmILS:
		t, feasible := multiStart(in, rng)
		cost := in.TourCost(t)
		tracker.offer(t, cost, feasible, 0)
		if feasible {
			iteratedLocalSearch(in, t, cost, rng, tracker, dl, ilsStrength, ilsMaxIter, ilsMaxNoImprove)
		}

	case AlgorithmGenetic:
		cfg := DefaultGAConfig()
		cfg.Workers = opts.Workers
		runGenetic(in, cfg, rng, tracker, dl, log)

	case AlgorithmMemetic:
		cfg := MemeticGAConfig()
		cfg.Workers = opts.Workers
		runGenetic(in, cfg, rng, tracker, dl, log)
		polish(in, tracker)

	case AlgorithmACO:
		seedTracker(in, rng, tracker)
		runACS(in, DefaultACOConfig(), rng, tracker, dl)

	case AlgorithmMMAS:
		seedTracker(in, rng, tracker)
		runMMAS(in, DefaultACOConfig(), rng, tracker, dl)

	case AlgorithmHybrid:
		runHybrid(in, rng, tracker, dl)

	default:
		return pdtsp.Solution{}, fmt.Errorf("solver: unsupported algorithm %d", opts.Algorithm)
	}

	sol := tracker.solution()
	log.Infof("%s finished: cost=%.3f feasible=%v elapsed=%s", sol.Algorithm, sol.Cost, sol.Feasible, sol.Elapsed.Round(time.Millisecond))
	if !sol.Feasible {
		return sol, ErrNoFeasibleTour
	}
	return sol, nil
}

func constructiveFor(a Algorithm) Constructive {
	switch a {
	case AlgorithmGreedy:
		return Constructive{Kind: ConstructGreedyInsert}
	case AlgorithmSavings:
		return Constructive{Kind: ConstructSavings, Lambda: 1.0}
	case AlgorithmSweep:
		return Constructive{Kind: ConstructSweep}
	case AlgorithmRegret:
		return Constructive{Kind: ConstructRegret, Regret: 3}
	case AlgorithmCluster:
		return Constructive{Kind: ConstructCluster, Clusters: 4}
	case AlgorithmProfitDensity:
		return Constructive{Kind: ConstructProfitDensity}
	default:
		return Constructive{Kind: ConstructNearest}
	}
}

// seedTracker guarantees colony runs can always report a complete tour, even
// when no ant finishes one.
func seedTracker(in *pdtsp.Instance, rng *rand.Rand, tracker *bestTracker) {
	t, feasible := Constructive{Kind: ConstructNearest}.Build(in, rng)
	tracker.offer(t, in.TourCost(t), feasible, 0)
}

// polish runs one extra descent on the tracked best.
func polish(in *pdtsp.Instance, tracker *bestTracker) {
	if !tracker.has || !tracker.feasible {
		return
	}
	t := tracker.tour.Clone()
	if cost, ok := improveTour(in, t, tracker.cost, true); ok {
		tracker.offer(t, cost, true, 0)
	}
}
