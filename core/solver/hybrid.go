package solver

import (
	"math/rand"

	"github.com/kilianp07/pdtsp/core/pdtsp"
)

// Hybrid ILS phase tuning.
const (
	hybridStrength  = 4
	hybridMaxIter   = 50
	hybridNoImprove = 15
)

// runHybrid chains multi-start construction, a VND descent and an ILS phase.
// Construction and the first descent always run to completion; only the ILS
// phase consumes the clock, so a zero budget still yields the descended
// multi-start tour.
func runHybrid(in *pdtsp.Instance, rng *rand.Rand, tracker *bestTracker, dl *deadline) {
	t, feasible := multiStart(in, rng)
	cost := in.TourCost(t)
	tracker.offer(t, cost, feasible, 0)
	if !feasible || len(t) < 2 {
		return
	}

	e := pdtsp.NewEvaluator(in)
	e.Bind(t)
	cost, _ = vnd(e, t, cost)
	tracker.offer(t, cost, true, 0)

	iteratedLocalSearch(in, t, cost, rng, tracker, dl, hybridStrength, hybridMaxIter, hybridNoImprove)
}
