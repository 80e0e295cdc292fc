package solver

import (
	"math/rand"

	"github.com/kilianp07/pdtsp/core/pdtsp"
)

// Iterated local search tuning.
const (
	ilsStrength     = 3
	ilsMaxIter      = 100
	ilsMaxNoImprove = 20
)

// perturb applies strength random feasible kicks, each a reversal or a swap,
// and returns the updated cost.
func perturb(e *pdtsp.Evaluator, t pdtsp.Tour, cost float64, rng *rand.Rand, strength int) float64 {
	m := len(t)
	for s := 0; s < strength; s++ {
		if rng.Float64() < 0.5 {
			i := rng.Intn(m - 1)
			j := i + 1 + rng.Intn(m-i-1)
			if delta, ok := e.TwoOptDelta(t, i, j); ok {
				e.ApplyTwoOpt(t, i, j)
				cost += delta
			}
		} else {
			i, j := rng.Intn(m), rng.Intn(m)
			if i == j {
				continue
			}
			if i > j {
				i, j = j, i
			}
			if delta, ok := e.SwapDelta(t, i, j); ok {
				e.ApplySwap(t, i, j)
				cost += delta
			}
		}
	}
	return cost
}

// iteratedLocalSearch alternates a randomized kick with a VND descent,
// accepting the descended tour only when it beats the current one.
func iteratedLocalSearch(in *pdtsp.Instance, start pdtsp.Tour, startCost float64, rng *rand.Rand, tracker *bestTracker, dl *deadline, strength, maxIter, maxNoImprove int) {
	if len(start) < 2 {
		return
	}
	e := pdtsp.NewEvaluator(in)
	cur := start.Clone()
	e.Bind(cur)
	curCost, _ := vnd(e, cur, startCost)
	tracker.offer(cur, curCost, true, 0)

	bestCost := curCost
	work := cur.Clone()
	noImprove := 0
	for iteration := 1; iteration <= maxIter && noImprove < maxNoImprove; iteration++ {
		if dl.reached() {
			return
		}
		copy(work, cur)
		e.Bind(work)
		workCost := perturb(e, work, curCost, rng, strength)
		workCost, _ = vnd(e, work, workCost)

		if workCost < curCost-eps {
			copy(cur, work)
			curCost = workCost
			if curCost < bestCost-eps {
				bestCost = curCost
				noImprove = 0
				tracker.offer(cur, curCost, true, iteration)
				continue
			}
		}
		noImprove++
	}
}
