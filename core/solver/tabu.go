package solver

import (
	"math"

	"github.com/kilianp07/pdtsp/core/pdtsp"
)

// Tabu search tuning.
const (
	tabuTenure       = 10
	tabuMaxIter      = 1000
	tabuMaxNoImprove = 100
)

// tabuSearch explores the swap and reversal neighborhoods under a recency
// memory keyed by the customer pair a move touches. The best admissible move
// is taken every iteration even when it worsens the tour; a tabu move is
// admissible only when it beats the best known cost.
func tabuSearch(in *pdtsp.Instance, start pdtsp.Tour, startCost float64, tracker *bestTracker, dl *deadline) {
	m := len(start)
	if m < 2 {
		return
	}
	e := pdtsp.NewEvaluator(in)
	cur := start.Clone()
	e.Bind(cur)
	cost := startCost
	bestCost := startCost

	type pairKey [2]int
	expiry := make(map[pairKey]int)
	key := func(u, v int) pairKey {
		if u > v {
			u, v = v, u
		}
		return pairKey{u, v}
	}

	noImprove := 0
	for iteration := 1; iteration <= tabuMaxIter && noImprove < tabuMaxNoImprove; iteration++ {
		if dl.reached() {
			return
		}
		bestDelta := math.Inf(1)
		bestI, bestJ, bestKind := -1, 0, moveSwap
		for i := 0; i < m-1; i++ {
			for j := i + 1; j < m; j++ {
				tabu := expiry[key(cur[i], cur[j])] > iteration
				if delta, ok := e.SwapDelta(cur, i, j); ok {
					if (!tabu || cost+delta < bestCost-eps) && delta < bestDelta {
						bestDelta, bestI, bestJ, bestKind = delta, i, j, moveSwap
					}
				}
				if j > i+1 {
					if delta, ok := e.TwoOptDelta(cur, i, j); ok {
						if (!tabu || cost+delta < bestCost-eps) && delta < bestDelta {
							bestDelta, bestI, bestJ, bestKind = delta, i, j, moveTwoOpt
						}
					}
				}
			}
		}
		if bestI < 0 {
			noImprove++
			continue
		}
		expiry[key(cur[bestI], cur[bestJ])] = iteration + tabuTenure
		if bestKind == moveSwap {
			e.ApplySwap(cur, bestI, bestJ)
		} else {
			e.ApplyTwoOpt(cur, bestI, bestJ)
		}
		cost += bestDelta
		if cost < bestCost-eps {
			bestCost = cost
			noImprove = 0
			tracker.offer(cur, cost, true, iteration)
		} else {
			noImprove++
		}
	}
}
