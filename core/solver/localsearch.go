package solver

import (
	"github.com/kilianp07/pdtsp/core/pdtsp"
)

// Neighborhood scans work on a tour bound to an Evaluator and require a
// feasible incumbent: every delta already encodes whether the mutated tour
// stays feasible. Each function returns the updated cost and whether any
// move was applied. First-improvement restarts the scan after each applied
// move; best-improvement applies the single best move per pass.

// twoOpt reverses tour segments until no improving feasible reversal remains.
func twoOpt(e *pdtsp.Evaluator, t pdtsp.Tour, cost float64, first bool) (float64, bool) {
	m := len(t)
	if m < 2 {
		return cost, false
	}
	improved := false
	for pass := 0; pass < 50; pass++ {
		bestDelta, bestI, bestJ := 0.0, -1, 0
		applied := false
	scan:
		for i := 0; i < m-1; i++ {
			for j := i + 1; j < m; j++ {
				delta, ok := e.TwoOptDelta(t, i, j)
				if !ok || delta >= -eps {
					continue
				}
				if first {
					e.ApplyTwoOpt(t, i, j)
					cost += delta
					applied = true
					break scan
				}
				if delta < bestDelta {
					bestDelta, bestI, bestJ = delta, i, j
				}
			}
		}
		if !first && bestI >= 0 {
			e.ApplyTwoOpt(t, bestI, bestJ)
			cost += bestDelta
			applied = true
		}
		if !applied {
			break
		}
		improved = true
	}
	return cost, improved
}

// swapSearch exchanges customer pairs until no improving feasible swap
// remains.
func swapSearch(e *pdtsp.Evaluator, t pdtsp.Tour, cost float64, first bool) (float64, bool) {
	m := len(t)
	if m < 2 {
		return cost, false
	}
	improved := false
	for pass := 0; pass < 20; pass++ {
		bestDelta, bestI, bestJ := 0.0, -1, 0
		applied := false
	scan:
		for i := 0; i < m-1; i++ {
			for j := i + 1; j < m; j++ {
				delta, ok := e.SwapDelta(t, i, j)
				if !ok || delta >= -eps {
					continue
				}
				if first {
					e.ApplySwap(t, i, j)
					cost += delta
					applied = true
					break scan
				}
				if delta < bestDelta {
					bestDelta, bestI, bestJ = delta, i, j
				}
			}
		}
		if !first && bestI >= 0 {
			e.ApplySwap(t, bestI, bestJ)
			cost += bestDelta
			applied = true
		}
		if !applied {
			break
		}
		improved = true
	}
	return cost, improved
}

// segmentMoves relocates segments of one up to maxLen consecutive customers
// to better positions.
func segmentMoves(e *pdtsp.Evaluator, t pdtsp.Tour, cost float64, first bool, maxLen int) (float64, bool) {
	m := len(t)
	if m < 2 {
		return cost, false
	}
	if maxLen > m-1 {
		maxLen = m - 1
	}
	improved := false
	for pass := 0; pass < 20; pass++ {
		bestDelta := 0.0
		bestI, bestL, bestK := -1, 0, 0
		applied := false
	scan:
		for l := 1; l <= maxLen; l++ {
			for i := 0; i+l <= m; i++ {
				for k := 0; k <= m-l; k++ {
					if k == i {
						continue
					}
					delta, ok := e.OrOptDelta(t, i, l, k)
					if !ok || delta >= -eps {
						continue
					}
					if first {
						e.ApplyOrOpt(t, i, l, k)
						cost += delta
						applied = true
						break scan
					}
					if delta < bestDelta {
						bestDelta, bestI, bestL, bestK = delta, i, l, k
					}
				}
			}
		}
		if !first && bestI >= 0 {
			e.ApplyOrOpt(t, bestI, bestL, bestK)
			cost += bestDelta
			applied = true
		}
		if !applied {
			break
		}
		improved = true
	}
	return cost, improved
}

// relocate moves single customers to better positions.
func relocate(e *pdtsp.Evaluator, t pdtsp.Tour, cost float64, first bool) (float64, bool) {
	return segmentMoves(e, t, cost, first, 1)
}

// orOpt relocates segments of up to three consecutive customers.
func orOpt(e *pdtsp.Evaluator, t pdtsp.Tour, cost float64, first bool) (float64, bool) {
	return segmentMoves(e, t, cost, first, 3)
}

// vnd cycles the neighborhoods in a fixed order, restarting from the first
// whenever one of them improves the tour.
func vnd(e *pdtsp.Evaluator, t pdtsp.Tour, cost float64) (float64, bool) {
	ops := [...]func(*pdtsp.Evaluator, pdtsp.Tour, float64, bool) (float64, bool){
		twoOpt, swapSearch, relocate, orOpt,
	}
	improved := false
	for k, rounds := 0, 0; k < len(ops) && rounds < 100; rounds++ {
		var ok bool
		cost, ok = ops[k](e, t, cost, true)
		if ok {
			improved = true
			k = 0
		} else {
			k++
		}
	}
	return cost, improved
}

// improveTour runs a VND descent on a feasible tour, modifying it in place.
// Infeasible tours are returned untouched.
func improveTour(in *pdtsp.Instance, t pdtsp.Tour, cost float64, feasible bool) (float64, bool) {
	if !feasible || len(t) < 2 {
		return cost, false
	}
	e := pdtsp.NewEvaluator(in)
	e.Bind(t)
	return vnd(e, t, cost)
}
