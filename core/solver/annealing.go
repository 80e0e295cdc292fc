package solver

import (
	"math"
	"math/rand"

	"github.com/kilianp07/pdtsp/core/pdtsp"
)

// Annealing schedule.
const (
	saInitialTemp  = 1000.0
	saFinalTemp    = 0.1
	saCoolingRate  = 0.995
	saItersPerTemp = 100
)

const (
	moveTwoOpt = iota
	moveSwap
	moveSegment
)

// move describes one neighborhood mutation. Segment moves carry the segment
// length in l and the target position in j.
type move struct {
	kind    int
	i, j, l int
}

// randomNeighbor draws one of four random moves and returns its cost delta
// without applying it. ok is false when the move is degenerate or would
// leave the feasible region.
func randomNeighbor(e *pdtsp.Evaluator, t pdtsp.Tour, rng *rand.Rand) (move, float64, bool) {
	m := len(t)
	switch rng.Intn(4) {
	case 0:
		i := rng.Intn(m - 1)
		j := i + 1 + rng.Intn(m-i-1)
		delta, ok := e.TwoOptDelta(t, i, j)
		return move{kind: moveTwoOpt, i: i, j: j}, delta, ok
	case 1:
		i, j := rng.Intn(m), rng.Intn(m)
		if i == j {
			return move{}, 0, false
		}
		if i > j {
			i, j = j, i
		}
		delta, ok := e.SwapDelta(t, i, j)
		return move{kind: moveSwap, i: i, j: j}, delta, ok
	case 2:
		i, k := rng.Intn(m), rng.Intn(m)
		if i == k {
			return move{}, 0, false
		}
		delta, ok := e.OrOptDelta(t, i, 1, k)
		return move{kind: moveSegment, i: i, j: k, l: 1}, delta, ok
	default:
		if m < 3 {
			return move{}, 0, false
		}
		i := rng.Intn(m - 1)
		k := rng.Intn(m - 1)
		if k == i {
			return move{}, 0, false
		}
		delta, ok := e.OrOptDelta(t, i, 2, k)
		return move{kind: moveSegment, i: i, j: k, l: 2}, delta, ok
	}
}

func applyMove(e *pdtsp.Evaluator, t pdtsp.Tour, mv move) {
	switch mv.kind {
	case moveTwoOpt:
		e.ApplyTwoOpt(t, mv.i, mv.j)
	case moveSwap:
		e.ApplySwap(t, mv.i, mv.j)
	default:
		e.ApplyOrOpt(t, mv.i, mv.l, mv.j)
	}
}

// anneal runs simulated annealing from a feasible start. The current tour
// may wander into worse regions; tracker keeps the best ever seen.
func anneal(in *pdtsp.Instance, start pdtsp.Tour, startCost float64, rng *rand.Rand, tracker *bestTracker, dl *deadline) {
	if len(start) < 2 {
		return
	}
	e := pdtsp.NewEvaluator(in)
	cur := start.Clone()
	e.Bind(cur)
	cost := startCost

	iteration := 0
	for temp := saInitialTemp; temp > saFinalTemp; temp *= saCoolingRate {
		if dl.reached() {
			return
		}
		for i := 0; i < saItersPerTemp; i++ {
			iteration++
			mv, delta, ok := randomNeighbor(e, cur, rng)
			if !ok {
				continue
			}
			if delta < 0 || rng.Float64() < math.Exp(-delta/temp) {
				applyMove(e, cur, mv)
				cost += delta
				tracker.offer(cur, cost, true, iteration)
			}
			if dl.exceeded() {
				return
			}
		}
	}
}
