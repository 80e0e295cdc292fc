package solver

import (
	"time"

	"github.com/kilianp07/pdtsp/core/pdtsp"
	"github.com/kilianp07/pdtsp/internal/eventbus"
)

// Progress is published on the progress bus each time a run improves on its
// best-so-far tour.
type Progress struct {
	Algorithm string
	Cost      float64
	Feasible  bool
	Iteration int
	Elapsed   time.Duration
}

// eps guards float comparisons: a move or candidate must improve by more
// than this to count.
const eps = 1e-9

// bestTracker records the best tour a run has seen. A feasible tour always
// outranks an infeasible one; within the same class a candidate must be
// strictly cheaper than the incumbent.
type bestTracker struct {
	in        *pdtsp.Instance
	algorithm string
	bus       *eventbus.Bus[Progress]
	dl        *deadline

	tour     pdtsp.Tour
	cost     float64
	feasible bool
	has      bool
}

func newBestTracker(in *pdtsp.Instance, algorithm string, bus *eventbus.Bus[Progress], dl *deadline) *bestTracker {
	return &bestTracker{in: in, algorithm: algorithm, bus: bus, dl: dl}
}

// offer proposes a candidate tour. The tour is copied when accepted, so the
// caller keeps ownership of t.
func (b *bestTracker) offer(t pdtsp.Tour, cost float64, feasible bool, iteration int) bool {
	if b.has {
		if b.feasible && !feasible {
			return false
		}
		if feasible == b.feasible && cost >= b.cost-eps {
			return false
		}
	}
	b.tour = append(b.tour[:0], t...)
	b.cost = cost
	b.feasible = feasible
	b.has = true
	if b.bus != nil {
		b.bus.Publish(Progress{
			Algorithm: b.algorithm,
			Cost:      cost,
			Feasible:  feasible,
			Iteration: iteration,
			Elapsed:   b.dl.elapsed(),
		})
	}
	return true
}

// solution re-evaluates the tracked tour and stamps the elapsed time.
func (b *bestTracker) solution() pdtsp.Solution {
	s := pdtsp.NewSolution(b.in, b.tour, b.algorithm)
	s.Elapsed = b.dl.elapsed()
	return s
}
