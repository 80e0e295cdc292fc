package pdtsp

// LoadProfile records the vehicle load after each visit, including the
// initial depot state and the final return. Its length is len(tour)+2.
type LoadProfile []int

// Evaluator computes incremental cost and feasibility deltas for local moves
// on a single tour. It caches the load prefix of the bound tour so that a
// candidate move only recomputes the load-dependent terms of the edges it
// touches. This is the hot path of every neighborhood scan.
//
// An Evaluator is not safe for concurrent use. Every search run owns its
// own Evaluator; the underlying Instance is shared read-only.
//
// Delta methods assume the bound tour is feasible: loads outside the touched
// window are taken from the cache and not re-checked. Their delta result is
// meaningful only when the returned ok is true.
type Evaluator struct {
	in    *Instance
	loads []int // loads[p] = load after visiting t[p]
	win   []int // scratch for segment moves
}

// NewEvaluator returns an evaluator for in with scratch state sized for it.
func NewEvaluator(in *Instance) *Evaluator {
	m := in.Customers()
	return &Evaluator{in: in, loads: make([]int, m), win: make([]int, m)}
}

// Instance returns the instance this evaluator is bound to.
func (e *Evaluator) Instance() *Instance { return e.in }

// Bind recomputes the cached load prefix for t. Delta and Apply methods are
// valid only while the cache matches t; call Bind again after mutating t by
// any means other than an Apply method.
func (e *Evaluator) Bind(t Tour) {
	load := e.in.startLoad
	for p, c := range t {
		load += e.in.nodes[c].Demand
		e.loads[p] = load
	}
}

// loadBefore returns the load carried into position p.
func (e *Evaluator) loadBefore(p int) int {
	if p == 0 {
		return e.in.startLoad
	}
	return e.loads[p-1]
}

// nodeAt maps out-of-range positions to the depot.
func nodeAt(t Tour, p int) int {
	if p < 0 || p >= len(t) {
		return 0
	}
	return t[p]
}

// TwoOptDelta evaluates reversing the segment t[i..j], 0 <= i < j < len(t).
// Only the surcharge terms of edges leaving positions i..j-1 and the two
// boundary distances change; everything else cancels for a symmetric metric.
func (e *Evaluator) TwoOptDelta(t Tour, i, j int) (float64, bool) {
	in := e.in
	a, b := nodeAt(t, i-1), t[i]
	c, d := t[j], nodeAt(t, j+1)
	delta := in.Dist(a, c) + in.Dist(b, d) - in.Dist(a, b) - in.Dist(c, d)
	run := e.loadBefore(i)
	for p := i; p < j; p++ {
		run += in.nodes[t[j-(p-i)]].Demand
		if run < 0 || run > in.capacity {
			return 0, false
		}
		if in.model != CostDistance {
			delta += in.surcharge(run) - in.surcharge(e.loads[p])
		}
	}
	return delta, true
}

// ApplyTwoOpt reverses t[i..j] in place and refreshes the load cache.
func (e *Evaluator) ApplyTwoOpt(t Tour, i, j int) {
	for l, r := i, j; l < r; l, r = l+1, r-1 {
		t[l], t[r] = t[r], t[l]
	}
	run := e.loadBefore(i)
	for p := i; p < j; p++ {
		run += e.in.nodes[t[p]].Demand
		e.loads[p] = run
	}
}

// SwapDelta evaluates exchanging the customers at positions i < j. Loads at
// positions i..j-1 shift by the demand difference of the two nodes.
func (e *Evaluator) SwapDelta(t Tour, i, j int) (float64, bool) {
	in := e.in
	u, v := t[i], t[j]
	p1, n2 := nodeAt(t, i-1), nodeAt(t, j+1)
	var delta float64
	if j == i+1 {
		delta = in.Dist(p1, v) + in.Dist(u, n2) - in.Dist(p1, u) - in.Dist(v, n2)
	} else {
		n1, p2 := t[i+1], t[j-1]
		delta = in.Dist(p1, v) + in.Dist(v, n1) + in.Dist(p2, u) + in.Dist(u, n2) -
			in.Dist(p1, u) - in.Dist(u, n1) - in.Dist(p2, v) - in.Dist(v, n2)
	}
	shift := in.nodes[v].Demand - in.nodes[u].Demand
	if shift == 0 {
		// Equal demands leave every load unchanged.
		return delta, true
	}
	for p := i; p < j; p++ {
		w := e.loads[p] + shift
		if w < 0 || w > in.capacity {
			return 0, false
		}
		if in.model != CostDistance {
			delta += in.surcharge(w) - in.surcharge(e.loads[p])
		}
	}
	return delta, true
}

// ApplySwap exchanges t[i] and t[j] in place and refreshes the load cache.
func (e *Evaluator) ApplySwap(t Tour, i, j int) {
	shift := e.in.nodes[t[j]].Demand - e.in.nodes[t[i]].Demand
	t[i], t[j] = t[j], t[i]
	for p := i; p < j; p++ {
		e.loads[p] += shift
	}
}

// orOptWindow returns the affected window [s, e] of moving the segment
// t[i:i+l] so that it begins at position k of the resulting tour.
func orOptWindow(i, l, k int) (int, int) {
	if k > i {
		return i, k + l - 1
	}
	return k, i + l - 1
}

// orOptNode returns the node occupying position p after the move, for p
// inside the affected window.
func orOptNode(t Tour, i, l, k, p int) int {
	if k > i {
		if p < k {
			return t[p+l]
		}
		return t[i+(p-k)]
	}
	if p < k+l {
		return t[i+(p-k)]
	}
	return t[p-l]
}

// OrOptDelta evaluates moving the segment of length l starting at i so that
// it begins at position k of the resulting tour. l = 1 is plain relocation.
// Requires 0 <= i, i+l <= len(t), 0 <= k <= len(t)-l and k != i.
func (e *Evaluator) OrOptDelta(t Tour, i, l, k int) (float64, bool) {
	in := e.in
	s, end := orOptWindow(i, l, k)
	delta := 0.0
	run := e.loadBefore(s)
	prev := nodeAt(t, s-1)
	for p := s; p <= end; p++ {
		nn := orOptNode(t, i, l, k, p)
		delta += in.Dist(prev, nn) - in.Dist(nodeAt(t, p-1), t[p])
		run += in.nodes[nn].Demand
		if run < 0 || run > in.capacity {
			return 0, false
		}
		if p < end && in.model != CostDistance {
			delta += in.surcharge(run) - in.surcharge(e.loads[p])
		}
		prev = nn
	}
	after := nodeAt(t, end+1)
	delta += in.Dist(prev, after) - in.Dist(t[end], after)
	return delta, true
}

// ApplyOrOpt performs the segment move in place and refreshes the load cache.
func (e *Evaluator) ApplyOrOpt(t Tour, i, l, k int) {
	s, end := orOptWindow(i, l, k)
	for p := s; p <= end; p++ {
		e.win[p-s] = orOptNode(t, i, l, k, p)
	}
	copy(t[s:end+1], e.win[:end-s+1])
	run := e.loadBefore(s)
	for p := s; p <= end; p++ {
		run += e.in.nodes[t[p]].Demand
		e.loads[p] = run
	}
}
