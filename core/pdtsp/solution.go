package pdtsp

import "time"

// Tour is a permutation of the customer node indices (1..n-1). The depot is
// implicit at both ends and never stored.
type Tour []int

// Clone returns an independent copy of the tour.
func (t Tour) Clone() Tour {
	c := make(Tour, len(t))
	copy(c, t)
	return c
}

// ValidPermutation reports whether t visits every customer of a
// dimension-node instance exactly once.
func (t Tour) ValidPermutation(dimension int) bool {
	if len(t) != dimension-1 {
		return false
	}
	seen := make([]bool, dimension)
	for _, c := range t {
		if c < 1 || c >= dimension || seen[c] {
			return false
		}
		seen[c] = true
	}
	return true
}

// Solution pairs a tour with its evaluation under the instance's cost model.
type Solution struct {
	Tour      Tour          `json:"tour"`
	Loads     LoadProfile   `json:"load_profile"`
	Cost      float64       `json:"cost"`
	Feasible  bool          `json:"feasible"`
	Algorithm string        `json:"algorithm"`
	Elapsed   time.Duration `json:"elapsed_ns"`
}

// NewSolution evaluates tour against in and stamps the producing algorithm.
// The tour is copied so later mutation of the argument cannot corrupt the
// solution.
func NewSolution(in *Instance, tour Tour, algorithm string) Solution {
	cost, feasible := in.Evaluate(tour)
	return Solution{
		Tour:      tour.Clone(),
		Loads:     in.Profile(tour),
		Cost:      cost,
		Feasible:  feasible,
		Algorithm: algorithm,
	}
}

// Clone returns a deep copy of the solution.
func (s Solution) Clone() Solution {
	c := s
	c.Tour = s.Tour.Clone()
	c.Loads = make(LoadProfile, len(s.Loads))
	copy(c.Loads, s.Loads)
	return c
}
