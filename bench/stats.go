package bench

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// AlgorithmStats summarizes the runs of one algorithm on one instance. Cost
// aggregates cover feasible runs only and stay zero when every run failed.
// Gaps are percentages: AvgGapToBest against the best feasible cost seen by
// any algorithm in the sweep, AvgGapToBound against the LP lower bound.
type AlgorithmStats struct {
	Algorithm       string
	Runs            int
	FeasibleRuns    int
	FeasibilityRate float64
	BestCost        float64
	WorstCost       float64
	AvgCost         float64
	StdCost         float64
	AvgElapsed      time.Duration
	AvgImprovements float64
	AvgGapToBest    float64
	AvgGapToBound   float64
}

// Aggregate groups runs by algorithm, preserving first-appearance order.
func Aggregate(runs []RunResult, bound float64, hasBound bool) []AlgorithmStats {
	var order []string
	byAlg := map[string][]RunResult{}
	for _, r := range runs {
		if _, seen := byAlg[r.Algorithm]; !seen {
			order = append(order, r.Algorithm)
		}
		byAlg[r.Algorithm] = append(byAlg[r.Algorithm], r)
	}

	ref := math.Inf(1)
	for _, r := range runs {
		if r.Feasible && r.Cost < ref {
			ref = r.Cost
		}
	}

	out := make([]AlgorithmStats, 0, len(order))
	for _, alg := range order {
		rs := byAlg[alg]
		st := AlgorithmStats{Algorithm: alg, Runs: len(rs)}

		var costs []float64
		var elapsed time.Duration
		improvements := 0
		for _, r := range rs {
			elapsed += r.Elapsed
			improvements += r.Improvements
			if r.Feasible {
				costs = append(costs, r.Cost)
			}
		}
		st.FeasibleRuns = len(costs)
		st.FeasibilityRate = float64(len(costs)) / float64(len(rs))
		st.AvgElapsed = elapsed / time.Duration(len(rs))
		st.AvgImprovements = float64(improvements) / float64(len(rs))

		if len(costs) > 0 {
			st.BestCost = floats.Min(costs)
			st.WorstCost = floats.Max(costs)
			st.AvgCost = stat.Mean(costs, nil)
			if len(costs) > 1 {
				st.StdCost = stat.StdDev(costs, nil)
			}
			if !math.IsInf(ref, 1) && ref > 0 {
				st.AvgGapToBest = (st.AvgCost - ref) / ref * 100
			}
			if hasBound && bound > 0 {
				st.AvgGapToBound = (st.AvgCost - bound) / bound * 100
			}
		}
		out = append(out, st)
	}
	return out
}
