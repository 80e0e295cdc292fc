// Package export serializes solve and benchmark outcomes: solution JSON for
// tooling, CSV rows for spreadsheets and the text report for terminals.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/kilianp07/pdtsp/bench"
	"github.com/kilianp07/pdtsp/core/pdtsp"
)

// Record is the serialized form of one solve outcome.
type Record struct {
	Instance  string  `json:"instance"`
	Algorithm string  `json:"algorithm"`
	CostModel string  `json:"cost_model"`
	Cost      float64 `json:"cost"`
	Profit    int     `json:"profit"`
	Feasible  bool    `json:"feasible"`
	ElapsedMS float64 `json:"elapsed_ms"`
	Tour      []int   `json:"tour"`
	Loads     []int   `json:"loads"`
}

// NewRecord flattens a solution against its instance.
func NewRecord(in *pdtsp.Instance, sol pdtsp.Solution) Record {
	return Record{
		Instance:  in.Name(),
		Algorithm: sol.Algorithm,
		CostModel: in.Model().String(),
		Cost:      sol.Cost,
		Profit:    in.TourProfit(sol.Tour),
		Feasible:  sol.Feasible,
		ElapsedMS: sol.Elapsed.Seconds() * 1000,
		Tour:      append([]int(nil), sol.Tour...),
		Loads:     append([]int(nil), sol.Loads...),
	}
}

// WriteSolutionJSON writes the solution to w as indented JSON.
func WriteSolutionJSON(w io.Writer, in *pdtsp.Instance, sol pdtsp.Solution) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewRecord(in, sol))
}

// WriteRunsCSV writes one row per benchmark run.
func WriteRunsCSV(w io.Writer, runs []bench.RunResult) error {
	cw := csv.NewWriter(w)
	header := []string{"run_id", "instance", "algorithm", "seed", "cost", "feasible", "elapsed_ms", "improvements", "best_iteration"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range runs {
		rec := []string{
			r.RunID,
			r.Instance,
			r.Algorithm,
			strconv.FormatInt(r.Seed, 10),
			strconv.FormatFloat(r.Cost, 'f', -1, 64),
			strconv.FormatBool(r.Feasible),
			strconv.FormatFloat(r.Elapsed.Seconds()*1000, 'f', 3, 64),
			strconv.Itoa(r.Improvements),
			strconv.Itoa(r.BestIteration),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteStatsCSV writes one row per algorithm aggregate.
func WriteStatsCSV(w io.Writer, stats []bench.AlgorithmStats) error {
	cw := csv.NewWriter(w)
	header := []string{
		"algorithm", "runs", "feasible_runs", "feasibility_rate",
		"best_cost", "avg_cost", "worst_cost", "std_cost",
		"avg_elapsed_ms", "avg_improvements", "gap_to_best_pct", "gap_to_bound_pct",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	for _, st := range stats {
		rec := []string{
			st.Algorithm,
			strconv.Itoa(st.Runs),
			strconv.Itoa(st.FeasibleRuns),
			f(st.FeasibilityRate),
			f(st.BestCost),
			f(st.AvgCost),
			f(st.WorstCost),
			f(st.StdCost),
			f(st.AvgElapsed.Seconds() * 1000),
			f(st.AvgImprovements),
			f(st.AvgGapToBest),
			f(st.AvgGapToBound),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAggregatesCSV writes the per-algorithm aggregates of a whole sweep,
// one row per (instance, algorithm) with the instance's lower bound when one
// was computed.
func WriteAggregatesCSV(w io.Writer, reps []bench.Report) error {
	cw := csv.NewWriter(w)
	header := []string{
		"instance", "bound", "algorithm", "runs", "feasible_runs", "feasibility_rate",
		"best_cost", "avg_cost", "worst_cost", "std_cost",
		"avg_elapsed_ms", "avg_improvements", "gap_to_best_pct", "gap_to_bound_pct",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	for _, rep := range reps {
		bound := ""
		if rep.HasBound {
			bound = f(rep.Bound)
		}
		for _, st := range rep.Stats {
			rec := []string{
				rep.Instance,
				bound,
				st.Algorithm,
				strconv.Itoa(st.Runs),
				strconv.Itoa(st.FeasibleRuns),
				f(st.FeasibilityRate),
				f(st.BestCost),
				f(st.AvgCost),
				f(st.WorstCost),
				f(st.StdCost),
				f(st.AvgElapsed.Seconds() * 1000),
				f(st.AvgImprovements),
				f(st.AvgGapToBest),
				f(st.AvgGapToBound),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteReport renders one instance's aggregate table for the terminal.
func WriteReport(w io.Writer, rep bench.Report) error {
	var b strings.Builder
	writeBanner(&b)
	writeInstanceSection(&b, rep)
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteBenchmarkReport renders the full multi-instance sweep: one table per
// instance followed by the best solution found on each.
func WriteBenchmarkReport(w io.Writer, reps []bench.Report) error {
	var b strings.Builder
	writeBanner(&b)
	for _, rep := range reps {
		writeInstanceSection(&b, rep)
	}
	b.WriteString("\nBest Solutions per Instance:\n")
	for _, rep := range reps {
		cost, alg, ok := bestRun(rep.Runs)
		if !ok {
			fmt.Fprintf(&b, "  %s: no feasible solution\n", rep.Instance)
			continue
		}
		fmt.Fprintf(&b, "  %s: %.2f (%s)\n", rep.Instance, cost, alg)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeBanner(b *strings.Builder) {
	b.WriteString("========================================\n")
	b.WriteString("       PD-TSP Benchmark Report\n")
	b.WriteString("========================================\n\n")
}

func writeInstanceSection(b *strings.Builder, rep bench.Report) {
	fmt.Fprintf(b, "Instance: %s\n", rep.Instance)
	if rep.HasBound {
		fmt.Fprintf(b, "Assignment lower bound: %.2f\n", rep.Bound)
	}
	b.WriteString("\nAlgorithm Performance Summary:\n")
	rule := strings.Repeat("-", 120)
	b.WriteString(rule + "\n")
	fmt.Fprintf(b, "%-25s %10s %12s %12s %12s %10s %10s %10s %10s\n",
		"Algorithm", "Feasible", "Avg Cost", "Best Cost", "Worst Cost", "Std", "GapBest%", "GapBound%", "Time (s)")
	b.WriteString(rule + "\n")
	for _, st := range rep.Stats {
		gapBest, gapBound := "-", "-"
		if st.FeasibleRuns > 0 {
			gapBest = fmt.Sprintf("%.2f%%", st.AvgGapToBest)
			if rep.HasBound {
				gapBound = fmt.Sprintf("%.2f%%", st.AvgGapToBound)
			}
		}
		fmt.Fprintf(b, "%-25s %10s %12.2f %12.2f %12.2f %10.2f %10s %10s %10.4f\n",
			st.Algorithm,
			fmt.Sprintf("%d/%d", st.FeasibleRuns, st.Runs),
			st.AvgCost, st.BestCost, st.WorstCost, st.StdCost,
			gapBest, gapBound,
			st.AvgElapsed.Seconds())
	}
	b.WriteString(rule + "\n\n")
}

func bestRun(runs []bench.RunResult) (float64, string, bool) {
	cost := math.Inf(1)
	alg := ""
	for _, r := range runs {
		if r.Feasible && r.Cost < cost {
			cost = r.Cost
			alg = r.Algorithm
		}
	}
	return cost, alg, alg != ""
}
