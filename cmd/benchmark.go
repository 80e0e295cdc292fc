package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kilianp07/pdtsp/bench"
	"github.com/kilianp07/pdtsp/config"
	"github.com/kilianp07/pdtsp/core/pdtsp"
	"github.com/kilianp07/pdtsp/core/solver"
	"github.com/kilianp07/pdtsp/infra/metrics"
	"github.com/kilianp07/pdtsp/pkg/export"
	"github.com/kilianp07/pdtsp/tsplib"
)

var benchmarkFlags struct {
	dir       string
	output    string
	runs      int
	timeLimit int
	seed      int64
	maxSize   int
	parallel  int
}

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Sweep every algorithm over a directory of instances",
	Long: `Benchmark parses every .tsp file in a directory, runs the full algorithm
portfolio on each and writes results.csv, statistics.csv and report.txt into
the output directory.`,
	RunE: runBenchmark,
}

func init() {
	f := benchmarkCmd.Flags()
	f.StringVarP(&benchmarkFlags.dir, "dir", "d", "", "directory of instance files (required)")
	f.StringVarP(&benchmarkFlags.output, "output", "o", "results", "output directory")
	f.IntVarP(&benchmarkFlags.runs, "runs", "r", 5, "repetitions per algorithm and instance")
	f.IntVarP(&benchmarkFlags.timeLimit, "time-limit", "t", 60, "time limit per run in seconds")
	f.Int64VarP(&benchmarkFlags.seed, "seed", "s", 42, "base seed, repetition r uses seed+r")
	f.IntVar(&benchmarkFlags.maxSize, "max-size", 0, "skip instances with more than this many nodes, 0 keeps all")
	f.IntVar(&benchmarkFlags.parallel, "parallel", 1, "concurrent runs per instance")
	_ = benchmarkCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(benchmarkCmd)
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg, "benchmark")

	settings := cfg.Solver
	set := cmd.Flags().Changed
	if set("time-limit") {
		settings.TimeLimitSeconds = benchmarkFlags.timeLimit
	}
	if set("seed") {
		settings.Seed = benchmarkFlags.seed
	}

	instances, skipped, err := loadBenchmarkInstances(settings)
	if err != nil {
		return err
	}
	for path, perr := range skipped {
		log.Warnf("skipping %s: %v", path, perr)
	}
	if len(instances) == 0 {
		return fmt.Errorf("no usable instances in %s", benchmarkFlags.dir)
	}

	var sink bench.Sink
	if cfg.Influx.Enabled {
		sink = metrics.NewResultSinkWithFallback(cfg.Influx.URL, cfg.Influx.Token, cfg.Influx.Org, cfg.Influx.Bucket)
		defer sink.Close()
	}

	reps := make([]bench.Report, 0, len(instances))
	for i, in := range instances {
		if ctx.Err() != nil {
			log.Warnf("benchmark interrupted, %d of %d instances done", i, len(instances))
			break
		}
		log.Infof("instance %d/%d: %s (%d nodes, capacity %d)",
			i+1, len(instances), in.Name(), in.Dimension(), in.Capacity())
		harness := bench.New(in, bench.Config{
			Algorithms: solver.Algorithms(),
			Runs:       benchmarkFlags.runs,
			TimeLimit:  settings.TimeLimit(),
			Seed:       settings.Seed,
			Workers:    settings.Workers,
			Parallel:   benchmarkFlags.parallel,
			Log:        log,
			Sink:       sink,
		})
		rep, rerr := harness.Run(ctx)
		if rerr != nil {
			log.Warnf("sweep on %s interrupted: %v", in.Name(), rerr)
		}
		reps = append(reps, rep)
	}
	if len(reps) == 0 {
		return ctx.Err()
	}

	if err := writeBenchmarkFiles(benchmarkFlags.output, reps); err != nil {
		return err
	}
	if err := export.WriteBenchmarkReport(cmd.OutOrStdout(), reps); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Results written to %s\n", benchmarkFlags.output)
	return nil
}

// loadBenchmarkInstances parses the directory, applies the configured cost
// model to every instance and drops the ones above the size cap.
func loadBenchmarkInstances(settings config.SolverConfig) ([]*pdtsp.Instance, map[string]error, error) {
	parsed, skipped, err := tsplib.ParseDir(benchmarkFlags.dir)
	if err != nil {
		return nil, nil, err
	}
	model, err := pdtsp.ParseCostModel(settings.CostModel)
	if err != nil {
		return nil, nil, err
	}
	instances := parsed[:0]
	for _, in := range parsed {
		if benchmarkFlags.maxSize > 0 && in.Dimension() > benchmarkFlags.maxSize {
			continue
		}
		in = in.WithCostModel(model, settings.Alpha, settings.Beta)
		if settings.MaxProfit > 0 {
			in = in.WithRandomProfits(settings.Seed, settings.MaxProfit)
		}
		instances = append(instances, in)
	}
	return instances, skipped, nil
}

// writeBenchmarkFiles materializes the sweep into the output directory:
// per-run rows, per-algorithm aggregates and the rendered report.
func writeBenchmarkFiles(dir string, reps []bench.Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	var runs []bench.RunResult
	for _, rep := range reps {
		runs = append(runs, rep.Runs...)
	}
	files := []struct {
		name  string
		write func(f *os.File) error
	}{
		{"results.csv", func(f *os.File) error { return export.WriteRunsCSV(f, runs) }},
		{"statistics.csv", func(f *os.File) error { return export.WriteAggregatesCSV(f, reps) }},
		{"report.txt", func(f *os.File) error { return export.WriteBenchmarkReport(f, reps) }},
	}
	for _, out := range files {
		f, err := os.Create(filepath.Join(dir, out.name))
		if err != nil {
			return fmt.Errorf("create %s: %w", out.name, err)
		}
		werr := out.write(f)
		cerr := f.Close()
		if werr != nil {
			return fmt.Errorf("write %s: %w", out.name, werr)
		}
		if cerr != nil {
			return fmt.Errorf("close %s: %w", out.name, cerr)
		}
	}
	return nil
}
