package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/pdtsp/bench"
	"github.com/kilianp07/pdtsp/core/solver"
	"github.com/kilianp07/pdtsp/infra/metrics"
	"github.com/kilianp07/pdtsp/pkg/export"
)

var compareFlags struct {
	instance  string
	runs      int
	timeLimit int
	seed      int64
	parallel  int
	output    string
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run every algorithm repeatedly on one instance and tabulate statistics",
	RunE:  runCompare,
}

func init() {
	f := compareCmd.Flags()
	f.StringVarP(&compareFlags.instance, "instance", "i", "", "instance file (required)")
	f.IntVarP(&compareFlags.runs, "runs", "r", 10, "repetitions per algorithm")
	f.IntVarP(&compareFlags.timeLimit, "time-limit", "t", 60, "time limit per run in seconds")
	f.Int64VarP(&compareFlags.seed, "seed", "s", 42, "base seed, repetition r uses seed+r")
	f.IntVar(&compareFlags.parallel, "parallel", 1, "concurrent runs")
	f.StringVarP(&compareFlags.output, "output", "o", "", "write per-run rows as CSV to this path")
	_ = compareCmd.MarkFlagRequired("instance")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg, "compare")

	settings := cfg.Solver
	set := cmd.Flags().Changed
	if set("time-limit") {
		settings.TimeLimitSeconds = compareFlags.timeLimit
	}
	if set("seed") {
		settings.Seed = compareFlags.seed
	}

	in, err := loadInstance(compareFlags.instance, settings)
	if err != nil {
		return err
	}

	var sink bench.Sink
	if cfg.Influx.Enabled {
		sink = metrics.NewResultSinkWithFallback(cfg.Influx.URL, cfg.Influx.Token, cfg.Influx.Org, cfg.Influx.Bucket)
		defer sink.Close()
	}

	log.Infof("comparing %d algorithms on %s, %d runs each, %s per run",
		len(solver.Algorithms()), in.Name(), compareFlags.runs, settings.TimeLimit())
	harness := bench.New(in, bench.Config{
		Algorithms: solver.Algorithms(),
		Runs:       compareFlags.runs,
		TimeLimit:  settings.TimeLimit(),
		Seed:       settings.Seed,
		Workers:    settings.Workers,
		Parallel:   compareFlags.parallel,
		Log:        log,
		Sink:       sink,
	})
	rep, err := harness.Run(ctx)
	if err != nil {
		log.Warnf("sweep interrupted: %v; reporting completed runs", err)
	}

	if werr := export.WriteReport(cmd.OutOrStdout(), rep); werr != nil {
		return werr
	}
	if compareFlags.output != "" {
		f, ferr := os.Create(compareFlags.output)
		if ferr != nil {
			return fmt.Errorf("create output: %w", ferr)
		}
		defer func() { _ = f.Close() }()
		if werr := export.WriteRunsCSV(f, rep.Runs); werr != nil {
			return werr
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Run rows saved to %s\n", compareFlags.output)
	}
	return nil
}
