package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/pdtsp/config"
	"github.com/kilianp07/pdtsp/core/exact"
	corelogger "github.com/kilianp07/pdtsp/core/logger"
	"github.com/kilianp07/pdtsp/core/pdtsp"
	"github.com/kilianp07/pdtsp/core/solver"
	"github.com/kilianp07/pdtsp/infra/metrics"
	"github.com/kilianp07/pdtsp/internal/eventbus"
	"github.com/kilianp07/pdtsp/pkg/export"
	"github.com/kilianp07/pdtsp/pkg/viz"
	"github.com/kilianp07/pdtsp/tsplib"
)

var solveFlags struct {
	instance  string
	algorithm string
	costModel string
	alpha     float64
	beta      float64
	timeLimit int
	seed      int64
	workers   int
	maxProfit int
	output    string
	visualize bool
	verbose   bool
}

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve a single instance",
	RunE:  runSolve,
}

func init() {
	f := solveCmd.Flags()
	f.StringVarP(&solveFlags.instance, "instance", "i", "", "instance file (required)")
	f.StringVarP(&solveFlags.algorithm, "algorithm", "a", "hybrid", `algorithm selector, "exact" routes to the MIP backend`)
	f.StringVar(&solveFlags.costModel, "cost-model", "distance", "cost model: distance, quadratic or linear-load")
	f.Float64Var(&solveFlags.alpha, "alpha", pdtsp.DefaultAlpha, "linear load weight")
	f.Float64Var(&solveFlags.beta, "beta", pdtsp.DefaultBeta, "quadratic load weight")
	f.IntVarP(&solveFlags.timeLimit, "time-limit", "t", 60, "time limit in seconds")
	f.Int64VarP(&solveFlags.seed, "seed", "s", 42, "random seed")
	f.IntVar(&solveFlags.workers, "workers", 0, "parallel offspring evaluation workers, 0 uses every CPU")
	f.IntVar(&solveFlags.maxProfit, "max-profit", 200, "max generated profit, 0 keeps existing profits")
	f.StringVarP(&solveFlags.output, "output", "o", "", "write the solution as JSON to this path")
	f.BoolVar(&solveFlags.visualize, "visualize", false, "write tour and load-profile SVGs next to the instance")
	f.BoolVarP(&solveFlags.verbose, "verbose", "v", false, "log instance details and every improvement")
	_ = solveCmd.MarkFlagRequired("instance")
	rootCmd.AddCommand(solveCmd)
}

// solverSettings is the merged view of the solver config section and the
// explicit flags; a flag wins only when it was actually set.
func solverSettings(cmd *cobra.Command, cfg *config.Config) config.SolverConfig {
	s := cfg.Solver
	set := cmd.Flags().Changed
	if set("algorithm") {
		s.Algorithm = solveFlags.algorithm
	}
	if set("cost-model") {
		s.CostModel = solveFlags.costModel
	}
	if set("alpha") {
		s.Alpha = solveFlags.alpha
	}
	if set("beta") {
		s.Beta = solveFlags.beta
	}
	if set("time-limit") {
		s.TimeLimitSeconds = solveFlags.timeLimit
	}
	if set("seed") {
		s.Seed = solveFlags.seed
	}
	if set("workers") {
		s.Workers = solveFlags.workers
	}
	if set("max-profit") {
		s.MaxProfit = solveFlags.maxProfit
	}
	return s
}

// loadInstance parses the file and applies the cost model, coefficients and
// generated profits the settings ask for.
func loadInstance(path string, s config.SolverConfig) (*pdtsp.Instance, error) {
	in, err := tsplib.ParseFile(path)
	if err != nil {
		return nil, err
	}
	model, err := pdtsp.ParseCostModel(s.CostModel)
	if err != nil {
		return nil, err
	}
	in = in.WithCostModel(model, s.Alpha, s.Beta)
	if s.MaxProfit > 0 {
		in = in.WithRandomProfits(s.Seed, s.MaxProfit)
	}
	return in, nil
}

func runSolve(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg, "solve")
	settings := solverSettings(cmd, cfg)

	in, err := loadInstance(solveFlags.instance, settings)
	if err != nil {
		return err
	}
	if solveFlags.verbose {
		logInstance(log, in)
	}

	if strings.EqualFold(settings.Algorithm, "exact") {
		return solveExact(cmd, in, settings)
	}
	alg, err := solver.ParseAlgorithm(settings.Algorithm)
	if err != nil {
		return err
	}

	bus := eventbus.New[solver.Progress](256)
	var wg sync.WaitGroup
	if solveFlags.verbose {
		events := bus.Subscribe()
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range events {
				log.Infof("new best: cost=%.2f feasible=%v iteration=%d elapsed=%s",
					p.Cost, p.Feasible, p.Iteration, p.Elapsed.Round(time.Millisecond))
			}
		}()
	}
	if cfg.Metrics.Enabled {
		collector, cerr := metrics.NewProgressCollector(nil)
		if cerr != nil {
			return fmt.Errorf("metrics: %w", cerr)
		}
		events := bus.Subscribe()
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector.Watch(ctx, in.Name(), events)
		}()
		go func() {
			if serr := metrics.StartPromServer(ctx, cfg.Metrics.Listen); serr != nil {
				log.Errorf("prom server: %v", serr)
			}
		}()
	}

	sol, err := solver.Solve(ctx, in, solver.Options{
		Algorithm: alg,
		TimeLimit: settings.TimeLimit(),
		Seed:      settings.Seed,
		Workers:   settings.Workers,
		Log:       log,
		Progress:  bus,
	})
	bus.Close()
	wg.Wait()
	if err != nil && !errors.Is(err, solver.ErrNoFeasibleTour) {
		return err
	}
	if err != nil {
		log.Warnf("no feasible tour found; reporting the best infeasible attempt")
	}

	printSolution(cmd, in, sol)
	if solveFlags.verbose {
		fmt.Fprintf(cmd.OutOrStdout(), "Tour: %v\nLoad profile: %v\n", sol.Tour, sol.Loads)
	}

	if solveFlags.output != "" {
		if werr := writeSolutionFile(solveFlags.output, in, sol); werr != nil {
			return werr
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Solution saved to %s\n", solveFlags.output)
	}
	if solveFlags.visualize {
		base := strings.TrimSuffix(solveFlags.instance, ".tsp")
		tourPath, loadPath, verr := viz.New().Save(base, in, sol)
		if verr != nil {
			return verr
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Visualization saved to %s and %s\n", tourPath, loadPath)
	}
	return nil
}

// solveExact routes to the exact-backend seam. The cost-model guard runs
// before any solve attempt, so a load-dependent model fails fast.
func solveExact(cmd *cobra.Command, in *pdtsp.Instance, settings config.SolverConfig) error {
	if err := exact.Guard(in); err != nil {
		return err
	}
	backend := exact.Unavailable{}
	sol, err := backend.Solve(cmd.Context(), in, settings.TimeLimit())
	if err != nil {
		return fmt.Errorf("exact backend %q: %w", backend.Name(), err)
	}
	printSolution(cmd, in, sol)
	return nil
}

func printSolution(cmd *cobra.Command, in *pdtsp.Instance, sol pdtsp.Solution) {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "========== Results ==========")
	fmt.Fprintf(w, "Algorithm: %s\n", sol.Algorithm)
	fmt.Fprintf(w, "Cost model: %s\n", in.Model())
	fmt.Fprintf(w, "Cost: %.2f\n", sol.Cost)
	fmt.Fprintf(w, "Total profit: %d\n", in.TourProfit(sol.Tour))
	fmt.Fprintf(w, "Feasible: %v\n", sol.Feasible)
	fmt.Fprintf(w, "Time: %.4fs\n", sol.Elapsed.Seconds())
}

func writeSolutionFile(path string, in *pdtsp.Instance, sol pdtsp.Solution) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() { _ = f.Close() }()
	return export.WriteSolutionJSON(f, in, sol)
}

func logInstance(log corelogger.Logger, in *pdtsp.Instance) {
	pickups, deliveries := 0, 0
	pickupLoad, deliveryLoad := 0, 0
	for i := 1; i < in.Dimension(); i++ {
		switch d := in.Demand(i); {
		case d > 0:
			pickups++
			pickupLoad += d
		case d < 0:
			deliveries++
			deliveryLoad -= d
		}
	}
	log.Infof("instance %s: %d nodes, capacity %d, cost model %s (alpha=%g beta=%g)",
		in.Name(), in.Dimension(), in.Capacity(), in.Model(), in.Alpha(), in.Beta())
	log.Infof("demands: %d pickups (+%d), %d deliveries (-%d), starting load %d, return demand %d",
		pickups, pickupLoad, deliveries, deliveryLoad, in.StartingLoad(), in.ReturnDemand())
}
