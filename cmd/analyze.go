package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/pdtsp/core/pdtsp"
	"github.com/kilianp07/pdtsp/tsplib"
)

var analyzeFlags struct {
	instance string
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Summarize an instance without solving it",
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFlags.instance, "instance", "i", "", "instance file (required)")
	_ = analyzeCmd.MarkFlagRequired("instance")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	in, err := tsplib.ParseFile(analyzeFlags.instance)
	if err != nil {
		return err
	}
	writeAnalysis(cmd.OutOrStdout(), in)
	return nil
}

func writeAnalysis(w io.Writer, in *pdtsp.Instance) {
	fmt.Fprintln(w, "========== Instance Analysis ==========")
	fmt.Fprintf(w, "Name: %s\n", in.Name())
	if in.Comment() != "" {
		fmt.Fprintf(w, "Comment: %s\n", in.Comment())
	}
	fmt.Fprintf(w, "Nodes: %d (%d customers)\n", in.Dimension(), in.Customers())
	fmt.Fprintf(w, "Capacity: %d\n", in.Capacity())

	pickups, deliveries, neutrals := 0, 0, 0
	pickupTotal, deliveryTotal := 0, 0
	var demands []float64
	for i := 1; i < in.Dimension(); i++ {
		switch d := in.Demand(i); {
		case d > 0:
			pickups++
			pickupTotal += d
			demands = append(demands, float64(d))
		case d < 0:
			deliveries++
			deliveryTotal -= d
			demands = append(demands, float64(-d))
		default:
			neutrals++
		}
	}
	fmt.Fprintln(w, "\nDemand Distribution:")
	fmt.Fprintf(w, "  Pickup nodes: %d (total: %d)\n", pickups, pickupTotal)
	fmt.Fprintf(w, "  Delivery nodes: %d (total: %d)\n", deliveries, deliveryTotal)
	fmt.Fprintf(w, "  Neutral nodes: %d\n", neutrals)
	fmt.Fprintf(w, "  Starting load: %d\n", in.StartingLoad())
	fmt.Fprintf(w, "  Return-depot demand: %d\n", in.ReturnDemand())

	if len(demands) > 0 {
		avg := stat.Mean(demands, nil)
		fmt.Fprintln(w, "\nDemand Statistics (absolute):")
		fmt.Fprintf(w, "  Average: %.2f\n", avg)
		fmt.Fprintf(w, "  Min: %.0f\n", floats.Min(demands))
		fmt.Fprintf(w, "  Max: %.0f\n", floats.Max(demands))
		fmt.Fprintf(w, "  Capacity utilization ratio: %.2f%%\n", avg/float64(in.Capacity())*100)
	}

	var dists []float64
	for i := 0; i < in.Dimension(); i++ {
		for j := i + 1; j < in.Dimension(); j++ {
			dists = append(dists, in.Dist(i, j))
		}
	}
	if len(dists) > 0 {
		fmt.Fprintln(w, "\nDistance Statistics:")
		fmt.Fprintf(w, "  Average: %.2f\n", stat.Mean(dists, nil))
		fmt.Fprintf(w, "  Min: %.2f\n", floats.Min(dists))
		fmt.Fprintf(w, "  Max: %.2f\n", floats.Max(dists))
	}
}
