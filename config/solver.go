package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/pdtsp/core/pdtsp"
	"github.com/kilianp07/pdtsp/core/solver"
)

// SolverConfig selects the algorithm and cost model for solve runs.
type SolverConfig struct {
	// Algorithm is the solver selector, e.g. "hybrid" or "two-opt".
	Algorithm string `json:"algorithm"`
	// CostModel is "distance", "quadratic" or "linear-load".
	CostModel string `json:"cost_model"`
	// Alpha and Beta are the load-cost coefficients.
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	// TimeLimitSeconds bounds each solver run.
	TimeLimitSeconds int `json:"time_limit_seconds"`
	// Seed drives every random choice; identical seeds reproduce runs.
	Seed int64 `json:"seed"`
	// Workers caps parallel fitness evaluation; 0 means GOMAXPROCS.
	Workers int `json:"workers"`
	// MaxProfit bounds the profits generated for instances without any.
	MaxProfit int `json:"max_profit"`
}

// SetDefaults applies sane defaults.
func (c *SolverConfig) SetDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = "hybrid"
	}
	if c.CostModel == "" {
		c.CostModel = "distance"
	}
	if c.Alpha == 0 {
		c.Alpha = pdtsp.DefaultAlpha
	}
	if c.Beta == 0 {
		c.Beta = pdtsp.DefaultBeta
	}
	if c.TimeLimitSeconds == 0 {
		c.TimeLimitSeconds = 60
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
	if c.MaxProfit == 0 {
		c.MaxProfit = 200
	}
}

// Validate checks the selectors and bounds.
func (c SolverConfig) Validate() error {
	if _, err := solver.ParseAlgorithm(c.Algorithm); err != nil {
		return err
	}
	if _, err := pdtsp.ParseCostModel(c.CostModel); err != nil {
		return err
	}
	if c.TimeLimitSeconds < 0 {
		return fmt.Errorf("time_limit_seconds must be >= 0, got %d", c.TimeLimitSeconds)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.MaxProfit < 0 {
		return fmt.Errorf("max_profit must be >= 0, got %d", c.MaxProfit)
	}
	return nil
}

// TimeLimit returns the run budget as a duration.
func (c SolverConfig) TimeLimit() time.Duration {
	return time.Duration(c.TimeLimitSeconds) * time.Second
}
