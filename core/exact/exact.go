// Package exact holds the seam to the external mixed-integer solver: the
// Backend interface, the cost-model guard every exact collaborator must pass
// and the assignment-relaxation lower bound used by the benchmark harness.
package exact

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/pdtsp/core/pdtsp"
)

// Backend solves an instance to proven optimality.
type Backend interface {
	Name() string
	Solve(ctx context.Context, in *pdtsp.Instance, timeLimit time.Duration) (pdtsp.Solution, error)
}

// ErrUnsupportedCostModel rejects exact solving under load-dependent cost
// models. Only plain distances can be certified.
var ErrUnsupportedCostModel = errors.New("exact: only the distance cost model is supported")

// ErrUnavailable reports that no MIP solver is linked into this build.
var ErrUnavailable = errors.New("exact: no MIP solver available")

// Guard verifies the instance can be handed to an exact collaborator. It
// must pass before any solve attempt.
func Guard(in *pdtsp.Instance) error {
	if in.Model() != pdtsp.CostDistance {
		return fmt.Errorf("%w, got %s", ErrUnsupportedCostModel, in.Model())
	}
	return nil
}

// Unavailable stands in for the commercial solver when it is not linked in.
// It still enforces the guard so configuration errors surface first.
type Unavailable struct{}

func (Unavailable) Name() string { return "unavailable" }

func (Unavailable) Solve(_ context.Context, in *pdtsp.Instance, _ time.Duration) (pdtsp.Solution, error) {
	if err := Guard(in); err != nil {
		return pdtsp.Solution{}, err
	}
	return pdtsp.Solution{}, ErrUnavailable
}
