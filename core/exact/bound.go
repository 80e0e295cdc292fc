package exact

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/kilianp07/pdtsp/core/pdtsp"
)

// BoundMaxNodes caps the assignment relaxation. Beyond this the simplex
// tableau grows quadratically and the bound stops paying for itself.
const BoundMaxNodes = 60

// ErrInstanceTooLarge reports an instance beyond BoundMaxNodes.
var ErrInstanceTooLarge = errors.New("exact: instance too large for assignment bound")

// lpSolve is swapped out in tests.
var lpSolve = solveLP

// AssignmentBound returns the optimum of the linear assignment relaxation:
// every node gets exactly one successor and one predecessor, subtour and
// load constraints dropped. Any feasible tour costs at least this much under
// the distance model, so the benchmark uses it for optimality gaps.
func AssignmentBound(in *pdtsp.Instance) (float64, error) {
	if err := Guard(in); err != nil {
		return 0, err
	}
	n := in.Dimension()
	if n > BoundMaxNodes {
		return 0, fmt.Errorf("%w: %d nodes, limit %d", ErrInstanceTooLarge, n, BoundMaxNodes)
	}
	if n < 2 {
		return 0, nil
	}
	if n == 2 {
		return in.Dist(0, 1) + in.Dist(1, 0), nil
	}

	// One variable per directed arc i->j, i != j, laid out row-major.
	nv := n * (n - 1)
	c := make([]float64, nv)
	idx := 0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			c[idx] = in.Dist(i, j)
			idx++
		}
	}

	// Out-degree row per node plus in-degree rows for all but the last
	// node. The dropped row is implied by the others, keeping A full rank.
	rows := 2*n - 1
	a := mat.NewDense(rows, nv, nil)
	b := make([]float64, rows)
	idx = 0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			a.Set(i, idx, 1)
			if j < n-1 {
				a.Set(n+j, idx, 1)
			}
			idx++
		}
	}
	for r := 0; r < rows; r++ {
		b[r] = 1
	}

	opt, err := lpSolve(c, a, b)
	if err != nil {
		return 0, fmt.Errorf("assignment bound: %w", err)
	}
	return opt, nil
}

func solveLP(c []float64, a *mat.Dense, b []float64) (float64, error) {
	opt, _, err := lp.Simplex(c, a, b, 1e-7, nil)
	if err != nil {
		return 0, err
	}
	return opt, nil
}
