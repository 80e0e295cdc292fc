package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/pdtsp/core/pdtsp"
)

// identityTour visits customers in index order. On the depot-stock scenario
// that means all pickups first, so it is feasible but far from short.
func identityTour(in *pdtsp.Instance) pdtsp.Tour {
	t := make(pdtsp.Tour, in.Customers())
	for i := range t {
		t[i] = i + 1
	}
	return t
}

func TestNeighborhoodsTrackCostExactly(t *testing.T) {
	in := depotStockInstance(t)

	searches := map[string]func(*pdtsp.Evaluator, pdtsp.Tour, float64, bool) (float64, bool){
		"two-opt":  twoOpt,
		"swap":     swapSearch,
		"relocate": relocate,
		"or-opt":   orOpt,
	}
	for name, search := range searches {
		for _, first := range []bool{true, false} {
			tour := identityTour(in)
			cost, feasible := in.Evaluate(tour)
			require.True(t, feasible)

			e := pdtsp.NewEvaluator(in)
			e.Bind(tour)
			got, improved := search(e, tour, cost, first)

			require.Truef(t, tour.ValidPermutation(in.Dimension()), "%s first=%v broke the permutation", name, first)
			recomputed, stillFeasible := in.Evaluate(tour)
			assert.Truef(t, stillFeasible, "%s first=%v left the feasible region", name, first)
			assert.InDeltaf(t, recomputed, got, 1e-6, "%s first=%v drifted from the true cost", name, first)
			if improved {
				assert.Lessf(t, got, cost, "%s first=%v claimed an improvement without one", name, first)
			}
		}
	}
}

func TestVndReachesLocalOptimum(t *testing.T) {
	in := depotStockInstance(t)
	tour := identityTour(in)
	cost, feasible := in.Evaluate(tour)
	require.True(t, feasible)

	e := pdtsp.NewEvaluator(in)
	e.Bind(tour)
	cost, improved := vnd(e, tour, cost)
	require.True(t, improved, "the index-order tour is not a local optimum")

	for name, search := range map[string]func(*pdtsp.Evaluator, pdtsp.Tour, float64, bool) (float64, bool){
		"two-opt":  twoOpt,
		"swap":     swapSearch,
		"relocate": relocate,
		"or-opt":   orOpt,
	} {
		_, again := search(e, tour, cost, true)
		assert.Falsef(t, again, "%s still improves after vnd", name)
	}
}

func TestVndUnderLoadDependentCost(t *testing.T) {
	in := quadraticVariant(t)
	tour := identityTour(in)
	cost, feasible := in.Evaluate(tour)
	require.True(t, feasible)

	e := pdtsp.NewEvaluator(in)
	e.Bind(tour)
	got, _ := vnd(e, tour, cost)

	recomputed, stillFeasible := in.Evaluate(tour)
	require.True(t, stillFeasible)
	assert.InDelta(t, recomputed, got, 1e-6)
	assert.LessOrEqual(t, got, cost+eps)
}

func TestImproveTourLeavesInfeasibleInputAlone(t *testing.T) {
	in := depotStockInstance(t)
	tour := identityTour(in)
	cost := in.TourCost(tour)

	got, improved := improveTour(in, tour.Clone(), cost, false)
	assert.False(t, improved)
	assert.Equal(t, cost, got)
}
