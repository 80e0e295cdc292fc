package solver

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/pdtsp/core/pdtsp"
)

func TestPortfolioProducesValidTours(t *testing.T) {
	in := depotStockInstance(t)
	rng := rand.New(rand.NewSource(42))
	for _, c := range Portfolio() {
		tour, feasible := c.Build(in, rng)
		require.Truef(t, tour.ValidPermutation(in.Dimension()), "%s produced an invalid tour %v", c.Name(), tour)
		assert.Equalf(t, in.FeasibleTour(tour), feasible, "%s misreported feasibility", c.Name())
	}
}

func TestNearestNeighborDepotStockScenario(t *testing.T) {
	in := depotStockInstance(t)
	nn := Constructive{Kind: ConstructNearest}

	tour, feasible := nn.Build(in, rand.New(rand.NewSource(42)))
	require.True(t, feasible, "nearest-neighbor must stay feasible on the depot-stock scenario")
	require.True(t, tour.ValidPermutation(in.Dimension()))

	profile := in.Profile(tour)
	for i, load := range profile {
		assert.GreaterOrEqualf(t, load, 0, "profile[%d]", i)
		assert.LessOrEqualf(t, load, in.Capacity(), "profile[%d]", i)
	}
	assert.Zero(t, profile[len(profile)-1], "vehicle must return empty")

	again, _ := nn.Build(in, rand.New(rand.NewSource(42)))
	assert.Equal(t, tour, again, "same seed must reproduce the tour")
	assert.InDelta(t, in.TourCost(tour), in.TourCost(again), 1e-12)
}

func TestRandomizedNearestNeighborDeterminism(t *testing.T) {
	in := depotStockInstance(t)
	c := Constructive{Kind: ConstructNearest, Randomized: true}

	first, _ := c.Build(in, rand.New(rand.NewSource(7)))
	second, _ := c.Build(in, rand.New(rand.NewSource(7)))
	assert.Equal(t, first, second)
}

func TestCompleteTourFillsMissingCustomers(t *testing.T) {
	in := depotStockInstance(t)
	partial := completeTour(in, nil)
	require.True(t, partial.ValidPermutation(in.Dimension()))

	half := partial[:len(partial)/2].Clone()
	full := completeTour(in, half)
	require.True(t, full.ValidPermutation(in.Dimension()))
}

func TestMultiStartPrefersFeasibleAndBeatsSingleStart(t *testing.T) {
	in := depotStockInstance(t)

	nnTour, _ := Constructive{Kind: ConstructNearest}.Build(in, rand.New(rand.NewSource(42)))
	msTour, feasible := multiStart(in, rand.New(rand.NewSource(42)))

	require.True(t, feasible)
	require.True(t, msTour.ValidPermutation(in.Dimension()))
	assert.LessOrEqual(t, in.TourCost(msTour), in.TourCost(nnTour),
		"multi-start keeps the best portfolio member, so it cannot lose to plain nearest-neighbor")
}

func TestPickupHighProfitPrefersValueOverProximity(t *testing.T) {
	// The far pickup carries a profit of 100 (score 100/11), the near one
	// only 1 (score 1/2), so the walk must bend toward the value first.
	in, err := pdtsp.NewInstance(pdtsp.Config{
		Name:     "profit-walk",
		Capacity: 4,
		Nodes: []pdtsp.Node{
			{ID: 1, X: 0, Y: 0, Demand: 0},
			{ID: 2, X: 10, Y: 0, Demand: 2, Profit: 100},
			{ID: 3, X: 1, Y: 0, Demand: 2, Profit: 1},
			{ID: 4, X: 5, Y: 5, Demand: -2},
			{ID: 5, X: 5, Y: -5, Demand: -2},
		},
	})
	require.NoError(t, err)

	tour, feasible := Constructive{Kind: ConstructPickupProfit}.Build(in, rand.New(rand.NewSource(42)))
	require.True(t, tour.ValidPermutation(in.Dimension()))
	assert.True(t, feasible)
	assert.Equal(t, 1, tour[0], "highest profit density node must be served first")
}

func TestBuildOnHopelessInstanceReportsInfeasible(t *testing.T) {
	in := hopelessInstance(t)
	for _, c := range Portfolio() {
		tour, feasible := c.Build(in, rand.New(rand.NewSource(1)))
		require.Truef(t, tour.ValidPermutation(in.Dimension()), "%s must still return a complete tour", c.Name())
		assert.Falsef(t, feasible, "%s cannot be feasible here", c.Name())
	}
}

func TestInsertionHelpers(t *testing.T) {
	in := depotStockInstance(t)

	// Inserting a delivery at the front drains 6 from a stock of 7.
	assert.True(t, insertionOK(in, nil, 9, 0))
	// A second 6-unit delivery before any pickup would go negative.
	assert.False(t, insertionOK(in, pdtsp.Tour{9}, 10, 1))

	cost := insertionCost(in, nil, 1, 0)
	assert.InDelta(t, 2*in.Dist(0, 1), cost, 1e-12)
}
