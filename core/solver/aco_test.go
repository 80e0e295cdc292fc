package solver

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/pdtsp/core/pdtsp"
)

func TestColonyConstructionRespectsLoadWindow(t *testing.T) {
	in := depotStockInstance(t)
	c := newColony(in, DefaultACOConfig(), rand.New(rand.NewSource(21)))

	visited := make([]bool, in.Dimension())
	ant := make(pdtsp.Tour, 0, in.Customers())
	for trial := 0; trial < 50; trial++ {
		var complete bool
		ant, complete = c.constructTour(visited, ant)
		require.True(t, complete, "the depot-stock scenario never dead-ends a window-checked walk")
		require.True(t, ant.ValidPermutation(in.Dimension()))
		assert.True(t, in.FeasibleTour(ant))
	}
}

func TestColonySelectNextSkipsOverloads(t *testing.T) {
	in := hopelessInstance(t)
	c := newColony(in, DefaultACOConfig(), rand.New(rand.NewSource(1)))

	visited := make([]bool, in.Dimension())
	// After picking up customer 1 the vehicle is full; nothing else fits.
	visited[1] = true
	next := c.selectNext(1, visited, 5)
	assert.Equal(t, -1, next)
}

func TestAntRunsAreDeterministic(t *testing.T) {
	in := depotStockInstance(t)
	for _, a := range []Algorithm{AlgorithmACO, AlgorithmMMAS} {
		a := a
		t.Run(a.Selector(), func(t *testing.T) {
			opts := Options{Algorithm: a, TimeLimit: generous, Seed: 99}
			first, err := Solve(context.Background(), in, opts)
			require.NoError(t, err)
			second, err := Solve(context.Background(), in, opts)
			require.NoError(t, err)
			assert.Equal(t, first.Tour, second.Tour)
			assert.InDelta(t, first.Cost, second.Cost, 1e-9)
		})
	}
}

func TestMMASKeepsPheromoneBounded(t *testing.T) {
	in := depotStockInstance(t)
	cfg := DefaultACOConfig()
	cfg.MaxIterations = 30

	c := newColony(in, cfg, rand.New(rand.NewSource(8)))
	tauMax := 1 / (cfg.Evaporation * 1000)
	tauMin := tauMax / 50
	c.reset(tauMax)

	tour := make(pdtsp.Tour, 0, in.Customers())
	visited := make([]bool, in.Dimension())
	for iter := 0; iter < cfg.MaxIterations; iter++ {
		var complete bool
		tour, complete = c.constructTour(visited, tour)
		require.True(t, complete)
		c.evaporate()
		c.deposit(tour, in.TourCost(tour))
		c.clamp(tauMin, tauMax)
	}
	for i, v := range c.pheromone {
		require.GreaterOrEqualf(t, v, tauMin, "pheromone[%d] fell below the floor", i)
		require.LessOrEqualf(t, v, tauMax, "pheromone[%d] exceeded the ceiling", i)
	}
}
