package exact

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/pdtsp/core/pdtsp"
)

func boundInstance(t *testing.T) *pdtsp.Instance {
	t.Helper()
	in, err := pdtsp.NewInstance(pdtsp.Config{
		Name:     "bound-6",
		Capacity: 4,
		Nodes: []pdtsp.Node{
			{ID: 0, X: 0, Y: 0},
			{ID: 1, X: 10, Y: 0, Demand: 2},
			{ID: 2, X: 10, Y: 10, Demand: -2},
			{ID: 3, X: 0, Y: 10, Demand: 2},
			{ID: 4, X: -10, Y: 10, Demand: -2},
			{ID: 5, X: -10, Y: 0},
		},
	})
	if err != nil {
		t.Fatalf("instance: %v", err)
	}
	return in
}

func TestGuardRejectsLoadDependentModels(t *testing.T) {
	in := boundInstance(t)
	if err := Guard(in); err != nil {
		t.Fatalf("distance model rejected: %v", err)
	}
	for _, m := range []pdtsp.CostModel{pdtsp.CostQuadratic, pdtsp.CostLinearLoad} {
		err := Guard(in.WithCostModel(m, pdtsp.DefaultAlpha, pdtsp.DefaultBeta))
		if !errors.Is(err, ErrUnsupportedCostModel) {
			t.Fatalf("model %s: got %v, want ErrUnsupportedCostModel", m, err)
		}
	}
}

func TestUnavailableChecksModelBeforeSolving(t *testing.T) {
	var backend Unavailable
	if backend.Name() != "unavailable" {
		t.Fatalf("name = %q", backend.Name())
	}

	quad := boundInstance(t).WithCostModel(pdtsp.CostQuadratic, pdtsp.DefaultAlpha, pdtsp.DefaultBeta)
	_, err := backend.Solve(context.Background(), quad, time.Second)
	if !errors.Is(err, ErrUnsupportedCostModel) {
		t.Fatalf("quadratic: got %v, want ErrUnsupportedCostModel", err)
	}

	_, err = backend.Solve(context.Background(), boundInstance(t), time.Second)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("distance: got %v, want ErrUnavailable", err)
	}
}

func TestAssignmentBoundBelowTourCost(t *testing.T) {
	in := boundInstance(t)
	bound, err := AssignmentBound(in)
	if err != nil {
		t.Fatalf("bound: %v", err)
	}

	tour := pdtsp.Tour{1, 2, 3, 4, 5}
	if !in.FeasibleTour(tour) {
		t.Fatal("reference tour infeasible")
	}
	cost := in.TourCost(tour)
	if bound > cost+1e-6 {
		t.Fatalf("bound %.4f exceeds tour cost %.4f", bound, cost)
	}

	// The relaxation can never beat the sum of per-node cheapest arcs.
	floor := 0.0
	for i := 0; i < in.Dimension(); i++ {
		min := math.Inf(1)
		for j := 0; j < in.Dimension(); j++ {
			if j != i && in.Dist(i, j) < min {
				min = in.Dist(i, j)
			}
		}
		floor += min
	}
	if bound < floor-1e-6 {
		t.Fatalf("bound %.4f below arc floor %.4f", bound, floor)
	}
}

func TestAssignmentBoundTinyInstance(t *testing.T) {
	in, err := pdtsp.NewInstance(pdtsp.Config{
		Name:     "pair",
		Capacity: 1,
		Nodes: []pdtsp.Node{
			{ID: 0, X: 0, Y: 0},
			{ID: 1, X: 3, Y: 4},
		},
	})
	if err != nil {
		t.Fatalf("instance: %v", err)
	}
	bound, err := AssignmentBound(in)
	if err != nil {
		t.Fatalf("bound: %v", err)
	}
	if math.Abs(bound-10) > 1e-9 {
		t.Fatalf("bound = %.6f, want 10", bound)
	}
}

func TestAssignmentBoundSizeLimit(t *testing.T) {
	nodes := make([]pdtsp.Node, 0, 61)
	nodes = append(nodes, pdtsp.Node{ID: 0})
	for i := 1; i <= 60; i++ {
		d := 1
		if i%2 == 0 {
			d = -1
		}
		angle := 2 * math.Pi * float64(i) / 60
		nodes = append(nodes, pdtsp.Node{
			ID: i, X: 100 * math.Cos(angle), Y: 100 * math.Sin(angle), Demand: d,
		})
	}
	in, err := pdtsp.NewInstance(pdtsp.Config{Name: "big", Capacity: 5, Nodes: nodes})
	if err != nil {
		t.Fatalf("instance: %v", err)
	}
	if _, err := AssignmentBound(in); !errors.Is(err, ErrInstanceTooLarge) {
		t.Fatalf("got %v, want ErrInstanceTooLarge", err)
	}
}

func TestAssignmentBoundGuardsBeforeSolving(t *testing.T) {
	orig := lpSolve
	defer func() { lpSolve = orig }()
	called := false
	lpSolve = func([]float64, *mat.Dense, []float64) (float64, error) {
		called = true
		return 0, nil
	}

	quad := boundInstance(t).WithCostModel(pdtsp.CostQuadratic, pdtsp.DefaultAlpha, pdtsp.DefaultBeta)
	if _, err := AssignmentBound(quad); !errors.Is(err, ErrUnsupportedCostModel) {
		t.Fatalf("got %v, want ErrUnsupportedCostModel", err)
	}
	if called {
		t.Fatal("simplex invoked despite cost-model guard")
	}
}

func TestAssignmentBoundWrapsSolverError(t *testing.T) {
	orig := lpSolve
	defer func() { lpSolve = orig }()
	boom := errors.New("singular basis")
	lpSolve = func([]float64, *mat.Dense, []float64) (float64, error) {
		return 0, boom
	}

	if _, err := AssignmentBound(boundInstance(t)); !errors.Is(err, boom) {
		t.Fatalf("got %v, want wrapped solver error", err)
	}
}
