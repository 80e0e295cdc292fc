package pdtsp

import (
	"errors"
	"math"
	"testing"
)

func smallConfig() Config {
	return Config{
		Name:     "small",
		Capacity: 10,
		Nodes: []Node{
			{ID: 0, X: 0, Y: 0, Demand: 2},
			{ID: 1, X: 3, Y: 0, Demand: 4},
			{ID: 2, X: 3, Y: 4, Demand: -5},
			{ID: 3, X: 0, Y: 4, Demand: 3},
		},
		ReturnDemand: -4,
		Model:        CostDistance,
	}
}

func TestNewInstanceValidation(t *testing.T) {
	if _, err := NewInstance(smallConfig()); err != nil {
		t.Fatalf("valid instance rejected: %v", err)
	}

	cfg := smallConfig()
	cfg.ReturnDemand = 0
	if _, err := NewInstance(cfg); !errors.Is(err, ErrUnbalancedDemand) {
		t.Fatalf("expected ErrUnbalancedDemand, got %v", err)
	}

	cfg = smallConfig()
	cfg.Capacity = 0
	if _, err := NewInstance(cfg); err == nil {
		t.Fatal("expected error for zero capacity")
	}

	cfg = smallConfig()
	cfg.Nodes = cfg.Nodes[:1]
	if _, err := NewInstance(cfg); err == nil {
		t.Fatal("expected error for missing customers")
	}
}

func TestDistanceMatrix(t *testing.T) {
	in, err := NewInstance(smallConfig())
	if err != nil {
		t.Fatal(err)
	}
	if got := in.Dist(0, 1); math.Abs(got-3) > 1e-12 {
		t.Errorf("Dist(0,1) = %v, want 3", got)
	}
	if got := in.Dist(0, 2); math.Abs(got-5) > 1e-12 {
		t.Errorf("Dist(0,2) = %v, want 5", got)
	}
	for i := 0; i < in.Dimension(); i++ {
		for j := 0; j < in.Dimension(); j++ {
			if in.Dist(i, j) != in.Dist(j, i) {
				t.Fatalf("distance not symmetric at (%d,%d)", i, j)
			}
		}
	}
}

func TestProfileAndFeasibility(t *testing.T) {
	in, err := NewInstance(smallConfig())
	if err != nil {
		t.Fatal(err)
	}
	tour := Tour{1, 2, 3}
	p := in.Profile(tour)
	if len(p) != len(tour)+2 {
		t.Fatalf("profile length = %d, want %d", len(p), len(tour)+2)
	}
	// Loads: start 2, +4=6, -5=1, +3=4, return -4=0.
	want := LoadProfile{2, 6, 1, 4, 0}
	for i := range want {
		if p[i] != want[i] {
			t.Fatalf("profile = %v, want %v", p, want)
		}
	}
	if !in.FeasibleTour(tour) {
		t.Error("tour should be feasible")
	}
	if p[len(p)-1] != 0 {
		t.Errorf("final load = %d, want 0", p[len(p)-1])
	}

	// A tight capacity turns the same tour infeasible.
	cfg := smallConfig()
	cfg.Capacity = 5
	tight, err := NewInstance(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if tight.FeasibleTour(tour) {
		t.Error("tour should exceed capacity 5")
	}
	if _, feasible := tight.Evaluate(tour); feasible {
		t.Error("Evaluate should flag infeasibility")
	}
}

func TestCostModelConsistency(t *testing.T) {
	base, err := NewInstance(smallConfig())
	if err != nil {
		t.Fatal(err)
	}
	tour := Tour{1, 2, 3}
	dist := base.TourCost(tour)

	quadZero := base.WithCostModel(CostQuadratic, 0, 0)
	linZero := base.WithCostModel(CostLinearLoad, 0, 0)
	if got := quadZero.TourCost(tour); math.Abs(got-dist) > 1e-9 {
		t.Errorf("quadratic(0,0) = %v, want distance %v", got, dist)
	}
	if got := linZero.TourCost(tour); math.Abs(got-dist) > 1e-9 {
		t.Errorf("linear-load(0) = %v, want distance %v", got, dist)
	}

	// Linear-load cost is non-decreasing in alpha.
	prev := dist
	for _, alpha := range []float64{0.1, 0.5, 1, 2} {
		got := base.WithCostModel(CostLinearLoad, alpha, 0).TourCost(tour)
		if got < prev-1e-12 {
			t.Errorf("linear-load cost decreased from %v to %v at alpha=%v", prev, got, alpha)
		}
		prev = got
	}

	// Quadratic cost is non-decreasing in beta.
	prev = dist
	for _, beta := range []float64{0.1, 0.5, 1, 2} {
		got := base.WithCostModel(CostQuadratic, 0, beta).TourCost(tour)
		if got < prev-1e-12 {
			t.Errorf("quadratic cost decreased from %v to %v at beta=%v", prev, got, beta)
		}
		prev = got
	}
}

func TestQuadraticCostValue(t *testing.T) {
	in, err := NewInstance(smallConfig())
	if err != nil {
		t.Fatal(err)
	}
	quad := in.WithCostModel(CostQuadratic, 0.5, 0.25)
	tour := Tour{1, 2, 3}
	// Loads leaving each source: 2, 6, 1, 4. Distances: 3+4+3+4 = 14.
	want := 14.0
	for _, w := range []float64{2, 6, 1, 4} {
		want += 0.5*w + 0.25*w*w
	}
	if got := quad.TourCost(tour); math.Abs(got-want) > 1e-9 {
		t.Errorf("quadratic cost = %v, want %v", got, want)
	}
}

func TestParseCostModel(t *testing.T) {
	cases := map[string]CostModel{
		"distance":    CostDistance,
		"quadratic":   CostQuadratic,
		"linear-load": CostLinearLoad,
		"linear":      CostLinearLoad,
	}
	for s, want := range cases {
		got, err := ParseCostModel(s)
		if err != nil || got != want {
			t.Errorf("ParseCostModel(%q) = %v, %v; want %v", s, got, err, want)
		}
	}
	if _, err := ParseCostModel("cubic"); err == nil {
		t.Error("expected error for unknown model")
	}
}

func TestWithRandomProfits(t *testing.T) {
	in, err := NewInstance(smallConfig())
	if err != nil {
		t.Fatal(err)
	}
	a := in.WithRandomProfits(7, 200)
	b := in.WithRandomProfits(7, 200)
	if a.Node(0).Profit != 0 {
		t.Error("depot must not carry profit")
	}
	for i := 1; i < a.Dimension(); i++ {
		p := a.Node(i).Profit
		if p < 10 || p > 100 {
			t.Errorf("profit %d out of [10,100]", p)
		}
		if p != b.Node(i).Profit {
			t.Error("profits not deterministic for equal seeds")
		}
	}
	// Already-assigned profits are kept.
	if c := a.WithRandomProfits(99, 50); c != a {
		t.Error("expected unchanged instance when profits exist")
	}
}
