package pdtsp

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// CostModel selects how tour cost is computed from edge distances and the
// load carried along each edge.
type CostModel int

const (
	// CostDistance sums Euclidean edge lengths only.
	CostDistance CostModel = iota
	// CostQuadratic adds alpha*W + beta*W*W per edge, where W is the load
	// carried when leaving the edge's source node.
	CostQuadratic
	// CostLinearLoad adds alpha*|W| per edge.
	CostLinearLoad
)

// Default load-cost coefficients. The CLI may override both.
const (
	DefaultAlpha = 0.1
	DefaultBeta  = 0.5
)

func (m CostModel) String() string {
	switch m {
	case CostDistance:
		return "distance"
	case CostQuadratic:
		return "quadratic"
	case CostLinearLoad:
		return "linear-load"
	default:
		return fmt.Sprintf("costmodel(%d)", int(m))
	}
}

// ParseCostModel maps a CLI or config spelling to a CostModel.
func ParseCostModel(s string) (CostModel, error) {
	switch s {
	case "distance", "dist":
		return CostDistance, nil
	case "quadratic", "quad":
		return CostQuadratic, nil
	case "linear-load", "linear":
		return CostLinearLoad, nil
	}
	return 0, fmt.Errorf("unknown cost model %q", s)
}

// ErrUnbalancedDemand is returned when depot, customer and return demands do
// not sum to zero, so no tour can ever end with an empty vehicle.
var ErrUnbalancedDemand = errors.New("pdtsp: demands do not balance to zero")

// Node is a single location: the depot (index 0) or a customer. A positive
// demand is a pickup, a negative demand a delivery. A positive depot demand
// is the load already on the vehicle when it departs.
type Node struct {
	ID     int
	X, Y   float64
	Demand int
	Profit int
}

// Instance is an immutable, normalized PD-TSP problem: depot-first nodes,
// vehicle capacity, the active cost model and a precomputed Euclidean
// distance matrix. Instances are safe to share across concurrent runs.
type Instance struct {
	name         string
	comment      string
	capacity     int
	model        CostModel
	alpha        float64
	beta         float64
	nodes        []Node
	dist         []float64 // row-major n*n
	n            int
	returnDemand int
	startLoad    int
}

// Config carries everything needed to build an Instance. Nodes must be
// depot-first. ReturnDemand is the demand applied when the vehicle arrives
// back at the depot; together with the node demands it must sum to zero.
type Config struct {
	Name         string
	Comment      string
	Capacity     int
	Nodes        []Node
	ReturnDemand int
	Model        CostModel
	Alpha        float64
	Beta         float64
}

// NewInstance validates cfg, precomputes the distance matrix and returns the
// immutable instance.
func NewInstance(cfg Config) (*Instance, error) {
	if len(cfg.Nodes) < 2 {
		return nil, fmt.Errorf("instance %q needs a depot and at least one customer, got %d nodes", cfg.Name, len(cfg.Nodes))
	}
	if cfg.Capacity <= 0 {
		return nil, fmt.Errorf("instance %q has non-positive capacity %d", cfg.Name, cfg.Capacity)
	}
	sum := cfg.ReturnDemand
	for _, nd := range cfg.Nodes {
		sum += nd.Demand
	}
	if sum != 0 {
		return nil, fmt.Errorf("%w: depot+customers+return sum to %d", ErrUnbalancedDemand, sum)
	}

	n := len(cfg.Nodes)
	nodes := make([]Node, n)
	copy(nodes, cfg.Nodes)

	dist := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx := nodes[i].X - nodes[j].X
			dy := nodes[i].Y - nodes[j].Y
			d := math.Sqrt(dx*dx + dy*dy)
			dist[i*n+j] = d
			dist[j*n+i] = d
		}
	}

	start := nodes[0].Demand
	if start < 0 {
		start = 0
	}
	return &Instance{
		name:         cfg.Name,
		comment:      cfg.Comment,
		capacity:     cfg.Capacity,
		model:        cfg.Model,
		alpha:        cfg.Alpha,
		beta:         cfg.Beta,
		nodes:        nodes,
		dist:         dist,
		n:            n,
		returnDemand: cfg.ReturnDemand,
		startLoad:    start,
	}, nil
}

// WithCostModel returns a copy of the instance under a different cost model.
// Nodes and distances are shared; the copy is as immutable as the original.
func (in *Instance) WithCostModel(m CostModel, alpha, beta float64) *Instance {
	derived := *in
	derived.model = m
	derived.alpha = alpha
	derived.beta = beta
	return &derived
}

// WithRandomProfits returns a copy whose customers carry deterministic random
// profits in [10, min(maxProfit,100)]. If any node already has a profit the
// instance is returned unchanged. The depot never carries profit.
func (in *Instance) WithRandomProfits(seed int64, maxProfit int) *Instance {
	for _, nd := range in.nodes {
		if nd.Profit != 0 {
			return in
		}
	}
	upper := maxProfit
	if upper < 10 {
		upper = 10
	}
	if upper > 100 {
		upper = 100
	}
	rng := rand.New(rand.NewSource(seed))
	nodes := make([]Node, in.n)
	copy(nodes, in.nodes)
	for i := 1; i < in.n; i++ {
		nodes[i].Profit = 10 + rng.Intn(upper-10+1)
	}
	derived := *in
	derived.nodes = nodes
	return &derived
}

func (in *Instance) Name() string    { return in.name }
func (in *Instance) Comment() string { return in.comment }

// Dimension returns the total number of nodes including the depot.
func (in *Instance) Dimension() int { return in.n }

// Customers returns the number of customer nodes, i.e. the tour length.
func (in *Instance) Customers() int { return in.n - 1 }

func (in *Instance) Capacity() int { return in.capacity }

// Node returns the node at index i (0 = depot).
func (in *Instance) Node(i int) Node { return in.nodes[i] }

// Nodes returns a copy of all nodes, depot first.
func (in *Instance) Nodes() []Node {
	nodes := make([]Node, in.n)
	copy(nodes, in.nodes)
	return nodes
}

// Dist returns the Euclidean distance between nodes i and j.
func (in *Instance) Dist(i, j int) float64 { return in.dist[i*in.n+j] }

// Demand returns the signed demand of node i.
func (in *Instance) Demand(i int) int { return in.nodes[i].Demand }

func (in *Instance) Model() CostModel { return in.model }
func (in *Instance) Alpha() float64   { return in.alpha }
func (in *Instance) Beta() float64    { return in.beta }

// ReturnDemand is the demand applied on the final return to the depot.
func (in *Instance) ReturnDemand() int { return in.returnDemand }

// StartingLoad is the load on the vehicle when it leaves the depot.
func (in *Instance) StartingLoad() int { return in.startLoad }

// surcharge returns the load-dependent cost added to an edge traversed while
// carrying load w.
func (in *Instance) surcharge(w int) float64 {
	switch in.model {
	case CostQuadratic:
		fw := float64(w)
		return in.alpha*fw + in.beta*fw*fw
	case CostLinearLoad:
		return in.alpha * math.Abs(float64(w))
	default:
		return 0
	}
}

// TourCost computes the full cost of tour under the active cost model. The
// load surcharge applies to every edge, including the final return.
func (in *Instance) TourCost(tour []int) float64 {
	cost := 0.0
	load := in.startLoad
	prev := 0
	for _, c := range tour {
		cost += in.Dist(prev, c) + in.surcharge(load)
		load += in.nodes[c].Demand
		prev = c
	}
	return cost + in.Dist(prev, 0) + in.surcharge(load)
}

// FeasibleTour reports whether every prefix load stays in [0, capacity] and
// the final load after the return demand is exactly zero.
func (in *Instance) FeasibleTour(tour []int) bool {
	load := in.startLoad
	if load < 0 || load > in.capacity {
		return false
	}
	for _, c := range tour {
		load += in.nodes[c].Demand
		if load < 0 || load > in.capacity {
			return false
		}
	}
	return load+in.returnDemand == 0
}

// Evaluate computes cost and feasibility in a single pass.
func (in *Instance) Evaluate(tour []int) (float64, bool) {
	cost := 0.0
	load := in.startLoad
	feasible := load >= 0 && load <= in.capacity
	prev := 0
	for _, c := range tour {
		cost += in.Dist(prev, c) + in.surcharge(load)
		load += in.nodes[c].Demand
		if load < 0 || load > in.capacity {
			feasible = false
		}
		prev = c
	}
	cost += in.Dist(prev, 0) + in.surcharge(load)
	if load+in.returnDemand != 0 {
		feasible = false
	}
	return cost, feasible
}

// Profile returns the load profile of tour: the initial depot state, the load
// after each visit and the final load after the return demand.
func (in *Instance) Profile(tour []int) LoadProfile {
	p := make(LoadProfile, 0, len(tour)+2)
	load := in.startLoad
	p = append(p, load)
	for _, c := range tour {
		load += in.nodes[c].Demand
		p = append(p, load)
	}
	return append(p, load+in.returnDemand)
}

// TourProfit sums the profits of all visited customers.
func (in *Instance) TourProfit(tour []int) int {
	total := 0
	for _, c := range tour {
		total += in.nodes[c].Profit
	}
	return total
}
