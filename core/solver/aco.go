package solver

import (
	"math"
	"math/rand"

	"github.com/kilianp07/pdtsp/core/pdtsp"
)

// ACOConfig tunes the ant colony runs.
type ACOConfig struct {
	Ants             int
	MaxIterations    int
	MaxNoImprove     int
	Alpha            float64 // pheromone weight
	Beta             float64 // distance desirability weight
	Evaporation      float64
	InitialPheromone float64
	Q                float64 // deposit scale
	Q0               float64 // exploitation probability
	LocalDecay       float64
	LocalSearch      bool
}

func DefaultACOConfig() ACOConfig {
	return ACOConfig{
		Ants:             20,
		MaxIterations:    200,
		MaxNoImprove:     50,
		Alpha:            1.0,
		Beta:             2.5,
		Evaporation:      0.1,
		InitialPheromone: 1.0,
		Q:                100,
		Q0:               0.9,
		LocalDecay:       0.1,
		LocalSearch:      true,
	}
}

// colony holds the pheromone state shared by the ACS and MMAS drivers. The
// pheromone and desirability matrices are dense row-major, owned by a single
// run and never aliased.
type colony struct {
	in        *pdtsp.Instance
	cfg       ACOConfig
	rng       *rand.Rand
	n         int
	pheromone []float64
	desire    []float64 // (1/d)^beta, precomputed
	candNodes []int
	candW     []float64
}

func newColony(in *pdtsp.Instance, cfg ACOConfig, rng *rand.Rand) *colony {
	n := in.Dimension()
	c := &colony{
		in:        in,
		cfg:       cfg,
		rng:       rng,
		n:         n,
		pheromone: make([]float64, n*n),
		desire:    make([]float64, n*n),
		candNodes: make([]int, 0, n),
		candW:     make([]float64, 0, n),
	}
	for i := range c.pheromone {
		c.pheromone[i] = cfg.InitialPheromone
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			eta := 1e6
			if d := in.Dist(i, j); d > 0 {
				eta = 1 / d
			}
			c.desire[i*n+j] = math.Pow(eta, cfg.Beta)
		}
	}
	return c
}

func (c *colony) attractiveness(i, j int) float64 {
	tau := c.pheromone[i*c.n+j]
	if c.cfg.Alpha != 1 {
		tau = math.Pow(tau, c.cfg.Alpha)
	}
	return tau * c.desire[i*c.n+j]
}

// selectNext applies the pseudo-random proportional rule: exploit the most
// attractive load-valid edge with probability q0, otherwise draw by roulette.
func (c *colony) selectNext(current int, visited []bool, load int) int {
	nodes, weights := c.candNodes[:0], c.candW[:0]
	for j := 1; j < c.n; j++ {
		if visited[j] || !withinWindow(c.in, load+c.in.Demand(j)) {
			continue
		}
		nodes = append(nodes, j)
		weights = append(weights, c.attractiveness(current, j))
	}
	if len(nodes) == 0 {
		return -1
	}
	if c.rng.Float64() < c.cfg.Q0 {
		best, bestW := nodes[0], weights[0]
		for i := 1; i < len(nodes); i++ {
			if weights[i] > bestW {
				best, bestW = nodes[i], weights[i]
			}
		}
		return best
	}
	total := 0.0
	for _, w := range weights {
		total += w
	}
	pick := c.rng.Float64() * total
	for i, w := range weights {
		pick -= w
		if pick <= 0 {
			return nodes[i]
		}
	}
	return nodes[len(nodes)-1]
}

// constructTour walks one ant from the depot under the load window. ok is
// false when the ant dead-ends before visiting every customer.
func (c *colony) constructTour(visited []bool, t pdtsp.Tour) (pdtsp.Tour, bool) {
	for i := range visited {
		visited[i] = false
	}
	t = t[:0]
	current, load := 0, c.in.StartingLoad()
	for len(t) < c.n-1 {
		next := c.selectNext(current, visited, load)
		if next < 0 {
			return t, false
		}
		t = append(t, next)
		visited[next] = true
		load += c.in.Demand(next)
		current = next
	}
	return t, true
}

// forEachEdge visits every directed edge of the closed tour, depot included.
func forEachEdge(t pdtsp.Tour, f func(from, to int)) {
	prev := 0
	for _, v := range t {
		f(prev, v)
		prev = v
	}
	f(prev, 0)
}

// localUpdate decays the pheromone on the edges an ant just used back toward
// the initial level.
func (c *colony) localUpdate(t pdtsp.Tour) {
	decay, tau0 := c.cfg.LocalDecay, c.cfg.InitialPheromone
	forEachEdge(t, func(i, j int) {
		v := (1-decay)*c.pheromone[i*c.n+j] + decay*tau0
		c.pheromone[i*c.n+j] = v
		c.pheromone[j*c.n+i] = v
	})
}

func (c *colony) evaporate() {
	for i := range c.pheromone {
		c.pheromone[i] *= 1 - c.cfg.Evaporation
	}
}

func (c *colony) deposit(t pdtsp.Tour, cost float64) {
	delta := c.cfg.Q / cost
	forEachEdge(t, func(i, j int) {
		c.pheromone[i*c.n+j] += delta
		c.pheromone[j*c.n+i] += delta
	})
}

func (c *colony) clamp(lo, hi float64) {
	for i := range c.pheromone {
		if c.pheromone[i] < lo {
			c.pheromone[i] = lo
		} else if c.pheromone[i] > hi {
			c.pheromone[i] = hi
		}
	}
}

func (c *colony) reset(level float64) {
	for i := range c.pheromone {
		c.pheromone[i] = level
	}
}

// runACS drives the ant colony system: q0-greedy construction, local decay
// per ant, evaporation plus a best-tour deposit per iteration.
func runACS(in *pdtsp.Instance, cfg ACOConfig, rng *rand.Rand, tracker *bestTracker, dl *deadline) {
	c := newColony(in, cfg, rng)
	e := pdtsp.NewEvaluator(in)
	visited := make([]bool, c.n)
	ant := make(pdtsp.Tour, 0, c.n-1)

	var bestTour, iterBest pdtsp.Tour
	bestCost := math.Inf(1)

	noImprove := 0
	for iteration := 1; iteration <= cfg.MaxIterations && noImprove < cfg.MaxNoImprove; iteration++ {
		if dl.reached() {
			return
		}
		iterCost := math.Inf(1)
		iterBest = iterBest[:0]
		for a := 0; a < cfg.Ants; a++ {
			var complete bool
			ant, complete = c.constructTour(visited, ant)
			if !complete || !in.FeasibleTour(ant) {
				continue
			}
			cost := in.TourCost(ant)
			if cfg.LocalSearch && len(ant) >= 2 {
				e.Bind(ant)
				cost, _ = vnd(e, ant, cost)
			}
			c.localUpdate(ant)
			if cost < iterCost {
				iterCost = cost
				iterBest = append(iterBest[:0], ant...)
			}
		}
		if iterCost < bestCost-eps {
			bestCost = iterCost
			bestTour = append(bestTour[:0], iterBest...)
			noImprove = 0
			tracker.offer(bestTour, bestCost, true, iteration)
		} else {
			noImprove++
		}
		c.evaporate()
		if len(bestTour) > 0 {
			c.deposit(bestTour, bestCost)
		}
	}
}

// runMMAS is the max-min variant: pheromone bounded to [tauMin, tauMax],
// deposits from the iteration best switching to the global best during
// stagnation, plus a full reinitialization when stagnation persists.
func runMMAS(in *pdtsp.Instance, cfg ACOConfig, rng *rand.Rand, tracker *bestTracker, dl *deadline) {
	c := newColony(in, cfg, rng)
	tauMax := 1 / (cfg.Evaporation * 1000)
	tauMin := tauMax / 50
	c.reset(tauMax)

	e := pdtsp.NewEvaluator(in)
	visited := make([]bool, c.n)
	ant := make(pdtsp.Tour, 0, c.n-1)

	var bestTour, iterBest pdtsp.Tour
	bestCost := math.Inf(1)

	noImprove := 0
	for iteration := 1; iteration <= cfg.MaxIterations && noImprove < cfg.MaxNoImprove; iteration++ {
		if dl.reached() {
			return
		}
		iterCost := math.Inf(1)
		iterBest = iterBest[:0]
		for a := 0; a < cfg.Ants; a++ {
			var complete bool
			ant, complete = c.constructTour(visited, ant)
			if !complete || !in.FeasibleTour(ant) {
				continue
			}
			cost := in.TourCost(ant)
			if cfg.LocalSearch && len(ant) >= 2 {
				e.Bind(ant)
				cost, _ = vnd(e, ant, cost)
			}
			if cost < iterCost {
				iterCost = cost
				iterBest = append(iterBest[:0], ant...)
			}
		}
		if iterCost < bestCost-eps {
			bestCost = iterCost
			bestTour = append(bestTour[:0], iterBest...)
			noImprove = 0
			tauMax = 1 / (cfg.Evaporation * bestCost)
			tauMin = tauMax / 50
			tracker.offer(bestTour, bestCost, true, iteration)
		} else {
			noImprove++
		}

		c.evaporate()
		update, updateCost := iterBest, iterCost
		if noImprove > 10 && len(bestTour) > 0 {
			update, updateCost = bestTour, bestCost
		}
		if len(update) > 0 {
			c.deposit(update, updateCost)
		}
		c.clamp(tauMin, tauMax)

		if noImprove > 0 && noImprove%25 == 0 {
			c.reset(tauMax)
		}
	}
}
