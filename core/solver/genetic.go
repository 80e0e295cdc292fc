package solver

import (
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"

	"github.com/kilianp07/pdtsp/core/logger"
	"github.com/kilianp07/pdtsp/core/pdtsp"
)

// CrossoverKind selects the recombination operator.
type CrossoverKind int

const (
	CrossoverOrder CrossoverKind = iota
	CrossoverPMX
	CrossoverEdge
	CrossoverCycle
)

// MutationKind selects the mutation operator.
type MutationKind int

const (
	MutateInversion MutationKind = iota
	MutateSwap
	MutateInsertion
	MutateAdjacent
	MutateScramble
)

// SelectionKind selects how parents are drawn from the population.
type SelectionKind int

const (
	SelectTournament SelectionKind = iota
	SelectRoulette
	SelectRank
)

// GAConfig tunes the genetic algorithm.
type GAConfig struct {
	PopulationSize   int
	MaxGenerations   int
	MaxNoImprove     int
	CrossoverProb    float64
	MutationProb     float64
	EliteCount       int
	TournamentSize   int
	Crossover        CrossoverKind
	Mutation         MutationKind
	Selection        SelectionKind
	LocalSearch      bool
	LocalSearchProb  float64
	AdaptiveMutation bool
	Workers          int // offspring evaluation workers, 0 means GOMAXPROCS
}

// DefaultGAConfig is the tuning the ga selector runs with.
func DefaultGAConfig() GAConfig {
	return GAConfig{
		PopulationSize:   50,
		MaxGenerations:   200,
		MaxNoImprove:     100,
		CrossoverProb:    0.9,
		MutationProb:     0.1,
		EliteCount:       5,
		TournamentSize:   5,
		Crossover:        CrossoverOrder,
		Mutation:         MutateInversion,
		Selection:        SelectTournament,
		LocalSearch:      true,
		LocalSearchProb:  0.2,
		AdaptiveMutation: true,
	}
}

// MemeticGAConfig intensifies the descent applied to offspring.
func MemeticGAConfig() GAConfig {
	cfg := DefaultGAConfig()
	cfg.MaxNoImprove = 50
	cfg.CrossoverProb = 0.8
	cfg.MutationProb = 0.15
	cfg.EliteCount = 3
	cfg.LocalSearchProb = 0.5
	return cfg
}

// infeasiblePenalty pushes capacity violators behind every feasible member.
const infeasiblePenalty = 1e9

// individual is one population member. fitness is the negated cost, minus
// the penalty when the tour violates the capacity window.
type individual struct {
	tour     pdtsp.Tour
	cost     float64
	feasible bool
	fitness  float64
}

func newIndividual(in *pdtsp.Instance, t pdtsp.Tour) individual {
	cost, feasible := in.Evaluate(t)
	fitness := -cost
	if !feasible {
		fitness -= infeasiblePenalty
	}
	return individual{tour: t, cost: cost, feasible: feasible, fitness: fitness}
}

func cloneIndividual(ind individual) individual {
	ind.tour = ind.tour.Clone()
	return ind
}

// geneticAlgorithm evolves a population of tours. Breeding draws from the
// run's single random stream; evaluation and the optional descent of the
// bred offspring run on a worker pool. Results stay deterministic because
// each offspring is written to its pre-assigned slot and the descent itself
// uses no randomness.
type geneticAlgorithm struct {
	in  *pdtsp.Instance
	cfg GAConfig
	rng *rand.Rand

	pop       []individual
	best      individual
	mutProb   float64
	noImprove int
}

func newGenetic(in *pdtsp.Instance, cfg GAConfig, rng *rand.Rand) *geneticAlgorithm {
	return &geneticAlgorithm{in: in, cfg: cfg, rng: rng, mutProb: cfg.MutationProb}
}

// initPopulation seeds the population with the construction portfolio,
// extra randomized nearest-neighbor tours and random permutations.
func (g *geneticAlgorithm) initPopulation() {
	size := g.cfg.PopulationSize
	g.pop = make([]individual, 0, size)
	for _, c := range Portfolio() {
		if len(g.pop) >= size {
			break
		}
		if t, feasible := c.Build(g.in, g.rng); feasible {
			g.pop = append(g.pop, newIndividual(g.in, t))
		}
	}
	extra := size / 3
	nn := Constructive{Kind: ConstructNearest, Randomized: true}
	for i := 0; i < extra && len(g.pop) < size; i++ {
		if t, feasible := nn.Build(g.in, g.rng); feasible {
			g.pop = append(g.pop, newIndividual(g.in, t))
		}
	}
	for len(g.pop) < size {
		g.pop = append(g.pop, newIndividual(g.in, g.randomTour()))
	}
	g.sortPop()
	g.best = cloneIndividual(g.pop[0])
}

// randomTour shuffles until a feasible permutation comes out, giving up on
// feasibility after enough attempts. The penalty fitness handles the rest.
func (g *geneticAlgorithm) randomTour() pdtsp.Tour {
	m := g.in.Customers()
	t := make(pdtsp.Tour, m)
	for i := range t {
		t[i] = i + 1
	}
	for attempt := 0; attempt < 500; attempt++ {
		g.rng.Shuffle(m, func(i, j int) { t[i], t[j] = t[j], t[i] })
		if attempt > 100 || g.in.FeasibleTour(t) {
			break
		}
	}
	return t
}

func (g *geneticAlgorithm) sortPop() {
	sort.SliceStable(g.pop, func(i, j int) bool { return g.pop[i].fitness > g.pop[j].fitness })
}

func (g *geneticAlgorithm) selectParent() individual {
	switch g.cfg.Selection {
	case SelectRoulette:
		return g.rouletteSelect()
	case SelectRank:
		return g.rankSelect()
	default:
		return g.tournamentSelect()
	}
}

func (g *geneticAlgorithm) tournamentSelect() individual {
	best := g.rng.Intn(len(g.pop))
	for i := 1; i < g.cfg.TournamentSize; i++ {
		idx := g.rng.Intn(len(g.pop))
		if g.pop[idx].fitness > g.pop[best].fitness {
			best = idx
		}
	}
	return g.pop[best]
}

// rouletteSelect shifts every fitness above zero before drawing, so the
// penalty terms keep a sliver of probability instead of breaking the wheel.
func (g *geneticAlgorithm) rouletteSelect() individual {
	min := math.Inf(1)
	for _, ind := range g.pop {
		if ind.fitness < min {
			min = ind.fitness
		}
	}
	total := 0.0
	for _, ind := range g.pop {
		total += ind.fitness - min + 1
	}
	pick := g.rng.Float64() * total
	for _, ind := range g.pop {
		pick -= ind.fitness - min + 1
		if pick <= 0 {
			return ind
		}
	}
	return g.pop[len(g.pop)-1]
}

// rankSelect weights members by rank in the fitness-sorted population.
func (g *geneticAlgorithm) rankSelect() individual {
	n := len(g.pop)
	pick := g.rng.Intn(n * (n + 1) / 2)
	cum := 0
	for rank, ind := range g.pop {
		cum += n - rank
		if cum > pick {
			return ind
		}
	}
	return g.pop[n-1]
}

func (g *geneticAlgorithm) crossover(p1, p2 individual) pdtsp.Tour {
	if g.rng.Float64() > g.cfg.CrossoverProb {
		return p1.tour.Clone()
	}
	switch g.cfg.Crossover {
	case CrossoverPMX:
		return pmxCrossover(g.rng, p1.tour, p2.tour)
	case CrossoverEdge:
		return edgeRecombination(p1.tour, p2.tour, g.in.Dimension())
	case CrossoverCycle:
		return cycleCrossover(p1.tour, p2.tour, g.in.Dimension())
	default:
		return orderCrossover(g.rng, p1.tour, p2.tour)
	}
}

func (g *geneticAlgorithm) mutate(t pdtsp.Tour) {
	if g.rng.Float64() > g.mutProb {
		return
	}
	m := len(t)
	if m < 2 {
		return
	}
	switch g.cfg.Mutation {
	case MutateSwap:
		i, j := g.rng.Intn(m), g.rng.Intn(m)
		t[i], t[j] = t[j], t[i]
	case MutateInsertion:
		from, to := g.rng.Intn(m), g.rng.Intn(m)
		if from == to {
			return
		}
		v := t[from]
		if from < to {
			copy(t[from:to], t[from+1:to+1])
		} else {
			copy(t[to+1:from+1], t[to:from])
		}
		t[to] = v
	case MutateAdjacent:
		i := g.rng.Intn(m - 1)
		t[i], t[i+1] = t[i+1], t[i]
	case MutateScramble:
		if m < 3 {
			return
		}
		start := g.rng.Intn(m - 1)
		end := start + 1 + g.rng.Intn(m-start-1)
		seg := t[start : end+1]
		g.rng.Shuffle(len(seg), func(i, j int) { seg[i], seg[j] = seg[j], seg[i] })
	default:
		i := g.rng.Intn(m - 1)
		j := i + 1 + g.rng.Intn(m-i-1)
		for l, r := i, j; l < r; l, r = l+1, r-1 {
			t[l], t[r] = t[r], t[l]
		}
	}
}

// finishOffspring evaluates one bred tour, optionally descending it first.
// It runs on pool workers; e is private to the calling worker.
func (g *geneticAlgorithm) finishOffspring(e *pdtsp.Evaluator, t pdtsp.Tour, descend bool) individual {
	cost, feasible := g.in.Evaluate(t)
	if descend && feasible && len(t) >= 2 {
		e.Bind(t)
		cost, _ = vnd(e, t, cost)
	}
	fitness := -cost
	if !feasible {
		fitness -= infeasiblePenalty
	}
	return individual{tour: t, cost: cost, feasible: feasible, fitness: fitness}
}

// evolve breeds and evaluates the next generation.
func (g *geneticAlgorithm) evolve() {
	size := g.cfg.PopulationSize
	next := make([]individual, 0, size)
	for i := 0; i < g.cfg.EliteCount && i < len(g.pop); i++ {
		next = append(next, cloneIndividual(g.pop[i]))
	}

	type bred struct {
		tour    pdtsp.Tour
		descend bool
	}
	offspring := make([]bred, 0, size-len(next))
	for len(next)+len(offspring) < size {
		p1 := g.selectParent()
		p2 := g.selectParent()
		child := g.crossover(p1, p2)
		g.mutate(child)
		descend := g.cfg.LocalSearch && g.rng.Float64() < g.cfg.LocalSearchProb
		offspring = append(offspring, bred{tour: child, descend: descend})
	}

	evaluated := make([]individual, len(offspring))
	workers := g.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(offspring) {
		workers = len(offspring)
	}
	if workers <= 1 {
		e := pdtsp.NewEvaluator(g.in)
		for i, b := range offspring {
			evaluated[i] = g.finishOffspring(e, b.tour, b.descend)
		}
	} else {
		jobs := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				e := pdtsp.NewEvaluator(g.in)
				for i := range jobs {
					evaluated[i] = g.finishOffspring(e, offspring[i].tour, offspring[i].descend)
				}
			}()
		}
		for i := range offspring {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
	}

	g.pop = append(next, evaluated...)
	g.sortPop()
	if g.pop[0].fitness > g.best.fitness+eps {
		g.best = cloneIndividual(g.pop[0])
		g.noImprove = 0
	} else {
		g.noImprove++
	}
	if g.cfg.AdaptiveMutation {
		if g.noImprove > 10 {
			g.mutProb = math.Min(g.cfg.MutationProb*2, 0.5)
		} else {
			g.mutProb = g.cfg.MutationProb
		}
	}
}

// runGenetic evolves until the generation cap, the stagnation cap or the
// time budget runs out.
func runGenetic(in *pdtsp.Instance, cfg GAConfig, rng *rand.Rand, tracker *bestTracker, dl *deadline, log logger.Logger) {
	g := newGenetic(in, cfg, rng)
	g.initPopulation()
	tracker.offer(g.best.tour, g.best.cost, g.best.feasible, 0)
	for generation := 1; generation <= cfg.MaxGenerations && g.noImprove < cfg.MaxNoImprove; generation++ {
		if dl.reached() {
			return
		}
		g.evolve()
		if tracker.offer(g.best.tour, g.best.cost, g.best.feasible, generation) {
			log.Debugf("generation %d: cost=%.3f feasible=%v", generation, g.best.cost, g.best.feasible)
		}
	}
}

// orderCrossover keeps a random slice of p1 and fills the remaining slots in
// p2 order.
func orderCrossover(rng *rand.Rand, p1, p2 pdtsp.Tour) pdtsp.Tour {
	m := len(p1)
	if m < 3 {
		return p1.Clone()
	}
	start := rng.Intn(m - 1)
	end := start + 1 + rng.Intn(m-start-1)
	child := make(pdtsp.Tour, m)
	inSegment := make(map[int]bool, end-start+1)
	for i := range child {
		child[i] = -1
	}
	for i := start; i <= end; i++ {
		child[i] = p1[i]
		inSegment[p1[i]] = true
	}
	pos := 0
	for _, v := range p2 {
		if inSegment[v] {
			continue
		}
		for child[pos] != -1 {
			pos++
		}
		child[pos] = v
	}
	return child
}

// pmxCrossover maps a random slice of p1 onto p2 and resolves conflicts
// outside the slice through the mapping chain, repairing any duplicates a
// cyclic mapping leaves behind.
func pmxCrossover(rng *rand.Rand, p1, p2 pdtsp.Tour) pdtsp.Tour {
	m := len(p1)
	if m < 3 {
		return p1.Clone()
	}
	start := rng.Intn(m - 1)
	end := start + 1 + rng.Intn(m-start-1)
	child := p2.Clone()
	mapping := make(map[int]int, end-start+1)
	for i := start; i <= end; i++ {
		mapping[p1[i]] = p2[i]
		child[i] = p1[i]
	}
	for i := 0; i < m; i++ {
		if i >= start && i <= end {
			continue
		}
		v := child[i]
		for hops := 0; hops < m; hops++ {
			next, ok := mapping[v]
			if !ok {
				break
			}
			v = next
		}
		child[i] = v
	}

	inChild := make(map[int]bool, m)
	for _, v := range child {
		inChild[v] = true
	}
	var missing []int
	for _, v := range p1 {
		if !inChild[v] {
			missing = append(missing, v)
		}
	}
	seen := make(map[int]bool, m)
	mi := 0
	for i := 0; i < m; i++ {
		if seen[child[i]] && mi < len(missing) {
			child[i] = missing[mi]
			mi++
		}
		seen[child[i]] = true
	}
	return child
}

// edgeRecombination walks the merged cyclic adjacency of both parents,
// always stepping to the unvisited neighbor with the fewest remaining edges
// and falling back to the lowest-degree unvisited customer on dead ends.
func edgeRecombination(p1, p2 pdtsp.Tour, dim int) pdtsp.Tour {
	m := len(p1)
	if m < 3 {
		return p1.Clone()
	}
	adj := make([][]bool, dim)
	deg := make([]int, dim)
	for i := range adj {
		adj[i] = make([]bool, dim)
	}
	add := func(a, b int) {
		if !adj[a][b] {
			adj[a][b] = true
			deg[a]++
		}
	}
	for _, p := range [2]pdtsp.Tour{p1, p2} {
		for i, v := range p {
			add(v, p[(i-1+m)%m])
			add(v, p[(i+1)%m])
		}
	}

	visited := make([]bool, dim)
	child := make(pdtsp.Tour, 0, m)
	current := p1[0]
	child = append(child, current)
	visited[current] = true
	for len(child) < m {
		for v := 1; v < dim; v++ {
			if adj[v][current] {
				adj[v][current] = false
				deg[v]--
			}
		}
		next, nextDeg := -1, dim+1
		for v := 1; v < dim; v++ {
			if !visited[v] && adj[current][v] && deg[v] < nextDeg {
				next, nextDeg = v, deg[v]
			}
		}
		if next < 0 {
			for v := 1; v < dim; v++ {
				if !visited[v] && deg[v] < nextDeg {
					next, nextDeg = v, deg[v]
				}
			}
		}
		child = append(child, next)
		visited[next] = true
		current = next
	}
	return child
}

// cycleCrossover copies the permutation cycles of the parents alternately
// from p1 and p2.
func cycleCrossover(p1, p2 pdtsp.Tour, dim int) pdtsp.Tour {
	m := len(p1)
	pos2 := make([]int, dim)
	for i, v := range p2 {
		pos2[v] = i
	}
	child := make(pdtsp.Tour, m)
	done := make([]bool, m)
	cycle := 0
	for start := 0; start < m; start++ {
		if done[start] {
			continue
		}
		pos := start
		for {
			done[pos] = true
			if cycle%2 == 0 {
				child[pos] = p1[pos]
			} else {
				child[pos] = p2[pos]
			}
			pos = pos2[p1[pos]]
			if pos == start {
				break
			}
		}
		cycle++
	}
	return child
}
