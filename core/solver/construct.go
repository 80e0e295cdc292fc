package solver

import (
	"math"
	"math/rand"
	"sort"

	"github.com/kilianp07/pdtsp/core/pdtsp"
)

// ConstructionKind identifies a constructive heuristic family.
type ConstructionKind int

const (
	ConstructNearest ConstructionKind = iota
	ConstructGreedyInsert
	ConstructSavings
	ConstructSweep
	ConstructRegret
	ConstructCluster
	ConstructDeliverFirst
	ConstructPickupProfit
	ConstructProfitDensity
)

// Constructive is one configured construction variant. The zero value is
// plain nearest-neighbor.
type Constructive struct {
	Kind       ConstructionKind
	Randomized bool    // nearest-neighbor: draw among the three closest
	Farthest   bool    // insertion: seed and select by remoteness
	Lambda     float64 // savings shape parameter, 0 means 1.0
	Angle      float64 // sweep start angle in radians
	Regret     int     // regret depth k, minimum 2
	Clusters   int     // cluster count, 0 means 4
}

func (c Constructive) Name() string {
	switch c.Kind {
	case ConstructGreedyInsert:
		if c.Farthest {
			return "FarthestInsertion"
		}
		return "GreedyInsertion"
	case ConstructSavings:
		return "Savings-ClarkeWright"
	case ConstructSweep:
		return "Sweep"
	case ConstructRegret:
		if c.Regret == 2 {
			return "Regret-2"
		}
		return "Regret-3"
	case ConstructCluster:
		return "ClusterFirst"
	case ConstructDeliverFirst:
		return "DeliverEarliest"
	case ConstructPickupProfit:
		return "PickupHighProfit"
	case ConstructProfitDensity:
		return "ProfitDensity"
	default:
		if c.Randomized {
			return "NearestNeighbor-Randomized"
		}
		return "NearestNeighbor"
	}
}

// Build constructs a complete tour. The flag reports full feasibility: false
// means the heuristic could not keep every customer inside the capacity
// window and the tour was completed by the cheapest-position repair.
func (c Constructive) Build(in *pdtsp.Instance, rng *rand.Rand) (pdtsp.Tour, bool) {
	var t pdtsp.Tour
	switch c.Kind {
	case ConstructGreedyInsert:
		t = greedyInsertion(in, c.Farthest)
	case ConstructSavings:
		lambda := c.Lambda
		if lambda == 0 {
			lambda = 1.0
		}
		t = savings(in, lambda)
	case ConstructSweep:
		t = sweep(in, c.Angle)
	case ConstructRegret:
		k := c.Regret
		if k < 2 {
			k = 2
		}
		t = regretInsertion(in, k)
	case ConstructCluster:
		k := c.Clusters
		if k == 0 {
			k = 4
		}
		t = clusterFirst(in, k)
	case ConstructDeliverFirst:
		t = deliverEarliest(in)
	case ConstructPickupProfit:
		t = pickupHighProfit(in)
	case ConstructProfitDensity:
		t = profitDensity(in)
	default:
		t = nearestNeighbor(in, rng, c.Randomized)
	}
	t = completeTour(in, t)
	return t, in.FeasibleTour(t)
}

// Portfolio returns the construction variants multi-start runs, in order.
func Portfolio() []Constructive {
	return []Constructive{
		{Kind: ConstructNearest},
		{Kind: ConstructNearest, Randomized: true},
		{Kind: ConstructNearest, Randomized: true},
		{Kind: ConstructNearest, Randomized: true},
		{Kind: ConstructGreedyInsert},
		{Kind: ConstructGreedyInsert, Farthest: true},
		{Kind: ConstructSavings, Lambda: 1.0},
		{Kind: ConstructSavings, Lambda: 0.8},
		{Kind: ConstructSavings, Lambda: 1.2},
		{Kind: ConstructSweep},
		{Kind: ConstructSweep, Angle: math.Pi / 4},
		{Kind: ConstructSweep, Angle: math.Pi / 2},
		{Kind: ConstructRegret, Regret: 2},
		{Kind: ConstructRegret, Regret: 3},
		{Kind: ConstructCluster, Clusters: 4},
		{Kind: ConstructCluster, Clusters: 3},
		{Kind: ConstructCluster, Clusters: 5},
		{Kind: ConstructDeliverFirst},
		{Kind: ConstructPickupProfit},
		{Kind: ConstructProfitDensity},
	}
}

// multiStart runs the whole portfolio and keeps the cheapest feasible tour,
// falling back to the cheapest infeasible one when nothing feasible came out.
func multiStart(in *pdtsp.Instance, rng *rand.Rand) (pdtsp.Tour, bool) {
	var bestTour pdtsp.Tour
	bestCost, bestFeasible := math.Inf(1), false
	for _, c := range Portfolio() {
		t, feasible := c.Build(in, rng)
		cost := in.TourCost(t)
		better := false
		switch {
		case feasible && !bestFeasible:
			better = true
		case feasible == bestFeasible:
			better = cost < bestCost
		}
		if better {
			bestTour, bestCost, bestFeasible = t, cost, feasible
		}
	}
	return bestTour, bestFeasible
}

// withinWindow reports whether a load value fits the capacity window.
func withinWindow(in *pdtsp.Instance, load int) bool {
	return load >= 0 && load <= in.Capacity()
}

// partialFeasible walks the running load along t, ignoring the final return,
// so it applies to incomplete tours.
func partialFeasible(in *pdtsp.Instance, t pdtsp.Tour) bool {
	load := in.StartingLoad()
	if !withinWindow(in, load) {
		return false
	}
	for _, c := range t {
		load += in.Demand(c)
		if !withinWindow(in, load) {
			return false
		}
	}
	return true
}

// insertionOK reports whether inserting node before position p keeps every
// running load of the partial tour inside the capacity window.
func insertionOK(in *pdtsp.Instance, t pdtsp.Tour, node, p int) bool {
	load := in.StartingLoad()
	if !withinWindow(in, load) {
		return false
	}
	for i := 0; i <= len(t); i++ {
		if i == p {
			load += in.Demand(node)
			if !withinWindow(in, load) {
				return false
			}
		}
		if i < len(t) {
			load += in.Demand(t[i])
			if !withinWindow(in, load) {
				return false
			}
		}
	}
	return true
}

// insertionCost is the distance increase of inserting node before position p.
func insertionCost(in *pdtsp.Instance, t pdtsp.Tour, node, p int) float64 {
	prev, next := 0, 0
	if p > 0 {
		prev = t[p-1]
	}
	if p < len(t) {
		next = t[p]
	}
	return in.Dist(prev, node) + in.Dist(node, next) - in.Dist(prev, next)
}

// bestInsertion returns the cheapest load-valid position for node, if any.
func bestInsertion(in *pdtsp.Instance, t pdtsp.Tour, node int) (int, float64, bool) {
	bestPos, bestCost, found := 0, math.Inf(1), false
	for p := 0; p <= len(t); p++ {
		if !insertionOK(in, t, node, p) {
			continue
		}
		if c := insertionCost(in, t, node, p); c < bestCost {
			bestPos, bestCost, found = p, c, true
		}
	}
	return bestPos, bestCost, found
}

// cheapestPosition is the distance-cheapest slot for node, ignoring load.
func cheapestPosition(in *pdtsp.Instance, t pdtsp.Tour, node int) int {
	best, bestCost := len(t), math.Inf(1)
	for p := 0; p <= len(t); p++ {
		if c := insertionCost(in, t, node, p); c < bestCost {
			best, bestCost = p, c
		}
	}
	return best
}

func insertAt(t pdtsp.Tour, node, p int) pdtsp.Tour {
	t = append(t, 0)
	copy(t[p+1:], t[p:])
	t[p] = node
	return t
}

func indexOf(t pdtsp.Tour, node int) int {
	for i, c := range t {
		if c == node {
			return i
		}
	}
	return -1
}

// completeTour inserts every customer missing from t, preferring load-valid
// positions and falling back to the cheapest position regardless of load.
// The result is always a full permutation.
func completeTour(in *pdtsp.Instance, t pdtsp.Tour) pdtsp.Tour {
	if len(t) == in.Customers() {
		return t
	}
	present := make([]bool, in.Dimension())
	for _, c := range t {
		present[c] = true
	}
	for node := 1; node < in.Dimension(); node++ {
		if present[node] {
			continue
		}
		if p, _, ok := bestInsertion(in, t, node); ok {
			t = insertAt(t, node, p)
		} else {
			t = insertAt(t, node, cheapestPosition(in, t, node))
		}
	}
	return t
}

// nearestNeighbor extends the tour from the depot to the closest unvisited
// customer whose demand fits the running load. Randomized mode draws among
// the three closest instead.
func nearestNeighbor(in *pdtsp.Instance, rng *rand.Rand, randomized bool) pdtsp.Tour {
	n := in.Dimension()
	t := make(pdtsp.Tour, 0, n-1)
	visited := make([]bool, n)
	current, load := 0, in.StartingLoad()

	type candidate struct {
		node int
		d    float64
	}
	cands := make([]candidate, 0, n-1)
	for len(t) < n-1 {
		cands = cands[:0]
		for node := 1; node < n; node++ {
			if visited[node] || !withinWindow(in, load+in.Demand(node)) {
				continue
			}
			cands = append(cands, candidate{node, in.Dist(current, node)})
		}
		if len(cands) == 0 {
			break
		}
		sort.Slice(cands, func(i, j int) bool {
			if cands[i].d != cands[j].d {
				return cands[i].d < cands[j].d
			}
			return cands[i].node < cands[j].node
		})
		pick := 0
		if randomized && len(cands) > 1 {
			top := len(cands)
			if top > 3 {
				top = 3
			}
			pick = rng.Intn(top)
		}
		next := cands[pick].node
		t = append(t, next)
		visited[next] = true
		load += in.Demand(next)
		current = next
	}
	return t
}

// greedyInsertion seeds the tour with one customer and repeatedly inserts an
// unplaced customer at its cheapest load-valid position. The farthest
// variant seeds with the customer most remote from the depot and each round
// places the customer farthest from the partial tour.
func greedyInsertion(in *pdtsp.Instance, farthest bool) pdtsp.Tour {
	n := in.Dimension()
	seed := -1
	best := math.Inf(1)
	if farthest {
		best = -1
	}
	for node := 1; node < n; node++ {
		if !withinWindow(in, in.StartingLoad()+in.Demand(node)) {
			continue
		}
		d := in.Dist(0, node)
		if (farthest && d > best) || (!farthest && d < best) {
			seed, best = node, d
		}
	}
	if seed < 0 {
		seed = 1
	}
	t := pdtsp.Tour{seed}
	placed := make([]bool, n)
	placed[seed] = true

	for len(t) < n-1 {
		bestNode, bestPos := -1, 0
		bestScore := math.Inf(1)
		if farthest {
			bestScore = math.Inf(-1)
		}
		for node := 1; node < n; node++ {
			if placed[node] {
				continue
			}
			p, c, ok := bestInsertion(in, t, node)
			if !ok {
				continue
			}
			score := c
			if farthest {
				score = math.Inf(1)
				for _, v := range t {
					if d := in.Dist(node, v); d < score {
						score = d
					}
				}
			}
			if (farthest && score > bestScore) || (!farthest && score < bestScore) {
				bestNode, bestPos, bestScore = node, p, score
			}
		}
		if bestNode < 0 {
			break
		}
		t = insertAt(t, bestNode, bestPos)
		placed[bestNode] = true
	}
	return t
}

// savings merges customers by Clarke-Wright savings s(i,j) = d(i,0) + d(0,j)
// - lambda*d(i,j), highest first, extending the tour only when the partial
// load profile stays valid.
func savings(in *pdtsp.Instance, lambda float64) pdtsp.Tour {
	n := in.Dimension()
	type saving struct {
		i, j int
		s    float64
	}
	pairs := make([]saving, 0, (n-1)*(n-2)/2)
	for i := 1; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, saving{i, j, in.Dist(i, 0) + in.Dist(0, j) - lambda*in.Dist(i, j)})
		}
	}
	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a].s != pairs[b].s {
			return pairs[a].s > pairs[b].s
		}
		if pairs[a].i != pairs[b].i {
			return pairs[a].i < pairs[b].i
		}
		return pairs[a].j < pairs[b].j
	})

	t := pdtsp.Tour{}
	placed := make([]bool, n)
	if len(pairs) > 0 {
		t = append(t, pairs[0].i, pairs[0].j)
		placed[pairs[0].i], placed[pairs[0].j] = true, true
	}
	for _, pr := range pairs {
		if len(t) >= n-1 {
			break
		}
		switch {
		case placed[pr.i] && !placed[pr.j]:
			cand := insertAt(t.Clone(), pr.j, indexOf(t, pr.i)+1)
			if partialFeasible(in, cand) {
				t = cand
				placed[pr.j] = true
			}
		case !placed[pr.i] && placed[pr.j]:
			cand := insertAt(t.Clone(), pr.i, indexOf(t, pr.j))
			if partialFeasible(in, cand) {
				t = cand
				placed[pr.i] = true
			}
		}
	}
	return t
}

// sweep orders customers by polar angle around the depot starting from
// startAngle, appends those that fit the running load and repairs the
// skipped ones afterwards.
func sweep(in *pdtsp.Instance, startAngle float64) pdtsp.Tour {
	n := in.Dimension()
	depot := in.Node(0)
	angle := func(node int) float64 {
		nd := in.Node(node)
		a := math.Atan2(nd.Y-depot.Y, nd.X-depot.X) - startAngle
		for a < 0 {
			a += 2 * math.Pi
		}
		return a
	}
	order := make([]int, 0, n-1)
	for node := 1; node < n; node++ {
		order = append(order, node)
	}
	sort.Slice(order, func(i, j int) bool {
		ai, aj := angle(order[i]), angle(order[j])
		if ai != aj {
			return ai < aj
		}
		return order[i] < order[j]
	})

	t := make(pdtsp.Tour, 0, n-1)
	load := in.StartingLoad()
	var skipped []int
	for _, node := range order {
		if !withinWindow(in, load+in.Demand(node)) {
			skipped = append(skipped, node)
			continue
		}
		t = append(t, node)
		load += in.Demand(node)
	}
	for _, node := range skipped {
		if p, _, ok := bestInsertion(in, t, node); ok {
			t = insertAt(t, node, p)
		} else {
			t = append(t, node)
		}
	}
	return t
}

// regretInsertion seeds with the customer farthest from the depot and each
// round inserts the customer with the largest regret, the gap between its
// best and k-th best feasible insertion cost.
func regretInsertion(in *pdtsp.Instance, k int) pdtsp.Tour {
	n := in.Dimension()
	seed, far := 1, -1.0
	for node := 1; node < n; node++ {
		if d := in.Dist(0, node); d > far {
			seed, far = node, d
		}
	}
	t := pdtsp.Tour{seed}
	placed := make([]bool, n)
	placed[seed] = true

	costs := make([]float64, 0, n)
	for remaining, iter := n-2, 0; remaining > 0 && iter < 2*n; iter++ {
		bestNode, bestPos := -1, 0
		bestRegret, bestCost := math.Inf(-1), math.Inf(1)
		for node := 1; node < n; node++ {
			if placed[node] {
				continue
			}
			costs = costs[:0]
			minPos, minCost := -1, math.Inf(1)
			for p := 0; p <= len(t); p++ {
				if !insertionOK(in, t, node, p) {
					continue
				}
				c := insertionCost(in, t, node, p)
				costs = append(costs, c)
				if c < minCost {
					minPos, minCost = p, c
				}
			}
			if minPos < 0 {
				continue
			}
			sort.Float64s(costs)
			regret := 0.0
			switch {
			case len(costs) >= k:
				regret = costs[k-1] - costs[0]
			case len(costs) > 1:
				regret = costs[len(costs)-1] - costs[0]
			}
			if regret > bestRegret || (regret == bestRegret && minCost < bestCost) {
				bestNode, bestPos = node, minPos
				bestRegret, bestCost = regret, minCost
			}
		}
		if bestNode < 0 {
			break
		}
		t = insertAt(t, bestNode, bestPos)
		placed[bestNode] = true
		remaining--
	}
	return t
}

// clusterFirst groups customers with a short k-means pass, orders clusters
// by centroid angle and customers within each cluster by angle around its
// centroid, then rebuilds with insertion repair if the result violates the
// load window.
func clusterFirst(in *pdtsp.Instance, clusters int) pdtsp.Tour {
	n := in.Dimension()
	m := n - 1
	k := clusters
	if k > m {
		k = m
	}
	if k < 1 {
		k = 1
	}

	cx := make([]float64, k)
	cy := make([]float64, k)
	step := m / k
	if step == 0 {
		step = 1
	}
	for c := 0; c < k; c++ {
		nd := in.Node(1 + c*step)
		cx[c], cy[c] = nd.X, nd.Y
	}

	groups := make([][]int, k)
	assignAll := func() {
		for c := range groups {
			groups[c] = groups[c][:0]
		}
		for node := 1; node < n; node++ {
			nd := in.Node(node)
			best, bestD := 0, math.Inf(1)
			for c := 0; c < k; c++ {
				dx, dy := nd.X-cx[c], nd.Y-cy[c]
				if d := dx*dx + dy*dy; d < bestD {
					best, bestD = c, d
				}
			}
			groups[best] = append(groups[best], node)
		}
	}
	assignAll()
	for c := 0; c < k; c++ {
		if len(groups[c]) == 0 {
			continue
		}
		sx, sy := 0.0, 0.0
		for _, node := range groups[c] {
			nd := in.Node(node)
			sx += nd.X
			sy += nd.Y
		}
		cx[c] = sx / float64(len(groups[c]))
		cy[c] = sy / float64(len(groups[c]))
	}
	assignAll()

	clusterOrder := make([]int, 0, k)
	for c := 0; c < k; c++ {
		if len(groups[c]) > 0 {
			clusterOrder = append(clusterOrder, c)
		}
	}
	sort.Slice(clusterOrder, func(a, b int) bool {
		ca, cb := clusterOrder[a], clusterOrder[b]
		aa, ab := math.Atan2(cy[ca], cx[ca]), math.Atan2(cy[cb], cx[cb])
		if aa != ab {
			return aa < ab
		}
		return ca < cb
	})

	t := make(pdtsp.Tour, 0, m)
	for _, c := range clusterOrder {
		group := groups[c]
		sort.Slice(group, func(a, b int) bool {
			na, nb := in.Node(group[a]), in.Node(group[b])
			aa := math.Atan2(na.Y-cy[c], na.X-cx[c])
			ab := math.Atan2(nb.Y-cy[c], nb.X-cx[c])
			if aa != ab {
				return aa < ab
			}
			return group[a] < group[b]
		})
		t = append(t, group...)
	}
	if in.FeasibleTour(t) {
		return t
	}

	rebuilt := make(pdtsp.Tour, 0, m)
	for _, node := range t {
		if p, _, ok := bestInsertion(in, rebuilt, node); ok {
			rebuilt = insertAt(rebuilt, node, p)
		} else {
			rebuilt = insertAt(rebuilt, node, cheapestPosition(in, rebuilt, node))
		}
	}
	return rebuilt
}

// deliverEarliest walks like nearest-neighbor but prefers the closest
// delivery whenever one fits the running load, keeping the vehicle light.
func deliverEarliest(in *pdtsp.Instance) pdtsp.Tour {
	n := in.Dimension()
	t := make(pdtsp.Tour, 0, n-1)
	visited := make([]bool, n)
	current, load := 0, in.StartingLoad()
	for len(t) < n-1 {
		delivery, deliveryD := -1, math.Inf(1)
		nearest, nearestD := -1, math.Inf(1)
		for node := 1; node < n; node++ {
			if visited[node] || !withinWindow(in, load+in.Demand(node)) {
				continue
			}
			d := in.Dist(current, node)
			if in.Demand(node) < 0 && d < deliveryD {
				delivery, deliveryD = node, d
			}
			if d < nearestD {
				nearest, nearestD = node, d
			}
		}
		next := delivery
		if next < 0 {
			next = nearest
		}
		if next < 0 {
			break
		}
		t = append(t, next)
		visited[next] = true
		load += in.Demand(next)
		current = next
	}
	return t
}

// pickupHighProfit walks the tour greedily by profit per unit distance among
// the load-feasible candidates, so high-value nodes are served while the
// route is still cheap to bend.
func pickupHighProfit(in *pdtsp.Instance) pdtsp.Tour {
	n := in.Dimension()
	t := make(pdtsp.Tour, 0, n-1)
	visited := make([]bool, n)
	current, load := 0, in.StartingLoad()
	for len(t) < n-1 {
		best, bestScore := -1, math.Inf(-1)
		for node := 1; node < n; node++ {
			if visited[node] || !withinWindow(in, load+in.Demand(node)) {
				continue
			}
			profit := float64(in.Node(node).Profit)
			if profit < 1 {
				profit = 1
			}
			score := profit / (1 + in.Dist(current, node))
			if score > bestScore {
				best, bestScore = node, score
			}
		}
		if best < 0 {
			break
		}
		t = append(t, best)
		visited[best] = true
		load += in.Demand(best)
		current = best
	}
	return t
}

// profitDensity walks like nearest-neighbor but scores candidates by profit
// per unit distance, doubling the score of pickups while the vehicle is
// lightly loaded and of deliveries when it is nearly full. Ties break toward
// the shorter edge.
func profitDensity(in *pdtsp.Instance) pdtsp.Tour {
	n := in.Dimension()
	t := make(pdtsp.Tour, 0, n-1)
	visited := make([]bool, n)
	current, load := 0, in.StartingLoad()
	capacity := float64(in.Capacity())
	for len(t) < n-1 {
		best, bestScore, bestD := -1, math.Inf(-1), math.Inf(1)
		fill := float64(load) / capacity
		for node := 1; node < n; node++ {
			if visited[node] || !withinWindow(in, load+in.Demand(node)) {
				continue
			}
			d := in.Dist(current, node)
			profit := float64(in.Node(node).Profit)
			if profit < 1 {
				profit = 1
			}
			score := profit / (1 + d)
			if (fill <= 0.3 && in.Demand(node) > 0) || (fill >= 0.7 && in.Demand(node) < 0) {
				score *= 2
			}
			if score > bestScore || (score == bestScore && d < bestD) {
				best, bestScore, bestD = node, score, d
			}
		}
		if best < 0 {
			break
		}
		t = append(t, best)
		visited[best] = true
		load += in.Demand(best)
		current = best
	}
	return t
}
