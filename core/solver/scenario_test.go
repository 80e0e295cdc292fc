package solver

import (
	"testing"

	"github.com/kilianp07/pdtsp/core/pdtsp"
)

// depotStockInstance is a 20-node scenario: the vehicle leaves the depot
// with 7 units of stock, 8 pickups add 37 and 8 deliveries drain 44, with
// three pure-visit customers in between. Capacity 44. Because total pickup
// plus starting stock exactly covers total delivery, every greedy extension
// that respects the load window can always continue, so construction never
// dead-ends here.
func depotStockInstance(t *testing.T) *pdtsp.Instance {
	t.Helper()
	in, err := pdtsp.NewInstance(pdtsp.Config{
		Name:     "depot-stock-20",
		Capacity: 44,
		Nodes: []pdtsp.Node{
			{ID: 0, X: 0, Y: 0, Demand: 7},
			{ID: 1, X: 12, Y: 5, Demand: 5},
			{ID: 2, X: 25, Y: 9, Demand: 5},
			{ID: 3, X: 4, Y: 18, Demand: 5},
			{ID: 4, X: 18, Y: 22, Demand: 5},
			{ID: 5, X: 31, Y: 3, Demand: 5},
			{ID: 6, X: 9, Y: 28, Demand: 4},
			{ID: 7, X: 22, Y: 14, Demand: 4},
			{ID: 8, X: 35, Y: 19, Demand: 4},
			{ID: 9, X: 7, Y: 9, Demand: -6},
			{ID: 10, X: 15, Y: 31, Demand: -6},
			{ID: 11, X: 28, Y: 26, Demand: -6},
			{ID: 12, X: 2, Y: 6, Demand: -6},
			{ID: 13, X: 20, Y: 2, Demand: -5},
			{ID: 14, X: 33, Y: 11, Demand: -5},
			{ID: 15, X: 11, Y: 16, Demand: -5},
			{ID: 16, X: 26, Y: 33, Demand: -5},
			{ID: 17, X: 5, Y: 24, Demand: 0},
			{ID: 18, X: 30, Y: 30, Demand: 0},
			{ID: 19, X: 16, Y: 12, Demand: 0},
		},
		ReturnDemand: 0,
		Model:        pdtsp.CostDistance,
	})
	if err != nil {
		t.Fatal(err)
	}
	return in
}

// hopelessInstance admits no feasible tour: two pickups of 5 against a
// capacity of 5 overflow the vehicle in every visiting order.
func hopelessInstance(t *testing.T) *pdtsp.Instance {
	t.Helper()
	in, err := pdtsp.NewInstance(pdtsp.Config{
		Name:     "hopeless",
		Capacity: 5,
		Nodes: []pdtsp.Node{
			{ID: 0, X: 0, Y: 0, Demand: 0},
			{ID: 1, X: 1, Y: 0, Demand: 5},
			{ID: 2, X: 0, Y: 1, Demand: 5},
		},
		ReturnDemand: -10,
		Model:        pdtsp.CostDistance,
	})
	if err != nil {
		t.Fatal(err)
	}
	return in
}

func quadraticVariant(t *testing.T) *pdtsp.Instance {
	t.Helper()
	return depotStockInstance(t).WithCostModel(pdtsp.CostQuadratic, pdtsp.DefaultAlpha, pdtsp.DefaultBeta)
}
