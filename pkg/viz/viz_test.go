package viz

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kilianp07/pdtsp/core/pdtsp"
)

func vizInstance(t *testing.T) *pdtsp.Instance {
	t.Helper()
	in, err := pdtsp.NewInstance(pdtsp.Config{
		Name:     "viz-4",
		Capacity: 6,
		Nodes: []pdtsp.Node{
			{ID: 0, X: 0, Y: 0},
			{ID: 1, X: 10, Y: 0, Demand: 4},
			{ID: 2, X: 10, Y: 10, Demand: -4},
			{ID: 3, X: 0, Y: 10, Demand: 0},
		},
	})
	if err != nil {
		t.Fatalf("instance: %v", err)
	}
	return in
}

func TestTourSVG(t *testing.T) {
	in := vizInstance(t)
	sol := pdtsp.NewSolution(in, pdtsp.Tour{1, 2, 3}, "TwoOpt")

	svg := New().TourSVG(in, sol)

	if !strings.HasPrefix(svg, `<?xml version="1.0"`) {
		t.Fatal("missing XML declaration")
	}
	if !strings.Contains(svg, "viz-4") {
		t.Error("title must carry the instance name")
	}
	// Depot square plus one circle per customer.
	if got := strings.Count(svg, `class="depot"`); got != 2 {
		t.Errorf("depot markers = %d, want square + legend entry", got)
	}
	if got := strings.Count(svg, "<circle"); got != in.Customers() {
		t.Errorf("customer circles = %d, want %d", got, in.Customers())
	}
	// Closed tour: one directed edge per visit plus the return.
	if got := strings.Count(svg, `class="edge"`); got != len(sol.Tour)+1 {
		t.Errorf("edges = %d, want %d", got, len(sol.Tour)+1)
	}
	if !strings.Contains(svg, `class="pickup"`) || !strings.Contains(svg, `class="delivery"`) {
		t.Error("pickup and delivery classes must both appear")
	}
}

func TestLoadProfileSVGMarksViolations(t *testing.T) {
	in := vizInstance(t)
	feasible := pdtsp.NewSolution(in, pdtsp.Tour{1, 2, 3}, "test")
	svg := New().LoadProfileSVG(in, feasible)
	if strings.Count(svg, `fill="#e74c3c"`) != 0 {
		t.Error("a feasible profile must not mark any point red")
	}
	if !strings.Contains(svg, "Capacity: 6") {
		t.Error("capacity missing from title")
	}
	// One marker per profile entry: depot start, each visit, final return.
	if got := strings.Count(svg, "<circle"); got != len(feasible.Loads) {
		t.Errorf("profile markers = %d, want %d", got, len(feasible.Loads))
	}

	// Visiting the delivery first drives the load to -4.
	infeasible := pdtsp.NewSolution(in, pdtsp.Tour{2, 1, 3}, "test")
	if infeasible.Feasible {
		t.Fatal("delivery-first tour should be infeasible")
	}
	svg = New().LoadProfileSVG(in, infeasible)
	if strings.Count(svg, `fill="#e74c3c"`) == 0 {
		t.Error("negative loads must be marked red")
	}
}

func TestSaveWritesBothCharts(t *testing.T) {
	in := vizInstance(t)
	sol := pdtsp.NewSolution(in, pdtsp.Tour{1, 2, 3}, "test")
	base := filepath.Join(t.TempDir(), "run")

	tourPath, loadPath, err := New().Save(base, in, sol)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	for _, p := range []string{tourPath, loadPath} {
		data, rerr := os.ReadFile(p)
		if rerr != nil {
			t.Fatalf("read %s: %v", p, rerr)
		}
		if !strings.Contains(string(data), "</svg>") {
			t.Errorf("%s is not a complete SVG document", p)
		}
	}
}
