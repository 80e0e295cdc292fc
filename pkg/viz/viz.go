// Package viz renders solutions as standalone SVG documents: a tour plot of
// the visiting order over the node map and a load-profile chart showing how
// the carried load moves inside the capacity window.
package viz

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/kilianp07/pdtsp/core/pdtsp"
)

// Renderer holds the canvas geometry. The zero value is unusable; use New.
type Renderer struct {
	Width      float64
	Height     float64
	Margin     float64
	NodeRadius float64
}

// New returns a renderer with the default 800x800 canvas.
func New() *Renderer {
	return &Renderer{Width: 800, Height: 800, Margin: 50, NodeRadius: 8}
}

const svgStyle = `<style>
    .node { fill: #3498db; stroke: #2c3e50; stroke-width: 2; }
    .depot { fill: #2c3e50; stroke: #1b2631; stroke-width: 2; }
    .pickup { fill: #2ecc71; stroke: #27ae60; stroke-width: 2; }
    .delivery { fill: #e74c3c; stroke: #c0392b; stroke-width: 2; }
    .edge { stroke: #34495e; stroke-width: 2; fill: none; }
    .label { font-family: Arial; font-size: 10px; fill: #2c3e50; }
    .title { font-family: Arial; font-size: 14px; fill: #2c3e50; font-weight: bold; }
</style>
`

// TourSVG renders the closed tour over the node coordinates. The depot is a
// square, pickups are green, deliveries red and zero-demand customers blue;
// edges carry an arrow marker showing the visiting direction.
func (r *Renderer) TourSVG(in *pdtsp.Instance, sol pdtsp.Solution) string {
	minX, maxX, minY, maxY := bounds(in)
	scaleX := (r.Width - 2*r.Margin) / math.Max(maxX-minX, 1)
	scaleY := (r.Height - 2*r.Margin) / math.Max(maxY-minY, 1)
	scale := math.Min(scaleX, scaleY)
	tx := func(x float64) float64 { return r.Margin + (x-minX)*scale }
	ty := func(y float64) float64 { return r.Height - r.Margin - (y-minY)*scale }

	var b strings.Builder
	fmt.Fprintf(&b, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="0 0 %g %g">
`, r.Width, r.Height, r.Width, r.Height)
	b.WriteString(svgStyle)
	b.WriteString(`<rect width="100%" height="100%" fill="#ecf0f1"/>
<defs>
<marker id="arrow" markerWidth="10" markerHeight="10" refX="9" refY="3" orient="auto" markerUnits="strokeWidth">
<path d="M0,0 L0,6 L9,3 z" fill="#34495e"/>
</marker>
</defs>
`)
	fmt.Fprintf(&b, `<text x="%g" y="25" class="title">Instance: %s | %s | Cost: %.2f | Feasible: %v</text>
`, r.Margin, in.Name(), sol.Algorithm, sol.Cost, sol.Feasible)

	prev := in.Node(0)
	for _, c := range sol.Tour {
		cur := in.Node(c)
		writeEdge(&b, tx(prev.X), ty(prev.Y), tx(cur.X), ty(cur.Y))
		prev = cur
	}
	if len(sol.Tour) > 0 {
		depot := in.Node(0)
		writeEdge(&b, tx(prev.X), ty(prev.Y), tx(depot.X), ty(depot.Y))
	}

	for i := 0; i < in.Dimension(); i++ {
		nd := in.Node(i)
		x, y := tx(nd.X), ty(nd.Y)
		if i == 0 {
			side := 2 * r.NodeRadius
			fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="%g" height="%g" class="depot"/>
`, x-r.NodeRadius, y-r.NodeRadius, side, side)
		} else {
			fmt.Fprintf(&b, `<circle cx="%.2f" cy="%.2f" r="%g" class="%s"/>
`, x, y, r.NodeRadius, nodeClass(nd))
		}
		fmt.Fprintf(&b, `<text x="%.2f" y="%.2f" class="label" text-anchor="middle">%d</text>
`, x, y-r.NodeRadius-3, nd.ID)
	}

	legendY := r.Height - 30
	legend := [...]struct {
		class, text string
	}{
		{"depot", "Depot"},
		{"pickup", "Pickup"},
		{"delivery", "Delivery"},
	}
	for i, item := range legend {
		off := r.Margin + float64(i)*80
		fmt.Fprintf(&b, `<rect x="%g" y="%g" width="15" height="15" class="%s"/>
<text x="%g" y="%g" class="label">%s</text>
`, off, legendY, item.class, off+20, legendY+12, item.text)
	}
	b.WriteString("</svg>\n")
	return b.String()
}

// LoadProfileSVG charts the load after every visit against the capacity
// window. Points outside [0, capacity] are drawn red, which makes infeasible
// tours obvious at a glance.
func (r *Renderer) LoadProfileSVG(in *pdtsp.Instance, sol pdtsp.Solution) string {
	profile := sol.Loads
	if len(profile) == 0 {
		profile = in.Profile(sol.Tour)
	}

	width, height, margin := r.Width, 300.0, r.Margin
	plotW, plotH := width-2*margin, height-2*margin

	yMin, yMax := 0.0, float64(in.Capacity())
	for _, l := range profile {
		yMin = math.Min(yMin, float64(l))
		yMax = math.Max(yMax, float64(l))
	}
	span := math.Max(yMax-yMin, 1)
	xStep := plotW / math.Max(float64(len(profile)-1), 1)
	py := func(load int) float64 { return height - margin - (float64(load)-yMin)/span*plotH }
	px := func(i int) float64 { return margin + float64(i)*xStep }

	var b strings.Builder
	fmt.Fprintf(&b, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="0 0 %g %g">
<style>
    .line { stroke: #3498db; stroke-width: 2; fill: none; }
    .capacity { stroke: #e74c3c; stroke-width: 1; stroke-dasharray: 5,5; }
    .axis { stroke: #2c3e50; stroke-width: 1; }
    .label { font-family: Arial; font-size: 12px; fill: #2c3e50; }
    .title { font-family: Arial; font-size: 14px; fill: #2c3e50; font-weight: bold; }
</style>
<rect width="100%%" height="100%%" fill="#ecf0f1"/>
`, width, height, width, height)
	fmt.Fprintf(&b, `<text x="%g" y="25" class="title">Load Profile - %s - Capacity: %d</text>
`, margin, in.Name(), in.Capacity())

	// Axes: the zero baseline and the left edge.
	fmt.Fprintf(&b, `<line x1="%g" y1="%.2f" x2="%g" y2="%.2f" class="axis"/>
<line x1="%g" y1="%g" x2="%g" y2="%g" class="axis"/>
`, margin, py(0), width-margin, py(0), margin, margin, margin, height-margin)

	capY := py(in.Capacity())
	fmt.Fprintf(&b, `<line x1="%g" y1="%.2f" x2="%g" y2="%.2f" class="capacity"/>
<text x="%g" y="%.2f" class="label">%d</text>
`, margin, capY, width-margin, capY, width-margin+5, capY+5, in.Capacity())

	var path strings.Builder
	for i, load := range profile {
		cmd := " L"
		if i == 0 {
			cmd = "M"
		}
		fmt.Fprintf(&path, "%s %.2f %.2f", cmd, px(i), py(load))
	}
	fmt.Fprintf(&b, `<path d="%s" class="line"/>
`, path.String())

	for i, load := range profile {
		color := "#3498db"
		if load < 0 || load > in.Capacity() {
			color = "#e74c3c"
		}
		fmt.Fprintf(&b, `<circle cx="%.2f" cy="%.2f" r="4" fill="%s"/>
`, px(i), py(load), color)
	}
	b.WriteString("</svg>\n")
	return b.String()
}

// Save writes both charts next to base: base.svg for the tour and
// base.load.svg for the profile, returning the two paths.
func (r *Renderer) Save(base string, in *pdtsp.Instance, sol pdtsp.Solution) (tourPath, loadPath string, err error) {
	tourPath = base + ".svg"
	loadPath = base + ".load.svg"
	if err = os.WriteFile(tourPath, []byte(r.TourSVG(in, sol)), 0o644); err != nil {
		return "", "", fmt.Errorf("write tour svg: %w", err)
	}
	if err = os.WriteFile(loadPath, []byte(r.LoadProfileSVG(in, sol)), 0o644); err != nil {
		return "", "", fmt.Errorf("write load svg: %w", err)
	}
	return tourPath, loadPath, nil
}

func writeEdge(b *strings.Builder, x1, y1, x2, y2 float64) {
	fmt.Fprintf(b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" class="edge" marker-end="url(#arrow)"/>
`, x1, y1, x2, y2)
}

func nodeClass(nd pdtsp.Node) string {
	switch {
	case nd.Demand > 0:
		return "pickup"
	case nd.Demand < 0:
		return "delivery"
	default:
		return "node"
	}
}

func bounds(in *pdtsp.Instance) (minX, maxX, minY, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for i := 0; i < in.Dimension(); i++ {
		nd := in.Node(i)
		minX = math.Min(minX, nd.X)
		maxX = math.Max(maxX, nd.X)
		minY = math.Min(minY, nd.Y)
		maxY = math.Max(maxY, nd.Y)
	}
	return minX, maxX, minY, maxY
}
