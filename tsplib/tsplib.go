// Package tsplib reads PD-TSP instances in the TSPLIB-derived layout used by
// the benchmark sets: EUC_2D coordinates, a DEMAND_SECTION of signed
// pickup/delivery quantities and an optional PROFIT_SECTION. Files come in
// two shapes, a duplicated closing depot or a single depot with the return
// demand left implicit; both normalize to the same canonical Instance.
package tsplib

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/kilianp07/pdtsp/core/pdtsp"
)

// depotEps decides whether the closing node duplicates the depot. Files with
// near-but-not-equal closing coordinates are ambiguous under any cutoff; this
// keeps the historical one instead of guessing intent.
const depotEps = 1e-6

// ParseError pinpoints a malformed instance file.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

func errAt(line int, format string, args ...any) error {
	return &ParseError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

type section int

const (
	sectionNone section = iota
	sectionCoords
	sectionDemands
	sectionProfits
	sectionDisplay
)

type coordRow struct {
	id   int
	x, y float64
}

// ParseFile reads and normalizes the instance at path.
func ParseFile(path string) (*pdtsp.Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open instance: %w", err)
	}
	defer func() { _ = f.Close() }()
	in, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return in, nil
}

// ParseDir reads every .tsp file in dir, skipping files that fail to parse,
// and returns the instances ordered by dimension. skipped maps each rejected
// file to its error so callers can report what was left out.
func ParseDir(dir string) (instances []*pdtsp.Instance, skipped map[string]error, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read instance dir: %w", err)
	}
	skipped = map[string]error{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".tsp") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		in, perr := ParseFile(path)
		if perr != nil {
			skipped[path] = perr
			continue
		}
		instances = append(instances, in)
	}
	sort.Slice(instances, func(i, j int) bool {
		if instances[i].Dimension() != instances[j].Dimension() {
			return instances[i].Dimension() < instances[j].Dimension()
		}
		return instances[i].Name() < instances[j].Name()
	})
	return instances, skipped, nil
}

// Parse reads one instance from r. Header keys NAME, COMMENT, DIMENSION,
// CAPACITY and EDGE_WEIGHT_TYPE are honored, DISPLAY_DATA_SECTION is skipped
// and EOF markers are ignored. When the first and last coordinates coincide
// the last node is dropped and its demand becomes the return-depot demand;
// otherwise the return demand is computed so all demands sum to zero.
func Parse(r io.Reader) (*pdtsp.Instance, error) {
	var (
		name, comment string
		dimension     int
		capacity      int
		coords        []coordRow
		demands       = map[int]int{}
		profits       = map[int]int{}
		sec           = sectionNone
		lineNo        int
	)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line == "EOF" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "NODE_COORD_SECTION"):
			sec = sectionCoords
			continue
		case strings.HasPrefix(line, "DEMAND_SECTION"):
			sec = sectionDemands
			continue
		case strings.HasPrefix(line, "PROFIT_SECTION"):
			sec = sectionProfits
			continue
		case strings.HasPrefix(line, "DISPLAY_DATA_SECTION"):
			sec = sectionDisplay
			continue
		}

		if key, val, ok := strings.Cut(line, ":"); ok && sec == sectionNone {
			key, val = strings.TrimSpace(key), strings.TrimSpace(val)
			var err error
			switch key {
			case "NAME":
				name = val
			case "COMMENT":
				comment = val
			case "DIMENSION":
				dimension, err = strconv.Atoi(val)
			case "CAPACITY":
				capacity, err = strconv.Atoi(val)
			default:
				// TYPE, EDGE_WEIGHT_TYPE and friends carry no information
				// here: distances are always recomputed as EUC_2D.
			}
			if err != nil {
				return nil, errAt(lineNo, "invalid %s %q", key, val)
			}
			continue
		}

		switch sec {
		case sectionCoords:
			parts := strings.Fields(line)
			if len(parts) < 3 {
				continue
			}
			id, err := strconv.Atoi(parts[0])
			if err != nil {
				return nil, errAt(lineNo, "invalid node id %q", parts[0])
			}
			x, err := strconv.ParseFloat(parts[1], 64)
			if err != nil {
				return nil, errAt(lineNo, "invalid x coordinate %q", parts[1])
			}
			y, err := strconv.ParseFloat(parts[2], 64)
			if err != nil {
				return nil, errAt(lineNo, "invalid y coordinate %q", parts[2])
			}
			coords = append(coords, coordRow{id: id, x: x, y: y})
		case sectionDemands:
			id, v, ok, err := intPair(line, lineNo, "demand")
			if err != nil {
				return nil, err
			}
			if ok {
				demands[id] = v
			}
		case sectionProfits:
			id, v, ok, err := intPair(line, lineNo, "profit")
			if err != nil {
				return nil, err
			}
			if ok {
				profits[id] = v
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read instance: %w", err)
	}

	if dimension == 0 {
		return nil, &ParseError{Msg: "missing DIMENSION"}
	}
	if len(coords) == 0 {
		return nil, &ParseError{Msg: "missing NODE_COORD_SECTION"}
	}
	if len(demands) == 0 {
		return nil, &ParseError{Msg: "missing DEMAND_SECTION"}
	}
	if len(coords) != dimension {
		return nil, &ParseError{Msg: fmt.Sprintf("DIMENSION is %d but NODE_COORD_SECTION has %d rows", dimension, len(coords))}
	}

	n := dimension
	var returnDemand int
	first, last := coords[0], coords[len(coords)-1]
	if len(coords) >= 2 && math.Abs(first.x-last.x) < depotEps && math.Abs(first.y-last.y) < depotEps {
		// Duplicated closing depot: its demand is the return adjustment.
		n = dimension - 1
		returnDemand = demands[dimension]
	} else {
		total := 0
		for _, d := range demands {
			total += d
		}
		returnDemand = -total
	}

	nodes := make([]pdtsp.Node, 0, n)
	for _, c := range coords[:n] {
		nodes = append(nodes, pdtsp.Node{
			ID:     c.id - 1,
			X:      c.x,
			Y:      c.y,
			Demand: demands[c.id],
			Profit: profits[c.id],
		})
	}

	return pdtsp.NewInstance(pdtsp.Config{
		Name:         name,
		Comment:      comment,
		Capacity:     capacity,
		Nodes:        nodes,
		ReturnDemand: returnDemand,
		Model:        pdtsp.CostDistance,
		Alpha:        pdtsp.DefaultAlpha,
		Beta:         pdtsp.DefaultBeta,
	})
}

func intPair(line string, lineNo int, what string) (id, v int, ok bool, err error) {
	parts := strings.Fields(line)
	if len(parts) < 2 {
		return 0, 0, false, nil
	}
	id, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false, errAt(lineNo, "invalid node id %q", parts[0])
	}
	v, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false, errAt(lineNo, "invalid %s %q", what, parts[1])
	}
	return id, v, true, nil
}
