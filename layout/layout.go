// Package layout computes deterministic 3D positions for graph nodes.
//
// Nodes occupy three concentric shells by region. The mapping from a node to
// its position depends only on the node's own id and classification, so an
// unchanged node set always produces bit-identical output and adding a node
// never moves an unrelated one.
package layout

import (
	"math"

	"github.com/sparklab/firefly/graph"
)

// ShellRadii holds the radius of each region shell.
type ShellRadii struct {
	Core       float64
	Memory     float64
	Perception float64
}

// DefaultShellRadii returns the standard shell configuration.
func DefaultShellRadii() ShellRadii {
	return ShellRadii{Core: 20, Memory: 60, Perception: 100}
}

// An Engine maps a node set to positions on the region shells.
type Engine struct {
	radii ShellRadii
}

// NewEngine creates a layout engine for the given shell radii.
func NewEngine(radii ShellRadii) *Engine {
	return &Engine{radii: radii}
}

// Latitude bands for the memory shell, in degrees, keyed by category.
var memoryBands = map[string][2]float64{
	graph.CategoryPlanning: {30, 50},
	graph.CategoryEpisodic: {-10, 10},
	graph.CategorySemantic: {-50, -30},
	graph.CategoryLayered:  {-90, -70},
}

var memoryDefaultBand = [2]float64{60, 75}

// Longitude sectors for the perception shell, in degrees, keyed by category.
var perceptionSectors = map[string]float64{
	graph.CategoryVision:    0,
	graph.CategoryAudio:     90,
	graph.CategoryLanguage:  180,
	graph.CategoryTelemetry: 270,
}

const (
	sectorWidthDeg = 90
	jitterDeg      = 3
)

// Compute returns the position of every node, keyed by id, plus the ids
// whose coordinates degenerated to a non-finite number and were clamped to
// the origin. It reads nothing but its arguments and writes nothing, so two
// calls on the same node set return identical maps regardless of slice
// order.
func (e *Engine) Compute(
	nodes []*graph.Node,
) (positions map[string]graph.Vec3, degenerate []string) {
	positions = make(map[string]graph.Vec3, len(nodes))

	anchor := anchorID(nodes)

	for _, n := range nodes {
		var pos graph.Vec3

		switch n.Class.Region {
		case graph.RegionCore:
			if n.ID == anchor {
				pos = graph.Vec3{}
			} else {
				pos = e.corePosition(n)
			}
		case graph.RegionMemory:
			pos = e.memoryPosition(n)
		default:
			pos = e.perceptionPosition(n)
		}

		if !pos.IsFinite() {
			pos = graph.Vec3{}
			degenerate = append(degenerate, n.ID)
		}

		positions[n.ID] = pos
	}

	return positions, degenerate
}

// anchorID picks the node pinned at the origin: the distinguished anchor id
// when present, otherwise the highest-importance core node, ties broken by
// the lexicographically smallest id.
func anchorID(nodes []*graph.Node) string {
	best := ""
	bestImportance := -1.0

	for _, n := range nodes {
		if n.Class.Region != graph.RegionCore {
			continue
		}
		if n.ID == graph.AnchorNodeID {
			return n.ID
		}

		if n.Class.Importance > bestImportance ||
			(n.Class.Importance == bestImportance && n.ID < best) {
			best = n.ID
			bestImportance = n.Class.Importance
		}
	}

	return best
}

func (e *Engine) corePosition(n *graph.Node) graph.Vec3 {
	r := e.radii.Core * (0.7 + 0.3*n.Class.Importance)

	// Spherical distribution driven by the id hash. The golden-ratio
	// scramble spreads nearby hash values apart in longitude.
	u := hashUnit(n.ID, saltLatitude)
	v := hashUnit(n.ID, saltLongitude)

	y := 2*u - 1
	ring := math.Sqrt(1 - y*y)
	theta := 2 * math.Pi * frac(v*goldenRatio)

	return graph.Vec3{
		X: r * ring * math.Cos(theta),
		Y: r * y,
		Z: r * ring * math.Sin(theta),
	}
}

func (e *Engine) memoryPosition(n *graph.Node) graph.Vec3 {
	band, ok := memoryBands[n.Class.Category]
	if !ok {
		band = memoryDefaultBand
	}

	u := hashUnit(n.ID, saltLatitude)
	latDeg := band[0] + (band[1]-band[0])*u

	lonDeg := 360*hashUnit(n.ID, saltLongitude) + jitter(n.ID)

	return sphericalToCartesian(e.radii.Memory, latDeg, lonDeg)
}

func (e *Engine) perceptionPosition(n *graph.Node) graph.Vec3 {
	start, ok := perceptionSectors[n.Class.Category]
	if !ok {
		start = perceptionSectors[graph.CategoryTelemetry]
	}

	lonDeg := start + sectorWidthDeg*hashUnit(n.ID, saltLongitude) + jitter(n.ID)

	sinLat := 2*hashUnit(n.ID, saltLatitude) - 1
	latDeg := math.Asin(sinLat)*180/math.Pi + jitter(n.ID)

	return sphericalToCartesian(e.radii.Perception, latDeg, lonDeg)
}

func sphericalToCartesian(r, latDeg, lonDeg float64) graph.Vec3 {
	lat := latDeg * math.Pi / 180
	lon := lonDeg * math.Pi / 180

	return graph.Vec3{
		X: r * math.Cos(lat) * math.Cos(lon),
		Y: r * math.Sin(lat),
		Z: r * math.Cos(lat) * math.Sin(lon),
	}
}

const goldenRatio = 1.618033988749895

func frac(v float64) float64 {
	return v - math.Floor(v)
}
