package graph

import (
	"math"
	"time"
)

// A Region is one of the three concentric layout shells a node belongs to.
type Region int

// The regions, from the innermost shell outward.
const (
	RegionCore Region = iota
	RegionMemory
	RegionPerception
)

// Name returns the region as a lower-case string.
func (r Region) Name() string {
	switch r {
	case RegionCore:
		return "core"
	case RegionMemory:
		return "memory"
	case RegionPerception:
		return "perception"
	}

	return "unknown"
}

// NodeState describes the operational condition of a component.
type NodeState int

// The possible node states.
const (
	StateActive NodeState = iota
	StateIdle
	StateOverloaded
	StateBlocked
	StateError
)

// Name returns the state as a lower-case string.
func (s NodeState) Name() string {
	switch s {
	case StateActive:
		return "active"
	case StateIdle:
		return "idle"
	case StateOverloaded:
		return "overloaded"
	case StateBlocked:
		return "blocked"
	case StateError:
		return "error"
	}

	return "unknown"
}

// Vec3 is a position or direction in the layout space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns the element-wise sum of two vectors.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns the element-wise difference of two vectors.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns the vector multiplied by a scalar.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Cross returns the cross product of two vectors.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// Length returns the Euclidean norm of the vector.
func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// IsFinite reports whether all three coordinates are finite numbers.
func (v Vec3) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}

// RGB is a display color with channels in [0, 1].
type RGB struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// A Node is one backend component in the live graph. Nodes are created on
// first reference by any event and are never removed while the session is
// live. They only decay.
type Node struct {
	ID        string
	Label     string
	Subsystem string
	Class     Classification

	Position    Vec3
	Throughput  float64
	Utilization float64
	LastEvent   time.Time
	State       NodeState
}

var regionColors = map[Region]RGB{
	RegionCore:       {R: 0.95, G: 0.76, B: 0.20},
	RegionMemory:     {R: 0.35, G: 0.55, B: 0.95},
	RegionPerception: {R: 0.30, G: 0.85, B: 0.65},
}

var stateColors = map[NodeState]RGB{
	StateOverloaded: {R: 0.95, G: 0.45, B: 0.15},
	StateBlocked:    {R: 0.90, G: 0.85, B: 0.20},
	StateError:      {R: 0.90, G: 0.15, B: 0.15},
}

// DisplayColor resolves the color the renderer should use for this node.
// Exceptional states override the region base color; idle nodes are dimmed.
func (n *Node) DisplayColor() RGB {
	if c, ok := stateColors[n.State]; ok {
		return c
	}

	c := regionColors[n.Class.Region]
	if n.State == StateIdle {
		return RGB{R: c.R * 0.35, G: c.G * 0.35, B: c.B * 0.35}
	}

	return c
}
