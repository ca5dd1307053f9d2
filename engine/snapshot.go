package engine

import (
	"time"

	"github.com/sparklab/firefly/graph"
	"github.com/sparklab/firefly/particles"
)

// A NodeView is the read-only per-frame record of one node.
type NodeView struct {
	ID          string     `json:"id"`
	Label       string     `json:"label"`
	Region      string     `json:"region"`
	Category    string     `json:"category,omitempty"`
	State       string     `json:"state"`
	Position    graph.Vec3 `json:"position"`
	Color       graph.RGB  `json:"color"`
	Utilization float64    `json:"utilization"`
	Brightness  float64    `json:"brightness"`
}

// An EdgeView is the read-only per-frame record of one directed edge.
type EdgeView struct {
	Source      string  `json:"source"`
	Target      string  `json:"target"`
	EventType   string  `json:"event_type,omitempty"`
	Bandwidth   float64 `json:"bandwidth"`
	Highlighted bool    `json:"highlighted"`
}

// A ParticleView is the transform of one in-flight particle.
type ParticleView struct {
	Source   string     `json:"source"`
	Target   string     `json:"target"`
	Position graph.Vec3 `json:"position"`
	Progress float64    `json:"progress"`
	Size     float64    `json:"size"`
	Color    graph.RGB  `json:"color"`
}

// Stats are the counters the engine reports per frame.
type Stats struct {
	Ticks            uint64 `json:"ticks"`
	Nodes            int    `json:"nodes"`
	Edges            int    `json:"edges"`
	ActiveParticles  int    `json:"active_particles"`
	PoolCapacity     int    `json:"pool_capacity"`
	MalformedDropped uint64 `json:"malformed_dropped"`
	SpawnsNoEdge     uint64 `json:"spawns_dropped_no_edge"`
	SpawnsDuplicate  uint64 `json:"spawns_dropped_duplicate"`
}

// A Snapshot is a self-contained copy of everything the renderer draws in
// one frame. The renderer performs no state mutation; it only reads
// snapshots.
type Snapshot struct {
	Time      time.Time      `json:"time"`
	Nodes     []NodeView     `json:"nodes"`
	Edges     []EdgeView     `json:"edges"`
	Particles []ParticleView `json:"particles"`
	Stats     Stats          `json:"stats"`
}

// Snapshot builds a read-only copy of the current frame. It synchronizes
// with the tick goroutine, so a caller never observes a half-applied batch.
func (e *Engine) Snapshot() *Snapshot {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	snap := &Snapshot{
		Time:  time.Now(),
		Stats: e.statsLocked(),
	}

	for _, n := range e.store.Nodes() {
		snap.Nodes = append(snap.Nodes, NodeView{
			ID:          n.ID,
			Label:       n.Label,
			Region:      n.Class.Region.Name(),
			Category:    n.Class.Category,
			State:       n.State.Name(),
			Position:    n.Position,
			Color:       n.DisplayColor(),
			Utilization: n.Utilization,
			Brightness:  e.illum.Brightness(n.ID),
		})
	}

	for _, ed := range e.store.Edges() {
		snap.Edges = append(snap.Edges, EdgeView{
			Source:      ed.Key.Source,
			Target:      ed.Key.Target,
			EventType:   string(ed.LastEventType),
			Bandwidth:   ed.Bandwidth,
			Highlighted: ed.Highlighted,
		})
	}

	e.pool.VisitActive(func(s *particles.Slot) {
		snap.Particles = append(snap.Particles, ParticleView{
			Source:   s.Edge.Source,
			Target:   s.Edge.Target,
			Position: s.Position,
			Progress: s.Progress,
			Size:     s.Size,
			Color:    s.Color,
		})
	})

	return snap
}

// Stats returns the current frame counters.
func (e *Engine) Stats() Stats {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	return e.statsLocked()
}

func (e *Engine) statsLocked() Stats {
	return Stats{
		Ticks:            e.tickCount,
		Nodes:            e.store.NodeCount(),
		Edges:            e.store.EdgeCount(),
		ActiveParticles:  e.pool.ActiveCount(),
		PoolCapacity:     e.pool.Capacity(),
		MalformedDropped: e.store.MalformedDropped(),
		SpawnsNoEdge:     e.pool.DroppedNoEdge(),
		SpawnsDuplicate:  e.pool.DroppedDuplicate(),
	}
}
