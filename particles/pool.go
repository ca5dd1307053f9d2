// Package particles maintains the fixed-capacity pool of animated particles
// that trace cross-component calls along graph edges.
package particles

import (
	"log"
	"math"
	"time"

	"github.com/sparklab/firefly/graph"
)

// A Graph resolves the edges and endpoint nodes that particles travel
// between. *graph.Store satisfies it.
type Graph interface {
	Edge(source, target string) (*graph.Edge, bool)
	Node(id string) (*graph.Node, bool)
}

// A SpeedTable maps event priorities to particle speed in progress units per
// second.
type SpeedTable struct {
	Low    float64
	Normal float64
	High   float64
}

// DefaultSpeedTable returns the standard priority speed mapping.
func DefaultSpeedTable() SpeedTable {
	return SpeedTable{Low: 0.35, Normal: 0.6, High: 0.9}
}

// For returns the speed for a priority.
func (t SpeedTable) For(p graph.Priority) float64 {
	switch p {
	case graph.PriorityHigh:
		return t.High
	case graph.PriorityLow:
		return t.Low
	}

	return t.Normal
}

// An identityKey names the telemetry event a particle was spawned for.
// Redelivery of the same event maps to the same key and never double-spawns.
type identityKey struct {
	timestamp int64
	edge      graph.EdgeKey
}

// A Slot is one reusable entry in the pool. Slots are preallocated at
// construction and recycled in ring order.
type Slot struct {
	Active    bool
	Edge      graph.EdgeKey
	Progress  float64
	Speed     float64
	Color     graph.RGB
	Size      float64
	Position  graph.Vec3
	SpawnedAt time.Time

	key identityKey
}

const defaultReconcileEvery = 60

// A Pool holds a fixed number of particle slots. The pool never grows. Under
// sustained overload the ring cursor evicts the oldest in-flight particle,
// so a slow consumer loses visual fidelity instead of memory. Not safe for
// concurrent use; mutate only from the tick driver.
type Pool struct {
	slots []Slot
	index map[identityKey]int

	cursor int
	active int

	speeds         SpeedTable
	curveLift      float64
	reconcileEvery int
	advances       uint64

	droppedNoEdge    uint64
	droppedDuplicate uint64

	degenerateEdges map[graph.EdgeKey]struct{}
}

// NewPool creates a pool with the given fixed capacity.
func NewPool(capacity int) *Pool {
	if capacity <= 0 {
		log.Panic("particle pool capacity must be positive")
	}

	return &Pool{
		slots:           make([]Slot, capacity),
		index:           make(map[identityKey]int),
		speeds:          DefaultSpeedTable(),
		curveLift:       0.25,
		reconcileEvery:  defaultReconcileEvery,
		degenerateEdges: make(map[graph.EdgeKey]struct{}),
	}
}

// WithSpeeds sets the priority speed table.
func (p *Pool) WithSpeeds(t SpeedTable) *Pool {
	p.speeds = t
	return p
}

// WithCurveLift sets the control-point offset as a fraction of the chord
// length.
func (p *Pool) WithCurveLift(lift float64) *Pool {
	p.curveLift = lift
	return p
}

// WithReconcileEvery sets how many Advance calls pass between full
// active-count reconciliations.
func (p *Pool) WithReconcileEvery(n int) *Pool {
	if n <= 0 {
		log.Panic("reconcile interval must be positive")
	}

	p.reconcileEvery = n

	return p
}

// Spawn claims the next ring slot for the given event. The spawn is dropped
// when the referenced edge does not exist or when the same event identity
// was already spawned. It reports whether a particle was launched.
func (p *Pool) Spawn(ev graph.Event, g Graph) bool {
	_, found := g.Edge(ev.Source, ev.Target)
	if !found {
		p.droppedNoEdge++
		return false
	}

	src, found := g.Node(ev.Source)
	if !found {
		p.droppedNoEdge++
		return false
	}

	key := identityKey{
		timestamp: ev.Timestamp.UnixNano(),
		edge:      graph.EdgeKey{Source: ev.Source, Target: ev.Target},
	}
	if _, dup := p.index[key]; dup {
		p.droppedDuplicate++
		return false
	}

	slot := &p.slots[p.cursor]
	if slot.Active {
		// Oldest eviction: the previous occupant is still in flight.
		p.active--
		delete(p.index, slot.key)
	}

	*slot = Slot{
		Active:    true,
		Edge:      key.edge,
		Speed:     p.speeds.For(ev.Priority),
		Color:     src.DisplayColor(),
		Size:      math.Sqrt(ev.Weight()),
		Position:  src.Position,
		SpawnedAt: ev.Timestamp,
		key:       key,
	}

	p.index[key] = p.cursor
	p.active++
	p.cursor = (p.cursor + 1) % len(p.slots)

	return true
}

// Advance integrates every active particle by dt and recomputes its position
// along the current edge curve. Endpoint existence is re-checked on every
// call, so a particle orphaned by a disappearing node or edge deactivates on
// its next Advance, not later.
func (p *Pool) Advance(dt time.Duration, g Graph) {
	seconds := dt.Seconds()

	for i := range p.slots {
		slot := &p.slots[i]
		if !slot.Active {
			continue
		}

		src, srcOK := g.Node(slot.Edge.Source)
		tgt, tgtOK := g.Node(slot.Edge.Target)
		_, edgeOK := g.Edge(slot.Edge.Source, slot.Edge.Target)
		if !srcOK || !tgtOK || !edgeOK {
			p.deactivate(slot)
			continue
		}

		slot.Progress += slot.Speed * seconds
		if slot.Progress >= 1 {
			p.deactivate(slot)
			continue
		}

		pos := curvePoint(src.Position, tgt.Position, slot.Progress, p.curveLift)
		if !pos.IsFinite() {
			pos = src.Position
			if !pos.IsFinite() {
				pos = graph.Vec3{}
			}
			p.degenerateEdges[slot.Edge] = struct{}{}
		}
		slot.Position = pos
	}

	p.advances++
	if p.advances%uint64(p.reconcileEvery) == 0 {
		p.Reconcile()
	}
}

func (p *Pool) deactivate(slot *Slot) {
	slot.Active = false
	p.active--
	delete(p.index, slot.key)
}

// Reconcile recounts active slots and corrects the incremental counter and
// the identity index. It returns the true active count.
func (p *Pool) Reconcile() int {
	count := 0
	for i := range p.slots {
		if p.slots[i].Active {
			count++
		}
	}

	for key, idx := range p.index {
		if !p.slots[idx].Active || p.slots[idx].key != key {
			delete(p.index, key)
		}
	}

	p.active = count

	return count
}

// VisitActive calls fn for every active slot. The slot must not be retained
// past the call.
func (p *Pool) VisitActive(fn func(s *Slot)) {
	for i := range p.slots {
		if p.slots[i].Active {
			fn(&p.slots[i])
		}
	}
}

// ActiveCount returns the incrementally maintained number of active slots.
func (p *Pool) ActiveCount() int {
	return p.active
}

// Capacity returns the fixed slot count.
func (p *Pool) Capacity() int {
	return len(p.slots)
}

// DroppedNoEdge returns the number of spawns dropped because the referenced
// edge or source node was absent.
func (p *Pool) DroppedNoEdge() uint64 {
	return p.droppedNoEdge
}

// DroppedDuplicate returns the number of spawns dropped as redeliveries.
func (p *Pool) DroppedDuplicate() uint64 {
	return p.droppedDuplicate
}

// DegenerateEdges returns the edges that produced a non-finite curve point
// at least once. Each edge is recorded a single time.
func (p *Pool) DegenerateEdges() []graph.EdgeKey {
	keys := make([]graph.EdgeKey, 0, len(p.degenerateEdges))
	for k := range p.degenerateEdges {
		keys = append(keys, k)
	}

	return keys
}
