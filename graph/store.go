package graph

import (
	"sort"
	"time"
)

// Default smoothing and decay parameters. They can be overridden through the
// With* methods at construction time.
const (
	defaultSmoothingAlpha = 0.1
	defaultDecayAfter     = 1000 * time.Millisecond
	defaultDecayFactor    = 0.95
	defaultIdleBelow      = 0.1

	// Byte size at which a single event saturates the utilization sample.
	utilizationScaleBytes = 64 * 1024
)

// An IngestResult reports what a single Ingest batch did to the store.
type IngestResult struct {
	// Accepted holds the events that were applied, in arrival order. The
	// caller forwards them to the particle pool for spawning.
	Accepted []Event

	MalformedDropped int
	NodeSetChanged   bool
}

// A Store is the canonical map of nodes and directed edges. It is not safe
// for concurrent use. All mutation must come from the single tick driver.
type Store struct {
	nodes map[string]*Node
	edges map[EdgeKey]*Edge

	smoothingAlpha float64
	decayAfter     time.Duration
	decayFactor    float64
	idleBelow      float64

	version          uint64
	malformedDropped uint64
}

// NewStore creates an empty store with default smoothing and decay
// parameters.
func NewStore() *Store {
	return &Store{
		nodes:          make(map[string]*Node),
		edges:          make(map[EdgeKey]*Edge),
		smoothingAlpha: defaultSmoothingAlpha,
		decayAfter:     defaultDecayAfter,
		decayFactor:    defaultDecayFactor,
		idleBelow:      defaultIdleBelow,
	}
}

// WithSmoothing sets the exponential smoothing factor applied to throughput
// and utilization samples.
func (s *Store) WithSmoothing(alpha float64) *Store {
	s.smoothingAlpha = alpha
	return s
}

// WithDecay sets the inactivity threshold, the per-pass decay factor, and
// the utilization below which a node flips to idle.
func (s *Store) WithDecay(
	after time.Duration,
	factor float64,
	idleBelow float64,
) *Store {
	s.decayAfter = after
	s.decayFactor = factor
	s.idleBelow = idleBelow

	return s
}

// Ingest applies a batch of telemetry events as one atomic update. Malformed
// events are dropped and counted, never returned as errors. Consumers only
// observe the store between Ingest calls, so a batch is never visible
// half-applied.
func (s *Store) Ingest(events []Event) IngestResult {
	res := IngestResult{}

	for _, ev := range events {
		if !ev.Valid() {
			s.malformedDropped++
			res.MalformedDropped++
			continue
		}

		if s.upsertNode(ev.Source, ev) {
			res.NodeSetChanged = true
		}
		if s.upsertNode(ev.Target, ev) {
			res.NodeSetChanged = true
		}
		s.upsertEdge(ev)

		res.Accepted = append(res.Accepted, ev)
	}

	if res.NodeSetChanged {
		s.version++
	}

	return res
}

func (s *Store) upsertNode(id string, ev Event) (created bool) {
	n, found := s.nodes[id]
	if !found {
		n = &Node{
			ID:    id,
			Label: id,
			Class: Classify(id, ""),
			State: StateActive,
		}
		s.nodes[id] = n
		created = true
	}

	sample := float64(ev.Bytes) / utilizationScaleBytes
	if sample > 1 {
		sample = 1
	}

	a := s.smoothingAlpha
	n.Utilization = clamp01(n.Utilization*(1-a) + sample*a)
	n.Throughput = n.Throughput*(1-a) + float64(ev.Bytes)*a

	if ev.Timestamp.After(n.LastEvent) {
		n.LastEvent = ev.Timestamp
	}

	switch {
	case ev.Type == EventError && id == ev.Target:
		n.State = StateError
	case n.Utilization > 0.9:
		n.State = StateOverloaded
	default:
		n.State = StateActive
	}

	return created
}

func (s *Store) upsertEdge(ev Event) {
	key := EdgeKey{Source: ev.Source, Target: ev.Target}

	e, found := s.edges[key]
	if !found {
		e = &Edge{Key: key}
		s.edges[key] = e
	}

	a := s.smoothingAlpha
	sample := float64(ev.Bytes) / utilizationScaleBytes
	if sample > 1 {
		sample = 1
	}

	e.Bandwidth = clamp01(e.Bandwidth*(1-a) + sample*a)
	e.LastEventType = ev.Type
	if ev.Timestamp.After(e.LastEvent) {
		e.LastEvent = ev.Timestamp
	}
	e.Highlighted = ev.Priority == PriorityHigh
}

// Decay reduces the recorded activity of every node that has not seen an
// event recently. It runs on its own timer, independent of the render tick.
// Nodes are never deleted, only dimmed.
func (s *Store) Decay(now time.Time) {
	for _, n := range s.nodes {
		if now.Sub(n.LastEvent) <= s.decayAfter {
			continue
		}

		n.Utilization *= s.decayFactor
		if n.Utilization < s.idleBelow && n.State != StateError {
			n.State = StateIdle
		}
	}
}

// SeedNode inserts a node from the static topology without recording any
// activity. Existing nodes are left untouched.
func (s *Store) SeedNode(id, label, subsystem string) {
	if _, found := s.nodes[id]; found {
		return
	}
	if id == "" {
		s.malformedDropped++
		return
	}

	if label == "" {
		label = id
	}

	s.nodes[id] = &Node{
		ID:        id,
		Label:     label,
		Subsystem: subsystem,
		Class:     Classify(id, subsystem),
		State:     StateIdle,
	}
	s.version++
}

// SeedEdge inserts an edge from the static topology. Both endpoints must
// already exist, otherwise the edge is dropped.
func (s *Store) SeedEdge(source, target string) {
	if _, found := s.nodes[source]; !found {
		s.malformedDropped++
		return
	}
	if _, found := s.nodes[target]; !found {
		s.malformedDropped++
		return
	}

	key := EdgeKey{Source: source, Target: target}
	if _, found := s.edges[key]; found {
		return
	}

	s.edges[key] = &Edge{Key: key}
}

// Node returns the node with the given id.
func (s *Store) Node(id string) (*Node, bool) {
	n, found := s.nodes[id]
	return n, found
}

// Edge returns the directed edge from source to target.
func (s *Store) Edge(source, target string) (*Edge, bool) {
	e, found := s.edges[EdgeKey{Source: source, Target: target}]
	return e, found
}

// Nodes returns all nodes sorted by id.
func (s *Store) Nodes() []*Node {
	nodes := make([]*Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		nodes = append(nodes, n)
	}

	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	return nodes
}

// Edges returns all edges sorted by key.
func (s *Store) Edges() []*Edge {
	edges := make([]*Edge, 0, len(s.edges))
	for _, e := range s.edges {
		edges = append(edges, e)
	}

	sort.Slice(edges, func(i, j int) bool {
		return edges[i].Key.String() < edges[j].Key.String()
	})

	return edges
}

// NodeCount returns the number of nodes in the store.
func (s *Store) NodeCount() int {
	return len(s.nodes)
}

// EdgeCount returns the number of directed edges in the store.
func (s *Store) EdgeCount() int {
	return len(s.edges)
}

// Version increases every time the node set changes. The layout engine only
// reruns when this moves.
func (s *Store) Version() uint64 {
	return s.version
}

// MalformedDropped returns the number of events dropped for missing fields.
func (s *Store) MalformedDropped() uint64 {
	return s.malformedDropped
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}

	return v
}
