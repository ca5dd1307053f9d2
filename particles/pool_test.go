package particles

import (
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sparklab/firefly/graph"
)

// fakeGraph lets tests add and remove nodes and edges at will.
type fakeGraph struct {
	nodes map[string]*graph.Node
	edges map[graph.EdgeKey]*graph.Edge
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{
		nodes: make(map[string]*graph.Node),
		edges: make(map[graph.EdgeKey]*graph.Edge),
	}
}

func (g *fakeGraph) addNode(id string, pos graph.Vec3) *graph.Node {
	n := &graph.Node{ID: id, Class: graph.Classify(id, ""), Position: pos}
	g.nodes[id] = n
	return n
}

func (g *fakeGraph) addEdge(source, target string) {
	key := graph.EdgeKey{Source: source, Target: target}
	g.edges[key] = &graph.Edge{Key: key}
}

func (g *fakeGraph) Node(id string) (*graph.Node, bool) {
	n, found := g.nodes[id]
	return n, found
}

func (g *fakeGraph) Edge(source, target string) (*graph.Edge, bool) {
	e, found := g.edges[graph.EdgeKey{Source: source, Target: target}]
	return e, found
}

var _ = Describe("Pool", func() {
	var (
		pool *Pool
		g    *fakeGraph
		t0   time.Time
	)

	BeforeEach(func() {
		pool = NewPool(8)
		g = newFakeGraph()
		g.addNode("agent_router", graph.Vec3{X: 0})
		g.addNode("llm_gateway", graph.Vec3{X: 10})
		g.addEdge("agent_router", "llm_gateway")
		t0 = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	})

	makeEvent := func(ts time.Time) graph.Event {
		return graph.Event{
			Source:    "agent_router",
			Target:    "llm_gateway",
			Type:      graph.EventDataTransfer,
			Timestamp: ts,
			Priority:  graph.PriorityNormal,
		}
	}

	It("should spawn a particle on a known edge", func() {
		Expect(pool.Spawn(makeEvent(t0), g)).To(BeTrue())
		Expect(pool.ActiveCount()).To(Equal(1))
	})

	It("should drop a spawn when the edge is missing", func() {
		ev := makeEvent(t0)
		ev.Target = "unknown"

		Expect(pool.Spawn(ev, g)).To(BeFalse())
		Expect(pool.ActiveCount()).To(Equal(0))
		Expect(pool.DroppedNoEdge()).To(Equal(uint64(1)))
	})

	It("should never double-spawn a redelivered event", func() {
		ev := makeEvent(t0)

		Expect(pool.Spawn(ev, g)).To(BeTrue())
		Expect(pool.Spawn(ev, g)).To(BeFalse())
		Expect(pool.ActiveCount()).To(Equal(1))
		Expect(pool.DroppedDuplicate()).To(Equal(uint64(1)))
	})

	It("should retire a particle once its progress reaches 1", func() {
		pool.Spawn(makeEvent(t0), g)

		// Normal priority moves at 0.6 progress per second.
		pool.Advance(time.Second, g)
		Expect(pool.ActiveCount()).To(Equal(1))

		pool.Advance(time.Second, g)
		Expect(pool.ActiveCount()).To(Equal(0))
	})

	It("should let the spawned particle travel the full scenario", func() {
		pool.Spawn(makeEvent(t0), g)
		before := pool.ActiveCount()

		for i := 0; i < 100 && pool.ActiveCount() > 0; i++ {
			pool.Advance(100*time.Millisecond, g)
		}

		Expect(before).To(Equal(1))
		Expect(pool.ActiveCount()).To(Equal(0))
	})

	It("should deactivate an orphaned particle on its very next advance", func() {
		pool.Spawn(makeEvent(t0), g)

		delete(g.nodes, "llm_gateway")

		pool.Advance(time.Millisecond, g)
		Expect(pool.ActiveCount()).To(Equal(0))
	})

	It("should deactivate a particle whose edge disappeared", func() {
		pool.Spawn(makeEvent(t0), g)

		delete(g.edges, graph.EdgeKey{
			Source: "agent_router", Target: "llm_gateway"})

		pool.Advance(time.Millisecond, g)
		Expect(pool.ActiveCount()).To(Equal(0))
	})

	It("should evict the oldest particle when the ring wraps", func() {
		for i := 0; i <= pool.Capacity(); i++ {
			ev := makeEvent(t0.Add(time.Duration(i) * time.Millisecond))
			Expect(pool.Spawn(ev, g)).To(BeTrue())
		}

		Expect(pool.ActiveCount()).To(Equal(pool.Capacity()))

		spawnTimes := map[time.Time]bool{}
		pool.VisitActive(func(s *Slot) {
			spawnTimes[s.SpawnedAt] = true
		})

		Expect(spawnTimes).NotTo(HaveKey(t0))
		Expect(spawnTimes).To(HaveKey(
			t0.Add(time.Duration(pool.Capacity()) * time.Millisecond)))
	})

	It("should hold exactly N particles when N+1 spawn into capacity N", func() {
		big := NewPool(50000)

		for i := 0; i < 50001; i++ {
			ev := makeEvent(t0.Add(time.Duration(i) * time.Microsecond))
			Expect(big.Spawn(ev, g)).To(BeTrue())
		}

		Expect(big.ActiveCount()).To(Equal(50000))
		Expect(big.Reconcile()).To(Equal(50000))
	})

	It("should move the particle along a curved path", func() {
		pool.Spawn(makeEvent(t0), g)
		pool.Advance(500*time.Millisecond, g)

		var pos graph.Vec3
		pool.VisitActive(func(s *Slot) { pos = s.Position })

		Expect(pos.X).To(BeNumerically(">", 0))
		Expect(pos.X).To(BeNumerically("<", 10))
		// The control point bends the path off the chord.
		Expect(pos.Length()).To(BeNumerically(">", math.Abs(pos.X)))
	})

	It("should scale size with the square root of the event weight", func() {
		ev := makeEvent(t0)
		ev.Multiplier = 9

		pool.Spawn(ev, g)

		var size float64
		pool.VisitActive(func(s *Slot) { size = s.Size })
		Expect(size).To(BeNumerically("~", 3, 1e-9))
	})

	It("should pick speed from the priority table", func() {
		high := makeEvent(t0)
		high.Priority = graph.PriorityHigh
		low := makeEvent(t0.Add(time.Millisecond))
		low.Priority = graph.PriorityLow

		pool.Spawn(high, g)
		pool.Spawn(low, g)

		speeds := map[float64]bool{}
		pool.VisitActive(func(s *Slot) { speeds[s.Speed] = true })

		Expect(speeds).To(HaveKey(DefaultSpeedTable().High))
		Expect(speeds).To(HaveKey(DefaultSpeedTable().Low))
	})

	It("should clamp non-finite curve output and record the edge once", func() {
		g.addNode("nan_source", graph.Vec3{X: math.NaN()})
		g.addEdge("nan_source", "llm_gateway")

		ev := makeEvent(t0)
		ev.Source = "nan_source"

		pool.Spawn(ev, g)
		pool.Advance(time.Millisecond, g)
		pool.Advance(time.Millisecond, g)

		pool.VisitActive(func(s *Slot) {
			Expect(s.Position.IsFinite()).To(BeTrue())
		})
		Expect(pool.DegenerateEdges()).To(HaveLen(1))
	})

	Describe("reconciliation", func() {
		It("should correct a drifted active counter", func() {
			pool.Spawn(makeEvent(t0), g)
			pool.Spawn(makeEvent(t0.Add(time.Millisecond)), g)

			pool.active = 7

			Expect(pool.Reconcile()).To(Equal(2))
			Expect(pool.ActiveCount()).To(Equal(2))
		})

		It("should reconcile automatically on the configured cadence", func() {
			pool = pool.WithReconcileEvery(3)

			pool.Spawn(makeEvent(t0), g)
			pool.active = 5

			pool.Advance(time.Millisecond, g)
			pool.Advance(time.Millisecond, g)
			Expect(pool.ActiveCount()).To(Equal(5))

			pool.Advance(time.Millisecond, g)
			Expect(pool.ActiveCount()).To(Equal(1))
		})
	})
})
