package graph

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Store", func() {
	var (
		store *Store
		t0    time.Time
	)

	BeforeEach(func() {
		store = NewStore()
		t0 = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	})

	makeEvent := func(source, target string, ts time.Time) Event {
		return Event{
			Source:    source,
			Target:    target,
			Type:      EventDataTransfer,
			Bytes:     4096,
			Timestamp: ts,
			Priority:  PriorityNormal,
		}
	}

	It("should create both endpoint nodes and the directed edge", func() {
		res := store.Ingest([]Event{
			makeEvent("agent_router", "llm_gateway", t0),
		})

		Expect(res.Accepted).To(HaveLen(1))
		Expect(res.NodeSetChanged).To(BeTrue())

		src, found := store.Node("agent_router")
		Expect(found).To(BeTrue())
		Expect(src.LastEvent).To(Equal(t0))

		tgt, found := store.Node("llm_gateway")
		Expect(found).To(BeTrue())
		Expect(tgt.LastEvent).To(Equal(t0))

		edge, found := store.Edge("agent_router", "llm_gateway")
		Expect(found).To(BeTrue())
		Expect(edge.LastEvent).To(Equal(t0))
		Expect(edge.LastEventType).To(Equal(EventDataTransfer))
	})

	It("should keep opposite directions as distinct edges", func() {
		store.Ingest([]Event{
			makeEvent("a_router", "b_cache", t0),
			makeEvent("b_cache", "a_router", t0.Add(time.Millisecond)),
		})

		Expect(store.EdgeCount()).To(Equal(2))

		_, found := store.Edge("a_router", "b_cache")
		Expect(found).To(BeTrue())
		_, found = store.Edge("b_cache", "a_router")
		Expect(found).To(BeTrue())
	})

	It("should always have both endpoints present for every edge", func() {
		events := []Event{
			makeEvent("agent_router", "llm_gateway", t0),
			makeEvent("llm_gateway", "vector_index", t0.Add(time.Millisecond)),
			makeEvent("vision_input", "agent_router", t0.Add(2*time.Millisecond)),
			makeEvent("agent_router", "llm_gateway", t0.Add(3*time.Millisecond)),
		}
		store.Ingest(events)

		for _, e := range store.Edges() {
			_, found := store.Node(e.Key.Source)
			Expect(found).To(BeTrue())
			_, found = store.Node(e.Key.Target)
			Expect(found).To(BeTrue())
		}
	})

	It("should drop malformed events without creating state", func() {
		res := store.Ingest([]Event{
			{Source: "", Target: "llm_gateway", Timestamp: t0},
			{Source: "agent_router", Target: "", Timestamp: t0},
			{Source: "agent_router", Target: "llm_gateway"},
		})

		Expect(res.Accepted).To(BeEmpty())
		Expect(res.MalformedDropped).To(Equal(3))
		Expect(store.NodeCount()).To(Equal(0))
		Expect(store.MalformedDropped()).To(Equal(uint64(3)))
	})

	It("should bump the version only when the node set changes", func() {
		store.Ingest([]Event{makeEvent("agent_router", "llm_gateway", t0)})
		v := store.Version()

		store.Ingest([]Event{
			makeEvent("agent_router", "llm_gateway", t0.Add(time.Millisecond)),
		})
		Expect(store.Version()).To(Equal(v))

		store.Ingest([]Event{
			makeEvent("agent_router", "vector_index", t0.Add(2*time.Millisecond)),
		})
		Expect(store.Version()).To(Equal(v + 1))
	})

	It("should smooth utilization instead of jumping", func() {
		big := Event{
			Source:    "agent_router",
			Target:    "llm_gateway",
			Type:      EventDataTransfer,
			Bytes:     1 << 20,
			Timestamp: t0,
		}
		store.Ingest([]Event{big})

		n, _ := store.Node("agent_router")
		Expect(n.Utilization).To(BeNumerically("~", 0.1, 1e-9))
	})

	Describe("decay", func() {
		It("should dim nodes unseen for longer than the threshold", func() {
			store.Ingest([]Event{makeEvent("agent_router", "llm_gateway", t0)})

			n, _ := store.Node("agent_router")
			n.Utilization = 0.5

			store.Decay(t0.Add(2 * time.Second))
			Expect(n.Utilization).To(BeNumerically("~", 0.5*0.95, 1e-9))

			store.Decay(t0.Add(4 * time.Second))
			Expect(n.Utilization).To(BeNumerically("~", 0.5*0.95*0.95, 1e-9))
		})

		It("should leave recently active nodes alone", func() {
			store.Ingest([]Event{makeEvent("agent_router", "llm_gateway", t0)})

			n, _ := store.Node("agent_router")
			n.Utilization = 0.5

			store.Decay(t0.Add(500 * time.Millisecond))
			Expect(n.Utilization).To(Equal(0.5))
		})

		It("should flip a node to idle once utilization is low enough", func() {
			store.Ingest([]Event{makeEvent("agent_router", "llm_gateway", t0)})

			n, _ := store.Node("agent_router")
			n.Utilization = 0.102

			store.Decay(t0.Add(2 * time.Second))
			Expect(n.State).To(Equal(StateIdle))
		})

		It("should never delete a node", func() {
			store.Ingest([]Event{makeEvent("agent_router", "llm_gateway", t0)})

			for i := 0; i < 100; i++ {
				store.Decay(t0.Add(time.Duration(i+2) * time.Second))
			}

			Expect(store.NodeCount()).To(Equal(2))
		})
	})

	Describe("seeding", func() {
		It("should seed nodes and edges from a static topology", func() {
			store.SeedNode("agent_router", "Router", "core")
			store.SeedNode("llm_gateway", "Gateway", "core")
			store.SeedEdge("agent_router", "llm_gateway")

			Expect(store.NodeCount()).To(Equal(2))
			Expect(store.EdgeCount()).To(Equal(1))

			n, _ := store.Node("agent_router")
			Expect(n.State).To(Equal(StateIdle))
		})

		It("should drop seeded edges with missing endpoints", func() {
			store.SeedNode("agent_router", "", "")
			store.SeedEdge("agent_router", "missing")

			Expect(store.EdgeCount()).To(Equal(0))
			Expect(store.MalformedDropped()).To(Equal(uint64(1)))
		})

		It("should not overwrite live nodes when seeding late", func() {
			store.Ingest([]Event{makeEvent("agent_router", "llm_gateway", t0)})
			store.SeedNode("agent_router", "Other Label", "")

			n, _ := store.Node("agent_router")
			Expect(n.Label).To(Equal("agent_router"))
			Expect(n.LastEvent).To(Equal(t0))
		})
	})
})
