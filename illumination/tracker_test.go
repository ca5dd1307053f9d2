package illumination

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Tracker", func() {
	var (
		tracker *Tracker
		t0      time.Time
	)

	BeforeEach(func() {
		tracker = NewTracker()
		t0 = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	})

	update := func(now time.Time, contributions ...Contribution) {
		tracker.Update(now, func(emit func(c Contribution)) {
			for _, c := range contributions {
				emit(c)
			}
		})
	}

	It("should light the source immediately", func() {
		update(t0, Contribution{
			Source: "agent_router", Target: "llm_gateway",
			Progress: 0.01, SpawnedAt: t0,
		})

		Expect(tracker.Brightness("agent_router")).To(BeNumerically(">", 0))
	})

	It("should not light the target before the midpoint", func() {
		update(t0, Contribution{
			Source: "agent_router", Target: "llm_gateway",
			Progress: 0.4, SpawnedAt: t0,
		})

		Expect(tracker.Brightness("llm_gateway")).To(BeZero())
	})

	It("should light the target once progress passes the midpoint", func() {
		update(t0, Contribution{
			Source: "agent_router", Target: "llm_gateway",
			Progress: 0.6, SpawnedAt: t0,
		})

		Expect(tracker.Brightness("llm_gateway")).To(BeNumerically(">", 0))
	})

	Describe("envelope", func() {
		It("should start at the floor", func() {
			Expect(tracker.envelope(0)).To(BeNumerically("~", 0.1, 1e-9))
		})

		It("should ramp up to full brightness", func() {
			Expect(tracker.envelope(100 * time.Millisecond)).
				To(BeNumerically("~", 0.55, 1e-9))
			Expect(tracker.envelope(200 * time.Millisecond)).
				To(BeNumerically("~", 1.0, 1e-9))
		})

		It("should hold at full brightness", func() {
			Expect(tracker.envelope(350 * time.Millisecond)).To(Equal(1.0))
		})

		It("should fall back toward the floor", func() {
			Expect(tracker.envelope(750 * time.Millisecond)).
				To(BeNumerically("~", 0.55, 1e-9))
			Expect(tracker.envelope(2 * time.Second)).
				To(BeNumerically("~", 0.1, 1e-9))
		})
	})

	It("should smooth brightness toward the envelope, never popping", func() {
		c := Contribution{
			Source: "agent_router", Target: "llm_gateway",
			Progress: 0.1, SpawnedAt: t0,
		}

		now := t0.Add(250 * time.Millisecond) // hold phase, envelope = 1
		update(now, c)
		first := tracker.Brightness("agent_router")
		Expect(first).To(BeNumerically("~", 0.15, 1e-9))

		update(now, c)
		second := tracker.Brightness("agent_router")
		Expect(second).To(BeNumerically(">", first))
		Expect(second).To(BeNumerically("<", 1.0))
	})

	It("should take the maximum over all contributing particles", func() {
		dim := Contribution{
			Source: "agent_router", Target: "a_sink",
			Progress: 0.1, SpawnedAt: t0.Add(-2 * time.Second),
		}
		bright := Contribution{
			Source: "agent_router", Target: "b_sink",
			Progress: 0.1, SpawnedAt: t0.Add(-250 * time.Millisecond),
		}

		update(t0, dim, bright)

		// The hold-phase particle dominates the long-faded one.
		Expect(tracker.Brightness("agent_router")).
			To(BeNumerically("~", 0.15, 1e-9))
	})

	It("should fade out and forget nodes once particles are gone", func() {
		update(t0, Contribution{
			Source: "agent_router", Target: "llm_gateway",
			Progress: 0.9, SpawnedAt: t0,
		})
		Expect(tracker.Brightness("agent_router")).To(BeNumerically(">", 0))

		for i := 0; i < 100; i++ {
			update(t0.Add(time.Duration(i+1) * 16 * time.Millisecond))
		}

		Expect(tracker.Brightness("agent_router")).To(BeZero())
	})
})
