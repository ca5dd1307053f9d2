package recording

import (
	"github.com/sparklab/firefly/engine"
	"github.com/sparklab/firefly/graph"
)

// Table names used by the engine hook.
const (
	EventTable = "telemetry_events"
	TickTable  = "tick_stats"
)

const defaultStatsEvery = 60

type eventRow struct {
	Source    string
	Target    string
	EventType string
	Bytes     int64
	Timestamp int64
	Priority  int
}

type tickRow struct {
	Tick             uint64
	Nodes            int
	Edges            int
	ActiveParticles  int
	MalformedDropped uint64
	SpawnsNoEdge     uint64
}

// A Hook subscribes to engine hook positions and records ingested events
// and periodic tick statistics.
type Hook struct {
	recorder   DataRecorder
	statsEvery uint64
}

// NewHook creates the recording hook and its tables.
func NewHook(recorder DataRecorder) *Hook {
	recorder.CreateTable(EventTable, eventRow{})
	recorder.CreateTable(TickTable, tickRow{})

	return &Hook{
		recorder:   recorder,
		statsEvery: defaultStatsEvery,
	}
}

// WithStatsEvery sets how many ticks pass between tick_stats rows.
func (h *Hook) WithStatsEvery(n uint64) *Hook {
	h.statsEvery = n
	return h
}

// Func implements engine.Hook.
func (h *Hook) Func(ctx engine.HookCtx) {
	switch ctx.Pos {
	case engine.HookPosIngest:
		events, ok := ctx.Item.([]graph.Event)
		if !ok {
			return
		}
		for _, ev := range events {
			h.recorder.InsertData(EventTable, eventRow{
				Source:    ev.Source,
				Target:    ev.Target,
				EventType: string(ev.Type),
				Bytes:     ev.Bytes,
				Timestamp: ev.Timestamp.UnixNano(),
				Priority:  int(ev.Priority),
			})
		}
	case engine.HookPosAfterTick:
		stats, ok := ctx.Item.(engine.Stats)
		if !ok || stats.Ticks%h.statsEvery != 0 {
			return
		}
		h.recorder.InsertData(TickTable, tickRow{
			Tick:             stats.Ticks,
			Nodes:            stats.Nodes,
			Edges:            stats.Edges,
			ActiveParticles:  stats.ActiveParticles,
			MalformedDropped: stats.MalformedDropped,
			SpawnsNoEdge:     stats.SpawnsNoEdge,
		})
	}
}
