// Package telemetry owns the streaming connection to the trace collector
// and turns raw frames into graph events.
package telemetry

import (
	"sort"
	"time"

	"github.com/sparklab/firefly/graph"
)

// A Span is one component visit inside a trace.
type Span struct {
	ComponentID string `json:"component_id"`

	// StartTime is epoch milliseconds.
	StartTime float64 `json:"start_time"`

	// Optional enrichment some collectors attach per span.
	SizeBytes int64  `json:"size_bytes,omitempty"`
	Priority  string `json:"priority,omitempty"`
	Weight    float64 `json:"weight,omitempty"`
}

// A Trace is an ordered set of spans sharing a trace id.
type Trace struct {
	TraceID string `json:"trace_id"`
	Spans   []Span `json:"spans"`
}

// A Frame is one message of the telemetry stream.
type Frame struct {
	Type         string             `json:"type"`
	ActiveTraces []Trace            `json:"active_traces"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
}

// Frame types sent by the collector.
const (
	FrameUpdate       = "update"
	FrameInitialState = "initial_state"
)

// Events converts the frame into graph events. Each trace's spans are sorted
// by start time and every consecutive span pair becomes one event from the
// earlier component to the later one.
func (f *Frame) Events() []graph.Event {
	var events []graph.Event

	for _, trace := range f.ActiveTraces {
		spans := make([]Span, 0, len(trace.Spans))
		for _, s := range trace.Spans {
			if s.ComponentID != "" {
				spans = append(spans, s)
			}
		}

		sort.SliceStable(spans, func(i, j int) bool {
			return spans[i].StartTime < spans[j].StartTime
		})

		for i := 0; i+1 < len(spans); i++ {
			src := spans[i]
			tgt := spans[i+1]

			events = append(events, graph.Event{
				Source:     src.ComponentID,
				Target:     tgt.ComponentID,
				Type:       graph.EventDataTransfer,
				Bytes:      tgt.SizeBytes,
				Timestamp:  msToTime(tgt.StartTime),
				Priority:   parsePriority(tgt.Priority),
				Multiplier: tgt.Weight,
			})
		}
	}

	return events
}

func msToTime(ms float64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}

	return time.Unix(0, int64(ms*float64(time.Millisecond)))
}

func parsePriority(s string) graph.Priority {
	switch s {
	case "high":
		return graph.PriorityHigh
	case "low":
		return graph.PriorityLow
	}

	return graph.PriorityNormal
}
