package graph

import "time"

// EventType categorizes a cross-component call.
type EventType string

// The event types emitted by the telemetry adapter.
const (
	EventDataTransfer EventType = "data_transfer"
	EventRequest      EventType = "request"
	EventResponse     EventType = "response"
	EventError        EventType = "error"
)

// Priority of a telemetry event. It selects the particle speed.
type Priority int

// The priorities, slowest first.
const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
)

// An Event is one observed call from a source component to a target
// component.
type Event struct {
	Source    string
	Target    string
	Type      EventType
	Bytes     int64
	Timestamp time.Time
	Priority  Priority

	// Multiplier is the weight of the operation. Zero means 1.
	Multiplier float64
}

// Weight returns the spawn multiplier, defaulting to 1.
func (e Event) Weight() float64 {
	if e.Multiplier <= 0 {
		return 1
	}

	return e.Multiplier
}

// Valid reports whether the event carries the fields the store requires.
func (e Event) Valid() bool {
	return e.Source != "" && e.Target != "" && !e.Timestamp.IsZero()
}
