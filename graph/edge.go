package graph

import "time"

// An EdgeKey identifies a directed edge. Traffic in each direction between
// the same two nodes is a distinct edge record.
type EdgeKey struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// String returns the key in "source->target" form.
func (k EdgeKey) String() string {
	return k.Source + "->" + k.Target
}

// An Edge records the most recent traffic between an ordered pair of nodes.
type Edge struct {
	Key EdgeKey

	LastEventType EventType
	LastEvent     time.Time
	Bandwidth     float64
	Highlighted   bool
}
