// Package illumination derives per-node brightness from the particles
// currently touching each node.
package illumination

import "time"

// Envelope and smoothing defaults.
const (
	defaultFloor = 0.1
	defaultLerp  = 0.15

	defaultRamp = 200 * time.Millisecond
	defaultHold = 300 * time.Millisecond
	defaultFall = 500 * time.Millisecond

	midpoint = 0.5

	// Displayed brightness below this with no contributors is dropped
	// from the map.
	pruneBelow = 1e-3
)

// A Contribution is one active particle's claim on node brightness. The
// source node lights up immediately. The target only lights up once the
// particle has passed the midpoint, so arrival rather than departure
// triggers downstream illumination.
type Contribution struct {
	Source    string
	Target    string
	Progress  float64
	SpawnedAt time.Time
}

// A Tracker holds the smoothed displayed brightness of every node with
// recent particle traffic. Not safe for concurrent use.
type Tracker struct {
	floor float64
	lerp  float64
	ramp  time.Duration
	hold  time.Duration
	fall  time.Duration

	displayed map[string]float64
	targets   map[string]float64
}

// NewTracker creates a tracker with the default envelope.
func NewTracker() *Tracker {
	return &Tracker{
		floor:     defaultFloor,
		lerp:      defaultLerp,
		ramp:      defaultRamp,
		hold:      defaultHold,
		fall:      defaultFall,
		displayed: make(map[string]float64),
		targets:   make(map[string]float64),
	}
}

// WithEnvelope overrides the ramp/hold/fall envelope and its floor.
func (t *Tracker) WithEnvelope(
	floor float64,
	ramp, hold, fall time.Duration,
) *Tracker {
	t.floor = floor
	t.ramp = ramp
	t.hold = hold
	t.fall = fall

	return t
}

// WithLerp overrides the frame-to-frame smoothing factor.
func (t *Tracker) WithLerp(lerp float64) *Tracker {
	t.lerp = lerp
	return t
}

// Update recomputes brightness for one tick. The visit function must call
// emit once per active particle. Displayed brightness moves toward the
// per-node envelope maximum by the lerp factor, so it never pops.
func (t *Tracker) Update(
	now time.Time,
	visit func(emit func(c Contribution)),
) {
	clear(t.targets)

	visit(func(c Contribution) {
		value := t.envelope(now.Sub(c.SpawnedAt))

		if value > t.targets[c.Source] {
			t.targets[c.Source] = value
		}
		if c.Progress > midpoint && value > t.targets[c.Target] {
			t.targets[c.Target] = value
		}
	})

	for id := range t.displayed {
		if _, contributing := t.targets[id]; !contributing {
			next := t.displayed[id] * (1 - t.lerp)
			if next < pruneBelow {
				delete(t.displayed, id)
				continue
			}
			t.displayed[id] = next
		}
	}

	for id, goal := range t.targets {
		cur := t.displayed[id]
		t.displayed[id] = cur + (goal-cur)*t.lerp
	}
}

// envelope returns the brightness a single contribution commands at the
// given age: ramp from the floor to full, hold, then fall back to the floor.
func (t *Tracker) envelope(age time.Duration) float64 {
	if age < 0 {
		age = 0
	}

	switch {
	case age < t.ramp:
		f := float64(age) / float64(t.ramp)
		return t.floor + (1-t.floor)*f
	case age < t.ramp+t.hold:
		return 1
	case age < t.ramp+t.hold+t.fall:
		f := float64(age-t.ramp-t.hold) / float64(t.fall)
		return 1 - (1-t.floor)*f
	}

	return t.floor
}

// Brightness returns the displayed brightness of a node. Nodes without
// recent traffic report zero.
func (t *Tracker) Brightness(id string) float64 {
	return t.displayed[id]
}

// Each calls fn for every node with non-zero displayed brightness.
func (t *Tracker) Each(fn func(id string, brightness float64)) {
	for id, b := range t.displayed {
		fn(id, b)
	}
}
