// Package engine drives the telemetry-fed graph and particle simulation.
//
// One engine instance is explicitly constructed and owned by the host
// application. A single goroutine runs the render tick and the decay timer.
// Telemetry arrives asynchronously through Deliver, is buffered, and is
// drained at the start of the next tick, so the store, pool, and layout are
// only ever mutated from the tick goroutine.
package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sparklab/firefly/graph"
	"github.com/sparklab/firefly/illumination"
	"github.com/sparklab/firefly/layout"
	"github.com/sparklab/firefly/particles"
)

// An Engine owns the canonical graph state, the layout cache, the particle
// pool, and the illumination tracker.
type Engine struct {
	HookableBase

	cfg Config
	log *zap.Logger

	store  *graph.Store
	layout *layout.Engine
	pool   *particles.Pool
	illum  *illumination.Tracker

	pendingMu sync.Mutex
	pending   []graph.Event

	stateMu       sync.Mutex
	positions     map[string]graph.Vec3
	layoutVersion uint64
	tickCount     uint64

	loggedDegenerate map[string]struct{}
}

// New creates an engine from a validated configuration.
func New(cfg Config, logger *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	store := graph.NewStore().
		WithSmoothing(cfg.SmoothingAlpha).
		WithDecay(cfg.DecayAfter, cfg.DecayFactor, cfg.IdleBelow)

	pool := particles.NewPool(cfg.PoolCapacity).
		WithSpeeds(particles.SpeedTable{
			Low:    cfg.SpeedLow,
			Normal: cfg.SpeedNormal,
			High:   cfg.SpeedHigh,
		}).
		WithCurveLift(cfg.CurveLift).
		WithReconcileEvery(cfg.ReconcileEvery)

	e := &Engine{
		cfg:   cfg,
		log:   logger,
		store: store,
		layout: layout.NewEngine(layout.ShellRadii{
			Core:       cfg.ShellRadiusCore,
			Memory:     cfg.ShellRadiusMemory,
			Perception: cfg.ShellRadiusPerception,
		}),
		pool:             pool,
		illum:            illumination.NewTracker().WithLerp(cfg.BrightnessLerp),
		positions:        make(map[string]graph.Vec3),
		loggedDegenerate: make(map[string]struct{}),
	}

	return e, nil
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

// Deliver buffers telemetry events for the next tick. It is the only method
// safe to call from other goroutines.
func (e *Engine) Deliver(events []graph.Event) {
	if len(events) == 0 {
		return
	}

	e.pendingMu.Lock()
	e.pending = append(e.pending, events...)
	e.pendingMu.Unlock()
}

// Seed inserts the static topology fetched at startup, before live events
// arrive.
func (e *Engine) Seed(nodes []SeedNode, edges []SeedEdge) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	for _, n := range nodes {
		e.store.SeedNode(n.ID, n.Label, n.Subsystem)
	}
	for _, ed := range edges {
		e.store.SeedEdge(ed.Source, ed.Target)
	}
}

// A SeedNode describes one node of the static topology.
type SeedNode struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Subsystem string `json:"subsystem"`
}

// A SeedEdge describes one directed edge of the static topology.
type SeedEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Run drives the render tick and the decay timer until the context is
// canceled. Canceling the context stops both timers and leaves no dangling
// goroutines.
func (e *Engine) Run(ctx context.Context) error {
	tick := time.NewTicker(e.cfg.TickInterval())
	defer tick.Stop()

	decay := time.NewTicker(e.cfg.DecayInterval)
	defer decay.Stop()

	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-tick.C:
			e.Step(now, now.Sub(last))
			last = now
		case now := <-decay.C:
			e.DecayPass(now)
		}
	}
}

// Step executes one render tick: drain buffered telemetry, apply it to the
// store, recompute the layout if the node set changed, spawn and advance
// particles, and refresh illumination. Hosts that drive frames themselves
// call Step directly instead of Run.
func (e *Engine) Step(now time.Time, dt time.Duration) {
	e.pendingMu.Lock()
	batch := e.pending
	e.pending = nil
	e.pendingMu.Unlock()

	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	e.InvokeHook(HookCtx{Domain: e, Pos: HookPosBeforeTick, Item: now})

	res := e.store.Ingest(batch)
	if res.MalformedDropped > 0 {
		e.log.Debug("dropped malformed telemetry events",
			zap.Int("count", res.MalformedDropped))
	}
	if e.NumHooks() > 0 && len(res.Accepted) > 0 {
		e.InvokeHook(HookCtx{
			Domain: e,
			Pos:    HookPosIngest,
			Item:   res.Accepted,
			Detail: res.MalformedDropped,
		})
	}

	if e.store.Version() != e.layoutVersion {
		e.relayout()
	}

	for _, ev := range res.Accepted {
		if e.pool.Spawn(ev, e.store) && e.NumHooks() > 0 {
			e.InvokeHook(HookCtx{Domain: e, Pos: HookPosSpawn, Item: ev})
		}
	}

	e.pool.Advance(dt, e.store)

	e.illum.Update(now, func(emit func(c illumination.Contribution)) {
		e.pool.VisitActive(func(s *particles.Slot) {
			emit(illumination.Contribution{
				Source:    s.Edge.Source,
				Target:    s.Edge.Target,
				Progress:  s.Progress,
				SpawnedAt: s.SpawnedAt,
			})
		})
	})

	e.tickCount++

	if e.NumHooks() > 0 {
		e.InvokeHook(HookCtx{
			Domain: e,
			Pos:    HookPosAfterTick,
			Item:   e.statsLocked(),
		})
	}
}

// DecayPass dims nodes that have not seen traffic recently. Run invokes it
// on its own timer, decoupled from the render tick.
func (e *Engine) DecayPass(now time.Time) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	e.store.Decay(now)

	if e.NumHooks() > 0 {
		e.InvokeHook(HookCtx{Domain: e, Pos: HookPosDecay, Item: now})
	}
}

// relayout recomputes node positions after a node-set change. Degenerate
// coordinates are clamped by the layout engine; each offending id is logged
// once so a bad id cannot flood the log.
func (e *Engine) relayout() {
	nodes := e.store.Nodes()

	positions, degenerate := e.layout.Compute(nodes)

	for _, n := range nodes {
		n.Position = positions[n.ID]
	}
	e.positions = positions
	e.layoutVersion = e.store.Version()

	for _, id := range degenerate {
		if _, seen := e.loggedDegenerate[id]; seen {
			continue
		}
		e.loggedDegenerate[id] = struct{}{}
		e.log.Warn("layout produced non-finite position, clamped to origin",
			zap.String("node", id))
	}
}
