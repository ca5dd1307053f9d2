package engine

import (
	"go.uber.org/zap"

	"github.com/sparklab/firefly/graph"
)

// A LogHook writes a debug line at the ingest and after-tick positions.
// Attach it when diagnosing tick behavior.
type LogHook struct {
	log *zap.SugaredLogger
}

// NewLogHook creates a hook logging through the given logger.
func NewLogHook(logger *zap.Logger) *LogHook {
	return &LogHook{log: logger.Sugar()}
}

// Func implements Hook.
func (h *LogHook) Func(ctx HookCtx) {
	switch ctx.Pos {
	case HookPosIngest:
		events, _ := ctx.Item.([]graph.Event)
		h.log.Debugw("applied telemetry batch",
			"accepted", len(events), "malformed", ctx.Detail)
	case HookPosAfterTick:
		stats, ok := ctx.Item.(Stats)
		if !ok || stats.Ticks%600 != 0 {
			return
		}
		h.log.Debugw("tick",
			"ticks", stats.Ticks,
			"nodes", stats.Nodes,
			"edges", stats.Edges,
			"particles", stats.ActiveParticles)
	}
}
