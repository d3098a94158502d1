package engine

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tubetune/internal/host"
	"github.com/desertthunder/tubetune/internal/quality"
)

// SelfWriteLease is how long the monitor ignores drift after the engine sets a quality.
const SelfWriteLease = 2 * time.Second

// setStrategy is one way of asking the player for a quality.
type setStrategy struct {
	name       string
	capability host.Capability
	set        func(ctx context.Context, p host.Player, l quality.Level) error
}

// strategies run in order; each supported one is tried.
var strategies = []setStrategy{
	{
		name:       "range",
		capability: host.SetQualityRange,
		set: func(ctx context.Context, p host.Player, l quality.Level) error {
			return p.SetPlaybackQualityRange(ctx, l, l)
		},
	},
	{
		name:       "single",
		capability: host.SetQuality,
		set: func(ctx context.Context, p host.Player, l quality.Level) error {
			return p.SetPlaybackQuality(ctx, l)
		},
	},
}

// Applier sets a quality on the player and marks the write as self-initiated.
type Applier struct {
	state  *EngineState
	lease  time.Duration
	logger *log.Logger
}

// NewApplier creates an applier; a zero lease means [SelfWriteLease].
func NewApplier(state *EngineState, lease time.Duration, logger *log.Logger) *Applier {
	if lease <= 0 {
		lease = SelfWriteLease
	}
	return &Applier{state: state, lease: lease, logger: logger}
}

// Apply asks p for level using every available strategy.
//
// One successful strategy is enough. Failures are logged and never returned.
func (a *Applier) Apply(ctx context.Context, p host.Player, level quality.Level) bool {
	if p == nil || level == "" {
		return false
	}

	a.logger.Debug("setting quality", "quality", level)
	a.state.Marker.Hold()

	ok := false
	for _, s := range strategies {
		if !p.Supports(ctx, s.capability) {
			continue
		}
		if err := s.set(ctx, p, level); err != nil {
			a.logger.Debug("set strategy failed", "strategy", s.name, "error", err)
			continue
		}
		a.logger.Debug("set strategy succeeded", "strategy", s.name)
		ok = true
	}

	if !ok {
		a.state.Marker.Release()
		return false
	}

	if a.state.Session != nil {
		a.state.Session.LastKnown = level
	}
	a.state.Marker.Extend(a.lease)
	return true
}
