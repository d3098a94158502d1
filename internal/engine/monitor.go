package engine

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tubetune/internal/host"
	"github.com/desertthunder/tubetune/internal/quality"
)

// MonitorInterval is the period of the quality monitor.
const MonitorInterval = time.Second

// Observation is what one monitor tick saw.
type Observation struct {
	VideoID  string
	Previous quality.Level
	Current  quality.Level
	Override bool // the change was attributed to the user
}

// Monitor polls the player's current quality and attributes drift to the user.
//
// Every change seen after the engine settled a video counts as manual, including late
// automatic adjustments by the player; they cannot be told apart from here.
type Monitor struct {
	state    *EngineState
	locator  *Locator
	identify func(ctx context.Context) string
	logger   *log.Logger
}

// NewMonitor creates a monitor. identify resolves the video currently shown.
func NewMonitor(state *EngineState, locator *Locator, identify func(ctx context.Context) string, logger *log.Logger) *Monitor {
	return &Monitor{state: state, locator: locator, identify: identify, logger: logger}
}

// Tick runs one observation. It reports false when nothing changed.
func (m *Monitor) Tick(ctx context.Context) (Observation, bool) {
	if m.state.Marker.Active() {
		return Observation{}, false
	}

	sess := m.state.Session
	if sess == nil {
		return Observation{}, false
	}

	player, ok := m.locator.Locate(ctx)
	if !ok {
		return Observation{}, false
	}

	videoID := m.identify(ctx)
	if videoID == "" || videoID != sess.VideoID {
		return Observation{}, false
	}

	if !player.Supports(ctx, host.CurrentQuality) {
		return Observation{}, false
	}
	current, err := player.PlaybackQuality(ctx)
	if err != nil {
		m.logger.Debug("error getting current quality", "error", err)
		return Observation{}, false
	}
	if current == "" || current == sess.LastKnown {
		return Observation{}, false
	}

	obs := Observation{VideoID: videoID, Previous: sess.LastKnown, Current: current}
	m.logger.Debug("quality change detected", "from", sess.LastKnown, "to", current)

	if sess.AppliedInitial && sess.LastKnown != "" {
		m.logger.Info("manual quality change detected", "video", videoID, "quality", current)
		m.state.Overrides.Remember(videoID, current)
		obs.Override = true
	}

	sess.LastKnown = current
	return obs, true
}
