package engine

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tubetune/internal/models"
	"github.com/desertthunder/tubetune/internal/quality"
	"github.com/desertthunder/tubetune/internal/shared"
)

// LoopState is the phase of the per-session search.
type LoopState int

const (
	Idle LoopState = iota
	Searching
	Settled
	GaveUp
)

func (s LoopState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Searching:
		return "searching"
	case Settled:
		return "settled"
	case GaveUp:
		return "gave_up"
	default:
		return ""
	}
}

// Finished reports whether the search has ended one way or the other.
func (s LoopState) Finished() bool {
	return s == Settled || s == GaveUp
}

// AttemptResult describes one attempt of the search.
type AttemptResult struct {
	Attempt int
	State   LoopState
	Outcome models.Outcome // set once State is finished
	Quality quality.Level
	Err     error // why the attempt made no progress; nil on success or skip
	Stale   bool  // the session was replaced or the search already ended
}

// Reconciler runs the bounded search for a usable quality on the live session.
type Reconciler struct {
	state    *EngineState
	locator  *Locator
	applier  *Applier
	logger   *log.Logger
	session  *VideoSession
	loop     LoopState
	attempts int
}

// NewReconciler creates an idle reconciler.
func NewReconciler(state *EngineState, locator *Locator, applier *Applier, logger *log.Logger) *Reconciler {
	return &Reconciler{state: state, locator: locator, applier: applier, logger: logger}
}

// State returns the current loop phase.
func (r *Reconciler) State() LoopState { return r.loop }

// Attempts returns how many attempts the current search has made.
func (r *Reconciler) Attempts() int { return r.attempts }

// Begin starts a fresh search on sess with a full attempt budget.
func (r *Reconciler) Begin(sess *VideoSession) {
	r.session = sess
	r.loop = Searching
	r.attempts = 0
}

// Reset drops back to idle without a session.
func (r *Reconciler) Reset() {
	r.session = nil
	r.loop = Idle
	r.attempts = 0
}

// Attempt makes one attempt and moves the loop to Settled or GaveUp when it finishes.
func (r *Reconciler) Attempt(ctx context.Context) AttemptResult {
	if r.loop != Searching || !r.state.Current(r.session) {
		return AttemptResult{Attempt: r.attempts, State: r.loop, Stale: true}
	}

	r.attempts++
	res := r.try(ctx)
	res.Attempt = r.attempts

	if res.State == Searching && r.attempts >= r.state.Config.MaxAttempts {
		r.logger.Warn("giving up on quality", "video", r.session.VideoID, "attempts", r.attempts)
		res.State = GaveUp
		res.Outcome = models.OutcomeGaveUp
		res.Err = fmt.Errorf("%w: %d attempts", shared.ErrAttemptsExhausted, r.attempts)
	}

	r.loop = res.State
	return res
}

func (r *Reconciler) try(ctx context.Context) AttemptResult {
	cfg := r.state.Config
	if !cfg.Enabled {
		return AttemptResult{State: Searching}
	}

	player, ok := r.locator.Locate(ctx)
	if !ok {
		r.logger.Debug("player not found yet", "attempt", r.attempts)
		return AttemptResult{State: Searching, Err: shared.ErrPlayerNotFound}
	}

	levels, err := player.AvailableQualityLevels(ctx)
	if err != nil {
		r.logger.Debug("error getting qualities", "error", err)
		return AttemptResult{State: Searching, Err: fmt.Errorf("%w: %w", shared.ErrNoQualities, err)}
	}
	if len(levels) == 0 {
		r.logger.Debug("no qualities available yet", "attempt", r.attempts)
		return AttemptResult{State: Searching, Err: shared.ErrNoQualities}
	}
	r.logger.Debug("available qualities", "levels", levels)

	videoID := r.session.VideoID
	target, ok := quality.Choose(levels, videoID, r.state.Overrides, cfg.Quality)
	if !ok {
		return AttemptResult{State: Searching, Err: shared.ErrNoQualities}
	}

	if override, has := r.state.Overrides.Get(videoID); has && override == target {
		r.logger.Debug("manual override in effect", "video", videoID, "quality", target)
		return AttemptResult{State: Settled, Outcome: models.OutcomeOverride, Quality: target}
	}

	if !r.applier.Apply(ctx, player, target) {
		return AttemptResult{State: Searching, Quality: target, Err: shared.ErrApplyFailed}
	}

	r.session.AppliedInitial = true
	r.logger.Info("applied quality", "video", videoID, "quality", target, "attempt", r.attempts)
	return AttemptResult{State: Settled, Outcome: models.OutcomeSettled, Quality: target}
}
