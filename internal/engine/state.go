package engine

import (
	"time"

	"github.com/desertthunder/tubetune/internal/quality"
	"github.com/desertthunder/tubetune/internal/shared"
)

// VideoSession is the per-video reconciliation state.
//
// A session is never reset in place: identity changes replace it through [EngineState.NewSession].
type VideoSession struct {
	ID             string
	VideoID        string
	LastKnown      quality.Level // empty until the first observation or apply
	AppliedInitial bool
	StartedAt      time.Time

	generation uint64
}

// Lease is a flag that clears itself once its expiry passes.
//
// It marks writes the engine made itself so the monitor does not mistake them for the user.
// It is a heuristic: if the player reflects a change later than the lease, the monitor will
// see it as drift.
type Lease struct {
	until time.Time
	held  bool
	now   func() time.Time
}

// NewLease creates a released lease reading time from now.
func NewLease(now func() time.Time) *Lease {
	if now == nil {
		now = time.Now
	}
	return &Lease{now: now}
}

// Hold raises the flag with no expiry until [Lease.Extend] or [Lease.Release].
func (l *Lease) Hold() {
	l.held = true
	l.until = time.Time{}
}

// Extend raises the flag until d from now.
func (l *Lease) Extend(d time.Duration) {
	l.held = false
	l.until = l.now().Add(d)
}

// Release lowers the flag immediately.
func (l *Lease) Release() {
	l.held = false
	l.until = time.Time{}
}

// Active reports whether the flag is raised.
func (l *Lease) Active() bool {
	return l.held || l.now().Before(l.until)
}

// EngineState is everything the engine's components share.
//
// It is owned by the [Engine] and only touched from its scheduler goroutine.
type EngineState struct {
	Config    Config
	Session   *VideoSession
	Overrides *quality.Overrides
	Marker    *Lease

	now        func() time.Time
	generation uint64
}

// NewEngineState creates state with no live session.
func NewEngineState(cfg Config, now func() time.Time) *EngineState {
	if now == nil {
		now = time.Now
	}
	return &EngineState{
		Config:    cfg.normalize(),
		Overrides: quality.NewOverrides(),
		Marker:    NewLease(now),
		now:       now,
	}
}

// NewSession replaces the live session with a fresh one for videoID.
func (s *EngineState) NewSession(videoID string) *VideoSession {
	s.generation++
	s.Session = &VideoSession{
		ID:         shared.GenerateID(),
		VideoID:    videoID,
		StartedAt:  s.now(),
		generation: s.generation,
	}
	return s.Session
}

// Current reports whether sess is still the live session.
func (s *EngineState) Current(sess *VideoSession) bool {
	return sess != nil && s.Session != nil && s.Session.generation == sess.generation
}
