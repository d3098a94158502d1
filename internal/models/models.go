// package models defines the data model for reconciliation history
package models

import (
	"fmt"
	"time"
)

// Outcome is how a search for a video ended.
type Outcome string

const (
	OutcomeSettled  Outcome = "settled"  // quality applied
	OutcomeOverride Outcome = "override" // manual override already in effect, nothing applied
	OutcomeGaveUp   Outcome = "gave_up"  // attempt budget exhausted
)

// Valid reports whether o is a known outcome.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeSettled, OutcomeOverride, OutcomeGaveUp:
		return true
	}
	return false
}

// SessionRecord describes one finished search.
type SessionRecord struct {
	ID         string
	Sequence   int
	VideoID    string
	Outcome    Outcome
	Quality    string // level in effect when the search ended, empty when it gave up
	Desired    string // configured label at the time
	Attempts   int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Validate checks the record before it is stored.
func (r SessionRecord) Validate() error {
	if !r.Outcome.Valid() {
		return fmt.Errorf("invalid outcome %q", r.Outcome)
	}
	if r.Attempts < 0 {
		return fmt.Errorf("attempts must not be negative")
	}
	if r.FinishedAt.Before(r.StartedAt) {
		return fmt.Errorf("finished_at before started_at")
	}
	return nil
}

// Duration is the wall time the search took.
func (r SessionRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// OverrideEvent records a quality change attributed to the user.
type OverrideEvent struct {
	ID         string
	VideoID    string
	Quality    string
	ObservedAt time.Time
}

// Validate checks the event before it is stored.
func (e OverrideEvent) Validate() error {
	if e.VideoID == "" {
		return fmt.Errorf("video id is required")
	}
	if e.Quality == "" {
		return fmt.Errorf("quality is required")
	}
	return nil
}
