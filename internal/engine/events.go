package engine

import "time"

// Event reports engine progress to observers such as the CLI and the push channel.
type Event struct {
	Phase   Phase     `json:"phase"`
	VideoID string    `json:"videoId,omitempty"`
	Attempt int       `json:"attempt,omitempty"`
	Quality string    `json:"quality,omitempty"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Phase enumerates event kinds.
type Phase int

const (
	PhaseSession Phase = iota
	PhaseAttempt
	PhaseSettled
	PhaseGaveUp
	PhaseOverride
	PhaseConfig
)

func (p Phase) String() string {
	switch p {
	case PhaseSession:
		return "session"
	case PhaseAttempt:
		return "attempt"
	case PhaseSettled:
		return "settled"
	case PhaseGaveUp:
		return "gave_up"
	case PhaseOverride:
		return "override"
	case PhaseConfig:
		return "config"
	default:
		return ""
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
