// Package host describes the page surface the engine works against.
//
// A [Document] is the live page: its location, element lookup, and a stream of [Signal]s the
// host integration produces (history changes, media insertion, player events). An [Element] is
// a node that may or may not expose the player capabilities; every capability must be probed
// with [Player.Supports] before it is called.
//
// The core never patches the page itself. Adapters such as host/cdp decide how signals are
// produced and deliver them on [Document.Signals].
package host

import (
	"context"
	"time"

	"github.com/desertthunder/tubetune/internal/quality"
)

// Capability names one optional operation of the player surface.
type Capability int

const (
	ListLevels Capability = iota
	CurrentQuality
	SetQualityRange
	SetQuality
)

func (c Capability) String() string {
	switch c {
	case ListLevels:
		return "getAvailableQualityLevels"
	case CurrentQuality:
		return "getPlaybackQuality"
	case SetQualityRange:
		return "setPlaybackQualityRange"
	case SetQuality:
		return "setPlaybackQuality"
	default:
		return ""
	}
}

// Player is the capability surface of a located player.
//
// Calls on an unsupported capability return [shared.ErrCapabilityUnavailable].
type Player interface {
	Supports(ctx context.Context, c Capability) bool
	AvailableQualityLevels(ctx context.Context) ([]quality.Level, error)
	PlaybackQuality(ctx context.Context) (quality.Level, error)
	SetPlaybackQualityRange(ctx context.Context, min, max quality.Level) error
	SetPlaybackQuality(ctx context.Context, level quality.Level) error
}

// Element is a document node that may expose the player surface.
type Element interface {
	Player
	// Parent returns the enclosing element, or nil once the document body is reached.
	Parent(ctx context.Context) (Element, error)
}

// Document is the page the engine reconciles.
type Document interface {
	// Location returns the current page URL.
	Location(ctx context.Context) (string, error)
	// QuerySelector returns the first matching element, or nil when nothing matches.
	QuerySelector(ctx context.Context, selector string) (Element, error)
	// Signals delivers host events; the channel is closed when the document goes away.
	Signals() <-chan Signal
}

// SignalKind identifies which host event produced a [Signal].
type SignalKind int

const (
	HistoryPush SignalKind = iota
	HistoryReplace
	NavigateFinish
	PopState
	MediaInserted
	MediaLoadedMetadata
	MediaCanPlay
)

func (k SignalKind) String() string {
	switch k {
	case HistoryPush:
		return "history_push"
	case HistoryReplace:
		return "history_replace"
	case NavigateFinish:
		return "navigate_finish"
	case PopState:
		return "popstate"
	case MediaInserted:
		return "media_inserted"
	case MediaLoadedMetadata:
		return "loadedmetadata"
	case MediaCanPlay:
		return "canplay"
	default:
		return ""
	}
}

// ParseSignalKind is the inverse of [SignalKind.String].
func ParseSignalKind(s string) (SignalKind, bool) {
	for k := HistoryPush; k <= MediaCanPlay; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// Signal is one host event.
type Signal struct {
	Kind SignalKind
	URL  string
	At   time.Time
}
