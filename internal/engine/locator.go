package engine

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tubetune/internal/host"
)

// DefaultSelectors are tried in order when looking for the player.
var DefaultSelectors = []string{
	"#movie_player",
	".html5-video-player",
	"#player",
	".ytd-player",
}

// mediaSelector finds the element the ancestor walk starts from.
const mediaSelector = "video"

// maxAncestors bounds the ancestor walk.
const maxAncestors = 64

// Locator finds the element exposing the player surface.
type Locator struct {
	doc       host.Document
	selectors []string
	logger    *log.Logger
}

// NewLocator creates a locator over doc using [DefaultSelectors].
func NewLocator(doc host.Document, logger *log.Logger) *Locator {
	return &Locator{doc: doc, selectors: DefaultSelectors, logger: logger}
}

// Locate returns the first element that can list quality levels.
//
// Not finding one is the normal "not ready yet" outcome, not an error.
func (l *Locator) Locate(ctx context.Context) (host.Player, bool) {
	for _, sel := range l.selectors {
		el, err := l.doc.QuerySelector(ctx, sel)
		if err != nil {
			l.logger.Debug("selector query failed", "selector", sel, "error", err)
			continue
		}
		if el != nil && el.Supports(ctx, host.ListLevels) {
			l.logger.Debug("found player element", "selector", sel)
			return el, true
		}
	}

	media, err := l.doc.QuerySelector(ctx, mediaSelector)
	if err != nil || media == nil {
		return nil, false
	}

	el := host.Element(media)
	for range maxAncestors {
		parent, err := el.Parent(ctx)
		if err != nil {
			l.logger.Debug("ancestor walk failed", "error", err)
			return nil, false
		}
		if parent == nil {
			return nil, false
		}
		if parent.Supports(ctx, host.ListLevels) {
			l.logger.Debug("found player via media ancestor")
			return parent, true
		}
		el = parent
	}

	return nil, false
}
