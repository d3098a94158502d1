package navigation

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tubetune/internal/host"
	"github.com/desertthunder/tubetune/internal/shared"
	"golang.org/x/time/rate"
)

const (
	// PollInterval is how often the location is compared against the last one seen.
	PollInterval = 400 * time.Millisecond

	// LoadedMetadataDelay and CanPlayDelay postpone re-runs triggered by media readiness.
	LoadedMetadataDelay = 300 * time.Millisecond
	CanPlayDelay        = 100 * time.Millisecond
)

// Source says what produced a [Notification].
type Source int

const (
	SourceStartup Source = iota
	SourceHistory
	SourcePoll
	SourceMediaInserted
	SourceNavigateFinish
	SourcePopState
	SourceLoadedMetadata
	SourceCanPlay
	SourceConfig
)

func (s Source) String() string {
	switch s {
	case SourceStartup:
		return "startup"
	case SourceHistory:
		return "history"
	case SourcePoll:
		return "poll"
	case SourceMediaInserted:
		return "media_inserted"
	case SourceNavigateFinish:
		return "navigate_finish"
	case SourcePopState:
		return "popstate"
	case SourceLoadedMetadata:
		return "loadedmetadata"
	case SourceCanPlay:
		return "canplay"
	case SourceConfig:
		return "config"
	default:
		return ""
	}
}

// MediaReady reports whether the source is a media readiness event.
func (s Source) MediaReady() bool {
	return s == SourceLoadedMetadata || s == SourceCanPlay
}

// Notification reports the video identity seen after some host event.
type Notification struct {
	VideoID string // empty when the page shows no video
	URL     string
	Source  Source
	Delay   time.Duration // zero means the receiver's default settle delay
}

// Forced reports whether the receiver must restart even for an unchanged identity.
func (n Notification) Forced() bool {
	return n.Source == SourceConfig
}

// Options configures a [Detector].
type Options struct {
	PollInterval time.Duration
	// MediaBurst and MediaRate throttle media insertion signals.
	MediaRate  rate.Limit
	MediaBurst int
}

// Detector watches a document for navigation.
type Detector struct {
	doc     host.Document
	opts    Options
	limiter *rate.Limiter
	logger  *log.Logger
	last    string
}

// NewDetector creates a detector over doc. Zero options take defaults.
func NewDetector(doc host.Document, opts Options, logger *log.Logger) *Detector {
	if opts.PollInterval <= 0 {
		opts.PollInterval = PollInterval
	}
	if opts.MediaRate <= 0 {
		opts.MediaRate = rate.Every(250 * time.Millisecond)
	}
	if opts.MediaBurst <= 0 {
		opts.MediaBurst = 1
	}
	return &Detector{
		doc:     doc,
		opts:    opts,
		limiter: rate.NewLimiter(opts.MediaRate, opts.MediaBurst),
		logger:  logger,
	}
}

// Run reports the current location once, then every navigation until ctx ends or the
// document's signal channel closes.
func (d *Detector) Run(ctx context.Context, notify func(Notification)) error {
	if d.doc == nil {
		return fmt.Errorf("%w: no document", shared.ErrBrowserUnavailable)
	}

	d.check(ctx, SourceStartup, "", notify)

	ticker := time.NewTicker(d.opts.PollInterval)
	defer ticker.Stop()

	signals := d.doc.Signals()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.poll(ctx, notify)
		case sig, ok := <-signals:
			if !ok {
				return fmt.Errorf("%w: document closed", shared.ErrBrowserUnavailable)
			}
			d.handle(ctx, sig, notify)
		}
	}
}

func (d *Detector) poll(ctx context.Context, notify func(Notification)) {
	loc, err := d.doc.Location(ctx)
	if err != nil {
		d.logger.Debug("location poll failed", "error", err)
		return
	}
	if loc == d.last {
		return
	}
	d.emit(loc, SourcePoll, 0, notify)
}

func (d *Detector) handle(ctx context.Context, sig host.Signal, notify func(Notification)) {
	switch sig.Kind {
	case host.HistoryPush, host.HistoryReplace:
		d.check(ctx, SourceHistory, sig.URL, notify)
	case host.NavigateFinish:
		d.check(ctx, SourceNavigateFinish, sig.URL, notify)
	case host.PopState:
		d.check(ctx, SourcePopState, sig.URL, notify)
	case host.MediaInserted:
		if !d.limiter.Allow() {
			d.logger.Debug("media insert throttled")
			return
		}
		d.check(ctx, SourceMediaInserted, sig.URL, notify)
	case host.MediaLoadedMetadata:
		d.checkDelayed(ctx, SourceLoadedMetadata, sig.URL, LoadedMetadataDelay, notify)
	case host.MediaCanPlay:
		d.checkDelayed(ctx, SourceCanPlay, sig.URL, CanPlayDelay, notify)
	}
}

func (d *Detector) check(ctx context.Context, src Source, hint string, notify func(Notification)) {
	d.checkDelayed(ctx, src, hint, 0, notify)
}

// checkDelayed prefers the URL carried by the signal and falls back to reading the location.
func (d *Detector) checkDelayed(ctx context.Context, src Source, hint string, delay time.Duration, notify func(Notification)) {
	loc := hint
	if loc == "" {
		var err error
		if loc, err = d.doc.Location(ctx); err != nil {
			d.logger.Debug("location read failed", "source", src, "error", err)
			return
		}
	}
	d.emit(loc, src, delay, notify)
}

func (d *Detector) emit(loc string, src Source, delay time.Duration, notify func(Notification)) {
	d.last = loc
	id, ok := VideoID(loc)
	if !ok {
		d.logger.Debug("no video on page", "url", loc, "source", src)
	}
	notify(Notification{VideoID: id, URL: loc, Source: src, Delay: delay})
}
