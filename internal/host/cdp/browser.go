package cdp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/desertthunder/tubetune/internal/shared"
)

const (
	defaultStartURL    = "https://www.youtube.com/"
	defaultCallTimeout = 2 * time.Second
	connectTimeout     = 15 * time.Second
)

// Options configures [Connect].
type Options struct {
	URL         string // DevTools endpoint of a running browser
	StartURL    string // opened when no YouTube tab exists
	CallTimeout time.Duration
	Logger      *log.Logger
}

// Browser is an attached tab and the allocator that reaches it.
type Browser struct {
	doc    *Document
	cancel context.CancelFunc
	target target.ID
}

// Connect attaches to the browser at opts.URL and prepares a YouTube tab.
func Connect(ctx context.Context, opts Options) (*Browser, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("%w: DevTools URL is required", shared.ErrMissingConfig)
	}
	if opts.StartURL == "" {
		opts.StartURL = defaultStartURL
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	allocCtx, allocCancel := chromedp.NewRemoteAllocator(ctx, opts.URL)
	probeCtx, probeCancel := chromedp.NewContext(allocCtx)

	startCtx, startDone := context.WithTimeout(probeCtx, connectTimeout)
	defer startDone()

	targets, err := chromedp.Targets(startCtx)
	if err != nil {
		probeCancel()
		allocCancel()
		return nil, fmt.Errorf("%w: %w", shared.ErrBrowserUnavailable, err)
	}

	// probeCtx gets its own blank tab on first use; it is the tab only when nothing better exists.
	tabCtx, tabCancel := probeCtx, context.CancelFunc(func() {})
	picked := pickTarget(targets)
	if picked != nil {
		opts.Logger.Info("attaching to tab", "url", picked.URL)
		tabCtx, tabCancel = chromedp.NewContext(probeCtx, chromedp.WithTargetID(picked.TargetID))
	} else {
		opts.Logger.Info("opening tab", "url", opts.StartURL)
	}

	cancel := func() {
		tabCancel()
		probeCancel()
		allocCancel()
	}

	if err := install(tabCtx, opts); err != nil {
		cancel()
		return nil, err
	}
	if picked != nil {
		closeStrayTab(tabCtx, chromedp.FromContext(probeCtx), picked.TargetID, opts.Logger)
	}

	b := &Browser{
		doc:    newDocument(tabCtx, opts.CallTimeout, opts.Logger),
		cancel: cancel,
	}
	if c := chromedp.FromContext(tabCtx); c != nil && c.Target != nil {
		b.target = c.Target.TargetID
	}
	return b, nil
}

// install adds the signal binding and script, then navigates if the tab is not on YouTube.
func install(tabCtx context.Context, opts Options) error {
	startCtx, startDone := context.WithTimeout(tabCtx, connectTimeout)
	defer startDone()

	script := SignalScript()
	var href string
	err := chromedp.Run(startCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			return runtime.AddBinding(BindingName).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx)
			return err
		}),
		chromedp.Location(&href),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrBrowserUnavailable, err)
	}

	if isYouTube(href) {
		// The current document predates the script registration.
		var ok bool
		if err := chromedp.Run(startCtx, chromedp.Evaluate(script+"\ntrue", &ok)); err != nil {
			return fmt.Errorf("%w: %w", shared.ErrBrowserUnavailable, err)
		}
		return nil
	}

	if err := chromedp.Run(startCtx, chromedp.Navigate(opts.StartURL)); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrBrowserUnavailable, err)
	}
	return nil
}

// strayTab reports the tab probe opened, if any, when the session attached elsewhere.
func strayTab(probe *chromedp.Context, attached target.ID) (target.ID, bool) {
	if probe == nil || probe.Target == nil || probe.Target.TargetID == "" || probe.Target.TargetID == attached {
		return "", false
	}
	return probe.Target.TargetID, true
}

// closeStrayTab closes the blank tab left behind by target discovery.
func closeStrayTab(tabCtx context.Context, probe *chromedp.Context, attached target.ID, logger *log.Logger) {
	id, ok := strayTab(probe, attached)
	if !ok {
		return
	}
	c := chromedp.FromContext(tabCtx)
	if c == nil || c.Browser == nil {
		return
	}
	closeCtx, done := context.WithTimeout(tabCtx, defaultCallTimeout)
	defer done()
	if err := target.CloseTarget(id).Do(cdp.WithExecutor(closeCtx, c.Browser)); err != nil {
		logger.Debug("failed to close discovery tab", "target", id, "error", err)
	}
}

// pickTarget prefers a watch page, then any YouTube page.
func pickTarget(targets []*target.Info) *target.Info {
	var fallback *target.Info
	for _, t := range targets {
		if t.Type != "page" || !isYouTube(t.URL) {
			continue
		}
		if strings.Contains(t.URL, "/watch") {
			return t
		}
		if fallback == nil {
			fallback = t
		}
	}
	return fallback
}

func isYouTube(u string) bool {
	for _, prefix := range []string{"https://www.youtube.com/", "https://youtube.com/", "https://m.youtube.com/", "https://youtu.be/"} {
		if strings.HasPrefix(u, prefix) {
			return true
		}
	}
	return false
}

// Document returns the attached tab.
func (b *Browser) Document() *Document {
	return b.doc
}

// TargetID identifies the attached tab.
func (b *Browser) TargetID() string {
	return string(b.target)
}

// Close detaches from the browser without closing it.
func (b *Browser) Close() {
	b.cancel()
}
