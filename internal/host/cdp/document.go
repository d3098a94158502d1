package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/desertthunder/tubetune/internal/host"
	"github.com/desertthunder/tubetune/internal/quality"
	"github.com/desertthunder/tubetune/internal/shared"
)

var (
	_ host.Document = (*Document)(nil)
	_ host.Element  = (*Element)(nil)
)

// Document is a browser tab seen through the DevTools protocol.
type Document struct {
	tab     context.Context
	timeout time.Duration
	logger  *log.Logger

	mu      sync.Mutex
	signals chan host.Signal
	closed  bool
}

func newDocument(tab context.Context, timeout time.Duration, logger *log.Logger) *Document {
	d := &Document{
		tab:     tab,
		timeout: timeout,
		logger:  logger,
		signals: make(chan host.Signal, 64),
	}
	chromedp.ListenTarget(tab, d.onEvent)
	go func() {
		<-tab.Done()
		d.close()
	}()
	return d
}

func (d *Document) onEvent(ev any) {
	call, ok := ev.(*runtime.EventBindingCalled)
	if !ok || call.Name != BindingName {
		return
	}
	sig, err := ParseSignal(call.Payload, time.Now())
	if err != nil {
		d.logger.Debug("ignoring signal", "error", err)
		return
	}
	d.deliver(sig)
}

// deliver never blocks the DevTools event loop; signals are dropped when nobody keeps up.
func (d *Document) deliver(sig host.Signal) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	select {
	case d.signals <- sig:
	default:
		d.logger.Debug("signal dropped", "kind", sig.Kind)
	}
}

func (d *Document) close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closed {
		d.closed = true
		close(d.signals)
	}
}

// Signals implements [host.Document].
func (d *Document) Signals() <-chan host.Signal {
	return d.signals
}

// Location implements [host.Document].
func (d *Document) Location(ctx context.Context) (string, error) {
	var loc string
	if err := d.eval(ctx, "location.href", &loc); err != nil {
		return "", err
	}
	return loc, nil
}

// QuerySelector implements [host.Document].
func (d *Document) QuerySelector(ctx context.Context, selector string) (host.Element, error) {
	expr := selectorExpr(selector)
	var found bool
	if err := d.eval(ctx, existsExpr(expr), &found); err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &Element{doc: d, expr: expr}, nil
}

// eval runs expr in the tab and decodes its JSON result into out.
//
// The call is bounded by the document timeout and by ctx, whichever ends first.
func (d *Document) eval(ctx context.Context, expr string, out any) error {
	callCtx, cancel := context.WithTimeout(d.tab, d.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var raw []byte
	if err := chromedp.Run(callCtx, chromedp.Evaluate(expr, &raw)); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrHostCall, err)
	}
	if out == nil {
		return nil
	}
	if len(raw) == 0 {
		raw = []byte("null")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrMalformedResult, err)
	}
	return nil
}

// Element is a page node addressed by a JavaScript expression.
type Element struct {
	doc  *Document
	expr string
}

// Supports implements [host.Player]. Probe failures count as unsupported.
func (e *Element) Supports(ctx context.Context, c host.Capability) bool {
	var ok bool
	if err := e.doc.eval(ctx, supportsExpr(e.expr, c), &ok); err != nil {
		e.doc.logger.Debug("capability probe failed", "capability", c, "error", err)
		return false
	}
	return ok
}

// AvailableQualityLevels implements [host.Player].
func (e *Element) AvailableQualityLevels(ctx context.Context) ([]quality.Level, error) {
	var raw []string
	if err := e.call(ctx, host.ListLevels, &raw); err != nil {
		return nil, err
	}
	levels := make([]quality.Level, 0, len(raw))
	for _, s := range raw {
		levels = append(levels, quality.Level(s))
	}
	return levels, nil
}

// PlaybackQuality implements [host.Player].
func (e *Element) PlaybackQuality(ctx context.Context) (quality.Level, error) {
	var s *string
	if err := e.call(ctx, host.CurrentQuality, &s); err != nil {
		return "", err
	}
	if s == nil {
		return "", nil
	}
	return quality.Level(*s), nil
}

// SetPlaybackQualityRange implements [host.Player].
func (e *Element) SetPlaybackQualityRange(ctx context.Context, min, max quality.Level) error {
	return e.call(ctx, host.SetQualityRange, nil, min, max)
}

// SetPlaybackQuality implements [host.Player].
func (e *Element) SetPlaybackQuality(ctx context.Context, level quality.Level) error {
	return e.call(ctx, host.SetQuality, nil, level)
}

// call invokes capability c in one round trip; a missing method yields
// [shared.ErrCapabilityUnavailable].
func (e *Element) call(ctx context.Context, c host.Capability, out any, args ...quality.Level) error {
	var res callResult
	if err := e.doc.eval(ctx, callExpr(e.expr, c, args...), &res); err != nil {
		return err
	}
	return res.decode(c, out)
}

// Parent implements [host.Element].
func (e *Element) Parent(ctx context.Context) (host.Element, error) {
	expr := parentExpr(e.expr)
	var found bool
	if err := e.doc.eval(ctx, existsExpr(expr), &found); err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &Element{doc: e.doc, expr: expr}, nil
}
