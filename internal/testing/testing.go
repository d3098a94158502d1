// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/tubetune/internal/host"
	"github.com/desertthunder/tubetune/internal/models"
	"github.com/desertthunder/tubetune/internal/quality"
	"github.com/desertthunder/tubetune/internal/shared"
)

var (
	_ host.Element  = (*FakeElement)(nil)
	_ host.Document = (*FakeDocument)(nil)
)

// FakeElement is a test double for [host.Element] with a configurable capability surface.
type FakeElement struct {
	mu sync.Mutex

	caps    map[host.Capability]bool
	levels  []quality.Level
	current quality.Level
	parent  *FakeElement

	LevelsErr   error
	CurrentErr  error
	SetRangeErr error
	SetErr      error

	// Sticky makes successful set calls update the reported current quality.
	Sticky bool

	rangeCalls []quality.Level
	setCalls   []quality.Level
}

// NewPlayer returns an element exposing every capability and offering levels.
func NewPlayer(levels ...quality.Level) *FakeElement {
	return &FakeElement{
		caps: map[host.Capability]bool{
			host.ListLevels:      true,
			host.CurrentQuality:  true,
			host.SetQualityRange: true,
			host.SetQuality:      true,
		},
		levels: levels,
		Sticky: true,
	}
}

// NewElement returns a plain element with no player capabilities.
func NewElement(parent *FakeElement) *FakeElement {
	return &FakeElement{caps: map[host.Capability]bool{}, parent: parent}
}

// WithParent sets the enclosing element and returns e.
func (e *FakeElement) WithParent(parent *FakeElement) *FakeElement {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.parent = parent
	return e
}

// Drop removes a capability from the surface.
func (e *FakeElement) Drop(c host.Capability) *FakeElement {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.caps, c)
	return e
}

// SetLevels replaces the offered levels.
func (e *FakeElement) SetLevels(levels ...quality.Level) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.levels = levels
}

// SetCurrent simulates the player (or the user) switching quality.
func (e *FakeElement) SetCurrent(l quality.Level) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.current = l
}

// RangeCalls returns the levels passed to SetPlaybackQualityRange.
func (e *FakeElement) RangeCalls() []quality.Level {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]quality.Level(nil), e.rangeCalls...)
}

// SetCalls returns the levels passed to SetPlaybackQuality.
func (e *FakeElement) SetCalls() []quality.Level {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]quality.Level(nil), e.setCalls...)
}

func (e *FakeElement) Supports(ctx context.Context, c host.Capability) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.caps[c]
}

func (e *FakeElement) AvailableQualityLevels(ctx context.Context) ([]quality.Level, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.caps[host.ListLevels] {
		return nil, shared.ErrCapabilityUnavailable
	}
	if e.LevelsErr != nil {
		return nil, e.LevelsErr
	}
	return append([]quality.Level(nil), e.levels...), nil
}

func (e *FakeElement) PlaybackQuality(ctx context.Context) (quality.Level, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.caps[host.CurrentQuality] {
		return "", shared.ErrCapabilityUnavailable
	}
	return e.current, e.CurrentErr
}

func (e *FakeElement) SetPlaybackQualityRange(ctx context.Context, min, max quality.Level) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.caps[host.SetQualityRange] {
		return shared.ErrCapabilityUnavailable
	}
	e.rangeCalls = append(e.rangeCalls, min)
	if e.SetRangeErr != nil {
		return e.SetRangeErr
	}
	if e.Sticky {
		e.current = max
	}
	return nil
}

func (e *FakeElement) SetPlaybackQuality(ctx context.Context, level quality.Level) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.caps[host.SetQuality] {
		return shared.ErrCapabilityUnavailable
	}
	e.setCalls = append(e.setCalls, level)
	if e.SetErr != nil {
		return e.SetErr
	}
	if e.Sticky {
		e.current = level
	}
	return nil
}

func (e *FakeElement) Parent(ctx context.Context) (host.Element, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.parent == nil {
		return nil, nil
	}
	return e.parent, nil
}

// FakeDocument is a test double for [host.Document].
type FakeDocument struct {
	mu       sync.Mutex
	url      string
	elements map[string]*FakeElement
	signals  chan host.Signal
	queries  int

	LocationErr error
	QueryErr    error
}

// NewDocument creates a document at url with no elements.
func NewDocument(url string) *FakeDocument {
	return &FakeDocument{
		url:      url,
		elements: make(map[string]*FakeElement),
		signals:  make(chan host.Signal, 64),
	}
}

// Put registers el as the match for selector; nil removes it.
func (d *FakeDocument) Put(selector string, el *FakeElement) *FakeDocument {
	d.mu.Lock()
	defer d.mu.Unlock()
	if el == nil {
		delete(d.elements, selector)
	} else {
		d.elements[selector] = el
	}
	return d
}

// Navigate changes the current location without emitting a signal.
func (d *FakeDocument) Navigate(url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.url = url
}

// Emit sends a signal to subscribers.
func (d *FakeDocument) Emit(s host.Signal) {
	d.signals <- s
}

// Close closes the signal stream.
func (d *FakeDocument) Close() {
	close(d.signals)
}

// Queries returns how many selector lookups were made.
func (d *FakeDocument) Queries() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queries
}

func (d *FakeDocument) Location(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url, d.LocationErr
}

func (d *FakeDocument) QuerySelector(ctx context.Context, selector string) (host.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queries++
	if d.QueryErr != nil {
		return nil, d.QueryErr
	}
	if el, ok := d.elements[selector]; ok {
		return el, nil
	}
	return nil, nil
}

func (d *FakeDocument) Signals() <-chan host.Signal {
	return d.signals
}

// FakeRecorder is a test double for the engine's history recorder.
type FakeRecorder struct {
	mu        sync.Mutex
	sessions  []models.SessionRecord
	overrides []models.OverrideEvent
	Err       error
}

func (r *FakeRecorder) RecordSession(rec models.SessionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, rec)
	return r.Err
}

func (r *FakeRecorder) RecordOverride(ev models.OverrideEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides = append(r.overrides, ev)
	return r.Err
}

// Sessions returns the recorded session outcomes.
func (r *FakeRecorder) Sessions() []models.SessionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.SessionRecord(nil), r.sessions...)
}

// Overrides returns the recorded override observations.
func (r *FakeRecorder) Overrides() []models.OverrideEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.OverrideEvent(nil), r.overrides...)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
