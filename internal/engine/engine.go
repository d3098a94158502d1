package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tubetune/internal/host"
	"github.com/desertthunder/tubetune/internal/models"
	"github.com/desertthunder/tubetune/internal/navigation"
	"github.com/desertthunder/tubetune/internal/shared"
)

const (
	// SettleDelay postpones the first attempt after a navigation.
	SettleDelay = 150 * time.Millisecond
	// RestartDelay postpones the forced restart after a config change.
	RestartDelay = 500 * time.Millisecond
)

// Recorder stores finished searches and observed overrides.
type Recorder interface {
	RecordSession(rec models.SessionRecord) error
	RecordOverride(ev models.OverrideEvent) error
}

// Options configures an [Engine]. Zero durations take the package defaults.
type Options struct {
	Document        host.Document
	Config          Config
	Logger          *log.Logger
	Recorder        Recorder
	Now             func() time.Time
	SettleDelay     time.Duration
	RestartDelay    time.Duration
	MonitorInterval time.Duration
	Lease           time.Duration
	EventBuffer     int
}

// Snapshot is the engine state as reported by [Engine.Status].
type Snapshot struct {
	Enabled        bool              `json:"enabled"`
	Quality        string            `json:"quality"`
	Debug          bool              `json:"debug"`
	AttemptMs      int               `json:"attemptIntervalMs"`
	MaxAttempts    int               `json:"maxAttempts"`
	SessionID      string            `json:"sessionId,omitempty"`
	VideoID        string            `json:"videoId,omitempty"`
	State          string            `json:"state"`
	Attempts       int               `json:"attempts"`
	LastKnown      string            `json:"lastKnownQuality,omitempty"`
	AppliedInitial bool              `json:"appliedInitial"`
	SelfWrite      bool              `json:"selfWriteActive"`
	Overrides      map[string]string `json:"overrides"`
}

type call func(ctx context.Context)

// Engine is the reconciliation loop and its scheduler.
type Engine struct {
	opts    Options
	logger  *log.Logger
	state   *EngineState
	locator *Locator
	monitor *Monitor
	loop    *Reconciler

	loggers []*log.Logger

	calls   chan call
	events  chan Event
	done    chan struct{}
	running atomic.Bool

	searchID    uint64
	stopTimer   func()
	stopTicker  func()
	stopRestart func()
}

// New creates an engine. It does nothing until [Engine.Run] is called.
func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = SettleDelay
	}
	if opts.RestartDelay <= 0 {
		opts.RestartDelay = RestartDelay
	}
	if opts.MonitorInterval <= 0 {
		opts.MonitorInterval = MonitorInterval
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 64
	}

	logger := opts.Logger
	state := NewEngineState(opts.Config, opts.Now)
	e := &Engine{
		opts:   opts,
		logger: logger,
		state:  state,
		calls:  make(chan call, 64),
		events: make(chan Event, opts.EventBuffer),
		done:   make(chan struct{}),
	}
	child := func(name string) *log.Logger {
		l := shared.WithLogger(logger, "component", name)
		e.loggers = append(e.loggers, l)
		return l
	}
	e.loggers = append(e.loggers, logger)
	e.locator = NewLocator(opts.Document, child("locator"))
	applier := NewApplier(state, opts.Lease, child("applier"))
	e.monitor = NewMonitor(state, e.locator, e.currentVideo, child("monitor"))
	e.loop = NewReconciler(state, e.locator, applier, child("loop"))
	e.setDebug(state.Config.Debug)
	return e
}

// Events returns the progress stream. Events are dropped when nobody reads.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// Run executes scheduled work until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return shared.ErrInvalidInput
	}
	defer close(e.done)

	stopMonitor := e.every(e.opts.MonitorInterval, e.monitorTick)
	defer func() {
		stopMonitor()
		e.stopSearch()
		if e.stopRestart != nil {
			e.stopRestart()
		}
	}()

	e.logger.Info("engine started", "enabled", e.state.Config.Enabled, "quality", e.state.Config.Quality)
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopped")
			return ctx.Err()
		case fn := <-e.calls:
			fn(ctx)
		}
	}
}

// Notify hands a navigation notification to the engine.
func (e *Engine) Notify(n navigation.Notification) {
	e.enqueue(func(ctx context.Context) { e.handleNavigation(ctx, n) })
}

// Update merges a configuration push into the live config.
func (e *Engine) Update(u ConfigUpdate) error {
	if err := u.Validate(); err != nil {
		return err
	}
	if u.Empty() {
		return nil
	}
	if !e.enqueue(func(ctx context.Context) { e.handleUpdate(ctx, u) }) {
		return shared.ErrEngineNotRunning
	}
	return nil
}

// Status returns a snapshot taken on the engine goroutine.
func (e *Engine) Status(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	if !e.enqueue(func(context.Context) { reply <- e.snapshot() }) {
		return Snapshot{}, shared.ErrEngineNotRunning
	}
	select {
	case s := <-reply:
		return s, nil
	case <-e.done:
		return Snapshot{}, shared.ErrEngineNotRunning
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// enqueue schedules fn on the engine goroutine. It fails once the engine has stopped.
func (e *Engine) enqueue(fn call) bool {
	select {
	case e.calls <- fn:
		return true
	case <-e.done:
		return false
	}
}

// after runs fn on the engine goroutine once d has passed.
func (e *Engine) after(d time.Duration, fn call) func() {
	t := time.AfterFunc(d, func() { e.enqueue(fn) })
	return func() { t.Stop() }
}

// every runs fn on the engine goroutine each period until the returned stop is called.
func (e *Engine) every(d time.Duration, fn call) func() {
	quit := make(chan struct{})
	go func() {
		t := time.NewTicker(d)
		defer t.Stop()
		for {
			select {
			case <-quit:
				return
			case <-e.done:
				return
			case <-t.C:
				if !e.enqueue(fn) {
					return
				}
			}
		}
	}()
	return sync.OnceFunc(func() { close(quit) })
}

// setDebug applies the debug setting to the engine logger and every component logger.
func (e *Engine) setDebug(debug bool) {
	for _, l := range e.loggers {
		shared.SetLogLevel(l, shared.DebugLevel(debug))
	}
}

func (e *Engine) emit(ev Event) {
	ev.At = e.opts.Now()
	select {
	case e.events <- ev:
	default:
	}
}

func (e *Engine) currentVideo(ctx context.Context) string {
	if e.opts.Document == nil {
		return ""
	}
	loc, err := e.opts.Document.Location(ctx)
	if err != nil {
		e.logger.Debug("location read failed", "error", err)
		return ""
	}
	id, _ := navigation.VideoID(loc)
	return id
}

func (e *Engine) handleNavigation(ctx context.Context, n navigation.Notification) {
	sess := e.state.Session
	if n.VideoID == "" {
		if sess == nil || sess.VideoID == "" {
			return
		}
		e.stopSearch()
		e.state.NewSession("")
		e.loop.Reset()
		e.logger.Info("left video", "video", sess.VideoID, "source", n.Source)
		e.emit(Event{Phase: PhaseSession, Message: "left " + sess.VideoID + " via " + n.Source.String()})
		return
	}

	switch {
	case sess == nil || sess.VideoID != n.VideoID || n.Forced():
		e.stopSearch()
		sess = e.state.NewSession(n.VideoID)
		e.loop.Reset()
		e.logger.Info("new video", "video", n.VideoID, "source", n.Source)
		e.emit(Event{Phase: PhaseSession, VideoID: n.VideoID, Message: "navigated via " + n.Source.String()})
		e.scheduleSearch(e.delay(n))
	case e.loop.State() == Searching:
		e.logger.Debug("search already running", "video", n.VideoID, "source", n.Source)
	case e.loop.State() == Settled:
		if !n.Source.MediaReady() {
			return
		}
		e.logger.Debug("media ready, re-running", "video", n.VideoID, "source", n.Source)
		e.scheduleSearch(e.delay(n))
	default:
		e.logger.Debug("restarting search", "video", n.VideoID, "state", e.loop.State())
		e.scheduleSearch(e.delay(n))
	}
}

func (e *Engine) delay(n navigation.Notification) time.Duration {
	if n.Delay > 0 {
		return n.Delay
	}
	return e.opts.SettleDelay
}

// scheduleSearch starts a fresh search on the live session after d.
func (e *Engine) scheduleSearch(d time.Duration) {
	e.stopSearch()
	e.loop.Begin(e.state.Session)
	id := e.searchID

	e.stopTimer = e.after(d, func(ctx context.Context) {
		if id != e.searchID {
			return
		}
		e.attempt(ctx, id)
		if id != e.searchID || e.loop.State() != Searching {
			return
		}
		e.stopTicker = e.every(e.state.Config.AttemptInterval, func(ctx context.Context) {
			if id != e.searchID {
				return
			}
			e.attempt(ctx, id)
		})
	})
}

// stopSearch cancels pending attempts. Ticks already queued see a new search id and do nothing.
func (e *Engine) stopSearch() {
	e.searchID++
	if e.stopTimer != nil {
		e.stopTimer()
		e.stopTimer = nil
	}
	if e.stopTicker != nil {
		e.stopTicker()
		e.stopTicker = nil
	}
}

func (e *Engine) attempt(ctx context.Context, id uint64) {
	sess := e.state.Session
	res := e.loop.Attempt(ctx)
	if res.Stale {
		return
	}

	ev := Event{Phase: PhaseAttempt, VideoID: sess.VideoID, Attempt: res.Attempt, Quality: res.Quality.String()}
	if res.Err != nil {
		ev.Message = res.Err.Error()
	}
	e.emit(ev)

	if !res.State.Finished() {
		return
	}
	if id == e.searchID {
		e.stopSearch()
	}
	e.finish(sess, res)
}

func (e *Engine) finish(sess *VideoSession, res AttemptResult) {
	ev := Event{VideoID: sess.VideoID, Attempt: res.Attempt, Quality: res.Quality.String()}
	switch res.State {
	case Settled:
		ev.Phase = PhaseSettled
		ev.Message = "quality set to " + res.Quality.Label()
		if res.Outcome == models.OutcomeOverride {
			ev.Message = "keeping manual quality " + res.Quality.Label()
		}
	case GaveUp:
		ev.Phase = PhaseGaveUp
		ev.Message = res.Err.Error()
	}
	e.emit(ev)

	if e.opts.Recorder == nil {
		return
	}
	rec := models.SessionRecord{
		ID:         shared.GenerateID(),
		VideoID:    sess.VideoID,
		Outcome:    res.Outcome,
		Quality:    res.Quality.String(),
		Desired:    e.state.Config.Quality,
		Attempts:   res.Attempt,
		StartedAt:  sess.StartedAt,
		FinishedAt: e.opts.Now(),
	}
	if err := e.opts.Recorder.RecordSession(rec); err != nil {
		e.logger.Error("failed to record session", "video", sess.VideoID, "error", err)
	}
}

func (e *Engine) monitorTick(ctx context.Context) {
	obs, changed := e.monitor.Tick(ctx)
	if !changed || !obs.Override {
		return
	}

	e.emit(Event{Phase: PhaseOverride, VideoID: obs.VideoID, Quality: obs.Current.String(), Message: "manual quality " + obs.Current.Label()})
	if e.opts.Recorder == nil {
		return
	}
	ev := models.OverrideEvent{
		ID:         shared.GenerateID(),
		VideoID:    obs.VideoID,
		Quality:    obs.Current.String(),
		ObservedAt: e.opts.Now(),
	}
	if err := e.opts.Recorder.RecordOverride(ev); err != nil {
		e.logger.Error("failed to record override", "video", obs.VideoID, "error", err)
	}
}

func (e *Engine) handleUpdate(ctx context.Context, u ConfigUpdate) {
	prev := e.state.Config
	next := prev.Merge(u)
	e.state.Config = next
	e.setDebug(next.Debug)

	qualityChanged := next.Quality != prev.Quality
	if qualityChanged {
		e.state.Overrides.Clear()
		e.logger.Debug("desired quality changed, overrides cleared", "from", prev.Quality, "to", next.Quality)
	}
	e.logger.Info("config updated", "enabled", next.Enabled, "quality", next.Quality)
	e.emit(Event{Phase: PhaseConfig, Message: "config updated: " + next.Quality})

	if !next.Enabled || (prev.Enabled && !qualityChanged) {
		return
	}
	if e.stopRestart != nil {
		e.stopRestart()
	}
	e.stopRestart = e.after(e.opts.RestartDelay, func(ctx context.Context) {
		id := e.currentVideo(ctx)
		if id == "" {
			return
		}
		e.handleNavigation(ctx, navigation.Notification{VideoID: id, Source: navigation.SourceConfig})
	})
}

func (e *Engine) snapshot() Snapshot {
	cfg := e.state.Config
	s := Snapshot{
		Enabled:     cfg.Enabled,
		Quality:     cfg.Quality,
		Debug:       cfg.Debug,
		AttemptMs:   int(cfg.AttemptInterval / time.Millisecond),
		MaxAttempts: cfg.MaxAttempts,
		State:       e.loop.State().String(),
		Attempts:    e.loop.Attempts(),
		SelfWrite:   e.state.Marker.Active(),
		Overrides:   make(map[string]string),
	}
	if sess := e.state.Session; sess != nil {
		s.SessionID = sess.ID
		s.VideoID = sess.VideoID
		s.LastKnown = sess.LastKnown.String()
		s.AppliedInitial = sess.AppliedInitial
	}
	for id, l := range e.state.Overrides.Snapshot() {
		s.Overrides[id] = l.String()
	}
	return s
}
