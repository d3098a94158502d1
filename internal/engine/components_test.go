package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/tubetune/internal/host"
	"github.com/desertthunder/tubetune/internal/models"
	"github.com/desertthunder/tubetune/internal/quality"
	"github.com/desertthunder/tubetune/internal/shared"
	tu "github.com/desertthunder/tubetune/internal/testing"
)

const watchV1 = "https://www.youtube.com/watch?v=V1"

func TestLocator(t *testing.T) {
	ctx := context.Background()

	t.Run("first selector with the capability wins", func(t *testing.T) {
		first := tu.NewPlayer(quality.HD720)
		second := tu.NewPlayer(quality.HD1080)
		doc := tu.NewDocument(watchV1).Put("#movie_player", first).Put("#player", second)

		p, ok := NewLocator(doc, quietLogger()).Locate(ctx)
		if !ok || p != host.Player(first) {
			t.Fatalf("expected #movie_player element, got %v (ok=%v)", p, ok)
		}
	})

	t.Run("skips elements without the capability", func(t *testing.T) {
		plain := tu.NewElement(nil)
		player := tu.NewPlayer(quality.HD720)
		doc := tu.NewDocument(watchV1).Put("#movie_player", plain).Put(".ytd-player", player)

		p, ok := NewLocator(doc, quietLogger()).Locate(ctx)
		if !ok || p != host.Player(player) {
			t.Fatalf("expected .ytd-player element, got %v (ok=%v)", p, ok)
		}
	})

	t.Run("walks up from the media element", func(t *testing.T) {
		player := tu.NewPlayer(quality.HD720)
		wrapper := tu.NewElement(player)
		video := tu.NewElement(wrapper)
		doc := tu.NewDocument(watchV1).Put("video", video)

		p, ok := NewLocator(doc, quietLogger()).Locate(ctx)
		if !ok || p != host.Player(player) {
			t.Fatalf("expected ancestor player, got %v (ok=%v)", p, ok)
		}
	})

	t.Run("stops at the body", func(t *testing.T) {
		video := tu.NewElement(tu.NewElement(nil))
		doc := tu.NewDocument(watchV1).Put("video", video)

		if _, ok := NewLocator(doc, quietLogger()).Locate(ctx); ok {
			t.Error("expected no player")
		}
	})

	t.Run("nothing on the page", func(t *testing.T) {
		doc := tu.NewDocument(watchV1)
		if _, ok := NewLocator(doc, quietLogger()).Locate(ctx); ok {
			t.Error("expected no player")
		}
	})

	t.Run("query errors are treated as absence", func(t *testing.T) {
		doc := tu.NewDocument(watchV1).Put("#movie_player", tu.NewPlayer(quality.HD720))
		doc.QueryErr = errors.New("boom")
		if _, ok := NewLocator(doc, quietLogger()).Locate(ctx); ok {
			t.Error("expected no player")
		}
	})
}

func TestApplier(t *testing.T) {
	ctx := context.Background()

	newState := func(clock *fakeClock) *EngineState {
		s := NewEngineState(DefaultConfig(), clock.Now)
		s.NewSession("V1")
		return s
	}

	t.Run("tries every supported strategy", func(t *testing.T) {
		clock := newClock()
		state := newState(clock)
		p := tu.NewPlayer(quality.HD720, quality.HD1080)

		if !NewApplier(state, 0, quietLogger()).Apply(ctx, p, quality.HD1080) {
			t.Fatal("expected success")
		}
		if got := p.RangeCalls(); len(got) != 1 || got[0] != quality.HD1080 {
			t.Errorf("range calls = %v", got)
		}
		if got := p.SetCalls(); len(got) != 1 || got[0] != quality.HD1080 {
			t.Errorf("set calls = %v", got)
		}
		if state.Session.LastKnown != quality.HD1080 {
			t.Errorf("LastKnown = %q, want hd1080", state.Session.LastKnown)
		}
	})

	t.Run("one failing strategy is tolerated", func(t *testing.T) {
		clock := newClock()
		state := newState(clock)
		p := tu.NewPlayer(quality.HD1080)
		p.SetRangeErr = errors.New("range rejected")

		if !NewApplier(state, 0, quietLogger()).Apply(ctx, p, quality.HD1080) {
			t.Fatal("expected success from the single strategy")
		}
	})

	t.Run("only supported strategies are called", func(t *testing.T) {
		clock := newClock()
		state := newState(clock)
		p := tu.NewPlayer(quality.HD1080).Drop(host.SetQualityRange)

		if !NewApplier(state, 0, quietLogger()).Apply(ctx, p, quality.HD1080) {
			t.Fatal("expected success")
		}
		if len(p.RangeCalls()) != 0 {
			t.Error("range strategy should not be called")
		}
	})

	t.Run("total failure releases the marker", func(t *testing.T) {
		clock := newClock()
		state := newState(clock)
		p := tu.NewPlayer(quality.HD1080)
		p.SetRangeErr = errors.New("no")
		p.SetErr = errors.New("no")

		if NewApplier(state, 0, quietLogger()).Apply(ctx, p, quality.HD1080) {
			t.Fatal("expected failure")
		}
		if state.Marker.Active() {
			t.Error("marker should be released")
		}
		if state.Session.LastKnown != "" {
			t.Errorf("LastKnown should be untouched, got %q", state.Session.LastKnown)
		}
	})

	t.Run("success leases the marker", func(t *testing.T) {
		clock := newClock()
		state := newState(clock)
		p := tu.NewPlayer(quality.HD1080)

		NewApplier(state, 0, quietLogger()).Apply(ctx, p, quality.HD1080)
		if !state.Marker.Active() {
			t.Fatal("marker should be active right after apply")
		}
		clock.Advance(SelfWriteLease - time.Millisecond)
		if !state.Marker.Active() {
			t.Error("marker should still be active inside the lease")
		}
		clock.Advance(2 * time.Millisecond)
		if state.Marker.Active() {
			t.Error("marker should expire after the lease")
		}
	})
}

func TestMonitor(t *testing.T) {
	ctx := context.Background()

	setup := func() (*fakeClock, *EngineState, *tu.FakeElement, *tu.FakeDocument, *Monitor) {
		clock := newClock()
		state := NewEngineState(DefaultConfig(), clock.Now)
		state.NewSession("V1")
		player := tu.NewPlayer(quality.HD720, quality.HD1080)
		doc := tu.NewDocument(watchV1).Put("#movie_player", player)
		identify := func(ctx context.Context) string {
			loc, _ := doc.Location(ctx)
			if loc == watchV1 {
				return "V1"
			}
			return "V2"
		}
		m := NewMonitor(state, NewLocator(doc, quietLogger()), identify, quietLogger())
		return clock, state, player, doc, m
	}

	t.Run("records override after initial apply", func(t *testing.T) {
		clock, state, player, _, m := setup()
		NewApplier(state, 0, quietLogger()).Apply(ctx, player, quality.HD1080)
		state.Session.AppliedInitial = true

		player.SetCurrent(quality.HD720)
		if _, changed := m.Tick(ctx); changed {
			t.Fatal("tick inside the lease should be ignored")
		}

		clock.Advance(SelfWriteLease + 500*time.Millisecond)
		obs, changed := m.Tick(ctx)
		if !changed || !obs.Override {
			t.Fatalf("expected override, got %+v (changed=%v)", obs, changed)
		}
		if got, _ := state.Overrides.Get("V1"); got != quality.HD720 {
			t.Errorf("override = %q, want hd720", got)
		}
		if state.Session.LastKnown != quality.HD720 {
			t.Errorf("LastKnown = %q, want hd720", state.Session.LastKnown)
		}
	})

	t.Run("no override before initial apply", func(t *testing.T) {
		_, state, player, _, m := setup()
		state.Session.LastKnown = quality.HD1080
		player.SetCurrent(quality.HD720)

		obs, changed := m.Tick(ctx)
		if !changed || obs.Override {
			t.Fatalf("expected a plain observation, got %+v (changed=%v)", obs, changed)
		}
		if state.Overrides.Len() != 0 {
			t.Error("override must not be recorded")
		}
		if state.Session.LastKnown != quality.HD720 {
			t.Errorf("LastKnown = %q, want hd720", state.Session.LastKnown)
		}
	})

	t.Run("first observation is not an override", func(t *testing.T) {
		_, state, player, _, m := setup()
		state.Session.AppliedInitial = true
		player.SetCurrent(quality.HD720)

		if obs, _ := m.Tick(ctx); obs.Override {
			t.Error("empty LastKnown must not produce an override")
		}
	})

	t.Run("unchanged quality is ignored", func(t *testing.T) {
		_, state, player, _, m := setup()
		state.Session.LastKnown = quality.HD720
		player.SetCurrent(quality.HD720)

		if _, changed := m.Tick(ctx); changed {
			t.Error("expected no change")
		}
	})

	t.Run("other video on the page is ignored", func(t *testing.T) {
		_, state, player, doc, m := setup()
		state.Session.AppliedInitial = true
		state.Session.LastKnown = quality.HD1080
		player.SetCurrent(quality.HD720)
		doc.Navigate("https://www.youtube.com/watch?v=V2")

		if _, changed := m.Tick(ctx); changed {
			t.Error("expected no change while the page shows another video")
		}
	})

	t.Run("read errors are skipped", func(t *testing.T) {
		_, state, player, _, m := setup()
		state.Session.LastKnown = quality.HD1080
		player.CurrentErr = errors.New("boom")

		if _, changed := m.Tick(ctx); changed {
			t.Error("expected no change")
		}
	})
}

func TestReconciler(t *testing.T) {
	ctx := context.Background()

	build := func(cfg Config, doc *tu.FakeDocument) (*EngineState, *Reconciler) {
		clock := newClock()
		state := NewEngineState(cfg, clock.Now)
		locator := NewLocator(doc, quietLogger())
		r := NewReconciler(state, locator, NewApplier(state, 0, quietLogger()), quietLogger())
		r.Begin(state.NewSession("V1"))
		return state, r
	}

	t.Run("gives up after exactly maxAttempts", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaxAttempts = 3
		_, r := build(cfg, tu.NewDocument(watchV1))

		var last AttemptResult
		for i := 1; i <= 3; i++ {
			last = r.Attempt(ctx)
			if last.Attempt != i {
				t.Fatalf("attempt %d reported as %d", i, last.Attempt)
			}
		}
		if last.State != GaveUp || last.Outcome != models.OutcomeGaveUp {
			t.Fatalf("expected GaveUp, got %v", last.State)
		}
		if !errors.Is(last.Err, shared.ErrAttemptsExhausted) {
			t.Errorf("expected ErrAttemptsExhausted, got %v", last.Err)
		}

		if res := r.Attempt(ctx); !res.Stale || r.Attempts() != 3 {
			t.Errorf("no attempt may run after giving up, got %+v", res)
		}
	})

	t.Run("settles on the chosen level", func(t *testing.T) {
		player := tu.NewPlayer(quality.Tiny, quality.HD720, quality.HD1080)
		state, r := build(DefaultConfig(), tu.NewDocument(watchV1).Put("#movie_player", player))

		res := r.Attempt(ctx)
		if res.State != Settled || res.Quality != quality.HD1080 || res.Outcome != models.OutcomeSettled {
			t.Fatalf("unexpected result %+v", res)
		}
		if !state.Session.AppliedInitial {
			t.Error("AppliedInitial should be set")
		}
	})

	t.Run("waits for levels", func(t *testing.T) {
		player := tu.NewPlayer()
		_, r := build(DefaultConfig(), tu.NewDocument(watchV1).Put("#movie_player", player))

		if res := r.Attempt(ctx); res.State != Searching || !errors.Is(res.Err, shared.ErrNoQualities) {
			t.Fatalf("unexpected result %+v", res)
		}
		player.SetLevels(quality.HD720)
		if res := r.Attempt(ctx); res.State != Settled || res.Quality != quality.HD720 {
			t.Fatalf("unexpected result %+v", res)
		}
	})

	t.Run("disabled attempts are counted but do nothing", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Enabled = false
		cfg.MaxAttempts = 2
		player := tu.NewPlayer(quality.HD1080)
		doc := tu.NewDocument(watchV1).Put("#movie_player", player)
		_, r := build(cfg, doc)

		r.Attempt(ctx)
		res := r.Attempt(ctx)
		if res.State != GaveUp {
			t.Fatalf("expected GaveUp, got %v", res.State)
		}
		if doc.Queries() != 0 || len(player.SetCalls()) != 0 {
			t.Error("disabled attempts must not touch the page")
		}
	})

	t.Run("matching override settles without applying", func(t *testing.T) {
		player := tu.NewPlayer(quality.HD720, quality.HD1080)
		state, r := build(DefaultConfig(), tu.NewDocument(watchV1).Put("#movie_player", player))
		state.Overrides.Remember("V1", quality.HD720)

		res := r.Attempt(ctx)
		if res.State != Settled || res.Outcome != models.OutcomeOverride || res.Quality != quality.HD720 {
			t.Fatalf("unexpected result %+v", res)
		}
		if len(player.SetCalls()) != 0 || len(player.RangeCalls()) != 0 {
			t.Error("nothing should be applied")
		}
	})

	t.Run("replaced session makes attempts stale", func(t *testing.T) {
		player := tu.NewPlayer(quality.HD1080)
		state, r := build(DefaultConfig(), tu.NewDocument(watchV1).Put("#movie_player", player))
		state.NewSession("V2")

		if res := r.Attempt(ctx); !res.Stale {
			t.Fatalf("expected stale attempt, got %+v", res)
		}
		if len(player.SetCalls()) != 0 {
			t.Error("stale attempt must not apply")
		}
	})

	t.Run("apply failure keeps searching", func(t *testing.T) {
		player := tu.NewPlayer(quality.HD1080)
		player.SetErr = errors.New("no")
		player.SetRangeErr = errors.New("no")
		_, r := build(DefaultConfig(), tu.NewDocument(watchV1).Put("#movie_player", player))

		if res := r.Attempt(ctx); res.State != Searching || !errors.Is(res.Err, shared.ErrApplyFailed) {
			t.Fatalf("unexpected result %+v", res)
		}
	})
}

func TestLoopState(t *testing.T) {
	for _, s := range []LoopState{Settled, GaveUp} {
		if !s.Finished() {
			t.Errorf("%v should be finished", s)
		}
	}
	for _, s := range []LoopState{Idle, Searching} {
		if s.Finished() {
			t.Errorf("%v should not be finished", s)
		}
	}
}
