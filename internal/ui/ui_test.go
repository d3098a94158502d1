package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tubetune/internal/shared"
)

type fakeSaver struct {
	saved   []shared.EngineConfig
	pushed  []shared.EngineConfig
	saveErr error
	pushErr error
}

func (f *fakeSaver) Save(cfg shared.EngineConfig) error {
	f.saved = append(f.saved, cfg)
	return f.saveErr
}

func (f *fakeSaver) Push(ctx context.Context, cfg shared.EngineConfig) error {
	f.pushed = append(f.pushed, cfg)
	return f.pushErr
}

func defaultSettings() shared.EngineConfig {
	return shared.EngineConfig{Enabled: true, Quality: "1080p", Debug: true, AttemptIntervalMs: 500, MaxAttempts: 60}
}

func press(m *Model, keys ...tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(k)
	}
	return cmd
}

var (
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	keySave  = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}}
	keyQuit  = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
)

// run executes cmd and feeds its message back, following the save then push chain.
func run(m *Model, cmd tea.Cmd) {
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			return
		}
		_, cmd = m.Update(msg)
	}
}

func TestModel(t *testing.T) {
	t.Run("toggles enabled", func(t *testing.T) {
		m := NewModel(context.Background(), defaultSettings(), &fakeSaver{})
		press(m, keySpace)
		if m.Config().Enabled {
			t.Error("expected enabled to be toggled off")
		}
		if !m.Dirty() {
			t.Error("expected unsaved changes")
		}
		if !strings.Contains(m.View(), "Unsaved changes") {
			t.Error("view should mention unsaved changes")
		}
	})

	t.Run("cursor wraps", func(t *testing.T) {
		m := NewModel(context.Background(), defaultSettings(), &fakeSaver{})
		press(m, keyUp, keySpace)
		if m.Config().Debug {
			t.Error("expected the last field (debug) to be toggled")
		}
	})

	t.Run("picks a quality", func(t *testing.T) {
		m := NewModel(context.Background(), defaultSettings(), &fakeSaver{})
		press(m, keyDown, keyEnter)
		if m.view != QualityView {
			t.Fatalf("expected quality view, got %v", m.view)
		}

		for i, item := range m.qualities.Items() {
			if item.(qualityItem).label == "720p" {
				m.qualities.Select(i)
			}
		}
		press(m, keyEnter)

		if m.view != SettingsView || m.Config().Quality != "720p" {
			t.Errorf("expected 720p in settings view, got %q in %v", m.Config().Quality, m.view)
		}
	})

	t.Run("escape keeps the quality", func(t *testing.T) {
		m := NewModel(context.Background(), defaultSettings(), &fakeSaver{})
		press(m, keyDown, keyEnter, keyEsc)
		if m.view != SettingsView || m.Config().Quality != "1080p" || m.Dirty() {
			t.Errorf("unexpected state %v %q dirty=%v", m.view, m.Config().Quality, m.Dirty())
		}
	})

	t.Run("save then push", func(t *testing.T) {
		saver := &fakeSaver{}
		m := NewModel(context.Background(), defaultSettings(), saver)
		press(m, keySpace)
		run(m, press(m, keySave))

		if len(saver.saved) != 1 || saver.saved[0].Enabled {
			t.Fatalf("unexpected saves %+v", saver.saved)
		}
		if len(saver.pushed) != 1 {
			t.Fatalf("expected one push, got %d", len(saver.pushed))
		}
		if m.Dirty() || !strings.Contains(m.View(), "Saved and applied") {
			t.Errorf("expected applied status, view:\n%s", m.View())
		}
	})

	t.Run("push failure is a warning", func(t *testing.T) {
		saver := &fakeSaver{pushErr: errors.New("connection refused")}
		m := NewModel(context.Background(), defaultSettings(), saver)
		run(m, press(m, keySave))

		if !strings.Contains(m.View(), "daemon not reachable") {
			t.Errorf("expected warning, view:\n%s", m.View())
		}
	})

	t.Run("save failure is an error", func(t *testing.T) {
		saver := &fakeSaver{saveErr: errors.New("read-only")}
		m := NewModel(context.Background(), defaultSettings(), saver)
		run(m, press(m, keySave))

		if len(saver.pushed) != 0 {
			t.Error("push must not happen after a failed save")
		}
		if !strings.Contains(m.View(), "read-only") {
			t.Errorf("expected error in view:\n%s", m.View())
		}
	})

	t.Run("quit", func(t *testing.T) {
		m := NewModel(context.Background(), defaultSettings(), nil)
		cmd := press(m, keyQuit)
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}

func TestQualityItems(t *testing.T) {
	items := qualityItems()
	if len(items) == 0 {
		t.Fatal("expected items")
	}
	if first := items[0].(qualityItem); first.label != "highres" {
		t.Errorf("expected highres first, got %q", first.label)
	}
	if d := (qualityItem{label: "1080p"}).Description(); !strings.Contains(d, "hd1080") || !strings.Contains(d, "80") {
		t.Errorf("unexpected description %q", d)
	}
}
