package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tubetune/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SettingsView ViewState = iota
	QualityView
)

type field int

const (
	fieldEnabled field = iota
	fieldQuality
	fieldDebug
	fieldCount
)

// Saver persists edited settings and notifies a running daemon.
type Saver interface {
	Save(cfg shared.EngineConfig) error
	Push(ctx context.Context, cfg shared.EngineConfig) error
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	cfg       shared.EngineConfig
	saver     Saver
	cursor    field
	qualities list.Model
	dirty     bool
	status    string
	warn      bool
	err       error
	width     int
	height    int
	help      help.Model
	keys      keyMap
}

// NewModel creates a settings panel editing cfg.
func NewModel(ctx context.Context, cfg shared.EngineConfig, saver Saver) *Model {
	qualities := list.New(qualityItems(), list.NewDefaultDelegate(), 40, 20)
	qualities.Title = "Preferred quality"
	qualities.SetFilteringEnabled(false)
	qualities.SetShowHelp(false)

	return &Model{
		ctx:       ctx,
		view:      SettingsView,
		cfg:       cfg,
		saver:     saver,
		qualities: qualities,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Config returns the settings as currently edited.
func (m *Model) Config() shared.EngineConfig {
	return m.cfg
}

// Dirty reports whether there are unsaved edits.
func (m *Model) Dirty() bool {
	return m.dirty
}

// Init implements [tea.Model].
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.qualities.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case SettingsView:
			return m.handleSettingsKeys(msg)
		case QualityView:
			return m.handleQualityKeys(msg)
		}

	case Msg:
		switch msg.kind {
		case MsgSaved:
			if err := msg.err(); err != nil {
				m.err = err
				return m, nil
			}
			m.err = nil
			m.dirty = false
			m.status, m.warn = "Saved", false
			return m, m.push()
		case MsgPushed:
			if err := msg.err(); err != nil {
				m.status, m.warn = "Saved; daemon not reachable, it will pick up the file change", true
				return m, nil
			}
			m.status, m.warn = "Saved and applied", false
			return m, nil
		}
	}

	if m.view == QualityView {
		var cmd tea.Cmd
		m.qualities, cmd = m.qualities.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleSettingsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.up):
		m.cursor = (m.cursor + fieldCount - 1) % fieldCount
	case key.Matches(msg, m.keys.down):
		m.cursor = (m.cursor + 1) % fieldCount
	case key.Matches(msg, m.keys.save):
		return m, m.save()
	case key.Matches(msg, m.keys.toggle), key.Matches(msg, m.keys.enter):
		m.activate()
	}
	return m, nil
}

// activate toggles the focused switch or opens the quality picker.
func (m *Model) activate() {
	switch m.cursor {
	case fieldEnabled:
		m.cfg.Enabled = !m.cfg.Enabled
		m.dirty = true
	case fieldDebug:
		m.cfg.Debug = !m.cfg.Debug
		m.dirty = true
	case fieldQuality:
		for i, item := range m.qualities.Items() {
			if q, ok := item.(qualityItem); ok && q.label == m.cfg.Quality {
				m.qualities.Select(i)
				break
			}
		}
		m.view = QualityView
	}
}

func (m *Model) handleQualityKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = SettingsView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if q, ok := m.qualities.SelectedItem().(qualityItem); ok && q.label != m.cfg.Quality {
			m.cfg.Quality = q.label
			m.dirty = true
		}
		m.view = SettingsView
		return m, nil
	}

	var cmd tea.Cmd
	m.qualities, cmd = m.qualities.Update(msg)
	return m, cmd
}

func (m *Model) save() tea.Cmd {
	if m.saver == nil {
		return nil
	}
	cfg := m.cfg
	return func() tea.Msg {
		return savedMsg(m.saver.Save(cfg))
	}
}

func (m *Model) push() tea.Cmd {
	if m.saver == nil {
		return nil
	}
	cfg := m.cfg
	return func() tea.Msg {
		return pushedMsg(m.saver.Push(m.ctx, cfg))
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case QualityView:
		helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.back})
		return fmt.Sprintf("%s\n\n%s", m.qualities.View(), helpView)
	default:
		return m.renderSettings()
	}
}

func (m *Model) renderSettings() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("TubeTune"))
	b.WriteString("\n")

	rows := []struct {
		f     field
		label string
		value string
	}{
		{fieldEnabled, "Enabled", onOff(m.cfg.Enabled)},
		{fieldQuality, "Quality", m.cfg.Quality},
		{fieldDebug, "Debug logging", onOff(m.cfg.Debug)},
	}
	for _, r := range rows {
		line := fmt.Sprintf("%-14s %s", r.label, r.value)
		if r.f == m.cursor {
			b.WriteString(styles.selected.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
	case m.dirty:
		b.WriteString(styles.warn.Render("Unsaved changes"))
	case m.status != "" && m.warn:
		b.WriteString(styles.warn.Render(m.status))
	case m.status != "":
		b.WriteString(styles.ok.Render("✓ " + m.status))
	}
	b.WriteString("\n\n")
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	return b.String()
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
