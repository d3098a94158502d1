package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSaved MsgKind = iota
	MsgPushed
)

// savedMsg is the constructor for [MsgSaved]
func savedMsg(err error) Msg {
	return Msg{kind: MsgSaved, data: err}
}

// pushedMsg is the constructor for [MsgPushed]
func pushedMsg(err error) Msg {
	return Msg{kind: MsgPushed, data: err}
}

func (m Msg) err() error {
	err, _ := m.data.(error)
	return err
}
