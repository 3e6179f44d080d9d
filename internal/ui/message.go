package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the spinner (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgTaskDone MsgKind = iota
)

// taskDoneMsg is the constructor for [MsgTaskDone]
func taskDoneMsg(err error) Msg {
	return Msg{kind: MsgTaskDone, data: err}
}

// Kind returns the message type.
func (m Msg) Kind() MsgKind {
	return m.kind
}

// Err returns the error carried by a [MsgTaskDone] message, if any.
func (m Msg) Err() error {
	err, _ := m.data.(error)
	return err
}
