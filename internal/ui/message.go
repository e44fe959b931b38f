package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/learnx/internal/player"
	"github.com/desertthunder/learnx/internal/qa"
	"github.com/desertthunder/learnx/internal/tasks"
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
	MsgProgressUpdate MsgKind = iota
	MsgOpened
	MsgSnapshot
	MsgComplete
	MsgConnected
	MsgInbound
	MsgSent
)

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// openedMsg is the constructor for [MsgOpened]
func openedMsg(result *tasks.OpenResult, err error) Msg {
	return Msg{
		kind: MsgOpened,
		data: struct {
			result *tasks.OpenResult
			err    error
		}{result, err},
	}
}

// snapshotMsg is the constructor for [MsgSnapshot]
func snapshotMsg(s player.Snapshot) Msg {
	return Msg{kind: MsgSnapshot, data: s}
}

// completeMsg is the constructor for [MsgComplete]
func completeMsg() Msg {
	return Msg{kind: MsgComplete}
}

// connectedMsg is the constructor for [MsgConnected]
func connectedMsg(err error) Msg {
	return Msg{kind: MsgConnected, data: err}
}

// inboundMsg is the constructor for [MsgInbound]
func inboundMsg(msg qa.Inbound) Msg {
	return Msg{kind: MsgInbound, data: msg}
}

// sentMsg is the constructor for [MsgSent]
func sentMsg(err error) Msg {
	return Msg{kind: MsgSent, data: err}
}
