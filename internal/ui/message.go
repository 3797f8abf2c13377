package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/blendify/internal/models"
	"github.com/desertthunder/blendify/internal/tasks"
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
	MsgWatchUpdate MsgKind = iota
	MsgWatchDone
	MsgBrowserOpened
)

type watchResult struct {
	session *models.Session
	err     error
}

// watchUpdateMsg is the constructor for [MsgWatchUpdate]
func watchUpdateMsg(update tasks.WatchUpdate) Msg {
	return Msg{kind: MsgWatchUpdate, data: update}
}

// watchDoneMsg is the constructor for [MsgWatchDone]
func watchDoneMsg(session *models.Session, err error) Msg {
	return Msg{kind: MsgWatchDone, data: watchResult{session: session, err: err}}
}

// browserOpenedMsg is the constructor for [MsgBrowserOpened]
func browserOpenedMsg(err error) Msg {
	return Msg{kind: MsgBrowserOpened, data: err}
}
