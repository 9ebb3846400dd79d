package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/nowplaying/internal/models"
)

// MsgKind enumerates all message types in the watch view.
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
	MsgSnapshotFetched MsgKind = iota
	MsgTick
	MsgOpened
)

type snapshotResult struct {
	snapshot models.Snapshot
	err      error
	at       time.Time
}

// snapshotFetchedMsg is the constructor for [MsgSnapshotFetched]
func snapshotFetchedMsg(s models.Snapshot, err error, at time.Time) Msg {
	return Msg{kind: MsgSnapshotFetched, data: snapshotResult{snapshot: s, err: err, at: at}}
}

// tickMsg is the constructor for [MsgTick]
func tickMsg(at time.Time) Msg {
	return Msg{kind: MsgTick, data: at}
}

// openedMsg is the constructor for [MsgOpened]
func openedMsg(err error) Msg {
	return Msg{kind: MsgOpened, data: err}
}
