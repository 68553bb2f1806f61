package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// MsgKind enumerates the TUI's own message types.
type MsgKind int

// Msg is the TUI message union; engine messages travel as [listsync.Msg].
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgNoticeExpired MsgKind = iota
	MsgDeleted
)

// deleted carries the engine's answer to a delete along with the collection it came from.
type deleted struct {
	view  string
	reply tea.Msg
}

// noticeExpiredMsg is the constructor for [MsgNoticeExpired]
func noticeExpiredMsg(seq int) Msg {
	return Msg{kind: MsgNoticeExpired, data: seq}
}

// deletedMsg is the constructor for [MsgDeleted]
func deletedMsg(view string, reply tea.Msg) Msg {
	return Msg{kind: MsgDeleted, data: deleted{view: view, reply: reply}}
}
