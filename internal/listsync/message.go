package listsync

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/crmx/internal/models"
)

// MsgKind enumerates the engine messages.
type MsgKind int

// Msg is the message union produced by engine commands and consumed by [View.Update].
//
// Every message is addressed to one view, so several views can share a program.
type Msg struct {
	view uint64
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgDebounceFired MsgKind = iota
	MsgPageFetched
	MsgSupersetFetched
	MsgRecordFetched
	MsgStatusChanged
	MsgMutationDone
)

// Kind returns the message kind.
func (m Msg) Kind() MsgKind { return m.kind }

// Err returns the error a request reply carries, or nil for successes and debounce ticks.
func (m Msg) Err() error {
	switch r := m.data.(type) {
	case fetchResult:
		return r.err
	case recordResult:
		return r.err
	case statusResult:
		return r.err
	case mutationResult:
		return r.err
	}
	return nil
}

type fetchResult struct {
	gen  uint64
	seq  uint64
	page *models.Page
	err  error
}

type recordResult struct {
	seq uint64
	rec models.Record
	err error
}

type statusResult struct {
	id  string
	rec models.Record
	err error
}

type mutationResult struct {
	kind  MutationKind
	key   string // pending key
	id    string
	label string
	rec   models.Record
	err   error
}

// debounceFiredMsg is the constructor for [MsgDebounceFired]
func debounceFiredMsg(view, tag uint64) Msg {
	return Msg{view: view, kind: MsgDebounceFired, data: tag}
}

// pageFetchedMsg is the constructor for [MsgPageFetched]
func pageFetchedMsg(view uint64, r fetchResult) Msg {
	return Msg{view: view, kind: MsgPageFetched, data: r}
}

// supersetFetchedMsg is the constructor for [MsgSupersetFetched]
func supersetFetchedMsg(view uint64, r fetchResult) Msg {
	return Msg{view: view, kind: MsgSupersetFetched, data: r}
}

// recordFetchedMsg is the constructor for [MsgRecordFetched]
func recordFetchedMsg(view uint64, r recordResult) Msg {
	return Msg{view: view, kind: MsgRecordFetched, data: r}
}

// statusChangedMsg is the constructor for [MsgStatusChanged]
func statusChangedMsg(view uint64, r statusResult) Msg {
	return Msg{view: view, kind: MsgStatusChanged, data: r}
}

// mutationDoneMsg is the constructor for [MsgMutationDone]
func mutationDoneMsg(view uint64, r mutationResult) Msg {
	return Msg{view: view, kind: MsgMutationDone, data: r}
}
