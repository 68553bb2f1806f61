package listsync

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultDebounce is the delay between the last keystroke and the search it commits.
const DefaultDebounce = 500 * time.Millisecond

// DebounceState is the state of a [Debouncer].
type DebounceState int

const (
	Idle DebounceState = iota
	Pending
)

func (s DebounceState) String() string {
	if s == Pending {
		return "pending"
	}
	return "idle"
}

// Debouncer coalesces rapid text input into a single delayed commit.
//
// Each Push supersedes the previous one: the timer restarts under a new tag and ticks carrying older tags are
// ignored by Fire.
type Debouncer struct {
	view   uint64
	delay  time.Duration
	tag    uint64
	text   string
	state  DebounceState
	closed bool
}

// NewDebouncer creates a debouncer whose ticks are addressed to view.
func NewDebouncer(view uint64, delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{view: view, delay: delay}
}

// Push records text and restarts the timer.
func (d *Debouncer) Push(text string) tea.Cmd {
	if d.closed {
		return nil
	}
	d.tag++
	d.text = text
	d.state = Pending

	view, tag := d.view, d.tag
	return tea.Tick(d.delay, func(time.Time) tea.Msg {
		return debounceFiredMsg(view, tag)
	})
}

// Fire returns the pending text when tag is the newest push, moving back to Idle.
func (d *Debouncer) Fire(tag uint64) (string, bool) {
	if d.closed || d.state != Pending || tag != d.tag {
		return "", false
	}
	d.state = Idle
	return d.text, true
}

// Cancel drops the pending text; an outstanding tick becomes a no-op.
func (d *Debouncer) Cancel() {
	d.tag++
	d.state = Idle
}

// Close cancels and disables the debouncer.
func (d *Debouncer) Close() {
	d.Cancel()
	d.closed = true
}

// State returns the current state.
func (d *Debouncer) State() DebounceState { return d.state }

// Text returns the last pushed text.
func (d *Debouncer) Text() string { return d.text }
