package listsync

import (
	"time"

	"github.com/desertthunder/crmx/internal/transport"
)

// NoticeLevel is the severity of a [Notice].
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeError
)

func (l NoticeLevel) String() string {
	if l == NoticeError {
		return "error"
	}
	return "info"
}

// Notice is a dismissible, user-facing message.
type Notice struct {
	Level    NoticeLevel
	Message  string
	RecordID string
	At       time.Time
}

// Notifier presents notices (toasts, status lines, stderr).
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to [Notifier].
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

type nopNotifier struct{}

func (nopNotifier) Notify(Notice) {}

// describe returns the user-facing text of err.
func describe(err error) string {
	if f, ok := transport.AsFailure(err); ok {
		return f.Message
	}
	return err.Error()
}
