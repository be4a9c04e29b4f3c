package editor

import "fmt"

// Kind classifies an editor failure.
type Kind int

const (
	KindTempFileCreation Kind = iota + 1
	KindSpawn
	KindExecution
	KindContentRead
)

func (k Kind) String() string {
	switch k {
	case KindTempFileCreation:
		return "temp file creation"
	case KindSpawn:
		return "spawn"
	case KindExecution:
		return "execution"
	case KindContentRead:
		return "content read"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrTempFileCreation = &Error{Kind: KindTempFileCreation}
	ErrSpawn            = &Error{Kind: KindSpawn}
	ErrExecution        = &Error{Kind: KindExecution}
	ErrContentRead      = &Error{Kind: KindContentRead}
)

// Error is returned by Launcher.Open.
type Error struct {
	Kind    Kind
	Command string // editor command line, when one was involved
	Err     error
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindTempFileCreation:
		msg = "could not create edit file"
	case KindSpawn:
		msg = fmt.Sprintf("could not start editor %q", e.Command)
	case KindExecution:
		msg = fmt.Sprintf("editor %q failed", e.Command)
	case KindContentRead:
		msg = "could not read edited file"
	default:
		msg = "editor error"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Err == nil && t.Command == "" && t.Kind == e.Kind
}

// CleanupWarning records a transient file that could not be removed. It is
// only ever logged.
type CleanupWarning struct {
	Path string
	Err  error
}

func (w *CleanupWarning) Error() string {
	return fmt.Sprintf("remove %s: %v", w.Path, w.Err)
}

func (w *CleanupWarning) Unwrap() error { return w.Err }
