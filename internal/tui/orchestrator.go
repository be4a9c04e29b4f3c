package tui

import (
	"context"
	"log/slog"

	"jiratui/internal/editor"
	"jiratui/internal/terminal"
)

// PendingEdit is a request to open an issue description in the external
// editor. At most one is outstanding; the event loop drains it in the same
// iteration that created it.
type PendingEdit struct {
	IssueKey        string
	OriginalContent string
}

// EditTarget is the application state an Orchestrator reads requests from
// and writes results to.
type EditTarget interface {
	TakePendingEdit() (PendingEdit, bool)
	ApplyEditedContent(issueKey, content string)
	Notify(message string, severity Severity)
}

// Opener runs an external edit; *editor.Launcher implements it.
type Opener interface {
	Open(ctx context.Context, issueKey, content string) (editor.Outcome, error)
}

// Orchestrator runs pending external edits synchronously on the event loop.
// While the editor runs the UI is fully suspended.
type Orchestrator struct {
	terminal terminal.Controller
	editor   Opener
	logger   *slog.Logger
}

func NewOrchestrator(ctrl terminal.Controller, ed Opener, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		terminal: ctrl,
		editor:   ed,
		logger:   logger.With("component", "orchestrator"),
	}
}

// Drain runs the target's pending edit, if any, and reports whether it did.
// When it returns true the terminal is back in application mode with a
// repaint queued, and the target has either absorbed the new content or
// received an error notification.
func (o *Orchestrator) Drain(target EditTarget) bool {
	req, ok := target.TakePendingEdit()
	if !ok {
		return false
	}
	logger := o.logger.With("issue", req.IssueKey)

	var outcome editor.Outcome
	err := terminal.WithLineMode(o.terminal, logger, func() error {
		var err error
		// No deadline: the editor is a foreground, modal action.
		outcome, err = o.editor.Open(context.Background(), req.IssueKey, req.OriginalContent)
		return err
	})

	switch {
	case err != nil:
		logger.Warn("external edit failed", "error", err)
		target.Notify(err.Error(), SeverityError)
	case outcome.Modified:
		logger.Info("external edit changed description", "bytes", len(outcome.Content))
		target.ApplyEditedContent(req.IssueKey, outcome.Content)
	default:
		logger.Info("external edit left description unchanged")
	}
	return true
}
