// Package terminal hands the controlling terminal between the bubbletea
// program and external line-mode processes.
//
// Two modes are mutually exclusive: application display mode (raw input,
// alternate screen, owned by the program's renderer) and line mode (cooked
// input owned by the terminal driver, as a conventional command-line
// program expects). Both transitions mutate process-wide device state and
// must only be made from the program's event loop goroutine.
package terminal

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

const (
	opLineMode        = "enter line mode"
	opApplicationMode = "enter application mode"
)

// ErrNotTerminal is wrapped by IOError when the input device is not a tty.
var ErrNotTerminal = errors.New("not a terminal")

var errUnbound = errors.New("no program bound")

// IOError reports that the terminal device could not be reconfigured.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string { return fmt.Sprintf("terminal: %s: %v", e.Op, e.Err) }
func (e *IOError) Unwrap() error { return e.Err }

// Controller switches the terminal between its two display modes.
type Controller interface {
	// EnterLineMode releases raw input and leaves the alternate screen.
	EnterLineMode() error
	// EnterApplicationMode re-acquires raw input, re-enters the alternate
	// screen and forces a full repaint.
	EnterApplicationMode() error
}

// Program is the part of *tea.Program used to give up and take back the
// terminal.
type Program interface {
	ReleaseTerminal() error
	RestoreTerminal() error
	Send(msg tea.Msg)
}

// ProgramController is a Controller backed by a running bubbletea program.
type ProgramController struct {
	program    Program
	fd         int
	isTerminal func(fd int) bool
}

// NewProgramController returns a controller for the terminal attached to
// input. Bind must be called with the program before any mode switch.
func NewProgramController(input *os.File) *ProgramController {
	return &ProgramController{
		fd:         int(input.Fd()),
		isTerminal: term.IsTerminal,
	}
}

// Bind attaches the program whose renderer owns the terminal.
func (c *ProgramController) Bind(p Program) {
	c.program = p
}

func (c *ProgramController) EnterLineMode() error {
	if c.program == nil {
		return &IOError{Op: opLineMode, Err: errUnbound}
	}
	if !c.isTerminal(c.fd) {
		return &IOError{Op: opLineMode, Err: ErrNotTerminal}
	}
	if err := c.program.ReleaseTerminal(); err != nil {
		return &IOError{Op: opLineMode, Err: err}
	}
	return nil
}

func (c *ProgramController) EnterApplicationMode() error {
	if c.program == nil {
		return &IOError{Op: opApplicationMode, Err: errUnbound}
	}
	if err := c.program.RestoreTerminal(); err != nil {
		return &IOError{Op: opApplicationMode, Err: err}
	}
	// The caller is the event loop, which is the only reader of Send's
	// channel, so the clear has to be queued from another goroutine.
	go c.program.Send(tea.ClearScreen())
	return nil
}

// WithLineMode puts the terminal in line mode, runs fn, and puts it back in
// application mode on every exit path of fn, including a panic.
//
// If line mode cannot be entered, fn is not run and the entry error is
// returned. A failure to restore application mode is logged and never
// returned: fn's own error (or panic) always reaches the caller unchanged.
func WithLineMode(ctrl Controller, logger *slog.Logger, fn func() error) error {
	if err := ctrl.EnterLineMode(); err != nil {
		return err
	}
	defer func() {
		if err := ctrl.EnterApplicationMode(); err != nil {
			logger.Error("failed to restore application mode", "error", err)
		}
	}()
	return fn()
}
