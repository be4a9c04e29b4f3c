// Package editor runs the user's external editor on a piece of issue text.
//
// The launcher assumes the terminal is already in line mode: it inherits
// the process's standard streams so the editor can draw directly to the
// device, and blocks until the editor exits.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	filePrefix    = "jiratui"
	fileExtension = "md"

	// DefaultCommand is used when neither editor variable is set.
	DefaultCommand = "vi"
)

// editorVars are consulted in order; the first non-empty one wins.
var editorVars = []string{"EDITOR", "VISUAL"}

// Outcome is the result of a successful edit.
type Outcome struct {
	Content  string
	Modified bool // Content differs from what was handed to the editor
}

// Launcher spawns the external editor. The zero value is not usable; build
// one with NewLauncher and override fields as needed.
type Launcher struct {
	Getenv  func(string) string
	TempDir string
	PID     int

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Logger *slog.Logger

	remove func(string) error
}

// NewLauncher returns a launcher wired to the real process environment,
// temp directory and standard streams.
func NewLauncher(logger *slog.Logger) *Launcher {
	return &Launcher{
		Getenv:  os.Getenv,
		TempDir: os.TempDir(),
		PID:     os.Getpid(),
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Logger:  logger,
		remove:  os.Remove,
	}
}

// ResolveCommand returns the editor command line: $EDITOR, else $VISUAL,
// else DefaultCommand.
func ResolveCommand(getenv func(string) string) string {
	for _, name := range editorVars {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			return v
		}
	}
	return DefaultCommand
}

// FilePath returns the transient file used to edit issueKey from the
// process with the given pid. Distinct keys always map to distinct paths.
func FilePath(dir, issueKey string, pid int) string {
	name := fmt.Sprintf("%s-%s-%d.%s", filePrefix, escapeKey(issueKey), pid, fileExtension)
	return filepath.Join(dir, name)
}

// escapeKey makes an issue key safe for use in a file name. Bytes outside
// [A-Za-z0-9._-] (including '%') are written as %XX, which keeps the
// mapping injective.
func escapeKey(key string) string {
	var b strings.Builder
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9',
			c == '.', c == '_', c == '-':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

// Open writes content to a transient file, runs the editor on it, and
// returns what the file holds once the editor exits cleanly. The file is
// removed before Open returns on every path; a failed removal is logged as
// a warning and does not affect the result.
//
// No timeout is applied beyond whatever ctx carries.
func (l *Launcher) Open(ctx context.Context, issueKey, content string) (Outcome, error) {
	command := ResolveCommand(l.getenv)
	path := FilePath(l.TempDir, issueKey, l.PID)
	logger := l.logger().With("issue", issueKey, "path", path)

	if err := writeExclusive(path, content); err != nil {
		// A partially written file must not outlive the call either.
		l.cleanup(logger, path)
		return Outcome{}, &Error{Kind: KindTempFileCreation, Err: err}
	}
	logger.Debug("edit file written")
	defer l.cleanup(logger, path)

	fields := strings.Fields(command)
	cmd := exec.CommandContext(ctx, fields[0], append(fields[1:], path)...)
	cmd.Stdin = l.Stdin
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr

	if err := cmd.Start(); err != nil {
		return Outcome{}, &Error{Kind: KindSpawn, Command: command, Err: err}
	}
	logger.Debug("editor running", "command", command, "pid", cmd.Process.Pid)

	if err := cmd.Wait(); err != nil {
		logger.Debug("editor exited", "state", cmd.ProcessState.String())
		return Outcome{}, &Error{Kind: KindExecution, Command: command, Err: err}
	}
	logger.Debug("editor exited", "state", cmd.ProcessState.String())

	data, err := os.ReadFile(path)
	if err != nil {
		return Outcome{}, &Error{Kind: KindContentRead, Err: err}
	}

	edited := string(data)
	out := Outcome{Content: edited, Modified: edited != content}
	logger.Debug("content compared", "modified", out.Modified)
	return out, nil
}

// writeExclusive creates path afresh and writes content to it. Whatever is
// already at the name, a symlink included, is unlinked first and never
// followed.
func writeExclusive(path, content string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(f, content); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (l *Launcher) cleanup(logger *slog.Logger, path string) {
	remove := l.remove
	if remove == nil {
		remove = os.Remove
	}
	err := remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		logger.Debug("edit file removed")
		return
	}
	logger.Warn("edit file left behind", "warning", &CleanupWarning{Path: path, Err: err})
}

func (l *Launcher) getenv(name string) string {
	if l.Getenv == nil {
		return os.Getenv(name)
	}
	return l.Getenv(name)
}

func (l *Launcher) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l.Logger
}
