package tui

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"jiratui/internal/editor"
	"jiratui/internal/issue"
	"jiratui/internal/model"
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// newTestStore writes issues to a fresh cache file and loads it.
func newTestStore(t *testing.T, issues ...model.Issue) *issue.Store {
	t.Helper()
	data, err := yaml.Marshal(map[string]any{"issues": issues})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "issues.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	s, err := issue.Load(path)
	require.NoError(t, err)
	return s
}

// writeEditor installs a shell script standing in for $EDITOR.
func writeEditor(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake editors are shell scripts")
	}
	path := filepath.Join(t.TempDir(), "fake-editor")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

type harness struct {
	model    Model
	terminal *fakeTerminal
	tempDir  string
}

// newHarness builds a model whose external editor is command, with the
// terminal switched by a recording fake.
func newHarness(t *testing.T, command string, issues ...model.Issue) *harness {
	t.Helper()
	launcher := editor.NewLauncher(discardLogger())
	launcher.Getenv = func(name string) string {
		if name == "EDITOR" {
			return command
		}
		return ""
	}
	launcher.TempDir = t.TempDir()
	launcher.Stdin, launcher.Stdout, launcher.Stderr = nil, nil, nil

	term := &fakeTerminal{rec: &recorder{}}
	m := New(Options{
		Store:        newTestStore(t, issues...),
		Orchestrator: NewOrchestrator(term, launcher, discardLogger()),
		Logger:       discardLogger(),
	})
	h := &harness{model: m, terminal: term, tempDir: launcher.TempDir}
	h.send(tea.WindowSizeMsg{Width: 120, Height: 40})
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	return cmd
}

func (h *harness) assertNoEditFiles(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(h.tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "transient edit files left behind")
}

func TestExternalEdit_UnchangedContent(t *testing.T) {
	h := newHarness(t, writeEditor(t, "exit 0"),
		model.Issue{Key: "PROJ-123", Summary: "Greeting", Description: "Hello"})

	h.send(runeKey('e'))

	assert.Equal(t, stateNormal, h.model.state)
	assert.Nil(t, h.model.notice)
	assert.Nil(t, h.model.pendingEdit)
	assert.Equal(t, 1, h.terminal.restored)
	desc, err := h.model.store.Description("PROJ-123")
	require.NoError(t, err)
	assert.Equal(t, "Hello", desc)
	h.assertNoEditFiles(t)
}

func TestExternalEdit_ModifiedContentEntersInlineEdit(t *testing.T) {
	h := newHarness(t, writeEditor(t, `printf 'new text' > "$1"`),
		model.Issue{Key: "PROJ-7", Summary: "Rewrite", Description: "old"})

	cmd := h.send(runeKey('e'))

	assert.NotNil(t, cmd)
	assert.Equal(t, stateInlineEdit, h.model.state)
	assert.Equal(t, "PROJ-7", h.model.editKey)
	assert.Equal(t, "new text", h.model.editArea.Value())
	assert.True(t, h.model.Dirty())
	assert.Equal(t, 1, h.terminal.restored)
	assert.Contains(t, h.model.View(), "Editing PROJ-7")

	// Not persisted until saved.
	desc, err := h.model.store.Description("PROJ-7")
	require.NoError(t, err)
	assert.Equal(t, "old", desc)
	h.assertNoEditFiles(t)
}

func TestExternalEdit_MissingEditorNotifies(t *testing.T) {
	h := newHarness(t, filepath.Join(t.TempDir(), "no-such-editor"),
		model.Issue{Key: "PROJ-1", Summary: "s", Description: "text"})

	cmd := h.send(runeKey('e'))

	require.NotNil(t, h.model.notice)
	assert.NotNil(t, cmd)
	assert.Equal(t, SeverityError, h.model.notice.severity)
	assert.Contains(t, h.model.notice.text, "could not start editor")
	assert.Equal(t, stateNormal, h.model.state)
	assert.Equal(t, 1, h.terminal.restored)
	assert.Nil(t, h.model.pendingEdit)
	assert.Contains(t, h.model.View(), "could not start editor")
	h.assertNoEditFiles(t)
}

func TestExternalEdit_FailedEditorLeavesStateUnchanged(t *testing.T) {
	h := newHarness(t, writeEditor(t, `printf 'half' > "$1"; exit 1`),
		model.Issue{Key: "PROJ-2", Summary: "s", Description: "before"})

	h.send(runeKey('e'))

	require.NotNil(t, h.model.notice)
	assert.Contains(t, h.model.notice.text, "exit status 1")
	assert.Equal(t, stateNormal, h.model.state)
	desc, err := h.model.store.Description("PROJ-2")
	require.NoError(t, err)
	assert.Equal(t, "before", desc)
	h.assertNoEditFiles(t)
}

func TestExternalEdit_IgnoredDuringInlineEdit(t *testing.T) {
	h := newHarness(t, writeEditor(t, "exit 0"),
		model.Issue{Key: "PROJ-3", Summary: "s", Description: "body"})

	h.send(runeKey('i'))
	require.Equal(t, stateInlineEdit, h.model.state)
	h.send(runeKey('e'))

	assert.Equal(t, 0, h.terminal.restored)
	assert.Equal(t, "bodye", h.model.editArea.Value())
}

func TestExternalEdit_NoIssues(t *testing.T) {
	h := newHarness(t, writeEditor(t, "exit 0"))

	h.send(runeKey('e'))

	assert.Equal(t, 0, h.terminal.restored)
	assert.Contains(t, h.model.View(), "No issues found")
}

func TestInlineEdit_SaveAfterExternalEdit(t *testing.T) {
	h := newHarness(t, writeEditor(t, `printf 'new text' > "$1"`),
		model.Issue{Key: "PROJ-7", Summary: "Rewrite", Description: "old"})

	h.send(runeKey('e'))
	require.True(t, h.model.Dirty())
	h.send(tea.KeyMsg{Type: tea.KeyCtrlS})

	assert.Equal(t, stateNormal, h.model.state)
	require.NotNil(t, h.model.notice)
	assert.Equal(t, "Saved PROJ-7", h.model.notice.text)

	reloaded, err := issue.Load(h.model.store.Path())
	require.NoError(t, err)
	desc, err := reloaded.Description("PROJ-7")
	require.NoError(t, err)
	assert.Equal(t, "new text", desc)
}

func TestInlineEdit_SaveKeepsTabsAndCRLF(t *testing.T) {
	h := newHarness(t, writeEditor(t, `printf 'a\tb\r\nc' > "$1"`),
		model.Issue{Key: "PROJ-7", Summary: "Rewrite", Description: "old"})

	h.send(runeKey('e'))
	require.Equal(t, stateInlineEdit, h.model.state)
	assert.True(t, h.model.Dirty())
	h.send(tea.KeyMsg{Type: tea.KeyCtrlS})

	reloaded, err := issue.Load(h.model.store.Path())
	require.NoError(t, err)
	desc, err := reloaded.Description("PROJ-7")
	require.NoError(t, err)
	assert.Equal(t, "a\tb\r\nc", desc)
}

func TestInlineEdit_UnchangedTabsAreNotDirty(t *testing.T) {
	h := newHarness(t, writeEditor(t, "exit 0"),
		model.Issue{Key: "PROJ-8", Summary: "s", Description: "col1\tcol2"})

	h.send(runeKey('i'))

	require.Equal(t, stateInlineEdit, h.model.state)
	assert.False(t, h.model.Dirty())
}

func TestInlineEdit_TypingAfterExternalEditSavesTextarea(t *testing.T) {
	h := newHarness(t, writeEditor(t, `printf 'new' > "$1"`),
		model.Issue{Key: "PROJ-7", Summary: "Rewrite", Description: "old"})

	h.send(runeKey('e'))
	h.send(runeKey('x'))
	h.send(tea.KeyMsg{Type: tea.KeyCtrlS})

	desc, err := h.model.store.Description("PROJ-7")
	require.NoError(t, err)
	assert.Equal(t, "newx", desc)
}

func TestInlineEdit_DiscardKeepsStore(t *testing.T) {
	h := newHarness(t, writeEditor(t, `printf 'new text' > "$1"`),
		model.Issue{Key: "PROJ-7", Summary: "Rewrite", Description: "old"})

	h.send(runeKey('e'))
	h.send(tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, stateNormal, h.model.state)
	assert.False(t, h.model.Dirty())
	desc, err := h.model.store.Description("PROJ-7")
	require.NoError(t, err)
	assert.Equal(t, "old", desc)
}

func TestPendingEdit_LastWriterWinsAndTakeClears(t *testing.T) {
	m := New(Options{})

	_, ok := m.TakePendingEdit()
	assert.False(t, ok)

	m.RequestEdit("PROJ-1", "first")
	m.RequestEdit("PROJ-2", "second")

	req, ok := m.TakePendingEdit()
	require.True(t, ok)
	assert.Equal(t, PendingEdit{IssueKey: "PROJ-2", OriginalContent: "second"}, req)

	_, ok = m.TakePendingEdit()
	assert.False(t, ok)
}

func TestNotice_Fades(t *testing.T) {
	h := newHarness(t, filepath.Join(t.TempDir(), "no-such-editor"),
		model.Issue{Key: "PROJ-1", Summary: "s", Description: "text"})
	h.send(runeKey('e'))
	require.NotNil(t, h.model.notice)
	id := h.model.notice.id

	h.send(noticeFadeMsg{id: id - 1})
	assert.NotNil(t, h.model.notice, "stale fade cleared a newer notice")

	h.send(noticeFadeMsg{id: id})
	assert.Nil(t, h.model.notice)
	assert.True(t, strings.Contains(h.model.View(), "edit in $EDITOR"))
}

func TestIssueURL(t *testing.T) {
	m := New(Options{BrowseURL: func(key string) string { return "https://jira.example/browse/" + key }})

	assert.Equal(t, "https://x/1", m.issueURL(model.Issue{Key: "A-1", URL: "https://x/1"}))
	assert.Equal(t, "https://jira.example/browse/A-2", m.issueURL(model.Issue{Key: "A-2"}))
}

func TestCopyLink(t *testing.T) {
	m := New(Options{
		Store:     newTestStore(t, model.Issue{Key: "PROJ-9", Summary: "s"}),
		BrowseURL: func(key string) string { return "https://jira.example/browse/" + key },
	})
	var copied string
	m.writeClipboard = func(s string) error { copied = s; return nil }

	next, cmd := m.Update(runeKey('y'))
	m = next.(Model)

	assert.NotNil(t, cmd)
	assert.Equal(t, "https://jira.example/browse/PROJ-9", copied)
	require.NotNil(t, m.notice)
	assert.Equal(t, SeverityInfo, m.notice.severity)
}

func TestCopyLink_ClipboardUnavailable(t *testing.T) {
	m := New(Options{Store: newTestStore(t, model.Issue{Key: "PROJ-9", Summary: "s"})})
	m.writeClipboard = func(string) error { return errors.New("no xclip") }

	next, _ := m.Update(runeKey('y'))
	m = next.(Model)

	require.NotNil(t, m.notice)
	assert.Equal(t, SeverityError, m.notice.severity)
	assert.Equal(t, "Clipboard unavailable", m.notice.text)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	// Wide runes take two cells each.
	assert.Equal(t, "日…", truncate("日本語テキスト", 3))
}
