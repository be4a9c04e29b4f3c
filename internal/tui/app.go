package tui

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/reflow/wordwrap"

	"jiratui/internal/issue"
	"jiratui/internal/model"
)

// — state ———————————————————————————————————————————————————————————————————

type appState int

const (
	stateNormal appState = iota
	stateInlineEdit
)

// Severity selects how a notification is styled.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityError
)

// — styles ——————————————————————————————————————————————————————————————————

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginLeft(2)

	dimStyle  = lipgloss.NewStyle().Faint(true)
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	helpStyle = lipgloss.NewStyle().
			Faint(true).
			PaddingLeft(2)

	detailHeadStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	labelStyle = lipgloss.NewStyle().Faint(true)
)

// — notifications ———————————————————————————————————————————————————————————

// noticeFadeDelay is how long a notification replaces the help line.
const noticeFadeDelay = 5 * time.Second

type notice struct {
	id       int
	text     string
	severity Severity
}

type noticeFadeMsg struct {
	id int
}

func noticeFadeCmd(id int) tea.Cmd {
	return tea.Tick(noticeFadeDelay, func(time.Time) tea.Msg {
		return noticeFadeMsg{id: id}
	})
}

// — list item ———————————————————————————————————————————————————————————————

type issueItem struct {
	i model.Issue
}

func (it issueItem) Title() string {
	indicator := " "
	if it.i.Done() {
		indicator = "✓"
	}
	return indicator + " " + it.i.Key
}

func (it issueItem) Description() string { return it.i.Summary }
func (it issueItem) FilterValue() string  { return it.i.Key + " " + it.i.Summary }

// — model ———————————————————————————————————————————————————————————————————

// Options configures New.
type Options struct {
	Store          *issue.Store
	Orchestrator   *Orchestrator
	BrowseURL      func(key string) string // fallback link for issues without a URL
	RenderMarkdown bool
	Logger         *slog.Logger
}

// Model is the root bubbletea model of the issue browser.
type Model struct {
	list   list.Model
	issues []model.Issue
	store  *issue.Store
	keys   KeyMap
	width  int
	height int
	logger *slog.Logger

	orchestrator   *Orchestrator
	browseURL      func(string) string
	renderMarkdown bool
	markdown       *markdownCache

	state        appState
	editArea     textarea.Model
	editKey      string
	savedContent string // last persisted description of editKey
	editOrigin   string // exact content the edit started from
	editShown    string // editOrigin as the textarea holds it

	pendingEdit *PendingEdit
	notice      *notice
	noticeSeq   int

	writeClipboard func(string) error
}

func New(opts Options) Model {
	delegate := list.NewDefaultDelegate()

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Issues"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.Styles.Title = titleStyle
	// Esc belongs to inline editing; quitting is handled by KeyMap.Quit.
	l.KeyMap.Quit.SetEnabled(false)

	ta := textarea.New()
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.ShowLineNumbers = false

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	browseURL := opts.BrowseURL
	if browseURL == nil {
		browseURL = func(string) string { return "" }
	}

	m := Model{
		list:           l,
		store:          opts.Store,
		keys:           DefaultKeyMap,
		logger:         logger.With("component", "tui"),
		orchestrator:   opts.Orchestrator,
		browseURL:      browseURL,
		renderMarkdown: opts.RenderMarkdown,
		markdown:       &markdownCache{},
		editArea:       ta,
		writeClipboard: clipboard.WriteAll,
	}
	if m.store != nil {
		m.issues = m.store.List()
	}
	m.buildItems()
	return m
}

// — pending edit ————————————————————————————————————————————————————————————

// RequestEdit records an external edit request, replacing any unconsumed
// one.
func (m *Model) RequestEdit(issueKey, content string) {
	m.pendingEdit = &PendingEdit{IssueKey: issueKey, OriginalContent: content}
}

// TakePendingEdit returns the pending request and clears the slot.
func (m *Model) TakePendingEdit() (PendingEdit, bool) {
	req := m.pendingEdit
	m.pendingEdit = nil
	if req == nil {
		return PendingEdit{}, false
	}
	return *req, true
}

// ApplyEditedContent enters inline edit mode for issueKey pre-populated with
// content. The edit is dirty until saved whenever content differs from the
// stored description.
func (m *Model) ApplyEditedContent(issueKey, content string) {
	saved := ""
	if m.store != nil {
		if desc, err := m.store.Description(issueKey); err == nil {
			saved = desc
		}
	}
	m.enterInlineEdit(issueKey, saved, content)
}

// Notify shows message in the status line until it fades.
func (m *Model) Notify(message string, severity Severity) {
	m.noticeSeq++
	m.notice = &notice{id: m.noticeSeq, text: message, severity: severity}
}

// Dirty reports whether the inline edit differs from the saved description.
func (m Model) Dirty() bool {
	return m.state == stateInlineEdit && m.editContent() != m.savedContent
}

// editContent is what a save writes. The textarea rewrites tabs and carriage
// returns, so until the user types, the exact starting content is used.
func (m Model) editContent() string {
	if v := m.editArea.Value(); v != m.editShown {
		return v
	}
	return m.editOrigin
}

func (m *Model) enterInlineEdit(issueKey, saved, content string) {
	m.state = stateInlineEdit
	m.editKey = issueKey
	m.savedContent = saved
	m.editOrigin = content
	m.editArea.SetValue(content)
	m.editShown = m.editArea.Value()
	m.editArea.Focus()
}

func (m *Model) leaveInlineEdit() {
	m.state = stateNormal
	m.editKey = ""
	m.savedContent = ""
	m.editOrigin = ""
	m.editShown = ""
	m.editArea.Reset()
	m.editArea.Blur()
}

// — commands ————————————————————————————————————————————————————————————————

// buildItems rebuilds the list items from the current issues.
func (m *Model) buildItems() {
	items := make([]list.Item, len(m.issues))
	for i, is := range m.issues {
		items[i] = issueItem{i: is}
	}
	m.list.SetItems(items)
}

func openURLCmd(url string) tea.Cmd {
	return func() tea.Msg {
		var cmd *exec.Cmd
		switch runtime.GOOS {
		case "darwin":
			cmd = exec.Command("open", url)
		case "windows":
			cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
		default:
			cmd = exec.Command("xdg-open", url)
		}
		cmd.Run()
		return nil
	}
}

// afterEditCmd is the only command issued for an iteration that ran an
// external edit.
func (m Model) afterEditCmd() tea.Cmd {
	var cmds []tea.Cmd
	if m.notice != nil {
		cmds = append(cmds, noticeFadeCmd(m.notice.id))
	}
	if m.state == stateInlineEdit {
		cmds = append(cmds, textarea.Blink)
	}
	return tea.Batch(cmds...)
}

// copyLink puts the issue's browse URL, or its key when there is none, on
// the system clipboard.
func (m *Model) copyLink(is model.Issue) tea.Cmd {
	text := m.issueURL(is)
	if text == "" {
		text = is.Key
	}
	if err := m.writeClipboard(text); err != nil {
		m.logger.Debug("clipboard write failed", "error", err)
		m.Notify("Clipboard unavailable", SeverityError)
	} else {
		m.Notify("Copied "+text, SeverityInfo)
	}
	return noticeFadeCmd(m.notice.id)
}

func (m *Model) reload() tea.Cmd {
	s, err := issue.Load(m.store.Path())
	if err != nil {
		m.Notify(err.Error(), SeverityError)
		return noticeFadeCmd(m.notice.id)
	}
	m.store = s
	m.issues = s.List()
	m.buildItems()
	return nil
}

func (m *Model) save() tea.Cmd {
	content := m.editContent()
	if err := m.store.SetDescription(m.editKey, content); err != nil {
		m.Notify(err.Error(), SeverityError)
		return noticeFadeCmd(m.notice.id)
	}
	if err := m.store.Save(); err != nil {
		m.logger.Error("failed to save issues", "path", m.store.Path(), "error", err)
		m.Notify(err.Error(), SeverityError)
		return noticeFadeCmd(m.notice.id)
	}
	key := m.editKey
	m.issues = m.store.List()
	m.buildItems()
	m.leaveInlineEdit()
	m.Notify("Saved "+key, SeverityInfo)
	return noticeFadeCmd(m.notice.id)
}

// — tea.Model ———————————————————————————————————————————————————————————————

func (m Model) Init() tea.Cmd {
	return nil
}

// Update routes msg, then drains any external edit requested by it. An
// iteration that ran an edit issues no other command: the restored screen
// already reflects the post-edit state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.route(msg)
	if next.orchestrator != nil && next.orchestrator.Drain(&next) {
		return next, next.afterEditCmd()
	}
	return next, cmd
}

func (m Model) route(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		lw, lh := m.listDimensions()
		m.list.SetSize(lw, lh)
		m.editArea.SetWidth(max(m.width-lw-6, 10))
		m.editArea.SetHeight(max(lh-4, 3))
		return m, nil

	case noticeFadeMsg:
		if m.notice != nil && m.notice.id == msg.id {
			m.notice = nil
		}
		return m, nil
	}

	switch m.state {
	case stateInlineEdit:
		return m.updateInlineEdit(msg)
	default:
		return m.updateNormal(msg)
	}
}

func (m Model) updateNormal(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Reload):
			if m.store != nil {
				return m, m.reload()
			}
			return m, nil
		case key.Matches(msg, m.keys.ExternalEdit):
			if is := m.selectedIssue(); is != nil {
				content, err := m.store.Description(is.Key)
				if err != nil {
					m.Notify(err.Error(), SeverityError)
					return m, noticeFadeCmd(m.notice.id)
				}
				m.RequestEdit(is.Key, content)
			}
			return m, nil
		case key.Matches(msg, m.keys.InlineEdit):
			if is := m.selectedIssue(); is != nil {
				m.enterInlineEdit(is.Key, is.Description, is.Description)
				return m, textarea.Blink
			}
			return m, nil
		case key.Matches(msg, m.keys.CopyLink):
			if is := m.selectedIssue(); is != nil {
				return m, m.copyLink(*is)
			}
			return m, nil
		case key.Matches(msg, m.keys.OpenURL):
			if is := m.selectedIssue(); is != nil {
				if url := m.issueURL(*is); url != "" {
					return m, openURLCmd(url)
				}
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateInlineEdit(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Save):
			return m, m.save()
		case key.Matches(msg, m.keys.Discard):
			m.leaveInlineEdit()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.editArea, cmd = m.editArea.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.width == 0 {
		return ""
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, m.list.View(), m.renderDetail())
	return lipgloss.JoinVertical(lipgloss.Left, body, m.renderHelp())
}

// — layout helpers ——————————————————————————————————————————————————————————

func (m Model) listDimensions() (width, height int) {
	return m.width / 3, m.height - 2
}

func (m Model) renderDetail() string {
	lw, _ := m.listDimensions()
	dw := m.width - lw
	dh := m.height - 2

	style := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		PaddingLeft(3).
		PaddingRight(2).
		Width(dw - 1).
		Height(dh)

	// Width of inner text area: box width minus padding
	contentWidth := (dw - 1) - 3 - 2

	if m.state == stateInlineEdit {
		head := detailHeadStyle.Render("Editing " + m.editKey)
		if m.Dirty() {
			head += " " + warnStyle.Render("● modified")
		}
		return style.Render(head + "\n\n" + m.editArea.View())
	}

	is := m.selectedIssue()
	if is == nil {
		return style.Render(dimStyle.Render("No issues found"))
	}

	row := func(lbl, val string) string {
		return labelStyle.Render(lbl) + val + "\n"
	}

	statusVal := okStyle.Render(is.Status)
	if is.Done() {
		statusVal = dimStyle.Render(is.Status)
	}
	assignee := is.Assignee
	if assignee == "" {
		assignee = dimStyle.Render("unassigned")
	}

	sep := dimStyle.Render(strings.Repeat("─", max(contentWidth, 0)))

	var b strings.Builder
	b.WriteString(detailHeadStyle.Render(is.Key) + "\n")
	b.WriteString(truncate(is.Summary, contentWidth) + "\n\n")
	b.WriteString(row("Status   ", statusVal))
	b.WriteString(row("Assignee ", assignee))
	b.WriteString("\n")
	b.WriteString(sep + "\n\n")
	b.WriteString(m.renderDescription(is.Key, is.Description, contentWidth))

	return style.Render(b.String())
}

func (m Model) renderDescription(key, desc string, width int) string {
	if strings.TrimSpace(desc) == "" {
		return dimStyle.Render("No description")
	}
	if !m.renderMarkdown {
		return wordwrap.String(desc, max(width, 20))
	}
	out, err := m.markdown.render(key, desc, width)
	if err != nil {
		m.logger.Debug("markdown render failed", "issue", key, "error", err)
		return wordwrap.String(desc, max(width, 20))
	}
	return out
}

func (m Model) renderHelp() string {
	var text string
	switch {
	case m.notice != nil && m.notice.severity == SeverityError:
		text = errStyle.Render(m.notice.text)
	case m.notice != nil:
		text = okStyle.Render(m.notice.text)
	case m.state == stateInlineEdit:
		text = "Ctrl+S save   Esc discard"
	default:
		text = "↑/↓ navigate   e edit in $EDITOR   i edit inline   o open   y copy link   r reload   q quit"
	}
	sep := dimStyle.Render(strings.Repeat("─", m.width))
	return sep + "\n" + helpStyle.Render(text)
}

func (m Model) selectedIssue() *model.Issue {
	if len(m.issues) == 0 {
		return nil
	}
	idx := m.list.Index()
	if idx < 0 || idx >= len(m.issues) {
		return nil
	}
	return &m.issues[idx]
}

func (m Model) issueURL(is model.Issue) string {
	if is.URL != "" {
		return is.URL
	}
	return m.browseURL(is.Key)
}

// truncate shortens s to width terminal cells, marking the cut with an
// ellipsis.
func truncate(s string, width int) string {
	if width <= 1 {
		return s
	}
	return ansi.Truncate(s, width, "…")
}

// — markdown ————————————————————————————————————————————————————————————————

// markdownCache keeps the last rendered description so View does not
// re-run glamour on every frame.
type markdownCache struct {
	key, source string
	width       int
	rendered    string
}

func (c *markdownCache) render(key, source string, width int) (string, error) {
	if c.rendered != "" && c.key == key && c.source == source && c.width == width {
		return c.rendered, nil
	}
	wordWrap := max(width, 20)
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		return "", fmt.Errorf("could not create markdown renderer: %w", err)
	}
	out, err := renderer.Render(source)
	if err != nil {
		return "", fmt.Errorf("could not render markdown: %w", err)
	}
	c.key, c.source, c.width = key, source, width
	c.rendered = strings.TrimRight(out, "\n")
	return c.rendered, nil
}
