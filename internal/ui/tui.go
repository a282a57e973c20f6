// Package ui provides the interactive terminal interface.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nibzard/tasklist-go/internal/query"
	"github.com/nibzard/tasklist-go/internal/task"
)

// TUIOption configures the TUI behavior.
type TUIOption func(*tuiConfig)

// tuiConfig holds TUI configuration.
type tuiConfig struct {
	theme string
	input io.Reader
	out   io.Writer
}

// WithTheme selects the starting theme (light or dark).
func WithTheme(name string) TUIOption {
	return func(c *tuiConfig) {
		c.theme = name
	}
}

// WithIO overrides the terminal the program reads from and draws to.
func WithIO(in io.Reader, out io.Writer) TUIOption {
	return func(c *tuiConfig) {
		c.input = in
		c.out = out
	}
}

// RunTUI runs the task list TUI over store until the user quits.
func RunTUI(ctx context.Context, store *task.Store, opts ...TUIOption) error {
	c := &tuiConfig{theme: "dark", input: os.Stdin, out: os.Stdout}
	for _, opt := range opts {
		opt(c)
	}

	if !IsTTY(c.out) {
		return fmt.Errorf("tui requires a TTY")
	}

	return runProgram(ctx, newTUIModel(store, c.theme), c)
}

func runProgram(ctx context.Context, model *tuiModel, c *tuiConfig) error {
	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(c.input),
		tea.WithOutput(c.out),
	)
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

type mode int

const (
	modeList mode = iota
	modeSearch
	modeForm
	modeConfirmDelete
)

// row is one visible task and its position in the store.
type row struct {
	pos  int
	task task.Task
}

type tuiModel struct {
	store      *task.Store
	editor     *task.Editor
	theme      Theme
	search     textinput.Model
	term       string
	rows       []row
	cursor     int
	mode       mode
	form       *form
	pendingDel task.Task
	status     string
	statusErr  bool
	showHelp   bool
	width      int
}

func newTUIModel(store *task.Store, theme string) *tuiModel {
	search := textinput.New()
	search.Placeholder = "title or priority"
	search.Prompt = "/ "
	search.CharLimit = 128
	search.Width = 40

	m := &tuiModel{
		store:  store,
		editor: task.NewEditor(store),
		theme:  ThemeByName(theme),
		search: search,
		status: "Press a to add a task, ? for help.",
	}
	m.refresh()
	return m
}

func (m *tuiModel) Init() tea.Cmd {
	return nil
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeSearch:
			return m, m.updateSearch(msg)
		case modeForm:
			return m, m.updateForm(msg)
		case modeConfirmDelete:
			m.updateConfirm(msg)
			return m, nil
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m *tuiModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "?", "esc":
			m.showHelp = false
		}
		return m, nil
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "?":
		m.showHelp = true
	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		m.cursor = max(len(m.rows)-1, 0)
	case "/":
		m.mode = modeSearch
		return m, m.search.Focus()
	case "esc":
		if m.term != "" {
			m.setTerm("")
			m.search.SetValue("")
			m.setStatus("Search cleared")
		}
	case "a":
		m.editor.Cancel()
		return m, m.openForm(blankDraft(), false)
	case "e", "enter":
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		d, err := m.editor.StartEdit(t.ID)
		if err != nil {
			m.setError(err)
			return m, nil
		}
		return m, m.openForm(d, true)
	case " ", "x":
		if t, ok := m.selected(); ok {
			msg := "Marked done"
			if t.Completed {
				msg = "Marked not done"
			}
			m.afterMutation(m.store.SetCompleted(t.ID, !t.Completed), msg)
		}
	case "c":
		if t, ok := m.selected(); ok {
			next := t.Category.Next()
			err := m.store.SetCategory(t.ID, next)
			m.afterMutation(err, "Category set to "+string(next))
		}
	case "d":
		if t, ok := m.selected(); ok {
			m.pendingDel = t
			m.mode = modeConfirmDelete
			m.setStatus(fmt.Sprintf("Delete %q? y/n", t.Title))
		}
	case "p":
		m.afterSort(m.store.SortByPriority(), "priority")
	case "D":
		m.afterSort(m.store.SortByDueDate(), "due date")
	case "t":
		m.theme = m.theme.Toggle()
		m.setStatus("Switched to " + m.theme.Name + " theme")
	}
	return m, nil
}

func (m *tuiModel) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		m.search.Blur()
		m.mode = modeList
		return nil
	case "esc":
		m.search.Blur()
		m.search.SetValue("")
		m.setTerm("")
		m.mode = modeList
		return nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.setTerm(m.search.Value())
	return cmd
}

func (m *tuiModel) updateForm(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.editor.Cancel()
		m.closeForm()
		m.setStatus("Cancelled")
		return nil
	case "enter":
		editing := m.editor.Mode() == task.ModeEditing
		saved, err := m.editor.Submit(m.form.draft())
		var ve *task.ValidationError
		if errors.As(err, &ve) {
			m.form.err = ve.Error()
			return nil
		}
		m.closeForm()
		verb := "Added"
		if editing {
			verb = "Updated"
		}
		m.afterMutation(err, fmt.Sprintf("%s %q", verb, saved.Title))
		if saved.ID != "" {
			m.selectID(saved.ID)
		}
		return nil
	}
	return m.form.update(msg)
}

func (m *tuiModel) updateConfirm(msg tea.KeyMsg) {
	t := m.pendingDel
	m.pendingDel = task.Task{}
	m.mode = modeList
	switch msg.String() {
	case "y", "Y":
		err := m.store.Remove(t.ID)
		m.afterMutation(err, fmt.Sprintf("Deleted %q", t.Title))
	default:
		m.setStatus("Delete cancelled")
	}
}

func (m *tuiModel) openForm(d task.Draft, editing bool) tea.Cmd {
	m.form = newForm(d, editing)
	m.mode = modeForm
	return m.form.setFocus(fieldTitle)
}

func (m *tuiModel) closeForm() {
	m.form = nil
	m.mode = modeList
}

// refresh re-derives the visible rows from the store and the search term.
func (m *tuiModel) refresh() {
	m.rows = m.rows[:0]
	for pos, t := range query.Positions(m.store.Tasks(), m.term) {
		m.rows = append(m.rows, row{pos: pos, task: t})
	}
	m.cursor = clampCursor(m.cursor, len(m.rows))
}

func (m *tuiModel) setTerm(term string) {
	if term == m.term {
		return
	}
	m.term = term
	m.cursor = 0
	m.refresh()
}

func (m *tuiModel) afterMutation(err error, ok string) {
	m.refresh()
	if err != nil {
		m.setError(err)
		return
	}
	m.setStatus(ok)
}

func (m *tuiModel) afterSort(err error, by string) {
	id := ""
	if t, ok := m.selected(); ok {
		id = t.ID
	}
	m.afterMutation(err, "Sorted by "+by)
	m.selectID(id)
}

func (m *tuiModel) selected() (task.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return task.Task{}, false
	}
	return m.rows[m.cursor].task, true
}

func (m *tuiModel) selectID(id string) {
	for i, r := range m.rows {
		if r.task.ID == id {
			m.cursor = i
			return
		}
	}
}

func (m *tuiModel) moveCursor(delta int) {
	m.cursor = clampCursor(m.cursor+delta, len(m.rows))
}

func (m *tuiModel) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *tuiModel) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
}

func clampCursor(cursor, n int) int {
	if n == 0 || cursor < 0 {
		return 0
	}
	if cursor >= n {
		return n - 1
	}
	return cursor
}

func (m *tuiModel) View() string {
	var b strings.Builder
	th := m.theme
	b.WriteString(th.Title.Render("Task List") + "\n\n")

	if m.showHelp {
		writeHelp(&b, th)
		writeFooter(&b, th)
		return b.String()
	}

	if m.mode == modeSearch || m.term != "" {
		b.WriteString(m.search.View() + "\n\n")
	}

	m.writeTable(&b)
	b.WriteString("\n")

	if m.mode == modeForm && m.form != nil {
		b.WriteString(m.form.view(th))
		return b.String()
	}

	if m.statusErr {
		b.WriteString(th.Error.Render(m.status) + "\n")
	} else {
		b.WriteString(th.Muted.Render(m.status) + "\n")
	}
	writeFooter(&b, th)
	return b.String()
}

// Column widths; the title takes what is left of the terminal width.
const (
	colNum      = 4
	colDone     = 4
	colDue      = 12
	colCategory = 10
	colPriority = 8
	minTitle    = 16
)

func (m *tuiModel) titleWidth() int {
	w := m.width - (2 + colNum + colDone + colDue + colCategory + colPriority + 5)
	if w < minTitle {
		return 32
	}
	return w
}

func (m *tuiModel) writeTable(b *strings.Builder) {
	th := m.theme
	titleW := m.titleWidth()
	cell := func(w int) lipgloss.Style {
		return lipgloss.NewStyle().Width(w).MaxWidth(w)
	}

	header := strings.Join([]string{
		"  " + cell(colNum).Render("#"),
		cell(colDone).Render(""),
		cell(titleW).Render("Title"),
		cell(colDue).Render("Due"),
		cell(colCategory).Render("Category"),
		cell(colPriority).Render("Priority"),
	}, " ")
	b.WriteString(th.Header.Render(header) + "\n")

	if len(m.rows) == 0 {
		switch {
		case m.store.Len() == 0:
			b.WriteString(th.Muted.Render("  No tasks yet. Press a to add one.") + "\n")
		default:
			b.WriteString(th.Muted.Render(fmt.Sprintf("  No tasks match %q.", m.term)) + "\n")
		}
		return
	}

	for i, r := range m.rows {
		t := r.task
		check := "[ ]"
		titleStyle := th.Row
		if t.Completed {
			check = "[x]"
			titleStyle = th.Completed
		}
		marker := "  "
		if i == m.cursor {
			marker = "> "
		}
		line := strings.Join([]string{
			marker + cell(colNum).Render(fmt.Sprintf("%d", r.pos+1)),
			cell(colDone).Render(check),
			titleStyle.Width(titleW).MaxWidth(titleW).Render(t.Title),
			cell(colDue).Render(t.DueDate),
			th.category(string(t.Category)).Width(colCategory).Render(string(t.Category)),
			th.priority(string(t.Priority)).Width(colPriority).Render(string(t.Priority)),
		}, " ")
		if i == m.cursor {
			line = th.Selected.Render(line)
		}
		b.WriteString(line + "\n")
	}

	if t, ok := m.selected(); ok && t.Description != "" {
		b.WriteString("\n" + th.Muted.Render("  "+t.Description) + "\n")
	}
}

func writeHelp(b *strings.Builder, th Theme) {
	b.WriteString(th.Header.Render("Keyboard Shortcuts") + "\n\n")
	for _, line := range [][2]string{
		{"j/k, ↓/↑", "Move selection"},
		{"/", "Search by title or priority (enter keeps, esc clears)"},
		{"a", "Add a task"},
		{"e, enter", "Edit the selected task"},
		{"space, x", "Toggle completed"},
		{"c", "Cycle category"},
		{"d", "Delete (asks for confirmation)"},
		{"p", "Sort by priority"},
		{"D", "Sort by due date"},
		{"t", "Toggle light/dark theme"},
		{"?", "Toggle this help screen"},
		{"q, ctrl+c", "Quit"},
	} {
		b.WriteString(fmt.Sprintf("  %-12s %s\n", line[0], line[1]))
	}
	b.WriteString("\n")
}

func writeFooter(b *strings.Builder, th Theme) {
	b.WriteString(th.Muted.Render("? help • / search • a add • q quit") + "\n")
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
