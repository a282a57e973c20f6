package ui

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/tasklist-go/internal/kv"
	"github.com/nibzard/tasklist-go/internal/persist"
	"github.com/nibzard/tasklist-go/internal/task"
)

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	tab   = tea.KeyMsg{Type: tea.KeyTab}
)

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m *tuiModel, msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = m.Update(msg)
	}
	return cmd
}

// newTestModel returns a model over a memory-backed store seeded with drafts.
func newTestModel(t *testing.T, drafts ...task.Draft) (*tuiModel, *task.Store) {
	t.Helper()
	adapter, err := persist.New(kv.NewMemoryStore())
	if err != nil {
		t.Fatalf("persist.New: %v", err)
	}
	n := 0
	store, err := task.Open(adapter, task.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}))
	if err != nil {
		t.Fatalf("task.Open: %v", err)
	}
	for _, d := range drafts {
		if _, err := store.Add(d); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	return newTUIModel(store, "dark"), store
}

func draft(title, due string, c task.Category, p task.Priority) task.Draft {
	return task.Draft{Title: title, DueDate: due, Category: c, Priority: p}
}

func seeded(t *testing.T) (*tuiModel, *task.Store) {
	return newTestModel(t,
		draft("Buy milk", "2024-05-03", task.CategoryPersonal, task.PriorityLow),
		draft("File taxes", "2024-04-15", task.CategoryWork, task.PriorityHigh),
		draft("Call plumber", "2024-05-01", task.CategoryUrgent, task.PriorityMedium),
	)
}

func titles(s *task.Store) []string {
	var out []string
	for _, t := range s.Tasks() {
		out = append(out, t.Title)
	}
	return out
}

func TestAddTask(t *testing.T) {
	m, s := newTestModel(t)

	send(m, key("a"))
	if m.mode != modeForm || m.form == nil || m.form.editing {
		t.Fatalf("expected add form, mode %v", m.mode)
	}
	send(m, key("Water plants"), tab, key("  balcony  "), tab, key("2024-06-01"), tab, key("l"), tab, key("h"), enter)

	if m.mode != modeList {
		t.Fatalf("form still open: %q", m.form.err)
	}
	if s.Len() != 1 {
		t.Fatalf("Len: got %d, want 1", s.Len())
	}
	got := s.Tasks()[0]
	want := task.Task{ID: got.ID, Title: "Water plants", Description: "balcony", DueDate: "2024-06-01", Category: task.CategoryPersonal, Priority: task.PriorityMedium}
	if got != want {
		t.Errorf("added %+v, want %+v", got, want)
	}
	if !strings.Contains(m.View(), "Water plants") {
		t.Error("new task not rendered")
	}
}

func TestAddValidationKeepsFormOpen(t *testing.T) {
	m, s := newTestModel(t)

	send(m, key("a"), key("No date"), enter)
	if m.mode != modeForm {
		t.Fatalf("mode: got %v, want form", m.mode)
	}
	if !strings.Contains(m.form.err, "dueDate") {
		t.Errorf("form error: %q", m.form.err)
	}
	if s.Len() != 0 {
		t.Errorf("invalid draft was added")
	}

	send(m, esc)
	if m.mode != modeList || s.Len() != 0 {
		t.Errorf("esc: mode %v, Len %d", m.mode, s.Len())
	}
}

func TestEditTask(t *testing.T) {
	m, s := seeded(t)

	send(m, key("j"), key("e"))
	if m.mode != modeForm || !m.form.editing {
		t.Fatalf("expected edit form, mode %v", m.mode)
	}
	if m.editor.Mode() != task.ModeEditing || m.editor.EditingID() != "id-2" {
		t.Fatalf("editor: %v %q", m.editor.Mode(), m.editor.EditingID())
	}
	if got := m.form.draft(); got.Title != "File taxes" || got.Priority != task.PriorityHigh {
		t.Errorf("form not pre-filled: %+v", got)
	}

	send(m, tab, tab, tab, key(" "), enter)

	got, _ := s.Get("id-2")
	if got.Category != task.CategoryPersonal || got.Title != "File taxes" {
		t.Errorf("after edit: %+v", got)
	}
	if s.Len() != 3 {
		t.Errorf("edit added a task: Len %d", s.Len())
	}
	if m.editor.Mode() != task.ModeIdle {
		t.Errorf("editor not idle after submit")
	}
}

func TestEditCancel(t *testing.T) {
	m, s := seeded(t)
	before := s.Tasks()

	send(m, key("e"), key(" extra"), esc)
	if m.editor.Mode() != task.ModeIdle || m.mode != modeList {
		t.Fatalf("cancel: editor %v, mode %v", m.editor.Mode(), m.mode)
	}
	if fmt.Sprint(s.Tasks()) != fmt.Sprint(before) {
		t.Error("cancelled edit changed the store")
	}

	// The next submit is an add, not an edit.
	send(m, key("a"), key("Fresh"), tab, tab, key("2024-01-01"), enter)
	if s.Len() != 4 {
		t.Errorf("Len: got %d, want 4", s.Len())
	}
}

func TestSearch(t *testing.T) {
	m, _ := seeded(t)

	send(m, key("/"), key("HIGH"))
	if len(m.rows) != 1 || m.rows[0].task.Title != "File taxes" {
		t.Fatalf("rows: %+v", m.rows)
	}
	if m.rows[0].pos != 1 {
		t.Errorf("row position: got %d, want 1", m.rows[0].pos)
	}

	// Keys typed into the search box do not act on the list.
	send(m, key("q"))
	if m.term != "HIGHq" {
		t.Errorf("term: got %q", m.term)
	}
	if len(m.rows) != 0 || !strings.Contains(m.View(), "No tasks match") {
		t.Errorf("expected empty result, rows %+v", m.rows)
	}

	send(m, tea.KeyMsg{Type: tea.KeyBackspace}, enter)
	if m.mode != modeList || len(m.rows) != 1 {
		t.Fatalf("enter should keep the filter: mode %v, rows %d", m.mode, len(m.rows))
	}

	send(m, esc)
	if m.term != "" || len(m.rows) != 3 {
		t.Errorf("esc should clear the filter: term %q, rows %d", m.term, len(m.rows))
	}
}

func TestToggleAndCategory(t *testing.T) {
	m, s := seeded(t)

	send(m, key(" "))
	if got, _ := s.Get("id-1"); !got.Completed {
		t.Error("space did not complete the task")
	}
	send(m, key(" "))
	if got, _ := s.Get("id-1"); got.Completed {
		t.Error("second space did not restore the task")
	}

	send(m, key("c"))
	if got, _ := s.Get("id-1"); got.Category != task.CategoryUrgent {
		t.Errorf("category: got %q, want Urgent", got.Category)
	}
}

func TestDeleteConfirmation(t *testing.T) {
	m, s := seeded(t)

	send(m, key("d"))
	if m.mode != modeConfirmDelete || !strings.Contains(m.status, "Buy milk") {
		t.Fatalf("expected confirmation, mode %v status %q", m.mode, m.status)
	}
	send(m, key("n"))
	if s.Len() != 3 || m.mode != modeList {
		t.Fatalf("declined delete removed a task: Len %d", s.Len())
	}

	send(m, key("j"), key("d"), key("y"))
	if got := titles(s); strings.Join(got, ",") != "Buy milk,Call plumber" {
		t.Errorf("after delete: %v", got)
	}
	if m.cursor != 1 {
		t.Errorf("cursor: got %d, want 1", m.cursor)
	}
}

func TestSortKeys(t *testing.T) {
	m, s := seeded(t)

	send(m, key("p"))
	if got := strings.Join(titles(s), ","); got != "File taxes,Call plumber,Buy milk" {
		t.Errorf("priority order: %s", got)
	}
	if t0, _ := m.selected(); t0.Title != "Buy milk" {
		t.Errorf("selection should follow the task, got %q", t0.Title)
	}

	send(m, key("D"))
	if got := strings.Join(titles(s), ","); got != "File taxes,Call plumber,Buy milk" {
		t.Errorf("due order: %s", got)
	}
}

func TestThemeHelpAndQuit(t *testing.T) {
	m, _ := seeded(t)

	send(m, key("t"))
	if m.theme.Name != "light" {
		t.Errorf("theme: got %q, want light", m.theme.Name)
	}
	send(m, key("t"))
	if m.theme.Name != "dark" {
		t.Errorf("theme: got %q, want dark", m.theme.Name)
	}

	send(m, key("?"))
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Error("help not shown")
	}
	send(m, key("?"))
	if m.showHelp {
		t.Error("help still shown")
	}

	cmd := send(m, key("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestCursorBounds(t *testing.T) {
	m, _ := seeded(t)
	send(m, key("k"))
	if m.cursor != 0 {
		t.Errorf("cursor moved above first row: %d", m.cursor)
	}
	send(m, key("j"), key("j"), key("j"), key("j"))
	if m.cursor != 2 {
		t.Errorf("cursor moved past last row: %d", m.cursor)
	}

	empty, _ := newTestModel(t)
	send(empty, key("e"), key(" "), key("d"), key("c"))
	if empty.mode != modeList {
		t.Errorf("actions on an empty list changed mode to %v", empty.mode)
	}
	if !strings.Contains(empty.View(), "No tasks yet") {
		t.Error("empty list message missing")
	}
}

func TestIsTTY(t *testing.T) {
	if IsTTY(&bytes.Buffer{}) {
		t.Error("buffer reported as TTY")
	}
}

func TestStepPriority(t *testing.T) {
	if got := stepPriority(task.PriorityLow, 1); got != task.PriorityHigh {
		t.Errorf("Low+1: got %q", got)
	}
	if got := stepPriority(task.PriorityHigh, -1); got != task.PriorityLow {
		t.Errorf("High-1: got %q", got)
	}
	if got := prevCategory(task.CategoryWork); got != task.CategoryUrgent {
		t.Errorf("prev Work: got %q", got)
	}
}
