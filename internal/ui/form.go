package ui

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/tasklist-go/internal/task"
)

type formField int

const (
	fieldTitle formField = iota
	fieldDescription
	fieldDue
	fieldCategory
	fieldPriority
	fieldCount
)

var fieldLabels = [fieldCount]string{"Title", "Description", "Due date", "Category", "Priority"}

// form edits a Draft. Text fields use textinputs; category and priority are
// selectors cycled with left/right or space.
type form struct {
	inputs   [3]textinput.Model
	category task.Category
	priority task.Priority
	focus    formField
	editing  bool
	err      string
}

// blankDraft is what the add form starts with.
func blankDraft() task.Draft {
	return task.Draft{Category: task.CategoryWork, Priority: task.PriorityLow}
}

func newForm(d task.Draft, editing bool) *form {
	f := &form{category: d.Category, priority: d.Priority, editing: editing}
	placeholders := [3]string{"What needs doing?", "optional", task.DueDateLayout}
	values := [3]string{d.Title, d.Description, d.DueDate}
	for i := range f.inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.CharLimit = 256
		in.Width = 48
		in.Prompt = ""
		in.SetValue(values[i])
		f.inputs[i] = in
	}
	f.inputs[fieldDue].CharLimit = 32
	f.setFocus(fieldTitle)
	return f
}

func (f *form) draft() task.Draft {
	return task.Draft{
		Title:       f.inputs[fieldTitle].Value(),
		Description: f.inputs[fieldDescription].Value(),
		DueDate:     f.inputs[fieldDue].Value(),
		Category:    f.category,
		Priority:    f.priority,
	}
}

func (f *form) setFocus(field formField) tea.Cmd {
	f.focus = (field + fieldCount) % fieldCount
	var cmd tea.Cmd
	for i := range f.inputs {
		if formField(i) == f.focus {
			cmd = f.inputs[i].Focus()
		} else {
			f.inputs[i].Blur()
		}
	}
	return cmd
}

// update handles a key while the form is open. Enter and esc are handled by
// the caller.
func (f *form) update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab", "down":
		return f.setFocus(f.focus + 1)
	case "shift+tab", "up":
		return f.setFocus(f.focus - 1)
	}

	switch f.focus {
	case fieldCategory:
		switch msg.String() {
		case "right", "l", " ":
			f.category = f.category.Next()
		case "left", "h":
			f.category = prevCategory(f.category)
		}
		return nil
	case fieldPriority:
		switch msg.String() {
		case "right", "l", " ":
			f.priority = stepPriority(f.priority, 1)
		case "left", "h":
			f.priority = stepPriority(f.priority, -1)
		}
		return nil
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *form) view(th Theme) string {
	var b strings.Builder
	heading := "New task"
	if f.editing {
		heading = "Edit task"
	}
	b.WriteString(th.Header.Render(heading) + "\n\n")

	for field := formField(0); field < fieldCount; field++ {
		label := th.Label.Render(fieldLabels[field])
		if field == f.focus {
			label = th.Focused.Render(fieldLabels[field])
		}
		var value string
		switch field {
		case fieldCategory:
			value = selector(th.category(string(f.category)).Render(string(f.category)), field == f.focus)
		case fieldPriority:
			value = selector(th.priority(string(f.priority)).Render(string(f.priority)), field == f.focus)
		default:
			value = f.inputs[field].View()
		}
		b.WriteString("  " + label + value + "\n")
	}

	if f.err != "" {
		b.WriteString("\n  " + th.Error.Render(f.err) + "\n")
	}
	b.WriteString("\n" + th.Muted.Render("  tab/shift+tab move • ←/→ change • enter save • esc cancel") + "\n")
	return b.String()
}

func selector(value string, focused bool) string {
	if focused {
		return "‹ " + value + " ›"
	}
	return value
}

func prevCategory(c task.Category) task.Category {
	all := task.Categories()
	i := slices.Index(all, c)
	if i <= 0 {
		return all[len(all)-1]
	}
	return all[i-1]
}

func stepPriority(p task.Priority, step int) task.Priority {
	all := task.Priorities()
	i := slices.Index(all, p)
	if i < 0 {
		return all[0]
	}
	n := len(all)
	return all[((i+step)%n+n)%n]
}
