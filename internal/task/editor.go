package task

import "fmt"

// Mode is the state of an Editor.
type Mode int

const (
	// ModeIdle means Submit adds a new task.
	ModeIdle Mode = iota
	// ModeEditing means Submit updates the task being edited.
	ModeEditing
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeEditing:
		return "editing"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Editor drives the add/edit form over a Store.
//
//	Idle --StartEdit(id)--> Editing(id)
//	Editing --Submit ok / Cancel--> Idle
//	Idle --Submit ok--> Idle (task added)
//
// A Submit that fails validation leaves the state unchanged.
type Editor struct {
	store *Store
	mode  Mode
	id    string
}

// NewEditor returns an idle Editor over s.
func NewEditor(s *Store) *Editor {
	return &Editor{store: s}
}

// Mode returns the current state.
func (e *Editor) Mode() Mode {
	return e.mode
}

// EditingID returns the ID under edit, or "" when idle.
func (e *Editor) EditingID() string {
	if e.mode != ModeEditing {
		return ""
	}
	return e.id
}

// StartEdit enters Editing(id) and returns the task's current fields for
// pre-filling the form.
func (e *Editor) StartEdit(id string) (Draft, error) {
	t, err := e.store.Get(id)
	if err != nil {
		return Draft{}, err
	}
	e.mode = ModeEditing
	e.id = t.ID
	return t.Draft(), nil
}

// Submit adds d when idle, or applies it to the task under edit.
func (e *Editor) Submit(d Draft) (Task, error) {
	if e.mode != ModeEditing {
		return e.store.Add(d)
	}
	if err := d.Validate(); err != nil {
		return Task{}, err
	}
	// Past validation the edit is over either way: applied, or the task
	// no longer exists.
	t, err := e.store.Update(e.id, d)
	e.Cancel()
	return t, err
}

// Cancel returns to Idle without changing the store.
func (e *Editor) Cancel() {
	e.mode = ModeIdle
	e.id = ""
}
