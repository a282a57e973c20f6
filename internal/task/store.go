package task

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Persister loads and saves the full task sequence.
type Persister interface {
	Load() ([]Task, error)
	Save(tasks []Task) error
}

// Option configures a Store.
type Option func(*Store)

// WithPersistSort makes sort operations save immediately.
func WithPersistSort(enabled bool) Option {
	return func(s *Store) {
		s.persistSort = enabled
	}
}

// WithLogger sets the logger used for hydration warnings and mutation traces.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIDGenerator replaces the ID generator (uuid by default).
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// Store owns an ordered sequence of tasks.
type Store struct {
	tasks       []Task
	persister   Persister
	persistSort bool
	logger      *log.Logger
	newID       func() string
}

// Open creates a Store hydrated from p. Data that p reports as corrupt
// (ErrCorruptData) is logged and treated as an empty sequence; any other
// load error is returned.
func Open(p Persister, opts ...Option) (*Store, error) {
	if p == nil {
		return nil, fmt.Errorf("nil persister")
	}
	s := &Store{
		persister: p,
		logger:    log.New(io.Discard),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	loaded, err := p.Load()
	if err != nil {
		if !errors.Is(err, ErrCorruptData) {
			return nil, fmt.Errorf("load tasks: %w", err)
		}
		s.logger.Warn("stored tasks unreadable, starting empty", "err", err)
		loaded = nil
	}
	if assigned := s.hydrate(loaded); assigned > 0 {
		// Persist assigned IDs.
		if err := s.save(s.tasks); err != nil {
			s.logger.Warn("could not store assigned task ids", "count", assigned, "err", err)
		}
	}
	return s, nil
}

// hydrate installs loaded tasks, assigning IDs to records without one and
// replacing duplicates. It returns how many IDs were assigned.
func (s *Store) hydrate(loaded []Task) int {
	seen := make(map[string]bool, len(loaded))
	s.tasks = make([]Task, 0, len(loaded))
	assigned := 0
	for _, t := range loaded {
		if t.ID == "" || seen[t.ID] {
			t.ID = s.newID()
			assigned++
		}
		seen[t.ID] = true
		s.tasks = append(s.tasks, t)
	}
	return assigned
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	return len(s.tasks)
}

// Tasks returns a copy of the sequence in its current order.
func (s *Store) Tasks() []Task {
	return slices.Clone(s.tasks)
}

// At returns the task at position i.
func (s *Store) At(i int) (Task, error) {
	if i < 0 || i >= len(s.tasks) {
		return Task{}, &IndexError{Index: i, Len: len(s.tasks)}
	}
	return s.tasks[i], nil
}

// IndexOf returns the position of the task with the given ID, or -1.
func (s *Store) IndexOf(id string) int {
	return slices.IndexFunc(s.tasks, func(t Task) bool { return t.ID == id })
}

// Get returns the task with the given ID.
func (s *Store) Get(id string) (Task, error) {
	i := s.IndexOf(id)
	if i < 0 {
		return Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.tasks[i], nil
}

// Lookup resolves a full ID or a unique ID prefix.
func (s *Store) Lookup(prefix string) (Task, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return Task{}, fmt.Errorf("%w: empty id", ErrNotFound)
	}
	var match *Task
	for i := range s.tasks {
		id := strings.ToLower(s.tasks[i].ID)
		if id == prefix {
			return s.tasks[i], nil
		}
		if strings.HasPrefix(id, prefix) {
			if match != nil {
				return Task{}, fmt.Errorf("%w: %s", ErrAmbiguous, prefix)
			}
			match = &s.tasks[i]
		}
	}
	if match == nil {
		return Task{}, fmt.Errorf("%w: %s", ErrNotFound, prefix)
	}
	return *match, nil
}

// Add validates d and appends a new, not completed task.
func (s *Store) Add(d Draft) (Task, error) {
	if err := d.Validate(); err != nil {
		return Task{}, err
	}
	d = d.normalize()
	t := Task{
		ID:          s.newID(),
		Title:       d.Title,
		Description: d.Description,
		DueDate:     d.DueDate,
		Category:    d.Category,
		Priority:    d.Priority,
	}
	next := append(slices.Clone(s.tasks), t)
	if err := s.commit(next); err != nil {
		return Task{}, err
	}
	s.logger.Debug("task added", "id", t.ID, "title", t.Title)
	return t, nil
}

// Update replaces the editable fields of a task. Completed and ID are kept.
func (s *Store) Update(id string, d Draft) (Task, error) {
	if err := d.Validate(); err != nil {
		return Task{}, err
	}
	i := s.IndexOf(id)
	if i < 0 {
		return Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	d = d.normalize()
	next := slices.Clone(s.tasks)
	t := &next[i]
	t.Title = d.Title
	t.Description = d.Description
	t.DueDate = d.DueDate
	t.Category = d.Category
	t.Priority = d.Priority
	if err := s.commit(next); err != nil {
		return Task{}, err
	}
	s.logger.Debug("task updated", "id", id)
	return next[i], nil
}

// SetCompleted sets the completion flag of a task.
func (s *Store) SetCompleted(id string, completed bool) error {
	i := s.IndexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next := slices.Clone(s.tasks)
	next[i].Completed = completed
	if err := s.commit(next); err != nil {
		return err
	}
	s.logger.Debug("task completion set", "id", id, "completed", completed)
	return nil
}

// SetCategory sets the category of a task.
func (s *Store) SetCategory(id string, c Category) error {
	if !c.Valid() {
		return &ValidationError{Field: "category", Err: fmt.Errorf("unknown value %q", c)}
	}
	i := s.IndexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next := slices.Clone(s.tasks)
	next[i].Category = c
	if err := s.commit(next); err != nil {
		return err
	}
	s.logger.Debug("task category set", "id", id, "category", c)
	return nil
}

// Remove deletes a task. Later tasks shift down one position.
func (s *Store) Remove(id string) error {
	i := s.IndexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next := slices.Delete(slices.Clone(s.tasks), i, i+1)
	if err := s.commit(next); err != nil {
		return err
	}
	s.logger.Debug("task removed", "id", id)
	return nil
}

// SortByPriority orders tasks High, Medium, Low. Ties keep their order.
func (s *Store) SortByPriority() error {
	return s.sortBy("priority", ComparePriority)
}

// SortByDueDate orders tasks by due date, earliest first. Tasks whose date
// does not parse go last. Ties keep their order.
func (s *Store) SortByDueDate() error {
	return s.sortBy("due date", CompareDueDate)
}

// ComparePriority orders a before b when a has the higher priority.
func ComparePriority(a, b Task) int {
	return cmp.Compare(a.Priority.Rank(), b.Priority.Rank())
}

// CompareDueDate orders by due date, earliest first, with unparseable dates
// after all others.
func CompareDueDate(a, b Task) int {
	da, okA := a.Due()
	db, okB := b.Due()
	switch {
	case okA && okB:
		return da.Compare(db)
	case okA:
		return -1
	case okB:
		return 1
	}
	return 0
}

func (s *Store) sortBy(by string, compare func(a, b Task) int) error {
	next := slices.Clone(s.tasks)
	slices.SortStableFunc(next, compare)
	s.logger.Debug("tasks sorted", "by", by, "persist", s.persistSort)
	if !s.persistSort {
		s.tasks = next
		return nil
	}
	return s.commit(next)
}

// Save writes the current sequence through the persister.
func (s *Store) Save() error {
	return s.save(s.tasks)
}

// commit saves next and installs it only once the save succeeded.
func (s *Store) commit(next []Task) error {
	if err := s.save(next); err != nil {
		return err
	}
	s.tasks = next
	return nil
}

func (s *Store) save(tasks []Task) error {
	if err := s.persister.Save(slices.Clone(tasks)); err != nil {
		s.logger.Error("saving tasks failed", "err", err)
		return fmt.Errorf("save tasks: %w", err)
	}
	return nil
}
