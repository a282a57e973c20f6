package task

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Category groups tasks.
type Category string

const (
	CategoryWork     Category = "Work"
	CategoryPersonal Category = "Personal"
	CategoryUrgent   Category = "Urgent"
)

// Categories returns the categories in display order.
func Categories() []Category {
	return []Category{CategoryWork, CategoryPersonal, CategoryUrgent}
}

// ParseCategory matches s case-insensitively against the known categories.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories() {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("invalid category %q, must be one of: Work, Personal, Urgent", s)
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryWork, CategoryPersonal, CategoryUrgent:
		return true
	}
	return false
}

// Next returns the category after c, wrapping around.
func (c Category) Next() Category {
	all := Categories()
	for i, cat := range all {
		if cat == c {
			return all[(i+1)%len(all)]
		}
	}
	return all[0]
}

// Priority is the urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Priorities returns the priorities from most to least urgent.
func Priorities() []Priority {
	return []Priority{PriorityHigh, PriorityMedium, PriorityLow}
}

// ParsePriority matches s case-insensitively against the known priorities.
func ParsePriority(s string) (Priority, error) {
	s = strings.TrimSpace(s)
	for _, p := range Priorities() {
		if strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("invalid priority %q, must be one of: Low, Medium, High", s)
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return p.Rank() <= 3
}

// Rank orders priorities for sorting: High=1, Medium=2, Low=3.
// Unknown values rank after Low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

// Task is a single to-do record.
type Task struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DueDate     string   `json:"dueDate"`
	Category    Category `json:"category"`
	Priority    Priority `json:"priority"`
	Completed   bool     `json:"completed"`
}

// Draft returns the editable fields of t.
func (t Task) Draft() Draft {
	return Draft{
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Category:    t.Category,
		Priority:    t.Priority,
	}
}

// Due parses the due date. Both 2006-01-02 and RFC 3339 are accepted.
func (t Task) Due() (time.Time, bool) {
	return ParseDueDate(t.DueDate)
}

// DueDateLayout is the canonical due date format.
const DueDateLayout = "2006-01-02"

// ParseDueDate parses a due date string.
func ParseDueDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if d, err := time.Parse(DueDateLayout, s); err == nil {
		return d, true
	}
	if d, err := time.Parse(time.RFC3339, s); err == nil {
		return d, true
	}
	return time.Time{}, false
}

// Draft holds proposed field values for add and edit.
type Draft struct {
	Title       string
	Description string
	DueDate     string
	Category    Category
	Priority    Priority
}

// normalize trims the free-text fields.
func (d Draft) normalize() Draft {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.DueDate = strings.TrimSpace(d.DueDate)
	return d
}

// Validate checks that the required fields are present and the enums are
// known values. Due dates are not parsed here: any non-empty text is kept.
func (d Draft) Validate() error {
	d = d.normalize()
	if d.Title == "" {
		return &ValidationError{Field: "title", Err: errMissing}
	}
	if d.DueDate == "" {
		return &ValidationError{Field: "dueDate", Err: errMissing}
	}
	if d.Category == "" {
		return &ValidationError{Field: "category", Err: errMissing}
	}
	if !d.Category.Valid() {
		return &ValidationError{Field: "category", Err: fmt.Errorf("unknown value %q", d.Category)}
	}
	if d.Priority == "" {
		return &ValidationError{Field: "priority", Err: errMissing}
	}
	if !d.Priority.Valid() {
		return &ValidationError{Field: "priority", Err: fmt.Errorf("unknown value %q", d.Priority)}
	}
	return nil
}

var errMissing = errors.New("missing required field")

// ValidationError reports a draft field that failed validation.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Err)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IndexError reports a position outside the current sequence.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("task index %d out of range [0,%d)", e.Index, e.Len)
}

// ErrNotFound is returned when no task has the requested ID.
var ErrNotFound = errors.New("task not found")

// ErrAmbiguous is returned when an ID prefix matches more than one task.
var ErrAmbiguous = errors.New("ambiguous task id")

// ErrCorruptData marks persisted data that could not be decoded. Store
// hydration treats it as "no data".
var ErrCorruptData = errors.New("corrupt task data")
