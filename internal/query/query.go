// Package query derives filtered views of a task sequence.
//
// Views are lazy iterators over a snapshot slice: they can be ranged over any
// number of times, never mutate the tasks, and must be re-derived after the
// store changes or the search term changes.
package query

import (
	"iter"
	"strings"

	"golang.org/x/text/cases"

	"github.com/nibzard/tasklist-go/internal/task"
)

// Filter yields the tasks whose title or priority contains term, compared
// case-insensitively. The term is used as given: only the empty term yields
// every task.
func Filter(tasks []task.Task, term string) iter.Seq[task.Task] {
	return func(yield func(task.Task) bool) {
		for _, t := range Positions(tasks, term) {
			if !yield(t) {
				return
			}
		}
	}
}

// Positions is like Filter but also yields each task's position in tasks, so
// a display can number rows by store position.
func Positions(tasks []task.Task, term string) iter.Seq2[int, task.Task] {
	return func(yield func(int, task.Task) bool) {
		m := newMatcher(term)
		for i, t := range tasks {
			if !m.match(t) {
				continue
			}
			if !yield(i, t) {
				return
			}
		}
	}
}

// Matches reports whether t matches term.
func Matches(t task.Task, term string) bool {
	return newMatcher(term).match(t)
}

// Collect returns the tasks of seq as a slice.
func Collect(seq iter.Seq[task.Task]) []task.Task {
	var out []task.Task
	for t := range seq {
		out = append(out, t)
	}
	return out
}

// Count returns the number of tasks in seq.
func Count(seq iter.Seq[task.Task]) int {
	n := 0
	for range seq {
		n++
	}
	return n
}

type matcher struct {
	fold   cases.Caser
	needle string
}

func newMatcher(term string) *matcher {
	m := &matcher{fold: cases.Fold()}
	m.needle = m.fold.String(term)
	return m
}

func (m *matcher) match(t task.Task) bool {
	if m.needle == "" {
		return true
	}
	return strings.Contains(m.fold.String(t.Title), m.needle) ||
		strings.Contains(m.fold.String(string(t.Priority)), m.needle)
}
