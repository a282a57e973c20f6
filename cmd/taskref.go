package cmd

import (
	"errors"
	"flag"
	"fmt"
	"strconv"

	"github.com/nibzard/tasklist-go/internal/task"
)

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// minIDPrefix is the shortest id prefix accepted as a reference.
const minIDPrefix = 4

// resolveTaskRef resolves a reference to a task.
//
// An all-digit reference is a 1-based list number as printed by ls. Anything
// else is an id, or an unambiguous id prefix of at least minIDPrefix chars.
func resolveTaskRef(store *task.Store, args []string) (task.Task, error) {
	if len(args) == 0 {
		return task.Task{}, ErrTaskRefRequired
	}
	ref := args[0]

	if isAllDigits(ref) {
		n, err := strconv.Atoi(ref)
		if err != nil || n < 1 {
			return task.Task{}, fmt.Errorf("task number out of range: %s", ref)
		}
		t, err := store.At(n - 1)
		if err != nil {
			return task.Task{}, fmt.Errorf("task number out of range: %d (have %d)", n, store.Len())
		}
		return t, nil
	}

	if len(ref) < minIDPrefix {
		return task.Task{}, fmt.Errorf("invalid task reference: %s", ref)
	}
	return store.Lookup(ref)
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseInterspersed parses fs, allowing flags to follow positional
// arguments. It returns the positional arguments in order.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		// flag consumes a "--" terminator; everything after it is positional.
		if consumed := len(args) - len(rest); consumed > 0 && args[consumed-1] == "--" {
			return append(positional, rest...), nil
		}
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}
