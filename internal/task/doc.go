// Package task holds the task model and the Store that owns the ordered task
// sequence.
//
// A Store is created with Open, which hydrates it from a Persister. Every
// mutating operation validates its input, writes a full snapshot of the
// changed sequence through the Persister, and only then applies the change.
// A failed save leaves the Store as it was:
//
//	s, err := task.Open(adapter)
//	t, err := s.Add(task.Draft{Title: "Pay rent", DueDate: "2024-01-01",
//		Category: task.CategoryPersonal, Priority: task.PriorityHigh})
//	err = s.SetCompleted(t.ID, true)
//	err = s.Remove(t.ID)
//
// # Locators
//
// Tasks are addressed by ID. IDs are assigned at creation and survive
// reordering, removal of other tasks and reloads. Positions are only used by
// the display layer (At, IndexOf) and are valid until the next Add, Remove or
// sort.
//
// # Errors
//
//   - *ValidationError: a required draft field is empty or an enum is unknown.
//   - *IndexError: At was called with a position outside the sequence.
//   - ErrNotFound / ErrAmbiguous: an ID or ID prefix did not resolve.
//
// None of these change state or trigger a save.
//
// # Sorting
//
// SortByPriority orders High, Medium, Low. SortByDueDate orders by date,
// earliest first, with unparseable dates last. Both are stable. Sort order
// is only saved immediately when the store was opened WithPersistSort(true);
// otherwise it reaches storage with the next mutation.
//
// A Store is not safe for concurrent use.
package task
