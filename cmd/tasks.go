package cmd

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/nibzard/tasklist-go/internal/export"
	"github.com/nibzard/tasklist-go/internal/query"
	"github.com/nibzard/tasklist-go/internal/task"
	"github.com/nibzard/tasklist-go/internal/ui"
)

// shortIDLen is how much of an id ls prints.
const shortIDLen = 8

// draftFlags binds the editable task fields to a flag set.
type draftFlags struct {
	title       string
	description string
	due         string
	category    string
	priority    string
}

func (d *draftFlags) register(fs *flag.FlagSet, category, priority string) {
	fs.StringVar(&d.title, "title", "", "Task title")
	fs.StringVar(&d.description, "description", "", "Longer description")
	fs.StringVar(&d.due, "due", "", "Due date (YYYY-MM-DD)")
	fs.StringVar(&d.category, "category", category, "Category: Work, Personal or Urgent")
	fs.StringVar(&d.priority, "priority", priority, "Priority: Low, Medium or High")
}

// apply copies the flags named in set onto draft. Enum values are parsed
// case-insensitively.
func (d *draftFlags) apply(draft *task.Draft, set map[string]bool) error {
	if set["title"] {
		draft.Title = d.title
	}
	if set["description"] {
		draft.Description = d.description
	}
	if set["due"] {
		draft.DueDate = d.due
	}
	if set["category"] {
		c, err := task.ParseCategory(d.category)
		if err != nil {
			return err
		}
		draft.Category = c
	}
	if set["priority"] {
		p, err := task.ParsePriority(d.priority)
		if err != nil {
			return err
		}
		draft.Priority = p
	}
	return nil
}

func visited(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return set
}

// addCommand appends a new task.
func addCommand(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("tasklist add", flag.ContinueOnError)
	fs.SetOutput(e.errOut)
	var df draftFlags
	df.register(fs, string(task.CategoryWork), string(task.PriorityLow))
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}

	set := visited(fs)
	// Defaults count as set so the draft starts complete.
	set["category"], set["priority"] = true, true
	if !set["title"] {
		df.title = strings.Join(positional, " ")
		set["title"] = true
	} else if len(positional) > 0 {
		return fmt.Errorf("unexpected arguments: %v", positional)
	}

	var draft task.Draft
	if err := df.apply(&draft, set); err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, e)
	if err != nil {
		return err
	}
	defer closeStore()

	added, err := store.Add(draft)
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}
	fmt.Fprintf(e.out, "Added %d. %s (%s)\n", store.IndexOf(added.ID)+1, added.Title, shortID(added.ID))
	return nil
}

// editCommand changes the fields given as flags and leaves the rest alone.
func editCommand(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("tasklist edit", flag.ContinueOnError)
	fs.SetOutput(e.errOut)
	var df draftFlags
	df.register(fs, "", "")
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	set := visited(fs)
	if len(set) == 0 {
		return errors.New("edit: nothing to change (use --title, --description, --due, --category or --priority)")
	}

	store, closeStore, err := openStore(ctx, e)
	if err != nil {
		return err
	}
	defer closeStore()

	t, err := resolveTaskRef(store, positional)
	if err != nil {
		return err
	}

	editor := task.NewEditor(store)
	draft, err := editor.StartEdit(t.ID)
	if err != nil {
		return err
	}
	if err := df.apply(&draft, set); err != nil {
		editor.Cancel()
		return err
	}
	updated, err := editor.Submit(draft)
	if err != nil {
		editor.Cancel()
		return fmt.Errorf("edit: %w", err)
	}
	fmt.Fprintf(e.out, "Updated %d. %s\n", store.IndexOf(updated.ID)+1, updated.Title)
	return nil
}

// completeCommand sets or clears the completed flag.
func completeCommand(ctx context.Context, e *env, name string, completed bool, args []string) error {
	store, closeStore, err := openStore(ctx, e)
	if err != nil {
		return err
	}
	defer closeStore()

	t, err := resolveTaskRef(store, args)
	if err != nil {
		return err
	}
	if len(args) > 1 {
		return fmt.Errorf("%s: unexpected arguments: %v", name, args[1:])
	}
	if err := store.SetCompleted(t.ID, completed); err != nil {
		return err
	}
	state := "not completed"
	if completed {
		state = "completed"
	}
	fmt.Fprintf(e.out, "Marked %q %s\n", t.Title, state)
	return nil
}

// categoryCommand reassigns a task's category.
func categoryCommand(ctx context.Context, e *env, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: tasklist category <ref> <Work|Personal|Urgent>")
	}
	c, err := task.ParseCategory(args[1])
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, e)
	if err != nil {
		return err
	}
	defer closeStore()

	t, err := resolveTaskRef(store, args[:1])
	if err != nil {
		return err
	}
	if err := store.SetCategory(t.ID, c); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Moved %q to %s\n", t.Title, c)
	return nil
}

// rmCommand deletes a task after confirmation.
func rmCommand(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("tasklist rm", flag.ContinueOnError)
	fs.SetOutput(e.errOut)
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	fs.BoolVar(yes, "y", false, "Do not ask for confirmation")
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, e)
	if err != nil {
		return err
	}
	defer closeStore()

	t, err := resolveTaskRef(store, positional)
	if err != nil {
		return err
	}
	if !*yes && !confirm(e.out, stdin, fmt.Sprintf("Delete %q. Are you sure you want to delete this task? [y/N] ", t.Title)) {
		fmt.Fprintln(e.out, "Cancelled")
		return nil
	}
	if err := store.Remove(t.ID); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Deleted %q\n", t.Title)
	return nil
}

// confirm asks a yes/no question. Anything but y or yes is a no.
func confirm(w io.Writer, r io.Reader, prompt string) bool {
	fmt.Fprint(w, prompt)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(w)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// sortKey is one of the two list orders.
type sortKey struct {
	name    string
	compare func(a, b task.Task) int
}

func parseSortKey(name string) (sortKey, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "priority", "p":
		return sortKey{"priority", task.ComparePriority}, nil
	case "due", "duedate", "date", "d":
		return sortKey{"due date", task.CompareDueDate}, nil
	}
	return sortKey{}, fmt.Errorf("unknown sort order %q (want priority or due)", name)
}

// apply reorders the store itself.
func (k sortKey) apply(s *task.Store) error {
	if k.name == "priority" {
		return s.SortByPriority()
	}
	return s.SortByDueDate()
}

// lsCommand lists tasks. Numbers are positions in the stored order so they
// stay valid as references when the view is filtered or sorted.
func lsCommand(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("tasklist ls", flag.ContinueOnError)
	fs.SetOutput(e.errOut)
	search := fs.String("search", "", "Only show tasks whose title or priority contains this text")
	fs.StringVar(search, "s", "", "Shorthand for --search")
	sortBy := fs.String("sort", "", "Display order: priority or due (stored order is unchanged)")
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(positional) > 0 {
		if *search != "" {
			return fmt.Errorf("unexpected arguments: %v", positional)
		}
		*search = strings.Join(positional, " ")
	}

	var order func(a, b task.Task) int
	if *sortBy != "" {
		key, err := parseSortKey(*sortBy)
		if err != nil {
			return err
		}
		order = key.compare
	}

	store, closeStore, err := openStore(ctx, e)
	if err != nil {
		return err
	}
	defer closeStore()

	printTasks(e.out, store.Tasks(), *search, order)
	return nil
}

type listedTask struct {
	pos  int
	task task.Task
}

func printTasks(w io.Writer, tasks []task.Task, term string, order func(a, b task.Task) int) {
	var listed []listedTask
	for i, t := range query.Positions(tasks, term) {
		listed = append(listed, listedTask{pos: i, task: t})
	}
	if order != nil {
		slices.SortStableFunc(listed, func(a, b listedTask) int {
			return order(a.task, b.task)
		})
	}

	if len(listed) == 0 {
		if term != "" {
			fmt.Fprintf(w, "No tasks match %q.\n", term)
		} else {
			fmt.Fprintln(w, "No tasks.")
		}
		return
	}

	rows := make([][]string, 0, len(listed))
	done := 0
	for _, l := range listed {
		mark := ""
		if l.task.Completed {
			mark = "✓"
			done++
		}
		rows = append(rows, []string{
			strconv.Itoa(l.pos + 1),
			shortID(l.task.ID),
			l.task.Title,
			l.task.DueDate,
			string(l.task.Category),
			string(l.task.Priority),
			mark,
		})
	}

	cell := lipgloss.NewStyle().Padding(0, 1)
	header := cell.Bold(true)
	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("#", "ID", "Title", "Due", "Category", "Priority", "Done").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	fmt.Fprintln(w, tbl.Render())
	fmt.Fprintf(w, "%d shown, %d completed, %d total\n", len(listed), done, len(tasks))
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

// sortCommand reorders the stored list.
func sortCommand(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("tasklist sort", flag.ContinueOnError)
	fs.SetOutput(e.errOut)
	persistOrder := fs.Bool("persist", false, "Save the new order even when persist_sort is off")
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return errors.New("usage: tasklist sort priority|due [--persist]")
	}
	key, err := parseSortKey(positional[0])
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, e)
	if err != nil {
		return err
	}
	defer closeStore()

	if !e.cfg.PersistSort && !*persistOrder {
		// Sorted view only; numbers stay store positions.
		printTasks(e.out, store.Tasks(), "", key.compare)
		fmt.Fprintln(e.out, "Order not saved (use --persist or set persist_sort = true).")
		return nil
	}

	if err := key.apply(store); err != nil {
		return err
	}
	if !e.cfg.PersistSort {
		if err := store.Save(); err != nil {
			return err
		}
	}
	printTasks(e.out, store.Tasks(), "", nil)
	return nil
}

// tuiCommand launches the interactive interface.
func tuiCommand(ctx context.Context, e *env, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}
	store, closeStore, err := openStore(ctx, e)
	if err != nil {
		return err
	}
	defer closeStore()

	return ui.RunTUI(ctx, store, ui.WithTheme(e.cfg.Theme))
}

// exportCommand writes the list, or a filtered view of it, to a file or
// stdout.
func exportCommand(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("tasklist export", flag.ContinueOnError)
	fs.SetOutput(e.errOut)
	formatName := fs.String("format", string(export.FormatJSON), "Output format: json, yaml, csv or pdf")
	outPath := fs.String("out", "", "Output file (default stdout)")
	fs.StringVar(outPath, "o", "", "Shorthand for --out")
	search := fs.String("search", "", "Only export tasks matching this text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	format, err := export.ParseFormat(*formatName)
	if err != nil {
		return err
	}
	toStdout := *outPath == "" || *outPath == "-"
	if toStdout && format.Binary() && ui.IsTTY(e.out) {
		return fmt.Errorf("refusing to write %s to a terminal (use --out)", format)
	}

	store, closeStore, err := openStore(ctx, e)
	if err != nil {
		return err
	}
	defer closeStore()

	tasks := query.Collect(query.Filter(store.Tasks(), *search))

	if toStdout {
		return export.Write(e.out, tasks, format)
	}
	f, err := os.Create(*outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", *outPath, err)
	}
	if err := export.Write(f, tasks, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	e.logger.Debug("exported tasks", "format", format, "count", len(tasks), "path", *outPath)
	fmt.Fprintf(e.out, "Exported %d tasks to %s\n", len(tasks), *outPath)
	return nil
}
