package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/nibzard/tasklist-go/internal/task"
)

// isolate points HOME, the working directory and the data dir at temp dirs
// and returns the data dir.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("APPDATA", filepath.Join(home, "AppData"))
	for _, name := range []string{"STORE", "DSN", "STORAGE_KEY", "PERSIST_SORT", "THEME", "LOG_LEVEL", "LOG_FORMAT", "LOG_TIMESTAMPS", "LOG_CALLER"} {
		t.Setenv("TASKLIST_"+name, "")
	}
	dataDir := filepath.Join(t.TempDir(), "data")
	t.Setenv("TASKLIST_DATA_DIR", dataDir)
	t.Chdir(t.TempDir())
	return dataDir
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := Run(context.Background(), args, &out, &errOut)
	return out.String(), errOut.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, err := run(t, args...)
	if err != nil {
		t.Fatalf("tasklist %s: %v\nstderr: %s", strings.Join(args, " "), err, errOut)
	}
	return out
}

// stored returns the list as exported to JSON.
func stored(t *testing.T) []task.Task {
	t.Helper()
	var tasks []task.Task
	if err := json.Unmarshal([]byte(mustRun(t, "export")), &tasks); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}
	return tasks
}

func titles(tasks []task.Task) []string {
	var out []string
	for _, tk := range tasks {
		out = append(out, tk.Title)
	}
	return out
}

func seed(t *testing.T) {
	t.Helper()
	mustRun(t, "add", "Buy milk", "--due", "2024-03-02", "--category", "personal")
	mustRun(t, "add", "--title", "File taxes", "--due", "2024-04-15", "--priority", "High")
	mustRun(t, "add", "Call plumber", "--due", "2024-01-10", "--priority", "medium", "--category", "Urgent")
}

func TestRun(t *testing.T) {
	isolate(t)

	t.Run("help flag", func(t *testing.T) {
		out := mustRun(t, "--help")
		if !strings.Contains(out, "Commands:") {
			t.Errorf("help output: %q", out)
		}
	})

	t.Run("help command", func(t *testing.T) {
		out := mustRun(t, "help")
		if !strings.Contains(out, "export") {
			t.Errorf("help output: %q", out)
		}
	})

	t.Run("version", func(t *testing.T) {
		for _, args := range [][]string{{"--version"}, {"-v"}, {"version"}} {
			out := mustRun(t, args...)
			if out != "tasklist version dev\n" {
				t.Errorf("%v: got %q", args, out)
			}
		}
	})

	t.Run("unknown command", func(t *testing.T) {
		_, errOut, err := run(t, "frobnicate")
		if err == nil || !strings.Contains(err.Error(), "unknown command") {
			t.Errorf("expected unknown command error, got %v", err)
		}
		if !strings.Contains(errOut, "Unknown command: frobnicate") {
			t.Errorf("stderr: %q", errOut)
		}
	})

	t.Run("bad global flag", func(t *testing.T) {
		if _, _, err := run(t, "--store", "redis", "ls"); err == nil {
			t.Error("expected error for unknown backend")
		}
	})

	t.Run("empty list", func(t *testing.T) {
		if out := mustRun(t); out != "No tasks.\n" {
			t.Errorf("got %q", out)
		}
	})
}

func TestAddAndList(t *testing.T) {
	dataDir := isolate(t)

	out := mustRun(t, "add", "Buy", "milk", "--due", "2024-03-02")
	if !strings.HasPrefix(out, "Added 1. Buy milk (") {
		t.Errorf("add output: %q", out)
	}
	if _, err := os.Stat(filepath.Join(dataDir, "tasks.json")); err != nil {
		t.Errorf("expected the file store to be written: %v", err)
	}

	got := stored(t)
	if len(got) != 1 {
		t.Fatalf("stored %d tasks", len(got))
	}
	want := task.Task{ID: got[0].ID, Title: "Buy milk", DueDate: "2024-03-02", Category: task.CategoryWork, Priority: task.PriorityLow}
	if got[0] != want || got[0].ID == "" {
		t.Errorf("stored %+v, want %+v", got[0], want)
	}

	ls := mustRun(t, "ls")
	for _, s := range []string{"Buy milk", "2024-03-02", "Work", "Low", "1 shown, 0 completed, 1 total"} {
		if !strings.Contains(ls, s) {
			t.Errorf("ls output missing %q:\n%s", s, ls)
		}
	}
}

func TestAddValidation(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing title", []string{"add", "--due", "2024-01-01"}, "title"},
		{"blank title", []string{"add", "  ", "--due", "2024-01-01"}, "title"},
		{"missing due", []string{"add", "Something"}, "dueDate"},
		{"bad category", []string{"add", "x", "--due", "2024-01-01", "--category", "Home"}, "Home"},
		{"bad priority", []string{"add", "x", "--due", "2024-01-01", "--priority", "Critical"}, "Critical"},
		{"title twice", []string{"add", "x", "--title", "y", "--due", "2024-01-01"}, "unexpected arguments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
	if got := stored(t); len(got) != 0 {
		t.Errorf("rejected adds were stored: %+v", got)
	}
}

func TestEdit(t *testing.T) {
	isolate(t)
	seed(t)

	out := mustRun(t, "edit", "2", "--priority", "low", "--description", "before April")
	if out != "Updated 2. File taxes\n" {
		t.Errorf("edit output: %q", out)
	}
	got := stored(t)[1]
	if got.Priority != task.PriorityLow || got.Description != "before April" {
		t.Errorf("edited task: %+v", got)
	}
	if got.Title != "File taxes" || got.DueDate != "2024-04-15" || got.Category != task.CategoryWork {
		t.Errorf("unset fields changed: %+v", got)
	}

	if _, _, err := run(t, "edit", "2"); err == nil || !strings.Contains(err.Error(), "nothing to change") {
		t.Errorf("expected nothing to change, got %v", err)
	}
	if _, _, err := run(t, "edit", "2", "--title", ""); err == nil {
		t.Error("expected validation error for empty title")
	}
	if stored(t)[1].Title != "File taxes" {
		t.Error("failed edit changed the task")
	}
}

func TestDoneUndoneCategory(t *testing.T) {
	isolate(t)
	seed(t)

	mustRun(t, "done", "1")
	mustRun(t, "done", "3")
	mustRun(t, "undone", "3")
	mustRun(t, "category", "2", "urgent")

	got := stored(t)
	if !got[0].Completed || got[2].Completed {
		t.Errorf("completed flags: %v %v", got[0].Completed, got[2].Completed)
	}
	if got[1].Category != task.CategoryUrgent {
		t.Errorf("category: %s", got[1].Category)
	}

	if _, _, err := run(t, "category", "2", "Home"); err == nil {
		t.Error("expected error for unknown category")
	}
	if _, _, err := run(t, "category", "2"); err == nil {
		t.Error("expected usage error")
	}
	if !strings.Contains(mustRun(t, "ls"), "1 completed") {
		t.Error("ls should count completed tasks")
	}
}

func TestTaskRefs(t *testing.T) {
	isolate(t)
	seed(t)
	id := stored(t)[2].ID

	tests := []struct {
		name    string
		ref     []string
		wantErr string
	}{
		{"number", []string{"3"}, ""},
		{"id prefix", []string{id[:6]}, ""},
		{"full id", []string{strings.ToUpper(id)}, ""},
		{"missing", nil, "task reference required"},
		{"zero", []string{"0"}, "out of range"},
		{"too big", []string{"4"}, "out of range"},
		{"short prefix", []string{"abc"}, "invalid task reference"},
		{"non-ascii digits", []string{"١٢٣٤"}, "not found"},
		{"unknown id", []string{"zzzzzzzz"}, "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, append([]string{"done"}, tt.ref...)...)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("done %v: %v", tt.ref, err)
				}
				if !stored(t)[2].Completed {
					t.Error("task not completed")
				}
				mustRun(t, "undone", "3")
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRemove(t *testing.T) {
	isolate(t)
	seed(t)
	t.Cleanup(func() { stdin = os.Stdin })

	stdin = strings.NewReader("n\n")
	out := mustRun(t, "rm", "1")
	if !strings.Contains(out, "Are you sure you want to delete this task?") || !strings.Contains(out, "Cancelled") {
		t.Errorf("rm output: %q", out)
	}
	if len(stored(t)) != 3 {
		t.Fatal("declined rm deleted the task")
	}

	stdin = strings.NewReader("")
	mustRun(t, "rm", "1")
	if len(stored(t)) != 3 {
		t.Fatal("rm without an answer deleted the task")
	}

	stdin = strings.NewReader("y\n")
	mustRun(t, "rm", "1")
	mustRun(t, "rm", "2", "--yes")

	if got := titles(stored(t)); !reflect.DeepEqual(got, []string{"File taxes"}) {
		t.Errorf("remaining: %v", got)
	}
}

func TestListSearchAndSort(t *testing.T) {
	isolate(t)
	seed(t)

	out := mustRun(t, "ls", "--search", "HIGH")
	if !strings.Contains(out, "File taxes") || strings.Contains(out, "Buy milk") {
		t.Errorf("search output:\n%s", out)
	}
	if !strings.Contains(out, "1 shown, 0 completed, 3 total") {
		t.Errorf("search summary:\n%s", out)
	}

	if out := mustRun(t, "ls", "nothing-matches"); out != "No tasks match \"nothing-matches\".\n" {
		t.Errorf("got %q", out)
	}

	// Sorted view keeps store numbers.
	out = mustRun(t, "ls", "--sort", "due")
	plumber := strings.Index(out, "Call plumber")
	milk := strings.Index(out, "Buy milk")
	if plumber < 0 || milk < 0 || plumber > milk {
		t.Errorf("expected due order:\n%s", out)
	}
	if !strings.Contains(out[:plumber], "3") {
		t.Errorf("sorted view should keep the stored number:\n%s", out)
	}
	if got := titles(stored(t)); got[0] != "Buy milk" {
		t.Errorf("ls --sort changed the stored order: %v", got)
	}

	if _, _, err := run(t, "ls", "--sort", "size"); err == nil {
		t.Error("expected error for unknown sort")
	}
}

func TestSort(t *testing.T) {
	isolate(t)
	seed(t)

	out := mustRun(t, "sort", "priority")
	if !strings.Contains(out, "Order not saved") {
		t.Errorf("sort output:\n%s", out)
	}
	if got := titles(stored(t)); got[0] != "Buy milk" {
		t.Errorf("unsaved sort changed the stored order: %v", got)
	}

	mustRun(t, "sort", "priority", "--persist")
	want := []string{"File taxes", "Call plumber", "Buy milk"}
	if got := titles(stored(t)); !reflect.DeepEqual(got, want) {
		t.Errorf("priority order: got %v, want %v", got, want)
	}

	mustRun(t, "--persist-sort", "sort", "due")
	want = []string{"Call plumber", "Buy milk", "File taxes"}
	if got := titles(stored(t)); !reflect.DeepEqual(got, want) {
		t.Errorf("due order: got %v, want %v", got, want)
	}

	if _, _, err := run(t, "sort"); err == nil {
		t.Error("expected usage error")
	}
}

// rowNumber returns the # column of the table row that shows title.
func rowNumber(t *testing.T, out, title string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, title) {
			continue
		}
		cells := strings.FieldsFunc(line, func(r rune) bool { return r == '│' })
		if len(cells) > 0 {
			return strings.TrimSpace(cells[0])
		}
	}
	t.Fatalf("no row for %q in:\n%s", title, out)
	return ""
}

func TestUnsavedSortKeepsReferences(t *testing.T) {
	isolate(t)
	seed(t)

	out := mustRun(t, "sort", "priority")
	if strings.Index(out, "File taxes") > strings.Index(out, "Buy milk") {
		t.Errorf("expected priority order in the view:\n%s", out)
	}
	n := rowNumber(t, out, "File taxes")
	if n != "2" {
		t.Errorf("File taxes shown as %q, want its stored number 2", n)
	}

	done := mustRun(t, "done", n)
	if done != "Marked \"File taxes\" completed\n" {
		t.Errorf("done %s: %q", n, done)
	}
}

func TestExport(t *testing.T) {
	isolate(t)
	seed(t)

	path := filepath.Join(t.TempDir(), "tasks.csv")
	out := mustRun(t, "export", "--format", "csv", "--out", path, "--search", "u")
	if out != "Exported 2 tasks to "+path+"\n" {
		t.Errorf("export output: %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "id,title") {
		t.Errorf("csv:\n%s", data)
	}

	pdf := mustRun(t, "export", "--format", "pdf")
	if !strings.HasPrefix(pdf, "%PDF-") {
		t.Error("pdf export to a pipe should be written")
	}

	yml := mustRun(t, "export", "--format", "yml")
	if !strings.Contains(yml, "title: Call plumber") {
		t.Errorf("yaml:\n%s", yml)
	}

	if _, _, err := run(t, "export", "--format", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestInit(t *testing.T) {
	isolate(t)

	out := mustRun(t, "init")
	if !strings.HasPrefix(out, "Wrote ") {
		t.Errorf("init output: %q", out)
	}
	data, err := os.ReadFile("tasklist.toml")
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if !strings.Contains(string(data), "storage_key") {
		t.Errorf("unexpected config:\n%s", data)
	}

	if out := mustRun(t, "init"); !strings.Contains(out, "already exists") {
		t.Errorf("second init: %q", out)
	}
	mustRun(t, "init", "--force")

	out = mustRun(t, "init", "--user")
	if !strings.Contains(out, filepath.Join(".tasklist", "tasklist.toml")) {
		t.Errorf("user init: %q", out)
	}
	// The written configs load cleanly.
	mustRun(t, "ls")
}

func TestDoctor(t *testing.T) {
	dataDir := isolate(t)
	seed(t)

	out := mustRun(t, "doctor", "-v")
	for _, s := range []string{"✅ 3 valid", "All checks passed.", "No config file"} {
		if !strings.Contains(out, s) {
			t.Errorf("doctor output missing %q:\n%s", s, out)
		}
	}

	doc := `[{"id":"a1","title":"ok","dueDate":"2024-01-01","category":"Work","priority":"Low"},{"title":"bad","dueDate":"x","category":"Home","priority":"Low"}]`
	if err := os.WriteFile(filepath.Join(dataDir, "tasks.json"), []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	out, _, err := run(t, "doctor")
	if err == nil {
		t.Error("expected doctor to report problems")
	}
	if !strings.Contains(out, "record 1") || !strings.Contains(out, "✅ 1 valid") {
		t.Errorf("doctor output:\n%s", out)
	}

	if err := os.WriteFile(filepath.Join(dataDir, "tasks.json"), []byte("{{"), 0644); err != nil {
		t.Fatal(err)
	}
	out, _, err = run(t, "doctor")
	if err == nil || !strings.Contains(out, "Unreadable") {
		t.Errorf("corrupt store: err=%v\n%s", err, out)
	}
	// Corrupt data is treated as an empty list.
	if out := mustRun(t, "ls"); out != "No tasks.\n" {
		t.Errorf("ls over corrupt data: %q", out)
	}
}

func TestLegacyRecordsKeepTheirIDs(t *testing.T) {
	dataDir := isolate(t)
	doc := `[{"title":"Legacy","dueDate":"2024-01-01","category":"Work","priority":"Low"}]`
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, "tasks.json"), []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	first := stored(t)
	if len(first) != 1 || first[0].ID == "" {
		t.Fatalf("legacy record: %+v", first)
	}
	if again := stored(t); again[0].ID != first[0].ID {
		t.Fatalf("id changed between runs: %q then %q", first[0].ID, again[0].ID)
	}
	if out := mustRun(t, "done", first[0].ID[:8]); !strings.Contains(out, "Legacy") {
		t.Errorf("id shown by an earlier run should resolve: %q", out)
	}
}

func TestStorageKeyAndBackend(t *testing.T) {
	dataDir := isolate(t)

	mustRun(t, "--key", "work", "add", "Standup", "--due", "2024-01-01")
	if _, err := os.Stat(filepath.Join(dataDir, "work.json")); err != nil {
		t.Errorf("expected work.json: %v", err)
	}
	if out := mustRun(t, "ls"); out != "No tasks.\n" {
		t.Errorf("default key should be empty, got %q", out)
	}

	mustRun(t, "--store", "sqlite", "add", "Backed by sqlite", "--due", "2024-01-01")
	out := mustRun(t, "--store", "sqlite", "ls")
	if !strings.Contains(out, "Backed by sqlite") {
		t.Errorf("sqlite ls:\n%s", out)
	}
}

func TestParseInterspersed(t *testing.T) {
	tests := []struct {
		args    []string
		wantPos []string
		wantDue string
	}{
		{[]string{"a", "--due", "d", "b"}, []string{"a", "b"}, "d"},
		{[]string{"--due", "d"}, nil, "d"},
		{[]string{"a", "--", "--due", "d"}, []string{"a", "--due", "d"}, ""},
		{[]string{"--due", "d", "--", "-x"}, []string{"-x"}, "d"},
	}
	for _, tt := range tests {
		fs := flag.NewFlagSet("test", flag.ContinueOnError)
		due := fs.String("due", "", "")
		pos, err := parseInterspersed(fs, tt.args)
		if err != nil {
			t.Fatalf("%v: %v", tt.args, err)
		}
		if !reflect.DeepEqual(pos, tt.wantPos) || *due != tt.wantDue {
			t.Errorf("%v: got %v due=%q", tt.args, pos, *due)
		}
	}
}

func TestIsAllDigits(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"12", true},
		{"007", true},
		{"", false},
		{"1a", false},
		{"-1", false},
		{"١٢", false},
		{"１２", false},
	}
	for _, tt := range tests {
		if got := isAllDigits(tt.in); got != tt.want {
			t.Errorf("isAllDigits(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestResolveTaskRefRequired(t *testing.T) {
	if _, err := resolveTaskRef(nil, nil); !errors.Is(err, ErrTaskRefRequired) {
		t.Errorf("got %v", err)
	}
}
