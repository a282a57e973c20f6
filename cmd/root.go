// Package cmd implements the CLI command structure for tasklist.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasklist-go/internal/config"
	"github.com/nibzard/tasklist-go/internal/kv"
	"github.com/nibzard/tasklist-go/internal/logging"
	"github.com/nibzard/tasklist-go/internal/persist"
	"github.com/nibzard/tasklist-go/internal/task"
)

// Version is set via ldflags at build time.
var Version = "dev"

// stdin is where interactive confirmations are read from.
var stdin io.Reader = os.Stdin

// env carries what every subcommand needs.
type env struct {
	cws    *config.ConfigWithSources
	cfg    *config.Config
	out    io.Writer
	errOut io.Writer
	logger *log.Logger
}

// Run executes the tasklist CLI.
func Run(ctx context.Context, args []string, out, errOut io.Writer) error {
	// Create a flag set for global options
	fs := flag.NewFlagSet("tasklist", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.Usage = func() {
		printUsage(fs, errOut)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	// Global flags
	cws, err := config.LoadWithSources(fs, args)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *help {
		printUsage(fs, out)
		return nil
	}
	if *showVersion {
		return versionCommand(out)
	}

	e := &env{
		cws:    cws,
		cfg:    cws.Config,
		out:    out,
		errOut: errOut,
		logger: logging.New(errOut, logging.FromConfig(cws.Config)),
	}

	// Determine the subcommand; with none, list tasks
	subcommand := "ls"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	// Execute the subcommand
	switch subcommand {
	case "add":
		return addCommand(ctx, e, remainingArgs)
	case "edit":
		return editCommand(ctx, e, remainingArgs)
	case "done":
		return completeCommand(ctx, e, "done", true, remainingArgs)
	case "undone":
		return completeCommand(ctx, e, "undone", false, remainingArgs)
	case "category":
		return categoryCommand(ctx, e, remainingArgs)
	case "rm":
		return rmCommand(ctx, e, remainingArgs)
	case "ls", "list":
		return lsCommand(ctx, e, remainingArgs)
	case "sort":
		return sortCommand(ctx, e, remainingArgs)
	case "tui":
		return tuiCommand(ctx, e, remainingArgs)
	case "export":
		return exportCommand(ctx, e, remainingArgs)
	case "init":
		return initCommand(e, remainingArgs)
	case "doctor":
		return doctorCommand(ctx, e, remainingArgs)
	case "version":
		return versionCommand(out)
	case "help":
		printUsage(fs, out)
		return nil
	default:
		fmt.Fprintf(errOut, "Unknown command: %s\n", subcommand)
		printUsage(fs, errOut)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// openStore opens the configured backend and hydrates a task store from it.
// The returned close function releases the backend.
func openStore(ctx context.Context, e *env) (*task.Store, func(), error) {
	backend, err := kv.Open(ctx, e.cfg.KVOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s store: %w", e.cfg.Store, err)
	}
	closeFn := func() {
		if err := backend.Close(); err != nil {
			e.logger.Warn("closing store", "err", err)
		}
	}

	adapter, err := persist.New(backend,
		persist.WithKey(e.cfg.StorageKey),
		persist.WithContext(ctx),
		persist.WithLogger(e.logger),
	)
	if err != nil {
		closeFn()
		return nil, nil, err
	}

	store, err := task.Open(adapter,
		task.WithPersistSort(e.cfg.PersistSort),
		task.WithLogger(e.logger),
	)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return store, closeFn, nil
}

// initCommand writes an example config file.
func initCommand(e *env, args []string) error {
	fs := flag.NewFlagSet("tasklist init", flag.ContinueOnError)
	fs.SetOutput(e.errOut)
	user := fs.Bool("user", false, "Write the user config (~/.tasklist/tasklist.toml) instead of ./tasklist.toml")
	force := fs.Bool("force", false, "Overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	path := filepath.Join(e.cfg.ProjectRoot, "tasklist.toml")
	if *user {
		p, err := config.UserConfigPath()
		if err != nil {
			return fmt.Errorf("locating user config: %w", err)
		}
		path = p
	}

	if _, err := os.Stat(path); err == nil && !*force {
		fmt.Fprintf(e.out, "Config already exists: %s (use --force to overwrite)\n", path)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(config.ExampleConfig()), 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Fprintf(e.out, "Wrote %s\n", path)
	return nil
}

// doctorCommand checks the config and the stored task data.
func doctorCommand(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("tasklist doctor", flag.ContinueOnError)
	fs.SetOutput(e.errOut)
	verbose := fs.Bool("v", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	w := e.out
	cfg := e.cfg
	fmt.Fprintln(w, "Tasklist Doctor")
	fmt.Fprintln(w, "===============")
	fmt.Fprintln(w)

	allOK := true

	// Config
	fmt.Fprintln(w, "Config:")
	if len(e.cws.Files) == 0 {
		fmt.Fprintln(w, "  ⚠️  No config file (defaults, environment and flags only)")
	}
	for _, f := range e.cws.Files {
		fmt.Fprintf(w, "  ✅ Loaded %s\n", f)
	}
	for _, u := range e.cws.Unknown {
		fmt.Fprintf(w, "  ⚠️  Unknown key %s\n", u)
	}
	if err := logging.Check(logging.FromConfig(cfg)); err != nil {
		fmt.Fprintf(w, "  ⚠️  %v (using defaults)\n", err)
	}
	if *verbose {
		for _, field := range []string{"store", "data_dir", "dsn", "storage_key", "persist_sort", "theme", "log_level", "log_format"} {
			fmt.Fprintf(w, "  %-13s %-28s (%s)\n", field, fieldValue(cfg, field), e.cws.Sources[field])
		}
	}
	fmt.Fprintln(w)

	// Store
	fmt.Fprintf(w, "Store: %s\n", describeStore(cfg))
	backend, err := kv.Open(ctx, cfg.KVOptions())
	if err != nil {
		fmt.Fprintf(w, "  ❌ Error: %v\n", err)
		return errors.New("doctor found problems")
	}
	defer backend.Close()
	fmt.Fprintln(w, "  ✅ OK")
	fmt.Fprintln(w)

	// Stored tasks
	fmt.Fprintf(w, "Tasks (key %q):\n", cfg.StorageKey)
	adapter, err := persist.New(backend, persist.WithKey(cfg.StorageKey), persist.WithContext(ctx))
	if err != nil {
		return err
	}
	tasks, rejected, err := adapter.Decode()
	var pe *persist.ParseError
	switch {
	case errors.As(err, &pe):
		fmt.Fprintf(w, "  ❌ Unreadable: %v (the list will start empty)\n", pe.Err)
		allOK = false
	case err != nil:
		fmt.Fprintf(w, "  ❌ Error: %v\n", err)
		allOK = false
	default:
		fmt.Fprintf(w, "  ✅ %d valid\n", len(tasks))
		for _, re := range rejected {
			fmt.Fprintf(w, "  ❌ %v (skipped on load)\n", re)
			allOK = false
		}
		missingIDs := 0
		for _, t := range tasks {
			if t.ID == "" {
				missingIDs++
			}
		}
		if missingIDs > 0 {
			fmt.Fprintf(w, "  ⚠️  %d without an id (assigned and saved on next open)\n", missingIDs)
		}
		if *verbose {
			for i, t := range tasks {
				fmt.Fprintf(w, "    %d. %s\n", i+1, t.Title)
			}
		}
	}
	fmt.Fprintln(w)

	if !allOK {
		return errors.New("doctor found problems")
	}
	fmt.Fprintln(w, "All checks passed.")
	return nil
}

func describeStore(cfg *config.Config) string {
	switch cfg.Store {
	case kv.BackendFile:
		return fmt.Sprintf("file (%s)", cfg.DataDir)
	case kv.BackendSQLite:
		path := cfg.DSN
		if path == "" {
			path = kv.DefaultSQLitePath(cfg.DataDir)
		}
		return fmt.Sprintf("sqlite (%s)", path)
	case kv.BackendMySQL:
		return "mysql"
	default:
		return cfg.Store
	}
}

func fieldValue(cfg *config.Config, field string) string {
	switch field {
	case "store":
		return cfg.Store
	case "data_dir":
		return cfg.DataDir
	case "dsn":
		if cfg.DSN == "" {
			return ""
		}
		return "(set)"
	case "storage_key":
		return cfg.StorageKey
	case "persist_sort":
		return fmt.Sprint(cfg.PersistSort)
	case "theme":
		return cfg.Theme
	case "log_level":
		return cfg.LogLevel
	case "log_format":
		return cfg.LogFormat
	}
	return ""
}

// versionCommand prints version information.
func versionCommand(w io.Writer) error {
	fmt.Fprintf(w, "tasklist version %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "tasklist - manage a personal task list")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  tasklist [global options] [command] [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  ls [--search term] [--sort priority|due]   List tasks (default command)")
	fmt.Fprintln(w, "  add <title> --due D [--category C] [--priority P] [--description S]")
	fmt.Fprintln(w, "  edit <ref> [--title T] [--due D] [--category C] [--priority P] [--description S]")
	fmt.Fprintln(w, "  done <ref>                Mark a task completed")
	fmt.Fprintln(w, "  undone <ref>              Mark a task not completed")
	fmt.Fprintln(w, "  category <ref> <name>     Set the category (Work, Personal, Urgent)")
	fmt.Fprintln(w, "  rm <ref> [--yes]          Delete a task")
	fmt.Fprintln(w, "  sort priority|due [--persist]  Reorder the list")
	fmt.Fprintln(w, "  tui                       Launch terminal UI")
	fmt.Fprintln(w, "  export [--format F] [--out path] [--search term]  Export as json, yaml, csv or pdf")
	fmt.Fprintln(w, "  init [--user] [--force]   Write an example config file")
	fmt.Fprintln(w, "  doctor [-v]               Check config and stored data")
	fmt.Fprintln(w, "  version                   Show version information")
	fmt.Fprintln(w, "  help                      Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "<ref> is the task number shown by ls, or the first 4+ characters of its id.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Every global option can also be set in tasklist.toml or as %s<KEY>.\n", config.EnvPrefix)
	fmt.Fprintln(w, strings.TrimSpace(`
Config files: ~/.tasklist/tasklist.toml, then ./tasklist.toml or ./.tasklist.toml`))
}
