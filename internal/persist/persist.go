// Package persist stores the task sequence as a JSON document in a kv.Store.
//
// The whole sequence is written on every Save. Load is lenient: a missing
// key is an empty list, a document that is not a JSON array is reported as a
// *ParseError (which matches task.ErrCorruptData), and individual records
// that fail the embedded schema are skipped with a warning.
package persist

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nibzard/tasklist-go/internal/kv"
	"github.com/nibzard/tasklist-go/internal/task"
)

// DefaultKey is the key the task list is stored under.
const DefaultKey = "tasks"

const schemaURL = "https://tasklist.local/schema/task.json"

//go:embed schema.json
var schemaJSON []byte

// ParseError reports a stored document that is not a JSON array of records.
type ParseError struct {
	Key string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %v", e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is makes a ParseError match task.ErrCorruptData.
func (e *ParseError) Is(target error) bool {
	return target == task.ErrCorruptData
}

// RecordError describes one stored record rejected by the schema.
type RecordError struct {
	Index  int
	Causes []string
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d: %s", e.Index, strings.Join(e.Causes, "; "))
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(a *Adapter) {
		if key != "" {
			a.key = key
		}
	}
}

// WithContext sets the context used for kv calls.
func WithContext(ctx context.Context) Option {
	return func(a *Adapter) {
		if ctx != nil {
			a.ctx = ctx
		}
	}
}

// WithLogger sets the logger that receives skipped-record warnings.
func WithLogger(logger *log.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Adapter implements task.Persister on top of a kv.Store.
type Adapter struct {
	store  kv.Store
	key    string
	ctx    context.Context
	logger *log.Logger
	schema *jsonschema.Schema
}

var _ task.Persister = (*Adapter)(nil)

// New returns an Adapter over store.
func New(store kv.Store, opts ...Option) (*Adapter, error) {
	if store == nil {
		return nil, errors.New("nil kv store")
	}
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	a := &Adapter{
		store:  store,
		key:    DefaultKey,
		ctx:    context.Background(),
		logger: log.New(io.Discard),
		schema: schema,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Key returns the storage key.
func (a *Adapter) Key() string {
	return a.key
}

// Load reads the stored sequence. Rejected records are logged and dropped.
func (a *Adapter) Load() ([]task.Task, error) {
	tasks, rejected, err := a.Decode()
	for _, re := range rejected {
		a.logger.Warn("skipping stored task", "key", a.key, "index", re.Index, "problems", strings.Join(re.Causes, "; "))
	}
	return tasks, err
}

// Decode is Load without logging: it returns the accepted tasks together
// with every rejected record.
func (a *Adapter) Decode() ([]task.Task, []*RecordError, error) {
	data, err := a.store.Get(a.ctx, a.key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read %q: %w", a.key, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, &ParseError{Key: a.key, Err: err}
	}

	tasks := make([]task.Task, 0, len(raw))
	var rejected []*RecordError
	for i, rec := range raw {
		t, causes := a.decodeRecord(rec)
		if len(causes) > 0 {
			rejected = append(rejected, &RecordError{Index: i, Causes: causes})
			continue
		}
		tasks = append(tasks, t)
	}
	return tasks, rejected, nil
}

func (a *Adapter) decodeRecord(rec json.RawMessage) (task.Task, []string) {
	var doc interface{}
	if err := json.Unmarshal(rec, &doc); err != nil {
		return task.Task{}, []string{err.Error()}
	}
	if err := a.schema.Validate(doc); err != nil {
		return task.Task{}, schemaCauses(err)
	}
	var t task.Task
	if err := json.Unmarshal(rec, &t); err != nil {
		return task.Task{}, []string{err.Error()}
	}
	return t, nil
}

// Save replaces the stored document with tasks.
func (a *Adapter) Save(tasks []task.Task) error {
	data, err := Marshal(tasks)
	if err != nil {
		return err
	}
	if err := a.store.Set(a.ctx, a.key, data); err != nil {
		return fmt.Errorf("write %q: %w", a.key, err)
	}
	return nil
}

// Marshal encodes tasks the way Save stores them: an indented JSON array
// with a trailing newline. A nil slice encodes as [].
func Marshal(tasks []task.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []task.Task{}
	}
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal tasks: %w", err)
	}
	return append(data, '\n'), nil
}

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("load task schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile task schema: %w", err)
	}
	return schema, nil
}

func schemaCauses(err error) []string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []string{err.Error()}
	}
	var out []string
	collectCauses(&out, ve)
	return out
}

func collectCauses(out *[]string, ve *jsonschema.ValidationError) {
	if len(ve.Causes) == 0 {
		if path := pointerToPath(ve.InstanceLocation); path != "" {
			*out = append(*out, path+": "+ve.Message)
		} else {
			*out = append(*out, ve.Message)
		}
		return
	}
	for _, cause := range ve.Causes {
		collectCauses(out, cause)
	}
}

func pointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(strings.TrimPrefix(ptr, "#"), "/")
	if ptr == "" {
		return ""
	}
	var path string
	for _, part := range strings.Split(ptr, "/") {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		if part == "" {
			continue
		}
		if idx, err := strconv.Atoi(part); err == nil {
			path += fmt.Sprintf("[%d]", idx)
			continue
		}
		if path != "" {
			path += "."
		}
		path += part
	}
	return path
}
