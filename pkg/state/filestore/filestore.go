// Package filestore persists one option schema as a TOML file and reports
// edits made to that file by other processes.
package filestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/adrg/xdg"
	"github.com/fsnotify/fsnotify"
	"github.com/google/renameio/v2"
	"github.com/pelletier/go-toml/v2"

	"github.com/goliatone/go-wsoptions/pkg/state"
)

const (
	defaultAppDir = "wsoptions"
	dirPerm       = 0o750
)

// Option configures a Backend.
type Option func(*config)

type config struct {
	path    string
	dir     string
	watch   bool
	onError func(error)
}

// WithPath stores the schema at an explicit file path.
func WithPath(path string) Option {
	return func(cfg *config) {
		cfg.path = path
	}
}

// WithDir stores the schema as <dir>/<schema>.toml instead of under the XDG
// config home.
func WithDir(dir string) Option {
	return func(cfg *config) {
		cfg.dir = dir
	}
}

// WithWatch enables or disables external change detection. Enabled by default.
func WithWatch(enabled bool) Option {
	return func(cfg *config) {
		cfg.watch = enabled
	}
}

// WithErrorHandler receives reload and watcher errors, which have no caller
// to return to.
func WithErrorHandler(fn func(error)) Option {
	return func(cfg *config) {
		cfg.onError = fn
	}
}

// Backend is a state.Backend persisted to a TOML file. Values the file holds
// for undeclared keys, or in a shape that does not match the key's default,
// are ignored.
type Backend struct {
	schema  string
	path    string
	onError func(error)

	mu       sync.RWMutex
	defaults map[string]any
	values   map[string]any
	last     []byte

	watchers state.Watchers
	fsw      *fsnotify.Watcher
	done     chan struct{}
	closed   sync.Once
	wg       sync.WaitGroup
}

var _ state.Backend = (*Backend)(nil)

// Open loads (or prepares) the file for schema. defaults declares the keys.
func Open(schema string, defaults map[string]any, opts ...Option) (*Backend, error) {
	if schema == "" {
		return nil, fmt.Errorf("filestore: schema must not be empty")
	}
	cfg := config{watch: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	path, err := resolvePath(schema, cfg)
	if err != nil {
		return nil, err
	}

	b := &Backend{
		schema:   schema,
		path:     path,
		onError:  cfg.onError,
		defaults: make(map[string]any, len(defaults)),
		values:   map[string]any{},
		done:     make(chan struct{}),
	}
	for key, value := range defaults {
		b.defaults[key] = state.CloneValue(value)
	}
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return nil, fmt.Errorf("filestore: create directory: %w", err)
	}
	if _, err := b.Reload(); err != nil {
		return nil, err
	}
	if cfg.watch {
		if err := b.startWatch(); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func resolvePath(schema string, cfg config) (string, error) {
	switch {
	case cfg.path != "":
		return cfg.path, nil
	case cfg.dir != "":
		return filepath.Join(cfg.dir, schema+".toml"), nil
	default:
		path, err := xdg.ConfigFile(filepath.Join(defaultAppDir, schema+".toml"))
		if err != nil {
			return "", fmt.Errorf("filestore: resolve config path: %w", err)
		}
		return path, nil
	}
}

// Path returns the file backing the schema.
func (b *Backend) Path() string { return b.path }

func (b *Backend) Schema() string { return b.schema }

func (b *Backend) UserValue(key string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	value, ok := b.values[key]
	if !ok {
		return nil, false
	}
	return state.CloneValue(value), true
}

func (b *Backend) Default(key string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	value, ok := b.defaults[key]
	if !ok {
		return nil, false
	}
	return state.CloneValue(value), true
}

// Write applies changes and atomically replaces the file. On failure the
// in-memory values are left as they were.
func (b *Backend) Write(ctx context.Context, changes []state.Change) error {
	if len(changes) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	for _, change := range changes {
		if _, ok := b.defaults[change.Key]; !ok {
			b.mu.Unlock()
			return fmt.Errorf("%w: %s/%s", state.ErrUnknownKey, b.schema, change.Key)
		}
	}
	next := make(map[string]any, len(b.values)+len(changes))
	for key, value := range b.values {
		next[key] = value
	}
	for _, change := range changes {
		if change.Reset {
			delete(next, change.Key)
			continue
		}
		next[change.Key] = state.CloneValue(change.Value)
	}
	data, err := toml.Marshal(next)
	if err != nil {
		b.mu.Unlock()
		return fmt.Errorf("filestore: encode %s: %w", b.schema, err)
	}
	if err := writeAtomic(b.path, data); err != nil {
		b.mu.Unlock()
		return err
	}
	b.values = next
	b.last = data
	b.mu.Unlock()

	b.watchers.Notify(state.ChangedKeys(changes))
	return nil
}

func writeAtomic(path string, data []byte) error {
	f, err := renameio.TempFile("", path)
	if err != nil {
		return fmt.Errorf("filestore: create temp file: %w", err)
	}
	defer f.Cleanup()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("filestore: write %s: %w", path, err)
	}
	if err := f.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("filestore: replace %s: %w", path, err)
	}
	return nil
}

func (b *Backend) Watch(fn state.WatchFunc) func() {
	return b.watchers.Add(fn)
}

// Reload re-reads the file and notifies watchers of the keys whose value
// changed. It returns those keys. A missing file means no user values.
func (b *Backend) Reload() ([]string, error) {
	data, err := os.ReadFile(b.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("filestore: read %s: %w", b.path, err)
	}

	b.mu.Lock()
	if data != nil && bytes.Equal(data, b.last) {
		b.mu.Unlock()
		return nil, nil
	}
	raw := map[string]any{}
	if len(data) > 0 {
		if err := toml.Unmarshal(data, &raw); err != nil {
			b.mu.Unlock()
			return nil, fmt.Errorf("filestore: decode %s: %w", b.path, err)
		}
	}
	next := make(map[string]any, len(raw))
	for key, value := range raw {
		def, ok := b.defaults[key]
		if !ok {
			continue
		}
		if coerced, ok := coerce(value, def); ok {
			next[key] = coerced
		}
	}
	changed := state.DiffKeys(b.values, next)
	b.values = next
	b.last = data
	b.mu.Unlock()

	b.watchers.Notify(changed)
	return changed, nil
}

// Close stops watching the file. The backend stays readable and writable.
func (b *Backend) Close() error {
	var err error
	b.closed.Do(func() {
		close(b.done)
		if b.fsw != nil {
			err = b.fsw.Close()
		}
		b.wg.Wait()
	})
	return err
}

// WatchCount reports the number of live watches.
func (b *Backend) WatchCount() int {
	return b.watchers.Len()
}

// startWatch watches the parent directory, since atomic replacement swaps
// the file's inode on every write.
func (b *Backend) startWatch() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("filestore: start watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(b.path)); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("filestore: watch %s: %w", filepath.Dir(b.path), err)
	}
	b.fsw = fsw
	b.wg.Add(1)
	go b.watchLoop()
	return nil
}

func (b *Backend) watchLoop() {
	defer b.wg.Done()
	target := filepath.Clean(b.path)
	for {
		select {
		case <-b.done:
			return
		case event, ok := <-b.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if _, err := b.Reload(); err != nil {
				b.report(err)
			}
		case err, ok := <-b.fsw.Errors:
			if !ok {
				return
			}
			b.report(fmt.Errorf("filestore: watcher: %w", err))
		}
	}
}

func (b *Backend) report(err error) {
	if b.onError != nil {
		b.onError(err)
	}
}

// coerce converts a decoded TOML value into the shape of def.
func coerce(value, def any) (any, bool) {
	switch def.(type) {
	case bool:
		v, ok := value.(bool)
		return v, ok
	case int:
		switch v := value.(type) {
		case int64:
			return int(v), true
		case int:
			return v, true
		}
		return nil, false
	case string:
		v, ok := value.(string)
		return v, ok
	case []string:
		items, ok := value.([]any)
		if !ok {
			return nil, false
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			text, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, text)
		}
		return out, true
	case map[string]string:
		table, ok := value.(map[string]any)
		if !ok {
			return nil, false
		}
		out := make(map[string]string, len(table))
		for key, item := range table {
			text, ok := item.(string)
			if !ok {
				return nil, false
			}
			out[key] = text
		}
		return out, true
	default:
		return nil, false
	}
}
