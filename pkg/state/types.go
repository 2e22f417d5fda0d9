package state

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
)

var ErrBackendUnavailable = errors.New("state: backend unavailable")

var ErrUnknownKey = errors.New("state: unknown key")

// Change is one buffered write. Reset drops the user value so reads fall back
// to the schema default; Value is ignored in that case.
type Change struct {
	Key   string
	Value any
	Reset bool
}

// WatchFunc receives the keys touched by one applied batch, in write order.
type WatchFunc func(keys []string)

// Backend is the durable key/value service for one schema.
type Backend interface {
	Schema() string
	// UserValue returns the explicitly stored value, if any.
	UserValue(key string) (any, bool)
	// Default returns the schema default. ok is false for keys the schema does
	// not declare.
	Default(key string) (any, bool)
	// Write applies changes atomically and notifies watchers once.
	Write(ctx context.Context, changes []Change) error
	Watch(fn WatchFunc) (cancel func())
}

// Registry resolves store selectors to backends.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

func NewRegistry() *Registry {
	return &Registry{backends: map[string]Backend{}}
}

// Register binds selector to backend, replacing nothing: duplicates fail.
func (r *Registry) Register(selector string, backend Backend) error {
	if backend == nil {
		return fmt.Errorf("state: backend for selector %q is nil", selector)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.backends == nil {
		r.backends = map[string]Backend{}
	}
	if _, exists := r.backends[selector]; exists {
		return fmt.Errorf("state: selector %q already registered", selector)
	}
	r.backends[selector] = backend
	return nil
}

// Resolve returns the backend registered for selector.
func (r *Registry) Resolve(selector string) (Backend, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: %q", ErrBackendUnavailable, selector)
	}
	r.mu.RLock()
	backend, ok := r.backends[selector]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBackendUnavailable, selector)
	}
	return backend, nil
}

// Value returns the user value when set, otherwise the schema default.
func Value(b Backend, key string) (any, bool) {
	if v, ok := b.UserValue(key); ok {
		return v, true
	}
	return b.Default(key)
}

// CloneValue copies the mutable value shapes backends hand out.
func CloneValue(value any) any {
	switch typed := value.(type) {
	case []string:
		return append([]string{}, typed...)
	case map[string]string:
		out := make(map[string]string, len(typed))
		maps.Copy(out, typed)
		return out
	default:
		return value
	}
}

// watchers is the watch bookkeeping shared by the backends in this module.
type watchers struct {
	mu     sync.Mutex
	nextID int
	fns    map[int]WatchFunc
	order  []int
}

func (w *watchers) add(fn WatchFunc) func() {
	if fn == nil {
		return func() {}
	}
	w.mu.Lock()
	if w.fns == nil {
		w.fns = map[int]WatchFunc{}
	}
	id := w.nextID
	w.nextID++
	w.fns[id] = fn
	w.order = append(w.order, id)
	w.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			delete(w.fns, id)
			for i, existing := range w.order {
				if existing == id {
					w.order = append(w.order[:i], w.order[i+1:]...)
					break
				}
			}
			w.mu.Unlock()
		})
	}
}

// notify calls every watcher outside the lock, in registration order.
func (w *watchers) notify(keys []string) {
	if len(keys) == 0 {
		return
	}
	w.mu.Lock()
	fns := make([]WatchFunc, 0, len(w.order))
	for _, id := range w.order {
		fns = append(fns, w.fns[id])
	}
	w.mu.Unlock()

	for _, fn := range fns {
		fn(append([]string(nil), keys...))
	}
}

func (w *watchers) len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.fns)
}

// Watchers is embedded by backends outside this package that want the same
// ordered, lock-free-notify watcher semantics as MemoryBackend.
type Watchers struct {
	w watchers
}

// Add registers fn and returns its idempotent cancel func.
func (w *Watchers) Add(fn WatchFunc) func() { return w.w.add(fn) }

// Notify fans keys out to every registered watcher.
func (w *Watchers) Notify(keys []string) { w.w.notify(keys) }

// Len reports the number of live watches.
func (w *Watchers) Len() int { return w.w.len() }

// ChangedKeys returns the keys of changes, deduplicated, first-write order.
func ChangedKeys(changes []Change) []string {
	seen := make(map[string]struct{}, len(changes))
	keys := make([]string, 0, len(changes))
	for _, change := range changes {
		if _, ok := seen[change.Key]; ok {
			continue
		}
		seen[change.Key] = struct{}{}
		keys = append(keys, change.Key)
	}
	return keys
}

// DiffKeys returns, sorted, the keys whose value differs between two user
// value maps, including keys present in only one of them.
func DiffKeys(before, after map[string]any) []string {
	var keys []string
	for key, value := range after {
		if old, ok := before[key]; !ok || !EqualValues(old, value) {
			keys = append(keys, key)
		}
	}
	for key := range before {
		if _, ok := after[key]; !ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// EqualValues compares two backend values.
func EqualValues(a, b any) bool {
	switch x := a.(type) {
	case []string:
		y, ok := b.([]string)
		return ok && slices.Equal(x, y)
	case map[string]string:
		y, ok := b.(map[string]string)
		return ok && maps.Equal(x, y)
	default:
		return a == b
	}
}
