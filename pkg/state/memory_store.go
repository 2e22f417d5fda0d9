package state

import (
	"context"
	"fmt"
	"sync"
)

// MemoryBackend is an in-process Backend. One instance can be shared by any
// number of option stores; it is what tests and examples use, and what a host
// without durable storage falls back to.
type MemoryBackend struct {
	schema string

	mu       sync.RWMutex
	defaults map[string]any
	values   map[string]any
	writes   int

	watchers Watchers
}

// NewMemoryBackend declares the schema keys through defaults.
func NewMemoryBackend(schema string, defaults map[string]any) *MemoryBackend {
	b := &MemoryBackend{
		schema:   schema,
		defaults: make(map[string]any, len(defaults)),
		values:   map[string]any{},
	}
	for key, value := range defaults {
		b.defaults[key] = CloneValue(value)
	}
	return b
}

func (b *MemoryBackend) Schema() string { return b.schema }

func (b *MemoryBackend) UserValue(key string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	value, ok := b.values[key]
	if !ok {
		return nil, false
	}
	return CloneValue(value), true
}

func (b *MemoryBackend) Default(key string) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	value, ok := b.defaults[key]
	if !ok {
		return nil, false
	}
	return CloneValue(value), true
}

func (b *MemoryBackend) Write(_ context.Context, changes []Change) error {
	if len(changes) == 0 {
		return nil
	}
	b.mu.Lock()
	for _, change := range changes {
		if _, ok := b.defaults[change.Key]; !ok {
			b.mu.Unlock()
			return fmt.Errorf("%w: %s/%s", ErrUnknownKey, b.schema, change.Key)
		}
	}
	for _, change := range changes {
		if change.Reset {
			delete(b.values, change.Key)
			continue
		}
		b.values[change.Key] = CloneValue(change.Value)
	}
	b.writes++
	b.mu.Unlock()

	b.watchers.Notify(ChangedKeys(changes))
	return nil
}

func (b *MemoryBackend) Watch(fn WatchFunc) func() {
	return b.watchers.Add(fn)
}

// Writes reports how many batches have been applied.
func (b *MemoryBackend) Writes() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.writes
}

// WatchCount reports the number of live watches, letting callers assert that
// closed stores released theirs.
func (b *MemoryBackend) WatchCount() int {
	return b.watchers.Len()
}
