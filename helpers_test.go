package opts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-wsoptions/pkg/state"
)

type fakeTimer struct {
	fn      func()
	delay   time.Duration
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// fakeScheduler records timers and fires them on demand.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	timer := &fakeTimer{fn: fn, delay: d}
	s.timers = append(s.timers, timer)
	return timer
}

// Active counts armed timers that have neither fired nor been stopped.
func (s *fakeScheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, timer := range s.timers {
		if !timer.stopped && !timer.fired {
			n++
		}
	}
	return n
}

// Armed counts every timer ever requested.
func (s *fakeScheduler) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Fire runs every active timer and reports how many ran.
func (s *fakeScheduler) Fire() int {
	s.mu.Lock()
	var due []*fakeTimer
	for _, timer := range s.timers {
		if !timer.stopped && !timer.fired {
			timer.fired = true
			due = append(due, timer)
		}
	}
	s.mu.Unlock()
	for _, timer := range due {
		timer.fn()
	}
	return len(due)
}

// FireStale runs stopped timers anyway, as a wall-clock timer whose Stop lost
// the race would.
func (s *fakeScheduler) FireStale() {
	s.mu.Lock()
	var stale []*fakeTimer
	for _, timer := range s.timers {
		if timer.stopped && !timer.fired {
			stale = append(stale, timer)
		}
	}
	s.mu.Unlock()
	for _, timer := range stale {
		timer.fn()
	}
}

type fixture struct {
	store     *Store
	registry  *state.Registry
	scheduler *fakeScheduler
}

func newFixture(t *testing.T, opts ...Option) fixture {
	t.Helper()
	catalog := DefaultCatalog()
	registry := NewMemoryRegistry(catalog, SchemaExtension)
	return newFixtureWith(t, catalog, registry, opts...)
}

func newFixtureWith(t *testing.T, catalog *Catalog, registry *state.Registry, opts ...Option) fixture {
	t.Helper()
	scheduler := &fakeScheduler{}
	store, err := NewStore(catalog, registry, append([]Option{WithScheduler(scheduler)}, opts...)...)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return fixture{store: store, registry: registry, scheduler: scheduler}
}

func (f fixture) backend(t *testing.T, selector string) *state.MemoryBackend {
	t.Helper()
	backend, err := f.registry.Resolve(selector)
	if err != nil {
		t.Fatalf("resolve %q: %v", selector, err)
	}
	memory, ok := backend.(*state.MemoryBackend)
	if !ok {
		t.Fatalf("expected memory backend, got %T", backend)
	}
	return memory
}

type recordingLogger struct {
	mu     sync.Mutex
	events []LogEvent
}

func (l *recordingLogger) Log(event LogEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *recordingLogger) find(op string, level LogLevel) (LogEvent, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, event := range l.events {
		if event.Op == op && event.Level == level {
			return event, true
		}
	}
	return LogEvent{}, false
}

var errWriteFailed = errors.New("disk full")

// flakyBackend fails writes while failing is set.
type flakyBackend struct {
	*state.MemoryBackend
	mu      sync.Mutex
	failing bool
}

func (b *flakyBackend) setFailing(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failing = v
}

func (b *flakyBackend) Write(ctx context.Context, changes []state.Change) error {
	b.mu.Lock()
	failing := b.failing
	b.mu.Unlock()
	if failing {
		return errWriteFailed
	}
	return b.MemoryBackend.Write(ctx, changes)
}

// gatedBackend blocks its first Write until release is closed.
type gatedBackend struct {
	*state.MemoryBackend
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedBackend(memory *state.MemoryBackend) *gatedBackend {
	return &gatedBackend{
		MemoryBackend: memory,
		started:       make(chan struct{}),
		release:       make(chan struct{}),
	}
}

func (b *gatedBackend) Write(ctx context.Context, changes []state.Change) error {
	first := false
	b.once.Do(func() { first = true })
	if first {
		close(b.started)
		<-b.release
	}
	return b.MemoryBackend.Write(ctx, changes)
}

// newGatedFixture wraps the extension backend in a gatedBackend and uses the
// wall-clock scheduler with a short debounce.
func newGatedFixture(t *testing.T) (*Store, *gatedBackend) {
	t.Helper()
	catalog := DefaultCatalog()
	var gated *gatedBackend
	registry, err := NewRegistry(catalog, SchemaExtension, func(schema string, defaults map[string]any) (state.Backend, error) {
		memory := state.NewMemoryBackend(schema, defaults)
		if schema == SchemaExtension {
			gated = newGatedBackend(memory)
			return gated, nil
		}
		return memory, nil
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	store, err := NewStore(catalog, registry, WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, gated
}

func waitStarted(t *testing.T, b *gatedBackend) {
	t.Helper()
	select {
	case <-b.started:
	case <-time.After(5 * time.Second):
		t.Fatalf("debounced flush never reached the backend")
	}
}
