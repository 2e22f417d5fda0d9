package opts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-wsoptions/pkg/activity"
	"github.com/goliatone/go-wsoptions/pkg/state"
)

// Store is one handle onto the option backends. Writes are buffered per handle
// and flushed after a quiet period; reads see the buffer first.
//
// Several stores may share the same backends (the running extension and the
// preferences dialog). Each keeps its own buffer, timer and subscriptions and
// must be closed to release its backend watches.
type Store struct {
	id       string
	catalog  *Catalog
	cfg      storeConfig
	backends map[string]state.Backend
	names    map[backendKey][]string
	emitter  *activity.Emitter

	// flushMu serialises flushes so batches reach a backend in set order.
	flushMu sync.Mutex

	mu        sync.Mutex
	closed    bool
	pending   map[backendKey]pendingWrite
	order     []backendKey
	seq       uint64
	timer     Timer
	armed     uint64
	subs      map[int]*Subscription
	subOrder  []int
	nextSubID int
	unwatch   []func()

	evalOnce  sync.Once
	evaluator Evaluator
	evalErr   error
}

type backendKey struct {
	selector string
	key      string
}

type pendingWrite struct {
	change state.Change
	seq    uint64
}

// NewStore binds catalog to the backends in registry. Every selector the
// catalog references must resolve, and every backing key must be declared by
// its backend.
func NewStore(catalog *Catalog, registry *state.Registry, opts ...Option) (*Store, error) {
	if catalog == nil || catalog.Len() == 0 {
		return nil, fmt.Errorf("opts: catalog is required")
	}
	cfg := applyOptions(opts)
	s := &Store{
		id:       uuid.NewString(),
		catalog:  catalog,
		cfg:      cfg,
		backends: map[string]state.Backend{},
		names:    map[backendKey][]string{},
		pending:  map[backendKey]pendingWrite{},
		subs:     map[int]*Subscription{},
		emitter:  activity.NewEmitter(cfg.activityHooks, activity.Config{Enabled: true, Channel: cfg.channel}),
	}

	selectors := catalog.Selectors()
	if _, ok := indexOf(selectors, DefaultStore); !ok {
		selectors = append([]string{DefaultStore}, selectors...)
	}
	for _, selector := range selectors {
		backend, err := registry.Resolve(selector)
		if err != nil {
			return nil, fmt.Errorf("opts: resolve store %q: %w", selector, err)
		}
		s.backends[selector] = backend
	}
	for _, d := range catalog.Descriptors() {
		backend := s.backends[d.Store]
		if _, ok := backend.Default(d.Key); !ok {
			return nil, fmt.Errorf("opts: option %q: %w: %s/%s", d.Name, state.ErrUnknownKey, backend.Schema(), d.Key)
		}
		k := backendKey{selector: d.Store, key: d.Key}
		s.names[k] = append(s.names[k], d.Name)
	}

	for _, selector := range selectors {
		selector := selector
		cancel := s.backends[selector].Watch(func(keys []string) {
			s.backendChanged(selector, keys)
		})
		s.unwatch = append(s.unwatch, cancel)
	}
	return s, nil
}

// ID identifies this handle in activity events and logs.
func (s *Store) ID() string { return s.id }

// Catalog returns the catalog the store was built with.
func (s *Store) Catalog() *Catalog { return s.catalog }

// Get returns the effective value of name converted to its kind.
func (s *Store) Get(name string) (any, error) {
	d, err := s.catalog.Lookup(name)
	if err != nil {
		return nil, err
	}
	raw, _, err := s.read(d.Store, d.Key)
	if err != nil {
		return nil, fmt.Errorf("opts: get %q: %w", name, err)
	}
	value, ok := d.Kind.normalize(raw)
	if !ok {
		return nil, &TypeConversionError{Name: name, Kind: d.Kind, Value: raw}
	}
	return value, nil
}

// Default returns the backend schema default of name.
func (s *Store) Default(name string) (any, error) {
	d, err := s.catalog.Lookup(name)
	if err != nil {
		return nil, err
	}
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	raw, ok := s.backends[d.Store].Default(d.Key)
	if !ok {
		return nil, fmt.Errorf("opts: default %q: %w", name, state.ErrUnknownKey)
	}
	value, ok := d.Kind.normalize(raw)
	if !ok {
		return nil, &TypeConversionError{Name: name, Kind: d.Kind, Value: raw}
	}
	return value, nil
}

// Set validates value against the descriptor kind and buffers it. The write
// is not durable until the debounce period elapses or Flush runs.
func (s *Store) Set(name string, value any) error {
	d, err := s.catalog.Lookup(name)
	if err != nil {
		return err
	}
	normalized, ok := d.Kind.normalize(value)
	if !ok {
		err := &TypeConversionError{Name: name, Kind: d.Kind, Value: value}
		s.cfg.logger.Log(LogEvent{Level: LevelError, Op: "set", Name: name, Err: err})
		return err
	}
	if err := s.buffer(d.Store, state.Change{Key: d.Key, Value: normalized}); err != nil {
		return err
	}
	s.cfg.logger.Log(LogEvent{Level: LevelDebug, Op: "set", Name: name, Fields: map[string]any{"value": normalized}})
	return nil
}

// Reset buffers a reset of name to its schema default.
func (s *Store) Reset(name string) error {
	d, err := s.catalog.Lookup(name)
	if err != nil {
		return err
	}
	if err := s.buffer(d.Store, state.Change{Key: d.Key, Reset: true}); err != nil {
		return err
	}
	s.cfg.logger.Log(LogEvent{Level: LevelDebug, Op: "reset", Name: name})
	return nil
}

// Bool returns a boolean option.
func (s *Store) Bool(name string) (bool, error) {
	v, err := s.typed(name, KindBool)
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// Int returns an integer option.
func (s *Store) Int(name string) (int, error) {
	v, err := s.typed(name, KindInt)
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// String returns a string option.
func (s *Store) String(name string) (string, error) {
	v, err := s.typed(name, KindString)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Strings returns a string-list option.
func (s *Store) Strings(name string) ([]string, error) {
	v, err := s.typed(name, KindStringList)
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

func (s *Store) typed(name string, kind Kind) (any, error) {
	d, err := s.catalog.Lookup(name)
	if err != nil {
		return nil, err
	}
	if d.Kind != kind {
		return nil, fmt.Errorf("%w: option %q is %s, not %s", ErrTypeConversion, name, d.Kind, kind)
	}
	return s.Get(name)
}

// Snapshot returns the effective value of every option keyed by name.
func (s *Store) Snapshot() (map[string]any, error) {
	out := make(map[string]any, s.catalog.Len())
	for _, name := range s.catalog.Names() {
		value, err := s.Get(name)
		if err != nil {
			return nil, err
		}
		out[name] = value
	}
	return out, nil
}

// Pending reports whether buffered writes are waiting for a flush.
func (s *Store) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) > 0
}

// Flush writes the buffered changes now, one atomic batch per backend, in the
// order options were first set. A flush already in progress is waited for.
// Subscription callbacks run inside the flush of this store and must not call
// Flush on it.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	s.stopTimerLocked()
	s.mu.Unlock()
	return s.flush(ctx)
}

// Close cancels the pending flush, drops unflushed writes and releases every
// subscription and backend watch. It is safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.stopTimerLocked()
	dropped := len(s.pending)
	s.pending = map[backendKey]pendingWrite{}
	s.order = nil
	s.subs = map[int]*Subscription{}
	s.subOrder = nil
	unwatch := s.unwatch
	s.unwatch = nil
	s.mu.Unlock()

	for _, cancel := range unwatch {
		cancel()
	}
	if dropped > 0 {
		s.cfg.logger.Log(LogEvent{Level: LevelWarn, Op: "close", Message: "discarded unflushed writes", Fields: map[string]any{"pending": dropped}})
	}
	return nil
}

func (s *Store) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// read resolves selector/key through the pending buffer, the stored user
// value and the schema default, reporting which layer answered.
func (s *Store) read(selector, key string) (any, string, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, "", ErrStoreClosed
	}
	backend := s.backends[selector]
	if write, ok := s.pending[backendKey{selector: selector, key: key}]; ok {
		s.mu.Unlock()
		if write.change.Reset {
			value, ok := backend.Default(key)
			if !ok {
				return nil, "", state.ErrUnknownKey
			}
			return value, LayerPending, nil
		}
		return state.CloneValue(write.change.Value), LayerPending, nil
	}
	s.mu.Unlock()

	if backend == nil {
		return nil, "", fmt.Errorf("%w: %q", ErrBackendUnavailable, selector)
	}
	if value, ok := backend.UserValue(key); ok {
		return value, LayerStored, nil
	}
	if value, ok := backend.Default(key); ok {
		return value, LayerDefault, nil
	}
	return nil, "", fmt.Errorf("%w: %s/%s", state.ErrUnknownKey, backend.Schema(), key)
}

func (s *Store) buffer(selector string, change state.Change) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	k := backendKey{selector: selector, key: change.Key}
	if _, exists := s.pending[k]; !exists {
		s.order = append(s.order, k)
	}
	s.seq++
	s.pending[k] = pendingWrite{change: change, seq: s.seq}
	s.armLocked()
	return nil
}

func (s *Store) armLocked() {
	s.stopTimerLocked()
	s.armed++
	generation := s.armed
	s.timer = s.cfg.scheduler.AfterFunc(s.cfg.debounce, func() {
		s.timerFired(generation)
	})
}

func (s *Store) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.armed++
}

func (s *Store) timerFired(generation uint64) {
	s.mu.Lock()
	if s.closed || generation != s.armed {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()
	if err := s.flush(context.Background()); err != nil {
		s.cfg.logger.Log(LogEvent{Level: LevelError, Op: "flush", Message: "debounced flush failed", Err: err})
	}
}

type flushBatch struct {
	selector string
	changes  []state.Change
	writes   map[backendKey]uint64
}

// flush snapshots, writes and prunes the pending buffer under flushMu. A flush
// that arrives while another is writing waits and then snapshots whatever is
// still pending, so a stale batch never lands after a newer one.
func (s *Store) flush(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return nil
	}
	var batches []*flushBatch
	bySelector := map[string]*flushBatch{}
	for _, k := range s.order {
		write, ok := s.pending[k]
		if !ok {
			continue
		}
		batch := bySelector[k.selector]
		if batch == nil {
			batch = &flushBatch{selector: k.selector, writes: map[backendKey]uint64{}}
			bySelector[k.selector] = batch
			batches = append(batches, batch)
		}
		batch.changes = append(batch.changes, write.change)
		batch.writes[k] = write.seq
	}
	s.mu.Unlock()

	start := time.Now()
	var errs []error
	var flushed []string
	for _, batch := range batches {
		backend := s.backends[batch.selector]
		if err := backend.Write(ctx, batch.changes); err != nil {
			errs = append(errs, fmt.Errorf("opts: flush %s: %w", backend.Schema(), err))
			continue
		}
		s.mu.Lock()
		for k, seq := range batch.writes {
			if current, ok := s.pending[k]; ok && current.seq == seq {
				delete(s.pending, k)
			}
		}
		s.compactOrderLocked()
		s.mu.Unlock()
		for _, change := range batch.changes {
			flushed = append(flushed, s.names[backendKey{selector: batch.selector, key: change.Key}]...)
		}
	}

	err := errors.Join(errs...)
	level := LevelDebug
	if err != nil {
		level = LevelError
	}
	s.cfg.logger.Log(LogEvent{Level: level, Op: "flush", Duration: time.Since(start), Err: err, Fields: map[string]any{"options": flushed}})
	if len(flushed) > 0 {
		s.emit(ctx, activity.BuildOptionsFlushedEvent(activity.OptionsEventInput{
			ActorID: s.id,
			Names:   flushed,
		}))
	}
	return err
}

func (s *Store) compactOrderLocked() {
	kept := s.order[:0]
	for _, k := range s.order {
		if _, ok := s.pending[k]; ok {
			kept = append(kept, k)
		}
	}
	s.order = kept
}

func (s *Store) emit(ctx context.Context, event activity.Event) {
	if err := s.emitter.Emit(ctx, event); err != nil {
		s.cfg.logger.Log(LogEvent{Level: LevelWarn, Op: "activity", Message: "activity hook failed", Err: err})
	}
}

func indexOf(values []string, target string) (int, bool) {
	for i, v := range values {
		if v == target {
			return i, true
		}
	}
	return -1, false
}
