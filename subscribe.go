package opts

import (
	"fmt"
	"path"

	"github.com/goliatone/go-wsoptions/pkg/state"
)

// Change is delivered to subscribers after a write reaches the backend. Value
// is the backend's value, not the handle's pending one.
type Change struct {
	Name  string
	Value any
}

// ChangeFunc receives option changes.
type ChangeFunc func(Change)

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	store   *Store
	id      int
	pattern string
	fn      ChangeFunc
}

// Subscribe registers fn for changes of every option whose name matches
// pattern. An empty pattern or "*" matches everything; other patterns use
// path.Match syntax ("popup*", "activeShow?sIndex").
//
// Callbacks fire once per backend write, for writes flushed by this store, by
// other stores sharing the backend, and by external processes when the
// backend can observe them.
func (s *Store) Subscribe(pattern string, fn ChangeFunc) (*Subscription, error) {
	if fn == nil {
		return nil, fmt.Errorf("opts: subscription callback is nil")
	}
	if pattern == "" {
		pattern = "*"
	}
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("opts: subscription pattern %q: %w", pattern, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	s.nextSubID++
	sub := &Subscription{store: s, id: s.nextSubID, pattern: pattern, fn: fn}
	s.subs[sub.id] = sub
	s.subOrder = append(s.subOrder, sub.id)
	return sub, nil
}

// Unsubscribe releases the subscription. Calling it again is a no-op.
func (sub *Subscription) Unsubscribe() {
	if sub == nil || sub.store == nil {
		return
	}
	s := sub.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[sub.id]; !ok {
		return
	}
	delete(s.subs, sub.id)
	for i, id := range s.subOrder {
		if id == sub.id {
			s.subOrder = append(s.subOrder[:i], s.subOrder[i+1:]...)
			break
		}
	}
}

// UnsubscribeAll releases every subscription created through this store.
func (s *Store) UnsubscribeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = map[int]*Subscription{}
	s.subOrder = nil
}

// Subscriptions reports the number of live subscriptions.
func (s *Store) Subscriptions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (sub *Subscription) matches(name string) bool {
	if sub.pattern == "*" {
		return true
	}
	ok, err := path.Match(sub.pattern, name)
	return err == nil && ok
}

// backendChanged runs on the writer's goroutine. Subscribers are called
// outside the lock so they may read or write the store. The reported value is
// the one the backend now holds, even when this handle has its own unflushed
// write for the same key.
func (s *Store) backendChanged(selector string, keys []string) {
	s.mu.Lock()
	if s.closed || len(s.subs) == 0 {
		s.mu.Unlock()
		return
	}
	subs := make([]*Subscription, 0, len(s.subOrder))
	for _, id := range s.subOrder {
		subs = append(subs, s.subs[id])
	}
	s.mu.Unlock()

	backend := s.backends[selector]
	for _, key := range keys {
		for _, name := range s.names[backendKey{selector: selector, key: key}] {
			value, err := s.changedValue(backend, name, key)
			if err != nil {
				s.cfg.logger.Log(LogEvent{Level: LevelWarn, Op: "notify", Name: name, Err: err})
				continue
			}
			for _, sub := range subs {
				if sub.matches(name) {
					sub.fn(Change{Name: name, Value: value})
				}
			}
		}
	}
}

func (s *Store) changedValue(backend state.Backend, name, key string) (any, error) {
	d, err := s.catalog.Lookup(name)
	if err != nil {
		return nil, err
	}
	raw, ok := state.Value(backend, key)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", state.ErrUnknownKey, backend.Schema(), key)
	}
	value, ok := d.Kind.normalize(raw)
	if !ok {
		return nil, &TypeConversionError{Name: name, Kind: d.Kind, Value: raw}
	}
	return value, nil
}
