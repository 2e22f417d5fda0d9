package opts

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Function represents a callable registered against evaluators.
type Function func(args ...any) (any, error)

type registeredFunction struct {
	name string
	fn   Function
}

// FunctionRegistry stores custom functions. Lookups ignore case; Names keeps
// the spelling used at registration so evaluators bind the expected
// identifier.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]registeredFunction
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions: make(map[string]registeredFunction),
	}
}

// Register stores fn under name guarding against duplicates.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if fn == nil {
		return fmt.Errorf("opts: function %q is nil", name)
	}
	if name == "" {
		return fmt.Errorf("opts: function name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]registeredFunction)
	}
	key := strings.ToLower(name)
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("opts: function %q already registered", name)
	}
	r.functions[key] = registeredFunction{name: name, fn: fn}
	return nil
}

// Clone returns a shallow copy of the registry.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{
		functions: make(map[string]registeredFunction, len(r.functions)),
	}
	for key, entry := range r.functions {
		clone.functions[key] = entry
	}
	return clone
}

// Call executes the function registered for name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("opts: function registry is nil")
	}
	r.mu.RLock()
	entry, ok := r.functions[strings.ToLower(name)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("opts: function %q not registered", name)
	}
	return entry.fn(args...)
}

// Names returns registered function names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for _, entry := range r.functions {
		names = append(names, entry.name)
	}
	sort.Strings(names)
	return names
}

// WithFunctionRegistry makes the registry's functions callable from
// EnabledWhen expressions.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *storeConfig) {
		if registry == nil {
			return
		}
		cfg.functions = registry.Clone()
	}
}

// WithCustomFunction registers a single function for EnabledWhen expressions.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *storeConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}
