package opts

import (
	"fmt"

	"github.com/goliatone/go-wsoptions/pkg/state"
)

// BackendFactory opens the backend for one schema, seeded with the defaults
// the catalog declares for it.
type BackendFactory func(schema string, defaults map[string]any) (state.Backend, error)

// NewRegistry opens one backend per selector the catalog references.
// extensionSchema names the schema behind DefaultStore; every other selector
// is its own schema id.
func NewRegistry(catalog *Catalog, extensionSchema string, factory BackendFactory) (*state.Registry, error) {
	if factory == nil {
		return nil, fmt.Errorf("opts: backend factory is nil")
	}
	registry := state.NewRegistry()
	selectors := catalog.Selectors()
	if _, ok := indexOf(selectors, DefaultStore); !ok {
		selectors = append([]string{DefaultStore}, selectors...)
	}
	for _, selector := range selectors {
		schema := selector
		if selector == DefaultStore {
			schema = extensionSchema
		}
		backend, err := factory(schema, catalog.SchemaDefaults(selector))
		if err != nil {
			return nil, fmt.Errorf("opts: open backend %q: %w", schema, err)
		}
		if err := registry.Register(selector, backend); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// NewMemoryRegistry backs every selector of catalog with a MemoryBackend.
func NewMemoryRegistry(catalog *Catalog, extensionSchema string) *state.Registry {
	registry, err := NewRegistry(catalog, extensionSchema, func(schema string, defaults map[string]any) (state.Backend, error) {
		return state.NewMemoryBackend(schema, defaults), nil
	})
	if err != nil {
		// Only a nil factory or duplicate selectors fail, neither possible here.
		panic(err)
	}
	return registry
}
