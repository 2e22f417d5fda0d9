package opts

import (
	"fmt"
	"sort"
)

// DefaultStore is the selector of the extension's own backing store.
const DefaultStore = ""

// Descriptor maps a logical option name onto its backing store location.
type Descriptor struct {
	Name  string
	Kind  Kind
	Key   string // key in the backing store
	Store string // backing store selector, DefaultStore for the extension schema

	// Default is the schema default used to seed backends built from the
	// catalog. Store.Default always asks the backend, never this field.
	Default any

	// EnabledWhen is an optional expression over the option snapshot that
	// decides whether widgets bound to this option are sensitive.
	EnabledWhen string

	// ProfileName marks the profile title options, which profile snapshots skip.
	ProfileName bool

	Label string
}

// Catalog is an ordered, immutable-after-build set of descriptors.
type Catalog struct {
	order  []string
	byName map[string]Descriptor
}

// NewCatalog registers descriptors in order and fails on the first invalid one.
func NewCatalog(descriptors ...Descriptor) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]Descriptor, len(descriptors))}
	for _, d := range descriptors {
		if err := c.Register(d); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Register adds d to the catalog.
func (c *Catalog) Register(d Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("opts: descriptor name must not be empty")
	}
	if d.Kind == KindUnknown {
		return fmt.Errorf("opts: descriptor %q has no kind", d.Name)
	}
	if d.Key == "" {
		return fmt.Errorf("opts: descriptor %q has no backing key", d.Name)
	}
	if c.byName == nil {
		c.byName = map[string]Descriptor{}
	}
	if _, exists := c.byName[d.Name]; exists {
		return fmt.Errorf("opts: descriptor %q already registered", d.Name)
	}
	if d.Default != nil {
		normalized, ok := d.Kind.normalize(d.Default)
		if !ok {
			return &TypeConversionError{Name: d.Name, Kind: d.Kind, Value: d.Default}
		}
		d.Default = normalized
	}
	c.byName[d.Name] = d
	c.order = append(c.order, d.Name)
	return nil
}

// Lookup returns the descriptor for name or an UnknownOptionError.
func (c *Catalog) Lookup(name string) (Descriptor, error) {
	if c != nil {
		if d, ok := c.byName[name]; ok {
			return d, nil
		}
	}
	return Descriptor{}, &UnknownOptionError{Name: name}
}

// Names returns the registered names in registration order.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.order...)
}

// Descriptors returns every descriptor in registration order.
func (c *Catalog) Descriptors() []Descriptor {
	if c == nil {
		return nil
	}
	out := make([]Descriptor, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.byName[name])
	}
	return out
}

// Len returns the number of registered descriptors.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// Selectors returns the distinct store selectors referenced by the catalog,
// sorted, with DefaultStore first when present.
func (c *Catalog) Selectors() []string {
	seen := map[string]struct{}{}
	for _, d := range c.Descriptors() {
		seen[d.Store] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for selector := range seen {
		out = append(out, selector)
	}
	sort.Strings(out)
	return out
}

// SchemaDefaults returns key -> default for every descriptor backed by
// selector. Profile slot keys are added for the extension store so a backend
// seeded from the catalog can hold profile snapshots.
func (c *Catalog) SchemaDefaults(selector string) map[string]any {
	out := map[string]any{}
	for _, d := range c.Descriptors() {
		if d.Store != selector {
			continue
		}
		out[d.Key] = zeroOr(d.Kind, d.Default)
	}
	if selector == DefaultStore {
		for i := 1; i <= MaxProfiles; i++ {
			out[profileDataKey(i)] = map[string]string{}
		}
	}
	return out
}

func zeroOr(kind Kind, value any) any {
	if value != nil {
		if list, ok := value.([]string); ok {
			return cloneStrings(list)
		}
		return value
	}
	switch kind {
	case KindBool:
		return false
	case KindInt:
		return 0
	case KindString:
		return ""
	case KindStringList:
		return []string{}
	default:
		return nil
	}
}
