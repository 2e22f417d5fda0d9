package opts

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/goliatone/go-wsoptions/pkg/state"
)

// Layers a value can be read from, highest precedence first.
const (
	LayerPending = "pending"
	LayerStored  = "stored"
	LayerDefault = "default"
)

// Trace explains where the effective value of an option comes from.
type Trace struct {
	Name    string       `json:"name"`
	Store   string       `json:"store,omitempty"`
	Schema  string       `json:"schema"`
	Key     string       `json:"key"`
	Kind    string       `json:"kind"`
	Value   any          `json:"value"`
	Layer   string       `json:"layer"`
	Default any          `json:"default"`
	Layers  []Provenance `json:"layers"`
}

// Provenance is one layer's contribution to a trace.
type Provenance struct {
	Layer string `json:"layer"`
	Value any    `json:"value,omitempty"`
	Found bool   `json:"found"`
	Reset bool   `json:"reset,omitempty"`
}

// IsDefault reports whether the effective value equals the schema default,
// regardless of which layer supplied it.
func (t Trace) IsDefault() bool {
	return reflect.DeepEqual(t.Value, t.Default)
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a JSON payload that was previously generated via
// ToJSON. Values come back as their JSON representations.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}

// Trace reports every layer that holds a value for name and which one wins.
func (s *Store) Trace(name string) (Trace, error) {
	d, err := s.catalog.Lookup(name)
	if err != nil {
		return Trace{}, err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Trace{}, ErrStoreClosed
	}
	write, pending := s.pending[backendKey{selector: d.Store, key: d.Key}]
	s.mu.Unlock()

	backend := s.backends[d.Store]
	trace := Trace{
		Name:   d.Name,
		Store:  d.Store,
		Schema: backend.Schema(),
		Key:    d.Key,
		Kind:   d.Kind.String(),
	}

	def, ok := backend.Default(d.Key)
	if !ok {
		return Trace{}, fmt.Errorf("opts: trace %q: no default for %s/%s", name, backend.Schema(), d.Key)
	}
	if trace.Default, ok = d.Kind.normalize(def); !ok {
		return Trace{}, &TypeConversionError{Name: name, Kind: d.Kind, Value: def}
	}

	pendingLayer := Provenance{Layer: LayerPending, Found: pending}
	if pending {
		pendingLayer.Reset = write.change.Reset
		if write.change.Reset {
			pendingLayer.Value = trace.Default
		} else {
			pendingLayer.Value = state.CloneValue(write.change.Value)
		}
	}
	storedLayer := Provenance{Layer: LayerStored}
	if stored, ok := backend.UserValue(d.Key); ok {
		normalized, ok := d.Kind.normalize(stored)
		if !ok {
			return Trace{}, &TypeConversionError{Name: name, Kind: d.Kind, Value: stored}
		}
		storedLayer.Value = normalized
		storedLayer.Found = true
	}
	defaultLayer := Provenance{Layer: LayerDefault, Value: trace.Default, Found: true}

	trace.Layers = []Provenance{pendingLayer, storedLayer, defaultLayer}
	for _, layer := range trace.Layers {
		if layer.Found {
			trace.Layer = layer.Layer
			trace.Value = layer.Value
			break
		}
	}
	return trace, nil
}
