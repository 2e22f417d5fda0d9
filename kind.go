package opts

import (
	"fmt"
	"math"
	"reflect"
)

// Kind identifies the value type an option carries in the backing store.
type Kind int

const (
	// KindUnknown guards against descriptors registered without a kind.
	KindUnknown Kind = iota
	KindBool
	KindInt
	KindString
	KindStringList
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindString:
		return "string"
	case KindStringList:
		return "string-list"
	default:
		return "unknown"
	}
}

// ParseKind converts a textual kind into a Kind. Returns KindUnknown for
// unrecognised values.
func ParseKind(value string) Kind {
	switch value {
	case "boolean", "bool", "b":
		return KindBool
	case "integer", "int", "i":
		return KindInt
	case "string", "s":
		return KindString
	case "string-list", "strings", "as":
		return KindStringList
	default:
		return KindUnknown
	}
}

// normalize checks value against k and returns the canonical Go representation
// (bool, int, string or []string). The returned list is always a fresh copy.
func (k Kind) normalize(value any) (any, bool) {
	switch k {
	case KindBool:
		v, ok := value.(bool)
		return v, ok
	case KindInt:
		return normalizeInt(value)
	case KindString:
		v, ok := value.(string)
		return v, ok
	case KindStringList:
		switch typed := value.(type) {
		case []string:
			return cloneStrings(typed), true
		case []any:
			out := make([]string, 0, len(typed))
			for _, item := range typed {
				s, ok := item.(string)
				if !ok {
					return nil, false
				}
				out = append(out, s)
			}
			return out, true
		}
		return nil, false
	default:
		return nil, false
	}
}

func normalizeInt(value any) (any, bool) {
	if value == nil {
		return nil, false
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		if n < math.MinInt || n > math.MaxInt {
			return nil, false
		}
		return int(n), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n := rv.Uint()
		if n > math.MaxInt {
			return nil, false
		}
		return int(n), true
	default:
		return nil, false
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func describeValue(value any) string {
	if value == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%T", value)
}
