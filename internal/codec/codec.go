// Package codec turns option values into the flat text form profile
// snapshots are stored in, and back.
package codec

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

func FormatBool(v bool) string { return strconv.FormatBool(v) }

func FormatInt(v int) string { return strconv.Itoa(v) }

// FormatList encodes a string list as a JSON array so elements may contain
// commas.
func FormatList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	buf, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("codec: encode list: %w", err)
	}
	return string(buf), nil
}

// ParseBool accepts only the two literals FormatBool produces.
func ParseBool(text string) (bool, error) {
	switch strings.TrimSpace(text) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("codec: %q is not a boolean", text)
	}
}

func ParseInt(text string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("codec: %q is not an integer", text)
	}
	return n, nil
}

// ParseList decodes FormatList output. Text that does not start with '[' is
// read as the older comma-joined form, where "" is the empty list.
func ParseList(text string) ([]string, error) {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "[") {
		var out []string
		if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
			return nil, fmt.Errorf("codec: decode list: %w", err)
		}
		if out == nil {
			out = []string{}
		}
		return out, nil
	}
	if text == "" {
		return []string{}, nil
	}
	return strings.Split(text, ","), nil
}

// StringMap converts the map shapes backends return for profile slots.
func StringMap(value any) (map[string]string, bool) {
	switch typed := value.(type) {
	case nil:
		return map[string]string{}, true
	case map[string]string:
		out := make(map[string]string, len(typed))
		for k, v := range typed {
			out[k] = v
		}
		return out, true
	case map[string]any:
		out := make(map[string]string, len(typed))
		for k, v := range typed {
			s, ok := v.(string)
			if !ok {
				return nil, false
			}
			out[k] = s
		}
		return out, true
	default:
		return nil, false
	}
}
