package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// AttributeMap holds a variant's attribute blob normalised to string values.
// The commerce service is inconsistent about the shape: an object of scalars,
// a JSON object double-encoded as a string, or a list of {name,value} pairs
// all appear in the wild. Anything unusable decodes to an empty map instead
// of failing the surrounding payload.
type AttributeMap map[string]string

// UnmarshalJSON implements tolerant decoding of the attribute blob.
func (m *AttributeMap) UnmarshalJSON(raw []byte) error {
	*m = nil
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil
	}

	if parsed, ok := parseAttributeObject([]byte(trimmed)); ok {
		*m = parsed
		return nil
	}

	// Double-encoded object: the blob is a JSON string containing JSON.
	var inner string
	if err := json.Unmarshal([]byte(trimmed), &inner); err == nil {
		if parsed, ok := parseAttributeObject([]byte(inner)); ok {
			*m = parsed
		}
		return nil
	}

	if parsed, ok := parseAttributePairs([]byte(trimmed)); ok {
		*m = parsed
		return nil
	}
	return nil
}

// Label renders the attributes as a stable "k: v, k: v" string for display.
func (m AttributeMap) Label() string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+m[k])
	}
	return strings.Join(parts, ", ")
}

func parseAttributeObject(raw []byte) (AttributeMap, bool) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false
	}
	out := make(AttributeMap, len(fields))
	for key, value := range fields {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if s := scalarString(value); s != "" {
			out[key] = s
		}
	}
	if len(out) == 0 {
		return nil, true
	}
	return out, true
}

func parseAttributePairs(raw []byte) (AttributeMap, bool) {
	var pairs []struct {
		Name  string `json:"name"`
		Value any    `json:"value"`
	}
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, false
	}
	out := make(AttributeMap, len(pairs))
	for _, pair := range pairs {
		name := strings.TrimSpace(pair.Name)
		if name == "" {
			continue
		}
		if s := scalarString(pair.Value); s != "" {
			out[name] = s
		}
	}
	if len(out) == 0 {
		return nil, true
	}
	return out, true
}

func scalarString(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", v), "0"), ".")
	case bool:
		return fmt.Sprintf("%t", v)
	default:
		return ""
	}
}
