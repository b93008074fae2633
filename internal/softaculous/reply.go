package softaculous

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Replies are schema-loose trees: map[string]any, []any, or scalars
// (string, float64, int64, bool, nil). These helpers never panic on a shape
// they did not expect.

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func child(v any, key string) (any, bool) {
	m, ok := asMap(v)
	if !ok {
		return nil, false
	}
	c, ok := m[key]
	return c, ok
}

func childMap(v any, key string) (map[string]any, bool) {
	c, ok := child(v, key)
	if !ok {
		return nil, false
	}
	return asMap(c)
}

func has(v any, key string) bool {
	_, ok := child(v, key)
	return ok
}

// hasSet mirrors isset(): the key exists and is not null.
func hasSet(v any, key string) bool {
	c, ok := child(v, key)
	return ok && c != nil
}

// scalarString renders a scalar as text; maps and lists render as "".
func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "1"
		}
		return ""
	}
	return ""
}

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := scalarString(m[k]); s != "" {
			return s
		}
	}
	return ""
}

// truthy follows PHP's !empty(): "", "0", 0, false, null and empty
// collections are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != "" && t != "0"
	case float64:
		return t != 0
	case int64:
		return t != 0
	case int:
		return t != 0
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	case bool:
		return t
	case map[string]any:
		return len(t) > 0
	case []any:
		return len(t) > 0
	}
	return true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// flatten turns an error carrier of any shape into one readable line.
func flatten(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := flattenItem(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		parts := make([]string, 0, len(t))
		for _, k := range sortedKeys(t) {
			if s := flattenItem(t[k]); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	if s := scalarString(v); s != "" {
		return s
	}
	return fmt.Sprint(v)
}

// flattenItem renders one element of an error list. Nested lists are joined,
// anything deeper is JSON encoded.
func flattenItem(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
				continue
			}
			parts = append(parts, jsonText(item))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		parts := make([]string, 0, len(t))
		for _, k := range sortedKeys(t) {
			if s, ok := t[k].(string); ok {
				parts = append(parts, s)
				continue
			}
			parts = append(parts, jsonText(t[k]))
		}
		return strings.Join(parts, ", ")
	}
	return jsonText(v)
}

func jsonText(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// errorMessage extracts the backend's own failure text from whichever error
// carrier it used. Returns "" when the reply carries none.
func errorMessage(reply any) string {
	if c, ok := child(reply, "error"); ok && c != nil {
		if s := flatten(c); s != "" {
			return s
		}
	}
	if c, ok := child(reply, "e"); ok && c != nil {
		if s := flatten(c); s != "" {
			return s
		}
	}
	for _, key := range []string{"error_msg", "emsg"} {
		if c, ok := child(reply, key); ok && c != nil {
			if s, isStr := c.(string); isStr {
				return s
			}
			return jsonText(c)
		}
	}
	return ""
}
