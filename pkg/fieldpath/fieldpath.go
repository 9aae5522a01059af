// Package fieldpath owns the dotted field-name semantics shared by default
// initialisation, record hydration and nested payload assembly.
package fieldpath

import (
	"fmt"
	"strings"
)

// Split breaks a dotted path into its segments. Surrounding whitespace and
// empty segments are dropped, so "a..b " yields ["a", "b"].
func Split(path string) []string {
	parts := strings.Split(strings.TrimSpace(path), ".")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if segment := strings.TrimSpace(part); segment != "" {
			out = append(out, segment)
		}
	}
	return out
}

// Join is the inverse of Split.
func Join(segments ...string) string {
	return strings.Join(segments, ".")
}

// Get resolves a dotted path inside a nested map.
func Get(root map[string]any, path string) (any, bool) {
	segments := Split(path)
	if root == nil || len(segments) == 0 {
		return nil, false
	}
	var current any = root
	for _, segment := range segments {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		next, ok := node[segment]
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// Set writes value at the dotted path, creating intermediate maps. It fails
// when an intermediate segment already holds a non-map value.
func Set(root map[string]any, path string, value any) error {
	if root == nil {
		return fmt.Errorf("fieldpath: root map is nil")
	}
	segments := Split(path)
	if len(segments) == 0 {
		return fmt.Errorf("fieldpath: empty path")
	}
	node := root
	for i, segment := range segments[:len(segments)-1] {
		existing, ok := node[segment]
		if !ok || existing == nil {
			child := make(map[string]any)
			node[segment] = child
			node = child
			continue
		}
		child, ok := existing.(map[string]any)
		if !ok {
			return fmt.Errorf("fieldpath: %q is not an object", Join(segments[:i+1]...))
		}
		node = child
	}
	node[segments[len(segments)-1]] = value
	return nil
}

// Assemble writes every flat entry into a deep copy of base at the path its
// key implies. Keys are applied in the order given so callers control
// precedence when two keys overlap.
func Assemble(base map[string]any, keys []string, flat map[string]any) (map[string]any, error) {
	out := Clone(base)
	if out == nil {
		out = make(map[string]any, len(flat))
	}
	for _, key := range keys {
		value, ok := flat[key]
		if !ok {
			continue
		}
		if err := Set(out, key, value); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Clone deep-copies nested maps and slices of the generic JSON shapes.
// Other values are copied by assignment.
func Clone(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	out := make(map[string]any, len(src))
	for key, value := range src {
		out[key] = deepCopy(value)
	}
	return out
}

func deepCopy(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return Clone(typed)
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = deepCopy(v)
		}
		return clone
	case []string:
		return append([]string(nil), typed...)
	case map[string]string:
		clone := make(map[string]string, len(typed))
		for k, v := range typed {
			clone[k] = v
		}
		return clone
	default:
		return typed
	}
}
