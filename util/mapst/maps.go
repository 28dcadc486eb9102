// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

// Package mapst holds helpers for nested map[string]any trees addressed by
// dot-separated paths such as "app.logger.driver".
package mapst

import (
	"fmt"
	"sort"
	"strings"
)

// Separator splits path segments.
const Separator = "."

func split(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, Separator)
}

// Get

// Get walks path through m. An empty path returns m itself.
func Get(m map[string]any, path string) (any, bool) {
	if m == nil {
		return nil, false
	}
	parts := split(path)
	if len(parts) == 0 {
		return m, true
	}
	var cur any = m
	for _, p := range parts {
		node, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = node[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Has reports whether path resolves to a value (nil values count).
func Has(m map[string]any, path string) bool {
	_, ok := Get(m, path)
	return ok
}

// Set

// Set stores value at path, creating intermediate maps. Intermediate values
// that are not maps get replaced.
func Set(m map[string]any, path string, value any) {
	parts := split(path)
	if len(parts) == 0 {
		return
	}
	node := m
	for _, p := range parts[:len(parts)-1] {
		next, ok := asMap(node[p])
		if !ok {
			next = make(map[string]any)
		}
		node[p] = next
		node = next
	}
	node[parts[len(parts)-1]] = Normalize(value)
}

// Delete removes the value at path and reports whether something was removed.
func Delete(m map[string]any, path string) bool {
	parts := split(path)
	if len(parts) == 0 {
		return false
	}
	parent, ok := Get(m, strings.Join(parts[:len(parts)-1], Separator))
	if !ok {
		return false
	}
	node, ok := asMap(parent)
	if !ok {
		return false
	}
	last := parts[len(parts)-1]
	if _, ok := node[last]; !ok {
		return false
	}
	delete(node, last)
	return true
}

// Merge

// Merge deep-merges src into dst. Nested maps merge recursively, every other
// value from src replaces the one in dst.
func Merge(dst, src map[string]any) {
	for k, sv := range src {
		sm, sIsMap := asMap(sv)
		dm, dIsMap := asMap(dst[k])
		if sIsMap && dIsMap {
			dst[k] = dm
			Merge(dm, sm)
			continue
		}
		dst[k] = cloneValue(sv)
	}
}

// Defaults deep-merges src into dst without overwriting anything dst already
// holds.
func Defaults(dst, src map[string]any) {
	for k, sv := range src {
		dv, exists := dst[k]
		if !exists {
			dst[k] = cloneValue(sv)
			continue
		}
		sm, sIsMap := asMap(sv)
		dm, dIsMap := asMap(dv)
		if sIsMap && dIsMap {
			dst[k] = dm
			Defaults(dm, sm)
		}
	}
}

// Clone

// Clone returns a deep copy of m. Only nested maps and slices are copied;
// leaf values are shared.
func Clone(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return Clone(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	}
	if m, ok := asMap(v); ok {
		return Clone(m)
	}
	return v
}

// Flatten

// Flatten returns every leaf keyed by its full dot-path.
func Flatten(m map[string]any) map[string]any {
	out := make(map[string]any)
	flatten(out, "", m)
	return out
}

func flatten(out map[string]any, prefix string, m map[string]any) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + Separator + k
		}
		if child, ok := asMap(v); ok && len(child) > 0 {
			flatten(out, key, child)
			continue
		}
		out[key] = v
	}
}

// Keys

// Keys returns the keys of m in sorted order.
func Keys[V any, M ~map[string]V](m M) []string {
	result := make([]string, 0, len(m))
	for k := range m {
		result = append(result, k)
	}
	sort.Strings(result)
	return result
}

// Normalize

// Normalize converts decoder-specific map shapes (map[any]any from YAML,
// map[string]string from flags) into map[string]any, recursively.
func Normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			t[k] = Normalize(child)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[fmt.Sprint(k)] = Normalize(child)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = child
		}
		return out
	case []any:
		for i := range t {
			t[i] = Normalize(t[i])
		}
		return t
	}
	return v
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case map[any]any, map[string]string:
		return Normalize(t).(map[string]any), true
	}
	return nil, false
}
