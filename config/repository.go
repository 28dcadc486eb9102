// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"
	"github.com/toeirei/bedrock/util/mapst"
)

// Repository is a concurrency-safe configuration tree addressed with
// dot-notation keys. The zero value is not usable; use New.
type Repository struct {
	mu        sync.RWMutex
	items     map[string]any
	listeners []func(*Repository)
}

// New returns a repository holding a deep copy of items.
func New(items map[string]any) *Repository {
	r := &Repository{items: make(map[string]any)}
	if items != nil {
		mapst.Merge(r.items, mapst.Normalize(mapst.Clone(items)).(map[string]any))
	}
	return r
}

// Get returns the value stored at key. When the key is missing the first
// default is returned, or nil. An empty key returns a copy of the whole tree.
func (r *Repository) Get(key string, def ...any) any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := mapst.Get(r.items, key)
	if !ok {
		if len(def) > 0 {
			return def[0]
		}
		return nil
	}
	if m, ok := v.(map[string]any); ok {
		return mapst.Clone(m)
	}
	return v
}

// Has reports whether key is present.
func (r *Repository) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return key != "" && mapst.Has(r.items, key)
}

// Set stores value at key. Last write wins.
func (r *Repository) Set(key string, value any) {
	if m, ok := value.(map[string]any); ok {
		value = mapst.Clone(m)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if key == "" {
		if m, ok := mapst.Normalize(value).(map[string]any); ok {
			r.items = m
		}
		return
	}
	mapst.Set(r.items, key, value)
}

// Merge deep-merges values into the subtree at key; incoming values win.
// An empty key merges into the root.
func (r *Repository) Merge(key string, values map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mapst.Merge(r.subtree(key), values)
}

// Defaults deep-merges values into the subtree at key but only fills keys
// that are not set yet.
func (r *Repository) Defaults(key string, values map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mapst.Defaults(r.subtree(key), values)
}

// subtree returns the map stored at key, replacing any non-map value.
// Callers hold the write lock.
func (r *Repository) subtree(key string) map[string]any {
	if key == "" {
		return r.items
	}
	if v, ok := mapst.Get(r.items, key); ok {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	m := make(map[string]any)
	mapst.Set(r.items, key, m)
	return m
}

// Forget removes key from the tree.
func (r *Repository) Forget(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mapst.Delete(r.items, key)
}

// All returns a deep copy of the whole tree.
func (r *Repository) All() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return mapst.Clone(r.items)
}

// Replace swaps the whole tree and notifies OnChange listeners.
func (r *Repository) Replace(items map[string]any) {
	next := make(map[string]any)
	mapst.Merge(next, items)
	r.mu.Lock()
	r.items = next
	listeners := append([]func(*Repository){}, r.listeners...)
	r.mu.Unlock()
	for _, fn := range listeners {
		fn(r)
	}
}

// OnChange registers fn to run after every Replace.
func (r *Repository) OnChange(fn func(*Repository)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// GetString returns the value at key converted to a string.
func (r *Repository) GetString(key string, def ...string) string {
	if v, ok := r.lookup(key); ok {
		return cast.ToString(v)
	}
	if len(def) > 0 {
		return def[0]
	}
	return ""
}

// GetInt returns the value at key converted to an int.
func (r *Repository) GetInt(key string, def ...int) int {
	if v, ok := r.lookup(key); ok {
		return cast.ToInt(v)
	}
	if len(def) > 0 {
		return def[0]
	}
	return 0
}

// GetBool returns the value at key converted to a bool.
func (r *Repository) GetBool(key string, def ...bool) bool {
	if v, ok := r.lookup(key); ok {
		return cast.ToBool(v)
	}
	if len(def) > 0 {
		return def[0]
	}
	return false
}

// GetDuration accepts durations, "1m30s" style strings and integer
// nanoseconds.
func (r *Repository) GetDuration(key string, def ...time.Duration) time.Duration {
	if v, ok := r.lookup(key); ok {
		return cast.ToDuration(v)
	}
	if len(def) > 0 {
		return def[0]
	}
	return 0
}

// GetStringSlice returns the value at key converted to a []string.
func (r *Repository) GetStringSlice(key string) []string {
	v, _ := r.lookup(key)
	return cast.ToStringSlice(v)
}

// GetStringMap returns the subtree at key, or an empty map.
func (r *Repository) GetStringMap(key string) map[string]any {
	if m, ok := r.Get(key).(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// Unmarshal decodes the subtree at key into out using mapstructure tags.
func (r *Repository) Unmarshal(key string, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(r.Get(key)); err != nil {
		return fmt.Errorf("decode config %q: %w", key, err)
	}
	return nil
}

func (r *Repository) lookup(key string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := mapst.Get(r.items, key)
	if ok && v == nil {
		return nil, false
	}
	return v, ok
}
