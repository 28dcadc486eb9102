// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

// Package container implements the service container: a registry of named
// factories that builds services on demand and caches singletons.
package container

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrNotBound is returned by Make for names without a binding.
	ErrNotBound = errors.New("service not bound")
	// ErrCircularDependency is returned when resolving a service requires
	// resolving itself.
	ErrCircularDependency = errors.New("circular dependency")
	// ErrTypeMismatch is returned by Resolve when the service has a
	// different type than requested.
	ErrTypeMismatch = errors.New("service type mismatch")
)

// Factory builds a service. It may resolve other services from c.
type Factory func(c *Container) (any, error)

type binding struct {
	factory  Factory
	shared   bool
	once     sync.Once
	instance any
	err      error
}

type registry struct {
	mu       sync.RWMutex
	bindings map[string]*binding
	aliases  map[string]string
}

// Container holds service bindings. It is safe for concurrent use.
//
// Factories receive a view of the container that remembers which services
// are being built along the current resolution path, so cycles are reported
// instead of deadlocking.
type Container struct {
	*registry
	path []string
}

// New returns an empty container.
func New() *Container {
	return &Container{registry: &registry{
		bindings: make(map[string]*binding),
		aliases:  make(map[string]string),
	}}
}

// Bind registers a factory that runs on every Make.
func (c *Container) Bind(name string, factory Factory) {
	c.bind(name, factory, false)
}

// Singleton registers a factory whose first successful result is cached.
func (c *Container) Singleton(name string, factory Factory) {
	c.bind(name, factory, true)
}

// Instance binds an existing value.
func (c *Container) Instance(name string, value any) {
	b := &binding{shared: true, instance: value}
	b.once.Do(func() {})
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.aliases, name)
	c.bindings[name] = b
}

func (c *Container) bind(name string, factory Factory, shared bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.aliases, name)
	c.bindings[name] = &binding{factory: factory, shared: shared}
}

// Alias makes alias resolve to name.
func (c *Container) Alias(alias, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aliases[alias] = name
}

func (c *Container) canonical(name string) string {
	seen := map[string]bool{}
	for {
		target, ok := c.aliases[name]
		if !ok || seen[name] {
			return name
		}
		seen[name] = true
		name = target
	}
}

// Bound reports whether name (or an alias of it) has a binding.
func (c *Container) Bound(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.bindings[c.canonical(name)]
	return ok
}

// Make resolves the service bound to name.
func (c *Container) Make(name string) (any, error) {
	c.mu.RLock()
	key := c.canonical(name)
	b, ok := c.bindings[key]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotBound, name)
	}
	if slices.Contains(c.path, key) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrCircularDependency, strings.Join(c.path, " -> "), key)
	}

	if !b.shared {
		return c.build(key, b.factory)
	}
	b.once.Do(func() {
		b.instance, b.err = c.build(key, b.factory)
	})
	if b.err != nil {
		err := b.err
		// Failed singletons are rebound so a later Make can retry.
		c.mu.Lock()
		if c.bindings[key] == b {
			c.bindings[key] = &binding{factory: b.factory, shared: true}
		}
		c.mu.Unlock()
		return nil, err
	}
	return b.instance, nil
}

func (c *Container) build(key string, factory Factory) (any, error) {
	path := make([]string, len(c.path), len(c.path)+1)
	copy(path, c.path)
	scoped := &Container{registry: c.registry, path: append(path, key)}

	v, err := factory(scoped)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", key, err)
	}
	return v, nil
}

// MustMake is Make that panics on error.
func (c *Container) MustMake(name string) any {
	v, err := c.Make(name)
	if err != nil {
		panic(err)
	}
	return v
}

// Forget removes the binding for name.
func (c *Container) Forget(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.bindings, c.canonical(name))
}

// Flush removes every binding and alias.
func (c *Container) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings = make(map[string]*binding)
	c.aliases = make(map[string]string)
}

// Names returns the bound service names, sorted.
func (c *Container) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.bindings))
	for name := range c.bindings {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Resolve makes name and asserts the result to T.
func Resolve[T any](c *Container, name string) (T, error) {
	var zero T
	v, err := c.Make(name)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s is %T, not %s", ErrTypeMismatch, name, v, typeName[T]())
	}
	return t, nil
}

func typeName[T any]() string {
	return strings.TrimPrefix(fmt.Sprintf("%T", (*T)(nil)), "*")
}
