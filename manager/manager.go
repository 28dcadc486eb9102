// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

// Package manager implements the driver manager used throughout Bedrock.
//
// A Manager lazily creates named drivers (hashers, loggers, database
// connections, ...) and caches them. Drivers come from, in order:
//
//   - custom creators registered with Extend,
//   - built-in creators registered with Register,
//   - a factory method named by convention on the WithFactory receiver:
//     "bcrypt" resolves to CreateBcryptDriver, "read-replica" to
//     CreateReadReplicaDriver.
package manager

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Creator builds a driver instance.
type Creator[T any] func() (T, error)

// Option configures a Manager.
type Option[T any] func(*Manager[T])

// WithName labels errors produced by the manager ("hash", "db", ...).
func WithName[T any](name string) Option[T] {
	return func(m *Manager[T]) { m.name = name }
}

// WithFactory sets the receiver searched for Create<Name>Driver methods.
// Methods must take no arguments and return T or (T, error).
func WithFactory[T any](receiver any) Option[T] {
	return func(m *Manager[T]) {
		if receiver != nil {
			m.factory = reflect.ValueOf(receiver)
		}
	}
}

type slot[T any] struct {
	once  sync.Once
	done  atomic.Bool
	value T
	err   error
}

// Manager resolves and caches drivers of type T. It is safe for concurrent
// use; each driver is created at most once.
type Manager[T any] struct {
	name          string
	defaultDriver func() string
	factory       reflect.Value

	mu      sync.Mutex
	drivers map[string]*slot[T]
	custom  map[string]Creator[T]
	builtin map[string]Creator[T]
}

// New returns a Manager. defaultDriver is consulted on every Driver("")
// call so it can follow live configuration; it may be nil.
func New[T any](defaultDriver func() string, opts ...Option[T]) *Manager[T] {
	m := &Manager[T]{
		defaultDriver: defaultDriver,
		drivers:       make(map[string]*slot[T]),
		custom:        make(map[string]Creator[T]),
		builtin:       make(map[string]Creator[T]),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the label given with WithName.
func (m *Manager[T]) Name() string { return m.name }

// DefaultDriver returns the configured default driver name.
func (m *Manager[T]) DefaultDriver() string {
	if m.defaultDriver == nil {
		return ""
	}
	return m.defaultDriver()
}

// Driver returns the named driver, creating it on first use. An empty name
// selects the default driver.
func (m *Manager[T]) Driver(name string) (T, error) {
	var zero T
	if name == "" {
		name = m.DefaultDriver()
		if name == "" {
			return zero, newError(CodeNoDefaultDriver, m.name, "", nil)
		}
	}

	m.mu.Lock()
	s, ok := m.drivers[name]
	if !ok {
		s = &slot[T]{}
		m.drivers[name] = s
	}
	m.mu.Unlock()

	s.once.Do(func() {
		s.value, s.err = m.create(name)
		s.done.Store(true)
	})
	if s.err != nil {
		// Failed creations are not cached so a later call can retry.
		m.mu.Lock()
		if m.drivers[name] == s {
			delete(m.drivers, name)
		}
		m.mu.Unlock()
		return zero, s.err
	}
	return s.value, nil
}

// Extend registers a custom driver creator. Custom creators take precedence
// over built-in ones. A cached instance with the same name is dropped.
func (m *Manager[T]) Extend(name string, creator Creator[T]) *Manager[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.custom[name] = creator
	delete(m.drivers, name)
	return m
}

// Register adds a built-in driver creator.
func (m *Manager[T]) Register(name string, creator Creator[T]) *Manager[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.builtin[name] = creator
	delete(m.drivers, name)
	return m
}

// Drivers returns the names of the created and cached drivers, sorted.
func (m *Manager[T]) Drivers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.drivers))
	for name, s := range m.drivers {
		if s.done.Load() && s.err == nil {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Supported returns every name a creator is registered for, sorted.
func (m *Manager[T]) Supported() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]struct{}, len(m.custom)+len(m.builtin))
	for name := range m.custom {
		seen[name] = struct{}{}
	}
	for name := range m.builtin {
		seen[name] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Forget drops cached instances so the next Driver call recreates them.
func (m *Manager[T]) Forget(names ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, name := range names {
		delete(m.drivers, name)
	}
}

// Purge drops every cached instance and returns the ones that were created,
// keyed by name, so callers can release resources.
func (m *Manager[T]) Purge() map[string]T {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]T, len(m.drivers))
	for name, s := range m.drivers {
		if s.done.Load() && s.err == nil {
			out[name] = s.value
		}
	}
	m.drivers = make(map[string]*slot[T])
	return out
}

func (m *Manager[T]) create(name string) (T, error) {
	var zero T

	m.mu.Lock()
	creator, ok := m.custom[name]
	if !ok {
		creator, ok = m.builtin[name]
	}
	m.mu.Unlock()

	if ok {
		v, err := creator()
		if err != nil {
			return zero, m.creatorError(name, err)
		}
		return v, nil
	}
	return m.callFactory(name)
}

func (m *Manager[T]) creatorError(name string, err error) error {
	if m.name != "" {
		return fmt.Errorf("%s: create driver %q: %w", m.name, name, err)
	}
	return fmt.Errorf("create driver %q: %w", name, err)
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func (m *Manager[T]) callFactory(name string) (T, error) {
	var zero T
	if !m.factory.IsValid() {
		return zero, newError(CodeUnsupportedDriver, m.name, name, nil)
	}
	method := m.factory.MethodByName(FactoryMethod(name))
	if !method.IsValid() {
		return zero, newError(CodeUnsupportedDriver, m.name, name, nil)
	}

	mt := method.Type()
	if mt.NumIn() != 0 || mt.NumOut() == 0 || mt.NumOut() > 2 ||
		(mt.NumOut() == 2 && mt.Out(1) != errorType) {
		return zero, newError(CodeInvalidDriver, m.name, name, nil)
	}

	out := method.Call(nil)
	if len(out) == 2 && !out[1].IsNil() {
		return zero, m.creatorError(name, out[1].Interface().(error))
	}
	if !out[0].IsValid() || isNil(out[0]) {
		return zero, newError(CodeInvalidDriver, m.name, name, nil)
	}
	v, ok := out[0].Interface().(T)
	if !ok {
		return zero, newError(CodeInvalidDriver, m.name, name, nil)
	}
	return v, nil
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// FactoryMethod returns the conventional factory method name for a driver.
func FactoryMethod(driver string) string {
	return "Create" + Studly(driver) + "Driver"
}

// Studly converts "read-replica", "read_replica" or "read replica" to
// "ReadReplica". Existing inner capitals are kept.
func Studly(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	// Casers are stateful; one per call.
	titler := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(titler.String(p))
	}
	return b.String()
}
