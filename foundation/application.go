// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

// Package foundation ties the framework together: an Application is a
// service container plus the service providers that fill it.
package foundation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/spf13/cobra"
	"github.com/toeirei/bedrock/config"
	"github.com/toeirei/bedrock/container"
	"github.com/toeirei/bedrock/internal/logging"
)

// ServiceProvider registers bindings into the application.
type ServiceProvider interface {
	Register(app *Application) error
}

// Booter is implemented by providers that need every other provider to be
// registered before they run.
type Booter interface {
	Boot(app *Application) error
}

// Terminator is implemented by providers holding resources that must be
// released on shutdown.
type Terminator interface {
	Terminate(ctx context.Context) error
}

// CommandProvider is implemented by providers contributing console commands.
type CommandProvider interface {
	Commands(app *Application) []*cobra.Command
}

type entry struct {
	provider ServiceProvider
	booted   bool
}

// Application is the service container of a Bedrock application together
// with its providers. It is safe for concurrent use.
type Application struct {
	*container.Container

	loader *config.Loader

	mu       sync.Mutex
	entries  []*entry
	seen     map[reflect.Type]bool
	booted   bool
	booting  bool
	shutdown bool
}

// Option configures an Application.
type Option func(*Application)

// WithConfig binds repo as the application configuration. The config
// provider then skips loading.
func WithConfig(repo *config.Repository) Option {
	return func(a *Application) { a.Instance(ConfigBinding, repo) }
}

// WithLoader sets the loader used by the config provider.
func WithLoader(l *config.Loader) Option {
	return func(a *Application) { a.loader = l }
}

// New returns an application with an empty container. The application binds
// itself as "app".
func New(opts ...Option) *Application {
	a := &Application{
		Container: container.New(),
		seen:      make(map[reflect.Type]bool),
	}
	a.Instance(AppBinding, a)
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Loader returns the configured loader, or a loader with the framework
// defaults.
func (a *Application) Loader() *config.Loader {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.loader == nil {
		a.loader = &config.Loader{Defaults: DefaultConfig()}
	}
	return a.loader
}

// Config returns the bound configuration repository, or nil before the
// config provider ran.
func (a *Application) Config() *config.Repository {
	repo, err := container.Resolve[*config.Repository](a.Container, ConfigBinding)
	if err != nil {
		return nil
	}
	return repo
}

// Register runs Register on each provider. Providers of a concrete type that
// was registered before are skipped. Once the application has booted, new
// providers are booted immediately.
func (a *Application) Register(providers ...ServiceProvider) error {
	for _, p := range providers {
		if p == nil {
			continue
		}
		t := reflect.TypeOf(p)
		if a.registered(t) {
			logging.Debugf("foundation: provider %s already registered", t)
			continue
		}

		// A provider is only recorded once its Register succeeded, so a
		// failed one can be retried.
		if err := p.Register(a); err != nil {
			return fmt.Errorf("register %s: %w", t, err)
		}

		a.mu.Lock()
		if a.seen[t] {
			a.mu.Unlock()
			continue
		}
		a.seen[t] = true
		e := &entry{provider: p}
		a.entries = append(a.entries, e)
		bootNow := a.booted && !a.booting
		a.mu.Unlock()

		if bootNow {
			if err := a.boot(e); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *Application) registered(t reflect.Type) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.seen[t]
}

// Boot boots every registered provider exactly once, in registration order.
// Providers registered while booting are booted in the same pass.
func (a *Application) Boot() error {
	a.mu.Lock()
	if a.booted {
		a.mu.Unlock()
		return nil
	}
	a.booting = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.booting = false
		a.mu.Unlock()
	}()

	for i := 0; ; i++ {
		a.mu.Lock()
		if i >= len(a.entries) {
			a.booted = true
			a.mu.Unlock()
			return nil
		}
		e := a.entries[i]
		a.mu.Unlock()

		if err := a.boot(e); err != nil {
			return err
		}
	}
}

func (a *Application) boot(e *entry) error {
	a.mu.Lock()
	if e.booted {
		a.mu.Unlock()
		return nil
	}
	e.booted = true
	a.mu.Unlock()

	b, ok := e.provider.(Booter)
	if !ok {
		return nil
	}
	if err := b.Boot(a); err != nil {
		return fmt.Errorf("boot %T: %w", e.provider, err)
	}
	return nil
}

// Booted reports whether Boot has completed.
func (a *Application) Booted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.booted
}

// Providers returns the registered providers in registration order.
func (a *Application) Providers() []ServiceProvider {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]ServiceProvider, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.provider
	}
	return out
}

// Commands collects the console commands of every CommandProvider.
func (a *Application) Commands() []*cobra.Command {
	var out []*cobra.Command
	for _, p := range a.Providers() {
		if cp, ok := p.(CommandProvider); ok {
			out = append(out, cp.Commands(a)...)
		}
	}
	return out
}

// Terminate runs every Terminator in reverse registration order. All
// terminators run; their errors are joined. Later calls do nothing.
func (a *Application) Terminate(ctx context.Context) error {
	a.mu.Lock()
	if a.shutdown {
		a.mu.Unlock()
		return nil
	}
	a.shutdown = true
	a.mu.Unlock()

	providers := a.Providers()
	slices.Reverse(providers)

	var errs []error
	for _, p := range providers {
		t, ok := p.(Terminator)
		if !ok {
			continue
		}
		if err := t.Terminate(ctx); err != nil {
			logging.Warnf("foundation: terminate %T: %v", p, err)
			errs = append(errs, fmt.Errorf("terminate %T: %w", p, err))
		}
	}
	return errors.Join(errs...)
}
