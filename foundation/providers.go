// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

package foundation

import (
	"context"
	"fmt"
	"io"
	"sync"

	clog "github.com/charmbracelet/log"
	"github.com/toeirei/bedrock/config"
	"github.com/toeirei/bedrock/container"
	"github.com/toeirei/bedrock/database"
	"github.com/toeirei/bedrock/hash"
	"github.com/toeirei/bedrock/i18n"
	"github.com/toeirei/bedrock/internal/logging"
)

// Well-known binding names.
const (
	AppBinding        = "app"
	ConfigBinding     = "config"
	LogBinding        = "log"
	LoggerBinding     = "logger"
	HashBinding       = "hash"
	TranslatorBinding = "translator"
	DatabaseBinding   = "db"
)

// DefaultConfig returns the framework defaults as dot-path keys.
func DefaultConfig() map[string]any {
	return map[string]any{
		"app.name":                           "Bedrock",
		"app.env":                            "production",
		"app.debug":                          false,
		"app.locale":                         i18n.DefaultLocale,
		"app.fallback_locale":                i18n.DefaultLocale,
		"config.watch":                       false,
		"logger.driver":                      "text",
		"logger.level":                       "info",
		"logger.prefix":                      "",
		"logger.timestamps":                  false,
		"hash.driver":                        hash.DefaultDriver,
		"hash.bcrypt.rounds":                 hash.DefaultBcryptRounds,
		"hash.argon2.memory":                 hash.DefaultArgonMemory,
		"hash.argon2.time":                   hash.DefaultArgonTime,
		"hash.argon2.threads":                hash.DefaultArgonThreads,
		"i18n.paths":                         []string{},
		"database.default":                   "sqlite",
		"database.connections.sqlite.driver": "sqlite",
		"database.connections.sqlite.dsn":    "./bedrock.db",
	}
}

// DefaultProviders returns the framework providers in dependency order.
func DefaultProviders() []ServiceProvider {
	return []ServiceProvider{
		&ConfigProvider{},
		&LogProvider{},
		&HashProvider{},
		&TranslationProvider{},
		&DatabaseProvider{},
	}
}

// ConfigProvider loads the configuration unless one is bound already. When
// config.watch is set and a file was read, the file is watched for changes
// until the application terminates.
type ConfigProvider struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func (p *ConfigProvider) Register(app *Application) error {
	if app.Bound(ConfigBinding) {
		return nil
	}
	repo, err := app.Loader().Load()
	if err != nil {
		return err
	}
	app.Instance(ConfigBinding, repo)
	return nil
}

func (p *ConfigProvider) Boot(app *Application) error {
	repo := app.Config()
	loader := app.Loader()
	used := loader.FileUsed()
	// A snapshot is not watched; only a config file read this run is.
	if repo == nil || !repo.GetBool("config.watch") || used == "" || used == loader.CachePath {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.mu.Lock()
	p.cancel, p.done = cancel, done
	p.mu.Unlock()

	go func() {
		defer close(done)
		if err := config.Watch(ctx, used, loader, repo); err != nil {
			logging.Errorf("config: watcher failed: %v", err)
		}
	}()
	return nil
}

func (p *ConfigProvider) Terminate(ctx context.Context) error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogProvider binds the logger manager as "log" and its default logger as
// "logger". Booting installs that logger for framework internals.
type LogProvider struct {
	// Output overrides the log destination (stderr).
	Output io.Writer
}

func (p *LogProvider) Register(app *Application) error {
	app.Singleton(LogBinding, func(c *container.Container) (any, error) {
		cfg, err := container.Resolve[*config.Repository](c, ConfigBinding)
		if err != nil {
			return nil, err
		}
		return logging.NewManager(logging.Options{
			Driver:     cfg.GetString("logger.driver"),
			Level:      cfg.GetString("logger.level"),
			Prefix:     cfg.GetString("logger.prefix"),
			Timestamps: cfg.GetBool("logger.timestamps"),
			Output:     p.Output,
		}), nil
	})
	app.Singleton(LoggerBinding, func(c *container.Container) (any, error) {
		m, err := container.Resolve[*logging.Manager](c, LogBinding)
		if err != nil {
			return nil, err
		}
		return m.Logger()
	})
	return nil
}

func (p *LogProvider) Boot(app *Application) error {
	l, err := container.Resolve[*clog.Logger](app.Container, LoggerBinding)
	if err != nil {
		return err
	}
	if app.Config().GetBool("app.debug") {
		l.SetLevel(clog.DebugLevel)
	}
	logging.Install(l)
	return nil
}

// HashProvider binds the hash manager as "hash".
type HashProvider struct{}

func (HashProvider) Register(app *Application) error {
	app.Singleton(HashBinding, func(c *container.Container) (any, error) {
		cfg, err := container.Resolve[*config.Repository](c, ConfigBinding)
		if err != nil {
			return nil, err
		}
		return hash.NewManager(cfg), nil
	})
	return nil
}

// TranslationProvider binds the translator as "translator". Booting makes it
// the package default and keeps its locale in sync with app.locale.
type TranslationProvider struct{}

func (TranslationProvider) Register(app *Application) error {
	app.Singleton(TranslatorBinding, func(c *container.Container) (any, error) {
		cfg, err := container.Resolve[*config.Repository](c, ConfigBinding)
		if err != nil {
			return nil, err
		}
		return i18n.New(
			cfg.GetString("app.locale"),
			cfg.GetString("app.fallback_locale"),
			cfg.GetStringSlice("i18n.paths")...,
		)
	})
	return nil
}

func (TranslationProvider) Boot(app *Application) error {
	t, err := container.Resolve[*i18n.Translator](app.Container, TranslatorBinding)
	if err != nil {
		return err
	}
	i18n.SetDefault(t)
	app.Config().OnChange(func(r *config.Repository) {
		if locale := r.GetString("app.locale"); locale != "" && locale != t.Locale() {
			t.SetLocale(locale)
		}
	})
	return nil
}

// DatabaseProvider binds the connection manager as "db" and closes its
// connections on terminate.
type DatabaseProvider struct {
	app *Application
}

func (p *DatabaseProvider) Register(app *Application) error {
	p.app = app
	app.Singleton(DatabaseBinding, func(c *container.Container) (any, error) {
		cfg, err := container.Resolve[*config.Repository](c, ConfigBinding)
		if err != nil {
			return nil, err
		}
		return database.NewManager(cfg), nil
	})
	return nil
}

func (p *DatabaseProvider) Terminate(context.Context) error {
	if p.app == nil {
		return nil
	}
	m, err := container.Resolve[*database.Manager](p.app.Container, DatabaseBinding)
	if err != nil {
		return fmt.Errorf("resolve database manager: %w", err)
	}
	return m.Close()
}
