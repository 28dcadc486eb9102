// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

// Package database manages named SQL connections. Connections are described
// under database.connections.<name> and opened lazily through the driver
// manager, wrapped in a bun.DB with the dialect matching their engine.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/toeirei/bedrock/config"
	"github.com/toeirei/bedrock/internal/logging"
	"github.com/toeirei/bedrock/manager"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
	_ "modernc.org/sqlite"

	// SQL drivers for the postgres and mysql engines.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// sqlOpenFunc allows tests to override database opening behavior.
var sqlOpenFunc = sql.Open

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 5 * time.Minute
	defaultConnMaxIdleTime = 60 * time.Second
)

// ConnectionConfig is the decoded form of database.connections.<name>.
type ConnectionConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	LogQueries      bool          `mapstructure:"log_queries"`
}

// Engines lists the supported values of a connection's driver key.
func Engines() []string { return []string{"mysql", "postgres", "sqlite"} }

// Manager resolves connections by name. The default connection is
// database.default.
type Manager struct {
	*manager.Manager[*bun.DB]
	config *config.Repository

	mu         sync.Mutex
	registered map[string]bool
}

// NewManager returns a connection manager reading cfg.
func NewManager(cfg *config.Repository) *Manager {
	m := &Manager{config: cfg, registered: make(map[string]bool)}
	m.Manager = manager.New(
		func() string { return cfg.GetString("database.default") },
		manager.WithName[*bun.DB]("db"),
	)
	return m
}

func connectionKey(name string) string {
	return "database.connections." + name
}

// ConnectionConfig decodes the settings of connection name and applies
// pool defaults.
func (m *Manager) ConnectionConfig(name string) (ConnectionConfig, error) {
	cc := ConnectionConfig{
		MaxOpenConns:    defaultMaxOpenConns,
		MaxIdleConns:    defaultMaxIdleConns,
		ConnMaxLifetime: defaultConnMaxLifetime,
		ConnMaxIdleTime: defaultConnMaxIdleTime,
	}
	if !m.config.Has(connectionKey(name)) {
		return cc, fmt.Errorf("db: connection %q is not configured", name)
	}
	if err := m.config.Unmarshal(connectionKey(name), &cc); err != nil {
		return cc, err
	}
	cc.Driver = strings.ToLower(cc.Driver)
	if cc.Driver == "" {
		return cc, fmt.Errorf("db: connection %q has no driver", name)
	}
	return cc, nil
}

// Connection returns the named connection, opening it on first use. An
// empty name selects database.default.
func (m *Manager) Connection(name string) (*bun.DB, error) {
	if name == "" {
		name = m.DefaultDriver()
	}
	if name != "" {
		m.register(name)
	}
	return m.Driver(name)
}

// register adds a creator for a configured connection the first time it is
// requested. Unconfigured names fall through to the manager's unsupported
// driver error.
func (m *Manager) register(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.registered[name] || !m.config.Has(connectionKey(name)) {
		return
	}
	m.registered[name] = true
	m.Register(name, func() (*bun.DB, error) { return m.open(name) })
}

func (m *Manager) open(name string) (*bun.DB, error) {
	cc, err := m.ConnectionConfig(name)
	if err != nil {
		return nil, err
	}
	dialect, driverName, err := dialectFor(cc.Driver)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	sqlDB, err := sqlOpenFunc(driverName, cc.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// In-memory SQLite databases exist per connection; keep a single one so
	// schema changes stay visible.
	if cc.Driver == "sqlite" && isMemoryDSN(cc.DSN) {
		cc.MaxOpenConns = 1
		cc.MaxIdleConns = 1
	}
	sqlDB.SetMaxOpenConns(cc.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cc.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cc.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cc.ConnMaxIdleTime)

	db := bun.NewDB(sqlDB, dialect)
	if cc.LogQueries {
		db.AddQueryHook(queryLogger{connection: name})
	}
	logging.Debugf("db: opened %s connection %q in %s (max open=%d, idle=%d, lifetime=%s)",
		cc.Driver, name, time.Since(start), cc.MaxOpenConns, cc.MaxIdleConns, cc.ConnMaxLifetime)
	return db, nil
}

func dialectFor(engine string) (schema.Dialect, string, error) {
	switch engine {
	case "sqlite":
		return sqlitedialect.New(), "sqlite", nil
	case "postgres":
		// The pgx stdlib registers driver name "pgx".
		return pgdialect.New(), "pgx", nil
	case "mysql":
		return mysqldialect.New(), "mysql", nil
	default:
		return nil, "", fmt.Errorf("db: unsupported engine %q (supported: %s)", engine, strings.Join(Engines(), ", "))
	}
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.HasPrefix(dsn, "file::memory:") || strings.Contains(dsn, "mode=memory")
}

// Close closes every opened connection. The manager can open them again
// afterwards.
func (m *Manager) Close() error {
	var errs []error
	for name, db := range m.Purge() {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
