// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/toeirei/bedrock/internal/logging"
)

// MaintenanceTimeout bounds a single Maintain run.
var MaintenanceTimeout = 2 * time.Minute

// Maintain performs engine-specific maintenance on connection name over a
// dedicated handle. For SQLite this runs PRAGMA optimize, VACUUM, a WAL
// checkpoint and an integrity check. For Postgres it runs VACUUM ANALYZE.
// For MySQL it runs OPTIMIZE TABLE for every table.
func (m *Manager) Maintain(ctx context.Context, name string) error {
	if name == "" {
		name = m.DefaultDriver()
	}
	cc, err := m.ConnectionConfig(name)
	if err != nil {
		return err
	}
	_, driverName, err := dialectFor(cc.Driver)
	if err != nil {
		return err
	}
	sqlDB, err := sqlOpenFunc(driverName, cc.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database for maintenance: %w", err)
	}
	defer func() { _ = sqlDB.Close() }()

	ctx, cancel := context.WithTimeout(ctx, MaintenanceTimeout)
	defer cancel()

	switch cc.Driver {
	case "sqlite":
		// optimize is not useful everywhere (in-memory filesystems).
		if _, err := sqlDB.ExecContext(ctx, "PRAGMA optimize;"); err != nil {
			logging.Debugf("db: sqlite optimize failed (ignored): %v", err)
		}
		if _, err := sqlDB.ExecContext(ctx, "VACUUM;"); err != nil {
			return fmt.Errorf("sqlite vacuum failed: %w", err)
		}
		_, _ = sqlDB.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE);")
		var res string
		if err := sqlDB.QueryRowContext(ctx, "PRAGMA integrity_check;").Scan(&res); err != nil {
			return fmt.Errorf("sqlite integrity_check failed: %w", err)
		}
		if res != "ok" {
			return fmt.Errorf("sqlite integrity_check failed: %s", res)
		}
	case "postgres":
		if _, err := sqlDB.ExecContext(ctx, "VACUUM ANALYZE;"); err != nil {
			return fmt.Errorf("postgres vacuum failed: %w", err)
		}
	case "mysql":
		tables, err := mysqlTables(ctx, sqlDB)
		if err != nil {
			return err
		}
		var lastErr error
		for _, table := range tables {
			if _, err := sqlDB.ExecContext(ctx, fmt.Sprintf("OPTIMIZE TABLE `%s`", table)); err != nil {
				// Per-table failures are not fatal; report the last one.
				logging.Warnf("db: mysql optimize table %s failed: %v", table, err)
				lastErr = err
			}
		}
		if lastErr != nil {
			return fmt.Errorf("mysql optimize encountered errors: %w", lastErr)
		}
	}
	logging.Debugf("db: maintenance of %q finished", name)
	return nil
}

func mysqlTables(ctx context.Context, sqlDB *sql.DB) ([]string, error) {
	rows, err := sqlDB.QueryContext(ctx, "SHOW TABLES")
	if err != nil {
		return nil, fmt.Errorf("mysql show tables failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var table string
		if err := rows.Scan(&table); err != nil {
			return nil, fmt.Errorf("mysql read table name failed: %w", err)
		}
		tables = append(tables, table)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mysql list tables failed: %w", err)
	}
	return tables, nil
}
