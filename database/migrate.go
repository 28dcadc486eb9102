// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/toeirei/bedrock/internal/logging"
	"github.com/uptrace/bun"
)

// Migration records an applied migration in schema_migrations.
type Migration struct {
	bun.BaseModel `bun:"table:schema_migrations"`

	Version   string    `bun:"version,pk,type:varchar(191)"`
	AppliedAt time.Time `bun:"applied_at"`
}

// Migrate applies the migrations in fsys/<engine>/ for connection name.
// Files ending in .sql (except .down.sql) run in lexical order, each in its
// own transaction; versions already recorded in schema_migrations are
// skipped. It returns the versions applied by this call.
func (m *Manager) Migrate(ctx context.Context, name string, fsys fs.FS) ([]string, error) {
	if name == "" {
		name = m.DefaultDriver()
	}
	cc, err := m.ConnectionConfig(name)
	if err != nil {
		return nil, err
	}
	db, err := m.Connection(name)
	if err != nil {
		return nil, err
	}
	return runMigrations(ctx, db, cc.Driver, fsys)
}

func runMigrations(ctx context.Context, db *bun.DB, engine string, fsys fs.FS) ([]string, error) {
	start := time.Now()
	logging.Debugf("db: starting migrations for %s", engine)

	entries, err := fs.ReadDir(fsys, engine)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// No migrations for this engine.
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read migrations (%s): %w", engine, err)
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") || strings.HasSuffix(name, ".down.sql") {
			continue
		}
		files = append(files, name)
	}
	sort.Strings(files)

	if _, err := db.NewCreateTable().Model((*Migration)(nil)).IfNotExists().Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure schema_migrations table: %w", err)
	}

	var applied []string
	for _, fname := range files {
		version := migrationVersion(fname)

		exists, err := db.NewSelect().Model((*Migration)(nil)).Where("version = ?", version).Exists(ctx)
		if err != nil {
			return applied, fmt.Errorf("failed to check migration version %s: %w", version, err)
		}
		if exists {
			continue
		}

		p := path.Join(engine, fname)
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return applied, fmt.Errorf("failed to read migration %s: %w", p, err)
		}

		err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			// Raw statements bypass bun's placeholder formatting.
			if _, err := tx.Tx.ExecContext(ctx, string(data)); err != nil {
				return fmt.Errorf("failed to execute migration %s: %w", version, err)
			}
			rec := &Migration{Version: version, AppliedAt: time.Now().UTC()}
			if _, err := tx.NewInsert().Model(rec).Exec(ctx); err != nil {
				return fmt.Errorf("failed to record migration %s: %w", version, MapError(err))
			}
			return nil
		})
		if err != nil {
			return applied, err
		}
		applied = append(applied, version)
	}

	logging.Debugf("db: applied %d migrations for %s in %s", len(applied), engine, time.Since(start))
	return applied, nil
}

func migrationVersion(fname string) string {
	v := strings.TrimSuffix(fname, ".sql")
	return strings.TrimSuffix(v, ".up")
}

// Applied lists the recorded migration versions of connection name in order.
func (m *Manager) Applied(ctx context.Context, name string) ([]string, error) {
	db, err := m.Connection(name)
	if err != nil {
		return nil, err
	}
	var versions []string
	err = db.NewSelect().Model((*Migration)(nil)).Column("version").Order("version ASC").Scan(ctx, &versions)
	if err != nil {
		return nil, err
	}
	return versions, nil
}
