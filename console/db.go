// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

package console

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/toeirei/bedrock/container"
	"github.com/toeirei/bedrock/database"
	"github.com/toeirei/bedrock/foundation"
	"github.com/toeirei/bedrock/i18n"
)

// DefaultMigrationsPath holds one directory of .sql files per engine.
const DefaultMigrationsPath = "database/migrations"

func (k *Kernel) database() (*database.Manager, error) {
	return container.Resolve[*database.Manager](k.app.Container, foundation.DatabaseBinding)
}

func newDBMigrateCmd(k *Kernel) *cobra.Command {
	var dir, connection string
	cmd := &cobra.Command{
		Use:   "db:migrate",
		Short: "Apply pending SQL migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := k.database()
			if err != nil {
				return err
			}
			applied, err := db.Migrate(cmd.Context(), connection, os.DirFS(dir))
			for _, v := range applied {
				printLine(cmd, i18n.T("console.db.migrated", v))
			}
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				printLine(cmd, i18n.T("console.db.nothing_to_migrate"))
				return nil
			}
			printLine(cmd, i18n.Plural("console.db.migrated_count", len(applied), nil))
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "path", DefaultMigrationsPath, "Migrations directory")
	cmd.Flags().StringVar(&connection, "connection", "", "Connection name (defaults to database.default)")
	return cmd
}

func newDBMaintainCmd(k *Kernel) *cobra.Command {
	var connection string
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "db:maintain",
		Short: "Run engine specific maintenance (vacuum, analyze, optimize)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := k.database()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := db.Maintain(ctx, connection); err != nil {
				return err
			}
			name := connection
			if name == "" {
				name = db.DefaultDriver()
			}
			printLine(cmd, i18n.T("console.db.maintained", name))
			return nil
		},
	}
	cmd.Flags().StringVar(&connection, "connection", "", "Connection name (defaults to database.default)")
	cmd.Flags().DurationVar(&timeout, "timeout", database.MaintenanceTimeout, "Maximum duration")
	return cmd
}
