// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

package console

import (
	"errors"
	"io/fs"
	"os"
	"path"

	"github.com/spf13/cobra"
	"github.com/toeirei/bedrock/i18n"
)

type lintTarget struct {
	name string
	fsys fs.FS
}

func (k *Kernel) lintTargets(dirs []string) []lintTarget {
	if len(dirs) == 0 {
		if cfg, err := k.config(); err == nil {
			dirs = cfg.GetStringSlice("i18n.paths")
		}
	}
	var out []lintTarget
	for _, d := range dirs {
		if info, err := os.Stat(d); err == nil && info.IsDir() {
			out = append(out, lintTarget{name: d, fsys: os.DirFS(d)})
		}
	}
	if len(out) == 0 {
		out = append(out, lintTarget{name: "(embedded)", fsys: i18n.Files()})
	}
	return out
}

func newI18nLintCmd(k *Kernel) *cobra.Command {
	var primary, source string
	cmd := &cobra.Command{
		Use:   "i18n:lint [dir...]",
		Short: "Check translation files for missing keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			if primary == "" {
				primary = i18n.DefaultLocale
				if cfg, err := k.config(); err == nil {
					primary = cfg.GetString("app.fallback_locale", i18n.DefaultLocale)
				}
			}

			var used map[string]struct{}
			if source != "" {
				var err error
				if used, err = i18n.UsedKeys(source); err != nil {
					return err
				}
			}

			failed := false
			for _, target := range k.lintTargets(args) {
				report, err := i18n.Lint(target.fsys, primary)
				if err != nil {
					return err
				}
				for _, l := range report.Locales {
					printLine(cmd, i18n.T("console.i18n.checking", path.Join(target.name, l.File)))
					for _, key := range l.Missing {
						printLine(cmd, i18n.T("console.i18n.missing", key))
					}
					if len(l.Missing) == 0 {
						printLine(cmd, i18n.T("console.i18n.all_present"))
					}
				}
				failed = failed || report.HasMissing()

				if used != nil {
					keys, err := i18n.LoadKeys(target.fsys, report.PrimaryFile)
					if err != nil {
						return err
					}
					report.Orphaned = i18n.Orphans(keys, used)
					for _, key := range report.Orphaned {
						printLine(cmd, i18n.T("console.i18n.orphaned", key))
					}
				}
			}
			if failed {
				return errors.New(i18n.T("console.i18n.failed"))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&primary, "primary", "", "Primary locale (defaults to app.fallback_locale)")
	cmd.Flags().StringVar(&source, "source", "", "Also report primary keys not used below this source directory")
	return cmd
}
