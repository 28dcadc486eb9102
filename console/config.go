// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

package console

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/toeirei/bedrock/config"
	"github.com/toeirei/bedrock/i18n"
)

func (k *Kernel) config() (*config.Repository, error) {
	cfg := k.app.Config()
	if cfg == nil {
		return nil, errors.New("configuration is not loaded")
	}
	return cfg, nil
}

func (k *Kernel) cachePath(flag string) string {
	if flag != "" {
		return flag
	}
	if p := k.app.Loader().CachePath; p != "" {
		return p
	}
	return config.DefaultCachePath
}

func newConfigShowCmd(k *Kernel) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "config:show [key]",
		Short: "Print the configuration or a part of it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := k.config()
			if err != nil {
				return err
			}
			key := ""
			if len(args) == 1 {
				key = args[0]
				if !cfg.Has(key) {
					return errors.New(i18n.T("console.config.missing_key", key))
				}
			}
			value := cfg.Get(key)

			var out []byte
			if asJSON {
				out, err = json.MarshalIndent(value, "", "  ")
				out = append(out, '\n')
			} else {
				out, err = yaml.Marshal(value)
			}
			if err != nil {
				return fmt.Errorf("encode configuration: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newConfigCacheCmd(k *Kernel) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "config:cache",
		Short: "Compile the configuration into a cached snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := k.cachePath(path)
			// Build the snapshot from the sources, never from an older snapshot.
			fresh := *k.app.Loader()
			fresh.UseCache = false
			repo, err := fresh.Load()
			if err != nil {
				return err
			}
			if err := config.WriteCache(target, repo); err != nil {
				return err
			}
			printLine(cmd, i18n.T("console.config.cached", target))
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "Snapshot location (defaults to the loader cache path)")
	return cmd
}

func newConfigClearCmd(k *Kernel) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "config:clear",
		Short: "Remove the cached configuration snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ClearCache(k.cachePath(path)); err != nil {
				return err
			}
			printLine(cmd, i18n.T("console.config.cleared"))
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "Snapshot location (defaults to the loader cache path)")
	return cmd
}
