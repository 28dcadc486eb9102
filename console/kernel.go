// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

// Package console is the command-line kernel of a Bedrock application. It
// bootstraps the application before running a command and ships the
// scaffolding and maintenance commands.
package console

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/toeirei/bedrock/buildvars"
	"github.com/toeirei/bedrock/config"
	"github.com/toeirei/bedrock/container"
	"github.com/toeirei/bedrock/foundation"
	"github.com/toeirei/bedrock/i18n"
	"github.com/toeirei/bedrock/internal/logging"
)

// Kernel owns the root command and the application it bootstraps.
type Kernel struct {
	app       *foundation.Application
	providers []foundation.ServiceProvider
	root      *cobra.Command
	overrides *pflag.FlagSet

	configFile string
	verbose    bool
	locale     string

	bootOnce sync.Once
	bootErr  error
}

// NewKernel returns a kernel for app. providers are registered on the first
// command run; the commands of CommandProviders among them are added to the
// root command right away.
func NewKernel(app *foundation.Application, providers ...foundation.ServiceProvider) *Kernel {
	k := &Kernel{app: app, providers: providers}
	k.root = k.newRootCmd()
	return k
}

// App returns the application.
func (k *Kernel) App() *foundation.Application { return k.app }

// Root returns the root command.
func (k *Kernel) Root() *cobra.Command { return k.root }

// Execute runs the command line and terminates the application afterwards,
// also when the command failed.
func (k *Kernel) Execute(ctx context.Context) error {
	err := k.root.ExecuteContext(ctx)
	if k.app.Booted() {
		if terr := k.app.Terminate(context.WithoutCancel(ctx)); terr != nil {
			err = errors.Join(err, terr)
		}
	}
	return err
}

func (k *Kernel) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "bedrock",
		Short:        i18n.T("console.root.short"),
		Version:      buildvars.String(),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if k.verbose {
				logging.SetDebug(true)
			}
			return k.Bootstrap()
		},
	}

	cmd.PersistentFlags().StringVar(&k.configFile, "config", "", "config file")
	cmd.PersistentFlags().BoolVarP(&k.verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().StringVar(&k.locale, "locale", "", `Console language ("en", "de")`)

	// Dot-named flags override the configuration key of the same name.
	k.overrides = pflag.NewFlagSet("overrides", pflag.ContinueOnError)
	k.overrides.String("app.env", "production", "Application environment")
	k.overrides.Bool("app.debug", false, "Enable debug mode")
	k.overrides.String("logger.level", "info", "Log level (debug, info, warn, error)")
	k.overrides.String("database.default", "sqlite", "Default database connection")
	cmd.PersistentFlags().AddFlagSet(k.overrides)

	cmd.AddCommand(
		newMakeProviderCmd(),
		newMakeCommandCmd(),
		newConfigShowCmd(k),
		newConfigCacheCmd(k),
		newConfigClearCmd(k),
		newHashMakeCmd(k),
		newHashCheckCmd(k),
		newI18nLintCmd(k),
		newDBMigrateCmd(k),
		newDBMaintainCmd(k),
		newVersionCmd(),
	)
	for _, p := range k.providers {
		if cp, ok := p.(foundation.CommandProvider); ok {
			cmd.AddCommand(cp.Commands(k.app)...)
		}
	}
	return cmd
}

// Bootstrap loads the configuration, then registers and boots the providers.
// It runs once per kernel.
func (k *Kernel) Bootstrap() error {
	k.bootOnce.Do(func() {
		k.bootErr = k.bootstrap()
	})
	return k.bootErr
}

func (k *Kernel) bootstrap() error {
	loader := k.app.Loader()
	if k.configFile != "" {
		// Make sure the user-provided file exists to avoid unwanted behavior.
		if _, err := os.Stat(k.configFile); err != nil {
			return fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
		}
		loader.File = k.configFile
	}
	loader.Flags = k.overrides
	if loader.CachePath == "" {
		loader.CachePath = config.DefaultCachePath
		loader.UseCache = k.configFile == ""
	}

	if err := k.app.Register(k.providers...); err != nil {
		return err
	}
	if err := k.app.Boot(); err != nil {
		return err
	}

	if k.locale != "" {
		if cfg := k.app.Config(); cfg != nil {
			cfg.Set("app.locale", k.locale)
		}
		if t, err := container.Resolve[*i18n.Translator](k.app.Container, foundation.TranslatorBinding); err == nil {
			t.SetLocale(k.locale)
		} else {
			i18n.SetLang(k.locale)
		}
	}
	if used := loader.FileUsed(); used != "" {
		logging.Debugf("console: configuration from %s", used)
	}
	return nil
}

func printLine(cmd *cobra.Command, a ...any) {
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), a...)
}

// Run executes the command line of an application made of the default
// providers.
func Run(ctx context.Context) error {
	return NewKernel(foundation.New(), foundation.DefaultProviders()...).Execute(ctx)
}
