// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

package console

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"unicode"

	"github.com/spf13/cobra"
	"github.com/toeirei/bedrock/i18n"
	"github.com/toeirei/bedrock/internal/logging"
	"github.com/toeirei/bedrock/manager"
	"golang.org/x/tools/imports"
)

//go:embed stubs/*.tmpl
var stubFS embed.FS

// ErrFileExists is returned by the generators when the target exists and
// overwriting was not requested.
var ErrFileExists = errors.New("file already exists")

// stubData is the template context of the code stubs.
type stubData struct {
	Package string
	Name    string
	Studly  string
	Command string
	Short   string
}

// GenerateOptions control where generated files go.
type GenerateOptions struct {
	Dir     string
	Package string
	Force   bool
}

func (o GenerateOptions) pkg() string {
	if o.Package != "" {
		return o.Package
	}
	return packageName(filepath.Base(o.Dir))
}

// MakeProvider writes <dir>/<snake>_provider.go with a provider skeleton
// and returns its path.
func MakeProvider(name string, opts GenerateOptions) (string, error) {
	studly := manager.Studly(name)
	studly = strings.TrimSuffix(studly, "Provider")
	if studly == "" {
		return "", fmt.Errorf("invalid provider name %q", name)
	}
	path := filepath.Join(opts.Dir, Snake(studly)+"_provider.go")
	data := stubData{Package: opts.pkg(), Name: Snake(studly), Studly: studly}
	return path, generate("stubs/provider.go.tmpl", path, data, opts.Force)
}

// MakeCommand writes <dir>/<snake>_command.go with a cobra command skeleton
// for the command name and returns its path.
func MakeCommand(name string, opts GenerateOptions) (string, error) {
	studly := manager.Studly(name)
	if studly == "" {
		return "", fmt.Errorf("invalid command name %q", name)
	}
	path := filepath.Join(opts.Dir, Snake(studly)+"_command.go")
	data := stubData{
		Package: opts.pkg(),
		Name:    Snake(studly),
		Studly:  studly,
		Command: name,
		Short:   "Run " + name,
	}
	return path, generate("stubs/command.go.tmpl", path, data, opts.Force)
}

func generate(stub, path string, data stubData, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrFileExists, path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	tmpl, err := template.ParseFS(stubFS, stub)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("render %s: %w", stub, err)
	}
	src, err := imports.Process(path, buf.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return fmt.Errorf("format %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("could not create directory %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, src, 0o644); err != nil {
		return err
	}
	logging.Debugf("console: generated %s from %s", path, stub)
	return nil
}

// Snake converts "PaymentGateway" or "payment-gateway" to "payment_gateway".
func Snake(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '-' || r == ' ' || r == '.' || r == ':':
			b.WriteRune('_')
		case unicode.IsUpper(r):
			if i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1]))) {
				b.WriteRune('_')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func packageName(dir string) string {
	name := strings.ToLower(dir)
	name = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, name)
	if name == "" || unicode.IsDigit(rune(name[0])) {
		return "app"
	}
	return name
}

func addGenerateFlags(cmd *cobra.Command, opts *GenerateOptions, dir string) {
	cmd.Flags().StringVar(&opts.Dir, "dir", dir, "Target directory")
	cmd.Flags().StringVar(&opts.Package, "package", "", "Package name (defaults to the directory name)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Overwrite existing files")
}

// Scaffolding does not need a booted application.
func skipBootstrap(cmd *cobra.Command) {
	cmd.PersistentPreRunE = func(*cobra.Command, []string) error { return nil }
}

func reportGenerated(cmd *cobra.Command, path string, err error) error {
	if errors.Is(err, ErrFileExists) {
		return errors.New(i18n.T("console.make.exists", path))
	}
	if err != nil {
		return err
	}
	printLine(cmd, i18n.T("console.make.created", path))
	return nil
}

func newMakeProviderCmd() *cobra.Command {
	var opts GenerateOptions
	cmd := &cobra.Command{
		Use:   "make:provider <name>",
		Short: "Create a new service provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := MakeProvider(args[0], opts)
			return reportGenerated(cmd, path, err)
		},
	}
	addGenerateFlags(cmd, &opts, "providers")
	skipBootstrap(cmd)
	return cmd
}

func newMakeCommandCmd() *cobra.Command {
	var opts GenerateOptions
	cmd := &cobra.Command{
		Use:   "make:command <name>",
		Short: "Create a new console command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := MakeCommand(args[0], opts)
			return reportGenerated(cmd, path, err)
		},
	}
	addGenerateFlags(cmd, &opts, "commands")
	skipBootstrap(cmd)
	return cmd
}
