// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/toeirei/bedrock/container"
	"github.com/toeirei/bedrock/foundation"
	"github.com/toeirei/bedrock/hash"
	"github.com/toeirei/bedrock/i18n"
	"golang.org/x/term"
)

func (k *Kernel) hasher(driver string) (hash.Hasher, error) {
	m, err := container.Resolve[*hash.Manager](k.app.Container, foundation.HashBinding)
	if err != nil {
		return nil, err
	}
	return m.Driver(driver)
}

// readSecret prompts without echo on a terminal and reads one line otherwise.
func readSecret(cmd *cobra.Command) (hash.Secret, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), i18n.T("console.hash.prompt"))
		b, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return nil, err
		}
		return hash.Secret(b), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return hash.Secret(strings.TrimRight(line, "\r\n")), nil
}

func newHashMakeCmd(k *Kernel) *cobra.Command {
	var driver string
	cmd := &cobra.Command{
		Use:   "hash:make [value]",
		Short: "Hash a value with the configured hasher",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := k.hasher(driver)
			if err != nil {
				return err
			}
			var value hash.Secret
			if len(args) == 1 {
				value = hash.Secret(args[0])
			} else if value, err = readSecret(cmd); err != nil {
				return err
			}
			hashed, err := hash.MakeSecret(h, value)
			if err != nil {
				return err
			}
			printLine(cmd, hashed)
			return nil
		},
	}
	cmd.Flags().StringVar(&driver, "driver", "", "Hash driver (defaults to hash.driver)")
	return cmd
}

func newHashCheckCmd(k *Kernel) *cobra.Command {
	var driver string
	cmd := &cobra.Command{
		Use:   "hash:check <value> <hash>",
		Short: "Check a value against a hash",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := k.hasher(driver)
			if err != nil {
				return err
			}
			ok, err := h.Check(args[0], args[1])
			if err != nil {
				return err
			}
			if !ok {
				return errors.New(i18n.T("console.hash.mismatch"))
			}
			printLine(cmd, i18n.T("console.hash.match"))
			return nil
		},
	}
	cmd.Flags().StringVar(&driver, "driver", "", "Hash driver (defaults to hash.driver)")
	return cmd
}
