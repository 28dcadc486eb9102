// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

package console

import (
	"github.com/spf13/cobra"
	"github.com/toeirei/bedrock/buildvars"
	"github.com/toeirei/bedrock/i18n"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			version, commit, date := buildvars.Resolve(nil)
			if date == "" {
				date = "unknown"
			}
			printLine(cmd, i18n.T("console.version", version, commit, date))
		},
	}
	skipBootstrap(cmd)
	return cmd
}
