// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

// bedrock is the console of a Bedrock application with the default
// providers: configuration, logging, hashing, translations and databases.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/toeirei/bedrock/console"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := console.Run(ctx); err != nil {
		// cobra already printed the error.
		stop()
		os.Exit(1)
	}
}
