// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

package database

import (
	"context"
	"time"

	"github.com/toeirei/bedrock/internal/logging"
	"github.com/uptrace/bun"
)

// queryLogger writes every query of a connection to the debug log.
type queryLogger struct {
	connection string
}

func (queryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h queryLogger) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	dur := time.Since(event.StartTime).Round(time.Microsecond)
	if event.Err != nil {
		logging.Debugf("db[%s]: %s (%s) failed: %v", h.connection, event.Query, dur, event.Err)
		return
	}
	logging.Debugf("db[%s]: %s (%s)", h.connection, event.Query, dur)
}

var _ bun.QueryHook = queryLogger{}
