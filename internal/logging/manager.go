// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	clog "github.com/charmbracelet/log"
	"github.com/toeirei/bedrock/manager"
)

// Options configure the loggers built by a Manager. They mirror the
// logger.* configuration keys.
type Options struct {
	Driver     string
	Level      string
	Prefix     string
	Timestamps bool
	Output     io.Writer
}

// Manager resolves loggers by output format: "text", "json" and "logfmt"
// are built in, more can be added with Extend.
type Manager struct {
	*manager.Manager[*clog.Logger]
	opts Options
}

// NewManager returns a logger manager whose default driver is opts.Driver,
// or "text".
func NewManager(opts Options) *Manager {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	m := &Manager{opts: opts}
	m.Manager = manager.New(func() string {
		if m.opts.Driver == "" {
			return "text"
		}
		return m.opts.Driver
	}, manager.WithName[*clog.Logger]("log"), manager.WithFactory[*clog.Logger](m))
	// "json" would map to CreateJsonDriver by convention.
	m.Register("json", func() (*clog.Logger, error) { return m.build(clog.JSONFormatter) })
	return m
}

// CreateTextDriver builds a human-readable logger.
func (m *Manager) CreateTextDriver() (*clog.Logger, error) {
	return m.build(clog.TextFormatter)
}

// CreateLogfmtDriver builds a logger emitting key=value lines.
func (m *Manager) CreateLogfmtDriver() (*clog.Logger, error) {
	return m.build(clog.LogfmtFormatter)
}

func (m *Manager) build(f clog.Formatter) (*clog.Logger, error) {
	level, err := ParseLevel(m.opts.Level)
	if err != nil {
		return nil, err
	}
	return clog.NewWithOptions(m.opts.Output, clog.Options{
		Level:           level,
		Prefix:          m.opts.Prefix,
		ReportTimestamp: m.opts.Timestamps,
		Formatter:       f,
	}), nil
}

// Logger returns the default driver's logger.
func (m *Manager) Logger() (*clog.Logger, error) {
	return m.Driver("")
}

// ParseLevel maps a level name to a charmbracelet level. An empty name is
// info.
func ParseLevel(name string) (clog.Level, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	switch name {
	case "":
		return clog.InfoLevel, nil
	case "warning":
		name = "warn"
	}
	level, err := clog.ParseLevel(name)
	if err != nil {
		return clog.InfoLevel, fmt.Errorf("log: invalid level %q", name)
	}
	return level, nil
}

// Install makes l the package-level logger used by framework internals.
func Install(l *clog.Logger) {
	if l != nil {
		L = l
	}
}
