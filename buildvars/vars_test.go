// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.
package buildvars

import (
	"runtime/debug"
	"testing"
)

func TestResolve_MainVersion(t *testing.T) {
	info := &debug.BuildInfo{
		Main: debug.Module{Path: ModulePath, Version: "v1.2.3"},
	}
	v, c, d := Resolve(info)
	if v != "v1.2.3" {
		t.Fatalf("expected v1.2.3 got %s", v)
	}
	if c != Commit {
		t.Fatalf("expected commit to equal package Commit (default) got %s", c)
	}
	if d != Date {
		t.Fatalf("expected date to equal package Date (default) got %s", d)
	}
}

func TestResolve_DependencyFallback(t *testing.T) {
	info := &debug.BuildInfo{
		Main: debug.Module{Path: "example.com/shop", Version: "(devel)"},
		Deps: []*debug.Module{
			{Path: ModulePath, Version: "v0.4.1-0.20261012101010-d1692e4643ee"},
		},
	}
	v, _, _ := Resolve(info)
	if v != "v0.4.1-0.20261012101010-d1692e4643ee" {
		t.Fatalf("expected dependency version fallback got %s", v)
	}
}

func TestResolve_VCSSettingsAndCommitFallback(t *testing.T) {
	info := &debug.BuildInfo{
		Main: debug.Module{Path: ModulePath, Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "deadbeef"},
			{Key: "vcs.time", Value: "2026-10-01T12:00:00Z"},
		},
	}
	v, c, d := Resolve(info)
	if v != "deadbeef" || c != "deadbeef" || d != "2026-10-01T12:00:00Z" {
		t.Fatalf("unexpected resolution: %s %s %s", v, c, d)
	}
}

func TestVersionOrDefault(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = "dev"
	if got := VersionOrDefault("unknown"); got != "unknown" {
		t.Fatalf("expected default, got %s", got)
	}
	Version = "v2.0.0"
	if got := VersionOrDefault("unknown"); got != "v2.0.0" {
		t.Fatalf("expected v2.0.0, got %s", got)
	}
}
