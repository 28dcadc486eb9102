// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/toeirei/bedrock/config"
)

func isolate(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	// Force the user config dir into tmp.
	t.Setenv("XDG_CONFIG_HOME", tmp)
	t.Setenv("HOME", tmp)
	return tmp
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	isolate(t)

	l := &config.Loader{Defaults: map[string]any{"app.name": "bedrock", "hash.driver": "bcrypt"}}
	repo, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if l.FileUsed() != "" {
		t.Fatalf("expected no config file, got %q", l.FileUsed())
	}
	if got := repo.GetString("app.name"); got != "bedrock" {
		t.Fatalf("app.name = %q", got)
	}
}

func TestLoad_ReadsUserConfigDir(t *testing.T) {
	tmp := isolate(t)
	writeFile(t, filepath.Join(tmp, "bedrock", "bedrock.yaml"), "app:\n  name: from-user-dir\n")

	l := &config.Loader{}
	repo, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := repo.GetString("app.name"); got != "from-user-dir" {
		t.Fatalf("app.name = %q", got)
	}
	if !strings.HasSuffix(l.FileUsed(), "bedrock.yaml") {
		t.Fatalf("FileUsed = %q", l.FileUsed())
	}
}

func TestLoad_ExplicitFileOverridesSearchPaths(t *testing.T) {
	tmp := isolate(t)
	writeFile(t, filepath.Join(tmp, "bedrock", "bedrock.yaml"), "app:\n  name: from-user-dir\n")
	explicit := filepath.Join(tmp, "custom.yaml")
	writeFile(t, explicit, "app:\n  name: explicit\nhash:\n  bcrypt:\n    rounds: 11\n")

	l := &config.Loader{File: explicit, Defaults: map[string]any{"hash.driver": "bcrypt"}}
	repo, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := repo.GetString("app.name"); got != "explicit" {
		t.Fatalf("app.name = %q", got)
	}
	if got := repo.GetInt("hash.bcrypt.rounds"); got != 11 {
		t.Fatalf("rounds = %d", got)
	}
	if got := repo.GetString("hash.driver"); got != "bcrypt" {
		t.Fatalf("defaults should survive next to file values, got %q", got)
	}
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	tmp := isolate(t)
	l := &config.Loader{File: filepath.Join(tmp, "nope.yaml")}
	if _, err := l.Load(); err == nil {
		t.Fatalf("expected error for missing explicit file")
	}
}

func TestLoad_BrokenConfigReturnsParseError(t *testing.T) {
	tmp := isolate(t)
	broken := filepath.Join(tmp, "broken.yaml")
	writeFile(t, broken, "app: [unclosed\n")

	l := &config.Loader{File: broken}
	if _, err := l.Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	tmp := isolate(t)
	explicit := filepath.Join(tmp, "bedrock.yaml")
	writeFile(t, explicit, "app:\n  name: from-file\n")
	t.Setenv("BEDROCK_APP_NAME", "from-env")

	repo, err := (&config.Loader{File: explicit}).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := repo.GetString("app.name"); got != "from-env" {
		t.Fatalf("env should override file, got %q", got)
	}
}

func TestLoad_CustomEnvPrefix(t *testing.T) {
	isolate(t)
	t.Setenv("MYAPP_HASH_DRIVER", "argon2")

	l := &config.Loader{EnvPrefix: "myapp", Defaults: map[string]any{"hash.driver": "bcrypt"}}
	repo, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := repo.GetString("hash.driver"); got != "argon2" {
		t.Fatalf("hash.driver = %q", got)
	}
}

func TestLoad_ChangedFlagOverridesEnv(t *testing.T) {
	isolate(t)
	t.Setenv("BEDROCK_APP_NAME", "from-env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("app.name", "flag-default", "")
	flags.String("app.locale", "en", "")
	if err := flags.Parse([]string{"--app.name=from-flag"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	repo, err := (&config.Loader{Flags: flags}).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := repo.GetString("app.name"); got != "from-flag" {
		t.Fatalf("changed flag should win, got %q", got)
	}
	if got := repo.GetString("app.locale"); got != "en" {
		t.Fatalf("unchanged flag default should apply, got %q", got)
	}
}

func TestLoad_UsesCacheWhenEnabled(t *testing.T) {
	tmp := isolate(t)
	cachePath := filepath.Join(tmp, "cache", "config.json.zst")
	if err := config.WriteCache(cachePath, config.New(map[string]any{"app": map[string]any{"name": "cached"}})); err != nil {
		t.Fatalf("WriteCache: %v", err)
	}

	l := &config.Loader{CachePath: cachePath, UseCache: true, Defaults: map[string]any{"app.name": "fresh"}}
	repo, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := repo.GetString("app.name"); got != "cached" {
		t.Fatalf("expected cached value, got %q", got)
	}
	if l.FileUsed() != cachePath {
		t.Fatalf("FileUsed = %q", l.FileUsed())
	}

	l.UseCache = false
	repo, err = l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := repo.GetString("app.name"); got != "fresh" {
		t.Fatalf("cache should be ignored when disabled, got %q", got)
	}
}

func TestLoad_UnreadableCacheFallsThrough(t *testing.T) {
	tmp := isolate(t)
	cachePath := filepath.Join(tmp, "cache", "config.json.zst")
	writeFile(t, cachePath, "definitely not zstd")

	l := &config.Loader{CachePath: cachePath, UseCache: true, Defaults: map[string]any{"app.name": "fresh"}}
	repo, err := l.Load()
	if err != nil {
		t.Fatalf("Load with a corrupt cache: %v", err)
	}
	if got := repo.GetString("app.name"); got != "fresh" {
		t.Fatalf("app.name = %q, want fresh", got)
	}
	if l.FileUsed() == cachePath {
		t.Fatalf("corrupt cache reported as used")
	}
}

func TestLoad_ChangedFlagOverridesCache(t *testing.T) {
	tmp := isolate(t)
	cachePath := filepath.Join(tmp, "cache", "config.json.zst")
	cached := config.New(map[string]any{"app": map[string]any{"env": "production", "debug": false, "name": "cached"}})
	if err := config.WriteCache(cachePath, cached); err != nil {
		t.Fatalf("WriteCache: %v", err)
	}

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("app.env", "production", "")
	flags.Bool("app.debug", false, "")
	flags.String("app.name", "flag-default", "")
	if err := flags.Parse([]string{"--app.env=staging", "--app.debug"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	repo, err := (&config.Loader{CachePath: cachePath, UseCache: true, Flags: flags}).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := repo.GetString("app.env"); got != "staging" {
		t.Fatalf("app.env = %q, want staging", got)
	}
	if !repo.GetBool("app.debug") {
		t.Fatalf("app.debug flag not applied")
	}
	// Unchanged flags leave the snapshot alone.
	if got := repo.GetString("app.name"); got != "cached" {
		t.Fatalf("app.name = %q, want cached", got)
	}
}

func TestWriteFile_CreatesDirectoriesAndRoundTrips(t *testing.T) {
	tmp := isolate(t)
	path := filepath.Join(tmp, "nested", "dir", "bedrock.yaml")
	src := config.New(map[string]any{"app": map[string]any{"name": "written"}})

	if err := config.WriteFile(path, src); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600, got %v", info.Mode().Perm())
	}

	repo, err := (&config.Loader{File: path}).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := repo.GetString("app.name"); got != "written" {
		t.Fatalf("app.name = %q", got)
	}
}

func TestConfigPath(t *testing.T) {
	tmp := isolate(t)
	p, err := config.ConfigPath(false)
	if err != nil {
		t.Fatalf("ConfigPath(false): %v", err)
	}
	if want := filepath.Join(tmp, "bedrock", "bedrock.yaml"); p != want {
		t.Fatalf("user path = %q, want %q", p, want)
	}
	sys, err := config.ConfigPath(true)
	if err != nil {
		t.Fatalf("ConfigPath(true): %v", err)
	}
	if filepath.Base(sys) != "bedrock.yaml" {
		t.Fatalf("system path = %q", sys)
	}
}
