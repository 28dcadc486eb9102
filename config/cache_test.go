// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/toeirei/bedrock/config"
)

func TestCache_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bootstrap", "cache", "config.json.zst")
	src := config.New(map[string]any{
		"app":  map[string]any{"name": "bedrock", "debug": true},
		"hash": map[string]any{"bcrypt": map[string]any{"rounds": 12}},
	})

	if err := config.WriteCache(path, src); err != nil {
		t.Fatalf("WriteCache: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600, got %v", info.Mode().Perm())
	}

	got, err := config.ReadCache(path)
	if err != nil {
		t.Fatalf("ReadCache: %v", err)
	}
	if got.GetString("app.name") != "bedrock" || !got.GetBool("app.debug") {
		t.Fatalf("unexpected snapshot: %v", got.All())
	}
	// JSON numbers decode as float64; typed getters still convert.
	if got.GetInt("hash.bcrypt.rounds") != 12 {
		t.Fatalf("rounds = %v", got.Get("hash.bcrypt.rounds"))
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temporary files left behind: %v", entries)
	}
}

func TestCache_NotFoundAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	if _, err := config.ReadCache(filepath.Join(dir, "missing.zst")); !errors.Is(err, config.ErrCacheNotFound) {
		t.Fatalf("expected ErrCacheNotFound, got %v", err)
	}

	corrupt := filepath.Join(dir, "corrupt.zst")
	if err := os.WriteFile(corrupt, []byte("not zstd"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := config.ReadCache(corrupt); err == nil || errors.Is(err, config.ErrCacheNotFound) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestClearCache_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json.zst")
	if err := config.WriteCache(path, config.New(nil)); err != nil {
		t.Fatalf("WriteCache: %v", err)
	}
	if err := config.ClearCache(path); err != nil {
		t.Fatalf("ClearCache: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("cache file still present: %v", err)
	}
	if err := config.ClearCache(path); err != nil {
		t.Fatalf("second ClearCache: %v", err)
	}
}
