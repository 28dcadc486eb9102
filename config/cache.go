// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
)

// ErrCacheNotFound is returned by ReadCache when no snapshot exists.
var ErrCacheNotFound = errors.New("config cache not found")

// DefaultCachePath is where the console writes compiled snapshots.
const DefaultCachePath = "bootstrap/cache/config.json.zst"

// WriteCache stores a zstd-compressed JSON snapshot of repo at path. The file
// is replaced atomically.
func WriteCache(path string, repo *Repository) error {
	raw, err := json.Marshal(repo.All())
	if err != nil {
		return fmt.Errorf("encode config cache: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	data := enc.EncodeAll(raw, nil)
	_ = enc.Close()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("could not create cache directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".config-cache-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ReadCache loads a snapshot written by WriteCache.
func ReadCache(path string) (*Repository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrCacheNotFound
		}
		return nil, err
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress config cache %s: %w", path, err)
	}

	items := map[string]any{}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode config cache %s: %w", path, err)
	}
	return New(items), nil
}

// ClearCache removes the snapshot at path. A missing file is not an error.
func ClearCache(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
