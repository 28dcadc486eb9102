// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

package config_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/toeirei/bedrock/config"
)

func TestReload_KeepsTreeOnError(t *testing.T) {
	tmp := isolate(t)
	path := filepath.Join(tmp, "bedrock.yaml")
	writeFile(t, path, "app:\n  name: first\n")

	l := &config.Loader{File: path}
	repo, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	writeFile(t, path, "app: [broken\n")
	if err := config.Reload(l, repo); err == nil {
		t.Fatalf("expected reload error")
	}
	if got := repo.GetString("app.name"); got != "first" {
		t.Fatalf("repository changed after failed reload: %q", got)
	}

	writeFile(t, path, "app:\n  name: second\n")
	if err := config.Reload(l, repo); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if got := repo.GetString("app.name"); got != "second" {
		t.Fatalf("app.name = %q", got)
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	tmp := isolate(t)
	path := filepath.Join(tmp, "bedrock.yaml")
	writeFile(t, path, "app:\n  name: v0\n")

	prev := config.DebounceInterval
	config.DebounceInterval = 10 * time.Millisecond
	defer func() { config.DebounceInterval = prev }()

	l := &config.Loader{File: path}
	repo, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	changed := make(chan string, 16)
	repo.OnChange(func(r *config.Repository) { changed <- r.GetString("app.name") })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- config.Watch(ctx, path, l, repo) }()

	// The watcher registers asynchronously; keep writing until it notices.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for i := 1; ; i++ {
		select {
		case name := <-changed:
			if name == "v0" {
				continue
			}
			cancel()
			if err := <-done; err != nil {
				t.Fatalf("Watch returned %v", err)
			}
			return
		case <-tick.C:
			writeFile(t, path, fmt.Sprintf("app:\n  name: v%d\n", i))
		case <-deadline:
			cancel()
			t.Fatalf("watcher never reloaded the file")
		}
	}
}

func TestWatch_EmptyPathWaitsForContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- config.Watch(ctx, "", &config.Loader{}, config.New(nil)) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Watch did not return after cancel")
	}
}
