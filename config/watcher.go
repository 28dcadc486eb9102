// Copyright (c) 2026 ToeiRei
// Bedrock - application framework core
// This source code is licensed under the MIT license found in the LICENSE file.

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/toeirei/bedrock/internal/logging"
)

// DebounceInterval collapses bursts of file events into a single reload.
var DebounceInterval = 250 * time.Millisecond

// Reload loads configuration through loader and swaps it into repo. On error
// repo keeps its current tree.
func Reload(loader *Loader, repo *Repository) error {
	next, err := loader.Load()
	if err != nil {
		return fmt.Errorf("reload config: %w", err)
	}
	repo.Replace(next.All())
	return nil
}

// Watch reloads repo whenever the file at path is written or re-created.
// It blocks until ctx is cancelled. The parent directory is watched so that
// editors which replace files via rename are picked up.
func Watch(ctx context.Context, path string, loader *Loader, repo *Repository) error {
	if path == "" {
		logging.Infof("config: watcher disabled (no config file in use)")
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch config dir: %w", err)
	}
	logging.Infof("config: watching %s for changes", abs)

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			logging.Debugf("config: watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			logging.Debugf("config: %s changed (%s)", abs, event.Op)

			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(DebounceInterval, func() {
				if ctx.Err() != nil {
					return
				}
				if err := Reload(loader, repo); err != nil {
					logging.Errorf("config: automatic reload failed: %v", err)
					return
				}
				logging.Infof("config: reloaded %s", abs)
			})
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Errorf("config: watcher error: %v", err)
		}
	}
}
