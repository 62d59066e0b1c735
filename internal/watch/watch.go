// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package watch re-runs a function when files under a directory change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/pdiddy/artifact-engine/internal/logging"
)

// DefaultDebounce is the quiet period used when Watcher.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches Dir and its subdirectories. Bursts of events collapse into
// one call once Debounce passes without further events. Calls never
// overlap: events that arrive while fn runs schedule exactly one more call.
type Watcher struct {
	Dir      string
	Debounce time.Duration
	Logger   *zap.Logger
}

// Run blocks until ctx is done, calling fn after each debounced burst. An
// error from fn is logged and watching continues.
func (w Watcher) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	log := logging.OrNop(w.Logger)
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := addTree(fw, w.Dir); err != nil {
		return err
	}
	log.Info("watching", zap.String("dir", w.Dir), zap.Duration("debounce", debounce))

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ignored(ev.Name) {
				continue
			}
			log.Debug("change", zap.String("path", ev.Name), zap.Stringer("op", ev.Op))
			if ev.Has(fsnotify.Create) {
				// New directories are watched too; errors mean it was a file.
				_ = addTree(fw, ev.Name)
			}
			timer.Reset(debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", zap.Error(err))
		case <-timer.C:
			// fn runs on this goroutine, so a second call cannot start until
			// it returns; events queued meanwhile re-arm the timer.
			if err := fn(ctx); err != nil {
				log.Error("run failed", zap.Error(err))
			}
		}
	}
}

func addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && ignored(path) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// ignored reports hidden paths and editor temporaries.
func ignored(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp")
}
