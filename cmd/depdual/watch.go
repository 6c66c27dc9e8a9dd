// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watchDebounce is how long a file must stay quiet before it is re-run.
const watchDebounce = 100 * time.Millisecond

// watchFiles calls fn for a file each time it is written or recreated, until
// ctx is done. Editors that save by rename are handled by watching the
// parent directories instead of the files.
func watchFiles(ctx context.Context, logger *zap.Logger, files []string, fn func(path string)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fw.Close()

	wanted := make(map[string]string, len(files)) // absolute → as given
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return fmt.Errorf("watch %s: %w", f, err)
		}
		wanted[abs] = f
		dirs[filepath.Dir(abs)] = true
	}
	for d := range dirs {
		if err := fw.Add(d); err != nil {
			return fmt.Errorf("watch %s: %w", d, err)
		}
	}
	logger.Info("watching", zap.Strings("files", files))

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(watchDebounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, ok := wanted[abs]; !ok {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				pending[abs] = time.Now()
			}

		case now := <-ticker.C:
			for abs, t := range pending {
				if now.Sub(t) >= watchDebounce {
					delete(pending, abs)
					fn(wanted[abs])
				}
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))
		}
	}
}
