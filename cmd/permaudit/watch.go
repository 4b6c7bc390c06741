package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/permaudit/permaudit/internal/config"
	"github.com/permaudit/permaudit/internal/source"
)

// runWatch scans once, then rescans whenever source files under the
// root change. File-system events are debounced so an editor save
// burst triggers a single rescan.
func runWatch(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, cfg.Root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", cfg.Root, err)
	}

	// The first scan validates the root; its failure is fatal.
	// Later rescans only log their errors so a transient parse or
	// report problem does not end the watch.
	if _, err := runScan(ctx, cfg, logger); err != nil {
		return err
	}

	logger.Info("watching for changes",
		"root", cfg.Root,
		"debounce", cfg.WatchDebounce,
	)

	exts := watchedExtensions(cfg)

	debounce := time.NewTimer(cfg.WatchDebounce)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return errWatcherClosed
			}

			// New directories must be added explicitly; fsnotify
			// watches are not recursive.
			if event.Op.Has(fsnotify.Create) {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					if !source.SkipDir(filepath.Base(event.Name)) {
						_ = addWatchDirs(watcher, event.Name)
					}
				}
			}

			if isSourceChange(event, exts) {
				logger.Debug("source change", "file", event.Name, "op", event.Op.String())
				debounce.Reset(cfg.WatchDebounce)
			}

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return errWatcherClosed
			}
			logger.Warn("watch error", "error", watchErr)

		case <-debounce.C:
			logger.Info("change detected, rescanning", "root", cfg.Root)
			if _, err := runScan(ctx, cfg, logger); err != nil {
				if ctx.Err() != nil {
					return err
				}
				logger.Error("rescan failed", "error", err)
			}
		}
	}
}

// addWatchDirs registers root and every non-excluded subdirectory with
// the watcher.
func addWatchDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable directories are skipped, matching project
			// enumeration.
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if source.SkipDir(d.Name()) && path != root {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// watchedExtensions returns the file extensions whose changes trigger a
// rescan, honoring per-tree overrides.
func watchedExtensions(cfg *config.Config) []string {
	projectExt := config.DefaultProjectFileExt
	sourceExt := config.DefaultSourceFileExt

	if cfg.TreeConfigs != nil {
		tree := cfg.TreeConfigs.GetTreeConfig(cfg.Root)
		if tree.ProjectFileExt != "" {
			projectExt = tree.ProjectFileExt
		}
		if tree.SourceFileExt != "" {
			sourceExt = tree.SourceFileExt
		}
	}

	return []string{projectExt, sourceExt}
}

// isSourceChange reports whether an event affects a watched file kind.
// Chmod-only events are ignored; they carry no content change.
func isSourceChange(event fsnotify.Event, exts []string) bool {
	if !event.Op.Has(fsnotify.Create) &&
		!event.Op.Has(fsnotify.Write) &&
		!event.Op.Has(fsnotify.Remove) &&
		!event.Op.Has(fsnotify.Rename) {
		return false
	}

	ext := filepath.Ext(event.Name)
	for _, want := range exts {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}
