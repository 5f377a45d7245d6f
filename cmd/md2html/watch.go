package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces bursts of file events into one rebuild.
const watchDebounce = 200 * time.Millisecond

// runWatch builds the site, then rebuilds whenever content changes.
// Build failures are reported and watching continues. Returns nil when ctx
// is cancelled.
func runWatch(ctx context.Context, s *session) error {
	rebuild := func() {
		if err := runBuild(ctx, s); err != nil && ctx.Err() == nil {
			fmt.Fprintln(s.env.Stderr, err)
		}
	}
	rebuild()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	dirs, err := watchDirs(s)
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	if !s.flags.common.quiet {
		fmt.Fprintf(s.env.Stdout, "Watching %s (Ctrl+C to stop)\n", strings.Join(dirs, ", "))
	}

	return watchLoop(ctx, watcher.Events, watcher.Errors, watchDebounce, s.logger, watcher.Add, rebuild)
}

// watchDirs lists the existing content directories and their
// subdirectories. fsnotify does not watch recursively.
func watchDirs(s *session) ([]string, error) {
	roots := []string{s.cfg.Content.PostsDir, s.cfg.Content.ProjectsDir}
	if s.flags.content.assetPath != "" {
		roots = append(roots, s.flags.content.assetPath)
	}

	var dirs []string
	for _, root := range roots {
		if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		tree, err := subdirs(root)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReadContent, err)
		}
		dirs = append(dirs, tree...)
	}
	return dirs, nil
}

// subdirs returns root and every directory below it, skipping hidden ones.
func subdirs(root string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	return dirs, err
}

// watchLoop calls rebuild once events stop arriving for delay. Directories
// created while watching are passed to watch, with their subdirectories,
// when watch is not nil.
func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, delay time.Duration, logger *slog.Logger, watch func(string) error, rebuild func()) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !relevantEvent(ev) {
				continue
			}
			logger.Debug("change detected", "path", ev.Name, "op", ev.Op.String())
			if watch != nil && ev.Has(fsnotify.Create) {
				watchNewDir(ev.Name, logger, watch)
			}
			if timer == nil {
				timer = time.NewTimer(delay)
			} else {
				timer.Reset(delay)
			}
			fire = timer.C
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		case <-fire:
			fire = nil
			rebuild()
		}
	}
}

// watchNewDir adds path and its subdirectories to the watcher when path
// is a directory.
func watchNewDir(path string, logger *slog.Logger, watch func(string) error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	dirs, err := subdirs(path)
	if err != nil {
		logger.Warn("listing new directory", "path", path, "error", err)
	}
	for _, dir := range dirs {
		if err := watch(dir); err != nil {
			logger.Warn("watching new directory", "path", dir, "error", err)
			continue
		}
		logger.Debug("watching new directory", "path", dir)
	}
}

// relevantEvent filters out chmod events, hidden files and editor backups.
func relevantEvent(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(ev.Name)
	return !strings.HasPrefix(name, ".") && !strings.HasSuffix(name, "~")
}
