package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// rebuildDebounce coalesces bursts of filesystem events (an install writes
// several files) into one discovery pass.
const rebuildDebounce = 500 * time.Millisecond

// Watch rebuilds and republishes the registry whenever the skills root
// changes on disk. It blocks until ctx is canceled.
//
// fsnotify does not watch recursively, so the root and every skill/tools
// directory are added individually and the watch set is refreshed after
// each rebuild.
func Watch(ctx context.Context, reg *Registry, root string, logger zerolog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("registry: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, root); err != nil {
		return err
	}

	var debounce *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(rebuildDebounce)
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(rebuildDebounce)
			}
			fire = debounce.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("skills watcher error")

		case <-fire:
			fire = nil
			snap, report := Rebuild(root, logger)
			reg.Publish(snap)
			logger.Info().Int("tools", report.Registered).Msg("skills directory changed; registry republished")
			if err := addWatchDirs(watcher, root); err != nil {
				logger.Warn().Err(err).Msg("refreshing watch set failed")
			}
		}
	}
}

// addWatchDirs (re-)registers the root plus every skill and tools
// directory. Already-watched paths are fine to re-add.
func addWatchDirs(watcher *fsnotify.Watcher, root string) error {
	if err := watcher.Add(root); err != nil {
		return fmt.Errorf("registry: watch %s: %w", root, err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		skillDir := filepath.Join(root, entry.Name())
		_ = watcher.Add(skillDir)

		toolsDir := filepath.Join(skillDir, "tools")
		if info, err := os.Stat(toolsDir); err == nil && info.IsDir() {
			_ = watcher.Add(toolsDir)
			if toolEntries, err := os.ReadDir(toolsDir); err == nil {
				for _, te := range toolEntries {
					if te.IsDir() {
						_ = watcher.Add(filepath.Join(toolsDir, te.Name()))
					}
				}
			}
		}
	}
	return nil
}
