package driver

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"quill/internal/project"
)

// WatchOptions configures file watching.
type WatchOptions struct {
	// Debounce coalesces bursts of write events; zero uses a default.
	Debounce time.Duration
}

const defaultDebounce = 200 * time.Millisecond

// Watch observes .ql files and the manifest under dir and calls run after
// every relevant change, debounced. run is called once up front. Returns
// when ctx is done.
func Watch(ctx context.Context, dir string, opts WatchOptions, run func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watchTree(watcher, dir); err != nil {
		return err
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	run()

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// New directories join the watch so nested files are seen.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watchTree(watcher, event.Name)
				}
			}
			if !relevant(event.Name) {
				continue
			}
			if !pending {
				pending = true
			} else if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)
		case <-timer.C:
			if pending {
				pending = false
				run()
			}
		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
		}
	}
}

// watchTree adds dir and every subdirectory to the watcher. Non-directory
// paths are ignored.
func watchTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // a vanished entry is not fatal to the watch
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}

func relevant(path string) bool {
	return strings.HasSuffix(path, ".ql") || filepath.Base(path) == project.ManifestName
}
