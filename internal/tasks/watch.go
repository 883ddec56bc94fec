package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/desertthunder/rhytm/internal/shared"
)

const doneSuffix = ".done"

// WatchOpts configures [Engine.WatchImports].
type WatchOpts struct {
	Import ImportOpts
	Settle time.Duration // Quiet period after the last write before a file is read (default: 500ms)
}

// importable ignores hidden files, temporary files and files already processed.
func importable(path string) bool {
	name := filepath.Base(path)
	return !strings.HasPrefix(name, ".") && !strings.HasSuffix(name, ".tmp") && !strings.HasSuffix(name, doneSuffix)
}

// WatchImports imports Beatport links from files dropped into dir until ctx is done.
//
// Files present at startup are processed too. Each file is renamed to <name>.done after
// its import, whether or not it contained links.
func (e *Engine) WatchImports(ctx context.Context, prog chan<- ProgressUpdate, dir string, opts WatchOpts) error {
	if dir == "" {
		return fmt.Errorf("%w: watch directory", shared.ErrMissingArgument)
	}
	if opts.Settle <= 0 {
		opts.Settle = 500 * time.Millisecond
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create watch directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	e.logger.Info("watching for imports", "dir", dir)
	e.sendProgress(prog, watchingUpdate(dir))

	ready := make(chan string)
	timers := map[string]*time.Timer{}
	schedule := func(path string) {
		if t, ok := timers[path]; ok {
			t.Reset(opts.Settle)
			return
		}
		timers[path] = time.AfterFunc(opts.Settle, func() {
			select {
			case ready <- path:
			case <-ctx.Done():
			}
		})
	}
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read watch directory: %w", err)
	}
	for _, entry := range entries {
		if entry.Type().IsRegular() && importable(entry.Name()) {
			schedule(filepath.Join(dir, entry.Name()))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !importable(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				schedule(event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.logger.Error("file watcher error", "error", err)

		case path := <-ready:
			delete(timers, path)
			e.importFile(ctx, prog, path, opts.Import)
		}
	}
}

// importFile imports one dropped file and marks it done.
func (e *Engine) importFile(ctx context.Context, prog chan<- ProgressUpdate, path string, opts ImportOpts) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		e.logger.Error("failed to read import file", "path", path, "error", err)
		return
	}

	logger := shared.WithLogger(e.logger, "file", filepath.Base(path))
	result, err := e.ImportURLs(ctx, prog, string(data), opts)
	switch {
	case errors.Is(err, shared.ErrMissingArgument):
		logger.Info("no Beatport links in file")
	case err != nil:
		logger.Error("import failed", "error", err)
		return
	default:
		e.sendProgress(prog, fileImportedUpdate(filepath.Base(path), result))
	}

	if err := os.Rename(path, path+doneSuffix); err != nil {
		logger.Error("failed to mark import file done", "error", err)
	}
}
