package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces the burst of write events editors emit while
// saving a file into a single re-ingestion.
const debounceDelay = 500 * time.Millisecond

// Watcher re-ingests knowledge-base files as they change on disk.
type Watcher struct {
	pipeline *Pipeline
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewWatcher creates a Watcher over the given pipeline.
func NewWatcher(pipeline *Pipeline, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("ingest: creating file watcher: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		pipeline: pipeline,
		watcher:  fsw,
		logger:   logger,
		timers:   make(map[string]*time.Timer),
	}, nil
}

// Watch monitors root (including existing subdirectories) and re-ingests
// any supported file that is created or written. It blocks until ctx is
// cancelled.
func (w *Watcher) Watch(ctx context.Context, root string) error {
	defer w.close()

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ingest: watching %q: %w", root, err)
	}

	w.logger.Info("watching for knowledge-base changes", "path", root)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			// New directories join the watch set so nested files are seen.
			if event.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					if addErr := w.watcher.Add(event.Name); addErr != nil {
						w.logger.Warn("watching new directory failed", "path", event.Name, "error", addErr)
					}
					continue
				}
			}
			if !SupportedFile(event.Name) {
				continue
			}
			w.scheduleIngest(ctx, event.Name)

		case watchErr, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", watchErr)
		}
	}
}

// scheduleIngest debounces per path, then re-ingests.
func (w *Watcher) scheduleIngest(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[path]; ok {
		timer.Stop()
	}
	w.timers[path] = time.AfterFunc(debounceDelay, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		summary, err := w.pipeline.IngestFile(ctx, path)
		if err != nil {
			w.logger.Warn("re-ingesting changed file failed", "path", path, "error", err)
			return
		}
		w.logger.Info("re-ingested changed file",
			"path", path, "succeeded", summary.Succeeded, "failed", summary.Failed)
	})
}

func (w *Watcher) close() {
	w.mu.Lock()
	for path, timer := range w.timers {
		timer.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()
	if err := w.watcher.Close(); err != nil {
		w.logger.Warn("closing file watcher", "error", err)
	}
}
