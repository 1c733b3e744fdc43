package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/vidsum/vidsum/internal/logger"
)

type implWatcher struct {
	inputDir      string
	handler       JobHandler
	logger        logger.Logger
	watcher       *fsnotify.Watcher
	maxConcurrent int
	semaphore     chan struct{}
	wg            sync.WaitGroup
}

// Start begins monitoring the input directory for new .url job files.
// Each file contains one video URL on its first line and is removed
// once it has been handed to the pipeline.
func (w *implWatcher) Start(ctx context.Context) error {
	w.logger.Info(ctx, "Job watcher started (max concurrent: %d). Monitoring: %s", w.maxConcurrent, w.inputDir)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "Waiting for running jobs to complete...")
			w.wg.Wait()
			w.logger.Info(ctx, "Job watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}

			if event.Op&fsnotify.Create != fsnotify.Create {
				continue
			}
			if !isJobFile(event.Name) {
				w.logger.Debug(ctx, "Ignoring non-job file: %s", event.Name)
				continue
			}

			w.logger.Info(ctx, "New job detected: %s", event.Name)

			// Small delay so the file is fully written.
			time.Sleep(500 * time.Millisecond)

			url, err := readJobFile(event.Name)
			if err != nil {
				w.logger.Error(ctx, "Failed to read job %s: %v", event.Name, err)
				continue
			}

			select {
			case w.semaphore <- struct{}{}:
				w.wg.Add(1)
				go func(path, url string) {
					defer w.wg.Done()
					defer func() { <-w.semaphore }()

					if err := w.handler(ctx, url); err != nil {
						w.logger.Error(ctx, "Job %s failed: %v", path, err)
					}
					if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
						w.logger.Warn(ctx, "Failed to remove job file %s: %v", path, err)
					}
				}(event.Name, url)
			case <-ctx.Done():
				return ctx.Err()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error(ctx, "Watcher error: %v", err)
		}
	}
}

// Stop closes the file watcher
func (w *implWatcher) Stop() error {
	return w.watcher.Close()
}

func isJobFile(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".url" &&
		!strings.HasPrefix(filepath.Base(path), ".")
}

// readJobFile returns the first non-empty line of a job file.
func readJobFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(string(data), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed, nil
		}
	}
	return "", fmt.Errorf("job file is empty")
}
