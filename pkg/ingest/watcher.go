package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch keeps the index in sync with the tree under root until ctx is done.
// Written or created files are re-indexed, removed or renamed files are
// deleted from the index. New directories are watched as they appear.
func Watch(ctx context.Context, root string, pool *Pool, logger *zap.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := addTree(watcher, root); err != nil {
		return err
	}

	logger.Info("watching for changes", zap.String("root", root))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			handleEvent(watcher, root, event, pool, logger)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

func handleEvent(watcher *fsnotify.Watcher, root string, event fsnotify.Event, pool *Pool, logger *zap.Logger) {
	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		if !Indexable(event.Name) {
			return
		}
		pool.Enqueue(Job{Op: OpDelete, DocumentID: DocumentID(root, event.Name)})

	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil {
			return
		}

		if info.IsDir() {
			if event.Has(fsnotify.Create) {
				if err := addTree(watcher, event.Name); err != nil {
					logger.Warn("could not watch new directory",
						zap.String("path", event.Name),
						zap.Error(err),
					)
				}
			}
			return
		}

		if Indexable(event.Name) {
			pool.Enqueue(IndexJob(root, event.Name))
		}
	}
}

func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(p); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
		return nil
	})
}
