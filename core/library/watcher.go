package library

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"DeckFM/logger"
)

// fileSettleDelay is how long a file must stay unchanged before we treat the
// writer as finished. Copies into the import directory are not atomic.
const fileSettleDelay = 500 * time.Millisecond

// ScanOnce walks the import directory and imports every matching file.
// Already-imported files are skipped by ImportFile's content-hash check.
func (im *Importer) ScanOnce(ctx context.Context) (int, error) {
	imported := 0
	err := filepath.WalkDir(im.cfg.ImportDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), im.cfg.AudioExt) {
			return nil
		}
		if _, err := im.ImportFile(ctx, path); err != nil {
			logger.Warn("import failed during scan",
				logger.String("path", path), logger.ErrorField(err))
			return nil
		}
		imported++
		return nil
	})
	return imported, err
}

// Watch blocks watching the import directory until ctx is cancelled. New
// files go through a stability check before import so partially copied files
// are never uploaded.
func (im *Importer) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(im.cfg.ImportDir); err != nil {
		return err
	}
	logger.Info("watching import directory", logger.String("dir", im.cfg.ImportDir))

	pendingFiles := make(map[string]time.Time)
	checkTicker := time.NewTicker(200 * time.Millisecond)
	defer checkTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 &&
				strings.EqualFold(filepath.Ext(event.Name), im.cfg.AudioExt) {
				pendingFiles[event.Name] = time.Now()
			}

		case <-checkTicker.C:
			now := time.Now()
			for path, lastEvent := range pendingFiles {
				if now.Sub(lastEvent) < fileSettleDelay {
					continue // likely still being written
				}
				delete(pendingFiles, path)
				if _, err := im.ImportFile(ctx, path); err != nil {
					logger.Warn("import failed",
						logger.String("path", path), logger.ErrorField(err))
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("import watcher error", logger.ErrorField(err))
		}
	}
}
