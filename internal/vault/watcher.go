package vault

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch starts an fsnotify watcher on the workspace root and applies file
// change events through the syncer until ctx is cancelled. Create and
// write events take the incremental path; removes delete the note; rename
// events schedule a debounced full reconciliation because fsnotify only
// reports the old path.
//
// New directories created at runtime are added to the watch list.
func (s *Syncer) Watch(ctx context.Context, root string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	s.logger.Info("vault: watcher started", slog.String("root", root))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			s.logger.Info("vault: watcher stopped")
			return nil

		case <-reconcileCh:
			if err := s.Sync(); err != nil {
				s.logger.Warn("vault: reconcile failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			absPath := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						s.logger.Warn("vault: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					}
					// Pick up any files already inside the new directory.
					scheduleReconcile()
					continue
				}
			}

			if !strings.HasSuffix(absPath, ".md") {
				continue
			}
			rel, relErr := filepath.Rel(root, absPath)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := s.store.Read(rel)
				if readErr != nil {
					s.logger.Warn("vault: read failed", slog.String("path", rel), slog.String("error", readErr.Error()))
					continue
				}
				if idxErr := s.IndexFile(rel, data); idxErr != nil {
					s.logger.Warn("vault: index failed", slog.String("path", rel), slog.String("error", idxErr.Error()))
					continue
				}
				s.logger.Debug("vault: indexed", slog.String("path", rel), slog.String("op", ev.Op.String()))

			case ev.Op&fsnotify.Remove != 0:
				s.RemoveFile(rel)
				s.logger.Debug("vault: deleted", slog.String("path", rel))

			case ev.Op&fsnotify.Rename != 0:
				// The new path, if still inside the workspace, arrives
				// as a separate Create event.
				s.RemoveFile(rel)
				s.logger.Debug("vault: rename old deleted", slog.String("path", rel))
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("vault: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
