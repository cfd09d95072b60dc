package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/notesplit/internal/storage"
)

// Kinds reported to an EventCallback.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// reconcileDelay debounces the reconciliation pass that follows a rename.
const reconcileDelay = 200 * time.Millisecond

// EventCallback is called after a watcher-driven index change.
type EventCallback func(kind string, path string)

// ignored consults the provider's ignore patterns when it has any.
func ignored(store storage.Provider, rel string) bool {
	ig, ok := store.(interface{ Ignored(string) bool })
	return ok && ig.Ignored(filepath.ToSlash(rel))
}

type watcher struct {
	fsw    *fsnotify.Watcher
	db     *DB
	store  storage.Provider
	root   string
	logger *slog.Logger
	cb     EventCallback
}

// Watch keeps the index in step with the vault until ctx is cancelled,
// calling cb (if non-nil) after each index change. Directories created at
// runtime are watched as they appear; a rename schedules a debounced
// reconciliation pass.
func Watch(ctx context.Context, db *DB, store storage.Provider, vaultRoot string, logger *slog.Logger, cb EventCallback) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	w := &watcher{fsw: fsw, db: db, store: store, root: vaultRoot, logger: logger, cb: cb}
	if err := w.addDirs(vaultRoot); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("root", vaultRoot))

	reconcile := time.NewTimer(reconcileDelay)
	reconcile.Stop()
	defer reconcile.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case <-reconcile.C:
			w.reconcile()

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.handle(ev) {
				reconcile.Reset(reconcileDelay)
			}

		case watchErr, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (w *watcher) notify(kind, rel string) {
	if w.cb != nil {
		w.cb(kind, rel)
	}
}

// rel maps an absolute path to a vault path, reporting false for paths
// outside the vault or matching an ignore pattern.
func (w *watcher) rel(abs string) (string, bool) {
	rel, err := filepath.Rel(w.root, abs)
	if err != nil || strings.HasPrefix(rel, "..") || ignored(w.store, rel) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// handle applies one fsnotify event and reports whether a reconciliation
// pass is needed.
func (w *watcher) handle(ev fsnotify.Event) bool {
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			w.watchNewDir(ev.Name)
			return false
		}
	}
	if !strings.HasSuffix(ev.Name, ".md") {
		return false
	}
	rel, ok := w.rel(ev.Name)
	if !ok {
		return false
	}

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		kind := EventUpdated
		if ev.Op&fsnotify.Create != 0 {
			kind = EventCreated
		}
		w.reindex(rel, kind)
	case ev.Op&fsnotify.Remove != 0:
		w.remove(rel)
	case ev.Op&fsnotify.Rename != 0:
		// fsnotify reports a rename on the old path only; the new path
		// arrives as a Create if it stays inside a watched directory.
		w.remove(rel)
		return true
	}
	return false
}

func (w *watcher) reindex(rel, kind string) {
	data, err := w.store.Read(rel)
	if err != nil {
		w.logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	if err := IndexFile(w.db, rel, data); err != nil {
		w.logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	w.logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", kind))
	w.notify(kind, rel)
}

func (w *watcher) remove(rel string) {
	if err := w.db.DeleteNote(rel); err != nil {
		w.logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	w.logger.Debug("watcher: deleted", slog.String("path", rel))
	w.notify(EventDeleted, rel)
}

// watchNewDir starts watching a directory created at runtime and indexes
// the notes already inside it.
func (w *watcher) watchNewDir(dir string) {
	if rel, ok := w.rel(dir); !ok || ignored(w.store, rel+"/") {
		return
	}
	if err := w.addDirs(dir); err != nil {
		w.logger.Warn("watcher: add new dir failed", slog.String("path", dir), slog.String("error", err.Error()))
		return
	}
	w.logger.Debug("watcher: watching new dir", slog.String("path", dir))

	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(p, ".md") {
			return nil
		}
		if rel, ok := w.rel(p); ok {
			w.reindex(rel, EventCreated)
		}
		return nil
	})
}

// reconcile compares the index with the vault listing: entries without a
// file are removed and files whose checksum differs are reindexed.
func (w *watcher) reconcile() {
	checksums, err := w.db.AllChecksums()
	if err != nil {
		w.logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}
	metas, err := w.store.List("")
	if err != nil {
		w.logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.Path] = m.Checksum
	}
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			w.remove(p)
		}
	}
	for p, cs := range disk {
		indexed, ok := checksums[p]
		switch {
		case !ok:
			w.reindex(p, EventCreated)
		case indexed != cs:
			w.reindex(p, EventUpdated)
		}
	}
}

// addDirs adds root and its subdirectories to the watcher, skipping hidden
// directories.
func (w *watcher) addDirs(root string) error {
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
		return w.fsw.Add(p)
	})
}
