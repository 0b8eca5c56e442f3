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

	"github.com/timmcelreath/obsidian-journal-analyzer/internal/storage"
)

// Event kinds passed to EventCallback.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// EventCallback is called after a watcher-driven index change.
type EventCallback func(kind string, path string)

// renameSettle is how long the watcher waits after a rename before
// reconciling the index against disk.
const renameSettle = 200 * time.Millisecond

// watcher reacts to vault file events by updating the index.
type watcher struct {
	db     *DB
	store  storage.Provider
	root   string
	logger *slog.Logger
	notify EventCallback
}

func (wt *watcher) emit(kind, path string) {
	if wt.notify != nil {
		wt.notify(kind, path)
	}
}

// Watch follows vault changes until ctx is cancelled, keeping the index in
// step with disk. Directories created at runtime (a fresh journal/meta
// folder, say) join the watch list automatically. Renames trigger a short
// reconciliation pass since fsnotify reports only the old path.
func Watch(ctx context.Context, db *DB, store storage.Provider, vaultRoot string, logger *slog.Logger, cb EventCallback) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := watchTree(fsw, vaultRoot); err != nil {
		return err
	}

	wt := &watcher{db: db, store: store, root: vaultRoot, logger: logger, notify: cb}
	logger.Info("watcher: started", slog.String("root", vaultRoot))

	var settle *time.Timer
	var settled <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if settle != nil {
				settle.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-settled:
			wt.reconcile()

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if wt.handle(fsw, ev) {
				if settle == nil {
					settle = time.NewTimer(renameSettle)
					settled = settle.C
				} else {
					settle.Reset(renameSettle)
				}
			}

		case werr, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", werr.Error()))
		}
	}
}

// handle processes one fsnotify event and reports whether a reconciliation
// pass should be scheduled.
func (wt *watcher) handle(fsw *fsnotify.Watcher, ev fsnotify.Event) bool {
	// Directories created at runtime join the watch list immediately.
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := watchTree(fsw, ev.Name); err != nil {
				wt.logger.Warn("watcher: add new dir failed",
					slog.String("path", ev.Name),
					slog.String("error", err.Error()))
			} else {
				wt.logger.Debug("watcher: watching new dir", slog.String("path", ev.Name))
			}
			wt.indexTree(ev.Name)
			return false
		}
	}

	// Only .md files matter from here on. Atomic-write temp files
	// (.journal-tmp-*) carry no extension and fall out here.
	if !strings.HasSuffix(ev.Name, ".md") {
		return false
	}
	rel, err := filepath.Rel(wt.root, ev.Name)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		wt.upsert(rel, ev.Op&fsnotify.Create != 0)

	case ev.Op&fsnotify.Remove != 0:
		wt.drop(rel)

	case ev.Op&fsnotify.Rename != 0:
		// fsnotify reports the OLD path only. The new path shows up as a
		// separate Create if it lands in a watched dir, so drop the old
		// entry now and reconcile shortly for anything missed.
		wt.drop(rel)
		return true
	}
	return false
}

// upsert reads rel from the vault and reindexes it.
func (wt *watcher) upsert(rel string, created bool) {
	data, err := wt.store.Read(rel)
	if err != nil {
		wt.logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	if err := indexFile(wt.db, rel, data, time.Now()); err != nil {
		wt.logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	kind := EventUpdated
	if created {
		kind = EventCreated
	}
	wt.logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", kind))
	wt.emit(kind, rel)
}

// drop removes rel from the index.
func (wt *watcher) drop(rel string) {
	if err := wt.db.DeleteNote(rel); err != nil {
		wt.logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", err.Error()))
		return
	}
	wt.logger.Debug("watcher: deleted", slog.String("path", rel))
	wt.emit(EventDeleted, rel)
}

// reconcile removes index entries whose files are gone and indexes files the
// event stream missed.
func (wt *watcher) reconcile() {
	indexed, err := wt.db.AllChecksums()
	if err != nil {
		wt.logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}
	files, err := wt.store.List("")
	if err != nil {
		wt.logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]struct{}, len(files))
	for _, f := range files {
		disk[f.Path] = struct{}{}
	}

	for path := range indexed {
		if _, ok := disk[path]; ok {
			continue
		}
		if err := wt.db.DeleteNote(path); err == nil {
			wt.logger.Debug("reconcile: removed stale", slog.String("path", path))
			wt.emit(EventDeleted, path)
		}
	}

	for _, f := range files {
		if indexed[f.Path] == f.Checksum {
			continue
		}
		data, err := wt.store.Read(f.Path)
		if err != nil {
			continue
		}
		if err := indexFile(wt.db, f.Path, data, f.UpdatedAt); err == nil {
			wt.logger.Debug("reconcile: indexed new", slog.String("path", f.Path))
			wt.emit(EventCreated, f.Path)
		}
	}
}

// indexTree indexes any .md files already present under dir, which covers
// directories moved into the vault wholesale.
func (wt *watcher) indexTree(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		rel, relErr := filepath.Rel(wt.root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		data, readErr := wt.store.Read(rel)
		if readErr != nil {
			return nil
		}
		mtime := time.Now()
		if info, infoErr := d.Info(); infoErr == nil {
			mtime = info.ModTime()
		}
		if idxErr := indexFile(wt.db, rel, data, mtime); idxErr == nil {
			wt.logger.Debug("watcher: indexed from new dir", slog.String("path", rel))
			wt.emit(EventCreated, rel)
		}
		return nil
	})
}

// watchTree adds root and every directory below it to the watcher.
func watchTree(w *fsnotify.Watcher, root string) error {
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
