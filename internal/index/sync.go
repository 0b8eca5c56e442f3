package index

import (
	"log/slog"
	"time"

	"github.com/timmcelreath/obsidian-journal-analyzer/internal/checksum"
	"github.com/timmcelreath/obsidian-journal-analyzer/internal/parser"
	"github.com/timmcelreath/obsidian-journal-analyzer/internal/storage"
)

// SyncStats summarizes one sync pass.
type SyncStats struct {
	Indexed int
	Removed int
}

// Sync reconciles the index with the vault: new and changed files are
// reindexed, files gone from disk are dropped. Per-file failures are logged
// and skipped so one bad note cannot stall the pass.
func Sync(db *DB, store storage.Provider, logger *slog.Logger) (SyncStats, error) {
	var stats SyncStats

	files, err := store.List("")
	if err != nil {
		return stats, err
	}
	indexed, err := db.AllChecksums()
	if err != nil {
		return stats, err
	}

	onDisk := make(map[string]struct{}, len(files))
	for _, f := range files {
		onDisk[f.Path] = struct{}{}
		if indexed[f.Path] == f.Checksum {
			continue
		}
		data, err := store.Read(f.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", f.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, f.Path, data, f.UpdatedAt); err != nil {
			logger.Warn("sync: index failed", slog.String("path", f.Path), slog.String("error", err.Error()))
			continue
		}
		stats.Indexed++
	}

	for path := range indexed {
		if _, live := onDisk[path]; live {
			continue
		}
		if err := db.DeleteNote(path); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		stats.Removed++
	}

	return stats, nil
}

// indexFile parses data and writes the note, its links, and tags to the index.
// mtime becomes the row's updated_at so listings sorted by recency reflect the
// file, not the sync pass.
func indexFile(db *DB, path string, data []byte, mtime time.Time) error {
	doc := parser.Parse(data)
	return db.UpsertNote(NoteRow{
		Path:      path,
		Title:     doc.Title,
		Checksum:  checksum.Sum(data),
		Tags:      doc.Tags,
		UpdatedAt: mtime,
	}, doc.Body, doc.Links)
}
