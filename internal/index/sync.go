package index

import (
	"log/slog"
	"time"

	"github.com/starford/notesplit/internal/parser"
	"github.com/starford/notesplit/internal/storage"
)

// Sync walks the vault and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	indexed := 0
	for _, m := range metas {
		disk[m.Path] = struct{}{}
		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexFile(db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		indexed++
	}

	removed := 0
	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := db.DeleteNote(p); err != nil {
			logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		removed++
	}

	logger.Info("sync: done",
		slog.Int("files", len(metas)),
		slog.Int("indexed", indexed),
		slog.Int("removed", removed))
	return nil
}

// IndexFile parses data and upserts it into the index.
func IndexFile(db NoteIndex, path string, data []byte) error {
	res := parser.Parse(data)
	return db.UpsertNote(NoteRow{
		Path:      path,
		Title:     res.Title,
		Checksum:  storage.Checksum(data),
		Props:     res.Props,
		UpdatedAt: time.Now(),
	}, res.Links)
}
