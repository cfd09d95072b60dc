package index

import (
	"context"

	"github.com/starford/notesplit/internal/models"
)

// NoteIndex is the subset of index operations the service layer needs.
type NoteIndex interface {
	UpsertNote(n NoteRow, links []string) error
	DeleteNote(path string) error
	GetNote(path string) (*NoteRow, error)
	ListNotes(limit, offset int) ([]NoteRow, int, error)
	Backlinks(path string) ([]string, error)
	RecordRefactor(ctx context.Context, rec models.RefactorRecord) (models.RefactorRecord, error)
	History(ctx context.Context, source string, limit int) ([]models.RefactorRecord, error)
}

// Verify *DB satisfies NoteIndex at compile time.
var _ NoteIndex = (*DB)(nil)
