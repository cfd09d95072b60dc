package refactorservice

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"time"

	"github.com/starford/notesplit/internal/apperr"
	"github.com/starford/notesplit/internal/models"
	"github.com/starford/notesplit/internal/parser"
	"github.com/starford/notesplit/internal/refactor"
	"github.com/starford/notesplit/internal/storage"
)

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	Path      string            `json:"path"`
	Title     string            `json:"title"`
	Content   string            `json:"content"`
	Checksum  string            `json:"checksum"`
	Props     refactor.Metadata `json:"props"`
	Links     []string          `json:"links"`
	Backlinks []string          `json:"backlinks"`
	// IndexedAt is when the index last saw the note; nil when not indexed.
	IndexedAt *time.Time `json:"indexed_at,omitempty"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	Path      string            `json:"path"`
	Title     string            `json:"title"`
	Checksum  string            `json:"checksum"`
	Props     refactor.Metadata `json:"props"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// RenderRequest renders a template outside of a refactor. When Path is set
// the note is read from the vault: its content becomes Document and it
// supplies defaults for Title and Link.
type RenderRequest struct {
	Template       string            `json:"template"`
	Fallback       string            `json:"fallback,omitempty"`
	Path           string            `json:"path,omitempty"`
	Document       string            `json:"document,omitempty"`
	Title          string            `json:"title,omitempty"`
	Link           string            `json:"link,omitempty"`
	NewNoteTitle   string            `json:"new_note_title,omitempty"`
	NewNoteLink    string            `json:"new_note_link,omitempty"`
	NewNotePath    string            `json:"new_note_path,omitempty"`
	NewNoteContent string            `json:"new_note_content,omitempty"`
	Props          refactor.Metadata `json:"props"`
}

// ReadNote reads a note and enriches it with index data.
func (s *Service) ReadNote(_ context.Context, p string) (*NoteDetail, error) {
	p = path.Clean(p)
	data, err := s.read(p)
	if err != nil {
		return nil, err
	}
	res := parser.Parse(data)
	bl, err := s.db.Backlinks(p)
	if err != nil {
		return nil, err
	}
	note := &NoteDetail{
		Path:      p,
		Title:     res.Title,
		Content:   string(data),
		Checksum:  storage.Checksum(data),
		Props:     res.Props,
		Links:     nonNilSlice(res.Links),
		Backlinks: nonNilSlice(bl),
	}

	row, err := s.db.GetNote(p)
	switch {
	case err == nil:
		note.IndexedAt = &row.UpdatedAt
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, err
	}
	return note, nil
}

// ListNotes returns one page of indexed notes and the total count.
func (s *Service) ListNotes(_ context.Context, limit, offset int) ([]NoteListItem, int, error) {
	rows, total, err := s.db.ListNotes(limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items := make([]NoteListItem, len(rows))
	for i, r := range rows {
		items[i] = NoteListItem{
			Path:      r.Path,
			Title:     r.Title,
			Checksum:  r.Checksum,
			Props:     r.Props,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Backlinks returns the notes linking to target.
func (s *Service) Backlinks(_ context.Context, target string) ([]string, error) {
	bl, err := s.db.Backlinks(target)
	return nonNilSlice(bl), err
}

// History returns recent refactors, optionally only those of source.
func (s *Service) History(ctx context.Context, source string, limit int) ([]models.RefactorRecord, error) {
	recs, err := s.db.History(ctx, source, limit)
	return nonNilSlice(recs), err
}

// ExtractMetadata returns the preamble metadata of text, or of the note at
// path when path is set.
func (s *Service) ExtractMetadata(_ context.Context, p, text string) (refactor.Metadata, error) {
	if p != "" {
		data, err := s.read(path.Clean(p))
		if err != nil {
			return refactor.Metadata{}, err
		}
		text = string(data)
	}
	return refactor.ExtractMetadata(text), nil
}

// Render expands a template with the configured clock.
func (s *Service) Render(ctx context.Context, req RenderRequest) (string, error) {
	if req.Path != "" {
		req.Path = path.Clean(req.Path)
		data, err := s.read(req.Path)
		if err != nil {
			return "", err
		}
		req.Document = string(data)
		if req.Title == "" {
			req.Title = noteTitle(req.Path)
		}
		if req.Link == "" {
			link, err := storage.NewLinker(s.store, s.linkStyle).MarkdownLink(ctx, req.Path)
			if err != nil {
				return "", err
			}
			req.Link = link
		}
	}

	var docProps refactor.Metadata
	if req.Document != "" {
		docProps = refactor.ExtractMetadata(req.Document)
	}
	return refactor.NewRenderer(s.now).Render(req.Template, req.Fallback, refactor.Values{
		Title:          req.Title,
		Link:           req.Link,
		NewNoteTitle:   req.NewNoteTitle,
		NewNoteLink:    req.NewNoteLink,
		NewNotePath:    req.NewNotePath,
		NewNoteContent: req.NewNoteContent,
		Props:          req.Props,
		DocumentProps:  docProps,
	}), nil
}

func (s *Service) read(p string) ([]byte, error) {
	data, err := s.store.Read(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", apperr.ErrNotFound, p)
	}
	return data, err
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
