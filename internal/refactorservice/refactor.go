package refactorservice

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"github.com/starford/notesplit/internal/apperr"
	"github.com/starford/notesplit/internal/editor"
	"github.com/starford/notesplit/internal/index"
	"github.com/starford/notesplit/internal/models"
	"github.com/starford/notesplit/internal/refactor"
	"github.com/starford/notesplit/internal/storage"
)

// ExtractRequest moves lines StartLine..EndLine (0-based, inclusive) of a
// note into a new note. Without a Title the first selected line names the
// new note; with one, the whole selection becomes the body.
type ExtractRequest struct {
	Path      string `json:"path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Title     string `json:"title,omitempty"`
	IfMatch   string `json:"if_match,omitempty"`
	DryRun    bool   `json:"dry_run,omitempty"`
}

// SplitRequest moves everything from Line to the end of a note into a new
// note.
type SplitRequest struct {
	Path    string `json:"path"`
	Line    int    `json:"line"`
	Title   string `json:"title,omitempty"`
	IfMatch string `json:"if_match,omitempty"`
	DryRun  bool   `json:"dry_run,omitempty"`
}

// HeadingSplitRequest moves every heading block of Level into its own note.
type HeadingSplitRequest struct {
	Path    string `json:"path"`
	Level   int    `json:"level"`
	IfMatch string `json:"if_match,omitempty"`
	DryRun  bool   `json:"dry_run,omitempty"`
}

// NewNote describes a note written by a refactor.
type NewNote struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Content string `json:"content"`
	// Replacement is the text left in the source note.
	Replacement string `json:"replacement"`
	// Appended is set when the note already existed.
	Appended bool `json:"appended"`
}

// Result is the outcome of a refactor.
type Result struct {
	Source  string                  `json:"source"`
	Mode    refactor.Mode           `json:"mode"`
	Content string                  `json:"content"`
	Notes   []NewNote               `json:"notes"`
	DryRun  bool                    `json:"dry_run"`
	History []models.RefactorRecord `json:"history,omitempty"`
}

// operation is the state of one refactor on one source note.
type operation struct {
	source string
	doc    string
	stage  *storage.Staging
	linker *storage.Linker
	engine *refactor.Engine
	buf    *editor.Buffer
	result *Result
}

// ExtractSelection moves a line range into a new note and leaves the
// rendered link template in its place.
func (s *Service) ExtractSelection(ctx context.Context, req ExtractRequest) (*Result, error) {
	op, unlock, err := s.begin(req.Path, req.IfMatch, refactor.ModeReplaceSelection, req.DryRun)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := op.buf.SelectLines(req.StartLine, req.EndLine); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidRange, err)
	}
	selection := op.buf.Selection()
	if strings.TrimSpace(selection) == "" {
		return nil, fmt.Errorf("%w: selection is empty", apperr.ErrInvalidRange)
	}

	lines := refactor.SelectedLines(op.buf)
	title, contentOnly := req.Title, req.Title != ""
	if !contentOnly {
		title = lines[0]
	}
	if err := s.createNote(ctx, op, title, lines[0], lines[1:], contentOnly, selection); err != nil {
		return nil, err
	}
	return s.finish(ctx, op)
}

// SplitRemainder moves the text from a line to the end of the note into a
// new note.
func (s *Service) SplitRemainder(ctx context.Context, req SplitRequest) (*Result, error) {
	op, unlock, err := s.begin(req.Path, req.IfMatch, refactor.ModeSplit, req.DryRun)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if req.Line < 0 || req.Line >= op.buf.LineCount() {
		return nil, fmt.Errorf("%w: line %d of %d", apperr.ErrInvalidRange, req.Line, op.buf.LineCount())
	}
	op.buf.SetCursor(editor.Position{Line: req.Line})
	lines := refactor.RemainderLines(op.buf)
	original := strings.Join(lines, "\n")
	if strings.TrimSpace(original) == "" {
		return nil, fmt.Errorf("%w: nothing after line %d", apperr.ErrInvalidRange, req.Line)
	}

	title, contentOnly := req.Title, req.Title != ""
	if !contentOnly {
		title = lines[0]
	}
	if err := s.createNote(ctx, op, title, lines[0], lines[1:], contentOnly, original); err != nil {
		return nil, err
	}
	return s.finish(ctx, op)
}

// SplitByHeading moves every heading block of the requested level into a
// note named after its heading. A note without such headings is left as
// is and the result lists no notes.
func (s *Service) SplitByHeading(ctx context.Context, req HeadingSplitRequest) (*Result, error) {
	if req.Level < 1 || req.Level > 6 {
		return nil, fmt.Errorf("%w: heading level %d", apperr.ErrInvalidRange, req.Level)
	}
	op, unlock, err := s.begin(req.Path, req.IfMatch, refactor.ModeReplaceHeadings, req.DryRun)
	if err != nil {
		return nil, err
	}
	defer unlock()

	for _, block := range refactor.SplitByHeading(op.doc, req.Level) {
		if err := s.createNote(ctx, op, block[0], block[0], block[1:], false, strings.Join(block, "\n")); err != nil {
			return nil, err
		}
	}
	return s.finish(ctx, op)
}

// begin takes the service write lock and loads the source note into an
// editor buffer over a staging area. The caller must call unlock once done.
func (s *Service) begin(source, ifMatch string, mode refactor.Mode, dryRun bool) (*operation, func(), error) {
	if source == "" {
		return nil, nil, fmt.Errorf("%w: empty path", apperr.ErrNotFound)
	}
	source = path.Clean(source)
	s.writeMu.Lock()
	unlock := s.writeMu.Unlock

	data, err := s.store.Read(source)
	if err != nil {
		unlock()
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", apperr.ErrNotFound, source)
		}
		return nil, nil, err
	}
	if ifMatch != "" && ifMatch != storage.Checksum(data) {
		unlock()
		return nil, nil, fmt.Errorf("%w: %s changed", apperr.ErrConflict, source)
	}

	stage := storage.NewStaging(s.store)
	linker := storage.NewLinker(stage, s.linkStyle)
	return &operation{
		source: source,
		doc:    string(data),
		stage:  stage,
		linker: linker,
		engine: refactor.NewEngine(s.settings, linker, s.now),
		buf:    editor.NewBuffer(string(data)),
		result: &Result{Source: source, Mode: mode, Notes: []NewNote{}, DryRun: dryRun},
	}, unlock, nil
}

// createNote builds and stages one new note and writes its link into the
// source buffer.
func (s *Service) createNote(ctx context.Context, op *operation, title, firstLine string, rest []string, contentOnly bool, original string) error {
	name, err := SanitizeTitle(title)
	if err != nil {
		return err
	}
	renderer := op.engine.Renderer()
	content, docProps := op.engine.Builder().Build(firstLine, rest, contentOnly, op.doc)
	target := s.notePath(renderer.RenderFileNamePrefix(s.settings.FileNamePrefix), name)
	if target == op.source {
		return fmt.Errorf("%w: %s is the source note", apperr.ErrAlreadyExists, target)
	}

	appended, err := op.stage.Exists(target)
	if err != nil {
		return err
	}
	var existing []byte
	if appended {
		if existing, err = op.stage.Read(target); err != nil {
			return err
		}
	} else if err := op.stage.Write(target, nil); err != nil {
		return err
	}

	newLink, err := op.linker.MarkdownLink(ctx, target)
	if err != nil {
		return err
	}
	currentLink, err := op.linker.MarkdownLink(ctx, op.source)
	if err != nil {
		return err
	}
	body := renderer.Render(s.settings.NewNoteTemplate, content, refactor.Values{
		Title:          noteTitle(op.source),
		Link:           currentLink,
		NewNoteTitle:   name,
		NewNoteLink:    newLink,
		NewNotePath:    target,
		NewNoteContent: content,
		DocumentProps:  docProps,
	})
	if appended && len(strings.TrimSpace(string(existing))) > 0 {
		body = strings.TrimRight(string(existing), "\n") + "\n\n" + body
	}
	if err := op.stage.Write(target, []byte(body)); err != nil {
		return err
	}

	replacement, err := op.engine.ReplaceContent(ctx, op.buf, refactor.ReplaceRequest{
		NewNoteTitle: name,
		NewNotePath:  target,
		CurrentTitle: noteTitle(op.source),
		CurrentPath:  op.source,
		Content:      content,
		Original:     original,
		Mode:         op.result.Mode,
	})
	if err != nil {
		return err
	}

	op.result.Notes = append(op.result.Notes, NewNote{
		Path:        target,
		Title:       name,
		Content:     body,
		Replacement: replacement,
		Appended:    appended,
	})
	return nil
}

// finish stages the edited source and, unless this is a dry run, commits
// every staged file, indexes it, records history and publishes the event.
func (s *Service) finish(ctx context.Context, op *operation) (*Result, error) {
	op.result.Content = op.buf.Value()
	if len(op.result.Notes) == 0 {
		return op.result, nil
	}
	if err := op.stage.Write(op.source, []byte(op.result.Content)); err != nil {
		return nil, err
	}
	if op.result.DryRun {
		return op.result, nil
	}

	if err := op.stage.Commit(); err != nil {
		return nil, fmt.Errorf("refactorservice: write notes: %w", err)
	}
	for _, p := range op.stage.Staged() {
		data, err := op.stage.Read(p)
		if err == nil {
			err = index.IndexFile(s.db, p, data)
		}
		if err != nil {
			s.logger.Warn("refactor: index failed", slog.String("path", p), slog.String("error", err.Error()))
		}
	}

	targets := make([]string, 0, len(op.result.Notes))
	for _, n := range op.result.Notes {
		targets = append(targets, n.Path)
		rec, err := s.db.RecordRefactor(ctx, models.RefactorRecord{
			Source: op.source,
			Target: n.Path,
			Mode:   string(op.result.Mode),
		})
		if err != nil {
			s.logger.Warn("refactor: record history failed", slog.String("target", n.Path), slog.String("error", err.Error()))
			continue
		}
		op.result.History = append(op.result.History, rec)
	}
	s.publisher.PublishRefactor(op.source, string(op.result.Mode), targets)

	s.logger.Info("refactor: done",
		slog.String("source", op.source),
		slog.String("mode", string(op.result.Mode)),
		slog.Int("notes", len(targets)))
	return op.result, nil
}
