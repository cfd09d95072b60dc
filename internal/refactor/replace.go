package refactor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/starford/notesplit/internal/apperr"
	"github.com/starford/notesplit/internal/editor"
)

// Mode selects where the rendered replacement text goes in the source note.
type Mode string

// Replace modes.
const (
	// ModeSplit replaces everything from the cursor to the end of the note.
	ModeSplit Mode = "split"
	// ModeReplaceSelection replaces the active selection.
	ModeReplaceSelection Mode = "replace-selection"
	// ModeReplaceHeadings replaces the first literal occurrence of the
	// original text in the note.
	ModeReplaceHeadings Mode = "replace-headings"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeSplit, ModeReplaceSelection, ModeReplaceHeadings:
		return true
	}
	return false
}

// TransclusionMarker is prefixed to links that embed their target.
const TransclusionMarker = "!"

// Editor is the document the replacement is written into.
type Editor interface {
	Value() string
	SetValue(text string)
	Cursor() editor.Position
	SetCursor(p editor.Position)
	Selection() string
	ReplaceSelection(text string)
	ReplaceRange(text string, from, to editor.Position)
	OffsetToPos(offset int) editor.Position
	Range(from, to editor.Position) string
}

var _ Editor = (*editor.Buffer)(nil)

// Linker renders a link to a vault document.
type Linker interface {
	MarkdownLink(ctx context.Context, path string) (string, error)
}

// Engine ties content building, rendering and replacement together. It
// holds no per-call state and may be shared.
type Engine struct {
	settings Settings
	builder  *ContentBuilder
	renderer *Renderer
	linker   Linker
}

// NewEngine returns an Engine. A nil now uses time.Now.
func NewEngine(settings Settings, linker Linker, now func() time.Time) *Engine {
	return &Engine{
		settings: settings,
		builder:  NewContentBuilder(settings),
		renderer: NewRenderer(now),
		linker:   linker,
	}
}

// Builder returns the content builder.
func (e *Engine) Builder() *ContentBuilder {
	return e.builder
}

// Renderer returns the template renderer.
func (e *Engine) Renderer() *Renderer {
	return e.renderer
}

// ReplaceRequest describes one replacement in the source note.
type ReplaceRequest struct {
	NewNoteTitle string
	NewNotePath  string
	CurrentTitle string
	CurrentPath  string
	// Content is the body of the new note.
	Content string
	// Original is the text taken out of the source note. Its metadata
	// feeds {{prop[Key]}}; in ModeReplaceHeadings it is also the text
	// that gets replaced.
	Original string
	Mode     Mode
}

// ReplaceContent renders the note link template and writes the result into
// ed according to req.Mode. Linker errors are returned as is. An unknown
// mode leaves ed untouched and returns apperr.ErrUnknownMode.
func (e *Engine) ReplaceContent(ctx context.Context, ed Editor, req ReplaceRequest) (string, error) {
	if !req.Mode.Valid() {
		return "", fmt.Errorf("%w: %q", apperr.ErrUnknownMode, req.Mode)
	}

	link, err := e.linker.MarkdownLink(ctx, req.NewNotePath)
	if err != nil {
		return "", err
	}
	currentLink, err := e.linker.MarkdownLink(ctx, req.CurrentPath)
	if err != nil {
		return "", err
	}

	fallback := link
	if e.settings.TranscludeByDefault {
		fallback = TransclusionMarker + link
	}

	text := e.renderer.Render(e.settings.NoteLinkTemplate, fallback, Values{
		Title:          req.CurrentTitle,
		Link:           currentLink,
		NewNoteTitle:   req.NewNoteTitle,
		NewNoteLink:    link,
		NewNotePath:    req.NewNotePath,
		NewNoteContent: req.Content,
		Props:          ExtractMetadata(req.Original),
	})

	switch req.Mode {
	case ModeSplit:
		end := ed.OffsetToPos(len(ed.Value()))
		ed.ReplaceRange(text, ed.Cursor(), end)
	case ModeReplaceSelection:
		ed.ReplaceSelection(text)
	case ModeReplaceHeadings:
		ed.SetValue(strings.Replace(ed.Value(), req.Original, text, 1))
	}
	return text, nil
}

// SelectedLines returns the trimmed selection split into lines.
func SelectedLines(ed Editor) []string {
	return strings.Split(strings.TrimSpace(ed.Selection()), "\n")
}

// RemainderLines moves the cursor to the start of its line and returns the
// trimmed text from there to the end of the note, split into lines.
func RemainderLines(ed Editor) []string {
	ed.SetCursor(editor.Position{Line: ed.Cursor().Line})
	end := ed.OffsetToPos(len(ed.Value()))
	return strings.Split(strings.TrimSpace(ed.Range(ed.Cursor(), end)), "\n")
}
