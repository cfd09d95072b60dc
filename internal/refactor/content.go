package refactor

import "strings"

// Settings controls how new notes are assembled and how the replacement
// text left in the source note is rendered.
type Settings struct {
	TranscludeByDefault           bool
	NoteLinkTemplate              string
	NewNoteTemplate               string
	FileNamePrefix                string
	IncludeFirstLineAsNoteHeading bool
	HeadingFormat                 string
	ExcludeFirstLineInNote        bool
	NormalizeHeaderLevels         bool
}

// DefaultSettings mirrors the defaults of a fresh configuration.
func DefaultSettings() Settings {
	return Settings{
		NoteLinkTemplate: "{{new_note_link}}",
		HeadingFormat:    "#",
	}
}

// ContentBuilder assembles the body of a new note from a selected range.
type ContentBuilder struct {
	settings Settings
}

// NewContentBuilder returns a ContentBuilder using settings.
func NewContentBuilder(settings Settings) *ContentBuilder {
	return &ContentBuilder{settings: settings}
}

// Build returns the new note body made of firstLine and rest.
//
// When fullDocument is not empty its preamble metadata is extracted and
// returned so the caller can hand it to the renderer; otherwise the
// returned Metadata is nil.
//
// contentOnly forces the first line to be kept even when the settings
// exclude it, since the caller named the note some other way.
func (b *ContentBuilder) Build(firstLine string, rest []string, contentOnly bool, fullDocument string) (string, Metadata) {
	var md Metadata
	if fullDocument != "" {
		md = ExtractMetadata(fullDocument)
	}

	lines := make([]string, 0, len(rest)+1)
	switch {
	case b.settings.IncludeFirstLineAsNoteHeading:
		heading := strings.TrimSpace(b.settings.HeadingFormat + " " + StripHeading(firstLine))
		lines = append(lines, heading)
	case !b.settings.ExcludeFirstLineInNote || contentOnly:
		lines = append(lines, firstLine)
	}
	lines = append(lines, rest...)

	if b.settings.NormalizeHeaderLevels {
		lines = NormalizeHeadingLevels(lines)
	}

	return strings.TrimSpace(strings.Join(lines, "\n")), md
}
