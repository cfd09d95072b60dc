package refactor

import "time"

// Values are the substitutions available to a template.
type Values struct {
	Title          string
	Link           string
	NewNoteTitle   string
	NewNoteLink    string
	NewNotePath    string
	NewNoteContent string

	// Props feeds {{prop[Key]}}. When nil, DocumentProps is used instead,
	// typically the metadata returned by ContentBuilder.Build.
	Props         Metadata
	DocumentProps Metadata
}

func (v Values) props() Metadata {
	if v.Props.IsNil() {
		return v.DocumentProps
	}
	return v.Props
}

func (v Values) fixed(p Placeholder) string {
	switch p {
	case TitlePlaceholder:
		return v.Title
	case LinkPlaceholder:
		return v.Link
	case NewNoteTitlePlaceholder:
		return v.NewNoteTitle
	case NewNoteLinkPlaceholder:
		return v.NewNoteLink
	case NewNoteContentPlaceholder:
		return v.NewNoteContent
	case NewNotePathPlaceholder:
		return v.NewNotePath
	}
	return ""
}

// Renderer expands templates.
type Renderer struct {
	now func() time.Time
}

// NewRenderer returns a Renderer reading the current time from now.
// A nil now uses time.Now.
func NewRenderer(now func() time.Time) *Renderer {
	if now == nil {
		now = time.Now
	}
	return &Renderer{now: now}
}

// Render expands tmpl with v. Date tokens are expanded first, then the
// fixed placeholders in registry order, then {{prop[Key]}} tokens.
// An empty tmpl yields fallback untouched.
func (r *Renderer) Render(tmpl, fallback string, v Values) string {
	if tmpl == "" {
		return fallback
	}
	out := ReplaceDates(tmpl, r.now())
	for _, p := range Placeholders() {
		out = p.Replace(out, v.fixed(p))
	}
	return replaceProps(out, v.props())
}

// RenderFileNamePrefix expands the date tokens of a file name prefix.
func (r *Renderer) RenderFileNamePrefix(prefix string) string {
	return ReplaceDates(prefix, r.now())
}
