package refactor

import (
	"regexp"
	"strings"
)

// Placeholder is a fixed template token.
type Placeholder struct {
	Name  string
	Token string
}

// Replace substitutes every occurrence of the token in s with value.
func (p Placeholder) Replace(s, value string) string {
	return strings.ReplaceAll(s, p.Token, value)
}

// The fixed placeholders. Their spellings are shared with existing user
// templates and must not change.
var (
	TitlePlaceholder          = Placeholder{Name: "title", Token: "{{title}}"}
	LinkPlaceholder           = Placeholder{Name: "link", Token: "{{link}}"}
	NewNoteTitlePlaceholder   = Placeholder{Name: "new_note_title", Token: "{{new_note_title}}"}
	NewNoteLinkPlaceholder    = Placeholder{Name: "new_note_link", Token: "{{new_note_link}}"}
	NewNoteContentPlaceholder = Placeholder{Name: "new_note_content", Token: "{{new_note_content}}"}
	NewNotePathPlaceholder    = Placeholder{Name: "new_note_path", Token: "{{new_note_path}}"}
)

// Placeholders lists the fixed placeholders in the order they are applied.
func Placeholders() []Placeholder {
	return []Placeholder{
		TitlePlaceholder,
		LinkPlaceholder,
		NewNoteTitlePlaceholder,
		NewNoteLinkPlaceholder,
		NewNoteContentPlaceholder,
		NewNotePathPlaceholder,
	}
}

var propRe = regexp.MustCompile(`\{\{prop\[([^\]]+)\]\}\}`)

// replaceProps substitutes every {{prop[Key]}} with the matching value from
// md, or with the empty string when the key is absent.
func replaceProps(s string, md Metadata) string {
	return propRe.ReplaceAllStringFunc(s, func(token string) string {
		key := propRe.FindStringSubmatch(token)[1]
		v, _ := md.Get(key)
		return v
	})
}
