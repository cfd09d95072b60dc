package mcpserver

import (
	"fmt"
	"strings"

	"github.com/starford/notesplit/internal/refactor"
)

const templateReferenceTail = `
## Properties

` + "`{{prop[Key]}}`" + ` is replaced by the value of ` + "`Key`" + ` in the metadata block at the top
of the moved text (link template) or of the source note (new note template):

` + "```" + `markdown
Author: Jean Dupont
Source: Wikipedia
***
Body starts here.
` + "```" + `

Metadata lines look like ` + "`Key: Value`" + `; scanning stops at the first ` + "`***`" + ` line.
Unknown keys render as an empty string.

## Dates

` + "`{{date}}`" + ` renders the current time as ` + "`" + refactor.DefaultDateFormat + "`" + `.
` + "`{{date:FORMAT}}`" + ` uses a moment.js style FORMAT, e.g. ` + "`{{date:YYYY-MM-DD HH:mm}}`" + `.
Text in square brackets is copied literally: ` + "`{{date:[Week] W}}`" + `.

## Order

Dates are expanded first, then the placeholders above in the order listed,
then properties. An empty template leaves the plain link.
`

// TemplateReference documents the template surface together with the
// templates currently configured.
func TemplateReference(settings refactor.Settings) string {
	var b strings.Builder
	b.WriteString("# notesplit Template Reference\n\n")
	b.WriteString("Templates control the text left in the source note (link template) and the\n")
	b.WriteString("body of each new note (new note template).\n\n")

	b.WriteString("## Configured templates\n\n")
	fmt.Fprintf(&b, "- link template: `%s`\n", orNone(settings.NoteLinkTemplate))
	fmt.Fprintf(&b, "- new note template: `%s`\n", orNone(settings.NewNoteTemplate))
	fmt.Fprintf(&b, "- file name prefix: `%s`\n", orNone(settings.FileNamePrefix))
	fmt.Fprintf(&b, "- transclude by default: %t\n\n", settings.TranscludeByDefault)

	b.WriteString("## Placeholders\n\n")
	b.WriteString("| Placeholder | Value |\n|---|---|\n")
	for _, p := range refactor.Placeholders() {
		fmt.Fprintf(&b, "| `%s` | %s |\n", p.Token, placeholderDocs[p])
	}
	b.WriteString(templateReferenceTail)
	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
