package refactorservice

import (
	"fmt"
	"path"
	"strings"

	"github.com/starford/notesplit/internal/apperr"
	"github.com/starford/notesplit/internal/refactor"
)

var titleReplacer = strings.NewReplacer(
	"*", "", `"`, "", `\`, "", "/", "", "<", "", ">", "",
	":", "", "|", "", "?", "", "#", "", "^", "", "[", "", "]", "",
)

// SanitizeTitle turns a line of text into a file-name safe note title:
// heading markup and characters unusable in links or file names are
// removed and runs of whitespace collapse to one space.
func SanitizeTitle(line string) (string, error) {
	t := titleReplacer.Replace(refactor.StripHeading(strings.TrimSpace(line)))
	t = strings.Join(strings.Fields(t), " ")
	if t == "" {
		return "", fmt.Errorf("%w: %q", apperr.ErrInvalidTitle, line)
	}
	return t, nil
}

// notePath returns the vault path of the note named title.
func (s *Service) notePath(prefix, title string) string {
	return path.Join(s.notesFolder, prefix+title+".md")
}

// noteTitle is the title of the note at p as used by {{title}}.
func noteTitle(p string) string {
	return strings.TrimSuffix(path.Base(p), ".md")
}
