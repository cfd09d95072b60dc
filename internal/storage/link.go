package storage

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/starford/notesplit/internal/apperr"
)

// Link styles.
const (
	LinkStyleWikilink = "wikilink"
	LinkStyleMarkdown = "markdown"
)

// Linker renders links to vault documents.
type Linker struct {
	store Provider
	style string
}

// NewLinker returns a Linker for store. An empty style means wikilinks.
func NewLinker(store Provider, style string) *Linker {
	if style == "" {
		style = LinkStyleWikilink
	}
	return &Linker{store: store, style: style}
}

// MarkdownLink lists the vault paths, finds the document at p and renders
// a link to it. Wikilinks use the bare file name when it is unique in the
// vault and the full path otherwise. A missing document yields apperr.ErrNotFound.
func (l *Linker) MarkdownLink(ctx context.Context, p string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	paths, err := l.store.Paths("")
	if err != nil {
		return "", err
	}

	found := false
	base := path.Base(p)
	sameName := 0
	for _, candidate := range paths {
		if candidate == p {
			found = true
		}
		if path.Base(candidate) == base {
			sameName++
		}
	}
	if !found {
		return "", fmt.Errorf("storage: link target %s: %w", p, apperr.ErrNotFound)
	}

	stem := strings.TrimSuffix(p, ".md")
	if l.style == LinkStyleMarkdown {
		return fmt.Sprintf("[%s](%s)", path.Base(stem), escapePath(p)), nil
	}
	if sameName == 1 {
		stem = strings.TrimSuffix(base, ".md")
	}
	return "[[" + stem + "]]", nil
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}
