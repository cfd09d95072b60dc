// Package parser extracts the fields the index keeps about a note: title,
// wikilink targets and properties from frontmatter or the metadata preamble.
package parser

import (
	"bytes"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/notesplit/internal/refactor"
)

var wikilinkRe = regexp.MustCompile(`!?\[\[(.*?)\]\]`)

// Result holds the output of parsing a Markdown file.
type Result struct {
	Title string
	Body  string
	Links []string
	Props refactor.Metadata
}

// Parse extracts title, links and properties from raw Markdown bytes.
// Invalid frontmatter is treated as body text.
func Parse(data []byte) *Result {
	fm, body := splitFrontmatter(data)

	props := refactor.ExtractMetadata(body)
	for _, k := range slices.Sorted(maps.Keys(fm)) {
		if s, ok := scalar(fm[k]); ok {
			props.Set(k, s)
		}
	}

	return &Result{
		Title: deriveTitle(fm, body),
		Body:  body,
		Links: extractLinks(body),
		Props: props,
	}
}

// splitFrontmatter separates YAML frontmatter (between leading --- lines)
// from the body. Without a well-formed block the whole input is body.
func splitFrontmatter(data []byte) (map[string]any, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	var fm map[string]any
	if err := yaml.Unmarshal(rest[:idx], &fm); err != nil {
		return nil, string(data)
	}
	body := strings.TrimLeft(string(rest[idx+1+len(delim):]), "\n\r")
	return fm, body
}

// extractLinks returns deduplicated wikilink targets. Aliases, headings and
// block references are dropped: [[Target#Heading|Alias]] → Target.
func extractLinks(body string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		target := m[1]
		if i := strings.IndexAny(target, "|#^"); i >= 0 {
			target = target[:i]
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// deriveTitle returns the frontmatter "title" if present, otherwise the
// first level-1 heading, otherwise the empty string.
func deriveTitle(fm map[string]any, body string) string {
	if t, ok := scalar(fm["title"]); ok && t != "" {
		return t
	}
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimRight(line, "\r")
		if refactor.HeadingLevel(line) == 1 {
			return strings.TrimSpace(refactor.StripHeading(line))
		}
	}
	return ""
}

func scalar(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case bool, int, int64, float64:
		return fmt.Sprint(x), true
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 {
			return x.Format(time.DateOnly), true
		}
		return x.Format(time.RFC3339), true
	}
	return "", false
}
