package refactor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var welcomeNote = []string{
	"Hi there! I'm a note in your vault.",
	"",
	"At the same time, I'm also just a Markdown file sitting on your hard disk.",
	"",
	"## Quick Start",
	"- How to ![[Create notes|create new notes]].",
	"- How to use [Markdown](https://www.markdownguide.org) to [[Format your notes]]",
	"",
	"### Workflows",
	"- How to [[Working with multiple notes|open multiple files side by side]]",
	"",
}

func lines(s string) []string {
	return strings.Split(s, "\n")
}

func TestBuild_ContentOnlyKeepsFirstLine(t *testing.T) {
	b := NewContentBuilder(Settings{ExcludeFirstLineInNote: true})
	body, md := b.Build(welcomeNote[0], welcomeNote[1:], true, "")

	out := lines(body)
	assert.Equal(t, "Hi there! I'm a note in your vault.", out[0])
	assert.Equal(t, "- How to [[Working with multiple notes|open multiple files side by side]]", out[len(out)-1])
	assert.True(t, md.IsNil())
}

func TestBuild_ExcludeFirstLine(t *testing.T) {
	b := NewContentBuilder(Settings{ExcludeFirstLineInNote: true})
	body, _ := b.Build(welcomeNote[0], welcomeNote[1:], false, "")

	out := lines(body)
	assert.Equal(t, welcomeNote[2], out[0], "leading blank line is trimmed away")
	assert.Equal(t, "- How to ![[Create notes|create new notes]].", out[3])
}

func TestBuild_FirstLineAsHeading(t *testing.T) {
	b := NewContentBuilder(Settings{IncludeFirstLineAsNoteHeading: true, HeadingFormat: "#"})
	body, _ := b.Build(welcomeNote[0], welcomeNote[1:], false, "")

	out := lines(body)
	assert.Equal(t, "# Hi there! I'm a note in your vault.", out[0])
	assert.Equal(t, "- How to use [Markdown](https://www.markdownguide.org) to [[Format your notes]]", out[6])
}

func TestBuild_FirstLineHeadingReplacesExistingMarkup(t *testing.T) {
	b := NewContentBuilder(Settings{IncludeFirstLineAsNoteHeading: true, HeadingFormat: "#"})
	body, _ := b.Build(welcomeNote[4], welcomeNote[5:9], false, "")

	out := lines(body)
	assert.Equal(t, "# Quick Start", out[0])
	assert.Equal(t, "### Workflows", out[len(out)-1])
}

func TestBuild_HeadingWinsOverContentOnly(t *testing.T) {
	b := NewContentBuilder(Settings{IncludeFirstLineAsNoteHeading: true, HeadingFormat: "##", ExcludeFirstLineInNote: true})
	body, _ := b.Build("Title", []string{"x"}, true, "")
	assert.Equal(t, "## Title\nx", body)
}

func TestBuild_EmptyHeadingFormatIsTrimmed(t *testing.T) {
	b := NewContentBuilder(Settings{IncludeFirstLineAsNoteHeading: true})
	body, _ := b.Build("## Title", []string{"x"}, false, "")
	assert.Equal(t, "Title\nx", body)
}

func TestBuild_NormalizeHeaderLevels(t *testing.T) {
	b := NewContentBuilder(Settings{NormalizeHeaderLevels: true})
	body, _ := b.Build("## I have questions.", []string{"", "Some text.", "", "### Header 3", "", "This is for testing."}, true, "")

	out := lines(body)
	assert.Equal(t, "# I have questions.", out[0])
	assert.Equal(t, "## Header 3", out[4])
	assert.Equal(t, "This is for testing.", out[len(out)-1])
}

func TestBuild_DoesNotMutateRest(t *testing.T) {
	rest := []string{"### a", "b"}
	b := NewContentBuilder(Settings{NormalizeHeaderLevels: true})
	_, _ = b.Build("first", rest, false, "")
	assert.Equal(t, []string{"### a", "b"}, rest)
}

func TestBuild_ReturnsDocumentMetadata(t *testing.T) {
	b := NewContentBuilder(DefaultSettings())
	doc := "Source: Book\n***\nbody"
	_, md := b.Build("body", nil, false, doc)
	require.False(t, md.IsNil())
	v, _ := md.Get("Source")
	assert.Equal(t, "Book", v)
}

func TestBuild_TrimsResult(t *testing.T) {
	b := NewContentBuilder(DefaultSettings())
	body, _ := b.Build("  first", []string{"", "last  ", ""}, false, "")
	assert.Equal(t, "first\n\nlast", body)
}
