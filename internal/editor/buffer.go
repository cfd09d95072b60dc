// Package editor provides an in-memory text buffer with a cursor and a
// selection, addressed by line/column positions.
package editor

import (
	"errors"
	"fmt"
	"strings"
)

// ErrOutOfRange is returned when a line range does not fit the buffer.
var ErrOutOfRange = errors.New("editor: line range out of bounds")

// Position addresses a location in the buffer. Line is 0-based; Ch is a
// byte column within the line.
type Position struct {
	Line int `json:"line"`
	Ch   int `json:"ch"`
}

// Before reports whether p comes strictly before o.
func (p Position) Before(o Position) bool {
	return p.Line < o.Line || (p.Line == o.Line && p.Ch < o.Ch)
}

// Buffer is a document being edited. It is not safe for concurrent use.
type Buffer struct {
	text   string
	anchor Position
	head   Position
}

// NewBuffer returns a buffer holding text with the cursor at the start.
func NewBuffer(text string) *Buffer {
	return &Buffer{text: text}
}

// Value returns the whole document.
func (b *Buffer) Value() string {
	return b.text
}

// SetValue replaces the whole document. The cursor is clamped to the new
// text and the selection collapsed onto it.
func (b *Buffer) SetValue(text string) {
	b.text = text
	b.SetCursor(b.head)
}

// LineCount returns the number of lines; an empty document has one line.
func (b *Buffer) LineCount() int {
	return strings.Count(b.text, "\n") + 1
}

// Line returns the text of line n without its newline.
func (b *Buffer) Line(n int) string {
	lines := strings.Split(b.text, "\n")
	if n < 0 || n >= len(lines) {
		return ""
	}
	return lines[n]
}

// Cursor returns the cursor (the selection head).
func (b *Buffer) Cursor() Position {
	return b.head
}

// SetCursor moves the cursor to p, clamped to the document, and collapses
// the selection.
func (b *Buffer) SetCursor(p Position) {
	p = b.clip(p)
	b.anchor, b.head = p, p
}

// SetSelection selects the text between from and to.
func (b *Buffer) SetSelection(from, to Position) {
	b.anchor, b.head = b.clip(from), b.clip(to)
}

// SelectLines selects whole lines start..end (0-based, inclusive).
func (b *Buffer) SelectLines(start, end int) error {
	if start < 0 || end < start || end >= b.LineCount() {
		return fmt.Errorf("%w: %d-%d of %d lines", ErrOutOfRange, start, end, b.LineCount())
	}
	b.SetSelection(Position{Line: start}, Position{Line: end, Ch: len(b.Line(end))})
	return nil
}

// Selection returns the selected text.
func (b *Buffer) Selection() string {
	from, to := b.ordered()
	return b.Range(from, to)
}

// ReplaceSelection replaces the selected text and leaves the cursor after
// the inserted text.
func (b *Buffer) ReplaceSelection(text string) {
	from, to := b.ordered()
	b.ReplaceRange(text, from, to)
}

// ReplaceRange replaces the text between from and to and leaves the cursor
// after the inserted text.
func (b *Buffer) ReplaceRange(text string, from, to Position) {
	if to.Before(from) {
		from, to = to, from
	}
	start, end := b.PosToOffset(from), b.PosToOffset(to)
	b.text = b.text[:start] + text + b.text[end:]
	b.SetCursor(b.OffsetToPos(start + len(text)))
}

// Range returns the text between from and to.
func (b *Buffer) Range(from, to Position) string {
	if to.Before(from) {
		from, to = to, from
	}
	return b.text[b.PosToOffset(from):b.PosToOffset(to)]
}

// OffsetToPos converts a byte offset into a position. Offsets outside the
// document are clamped.
func (b *Buffer) OffsetToPos(offset int) Position {
	offset = max(0, min(offset, len(b.text)))
	before := b.text[:offset]
	line := strings.Count(before, "\n")
	ch := offset
	if i := strings.LastIndexByte(before, '\n'); i >= 0 {
		ch = offset - i - 1
	}
	return Position{Line: line, Ch: ch}
}

// PosToOffset converts a position into a byte offset, clamping it to the
// document first.
func (b *Buffer) PosToOffset(p Position) int {
	p = b.clip(p)
	offset := 0
	for i, line := range strings.Split(b.text, "\n") {
		if i == p.Line {
			return offset + p.Ch
		}
		offset += len(line) + 1
	}
	return len(b.text)
}

func (b *Buffer) ordered() (Position, Position) {
	if b.head.Before(b.anchor) {
		return b.head, b.anchor
	}
	return b.anchor, b.head
}

func (b *Buffer) clip(p Position) Position {
	last := b.LineCount() - 1
	if p.Line < 0 {
		return Position{}
	}
	if p.Line > last {
		return Position{Line: last, Ch: len(b.Line(last))}
	}
	p.Ch = max(0, min(p.Ch, len(b.Line(p.Line))))
	return p
}
