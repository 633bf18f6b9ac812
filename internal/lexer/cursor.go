package lexer

import (
	"fmt"

	"fortio.org/safecast"

	"quill/internal/source"
)

// Cursor is a byte position inside a file, with an optional exclusive
// limit so sub-lexers can run over a slice of the file (interpolation).
type Cursor struct {
	File  *source.File
	Off   uint32
	Limit uint32
}

// NewCursor creates a cursor over the whole file.
func NewCursor(f *source.File) Cursor {
	limit, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("file content length overflow: %w", err))
	}
	return Cursor{File: f, Off: 0, Limit: limit}
}

// NewCursorAt creates a cursor over the byte range [start, end) of the file.
func NewCursorAt(f *source.File, start, end uint32) Cursor {
	return Cursor{File: f, Off: start, Limit: end}
}

// EOF reports whether the cursor reached its limit.
func (c *Cursor) EOF() bool {
	return c.Off >= c.Limit
}

// Peek reads the current byte, or 0 at EOF.
func (c *Cursor) Peek() byte {
	if c.EOF() {
		return 0
	}
	return c.File.Content[c.Off]
}

// Peek2 reads the current and next byte.
func (c *Cursor) Peek2() (b0, b1 byte, ok bool) {
	if c.Off+1 >= c.Limit {
		return 0, 0, false
	}
	return c.File.Content[c.Off], c.File.Content[c.Off+1], true
}

// PeekAt reads the byte n positions ahead, or 0 past the limit.
func (c *Cursor) PeekAt(n uint32) byte {
	if c.Off+n >= c.Limit {
		return 0
	}
	return c.File.Content[c.Off+n]
}

// Bump advances one byte and returns it.
func (c *Cursor) Bump() byte {
	if c.EOF() {
		return 0
	}
	b := c.File.Content[c.Off]
	c.Off++
	return b
}

// Eat consumes the next byte when it matches b.
func (c *Cursor) Eat(b byte) bool {
	if !c.EOF() && c.File.Content[c.Off] == b {
		c.Off++
		return true
	}
	return false
}

// Mark remembers a position for later span construction.
type Mark uint32

func (c *Cursor) Mark() Mark {
	return Mark(c.Off)
}

// SpanFrom builds the span from a mark to the current position.
func (c *Cursor) SpanFrom(m Mark) source.Span {
	return source.Span{File: c.File.ID, Start: uint32(m), End: c.Off}
}

// Reset moves the cursor back to a mark.
func (c *Cursor) Reset(m Mark) {
	c.Off = uint32(m)
}
