package lexer

import (
	"quill/internal/diag"
	"quill/internal/source"
	"quill/internal/token"
)

// Lexer turns one file into a token stream, folding significant
// indentation into explicit Newline/Indent/Dedent tokens.
//
// The indentation stack starts at [0]. Open bracket contexts suppress
// indentation significance entirely. A tab in indentation and a dedent to
// an unknown level are fatal: the stream ends at the next token.
type Lexer struct {
	file   *source.File
	cursor Cursor
	opts   Options

	queue       []token.Token
	indents     []uint32
	brackets    int
	atLineStart bool
	needNewline bool // a significant token was emitted on the current line
	failed      bool
	subLexer    bool // interpolation region: no indentation handling
}

// New creates a lexer over the whole file.
func New(file *source.File, opts Options) *Lexer {
	return &Lexer{
		file:        file,
		cursor:      NewCursor(file),
		opts:        opts,
		indents:     []uint32{0},
		atLineStart: true,
	}
}

// NewAt creates a sub-lexer over [start, end) of the file, used for
// `${expr}` interpolation regions. Sub-lexers never synthesize structural
// tokens.
func NewAt(file *source.File, start, end uint32, opts Options) *Lexer {
	return &Lexer{
		file:     file,
		cursor:   NewCursorAt(file, start, end),
		opts:     opts,
		indents:  []uint32{0},
		subLexer: true,
	}
}

// Next returns the next token. After EOF it always returns EOF.
func (lx *Lexer) Next() token.Token {
	for len(lx.queue) == 0 {
		lx.fill()
	}
	t := lx.queue[0]
	lx.queue = lx.queue[1:]
	return t
}

// Peek returns the next token without consuming it.
func (lx *Lexer) Peek() token.Token {
	for len(lx.queue) == 0 {
		lx.fill()
	}
	return lx.queue[0]
}

// EmptySpan returns a zero-length span at the current position.
func (lx *Lexer) EmptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off}
}

// File returns the file this lexer scans.
func (lx *Lexer) File() *source.File { return lx.file }

func (lx *Lexer) push(t token.Token) {
	lx.queue = append(lx.queue, t)
}

// abort discards everything after a fatal indentation error: the block
// structure is ambiguous, no consistent stream can follow.
func (lx *Lexer) abort() {
	lx.failed = true
	lx.queue = lx.queue[:0]
	lx.push(token.Token{Kind: token.EOF, Span: lx.EmptySpan()})
}

// fill appends at least one token to the queue.
func (lx *Lexer) fill() {
	if lx.failed {
		lx.push(token.Token{Kind: token.EOF, Span: lx.EmptySpan()})
		return
	}

	if lx.atLineStart && lx.brackets == 0 && !lx.subLexer {
		if !lx.startOfLine() {
			return // fatal, or structural tokens plus EOF already queued
		}
		if len(lx.queue) > 0 {
			return
		}
	}

	for {
		if lx.cursor.EOF() {
			lx.finish()
			return
		}

		ch := lx.cursor.Peek()
		switch {
		case ch == ' ' || ch == '\t':
			// Inline whitespace is insignificant past the line start.
			lx.cursor.Bump()
			continue

		case ch == '\n':
			if lx.brackets > 0 || lx.subLexer {
				lx.cursor.Bump()
				continue
			}
			lx.scanLineEnd()
			return

		case ch == '#':
			if lx.cursor.PeekAt(1) == '#' {
				lx.push(lx.scanDocComment())
				lx.needNewline = true
				return
			}
			// Plain comment: skip to end of line, newline handled above.
			for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
				lx.cursor.Bump()
			}
			continue

		case isIdentStart(ch):
			lx.push(lx.scanIdentOrKeyword())
			lx.needNewline = true
			return

		case isDigit(ch):
			lx.push(lx.scanNumber())
			lx.needNewline = true
			return

		case ch == '"':
			lx.push(lx.scanString())
			lx.needNewline = true
			return

		default:
			lx.push(lx.scanOperatorOrPunct())
			lx.needNewline = true
			return
		}
	}
}

// startOfLine skips blank and comment-only lines, then folds the new
// line's indentation into Indent/Dedent tokens. Returns false when the
// stream was aborted.
func (lx *Lexer) startOfLine() bool {
	for {
		lineStart := lx.cursor.Mark()
		var col uint32
		for {
			b := lx.cursor.Peek()
			if b == ' ' {
				lx.cursor.Bump()
				col++
				continue
			}
			if b == '\t' {
				tabAt := lx.cursor.Mark()
				lx.cursor.Bump()
				lx.errLex(diag.LexTabIndent, lx.cursor.SpanFrom(tabAt), "tab character in indentation")
				lx.abort()
				return false
			}
			break
		}

		if lx.cursor.EOF() {
			lx.atLineStart = false
			return true
		}

		switch b := lx.cursor.Peek(); {
		case b == '\n':
			// Blank line: no effect on the indentation stack.
			lx.cursor.Bump()
			continue
		case b == '#' && lx.cursor.PeekAt(1) != '#':
			for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
				lx.cursor.Bump()
			}
			continue
		default:
			lx.atLineStart = false
			return lx.applyIndent(col, lx.cursor.SpanFrom(lineStart))
		}
	}
}

// applyIndent compares col against the indentation stack and emits the
// structural tokens the difference requires.
func (lx *Lexer) applyIndent(col uint32, sp source.Span) bool {
	top := lx.indents[len(lx.indents)-1]
	switch {
	case col > top:
		lx.indents = append(lx.indents, col)
		lx.push(token.Token{Kind: token.Indent, Span: sp})
	case col < top:
		for col < lx.indents[len(lx.indents)-1] {
			lx.indents = lx.indents[:len(lx.indents)-1]
			lx.push(token.Token{Kind: token.Dedent, Span: sp})
		}
		if col != lx.indents[len(lx.indents)-1] {
			lx.errLex(diag.LexDedentMismatch, sp, "dedent to unknown indentation level")
			lx.abort()
			return false
		}
	}
	return true
}

// scanLineEnd consumes a '\n' and either joins the next physical line
// (postfix-continuation rule) or emits the logical line's Newline.
func (lx *Lexer) scanLineEnd() {
	nlMark := lx.cursor.Mark()
	lx.cursor.Bump()
	afterNL := lx.cursor.Mark()

	// A line whose first token is '(' '.' '[' or '?' joins the previous
	// logical line, so call/member/index chains can wrap.
	for lx.cursor.Peek() == ' ' {
		lx.cursor.Bump()
	}
	switch b := lx.cursor.Peek(); b {
	case '(', '[', '?':
		return
	case '.':
		if !isDigit(lx.cursor.PeekAt(1)) {
			return
		}
	}

	lx.cursor.Reset(afterNL)
	lx.push(token.Token{
		Kind: token.Newline,
		Span: source.Span{File: lx.file.ID, Start: uint32(nlMark), End: uint32(afterNL)},
	})
	lx.needNewline = false
	lx.atLineStart = true
}

// finish emits the trailing Newline, closing Dedents and EOF.
func (lx *Lexer) finish() {
	if lx.needNewline && !lx.subLexer {
		lx.push(token.Token{Kind: token.Newline, Span: lx.EmptySpan()})
		lx.needNewline = false
	}
	if !lx.subLexer {
		for len(lx.indents) > 1 {
			lx.indents = lx.indents[:len(lx.indents)-1]
			lx.push(token.Token{Kind: token.Dedent, Span: lx.EmptySpan()})
		}
	}
	lx.push(token.Token{Kind: token.EOF, Span: lx.EmptySpan()})
}

func (lx *Lexer) text(sp source.Span) string {
	return string(lx.file.Content[sp.Start:sp.End])
}
