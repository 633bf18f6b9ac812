package lexer

import (
	"quill/internal/diag"
	"quill/internal/token"
)

// scanString scans a double-quoted, single-line string literal. `${expr}`
// regions mark the token as InterpStringLit; the parser tokenizes them
// recursively with a sub-lexer. Escapes are validated during decoding
// (unknown escapes pass through literally and are never an error).
func (lx *Lexer) scanString() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // opening '"'

	interp := false
	for !lx.cursor.EOF() {
		switch b := lx.cursor.Peek(); b {
		case '"':
			lx.cursor.Bump()
			sp := lx.cursor.SpanFrom(start)
			kind := token.StringLit
			if interp {
				kind = token.InterpStringLit
			}
			return token.Token{Kind: kind, Span: sp, Text: lx.text(sp)}

		case '\\':
			lx.cursor.Bump()
			if lx.cursor.EOF() || lx.cursor.Peek() == '\n' {
				continue
			}
			lx.cursor.Bump()

		case '\n':
			sp := lx.cursor.SpanFrom(start)
			lx.errLex(diag.LexUnterminatedString, sp, "newline in string literal")
			return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}

		case '$':
			if lx.cursor.PeekAt(1) == '{' {
				lx.cursor.Bump() // '$'
				lx.cursor.Bump() // '{'
				if !lx.skipInterpRegion() {
					sp := lx.cursor.SpanFrom(start)
					return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
				}
				interp = true
				continue
			}
			lx.cursor.Bump()

		default:
			lx.cursor.Bump()
		}
	}

	sp := lx.cursor.SpanFrom(start)
	lx.errLex(diag.LexUnterminatedString, sp, "unterminated string literal")
	return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
}

// skipInterpRegion consumes an embedded expression region up to its
// matching '}'. Nested braces and nested string literals (which may
// themselves interpolate) are honored.
func (lx *Lexer) skipInterpRegion() bool {
	open := lx.cursor.Mark()
	depth := 1
	for !lx.cursor.EOF() {
		switch lx.cursor.Peek() {
		case '{':
			depth++
			lx.cursor.Bump()
		case '}':
			depth--
			lx.cursor.Bump()
			if depth == 0 {
				return true
			}
		case '\n':
			lx.errLex(diag.LexUnterminatedInterp, lx.cursor.SpanFrom(open), "newline in interpolation")
			return false
		case '"':
			if !lx.skipNestedString() {
				return false
			}
		default:
			lx.cursor.Bump()
		}
	}
	lx.errLex(diag.LexUnterminatedInterp, lx.cursor.SpanFrom(open), "unterminated interpolation")
	return false
}

// skipNestedString consumes a string literal inside an interpolation
// region, including any interpolations of its own.
func (lx *Lexer) skipNestedString() bool {
	open := lx.cursor.Mark()
	lx.cursor.Bump() // opening '"'
	for !lx.cursor.EOF() {
		switch lx.cursor.Peek() {
		case '"':
			lx.cursor.Bump()
			return true
		case '\\':
			lx.cursor.Bump()
			if !lx.cursor.EOF() {
				lx.cursor.Bump()
			}
		case '\n':
			lx.errLex(diag.LexUnterminatedString, lx.cursor.SpanFrom(open), "newline in string literal")
			return false
		case '$':
			if lx.cursor.PeekAt(1) == '{' {
				lx.cursor.Bump()
				lx.cursor.Bump()
				if !lx.skipInterpRegion() {
					return false
				}
				continue
			}
			lx.cursor.Bump()
		default:
			lx.cursor.Bump()
		}
	}
	lx.errLex(diag.LexUnterminatedString, lx.cursor.SpanFrom(open), "unterminated string literal")
	return false
}
