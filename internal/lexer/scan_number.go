package lexer

import (
	"quill/internal/diag"
	"quill/internal/token"
)

// scanNumber scans an integer (123) or float (3.14) literal. No other
// bases or digit separators are recognized. A '.' is only consumed when a
// digit follows, so `0..130` lexes as INT DOTDOT INT.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	for !lx.cursor.EOF() && isDigit(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}

	kind := token.IntLit
	if b0, b1, ok := lx.cursor.Peek2(); ok && b0 == '.' && isDigit(b1) {
		lx.cursor.Bump() // '.'
		for !lx.cursor.EOF() && isDigit(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
		kind = token.FloatLit
	}

	sp := lx.cursor.SpanFrom(start)
	if !lx.cursor.EOF() && isIdentStart(lx.cursor.Peek()) {
		// `123abc` is one malformed token, not INT followed by IDENT.
		for !lx.cursor.EOF() && isIdentContinue(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
		sp = lx.cursor.SpanFrom(start)
		lx.errLex(diag.LexBadNumber, sp, "malformed numeric literal")
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
	}
	return token.Token{Kind: kind, Span: sp, Text: lx.text(sp)}
}
