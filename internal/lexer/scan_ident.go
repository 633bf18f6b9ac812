package lexer

import (
	"quill/internal/token"
)

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentContinue(b byte) bool {
	return isIdentStart(b) || isDigit(b)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// scanIdentOrKeyword scans [A-Za-z_][A-Za-z0-9_]* with maximal munch, then
// checks the reserved word table. A lone '_' is the wildcard token.
func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.cursor.Mark()
	for !lx.cursor.EOF() && isIdentContinue(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	text := lx.text(sp)

	if text == "_" {
		return token.Token{Kind: token.Underscore, Span: sp, Text: text}
	}
	if kw, ok := token.LookupKeyword(text); ok {
		return token.Token{Kind: kw, Span: sp, Text: text}
	}
	return token.Token{Kind: token.Ident, Span: sp, Text: text}
}

// scanDocComment scans a `## ...` line as a distinct token, to be attached
// to the following declaration by the parser.
func (lx *Lexer) scanDocComment() token.Token {
	start := lx.cursor.Mark()
	for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: token.DocComment, Span: sp, Text: lx.text(sp)}
}
