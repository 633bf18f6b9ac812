package lexer

import (
	"quill/internal/diag"
	"quill/internal/token"
)

// scanOperatorOrPunct scans one operator or punctuation token and keeps
// the bracket depth current (open bracket contexts suppress indentation).
func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	b := lx.cursor.Bump()

	make1 := func(kind token.Kind) token.Token {
		sp := lx.cursor.SpanFrom(start)
		return token.Token{Kind: kind, Span: sp, Text: lx.text(sp)}
	}

	switch b {
	case '+':
		return make1(token.Plus)
	case '-':
		if lx.cursor.Eat('>') {
			return make1(token.Arrow)
		}
		return make1(token.Minus)
	case '*':
		return make1(token.Star)
	case '/':
		return make1(token.Slash)
	case '%':
		return make1(token.Percent)
	case '=':
		if lx.cursor.Eat('=') {
			return make1(token.EqEq)
		}
		return make1(token.Assign)
	case '!':
		if lx.cursor.Eat('=') {
			return make1(token.BangEq)
		}
		return make1(token.Bang)
	case '<':
		if lx.cursor.Eat('=') {
			return make1(token.LtEq)
		}
		return make1(token.Lt)
	case '>':
		if lx.cursor.Eat('=') {
			return make1(token.GtEq)
		}
		return make1(token.Gt)
	case '?':
		switch {
		case lx.cursor.Eat('?'):
			return make1(token.QuestionQuestion)
		case lx.cursor.Eat('.'):
			return make1(token.QuestionDot)
		case lx.cursor.Eat('['):
			lx.brackets++
			return make1(token.QuestionBracket)
		case lx.cursor.Eat('!'):
			return make1(token.QuestionBang)
		}
		return make1(token.Question)
	case ':':
		return make1(token.Colon)
	case ',':
		return make1(token.Comma)
	case '.':
		if lx.cursor.Eat('.') {
			return make1(token.DotDot)
		}
		return make1(token.Dot)
	case '(':
		lx.brackets++
		return make1(token.LParen)
	case ')':
		if lx.brackets > 0 {
			lx.brackets--
		}
		return make1(token.RParen)
	case '[':
		lx.brackets++
		return make1(token.LBracket)
	case ']':
		if lx.brackets > 0 {
			lx.brackets--
		}
		return make1(token.RBracket)
	case '{':
		lx.brackets++
		return make1(token.LBrace)
	case '}':
		if lx.brackets > 0 {
			lx.brackets--
		}
		return make1(token.RBrace)
	}

	sp := lx.cursor.SpanFrom(start)
	lx.errLex(diag.LexUnknownChar, sp, "unknown character "+quoteByte(b))
	return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
}

func quoteByte(b byte) string {
	if b >= 0x20 && b < 0x7f {
		return "'" + string(rune(b)) + "'"
	}
	const hex = "0123456789abcdef"
	return "0x" + string(hex[b>>4]) + string(hex[b&0xf])
}
