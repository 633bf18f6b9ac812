package parser

import (
	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/source"
	"quill/internal/token"
)

// parsePattern parses one match pattern. A bare identifier stays a name
// pattern; whether it binds or names a zero-argument variant is decided
// during checking, not here.
func (p *Parser) parsePattern() ast.PatternID {
	tok := p.peek(0)
	switch tok.Kind {
	case token.Underscore:
		p.bump()
		return p.b.Patterns.NewWildcard(tok.Span)
	case token.IntLit:
		p.bump()
		return p.b.Patterns.NewLiteral(tok.Span, ast.LiteralPattern{Lit: ast.LitInt, Text: tok.Text})
	case token.FloatLit:
		p.bump()
		return p.b.Patterns.NewLiteral(tok.Span, ast.LiteralPattern{Lit: ast.LitFloat, Text: tok.Text})
	case token.StringLit:
		p.bump()
		return p.b.Patterns.NewLiteral(tok.Span, ast.LiteralPattern{Lit: ast.LitString, Text: tok.Text})
	case token.KwTrue, token.KwFalse:
		p.bump()
		return p.b.Patterns.NewLiteral(tok.Span, ast.LiteralPattern{Lit: ast.LitBool, Text: tok.Text})
	case token.Ident:
		return p.parseNamePattern()
	default:
		p.errorf(diag.SynExpectPattern, tok.Span, "expected pattern, found %s", describe(tok))
		return ast.NoPatternID
	}
}

func (p *Parser) parseNamePattern() ast.PatternID {
	first := p.bump()
	module := source.NoStringID
	name := p.b.Intern(first.Text)
	sp := first.Span

	if p.at(token.Dot) && p.peek(1).Kind == token.Ident {
		p.bump()
		second := p.bump()
		module = name
		name = p.b.Intern(second.Text)
		sp = sp.Cover(second.Span)
	}

	if !p.at(token.LParen) {
		if module != source.NoStringID {
			return p.b.Patterns.NewConstructor(sp, ast.ConstructorPattern{Module: module, Name: name})
		}
		return p.b.Patterns.NewName(sp, ast.NamePattern{Name: name})
	}

	p.bump() // (
	named := p.at(token.Ident) && p.peek(1).Kind == token.Assign
	var subs []ast.SubPattern
	for !p.at(token.RParen) && !p.at(token.EOF) {
		field := source.NoStringID
		fieldSpan := p.peek(0).Span
		if named {
			fname, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
			if !ok {
				return ast.NoPatternID
			}
			if _, ok := p.expect(token.Assign, diag.SynUnexpectedToken); !ok {
				return ast.NoPatternID
			}
			field = p.b.Intern(fname.Text)
			fieldSpan = fname.Span
		}
		sub := p.parsePattern()
		if !sub.IsValid() {
			return ast.NoPatternID
		}
		subs = append(subs, ast.SubPattern{Field: field, Pattern: sub, Span: fieldSpan})
		if !p.eat(token.Comma) {
			break
		}
	}
	end, ok := p.expect(token.RParen, diag.SynUnclosedParen)
	if !ok {
		return ast.NoPatternID
	}
	return p.b.Patterns.NewConstructor(sp.Cover(end.Span), ast.ConstructorPattern{
		Module: module,
		Name:   name,
		Subs:   subs,
		Named:  named,
	})
}
