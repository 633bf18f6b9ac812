package parser

import (
	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/source"
	"quill/internal/token"
)

// parseType parses one syntactic type expression:
//
//	Name  Mod.Name  Name<T, U>  Base(lo..hi)  T?  T!  T!E
//
// Postfix `?` and `!` wrap whatever came before them, left to right.
func (p *Parser) parseType() ast.TypeID {
	base := p.parseBaseType()
	for base.IsValid() {
		switch p.peek(0).Kind {
		case token.Question:
			q := p.bump()
			sp := p.b.Types.Get(base).Span.Cover(q.Span)
			base = p.b.Types.NewOptional(sp, ast.OptionalType{Inner: base})
		case token.Bang:
			b := p.bump()
			sp := p.b.Types.Get(base).Span.Cover(b.Span)
			errType := ast.NoTypeID
			if p.at(token.Ident) {
				errType = p.parseBaseType()
				if !errType.IsValid() {
					return ast.NoTypeID
				}
				sp = sp.Cover(p.b.Types.Get(errType).Span)
			}
			base = p.b.Types.NewResult(sp, ast.ResultType{Ok: base, Err: errType})
		default:
			return base
		}
	}
	return base
}

func (p *Parser) parseBaseType() ast.TypeID {
	name, ok := p.expect(token.Ident, diag.SynExpectType)
	if !ok {
		return ast.NoTypeID
	}

	// Qualified reference: `Mod.Name`.
	if p.at(token.Dot) {
		p.bump()
		second, ok := p.expect(token.Ident, diag.SynExpectType)
		if !ok {
			return ast.NoTypeID
		}
		return p.b.Types.NewName(name.Span.Cover(second.Span), ast.NameType{
			Module: p.b.Intern(name.Text),
			Name:   p.b.Intern(second.Text),
		})
	}

	// Generic application: `Name<T, U>`.
	if p.at(token.Lt) {
		p.bump()
		var args []ast.TypeID
		for {
			arg := p.parseType()
			if !arg.IsValid() {
				return ast.NoTypeID
			}
			args = append(args, arg)
			if !p.eat(token.Comma) {
				break
			}
		}
		end, ok := p.expect(token.Gt, diag.SynExpectType)
		if !ok {
			return ast.NoTypeID
		}
		return p.b.Types.NewGeneric(name.Span.Cover(end.Span), ast.GenericType{
			Name: p.b.Intern(name.Text),
			Args: args,
		})
	}

	// Refinement: `Base(arg)`, normally a literal range.
	if p.at(token.LParen) {
		p.bump()
		arg := p.parseExpr()
		if !arg.IsValid() {
			return ast.NoTypeID
		}
		end, ok := p.expect(token.RParen, diag.SynUnclosedParen)
		if !ok {
			return ast.NoTypeID
		}
		return p.b.Types.NewRefined(name.Span.Cover(end.Span), ast.RefinedType{
			Base: p.b.Intern(name.Text),
			Arg:  arg,
		})
	}

	return p.b.Types.NewName(name.Span, ast.NameType{
		Module: source.NoStringID,
		Name:   p.b.Intern(name.Text),
	})
}
