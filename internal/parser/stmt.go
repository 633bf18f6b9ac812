package parser

import (
	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/token"
)

// parseBlock parses `: NEWLINE INDENT stmt* DEDENT` and returns a block
// statement.
func (p *Parser) parseBlock() ast.StmtID {
	colon, ok := p.expect(token.Colon, diag.SynExpectColon)
	if !ok {
		p.resyncLine()
		return ast.NoStmtID
	}
	p.expectNewline()
	if _, ok := p.expect(token.Indent, diag.SynExpectIndent); !ok {
		p.resyncLine()
		return ast.NoStmtID
	}

	var stmts []ast.StmtID
	for !p.at(token.Dedent) && !p.at(token.EOF) {
		if p.at(token.Newline) {
			p.bump()
			continue
		}
		if id := p.parseStmt(); id.IsValid() {
			stmts = append(stmts, id)
		}
	}
	end := p.peek(0).Span
	p.eat(token.Dedent)
	p.blockClosed = true
	return p.b.Stmts.NewBlock(colon.Span.Cover(end), ast.BlockStmt{Stmts: stmts})
}

// parseStmt parses one statement. Returns NoStmtID when recovery consumed
// the line.
func (p *Parser) parseStmt() ast.StmtID {
	switch p.peek(0).Kind {
	case token.KwLet, token.KwVar:
		return p.parseLet()
	case token.KwReturn:
		return p.parseReturn()
	case token.KwIf:
		return p.parseIf()
	case token.KwMatch:
		return p.parseMatch()
	case token.KwFor:
		return p.parseFor()
	case token.KwWhile:
		return p.parseWhile()
	case token.KwBreak:
		tok := p.bump()
		p.expectNewline()
		return p.b.Stmts.NewBreak(tok.Span)
	case token.KwContinue:
		tok := p.bump()
		p.expectNewline()
		return p.b.Stmts.NewContinue(tok.Span)
	case token.KwTransaction:
		return p.parseTransaction()
	default:
		return p.parseExprOrAssign()
	}
}

func (p *Parser) parseLet() ast.StmtID {
	kw := p.bump()
	mutable := kw.Kind == token.KwVar

	name, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
	if !ok {
		p.resyncLine()
		return ast.NoStmtID
	}
	typ := ast.NoTypeID
	if p.eat(token.Colon) {
		typ = p.parseType()
		if !typ.IsValid() {
			p.resyncLine()
			return ast.NoStmtID
		}
	}
	if _, ok := p.expect(token.Assign, diag.SynUnexpectedToken); !ok {
		p.resyncLine()
		return ast.NoStmtID
	}
	value := p.parseExpr()
	if !value.IsValid() {
		p.resyncLine()
		return ast.NoStmtID
	}
	p.expectNewline()
	return p.b.Stmts.NewLet(kw.Span.Cover(name.Span), ast.LetStmt{
		Name:     p.b.Intern(name.Text),
		NameSpan: name.Span,
		Type:     typ,
		Value:    value,
		Mutable:  mutable,
	})
}

func (p *Parser) parseReturn() ast.StmtID {
	kw := p.bump()
	value := ast.NoExprID
	if !p.at(token.Newline) && !p.at(token.Dedent) && !p.at(token.EOF) {
		value = p.parseExpr()
	}
	p.expectNewline()
	return p.b.Stmts.NewReturn(kw.Span, ast.ReturnStmt{Value: value})
}

func (p *Parser) parseIf() ast.StmtID {
	kw := p.bump()
	cond := p.parseExpr()
	if !cond.IsValid() {
		p.resyncLine()
		return ast.NoStmtID
	}
	then := p.parseBlock()
	if !then.IsValid() {
		return ast.NoStmtID
	}

	els := ast.NoStmtID
	if p.at(token.KwElse) {
		p.bump()
		if p.at(token.KwIf) {
			els = p.parseIf()
		} else {
			els = p.parseBlock()
		}
	}
	return p.b.Stmts.NewIf(kw.Span, ast.IfStmt{Cond: cond, Then: then, Else: els})
}

func (p *Parser) parseMatch() ast.StmtID {
	kw := p.bump()
	subject := p.parseExpr()
	if !subject.IsValid() {
		p.resyncLine()
		return ast.NoStmtID
	}
	if _, ok := p.expect(token.Colon, diag.SynExpectColon); !ok {
		p.resyncLine()
		return ast.NoStmtID
	}
	p.expectNewline()
	if _, ok := p.expect(token.Indent, diag.SynExpectIndent); !ok {
		return ast.NoStmtID
	}

	var arms []ast.MatchArm
	for !p.at(token.Dedent) && !p.at(token.EOF) {
		if p.at(token.Newline) {
			p.bump()
			continue
		}
		pat := p.parsePattern()
		if !pat.IsValid() {
			p.errorf(diag.SynBadMatchArm, p.peek(0).Span, "expected match arm pattern")
			p.resyncLine()
			continue
		}
		var body ast.StmtID
		if p.peek(0).Kind == token.Colon && p.peek(1).Kind == token.Newline {
			body = p.parseBlock()
		} else {
			// Inline arm: `pattern: stmt`.
			if _, ok := p.expect(token.Colon, diag.SynExpectColon); !ok {
				p.resyncLine()
				continue
			}
			body = p.parseStmt()
		}
		if !body.IsValid() {
			continue
		}
		armSpan := p.b.Patterns.Get(pat).Span
		arms = append(arms, ast.MatchArm{Pattern: pat, Body: body, Span: armSpan})
	}
	p.eat(token.Dedent)
	return p.b.Stmts.NewMatch(kw.Span, ast.MatchStmt{Subject: subject, Arms: arms})
}

func (p *Parser) parseFor() ast.StmtID {
	kw := p.bump()
	binding, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
	if !ok {
		p.resyncLine()
		return ast.NoStmtID
	}
	if _, ok := p.expect(token.KwIn, diag.SynUnexpectedToken); !ok {
		p.resyncLine()
		return ast.NoStmtID
	}
	iter := p.parseExpr()
	if !iter.IsValid() {
		p.resyncLine()
		return ast.NoStmtID
	}
	body := p.parseBlock()
	if !body.IsValid() {
		return ast.NoStmtID
	}
	return p.b.Stmts.NewFor(kw.Span.Cover(binding.Span), ast.ForStmt{
		Binding:  p.b.Intern(binding.Text),
		BindSpan: binding.Span,
		Iter:     iter,
		Body:     body,
	})
}

func (p *Parser) parseWhile() ast.StmtID {
	kw := p.bump()
	cond := p.parseExpr()
	if !cond.IsValid() {
		p.resyncLine()
		return ast.NoStmtID
	}
	body := p.parseBlock()
	if !body.IsValid() {
		return ast.NoStmtID
	}
	return p.b.Stmts.NewWhile(kw.Span, ast.WhileStmt{Cond: cond, Body: body})
}

func (p *Parser) parseTransaction() ast.StmtID {
	kw := p.bump()
	body := p.parseBlock()
	if !body.IsValid() {
		return ast.NoStmtID
	}
	return p.b.Stmts.NewTransaction(kw.Span, ast.TransactionStmt{Body: body})
}

// parseExprOrAssign parses an expression statement or, when an `=`
// follows, an assignment through the parsed target.
func (p *Parser) parseExprOrAssign() ast.StmtID {
	expr := p.parseExpr()
	if !expr.IsValid() {
		p.resyncLine()
		return ast.NoStmtID
	}
	sp := p.b.Exprs.Get(expr).Span

	if p.eat(token.Assign) {
		value := p.parseExpr()
		if !value.IsValid() {
			p.resyncLine()
			return ast.NoStmtID
		}
		p.expectNewline()
		return p.b.Stmts.NewAssign(sp, ast.AssignStmt{Target: expr, Value: value})
	}
	p.expectNewline()
	return p.b.Stmts.NewExpr(sp, ast.ExprStmt{Expr: expr})
}
