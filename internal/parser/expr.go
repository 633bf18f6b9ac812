package parser

import (
	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/lexer"
	"quill/internal/source"
	"quill/internal/token"
)

// parseExpr parses a full expression. Returns NoExprID after reporting on
// failure; callers resync.
func (p *Parser) parseExpr() ast.ExprID {
	return p.parseCoalesce()
}

func (p *Parser) parseCoalesce() ast.ExprID {
	left := p.parseOr()
	for left.IsValid() && p.at(token.QuestionQuestion) {
		p.bump()
		right := p.parseOr()
		if !right.IsValid() {
			return ast.NoExprID
		}
		sp := p.spanOf(left).Cover(p.spanOf(right))
		left = p.b.Exprs.NewCoalesce(sp, ast.CoalesceExpr{Left: left, Right: right})
	}
	return left
}

func (p *Parser) parseOr() ast.ExprID {
	return p.parseBinaryLevel(p.parseAnd, map[token.Kind]ast.BinaryOp{
		token.KwOr: ast.OpOr,
	})
}

func (p *Parser) parseAnd() ast.ExprID {
	return p.parseBinaryLevel(p.parseEquality, map[token.Kind]ast.BinaryOp{
		token.KwAnd: ast.OpAnd,
	})
}

func (p *Parser) parseEquality() ast.ExprID {
	return p.parseBinaryLevel(p.parseRelational, map[token.Kind]ast.BinaryOp{
		token.EqEq:   ast.OpEq,
		token.BangEq: ast.OpNe,
	})
}

func (p *Parser) parseRelational() ast.ExprID {
	return p.parseBinaryLevel(p.parseRange, map[token.Kind]ast.BinaryOp{
		token.Lt:   ast.OpLt,
		token.LtEq: ast.OpLe,
		token.Gt:   ast.OpGt,
		token.GtEq: ast.OpGe,
	})
}

// parseRange handles `lo .. hi`; ranges do not chain.
func (p *Parser) parseRange() ast.ExprID {
	lo := p.parseAdditive()
	if !lo.IsValid() || !p.at(token.DotDot) {
		return lo
	}
	p.bump()
	hi := p.parseAdditive()
	if !hi.IsValid() {
		return ast.NoExprID
	}
	sp := p.spanOf(lo).Cover(p.spanOf(hi))
	return p.b.Exprs.NewRange(sp, ast.RangeExpr{Lo: lo, Hi: hi})
}

func (p *Parser) parseAdditive() ast.ExprID {
	return p.parseBinaryLevel(p.parseMultiplicative, map[token.Kind]ast.BinaryOp{
		token.Plus:  ast.OpAdd,
		token.Minus: ast.OpSub,
	})
}

func (p *Parser) parseMultiplicative() ast.ExprID {
	return p.parseBinaryLevel(p.parseUnary, map[token.Kind]ast.BinaryOp{
		token.Star:    ast.OpMul,
		token.Slash:   ast.OpDiv,
		token.Percent: ast.OpMod,
	})
}

// parseBinaryLevel is one left-associative precedence level.
func (p *Parser) parseBinaryLevel(next func() ast.ExprID, ops map[token.Kind]ast.BinaryOp) ast.ExprID {
	left := next()
	for left.IsValid() {
		op, ok := ops[p.peek(0).Kind]
		if !ok {
			return left
		}
		p.bump()
		right := next()
		if !right.IsValid() {
			return ast.NoExprID
		}
		sp := p.spanOf(left).Cover(p.spanOf(right))
		left = p.b.Exprs.NewBinary(sp, ast.BinaryExpr{Op: op, Left: left, Right: right})
	}
	return left
}

func (p *Parser) parseUnary() ast.ExprID {
	switch p.peek(0).Kind {
	case token.Minus:
		kw := p.bump()
		operand := p.parseUnary()
		if !operand.IsValid() {
			return ast.NoExprID
		}
		sp := kw.Span.Cover(p.spanOf(operand))
		return p.b.Exprs.NewUnary(sp, ast.UnaryExpr{Op: ast.OpNeg, Operand: operand})
	case token.KwNot:
		kw := p.bump()
		operand := p.parseUnary()
		if !operand.IsValid() {
			return ast.NoExprID
		}
		sp := kw.Span.Cover(p.spanOf(operand))
		return p.b.Exprs.NewUnary(sp, ast.UnaryExpr{Op: ast.OpNot, Operand: operand})
	case token.KwAwait:
		kw := p.bump()
		operand := p.parseUnary()
		if !operand.IsValid() {
			return ast.NoExprID
		}
		sp := kw.Span.Cover(p.spanOf(operand))
		return p.b.Exprs.NewAwait(sp, ast.AwaitExpr{Operand: operand})
	case token.KwBox:
		kw := p.bump()
		operand := p.parseUnary()
		if !operand.IsValid() {
			return ast.NoExprID
		}
		sp := kw.Span.Cover(p.spanOf(operand))
		return p.b.Exprs.NewBox(sp, ast.BoxExpr{Operand: operand})
	default:
		return p.parsePostfix()
	}
}

// parsePostfix parses a primary and attaches postfix chains left to right.
func (p *Parser) parsePostfix() ast.ExprID {
	expr := p.parsePrimary()
	for expr.IsValid() {
		switch p.peek(0).Kind {
		case token.LParen:
			expr = p.parseCallArgs(expr)
		case token.Dot:
			p.bump()
			name, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
			if !ok {
				return ast.NoExprID
			}
			sp := p.spanOf(expr).Cover(name.Span)
			expr = p.b.Exprs.NewMember(sp, ast.MemberExpr{
				Base:     expr,
				Name:     p.b.Intern(name.Text),
				NameSpan: name.Span,
			})
		case token.QuestionDot:
			p.bump()
			name, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
			if !ok {
				return ast.NoExprID
			}
			sp := p.spanOf(expr).Cover(name.Span)
			expr = p.b.Exprs.NewOptMember(sp, ast.MemberExpr{
				Base:     expr,
				Name:     p.b.Intern(name.Text),
				NameSpan: name.Span,
			})
		case token.LBracket:
			p.bump()
			key := p.parseExpr()
			if !key.IsValid() {
				return ast.NoExprID
			}
			end, ok := p.expect(token.RBracket, diag.SynUnclosedBracket)
			if !ok {
				return ast.NoExprID
			}
			sp := p.spanOf(expr).Cover(end.Span)
			expr = p.b.Exprs.NewIndex(sp, ast.IndexExpr{Base: expr, Key: key})
		case token.QuestionBracket:
			p.bump()
			key := p.parseExpr()
			if !key.IsValid() {
				return ast.NoExprID
			}
			end, ok := p.expect(token.RBracket, diag.SynUnclosedBracket)
			if !ok {
				return ast.NoExprID
			}
			sp := p.spanOf(expr).Cover(end.Span)
			expr = p.b.Exprs.NewOptIndex(sp, ast.IndexExpr{Base: expr, Key: key})
		case token.QuestionBang:
			op := p.bump()
			handler := ast.NoExprID
			if startsExpr(p.peek(0).Kind) {
				handler = p.parseUnary()
				if !handler.IsValid() {
					return ast.NoExprID
				}
			}
			sp := p.spanOf(expr).Cover(op.Span)
			if handler.IsValid() {
				sp = sp.Cover(p.spanOf(handler))
			}
			expr = p.b.Exprs.NewPropagate(sp, ast.PropagateExpr{Operand: expr, Handler: handler})
		default:
			return expr
		}
	}
	return expr
}

func (p *Parser) parseCallArgs(callee ast.ExprID) ast.ExprID {
	p.bump() // (
	var args []ast.ExprID
	for !p.at(token.RParen) && !p.at(token.EOF) {
		arg := p.parseExpr()
		if !arg.IsValid() {
			return ast.NoExprID
		}
		args = append(args, arg)
		if !p.eat(token.Comma) {
			break
		}
	}
	end, ok := p.expect(token.RParen, diag.SynUnclosedParen)
	if !ok {
		return ast.NoExprID
	}
	sp := p.spanOf(callee).Cover(end.Span)
	return p.b.Exprs.NewCall(sp, ast.CallExpr{Callee: callee, Args: args})
}

func (p *Parser) parsePrimary() ast.ExprID {
	tok := p.peek(0)
	switch tok.Kind {
	case token.IntLit:
		p.bump()
		return p.b.Exprs.NewLit(tok.Span, ast.LitExpr{Lit: ast.LitInt, Text: tok.Text})
	case token.FloatLit:
		p.bump()
		return p.b.Exprs.NewLit(tok.Span, ast.LitExpr{Lit: ast.LitFloat, Text: tok.Text})
	case token.StringLit:
		p.bump()
		return p.b.Exprs.NewLit(tok.Span, ast.LitExpr{Lit: ast.LitString, Text: tok.Text})
	case token.KwTrue, token.KwFalse:
		p.bump()
		return p.b.Exprs.NewLit(tok.Span, ast.LitExpr{Lit: ast.LitBool, Text: tok.Text})
	case token.InterpStringLit:
		return p.parseInterpString()
	case token.Ident:
		return p.parseIdentOrStructLit()
	case token.LParen:
		p.bump()
		inner := p.parseExpr()
		if !inner.IsValid() {
			return ast.NoExprID
		}
		if _, ok := p.expect(token.RParen, diag.SynUnclosedParen); !ok {
			return ast.NoExprID
		}
		return inner
	case token.LBracket:
		return p.parseListLit()
	case token.LBrace:
		return p.parseMapLit()
	case token.KwSpawn:
		return p.parseSpawn()
	default:
		p.errorf(diag.SynExpectExpression, tok.Span, "expected expression, found %s", describe(tok))
		return ast.NoExprID
	}
}

// parseIdentOrStructLit resolves the `Name(` ambiguity: an identifier,
// possibly qualified, followed by `(` with a `name = expr` argument is a
// struct literal, anything else is a plain identifier for the postfix
// chain to extend.
func (p *Parser) parseIdentOrStructLit() ast.ExprID {
	tok := p.bump()
	name := p.b.Intern(tok.Text)

	// Only the first argument is inspected; a struct literal must name
	// its first field. `Foo(x, y = 1)` is taken as a call, and the
	// stray `=` is then a syntax error in its argument list.
	if p.at(token.LParen) && p.peek(1).Kind == token.Ident && p.peek(2).Kind == token.Assign {
		return p.parseStructLit(source.NoStringID, name, tok.Span)
	}
	// Qualified struct literal: `Mod.Name(field = ...)`.
	if p.at(token.Dot) && p.peek(1).Kind == token.Ident && p.peek(2).Kind == token.LParen &&
		p.peek(3).Kind == token.Ident && p.peek(4).Kind == token.Assign {
		p.bump() // .
		typeName := p.bump()
		return p.parseStructLit(name, p.b.Intern(typeName.Text), tok.Span.Cover(typeName.Span))
	}
	return p.b.Exprs.NewIdent(tok.Span, ast.IdentExpr{Name: name})
}

func (p *Parser) parseStructLit(module, name source.StringID, start source.Span) ast.ExprID {
	p.bump() // (
	var fields []ast.FieldInit
	for !p.at(token.RParen) && !p.at(token.EOF) {
		fname, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
		if !ok {
			return ast.NoExprID
		}
		if _, ok := p.expect(token.Assign, diag.SynUnexpectedToken); !ok {
			return ast.NoExprID
		}
		value := p.parseExpr()
		if !value.IsValid() {
			return ast.NoExprID
		}
		fields = append(fields, ast.FieldInit{
			Name:  p.b.Intern(fname.Text),
			Value: value,
			Span:  fname.Span,
		})
		if !p.eat(token.Comma) {
			break
		}
	}
	end, ok := p.expect(token.RParen, diag.SynUnclosedParen)
	if !ok {
		return ast.NoExprID
	}
	return p.b.Exprs.NewStructLit(start.Cover(end.Span), ast.StructLitExpr{
		Module: module,
		Name:   name,
		Fields: fields,
	})
}

func (p *Parser) parseListLit() ast.ExprID {
	start := p.bump() // [
	var elems []ast.ExprID
	for !p.at(token.RBracket) && !p.at(token.EOF) {
		elem := p.parseExpr()
		if !elem.IsValid() {
			return ast.NoExprID
		}
		elems = append(elems, elem)
		if !p.eat(token.Comma) {
			break
		}
	}
	end, ok := p.expect(token.RBracket, diag.SynUnclosedBracket)
	if !ok {
		return ast.NoExprID
	}
	return p.b.Exprs.NewList(start.Span.Cover(end.Span), ast.ListExpr{Elems: elems})
}

func (p *Parser) parseMapLit() ast.ExprID {
	start := p.bump() // {
	var entries []ast.MapEntry
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		key := p.parseExpr()
		if !key.IsValid() {
			return ast.NoExprID
		}
		if _, ok := p.expect(token.Colon, diag.SynExpectColon); !ok {
			return ast.NoExprID
		}
		value := p.parseExpr()
		if !value.IsValid() {
			return ast.NoExprID
		}
		entries = append(entries, ast.MapEntry{Key: key, Value: value})
		if !p.eat(token.Comma) {
			break
		}
	}
	end, ok := p.expect(token.RBrace, diag.SynUnclosedBrace)
	if !ok {
		return ast.NoExprID
	}
	return p.b.Exprs.NewMap(start.Span.Cover(end.Span), ast.MapExpr{Entries: entries})
}

// parseSpawn parses `spawn:` with a full indented block body. The block
// supplies the trailing newline of the enclosing statement.
func (p *Parser) parseSpawn() ast.ExprID {
	kw := p.bump()
	body := p.parseBlock()
	if !body.IsValid() {
		return ast.NoExprID
	}
	sp := kw.Span.Cover(p.b.Stmts.Get(body).Span)
	return p.b.Exprs.NewSpawn(sp, ast.SpawnExpr{Body: body})
}

// parseInterpString splits an interpolated literal into text and
// expression segments, sub-parsing each `${...}` region in place.
func (p *Parser) parseInterpString() ast.ExprID {
	tok := p.bump()
	parts := lexer.SplitInterp(p.file, tok.Span)

	segments := make([]ast.InterpSegment, 0, len(parts))
	for _, part := range parts {
		if !part.IsExpr {
			segments = append(segments, ast.InterpSegment{Text: part.Text})
			continue
		}
		sub := p.newSub(part.Start, part.End)
		expr := sub.parseExpr()
		if expr.IsValid() && !sub.at(token.EOF) {
			rest := sub.peek(0)
			sub.errorf(diag.SynUnexpectedToken, rest.Span,
				"unexpected %s in interpolation", describe(rest))
		}
		p.errs = sub.errs
		segments = append(segments, ast.InterpSegment{Expr: expr})
	}
	return p.b.Exprs.NewInterpString(tok.Span, ast.InterpStringExpr{Segments: segments})
}

// startsExpr reports whether kind can begin an expression operand; the
// propagate handler check uses it. Minus is excluded so a binary minus
// after `?!` stays binary.
func startsExpr(kind token.Kind) bool {
	switch kind {
	case token.Ident, token.IntLit, token.FloatLit, token.StringLit,
		token.InterpStringLit, token.KwTrue, token.KwFalse,
		token.LParen, token.LBracket, token.LBrace,
		token.KwNot, token.KwAwait, token.KwBox, token.KwSpawn:
		return true
	default:
		return false
	}
}

func (p *Parser) spanOf(id ast.ExprID) source.Span {
	return p.b.Exprs.Get(id).Span
}
