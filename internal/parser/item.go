package parser

import (
	"strings"

	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/lexer"
	"quill/internal/source"
	"quill/internal/token"
)

// parseItem dispatches on the leading keyword. Returns NoItemID when
// recovery consumed the declaration.
func (p *Parser) parseItem(doc source.StringID) ast.ItemID {
	switch p.peek(0).Kind {
	case token.KwImport:
		return p.parseImport()
	case token.KwType:
		return p.parseTypeDecl(doc)
	case token.KwEnum:
		return p.parseEnumDecl(doc)
	case token.KwFn:
		return p.parseFnDecl(doc)
	case token.KwService:
		return p.parseGroupDecl(doc, token.KwService)
	case token.KwConfig:
		return p.parseConfigDecl(doc)
	case token.KwApp:
		return p.parseGroupDecl(doc, token.KwApp)
	case token.KwMigration:
		return p.parseMigrationDecl(doc)
	case token.KwTest:
		return p.parseTestDecl()
	case token.KwRequires:
		return p.parseRequiresDecl()
	default:
		return ast.NoItemID
	}
}

// parseImport handles both forms:
//
//	import Dep.Module
//	import {Name, Other} from "auth/users"
func (p *Parser) parseImport() ast.ItemID {
	kw := p.bump()

	if p.eat(token.LBrace) {
		var names []ast.ImportName
		for !p.at(token.RBrace) && !p.at(token.EOF) && !p.at(token.Newline) {
			name, ok := p.expect(token.Ident, diag.SynBadImport)
			if !ok {
				p.resyncLine()
				return ast.NoItemID
			}
			names = append(names, ast.ImportName{Name: p.b.Intern(name.Text), Span: name.Span})
			if !p.eat(token.Comma) {
				break
			}
		}
		end, ok := p.expect(token.RBrace, diag.SynBadImport)
		if !ok {
			p.resyncLine()
			return ast.NoItemID
		}
		if _, ok := p.expect(token.KwFrom, diag.SynBadImport); !ok {
			p.resyncLine()
			return ast.NoItemID
		}
		path, ok := p.expect(token.StringLit, diag.SynBadImport)
		if !ok {
			p.resyncLine()
			return ast.NoItemID
		}
		p.expectNewline()
		sp := kw.Span.Cover(end.Span).Cover(path.Span)
		return p.b.Items.NewImport(sp, ast.ImportItem{
			Path:  lexer.Unquote(path.Text),
			Names: names,
			From:  true,
		})
	}

	first, ok := p.expect(token.Ident, diag.SynBadImport)
	if !ok {
		p.resyncLine()
		return ast.NoItemID
	}
	segments := []string{first.Text}
	end := first
	for p.eat(token.Dot) {
		seg, ok := p.expect(token.Ident, diag.SynBadImport)
		if !ok {
			p.resyncLine()
			return ast.NoItemID
		}
		segments = append(segments, seg.Text)
		end = seg
	}
	p.expectNewline()
	return p.b.Items.NewImport(kw.Span.Cover(end.Span), ast.ImportItem{
		Alias: p.b.Intern(segments[len(segments)-1]),
		Path:  strings.Join(segments, "."),
	})
}

// parseTypeDecl handles field blocks and `= Base without ...` derivations.
func (p *Parser) parseTypeDecl(doc source.StringID) ast.ItemID {
	kw := p.bump()
	name, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
	if !ok {
		p.resyncTopLevel()
		return ast.NoItemID
	}

	if p.eat(token.Assign) {
		base := p.parseType()
		if !base.IsValid() {
			p.resyncLine()
			return ast.NoItemID
		}
		var without []ast.Capability
		if p.eat(token.KwWithout) {
			for {
				f, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
				if !ok {
					p.resyncLine()
					return ast.NoItemID
				}
				without = append(without, ast.Capability{Name: p.b.Intern(f.Text), Span: f.Span})
				if !p.eat(token.Comma) {
					break
				}
			}
		}
		p.expectNewline()
		return p.b.Items.NewType(kw.Span.Cover(name.Span), ast.TypeDecl{
			Name:    p.b.Intern(name.Text),
			Doc:     doc,
			Base:    base,
			Without: without,
			Derived: true,
		})
	}

	fields, ok := p.parseFieldBlock()
	if !ok {
		return ast.NoItemID
	}
	return p.b.Items.NewType(kw.Span.Cover(name.Span), ast.TypeDecl{
		Name:   p.b.Intern(name.Text),
		Doc:    doc,
		Fields: fields,
	})
}

// parseFieldBlock parses `: NEWLINE INDENT (name: Type [= expr])* DEDENT`.
func (p *Parser) parseFieldBlock() ([]ast.TypeField, bool) {
	if _, ok := p.expect(token.Colon, diag.SynExpectColon); !ok {
		p.resyncTopLevel()
		return nil, false
	}
	p.expectNewline()
	if _, ok := p.expect(token.Indent, diag.SynExpectIndent); !ok {
		p.resyncTopLevel()
		return nil, false
	}

	var fields []ast.TypeField
	for !p.at(token.Dedent) && !p.at(token.EOF) {
		if p.at(token.DocComment) {
			p.collectDoc()
			continue
		}
		name, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
		if !ok {
			p.resyncLine()
			continue
		}
		if _, ok := p.expect(token.Colon, diag.SynExpectColon); !ok {
			p.resyncLine()
			continue
		}
		typ := p.parseType()
		if !typ.IsValid() {
			p.resyncLine()
			continue
		}
		def := ast.NoExprID
		if p.eat(token.Assign) {
			def = p.parseExpr()
		}
		p.expectNewline()
		fields = append(fields, ast.TypeField{
			Name:    p.b.Intern(name.Text),
			Type:    typ,
			Default: def,
			Span:    name.Span,
		})
	}
	p.eat(token.Dedent)
	return fields, true
}

func (p *Parser) parseEnumDecl(doc source.StringID) ast.ItemID {
	kw := p.bump()
	name, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
	if !ok {
		p.resyncTopLevel()
		return ast.NoItemID
	}
	if _, ok := p.expect(token.Colon, diag.SynExpectColon); !ok {
		p.resyncTopLevel()
		return ast.NoItemID
	}
	p.expectNewline()
	if _, ok := p.expect(token.Indent, diag.SynExpectIndent); !ok {
		p.resyncTopLevel()
		return ast.NoItemID
	}

	var variants []ast.EnumVariant
	for !p.at(token.Dedent) && !p.at(token.EOF) {
		if p.at(token.DocComment) {
			p.collectDoc()
			continue
		}
		vname, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
		if !ok {
			p.resyncLine()
			continue
		}
		var payload []ast.TypeID
		if p.eat(token.LParen) {
			for !p.at(token.RParen) && !p.at(token.EOF) {
				typ := p.parseType()
				if !typ.IsValid() {
					break
				}
				payload = append(payload, typ)
				if !p.eat(token.Comma) {
					break
				}
			}
			if _, ok := p.expect(token.RParen, diag.SynUnclosedParen); !ok {
				p.resyncLine()
				continue
			}
		}
		p.expectNewline()
		variants = append(variants, ast.EnumVariant{
			Name:    p.b.Intern(vname.Text),
			Payload: payload,
			Span:    vname.Span,
		})
	}
	p.eat(token.Dedent)
	return p.b.Items.NewEnum(kw.Span.Cover(name.Span), ast.EnumDecl{
		Name:     p.b.Intern(name.Text),
		Doc:      doc,
		Variants: variants,
	})
}

func (p *Parser) parseFnDecl(doc source.StringID) ast.ItemID {
	kw := p.bump()
	name, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
	if !ok {
		p.resyncTopLevel()
		return ast.NoItemID
	}
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken); !ok {
		p.resyncTopLevel()
		return ast.NoItemID
	}

	var params []ast.FnParam
	for !p.at(token.RParen) && !p.at(token.EOF) {
		pname, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
		if !ok {
			break
		}
		// A missing annotation is a checker error, not a parse error:
		// the parameter survives with no type.
		typ := ast.NoTypeID
		if p.eat(token.Colon) {
			typ = p.parseType()
			if !typ.IsValid() {
				break
			}
		}
		params = append(params, ast.FnParam{
			Name: p.b.Intern(pname.Text),
			Type: typ,
			Span: pname.Span,
		})
		if !p.eat(token.Comma) {
			break
		}
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedParen); !ok {
		p.resyncTopLevel()
		return ast.NoItemID
	}

	ret := ast.NoTypeID
	if p.eat(token.Arrow) {
		ret = p.parseType()
	}

	body := p.parseBlock()
	if !body.IsValid() {
		return ast.NoItemID
	}
	return p.b.Items.NewFn(kw.Span.Cover(name.Span), ast.FnDecl{
		Name:   p.b.Intern(name.Text),
		Doc:    doc,
		Params: params,
		Ret:    ret,
		Body:   body,
	})
}

// parseGroupDecl parses `service Name:` and `app Name:` blocks, whose
// bodies hold fn declarations.
func (p *Parser) parseGroupDecl(doc source.StringID, kind token.Kind) ast.ItemID {
	kw := p.bump()
	name, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
	if !ok {
		p.resyncTopLevel()
		return ast.NoItemID
	}
	if _, ok := p.expect(token.Colon, diag.SynExpectColon); !ok {
		p.resyncTopLevel()
		return ast.NoItemID
	}
	p.expectNewline()
	if _, ok := p.expect(token.Indent, diag.SynExpectIndent); !ok {
		p.resyncTopLevel()
		return ast.NoItemID
	}

	var fns []ast.ItemID
	for !p.at(token.Dedent) && !p.at(token.EOF) {
		if p.at(token.Newline) {
			p.bump()
			continue
		}
		fnDoc := p.collectDoc()
		if !p.at(token.KwFn) {
			tok := p.peek(0)
			p.errorf(diag.SynUnexpectedToken, tok.Span,
				"expected fn declaration, found %s", describe(tok))
			p.resyncLine()
			continue
		}
		if id := p.parseFnDecl(fnDoc); id.IsValid() {
			fns = append(fns, id)
		}
	}
	p.eat(token.Dedent)

	sp := kw.Span.Cover(name.Span)
	if kind == token.KwService {
		return p.b.Items.NewService(sp, ast.ServiceDecl{
			Name: p.b.Intern(name.Text),
			Doc:  doc,
			Fns:  fns,
		})
	}
	return p.b.Items.NewApp(sp, ast.AppDecl{
		Name: p.b.Intern(name.Text),
		Doc:  doc,
		Fns:  fns,
	})
}

func (p *Parser) parseConfigDecl(doc source.StringID) ast.ItemID {
	kw := p.bump()
	name, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
	if !ok {
		p.resyncTopLevel()
		return ast.NoItemID
	}
	fields, ok := p.parseFieldBlock()
	if !ok {
		return ast.NoItemID
	}
	return p.b.Items.NewConfig(kw.Span.Cover(name.Span), ast.ConfigDecl{
		Name:   p.b.Intern(name.Text),
		Doc:    doc,
		Fields: fields,
	})
}

func (p *Parser) parseMigrationDecl(doc source.StringID) ast.ItemID {
	kw := p.bump()
	name, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
	if !ok {
		p.resyncTopLevel()
		return ast.NoItemID
	}
	body := p.parseBlock()
	if !body.IsValid() {
		return ast.NoItemID
	}
	return p.b.Items.NewMigration(kw.Span.Cover(name.Span), ast.MigrationDecl{
		Name: p.b.Intern(name.Text),
		Doc:  doc,
		Body: body,
	})
}

func (p *Parser) parseTestDecl() ast.ItemID {
	kw := p.bump()
	name, ok := p.expect(token.StringLit, diag.SynUnexpectedToken)
	if !ok {
		p.resyncTopLevel()
		return ast.NoItemID
	}
	body := p.parseBlock()
	if !body.IsValid() {
		return ast.NoItemID
	}
	return p.b.Items.NewTest(kw.Span.Cover(name.Span), ast.TestDecl{
		Name: p.b.Intern(lexer.Unquote(name.Text)),
		Body: body,
	})
}

func (p *Parser) parseRequiresDecl() ast.ItemID {
	kw := p.bump()
	var caps []ast.Capability
	for {
		name, ok := p.expect(token.Ident, diag.SynExpectIdentifier)
		if !ok {
			p.resyncLine()
			return ast.NoItemID
		}
		caps = append(caps, ast.Capability{Name: p.b.Intern(name.Text), Span: name.Span})
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expectNewline()
	return p.b.Items.NewRequires(kw.Span, ast.RequiresDecl{Caps: caps})
}
