package parser

import (
	"fmt"

	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/lexer"
	"quill/internal/source"
	"quill/internal/token"
)

// Options controls parsing.
type Options struct {
	// MaxErrors stops error reporting after the cap; zero means unlimited.
	// Parsing itself continues so recovery still finds item boundaries.
	MaxErrors int
	Reporter  diag.Reporter
}

// Parser builds one file's AST from a token stream, recovering at
// statement and item boundaries so a single pass reports every syntax
// error in the file.
type Parser struct {
	file *source.File
	lx   *lexer.Lexer
	b    *ast.Builder
	opts Options

	buf  []token.Token
	errs int

	// blockClosed is set right after a block's closing Dedent so the
	// enclosing statement does not demand another Newline; the block
	// supplied the line break.
	blockClosed bool

	// sub reports whether this parser runs over an interpolation region;
	// sub-parsers never see structural tokens.
	sub bool
}

// New creates a parser over the whole file.
func New(file *source.File, b *ast.Builder, opts Options) *Parser {
	return &Parser{
		file: file,
		lx:   lexer.New(file, lexer.Options{Reporter: opts.Reporter}),
		b:    b,
		opts: opts,
	}
}

// newSub creates a parser over an interpolation sub-region, sharing the
// parent's builder and error cap.
func (p *Parser) newSub(start, end uint32) *Parser {
	return &Parser{
		file: p.file,
		lx:   lexer.NewAt(p.file, start, end, lexer.Options{Reporter: p.opts.Reporter}),
		b:    p.b,
		opts: p.opts,
		errs: p.errs,
		sub:  true,
	}
}

// ParseFile parses every top-level item and returns the file node.
func (p *Parser) ParseFile() ast.FileID {
	start := p.peek(0).Span

	var items []ast.ItemID
	var requires []ast.Capability
	for !p.at(token.EOF) {
		// Stray structural tokens at top level come from recovery.
		if p.at(token.Newline) || p.at(token.Indent) || p.at(token.Dedent) {
			p.bump()
			continue
		}
		doc := p.collectDoc()
		tok := p.peek(0)
		if !tok.IsItemStarter() {
			p.errorf(diag.SynUnexpectedTopLevel, tok.Span,
				"unexpected %s at top level", describe(tok))
			p.resyncTopLevel()
			continue
		}
		id := p.parseItem(doc)
		if !id.IsValid() {
			continue
		}
		if req := p.b.Items.RequiresOf(id); req != nil {
			requires = append(requires, req.Caps...)
		}
		items = append(items, id)
	}

	sp := start.Cover(p.peek(0).Span)
	fileID := p.b.Files.New(sp)
	f := p.b.Files.Get(fileID)
	f.Items = items
	f.Requires = requires
	return fileID
}

// collectDoc consumes consecutive doc-comment lines and joins their text.
func (p *Parser) collectDoc() source.StringID {
	var lines []string
	for p.at(token.DocComment) {
		lines = append(lines, stripDocMarker(p.bump().Text))
		p.eat(token.Newline)
	}
	if len(lines) == 0 {
		return source.NoStringID
	}
	joined := lines[0]
	for _, l := range lines[1:] {
		joined += "\n" + l
	}
	return p.b.Intern(joined)
}

func stripDocMarker(line string) string {
	for len(line) > 0 && line[0] == '#' {
		line = line[1:]
	}
	if len(line) > 0 && line[0] == ' ' {
		line = line[1:]
	}
	return line
}

// peek returns the n-th upcoming token without consuming it.
func (p *Parser) peek(n int) token.Token {
	for len(p.buf) <= n {
		p.buf = append(p.buf, p.lx.Next())
	}
	return p.buf[n]
}

// bump consumes and returns the current token.
func (p *Parser) bump() token.Token {
	p.blockClosed = false
	t := p.peek(0)
	if t.Kind != token.EOF {
		p.buf = p.buf[1:]
	}
	return t
}

// at reports whether the current token has the given kind.
func (p *Parser) at(k token.Kind) bool {
	return p.peek(0).Kind == k
}

// eat consumes the current token when it has the given kind.
func (p *Parser) eat(k token.Kind) bool {
	if p.at(k) {
		p.bump()
		return true
	}
	return false
}

// expect consumes a token of the given kind or reports code and leaves the
// stream untouched.
func (p *Parser) expect(k token.Kind, code diag.Code) (token.Token, bool) {
	if p.at(k) {
		return p.bump(), true
	}
	tok := p.peek(0)
	p.errorf(code, tok.Span, "expected %s, found %s", k, describe(tok))
	return tok, false
}

// expectNewline terminates a logical line; EOF and Dedent satisfy it too,
// so the last statement of a block parses without a trailing blank line.
func (p *Parser) expectNewline() {
	if p.blockClosed {
		p.blockClosed = false
		return
	}
	switch p.peek(0).Kind {
	case token.Newline:
		p.bump()
	case token.EOF, token.Dedent:
	default:
		tok := p.peek(0)
		p.errorf(diag.SynExpectNewline, tok.Span, "expected end of line, found %s", describe(tok))
		p.resyncLine()
	}
}

func (p *Parser) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	p.errs++
	if p.opts.MaxErrors > 0 && p.errs > p.opts.MaxErrors {
		return
	}
	if p.opts.Reporter != nil {
		p.opts.Reporter.Report(code, diag.SevError, sp, fmt.Sprintf(format, args...), nil)
	}
}

// resyncLine skips to the end of the current logical line. A Dedent or
// EOF also stops the skip so block structure survives.
func (p *Parser) resyncLine() {
	depth := 0
	for {
		switch p.peek(0).Kind {
		case token.EOF:
			return
		case token.Newline:
			if depth == 0 {
				p.bump()
				return
			}
			p.bump()
		case token.Indent:
			depth++
			p.bump()
		case token.Dedent:
			if depth == 0 {
				return
			}
			depth--
			p.bump()
		default:
			p.bump()
		}
	}
}

// resyncTopLevel skips forward to the next top-level item starter.
func (p *Parser) resyncTopLevel() {
	depth := 0
	for {
		tok := p.peek(0)
		switch tok.Kind {
		case token.EOF:
			return
		case token.Indent:
			depth++
			p.bump()
		case token.Dedent:
			if depth > 0 {
				depth--
			}
			p.bump()
		case token.Newline:
			p.bump()
			if depth == 0 && (p.peek(0).IsItemStarter() || p.peek(0).Kind == token.DocComment) {
				return
			}
		default:
			if depth == 0 && tok.IsItemStarter() {
				return
			}
			p.bump()
		}
	}
}

// describe renders a token for an error message.
func describe(t token.Token) string {
	switch t.Kind {
	case token.EOF:
		return "end of file"
	case token.Newline:
		return "end of line"
	case token.Indent:
		return "indent"
	case token.Dedent:
		return "dedent"
	case token.Ident:
		return fmt.Sprintf("identifier %q", t.Text)
	case token.IntLit, token.FloatLit:
		return fmt.Sprintf("number %s", t.Text)
	case token.StringLit, token.InterpStringLit:
		return "string literal"
	default:
		if t.IsKeyword() {
			return fmt.Sprintf("keyword %q", t.Text)
		}
		return fmt.Sprintf("%q", t.Kind.String())
	}
}
