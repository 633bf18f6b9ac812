package lexer_test

import (
	"testing"

	"quill/internal/diag"
	"quill/internal/lexer"
	"quill/internal/source"
	"quill/internal/token"
)

// testReporter collects every diagnostic the lexer reports.
type testReporter struct {
	diagnostics []diag.Diagnostic
}

func (r *testReporter) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note) {
	r.diagnostics = append(r.diagnostics, diag.Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  msg,
		Primary:  primary,
		Notes:    notes,
	})
}

func (r *testReporter) HasErrors() bool {
	for _, d := range r.diagnostics {
		if d.Severity == diag.SevError {
			return true
		}
	}
	return false
}

func (r *testReporter) Codes() []diag.Code {
	codes := make([]diag.Code, 0, len(r.diagnostics))
	for _, d := range r.diagnostics {
		codes = append(codes, d.Code)
	}
	return codes
}

func makeTestLexer(input string) (*lexer.Lexer, *testReporter) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("test.ql", []byte(input))
	file := fs.Get(fileID)

	reporter := &testReporter{}
	lx := lexer.New(file, lexer.Options{Reporter: reporter})
	return lx, reporter
}

func collectAllTokens(lx *lexer.Lexer) []token.Token {
	tokens := make([]token.Token, 0)
	for {
		tok := lx.Next()
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return tokens
}

func collectKinds(input string) ([]token.Kind, *testReporter) {
	lx, reporter := makeTestLexer(input)
	tokens := collectAllTokens(lx)
	kinds := make([]token.Kind, 0, len(tokens))
	for _, t := range tokens {
		if t.Kind == token.EOF {
			break
		}
		kinds = append(kinds, t.Kind)
	}
	return kinds, reporter
}

func expectKinds(t *testing.T, input string, expected []token.Kind) {
	t.Helper()
	kinds, reporter := collectKinds(input)
	if len(kinds) != len(expected) {
		t.Fatalf("expected %d tokens, got %d\ninput: %q\ngot: %v\ndiags: %v",
			len(expected), len(kinds), input, kinds, reporter.Codes())
	}
	for i := range kinds {
		if kinds[i] != expected[i] {
			t.Errorf("token %d: expected %v, got %v\ninput: %q\nall: %v",
				i, expected[i], kinds[i], input, kinds)
		}
	}
}

func TestSimpleDeclaration(t *testing.T) {
	expectKinds(t, "let x = 42\n", []token.Kind{
		token.KwLet, token.Ident, token.Assign, token.IntLit, token.Newline,
	})
}

func TestIndentedBlock(t *testing.T) {
	input := "type User:\n  id: Id\n  age: Int\n"
	expectKinds(t, input, []token.Kind{
		token.KwType, token.Ident, token.Colon, token.Newline,
		token.Indent,
		token.Ident, token.Colon, token.Ident, token.Newline,
		token.Ident, token.Colon, token.Ident, token.Newline,
		token.Dedent,
	})
}

func TestIndentWidthIrrelevant(t *testing.T) {
	// The same block indented by 2 and by 4 spaces must produce
	// isomorphic token structures.
	two, repTwo := collectKinds("fn f():\n  return 1\n")
	four, repFour := collectKinds("fn f():\n    return 1\n")
	if repTwo.HasErrors() || repFour.HasErrors() {
		t.Fatalf("unexpected errors: %v / %v", repTwo.Codes(), repFour.Codes())
	}
	if len(two) != len(four) {
		t.Fatalf("token streams differ in length: %d vs %d\n%v\n%v", len(two), len(four), two, four)
	}
	for i := range two {
		if two[i] != four[i] {
			t.Errorf("token %d differs: %v vs %v", i, two[i], four[i])
		}
	}
}

func TestNestedDedents(t *testing.T) {
	input := "if a:\n  if b:\n    f()\ng()\n"
	expectKinds(t, input, []token.Kind{
		token.KwIf, token.Ident, token.Colon, token.Newline,
		token.Indent,
		token.KwIf, token.Ident, token.Colon, token.Newline,
		token.Indent,
		token.Ident, token.LParen, token.RParen, token.Newline,
		token.Dedent, token.Dedent,
		token.Ident, token.LParen, token.RParen, token.Newline,
	})
}

func TestDedentMismatchAborts(t *testing.T) {
	// Dedent to column 1 when the stack holds [0, 4]: no matching level.
	input := "if a:\n    f()\n g()\n"
	lx, reporter := makeTestLexer(input)
	tokens := collectAllTokens(lx)

	found := false
	for _, code := range reporter.Codes() {
		if code == diag.LexDedentMismatch {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected LexDedentMismatch, got %v", reporter.Codes())
	}
	// The stream must end in EOF right after the abort.
	last := tokens[len(tokens)-1]
	if last.Kind != token.EOF {
		t.Errorf("aborted stream must end with EOF, got %v", last.Kind)
	}
	// And stay at EOF on further calls.
	if next := lx.Next(); next.Kind != token.EOF {
		t.Errorf("lexer must stay at EOF after abort, got %v", next.Kind)
	}
}

func TestTabInIndentationIsFatal(t *testing.T) {
	_, reporter := collectKinds("if a:\n\tf()\n")
	found := false
	for _, code := range reporter.Codes() {
		if code == diag.LexTabIndent {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected LexTabIndent, got %v", reporter.Codes())
	}
}

func TestBlankAndCommentLinesIgnored(t *testing.T) {
	input := "fn f():\n\n  # a comment\n  return 1\n"
	expectKinds(t, input, []token.Kind{
		token.KwFn, token.Ident, token.LParen, token.RParen, token.Colon, token.Newline,
		token.Indent,
		token.KwReturn, token.IntLit, token.Newline,
		token.Dedent,
	})
}

func TestBracketsSuppressIndentation(t *testing.T) {
	input := "f(\n  1,\n  2,\n)\n"
	expectKinds(t, input, []token.Kind{
		token.Ident, token.LParen,
		token.IntLit, token.Comma,
		token.IntLit, token.Comma,
		token.RParen, token.Newline,
	})
}

func TestContinuationLines(t *testing.T) {
	// A line starting with '.' joins the previous logical line.
	input := "a\n  .b()\n  .c()\n"
	expectKinds(t, input, []token.Kind{
		token.Ident,
		token.Dot, token.Ident, token.LParen, token.RParen,
		token.Dot, token.Ident, token.LParen, token.RParen,
		token.Newline,
	})
}

func TestDocCommentToken(t *testing.T) {
	input := "## Doc line\nfn f():\n  return 1\n"
	kinds, _ := collectKinds(input)
	if kinds[0] != token.DocComment {
		t.Fatalf("expected DocComment first, got %v", kinds[0])
	}
}

func TestRangeDoesNotLexAsFloat(t *testing.T) {
	expectKinds(t, "0..130\n", []token.Kind{
		token.IntLit, token.DotDot, token.IntLit, token.Newline,
	})
}

func TestFloatLiteral(t *testing.T) {
	lx, _ := makeTestLexer("3.14\n")
	tok := lx.Next()
	if tok.Kind != token.FloatLit || tok.Text != "3.14" {
		t.Fatalf("expected float 3.14, got %v %q", tok.Kind, tok.Text)
	}
}

func TestQuestionOperators(t *testing.T) {
	expectKinds(t, "a ?? b\n", []token.Kind{token.Ident, token.QuestionQuestion, token.Ident, token.Newline})
	expectKinds(t, "a?.b\n", []token.Kind{token.Ident, token.QuestionDot, token.Ident, token.Newline})
	expectKinds(t, "a?[0]\n", []token.Kind{token.Ident, token.QuestionBracket, token.IntLit, token.RBracket, token.Newline})
	expectKinds(t, "a ?! e\n", []token.Kind{token.Ident, token.QuestionBang, token.Ident, token.Newline})
}

func TestPlainString(t *testing.T) {
	lx, reporter := makeTestLexer("\"hi\\n\"\n")
	tok := lx.Next()
	if tok.Kind != token.StringLit {
		t.Fatalf("expected StringLit, got %v (%v)", tok.Kind, reporter.Codes())
	}
	if got := lexer.Unquote(tok.Text); got != "hi\n" {
		t.Errorf("Unquote: expected %q, got %q", "hi\n", got)
	}
}

func TestUnknownEscapePassesThrough(t *testing.T) {
	if got := lexer.DecodeEscapes(`a\qb`); got != `a\qb` {
		t.Errorf("unknown escape must pass through literally, got %q", got)
	}
}

func TestInterpolatedString(t *testing.T) {
	lx, reporter := makeTestLexer("\"Hello ${name}!\"\n")
	tok := lx.Next()
	if tok.Kind != token.InterpStringLit {
		t.Fatalf("expected InterpStringLit, got %v (%v)", tok.Kind, reporter.Codes())
	}

	parts := lexer.SplitInterp(lx.File(), tok.Span)
	if len(parts) != 3 {
		t.Fatalf("expected 3 parts, got %d: %+v", len(parts), parts)
	}
	if parts[0].Text != "Hello " || parts[0].IsExpr {
		t.Errorf("part 0: %+v", parts[0])
	}
	if !parts[1].IsExpr {
		t.Errorf("part 1 must be an expression: %+v", parts[1])
	}
	if got := string(lx.File().Content[parts[1].Start:parts[1].End]); got != "name" {
		t.Errorf("expression region: expected %q, got %q", "name", got)
	}
	if parts[2].Text != "!" {
		t.Errorf("part 2: %+v", parts[2])
	}
}

func TestUnterminatedString(t *testing.T) {
	_, reporter := collectKinds("\"abc\n")
	found := false
	for _, code := range reporter.Codes() {
		if code == diag.LexUnterminatedString {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected LexUnterminatedString, got %v", reporter.Codes())
	}
}

func TestTrailingNewlineSynthesized(t *testing.T) {
	// File without trailing newline still produces Newline before EOF.
	expectKinds(t, "let x = 1", []token.Kind{
		token.KwLet, token.Ident, token.Assign, token.IntLit, token.Newline,
	})
}
