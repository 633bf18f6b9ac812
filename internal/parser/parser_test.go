package parser_test

import (
	"testing"

	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/parser"
	"quill/internal/source"
)

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

func (r *testReporter) Codes() []diag.Code {
	codes := make([]diag.Code, 0, len(r.diagnostics))
	for _, d := range r.diagnostics {
		codes = append(codes, d.Code)
	}
	return codes
}

func parseSource(t *testing.T, input string) (*ast.Builder, *ast.File, *testReporter) {
	t.Helper()
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("test.ql", []byte(input))
	file := fs.Get(fileID)

	reporter := &testReporter{}
	b := ast.NewBuilder(source.NewInterner(), ast.DefaultHints())
	p := parser.New(file, b, parser.Options{Reporter: reporter})
	id := p.ParseFile()
	return b, b.Files.Get(id), reporter
}

func parseClean(t *testing.T, input string) (*ast.Builder, *ast.File) {
	t.Helper()
	b, f, reporter := parseSource(t, input)
	if len(reporter.diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", reporter.Codes())
	}
	return b, f
}

func itemName(b *ast.Builder, id ast.ItemID) string {
	item := b.Items.Get(id)
	switch item.Kind {
	case ast.ItemType:
		return b.Lookup(b.Items.Type(id).Name)
	case ast.ItemEnum:
		return b.Lookup(b.Items.Enum(id).Name)
	case ast.ItemFn:
		return b.Lookup(b.Items.Fn(id).Name)
	case ast.ItemService:
		return b.Lookup(b.Items.Service(id).Name)
	case ast.ItemConfig:
		return b.Lookup(b.Items.Config(id).Name)
	default:
		return ""
	}
}

func TestParseImports(t *testing.T) {
	b, f := parseClean(t, "import Auth.Users\nimport {Token, Session} from \"auth/session\"\n")
	if len(f.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(f.Items))
	}

	plain := b.Items.Import(f.Items[0])
	if plain == nil || plain.From {
		t.Fatalf("item 0 must be a plain import: %+v", plain)
	}
	if plain.Path != "Auth.Users" || b.Lookup(plain.Alias) != "Users" {
		t.Errorf("plain import: path %q alias %q", plain.Path, b.Lookup(plain.Alias))
	}

	named := b.Items.Import(f.Items[1])
	if named == nil || !named.From {
		t.Fatalf("item 1 must be a named import: %+v", named)
	}
	if named.Path != "auth/session" || len(named.Names) != 2 {
		t.Errorf("named import: path %q names %d", named.Path, len(named.Names))
	}
	if b.Lookup(named.Names[0].Name) != "Token" || b.Lookup(named.Names[1].Name) != "Session" {
		t.Errorf("named import binds wrong names")
	}
}

func TestParseTypeDecl(t *testing.T) {
	b, f := parseClean(t, "type User:\n  id: Id\n  age: Int(0..130) = 18\n")
	decl := b.Items.Type(f.Items[0])
	if decl == nil || b.Lookup(decl.Name) != "User" {
		t.Fatalf("expected type User, got %+v", decl)
	}
	if len(decl.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(decl.Fields))
	}
	if b.Lookup(decl.Fields[0].Name) != "id" || decl.Fields[0].Default.IsValid() {
		t.Errorf("field id: %+v", decl.Fields[0])
	}

	age := decl.Fields[1]
	if !age.Default.IsValid() {
		t.Errorf("age must carry a default")
	}
	refined := b.Types.Refined(age.Type)
	if refined == nil || b.Lookup(refined.Base) != "Int" {
		t.Fatalf("age must have a refined Int type")
	}
	if r := b.Exprs.Range(refined.Arg); r == nil {
		t.Errorf("refinement argument must be a range expression")
	}
}

func TestParseDerivedType(t *testing.T) {
	b, f := parseClean(t, "type PublicUser = User without email, password\n")
	decl := b.Items.Type(f.Items[0])
	if decl == nil || !decl.Derived {
		t.Fatalf("expected derived type, got %+v", decl)
	}
	if !decl.Base.IsValid() || len(decl.Without) != 2 {
		t.Fatalf("derivation base/without: %+v", decl)
	}
	if b.Lookup(decl.Without[0].Name) != "email" || b.Lookup(decl.Without[1].Name) != "password" {
		t.Errorf("without list order must be preserved")
	}
}

func TestParseEnum(t *testing.T) {
	b, f := parseClean(t, "enum Shape:\n  Point\n  Circle(Float)\n  Rect(Float, Float)\n")
	decl := b.Items.Enum(f.Items[0])
	if decl == nil || len(decl.Variants) != 3 {
		t.Fatalf("expected 3 variants, got %+v", decl)
	}
	if len(decl.Variants[0].Payload) != 0 || len(decl.Variants[1].Payload) != 1 || len(decl.Variants[2].Payload) != 2 {
		t.Errorf("variant payload arities wrong")
	}
}

func TestParseFnDecl(t *testing.T) {
	b, f := parseClean(t, "fn add(a: Int, b: Int) -> Int:\n  return a + b\n")
	decl := b.Items.Fn(f.Items[0])
	if decl == nil || b.Lookup(decl.Name) != "add" {
		t.Fatalf("expected fn add, got %+v", decl)
	}
	if len(decl.Params) != 2 || !decl.Ret.IsValid() {
		t.Fatalf("params/ret: %+v", decl)
	}
	body := b.Stmts.Block(decl.Body)
	if body == nil || len(body.Stmts) != 1 {
		t.Fatalf("body must hold one statement")
	}
	ret := b.Stmts.Return(body.Stmts[0])
	if ret == nil || !ret.Value.IsValid() {
		t.Fatalf("body must be a return with value")
	}
}

func TestParseService(t *testing.T) {
	input := "service Accounts:\n  fn create(name: String) -> Id:\n    return make_id(name)\n  fn drop(id: Id):\n    delete(id)\n"
	b, f := parseClean(t, input)
	decl := b.Items.Service(f.Items[0])
	if decl == nil || len(decl.Fns) != 2 {
		t.Fatalf("expected service with 2 fns, got %+v", decl)
	}
	if b.Lookup(b.Items.Fn(decl.Fns[0]).Name) != "create" {
		t.Errorf("first fn must be create")
	}
}

func TestParseConfigAndRequires(t *testing.T) {
	b, f := parseClean(t, "requires database, network\nconfig Server:\n  port: Int = 8080\n")
	if len(f.Requires) != 2 {
		t.Fatalf("expected 2 required capabilities, got %d", len(f.Requires))
	}
	if b.Lookup(f.Requires[0].Name) != "database" {
		t.Errorf("capability order must be preserved")
	}
	var cfg *ast.ConfigDecl
	for _, id := range f.Items {
		if c := b.Items.Config(id); c != nil {
			cfg = c
		}
	}
	if cfg == nil || len(cfg.Fields) != 1 || !cfg.Fields[0].Default.IsValid() {
		t.Fatalf("config Server: %+v", cfg)
	}
}

func TestDocCommentAttached(t *testing.T) {
	b, f := parseClean(t, "## Adds two numbers.\n## Second line.\nfn add(a: Int, b: Int) -> Int:\n  return a + b\n")
	decl := b.Items.Fn(f.Items[0])
	if decl.Doc == source.NoStringID {
		t.Fatalf("doc comment must attach to the declaration")
	}
	if got := b.Lookup(decl.Doc); got != "Adds two numbers.\nSecond line." {
		t.Errorf("doc text: %q", got)
	}
}

func TestPrecedence(t *testing.T) {
	b, f := parseClean(t, "fn f() -> Int:\n  return 1 + 2 * 3\n")
	body := b.Stmts.Block(b.Items.Fn(f.Items[0]).Body)
	ret := b.Stmts.Return(body.Stmts[0])
	add := b.Exprs.Binary(ret.Value)
	if add == nil || add.Op != ast.OpAdd {
		t.Fatalf("top operator must be +")
	}
	mul := b.Exprs.Binary(add.Right)
	if mul == nil || mul.Op != ast.OpMul {
		t.Fatalf("* must bind tighter than +")
	}
}

func TestCoalesceIsLowest(t *testing.T) {
	b, f := parseClean(t, "fn f() -> Int:\n  return a ?? b + 1\n")
	body := b.Stmts.Block(b.Items.Fn(f.Items[0]).Body)
	ret := b.Stmts.Return(body.Stmts[0])
	co := b.Exprs.Coalesce(ret.Value)
	if co == nil {
		t.Fatalf("top node must be coalesce")
	}
	if b.Exprs.Binary(co.Right) == nil {
		t.Errorf("?? must bind looser than +")
	}
}

func TestStructLiteralLookahead(t *testing.T) {
	b, f := parseClean(t, "fn f():\n  let u = User(id=\"u1\", age=18)\n  let r = make(1, 2)\n")
	body := b.Stmts.Block(b.Items.Fn(f.Items[0]).Body)

	first := b.Stmts.Let(body.Stmts[0])
	lit := b.Exprs.StructLit(first.Value)
	if lit == nil || b.Lookup(lit.Name) != "User" || len(lit.Fields) != 2 {
		t.Fatalf("User(...) with name=expr args must parse as struct literal")
	}

	second := b.Stmts.Let(body.Stmts[1])
	if b.Exprs.Call(second.Value) == nil {
		t.Fatalf("make(1, 2) must stay a call")
	}
}

func TestStructLiteralNeedsNamedFirstArgument(t *testing.T) {
	_, _, reporter := parseSource(t, "fn f():\n  let r = make(x, y=1)\n")
	if len(reporter.diagnostics) == 0 {
		t.Fatalf("a named argument after a positional one must not form a struct literal")
	}
	if reporter.diagnostics[0].Code != diag.SynUnclosedParen {
		t.Fatalf("make(x, y=1) must be taken as a call, got %v", reporter.Codes())
	}
}

func TestOptionalPostfixChain(t *testing.T) {
	b, f := parseClean(t, "fn f():\n  let v = user?.address?[0] ?? fallback\n")
	body := b.Stmts.Block(b.Items.Fn(f.Items[0]).Body)
	let := b.Stmts.Let(body.Stmts[0])

	co := b.Exprs.Coalesce(let.Value)
	if co == nil {
		t.Fatalf("top node must be coalesce")
	}
	optIdx := b.Exprs.Get(co.Left)
	if optIdx.Kind != ast.ExprOptIndex {
		t.Fatalf("left of ?? must be an optional index, got %v", optIdx.Kind)
	}
	base := b.Exprs.Index(co.Left).Base
	if b.Exprs.Get(base).Kind != ast.ExprOptMember {
		t.Errorf("?[ must chain onto ?. left to right")
	}
}

func TestPropagateWithHandler(t *testing.T) {
	b, f := parseClean(t, "fn f() -> Int:\n  let v = load() ?! DbError\n  return v\n")
	body := b.Stmts.Block(b.Items.Fn(f.Items[0]).Body)
	let := b.Stmts.Let(body.Stmts[0])
	prop := b.Exprs.Propagate(let.Value)
	if prop == nil || !prop.Handler.IsValid() {
		t.Fatalf("expected propagate with handler, got %+v", prop)
	}
}

func TestSpawnBlockExpression(t *testing.T) {
	input := "fn f():\n  let t = spawn:\n    work()\n  await t\n"
	b, f := parseClean(t, input)
	body := b.Stmts.Block(b.Items.Fn(f.Items[0]).Body)
	if len(body.Stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(body.Stmts))
	}
	let := b.Stmts.Let(body.Stmts[0])
	sp := b.Exprs.Spawn(let.Value)
	if sp == nil || !sp.Body.IsValid() {
		t.Fatalf("let value must be a spawn block")
	}
	stmt := b.Stmts.Expr(body.Stmts[1])
	if stmt == nil || b.Exprs.Await(stmt.Expr) == nil {
		t.Fatalf("second statement must be an await")
	}
}

func TestMatchArms(t *testing.T) {
	input := "fn f(s: Shape) -> Int:\n  match s:\n    Point: return 0\n    Circle(r): return 1\n    Rect(w=a, h=b): return 2\n    _: return 3\n"
	b, f := parseClean(t, input)
	body := b.Stmts.Block(b.Items.Fn(f.Items[0]).Body)
	m := b.Stmts.Match(body.Stmts[0])
	if m == nil || len(m.Arms) != 4 {
		t.Fatalf("expected 4 arms, got %+v", m)
	}

	if b.Patterns.Get(m.Arms[0].Pattern).Kind != ast.PatName {
		t.Errorf("bare identifier arm must stay a name pattern for the checker")
	}
	circle := b.Patterns.Constructor(m.Arms[1].Pattern)
	if circle == nil || circle.Named || len(circle.Subs) != 1 {
		t.Errorf("Circle(r): %+v", circle)
	}
	rect := b.Patterns.Constructor(m.Arms[2].Pattern)
	if rect == nil || !rect.Named || len(rect.Subs) != 2 {
		t.Errorf("Rect(w=a, h=b): %+v", rect)
	}
	if b.Patterns.Get(m.Arms[3].Pattern).Kind != ast.PatWildcard {
		t.Errorf("_ must be a wildcard pattern")
	}
}

func TestTypeSugar(t *testing.T) {
	b, f := parseClean(t, "type T:\n  a: String?\n  b: Int!\n  c: Int!DbError\n  d: List<Int>\n  e: Map<String, User>\n")
	decl := b.Items.Type(f.Items[0])

	if b.Types.Optional(decl.Fields[0].Type) == nil {
		t.Errorf("String? must be an optional type")
	}
	bare := b.Types.Result(decl.Fields[1].Type)
	if bare == nil || bare.Err.IsValid() {
		t.Errorf("Int! must be a result with default error")
	}
	typed := b.Types.Result(decl.Fields[2].Type)
	if typed == nil || !typed.Err.IsValid() {
		t.Errorf("Int!DbError must carry its error type")
	}
	list := b.Types.Generic(decl.Fields[3].Type)
	if list == nil || b.Lookup(list.Name) != "List" || len(list.Args) != 1 {
		t.Errorf("List<Int>: %+v", list)
	}
	m := b.Types.Generic(decl.Fields[4].Type)
	if m == nil || len(m.Args) != 2 {
		t.Errorf("Map<String, User>: %+v", m)
	}
}

func TestInterpolatedStringExpr(t *testing.T) {
	b, f := parseClean(t, "fn f(name: String) -> String:\n  return \"Hello ${name}!\"\n")
	body := b.Stmts.Block(b.Items.Fn(f.Items[0]).Body)
	ret := b.Stmts.Return(body.Stmts[0])
	interp := b.Exprs.InterpString(ret.Value)
	if interp == nil || len(interp.Segments) != 3 {
		t.Fatalf("expected 3 segments, got %+v", interp)
	}
	if interp.Segments[0].Text != "Hello " || interp.Segments[2].Text != "!" {
		t.Errorf("text segments wrong: %+v", interp.Segments)
	}
	ident := b.Exprs.Ident(interp.Segments[1].Expr)
	if ident == nil || b.Lookup(ident.Name) != "name" {
		t.Errorf("embedded expression must parse as identifier name")
	}
}

func TestTestAndMigrationDecls(t *testing.T) {
	input := "migration AddUsers:\n  create_table()\ntest \"users can be created\":\n  check(create())\n"
	b, f := parseClean(t, input)
	if len(f.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(f.Items))
	}
	mig := b.Items.Migration(f.Items[0])
	if mig == nil || b.Lookup(mig.Name) != "AddUsers" {
		t.Fatalf("migration: %+v", mig)
	}
	tst := b.Items.Test(f.Items[1])
	if tst == nil || b.Lookup(tst.Name) != "users can be created" {
		t.Fatalf("test: %+v", tst)
	}
}

func TestErrorRecoveryAtItemBoundary(t *testing.T) {
	// The malformed fn must not swallow the following type declaration.
	input := "fn broken(:\n  return 1\ntype Ok:\n  id: Id\n"
	b, f, reporter := parseSource(t, input)
	if len(reporter.diagnostics) == 0 {
		t.Fatalf("expected syntax diagnostics")
	}
	found := false
	for _, id := range f.Items {
		if itemName(b, id) == "Ok" {
			found = true
		}
	}
	if !found {
		t.Errorf("recovery must reach the next item; items: %d", len(f.Items))
	}
}

func TestMultipleErrorsOnePass(t *testing.T) {
	input := "fn a(:\n  return 1\nfn b(:\n  return 2\n"
	_, _, reporter := parseSource(t, input)
	if len(reporter.diagnostics) < 2 {
		t.Fatalf("one pass must report both errors, got %v", reporter.Codes())
	}
}

func TestAssignStatement(t *testing.T) {
	b, f := parseClean(t, "fn f():\n  var n = 0\n  n = n + 1\n  user.name = \"x\"\n")
	body := b.Stmts.Block(b.Items.Fn(f.Items[0]).Body)
	let := b.Stmts.Let(body.Stmts[0])
	if let == nil || !let.Mutable {
		t.Fatalf("var must set Mutable")
	}
	if b.Stmts.Assign(body.Stmts[1]) == nil {
		t.Errorf("n = n + 1 must be an assignment")
	}
	member := b.Stmts.Assign(body.Stmts[2])
	if member == nil || b.Exprs.Member(member.Target) == nil {
		t.Errorf("member target assignment must parse")
	}
}

func TestListAndMapLiterals(t *testing.T) {
	b, f := parseClean(t, "fn f():\n  let xs = [1, 2, 3,]\n  let m = {\"a\": 1, \"b\": 2}\n")
	body := b.Stmts.Block(b.Items.Fn(f.Items[0]).Body)
	xs := b.Exprs.List(b.Stmts.Let(body.Stmts[0]).Value)
	if xs == nil || len(xs.Elems) != 3 {
		t.Fatalf("list literal with trailing comma: %+v", xs)
	}
	m := b.Exprs.Map(b.Stmts.Let(body.Stmts[1]).Value)
	if m == nil || len(m.Entries) != 2 {
		t.Fatalf("map literal: %+v", m)
	}
}
