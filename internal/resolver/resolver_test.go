package resolver_test

import (
	"os"
	"path/filepath"
	"testing"

	"quill/internal/diag"
	"quill/internal/resolver"
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

func (r *testReporter) Count(code diag.Code) int {
	n := 0
	for _, d := range r.diagnostics {
		if d.Code == code {
			n++
		}
	}
	return n
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func resolveTree(t *testing.T, files map[string]string, root string) (*resolver.Result, *testReporter) {
	t.Helper()
	dir := writeTree(t, files)
	fs := source.NewFileSetWithBase(dir)
	strings := source.NewInterner()
	reporter := &testReporter{}

	r := resolver.New(fs, strings, resolver.Options{Reporter: reporter})
	if _, err := r.AddRoot(filepath.Join(dir, filepath.FromSlash(root))); err != nil {
		t.Fatalf("AddRoot: %v", err)
	}
	return r.Finish(), reporter
}

func TestResolveSingleModule(t *testing.T) {
	res, reporter := resolveTree(t, map[string]string{
		"main.ql": "type User:\n  id: Id\nfn create() -> User:\n  return User(id=make_id())\n",
	}, "main.ql")
	if len(reporter.diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", reporter.Codes())
	}
	m := res.Module(res.Roots[0])
	if len(m.Order) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(m.Order))
	}
	if m.Order[0].Kind != resolver.SymType || m.Order[1].Kind != resolver.SymFn {
		t.Errorf("declaration kinds: %v %v", m.Order[0].Kind, m.Order[1].Kind)
	}
}

func TestPlainImportRequiresQualifiedAccess(t *testing.T) {
	res, reporter := resolveTree(t, map[string]string{
		"main.ql":       "import Auth.Users\n",
		"Auth/Users.ql": "type Account:\n  id: Id\n",
	}, "main.ql")
	if len(reporter.diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", reporter.Codes())
	}

	m := res.Module(res.Roots[0])
	if len(m.Aliases) != 1 {
		t.Fatalf("plain import must register exactly one alias, got %d", len(m.Aliases))
	}
	for _, target := range m.Aliases {
		if res.Module(target) == nil {
			t.Fatalf("alias target must resolve")
		}
	}
	// The imported type must not resolve unqualified.
	account := m.B.Intern("Account")
	if _, ok := res.LookupLocal(m, account); ok {
		t.Errorf("aliased import must not leak into unqualified scope")
	}
	users := m.B.Intern("Users")
	if sym, known := res.LookupQualified(m, users, account); !known || sym == nil {
		t.Errorf("qualified access must resolve: known=%v sym=%v", known, sym)
	}
}

func TestNamedImportCopiesBinding(t *testing.T) {
	res, reporter := resolveTree(t, map[string]string{
		"main.ql":    "import {Token} from \"session\"\n",
		"session.ql": "type Token:\n  value: String\ntype Session:\n  token: Token\n",
	}, "main.ql")
	if len(reporter.diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", reporter.Codes())
	}

	m := res.Module(res.Roots[0])
	token := m.B.Intern("Token")
	if sym, ok := res.LookupLocal(m, token); !ok || sym == nil || sym.Kind != resolver.SymType {
		t.Fatalf("named import must resolve unqualified")
	}
	// Session was not named, so it stays invisible.
	session := m.B.Intern("Session")
	if _, ok := res.LookupLocal(m, session); ok {
		t.Errorf("unnamed declarations must not leak through a named import")
	}
}

func TestUnresolvedImport(t *testing.T) {
	_, reporter := resolveTree(t, map[string]string{
		"main.ql": "import Missing.Module\n",
	}, "main.ql")
	if reporter.Count(diag.ResUnresolvedImport) != 1 {
		t.Fatalf("expected ResUnresolvedImport, got %v", reporter.Codes())
	}
}

func TestSelfImport(t *testing.T) {
	_, reporter := resolveTree(t, map[string]string{
		"main.ql": "import main\n",
	}, "main.ql")
	if reporter.Count(diag.ResSelfImport) != 1 {
		t.Fatalf("expected ResSelfImport, got %v", reporter.Codes())
	}
}

func TestGlobalUniquenessAcrossModules(t *testing.T) {
	// Both modules declare User; neither references the other's. The
	// collision is still an error, not a shadowing event.
	_, reporter := resolveTree(t, map[string]string{
		"main.ql": "import a\nimport b\n",
		"a.ql":    "type User:\n  id: Id\n",
		"b.ql":    "type User:\n  name: String\n",
	}, "main.ql")
	if reporter.Count(diag.ResDuplicateName) != 1 {
		t.Fatalf("expected exactly one ResDuplicateName, got %v", reporter.Codes())
	}
}

func TestUnknownModuleMember(t *testing.T) {
	_, reporter := resolveTree(t, map[string]string{
		"main.ql":    "import {Missing} from \"session\"\n",
		"session.ql": "type Token:\n  value: String\n",
	}, "main.ql")
	if reporter.Count(diag.ResUnknownModuleMember) != 1 {
		t.Fatalf("expected ResUnknownModuleMember, got %v", reporter.Codes())
	}
}

func TestNamedImportCollidesWithLocalDecl(t *testing.T) {
	_, reporter := resolveTree(t, map[string]string{
		"main.ql":    "import {Token} from \"session\"\ntype Token:\n  own: Bool\n",
		"session.ql": "type Token:\n  value: String\n",
	}, "main.ql")
	if reporter.Count(diag.ResDuplicateName) == 0 {
		t.Fatalf("expected ResDuplicateName, got %v", reporter.Codes())
	}
}

func TestDuplicateImportAlias(t *testing.T) {
	_, reporter := resolveTree(t, map[string]string{
		"main.ql":       "import Auth.Users\nimport Other.Users\n",
		"Auth/Users.ql": "type A:\n  id: Id\n",
		"Other/Users.ql": "type B:\n  id: Id\n",
	}, "main.ql")
	if reporter.Count(diag.ResDuplicateImport) != 1 {
		t.Fatalf("expected ResDuplicateImport, got %v", reporter.Codes())
	}
}

func TestImportCycleTerminates(t *testing.T) {
	res, reporter := resolveTree(t, map[string]string{
		"a.ql": "import b\ntype A:\n  id: Id\n",
		"b.ql": "import a\ntype B:\n  id: Id\n",
	}, "a.ql")
	for _, code := range reporter.Codes() {
		if code == diag.ResSelfImport {
			t.Fatalf("a cycle is not a self import")
		}
	}
	if len(res.Modules) != 2 {
		t.Fatalf("both modules must load once, got %d", len(res.Modules))
	}
}

func TestDuplicateNameInOneModule(t *testing.T) {
	_, reporter := resolveTree(t, map[string]string{
		"main.ql": "fn f() -> Int:\n  return 1\nfn f() -> Int:\n  return 2\n",
	}, "main.ql")
	if reporter.Count(diag.ResDuplicateName) != 1 {
		t.Fatalf("expected one ResDuplicateName, got %v", reporter.Codes())
	}
}
