package safety_test

import (
	"os"
	"path/filepath"
	"testing"

	"quill/internal/diag"
	"quill/internal/resolver"
	"quill/internal/safety"
	"quill/internal/sema"
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

func (r *testReporter) Count(code diag.Code) int {
	n := 0
	for _, d := range r.diagnostics {
		if d.Code == code {
			n++
		}
	}
	return n
}

func (r *testReporter) Codes() []diag.Code {
	codes := make([]diag.Code, 0, len(r.diagnostics))
	for _, d := range r.diagnostics {
		codes = append(codes, d.Code)
	}
	return codes
}

func runSafety(t *testing.T, files map[string]string, root string, strict bool) *testReporter {
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
	fs := source.NewFileSetWithBase(dir)
	interner := source.NewInterner()
	reporter := &testReporter{}

	r := resolver.New(fs, interner, resolver.Options{Reporter: reporter})
	if _, err := r.AddRoot(filepath.Join(dir, filepath.FromSlash(root))); err != nil {
		t.Fatalf("AddRoot: %v", err)
	}
	res := r.Finish()
	sem := sema.Check(res, interner, sema.Options{Reporter: reporter})
	safety.Check(res, sem, interner, safety.Options{Reporter: reporter, Strict: strict})
	return reporter
}

func runOne(t *testing.T, src string, strict bool) *testReporter {
	t.Helper()
	return runSafety(t, map[string]string{"main.ql": src}, "main.ql", strict)
}

func TestDetachedTask(t *testing.T) {
	reporter := runOne(t, `fn f() -> Unit:
  spawn:
    1 + 1
  return
`, false)
	if reporter.Count(diag.SafDetachedTask) != 1 {
		t.Fatalf("bare spawn must be flagged: %v", reporter.Codes())
	}
}

func TestStoredTaskIsNotDetached(t *testing.T) {
	reporter := runOne(t, `fn f() -> Int:
  let t = spawn:
    41 + 1
  return await t
`, false)
	if reporter.Count(diag.SafDetachedTask) != 0 {
		t.Fatalf("stored task must not be flagged: %v", reporter.Codes())
	}
}

func TestImmediatelyAwaitedTaskIsNotDetached(t *testing.T) {
	reporter := runOne(t, `fn f() -> Int:
  return await spawn:
    2
`, false)
	if reporter.Count(diag.SafDetachedTask) != 0 {
		t.Fatalf("awaited spawn must not be flagged: %v", reporter.Codes())
	}
}

func TestEachDetachedSpawnIsFlaggedOnce(t *testing.T) {
	reporter := runOne(t, `fn f() -> Unit:
  spawn:
    1
  spawn:
    2
  return
`, false)
	if reporter.Count(diag.SafDetachedTask) != 2 {
		t.Fatalf("each detached spawn must be flagged: %v", reporter.Codes())
	}
}

func TestTransactionRejectsSpawnAndReturn(t *testing.T) {
	reporter := runOne(t, `fn f() -> Unit:
  transaction:
    let t = spawn:
      1
    return
  return
`, false)
	if reporter.Count(diag.SafTransactionSpawn) != 1 {
		t.Errorf("spawn inside transaction must be flagged: %v", reporter.Codes())
	}
	if reporter.Count(diag.SafTransactionReturn) != 1 {
		t.Errorf("return inside transaction must be flagged: %v", reporter.Codes())
	}
}

func TestTransactionAllowsPlainStatements(t *testing.T) {
	reporter := runOne(t, `fn f() -> Int:
  var total = 0
  transaction:
    total = total + 1
  return total
`, false)
	if len(reporter.diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", reporter.Codes())
	}
}

func TestMixedErrorDomainsStrictOnly(t *testing.T) {
	src := `type DbError:
  msg: String
type NetError:
  msg: String
fn load() -> Int!DbError:
  return 1
fn fetch() -> Int!NetError:
  return 2
fn f() -> Int!:
  let x = load() ?!
  let y = fetch() ?!
  return x + y
`
	if reporter := runOne(t, src, false); reporter.Count(diag.SafMixedErrorDomain) != 0 {
		t.Fatalf("mixed domains must not be flagged outside strict mode: %v", reporter.Codes())
	}
	if reporter := runOne(t, src, true); reporter.Count(diag.SafMixedErrorDomain) != 1 {
		t.Fatalf("mixed domains must be flagged in strict mode")
	}
}

func TestLayerCycleStrictOnly(t *testing.T) {
	files := map[string]string{
		"api/handlers.ql": "import {Session} from \"../core/session\"\ntype Request:\n  session: Session\n",
		"core/session.ql": "import {Request} from \"../api/handlers\"\ntype Session:\n  id: Id\n",
	}
	if reporter := runSafety(t, files, "api/handlers.ql", true); reporter.Count(diag.SafLayerCycle) == 0 {
		t.Fatalf("cross-layer cycle must be flagged in strict mode: %v", reporter.Codes())
	}
	if reporter := runSafety(t, files, "api/handlers.ql", false); reporter.Count(diag.SafLayerCycle) != 0 {
		t.Fatalf("layer cycles are strict-mode only: %v", reporter.Codes())
	}
}
