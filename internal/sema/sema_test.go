package sema_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quill/internal/diag"
	"quill/internal/resolver"
	"quill/internal/sema"
	"quill/internal/source"
	"quill/internal/types"
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

type checked struct {
	out      *sema.Result
	res      *resolver.Result
	strings  *source.Interner
	reporter *testReporter
}

func checkSource(t *testing.T, src string) checked {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.ql")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	fs := source.NewFileSetWithBase(dir)
	interner := source.NewInterner()
	reporter := &testReporter{}

	r := resolver.New(fs, interner, resolver.Options{Reporter: reporter})
	if _, err := r.AddRoot(path); err != nil {
		t.Fatalf("AddRoot: %v", err)
	}
	res := r.Finish()
	out := sema.Check(res, interner, sema.Options{Reporter: reporter})
	return checked{out: out, res: res, strings: interner, reporter: reporter}
}

func checkClean(t *testing.T, src string) checked {
	t.Helper()
	c := checkSource(t, src)
	if len(c.reporter.diagnostics) != 0 {
		t.Fatalf("unexpected diagnostics: %v", c.reporter.Codes())
	}
	return c
}

// symbol finds a top-level declaration in the root module.
func (c checked) symbol(t *testing.T, name string) *resolver.Symbol {
	t.Helper()
	m := c.res.Module(c.res.Roots[0])
	sym, ok := c.res.LookupLocal(m, c.strings.Intern(name))
	if !ok {
		t.Fatalf("no declaration %q", name)
	}
	return sym
}

func TestStructLiteralRefinementViolation(t *testing.T) {
	c := checkSource(t, `type User:
  id: Id
  age: Int(0..130)
fn create() -> User:
  return User(id="u1", age=200)
`)
	if len(c.reporter.diagnostics) != 1 {
		t.Fatalf("expected exactly one diagnostic, got %v", c.reporter.Codes())
	}
	d := c.reporter.diagnostics[0]
	if d.Code != diag.TypRefinementViolation {
		t.Fatalf("expected TypRefinementViolation, got %v", d.Code)
	}
	if !strings.Contains(d.Message, `field "age"`) {
		t.Errorf("diagnostic must reference the field: %q", d.Message)
	}
}

func TestRefinementBoundsInclusive(t *testing.T) {
	checkClean(t, `fn ok() -> Unit:
  let a: Int(0..130) = 0
  let b: Int(0..130) = 130
  return
`)
	c := checkSource(t, `fn bad() -> Unit:
  let a: Int(0..130) = -1
  let b: Int(0..130) = 131
  return
`)
	if c.reporter.Count(diag.TypRefinementViolation) != 2 {
		t.Fatalf("both out-of-range literals must be flagged: %v", c.reporter.Codes())
	}
}

func TestStringRefinementChecksLength(t *testing.T) {
	c := checkSource(t, `type Tag:
  label: String(1..8)
fn f() -> Tag:
  return Tag(label="")
`)
	if c.reporter.Count(diag.TypRefinementViolation) != 1 {
		t.Fatalf("empty string must violate String(1..8): %v", c.reporter.Codes())
	}
}

func TestParamTypeRequired(t *testing.T) {
	c := checkSource(t, `fn f(x) -> Int:
  return 1
`)
	if c.reporter.Count(diag.TypParamTypeRequired) != 1 {
		t.Fatalf("expected TypParamTypeRequired, got %v", c.reporter.Codes())
	}
}

func TestConditionMustBeBool(t *testing.T) {
	c := checkSource(t, `fn f() -> Int:
  if 1:
    return 2
  return 3
`)
	if c.reporter.Count(diag.TypCondNotBool) != 1 {
		t.Fatalf("expected TypCondNotBool, got %v", c.reporter.Codes())
	}
}

func TestAssignmentMutability(t *testing.T) {
	checkClean(t, `fn f() -> Int:
  var x = 1
  x = 2
  return x
`)
	c := checkSource(t, `fn f() -> Int:
  let x = 1
  x = 2
  return x
`)
	if c.reporter.Count(diag.TypAssignImmutable) != 1 {
		t.Fatalf("expected TypAssignImmutable, got %v", c.reporter.Codes())
	}
}

func TestStructLiteralFieldErrors(t *testing.T) {
	c := checkSource(t, `type Point:
  x: Int
  y: Int
fn f() -> Point:
  return Point(x=1, z=3)
`)
	if c.reporter.Count(diag.TypUnknownField) != 1 {
		t.Errorf("unknown field z must be flagged: %v", c.reporter.Codes())
	}
	if c.reporter.Count(diag.TypMismatch) != 1 {
		t.Errorf("missing field y must be flagged: %v", c.reporter.Codes())
	}
}

func TestCoalesce(t *testing.T) {
	checkClean(t, `fn f() -> Int:
  let x = parse_int("3")
  return x ?? 0
`)
	c := checkSource(t, `fn f() -> Int:
  return 1 ?? 2
`)
	if c.reporter.Count(diag.TypBadCoalesce) != 1 {
		t.Fatalf("'??' on a non-optional must be flagged: %v", c.reporter.Codes())
	}
}

func TestPropagate(t *testing.T) {
	checkClean(t, `requires database
fn f() -> Int!:
  let n = db_execute("delete from sessions") ?!
  return n
`)
	c := checkSource(t, `requires database
fn f() -> Int:
  let n = db_execute("delete from sessions") ?!
  return n
`)
	if c.reporter.Count(diag.TypPropagateOutsideResult) != 1 {
		t.Fatalf("bare '?!' needs a Result return: %v", c.reporter.Codes())
	}
}

func TestPropagateOptionDefaultDomain(t *testing.T) {
	// The default domain supplies the error a None converts into.
	checkClean(t, `fn f() -> Int!:
  let n = parse_int("1") ?!
  return n
`)
	c := checkSource(t, `type BadInput:
  msg: String
fn f() -> Int!BadInput:
  let n = parse_int("1") ?!
  return n
`)
	if c.reporter.Count(diag.TypPropagateNeedsError) != 1 {
		t.Fatalf("bare '?!' on an Option in a concrete domain must be flagged: %v",
			c.reporter.Codes())
	}
}

func TestPropagateHandlerNeedsResultReturn(t *testing.T) {
	checkClean(t, `requires database
fn f() -> Int!:
  let n = db_execute("delete from sessions") ?! "no rows"
  return n
`)
	c := checkSource(t, `requires database
fn f() -> Int:
  let n = db_execute("delete from sessions") ?! 0
  return n
`)
	if c.reporter.Count(diag.TypPropagateOutsideResult) != 1 {
		t.Fatalf("'?!' with an error value still needs a Result return: %v",
			c.reporter.Codes())
	}
}

func TestPropagateHandlerDomainMismatch(t *testing.T) {
	c := checkSource(t, `type BadInput:
  msg: String
fn f() -> Int!BadInput:
  let n = parse_int("1") ?! 0
  return n
`)
	if c.reporter.Count(diag.TypMismatch) != 1 {
		t.Fatalf("error value must fit the declared domain: %v", c.reporter.Codes())
	}
}

func TestCapabilityViolation(t *testing.T) {
	checkClean(t, `requires time
fn when() -> Int:
  return now()
`)
	c := checkSource(t, `fn when() -> Int:
  return now()
`)
	if c.reporter.Count(diag.TypCapabilityViolation) != 1 {
		t.Fatalf("undeclared capability must be flagged: %v", c.reporter.Codes())
	}
}

func TestCapabilityClosureIsTransitive(t *testing.T) {
	c := checkSource(t, `fn outer() -> Int:
  return inner()
fn inner() -> Int:
  return now()
`)
	if c.reporter.Count(diag.TypCapabilityViolation) != 2 {
		t.Fatalf("caller and callee must both be flagged: %v", c.reporter.Codes())
	}
	outer := c.symbol(t, "outer")
	if !c.out.FnCaps[outer].Has(sema.CapTime) {
		t.Errorf("outer must inherit time from inner")
	}
}

func TestSpawnAwait(t *testing.T) {
	c := checkClean(t, `fn f() -> Int:
  let t = spawn:
    1 + 1
  return await t
`)
	if len(c.out.SpawnBodies) != 1 {
		t.Errorf("spawn body must be recorded for the safety pass")
	}
}

func TestAwaitNeedsTask(t *testing.T) {
	c := checkSource(t, `fn f() -> Int:
  return await 1
`)
	if c.reporter.Count(diag.TypMismatch) != 1 {
		t.Fatalf("await on a non-task must be flagged: %v", c.reporter.Codes())
	}
}

func TestEnumMatchAndConstruction(t *testing.T) {
	checkClean(t, `enum Status:
  Active
  Banned(String)
fn describe(s: Status) -> String:
  match s:
    Active: return "ok"
    Banned(reason): return reason
  return ""
fn ban() -> Status:
  return Status.Banned("spam")
`)
	c := checkSource(t, `enum Status:
  Active
fn f() -> Status:
  return Status.Gone
`)
	if c.reporter.Count(diag.TypUnknownVariant) != 1 {
		t.Fatalf("unknown variant must be flagged: %v", c.reporter.Codes())
	}
}

func TestEnumPatternShape(t *testing.T) {
	c := checkSource(t, `enum Status:
  Banned(String)
fn f(s: Status) -> Int:
  match s:
    Banned(a, b): return 1
  return 0
`)
	if c.reporter.Count(diag.TypEnumPatternShape) != 1 {
		t.Fatalf("wrong payload arity must be flagged: %v", c.reporter.Codes())
	}
}

func TestValueCycleExcluded(t *testing.T) {
	c := checkSource(t, `type A:
  b: B
type B:
  a: A
`)
	if c.reporter.Count(diag.TypValueCycle) == 0 {
		t.Fatalf("value cycle must be flagged: %v", c.reporter.Codes())
	}
	if len(c.out.Excluded) == 0 {
		t.Errorf("cyclic declarations must be excluded from the canonical output")
	}
}

func TestOptionBreaksValueCycle(t *testing.T) {
	checkClean(t, `type Node:
  next: Node?
  value: Int
fn f() -> Int:
  return 0
`)
}

func TestDerivedTypeDropsFields(t *testing.T) {
	c := checkClean(t, `type User:
  id: Id
  secret: String
type Public = User without secret
fn f() -> Int:
  return 0
`)
	info := c.out.Structs[c.symbol(t, "Public")]
	if len(info.Fields) != 1 {
		t.Fatalf("expected 1 surviving field, got %d", len(info.Fields))
	}
	if info.Fields[0].Name != c.strings.Intern("id") {
		t.Errorf("surviving field must be id")
	}
}

func TestMapKeyMustBeString(t *testing.T) {
	c := checkSource(t, `fn f(m: Map<Int, String>) -> Int:
  return 0
`)
	if c.reporter.Count(diag.TypMapKeyNotString) != 1 {
		t.Fatalf("non-String map key must be flagged: %v", c.reporter.Codes())
	}
}

func TestReturnTypeInference(t *testing.T) {
	c := checkClean(t, `fn five():
  return 5
fn f() -> Int:
  return five()
`)
	sig := c.out.Fns[c.symbol(t, "five")]
	if sig.Ret != c.out.Types.Int {
		t.Fatalf("inferred return must be Int, got %s", c.out.Types.Format(sig.Ret, c.strings))
	}
}

func TestContainerMethods(t *testing.T) {
	checkClean(t, `fn f(names: List<String>) -> Int:
  let first = names.first() ?? "nobody"
  return names.len() + first.len()
`)
}

func TestOptionalAccessChain(t *testing.T) {
	checkClean(t, `type Profile:
  bio: String
type User:
  profile: Profile?
fn f(u: User) -> String:
  return u.profile?.bio ?? ""
`)
	c := checkSource(t, `type Profile:
  bio: String
type User:
  profile: Profile?
fn f(u: User) -> String:
  return u.profile.bio
`)
	if c.reporter.Count(diag.TypBadOptionalAccess) != 1 {
		t.Fatalf("plain '.' through an optional must be flagged: %v", c.reporter.Codes())
	}
}

func TestInterpolationRejectsContainers(t *testing.T) {
	checkClean(t, `fn f(names: List<String>) -> String:
  return "count: ${names.len()}"
`)
	c := checkSource(t, `fn f(names: List<String>) -> String:
  return "got: ${names}"
`)
	if c.reporter.Count(diag.TypMismatch) != 1 {
		t.Fatalf("interpolating a container must be flagged: %v", c.reporter.Codes())
	}
}

func TestServiceAndConfig(t *testing.T) {
	c := checkClean(t, `config Settings:
  port: Int = 8080
type User:
  id: Id
service Accounts:
  fn create() -> User:
    return User(id=make_id())
fn main() -> Int:
  let u = Accounts.create()
  return Settings.port
`)
	if len(c.out.ExprTypes) == 0 {
		t.Fatalf("expression types must be recorded")
	}
}

func TestForIteratesListsAndRanges(t *testing.T) {
	checkClean(t, `fn sum(xs: List<Int>) -> Int:
  var total = 0
  for x in xs:
    total = total + x
  for i in 0..9:
    total = total + i
  return total
`)
	c := checkSource(t, `fn f() -> Int:
  for x in 1:
    return x
  return 0
`)
	if c.reporter.Count(diag.TypMismatch) == 0 {
		t.Fatalf("iterating an Int must be flagged: %v", c.reporter.Codes())
	}
}

func TestTaskTypeFormat(t *testing.T) {
	in := types.NewInterner()
	task := in.Task(in.Int)
	if got := in.Format(task, source.NewInterner()); got != "Task<Int>" {
		t.Fatalf("Format(Task<Int>) = %q", got)
	}
}
