package canon_test

import (
	"os"
	"path/filepath"
	"testing"

	"quill/internal/canon"
	"quill/internal/diag"
	"quill/internal/resolver"
	"quill/internal/sema"
	"quill/internal/source"
)

func buildProgram(t *testing.T, src string) *canon.Program {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.ql")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	fs := source.NewFileSetWithBase(dir)
	strings := source.NewInterner()
	bag := diag.NewBag(0)

	r := resolver.New(fs, strings, resolver.Options{Reporter: diag.BagReporter{Bag: bag}})
	if _, err := r.AddRoot(path); err != nil {
		t.Fatalf("AddRoot: %v", err)
	}
	res := r.Finish()
	sem := sema.Check(res, strings, sema.Options{Reporter: diag.BagReporter{Bag: bag}})
	return canon.Build(res, sem, strings)
}

func findDecl(m *canon.Module, name string) *canon.Decl {
	for i := range m.Decls {
		if m.Decls[i].Name == name {
			return &m.Decls[i]
		}
	}
	return nil
}

func TestFailedDeclIsDropped(t *testing.T) {
	p := buildProgram(t, `fn good() -> Int:
  return 1
fn bad() -> Int:
  return "nope"
`)
	if len(p.Modules) != 1 {
		t.Fatalf("modules: %d", len(p.Modules))
	}
	m := p.Modules[0]
	if findDecl(m, "good") == nil {
		t.Errorf("clean declaration must survive")
	}
	if findDecl(m, "bad") != nil {
		t.Errorf("declaration with type errors must be dropped")
	}
}

func TestManifestListsCapabilities(t *testing.T) {
	p := buildProgram(t, `requires time
fn tick() -> Int:
  return now()
fn pure() -> Int:
  return 1
service Clock:
  fn stamp() -> Int:
    return now()
`)
	manifest := p.Manifest("")
	if len(manifest.Modules) != 1 {
		t.Fatalf("modules: %d", len(manifest.Modules))
	}
	entry := manifest.Modules[0]
	if len(entry.Requires) != 1 || entry.Requires[0] != "time" {
		t.Fatalf("requires: %v", entry.Requires)
	}
	uses := make(map[string][]string, len(entry.Fns))
	for _, fn := range entry.Fns {
		uses[fn.Name] = fn.Uses
	}
	if got := uses["tick"]; len(got) != 1 || got[0] != "time" {
		t.Errorf("tick uses: %v", got)
	}
	if got := uses["pure"]; len(got) != 0 {
		t.Errorf("pure uses: %v", got)
	}
	if got := uses["Clock.stamp"]; len(got) != 1 || got[0] != "time" {
		t.Errorf("Clock.stamp uses: %v", got)
	}
}

func TestDocCommentsCarried(t *testing.T) {
	p := buildProgram(t, `## A registered account.
type User:
  id: Id
fn make() -> Int:
  return 1
`)
	m := p.Modules[0]
	user := findDecl(m, "User")
	if user == nil {
		t.Fatal("User missing")
	}
	if user.Doc != "A registered account." {
		t.Errorf("doc: %q", user.Doc)
	}
	if user.Struct == nil || len(user.Struct.Fields) != 1 {
		t.Errorf("User fields not carried")
	}
}

func TestFormatType(t *testing.T) {
	p := buildProgram(t, `fn five() -> Int:
  return 5
`)
	m := p.Modules[0]
	five := findDecl(m, "five")
	if five == nil || five.Fn == nil {
		t.Fatal("five missing")
	}
	if got := p.FormatType(five.Fn.Ret); got != "Int" {
		t.Errorf("ret type: %q", got)
	}
}
