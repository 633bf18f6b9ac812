package project_test

import (
	"os"
	"path/filepath"
	"testing"

	"quill/internal/project"
)

const sampleManifest = `
[package]
name = "shop"
language = "^0.4"

[dependencies]
Auth = "vendor/auth"
`

func TestParseManifest(t *testing.T) {
	m, err := project.Parse([]byte(sampleManifest))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.Package.Name != "shop" {
		t.Errorf("name: %q", m.Package.Name)
	}
	if err := m.CheckLanguage(); err != nil {
		t.Errorf("CheckLanguage: %v", err)
	}
}

func TestParseRejectsMissingName(t *testing.T) {
	if _, err := project.Parse([]byte("[package]\nlanguage = \"^0.4\"\n")); err == nil {
		t.Fatalf("missing package.name must fail")
	}
}

func TestParseRejectsBadConstraint(t *testing.T) {
	if _, err := project.Parse([]byte("[package]\nname = \"x\"\nlanguage = \"not-a-version\"\n")); err == nil {
		t.Fatalf("invalid language constraint must fail")
	}
}

func TestLanguageConstraintRejectsFutureMajor(t *testing.T) {
	m, err := project.Parse([]byte("[package]\nname = \"x\"\nlanguage = \"^9.0\"\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := m.CheckLanguage(); err == nil {
		t.Fatalf("constraint ^9.0 must not admit the current language version")
	}
}

func TestDependencyRoot(t *testing.T) {
	m, err := project.Parse([]byte(sampleManifest))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	m.Root = "/proj"

	root, ok := m.DependencyRoot("Auth")
	if !ok || root != filepath.Join("/proj", "vendor", "auth") {
		t.Errorf("Auth root: %q ok=%v", root, ok)
	}
	if _, ok := m.DependencyRoot("Unknown"); ok {
		t.Errorf("unknown prefix must not resolve")
	}
}

func TestLoadAndFind(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "src", "deep")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, project.ManifestName)
	if err := os.WriteFile(path, []byte(sampleManifest), 0o644); err != nil {
		t.Fatal(err)
	}

	found, err := project.Find(sub)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if found != path {
		t.Errorf("Find: %q, want %q", found, path)
	}

	m, err := project.Load(found)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Root != dir {
		t.Errorf("Root: %q, want %q", m.Root, dir)
	}
}
