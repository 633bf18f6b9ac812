package project

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
)

// LanguageVersion is the language level this front end implements,
// matched against the manifest's `language` constraint.
const LanguageVersion = "0.4.0"

// ManifestName is the file the loader looks for at the project root.
const ManifestName = "quill.toml"

// Manifest is the parsed quill.toml.
//
//	[package]
//	name = "shop"
//	language = "^0.4"
//
//	[dependencies]
//	Auth = "vendor/auth"
type Manifest struct {
	Package      Package           `toml:"package"`
	Dependencies map[string]string `toml:"dependencies"`

	// Root is the directory holding the manifest; dependency roots
	// resolve relative to it.
	Root string `toml:"-"`
}

// Package is the manifest's [package] section. Strict opts the project
// into the architectural checks (layer cycles, error-domain mixing).
type Package struct {
	Name     string `toml:"name"`
	Language string `toml:"language"`
	Strict   bool   `toml:"strict"`
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, err
	}
	m.Root = filepath.Dir(path)
	return m, nil
}

// Parse decodes and validates manifest content.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Package.Name == "" {
		return nil, fmt.Errorf("manifest: package.name is required")
	}
	if m.Package.Language != "" {
		if _, err := semver.NewConstraint(m.Package.Language); err != nil {
			return nil, fmt.Errorf("manifest: invalid language constraint %q: %w", m.Package.Language, err)
		}
	}
	return &m, nil
}

// CheckLanguage verifies the manifest's language constraint against the
// version this front end implements. An absent constraint accepts any.
func (m *Manifest) CheckLanguage() error {
	if m.Package.Language == "" {
		return nil
	}
	c, err := semver.NewConstraint(m.Package.Language)
	if err != nil {
		return fmt.Errorf("invalid language constraint %q: %w", m.Package.Language, err)
	}
	v := semver.MustParse(LanguageVersion)
	if !c.Check(v) {
		return fmt.Errorf("language constraint %q does not admit version %s", m.Package.Language, LanguageVersion)
	}
	return nil
}

// DependencyRoot maps an import path prefix to its source directory,
// resolved against the manifest root.
func (m *Manifest) DependencyRoot(prefix string) (string, bool) {
	rel, ok := m.Dependencies[prefix]
	if !ok {
		return "", false
	}
	if filepath.IsAbs(rel) {
		return rel, true
	}
	return filepath.Join(m.Root, rel), true
}

// Find walks upward from dir to locate the nearest manifest.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found above %s", ManifestName, dir)
		}
		dir = parent
	}
}
