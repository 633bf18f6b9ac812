package resolver

import (
	"os"
	"path/filepath"
	"strings"
)

// SourceExt is the file extension of source modules.
const SourceExt = ".ql"

// resolveImportPath turns an import path into a candidate file path.
//
// Dotted paths (`Auth.Users`) try, in order: a manifest dependency root
// for the first segment, the importing file's directory, the project
// root. Quoted from-paths (`"auth/session"`) are slash-separated and try
// the importing file's directory, then the project root.
func (r *Resolver) resolveImportPath(fromDir, path string, quoted bool) (string, bool) {
	var rel string
	if quoted {
		rel = filepath.FromSlash(path)
	} else {
		segments := strings.Split(path, ".")
		if r.manifest != nil {
			if root, ok := r.manifest.DependencyRoot(segments[0]); ok {
				candidate := filepath.Join(root, filepath.Join(segments[1:]...)) + SourceExt
				if fileExists(candidate) {
					return candidate, true
				}
				return candidate, false
			}
		}
		rel = filepath.Join(segments...)
	}
	if !strings.HasSuffix(rel, SourceExt) {
		rel += SourceExt
	}

	candidate := filepath.Join(fromDir, rel)
	if fileExists(candidate) {
		return candidate, true
	}
	if r.manifest != nil && r.manifest.Root != "" {
		candidate = filepath.Join(r.manifest.Root, rel)
		if fileExists(candidate) {
			return candidate, true
		}
	}
	return filepath.Join(fromDir, rel), false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
