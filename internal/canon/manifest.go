package canon

import (
	"path/filepath"
	"sort"

	"quill/internal/resolver"
)

// FnCaps is one function's capability use in the capability manifest.
type FnCaps struct {
	Name string   `json:"name"`
	Uses []string `json:"uses,omitempty"`
}

// ModuleCaps is one module's entry in the capability manifest.
type ModuleCaps struct {
	Path     string   `json:"path"`
	Requires []string `json:"requires,omitempty"`
	Fns      []FnCaps `json:"fns,omitempty"`
}

// CapabilityManifest lists, per module, the declared capability set and
// the transitive capability use of every function. Build collaborators
// consume it to provision runtime effects.
type CapabilityManifest struct {
	Modules []ModuleCaps `json:"modules"`
}

// Manifest derives the capability manifest from the canonical program.
// Paths are made relative to baseDir when possible.
func (p *Program) Manifest(baseDir string) CapabilityManifest {
	out := CapabilityManifest{Modules: make([]ModuleCaps, 0, len(p.Modules))}
	for _, m := range p.Modules {
		entry := ModuleCaps{
			Path:     relPath(m.Path, baseDir),
			Requires: m.Requires.Names(),
		}
		for i := range m.Decls {
			d := &m.Decls[i]
			switch d.Kind {
			case resolver.SymFn:
				entry.Fns = append(entry.Fns, FnCaps{Name: d.Name, Uses: d.Caps.Names()})
			case resolver.SymService, resolver.SymApp:
				for j := range d.Members {
					member := &d.Members[j]
					entry.Fns = append(entry.Fns, FnCaps{
						Name: d.Name + "." + member.Name,
						Uses: member.Caps.Names(),
					})
				}
			}
		}
		sort.Slice(entry.Fns, func(i, j int) bool {
			return entry.Fns[i].Name < entry.Fns[j].Name
		})
		out.Modules = append(out.Modules, entry)
	}
	sort.Slice(out.Modules, func(i, j int) bool {
		return out.Modules[i].Path < out.Modules[j].Path
	})
	return out
}

func relPath(path, baseDir string) string {
	if baseDir == "" {
		return path
	}
	if rel, err := filepath.Rel(baseDir, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}
