package canon

import (
	"sort"

	"quill/internal/resolver"
	"quill/internal/sema"
	"quill/internal/source"
	"quill/internal/types"
)

// Program is the immutable output of the front end: the linked module
// graph with every surviving declaration fully typed. Declarations that
// failed type or safety checking are absent; consumers never see a
// partially checked node.
type Program struct {
	Modules []*Module

	res     *resolver.Result
	sem     *sema.Result
	strings *source.Interner
}

// Module is the canonical view of one source module.
type Module struct {
	ID       resolver.ModuleID
	Path     string
	Requires sema.CapSet
	Decls    []Decl
}

// Decl is one surviving top-level declaration. Exactly one of the
// per-kind fields is set, matching Kind.
type Decl struct {
	Sym  *resolver.Symbol
	Kind resolver.SymbolKind
	Name string
	Doc  string

	Struct *sema.StructInfo // SymType, SymConfig
	Enum   *sema.EnumInfo   // SymEnum
	Fn     *sema.FnSig      // SymFn
	Caps   sema.CapSet      // SymFn, SymService, SymApp: transitive use

	// Members holds a service or app group's member functions.
	Members []Decl
}

// Build assembles the canonical program from the resolved graph and the
// checked results. Symbols the checker excluded are dropped here.
func Build(res *resolver.Result, sem *sema.Result, strings *source.Interner) *Program {
	p := &Program{res: res, sem: sem, strings: strings}
	for _, m := range res.Modules {
		cm := &Module{ID: m.ID, Path: m.Path}
		for _, req := range m.B.Files.Get(m.AST).Requires {
			if bit, ok := sema.CapByName(strings.MustLookup(req.Name)); ok {
				cm.Requires |= bit
			}
		}
		for _, sym := range m.Order {
			if sem.Excluded[sym] {
				continue
			}
			cm.Decls = append(cm.Decls, p.decl(m, sym))
		}
		p.Modules = append(p.Modules, cm)
	}
	return p
}

func (p *Program) decl(m *resolver.Module, sym *resolver.Symbol) Decl {
	d := Decl{
		Sym:  sym,
		Kind: sym.Kind,
		Name: p.strings.MustLookup(sym.Name),
		Doc:  p.doc(m, sym),
		Caps: p.sem.FnCaps[sym],
	}
	switch sym.Kind {
	case resolver.SymType, resolver.SymConfig:
		d.Struct = p.sem.Structs[sym]
	case resolver.SymEnum:
		d.Enum = p.sem.Enums[sym]
	case resolver.SymFn:
		d.Fn = p.sem.Fns[sym]
	case resolver.SymService, resolver.SymApp:
		members := p.sem.Members[sym]
		names := make([]source.StringID, 0, len(members))
		for name := range members {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			return p.strings.MustLookup(names[i]) < p.strings.MustLookup(names[j])
		})
		for _, name := range names {
			member := members[name]
			if p.sem.Excluded[member] {
				continue
			}
			d.Members = append(d.Members, Decl{
				Sym:  member,
				Kind: resolver.SymFn,
				Name: p.strings.MustLookup(name),
				Fn:   p.sem.Fns[member],
				Caps: p.sem.FnCaps[member],
			})
			d.Caps |= p.sem.FnCaps[member]
		}
	}
	return d
}

// doc returns a declaration's doc comment, empty when absent.
func (p *Program) doc(m *resolver.Module, sym *resolver.Symbol) string {
	items := m.B.Items
	var id source.StringID
	switch sym.Kind {
	case resolver.SymType:
		if t := items.Type(sym.Item); t != nil {
			id = t.Doc
		}
	case resolver.SymEnum:
		if e := items.Enum(sym.Item); e != nil {
			id = e.Doc
		}
	case resolver.SymFn:
		if f := items.Fn(sym.Item); f != nil {
			id = f.Doc
		}
	case resolver.SymService:
		if s := items.Service(sym.Item); s != nil {
			id = s.Doc
		}
	case resolver.SymConfig:
		if c := items.Config(sym.Item); c != nil {
			id = c.Doc
		}
	case resolver.SymApp:
		if a := items.App(sym.Item); a != nil {
			id = a.Doc
		}
	case resolver.SymMigration:
		if mg := items.Migration(sym.Item); mg != nil {
			id = mg.Doc
		}
	}
	if id == source.NoStringID {
		return ""
	}
	return p.strings.MustLookup(id)
}

// Types exposes the shared type interner for consumers that format or
// dispatch on checked types.
func (p *Program) Types() *types.Interner { return p.sem.Types }

// FormatType renders a checked type with the program's interned names.
func (p *Program) FormatType(id types.TypeID) string {
	return p.sem.Types.Format(id, p.strings)
}
