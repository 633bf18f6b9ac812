package resolver

import (
	"fmt"
	"path/filepath"

	"fortio.org/safecast"

	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/parser"
	"quill/internal/project"
	"quill/internal/source"
)

// Options configures a resolution run.
type Options struct {
	Reporter diag.Reporter
	Manifest *project.Manifest
	// MaxErrors is forwarded to the per-file parsers.
	MaxErrors int
}

// Result is the linked module graph.
type Result struct {
	// Modules in deterministic load order; index is ModuleID-1.
	Modules []*Module
	// Roots are the explicitly requested entry modules.
	Roots []ModuleID
	// Global holds every top-level name of the reachable graph; names are
	// globally unique, so the map is total after a clean resolve.
	Global map[source.StringID]*Symbol
}

// Module returns the module for id, or nil.
func (res *Result) Module(id ModuleID) *Module {
	if !id.IsValid() || int(id) > len(res.Modules) {
		return nil
	}
	return res.Modules[id-1]
}

// LookupLocal resolves an unqualified name in module scope: the module's
// own declarations first, then named-import bindings. Aliased imports
// never resolve unqualified.
func (res *Result) LookupLocal(m *Module, name source.StringID) (*Symbol, bool) {
	if sym, ok := m.Decls[name]; ok {
		return sym, true
	}
	if ref, ok := m.Named[name]; ok {
		target := res.Module(ref.Module)
		if target != nil {
			if sym, ok := target.Decls[ref.Name]; ok {
				return sym, true
			}
		}
	}
	return nil, false
}

// LookupQualified resolves `alias.name` through a module's plain imports.
// aliasKnown reports whether the alias itself resolved.
func (res *Result) LookupQualified(m *Module, alias, name source.StringID) (sym *Symbol, aliasKnown bool) {
	targetID, ok := m.Aliases[alias]
	if !ok {
		return nil, false
	}
	target := res.Module(targetID)
	if target == nil {
		return nil, true
	}
	s, ok := target.Decls[name]
	if !ok {
		return nil, true
	}
	return s, true
}

type importEdge struct {
	item   ast.ItemID
	target ModuleID
	failed bool
}

// Resolver loads the module graph from its roots and links names.
type Resolver struct {
	opts     Options
	fs       *source.FileSet
	strings  *source.Interner
	manifest *project.Manifest

	modules []*Module
	byPath  map[string]ModuleID
	edges   map[ModuleID][]importEdge
	roots   []ModuleID
}

// New creates a resolver over the shared file set and string interner.
func New(fs *source.FileSet, strings *source.Interner, opts Options) *Resolver {
	return &Resolver{
		opts:     opts,
		fs:       fs,
		strings:  strings,
		manifest: opts.Manifest,
		byPath:   make(map[string]ModuleID),
		edges:    make(map[ModuleID][]importEdge),
	}
}

// AddRoot loads path and everything it transitively imports.
func (r *Resolver) AddRoot(path string) (ModuleID, error) {
	id, err := r.load(path, source.Span{})
	if err != nil {
		return NoModuleID, err
	}
	r.roots = append(r.roots, id)
	return id, nil
}

// AddParsed registers an already-parsed module (virtual files, tests) and
// loads its imports.
func (r *Resolver) AddParsed(file *source.File, b *ast.Builder, fileAST ast.FileID) ModuleID {
	id := r.register(file.Path, file, b, fileAST)
	r.loadImports(id)
	r.roots = append(r.roots, id)
	return id
}

// Finish links every loaded module and returns the result.
func (r *Resolver) Finish() *Result {
	res := &Result{
		Modules: r.modules,
		Roots:   r.roots,
		Global:  make(map[source.StringID]*Symbol),
	}
	for _, m := range r.modules {
		r.collectDecls(m)
	}
	for _, m := range r.modules {
		r.linkImports(res, m)
	}
	r.checkGlobalUniqueness(res)
	return res
}

// load parses the module at path, registering it before loading imports
// so cyclic imports terminate.
func (r *Resolver) load(path string, importSpan source.Span) (ModuleID, error) {
	canonical, err := filepath.Abs(path)
	if err != nil {
		canonical = path
	}
	canonical = filepath.Clean(canonical)
	if id, ok := r.byPath[canonical]; ok {
		return id, nil
	}

	fileID, err := r.fs.Load(canonical)
	if err != nil {
		r.report(diag.IOLoadFileError, importSpan, fmt.Sprintf("cannot read %s: %v", path, err))
		return NoModuleID, err
	}
	file := r.fs.Get(fileID)

	b := ast.NewBuilder(r.strings, ast.DefaultHints())
	p := parser.New(file, b, parser.Options{MaxErrors: r.opts.MaxErrors, Reporter: r.opts.Reporter})
	fileAST := p.ParseFile()

	id := r.register(canonical, file, b, fileAST)
	r.loadImports(id)
	return id, nil
}

func (r *Resolver) register(path string, file *source.File, b *ast.Builder, fileAST ast.FileID) ModuleID {
	n, err := safecast.Conv[uint32](len(r.modules) + 1)
	if err != nil {
		panic(err)
	}
	id := ModuleID(n)
	m := &Module{
		ID:       id,
		Path:     path,
		File:     file,
		B:        b,
		AST:      fileAST,
		Decls:    make(map[source.StringID]*Symbol),
		Aliases:  make(map[source.StringID]ModuleID),
		Named:    make(map[source.StringID]Ref),
		Requires: b.Files.Get(fileAST).Requires,
	}
	r.modules = append(r.modules, m)
	r.byPath[path] = id
	return id
}

// loadImports walks a module's import items and loads their targets.
func (r *Resolver) loadImports(id ModuleID) {
	m := r.modules[id-1]
	fromDir := filepath.Dir(m.Path)

	for _, itemID := range m.B.Files.Get(m.AST).Items {
		imp := m.B.Items.Import(itemID)
		if imp == nil {
			continue
		}
		span := m.B.Items.Get(itemID).Span
		candidate, found := r.resolveImportPath(fromDir, imp.Path, imp.From)
		if !found {
			r.report(diag.ResUnresolvedImport, span,
				fmt.Sprintf("cannot resolve import %q (looked for %s)", imp.Path, candidate))
			r.edges[id] = append(r.edges[id], importEdge{item: itemID, failed: true})
			continue
		}
		target, err := r.load(candidate, span)
		if err != nil {
			r.edges[id] = append(r.edges[id], importEdge{item: itemID, failed: true})
			continue
		}
		if target == id {
			r.report(diag.ResSelfImport, span, "module imports itself")
			r.edges[id] = append(r.edges[id], importEdge{item: itemID, failed: true})
			continue
		}
		r.edges[id] = append(r.edges[id], importEdge{item: itemID, target: target})
	}
}

// collectDecls builds a module's own symbol table, rejecting in-module
// duplicates.
func (r *Resolver) collectDecls(m *Module) {
	for _, itemID := range m.B.Files.Get(m.AST).Items {
		item := m.B.Items.Get(itemID)
		var kind SymbolKind
		var name source.StringID
		switch item.Kind {
		case ast.ItemType:
			kind, name = SymType, m.B.Items.Type(itemID).Name
		case ast.ItemEnum:
			kind, name = SymEnum, m.B.Items.Enum(itemID).Name
		case ast.ItemFn:
			kind, name = SymFn, m.B.Items.Fn(itemID).Name
		case ast.ItemService:
			kind, name = SymService, m.B.Items.Service(itemID).Name
		case ast.ItemConfig:
			kind, name = SymConfig, m.B.Items.Config(itemID).Name
		case ast.ItemApp:
			kind, name = SymApp, m.B.Items.App(itemID).Name
		case ast.ItemMigration:
			kind, name = SymMigration, m.B.Items.Migration(itemID).Name
		default:
			continue
		}
		if prev, ok := m.Decls[name]; ok {
			r.reportDup(m, name, item.Span, prev.Span)
			continue
		}
		sym := &Symbol{Kind: kind, Name: name, Module: m.ID, Item: itemID, Span: item.Span}
		m.Decls[name] = sym
		m.Order = append(m.Order, sym)
	}
}

// linkImports fills a module's alias and named-import tables.
func (r *Resolver) linkImports(res *Result, m *Module) {
	for _, edge := range r.edges[m.ID] {
		if edge.failed {
			continue
		}
		imp := m.B.Items.Import(edge.item)
		span := m.B.Items.Get(edge.item).Span
		target := res.Module(edge.target)

		if !imp.From {
			if _, ok := m.Aliases[imp.Alias]; ok {
				r.report(diag.ResDuplicateImport, span,
					fmt.Sprintf("module already imported under alias %q", r.strings.MustLookup(imp.Alias)))
				continue
			}
			if prev, ok := m.Decls[imp.Alias]; ok {
				r.reportDup(m, imp.Alias, span, prev.Span)
				continue
			}
			if _, ok := m.Named[imp.Alias]; ok {
				r.reportDup(m, imp.Alias, span, source.Span{})
				continue
			}
			m.Aliases[imp.Alias] = edge.target
			continue
		}

		for _, named := range imp.Names {
			if _, ok := target.Decls[named.Name]; !ok {
				r.report(diag.ResUnknownModuleMember, named.Span,
					fmt.Sprintf("module %q has no declaration %q",
						filepath.Base(target.Path), r.strings.MustLookup(named.Name)))
				continue
			}
			if prev, ok := m.Decls[named.Name]; ok {
				r.reportDup(m, named.Name, named.Span, prev.Span)
				continue
			}
			if _, ok := m.Named[named.Name]; ok {
				r.report(diag.ResDuplicateImport, named.Span,
					fmt.Sprintf("name %q already imported", r.strings.MustLookup(named.Name)))
				continue
			}
			if _, ok := m.Aliases[named.Name]; ok {
				r.reportDup(m, named.Name, named.Span, source.Span{})
				continue
			}
			m.Named[named.Name] = Ref{Module: edge.target, Name: named.Name}
		}
	}
}

// checkGlobalUniqueness enforces cross-module uniqueness of top-level
// names; a collision is an error even when the name is never referenced.
// Migrations stay module-local.
func (r *Resolver) checkGlobalUniqueness(res *Result) {
	for _, m := range res.Modules {
		for _, sym := range m.Order {
			if sym.Kind == SymMigration {
				continue
			}
			if prev, ok := res.Global[sym.Name]; ok {
				r.reportDup(m, sym.Name, sym.Span, prev.Span)
				continue
			}
			res.Global[sym.Name] = sym
		}
	}
}

func (r *Resolver) report(code diag.Code, sp source.Span, msg string) {
	if r.opts.Reporter != nil {
		r.opts.Reporter.Report(code, diag.SevError, sp, msg, nil)
	}
}

func (r *Resolver) reportDup(m *Module, name source.StringID, sp, prev source.Span) {
	var notes []diag.Note
	if !prev.Empty() {
		notes = []diag.Note{{Span: prev, Msg: "previously declared here"}}
	}
	if r.opts.Reporter != nil {
		r.opts.Reporter.Report(diag.ResDuplicateName, diag.SevError, sp,
			fmt.Sprintf("name %q is already declared", r.strings.MustLookup(name)), notes)
	}
}
