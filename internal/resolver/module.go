package resolver

import (
	"quill/internal/ast"
	"quill/internal/source"
)

// ModuleID identifies a loaded module. Zero is "no module".
type ModuleID uint32

const NoModuleID ModuleID = 0

func (id ModuleID) IsValid() bool { return id != NoModuleID }

// SymbolKind is the declaration category of a top-level symbol.
type SymbolKind uint8

const (
	SymType SymbolKind = iota
	SymEnum
	SymFn
	SymService
	SymConfig
	SymApp
	SymMigration
)

func (k SymbolKind) String() string {
	switch k {
	case SymType:
		return "type"
	case SymEnum:
		return "enum"
	case SymFn:
		return "fn"
	case SymService:
		return "service"
	case SymConfig:
		return "config"
	case SymApp:
		return "app"
	case SymMigration:
		return "migration"
	}
	return "?"
}

// Symbol is one top-level declaration.
type Symbol struct {
	Kind   SymbolKind
	Name   source.StringID
	Module ModuleID
	Item   ast.ItemID
	Span   source.Span
}

// Ref points at a symbol in another module, used by named imports.
type Ref struct {
	Module ModuleID
	Name   source.StringID
}

// Module is one fully parsed and linked source file.
type Module struct {
	ID   ModuleID
	Path string // canonical absolute file path
	File *source.File

	// B owns this module's AST arenas; AST is the builder's file node.
	B   *ast.Builder
	AST ast.FileID

	// Decls holds the module's own top-level symbols; Order preserves
	// declaration order for deterministic walks.
	Decls map[source.StringID]*Symbol
	Order []*Symbol

	// Aliases maps plain-import aliases to their modules; qualified
	// access only. Named maps named-import bindings copied into this
	// module's scope.
	Aliases map[source.StringID]ModuleID
	Named   map[source.StringID]Ref

	// Requires is the merged module-scope capability set.
	Requires []ast.Capability
}
