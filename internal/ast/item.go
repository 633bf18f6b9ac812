package ast

import (
	"quill/internal/source"
)

// ItemKind enumerates the closed set of top-level declarations.
type ItemKind uint8

const (
	ItemImport ItemKind = iota
	ItemType
	ItemEnum
	ItemFn
	ItemService
	ItemConfig
	ItemApp
	ItemMigration
	ItemTest
	ItemRequires
)

func (k ItemKind) String() string {
	switch k {
	case ItemImport:
		return "import"
	case ItemType:
		return "type"
	case ItemEnum:
		return "enum"
	case ItemFn:
		return "fn"
	case ItemService:
		return "service"
	case ItemConfig:
		return "config"
	case ItemApp:
		return "app"
	case ItemMigration:
		return "migration"
	case ItemTest:
		return "test"
	case ItemRequires:
		return "requires"
	}
	return "invalid"
}

// Item is one top-level declaration; Payload points into the arena for
// its kind.
type Item struct {
	Kind    ItemKind
	Span    source.Span
	Payload PayloadID
}

// ImportItem covers both forms: `import Dep.Mod` (alias, qualified access
// only) and `import {A, B} from "path"` (named copies, no alias).
type ImportItem struct {
	Alias source.StringID // last path segment for plain imports
	Path  string          // dotted module path or quoted from-path
	Names []ImportName    // named imports; empty for plain imports
	From  bool
}

// ImportName is one named import binding.
type ImportName struct {
	Name source.StringID
	Span source.Span
}

// TypeField is one field of a type/config declaration.
type TypeField struct {
	Name    source.StringID
	Type    TypeID
	Default ExprID // NoExprID when absent
	Span    source.Span
}

// TypeDecl is a struct-like nominal type, either declared with a field
// block or derived with `type B = A without f1, f2`.
type TypeDecl struct {
	Name    source.StringID
	Doc     source.StringID
	Fields  []TypeField
	Base    TypeID           // derivation base; NoTypeID for field blocks
	Without []Capability     // removed field names with spans
	Derived bool
}

// EnumVariant is one variant with a tuple-only payload.
type EnumVariant struct {
	Name    source.StringID
	Payload []TypeID
	Span    source.Span
}

// EnumDecl is a closed sum type.
type EnumDecl struct {
	Name     source.StringID
	Doc      source.StringID
	Variants []EnumVariant
}

// FnParam is one function parameter; its type is mandatory.
type FnParam struct {
	Name source.StringID
	Type TypeID
	Span source.Span
}

// FnDecl is a function; Ret is NoTypeID when the return type is inferred
// from the body's last expression.
type FnDecl struct {
	Name   source.StringID
	Doc    source.StringID
	Params []FnParam
	Ret    TypeID
	Body   StmtID // block statement
}

// ServiceDecl groups functions under a service name.
type ServiceDecl struct {
	Name source.StringID
	Doc  source.StringID
	Fns  []ItemID
}

// ConfigDecl is a named set of typed fields with defaults.
type ConfigDecl struct {
	Name   source.StringID
	Doc    source.StringID
	Fields []TypeField
}

// AppDecl is an application entry declaration grouping functions.
type AppDecl struct {
	Name source.StringID
	Doc  source.StringID
	Fns  []ItemID
}

// MigrationDecl is a named migration body.
type MigrationDecl struct {
	Name source.StringID
	Doc  source.StringID
	Body StmtID
}

// TestDecl is a named test body.
type TestDecl struct {
	Name source.StringID // quoted test description
	Body StmtID
}

// RequiresDecl lists module-scope capability requirements.
type RequiresDecl struct {
	Caps []Capability
}

// Items owns the item arena and every per-kind payload arena.
type Items struct {
	Arena      *Arena[Item]
	Imports    *Arena[ImportItem]
	Types      *Arena[TypeDecl]
	Enums      *Arena[EnumDecl]
	Fns        *Arena[FnDecl]
	Services   *Arena[ServiceDecl]
	Configs    *Arena[ConfigDecl]
	Apps       *Arena[AppDecl]
	Migrations *Arena[MigrationDecl]
	Tests      *Arena[TestDecl]
	Requires   *Arena[RequiresDecl]
}

func NewItems(capHint uint) *Items {
	if capHint == 0 {
		capHint = 1 << 7
	}
	return &Items{
		Arena:      NewArena[Item](capHint),
		Imports:    NewArena[ImportItem](capHint),
		Types:      NewArena[TypeDecl](capHint),
		Enums:      NewArena[EnumDecl](capHint),
		Fns:        NewArena[FnDecl](capHint),
		Services:   NewArena[ServiceDecl](capHint),
		Configs:    NewArena[ConfigDecl](capHint),
		Apps:       NewArena[AppDecl](capHint),
		Migrations: NewArena[MigrationDecl](capHint),
		Tests:      NewArena[TestDecl](capHint),
		Requires:   NewArena[RequiresDecl](capHint),
	}
}

func (i *Items) new(kind ItemKind, sp source.Span, payload uint32) ItemID {
	return ItemID(i.Arena.Allocate(Item{Kind: kind, Span: sp, Payload: PayloadID(payload)}))
}

func (i *Items) Get(id ItemID) *Item {
	return i.Arena.Get(uint32(id))
}

func (i *Items) NewImport(sp source.Span, decl ImportItem) ItemID {
	return i.new(ItemImport, sp, i.Imports.Allocate(decl))
}

func (i *Items) NewType(sp source.Span, decl TypeDecl) ItemID {
	return i.new(ItemType, sp, i.Types.Allocate(decl))
}

func (i *Items) NewEnum(sp source.Span, decl EnumDecl) ItemID {
	return i.new(ItemEnum, sp, i.Enums.Allocate(decl))
}

func (i *Items) NewFn(sp source.Span, decl FnDecl) ItemID {
	return i.new(ItemFn, sp, i.Fns.Allocate(decl))
}

func (i *Items) NewService(sp source.Span, decl ServiceDecl) ItemID {
	return i.new(ItemService, sp, i.Services.Allocate(decl))
}

func (i *Items) NewConfig(sp source.Span, decl ConfigDecl) ItemID {
	return i.new(ItemConfig, sp, i.Configs.Allocate(decl))
}

func (i *Items) NewApp(sp source.Span, decl AppDecl) ItemID {
	return i.new(ItemApp, sp, i.Apps.Allocate(decl))
}

func (i *Items) NewMigration(sp source.Span, decl MigrationDecl) ItemID {
	return i.new(ItemMigration, sp, i.Migrations.Allocate(decl))
}

func (i *Items) NewTest(sp source.Span, decl TestDecl) ItemID {
	return i.new(ItemTest, sp, i.Tests.Allocate(decl))
}

func (i *Items) NewRequires(sp source.Span, decl RequiresDecl) ItemID {
	return i.new(ItemRequires, sp, i.Requires.Allocate(decl))
}

// Import returns the payload of an import item, or nil.
func (i *Items) Import(id ItemID) *ImportItem {
	item := i.Get(id)
	if item == nil || item.Kind != ItemImport {
		return nil
	}
	return i.Imports.Get(uint32(item.Payload))
}

// Type returns the payload of a type item, or nil.
func (i *Items) Type(id ItemID) *TypeDecl {
	item := i.Get(id)
	if item == nil || item.Kind != ItemType {
		return nil
	}
	return i.Types.Get(uint32(item.Payload))
}

// Enum returns the payload of an enum item, or nil.
func (i *Items) Enum(id ItemID) *EnumDecl {
	item := i.Get(id)
	if item == nil || item.Kind != ItemEnum {
		return nil
	}
	return i.Enums.Get(uint32(item.Payload))
}

// Fn returns the payload of a fn item, or nil.
func (i *Items) Fn(id ItemID) *FnDecl {
	item := i.Get(id)
	if item == nil || item.Kind != ItemFn {
		return nil
	}
	return i.Fns.Get(uint32(item.Payload))
}

// Service returns the payload of a service item, or nil.
func (i *Items) Service(id ItemID) *ServiceDecl {
	item := i.Get(id)
	if item == nil || item.Kind != ItemService {
		return nil
	}
	return i.Services.Get(uint32(item.Payload))
}

// Config returns the payload of a config item, or nil.
func (i *Items) Config(id ItemID) *ConfigDecl {
	item := i.Get(id)
	if item == nil || item.Kind != ItemConfig {
		return nil
	}
	return i.Configs.Get(uint32(item.Payload))
}

// App returns the payload of an app item, or nil.
func (i *Items) App(id ItemID) *AppDecl {
	item := i.Get(id)
	if item == nil || item.Kind != ItemApp {
		return nil
	}
	return i.Apps.Get(uint32(item.Payload))
}

// Migration returns the payload of a migration item, or nil.
func (i *Items) Migration(id ItemID) *MigrationDecl {
	item := i.Get(id)
	if item == nil || item.Kind != ItemMigration {
		return nil
	}
	return i.Migrations.Get(uint32(item.Payload))
}

// Test returns the payload of a test item, or nil.
func (i *Items) Test(id ItemID) *TestDecl {
	item := i.Get(id)
	if item == nil || item.Kind != ItemTest {
		return nil
	}
	return i.Tests.Get(uint32(item.Payload))
}

// RequiresOf returns the payload of a requires item, or nil.
func (i *Items) RequiresOf(id ItemID) *RequiresDecl {
	item := i.Get(id)
	if item == nil || item.Kind != ItemRequires {
		return nil
	}
	return i.Requires.Get(uint32(item.Payload))
}
