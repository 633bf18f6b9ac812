package ast

import (
	"quill/internal/source"
)

// TypeSynKind enumerates the closed set of syntactic type expressions.
// These are unresolved shapes; the checker interns them into semantic
// types.
type TypeSynKind uint8

const (
	// TypeSynName is a possibly qualified type name.
	TypeSynName TypeSynKind = iota
	// TypeSynGeneric is `Name<args>`.
	TypeSynGeneric
	// TypeSynOptional is the `T?` sugar for Option<T>.
	TypeSynOptional
	// TypeSynResult is the `T!` / `T!E` sugar for Result<T, E>.
	TypeSynResult
	// TypeSynRefined is `Base(args)`, a refinement attached to a scalar.
	TypeSynRefined
)

func (k TypeSynKind) String() string {
	switch k {
	case TypeSynName:
		return "name"
	case TypeSynGeneric:
		return "generic"
	case TypeSynOptional:
		return "optional"
	case TypeSynResult:
		return "result"
	case TypeSynRefined:
		return "refined"
	}
	return "invalid"
}

// TypeSyn is one syntactic type expression.
type TypeSyn struct {
	Kind    TypeSynKind
	Span    source.Span
	Payload PayloadID
}

// NameType references a type by name; Module is the import alias for
// qualified references and NoStringID otherwise.
type NameType struct {
	Module source.StringID
	Name   source.StringID
}

// GenericType applies type arguments: `List<Int>`, `Map<String, User>`.
type GenericType struct {
	Name source.StringID
	Args []TypeID
}

// OptionalType wraps an inner type: `T?`.
type OptionalType struct {
	Inner TypeID
}

// ResultType wraps a success type and an optional error type: `T!` has
// Err == NoTypeID, `T!E` names it.
type ResultType struct {
	Ok  TypeID
	Err TypeID
}

// RefinedType attaches a refinement argument to a scalar base. Arg is
// usually a range expression; the checker validates the shape.
type RefinedType struct {
	Base source.StringID
	Arg  ExprID
}

// TypeSyns owns the type-expression arena and every per-kind payload arena.
type TypeSyns struct {
	Arena     *Arena[TypeSyn]
	Names     *Arena[NameType]
	Generics  *Arena[GenericType]
	Optionals *Arena[OptionalType]
	Results   *Arena[ResultType]
	Refineds  *Arena[RefinedType]
}

func NewTypeSyns(capHint uint) *TypeSyns {
	if capHint == 0 {
		capHint = 1 << 8
	}
	return &TypeSyns{
		Arena:     NewArena[TypeSyn](capHint),
		Names:     NewArena[NameType](capHint),
		Generics:  NewArena[GenericType](capHint),
		Optionals: NewArena[OptionalType](capHint),
		Results:   NewArena[ResultType](capHint),
		Refineds:  NewArena[RefinedType](capHint),
	}
}

func (t *TypeSyns) new(kind TypeSynKind, sp source.Span, payload uint32) TypeID {
	return TypeID(t.Arena.Allocate(TypeSyn{Kind: kind, Span: sp, Payload: PayloadID(payload)}))
}

func (t *TypeSyns) Get(id TypeID) *TypeSyn {
	return t.Arena.Get(uint32(id))
}

func (t *TypeSyns) NewName(sp source.Span, typ NameType) TypeID {
	return t.new(TypeSynName, sp, t.Names.Allocate(typ))
}

func (t *TypeSyns) NewGeneric(sp source.Span, typ GenericType) TypeID {
	return t.new(TypeSynGeneric, sp, t.Generics.Allocate(typ))
}

func (t *TypeSyns) NewOptional(sp source.Span, typ OptionalType) TypeID {
	return t.new(TypeSynOptional, sp, t.Optionals.Allocate(typ))
}

func (t *TypeSyns) NewResult(sp source.Span, typ ResultType) TypeID {
	return t.new(TypeSynResult, sp, t.Results.Allocate(typ))
}

func (t *TypeSyns) NewRefined(sp source.Span, typ RefinedType) TypeID {
	return t.new(TypeSynRefined, sp, t.Refineds.Allocate(typ))
}

// Name returns the payload of a name type, or nil.
func (t *TypeSyns) Name(id TypeID) *NameType {
	typ := t.Get(id)
	if typ == nil || typ.Kind != TypeSynName {
		return nil
	}
	return t.Names.Get(uint32(typ.Payload))
}

// Generic returns the payload of a generic type, or nil.
func (t *TypeSyns) Generic(id TypeID) *GenericType {
	typ := t.Get(id)
	if typ == nil || typ.Kind != TypeSynGeneric {
		return nil
	}
	return t.Generics.Get(uint32(typ.Payload))
}

// Optional returns the payload of an optional type, or nil.
func (t *TypeSyns) Optional(id TypeID) *OptionalType {
	typ := t.Get(id)
	if typ == nil || typ.Kind != TypeSynOptional {
		return nil
	}
	return t.Optionals.Get(uint32(typ.Payload))
}

// Result returns the payload of a result type, or nil.
func (t *TypeSyns) Result(id TypeID) *ResultType {
	typ := t.Get(id)
	if typ == nil || typ.Kind != TypeSynResult {
		return nil
	}
	return t.Results.Get(uint32(typ.Payload))
}

// Refined returns the payload of a refined type, or nil.
func (t *TypeSyns) Refined(id TypeID) *RefinedType {
	typ := t.Get(id)
	if typ == nil || typ.Kind != TypeSynRefined {
		return nil
	}
	return t.Refineds.Get(uint32(typ.Payload))
}
