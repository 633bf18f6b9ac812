package types

import (
	"quill/internal/source"
)

// TypeID identifies an interned semantic type. Zero is "no type".
type TypeID uint32

const NoTypeID TypeID = 0

func (id TypeID) IsValid() bool { return id != NoTypeID }

// Kind is the category of a semantic type.
type Kind uint8

const (
	// KindInvalid marks a type produced during error recovery; it is
	// assignable to and from everything so one error reports once.
	KindInvalid Kind = iota
	// KindUnit is the type of functions without a return value.
	KindUnit
	KindScalar
	KindList
	KindMap
	KindOption
	KindResult
	// KindTask is the type of a spawn block's value; await unwraps it.
	KindTask
	// KindNominal is a user struct or enum, identified by (module, name).
	KindNominal
	// KindRefined wraps a scalar base with inclusive numeric or length
	// bounds.
	KindRefined
)

// Scalar enumerates the built-in scalar types.
type Scalar uint8

const (
	ScalarInt Scalar = iota
	ScalarFloat
	ScalarBool
	ScalarString
	ScalarBytes
	ScalarHtml
	ScalarId
	ScalarEmail
	// ScalarError is the default error domain of a bare `T!`.
	ScalarError
)

func (s Scalar) String() string {
	switch s {
	case ScalarInt:
		return "Int"
	case ScalarFloat:
		return "Float"
	case ScalarBool:
		return "Bool"
	case ScalarString:
		return "String"
	case ScalarBytes:
		return "Bytes"
	case ScalarHtml:
		return "Html"
	case ScalarId:
		return "Id"
	case ScalarEmail:
		return "Email"
	case ScalarError:
		return "Error"
	}
	return "?"
}

// Type is the interned representation. All fields are comparable so the
// interner can key on the value itself.
//
// Field use by kind:
//
//	KindScalar   Scalar
//	KindList     Elem
//	KindMap      Key, Elem
//	KindOption   Elem
//	KindResult   Elem (ok), Err
//	KindTask     Elem
//	KindNominal  Module, Name
//	KindRefined  Scalar (base), Lo, Hi
//
// Refinement bounds are inclusive; Int and String-length bounds are whole
// numbers stored in float64, which is exact for any realistic bound.
type Type struct {
	Kind   Kind
	Scalar Scalar
	Elem   TypeID
	Key    TypeID
	Err    TypeID
	Module source.StringID
	Name   source.StringID
	Lo     float64
	Hi     float64
}
