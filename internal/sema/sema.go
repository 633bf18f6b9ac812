package sema

import (
	"fmt"

	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/resolver"
	"quill/internal/source"
	"quill/internal/types"
)

// Options configures checking.
type Options struct {
	Reporter diag.Reporter
}

// ExprKey addresses an expression across module builders.
type ExprKey struct {
	Module resolver.ModuleID
	Expr   ast.ExprID
}

// FieldInfo is one checked struct/config field.
type FieldInfo struct {
	Name       source.StringID
	Type       types.TypeID
	Default    ast.ExprID
	HasDefault bool
	Span       source.Span
}

// StructInfo is the checked form of a type or config declaration.
type StructInfo struct {
	Type   types.TypeID
	Fields []FieldInfo
	byName map[source.StringID]int
}

// Field returns the field named name, if present.
func (s *StructInfo) Field(name source.StringID) (*FieldInfo, bool) {
	i, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return &s.Fields[i], true
}

// VariantInfo is one checked enum variant.
type VariantInfo struct {
	Name   source.StringID
	Params []types.TypeID
	Span   source.Span
}

// EnumInfo is the checked form of an enum declaration.
type EnumInfo struct {
	Type     types.TypeID
	Variants []VariantInfo
	byName   map[source.StringID]int
}

// Variant returns the variant named name, if present.
func (e *EnumInfo) Variant(name source.StringID) (*VariantInfo, bool) {
	i, ok := e.byName[name]
	if !ok {
		return nil, false
	}
	return &e.Variants[i], true
}

// ParamInfo is one checked function parameter.
type ParamInfo struct {
	Name source.StringID
	Type types.TypeID
	Span source.Span
}

// FnSig is the checked signature of a function.
type FnSig struct {
	Params []ParamInfo
	Ret    types.TypeID
}

// Result is everything later stages need: interned types, one write-once
// type per expression, per-symbol info, capability usage, and the set of
// declarations excluded for carrying errors.
type Result struct {
	Types *types.Interner

	ExprTypes map[ExprKey]types.TypeID
	Structs   map[*resolver.Symbol]*StructInfo
	Enums     map[*resolver.Symbol]*EnumInfo
	Fns       map[*resolver.Symbol]*FnSig
	FnCaps    map[*resolver.Symbol]CapSet
	Excluded  map[*resolver.Symbol]bool

	// Members maps service and app symbols to their member functions,
	// each carried by a synthetic fn symbol present in Fns.
	Members map[*resolver.Symbol]map[source.StringID]*resolver.Symbol

	// SpawnBodies maps spawn expressions to their block for the safety
	// pass, keyed like ExprTypes.
	SpawnBodies map[ExprKey]ast.StmtID
}

// ExprType returns the checked type of an expression in a module.
func (r *Result) ExprType(m resolver.ModuleID, e ast.ExprID) types.TypeID {
	return r.ExprTypes[ExprKey{Module: m, Expr: e}]
}

// Sema runs declaration collection and per-declaration checking over a
// resolved module graph.
type Sema struct {
	opts    Options
	res     *resolver.Result
	strings *source.Interner
	types   *types.Interner
	out     *Result

	builtins  map[string]*Builtin
	callEdges map[*resolver.Symbol][]*resolver.Symbol
	capUses   map[*resolver.Symbol][]capUse

	// nominals maps a nominal type back to its declaring symbol.
	nominals map[types.TypeID]*resolver.Symbol

	// Per-body state, saved and restored around nested checks.
	curMod   *resolver.Module
	curFn    *resolver.Symbol
	curSig   *FnSig
	retKnown bool
	scopes   []map[source.StringID]*localVar

	fnState map[*resolver.Symbol]uint8 // 0 fresh, 1 checking, 2 done
}

// Check type-checks the whole graph.
func Check(res *resolver.Result, strings *source.Interner, opts Options) *Result {
	in := types.NewInterner()
	s := &Sema{
		opts:    opts,
		res:     res,
		strings: strings,
		types:   in,
		out: &Result{
			Types:       in,
			ExprTypes:   make(map[ExprKey]types.TypeID),
			Structs:     make(map[*resolver.Symbol]*StructInfo),
			Enums:       make(map[*resolver.Symbol]*EnumInfo),
			Fns:         make(map[*resolver.Symbol]*FnSig),
			FnCaps:      make(map[*resolver.Symbol]CapSet),
			Excluded:    make(map[*resolver.Symbol]bool),
			SpawnBodies: make(map[ExprKey]ast.StmtID),
		},
		callEdges: make(map[*resolver.Symbol][]*resolver.Symbol),
		capUses:   make(map[*resolver.Symbol][]capUse),
		nominals:  make(map[types.TypeID]*resolver.Symbol),
		fnState:   make(map[*resolver.Symbol]uint8),
	}
	s.builtins = builtinTable(in)

	s.collectShells()
	s.resolveDeclTypes()
	s.detectValueCycles()
	s.checkBodies()
	s.checkCapabilities()
	return s.out
}

func (s *Sema) report(code diag.Code, sp source.Span, format string, args ...any) {
	if s.curFn != nil {
		s.out.Excluded[s.curFn] = true
	}
	if s.opts.Reporter != nil {
		s.opts.Reporter.Report(code, diag.SevError, sp, fmt.Sprintf(format, args...), nil)
	}
}

func (s *Sema) reportNoted(code diag.Code, sp source.Span, notes []diag.Note, format string, args ...any) {
	if s.curFn != nil {
		s.out.Excluded[s.curFn] = true
	}
	if s.opts.Reporter != nil {
		s.opts.Reporter.Report(code, diag.SevError, sp, fmt.Sprintf(format, args...), notes)
	}
}

func (s *Sema) sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

func (s *Sema) format(t types.TypeID) string {
	return s.types.Format(t, s.strings)
}

func (s *Sema) name(id source.StringID) string {
	return s.strings.MustLookup(id)
}
