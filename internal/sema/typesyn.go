package sema

import (
	"strconv"

	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/resolver"
	"quill/internal/source"
	"quill/internal/types"
)

// resolveTypeName resolves a syntactic type name to its declaring symbol,
// or nil.
func (s *Sema) resolveTypeName(m *resolver.Module, id ast.TypeID) *resolver.Symbol {
	name := m.B.Types.Name(id)
	if name == nil {
		return nil
	}
	if name.Module != source.NoStringID {
		sym, _ := s.res.LookupQualified(m, name.Module, name.Name)
		return sym
	}
	sym, ok := s.res.LookupLocal(m, name.Name)
	if !ok {
		return nil
	}
	return sym
}

// typeFromSyn converts a syntactic type expression into a semantic type,
// reporting on the way; errors yield the invalid type so each problem is
// reported once.
func (s *Sema) typeFromSyn(m *resolver.Module, id ast.TypeID) types.TypeID {
	syn := m.B.Types.Get(id)
	if syn == nil {
		return s.types.Invalid
	}
	switch syn.Kind {
	case ast.TypeSynName:
		return s.typeFromName(m, id, syn.Span)
	case ast.TypeSynGeneric:
		return s.typeFromGeneric(m, id, syn.Span)
	case ast.TypeSynOptional:
		inner := s.typeFromSyn(m, m.B.Types.Optional(id).Inner)
		return s.types.Option(inner)
	case ast.TypeSynResult:
		res := m.B.Types.Result(id)
		ok := s.typeFromSyn(m, res.Ok)
		errT := s.types.Error
		if res.Err.IsValid() {
			errT = s.typeFromSyn(m, res.Err)
		}
		return s.types.Result(ok, errT)
	case ast.TypeSynRefined:
		return s.typeFromRefined(m, id, syn.Span)
	}
	return s.types.Invalid
}

func (s *Sema) typeFromName(m *resolver.Module, id ast.TypeID, sp source.Span) types.TypeID {
	name := m.B.Types.Name(id)
	if name.Module == source.NoStringID {
		raw := s.name(name.Name)
		if raw == "Unit" {
			return s.types.Unit
		}
		if scalar, ok := s.types.ScalarByName(raw); ok {
			return scalar
		}
	}
	sym := s.resolveTypeName(m, id)
	if sym == nil {
		s.report(diag.TypUnknownType, sp, "unknown type %q", s.name(name.Name))
		return s.types.Invalid
	}
	if info, ok := s.out.Structs[sym]; ok {
		return info.Type
	}
	if info, ok := s.out.Enums[sym]; ok {
		return info.Type
	}
	s.report(diag.TypUnknownType, sp, "%q is a %s, not a type", s.name(name.Name), sym.Kind)
	return s.types.Invalid
}

func (s *Sema) typeFromGeneric(m *resolver.Module, id ast.TypeID, sp source.Span) types.TypeID {
	gen := m.B.Types.Generic(id)
	name := s.name(gen.Name)
	arity := func(n int) bool {
		if len(gen.Args) != n {
			s.report(diag.TypUnknownType, sp, "%s takes %d type argument(s), got %d", name, n, len(gen.Args))
			return false
		}
		return true
	}
	switch name {
	case "List":
		if !arity(1) {
			return s.types.Invalid
		}
		return s.types.List(s.typeFromSyn(m, gen.Args[0]))
	case "Map":
		if !arity(2) {
			return s.types.Invalid
		}
		key := s.typeFromSyn(m, gen.Args[0])
		value := s.typeFromSyn(m, gen.Args[1])
		// Key validity is checked here, at type assignment, never later.
		if s.types.Base(key) != s.types.String && key != s.types.Invalid {
			s.report(diag.TypMapKeyNotString, m.B.Types.Get(gen.Args[0]).Span,
				"map keys must be String, got %s", s.format(key))
			return s.types.Invalid
		}
		return s.types.Map(key, value)
	case "Option":
		if !arity(1) {
			return s.types.Invalid
		}
		return s.types.Option(s.typeFromSyn(m, gen.Args[0]))
	case "Result":
		if !arity(2) {
			return s.types.Invalid
		}
		return s.types.Result(s.typeFromSyn(m, gen.Args[0]), s.typeFromSyn(m, gen.Args[1]))
	default:
		s.report(diag.TypUnknownType, sp, "unknown generic type %q", name)
		return s.types.Invalid
	}
}

// typeFromRefined checks the refinement's base and shape: the base must
// be Int, Float or String and the argument a literal range.
func (s *Sema) typeFromRefined(m *resolver.Module, id ast.TypeID, sp source.Span) types.TypeID {
	ref := m.B.Types.Refined(id)
	baseName := s.name(ref.Base)

	var base types.Scalar
	switch baseName {
	case "Int":
		base = types.ScalarInt
	case "Float":
		base = types.ScalarFloat
	case "String":
		base = types.ScalarString
	default:
		s.report(diag.TypUnknownBaseType, sp,
			"refinements attach to Int, Float or String, not %q", baseName)
		return s.types.Invalid
	}

	rng := m.B.Exprs.Range(ref.Arg)
	if rng == nil {
		s.report(diag.TypBadRefinementShape, sp,
			"refinement must be a literal range like %s(lo..hi)", baseName)
		return s.types.Invalid
	}
	lo, loFloat, okLo := s.literalValue(m.B, rng.Lo)
	hi, hiFloat, okHi := s.literalValue(m.B, rng.Hi)
	if !okLo || !okHi {
		s.report(diag.TypBadRefinementShape, sp,
			"refinement bounds must be numeric literals")
		return s.types.Invalid
	}
	if base != types.ScalarFloat && (loFloat || hiFloat) {
		s.report(diag.TypBadRefinementShape, sp,
			"%s refinement bounds must be integers", baseName)
		return s.types.Invalid
	}
	if lo > hi {
		s.report(diag.TypBadRefinementShape, sp,
			"refinement range is empty: %v > %v", lo, hi)
		return s.types.Invalid
	}
	return s.types.Refined(base, lo, hi)
}

// literalValue evaluates an integer or float literal, allowing a leading
// minus. isFloat reports a float spelling.
func (s *Sema) literalValue(b *ast.Builder, id ast.ExprID) (value float64, isFloat, ok bool) {
	neg := false
	if un := b.Exprs.Unary(id); un != nil && un.Op == ast.OpNeg {
		neg = true
		id = un.Operand
	}
	lit := b.Exprs.Lit(id)
	if lit == nil {
		return 0, false, false
	}
	switch lit.Lit {
	case ast.LitInt:
		v, err := strconv.ParseInt(lit.Text, 10, 64)
		if err != nil {
			return 0, false, false
		}
		value = float64(v)
	case ast.LitFloat:
		v, err := strconv.ParseFloat(lit.Text, 64)
		if err != nil {
			return 0, false, false
		}
		value, isFloat = v, true
	default:
		return 0, false, false
	}
	if neg {
		value = -value
	}
	return value, isFloat, true
}
