package sema

import (
	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/source"
	"quill/internal/types"
)

// bindPattern checks a match pattern against the subject type and
// declares its bindings in the current scope.
func (s *Sema) bindPattern(id ast.PatternID, subject types.TypeID) {
	pats := s.curMod.B.Patterns
	pat := pats.Get(id)
	if pat == nil {
		return
	}
	switch pat.Kind {
	case ast.PatWildcard:
	case ast.PatLiteral:
		lit := pats.Literal(id)
		got := s.litType(lit.Lit)
		if !s.assignable(subject, got) {
			s.report(diag.TypMismatch, pat.Span,
				"pattern %s does not match subject %s", s.format(got), s.format(subject))
		}
	case ast.PatName:
		s.bindNamePattern(pats.Name(id), subject, pat.Span)
	case ast.PatConstructor:
		s.bindConstructorPattern(pats.Constructor(id), subject, pat.Span)
	}
}

// bindNamePattern decides between a zero-argument variant match and a
// fresh binding by looking the name up on the subject's enum.
func (s *Sema) bindNamePattern(pat *ast.NamePattern, subject types.TypeID, sp source.Span) {
	if sym, ok := s.nominals[subject]; ok {
		if info, ok := s.out.Enums[sym]; ok {
			if variant, ok := info.Variant(pat.Name); ok {
				if len(variant.Params) != 0 {
					s.report(diag.TypEnumPatternShape, sp,
						"variant %q carries %d value(s); bind them with %s(...)",
						s.name(pat.Name), len(variant.Params), s.name(pat.Name))
				}
				return
			}
		}
	}
	s.declare(pat.Name, subject, false, sp)
}

func (s *Sema) bindConstructorPattern(pat *ast.ConstructorPattern, subject types.TypeID, sp source.Span) {
	sym, ok := s.nominals[subject]
	if !ok {
		if s.types.Kind(subject) != types.KindInvalid {
			s.report(diag.TypMismatch, sp,
				"%s has no constructors to match", s.format(subject))
		}
		s.bindSubsLoose(pat.Subs)
		return
	}

	if info, isEnum := s.out.Enums[sym]; isEnum {
		variant, ok := info.Variant(pat.Name)
		if !ok {
			s.report(diag.TypUnknownVariant, sp,
				"enum %q has no variant %q", s.name(sym.Name), s.name(pat.Name))
			s.bindSubsLoose(pat.Subs)
			return
		}
		if pat.Named {
			s.report(diag.TypEnumPatternShape, sp,
				"enum payloads are positional; use %s(a, b)", s.name(pat.Name))
			s.bindSubsLoose(pat.Subs)
			return
		}
		if len(pat.Subs) != len(variant.Params) {
			s.report(diag.TypEnumPatternShape, sp,
				"variant %q carries %d value(s), pattern has %d",
				s.name(pat.Name), len(variant.Params), len(pat.Subs))
			s.bindSubsLoose(pat.Subs)
			return
		}
		for i, sub := range pat.Subs {
			s.bindPattern(sub.Pattern, variant.Params[i])
		}
		return
	}

	info := s.out.Structs[sym]
	if pat.Name != sym.Name {
		s.report(diag.TypMismatch, sp,
			"pattern %q does not match subject %s", s.name(pat.Name), s.format(subject))
		s.bindSubsLoose(pat.Subs)
		return
	}
	if len(pat.Subs) > 0 && !pat.Named {
		s.report(diag.TypEnumPatternShape, sp,
			"struct patterns bind by field name; use %s(field=pattern)", s.name(pat.Name))
		s.bindSubsLoose(pat.Subs)
		return
	}
	for _, sub := range pat.Subs {
		field, ok := info.Field(sub.Field)
		if !ok {
			s.report(diag.TypUnknownField, sub.Span,
				"%s has no field %q", s.format(subject), s.name(sub.Field))
			s.bindSubsLoose([]ast.SubPattern{sub})
			continue
		}
		s.bindPattern(sub.Pattern, field.Type)
	}
}

// bindSubsLoose binds sub-patterns against the invalid type so their
// names exist and later statements do not cascade.
func (s *Sema) bindSubsLoose(subs []ast.SubPattern) {
	for _, sub := range subs {
		s.bindPattern(sub.Pattern, s.types.Invalid)
	}
}
