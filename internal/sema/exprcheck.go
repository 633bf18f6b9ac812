package sema

import (
	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/resolver"
	"quill/internal/source"
	"quill/internal/types"
)

// setType records the checked type of an expression and returns it.
func (s *Sema) setType(id ast.ExprID, t types.TypeID) types.TypeID {
	s.out.ExprTypes[ExprKey{Module: s.curMod.ID, Expr: id}] = t
	return t
}

// exprType checks an expression and returns its type, recording it in the
// result map.
func (s *Sema) exprType(id ast.ExprID) types.TypeID {
	exprs := s.curMod.B.Exprs
	expr := exprs.Get(id)
	if expr == nil {
		return s.types.Invalid
	}
	switch expr.Kind {
	case ast.ExprLit:
		return s.setType(id, s.litType(exprs.Lit(id).Lit))
	case ast.ExprIdent:
		return s.setType(id, s.identType(id, exprs.Ident(id), expr.Span))
	case ast.ExprBinary:
		return s.setType(id, s.binaryType(exprs.Binary(id), expr.Span))
	case ast.ExprUnary:
		return s.setType(id, s.unaryType(exprs.Unary(id), expr.Span))
	case ast.ExprCall:
		return s.setType(id, s.callType(id, exprs.Call(id), expr.Span))
	case ast.ExprMember, ast.ExprOptMember:
		return s.setType(id, s.memberType(id))
	case ast.ExprIndex, ast.ExprOptIndex:
		return s.setType(id, s.indexType(id, expr.Kind == ast.ExprOptIndex))
	case ast.ExprStructLit:
		return s.setType(id, s.structLitType(id, exprs.StructLit(id), expr.Span))
	case ast.ExprList:
		return s.setType(id, s.listType(exprs.List(id)))
	case ast.ExprMap:
		return s.setType(id, s.mapType(exprs.Map(id)))
	case ast.ExprInterpString:
		return s.setType(id, s.interpType(exprs.InterpString(id)))
	case ast.ExprCoalesce:
		return s.setType(id, s.coalesceType(exprs.Coalesce(id), expr.Span))
	case ast.ExprPropagate:
		return s.setType(id, s.propagateType(exprs.Propagate(id), expr.Span))
	case ast.ExprRange:
		return s.setType(id, s.rangeType(exprs.Range(id), expr.Span))
	case ast.ExprSpawn:
		return s.setType(id, s.spawnType(id, exprs.Spawn(id)))
	case ast.ExprAwait:
		return s.setType(id, s.awaitType(exprs.Await(id), expr.Span))
	case ast.ExprBox:
		// box is an ownership hint for backends; typing sees through it.
		return s.setType(id, s.exprType(exprs.Box(id).Operand))
	}
	return s.setType(id, s.types.Invalid)
}

func (s *Sema) litType(kind ast.LitKind) types.TypeID {
	switch kind {
	case ast.LitInt:
		return s.types.Int
	case ast.LitFloat:
		return s.types.Float
	case ast.LitString:
		return s.types.String
	case ast.LitBool:
		return s.types.Bool
	}
	return s.types.Invalid
}

func (s *Sema) identType(id ast.ExprID, ident *ast.IdentExpr, sp source.Span) types.TypeID {
	if ident.Module == source.NoStringID {
		if v := s.lookupVar(ident.Name); v != nil {
			return v.Type
		}
	}
	sym, found := s.identSymbol(ident, sp)
	if !found {
		return s.types.Invalid
	}
	switch sym.Kind {
	case resolver.SymConfig:
		return s.out.Structs[sym].Type
	case resolver.SymFn:
		s.report(diag.TypMismatch, sp,
			"function %q is not a value; call it", s.name(ident.Name))
	default:
		s.report(diag.TypMismatch, sp,
			"%s %q is not a value", sym.Kind, s.name(ident.Name))
	}
	return s.types.Invalid
}

// identSymbol resolves an identifier to a declaration, reporting when it
// cannot. found is false after a report.
func (s *Sema) identSymbol(ident *ast.IdentExpr, sp source.Span) (*resolver.Symbol, bool) {
	if ident.Module != source.NoStringID {
		sym, known := s.res.LookupQualified(s.curMod, ident.Module, ident.Name)
		if !known {
			s.report(diag.ResUnresolvedName, sp,
				"unknown module alias %q", s.name(ident.Module))
			return nil, false
		}
		if sym == nil {
			s.report(diag.ResUnresolvedName, sp,
				"module %q has no declaration %q", s.name(ident.Module), s.name(ident.Name))
			return nil, false
		}
		return sym, true
	}
	if sym, ok := s.res.LookupLocal(s.curMod, ident.Name); ok {
		return sym, true
	}
	if _, ok := s.builtins[s.name(ident.Name)]; ok {
		s.report(diag.TypMismatch, sp,
			"builtin %q is not a value; call it", s.name(ident.Name))
		return nil, false
	}
	s.report(diag.ResUnresolvedName, sp, "unknown name %q", s.name(ident.Name))
	return nil, false
}

// symbolRef resolves an expression that names a declaration rather than a
// value, without reporting. Locals shadow declarations.
func (s *Sema) symbolRef(id ast.ExprID) *resolver.Symbol {
	ident := s.curMod.B.Exprs.Ident(id)
	if ident == nil {
		return nil
	}
	if ident.Module == source.NoStringID {
		if s.lookupVar(ident.Name) != nil {
			return nil
		}
		sym, _ := s.res.LookupLocal(s.curMod, ident.Name)
		return sym
	}
	sym, _ := s.res.LookupQualified(s.curMod, ident.Module, ident.Name)
	return sym
}

func (s *Sema) binaryType(bin *ast.BinaryExpr, sp source.Span) types.TypeID {
	lt := s.exprType(bin.Left)
	rt := s.exprType(bin.Right)
	lb, rb := s.types.Base(lt), s.types.Base(rt)
	invalid := s.types.Kind(lt) == types.KindInvalid || s.types.Kind(rt) == types.KindInvalid

	switch bin.Op {
	case ast.OpAdd:
		if lb == s.types.String && rb == s.types.String {
			return s.types.String
		}
		fallthrough
	case ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		if lb == s.types.Int && rb == s.types.Int {
			return s.types.Int
		}
		if lb == s.types.Float && rb == s.types.Float && bin.Op != ast.OpMod {
			return s.types.Float
		}
		if !invalid {
			s.report(diag.TypMismatch, sp,
				"operator %s is not defined for %s and %s", bin.Op, s.format(lt), s.format(rt))
		}
		return s.types.Invalid
	case ast.OpEq, ast.OpNe:
		if !invalid && !s.assignable(lt, rt) && !s.assignable(rt, lt) {
			s.report(diag.TypMismatch, sp,
				"cannot compare %s with %s", s.format(lt), s.format(rt))
		}
		return s.types.Bool
	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		ordered := lb == rb && (lb == s.types.Int || lb == s.types.Float || lb == s.types.String)
		if !ordered && !invalid {
			s.report(diag.TypMismatch, sp,
				"operator %s needs two Int, Float or String operands, got %s and %s",
				bin.Op, s.format(lt), s.format(rt))
		}
		return s.types.Bool
	case ast.OpAnd, ast.OpOr:
		if !invalid && (lb != s.types.Bool || rb != s.types.Bool) {
			s.report(diag.TypMismatch, sp,
				"operator %s needs Bool operands, got %s and %s", bin.Op, s.format(lt), s.format(rt))
		}
		return s.types.Bool
	}
	return s.types.Invalid
}

func (s *Sema) unaryType(un *ast.UnaryExpr, sp source.Span) types.TypeID {
	t := s.exprType(un.Operand)
	base := s.types.Base(t)
	switch un.Op {
	case ast.OpNeg:
		if base == s.types.Int || base == s.types.Float {
			return base
		}
		if s.types.Kind(t) != types.KindInvalid {
			s.report(diag.TypMismatch, sp, "operator - is not defined for %s", s.format(t))
		}
	case ast.OpNot:
		if base != s.types.Bool && s.types.Kind(t) != types.KindInvalid {
			s.report(diag.TypMismatch, sp, "operator not needs a Bool operand, got %s", s.format(t))
		}
		return s.types.Bool
	}
	return s.types.Invalid
}

func (s *Sema) callType(id ast.ExprID, call *ast.CallExpr, sp source.Span) types.TypeID {
	exprs := s.curMod.B.Exprs

	if ident := exprs.Ident(call.Callee); ident != nil {
		calleeSpan := s.exprSpan(call.Callee)
		if ident.Module == source.NoStringID {
			if v := s.lookupVar(ident.Name); v != nil {
				s.checkArgs(nil, call.Args, sp)
				s.report(diag.TypNotCallable, calleeSpan, "%s is not callable", s.format(v.Type))
				return s.types.Invalid
			}
			if b, ok := s.builtins[s.name(ident.Name)]; ok {
				s.checkArgList(b.Name, b.Params, call.Args, sp)
				s.useCap(b.Caps, sp, "builtin "+b.Name)
				return b.Ret
			}
		}
		sym, found := s.identSymbol(ident, calleeSpan)
		if !found {
			s.checkArgs(nil, call.Args, sp)
			return s.types.Invalid
		}
		if sym.Kind == resolver.SymFn {
			return s.callFn(sym, call.Args, sp)
		}
		s.checkArgs(nil, call.Args, sp)
		s.report(diag.TypNotCallable, calleeSpan, "%s %q is not callable", sym.Kind, s.name(ident.Name))
		return s.types.Invalid
	}

	mem := exprs.Member(call.Callee)
	if mem == nil {
		t := s.exprType(call.Callee)
		s.checkArgs(nil, call.Args, sp)
		s.report(diag.TypNotCallable, s.exprSpan(call.Callee), "%s is not callable", s.format(t))
		return s.types.Invalid
	}
	optional := exprs.Get(call.Callee).Kind == ast.ExprOptMember

	if base := s.symbolRef(mem.Base); base != nil && !optional {
		switch base.Kind {
		case resolver.SymEnum:
			return s.callVariant(base, mem, call.Args, sp)
		case resolver.SymService, resolver.SymApp:
			member, ok := s.out.Members[base][mem.Name]
			if !ok {
				s.checkArgs(nil, call.Args, sp)
				s.report(diag.ResUnresolvedName, mem.NameSpan,
					"%s %q has no function %q", base.Kind, s.name(base.Name), s.name(mem.Name))
				return s.types.Invalid
			}
			return s.callFn(member, call.Args, sp)
		}
	}

	recv := s.exprType(mem.Base)
	if optional {
		t := s.types.Get(recv)
		if t.Kind != types.KindOption {
			if t.Kind != types.KindInvalid {
				s.report(diag.TypBadOptionalAccess, mem.NameSpan,
					"'?.' needs an optional receiver, got %s", s.format(recv))
			}
			s.checkArgs(nil, call.Args, sp)
			return s.types.Invalid
		}
		recv = t.Elem
	}
	if s.types.Kind(recv) == types.KindInvalid {
		s.checkArgs(nil, call.Args, sp)
		return s.types.Invalid
	}
	sig, ok := s.methodOn(recv, s.name(mem.Name))
	if !ok {
		s.checkArgs(nil, call.Args, sp)
		s.report(diag.ResUnresolvedName, mem.NameSpan,
			"%s has no method %q", s.format(recv), s.name(mem.Name))
		return s.types.Invalid
	}
	s.checkArgList(s.name(mem.Name), sig.Params, call.Args, sp)
	if optional {
		return s.types.Option(sig.Ret)
	}
	return sig.Ret
}

// callFn checks a call against a declared function, recording the edge
// for the capability closure. The callee's body is checked first so an
// inferred return type is available.
func (s *Sema) callFn(sym *resolver.Symbol, args []ast.ExprID, sp source.Span) types.TypeID {
	s.ensureFnChecked(sym)
	s.addCallEdge(sym)
	sig := s.out.Fns[sym]
	params := make([]types.TypeID, len(sig.Params))
	for i, p := range sig.Params {
		params[i] = p.Type
	}
	s.checkArgList(s.name(sym.Name), params, args, sp)
	if sig.Ret == types.NoTypeID {
		return s.types.Invalid
	}
	return sig.Ret
}

// callVariant checks an enum variant construction `Enum.Variant(args)`.
func (s *Sema) callVariant(enumSym *resolver.Symbol, mem *ast.MemberExpr, args []ast.ExprID, sp source.Span) types.TypeID {
	info := s.out.Enums[enumSym]
	variant, ok := info.Variant(mem.Name)
	if !ok {
		s.checkArgs(nil, args, sp)
		s.report(diag.TypUnknownVariant, mem.NameSpan,
			"enum %q has no variant %q", s.name(enumSym.Name), s.name(mem.Name))
		return s.types.Invalid
	}
	s.checkArgList(s.name(mem.Name), variant.Params, args, sp)
	return info.Type
}

// checkArgList checks positional arguments against parameter types.
func (s *Sema) checkArgList(callee string, params []types.TypeID, args []ast.ExprID, sp source.Span) {
	if len(args) != len(params) {
		s.checkArgs(nil, args, sp)
		s.report(diag.TypArgCount, sp,
			"%q takes %d argument(s), got %d", callee, len(params), len(args))
		return
	}
	for i, arg := range args {
		got := s.exprType(arg)
		s.checkValue(params[i], got, arg, "argument %d of %q", i+1, callee)
	}
}

// checkArgs types arguments without constraints, keeping the type map
// total after a callee error.
func (s *Sema) checkArgs(_ []types.TypeID, args []ast.ExprID, _ source.Span) {
	for _, arg := range args {
		s.exprType(arg)
	}
}

func (s *Sema) memberType(id ast.ExprID) types.TypeID {
	exprs := s.curMod.B.Exprs
	mem := exprs.Member(id)
	optional := exprs.Get(id).Kind == ast.ExprOptMember

	if base := s.symbolRef(mem.Base); base != nil && !optional {
		switch base.Kind {
		case resolver.SymEnum:
			info := s.out.Enums[base]
			variant, ok := info.Variant(mem.Name)
			if !ok {
				s.report(diag.TypUnknownVariant, mem.NameSpan,
					"enum %q has no variant %q", s.name(base.Name), s.name(mem.Name))
				return s.types.Invalid
			}
			if len(variant.Params) != 0 {
				s.report(diag.TypArgCount, mem.NameSpan,
					"variant %q carries %d value(s); construct it with arguments",
					s.name(mem.Name), len(variant.Params))
				return s.types.Invalid
			}
			return info.Type
		case resolver.SymService, resolver.SymApp:
			s.report(diag.TypMismatch, mem.NameSpan,
				"%s functions are not values; call them", base.Kind)
			return s.types.Invalid
		}
	}

	recv := s.exprType(mem.Base)
	t := s.types.Get(recv)
	if t.Kind == types.KindInvalid {
		return s.types.Invalid
	}
	if optional {
		if t.Kind != types.KindOption {
			s.report(diag.TypBadOptionalAccess, mem.NameSpan,
				"'?.' needs an optional receiver, got %s", s.format(recv))
			return s.types.Invalid
		}
		inner := s.fieldType(t.Elem, mem.Name, mem.NameSpan)
		if inner == s.types.Invalid {
			return inner
		}
		return s.types.Option(inner)
	}
	if t.Kind == types.KindOption {
		s.report(diag.TypBadOptionalAccess, mem.NameSpan,
			"%s may be empty; use '?.' or '??'", s.format(recv))
		return s.types.Invalid
	}
	return s.fieldType(recv, mem.Name, mem.NameSpan)
}

// fieldType resolves a struct field on a nominal receiver.
func (s *Sema) fieldType(recv types.TypeID, name source.StringID, sp source.Span) types.TypeID {
	sym, ok := s.nominals[recv]
	if !ok {
		s.report(diag.TypUnknownField, sp, "%s has no fields", s.format(recv))
		return s.types.Invalid
	}
	info, ok := s.out.Structs[sym]
	if !ok {
		s.report(diag.TypUnknownField, sp,
			"enum %s has no fields; match on it instead", s.format(recv))
		return s.types.Invalid
	}
	field, ok := info.Field(name)
	if !ok {
		s.report(diag.TypUnknownField, sp,
			"%s has no field %q", s.format(recv), s.name(name))
		return s.types.Invalid
	}
	return field.Type
}

func (s *Sema) indexType(id ast.ExprID, optional bool) types.TypeID {
	idx := s.curMod.B.Exprs.Index(id)
	base := s.exprType(idx.Base)
	t := s.types.Get(base)
	if t.Kind == types.KindInvalid {
		s.exprType(idx.Key)
		return s.types.Invalid
	}
	if optional {
		if t.Kind != types.KindOption {
			s.report(diag.TypBadOptionalAccess, s.exprSpan(id),
				"'?[' needs an optional receiver, got %s", s.format(base))
			s.exprType(idx.Key)
			return s.types.Invalid
		}
		t = s.types.Get(t.Elem)
	}
	key := s.exprType(idx.Key)
	switch t.Kind {
	case types.KindList:
		s.checkValue(s.types.Int, key, idx.Key, "list index")
		return s.types.Option(t.Elem)
	case types.KindMap:
		s.checkValue(s.types.String, key, idx.Key, "map key")
		return s.types.Option(t.Elem)
	case types.KindInvalid:
		return s.types.Invalid
	}
	s.report(diag.TypMismatch, s.exprSpan(id), "cannot index into %s", s.format(base))
	return s.types.Invalid
}

func (s *Sema) structLitType(id ast.ExprID, lit *ast.StructLitExpr, sp source.Span) types.TypeID {
	var sym *resolver.Symbol
	if lit.Module != source.NoStringID {
		sym, _ = s.res.LookupQualified(s.curMod, lit.Module, lit.Name)
	} else {
		sym, _ = s.res.LookupLocal(s.curMod, lit.Name)
	}
	if sym == nil {
		s.report(diag.TypUnknownType, sp, "unknown type %q", s.name(lit.Name))
		s.typeFieldInits(lit.Fields)
		return s.types.Invalid
	}
	info, ok := s.out.Structs[sym]
	if !ok {
		s.report(diag.TypUnknownType, sp,
			"%q is a %s; it cannot be constructed with fields", s.name(lit.Name), sym.Kind)
		s.typeFieldInits(lit.Fields)
		return s.types.Invalid
	}
	if s.out.Excluded[sym] {
		s.typeFieldInits(lit.Fields)
		return info.Type
	}

	seen := make(map[source.StringID]bool, len(lit.Fields))
	for _, init := range lit.Fields {
		got := s.exprType(init.Value)
		field, ok := info.Field(init.Name)
		if !ok {
			s.report(diag.TypUnknownField, init.Span,
				"%s has no field %q", s.name(lit.Name), s.name(init.Name))
			continue
		}
		if seen[init.Name] {
			s.report(diag.TypDuplicateField, init.Span,
				"field %q is already set", s.name(init.Name))
			continue
		}
		seen[init.Name] = true
		s.checkValue(field.Type, got, init.Value, "field %q", s.name(init.Name))
	}
	for _, field := range info.Fields {
		if !seen[field.Name] && !field.HasDefault {
			s.reportNoted(diag.TypMismatch, sp,
				[]diag.Note{{Span: field.Span, Msg: "declared here without a default"}},
				"missing field %q of %s", s.name(field.Name), s.name(lit.Name))
		}
	}
	return info.Type
}

func (s *Sema) typeFieldInits(fields []ast.FieldInit) {
	for _, init := range fields {
		s.exprType(init.Value)
	}
}

func (s *Sema) listType(lit *ast.ListExpr) types.TypeID {
	elem := s.types.Invalid
	for _, e := range lit.Elems {
		t := s.exprType(e)
		if elem == s.types.Invalid {
			elem = t
			continue
		}
		s.checkValue(elem, t, e, "list element")
	}
	return s.types.List(elem)
}

func (s *Sema) mapType(lit *ast.MapExpr) types.TypeID {
	elem := s.types.Invalid
	for _, entry := range lit.Entries {
		key := s.exprType(entry.Key)
		s.checkValue(s.types.String, key, entry.Key, "map key")
		t := s.exprType(entry.Value)
		if elem == s.types.Invalid {
			elem = t
			continue
		}
		s.checkValue(elem, t, entry.Value, "map value")
	}
	return s.types.Map(s.types.String, elem)
}

func (s *Sema) interpType(lit *ast.InterpStringExpr) types.TypeID {
	for _, seg := range lit.Segments {
		if !seg.Expr.IsValid() {
			continue
		}
		t := s.exprType(seg.Expr)
		switch s.types.Kind(s.types.Base(t)) {
		case types.KindScalar, types.KindInvalid:
		default:
			s.report(diag.TypMismatch, s.exprSpan(seg.Expr),
				"cannot interpolate %s into a string", s.format(t))
		}
	}
	return s.types.String
}

func (s *Sema) coalesceType(co *ast.CoalesceExpr, sp source.Span) types.TypeID {
	lt := s.exprType(co.Left)
	rt := s.exprType(co.Right)
	t := s.types.Get(lt)
	if t.Kind != types.KindOption {
		if t.Kind != types.KindInvalid {
			s.report(diag.TypBadCoalesce, s.exprSpan(co.Left),
				"'??' needs an optional left side, got %s", s.format(lt))
		}
		return s.types.Invalid
	}
	if s.types.Kind(rt) == types.KindOption {
		if !s.assignable(lt, rt) {
			s.report(diag.TypBadCoalesce, sp,
				"'??' sides disagree: %s versus %s", s.format(lt), s.format(rt))
		}
		return lt
	}
	if !s.assignable(t.Elem, rt) {
		s.report(diag.TypBadCoalesce, sp,
			"'??' fallback must be %s, got %s", s.format(t.Elem), s.format(rt))
	}
	return t.Elem
}

func (s *Sema) propagateType(prop *ast.PropagateExpr, sp source.Span) types.TypeID {
	ot := s.exprType(prop.Operand)
	t := s.types.Get(ot)
	if t.Kind != types.KindResult && t.Kind != types.KindOption {
		if t.Kind != types.KindInvalid {
			s.report(diag.TypPropagateNeedsError, s.exprSpan(prop.Operand),
				"'?!' needs a Result or Option operand, got %s", s.format(ot))
		}
		if prop.Handler.IsValid() {
			s.exprType(prop.Handler)
		}
		return s.types.Invalid
	}

	// Both forms raise into the enclosing function's error domain.
	if !s.retKnown || s.types.Kind(s.curSig.Ret) != types.KindResult {
		s.report(diag.TypPropagateOutsideResult, sp,
			"'?!' raises into the enclosing error domain; the function must declare a Result return")
		if prop.Handler.IsValid() {
			s.exprType(prop.Handler)
		}
		return t.Elem
	}
	ret := s.types.Get(s.curSig.Ret)

	if prop.Handler.IsValid() {
		// The explicit error value replaces a None or the incoming error.
		got := s.exprType(prop.Handler)
		s.checkValue(ret.Err, got, prop.Handler, "'?!' error value")
		return t.Elem
	}

	if t.Kind == types.KindOption {
		// None carries no error of its own; only the default domain can
		// supply one.
		if ret.Err != s.types.Error {
			s.report(diag.TypPropagateNeedsError, sp,
				"'?!' on %s needs an explicit error value in the %s domain",
				s.format(ot), s.format(ret.Err))
		}
		return t.Elem
	}

	if !s.assignable(ret.Err, t.Err) {
		s.report(diag.TypMismatch, sp,
			"error domain %s does not propagate into %s", s.format(t.Err), s.format(ret.Err))
	}
	return t.Elem
}

func (s *Sema) rangeType(rng *ast.RangeExpr, sp source.Span) types.TypeID {
	lo := s.exprType(rng.Lo)
	hi := s.exprType(rng.Hi)
	lb, hb := s.types.Base(lo), s.types.Base(hi)
	if (lb != s.types.Int || hb != s.types.Int) &&
		s.types.Kind(lo) != types.KindInvalid && s.types.Kind(hi) != types.KindInvalid {
		s.report(diag.TypMismatch, sp,
			"range bounds must be Int, got %s and %s", s.format(lo), s.format(hi))
		return s.types.Invalid
	}
	return s.types.List(s.types.Int)
}

// spawnType checks the task body and records it for the safety pass. The
// task's value is the body's trailing expression, Unit otherwise.
func (s *Sema) spawnType(id ast.ExprID, spawn *ast.SpawnExpr) types.TypeID {
	s.out.SpawnBodies[ExprKey{Module: s.curMod.ID, Expr: id}] = spawn.Body
	s.pushScope()
	value := s.types.Unit
	if block := s.curMod.B.Stmts.Block(spawn.Body); block != nil {
		for i, child := range block.Stmts {
			s.checkStmt(child)
			if i == len(block.Stmts)-1 {
				if es := s.curMod.B.Stmts.Expr(child); es != nil {
					value = s.out.ExprType(s.curMod.ID, es.Expr)
				}
			}
		}
	} else {
		s.checkStmt(spawn.Body)
	}
	s.popScope()
	return s.types.Task(value)
}

func (s *Sema) awaitType(await *ast.AwaitExpr, sp source.Span) types.TypeID {
	t := s.exprType(await.Operand)
	tt := s.types.Get(t)
	if tt.Kind == types.KindTask {
		return tt.Elem
	}
	if tt.Kind != types.KindInvalid {
		s.report(diag.TypMismatch, sp, "await needs a Task, got %s", s.format(t))
	}
	return s.types.Invalid
}
