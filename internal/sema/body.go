package sema

import (
	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/lexer"
	"quill/internal/resolver"
	"quill/internal/source"
	"quill/internal/types"
)

// localVar is one binding in the lexical scope chain.
type localVar struct {
	Name    source.StringID
	Type    types.TypeID
	Mutable bool
	Span    source.Span
}

func (s *Sema) pushScope() {
	s.scopes = append(s.scopes, make(map[source.StringID]*localVar))
}

func (s *Sema) popScope() {
	s.scopes = s.scopes[:len(s.scopes)-1]
}

// declare binds a name in the innermost scope. Re-binding an existing
// name shadows it.
func (s *Sema) declare(name source.StringID, typ types.TypeID, mutable bool, sp source.Span) {
	s.scopes[len(s.scopes)-1][name] = &localVar{Name: name, Type: typ, Mutable: mutable, Span: sp}
}

// lookupVar walks the scope chain innermost-out.
func (s *Sema) lookupVar(name source.StringID) *localVar {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if v, ok := s.scopes[i][name]; ok {
			return v
		}
	}
	return nil
}

// checkBodies type-checks every function, service/app member, migration
// and test body. Functions are checked on demand so calls to a later
// declaration see its inferred return type.
func (s *Sema) checkBodies() {
	for _, m := range s.res.Modules {
		s.curMod = m
		for _, sym := range m.Order {
			switch sym.Kind {
			case resolver.SymFn:
				s.ensureFnChecked(sym)
			case resolver.SymService, resolver.SymApp:
				for _, member := range s.sortedMembers(sym) {
					s.ensureFnChecked(member)
				}
			case resolver.SymMigration:
				s.checkMigration(sym)
			}
		}
		for _, itemID := range m.B.Files.Get(m.AST).Items {
			if test := m.B.Items.Test(itemID); test != nil {
				s.checkTest(test)
			}
		}
	}
	s.curMod = nil
}

// ensureFnChecked runs checkFn once per symbol; a re-entrant call hits a
// recursive function whose return type may still be uninferred and is
// answered with whatever the signature holds so far.
func (s *Sema) ensureFnChecked(sym *resolver.Symbol) {
	if s.fnState[sym] != 0 {
		return
	}
	s.fnState[sym] = 1
	s.checkFn(sym)
	s.fnState[sym] = 2
}

// saveBody snapshots the per-body state; the returned func restores it.
func (s *Sema) saveBody() func() {
	mod, fn, sig, known, scopes := s.curMod, s.curFn, s.curSig, s.retKnown, s.scopes
	return func() {
		s.curMod, s.curFn, s.curSig, s.retKnown, s.scopes = mod, fn, sig, known, scopes
	}
}

func (s *Sema) checkFn(sym *resolver.Symbol) {
	restore := s.saveBody()
	defer restore()

	m := s.res.Module(sym.Module)
	decl := m.B.Items.Fn(sym.Item)
	sig := s.out.Fns[sym]

	s.curMod, s.curFn, s.curSig = m, sym, sig
	s.retKnown = sig.Ret != types.NoTypeID
	s.scopes = nil
	s.pushScope()
	for _, p := range sig.Params {
		s.declare(p.Name, p.Type, false, p.Span)
	}
	s.checkStmt(decl.Body)
	if !s.retKnown {
		sig.Ret = s.types.Unit
	}
}

func (s *Sema) checkMigration(sym *resolver.Symbol) {
	restore := s.saveBody()
	defer restore()

	m := s.res.Module(sym.Module)
	decl := m.B.Items.Migration(sym.Item)

	// Migrations run under the tooling's own grants, so curFn stays nil
	// and capability uses are not attributed.
	s.curMod, s.curFn, s.curSig = m, nil, &FnSig{Ret: s.types.Unit}
	s.retKnown = true
	s.scopes = nil
	s.pushScope()
	s.checkStmt(decl.Body)
}

func (s *Sema) checkTest(decl *ast.TestDecl) {
	restore := s.saveBody()
	defer restore()

	s.curFn, s.curSig = nil, &FnSig{Ret: s.types.Unit}
	s.retKnown = true
	s.scopes = nil
	s.pushScope()
	s.checkStmt(decl.Body)
}

func (s *Sema) checkStmt(id ast.StmtID) {
	stmt := s.curMod.B.Stmts.Get(id)
	if stmt == nil {
		return
	}
	switch stmt.Kind {
	case ast.StmtLet:
		s.checkLet(id)
	case ast.StmtAssign:
		s.checkAssignStmt(id)
	case ast.StmtReturn:
		s.checkReturn(id, stmt.Span)
	case ast.StmtIf:
		ifs := s.curMod.B.Stmts.If(id)
		s.checkCond(ifs.Cond)
		s.checkStmt(ifs.Then)
		if ifs.Else.IsValid() {
			s.checkStmt(ifs.Else)
		}
	case ast.StmtMatch:
		s.checkMatch(id)
	case ast.StmtFor:
		s.checkFor(id)
	case ast.StmtWhile:
		whiles := s.curMod.B.Stmts.While(id)
		s.checkCond(whiles.Cond)
		s.checkStmt(whiles.Body)
	case ast.StmtBreak, ast.StmtContinue:
		// No static obligations; loops are the runtime's concern.
	case ast.StmtExpr:
		s.exprType(s.curMod.B.Stmts.Expr(id).Expr)
	case ast.StmtBlock:
		s.pushScope()
		for _, child := range s.curMod.B.Stmts.Block(id).Stmts {
			s.checkStmt(child)
		}
		s.popScope()
	case ast.StmtTransaction:
		s.checkStmt(s.curMod.B.Stmts.Transaction(id).Body)
	}
}

func (s *Sema) checkCond(cond ast.ExprID) {
	t := s.exprType(cond)
	if t != s.types.Bool && s.types.Kind(t) != types.KindInvalid {
		s.report(diag.TypCondNotBool, s.exprSpan(cond),
			"condition must be Bool, got %s", s.format(t))
	}
}

func (s *Sema) checkLet(id ast.StmtID) {
	let := s.curMod.B.Stmts.Let(id)
	got := s.exprType(let.Value)
	bound := got
	if let.Type.IsValid() {
		want := s.typeFromSyn(s.curMod, let.Type)
		s.checkValue(want, got, let.Value, "binding %q", s.name(let.Name))
		bound = want
	}
	s.declare(let.Name, bound, let.Mutable, let.NameSpan)
}

func (s *Sema) checkReturn(id ast.StmtID, sp source.Span) {
	ret := s.curMod.B.Stmts.Return(id)
	got := s.types.Unit
	if ret.Value.IsValid() {
		got = s.exprType(ret.Value)
	}
	if !s.retKnown {
		s.curSig.Ret = got
		s.retKnown = true
		return
	}
	if ret.Value.IsValid() {
		s.checkValue(s.curSig.Ret, got, ret.Value, "return value")
		return
	}
	if !s.assignable(s.curSig.Ret, got) {
		s.report(diag.TypMismatch, sp,
			"function returns %s; bare return yields Unit", s.format(s.curSig.Ret))
	}
}

func (s *Sema) checkFor(id ast.StmtID) {
	fors := s.curMod.B.Stmts.For(id)
	iter := s.exprType(fors.Iter)
	elem := s.types.Invalid
	switch t := s.types.Get(iter); t.Kind {
	case types.KindList:
		elem = t.Elem
	case types.KindMap:
		elem = s.types.String // iteration yields keys
	case types.KindInvalid:
	default:
		s.report(diag.TypMismatch, s.exprSpan(fors.Iter),
			"cannot iterate over %s", s.format(iter))
	}
	s.pushScope()
	s.declare(fors.Binding, elem, false, fors.BindSpan)
	s.checkStmt(fors.Body)
	s.popScope()
}

func (s *Sema) checkMatch(id ast.StmtID) {
	match := s.curMod.B.Stmts.Match(id)
	subject := s.exprType(match.Subject)
	for _, arm := range match.Arms {
		s.pushScope()
		s.bindPattern(arm.Pattern, subject)
		s.checkStmt(arm.Body)
		s.popScope()
	}
}

func (s *Sema) checkAssignStmt(id ast.StmtID) {
	assign := s.curMod.B.Stmts.Assign(id)
	want, ok := s.assignTarget(assign.Target)
	got := s.exprType(assign.Value)
	if !ok {
		return
	}
	s.checkValue(want, got, assign.Value, "assignment")
}

// assignTarget types the left side of an assignment and enforces that the
// root binding is mutable.
func (s *Sema) assignTarget(id ast.ExprID) (types.TypeID, bool) {
	exprs := s.curMod.B.Exprs
	sp := s.exprSpan(id)

	if ident := exprs.Ident(id); ident != nil && ident.Module == source.NoStringID {
		v := s.lookupVar(ident.Name)
		if v == nil {
			s.report(diag.ResUnresolvedName, sp, "unknown name %q", s.name(ident.Name))
			return s.types.Invalid, false
		}
		if !v.Mutable {
			s.reportNoted(diag.TypAssignImmutable, sp,
				[]diag.Note{{Span: v.Span, Msg: "declared here with let"}},
				"cannot assign to immutable binding %q", s.name(ident.Name))
			return v.Type, false
		}
		s.setType(id, v.Type)
		return v.Type, true
	}

	if mem := exprs.Member(id); mem != nil {
		root := s.rootBinding(id)
		if root == nil {
			s.report(diag.TypAssignImmutable, sp, "expression is not assignable")
			return s.types.Invalid, false
		}
		if !root.Mutable {
			s.reportNoted(diag.TypAssignImmutable, sp,
				[]diag.Note{{Span: root.Span, Msg: "declared here with let"}},
				"cannot assign through immutable binding %q", s.name(root.Name))
			return s.types.Invalid, false
		}
		return s.setType(id, s.memberType(id)), true
	}

	if idx := exprs.Index(id); idx != nil {
		root := s.rootBinding(id)
		if root == nil {
			s.report(diag.TypAssignImmutable, sp, "expression is not assignable")
			return s.types.Invalid, false
		}
		if !root.Mutable {
			s.reportNoted(diag.TypAssignImmutable, sp,
				[]diag.Note{{Span: root.Span, Msg: "declared here with let"}},
				"cannot assign through immutable binding %q", s.name(root.Name))
			return s.types.Invalid, false
		}
		base := s.exprType(idx.Base)
		switch t := s.types.Get(base); t.Kind {
		case types.KindList:
			s.checkValue(s.types.Int, s.exprType(idx.Key), idx.Key, "list index")
			return s.setType(id, t.Elem), true
		case types.KindMap:
			s.checkValue(s.types.String, s.exprType(idx.Key), idx.Key, "map key")
			return s.setType(id, t.Elem), true
		case types.KindInvalid:
			return s.setType(id, s.types.Invalid), false
		}
		s.report(diag.TypMismatch, sp, "cannot index into %s", s.format(base))
		return s.setType(id, s.types.Invalid), false
	}

	s.report(diag.TypAssignImmutable, sp, "expression is not assignable")
	return s.types.Invalid, false
}

// rootBinding chases member and index bases down to the root identifier's
// local binding, if any.
func (s *Sema) rootBinding(id ast.ExprID) *localVar {
	exprs := s.curMod.B.Exprs
	for {
		if ident := exprs.Ident(id); ident != nil {
			if ident.Module != source.NoStringID {
				return nil
			}
			return s.lookupVar(ident.Name)
		}
		if mem := exprs.Member(id); mem != nil {
			id = mem.Base
			continue
		}
		if idx := exprs.Index(id); idx != nil {
			id = idx.Base
			continue
		}
		return nil
	}
}

// checkValue verifies got against want and, when want is refined and the
// value is a literal, its bounds. what names the slot in diagnostics.
func (s *Sema) checkValue(want, got types.TypeID, value ast.ExprID, what string, args ...any) {
	slot := s.sprintf(what, args...)
	if !s.assignable(want, got) {
		s.report(diag.TypMismatch, s.exprSpan(value),
			"%s expects %s, got %s", slot, s.format(want), s.format(got))
		return
	}
	s.checkRefinedLiteral(want, value, slot)
}

// checkRefinedLiteral enforces refinement bounds on literal values. Only
// literals are decidable statically; runtime values pass.
func (s *Sema) checkRefinedLiteral(want types.TypeID, value ast.ExprID, slot string) {
	w := s.types.Get(want)
	if w.Kind == types.KindOption || w.Kind == types.KindResult {
		s.checkRefinedLiteral(w.Elem, value, slot)
		return
	}
	if w.Kind != types.KindRefined {
		return
	}
	exprs := s.curMod.B.Exprs

	if w.Scalar == types.ScalarString {
		lit := exprs.Lit(value)
		if lit == nil || lit.Lit != ast.LitString {
			return
		}
		n := float64(len(lexer.Unquote(lit.Text)))
		if n < w.Lo || n > w.Hi {
			s.report(diag.TypRefinementViolation, s.exprSpan(value),
				"%s: string length %d is outside %s", slot, int(n), s.format(want))
		}
		return
	}

	v, _, ok := s.literalValue(s.curMod.B, value)
	if !ok {
		return
	}
	if v < w.Lo || v > w.Hi {
		s.report(diag.TypRefinementViolation, s.exprSpan(value),
			"%s: value %v is outside %s", slot, v, s.format(want))
	}
}

// assignable reports whether a got value fits a want slot. The invalid
// type fits everywhere so one error does not cascade. T widens into
// Option<T> and into the ok side of Result<T, E>.
func (s *Sema) assignable(want, got types.TypeID) bool {
	if want == got {
		return true
	}
	w, g := s.types.Get(want), s.types.Get(got)
	if w.Kind == types.KindInvalid || g.Kind == types.KindInvalid {
		return true
	}
	// The default error domain absorbs every concrete error type, so a
	// bare `T!` return accepts any propagated or returned error.
	if want == s.types.Error {
		return true
	}
	if w.Kind == types.KindRefined || g.Kind == types.KindRefined {
		return s.types.Base(want) == s.types.Base(got)
	}
	// Branded string scalars accept plain String values; the brand
	// constrains declarations, not producers.
	if w.Kind == types.KindScalar && g.Kind == types.KindScalar && g.Scalar == types.ScalarString {
		switch w.Scalar {
		case types.ScalarId, types.ScalarEmail, types.ScalarHtml:
			return true
		}
	}
	switch w.Kind {
	case types.KindOption:
		if g.Kind == types.KindOption {
			return s.assignable(w.Elem, g.Elem)
		}
		return s.assignable(w.Elem, got)
	case types.KindResult:
		if g.Kind == types.KindResult {
			return s.assignable(w.Elem, g.Elem) && s.assignable(w.Err, g.Err)
		}
		return s.assignable(w.Elem, got)
	case types.KindList:
		return g.Kind == types.KindList && s.assignable(w.Elem, g.Elem)
	case types.KindMap:
		return g.Kind == types.KindMap && s.assignable(w.Key, g.Key) && s.assignable(w.Elem, g.Elem)
	case types.KindTask:
		return g.Kind == types.KindTask && s.assignable(w.Elem, g.Elem)
	}
	return false
}

func (s *Sema) exprSpan(id ast.ExprID) source.Span {
	if e := s.curMod.B.Exprs.Get(id); e != nil {
		return e.Span
	}
	return source.Span{}
}
