package safety

import (
	"quill/internal/ast"
)

// eachChildExpr invokes the visitors on the direct children of one
// expression node.
func eachChildExpr(exprs *ast.Exprs, id ast.ExprID, ve func(ast.ExprID), vs func(ast.StmtID)) {
	expr := exprs.Get(id)
	if expr == nil {
		return
	}
	switch expr.Kind {
	case ast.ExprBinary:
		bin := exprs.Binary(id)
		ve(bin.Left)
		ve(bin.Right)
	case ast.ExprUnary:
		ve(exprs.Unary(id).Operand)
	case ast.ExprCall:
		call := exprs.Call(id)
		ve(call.Callee)
		for _, arg := range call.Args {
			ve(arg)
		}
	case ast.ExprMember, ast.ExprOptMember:
		ve(exprs.Member(id).Base)
	case ast.ExprIndex, ast.ExprOptIndex:
		idx := exprs.Index(id)
		ve(idx.Base)
		ve(idx.Key)
	case ast.ExprStructLit:
		for _, init := range exprs.StructLit(id).Fields {
			ve(init.Value)
		}
	case ast.ExprList:
		for _, elem := range exprs.List(id).Elems {
			ve(elem)
		}
	case ast.ExprMap:
		for _, entry := range exprs.Map(id).Entries {
			ve(entry.Key)
			ve(entry.Value)
		}
	case ast.ExprInterpString:
		for _, seg := range exprs.InterpString(id).Segments {
			if seg.Expr.IsValid() {
				ve(seg.Expr)
			}
		}
	case ast.ExprCoalesce:
		co := exprs.Coalesce(id)
		ve(co.Left)
		ve(co.Right)
	case ast.ExprPropagate:
		prop := exprs.Propagate(id)
		ve(prop.Operand)
		if prop.Handler.IsValid() {
			ve(prop.Handler)
		}
	case ast.ExprRange:
		rng := exprs.Range(id)
		ve(rng.Lo)
		ve(rng.Hi)
	case ast.ExprSpawn:
		vs(exprs.Spawn(id).Body)
	case ast.ExprAwait:
		ve(exprs.Await(id).Operand)
	case ast.ExprBox:
		ve(exprs.Box(id).Operand)
	}
}

// eachChildStmt invokes the visitors on the direct children of one
// statement node.
func eachChildStmt(stmts *ast.Stmts, id ast.StmtID, ve func(ast.ExprID), vs func(ast.StmtID)) {
	stmt := stmts.Get(id)
	if stmt == nil {
		return
	}
	switch stmt.Kind {
	case ast.StmtLet:
		ve(stmts.Let(id).Value)
	case ast.StmtAssign:
		assign := stmts.Assign(id)
		ve(assign.Target)
		ve(assign.Value)
	case ast.StmtReturn:
		if v := stmts.Return(id).Value; v.IsValid() {
			ve(v)
		}
	case ast.StmtIf:
		ifs := stmts.If(id)
		ve(ifs.Cond)
		vs(ifs.Then)
		if ifs.Else.IsValid() {
			vs(ifs.Else)
		}
	case ast.StmtMatch:
		match := stmts.Match(id)
		ve(match.Subject)
		for _, arm := range match.Arms {
			vs(arm.Body)
		}
	case ast.StmtFor:
		fors := stmts.For(id)
		ve(fors.Iter)
		vs(fors.Body)
	case ast.StmtWhile:
		whiles := stmts.While(id)
		ve(whiles.Cond)
		vs(whiles.Body)
	case ast.StmtExpr:
		ve(stmts.Expr(id).Expr)
	case ast.StmtBlock:
		for _, child := range stmts.Block(id).Stmts {
			vs(child)
		}
	case ast.StmtTransaction:
		vs(stmts.Transaction(id).Body)
	}
}
