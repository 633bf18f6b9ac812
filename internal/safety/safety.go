package safety

import (
	"fmt"

	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/resolver"
	"quill/internal/sema"
	"quill/internal/source"
	"quill/internal/types"
)

// Options configures the safety pass. Strict enables the architectural
// checks that are opt-in per project.
type Options struct {
	Reporter diag.Reporter
	Strict   bool
}

// Checker validates structural constraints the type checker does not
// express: task lifetimes, transaction restrictions, and in strict mode
// layer cycles and mixed error domains.
type Checker struct {
	opts    Options
	res     *resolver.Result
	sem     *sema.Result
	strings *source.Interner

	m        *resolver.Module
	consumed map[ast.ExprID]bool
}

// Check runs every safety rule over the checked module graph.
func Check(res *resolver.Result, sem *sema.Result, strings *source.Interner, opts Options) {
	c := &Checker{opts: opts, res: res, sem: sem, strings: strings}
	for _, m := range res.Modules {
		c.checkModule(m)
	}
	if opts.Strict {
		c.checkLayerCycles()
	}
}

func (c *Checker) report(code diag.Code, sp source.Span, format string, args ...any) {
	if c.opts.Reporter != nil {
		c.opts.Reporter.Report(code, diag.SevError, sp, fmt.Sprintf(format, args...), nil)
	}
}

func (c *Checker) checkModule(m *resolver.Module) {
	c.m = m
	c.consumed = make(map[ast.ExprID]bool)

	for _, itemID := range m.B.Files.Get(m.AST).Items {
		items := m.B.Items
		switch {
		case items.Fn(itemID) != nil:
			c.walkStmt(items.Fn(itemID).Body, walkCtx{})
		case items.Migration(itemID) != nil:
			c.walkStmt(items.Migration(itemID).Body, walkCtx{})
		case items.Test(itemID) != nil:
			c.walkStmt(items.Test(itemID).Body, walkCtx{})
		case items.Service(itemID) != nil:
			for _, fnItem := range items.Service(itemID).Fns {
				c.walkStmt(items.Fn(fnItem).Body, walkCtx{})
			}
		case items.App(itemID) != nil:
			for _, fnItem := range items.App(itemID).Fns {
				c.walkStmt(items.Fn(fnItem).Body, walkCtx{})
			}
		}
	}
	c.reportDetached(m)
	if c.opts.Strict {
		c.checkErrorDomains(m)
	}
}

// walkCtx carries the enclosing-block flags down the statement tree.
type walkCtx struct {
	inTransaction bool
}

func (c *Checker) walkStmt(id ast.StmtID, ctx walkCtx) {
	stmts := c.m.B.Stmts
	stmt := stmts.Get(id)
	if stmt == nil {
		return
	}
	switch stmt.Kind {
	case ast.StmtLet:
		let := stmts.Let(id)
		c.consume(let.Value)
		c.walkExpr(let.Value, ctx)
	case ast.StmtAssign:
		assign := stmts.Assign(id)
		c.consume(assign.Value)
		c.walkExpr(assign.Target, ctx)
		c.walkExpr(assign.Value, ctx)
	case ast.StmtReturn:
		ret := stmts.Return(id)
		if ctx.inTransaction {
			c.report(diag.SafTransactionReturn, stmt.Span,
				"cannot return out of a transaction block; bind the result and return after it commits")
		}
		if ret.Value.IsValid() {
			c.consume(ret.Value)
			c.walkExpr(ret.Value, ctx)
		}
	case ast.StmtIf:
		ifs := stmts.If(id)
		c.walkExpr(ifs.Cond, ctx)
		c.walkStmt(ifs.Then, ctx)
		if ifs.Else.IsValid() {
			c.walkStmt(ifs.Else, ctx)
		}
	case ast.StmtMatch:
		match := stmts.Match(id)
		c.walkExpr(match.Subject, ctx)
		for _, arm := range match.Arms {
			c.walkStmt(arm.Body, ctx)
		}
	case ast.StmtFor:
		fors := stmts.For(id)
		c.walkExpr(fors.Iter, ctx)
		c.walkStmt(fors.Body, ctx)
	case ast.StmtWhile:
		whiles := stmts.While(id)
		c.walkExpr(whiles.Cond, ctx)
		c.walkStmt(whiles.Body, ctx)
	case ast.StmtExpr:
		c.walkExpr(stmts.Expr(id).Expr, ctx)
	case ast.StmtBlock:
		for _, child := range stmts.Block(id).Stmts {
			c.walkStmt(child, ctx)
		}
	case ast.StmtTransaction:
		ctx.inTransaction = true
		c.walkStmt(stmts.Transaction(id).Body, ctx)
	}
}

// consume marks an expression as a consuming position for a spawn result.
// Only a directly stored, returned, passed or awaited spawn counts; a
// spawn buried in an arithmetic expression is still detached.
func (c *Checker) consume(id ast.ExprID) {
	exprs := c.m.B.Exprs
	if exprs.Get(id) == nil {
		return
	}
	switch exprs.Get(id).Kind {
	case ast.ExprSpawn:
		c.consumed[id] = true
	case ast.ExprBox:
		c.consume(exprs.Box(id).Operand)
	}
}

func (c *Checker) walkExpr(id ast.ExprID, ctx walkCtx) {
	exprs := c.m.B.Exprs
	expr := exprs.Get(id)
	if expr == nil {
		return
	}
	switch expr.Kind {
	case ast.ExprLit, ast.ExprIdent:
	case ast.ExprBinary:
		bin := exprs.Binary(id)
		c.walkExpr(bin.Left, ctx)
		c.walkExpr(bin.Right, ctx)
	case ast.ExprUnary:
		c.walkExpr(exprs.Unary(id).Operand, ctx)
	case ast.ExprCall:
		call := exprs.Call(id)
		c.walkExpr(call.Callee, ctx)
		for _, arg := range call.Args {
			c.consume(arg)
			c.walkExpr(arg, ctx)
		}
	case ast.ExprMember, ast.ExprOptMember:
		c.walkExpr(exprs.Member(id).Base, ctx)
	case ast.ExprIndex, ast.ExprOptIndex:
		idx := exprs.Index(id)
		c.walkExpr(idx.Base, ctx)
		c.walkExpr(idx.Key, ctx)
	case ast.ExprStructLit:
		for _, init := range exprs.StructLit(id).Fields {
			c.consume(init.Value)
			c.walkExpr(init.Value, ctx)
		}
	case ast.ExprList:
		for _, elem := range exprs.List(id).Elems {
			c.consume(elem)
			c.walkExpr(elem, ctx)
		}
	case ast.ExprMap:
		for _, entry := range exprs.Map(id).Entries {
			c.walkExpr(entry.Key, ctx)
			c.consume(entry.Value)
			c.walkExpr(entry.Value, ctx)
		}
	case ast.ExprInterpString:
		for _, seg := range exprs.InterpString(id).Segments {
			if seg.Expr.IsValid() {
				c.walkExpr(seg.Expr, ctx)
			}
		}
	case ast.ExprCoalesce:
		co := exprs.Coalesce(id)
		c.walkExpr(co.Left, ctx)
		c.walkExpr(co.Right, ctx)
	case ast.ExprPropagate:
		prop := exprs.Propagate(id)
		c.walkExpr(prop.Operand, ctx)
		if prop.Handler.IsValid() {
			c.walkExpr(prop.Handler, ctx)
		}
	case ast.ExprRange:
		rng := exprs.Range(id)
		c.walkExpr(rng.Lo, ctx)
		c.walkExpr(rng.Hi, ctx)
	case ast.ExprSpawn:
		if ctx.inTransaction {
			c.report(diag.SafTransactionSpawn, expr.Span,
				"cannot spawn inside a transaction block")
		}
		// The body starts a fresh context: awaiting inside the task is
		// unrelated to the transaction around the spawn site.
		c.walkStmt(exprs.Spawn(id).Body, walkCtx{})
	case ast.ExprAwait:
		op := exprs.Await(id).Operand
		c.consume(op)
		c.walkExpr(op, ctx)
	case ast.ExprBox:
		c.walkExpr(exprs.Box(id).Operand, ctx)
	}
}

// reportDetached flags every spawn in the module that no consuming
// position claimed.
func (c *Checker) reportDetached(m *resolver.Module) {
	for key := range c.sem.SpawnBodies {
		if key.Module != m.ID || c.consumed[key.Expr] {
			continue
		}
		sp := source.Span{}
		if e := m.B.Exprs.Get(key.Expr); e != nil {
			sp = e.Span
		}
		c.report(diag.SafDetachedTask, sp,
			"spawned task is never awaited or stored; its lifetime escapes the enclosing scope")
	}
}

// checkErrorDomains flags functions that propagate two different error
// domains with bare '?!'; mixing forces callers to handle a union the
// type system cannot name.
func (c *Checker) checkErrorDomains(m *resolver.Module) {
	for _, sym := range m.Order {
		if sym.Kind != resolver.SymFn {
			continue
		}
		fn := m.B.Items.Fn(sym.Item)
		domains := make(map[types.TypeID]bool)
		c.collectPropagatedDomains(m, fn.Body, domains)
		if len(domains) > 1 {
			c.report(diag.SafMixedErrorDomain, sym.Span,
				"function %q propagates %d different error domains", c.strings.MustLookup(sym.Name), len(domains))
		}
	}
}

func (c *Checker) collectPropagatedDomains(m *resolver.Module, id ast.StmtID, domains map[types.TypeID]bool) {
	prev := c.m
	c.m = m
	defer func() { c.m = prev }()

	var visitExpr func(ast.ExprID)
	var visitStmt func(ast.StmtID)

	visitExpr = func(eid ast.ExprID) {
		exprs := m.B.Exprs
		expr := exprs.Get(eid)
		if expr == nil {
			return
		}
		if expr.Kind == ast.ExprPropagate {
			prop := exprs.Propagate(eid)
			if !prop.Handler.IsValid() {
				t := c.sem.Types.Get(c.sem.ExprType(m.ID, prop.Operand))
				if t.Kind == types.KindResult {
					domains[t.Err] = true
				}
			}
		}
		eachChildExpr(exprs, eid, visitExpr, visitStmt)
	}
	visitStmt = func(sid ast.StmtID) {
		eachChildStmt(m.B.Stmts, sid, visitExpr, visitStmt)
	}
	visitStmt(id)
}

// checkLayerCycles rejects import cycles that cross directory layers.
// Same-directory cycles are a module concern, not an architecture one.
func (c *Checker) checkLayerCycles() {
	layerOf := func(m *resolver.Module) string {
		return dirOf(m.Path)
	}
	edges := make(map[string]map[string]source.Span)
	for _, m := range c.res.Modules {
		from := layerOf(m)
		for _, target := range m.Aliases {
			to := c.res.Module(target)
			if to == nil || layerOf(to) == from {
				continue
			}
			if edges[from] == nil {
				edges[from] = make(map[string]source.Span)
			}
			edges[from][layerOf(to)] = m.B.Files.Get(m.AST).Span
		}
		for _, ref := range m.Named {
			to := c.res.Module(ref.Module)
			if to == nil || layerOf(to) == from {
				continue
			}
			if edges[from] == nil {
				edges[from] = make(map[string]source.Span)
			}
			edges[from][layerOf(to)] = m.B.Files.Get(m.AST).Span
		}
	}

	const (
		fresh = iota
		visiting
		done
	)
	state := make(map[string]int)
	var visit func(layer string) bool
	visit = func(layer string) bool {
		switch state[layer] {
		case done:
			return false
		case visiting:
			return true
		}
		state[layer] = visiting
		for next, sp := range edges[layer] {
			if visit(next) {
				c.report(diag.SafLayerCycle, sp,
					"layer %q participates in an import cycle through %q", layer, next)
				break
			}
		}
		state[layer] = done
		return false
	}
	for layer := range edges {
		visit(layer)
	}
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[:i]
		}
	}
	return "."
}
