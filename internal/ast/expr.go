package ast

import (
	"quill/internal/source"
)

// ExprKind enumerates the closed set of expressions.
type ExprKind uint8

const (
	ExprLit ExprKind = iota
	ExprIdent
	ExprBinary
	ExprUnary
	ExprCall
	ExprMember
	ExprOptMember
	ExprIndex
	ExprOptIndex
	ExprStructLit
	ExprList
	ExprMap
	ExprInterpString
	ExprCoalesce
	ExprPropagate
	ExprRange
	ExprSpawn
	ExprAwait
	ExprBox
)

func (k ExprKind) String() string {
	switch k {
	case ExprLit:
		return "literal"
	case ExprIdent:
		return "ident"
	case ExprBinary:
		return "binary"
	case ExprUnary:
		return "unary"
	case ExprCall:
		return "call"
	case ExprMember:
		return "member"
	case ExprOptMember:
		return "opt-member"
	case ExprIndex:
		return "index"
	case ExprOptIndex:
		return "opt-index"
	case ExprStructLit:
		return "struct-literal"
	case ExprList:
		return "list"
	case ExprMap:
		return "map"
	case ExprInterpString:
		return "interp-string"
	case ExprCoalesce:
		return "coalesce"
	case ExprPropagate:
		return "propagate"
	case ExprRange:
		return "range"
	case ExprSpawn:
		return "spawn"
	case ExprAwait:
		return "await"
	case ExprBox:
		return "box"
	}
	return "invalid"
}

// LitKind is the literal category of an ExprLit node.
type LitKind uint8

const (
	LitInt LitKind = iota
	LitFloat
	LitString
	LitBool
)

// BinaryOp is the operator of an ExprBinary node.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
)

func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	}
	return "?"
}

// UnaryOp is the operator of an ExprUnary node.
type UnaryOp uint8

const (
	OpNeg UnaryOp = iota
	OpNot
)

func (op UnaryOp) String() string {
	if op == OpNeg {
		return "-"
	}
	return "not"
}

// Expr is one expression; Payload points into the arena for its kind.
type Expr struct {
	Kind    ExprKind
	Span    source.Span
	Payload PayloadID
}

// LitExpr is an integer, float, string, or boolean literal. Text holds
// the raw source spelling; string literals keep their quotes.
type LitExpr struct {
	Lit  LitKind
	Text string
}

// IdentExpr is a bare or qualified name reference. Module is the import
// alias for qualified references and NoStringID otherwise.
type IdentExpr struct {
	Module source.StringID
	Name   source.StringID
}

// BinaryExpr applies an infix operator.
type BinaryExpr struct {
	Op    BinaryOp
	Left  ExprID
	Right ExprID
}

// UnaryExpr applies a prefix operator.
type UnaryExpr struct {
	Op      UnaryOp
	Operand ExprID
}

// CallExpr applies a callee to positional arguments.
type CallExpr struct {
	Callee ExprID
	Args   []ExprID
}

// MemberExpr accesses a field or method: `base.name` or `base?.name`.
type MemberExpr struct {
	Base     ExprID
	Name     source.StringID
	NameSpan source.Span
}

// IndexExpr accesses by key: `base[key]` or `base?[key]`.
type IndexExpr struct {
	Base ExprID
	Key  ExprID
}

// FieldInit is one `name = value` entry of a struct literal.
type FieldInit struct {
	Name  source.StringID
	Value ExprID
	Span  source.Span
}

// StructLitExpr constructs a nominal type value: `User(id="u1", age=18)`.
// Module is the import alias for qualified constructors.
type StructLitExpr struct {
	Module source.StringID
	Name   source.StringID
	Fields []FieldInit
}

// ListExpr is a `[a, b, c]` literal.
type ListExpr struct {
	Elems []ExprID
}

// MapEntry is one `key: value` entry of a map literal.
type MapEntry struct {
	Key   ExprID
	Value ExprID
}

// MapExpr is a `{k: v, ...}` literal.
type MapExpr struct {
	Entries []MapEntry
}

// InterpSegment is one segment of an interpolated string, either a raw
// text run or an embedded expression.
type InterpSegment struct {
	Text string // decoded text; empty for expression segments
	Expr ExprID // NoExprID for text segments
}

// InterpStringExpr is a string literal containing `${expr}` regions.
type InterpStringExpr struct {
	Segments []InterpSegment
}

// CoalesceExpr is `left ?? right`.
type CoalesceExpr struct {
	Left  ExprID
	Right ExprID
}

// PropagateExpr is `operand ?!` or `operand ?! handler`: unwrap a Result,
// propagating its error to the enclosing function on failure.
type PropagateExpr struct {
	Operand ExprID
	Handler ExprID // NoExprID for the bare form
}

// RangeExpr is `lo .. hi`, inclusive on both ends.
type RangeExpr struct {
	Lo ExprID
	Hi ExprID
}

// SpawnExpr starts a task; its body is a full indented block.
type SpawnExpr struct {
	Body StmtID
}

// AwaitExpr waits for a task value.
type AwaitExpr struct {
	Operand ExprID
}

// BoxExpr moves a value behind an indirection; its type is the operand's.
type BoxExpr struct {
	Operand ExprID
}

// Exprs owns the expression arena and every per-kind payload arena.
type Exprs struct {
	Arena      *Arena[Expr]
	Lits       *Arena[LitExpr]
	Idents     *Arena[IdentExpr]
	Binaries   *Arena[BinaryExpr]
	Unaries    *Arena[UnaryExpr]
	Calls      *Arena[CallExpr]
	Members    *Arena[MemberExpr]
	Indexes    *Arena[IndexExpr]
	StructLits *Arena[StructLitExpr]
	Lists      *Arena[ListExpr]
	Maps       *Arena[MapExpr]
	Interps    *Arena[InterpStringExpr]
	Coalesces  *Arena[CoalesceExpr]
	Propagates *Arena[PropagateExpr]
	Ranges     *Arena[RangeExpr]
	Spawns     *Arena[SpawnExpr]
	Awaits     *Arena[AwaitExpr]
	Boxes      *Arena[BoxExpr]
}

func NewExprs(capHint uint) *Exprs {
	if capHint == 0 {
		capHint = 1 << 10
	}
	return &Exprs{
		Arena:      NewArena[Expr](capHint),
		Lits:       NewArena[LitExpr](capHint),
		Idents:     NewArena[IdentExpr](capHint),
		Binaries:   NewArena[BinaryExpr](capHint),
		Unaries:    NewArena[UnaryExpr](capHint),
		Calls:      NewArena[CallExpr](capHint),
		Members:    NewArena[MemberExpr](capHint),
		Indexes:    NewArena[IndexExpr](capHint),
		StructLits: NewArena[StructLitExpr](capHint),
		Lists:      NewArena[ListExpr](capHint),
		Maps:       NewArena[MapExpr](capHint),
		Interps:    NewArena[InterpStringExpr](capHint),
		Coalesces:  NewArena[CoalesceExpr](capHint),
		Propagates: NewArena[PropagateExpr](capHint),
		Ranges:     NewArena[RangeExpr](capHint),
		Spawns:     NewArena[SpawnExpr](capHint),
		Awaits:     NewArena[AwaitExpr](capHint),
		Boxes:      NewArena[BoxExpr](capHint),
	}
}

func (e *Exprs) new(kind ExprKind, sp source.Span, payload uint32) ExprID {
	return ExprID(e.Arena.Allocate(Expr{Kind: kind, Span: sp, Payload: PayloadID(payload)}))
}

func (e *Exprs) Get(id ExprID) *Expr {
	return e.Arena.Get(uint32(id))
}

func (e *Exprs) NewLit(sp source.Span, expr LitExpr) ExprID {
	return e.new(ExprLit, sp, e.Lits.Allocate(expr))
}

func (e *Exprs) NewIdent(sp source.Span, expr IdentExpr) ExprID {
	return e.new(ExprIdent, sp, e.Idents.Allocate(expr))
}

func (e *Exprs) NewBinary(sp source.Span, expr BinaryExpr) ExprID {
	return e.new(ExprBinary, sp, e.Binaries.Allocate(expr))
}

func (e *Exprs) NewUnary(sp source.Span, expr UnaryExpr) ExprID {
	return e.new(ExprUnary, sp, e.Unaries.Allocate(expr))
}

func (e *Exprs) NewCall(sp source.Span, expr CallExpr) ExprID {
	return e.new(ExprCall, sp, e.Calls.Allocate(expr))
}

func (e *Exprs) NewMember(sp source.Span, expr MemberExpr) ExprID {
	return e.new(ExprMember, sp, e.Members.Allocate(expr))
}

func (e *Exprs) NewOptMember(sp source.Span, expr MemberExpr) ExprID {
	return e.new(ExprOptMember, sp, e.Members.Allocate(expr))
}

func (e *Exprs) NewIndex(sp source.Span, expr IndexExpr) ExprID {
	return e.new(ExprIndex, sp, e.Indexes.Allocate(expr))
}

func (e *Exprs) NewOptIndex(sp source.Span, expr IndexExpr) ExprID {
	return e.new(ExprOptIndex, sp, e.Indexes.Allocate(expr))
}

func (e *Exprs) NewStructLit(sp source.Span, expr StructLitExpr) ExprID {
	return e.new(ExprStructLit, sp, e.StructLits.Allocate(expr))
}

func (e *Exprs) NewList(sp source.Span, expr ListExpr) ExprID {
	return e.new(ExprList, sp, e.Lists.Allocate(expr))
}

func (e *Exprs) NewMap(sp source.Span, expr MapExpr) ExprID {
	return e.new(ExprMap, sp, e.Maps.Allocate(expr))
}

func (e *Exprs) NewInterpString(sp source.Span, expr InterpStringExpr) ExprID {
	return e.new(ExprInterpString, sp, e.Interps.Allocate(expr))
}

func (e *Exprs) NewCoalesce(sp source.Span, expr CoalesceExpr) ExprID {
	return e.new(ExprCoalesce, sp, e.Coalesces.Allocate(expr))
}

func (e *Exprs) NewPropagate(sp source.Span, expr PropagateExpr) ExprID {
	return e.new(ExprPropagate, sp, e.Propagates.Allocate(expr))
}

func (e *Exprs) NewRange(sp source.Span, expr RangeExpr) ExprID {
	return e.new(ExprRange, sp, e.Ranges.Allocate(expr))
}

func (e *Exprs) NewSpawn(sp source.Span, expr SpawnExpr) ExprID {
	return e.new(ExprSpawn, sp, e.Spawns.Allocate(expr))
}

func (e *Exprs) NewAwait(sp source.Span, expr AwaitExpr) ExprID {
	return e.new(ExprAwait, sp, e.Awaits.Allocate(expr))
}

func (e *Exprs) NewBox(sp source.Span, expr BoxExpr) ExprID {
	return e.new(ExprBox, sp, e.Boxes.Allocate(expr))
}

// Lit returns the payload of a literal expression, or nil.
func (e *Exprs) Lit(id ExprID) *LitExpr {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprLit {
		return nil
	}
	return e.Lits.Get(uint32(expr.Payload))
}

// Ident returns the payload of an identifier expression, or nil.
func (e *Exprs) Ident(id ExprID) *IdentExpr {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprIdent {
		return nil
	}
	return e.Idents.Get(uint32(expr.Payload))
}

// Binary returns the payload of a binary expression, or nil.
func (e *Exprs) Binary(id ExprID) *BinaryExpr {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprBinary {
		return nil
	}
	return e.Binaries.Get(uint32(expr.Payload))
}

// Unary returns the payload of a unary expression, or nil.
func (e *Exprs) Unary(id ExprID) *UnaryExpr {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprUnary {
		return nil
	}
	return e.Unaries.Get(uint32(expr.Payload))
}

// Call returns the payload of a call expression, or nil.
func (e *Exprs) Call(id ExprID) *CallExpr {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprCall {
		return nil
	}
	return e.Calls.Get(uint32(expr.Payload))
}

// Member returns the payload of a member or optional-member expression.
func (e *Exprs) Member(id ExprID) *MemberExpr {
	expr := e.Get(id)
	if expr == nil || (expr.Kind != ExprMember && expr.Kind != ExprOptMember) {
		return nil
	}
	return e.Members.Get(uint32(expr.Payload))
}

// Index returns the payload of an index or optional-index expression.
func (e *Exprs) Index(id ExprID) *IndexExpr {
	expr := e.Get(id)
	if expr == nil || (expr.Kind != ExprIndex && expr.Kind != ExprOptIndex) {
		return nil
	}
	return e.Indexes.Get(uint32(expr.Payload))
}

// StructLit returns the payload of a struct literal, or nil.
func (e *Exprs) StructLit(id ExprID) *StructLitExpr {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprStructLit {
		return nil
	}
	return e.StructLits.Get(uint32(expr.Payload))
}

// List returns the payload of a list literal, or nil.
func (e *Exprs) List(id ExprID) *ListExpr {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprList {
		return nil
	}
	return e.Lists.Get(uint32(expr.Payload))
}

// Map returns the payload of a map literal, or nil.
func (e *Exprs) Map(id ExprID) *MapExpr {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprMap {
		return nil
	}
	return e.Maps.Get(uint32(expr.Payload))
}

// InterpString returns the payload of an interpolated string, or nil.
func (e *Exprs) InterpString(id ExprID) *InterpStringExpr {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprInterpString {
		return nil
	}
	return e.Interps.Get(uint32(expr.Payload))
}

// Coalesce returns the payload of a coalesce expression, or nil.
func (e *Exprs) Coalesce(id ExprID) *CoalesceExpr {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprCoalesce {
		return nil
	}
	return e.Coalesces.Get(uint32(expr.Payload))
}

// Propagate returns the payload of a propagate expression, or nil.
func (e *Exprs) Propagate(id ExprID) *PropagateExpr {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprPropagate {
		return nil
	}
	return e.Propagates.Get(uint32(expr.Payload))
}

// Range returns the payload of a range expression, or nil.
func (e *Exprs) Range(id ExprID) *RangeExpr {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprRange {
		return nil
	}
	return e.Ranges.Get(uint32(expr.Payload))
}

// Spawn returns the payload of a spawn expression, or nil.
func (e *Exprs) Spawn(id ExprID) *SpawnExpr {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprSpawn {
		return nil
	}
	return e.Spawns.Get(uint32(expr.Payload))
}

// Await returns the payload of an await expression, or nil.
func (e *Exprs) Await(id ExprID) *AwaitExpr {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprAwait {
		return nil
	}
	return e.Awaits.Get(uint32(expr.Payload))
}

// Box returns the payload of a box expression, or nil.
func (e *Exprs) Box(id ExprID) *BoxExpr {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprBox {
		return nil
	}
	return e.Boxes.Get(uint32(expr.Payload))
}
