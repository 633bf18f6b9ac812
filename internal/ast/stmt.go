package ast

import (
	"quill/internal/source"
)

// StmtKind enumerates the closed set of statements.
type StmtKind uint8

const (
	StmtLet StmtKind = iota
	StmtAssign
	StmtReturn
	StmtIf
	StmtMatch
	StmtFor
	StmtWhile
	StmtBreak
	StmtContinue
	StmtExpr
	StmtBlock
	StmtTransaction
)

func (k StmtKind) String() string {
	switch k {
	case StmtLet:
		return "let"
	case StmtAssign:
		return "assign"
	case StmtReturn:
		return "return"
	case StmtIf:
		return "if"
	case StmtMatch:
		return "match"
	case StmtFor:
		return "for"
	case StmtWhile:
		return "while"
	case StmtBreak:
		return "break"
	case StmtContinue:
		return "continue"
	case StmtExpr:
		return "expr"
	case StmtBlock:
		return "block"
	case StmtTransaction:
		return "transaction"
	}
	return "invalid"
}

// Stmt is one statement; Payload points into the arena for its kind.
// Break and continue carry no payload.
type Stmt struct {
	Kind    StmtKind
	Span    source.Span
	Payload PayloadID
}

// LetStmt binds a name; Mutable distinguishes `var` from `let`. Type is
// NoTypeID when the annotation is omitted and must be inferred.
type LetStmt struct {
	Name     source.StringID
	NameSpan source.Span
	Type     TypeID
	Value    ExprID
	Mutable  bool
}

// AssignStmt writes through an existing binding or member/index target.
type AssignStmt struct {
	Target ExprID
	Value  ExprID
}

// ReturnStmt returns from the enclosing function; Value may be NoExprID.
type ReturnStmt struct {
	Value ExprID
}

// IfStmt has an optional else branch which is either a block or another
// if statement (else-if chains).
type IfStmt struct {
	Cond ExprID
	Then StmtID
	Else StmtID // NoStmtID when absent
}

// MatchArm is one `pattern: body` arm.
type MatchArm struct {
	Pattern PatternID
	Body    StmtID
	Span    source.Span
}

// MatchStmt matches a subject against ordered arms.
type MatchStmt struct {
	Subject ExprID
	Arms    []MatchArm
}

// ForStmt iterates a binding over an iterable expression.
type ForStmt struct {
	Binding  source.StringID
	BindSpan source.Span
	Iter     ExprID
	Body     StmtID
}

// WhileStmt loops while the condition holds.
type WhileStmt struct {
	Cond ExprID
	Body StmtID
}

// ExprStmt evaluates an expression for effect.
type ExprStmt struct {
	Expr ExprID
}

// BlockStmt is an indented statement sequence.
type BlockStmt struct {
	Stmts []StmtID
}

// TransactionStmt is a `transaction:` block; its body is checked against
// the transactional statement subset by the safety pass.
type TransactionStmt struct {
	Body StmtID
}

// Stmts owns the statement arena and every per-kind payload arena.
type Stmts struct {
	Arena        *Arena[Stmt]
	Lets         *Arena[LetStmt]
	Assigns      *Arena[AssignStmt]
	Returns      *Arena[ReturnStmt]
	Ifs          *Arena[IfStmt]
	Matches      *Arena[MatchStmt]
	Fors         *Arena[ForStmt]
	Whiles       *Arena[WhileStmt]
	Exprs        *Arena[ExprStmt]
	Blocks       *Arena[BlockStmt]
	Transactions *Arena[TransactionStmt]
}

func NewStmts(capHint uint) *Stmts {
	if capHint == 0 {
		capHint = 1 << 9
	}
	return &Stmts{
		Arena:        NewArena[Stmt](capHint),
		Lets:         NewArena[LetStmt](capHint),
		Assigns:      NewArena[AssignStmt](capHint),
		Returns:      NewArena[ReturnStmt](capHint),
		Ifs:          NewArena[IfStmt](capHint),
		Matches:      NewArena[MatchStmt](capHint),
		Fors:         NewArena[ForStmt](capHint),
		Whiles:       NewArena[WhileStmt](capHint),
		Exprs:        NewArena[ExprStmt](capHint),
		Blocks:       NewArena[BlockStmt](capHint),
		Transactions: NewArena[TransactionStmt](capHint),
	}
}

func (s *Stmts) new(kind StmtKind, sp source.Span, payload uint32) StmtID {
	return StmtID(s.Arena.Allocate(Stmt{Kind: kind, Span: sp, Payload: PayloadID(payload)}))
}

func (s *Stmts) Get(id StmtID) *Stmt {
	return s.Arena.Get(uint32(id))
}

func (s *Stmts) NewLet(sp source.Span, stmt LetStmt) StmtID {
	return s.new(StmtLet, sp, s.Lets.Allocate(stmt))
}

func (s *Stmts) NewAssign(sp source.Span, stmt AssignStmt) StmtID {
	return s.new(StmtAssign, sp, s.Assigns.Allocate(stmt))
}

func (s *Stmts) NewReturn(sp source.Span, stmt ReturnStmt) StmtID {
	return s.new(StmtReturn, sp, s.Returns.Allocate(stmt))
}

func (s *Stmts) NewIf(sp source.Span, stmt IfStmt) StmtID {
	return s.new(StmtIf, sp, s.Ifs.Allocate(stmt))
}

func (s *Stmts) NewMatch(sp source.Span, stmt MatchStmt) StmtID {
	return s.new(StmtMatch, sp, s.Matches.Allocate(stmt))
}

func (s *Stmts) NewFor(sp source.Span, stmt ForStmt) StmtID {
	return s.new(StmtFor, sp, s.Fors.Allocate(stmt))
}

func (s *Stmts) NewWhile(sp source.Span, stmt WhileStmt) StmtID {
	return s.new(StmtWhile, sp, s.Whiles.Allocate(stmt))
}

func (s *Stmts) NewBreak(sp source.Span) StmtID {
	return s.new(StmtBreak, sp, 0)
}

func (s *Stmts) NewContinue(sp source.Span) StmtID {
	return s.new(StmtContinue, sp, 0)
}

func (s *Stmts) NewExpr(sp source.Span, stmt ExprStmt) StmtID {
	return s.new(StmtExpr, sp, s.Exprs.Allocate(stmt))
}

func (s *Stmts) NewBlock(sp source.Span, stmt BlockStmt) StmtID {
	return s.new(StmtBlock, sp, s.Blocks.Allocate(stmt))
}

func (s *Stmts) NewTransaction(sp source.Span, stmt TransactionStmt) StmtID {
	return s.new(StmtTransaction, sp, s.Transactions.Allocate(stmt))
}

// Let returns the payload of a let statement, or nil.
func (s *Stmts) Let(id StmtID) *LetStmt {
	stmt := s.Get(id)
	if stmt == nil || stmt.Kind != StmtLet {
		return nil
	}
	return s.Lets.Get(uint32(stmt.Payload))
}

// Assign returns the payload of an assign statement, or nil.
func (s *Stmts) Assign(id StmtID) *AssignStmt {
	stmt := s.Get(id)
	if stmt == nil || stmt.Kind != StmtAssign {
		return nil
	}
	return s.Assigns.Get(uint32(stmt.Payload))
}

// Return returns the payload of a return statement, or nil.
func (s *Stmts) Return(id StmtID) *ReturnStmt {
	stmt := s.Get(id)
	if stmt == nil || stmt.Kind != StmtReturn {
		return nil
	}
	return s.Returns.Get(uint32(stmt.Payload))
}

// If returns the payload of an if statement, or nil.
func (s *Stmts) If(id StmtID) *IfStmt {
	stmt := s.Get(id)
	if stmt == nil || stmt.Kind != StmtIf {
		return nil
	}
	return s.Ifs.Get(uint32(stmt.Payload))
}

// Match returns the payload of a match statement, or nil.
func (s *Stmts) Match(id StmtID) *MatchStmt {
	stmt := s.Get(id)
	if stmt == nil || stmt.Kind != StmtMatch {
		return nil
	}
	return s.Matches.Get(uint32(stmt.Payload))
}

// For returns the payload of a for statement, or nil.
func (s *Stmts) For(id StmtID) *ForStmt {
	stmt := s.Get(id)
	if stmt == nil || stmt.Kind != StmtFor {
		return nil
	}
	return s.Fors.Get(uint32(stmt.Payload))
}

// While returns the payload of a while statement, or nil.
func (s *Stmts) While(id StmtID) *WhileStmt {
	stmt := s.Get(id)
	if stmt == nil || stmt.Kind != StmtWhile {
		return nil
	}
	return s.Whiles.Get(uint32(stmt.Payload))
}

// Expr returns the payload of an expression statement, or nil.
func (s *Stmts) Expr(id StmtID) *ExprStmt {
	stmt := s.Get(id)
	if stmt == nil || stmt.Kind != StmtExpr {
		return nil
	}
	return s.Exprs.Get(uint32(stmt.Payload))
}

// Block returns the payload of a block statement, or nil.
func (s *Stmts) Block(id StmtID) *BlockStmt {
	stmt := s.Get(id)
	if stmt == nil || stmt.Kind != StmtBlock {
		return nil
	}
	return s.Blocks.Get(uint32(stmt.Payload))
}

// Transaction returns the payload of a transaction statement, or nil.
func (s *Stmts) Transaction(id StmtID) *TransactionStmt {
	stmt := s.Get(id)
	if stmt == nil || stmt.Kind != StmtTransaction {
		return nil
	}
	return s.Transactions.Get(uint32(stmt.Payload))
}
