package ast

type (
	// FileID identifies one parsed file inside a Builder.
	FileID uint32
	// ItemID identifies a top-level declaration.
	ItemID uint32
	// StmtID identifies a statement.
	StmtID uint32
	// ExprID identifies an expression.
	ExprID uint32
	// TypeID identifies a syntactic type expression.
	TypeID uint32
	// PatternID identifies a match pattern.
	PatternID uint32
	// PayloadID points into a per-kind payload arena.
	PayloadID uint32
)

const (
	NoFileID    FileID    = 0
	NoItemID    ItemID    = 0
	NoStmtID    StmtID    = 0
	NoExprID    ExprID    = 0
	NoTypeID    TypeID    = 0
	NoPatternID PatternID = 0
	NoPayloadID PayloadID = 0
)

func (id FileID) IsValid() bool    { return id != NoFileID }
func (id ItemID) IsValid() bool    { return id != NoItemID }
func (id StmtID) IsValid() bool    { return id != NoStmtID }
func (id ExprID) IsValid() bool    { return id != NoExprID }
func (id TypeID) IsValid() bool    { return id != NoTypeID }
func (id PatternID) IsValid() bool { return id != NoPatternID }
func (id PayloadID) IsValid() bool { return id != NoPayloadID }
