package ast

import (
	"quill/internal/source"
)

// PatternKind enumerates the closed set of match patterns.
type PatternKind uint8

const (
	PatWildcard PatternKind = iota
	PatLiteral
	// PatName is a bare identifier: a binding or a zero-argument variant.
	// The parser cannot tell them apart; the checker decides by lookup.
	PatName
	PatConstructor
)

func (k PatternKind) String() string {
	switch k {
	case PatWildcard:
		return "wildcard"
	case PatLiteral:
		return "literal"
	case PatName:
		return "name"
	case PatConstructor:
		return "constructor"
	}
	return "invalid"
}

// Pattern is one match pattern; Payload points into the arena for its
// kind. Wildcard carries no payload.
type Pattern struct {
	Kind    PatternKind
	Span    source.Span
	Payload PayloadID
}

// LiteralPattern matches by value.
type LiteralPattern struct {
	Lit  LitKind
	Text string
}

// NamePattern is a bare identifier pattern.
type NamePattern struct {
	Name source.StringID
}

// SubPattern is one positional or named sub-pattern of a constructor.
type SubPattern struct {
	Field   source.StringID // NoStringID for positional sub-patterns
	Pattern PatternID
	Span    source.Span
}

// ConstructorPattern matches an enum variant or struct shape. Module is
// the import alias for qualified constructors.
type ConstructorPattern struct {
	Module source.StringID
	Name   source.StringID
	Subs   []SubPattern
	Named  bool // all subs are field=pattern
}

// Patterns owns the pattern arena and every per-kind payload arena.
type Patterns struct {
	Arena        *Arena[Pattern]
	Literals     *Arena[LiteralPattern]
	Names        *Arena[NamePattern]
	Constructors *Arena[ConstructorPattern]
}

func NewPatterns(capHint uint) *Patterns {
	if capHint == 0 {
		capHint = 1 << 7
	}
	return &Patterns{
		Arena:        NewArena[Pattern](capHint),
		Literals:     NewArena[LiteralPattern](capHint),
		Names:        NewArena[NamePattern](capHint),
		Constructors: NewArena[ConstructorPattern](capHint),
	}
}

func (p *Patterns) new(kind PatternKind, sp source.Span, payload uint32) PatternID {
	return PatternID(p.Arena.Allocate(Pattern{Kind: kind, Span: sp, Payload: PayloadID(payload)}))
}

func (p *Patterns) Get(id PatternID) *Pattern {
	return p.Arena.Get(uint32(id))
}

func (p *Patterns) NewWildcard(sp source.Span) PatternID {
	return p.new(PatWildcard, sp, 0)
}

func (p *Patterns) NewLiteral(sp source.Span, pat LiteralPattern) PatternID {
	return p.new(PatLiteral, sp, p.Literals.Allocate(pat))
}

func (p *Patterns) NewName(sp source.Span, pat NamePattern) PatternID {
	return p.new(PatName, sp, p.Names.Allocate(pat))
}

func (p *Patterns) NewConstructor(sp source.Span, pat ConstructorPattern) PatternID {
	return p.new(PatConstructor, sp, p.Constructors.Allocate(pat))
}

// Literal returns the payload of a literal pattern, or nil.
func (p *Patterns) Literal(id PatternID) *LiteralPattern {
	pat := p.Get(id)
	if pat == nil || pat.Kind != PatLiteral {
		return nil
	}
	return p.Literals.Get(uint32(pat.Payload))
}

// Name returns the payload of a name pattern, or nil.
func (p *Patterns) Name(id PatternID) *NamePattern {
	pat := p.Get(id)
	if pat == nil || pat.Kind != PatName {
		return nil
	}
	return p.Names.Get(uint32(pat.Payload))
}

// Constructor returns the payload of a constructor pattern, or nil.
func (p *Patterns) Constructor(id PatternID) *ConstructorPattern {
	pat := p.Get(id)
	if pat == nil || pat.Kind != PatConstructor {
		return nil
	}
	return p.Constructors.Get(uint32(pat.Payload))
}
