package ast

import (
	"quill/internal/source"
)

// Hints sizes the builder's arenas up front.
type Hints struct {
	Files    uint
	Items    uint
	Stmts    uint
	Exprs    uint
	Types    uint
	Patterns uint
}

// DefaultHints fits a typical single file.
func DefaultHints() Hints {
	return Hints{
		Files:    1,
		Items:    1 << 6,
		Stmts:    1 << 9,
		Exprs:    1 << 10,
		Types:    1 << 7,
		Patterns: 1 << 6,
	}
}

// Builder aggregates every arena produced during parsing. One Builder per
// file; nodes are created once and never mutated afterwards.
type Builder struct {
	Files    *Files
	Items    *Items
	Stmts    *Stmts
	Exprs    *Exprs
	Types    *TypeSyns
	Patterns *Patterns
	Strings  *source.Interner
}

// NewBuilder creates a Builder sharing the given interner. The interner
// may be shared across builders; arenas never are.
func NewBuilder(strings *source.Interner, hints Hints) *Builder {
	return &Builder{
		Files:    NewFiles(hints.Files),
		Items:    NewItems(hints.Items),
		Stmts:    NewStmts(hints.Stmts),
		Exprs:    NewExprs(hints.Exprs),
		Types:    NewTypeSyns(hints.Types),
		Patterns: NewPatterns(hints.Patterns),
		Strings:  strings,
	}
}

// Intern interns a string through the builder's shared interner.
func (b *Builder) Intern(s string) source.StringID {
	return b.Strings.Intern(s)
}

// Lookup resolves an interned string.
func (b *Builder) Lookup(id source.StringID) string {
	return b.Strings.MustLookup(id)
}
