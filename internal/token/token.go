package token

import (
	"quill/internal/source"
)

// Token is a single source token with its location. Structural tokens
// (Newline, Indent, Dedent) carry an empty Text.
type Token struct {
	Kind Kind
	Span source.Span
	Text string
}

// IsLiteral reports whether the token is a numeric, boolean, or string literal.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case IntLit, FloatLit, StringLit, InterpStringLit, KwTrue, KwFalse:
		return true
	default:
		return false
	}
}

// IsStructural reports whether the token was synthesized by the
// indentation algorithm rather than scanned from source text.
func (t Token) IsStructural() bool {
	switch t.Kind {
	case Newline, Indent, Dedent:
		return true
	default:
		return false
	}
}

// IsKeyword reports whether the token is a reserved word.
func (t Token) IsKeyword() bool {
	switch t.Kind {
	case KwImport, KwFrom, KwType, KwEnum, KwFn, KwService, KwConfig, KwApp,
		KwMigration, KwTest, KwLet, KwVar, KwReturn, KwIf, KwElse, KwMatch,
		KwFor, KwWhile, KwIn, KwBreak, KwContinue, KwSpawn, KwAwait,
		KwTransaction, KwBox, KwRequires, KwWithout, KwOr, KwAnd, KwNot, KwTrue, KwFalse:
		return true
	default:
		return false
	}
}

// IsItemStarter reports whether the token can begin a top-level declaration.
func (t Token) IsItemStarter() bool {
	switch t.Kind {
	case KwImport, KwType, KwEnum, KwFn, KwService, KwConfig, KwApp,
		KwMigration, KwTest, KwRequires:
		return true
	default:
		return false
	}
}
