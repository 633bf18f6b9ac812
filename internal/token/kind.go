package token

// Kind is the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	// Newline terminates a logical line. Synthesized, not present in source.
	Newline
	// Indent opens an indented block. Synthesized.
	Indent
	// Dedent closes an indented block. Synthesized.
	Dedent

	// Ident represents an identifier.
	Ident
	// DocComment represents a `## ...` doc comment line.
	DocComment

	// KwImport represents the 'import' keyword.
	KwImport // import
	// KwFrom represents the 'from' keyword.
	KwFrom // from
	// KwType represents the 'type' keyword.
	KwType // type
	// KwEnum represents the 'enum' keyword.
	KwEnum // enum
	// KwFn represents the 'fn' keyword.
	KwFn // fn
	// KwService represents the 'service' keyword.
	KwService // service
	// KwConfig represents the 'config' keyword.
	KwConfig // config
	// KwApp represents the 'app' keyword.
	KwApp // app
	// KwMigration represents the 'migration' keyword.
	KwMigration // migration
	// KwTest represents the 'test' keyword.
	KwTest // test
	// KwLet represents the 'let' keyword.
	KwLet // let
	// KwVar represents the 'var' keyword.
	KwVar // var
	// KwReturn represents the 'return' keyword.
	KwReturn // return
	// KwIf represents the 'if' keyword.
	KwIf // if
	// KwElse represents the 'else' keyword.
	KwElse // else
	// KwMatch represents the 'match' keyword.
	KwMatch // match
	// KwFor represents the 'for' keyword.
	KwFor // for
	// KwWhile represents the 'while' keyword.
	KwWhile // while
	// KwIn represents the 'in' keyword.
	KwIn // in
	// KwBreak represents the 'break' keyword.
	KwBreak // break
	// KwContinue represents the 'continue' keyword.
	KwContinue // continue
	// KwSpawn represents the 'spawn' keyword.
	KwSpawn // spawn
	// KwAwait represents the 'await' keyword.
	KwAwait // await
	// KwTransaction represents the 'transaction' keyword.
	KwTransaction // transaction
	// KwBox represents the 'box' keyword.
	KwBox // box
	// KwRequires represents the 'requires' keyword.
	KwRequires // requires
	// KwWithout represents the 'without' keyword.
	KwWithout // without
	// KwOr represents the 'or' keyword.
	KwOr // or
	// KwAnd represents the 'and' keyword.
	KwAnd // and
	// KwNot represents the 'not' keyword.
	KwNot // not
	// KwTrue represents the 'true' keyword.
	KwTrue // true
	// KwFalse represents the 'false' keyword.
	KwFalse // false

	// IntLit represents an integer literal.
	IntLit
	// FloatLit represents a float literal.
	FloatLit
	// StringLit represents a plain string literal.
	StringLit
	// InterpStringLit represents a string literal containing `${expr}` regions.
	InterpStringLit

	// Plus represents '+'.
	Plus // +
	// Minus represents '-'.
	Minus // -
	// Star represents '*'.
	Star // *
	// Slash represents '/'.
	Slash // /
	// Percent represents '%'.
	Percent // %
	// Assign represents '='.
	Assign // =
	// EqEq represents '=='.
	EqEq // ==
	// BangEq represents '!='.
	BangEq // !=
	// Lt represents '<'.
	Lt // <
	// LtEq represents '<='.
	LtEq // <=
	// Gt represents '>'.
	Gt // >
	// GtEq represents '>='.
	GtEq // >=
	// Bang represents '!'.
	Bang // !
	// Question represents '?'.
	Question // ?
	// QuestionQuestion represents '??'.
	QuestionQuestion // ??
	// QuestionDot represents '?.'.
	QuestionDot // ?.
	// QuestionBracket represents '?['.
	QuestionBracket // ?[
	// QuestionBang represents '?!'.
	QuestionBang // ?!
	// Colon represents ':'.
	Colon // :
	// Comma represents ','.
	Comma // ,
	// Dot represents '.'.
	Dot // .
	// DotDot represents '..'.
	DotDot // ..
	// Arrow represents '->'.
	Arrow // ->
	// LParen represents '('.
	LParen // (
	// RParen represents ')'.
	RParen // )
	// LBracket represents '['.
	LBracket // [
	// RBracket represents ']'.
	RBracket // ]
	// LBrace represents '{'.
	LBrace // {
	// RBrace represents '}'.
	RBrace // }
	// Underscore represents '_'.
	Underscore // _
)
