package token

// String returns a short printable name for the kind, used by the tokenize
// verb and test failure messages.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "INVALID"
}

var kindNames = map[Kind]string{
	Invalid:          "INVALID",
	EOF:              "EOF",
	Newline:          "NEWLINE",
	Indent:           "INDENT",
	Dedent:           "DEDENT",
	Ident:            "IDENT",
	DocComment:       "DOC",
	KwImport:         "import",
	KwFrom:           "from",
	KwType:           "type",
	KwEnum:           "enum",
	KwFn:             "fn",
	KwService:        "service",
	KwConfig:         "config",
	KwApp:            "app",
	KwMigration:      "migration",
	KwTest:           "test",
	KwLet:            "let",
	KwVar:            "var",
	KwReturn:         "return",
	KwIf:             "if",
	KwElse:           "else",
	KwMatch:          "match",
	KwFor:            "for",
	KwWhile:          "while",
	KwIn:             "in",
	KwBreak:          "break",
	KwContinue:       "continue",
	KwSpawn:          "spawn",
	KwAwait:          "await",
	KwTransaction:    "transaction",
	KwBox:            "box",
	KwRequires:       "requires",
	KwWithout:        "without",
	KwOr:             "or",
	KwAnd:            "and",
	KwNot:            "not",
	KwTrue:           "true",
	KwFalse:          "false",
	IntLit:           "INT",
	FloatLit:         "FLOAT",
	StringLit:        "STRING",
	InterpStringLit:  "ISTRING",
	Plus:             "+",
	Minus:            "-",
	Star:             "*",
	Slash:            "/",
	Percent:          "%",
	Assign:           "=",
	EqEq:             "==",
	BangEq:           "!=",
	Lt:               "<",
	LtEq:             "<=",
	Gt:               ">",
	GtEq:             ">=",
	Bang:             "!",
	Question:         "?",
	QuestionQuestion: "??",
	QuestionDot:      "?.",
	QuestionBracket:  "?[",
	QuestionBang:     "?!",
	Colon:            ":",
	Comma:            ",",
	Dot:              ".",
	DotDot:           "..",
	Arrow:            "->",
	LParen:           "(",
	RParen:           ")",
	LBracket:         "[",
	RBracket:         "]",
	LBrace:           "{",
	RBrace:           "}",
	Underscore:       "_",
}
