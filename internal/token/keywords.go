package token

var keywords = map[string]Kind{
	"import":      KwImport,
	"from":        KwFrom,
	"type":        KwType,
	"enum":        KwEnum,
	"fn":          KwFn,
	"service":     KwService,
	"config":      KwConfig,
	"app":         KwApp,
	"migration":   KwMigration,
	"test":        KwTest,
	"let":         KwLet,
	"var":         KwVar,
	"return":      KwReturn,
	"if":          KwIf,
	"else":        KwElse,
	"match":       KwMatch,
	"for":         KwFor,
	"while":       KwWhile,
	"in":          KwIn,
	"break":       KwBreak,
	"continue":    KwContinue,
	"spawn":       KwSpawn,
	"await":       KwAwait,
	"transaction": KwTransaction,
	"box":         KwBox,
	"requires":    KwRequires,
	"without":     KwWithout,
	"or":          KwOr,
	"and":         KwAnd,
	"not":         KwNot,
	"true":        KwTrue,
	"false":       KwFalse,
}

// LookupKeyword reports whether ident is a reserved word. Keywords are
// matched after maximal-munch identifier scanning, lowercase only.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
