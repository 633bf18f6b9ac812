package lexer

import (
	"quill/internal/diag"
	"quill/internal/source"
)

// Options configure a lexer instance.
type Options struct {
	// Reporter receives lex diagnostics. May be nil; errors are then
	// dropped but scanning continues where recovery is possible.
	Reporter diag.Reporter
}

func (lx *Lexer) errLex(code diag.Code, sp source.Span, msg string) {
	if lx.opts.Reporter != nil {
		lx.opts.Reporter.Report(code, diag.SevError, sp, msg, nil)
	}
}
