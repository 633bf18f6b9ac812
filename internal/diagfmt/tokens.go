package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"

	"quill/internal/source"
	"quill/internal/token"
)

// TokenOutput is one token in JSON output.
type TokenOutput struct {
	Kind string      `json:"kind"`
	Text string      `json:"text,omitempty"`
	Span source.Span `json:"span"`
}

// FormatTokensPretty lists tokens one per line with their positions.
func FormatTokensPretty(w io.Writer, tokens []token.Token, fs *source.FileSet) error {
	for i, tok := range tokens {
		startPos, endPos := fs.Resolve(tok.Span)

		fmt.Fprintf(w, "%3d: %-15s", i+1, tok.Kind.String())
		if tok.Text != "" {
			fmt.Fprintf(w, " %q", tok.Text)
		}
		fmt.Fprintf(w, " at %d:%d-%d:%d\n",
			startPos.Line, startPos.Col,
			endPos.Line, endPos.Col)

		if tok.Kind == token.EOF {
			break
		}
	}
	return nil
}

// FormatTokensJSON serializes tokens as an indented JSON array.
func FormatTokensJSON(w io.Writer, tokens []token.Token) error {
	output := make([]TokenOutput, 0, len(tokens))
	for _, tok := range tokens {
		output = append(output, TokenOutput{
			Kind: tok.Kind.String(),
			Text: tok.Text,
			Span: tok.Span,
		})
		if tok.Kind == token.EOF {
			break
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
