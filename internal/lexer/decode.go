package lexer

import (
	"strings"

	"fortio.org/safecast"

	"quill/internal/source"
)

// DecodeEscapes rewrites the recognized escapes \n \t \r \\ \" in s.
// Any other backslash-prefixed character passes through literally.
func DecodeEscapes(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var out strings.Builder
	out.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			out.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			out.WriteByte('\n')
		case 't':
			out.WriteByte('\t')
		case 'r':
			out.WriteByte('\r')
		case '\\':
			out.WriteByte('\\')
		case '"':
			out.WriteByte('"')
		default:
			out.WriteByte('\\')
			out.WriteByte(s[i])
		}
	}
	return out.String()
}

// Unquote strips the surrounding quotes of a plain string literal and
// decodes its escapes.
func Unquote(raw string) string {
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		raw = raw[1 : len(raw)-1]
	}
	return DecodeEscapes(raw)
}

// InterpPart is one segment of an interpolated string literal: either
// literal text (decoded) or the byte range of an embedded expression.
type InterpPart struct {
	Text   string // decoded text; empty for expression parts
	IsExpr bool
	Start  uint32 // expression byte range within the file (IsExpr only)
	End    uint32
}

// SplitInterp segments an InterpStringLit token's span into text and
// expression parts. The lexer already validated region bracketing, so the
// walk here only needs to honor escapes, braces and nested strings.
func SplitInterp(f *source.File, sp source.Span) []InterpPart {
	content := f.Content[sp.Start:sp.End]
	// Strip quotes.
	if len(content) >= 2 && content[0] == '"' && content[len(content)-1] == '"' {
		content = content[1 : len(content)-1]
	}
	base := sp.Start + 1

	var parts []InterpPart
	var text strings.Builder
	flushText := func() {
		if text.Len() > 0 {
			parts = append(parts, InterpPart{Text: DecodeEscapes(text.String())})
			text.Reset()
		}
	}

	for i := 0; i < len(content); i++ {
		c := content[i]
		if c == '\\' && i+1 < len(content) {
			text.WriteByte(c)
			i++
			text.WriteByte(content[i])
			continue
		}
		if c == '$' && i+1 < len(content) && content[i+1] == '{' {
			flushText()
			exprStart := i + 2
			j := exprStart
			depth := 1
			for j < len(content) && depth > 0 {
				switch content[j] {
				case '{':
					depth++
				case '}':
					depth--
				case '"':
					j = skipQuoted(content, j)
				case '\\':
					j++
				}
				j++
			}
			exprEnd := j - 1 // before the closing '}'
			s, err := safecast.Conv[uint32](exprStart)
			if err != nil {
				panic(err)
			}
			e, err := safecast.Conv[uint32](exprEnd)
			if err != nil {
				panic(err)
			}
			parts = append(parts, InterpPart{IsExpr: true, Start: base + s, End: base + e})
			i = j - 1
			continue
		}
		text.WriteByte(c)
	}
	flushText()
	return parts
}

// skipQuoted returns the index of the closing quote of the string literal
// opening at content[i].
func skipQuoted(content []byte, i int) int {
	for j := i + 1; j < len(content); j++ {
		switch content[j] {
		case '\\':
			j++
		case '"':
			return j
		}
	}
	return len(content) - 1
}
