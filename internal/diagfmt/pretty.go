package diagfmt

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"quill/internal/diag"
	"quill/internal/source"
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	infoColor = color.New(color.FgCyan, color.Bold)
	lineColor = color.New(color.Faint)
	markColor = color.New(color.FgRed, color.Bold)
	noteColor = color.New(color.FgBlue)
)

// Pretty renders diagnostics for humans. Callers sort the bag first.
// Every diagnostic prints a header line
//
//	<path>:<line>:<col>: <SEVERITY> <CODE>: <message>
//
// followed by the source line with a caret underline under the primary
// span, then the notes in the same shape.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	items := bag.Items()
	maxItems := len(items)
	if opts.Max > 0 && opts.Max < maxItems {
		maxItems = opts.Max
	}
	for i := 0; i < maxItems; i++ {
		d := items[i]
		writeHeader(w, fs, d, opts)
		writeContext(w, fs, d.Primary, opts)
		if opts.ShowNotes {
			for _, note := range d.Notes {
				fmt.Fprintf(w, "  %s %s\n", paint(opts, noteColor, "note:"), note.Msg)
				writeContext(w, fs, note.Span, opts)
			}
		}
	}
	if dropped := len(items) - maxItems; dropped > 0 {
		fmt.Fprintf(w, "... and %d more\n", dropped)
	}
}

func writeHeader(w io.Writer, fs *source.FileSet, d diag.Diagnostic, opts PrettyOpts) {
	sev := paint(opts, sevColor(d.Severity), d.Severity.String())
	if d.Primary == (source.Span{}) {
		fmt.Fprintf(w, "%s %s: %s\n", sev, d.Code.ID(), d.Message)
		return
	}
	start, _ := fs.Resolve(d.Primary)
	fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n",
		formatPath(fs, d.Primary.File, opts.PathMode), start.Line, start.Col,
		sev, d.Code.ID(), d.Message)
}

// writeContext prints the span's first source line with an underline.
func writeContext(w io.Writer, fs *source.FileSet, sp source.Span, opts PrettyOpts) {
	if sp == (source.Span{}) {
		return
	}
	start, end := fs.Resolve(sp)
	line := fs.Get(sp.File).Line(start.Line)
	if line == "" {
		return
	}
	fmt.Fprintf(w, "  %s\n", paint(opts, lineColor, line))

	// Underline within the first line only; a multi-line span marks to
	// the end of its first line.
	startCol := int(start.Col)
	endCol := int(end.Col)
	if end.Line != start.Line || endCol <= startCol {
		endCol = len(line) + 1
	}
	if startCol > len(line)+1 {
		return
	}
	pad := runewidth.StringWidth(clampSlice(line, 0, startCol-1))
	width := runewidth.StringWidth(clampSlice(line, startCol-1, endCol-1))
	if width < 1 {
		width = 1
	}
	marker := "^" + strings.Repeat("~", width-1)
	fmt.Fprintf(w, "  %s%s\n", strings.Repeat(" ", pad), paint(opts, markColor, marker))
}

// clampSlice slices line by byte offsets, tolerating out-of-range bounds
// from spans that cover the trailing newline.
func clampSlice(line string, lo, hi int) string {
	if lo < 0 {
		lo = 0
	}
	if hi > len(line) {
		hi = len(line)
	}
	if lo >= hi {
		return ""
	}
	return line[lo:hi]
}

func sevColor(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return errColor
	case diag.SevWarning:
		return warnColor
	default:
		return infoColor
	}
}

func paint(opts PrettyOpts, c *color.Color, s string) string {
	if !opts.Color {
		return s
	}
	return c.Sprint(s)
}

func formatPath(fs *source.FileSet, id source.FileID, mode PathMode) string {
	f := fs.Get(id)
	switch mode {
	case PathModeAbsolute:
		return f.Path
	case PathModeBasename:
		return filepath.Base(f.Path)
	default:
		return f.RelPath(fs.BaseDir())
	}
}
