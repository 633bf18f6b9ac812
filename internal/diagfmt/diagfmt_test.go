package diagfmt_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"quill/internal/diag"
	"quill/internal/diagfmt"
	"quill/internal/source"
	"quill/internal/token"
)

func makeFileSet(t *testing.T, content string) (*source.FileSet, source.FileID) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("main.ql", []byte(content))
	return fs, id
}

func TestPrettyHeaderAndUnderline(t *testing.T) {
	fs, file := makeFileSet(t, "let x = nope\n")
	bag := diag.NewBag(0)
	bag.Add(diag.NewError(diag.ResUnresolvedName,
		source.Span{File: file, Start: 8, End: 12}, "unresolved name \"nope\""))

	var buf bytes.Buffer
	diagfmt.Pretty(&buf, bag, fs, diagfmt.PrettyOpts{})
	out := buf.String()

	if !strings.Contains(out, "main.ql:1:9: ERROR RES3003: unresolved name \"nope\"") {
		t.Errorf("header missing:\n%s", out)
	}
	if !strings.Contains(out, "let x = nope") {
		t.Errorf("source line missing:\n%s", out)
	}
	if !strings.Contains(out, "        ^~~~") {
		t.Errorf("underline misplaced:\n%s", out)
	}
}

func TestPrettyNotesAndTruncation(t *testing.T) {
	fs, file := makeFileSet(t, "let a = 1\nlet b = 2\n")
	bag := diag.NewBag(0)
	bag.Add(diag.NewError(diag.TypMismatch, source.Span{File: file, Start: 4, End: 5}, "first").
		WithNote(source.Span{File: file, Start: 14, End: 15}, "declared here"))
	bag.Add(diag.NewError(diag.TypMismatch, source.Span{File: file, Start: 14, End: 15}, "second"))

	var buf bytes.Buffer
	diagfmt.Pretty(&buf, bag, fs, diagfmt.PrettyOpts{ShowNotes: true, Max: 1})
	out := buf.String()

	if !strings.Contains(out, "note: declared here") {
		t.Errorf("note missing:\n%s", out)
	}
	if strings.Contains(out, "second") {
		t.Errorf("truncation ignored:\n%s", out)
	}
	if !strings.Contains(out, "... and 1 more") {
		t.Errorf("truncation marker missing:\n%s", out)
	}
}

func TestPrettySkipsLocationForEmptySpan(t *testing.T) {
	fs, _ := makeFileSet(t, "x\n")
	bag := diag.NewBag(0)
	bag.Add(diag.New(diag.SevInfo, diag.ObsTimings, source.Span{}, "timings: total 1.00 ms"))

	var buf bytes.Buffer
	diagfmt.Pretty(&buf, bag, fs, diagfmt.PrettyOpts{})
	out := buf.String()

	if !strings.HasPrefix(out, "INFO OBS8001:") {
		t.Errorf("empty span must render without a location:\n%s", out)
	}
}

func TestJSONShape(t *testing.T) {
	fs, file := makeFileSet(t, "let x = nope\n")
	bag := diag.NewBag(0)
	bag.Add(diag.NewError(diag.ResUnresolvedName,
		source.Span{File: file, Start: 8, End: 12}, "unresolved name \"nope\""))

	var buf bytes.Buffer
	err := diagfmt.JSON(&buf, bag, fs, diagfmt.JSONOpts{IncludePositions: true})
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}

	var out diagfmt.DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if out.Count != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("count: %d", out.Count)
	}
	d := out.Diagnostics[0]
	if d.Code != "RES3003" || d.Severity != "ERROR" {
		t.Errorf("code/severity: %s %s", d.Code, d.Severity)
	}
	if d.Location.StartLine != 1 || d.Location.StartCol != 9 {
		t.Errorf("position: %+v", d.Location)
	}
}

func TestFormatTokensStopAtEOF(t *testing.T) {
	fs, file := makeFileSet(t, "x\n")
	tokens := []token.Token{
		{Kind: token.Ident, Span: source.Span{File: file, Start: 0, End: 1}, Text: "x"},
		{Kind: token.EOF, Span: source.Span{File: file, Start: 2, End: 2}},
		{Kind: token.Ident, Span: source.Span{File: file, Start: 0, End: 1}, Text: "ghost"},
	}

	var pretty bytes.Buffer
	if err := diagfmt.FormatTokensPretty(&pretty, tokens, fs); err != nil {
		t.Fatalf("pretty: %v", err)
	}
	if strings.Contains(pretty.String(), "ghost") {
		t.Errorf("output must stop at EOF:\n%s", pretty.String())
	}

	var asJSON bytes.Buffer
	if err := diagfmt.FormatTokensJSON(&asJSON, tokens); err != nil {
		t.Fatalf("json: %v", err)
	}
	var out []diagfmt.TokenOutput
	if err := json.Unmarshal(asJSON.Bytes(), &out); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if len(out) != 2 || out[1].Kind != "EOF" {
		t.Errorf("tokens: %+v", out)
	}
}
