package driver

import (
	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/parser"
	"quill/internal/source"
)

// ParseResult is the output of parsing one file.
type ParseResult struct {
	FileSet *source.FileSet
	Strings *source.Interner
	File    *source.File
	Builder *ast.Builder
	FileID  ast.FileID
	Bag     *diag.Bag
}

// Parse lexes and parses one file, recovering at item boundaries.
func Parse(path string, maxDiagnostics int) (*ParseResult, error) {
	fs := source.NewFileSet()
	fileID, err := fs.Load(path)
	if err != nil {
		return nil, err
	}
	file := fs.Get(fileID)

	bag := diag.NewBag(maxDiagnostics)
	strings := source.NewInterner()
	builder := ast.NewBuilder(strings, ast.DefaultHints())

	p := parser.New(file, builder, parser.Options{
		Reporter:  diag.BagReporter{Bag: bag},
		MaxErrors: maxDiagnostics,
	})
	astFile := p.ParseFile()

	return &ParseResult{
		FileSet: fs,
		Strings: strings,
		File:    file,
		Builder: builder,
		FileID:  astFile,
		Bag:     bag,
	}, nil
}
