package ast

import (
	"quill/internal/source"
)

// File is one parsed source file: its top-level items in source order plus
// module-scope metadata collected during parsing.
type File struct {
	Span     source.Span
	Items    []ItemID
	Requires []Capability // module-scope `requires` declarations, merged
}

// Capability is one entry of a module's `requires` declaration.
type Capability struct {
	Name source.StringID
	Span source.Span
}

// Files owns the file arena.
type Files struct {
	Arena *Arena[File]
}

func NewFiles(capHint uint) *Files {
	return &Files{Arena: NewArena[File](capHint)}
}

func (f *Files) New(sp source.Span) FileID {
	return FileID(f.Arena.Allocate(File{Span: sp}))
}

func (f *Files) Get(id FileID) *File {
	return f.Arena.Get(uint32(id))
}
