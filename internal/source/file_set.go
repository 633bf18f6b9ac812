package source

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"fortio.org/safecast"
)

// FileSet owns every source file of one compilation and resolves spans to
// line/column positions.
type FileSet struct {
	files   []File
	index   map[string]FileID // normalized path -> latest id
	baseDir string
}

// NewFileSet creates an empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]File, 0),
		index: make(map[string]FileID),
	}
}

// NewFileSetWithBase creates a FileSet rooted at baseDir for relative paths.
func NewFileSetWithBase(baseDir string) *FileSet {
	fs := NewFileSet()
	fs.baseDir = baseDir
	return fs
}

// BaseDir returns the base directory, falling back to the working directory.
func (fs *FileSet) BaseDir() string {
	if fs.baseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
	}
	return fs.baseDir
}

// Add stores already-normalized content, computes the line index and hash,
// and returns a fresh FileID. A path may be added more than once; the index
// always points at the latest version.
func (fs *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	lenFiles, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("file count overflow: %w", err))
	}
	id := FileID(lenFiles)
	normalized := normalizePath(path)
	fs.files = append(fs.files, File{
		ID:      id,
		Path:    normalized,
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	})
	fs.index[normalized] = id
	return id
}

// Load reads a file from disk, strips a BOM, normalizes CRLF and adds it.
func (fs *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path comes from the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)

	flags := FileFlags(0)
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return fs.Add(path, content, flags), nil
}

// AddVirtual adds an in-memory file (tests, stdin).
func (fs *FileSet) AddVirtual(name string, content []byte) FileID {
	content, _ = removeBOM(content)
	content, _ = normalizeCRLF(content)
	return fs.Add(name, content, FileVirtual)
}

// Get returns the file for id.
func (fs *FileSet) Get(id FileID) *File {
	return &fs.files[id]
}

// GetByPath returns the latest file loaded under path, if any.
func (fs *FileSet) GetByPath(path string) (*File, bool) {
	if id, ok := fs.index[normalizePath(path)]; ok {
		return &fs.files[id], true
	}
	return nil, false
}

// Len returns the number of files in the set.
func (fs *FileSet) Len() int { return len(fs.files) }

// Resolve converts a span into start and end line/column positions.
func (fs *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fs.files[span.File]
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End)
}

// Line returns the text of a 1-based line without its trailing newline.
func (f *File) Line(lineNum uint32) string {
	if lineNum == 0 {
		return ""
	}
	lenIdx := uint32(len(f.LineIdx))    //nolint:gosec // bounded by file size
	lenContent := uint32(len(f.Content)) //nolint:gosec // bounded by Load

	var start uint32
	switch {
	case lineNum == 1:
		start = 0
	case lineNum-2 < lenIdx:
		start = f.LineIdx[lineNum-2] + 1
	default:
		return ""
	}

	end := lenContent
	if lineNum-1 < lenIdx {
		end = f.LineIdx[lineNum-1]
	}
	if start >= lenContent {
		return ""
	}
	if end > lenContent {
		end = lenContent
	}
	return string(f.Content[start:end])
}

// RelPath formats the file path relative to baseDir when possible.
func (f *File) RelPath(baseDir string) string {
	if baseDir == "" || !filepath.IsAbs(f.Path) {
		return f.Path
	}
	if rel, err := filepath.Rel(baseDir, f.Path); err == nil {
		return filepath.ToSlash(rel)
	}
	return f.Path
}
