package diagfmt

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto chooses a path relative to the base directory when
	// possible, the absolute path otherwise.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	// PathModeRelative uses paths relative to the file set's base directory.
	PathModeRelative
	// PathModeBasename uses only the file name.
	PathModeBasename
)

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	PathMode  PathMode
	ShowNotes bool
	// Max truncates the rendered list; zero renders everything.
	Max int
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	IncludePositions bool
	PathMode         PathMode
	IncludeNotes     bool
	// Max truncates the output, not the bag.
	Max int
}
