package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"quill/internal/diag"
	"quill/internal/diagfmt"
	"quill/internal/source"
)

// outputFormat reads and validates the shared --format flag.
func outputFormat(cmd *cobra.Command) (string, error) {
	format, err := cmd.Root().PersistentFlags().GetString("format")
	if err != nil {
		return "", fmt.Errorf("failed to get format flag: %w", err)
	}
	switch format {
	case "pretty", "json":
		return format, nil
	default:
		return "", fmt.Errorf("unknown format %q (expected pretty or json)", format)
	}
}

func maxDiagnostics(cmd *cobra.Command) (int, error) {
	n, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return 0, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	return n, nil
}

func showTimings(cmd *cobra.Command) bool {
	v, _ := cmd.Root().PersistentFlags().GetBool("timings")
	return v
}

// useColor applies the --color mode against the destination stream.
func useColor(cmd *cobra.Command, f *os.File) bool {
	mode, _ := cmd.Root().PersistentFlags().GetString("color")
	switch mode {
	case "on":
		return true
	case "off":
		return false
	default:
		return isTerminal(f)
	}
}

// writeDiagnostics renders the bag in the requested format. Pretty output
// carries notes; JSON carries byte and line/col positions.
func writeDiagnostics(cmd *cobra.Command, w io.Writer, format string,
	bag *diag.Bag, fs *source.FileSet, max int) error {
	switch format {
	case "json":
		return diagfmt.JSON(w, bag, fs, diagfmt.JSONOpts{
			IncludePositions: true,
			IncludeNotes:     true,
			Max:              max,
		})
	default:
		color := false
		if f, ok := w.(*os.File); ok {
			color = useColor(cmd, f)
		}
		diagfmt.Pretty(w, bag, fs, diagfmt.PrettyOpts{
			Color:     color,
			ShowNotes: true,
			Max:       max,
		})
		return nil
	}
}
