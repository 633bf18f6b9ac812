package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"quill/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "quill",
	Short:         "Quill language front end",
	Long:          `Quill checks .ql sources: tokens, syntax, modules, types and safety rules`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(tokenizeCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(manifestCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	rootCmd.PersistentFlags().String("format", "pretty", "output format (pretty|json)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
