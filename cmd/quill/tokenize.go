package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quill/internal/diagfmt"
	"quill/internal/driver"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize [flags] file.ql",
	Short: "Tokenize a quill source file",
	Long:  `Tokenize breaks a quill source file into its tokens, including the synthesized Newline/Indent/Dedent stream`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenize,
}

func runTokenize(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	max, err := maxDiagnostics(cmd)
	if err != nil {
		return err
	}

	result, err := driver.Tokenize(args[0], max)
	if err != nil {
		return fmt.Errorf("tokenization failed: %w", err)
	}

	if result.Bag.Len() > 0 {
		result.Bag.Sort()
		if err := writeDiagnostics(cmd, os.Stderr, format, result.Bag, result.FileSet, max); err != nil {
			return err
		}
	}

	switch format {
	case "json":
		return diagfmt.FormatTokensJSON(os.Stdout, result.Tokens)
	default:
		return diagfmt.FormatTokensPretty(os.Stdout, result.Tokens, result.FileSet)
	}
}
