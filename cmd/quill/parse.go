package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quill/internal/driver"
)

var parseCmd = &cobra.Command{
	Use:   "parse [flags] file.ql",
	Short: "Parse a quill source file",
	Long:  `Parse runs the lexer and parser only, reporting every syntax error the recovery finds`,
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func runParse(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	max, err := maxDiagnostics(cmd)
	if err != nil {
		return err
	}

	result, err := driver.Parse(args[0], max)
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}

	result.Bag.Sort()
	if err := writeDiagnostics(cmd, os.Stdout, format, result.Bag, result.FileSet, max); err != nil {
		return err
	}

	if result.Bag.HasErrors() {
		return fmt.Errorf("%s has syntax errors", args[0])
	}
	if format == "pretty" {
		items := result.Builder.Files.Get(result.FileID).Items
		fmt.Fprintf(os.Stdout, "parsed %s: %d top-level items\n", args[0], len(items))
	}
	return nil
}
