package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quill/internal/driver"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest [flags] [path]",
	Short: "Print the capability manifest of a quill project",
	Long: `Manifest checks the project and prints, per module, the declared
capability set and every function's transitive capability use as JSON.
Build collaborators consume it to provision runtime effects.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runManifest,
}

func runManifest(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) == 1 {
		target = args[0]
	}
	max, err := maxDiagnostics(cmd)
	if err != nil {
		return err
	}

	paths, dir, err := collectTargets(target)
	if err != nil {
		return err
	}

	result, err := driver.Check(cmd.Context(), paths, driver.Options{
		MaxDiagnostics: max,
		Manifest:       findManifest(dir),
	})
	if err != nil {
		return err
	}
	if result.Bag.HasErrors() {
		if err := writeDiagnostics(cmd, os.Stderr, "pretty", result.Bag, result.FileSet, max); err != nil {
			return err
		}
		return fmt.Errorf("cannot derive a manifest from a broken project")
	}

	manifest := result.Program.Manifest(result.FileSet.BaseDir())
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(manifest)
}
