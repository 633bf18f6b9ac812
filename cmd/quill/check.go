package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"quill/internal/driver"
	"quill/internal/project"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [path]",
	Short: "Check a quill project or file",
	Long: `Check runs the full front end: parsing, module resolution, type
checking and the safety rules. The path is a .ql file or a directory;
directories are checked whole. Omitting it checks the current directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().Bool("strict", false, "enable the strict architectural checks")
	checkCmd.Flags().Bool("watch", false, "re-run on file changes")
	checkCmd.Flags().Bool("no-cache", false, "skip the module disk cache")
}

func runCheck(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) == 1 {
		target = args[0]
	}

	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	max, err := maxDiagnostics(cmd)
	if err != nil {
		return err
	}
	strict, _ := cmd.Flags().GetBool("strict")
	watch, _ := cmd.Flags().GetBool("watch")
	noCache, _ := cmd.Flags().GetBool("no-cache")

	paths, dir, err := collectTargets(target)
	if err != nil {
		return err
	}

	opts := driver.Options{
		MaxDiagnostics: max,
		Strict:         strict,
		Timings:        showTimings(cmd),
		Manifest:       findManifest(dir),
	}
	if !noCache {
		if cache, err := driver.OpenDiskCache("quill"); err == nil {
			opts.Cache = cache
		}
	}

	runOnce := func() error {
		result, err := driver.Check(cmd.Context(), paths, opts)
		if err != nil {
			return err
		}
		if err := writeDiagnostics(cmd, os.Stdout, format, result.Bag, result.FileSet, max); err != nil {
			return err
		}
		if result.Bag.HasErrors() {
			return fmt.Errorf("check failed")
		}
		if format == "pretty" {
			fmt.Fprintf(os.Stdout, "checked %d modules: ok\n", result.ModuleCount)
		}
		return nil
	}

	if !watch {
		return runOnce()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	err = driver.Watch(ctx, dir, driver.WatchOptions{}, func() {
		// Pick up files added or removed since the last run.
		if next, _, err := collectTargets(target); err == nil {
			paths = next
		}
		if err := runOnce(); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// collectTargets expands a file or directory target into root paths and
// the directory to watch.
func collectTargets(target string) (paths []string, dir string, err error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, "", err
	}
	if !info.IsDir() {
		return []string{target}, filepath.Dir(target), nil
	}
	files, err := driver.ListSourceFiles(target)
	if err != nil {
		return nil, "", err
	}
	if len(files) == 0 {
		return nil, "", fmt.Errorf("no .ql files under %s", target)
	}
	return files, target, nil
}

// findManifest locates and loads the nearest quill.toml; a project
// without one checks fine with defaults.
func findManifest(dir string) *project.Manifest {
	path, err := project.Find(dir)
	if err != nil {
		return nil
	}
	m, err := project.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		return nil
	}
	return m
}
