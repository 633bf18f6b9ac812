package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quill/internal/driver"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the quill module disk cache",
	Long: `Clean drops every cached module payload and run record. The next
check rebuilds them from scratch.`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func runClean(_ *cobra.Command, _ []string) error {
	cache, err := driver.OpenDiskCache("quill")
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	if err := cache.DropAll(); err != nil {
		return fmt.Errorf("failed to drop cache: %w", err)
	}
	fmt.Fprintln(os.Stdout, "cache dropped")
	return nil
}
