package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"quill/internal/project"
	"quill/internal/version"
)

type versionPayload struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	Language  string `json:"language"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show quill build fingerprints",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		if format == "json" {
			return renderVersionJSON(cmd.OutOrStdout())
		}
		renderVersionPretty(cmd.OutOrStdout())
		return nil
	},
}

func renderVersionPretty(out io.Writer) {
	fmt.Fprintf(out, "quill %s (language %s)\n", strings.TrimSpace(version.Version), project.LanguageVersion)
	if commit := strings.TrimSpace(version.GitCommit); commit != "" {
		fmt.Fprintf(out, "commit: %s\n", commit)
	}
	if date := strings.TrimSpace(version.BuildDate); date != "" {
		fmt.Fprintf(out, "built:  %s\n", date)
	}
}

func renderVersionJSON(out io.Writer) error {
	payload := versionPayload{
		Tool:      "quill",
		Version:   strings.TrimSpace(version.Version),
		Language:  project.LanguageVersion,
		GitCommit: strings.TrimSpace(version.GitCommit),
		BuildDate: strings.TrimSpace(version.BuildDate),
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}
