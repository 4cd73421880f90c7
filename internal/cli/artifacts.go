package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	pipelineerrors "github.com/misty-step/landfall/internal/errors"
)

var (
	artifactsVersionFlag   string
	artifactsNotesFileFlag string
)

var artifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "Write release-note artifacts from an existing notes file",
	Long: `Write the configured artifact files (markdown, plaintext, HTML,
JSON feed) from already-synthesized notes markdown.

Useful for re-running distribution after a partial failure, or for
backfilling artifacts for old releases.

Examples:
  landfall artifacts --version 1.2.3 --notes-file notes.md`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runArtifacts()
	},
}

func init() {
	rootCmd.AddCommand(artifactsCmd)

	artifactsCmd.Flags().StringVar(&artifactsVersionFlag, "version", "", "Release version for {version} interpolation (required)")
	artifactsCmd.Flags().StringVar(&artifactsNotesFileFlag, "notes-file", "", "Path to synthesized notes markdown (required)")
	_ = artifactsCmd.MarkFlagRequired("version")
	_ = artifactsCmd.MarkFlagRequired("notes-file")
}

func runArtifacts() error {
	cfg, err := loadConfig()
	if err != nil {
		return wrapConfigExit(err)
	}
	logger := newLogger(cfg)
	defer logger.Sync()

	markdown, err := readNotesFile(artifactsNotesFileFlag)
	if err != nil {
		return err
	}

	writer := artifactWriter(cfg, logger)
	outcomes, err := writer.WriteAll(artifactsVersionFlag, markdown)
	if err != nil {
		return err
	}

	for _, outcome := range outcomes {
		if outcome.Err == nil {
			fmt.Fprintf(os.Stdout, "wrote %s (%s)\n", outcome.Path, outcome.Format)
		}
	}
	return nil
}

// readNotesFile loads and trims a notes markdown file, rejecting empty
// content before any artifact is touched.
func readNotesFile(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", pipelineerrors.NewConfigurationError(
			fmt.Sprintf("reading notes file %s: %v", path, err),
		)
	}
	markdown := strings.TrimSpace(string(raw))
	if markdown == "" {
		return "", pipelineerrors.NewConfigurationError(
			fmt.Sprintf("notes file %s is empty", path),
		)
	}
	return markdown, nil
}
