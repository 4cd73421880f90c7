package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/misty-step/landfall/internal/config"
	"github.com/misty-step/landfall/internal/github"
	"github.com/misty-step/landfall/internal/release"
)

var (
	publishTagFlag       string
	publishNotesFileFlag string
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Update a GitHub release body with synthesized notes",
	Long: `Prepend synthesized notes to a GitHub release body under a
"## What's New" section. Any existing What's New section is replaced,
so re-running for the same tag is idempotent.

Examples:
  landfall publish --tag v1.2.3 --notes-file notes.md`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPublish()
	},
}

func init() {
	rootCmd.AddCommand(publishCmd)

	publishCmd.Flags().StringVar(&publishTagFlag, "tag", "", "Release tag to update (required)")
	publishCmd.Flags().StringVar(&publishNotesFileFlag, "notes-file", "", "Path to synthesized notes markdown (required)")
	_ = publishCmd.MarkFlagRequired("tag")
	_ = publishCmd.MarkFlagRequired("notes-file")
}

func runPublish() error {
	cfg, err := loadConfig()
	if err != nil {
		return wrapConfigExit(err)
	}
	if err := config.RequireGitHub(cfg); err != nil {
		return wrapConfigExit(err)
	}
	logger := newLogger(cfg)
	defer logger.Sync()

	markdown, err := readNotesFile(publishNotesFileFlag)
	if err != nil {
		return err
	}

	gh := github.NewClient(cfg.GitHubAPIURL, cfg.GitHubToken)
	gh.Logger = logger
	publisher := &release.Publisher{GitHub: gh, Repository: cfg.Repository, Logger: logger}

	url, err := publisher.Publish(cmdContext(), publishTagFlag, markdown)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Updated release %q in %q: %s\n", publishTagFlag, cfg.Repository, url)
	return nil
}
