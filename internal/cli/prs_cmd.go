package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/misty-step/landfall/internal/config"
	"github.com/misty-step/landfall/internal/github"
	"github.com/misty-step/landfall/internal/prs"
)

var (
	prsTagFlag       string
	prsOutputFlag    string
	prsRepoPathFlag  string
	prsBodyCharsFlag int
)

var prsCmd = &cobra.Command{
	Use:   "prs",
	Short: "Extract merged pull requests as pseudo-changelog markdown",
	Long: `Extract the pull requests merged between the previous tag and the
release tag and render them as pseudo-changelog markdown. The output
feeds synthesis when no real changelog exists (changelog_source: prs).

Tag timestamps come from the local git repository; merged PRs come from
the GitHub API.

Examples:
  landfall prs --tag v1.2.3 --output .landfall/pr-changelog.md`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPRs()
	},
}

func init() {
	rootCmd.AddCommand(prsCmd)

	prsCmd.Flags().StringVar(&prsTagFlag, "tag", "", "Release tag to extract PRs for (required)")
	prsCmd.Flags().StringVar(&prsOutputFlag, "output", "", "Output markdown file path (required)")
	prsCmd.Flags().StringVar(&prsRepoPathFlag, "repo-path", "", "Local git repository path (default: working directory)")
	prsCmd.Flags().IntVar(&prsBodyCharsFlag, "body-chars", prs.DefaultBodyChars, "Maximum PR body excerpt length")
	_ = prsCmd.MarkFlagRequired("tag")
	_ = prsCmd.MarkFlagRequired("output")
}

func runPRs() error {
	cfg, err := loadConfig()
	if err != nil {
		return wrapConfigExit(err)
	}
	if err := config.RequireGitHub(cfg); err != nil {
		return wrapConfigExit(err)
	}
	logger := newLogger(cfg)
	defer logger.Sync()

	gh := github.NewClient(cfg.GitHubAPIURL, cfg.GitHubToken)
	gh.Logger = logger

	extractor := &prs.Extractor{
		GitHub:     gh,
		Repository: cfg.Repository,
		RepoPath:   prsRepoPathFlag,
		BaseBranch: cfg.BaseBranch,
		BodyChars:  prsBodyCharsFlag,
		Logger:     logger,
	}

	markdown, err := extractor.Extract(cmdContext(), prsTagFlag)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(prsOutputFlag); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(prsOutputFlag, []byte(markdown), 0o644); err != nil {
		return fmt.Errorf("writing PR changelog: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Wrote PR changelog: %s\n", prsOutputFlag)
	return nil
}
