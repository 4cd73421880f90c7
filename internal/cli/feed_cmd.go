package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	pipelineerrors "github.com/misty-step/landfall/internal/errors"
	"github.com/misty-step/landfall/internal/feed"
	"github.com/misty-step/landfall/internal/notes"
)

var (
	feedTagFlag         string
	feedReleaseURLFlag  string
	feedNotesFileFlag   string
	feedPublishedAtFlag string
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Update the RSS feed with a release's notes",
	Long: `Merge one release into the configured RSS 2.0 feed file. The
release is matched by URL, so re-running for the same tag replaces its
entry instead of duplicating it.

Examples:
  landfall feed --tag v1.2.3 --release-url https://github.com/owner/repo/releases/tag/v1.2.3 --notes-file notes.md`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFeed()
	},
}

func init() {
	rootCmd.AddCommand(feedCmd)

	feedCmd.Flags().StringVar(&feedTagFlag, "tag", "", "Release tag for the item title (required)")
	feedCmd.Flags().StringVar(&feedReleaseURLFlag, "release-url", "", "Release URL for the item link/guid (required)")
	feedCmd.Flags().StringVar(&feedNotesFileFlag, "notes-file", "", "Path to synthesized notes markdown (required)")
	feedCmd.Flags().StringVar(&feedPublishedAtFlag, "published-at", "", "Optional RFC3339 pubDate override (defaults to now UTC)")
	_ = feedCmd.MarkFlagRequired("tag")
	_ = feedCmd.MarkFlagRequired("release-url")
	_ = feedCmd.MarkFlagRequired("notes-file")
}

func runFeed() error {
	cfg, err := loadConfig()
	if err != nil {
		return wrapConfigExit(err)
	}
	if cfg.RSSFeedFile == "" {
		return pipelineerrors.NewConfigurationError(
			"no RSS feed file configured",
			"Set rss_feed_file in .landfall/config.yml or LANDFALL_RSS_FEED_FILE",
		)
	}
	if cfg.Repository == "" {
		return pipelineerrors.NewConfigurationError(
			"no repository configured",
			"Set repository to the owner/repo slug",
		)
	}
	logger := newLogger(cfg)
	defer logger.Sync()

	markdown, err := readNotesFile(feedNotesFileFlag)
	if err != nil {
		return err
	}

	publishedAt := time.Now().UTC()
	if feedPublishedAtFlag != "" {
		parsed, err := time.Parse(time.RFC3339, feedPublishedAtFlag)
		if err != nil {
			return pipelineerrors.NewConfigurationError(
				fmt.Sprintf("invalid published-at %q: %v", feedPublishedAtFlag, err),
				"Use an RFC3339 timestamp like 2026-01-02T15:04:05Z",
			)
		}
		publishedAt = parsed.UTC()
	}

	err = feed.Update(
		cfg.RSSFeedFile,
		cfg.Repository,
		feedTagFlag,
		feedReleaseURLFlag,
		notes.ToHTMLFragment(markdown),
		publishedAt,
		cfg.RSSMaxEntries,
	)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Updated RSS feed: %s\n", cfg.RSSFeedFile)
	return nil
}
