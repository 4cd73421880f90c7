package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/misty-step/landfall/internal/config"
)

var configInitForceFlag bool

var configCmd = &cobra.Command{
	Use:          "config",
	Short:        "Manage landfall configuration",
	SilenceUsage: true,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented project config template",
	Long: `Create .landfall/config.yml with a fully commented template of
every available option. Refuses to overwrite an existing config unless
--force is given.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigInit(cmd)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Print the effective configuration after merging defaults, user
config, project config, and LANDFALL_* environment variables.
Credentials are redacted.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigShow(cmd)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	configInitCmd.Flags().BoolVar(&configInitForceFlag, "force", false, "Overwrite an existing config file")
}

func runConfigInit(cmd *cobra.Command) error {
	path := config.ProjectConfigPath()
	if configPathFlag != "" {
		path = configPathFlag
	}

	if _, err := os.Stat(path); err == nil && !configInitForceFlag {
		return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(config.ConfigTemplate()), 0o644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote config template: %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return wrapConfigExit(err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "model: %s\n", cfg.Model)
	fmt.Fprintf(out, "fallback_models: %v\n", cfg.FallbackModels)
	fmt.Fprintf(out, "api_url: %s\n", cfg.APIURL)
	fmt.Fprintf(out, "api_key: %s\n", redact(cfg.APIKey))
	fmt.Fprintf(out, "audience: %s\n", cfg.Audience)
	fmt.Fprintf(out, "changelog_source: %s\n", cfg.ChangelogSource)
	fmt.Fprintf(out, "changelog_file: %s\n", cfg.ChangelogFile)
	fmt.Fprintf(out, "repository: %s\n", cfg.Repository)
	fmt.Fprintf(out, "github_token: %s\n", redact(cfg.GitHubToken))
	fmt.Fprintf(out, "timeout: %d\n", cfg.Timeout)
	fmt.Fprintf(out, "retries: %d\n", cfg.Retries)
	fmt.Fprintf(out, "retry_backoff: %g\n", cfg.RetryBackoff)
	fmt.Fprintf(out, "synthesis_required: %t\n", cfg.SynthesisRequired)
	fmt.Fprintf(out, "open_issue_on_failure: %t\n", cfg.OpenIssueOnFailure)
	fmt.Fprintf(out, "notes_file: %s\n", cfg.NotesFile)
	fmt.Fprintf(out, "json_feed_file: %s\n", cfg.JSONFeedFile)
	fmt.Fprintf(out, "rss_feed_file: %s\n", cfg.RSSFeedFile)
	fmt.Fprintf(out, "update_release: %t\n", cfg.UpdateRelease)
	fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
	return nil
}

func redact(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	return "********"
}
