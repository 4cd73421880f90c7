package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/misty-step/landfall/internal/config"
	pipelineerrors "github.com/misty-step/landfall/internal/errors"
	"github.com/misty-step/landfall/internal/github"
	"github.com/misty-step/landfall/internal/report"
)

var (
	reportTagFlag     string
	reportStageFlag   string
	reportMessageFlag string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Open a tracking issue for a synthesis failure",
	Long: `Record a synthesis failure as a GitHub issue in the consuming
repository. Exits non-zero when the failure should fail the workflow
(synthesis_required, or a configuration failure).

Examples:
  landfall report --tag v1.2.3 --stage llm-call --message "all models failed"`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport()
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportTagFlag, "tag", "", "Release tag the failure belongs to (required)")
	reportCmd.Flags().StringVar(&reportStageFlag, "stage", pipelineerrors.StageLLMCall, "Failure stage identifier")
	reportCmd.Flags().StringVar(&reportMessageFlag, "message", "", "Human-readable failure summary (required)")
	_ = reportCmd.MarkFlagRequired("tag")
	_ = reportCmd.MarkFlagRequired("message")
}

func runReport() error {
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
	reporter := &report.Reporter{
		GitHub:       gh,
		Repository:   cfg.Repository,
		WorkflowName: cfg.WorkflowName,
		RunURL:       cfg.WorkflowRunURL,
		Strict:       cfg.SynthesisRequired,
		OpenIssue:    cfg.OpenIssueOnFailure,
		Logger:       logger,
	}

	category := pipelineerrors.FatalProvider
	if reportStageFlag == pipelineerrors.StageConfiguration {
		category = pipelineerrors.Configuration
	}

	escalate, issueURL := reporter.Report(cmdContext(), report.Failure{
		Stage:      reportStageFlag,
		Message:    reportMessageFlag,
		ReleaseTag: reportTagFlag,
		Category:   category,
	})
	if issueURL != "" {
		fmt.Fprintln(os.Stdout, issueURL)
	}
	if escalate {
		return NewExitError(ExitSynthesisFailed)
	}
	return nil
}
