package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/misty-step/landfall/internal/artifact"
	"github.com/misty-step/landfall/internal/changelog"
	"github.com/misty-step/landfall/internal/config"
	pipelineerrors "github.com/misty-step/landfall/internal/errors"
	"github.com/misty-step/landfall/internal/github"
	"github.com/misty-step/landfall/internal/llm"
	"github.com/misty-step/landfall/internal/log"
	"github.com/misty-step/landfall/internal/pipeline"
	"github.com/misty-step/landfall/internal/progress"
	"github.com/misty-step/landfall/internal/release"
	"github.com/misty-step/landfall/internal/report"
	"github.com/misty-step/landfall/internal/retry"
)

var (
	synthTagFlag        string
	synthSourceFlag     string
	synthAudienceFlag   string
	synthOutputFileFlag string
	synthDryRunFlag     bool
)

var synthesizeCmd = &cobra.Command{
	Use:   "synthesize",
	Short: "Run the full release-note synthesis pipeline",
	Long: `Run the full pipeline for a release tag: resolve the changelog
source, synthesize user-facing notes through the model fallback chain,
validate the output, write artifacts, and update the release body.

A synthesis failure is reported (tracking issue plus structured log) and
absorbed unless synthesis_required is set, so a broken provider never
blocks the release itself.

Examples:
  landfall synthesize --tag v1.2.3
  landfall synthesize --tag v1.2.3 --source prs --audience developer
  landfall synthesize --tag v1.2.3 --dry-run`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSynthesize()
	},
}

func init() {
	rootCmd.AddCommand(synthesizeCmd)

	synthesizeCmd.Flags().StringVar(&synthTagFlag, "tag", "", "Release tag to synthesize notes for (required)")
	synthesizeCmd.Flags().StringVar(&synthSourceFlag, "source", "", "Changelog source: auto, changelog, release-body, prs")
	synthesizeCmd.Flags().StringVar(&synthAudienceFlag, "audience", "", "Audience: general, developer, end-user, enterprise")
	synthesizeCmd.Flags().StringVar(&synthOutputFileFlag, "github-output", "", "GitHub Actions outputs file (default $GITHUB_OUTPUT)")
	synthesizeCmd.Flags().BoolVar(&synthDryRunFlag, "dry-run", false, "Synthesize and write artifacts without updating the release")
	_ = synthesizeCmd.MarkFlagRequired("tag")
}

func runSynthesize() error {
	cfg, err := loadConfig()
	if err != nil {
		return wrapConfigExit(err)
	}
	if synthSourceFlag != "" {
		cfg.ChangelogSource = synthSourceFlag
	}
	if synthAudienceFlag != "" {
		cfg.Audience = synthAudienceFlag
	}
	if synthDryRunFlag {
		cfg.UpdateRelease = false
		cfg.OpenIssueOnFailure = false
	}

	if err := config.RequireAPIKey(cfg); err != nil {
		return wrapConfigExit(err)
	}
	if cfg.UpdateRelease || cfg.OpenIssueOnFailure {
		if err := config.RequireGitHub(cfg); err != nil {
			return wrapConfigExit(err)
		}
	}

	logger := newLogger(cfg)
	defer logger.Sync()

	if warning, err := llm.ValidateAPIURL(cfg.APIURL); err != nil {
		return wrapConfigExit(pipelineerrors.NewConfigurationError(err.Error()))
	} else if warning != "" {
		logger.Warn(warning, log.String("api_url", cfg.APIURL))
	}

	display := progress.NewStageDisplay()
	p := buildPipeline(cfg, logger)

	display.Start("Synthesizing release notes for " + synthTagFlag)
	outputs, runErr := p.Run(cmdContext(), synthTagFlag)
	if runErr != nil {
		display.Fail()
	} else if outputs.SynthesisSucceeded {
		display.Complete()
	} else {
		display.Fail()
	}

	if err := writeGitHubOutputs(outputs); err != nil {
		logger.Error("github_output_write_failed", log.Err("error", err))
	}

	if runErr != nil {
		if pe := pipelineerrors.AsPipelineError(unwrapEscalation(runErr)); pe != nil {
			return pe
		}
		return NewExitError(ExitSynthesisFailed)
	}

	if outputs.SynthesisSucceeded {
		fmt.Fprintf(os.Stdout, "Synthesized release notes for %s (model: %s, quality: %s)\n",
			outputs.ReleaseTag, outputs.ModelUsed, outputs.Quality)
		if outputs.Released {
			fmt.Fprintf(os.Stdout, "Updated release: %s\n", outputs.ReleaseURL)
		}
	} else {
		fmt.Fprintf(os.Stdout, "Synthesis failed for %s; failure reported, release unaffected\n", outputs.ReleaseTag)
		if outputs.IssueURL != "" {
			fmt.Fprintf(os.Stdout, "Tracking issue: %s\n", outputs.IssueURL)
		}
	}
	return nil
}

// buildPipeline wires the pipeline stages from configuration.
func buildPipeline(cfg *config.Config, logger *log.Logger) *pipeline.Pipeline {
	mode, err := changelog.NormalizeSource(cfg.ChangelogSource)
	if err != nil {
		mode = changelog.SourceAuto
	}

	client := llm.NewClient(cfg.APIURL, cfg.APIKey, cfg.RequestTimeout())
	synth := &llm.FallbackClient{
		Client:     client,
		Candidates: cfg.Models(),
		Policy: retry.Policy{
			MaxAttempts: cfg.Retries + 1,
			Backoff:     cfg.BackoffDuration(),
		},
		Logger: logger,
	}

	gh := github.NewClient(cfg.GitHubAPIURL, cfg.GitHubToken)
	gh.Logger = logger

	var publisher pipeline.Publisher
	if cfg.UpdateRelease {
		publisher = &release.Publisher{GitHub: gh, Repository: cfg.Repository, Logger: logger}
	}

	return &pipeline.Pipeline{
		Config: cfg,
		Resolver: changelog.Resolver{
			Mode:            mode,
			Version:         changelog.NormalizeVersion(synthTagFlag),
			ChangelogPath:   cfg.ChangelogFile,
			ReleaseBodyPath: cfg.ReleaseBodyFile,
			PRChangelogPath: cfg.PRChangelogFile,
			Logger:          logger,
		},
		Synth:     synth,
		Writer:    artifactWriter(cfg, logger),
		Publisher: publisher,
		Reporter: &report.Reporter{
			GitHub:       gh,
			Repository:   cfg.Repository,
			WorkflowName: cfg.WorkflowName,
			RunURL:       cfg.WorkflowRunURL,
			Strict:       cfg.SynthesisRequired,
			OpenIssue:    cfg.OpenIssueOnFailure,
			Logger:       logger,
		},
		Logger: logger,
	}
}

// artifactWriter builds the artifact writer from the configured targets.
func artifactWriter(cfg *config.Config, logger *log.Logger) *artifact.Writer {
	var targets []artifact.Target
	add := func(path string, format artifact.Format) {
		if path != "" {
			targets = append(targets, artifact.Target{PathTemplate: path, Format: format})
		}
	}
	add(cfg.NotesFile, artifact.FormatMarkdown)
	add(cfg.PlaintextFile, artifact.FormatPlaintext)
	add(cfg.HTMLFile, artifact.FormatHTML)
	add(cfg.JSONFeedFile, artifact.FormatJSONFeed)

	return &artifact.Writer{
		Targets: targets,
		Date:    time.Now().UTC().Format("2006-01-02"),
		Logger:  logger,
	}
}

// writeGitHubOutputs appends the run summary to the GitHub outputs file
// when one is configured. Local runs without one are fine.
func writeGitHubOutputs(outputs *pipeline.Outputs) error {
	path := synthOutputFileFlag
	if path == "" {
		path = os.Getenv("GITHUB_OUTPUT")
	}
	if path == "" || outputs == nil {
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening outputs file: %w", err)
	}
	defer f.Close()
	return outputs.WriteGitHubOutput(f)
}

func unwrapEscalation(err error) error {
	if esc, ok := err.(*pipeline.EscalationError); ok {
		return esc.Err
	}
	return err
}

func wrapConfigExit(err error) error {
	if pe := pipelineerrors.AsPipelineError(err); pe != nil {
		return pe
	}
	return err
}
