// Package report turns pipeline failures into GitHub issues and decides
// whether a failure should fail the surrounding workflow. Configuration
// failures never open an issue: they point at the consuming repository's
// setup, not at a release that silently shipped without notes.
package report

import (
	"context"
	"strings"

	pipelineerrors "github.com/misty-step/landfall/internal/errors"
	"github.com/misty-step/landfall/internal/github"
	"github.com/misty-step/landfall/internal/log"
)

// stageLabels maps failure-stage identifiers to issue-friendly labels.
var stageLabels = map[string]string{
	pipelineerrors.StageConfiguration:  "Configuration",
	pipelineerrors.StageChangelogSrc:   "Changelog source resolution",
	pipelineerrors.StagePromptTemplate: "Prompt template resolution",
	pipelineerrors.StageLLMCall:        "Synthesis request",
	pipelineerrors.StageArtifacts:      "Artifact writing",
	pipelineerrors.StageReleaseUpdate:  "Release body update",
}

// DescribeStage returns the human label for a failure stage.
func DescribeStage(stage string) string {
	if label, ok := stageLabels[stage]; ok {
		return label
	}
	return "Synthesis pipeline"
}

// Failure is one terminal pipeline failure to report.
type Failure struct {
	Stage      string
	Message    string
	ReleaseTag string
	Category   pipelineerrors.Category
	// Diagnosis is the aggregate failure token from the fallback chain,
	// empty for non-synthesis failures.
	Diagnosis string
}

// Reporter records failures as tracking issues.
type Reporter struct {
	GitHub     *github.Client
	Repository string
	// WorkflowName and RunURL locate the run that hit the failure.
	WorkflowName string
	RunURL       string
	// Strict makes every reported failure escalate (fail the workflow).
	Strict bool
	// OpenIssue disables issue creation when false; escalation still
	// applies.
	OpenIssue bool
	Logger    *log.Logger
}

// Report files the failure and returns whether the caller should
// escalate it, plus the created issue URL when one was opened. Issue
// creation failures degrade to a log event; the reporter never turns a
// synthesis failure into a second hard failure.
func (r *Reporter) Report(ctx context.Context, failure Failure) (escalate bool, issueURL string) {
	logger := r.Logger
	if logger == nil {
		logger = log.Nop()
	}

	escalate = r.Strict || failure.Category == pipelineerrors.Configuration

	logger.Error("synthesis_failure",
		log.String("stage", failure.Stage),
		log.String("release_tag", failure.ReleaseTag),
		log.String("category", failure.Category.String()),
		log.String("diagnosis", failure.Diagnosis),
		log.Bool("escalate", escalate),
	)

	if !r.OpenIssue || failure.Category == pipelineerrors.Configuration {
		return escalate, ""
	}

	issue, err := r.GitHub.CreateIssue(ctx, r.Repository,
		IssueTitle(failure.ReleaseTag),
		r.issueBody(failure),
		nil,
	)
	if err != nil {
		logger.Error("failure_issue_create_failed",
			log.String("repository", r.Repository),
			log.String("release_tag", failure.ReleaseTag),
			log.Err("error", err),
		)
		return escalate, ""
	}

	logger.Event("synthesis_failure_issue_created",
		log.String("repository", r.Repository),
		log.String("release_tag", failure.ReleaseTag),
		log.String("stage", failure.Stage),
		log.String("issue_url", issue.HTMLURL),
	)
	return escalate, issue.HTMLURL
}

// IssueTitle is the deterministic tracking-issue title for a tag.
func IssueTitle(releaseTag string) string {
	return "[Landfall] Synthesis failed for " + releaseTag
}

func (r *Reporter) issueBody(failure Failure) string {
	var b strings.Builder
	b.WriteString("Landfall could not complete release-note synthesis for a published release.\n\n")
	b.WriteString("- Repository: `" + r.Repository + "`\n")
	b.WriteString("- Release tag: `" + failure.ReleaseTag + "`\n")
	b.WriteString("- Failure stage: " + DescribeStage(failure.Stage) + "\n")
	if failure.Diagnosis != "" {
		b.WriteString("- Diagnosis: `" + failure.Diagnosis + "`\n")
	}
	if r.WorkflowName != "" {
		b.WriteString("- Workflow: `" + r.WorkflowName + "`\n")
	}
	if r.RunURL != "" {
		b.WriteString("- Workflow run: " + r.RunURL + "\n")
	}
	b.WriteString("\n### Failure details\n")
	b.WriteString(strings.TrimSpace(failure.Message) + "\n\n")
	b.WriteString("_Created automatically by Landfall._\n")
	return b.String()
}
