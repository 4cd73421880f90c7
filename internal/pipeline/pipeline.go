// Package pipeline orchestrates a full synthesis run: resolve the
// changelog slice, assemble the prompt, walk the model fallback chain,
// write artifacts, and update the release. Each stage owns its own
// failure category; the pipeline converts terminal failures into
// reporter calls and an escalation decision.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/misty-step/landfall/internal/artifact"
	"github.com/misty-step/landfall/internal/changelog"
	"github.com/misty-step/landfall/internal/config"
	pipelineerrors "github.com/misty-step/landfall/internal/errors"
	"github.com/misty-step/landfall/internal/feed"
	"github.com/misty-step/landfall/internal/llm"
	"github.com/misty-step/landfall/internal/log"
	"github.com/misty-step/landfall/internal/notes"
	"github.com/misty-step/landfall/internal/prompt"
	"github.com/misty-step/landfall/internal/report"
)

// Synthesizer walks the model fallback chain for one prompt.
type Synthesizer interface {
	Synthesize(ctx context.Context, systemPrompt, userPrompt string, validate llm.ValidateFunc) llm.Result
}

// Publisher updates the release body for a tag and returns its URL.
type Publisher interface {
	Publish(ctx context.Context, tag, synthNotes string) (string, error)
}

// Reporter records a terminal failure and decides escalation.
type Reporter interface {
	Report(ctx context.Context, failure report.Failure) (escalate bool, issueURL string)
}

// Outputs is the run summary surfaced to the caller and, in CI, to the
// GitHub outputs file.
type Outputs struct {
	ReleaseTag         string
	SynthesisSucceeded bool
	Released           bool
	ReleaseURL         string
	Notes              string
	ModelUsed          string
	Quality            string
	IssueURL           string
}

// Pipeline wires the stages for one synthesis run.
type Pipeline struct {
	Config    *config.Config
	Resolver  changelog.Resolver
	Synth     Synthesizer
	Writer    *artifact.Writer
	Publisher Publisher
	Reporter  Reporter
	Logger    *log.Logger
	// Now stamps feed entries; nil means time.Now.
	Now func() time.Time
}

// EscalationError marks a reported failure the caller must surface as a
// non-zero exit.
type EscalationError struct {
	Err error
}

func (e *EscalationError) Error() string { return e.Err.Error() }
func (e *EscalationError) Unwrap() error { return e.Err }

// Run executes the pipeline for one release tag. A nil error with
// SynthesisSucceeded=false means the failure was reported and absorbed;
// an *EscalationError means the caller must fail the run.
func (p *Pipeline) Run(ctx context.Context, releaseTag string) (*Outputs, error) {
	logger := p.Logger
	if logger == nil {
		logger = log.Nop()
	}
	outputs := &Outputs{ReleaseTag: releaseTag, Quality: llm.QualityFailed}

	version := changelog.NormalizeVersion(releaseTag)

	slice, err := p.Resolver.Resolve()
	if err != nil {
		return p.fail(ctx, outputs, report.Failure{
			Stage:      pipelineerrors.StageChangelogSrc,
			Message:    err.Error(),
			ReleaseTag: releaseTag,
			Category:   pipelineerrors.Configuration,
		}, err)
	}

	userPrompt, bulletTarget, err := p.assemblePrompt(slice, version)
	if err != nil {
		return p.fail(ctx, outputs, report.Failure{
			Stage:      pipelineerrors.StagePromptTemplate,
			Message:    err.Error(),
			ReleaseTag: releaseTag,
			Category:   pipelineerrors.Configuration,
		}, err)
	}

	validate := func(output string) []string {
		return notes.Validate(output, bulletTarget).Issues
	}
	result := p.Synth.Synthesize(ctx, prompt.SystemPrompt, userPrompt, validate)
	if result.Status != llm.StatusSuccess {
		synthErr := pipelineerrors.NewFatalError(pipelineerrors.StageLLMCall,
			"all model candidates failed to produce valid release notes")
		return p.fail(ctx, outputs, report.Failure{
			Stage:      pipelineerrors.StageLLMCall,
			Message:    synthErr.Message,
			ReleaseTag: releaseTag,
			Category:   pipelineerrors.FatalProvider,
			Diagnosis:  result.Diagnosis,
		}, synthErr)
	}

	outputs.SynthesisSucceeded = true
	outputs.Notes = result.Content
	outputs.ModelUsed = result.ModelUsed
	outputs.Quality = result.Quality

	var escalated error
	for _, failed := range p.distribute(ctx, outputs, version, releaseTag, result.Content) {
		escalate, issueURL := p.Reporter.Report(ctx, failed.failure)
		if issueURL != "" {
			outputs.IssueURL = issueURL
		}
		if escalate && escalated == nil {
			escalated = failed.err
		}
	}
	if escalated != nil {
		return outputs, &EscalationError{Err: escalated}
	}

	return outputs, nil
}

// assemblePrompt resolves and renders the user prompt for the run. It
// also returns the bullet target so the validator can enforce it.
func (p *Pipeline) assemblePrompt(slice changelog.Slice, version string) (string, string, error) {
	audience, err := prompt.NormalizeAudience(p.Config.Audience)
	if err != nil {
		return "", "", err
	}

	templateText, source, err := prompt.ResolveTemplate(p.Config.PromptTemplate, audience)
	if err != nil {
		return "", "", err
	}
	if err := prompt.ValidateTemplate(templateText); err != nil {
		return "", "", err
	}
	if p.Logger != nil {
		p.Logger.Event("prompt_template_resolved",
			log.String("stage", pipelineerrors.StagePromptTemplate),
			log.String("source", string(source)),
			log.String("audience", string(audience)),
		)
	}

	promptCtx := prompt.NewContext(slice, p.productName(), version, audience)
	promptCtx.ProductDescription = p.Config.ProductDescription
	promptCtx.VoiceGuide = p.Config.VoiceGuide
	return prompt.Render(templateText, promptCtx), promptCtx.BulletTarget, nil
}

func (p *Pipeline) productName() string {
	if p.Config.ProductName != "" {
		return p.Config.ProductName
	}
	if _, repo, ok := strings.Cut(p.Config.Repository, "/"); ok {
		return repo
	}
	return p.Config.Repository
}

// distributionFailure pairs one failed distribution step with its
// reporter payload.
type distributionFailure struct {
	failure report.Failure
	err     error
}

// distribute writes artifacts, publishes the release body, and updates
// the RSS feed. The steps are independent: a failed artifact target
// never suppresses the release update, and each failed step is returned
// individually so the reporter sees every outcome.
func (p *Pipeline) distribute(ctx context.Context, outputs *Outputs, version, releaseTag, markdown string) []distributionFailure {
	var failures []distributionFailure

	outcomes, _ := p.Writer.WriteAll(version, markdown)
	for _, outcome := range outcomes {
		if outcome.Err == nil {
			continue
		}
		failures = append(failures, distributionFailure{
			failure: report.Failure{
				Stage:      pipelineerrors.StageArtifacts,
				Message:    "writing " + outcome.Path + ": " + outcome.Err.Error(),
				ReleaseTag: releaseTag,
				Category:   pipelineerrors.Publish,
			},
			err: outcome.Err,
		})
	}

	if p.Config.UpdateRelease && p.Publisher != nil {
		url, err := p.Publisher.Publish(ctx, releaseTag, markdown)
		if err != nil {
			category, _ := pipelineerrors.CategoryOf(err)
			failures = append(failures, distributionFailure{
				failure: report.Failure{
					Stage:      pipelineerrors.StageOf(err, pipelineerrors.StageReleaseUpdate),
					Message:    err.Error(),
					ReleaseTag: releaseTag,
					Category:   category,
				},
				err: err,
			})
		} else {
			outputs.Released = true
			outputs.ReleaseURL = url
		}
	}

	if p.Config.RSSFeedFile != "" {
		now := time.Now
		if p.Now != nil {
			now = p.Now
		}
		releaseURL := outputs.ReleaseURL
		if releaseURL == "" {
			releaseURL = "https://github.com/" + p.Config.Repository + "/releases/tag/" + releaseTag
		}
		err := feed.Update(
			p.Config.RSSFeedFile,
			p.Config.Repository,
			releaseTag,
			releaseURL,
			notes.ToHTMLFragment(markdown),
			now(),
			p.Config.RSSMaxEntries,
		)
		if err != nil {
			feedErr := &pipelineerrors.PipelineError{
				Category: pipelineerrors.Publish,
				Stage:    pipelineerrors.StageArtifacts,
				Message:  "updating RSS feed: " + err.Error(),
			}
			failures = append(failures, distributionFailure{
				failure: report.Failure{
					Stage:      pipelineerrors.StageArtifacts,
					Message:    feedErr.Message,
					ReleaseTag: releaseTag,
					Category:   pipelineerrors.Publish,
				},
				err: feedErr,
			})
		}
	}

	return failures
}

// fail reports a terminal failure and translates the reporter's verdict
// into the pipeline's return contract.
func (p *Pipeline) fail(ctx context.Context, outputs *Outputs, failure report.Failure, err error) (*Outputs, error) {
	escalate, issueURL := p.Reporter.Report(ctx, failure)
	outputs.IssueURL = issueURL
	if escalate {
		return outputs, &EscalationError{Err: err}
	}
	return outputs, nil
}
