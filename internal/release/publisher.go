// Package release updates GitHub releases with synthesized notes. The
// notes are prepended under a "## What's New" section; any previous
// What's New section is removed first, so republishing the same tag is
// idempotent and never stacks sections.
package release

import (
	"context"
	"regexp"
	"strings"

	pipelineerrors "github.com/misty-step/landfall/internal/errors"
	"github.com/misty-step/landfall/internal/github"
	"github.com/misty-step/landfall/internal/log"
)

var (
	whatsNewHeadingRE = regexp.MustCompile(`(?m)^## What's New\b`)
	sectionHeadingRE  = regexp.MustCompile(`(?m)^##\s`)
)

// StripWhatsNew removes the first What's New section from a release
// body, leaving the technical changelog intact. The section spans from
// its heading to the next "## " heading or the end of the body; deeper
// headings inside it do not end it.
func StripWhatsNew(body string) string {
	loc := whatsNewHeadingRE.FindStringIndex(body)
	if loc == nil {
		return strings.TrimSpace(body)
	}

	sectionEnd := len(body)
	if nl := strings.Index(body[loc[1]:], "\n"); nl >= 0 {
		lineEnd := loc[1] + nl + 1
		if next := sectionHeadingRE.FindStringIndex(body[lineEnd:]); next != nil {
			sectionEnd = lineEnd + next[0]
		}
	}
	return strings.TrimSpace(body[:loc[0]] + body[sectionEnd:])
}

// ComposeBody builds the updated release body: synthesized notes under
// What's New, then the preserved technical body.
func ComposeBody(synthNotes, existingBody string) string {
	sections := []string{"## What's New\n\n" + strings.TrimSpace(synthNotes)}
	if technical := StripWhatsNew(existingBody); technical != "" {
		sections = append(sections, technical)
	}
	return strings.Join(sections, "\n\n") + "\n"
}

// Publisher rewrites the release body for a tag.
type Publisher struct {
	GitHub     *github.Client
	Repository string
	Logger     *log.Logger
}

// Publish fetches the release for tag, composes the updated body, and
// patches it. Returns the release URL on success.
func (p *Publisher) Publish(ctx context.Context, tag, synthNotes string) (string, error) {
	logger := p.Logger
	if logger == nil {
		logger = log.Nop()
	}

	if strings.TrimSpace(synthNotes) == "" {
		return "", pipelineerrors.NewPublishError("synthesized notes are empty")
	}

	rel, err := p.GitHub.ReleaseByTag(ctx, p.Repository, tag)
	if err != nil {
		if github.IsNotFound(err) {
			return "", pipelineerrors.NewPublishError(
				"no release found for tag "+tag,
				"Create the GitHub release for the tag before running the pipeline",
			)
		}
		return "", pipelineerrors.WrapWithMessage(err, pipelineerrors.Publish, pipelineerrors.StageReleaseUpdate, "fetching release for tag "+tag)
	}

	body := ComposeBody(synthNotes, rel.Body)
	if err := p.GitHub.UpdateReleaseBody(ctx, p.Repository, rel.ID, body); err != nil {
		return "", pipelineerrors.WrapWithMessage(err, pipelineerrors.Publish, pipelineerrors.StageReleaseUpdate, "updating release body for tag "+tag)
	}

	logger.Event("release_updated",
		log.String("stage", pipelineerrors.StageReleaseUpdate),
		log.String("tag", tag),
		log.String("repository", p.Repository),
	)
	return rel.HTMLURL, nil
}
