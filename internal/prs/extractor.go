// Package prs extracts merged pull requests for a release window and
// renders them as pseudo-changelog markdown. The window runs from the
// previous tag's commit time (exclusive) to the release tag's commit
// time (inclusive); tag times come from the local repository via go-git
// and the pull requests come from the GitHub API.
package prs

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/misty-step/landfall/internal/github"
	"github.com/misty-step/landfall/internal/log"
)

// DefaultBodyChars bounds the PR body excerpt length.
const DefaultBodyChars = 500

var whitespaceRunRE = regexp.MustCompile(`\s+`)

// Extractor builds the pull-request changelog for one release tag.
type Extractor struct {
	GitHub     *github.Client
	Repository string
	// RepoPath locates the local git repository; empty means the
	// working directory.
	RepoPath   string
	BaseBranch string
	BodyChars  int
	Logger     *log.Logger
}

// Extract resolves the release window and returns the rendered
// pseudo-changelog markdown.
func (e *Extractor) Extract(ctx context.Context, releaseTag string) (string, error) {
	logger := e.Logger
	if logger == nil {
		logger = log.Nop()
	}
	baseBranch := e.BaseBranch
	if baseBranch == "" {
		baseBranch = "main"
	}

	repo, err := git.PlainOpenWithOptions(e.RepoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("opening repository: %w", err)
	}

	endAt, err := tagCommitTime(repo, releaseTag)
	if err != nil {
		return "", fmt.Errorf("resolving release tag %q: %w", releaseTag, err)
	}

	var startAt *time.Time
	previousTag, previousTime, err := previousTagBefore(repo, releaseTag, endAt)
	if err != nil {
		return "", err
	}
	if previousTag != "" {
		startAt = &previousTime
	}

	pulls, err := e.GitHub.ClosedPulls(ctx, e.Repository, baseBranch)
	if err != nil {
		return "", fmt.Errorf("fetching pull requests: %w", err)
	}
	merged := filterByWindow(pulls, startAt, endAt)

	logger.Event("pr_changelog_extracted",
		log.String("repository", e.Repository),
		log.String("release_tag", releaseTag),
		log.String("previous_tag", previousTag),
		log.Int("pull_request_count", len(merged)),
	)
	return RenderChangelog(merged, releaseTag, e.bodyChars()), nil
}

func (e *Extractor) bodyChars() int {
	if e.BodyChars > 0 {
		return e.BodyChars
	}
	return DefaultBodyChars
}

// tagCommitTime resolves a tag (annotated or lightweight) to the commit
// time of the commit it points at.
func tagCommitTime(repo *git.Repository, tag string) (time.Time, error) {
	ref, err := repo.Reference(plumbing.NewTagReferenceName(tag), true)
	if err != nil {
		return time.Time{}, fmt.Errorf("tag not found: %w", err)
	}
	return commitTimeForHash(repo, ref.Hash())
}

func commitTimeForHash(repo *git.Repository, hash plumbing.Hash) (time.Time, error) {
	if tagObj, err := repo.TagObject(hash); err == nil {
		commit, err := tagObj.Commit()
		if err != nil {
			return time.Time{}, fmt.Errorf("resolving annotated tag target: %w", err)
		}
		return commit.Committer.When.UTC(), nil
	}

	commit, err := repo.CommitObject(hash)
	if err != nil {
		return time.Time{}, fmt.Errorf("resolving tag commit: %w", err)
	}
	return commit.Committer.When.UTC(), nil
}

// previousTagBefore finds the tag whose commit time is latest among
// those strictly before the release tag's time. First releases have no
// previous tag; that is not an error.
func previousTagBefore(repo *git.Repository, releaseTag string, endAt time.Time) (string, time.Time, error) {
	tags, err := repo.Tags()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("listing tags: %w", err)
	}

	var bestTag string
	var bestTime time.Time
	err = tags.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		if name == releaseTag {
			return nil
		}
		when, err := commitTimeForHash(repo, ref.Hash())
		if err != nil {
			// Unresolvable tags (broken refs) are skipped, not fatal.
			return nil
		}
		if when.Before(endAt) && when.After(bestTime) {
			bestTag, bestTime = name, when
		}
		return nil
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("iterating tags: %w", err)
	}
	return bestTag, bestTime, nil
}

// filterByWindow keeps merged PRs inside (startAt, endAt], sorted by
// merge time ascending.
func filterByWindow(pulls []github.PullRequest, startAt *time.Time, endAt time.Time) []github.PullRequest {
	var filtered []github.PullRequest
	for _, pull := range pulls {
		if pull.MergedAt == nil {
			continue
		}
		mergedAt := pull.MergedAt.UTC()
		if startAt != nil && !mergedAt.After(*startAt) {
			continue
		}
		if mergedAt.After(endAt) {
			continue
		}
		filtered = append(filtered, pull)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].MergedAt.Before(*filtered[j].MergedAt)
	})
	return filtered
}

// RenderChangelog renders merged PRs as pseudo-changelog markdown. An
// empty window still produces a valid document so downstream stages
// have something to read.
func RenderChangelog(pulls []github.PullRequest, releaseTag string, bodyChars int) string {
	var b strings.Builder
	b.WriteString("## Pull Request Changelog (" + releaseTag + ")\n\n")

	if len(pulls) == 0 {
		b.WriteString("- No merged pull requests found for this release window.\n")
		return b.String()
	}

	for _, pull := range pulls {
		title := strings.TrimSpace(pull.Title)
		if title == "" {
			title = "(untitled)"
		}
		author := pull.User.Login
		if author == "" {
			author = "unknown"
		}

		b.WriteString(fmt.Sprintf("### #%d %s\n", pull.Number, title))
		b.WriteString("- Author: @" + author + "\n")
		if labels := labelNames(pull); len(labels) > 0 {
			b.WriteString("- Labels: " + strings.Join(labels, ", ") + "\n")
		}
		if excerpt := trimText(pull.Body, bodyChars); excerpt != "" {
			b.WriteString("- Summary: " + excerpt + "\n")
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String()) + "\n"
}

func labelNames(pull github.PullRequest) []string {
	var names []string
	for _, label := range pull.Labels {
		if label.Name != "" {
			names = append(names, label.Name)
		}
	}
	return names
}

// trimText collapses whitespace and truncates to limit characters with
// an ellipsis.
func trimText(text string, limit int) string {
	collapsed := strings.TrimSpace(whitespaceRunRE.ReplaceAllString(text, " "))
	if len(collapsed) <= limit {
		return collapsed
	}
	return collapsed[:limit] + "..."
}
