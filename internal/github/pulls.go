package github

import (
	"context"
	"fmt"
	"time"
)

// PullRequest is the subset of the pull-request resource the changelog
// extractor uses. MergedAt is nil for closed-but-unmerged PRs.
type PullRequest struct {
	Number   int        `json:"number"`
	Title    string     `json:"title"`
	Body     string     `json:"body"`
	MergedAt *time.Time `json:"merged_at"`
	User     struct {
		Login string `json:"login"`
	} `json:"user"`
	Labels []struct {
		Name string `json:"name"`
	} `json:"labels"`
}

// ClosedPulls pages through every closed pull request against the base
// branch, most recently updated first.
func (c *Client) ClosedPulls(ctx context.Context, repository, baseBranch string) ([]PullRequest, error) {
	const perPage = 100

	var pulls []PullRequest
	for page := 1; ; page++ {
		path := fmt.Sprintf(
			"/repos/%s/pulls?state=closed&base=%s&sort=updated&direction=desc&per_page=%d&page=%d",
			repository, baseBranch, perPage, page,
		)
		var batch []PullRequest
		if err := c.do(ctx, "GET", path, nil, &batch); err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		pulls = append(pulls, batch...)
		if len(batch) < perPage {
			break
		}
	}
	return pulls, nil
}
