package github

import (
	"context"
	"fmt"
	"net/url"
)

// Release is the subset of the release resource the pipeline uses.
type Release struct {
	ID      int64  `json:"id"`
	TagName string `json:"tag_name"`
	Body    string `json:"body"`
	HTMLURL string `json:"html_url"`
}

// ReleaseByTag fetches the release for a tag in owner/repo form.
func (c *Client) ReleaseByTag(ctx context.Context, repository, tag string) (*Release, error) {
	var release Release
	path := fmt.Sprintf("/repos/%s/releases/tags/%s", repository, url.PathEscape(tag))
	if err := c.do(ctx, "GET", path, nil, &release); err != nil {
		return nil, err
	}
	return &release, nil
}

// UpdateReleaseBody replaces the release body.
func (c *Client) UpdateReleaseBody(ctx context.Context, repository string, releaseID int64, body string) error {
	path := fmt.Sprintf("/repos/%s/releases/%d", repository, releaseID)
	payload := map[string]string{"body": body}
	return c.do(ctx, "PATCH", path, payload, nil)
}
