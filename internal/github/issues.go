package github

import (
	"context"
	"fmt"
)

// Issue is the subset of the issue resource the failure reporter uses.
type Issue struct {
	Number  int    `json:"number"`
	HTMLURL string `json:"html_url"`
}

// CreateIssue opens a tracking issue and returns its number and URL.
func (c *Client) CreateIssue(ctx context.Context, repository, title, body string, labels []string) (*Issue, error) {
	payload := map[string]any{
		"title": title,
		"body":  body,
	}
	if len(labels) > 0 {
		payload["labels"] = labels
	}

	var issue Issue
	path := fmt.Sprintf("/repos/%s/issues", repository)
	if err := c.do(ctx, "POST", path, payload, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}
