// Package github is a minimal REST client for the release, issue, and
// pull-request endpoints the pipeline touches. Transient API failures
// (429, 5xx, network errors) are retried with exponential backoff; every
// other error surfaces immediately.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/misty-step/landfall/internal/log"
	"github.com/misty-step/landfall/internal/retry"
)

// DefaultAPIURL is the public GitHub REST endpoint. GHES deployments
// override it via configuration.
const DefaultAPIURL = "https://api.github.com"

const apiVersion = "2022-11-28"

// StatusError is a non-2xx GitHub API response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("github responded with status %d", e.StatusCode)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}

// Client calls the GitHub REST API with a fixed token.
type Client struct {
	APIURL     string
	Token      string
	HTTPClient *http.Client
	Policy     retry.Policy
	Logger     *log.Logger
}

// NewClient builds a GitHub client with bounded timeouts and retries.
func NewClient(apiURL, token string) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{
		APIURL:     apiURL,
		Token:      token,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Policy:     retry.Policy{MaxAttempts: 3, Backoff: 2 * time.Second},
	}
}

// do issues one API request with retries and decodes the JSON response
// into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	logger := c.Logger
	if logger == nil {
		logger = log.Nop()
	}

	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		payload = data
	}

	var raw []byte
	err := c.Policy.Do(func(attempt int) (retry.Outcome, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.APIURL+path, bytes.NewReader(payload))
		if err != nil {
			return retry.Fatal, fmt.Errorf("building request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.Token)
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("X-GitHub-Api-Version", apiVersion)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			logger.Warn("github_request_failed",
				log.String("method", method),
				log.String("path", path),
				log.Int("attempt", attempt),
				log.Err("error", err),
			)
			return retry.Transient, fmt.Errorf("calling github: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.Transient, fmt.Errorf("reading github response: %w", err)
		}

		if resp.StatusCode == 429 || resp.StatusCode >= 500 {
			logger.Warn("github_retry_status",
				log.String("method", method),
				log.String("path", path),
				log.Int("attempt", attempt),
				log.Int("status_code", resp.StatusCode),
			)
			return retry.Transient, &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return retry.Fatal, &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
		}

		raw = data
		return retry.Done, nil
	})
	if err != nil {
		return err
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decoding github response: %w", err)
		}
	}
	return nil
}
