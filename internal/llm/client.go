// Package llm executes release-note synthesis against an ordered chain of
// model candidates on an OpenAI-compatible chat-completions endpoint.
// Provider and model heterogeneity is handled by configuration data (the
// candidate list and endpoint URL), not by type hierarchy: one normalized
// request/response shape serves every candidate.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultAPIURL is the default OpenAI-compatible chat completions endpoint.
const DefaultAPIURL = "https://openrouter.ai/api/v1/chat/completions"

// Attribution headers sent with every provider request.
const (
	refererHeader = "https://github.com/misty-step/landfall"
	titleHeader   = "Landfall Release Pipeline"
)

// Message is one chat message in the completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Temperature float64   `json:"temperature"`
	Messages    []Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// StatusError is a non-2xx provider response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider responded with status %d", e.StatusCode)
}

// Client issues single chat-completion requests. It holds the credential
// explicitly; nothing reads the environment mid-pipeline.
type Client struct {
	APIURL     string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient builds a provider client with a bounded per-call timeout.
func NewClient(apiURL, apiKey string, timeout time.Duration) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{
		APIURL:     apiURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Complete sends one chat-completion request for the given model and
// returns the generated text at choices[0].message.content. Any other
// response shape is an error.
func (c *Client) Complete(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	payload := chatRequest{
		Model:       model,
		Temperature: 0.2,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HTTP-Referer", refererHeader)
	req.Header.Set("X-Title", titleHeader)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling provider: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading provider response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decoding provider response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("provider response did not include choices[0].message.content")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("provider returned empty synthesized notes")
	}
	return content, nil
}

// ValidateAPIURL checks the endpoint scheme before any request is built.
// Returns a warning string for insecure non-local http endpoints.
func ValidateAPIURL(apiURL string) (warning string, err error) {
	if !strings.HasPrefix(apiURL, "http://") && !strings.HasPrefix(apiURL, "https://") {
		return "", fmt.Errorf("api-url must start with http:// or https://")
	}
	parsed, err := url.Parse(apiURL)
	if err != nil {
		return "", fmt.Errorf("parsing api-url: %w", err)
	}
	host := parsed.Hostname()
	if parsed.Scheme == "http" && host != "" && host != "localhost" && host != "127.0.0.1" {
		return "insecure_api_url", nil
	}
	return "", nil
}
