package release

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pipelineerrors "github.com/misty-step/landfall/internal/errors"
	"github.com/misty-step/landfall/internal/github"
	"github.com/misty-step/landfall/internal/retry"
)

func TestStripWhatsNew(t *testing.T) {
	tests := map[string]struct {
		body     string
		expected string
	}{
		"no section": {
			body:     "## Changelog\n\n- technical entry\n",
			expected: "## Changelog\n\n- technical entry",
		},
		"section at top": {
			body:     "## What's New\n\n- friendly notes\n\n## Changelog\n\n- technical entry\n",
			expected: "## Changelog\n\n- technical entry",
		},
		"section at end": {
			body:     "## Changelog\n\n- technical entry\n\n## What's New\n\n- friendly notes\n",
			expected: "## Changelog\n\n- technical entry",
		},
		"only section": {
			body:     "## What's New\n\n- friendly notes\n",
			expected: "",
		},
		"heading with suffix not matched": {
			body:     "## What's Newish\n\n- unrelated\n",
			expected: "## What's Newish\n\n- unrelated",
		},
		"subheading does not end the section": {
			body:     "## What's New\n\n- friendly notes\n\n### Details\n\n- more notes\n\n## Changelog\n\n- technical entry\n",
			expected: "## Changelog\n\n- technical entry",
		},
		"section between two sections": {
			body:     "## Summary\n\nintro\n\n## What's New\n\n- friendly notes\n\n## Changelog\n\n- technical entry\n",
			expected: "## Summary\n\nintro\n\n## Changelog\n\n- technical entry",
		},
		"bare heading without trailing newline": {
			body:     "## Changelog\n\n- technical entry\n\n## What's New",
			expected: "## Changelog\n\n- technical entry",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, StripWhatsNew(tc.body))
		})
	}
}

func TestComposeBody(t *testing.T) {
	tests := map[string]struct {
		notes    string
		existing string
		expected string
	}{
		"prepends to technical body": {
			notes:    "- You can now fly.",
			existing: "## Changelog\n\n- add flight\n",
			expected: "## What's New\n\n- You can now fly.\n\n## Changelog\n\n- add flight\n",
		},
		"empty existing body": {
			notes:    "- Notes.",
			existing: "",
			expected: "## What's New\n\n- Notes.\n",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, ComposeBody(tc.notes, tc.existing))
		})
	}
}

func TestComposeBody_Idempotent(t *testing.T) {
	t.Parallel()

	existing := "## Changelog\n\n- add flight\n"
	once := ComposeBody("- You can now fly.", existing)
	twice := ComposeBody("- You can now fly.", once)
	assert.Equal(t, once, twice, "republishing never stacks What's New sections")
}

func newPublisher(serverURL string) *Publisher {
	gh := github.NewClient(serverURL, "token")
	gh.Policy = retry.Policy{MaxAttempts: 1, Sleep: func(time.Duration) {}}
	return &Publisher{GitHub: gh, Repository: "misty-step/landfall"}
}

func TestPublisher_Publish(t *testing.T) {
	t.Parallel()

	var patched string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			json.NewEncoder(w).Encode(github.Release{
				ID:      7,
				TagName: "v1.2.3",
				Body:    "## Changelog\n\n- technical\n",
				HTMLURL: "https://github.com/misty-step/landfall/releases/tag/v1.2.3",
			})
		case r.Method == http.MethodPatch:
			var payload map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			patched = payload["body"]
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))
	defer server.Close()

	url, err := newPublisher(server.URL).Publish(context.Background(), "v1.2.3", "- You can now fly.")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/misty-step/landfall/releases/tag/v1.2.3", url)
	assert.Equal(t, "## What's New\n\n- You can now fly.\n\n## Changelog\n\n- technical\n", patched)
}

func TestPublisher_Publish_EmptyNotes(t *testing.T) {
	t.Parallel()

	_, err := newPublisher("http://localhost:1").Publish(context.Background(), "v1.0.0", "   ")
	pe := pipelineerrors.AsPipelineError(err)
	require.NotNil(t, pe)
	assert.Equal(t, pipelineerrors.Publish, pe.Category)
	assert.Contains(t, pe.Message, "empty")
}

func TestPublisher_Publish_ReleaseMissing(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newPublisher(server.URL).Publish(context.Background(), "v9.9.9", "- Notes.")
	pe := pipelineerrors.AsPipelineError(err)
	require.NotNil(t, pe)
	assert.Equal(t, pipelineerrors.Publish, pe.Category)
	assert.Contains(t, pe.Message, "no release found for tag v9.9.9")
	assert.NotEmpty(t, pe.Remediation)
}

func TestPublisher_Publish_PatchRejected(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			json.NewEncoder(w).Encode(github.Release{ID: 7})
			return
		}
		http.Error(w, `{"message":"Forbidden"}`, http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newPublisher(server.URL).Publish(context.Background(), "v1.0.0", "- Notes.")
	pe := pipelineerrors.AsPipelineError(err)
	require.NotNil(t, pe)
	assert.Equal(t, pipelineerrors.StageReleaseUpdate, pe.Stage)
	assert.Contains(t, pe.Message, "updating release body")
}
