package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pipelineerrors "github.com/misty-step/landfall/internal/errors"
	"github.com/misty-step/landfall/internal/github"
	"github.com/misty-step/landfall/internal/retry"
)

func newReporter(serverURL string, strict, openIssue bool) *Reporter {
	gh := github.NewClient(serverURL, "token")
	gh.Policy = retry.Policy{MaxAttempts: 1, Sleep: func(time.Duration) {}}
	return &Reporter{
		GitHub:       gh,
		Repository:   "misty-step/landfall",
		WorkflowName: "release-notes",
		RunURL:       "https://github.com/misty-step/landfall/actions/runs/1",
		Strict:       strict,
		OpenIssue:    openIssue,
	}
}

func issueServer(t *testing.T, created *atomic.Int32, body *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		created.Add(1)
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		if body != nil {
			*body, _ = payload["body"].(string)
		}
		json.NewEncoder(w).Encode(github.Issue{Number: 5, HTMLURL: "https://x/issues/5"})
	}))
}

func TestReporter_Report_EscalationMatrix(t *testing.T) {
	tests := map[string]struct {
		strict   bool
		category pipelineerrors.Category
		escalate bool
	}{
		"lenient provider failure absorbs":  {strict: false, category: pipelineerrors.FatalProvider, escalate: false},
		"strict provider failure escalates": {strict: true, category: pipelineerrors.FatalProvider, escalate: true},
		"configuration always escalates":    {strict: false, category: pipelineerrors.Configuration, escalate: true},
		"strict validation escalates":       {strict: true, category: pipelineerrors.Validation, escalate: true},
		"lenient publish absorbs":           {strict: false, category: pipelineerrors.Publish, escalate: false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			var created atomic.Int32
			server := issueServer(t, &created, nil)
			defer server.Close()

			reporter := newReporter(server.URL, tc.strict, true)
			escalate, _ := reporter.Report(context.Background(), Failure{
				Stage:      pipelineerrors.StageLLMCall,
				Message:    "all models failed",
				ReleaseTag: "v1.0.0",
				Category:   tc.category,
			})
			assert.Equal(t, tc.escalate, escalate)
		})
	}
}

func TestReporter_Report_CreatesIssue(t *testing.T) {
	t.Parallel()

	var created atomic.Int32
	var body string
	server := issueServer(t, &created, &body)
	defer server.Close()

	reporter := newReporter(server.URL, false, true)
	escalate, issueURL := reporter.Report(context.Background(), Failure{
		Stage:      pipelineerrors.StageLLMCall,
		Message:    "all models failed",
		ReleaseTag: "v1.2.3",
		Category:   pipelineerrors.FatalProvider,
		Diagnosis:  "authentication_failed",
	})

	assert.False(t, escalate)
	assert.Equal(t, "https://x/issues/5", issueURL)
	assert.Equal(t, int32(1), created.Load())
	assert.Contains(t, body, "Release tag: `v1.2.3`")
	assert.Contains(t, body, "Failure stage: Synthesis request")
	assert.Contains(t, body, "Diagnosis: `authentication_failed`")
	assert.Contains(t, body, "Workflow: `release-notes`")
	assert.Contains(t, body, "all models failed")
}

func TestReporter_Report_ConfigurationSkipsIssue(t *testing.T) {
	t.Parallel()

	var created atomic.Int32
	server := issueServer(t, &created, nil)
	defer server.Close()

	reporter := newReporter(server.URL, false, true)
	escalate, issueURL := reporter.Report(context.Background(), Failure{
		Stage:      pipelineerrors.StageConfiguration,
		Message:    "missing API key",
		ReleaseTag: "v1.0.0",
		Category:   pipelineerrors.Configuration,
	})

	assert.True(t, escalate)
	assert.Empty(t, issueURL)
	assert.Equal(t, int32(0), created.Load(), "configuration failures never open issues")
}

func TestReporter_Report_OpenIssueDisabled(t *testing.T) {
	t.Parallel()

	var created atomic.Int32
	server := issueServer(t, &created, nil)
	defer server.Close()

	reporter := newReporter(server.URL, true, false)
	escalate, issueURL := reporter.Report(context.Background(), Failure{
		Stage:    pipelineerrors.StageLLMCall,
		Category: pipelineerrors.FatalProvider,
	})

	assert.True(t, escalate, "escalation applies even without an issue")
	assert.Empty(t, issueURL)
	assert.Equal(t, int32(0), created.Load())
}

func TestReporter_Report_IssueCreateFailureDegrades(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Forbidden"}`, http.StatusForbidden)
	}))
	defer server.Close()

	reporter := newReporter(server.URL, false, true)
	escalate, issueURL := reporter.Report(context.Background(), Failure{
		Stage:    pipelineerrors.StageLLMCall,
		Category: pipelineerrors.FatalProvider,
	})

	assert.False(t, escalate, "issue-create failure never becomes a second hard failure")
	assert.Empty(t, issueURL)
}

func TestDescribeStage(t *testing.T) {
	tests := map[string]struct {
		stage    string
		expected string
	}{
		"known stage":   {pipelineerrors.StageArtifacts, "Artifact writing"},
		"unknown stage": {"mystery", "Synthesis pipeline"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, DescribeStage(tc.stage))
		})
	}
}

func TestIssueTitle(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "[Landfall] Synthesis failed for v1.2.3", IssueTitle("v1.2.3"))
}
