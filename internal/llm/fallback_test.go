package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/misty-step/landfall/internal/retry"
)

// fakeProvider scripts per-model responses for the fallback chain.
type fakeProvider struct {
	mu sync.Mutex
	// responses maps model name to a queue of canned handlers, consumed
	// one per request.
	responses map[string][]func(w http.ResponseWriter)
	requests  []chatRequest
}

func (p *fakeProvider) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		p.requests = append(p.requests, req)

		queue := p.responses[req.Model]
		if len(queue) == 0 {
			http.Error(w, "no scripted response for "+req.Model, http.StatusInternalServerError)
			return
		}
		next := queue[0]
		p.responses[req.Model] = queue[1:]
		next(w)
	}
}

func (p *fakeProvider) requestCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

func (p *fakeProvider) lastUserPrompt() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	req := p.requests[len(p.requests)-1]
	return req.Messages[len(req.Messages)-1].Content
}

func respondContent(content string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Write([]byte(completionResponse(content)))
	}
}

func respondStatus(code int) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		http.Error(w, http.StatusText(code), code)
	}
}

func newFallback(t *testing.T, provider *fakeProvider, candidates ...string) (*FallbackClient, func()) {
	t.Helper()
	server := httptest.NewServer(provider.handler())
	return &FallbackClient{
		Client:     NewClient(server.URL, "key", 5*time.Second),
		Candidates: candidates,
		Policy:     retry.Policy{MaxAttempts: 2, Sleep: func(time.Duration) {}},
	}, server.Close
}

const validNotes = "## New Features\n\n- You can now do the thing.\n"

func TestFallbackClient_FirstCandidateSucceeds(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{responses: map[string][]func(http.ResponseWriter){
		"primary": {respondContent(validNotes)},
	}}
	fc, closeFn := newFallback(t, provider, "primary", "secondary")
	defer closeFn()

	result := fc.Synthesize(context.Background(), "system", "user", nil)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, "primary", result.ModelUsed)
	assert.Equal(t, QualityValid, result.Quality)
	assert.Equal(t, strings.TrimSpace(validNotes), result.Content)
	assert.Equal(t, 1, provider.requestCount(), "secondary never called")
	require.Len(t, result.Attempts, 1)
	assert.Equal(t, OutcomeSuccess, result.Attempts[0].Outcome)
}

func TestFallbackClient_TransientRetriesSameCandidate(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{responses: map[string][]func(http.ResponseWriter){
		"primary": {respondStatus(http.StatusServiceUnavailable), respondContent(validNotes)},
	}}
	fc, closeFn := newFallback(t, provider, "primary")
	defer closeFn()

	result := fc.Synthesize(context.Background(), "system", "user", nil)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, "primary", result.ModelUsed)
	assert.Equal(t, 2, provider.requestCount())
	require.Len(t, result.Attempts, 2)
	assert.Equal(t, OutcomeTransientError, result.Attempts[0].Outcome)
	assert.Equal(t, 503, result.Attempts[0].StatusCode)
	assert.Equal(t, OutcomeSuccess, result.Attempts[1].Outcome)
}

func TestFallbackClient_FatalAdvancesWithoutRetry(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{responses: map[string][]func(http.ResponseWriter){
		"primary":   {respondStatus(http.StatusForbidden)},
		"secondary": {respondContent(validNotes)},
	}}
	fc, closeFn := newFallback(t, provider, "primary", "secondary")
	defer closeFn()

	result := fc.Synthesize(context.Background(), "system", "user", nil)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, "secondary", result.ModelUsed)
	assert.Equal(t, 2, provider.requestCount(), "403 burns no retry budget")
	assert.Equal(t, OutcomeFatalError, result.Attempts[0].Outcome)
	assert.Equal(t, 403, result.Attempts[0].StatusCode)
}

func TestFallbackClient_ValidationFeedbackRetryDegrades(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{responses: map[string][]func(http.ResponseWriter){
		"primary": {
			respondContent("hello! here are your notes"),
			respondContent(validNotes),
		},
	}}
	fc, closeFn := newFallback(t, provider, "primary")
	defer closeFn()

	validate := func(output string) []string {
		if !strings.HasPrefix(output, "## ") {
			return []string{"no section headings found"}
		}
		return nil
	}

	result := fc.Synthesize(context.Background(), "system", "user prompt", validate)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, QualityDegraded, result.Quality)
	assert.Equal(t, 2, provider.requestCount())
	assert.Contains(t, provider.lastUserPrompt(), "## Validation feedback")
	assert.Contains(t, provider.lastUserPrompt(), "- no section headings found")
}

func TestFallbackClient_ValidationRejectionAdvancesChain(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{responses: map[string][]func(http.ResponseWriter){
		"primary": {
			respondContent("still not notes"),
			respondContent("still not notes either"),
		},
		"secondary": {respondContent(validNotes)},
	}}
	fc, closeFn := newFallback(t, provider, "primary", "secondary")
	defer closeFn()

	validate := func(output string) []string {
		if !strings.HasPrefix(output, "## ") {
			return []string{"no section headings found"}
		}
		return nil
	}

	result := fc.Synthesize(context.Background(), "system", "user", validate)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, "secondary", result.ModelUsed)
	assert.Equal(t, QualityValid, result.Quality)
	assert.Equal(t, 3, provider.requestCount(), "one feedback retry then advance")
}

func TestFallbackClient_AllCandidatesFail(t *testing.T) {
	tests := map[string]struct {
		primary   func(http.ResponseWriter)
		secondary func(http.ResponseWriter)
		diagnosis string
	}{
		"uniform 401": {
			primary:   respondStatus(http.StatusUnauthorized),
			secondary: respondStatus(http.StatusUnauthorized),
			diagnosis: DiagnosisAuthentication,
		},
		"uniform 403": {
			primary:   respondStatus(http.StatusForbidden),
			secondary: respondStatus(http.StatusForbidden),
			diagnosis: DiagnosisAuthorization,
		},
		"mixed failures": {
			primary:   respondStatus(http.StatusUnauthorized),
			secondary: respondStatus(http.StatusBadRequest),
			diagnosis: DiagnosisAllFailed,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			provider := &fakeProvider{responses: map[string][]func(http.ResponseWriter){
				"primary":   {tc.primary},
				"secondary": {tc.secondary},
			}}
			fc, closeFn := newFallback(t, provider, "primary", "secondary")
			defer closeFn()

			result := fc.Synthesize(context.Background(), "system", "user", nil)

			assert.Equal(t, StatusFailed, result.Status)
			assert.Empty(t, result.Content)
			assert.Empty(t, result.ModelUsed)
			assert.Equal(t, QualityFailed, result.Quality)
			assert.Equal(t, tc.diagnosis, result.Diagnosis)
		})
	}
}

func TestFallbackClient_EmptyCandidateList(t *testing.T) {
	t.Parallel()

	fc := &FallbackClient{Client: NewClient("http://localhost:1", "key", time.Second)}
	result := fc.Synthesize(context.Background(), "system", "user", nil)

	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, DiagnosisAllFailed, result.Diagnosis)
}

func TestFallbackClient_TransientBudgetExhausted(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{responses: map[string][]func(http.ResponseWriter){
		"primary": {respondStatus(503), respondStatus(503)},
	}}
	fc, closeFn := newFallback(t, provider, "primary")
	defer closeFn()

	result := fc.Synthesize(context.Background(), "system", "user", nil)

	assert.Equal(t, StatusFailed, result.Status)
	assert.Equal(t, DiagnosisAllFailed, result.Diagnosis)
	assert.Equal(t, 2, provider.requestCount())
}
