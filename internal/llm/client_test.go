package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionResponse(content string) string {
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

func TestClient_Complete_Success(t *testing.T) {
	t.Parallel()

	var gotReq chatRequest
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionResponse("  ## New Features\n\n- Thing.  ")))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret-key", 5*time.Second)
	content, err := client.Complete(context.Background(), "test-model", "system text", "user text")

	require.NoError(t, err)
	assert.Equal(t, "## New Features\n\n- Thing.", content, "content is trimmed")
	assert.Equal(t, "Bearer secret-key", gotAuth)
	assert.Equal(t, "test-model", gotReq.Model)
	assert.InDelta(t, 0.2, gotReq.Temperature, 0.0001)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
}

func TestClient_Complete_NonSuccessStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key", 5*time.Second)
	_, err := client.Complete(context.Background(), "m", "s", "u")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "quota exceeded")
}

func TestClient_Complete_ShapeErrors(t *testing.T) {
	tests := map[string]struct {
		body    string
		wantErr string
	}{
		"no choices": {
			body:    `{"choices":[]}`,
			wantErr: "choices[0].message.content",
		},
		"empty content": {
			body:    completionResponse("   "),
			wantErr: "empty synthesized notes",
		},
		"invalid json": {
			body:    "not json",
			wantErr: "decoding provider response",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := NewClient(server.URL, "key", 5*time.Second)
			_, err := client.Complete(context.Background(), "m", "s", "u")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestNewClient_DefaultsAPIURL(t *testing.T) {
	t.Parallel()

	client := NewClient("", "key", time.Second)
	assert.Equal(t, DefaultAPIURL, client.APIURL)
	assert.Equal(t, time.Second, client.HTTPClient.Timeout)
}

func TestValidateAPIURL(t *testing.T) {
	tests := map[string]struct {
		url         string
		wantWarning string
		wantErr     bool
	}{
		"https ok":             {url: "https://openrouter.ai/api/v1/chat/completions"},
		"http localhost ok":    {url: "http://localhost:8080/v1"},
		"http loopback ok":     {url: "http://127.0.0.1:8080/v1"},
		"http remote warns":    {url: "http://example.com/v1", wantWarning: "insecure_api_url"},
		"missing scheme fails": {url: "openrouter.ai/api", wantErr: true},
		"ftp scheme fails":     {url: "ftp://example.com", wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			warning, err := ValidateAPIURL(tc.url)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantWarning, warning)
		})
	}
}
