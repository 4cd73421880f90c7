package errors

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatErrorPlain(t *testing.T) {
	tests := map[string]struct {
		err      *PipelineError
		contains []string
		excludes []string
	}{
		"nil error": {
			err: nil,
		},
		"configuration error hides stage line": {
			err:      NewConfigurationError("no provider API key configured", "Set the LANDFALL_API_KEY environment variable"),
			contains: []string{"Error [Configuration Error]: no provider API key configured", "To fix this:", "  • Set the LANDFALL_API_KEY environment variable"},
			excludes: []string{"Stage:"},
		},
		"staged error without remediation": {
			err:      NewValidationError("unexpected headings: ## Random"),
			contains: []string{"Error [Validation Error]:", "Stage: llm-call"},
			excludes: []string{"To fix this:"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got := FormatErrorPlain(tc.err)
			if tc.err == nil {
				assert.Empty(t, got)
				return
			}
			for _, want := range tc.contains {
				assert.Contains(t, got, want)
			}
			for _, unwanted := range tc.excludes {
				assert.NotContains(t, got, unwanted)
			}
		})
	}
}

func TestFprintError(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	FprintError(&b, nil)
	assert.Empty(t, b.String())

	FprintError(&b, NewPublishError("no release found", "Create the release first"))
	assert.Contains(t, b.String(), "no release found")
	assert.Contains(t, b.String(), "Create the release first")
}
