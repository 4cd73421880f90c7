package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	pipelineerrors "github.com/misty-step/landfall/internal/errors"
)

func TestExitCodeOf(t *testing.T) {
	tests := map[string]struct {
		err      error
		expected int
	}{
		"nil is success":        {err: nil, expected: ExitSuccess},
		"exit error code":       {err: NewExitError(ExitConfiguration), expected: ExitConfiguration},
		"publish exit code":     {err: NewExitError(ExitPublishFailed), expected: ExitPublishFailed},
		"plain error defaults":  {err: errors.New("boom"), expected: 1},
		"synthesis failed code": {err: NewExitError(ExitSynthesisFailed), expected: ExitSynthesisFailed},
		"configuration category": {
			err:      pipelineerrors.NewConfigurationError("no provider API key configured"),
			expected: ExitConfiguration,
		},
		"publish category": {
			err:      pipelineerrors.NewPublishError("no release found"),
			expected: ExitPublishFailed,
		},
		"validation category defaults": {
			err:      pipelineerrors.NewValidationError("unexpected headings"),
			expected: 1,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, ExitCodeOf(tc.err))
		})
	}
}

func TestExitError_Error(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "exit code 2", NewExitError(2).Error())
}
