package cli

import (
	"fmt"

	pipelineerrors "github.com/misty-step/landfall/internal/errors"
)

// Exit codes for the landfall CLI
// These codes support programmatic composition and CI/CD integration
const (
	// ExitSuccess indicates successful command execution
	ExitSuccess = 0

	// ExitSynthesisFailed indicates synthesis failed and was escalated
	ExitSynthesisFailed = 1

	// ExitConfiguration indicates invalid or missing configuration
	ExitConfiguration = 2

	// ExitInvalidArguments indicates invalid command arguments
	ExitInvalidArguments = 3

	// ExitPublishFailed indicates the release or artifact update failed
	ExitPublishFailed = 4
)

// ExitError carries an exit code through cobra's error return.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// NewExitError creates an ExitError for the given code.
func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

// ExitCodeOf extracts the exit code from an error, defaulting to 1.
// Categorized pipeline errors map to their documented codes.
func ExitCodeOf(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if exitErr, ok := err.(*ExitError); ok {
		return exitErr.Code
	}
	if pe := pipelineerrors.AsPipelineError(err); pe != nil {
		switch pe.Category {
		case pipelineerrors.Configuration:
			return ExitConfiguration
		case pipelineerrors.Publish:
			return ExitPublishFailed
		}
	}
	return 1
}
