// Package errors provides structured error handling for the landfall CLI.
// It includes categorized errors with actionable remediation guidance and
// the failure-stage vocabulary shared by the pipeline and the reporter.
package errors

import "fmt"

// Category represents the type of failure that occurred.
type Category int

const (
	// Configuration errors are caused by invalid or missing configuration
	// (missing credential, unresolvable template path, empty changelog).
	// They fail fast before any network call and are never retried.
	Configuration Category = iota
	// TransientProvider errors are timeouts, 5xx responses, or HTTP 429
	// from the LLM provider. Retried against the same model candidate.
	TransientProvider
	// FatalProvider errors are 401/403 or anything else signaling the
	// credential or model is invalid. Never retried on the same candidate.
	FatalProvider
	// Validation errors mean the model produced malformed, empty, or
	// disallowed output. Treated as a candidate failure.
	Validation
	// Publish errors mean the release-body update was rejected upstream.
	// Reported independently; already-written artifacts stay valid.
	Publish
)

// String returns a human-readable name for the failure category.
func (c Category) String() string {
	switch c {
	case Configuration:
		return "Configuration Error"
	case TransientProvider:
		return "Transient Provider Error"
	case FatalProvider:
		return "Fatal Provider Error"
	case Validation:
		return "Validation Error"
	case Publish:
		return "Publish Error"
	default:
		return "Error"
	}
}

// Pipeline stage identifiers carried on errors and log events.
const (
	StageConfiguration  = "configuration"
	StageChangelogSrc   = "changelog-source"
	StagePromptTemplate = "prompt-template"
	StageLLMCall        = "llm-call"
	StageArtifacts      = "artifacts"
	StageReleaseUpdate  = "release-update"
)

// PipelineError is a structured error with category, stage, and remediation
// guidance.
type PipelineError struct {
	// Category is the failure taxonomy bucket.
	Category Category
	// Stage identifies the pipeline stage that failed (Stage* constants).
	Stage string
	// Message is a human-readable description of what went wrong.
	Message string
	// Remediation is a list of actionable steps to resolve the error.
	Remediation []string
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	return e.Message
}

// NewConfigurationError creates a configuration error. Configuration errors
// carry the configuration stage so the reporter can skip issue creation.
func NewConfigurationError(message string, remediation ...string) *PipelineError {
	return &PipelineError{
		Category:    Configuration,
		Stage:       StageConfiguration,
		Message:     message,
		Remediation: remediation,
	}
}

// NewTransientError creates a transient provider error for the given stage.
func NewTransientError(stage, message string) *PipelineError {
	return &PipelineError{Category: TransientProvider, Stage: stage, Message: message}
}

// NewFatalError creates a fatal provider error for the given stage.
func NewFatalError(stage, message string, remediation ...string) *PipelineError {
	return &PipelineError{
		Category:    FatalProvider,
		Stage:       stage,
		Message:     message,
		Remediation: remediation,
	}
}

// NewValidationError creates a validation error for rejected model output.
func NewValidationError(message string) *PipelineError {
	return &PipelineError{Category: Validation, Stage: StageLLMCall, Message: message}
}

// NewPublishError creates a publish error for a rejected release update.
func NewPublishError(message string, remediation ...string) *PipelineError {
	return &PipelineError{
		Category:    Publish,
		Stage:       StageReleaseUpdate,
		Message:     message,
		Remediation: remediation,
	}
}

// Wrap wraps an existing error with a PipelineError, preserving the original
// message.
func Wrap(err error, category Category, stage string, remediation ...string) *PipelineError {
	if err == nil {
		return nil
	}
	return &PipelineError{
		Category:    category,
		Stage:       stage,
		Message:     err.Error(),
		Remediation: remediation,
	}
}

// WrapWithMessage wraps an error with a custom message prefix.
func WrapWithMessage(err error, category Category, stage, message string, remediation ...string) *PipelineError {
	if err == nil {
		return nil
	}
	return &PipelineError{
		Category:    category,
		Stage:       stage,
		Message:     fmt.Sprintf("%s: %v", message, err),
		Remediation: remediation,
	}
}

// AsPipelineError attempts to convert an error to a PipelineError.
// Returns nil if the error is not a PipelineError.
func AsPipelineError(err error) *PipelineError {
	pe, ok := err.(*PipelineError)
	if ok {
		return pe
	}
	return nil
}

// CategoryOf returns the category of a PipelineError, or Configuration
// plus false when the error carries no category.
func CategoryOf(err error) (Category, bool) {
	if pe := AsPipelineError(err); pe != nil {
		return pe.Category, true
	}
	return Configuration, false
}

// StageOf returns the stage recorded on a PipelineError, or fallback when
// the error carries none.
func StageOf(err error, fallback string) string {
	if pe := AsPipelineError(err); pe != nil && pe.Stage != "" {
		return pe.Stage
	}
	return fallback
}
