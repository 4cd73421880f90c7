package llm

import "time"

// Status is the terminal state of a synthesis run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Quality grades a successful synthesis. Degraded means the accepted
// output only passed validation after the feedback retry.
const (
	QualityValid    = "valid"
	QualityDegraded = "degraded"
	QualityFailed   = "failed"
)

// Attempt outcome tokens recorded per model candidate attempt.
const (
	OutcomeSuccess         = "success"
	OutcomeTransientError  = "transient-error"
	OutcomeFatalError      = "fatal-error"
	OutcomeValidationError = "validation-error"
)

// Diagnosis tokens aggregated across candidates for the failure reporter.
const (
	DiagnosisAuthentication = "authentication_failed" // every candidate saw 401
	DiagnosisAuthorization  = "authorization_failed"  // every candidate saw 403
	DiagnosisAllFailed      = "all_models_failed"
)

// Attempt records one request against one candidate. Ephemeral: attempts
// exist for logging and diagnostics only and are never persisted.
type Attempt struct {
	Model       string
	ProviderURL string
	Index       int
	Outcome     string
	Latency     time.Duration
	StatusCode  int
}

// Result is the outcome of the full fallback chain.
//
// Invariants: Content is non-empty iff Status is StatusSuccess, and
// ModelUsed is non-empty iff Status is StatusSuccess.
type Result struct {
	Status       Status
	Content      string
	ModelUsed    string
	FailureStage string
	Quality      string
	Diagnosis    string
	Attempts     []Attempt
}
