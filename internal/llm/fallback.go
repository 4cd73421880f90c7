package llm

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"time"

	pipelineerrors "github.com/misty-step/landfall/internal/errors"
	"github.com/misty-step/landfall/internal/log"
	"github.com/misty-step/landfall/internal/retry"
)

// FallbackClient runs the synthesis request against an ordered candidate
// list: primary model first, then fallbacks. Candidates are tried
// strictly sequentially, never in parallel, so cost and request-rate
// behavior stay predictable and the first model that works wins
// deterministically.
type FallbackClient struct {
	Client *Client
	// Candidates is the ordered, non-empty model chain.
	Candidates []string
	// Policy bounds per-candidate retries for transient failures.
	Policy retry.Policy
	Logger *log.Logger
}

// ValidateFunc returns the structural issues in a model output, or nil
// to accept it. A rejection advances the chain like a model failure.
type ValidateFunc func(output string) []string

// Synthesize walks the candidate chain and returns the first validated
// success, or a failed result carrying the aggregate failure diagnosis.
// validate may be nil to accept any output.
func (f *FallbackClient) Synthesize(ctx context.Context, systemPrompt, userPrompt string, validate ValidateFunc) Result {
	logger := f.Logger
	if logger == nil {
		logger = log.Nop()
	}

	result := Result{Status: StatusFailed, FailureStage: pipelineerrors.StageLLMCall, Quality: QualityFailed}
	if len(f.Candidates) == 0 {
		result.Diagnosis = DiagnosisAllFailed
		logger.Error("no_model_candidates", log.String("stage", pipelineerrors.StageLLMCall))
		return result
	}

	// Last failure status per candidate, for the aggregate diagnosis.
	lastStatus := make([]int, 0, len(f.Candidates))

	for _, model := range f.Candidates {
		content, quality, candidateStatus := f.tryCandidate(ctx, model, systemPrompt, userPrompt, validate, &result, logger)
		if content != "" {
			result.Status = StatusSuccess
			result.Content = content
			result.ModelUsed = model
			result.FailureStage = ""
			result.Quality = quality
			result.Diagnosis = ""
			logger.Event("synthesis_succeeded",
				log.String("stage", pipelineerrors.StageLLMCall),
				log.String("model", model),
				log.String("outcome", OutcomeSuccess),
				log.String("quality", quality),
			)
			return result
		}
		lastStatus = append(lastStatus, candidateStatus)
		logger.Warn("model_failed",
			log.String("stage", pipelineerrors.StageLLMCall),
			log.String("model", model),
			log.Int("status_code", candidateStatus),
		)
	}

	result.Diagnosis = diagnose(lastStatus)
	logger.Error(result.Diagnosis,
		log.String("stage", pipelineerrors.StageLLMCall),
		log.Strings("models_tried", f.Candidates),
	)
	return result
}

// tryCandidate runs the bounded retry loop for one model. It returns the
// accepted content (empty on failure), the quality grade, and the status
// code of the candidate's last HTTP failure (0 when none applies).
func (f *FallbackClient) tryCandidate(ctx context.Context, model, systemPrompt, userPrompt string, validate ValidateFunc, result *Result, logger *log.Logger) (string, string, int) {
	var content, quality string
	lastStatus := 0

	_ = f.Policy.Do(func(attempt int) (retry.Outcome, error) {
		start := time.Now()
		text, err := f.Client.Complete(ctx, model, systemPrompt, userPrompt)
		latency := time.Since(start)

		if err != nil {
			outcome, statusCode, next := classifyFailure(err)
			if statusCode != 0 {
				lastStatus = statusCode
			}
			result.Attempts = append(result.Attempts, Attempt{
				Model:       model,
				ProviderURL: f.Client.APIURL,
				Index:       attempt,
				Outcome:     outcome,
				Latency:     latency,
				StatusCode:  statusCode,
			})
			logger.Warn("model_attempt_failed",
				log.String("stage", pipelineerrors.StageLLMCall),
				log.String("model", model),
				log.Int("attempt", attempt),
				log.String("outcome", outcome),
				log.Int("status_code", statusCode),
				log.Err("error", err),
			)
			return next, err
		}

		issues := runValidate(validate, text)
		if len(issues) == 0 {
			content, quality = text, QualityValid
			result.Attempts = append(result.Attempts, Attempt{
				Model:       model,
				ProviderURL: f.Client.APIURL,
				Index:       attempt,
				Outcome:     OutcomeSuccess,
				Latency:     latency,
			})
			return retry.Done, nil
		}

		logger.Warn("validation_failed",
			log.String("stage", pipelineerrors.StageLLMCall),
			log.String("model", model),
			log.Int("attempt", attempt),
			log.Strings("issues", issues),
		)

		// One feedback retry per candidate: re-ask with the validator's
		// issues appended so the model can fix its own output.
		retryText, retryErr := f.Client.Complete(ctx, model, systemPrompt, feedbackPrompt(userPrompt, issues))
		if retryErr == nil {
			if retryIssues := runValidate(validate, retryText); len(retryIssues) == 0 {
				content, quality = retryText, QualityDegraded
				result.Attempts = append(result.Attempts, Attempt{
					Model:       model,
					ProviderURL: f.Client.APIURL,
					Index:       attempt,
					Outcome:     OutcomeSuccess,
					Latency:     time.Since(start),
				})
				return retry.Done, nil
			}
		}

		result.Attempts = append(result.Attempts, Attempt{
			Model:       model,
			ProviderURL: f.Client.APIURL,
			Index:       attempt,
			Outcome:     OutcomeValidationError,
			Latency:     time.Since(start),
		})
		// Validation rejection advances the chain; burning the transient
		// retry budget on it would just repeat the same output.
		return retry.Fatal, pipelineerrors.NewValidationError(strings.Join(issues, "; "))
	})

	return content, quality, lastStatus
}

func runValidate(validate ValidateFunc, output string) []string {
	if validate == nil {
		return nil
	}
	return validate(output)
}

// classifyFailure maps a request error to an attempt outcome, the HTTP
// status when known, and the retry decision. Timeouts, 5xx, and 429 are
// transient; 401/403 and every other non-retryable status mean the
// credential or model is invalid and retrying can never succeed. Shape
// errors (missing choices, empty content) count as validator rejections.
func classifyFailure(err error) (outcome string, statusCode int, next retry.Outcome) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		code := statusErr.StatusCode
		if code == 429 || code >= 500 {
			return OutcomeTransientError, code, retry.Transient
		}
		return OutcomeFatalError, code, retry.Fatal
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return OutcomeTransientError, 0, retry.Transient
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return OutcomeTransientError, 0, retry.Transient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return OutcomeTransientError, 0, retry.Transient
	}

	return OutcomeValidationError, 0, retry.Fatal
}

// diagnose aggregates the last failure status per candidate into one
// actionable token. Uniform 401s or 403s point at the credential, not
// the models.
func diagnose(statusCodes []int) string {
	if len(statusCodes) == 0 {
		return DiagnosisAllFailed
	}
	all := func(code int) bool {
		for _, c := range statusCodes {
			if c != code {
				return false
			}
		}
		return true
	}
	switch {
	case all(401):
		return DiagnosisAuthentication
	case all(403):
		return DiagnosisAuthorization
	default:
		return DiagnosisAllFailed
	}
}

// feedbackPrompt appends the validator's findings to the original prompt
// for the single per-candidate retry.
func feedbackPrompt(original string, issues []string) string {
	var b strings.Builder
	b.WriteString(original)
	b.WriteString("\n\n---\n\n## Validation feedback (previous attempt failed these checks)\n\n")
	for _, issue := range issues {
		b.WriteString("- ")
		b.WriteString(issue)
		b.WriteString("\n")
	}
	b.WriteString("\nFix these issues in your output. Start directly with a ## heading.")
	return b.String()
}
