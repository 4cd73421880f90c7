// Package retry implements bounded retry with exponential backoff.
//
// The loop is ordinary iteration with an explicit attempt counter and a
// computed delay: no scheduler, no goroutines. Callers classify each
// failure so fatal errors (bad credential, invalid model) are never
// retried while transient ones (timeout, 5xx, 429) consume the budget.
package retry

import "time"

// Outcome tells the retry loop what to do after an attempt.
type Outcome int

const (
	// Done stops the loop: the attempt succeeded.
	Done Outcome = iota
	// Transient retries the attempt if budget remains.
	Transient
	// Fatal stops the loop immediately: retrying can never succeed.
	Fatal
)

// Policy bounds retry behavior for one unit of work.
type Policy struct {
	// MaxAttempts is the total attempt budget, including the first try.
	// Values below 1 are treated as 1.
	MaxAttempts int
	// Backoff is the base delay between attempts; it doubles after each
	// failed attempt (backoff * 2^(attempt-1)).
	Backoff time.Duration
	// Sleep is injectable for tests. Nil uses time.Sleep.
	Sleep func(time.Duration)
}

// Delay returns the backoff delay applied after the given 1-based attempt.
func (p Policy) Delay(attempt int) time.Duration {
	if p.Backoff <= 0 || attempt < 1 {
		return 0
	}
	return p.Backoff * (1 << (attempt - 1))
}

// Do runs fn up to MaxAttempts times. fn receives the 1-based attempt
// number and returns an outcome plus the attempt's error. Do returns nil
// on Done, the last error when the budget is exhausted, and the fatal
// error immediately on Fatal.
func (p Policy) Do(fn func(attempt int) (Outcome, error)) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		outcome, err := fn(attempt)
		switch outcome {
		case Done:
			return nil
		case Fatal:
			return err
		}
		lastErr = err
		if attempt < attempts {
			if delay := p.Delay(attempt); delay > 0 {
				sleep(delay)
			}
		}
	}
	return lastErr
}
