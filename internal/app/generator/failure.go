package generator

import (
	"fmt"
	"strings"
)

// FailureClass partitions generation errors into the three disjoint
// categories the caller can act on.
type FailureClass string

const (
	// FailureRateLimited: quota exhausted. Fatal for this turn, the user
	// must wait outside our control.
	FailureRateLimited FailureClass = "rate_limited"
	// FailureOverloaded: the service is temporarily overloaded. Retryable.
	FailureOverloaded FailureClass = "overloaded"
	// FailureUnknown: transport or any uncategorized error. Fatal, the
	// diagnostic is surfaced verbatim.
	FailureUnknown FailureClass = "unknown"
)

const (
	rateLimitRetryHint   = 30 // seconds; guidance only, retry is not offered
	overloadedRetryDelay = 5  // seconds before the manual retry gate opens
)

// Failure is a classified generation error.
type Failure struct {
	Class        FailureClass
	Reason       string
	DelaySeconds int
	Err          error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Class, f.Reason)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Retryable reports whether a manual or automatic re-attempt is permitted.
func (f *Failure) Retryable() bool {
	return f.Class == FailureOverloaded
}

// Classify inspects an error's text for the quota and overload signatures
// the hosted model emits and wraps it as a Failure.
func Classify(err error) *Failure {
	if err == nil {
		return nil
	}
	if f, ok := err.(*Failure); ok {
		return f
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "429"),
		strings.Contains(msg, "quota"),
		strings.Contains(msg, "Too Many Requests"):
		return &Failure{
			Class:        FailureRateLimited,
			Reason:       "API quota exceeded",
			DelaySeconds: rateLimitRetryHint,
			Err:          err,
		}
	case strings.Contains(msg, "503"),
		strings.Contains(msg, "overloaded"):
		return &Failure{
			Class:        FailureOverloaded,
			Reason:       "The AI service is currently overloaded",
			DelaySeconds: overloadedRetryDelay,
			Err:          err,
		}
	default:
		return &Failure{
			Class:  FailureUnknown,
			Reason: msg,
			Err:    err,
		}
	}
}
