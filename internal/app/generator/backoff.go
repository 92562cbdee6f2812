package generator

import (
	"context"
	"time"

	"github.com/piyuindia4/ai-slides/internal/observability"
)

// maxAttempts is the total attempt budget per call, first try included.
const maxAttempts = 3

// Caller invokes one remote generation attempt with bounded exponential
// backoff. Quota and uncategorized failures abort immediately; only
// overload failures are retried, waiting 2^attempt seconds between tries.
type Caller struct {
	// sleep is replaceable in tests. It must honor ctx cancellation.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewCaller() *Caller {
	return &Caller{sleep: sleepContext}
}

// Call runs fn up to maxAttempts times. On exhaustion the last observed
// failure is returned still tagged retryable; the dispatcher decides what
// to do with that tag.
func (c *Caller) Call(ctx context.Context, fn func(ctx context.Context) (string, error)) (string, error) {
	log := observability.LoggerFromContext(ctx)

	var last *Failure
	for attempt := 0; attempt < maxAttempts; attempt++ {
		text, err := fn(ctx)
		if err == nil {
			return text, nil
		}

		f := Classify(err)
		if !f.Retryable() {
			return "", f
		}
		last = f

		if attempt == maxAttempts-1 {
			break
		}

		delay := time.Duration(1<<uint(attempt)) * time.Second
		log.Info("retrying after overload",
			"delay_s", delay.Seconds(),
			"attempt", attempt+1,
			"max_attempts", maxAttempts)
		if err := c.sleep(ctx, delay); err != nil {
			return "", Classify(err)
		}
	}

	return "", last
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
