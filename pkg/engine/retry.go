package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/DasProsad/ubuntu-setup-for-bioinfo/pkg/telemetry"
)

// RetryExecutor runs an action up to a fixed number of attempts with a fixed
// delay between them. Every network-facing operation in the pipeline (mirror
// fetch, registry pull, script download, git clone) goes through it: a small
// retry budget with a short fixed backoff absorbs transient failures without
// masking persistent ones.
type RetryExecutor struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Values below 1 are treated as 1.
	MaxAttempts int

	// Delay is the fixed wait between attempts. Not applied after the
	// final attempt.
	Delay time.Duration

	logger  *telemetry.Logger
	metrics *telemetry.Metrics
}

// NewRetryExecutor creates a retry executor. metrics may be nil.
func NewRetryExecutor(maxAttempts int, delay time.Duration, logger *telemetry.Logger, metrics *telemetry.Metrics) *RetryExecutor {
	return &RetryExecutor{
		MaxAttempts: maxAttempts,
		Delay:       delay,
		logger:      logger,
		metrics:     metrics,
	}
}

// Do runs action until it succeeds or the attempt budget is exhausted.
// Each failed attempt with budget remaining emits a WARN naming the attempt
// index and the action; exhaustion emits an ERROR and returns a classified
// error the caller must treat as fatal to its own step. A non-retryable
// failure aborts the remaining budget immediately. The wait between attempts is the only
// interruption point: ctx cancellation there returns ctx.Err().
func (r *RetryExecutor) Do(ctx context.Context, action Action) error {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	performed := 0
	for attempt := 1; attempt <= attempts; attempt++ {
		performed = attempt
		err = action.Run(ctx)
		if err == nil {
			r.metrics.RecordRetryAttempt("success")
			return nil
		}

		r.metrics.RecordRetryAttempt("failure")

		// The final failure is reported by the ERROR below, not doubled as a
		// WARN. A single-attempt budget still warns so the attempt itself is
		// visible before the give-up message.
		if attempt < attempts || attempts == 1 {
			r.logger.Warnf("attempt %d/%d failed for %s: %v", attempt, attempts, action.Describe(), err)
		}

		if !IsRetryable(err) || attempt == attempts {
			break
		}

		select {
		case <-time.After(r.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	r.logger.Errorf("giving up on %s after %d attempt(s): %v", action.Describe(), performed, err)
	r.metrics.RecordError(string(ClassOf(err)))

	return &ProvisionError{
		Class:     ClassOf(err),
		Message:   fmt.Sprintf("failed after %d attempt(s)", performed),
		Operation: action.Describe(),
		Err:       err,
	}
}
