package engine

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DasProsad/ubuntu-setup-for-bioinfo/pkg/telemetry"
)

// newCapturingLogger returns a logger that renders JSON events into a
// buffer so tests can count WARN/ERROR emissions.
func newCapturingLogger() (*telemetry.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	cfg := telemetry.LoggingConfig{
		Level:      "debug",
		Format:     "json",
		TimeFormat: "rfc3339",
	}
	return telemetry.NewLoggerWithWriter(cfg, &buf), &buf
}

func countLevel(buf *bytes.Buffer, level string) int {
	return strings.Count(buf.String(), `"level":"`+level+`"`)
}

// countingAction fails for the first failures calls, then succeeds. It also
// records the delays observed between invocations.
type countingAction struct {
	failures int
	calls    int
	err      error
	lastCall time.Time
	gaps     []time.Duration
}

func (a *countingAction) Describe() string { return "counting action" }

func (a *countingAction) Run(ctx context.Context) error {
	now := time.Now()
	if a.calls > 0 {
		a.gaps = append(a.gaps, now.Sub(a.lastCall))
	}
	a.lastCall = now
	a.calls++
	if a.calls <= a.failures {
		if a.err != nil {
			return a.err
		}
		return errors.New("transient network hiccup")
	}
	return nil
}

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	logger, buf := newCapturingLogger()
	r := NewRetryExecutor(3, 50*time.Millisecond, logger, nil)

	action := &countingAction{failures: 0}
	start := time.Now()
	if err := r.Do(context.Background(), action); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if action.calls != 1 {
		t.Errorf("expected 1 call, got %d", action.calls)
	}
	if elapsed := time.Since(start); elapsed > 40*time.Millisecond {
		t.Errorf("no delay should be charged on immediate success, took %s", elapsed)
	}
	if n := countLevel(buf, "warn"); n != 0 {
		t.Errorf("expected 0 warn events, got %d", n)
	}
}

func TestRetrySucceedsOnThirdAttempt(t *testing.T) {
	logger, buf := newCapturingLogger()
	r := NewRetryExecutor(3, 0, logger, nil)

	action := &countingAction{failures: 2}
	if err := r.Do(context.Background(), action); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if action.calls != 3 {
		t.Errorf("expected 3 calls, got %d", action.calls)
	}
	if n := countLevel(buf, "warn"); n != 2 {
		t.Errorf("expected 2 warn events, got %d", n)
	}
	if n := countLevel(buf, "error"); n != 0 {
		t.Errorf("expected 0 error events, got %d", n)
	}
}

func TestRetryExhaustsBudget(t *testing.T) {
	logger, buf := newCapturingLogger()
	r := NewRetryExecutor(2, 0, logger, nil)

	action := &countingAction{failures: 100}
	err := r.Do(context.Background(), action)
	if err == nil {
		t.Fatal("expected failure after exhausting retries")
	}

	if action.calls != 2 {
		t.Errorf("expected 2 calls, got %d", action.calls)
	}
	if n := countLevel(buf, "warn"); n != 1 {
		t.Errorf("expected 1 warn event, got %d", n)
	}
	if n := countLevel(buf, "error"); n != 1 {
		t.Errorf("expected 1 error event, got %d", n)
	}
	// The final failure belongs to the ERROR; only the non-final attempt
	// warns.
	if !strings.Contains(buf.String(), "attempt 1/2") {
		t.Errorf("warn must name the non-final attempt:\n%s", buf.String())
	}

	var pe *ProvisionError
	if !errors.As(err, &pe) {
		t.Fatalf("expected classified error, got %T", err)
	}
	if pe.Operation != "counting action" {
		t.Errorf("error should name the action, got %q", pe.Operation)
	}
}

func TestRetrySingleAttempt(t *testing.T) {
	logger, buf := newCapturingLogger()
	r := NewRetryExecutor(1, time.Hour, logger, nil)

	action := &countingAction{failures: 100}
	start := time.Now()
	if err := r.Do(context.Background(), action); err == nil {
		t.Fatal("expected failure")
	}

	if action.calls != 1 {
		t.Errorf("expected exactly 1 call, got %d", action.calls)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("delay must not apply after the final attempt, took %s", elapsed)
	}
	if w, e := countLevel(buf, "warn"), countLevel(buf, "error"); w != 1 || e != 1 {
		t.Errorf("expected 1 warn and 1 error, got %d warn %d error", w, e)
	}
}

func TestRetryInvalidBudgetTreatedAsOne(t *testing.T) {
	logger, _ := newCapturingLogger()
	r := NewRetryExecutor(0, 0, logger, nil)

	action := &countingAction{failures: 100}
	if err := r.Do(context.Background(), action); err == nil {
		t.Fatal("expected failure")
	}
	if action.calls != 1 {
		t.Errorf("expected 1 call for a sub-minimal budget, got %d", action.calls)
	}
}

func TestRetryAppliesFixedDelay(t *testing.T) {
	logger, _ := newCapturingLogger()
	delay := 30 * time.Millisecond
	r := NewRetryExecutor(3, delay, logger, nil)

	action := &countingAction{failures: 2}
	if err := r.Do(context.Background(), action); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(action.gaps) != 2 {
		t.Fatalf("expected 2 delay intervals, got %d", len(action.gaps))
	}
	for i, gap := range action.gaps {
		if gap < delay {
			t.Errorf("gap %d shorter than configured delay: %s < %s", i, gap, delay)
		}
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	logger, buf := newCapturingLogger()
	r := NewRetryExecutor(5, 0, logger, nil)

	action := &countingAction{
		failures: 100,
		err:      NewPermanentError("compile error", errors.New("make: *** [all] Error 2")),
	}
	err := r.Do(context.Background(), action)
	if err == nil {
		t.Fatal("expected failure")
	}

	if action.calls != 1 {
		t.Errorf("permanent error must abort the budget, got %d calls", action.calls)
	}
	if ClassOf(err) != ErrorClassPermanent {
		t.Errorf("classification must survive wrapping, got %s", ClassOf(err))
	}
	if n := countLevel(buf, "error"); n != 1 {
		t.Errorf("expected 1 error event, got %d", n)
	}
}

func TestRetryContextCancelledDuringWait(t *testing.T) {
	logger, _ := newCapturingLogger()
	r := NewRetryExecutor(3, time.Hour, logger, nil)

	ctx, cancel := context.WithCancel(context.Background())
	action := &countingAction{failures: 100}

	done := make(chan error, 1)
	go func() { done <- r.Do(ctx, action) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("retry did not observe cancellation during the delay")
	}

	if action.calls != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", action.calls)
	}
}
