package engine

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/DasProsad/ubuntu-setup-for-bioinfo/pkg/telemetry"
)

// Step is one named unit of the fixed provisioning sequence.
type Step struct {
	Name   string
	Action Action
}

// StepStatus is the terminal status of an executed step.
type StepStatus string

const (
	StepStatusSucceeded StepStatus = "succeeded"
	StepStatusFailed    StepStatus = "failed"
)

// StepResult records the outcome of one executed step for the run journal.
type StepResult struct {
	RunID       string
	Index       int
	Name        string
	Status      StepStatus
	StartedAt   time.Time
	CompletedAt time.Time
	Err         error
}

// Journal receives step outcomes as they happen. Implementations are
// write-only sinks: the pipeline never reads anything back, so a journal
// can never influence execution.
type Journal interface {
	RecordStep(ctx context.Context, result StepResult) error
}

// Pipeline executes an ordered list of steps strictly in sequence and stops
// at the first failure. This fail-fast policy is intentional: steps are
// idempotent, so the recovery mechanism for a failed run is to fix the
// underlying problem and rerun, not in-process rollback.
type Pipeline struct {
	runID   string
	steps   []Step
	logger  *telemetry.Logger
	metrics *telemetry.Metrics
	tracer  *telemetry.Tracer
	journal Journal
}

// PipelineOptions configures a Pipeline. Metrics, tracer and journal may be
// nil.
type PipelineOptions struct {
	RunID   string
	Logger  *telemetry.Logger
	Metrics *telemetry.Metrics
	Tracer  *telemetry.Tracer
	Journal Journal
}

// NewPipeline builds an immutable pipeline over steps. The slice is copied:
// insertion order is execution order and must not change after construction.
func NewPipeline(steps []Step, opts PipelineOptions) *Pipeline {
	owned := make([]Step, len(steps))
	copy(owned, steps)
	return &Pipeline{
		runID:   opts.RunID,
		steps:   owned,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		tracer:  opts.Tracer,
		journal: opts.Journal,
	}
}

// Steps returns a copy of the ordered step list.
func (p *Pipeline) Steps() []Step {
	out := make([]Step, len(p.steps))
	copy(out, p.steps)
	return out
}

// Run executes every step in order. The moment a step fails its error is
// returned and no later step executes. ctx cancellation between steps stops
// the run; a step already started runs to completion (external commands are
// the only place cancellation can land mid-step, via exec.CommandContext).
func (p *Pipeline) Run(ctx context.Context) error {
	total := len(p.steps)
	for i, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return err
		}

		p.logger.Stepf("[%d/%d] %s", i+1, total, step.Name)

		stepCtx, span := p.tracer.StartSpan(ctx, step.Name,
			attribute.Int("step.index", i+1),
			attribute.String("run.id", p.runID),
		)

		started := time.Now()
		err := step.Action.Run(stepCtx)
		elapsed := time.Since(started)

		status := StepStatusSucceeded
		if err != nil {
			status = StepStatusFailed
			p.tracer.RecordError(span, err)
		}
		span.End()

		p.metrics.RecordStep(step.Name, string(status), elapsed.Seconds())
		p.recordJournal(ctx, StepResult{
			RunID:       p.runID,
			Index:       i,
			Name:        step.Name,
			Status:      status,
			StartedAt:   started,
			CompletedAt: started.Add(elapsed),
			Err:         err,
		})

		if err != nil {
			p.metrics.RecordError(string(ClassOf(err)))
			p.logger.Errorf("step %q failed after %s: %v", step.Name, elapsed.Round(time.Millisecond), err)
			return fmt.Errorf("step %q: %w", step.Name, err)
		}

		p.logger.Infof("step %q completed in %s", step.Name, elapsed.Round(time.Millisecond))
	}
	return nil
}

// recordJournal writes the step outcome; journal failures are reported but
// never fail the run.
func (p *Pipeline) recordJournal(ctx context.Context, result StepResult) {
	if p.journal == nil {
		return
	}
	if err := p.journal.RecordStep(ctx, result); err != nil {
		p.logger.Warnf("journal write failed for step %q: %v", result.Name, err)
	}
}
