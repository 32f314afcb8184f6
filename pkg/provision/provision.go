package provision

import (
	"context"

	"github.com/DasProsad/ubuntu-setup-for-bioinfo/pkg/config"
	"github.com/DasProsad/ubuntu-setup-for-bioinfo/pkg/engine"
	"github.com/DasProsad/ubuntu-setup-for-bioinfo/pkg/telemetry"
)

// Builder assembles the provisioning step list from a manifest. The order
// is fixed by construction and not reconfigurable at runtime.
type Builder struct {
	manifest  *config.Manifest
	logger    *telemetry.Logger
	retry     *engine.RetryExecutor
	workspace engine.Workspace
	installer *engine.SourceInstaller
}

// NewBuilder creates a step builder. metrics may be nil.
func NewBuilder(m *config.Manifest, logger *telemetry.Logger, metrics *telemetry.Metrics) *Builder {
	retry := engine.NewRetryExecutor(m.Retry.Attempts, m.Retry.Delay.Std(), logger, metrics)
	ws := engine.Workspace{Root: m.Workspace}
	return &Builder{
		manifest:  m,
		logger:    logger,
		retry:     retry,
		workspace: ws,
		installer: engine.NewSourceInstaller(ws, retry, logger),
	}
}

// Installer returns the source installer. Tests use it to stub the cloner.
func (b *Builder) Installer() *engine.SourceInstaller {
	return b.installer
}

// Steps returns the full ordered provisioning sequence.
func (b *Builder) Steps() []engine.Step {
	steps := []engine.Step{
		b.rootPrecondition(),
		b.platformPrecondition(),
		b.workspaceReset(),
		b.mirrorConfiguration(),
		b.systemUpgrade(),
		b.basePackages(),
		b.editorConfiguration(),
		b.dockerInstall(),
		b.imagePrefetch(),
		b.condaInstall(),
		b.condaEnvironment(),
	}
	steps = append(steps, b.sourceTools()...)
	steps = append(steps, b.cleanup())
	return steps
}

// retried wraps an action so the pipeline step runs it through the retry
// executor.
func (b *Builder) retried(a engine.Action) engine.Action {
	return &engine.ActionFunc{
		Label: a.Describe(),
		Fn: func(ctx context.Context) error {
			return b.retry.Do(ctx, a)
		},
	}
}
