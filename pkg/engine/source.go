package engine

import (
	"context"
	"fmt"
	"path/filepath"

	git "github.com/go-git/go-git/v5"

	"github.com/DasProsad/ubuntu-setup-for-bioinfo/pkg/telemetry"
)

// BuildTask describes one externally hosted tool to fetch and build. Owned
// by the source installer for the duration of one installation.
type BuildTask struct {
	// RepoURL is the git repository to clone.
	RepoURL string

	// Name is the local directory name inside the workspace.
	Name string

	// Recipe is the ordered list of build commands (argv form) to run in
	// the clone directory.
	Recipe [][]string

	// Env lists additional KEY=VALUE environment entries for every recipe
	// command.
	Env []string
}

// Cloner fetches a source repository into a local directory.
type Cloner interface {
	Clone(ctx context.Context, url, dir string) error
}

// GitCloner clones with go-git, depth-limited to the latest revision: the
// build only needs the current tree, and a full history fetch against a
// large repository wastes most of the transfer.
type GitCloner struct{}

// Clone implements Cloner.
func (GitCloner) Clone(ctx context.Context, url, dir string) error {
	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:          url,
		Depth:        1,
		SingleBranch: true,
		Tags:         git.NoTags,
	})
	if err != nil {
		return NewTransientError(fmt.Sprintf("cloning %s", url), err)
	}
	return nil
}

// SourceInstaller is the generic fetch-then-build pipeline: shallow-clone a
// repository into the shared workspace (with retries, clones are network
// operations), then run the build recipe without retry: build failures are
// deterministic, so retrying them only repeats the same failure.
type SourceInstaller struct {
	workspace Workspace
	retry     *RetryExecutor
	cloner    Cloner
	logger    *telemetry.Logger
}

// NewSourceInstaller creates a source installer staging builds under ws.
func NewSourceInstaller(ws Workspace, retry *RetryExecutor, logger *telemetry.Logger) *SourceInstaller {
	return &SourceInstaller{
		workspace: ws,
		retry:     retry,
		cloner:    GitCloner{},
		logger:    logger,
	}
}

// WithCloner overrides the cloner. Tests use this to stub the network.
func (s *SourceInstaller) WithCloner(c Cloner) *SourceInstaller {
	s.cloner = c
	return s
}

// Install clones task.RepoURL into the workspace and runs the build recipe.
// A clone failure after retry exhaustion returns without ever invoking the
// recipe; the first failing recipe command aborts the installation. Either
// way the error propagates as fatal to the enclosing step; there is no
// partial-tool recovery.
func (s *SourceInstaller) Install(ctx context.Context, task BuildTask) error {
	if err := EnsureDir(s.workspace.Root); err != nil {
		return err
	}

	dir := filepath.Join(s.workspace.Root, task.Name)

	clone := &ActionFunc{
		Label: fmt.Sprintf("clone %s", task.RepoURL),
		Fn: func(ctx context.Context) error {
			// A partial clone from a failed attempt would make the next
			// attempt fail on a non-empty directory.
			if err := EnsureCleanDir(dir); err != nil {
				return err
			}
			return s.cloner.Clone(ctx, task.RepoURL, dir)
		},
	}
	if err := s.retry.Do(ctx, clone); err != nil {
		return err
	}

	s.logger.Infof("building %s in %s", task.Name, dir)
	for _, argv := range task.Recipe {
		if len(argv) == 0 {
			continue
		}
		cmd := &ShellCommand{
			Program: argv[0],
			Args:    argv[1:],
			Dir:     dir,
			Env:     task.Env,
		}
		if err := cmd.Run(ctx); err != nil {
			return NewPermanentError(fmt.Sprintf("building %s", task.Name), err)
		}
	}

	s.logger.Infof("installed %s from source", task.Name)
	return nil
}
