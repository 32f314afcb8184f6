package provision

import (
	"fmt"
	"path/filepath"

	"github.com/DasProsad/ubuntu-setup-for-bioinfo/pkg/engine"
)

// condaInstall downloads the Miniconda installer into the workspace, runs
// it in batch mode, and configures the channel order. The download is a
// network fetch and retried; the installer run and channel configuration
// are local and deterministic.
func (b *Builder) condaInstall() engine.Step {
	conda := b.manifest.Conda
	script := filepath.Join(b.workspace.Root, "miniconda.sh")
	condaBin := filepath.Join(conda.Prefix, "bin", "conda")

	actions := []engine.Action{
		b.retried(&engine.FetchFile{
			Label: "download miniconda installer",
			URL:   conda.InstallerURL,
			Dest:  script,
			Mode:  0755,
		}),
		&engine.ShellCommand{
			Label:   "run miniconda installer",
			Program: "bash",
			Args:    []string{script, "-b", "-p", conda.Prefix},
		},
	}

	// Channel order is significant: conda gives the last-added channel the
	// highest priority, so the manifest lists them lowest-priority first.
	for _, channel := range conda.Channels {
		actions = append(actions, &engine.ShellCommand{
			Label:   fmt.Sprintf("add conda channel %s", channel),
			Program: condaBin,
			Args:    []string{"config", "--add", "channels", channel},
		})
	}

	return engine.Step{
		Name: "install miniconda and configure channels",
		Action: &engine.Sequence{
			Label:   "miniconda installation",
			Actions: actions,
		},
	}
}

// condaEnvironment creates the managed analysis environment. Solving and
// downloading packages hits the channels, so the whole create runs under
// the retry budget.
func (b *Builder) condaEnvironment() engine.Step {
	conda := b.manifest.Conda
	condaBin := filepath.Join(conda.Prefix, "bin", "conda")

	args := []string{"create", "-y", "-n", conda.Environment.Name}
	args = append(args, conda.Environment.Packages...)
	create := &engine.ShellCommand{
		Label:   fmt.Sprintf("conda create %s", conda.Environment.Name),
		Program: condaBin,
		Args:    args,
	}

	return engine.Step{
		Name:   "create managed conda environment",
		Action: b.retried(create),
	}
}
