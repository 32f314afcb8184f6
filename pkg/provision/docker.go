package provision

import (
	"fmt"

	"github.com/DasProsad/ubuntu-setup-for-bioinfo/pkg/engine"
)

// dockerInstall installs the container runtime packages and enables the
// service. The install reaches the mirror and runs under the retry budget;
// enabling the service is local and deterministic.
func (b *Builder) dockerInstall() engine.Step {
	args := append([]string{"install", "-y"}, b.manifest.Docker.Packages...)
	install := &engine.ShellCommand{
		Label:   "apt-get install container runtime",
		Program: "apt-get",
		Args:    args,
		Env:     aptEnv,
	}
	return engine.Step{
		Name: "install container runtime",
		Action: &engine.Sequence{
			Label: "install and enable docker",
			Actions: []engine.Action{
				b.retried(install),
				&engine.ShellCommand{Program: "systemctl", Args: []string{"enable", "--now", "docker"}},
			},
		},
	}
}

// imagePrefetch pulls the analysis container images so they are available
// offline. Each pull talks to a registry and is retried independently: a
// flaky pull of one image should not re-pull the ones already fetched.
func (b *Builder) imagePrefetch() engine.Step {
	actions := make([]engine.Action, 0, len(b.manifest.Docker.Images))
	for _, image := range b.manifest.Docker.Images {
		pull := &engine.ShellCommand{
			Label:   fmt.Sprintf("docker pull %s", image),
			Program: "docker",
			Args:    []string{"pull", image},
		}
		actions = append(actions, b.retried(pull))
	}
	return engine.Step{
		Name: "prefetch container images",
		Action: &engine.Sequence{
			Label:   fmt.Sprintf("pull %d container images", len(actions)),
			Actions: actions,
		},
	}
}
