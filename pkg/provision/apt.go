package provision

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/DasProsad/ubuntu-setup-for-bioinfo/pkg/config"
	"github.com/DasProsad/ubuntu-setup-for-bioinfo/pkg/engine"
)

const sourcesListPath = "/etc/apt/sources.list"

// aptEnv keeps apt from prompting; the pipeline has no interactive channel.
var aptEnv = []string{"DEBIAN_FRONTEND=noninteractive"}

// mirrorConfiguration rewrites the apt mirror list. The previous file is
// kept next to it as a .bak so an operator can restore it by hand.
func (b *Builder) mirrorConfiguration() engine.Step {
	mirror := b.manifest.Mirror
	return engine.Step{
		Name: "configure apt mirror",
		Action: &engine.ActionFunc{
			Label: fmt.Sprintf("point %s at %s", sourcesListPath, mirror.Host),
			Fn: func(ctx context.Context) error {
				return writeSourcesList(sourcesListPath, mirror)
			},
		},
	}
}

// writeSourcesList renders and installs the mirror list at path.
func writeSourcesList(path string, mirror config.MirrorConfig) error {
	if prev, err := os.ReadFile(path); err == nil {
		if err := os.WriteFile(path+".bak", prev, 0644); err != nil {
			return engine.NewResourceError("backing up sources.list", err)
		}
	}
	if err := os.WriteFile(path, []byte(RenderSourcesList(mirror)), 0644); err != nil {
		return engine.NewResourceError("writing sources.list", err)
	}
	return nil
}

// RenderSourcesList renders the sources.list content for a mirror.
func RenderSourcesList(mirror config.MirrorConfig) string {
	components := strings.Join(mirror.Components, " ")
	var sb strings.Builder
	sb.WriteString("# generated by biosetup\n")
	for _, suite := range []string{
		mirror.Distribution,
		mirror.Distribution + "-updates",
		mirror.Distribution + "-backports",
		mirror.Distribution + "-security",
	} {
		fmt.Fprintf(&sb, "deb http://%s/ubuntu %s %s\n", mirror.Host, suite, components)
	}
	return sb.String()
}

// systemUpgrade refreshes the package index and upgrades the system. Both
// commands talk to the mirror, so the whole sequence runs under the retry
// budget.
func (b *Builder) systemUpgrade() engine.Step {
	update := &engine.Sequence{
		Label: "apt-get update && dist-upgrade",
		Actions: []engine.Action{
			&engine.ShellCommand{Program: "apt-get", Args: []string{"update"}, Env: aptEnv},
			&engine.ShellCommand{Program: "apt-get", Args: []string{"dist-upgrade", "-y"}, Env: aptEnv},
		},
	}
	return engine.Step{
		Name:   "refresh and upgrade system packages",
		Action: b.retried(update),
	}
}

// basePackages installs the base package set in one transaction.
func (b *Builder) basePackages() engine.Step {
	args := append([]string{"install", "-y"}, b.manifest.Packages...)
	install := &engine.ShellCommand{
		Label:   fmt.Sprintf("apt-get install %d base packages", len(b.manifest.Packages)),
		Program: "apt-get",
		Args:    args,
		Env:     aptEnv,
	}
	return engine.Step{
		Name:   "install base packages",
		Action: b.retried(install),
	}
}

// cleanup drops package caches and removes the build workspace.
func (b *Builder) cleanup() engine.Step {
	return engine.Step{
		Name: "clean up",
		Action: &engine.Sequence{
			Label: "apt cleanup and workspace teardown",
			Actions: []engine.Action{
				&engine.ShellCommand{Program: "apt-get", Args: []string{"autoremove", "-y"}, Env: aptEnv},
				&engine.ShellCommand{Program: "apt-get", Args: []string{"clean"}, Env: aptEnv},
				&engine.ActionFunc{
					Label: fmt.Sprintf("remove %s", b.workspace.Root),
					Fn: func(ctx context.Context) error {
						return b.workspace.Remove()
					},
				},
			},
		},
	}
}
