package provision

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/DasProsad/ubuntu-setup-for-bioinfo/pkg/engine"
)

const osReleasePath = "/etc/os-release"

// rootPrecondition verifies the process runs with root privileges. Package
// installation, mirror configuration and service management all write
// system state; without root nothing else can proceed.
func (b *Builder) rootPrecondition() engine.Step {
	return engine.Step{
		Name: "check root privilege",
		Action: &engine.ActionFunc{
			Label: "check effective uid",
			Fn: func(ctx context.Context) error {
				if os.Geteuid() != 0 {
					return engine.NewPreconditionError(
						"must run as root (try sudo)", nil)
				}
				return nil
			},
		},
	}
}

// platformPrecondition verifies the host is a Debian-flavoured system with
// apt available. Every later step assumes the apt toolchain.
func (b *Builder) platformPrecondition() engine.Step {
	return engine.Step{
		Name: "check platform support",
		Action: &engine.ActionFunc{
			Label: "check apt and os-release",
			Fn: func(ctx context.Context) error {
				if _, err := exec.LookPath("apt-get"); err != nil {
					return engine.NewPreconditionError(
						"apt-get not found on PATH", err)
				}

				data, err := os.ReadFile(osReleasePath)
				if err != nil {
					return engine.NewPreconditionError(
						fmt.Sprintf("cannot read %s", osReleasePath), err)
				}
				if !supportedOSRelease(data) {
					return engine.NewPreconditionError(
						"unsupported distribution: need Ubuntu or another Debian derivative", nil)
				}
				return nil
			},
		},
	}
}

// supportedOSRelease reports whether an os-release file identifies a
// Debian-family distribution.
func supportedOSRelease(data []byte) bool {
	for _, line := range strings.Split(string(data), "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `"`)
		switch key {
		case "ID":
			if value == "ubuntu" || value == "debian" {
				return true
			}
		case "ID_LIKE":
			for _, id := range strings.Fields(value) {
				if id == "ubuntu" || id == "debian" {
					return true
				}
			}
		}
	}
	return false
}

// workspaceReset brings the shared build workspace to the empty state. A
// failure here is fatal: a non-empty or inaccessible workspace would
// corrupt every later build step.
func (b *Builder) workspaceReset() engine.Step {
	return engine.Step{
		Name: "reset build workspace",
		Action: &engine.ActionFunc{
			Label: fmt.Sprintf("reset %s", b.workspace.Root),
			Fn: func(ctx context.Context) error {
				return b.workspace.Reset()
			},
		},
	}
}
