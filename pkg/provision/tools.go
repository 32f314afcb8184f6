package provision

import (
	"context"
	"fmt"

	"github.com/DasProsad/ubuntu-setup-for-bioinfo/pkg/engine"
)

// sourceTools returns one step per source-built tool. Ordering follows the
// manifest: htslib first by default, since samtools and bcftools build
// against it.
func (b *Builder) sourceTools() []engine.Step {
	steps := make([]engine.Step, 0, len(b.manifest.SourceTools))
	for _, tool := range b.manifest.SourceTools {
		task := engine.BuildTask{
			RepoURL: tool.Repo,
			Name:    tool.Name,
			Recipe:  tool.Recipe,
		}
		steps = append(steps, engine.Step{
			Name: fmt.Sprintf("build %s from source", tool.Name),
			Action: &engine.ActionFunc{
				Label: fmt.Sprintf("install %s from %s", tool.Name, tool.Repo),
				Fn: func(ctx context.Context) error {
					return b.installer.Install(ctx, task)
				},
			},
		})
	}
	return steps
}
