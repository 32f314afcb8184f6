package provision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DasProsad/ubuntu-setup-for-bioinfo/pkg/engine"
)

// editorConfiguration writes the editor and shell dotfiles. ~/.vimrc is
// overwritten; the bashrc snippet is appended as-is. Reruns duplicate the
// appended snippet, a known limitation carried deliberately rather than
// silently merging.
func (b *Builder) editorConfiguration() engine.Step {
	editor := b.manifest.Editor
	return engine.Step{
		Name: "configure editor and shell",
		Action: &engine.ActionFunc{
			Label: "write vimrc and bashrc",
			Fn: func(ctx context.Context) error {
				home := editor.Home
				if home == "" {
					var err error
					home, err = os.UserHomeDir()
					if err != nil {
						return engine.NewResourceError("resolving home directory", err)
					}
				}

				if editor.Vimrc != "" {
					vimrc := filepath.Join(home, ".vimrc")
					if err := os.WriteFile(vimrc, []byte(editor.Vimrc), 0644); err != nil {
						return engine.NewResourceError(fmt.Sprintf("writing %s", vimrc), err)
					}
				}

				if editor.BashrcAppend != "" {
					bashrc := filepath.Join(home, ".bashrc")
					f, err := os.OpenFile(bashrc, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
					if err != nil {
						return engine.NewResourceError(fmt.Sprintf("opening %s", bashrc), err)
					}
					defer f.Close()
					if _, err := f.WriteString(editor.BashrcAppend); err != nil {
						return engine.NewResourceError(fmt.Sprintf("appending to %s", bashrc), err)
					}
				}
				return nil
			},
		},
	}
}
