package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/DasProsad/ubuntu-setup-for-bioinfo/pkg/config"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate a provisioning manifest",
		Long: `Validate a YAML provisioning manifest against its field constraints.

This command checks:
  - YAML syntax validity
  - required fields (mirror, packages, conda spec, workspace)
  - value constraints (URLs, hostnames, retry budget)`,
		Example: `  # Validate a manifest file
  biosetup validate setup.yaml

  # Validate the manifest given with the global flag
  biosetup --config setup.yaml validate`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if len(args) > 0 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("no manifest given: pass a path or use --config")
			}

			if _, err := config.Load(path); err != nil {
				return err
			}

			log.Info().Str("path", path).Msg("Manifest is valid")
			return nil
		},
	}

	return cmd
}
