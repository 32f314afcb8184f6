package commands

import (
	"github.com/spf13/cobra"

	"github.com/DasProsad/ubuntu-setup-for-bioinfo/pkg/provision"
	"github.com/DasProsad/ubuntu-setup-for-bioinfo/pkg/telemetry"
)

func newStepsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "steps",
		Short: "Print the ordered provisioning step list",
		Long: `Print the steps the run command would execute, in order, for the
given manifest. Useful for reviewing what a manifest does before running
it with root privileges.`,
		Example: `  # Steps for the built-in manifest
  biosetup steps

  # Steps for a manifest file
  biosetup --config setup.yaml steps`,
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := loadManifest()
			if err != nil {
				return err
			}

			logger, err := telemetry.NewLogger(telemetry.DefaultConfig().Logging)
			if err != nil {
				return err
			}

			builder := provision.NewBuilder(manifest, logger, nil)
			printSteps(builder.Steps())
			return nil
		},
	}

	return cmd
}
