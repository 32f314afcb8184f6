package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "biosetup",
		Short: "biosetup - Ubuntu bioinformatics workstation bootstrapper",
		Long: `biosetup provisions a fresh Ubuntu host as a bioinformatics workstation
through a fixed sequence of idempotent steps:

  - apt mirror configuration and full system upgrade
  - base package installation (build toolchain, compression and TLS dev libs)
  - editor and shell configuration
  - Docker installation and analysis-container prefetch
  - Miniconda with bioconda channels and a managed environment
  - samtools/htslib/bcftools built from source

Network-facing operations are retried with a fixed budget; the run aborts
on the first unrecovered failure. Steps are idempotent, so the recovery
path for a failed run is to fix the cause and rerun.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "manifest file path (defaults to the built-in manifest)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "log in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newStepsCommand())

	return rootCmd
}
