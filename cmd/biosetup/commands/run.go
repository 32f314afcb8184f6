package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/DasProsad/ubuntu-setup-for-bioinfo/pkg/config"
	"github.com/DasProsad/ubuntu-setup-for-bioinfo/pkg/engine"
	"github.com/DasProsad/ubuntu-setup-for-bioinfo/pkg/provision"
	"github.com/DasProsad/ubuntu-setup-for-bioinfo/pkg/stores"
	"github.com/DasProsad/ubuntu-setup-for-bioinfo/pkg/telemetry"
)

func newRunCommand() *cobra.Command {
	var (
		dryRun       bool
		journalPath  string
		traceOut     string
		printMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the provisioning pipeline",
		Long: `Execute the full provisioning sequence against this host.

The run is strictly sequential and fail-fast: the first failing step aborts
everything after it. Exit status is 0 on success, 2 when a precondition
(root privilege, supported platform) fails, and 1 on any step failure.`,
		Example: `  # Provision with the built-in manifest
  sudo biosetup run

  # Provision from a manifest file, journaling to sqlite
  sudo biosetup run --config setup.yaml --journal /var/log/biosetup.db

  # Show what would run without executing anything
  biosetup run --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			manifest, err := loadManifest()
			if err != nil {
				return err
			}

			tcfg := telemetryConfig(cmd.Root().Version)
			if traceOut != "" {
				tcfg.Tracing.Enabled = true
				tcfg.Tracing.Exporter = traceOut
			}
			if err := tcfg.Validate(); err != nil {
				return err
			}

			logger, err := telemetry.NewLogger(tcfg.Logging)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}

			metrics, err := telemetry.NewMetrics(tcfg.Metrics)
			if err != nil {
				return fmt.Errorf("failed to create metrics: %w", err)
			}

			tracer, err := telemetry.NewTracer(tcfg.Tracing, tcfg.ServiceName, tcfg.ServiceVersion)
			if err != nil {
				return fmt.Errorf("failed to create tracer: %w", err)
			}
			defer func() {
				if err := tracer.Shutdown(context.Background()); err != nil {
					log.Warn().Err(err).Msg("trace shutdown failed")
				}
			}()

			builder := provision.NewBuilder(manifest, logger, metrics)
			steps := builder.Steps()

			if dryRun {
				printSteps(steps)
				return nil
			}

			runID := uuid.NewString()

			if journalPath == "" {
				journalPath = manifest.JournalPath
			}
			journal, closeJournal, err := openJournal(cmd.Context(), journalPath, runID)
			if err != nil {
				return err
			}
			defer closeJournal()

			opts := engine.PipelineOptions{
				RunID:   runID,
				Logger:  logger,
				Metrics: metrics,
				Tracer:  tracer,
			}
			if journal != nil {
				opts.Journal = journal
			}
			pipeline := engine.NewPipeline(steps, opts)

			logger.WithRunID(runID).Infof("starting provisioning run with %d steps", len(steps))
			started := time.Now()
			runErr := pipeline.Run(cmd.Context())
			elapsed := time.Since(started)

			status := "succeeded"
			if runErr != nil {
				status = "failed"
			}
			metrics.RecordRunCompleted(status, elapsed.Seconds())
			finishJournal(journal, runID, runErr)

			if printMetrics {
				if err := metrics.WriteTo(os.Stdout); err != nil {
					log.Warn().Err(err).Msg("failed to dump metrics")
				}
			}

			if runErr != nil {
				return runErr
			}
			logger.Infof("provisioning completed in %s", elapsed.Round(time.Second))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list the steps without executing them")
	cmd.Flags().StringVar(&journalPath, "journal", "", "sqlite run-journal path (overrides the manifest)")
	cmd.Flags().StringVar(&traceOut, "trace", "", "trace exporter (stdout, none)")
	cmd.Flags().BoolVar(&printMetrics, "print-metrics", false, "dump Prometheus metrics on exit")

	return cmd
}

// loadManifest reads the manifest named by --config, or the built-in
// defaults when no file is given.
func loadManifest() (*config.Manifest, error) {
	if configPath == "" {
		return config.DefaultManifest(), nil
	}
	return config.Load(configPath)
}

// telemetryConfig derives the telemetry configuration from the global flags.
func telemetryConfig(version string) telemetry.Config {
	tcfg := telemetry.DefaultConfig()
	tcfg.ServiceVersion = version
	if verbose {
		tcfg.Logging.Level = "debug"
	}
	if jsonOutput {
		tcfg.Logging.Format = "json"
	}
	return tcfg
}

// openJournal opens the sqlite journal and creates the run record. A
// missing path disables journaling.
func openJournal(ctx context.Context, path, runID string) (*stores.SQLiteStore, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}

	store, err := stores.NewSQLiteStore(path)
	if err != nil {
		return nil, nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	now := time.Now()
	run := &stores.Run{
		ID:           runID,
		ManifestPath: configPath,
		Status:       stores.RunStatusRunning,
		StartedAt:    now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.CreateRun(ctx, run); err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	closer := func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("journal close failed")
		}
	}
	return store, closer, nil
}

// finishJournal records the run outcome; journal problems are reported but
// never change the run result.
func finishJournal(store *stores.SQLiteStore, runID string, runErr error) {
	if store == nil {
		return
	}

	status := stores.RunStatusCompleted
	var errMsg *string
	if runErr != nil {
		status = stores.RunStatusFailed
		msg := runErr.Error()
		errMsg = &msg
	}
	// The run context may already be cancelled; the journal write still
	// has to land.
	if err := store.FinishRun(context.Background(), runID, status, errMsg); err != nil {
		log.Warn().Err(err).Msg("failed to record run outcome")
	}
}

// printSteps renders the ordered step list for --dry-run.
func printSteps(steps []engine.Step) {
	for i, step := range steps {
		fmt.Printf("%2d. %s\n", i+1, step.Name)
	}
}
