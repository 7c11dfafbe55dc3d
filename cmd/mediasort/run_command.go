package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"mediasort/internal/config"
	"mediasort/internal/ledger"
	"mediasort/internal/logging"
	"mediasort/internal/media/exiftool"
	"mediasort/internal/preflight"
	"mediasort/internal/resources"
	"mediasort/internal/runlock"
	"mediasort/internal/scheduler"
	"mediasort/internal/services"
	"mediasort/internal/sweep"
)

type runFlags struct {
	source       string
	dest         string
	monthFolders bool
	move         bool
	workers      int
	noSweep      bool
	jsonOutput   bool
}

func (f *runFlags) bindPaths(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.source, "source", "", "Directory to organize (overrides paths.source_dir)")
	cmd.Flags().StringVar(&f.dest, "dest", "", "Library root (overrides paths.destination_dir)")
	cmd.Flags().BoolVar(&f.jsonOutput, "json", false, "Print the run summary as JSON")
}

// apply copies flag overrides into cfg and validates the result.
func (f runFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	if value := strings.TrimSpace(f.source); value != "" {
		expanded, err := config.ExpandPath(value)
		if err != nil {
			return fmt.Errorf("--source: %w", err)
		}
		cfg.Paths.SourceDir = expanded
	}
	if value := strings.TrimSpace(f.dest); value != "" {
		expanded, err := config.ExpandPath(value)
		if err != nil {
			return fmt.Errorf("--dest: %w", err)
		}
		cfg.Paths.DestinationDir = expanded
	}
	if f.monthFolders {
		cfg.Layout.MonthFolders = true
	}
	if f.move {
		cfg.Placement.Mode = config.PlacementMove
	}
	if cmd.Flags().Changed("workers") {
		if f.workers <= 0 {
			return services.Wrap(services.ErrValidation, "cli", "flags", "--workers must be positive", nil)
		}
		cfg.Workers.MaxWorkers = f.workers
	}
	if err := cfg.Validate(); err != nil {
		return services.Wrap(services.ErrConfiguration, "cli", "validate config", "", err)
	}
	if err := cfg.ValidateRunPaths(); err != nil {
		return services.Wrap(services.ErrValidation, "cli", "run paths", "", err)
	}
	return nil
}

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Organize a source tree into the library, then sweep what is left",
		Long: "Organize places every file of a known type under <dest>/<Category>/<Year>, " +
			"named after its resolved capture time. Unless disabled, a sweep pass then " +
			"routes the remaining files to the Error tier for review.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, ctx, flags, "organize")
		},
	}
	flags.bindPaths(cmd)
	cmd.Flags().BoolVar(&flags.monthFolders, "month-folders", false, "Add a month folder below each year")
	cmd.Flags().BoolVar(&flags.move, "move", false, "Rename files into place instead of copying")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "Cap the number of parallel workers")
	cmd.Flags().BoolVar(&flags.noSweep, "no-sweep", false, "Skip the sweep pass")
	return cmd
}

func newSweepCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Route every remaining source file to the Error tier",
		Long: "Sweep re-scans the source including files of unknown type and places each one " +
			"in the Error tier. Sources of unknown type are copied and left in place.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, ctx, flags, "sweep")
		},
	}
	flags.bindPaths(cmd)
	return cmd
}

func runPipeline(cmd *cobra.Command, cmdCtx *commandContext, flags runFlags, command string) error {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}
	if err := flags.apply(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stderr := cmd.ErrOrStderr()
	interactive := isTerminal(stderr) && !flags.jsonOutput
	logPath := logging.RunLogPath(cfg.Paths.LogDir, time.Now().UTC().Format("20060102T150405.000Z"))
	console := stderr
	if interactive {
		console = nil
	}
	logger, err := logging.NewFromConfig(cfg, logPath, console)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if pruned := logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTarget{
		Dir:     cfg.Paths.LogDir,
		Pattern: "mediasort-*.log",
		Exclude: []string{logPath},
	}); pruned > 0 {
		logger.Debug("pruned old run logs", logging.Int("count", pruned))
	}

	lock, err := runlock.Acquire(cfg.LockDir(), cfg.Paths.DestinationDir)
	if err != nil {
		if errors.Is(err, runlock.ErrHeld) {
			return fmt.Errorf("another mediasort run is writing to %s: %w", cfg.Paths.DestinationDir, err)
		}
		return err
	}
	defer func() { _ = lock.Release() }()

	report := preflight.RunAll(ctx, cfg)
	if err := report.Err(); err != nil {
		return fmt.Errorf("preflight failed: %w", err)
	}

	store, err := ledger.Open(cfg)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()

	run, err := store.BeginRun(ctx, command, cfg.Paths.SourceDir, cfg.Paths.DestinationDir, cfg.Placement.Mode)
	if err != nil {
		return err
	}
	logger = logger.With(logging.String(logging.FieldRunID, run.ID))
	logger.Info("run started",
		logging.String("command", command),
		logging.String("source", cfg.Paths.SourceDir),
		logging.String("destination", cfg.Paths.DestinationDir),
		logging.String("mode", cfg.Placement.Mode),
		logging.String("exiftool", report.Exiftool),
		logging.String("log_path", logPath),
	)

	fs := afero.NewOsFs()
	tool := exiftool.New(report.Exiftool, cfg.ExiftoolTimeout())
	executor := newExecutor(cfg, fs, cfg.Paths.DestinationDir,
		newMetadataReader(cfg, fs, report.Exiftool), tool, store, logger)

	plan := resources.NewPlan(ctx, resources.HostProbe{}, resources.Overrides{
		MaxWorkers:     cfg.Workers.MaxWorkers,
		FilesPerWorker: cfg.Workers.FilesPerWorker,
	})
	logger.Info("resource plan",
		logging.Int("cores", plan.Cores),
		logging.Int("workers", plan.Workers),
		logging.Int("files_per_worker", plan.FilesPerWorker),
		logging.Int("multiplier", plan.Multiplier),
		logging.Bool("memory_known", plan.MemoryKnown),
	)

	opts := sweep.Options{
		Source:           cfg.Paths.SourceDir,
		Exclude:          []string{cfg.Paths.DestinationDir, cfg.Paths.StateDir, cfg.Paths.LogDir},
		Plan:             plan,
		RunID:            run.ID,
		Interval:         cfg.ProgressInterval(),
		MainPass:         command == "organize",
		SweepPass:        command == "sweep" || (cfg.Sweep.Enabled && !flags.noSweep),
		CleanupEmptyDirs: cfg.Sweep.CleanupEmptyDirs,
		Recorder:         store,
	}
	if interactive {
		spinner := newDiscoverySpinner(stderr)
		opts.Discovered = spinner.Found
		opts.Scanned = spinner.Done
		opts.Reporter = newBarReporter(stderr)
	} else {
		opts.Reporter = scheduler.NewLogReporter(logger)
	}

	result, runErr := sweep.NewController(fs, executor, opts, logger).Run(ctx)
	combined := result.Combined()
	cancelled := combined.Cancelled || ctx.Err() != nil
	finishErr := store.FinishRun(context.WithoutCancel(ctx), run.ID, ledger.Totals{
		Total:     combined.Total,
		Succeeded: combined.Succeeded,
		Failed:    combined.Failed,
		Skipped:   combined.Skipped,
		Cancelled: cancelled,
	})
	if runErr != nil {
		return runErr
	}
	if finishErr != nil {
		logging.WarnWithContext(logger, "failed to finalize run record", "ledger_write_failed",
			logging.Error(finishErr),
			logging.String(logging.FieldErrorHint, "check state_dir permissions and free space"),
			logging.String(logging.FieldImpact, "history shows this run as unfinished"),
		)
	}

	summary := newRunSummary(run, command, cfg, result, cancelled, logPath)
	logger.Info("run complete",
		logging.Int("total", summary.Total),
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("failed", summary.Failed),
		logging.Int("skipped", summary.Skipped),
		logging.Bool("cancelled", summary.Cancelled),
	)
	if flags.jsonOutput {
		return writeJSON(cmd, summary)
	}
	printRunSummary(cmd.OutOrStdout(), summary)
	return nil
}
