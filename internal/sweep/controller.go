package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/afero"

	"mediasort/internal/cleanup"
	"mediasort/internal/logging"
	"mediasort/internal/resources"
	"mediasort/internal/scan"
	"mediasort/internal/scheduler"
	"mediasort/internal/services"
)

// Pass names used in logs, progress output and outcome records.
const (
	PassMain  = "main"
	PassSweep = "sweep"
)

// Options configure a Controller.
type Options struct {
	Source string
	// Exclude lists directories inside Source that must not be scanned or
	// removed, such as the destination root and the state directory.
	Exclude []string
	Plan    resources.Plan
	RunID   string
	// Interval is the progress monitor poll period.
	Interval time.Duration

	// MainPass and SweepPass select which passes run.
	MainPass  bool
	SweepPass bool
	// CleanupEmptyDirs removes emptied source directories after each pass.
	CleanupEmptyDirs bool

	Reporter scheduler.ProgressReporter
	Recorder scheduler.Recorder
	// Discovered is called with the running file count while scanning.
	Discovered func(pass string, found int)
	// Scanned is called once a scan finishes, before the pass starts.
	Scanned func(pass string, found int)
}

// Result is the outcome of a run.
type Result struct {
	Main     scheduler.RunResult
	Sweep    scheduler.RunResult
	MainRan  bool
	SweepRan bool
	// Unknown counts files the main pass left for the sweep.
	Unknown int
	// Unreadable lists paths either scan could not access.
	Unreadable []string
	// RemovedDirs lists source directories removed by cleanup.
	RemovedDirs []string
}

// Combined merges the passes that ran into one RunResult.
func (r Result) Combined() scheduler.RunResult {
	var combined scheduler.RunResult
	if r.MainRan {
		combined = combined.Merge(r.Main)
	}
	if r.SweepRan {
		combined = combined.Merge(r.Sweep)
	}
	return combined
}

// Controller sequences scanning, placement passes and cleanup.
type Controller struct {
	fs     afero.Fs
	placer scheduler.Placer
	opts   Options
	logger *slog.Logger
}

// NewController builds a controller that places files with placer.
func NewController(fsys afero.Fs, placer scheduler.Placer, opts Options, logger *slog.Logger) *Controller {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Controller{
		fs:     fsys,
		placer: placer,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "sweep"),
	}
}

// Run executes the configured passes. Only a failure to scan the source
// root is returned as an error; per-file failures live in the result.
// Cancellation stops the current pass and skips anything after it.
func (c *Controller) Run(ctx context.Context) (Result, error) {
	ctx = services.WithRunID(ctx, c.opts.RunID)
	var result Result

	if c.opts.MainPass {
		pass, scanned, err := c.runPass(ctx, PassMain, false)
		if err != nil {
			return result, err
		}
		result.Main = pass
		result.MainRan = true
		result.Unknown = scanned.Unknown
		result.Unreadable = append(result.Unreadable, scanned.Unreadable...)
		if pass.Cancelled {
			logging.WithContext(ctx, c.logger).Info("main pass cancelled; skipping sweep")
			return result, nil
		}
		c.cleanup(ctx, &result)
	}

	if c.opts.SweepPass && ctx.Err() == nil {
		pass, scanned, err := c.runPass(ctx, PassSweep, true)
		if err != nil {
			return result, err
		}
		result.Sweep = pass
		result.SweepRan = true
		result.Unreadable = append(result.Unreadable, scanned.Unreadable...)
		if !pass.Cancelled {
			c.cleanup(ctx, &result)
		}
	}
	return result, nil
}

func (c *Controller) runPass(ctx context.Context, pass string, sweep bool) (scheduler.RunResult, scan.Result, error) {
	ctx = services.WithPass(ctx, pass)
	logger := logging.WithContext(ctx, c.logger)

	scanOpts := scan.Options{
		IncludeUnknown: sweep,
		Exclude:        c.opts.Exclude,
		Logger:         c.logger,
	}
	if c.opts.Discovered != nil {
		scanOpts.Progress = func(found int) { c.opts.Discovered(pass, found) }
	}
	scanned, err := scan.Walk(ctx, c.fs, c.opts.Source, scanOpts)
	if err != nil {
		if ctx.Err() != nil {
			return scheduler.RunResult{Cancelled: true}, scanned, nil
		}
		return scheduler.RunResult{}, scanned, services.Wrap(services.ErrConfiguration, "sweep", "scan "+pass, c.opts.Source, err)
	}
	if c.opts.Scanned != nil {
		c.opts.Scanned(pass, len(scanned.Files))
	}
	logger.Info("scan complete",
		logging.Int("files", len(scanned.Files)),
		logging.Int("unknown", scanned.Unknown),
		logging.Int("unreadable", len(scanned.Unreadable)),
	)
	if len(scanned.Files) == 0 {
		return scheduler.RunResult{}, scanned, nil
	}

	result := scheduler.Run(ctx, c.placer, scanned.Files, scheduler.Options{
		Plan:     c.opts.Plan,
		Pass:     pass,
		Sweep:    sweep,
		RunID:    c.opts.RunID,
		Interval: c.opts.Interval,
		Reporter: c.opts.Reporter,
		Recorder: c.opts.Recorder,
		Logger:   c.logger,
	})
	return result, scanned, nil
}

func (c *Controller) cleanup(ctx context.Context, result *Result) {
	if !c.opts.CleanupEmptyDirs {
		return
	}
	removed := cleanup.RemoveEmptyDirs(ctx, c.fs, c.opts.Source, c.logger, c.opts.Exclude...)
	result.RemovedDirs = append(result.RemovedDirs, removed.Removed...)
	for _, failure := range removed.Errors {
		logging.WarnWithContext(c.logger, "empty directory not removed", "cleanup_failed",
			logging.String("path", failure.Path),
			logging.Error(failure.Error),
			logging.String(logging.FieldErrorHint, "remove the directory by hand once it is empty"),
			logging.String(logging.FieldImpact, fmt.Sprintf("%s stays in the source tree", failure.Path)),
		)
	}
	if len(removed.Removed) > 0 {
		logging.WithContext(ctx, c.logger).Info("removed empty source directories", logging.Int("count", len(removed.Removed)))
	}
}
