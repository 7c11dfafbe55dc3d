package scheduler

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"mediasort/internal/logging"
	"mediasort/internal/placement"
	"mediasort/internal/resources"
	"mediasort/internal/services"
)

// Placer handles one file.
type Placer interface {
	Place(ctx context.Context, path string, sweep bool) placement.Outcome
}

// Recorder persists the outcomes of a finished batch.
type Recorder interface {
	RecordOutcomes(ctx context.Context, runID string, outcomes []placement.Outcome) error
}

// Options configure one pass.
type Options struct {
	Plan     resources.Plan
	Pass     string
	Sweep    bool
	RunID    string
	Interval time.Duration
	Reporter ProgressReporter
	Recorder Recorder
	Logger   *slog.Logger
}

type batchResult struct {
	batch    Batch
	outcomes []placement.Outcome
}

// Run processes paths in parallel batches and returns the aggregate result.
// Cancelling ctx lets each worker finish its current file; no further batches
// start and the partial result is returned with Cancelled set.
func Run(ctx context.Context, placer Placer, paths []string, opts Options) RunResult {
	logger := logging.NewComponentLogger(opts.Logger, "scheduler")
	if opts.Pass != "" {
		ctx = services.WithPass(ctx, opts.Pass)
	}
	start := time.Now()
	result := RunResult{Total: len(paths)}
	if len(paths) == 0 {
		return result
	}

	batches := Partition(paths, opts.Plan.BatchCount(len(paths)), opts.Sweep)
	workers := max(opts.Plan.Workers, 1)
	logging.WithContext(ctx, logger).Info("dispatching batches",
		logging.Int("files", len(paths)),
		logging.Int("batches", len(batches)),
		logging.Int("workers", workers),
	)

	var counter Counter
	if opts.Reporter != nil {
		opts.Reporter.Start(opts.Pass, len(paths))
	}
	monitorDone := make(chan struct{})
	monitorStopped := make(chan struct{})
	go monitor(&counter, len(paths), start, opts, monitorDone, monitorStopped)

	results := make(chan batchResult, len(batches))
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for br := range results {
			for _, o := range br.outcomes {
				result.add(o)
			}
			if opts.Recorder != nil && len(br.outcomes) > 0 {
				// Recording must survive cancellation so partial runs are kept.
				if err := opts.Recorder.RecordOutcomes(context.WithoutCancel(ctx), opts.RunID, br.outcomes); err != nil {
					logging.WarnWithContext(logger, "failed to record batch outcomes", "ledger_write_failed",
						logging.Int(logging.FieldBatch, br.batch.Index),
						logging.Error(err),
						logging.String(logging.FieldErrorHint, "check state_dir permissions and free space"),
						logging.String(logging.FieldImpact, "history for this batch is incomplete"),
					)
				}
			}
		}
	}()

	var g errgroup.Group
	g.SetLimit(workers)
	for _, batch := range batches {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results <- batchResult{batch: batch, outcomes: runBatch(ctx, placer, batch, &counter)}
			return nil
		})
	}
	_ = g.Wait()
	close(results)
	<-collected

	close(monitorDone)
	<-monitorStopped

	result.Elapsed = time.Since(start)
	result.Cancelled = ctx.Err() != nil
	if opts.Reporter != nil {
		opts.Reporter.Finish(sample(opts.Pass, int(counter.Load()), len(paths), result.Elapsed))
	}
	logging.WithContext(ctx, logger).Info("pass complete",
		logging.Int("succeeded", result.Succeeded),
		logging.Int("failed", result.Failed),
		logging.Int("skipped", result.Skipped),
		logging.Bool("cancelled", result.Cancelled),
		logging.Duration("elapsed", result.Elapsed.Round(time.Millisecond)),
	)
	return result
}

func runBatch(ctx context.Context, placer Placer, batch Batch, counter *Counter) []placement.Outcome {
	ctx = services.WithBatch(ctx, batch.Index)
	outcomes := make([]placement.Outcome, 0, len(batch.Paths))
	for _, path := range batch.Paths {
		if ctx.Err() != nil {
			break
		}
		outcomes = append(outcomes, placer.Place(ctx, path, batch.Sweep))
		counter.Inc()
	}
	return outcomes
}

func monitor(counter *Counter, total int, start time.Time, opts Options, done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)
	if opts.Reporter == nil {
		return
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			opts.Reporter.Update(sample(opts.Pass, int(counter.Load()), total, time.Since(start)))
		}
	}
}
