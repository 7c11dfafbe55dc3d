package scheduler

import (
	"log/slog"
	"time"

	"mediasort/internal/logging"
)

// Progress is one monitor sample.
type Progress struct {
	Pass    string
	Done    int
	Total   int
	Elapsed time.Duration
	// Rate is files per second since the pass started.
	Rate float64
	// ETA is zero until a rate is known.
	ETA time.Duration
}

// Percent returns completion in the range 0-100.
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return 100
	}
	return float64(p.Done) * 100 / float64(p.Total)
}

// ProgressReporter receives monitor samples for display.
type ProgressReporter interface {
	Start(pass string, total int)
	Update(p Progress)
	Finish(p Progress)
}

func sample(pass string, done, total int, elapsed time.Duration) Progress {
	p := Progress{Pass: pass, Done: done, Total: total, Elapsed: elapsed}
	if secs := elapsed.Seconds(); secs > 0 && done > 0 {
		p.Rate = float64(done) / secs
		if remaining := total - done; remaining > 0 {
			p.ETA = time.Duration(float64(remaining) / p.Rate * float64(time.Second))
		}
	}
	return p
}

// LogReporter writes sampled progress lines for non-interactive output.
type LogReporter struct {
	logger  *slog.Logger
	sampler *logging.ProgressSampler
}

// NewLogReporter logs at most once per 5% of progress.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	return &LogReporter{
		logger:  logging.NewComponentLogger(logger, "progress"),
		sampler: logging.NewProgressSampler(5),
	}
}

func (r *LogReporter) Start(pass string, total int) {
	r.sampler.Reset()
	r.logger.Info("pass started", logging.String(logging.FieldPass, pass), logging.Int("files", total))
}

func (r *LogReporter) Update(p Progress) {
	if !r.sampler.ShouldLog(p.Percent(), p.Pass) {
		return
	}
	r.logger.Info("progress",
		logging.String(logging.FieldPass, p.Pass),
		logging.Int("done", p.Done),
		logging.Int("total", p.Total),
		logging.Float64("files_per_sec", roundRate(p.Rate)),
		logging.Duration("eta", p.ETA.Round(time.Second)),
	)
}

func (r *LogReporter) Finish(p Progress) {
	r.logger.Info("pass finished",
		logging.String(logging.FieldPass, p.Pass),
		logging.Int("done", p.Done),
		logging.Int("total", p.Total),
		logging.Duration("elapsed", p.Elapsed.Round(time.Millisecond)),
	)
}

func roundRate(rate float64) float64 {
	return float64(int64(rate*10+0.5)) / 10
}
