package scheduler

import (
	"fmt"
	"time"

	"mediasort/internal/placement"
)

// SummaryErrorLimit is how many error messages a summary shows.
const SummaryErrorLimit = 5

// RunResult aggregates one pass, or several merged passes.
type RunResult struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
	Warnings  int
	Errors    []string
	Elapsed   time.Duration
	Cancelled bool
	Outcomes  []placement.Outcome
}

func (r *RunResult) add(o placement.Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o.Status {
	case placement.StatusPlaced:
		r.Succeeded++
	case placement.StatusSkipped:
		r.Skipped++
	default:
		r.Failed++
		if o.Error != "" {
			r.Errors = append(r.Errors, o.Error)
		} else {
			r.Errors = append(r.Errors, fmt.Sprintf("%s: failed", o.Source))
		}
	}
	if o.Warning != "" {
		r.Warnings++
	}
}

// Processed counts files that reached a terminal status.
func (r RunResult) Processed() int {
	return r.Succeeded + r.Failed + r.Skipped
}

// Merge folds other into r.
func (r RunResult) Merge(other RunResult) RunResult {
	r.Total += other.Total
	r.Succeeded += other.Succeeded
	r.Failed += other.Failed
	r.Skipped += other.Skipped
	r.Warnings += other.Warnings
	r.Errors = append(r.Errors, other.Errors...)
	r.Elapsed += other.Elapsed
	r.Cancelled = r.Cancelled || other.Cancelled
	r.Outcomes = append(r.Outcomes, other.Outcomes...)
	return r
}

// Throughput is processed files per second.
func (r RunResult) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Processed()) / r.Elapsed.Seconds()
}

// ErrorSummary returns at most limit messages, plus a trailing
// "... and N more" line when some were left out.
func (r RunResult) ErrorSummary(limit int) []string {
	if limit <= 0 || len(r.Errors) <= limit {
		return append([]string(nil), r.Errors...)
	}
	lines := append([]string(nil), r.Errors[:limit]...)
	return append(lines, fmt.Sprintf("... and %d more", len(r.Errors)-limit))
}
