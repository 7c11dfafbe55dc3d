package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"mediasort/internal/scheduler"
)

// barReporter draws one progress bar per pass on an interactive terminal.
type barReporter struct {
	w   io.Writer
	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func newBarReporter(w io.Writer) *barReporter {
	return &barReporter{w: w}
}

func (r *barReporter) Start(pass string, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.w),
		progressbar.OptionSetDescription(passLabel(pass)),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
}

func (r *barReporter) Update(p scheduler.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bar != nil {
		_ = r.bar.Set(p.Done)
	}
}

func (r *barReporter) Finish(p scheduler.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bar == nil {
		return
	}
	_ = r.bar.Set(p.Done)
	if p.Done >= p.Total {
		_ = r.bar.Finish()
	}
	fmt.Fprintln(r.w)
	r.bar = nil
}

// discoverySpinner shows a running file count while the source is scanned.
type discoverySpinner struct {
	w    io.Writer
	mu   sync.Mutex
	pass string
	bar  *progressbar.ProgressBar
}

func newDiscoverySpinner(w io.Writer) *discoverySpinner {
	return &discoverySpinner{w: w}
}

func (s *discoverySpinner) Found(pass string, found int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bar == nil || s.pass != pass {
		s.pass = pass
		s.bar = progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(s.w),
			progressbar.OptionSetDescription("Scanning "+pass+" pass"),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionShowCount(),
			progressbar.OptionSetItsString("files"),
			progressbar.OptionThrottle(100*time.Millisecond),
		)
	}
	_ = s.bar.Set(found)
}

func (s *discoverySpinner) Done(pass string, found int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bar != nil {
		_ = s.bar.Clear()
		s.bar = nil
	}
	fmt.Fprintf(s.w, "Found %d files for the %s pass\n", found, pass)
}

func passLabel(pass string) string {
	switch pass {
	case "sweep":
		return "Sweeping"
	case "":
		return "Processing"
	default:
		return "Organizing"
	}
}
