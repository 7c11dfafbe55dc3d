package preflight

import (
	"context"
	"errors"

	"mediasort/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	Err    error
}

// Report is the collected outcome of RunAll.
type Report struct {
	Results []Result
	// Exiftool is the resolved exiftool path, empty when it was not found.
	Exiftool string
}

// Err joins the errors of every failed check.
func (r Report) Err() error {
	var errs []error
	for _, result := range r.Results {
		if !result.Passed && result.Err != nil {
			errs = append(errs, result.Err)
		}
	}
	return errors.Join(errs...)
}

// RunAll executes the checks a run needs before touching any file. The
// source only needs write access when files are moved out of it or empty
// directories are removed.
func RunAll(ctx context.Context, cfg *config.Config) Report {
	if cfg == nil {
		return Report{}
	}

	var report Report
	sourceMode := AccessRead
	if cfg.MoveMode() || cfg.Sweep.CleanupEmptyDirs {
		sourceMode = AccessReadWrite
	}
	report.Results = append(report.Results,
		CheckDirectoryMode("Source directory", cfg.Paths.SourceDir, sourceMode),
		CheckDirectoryAccess("Destination directory", cfg.Paths.DestinationDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	)

	exif, resolved := CheckExiftool(ctx, cfg.Exiftool.Binary, cfg.Exiftool.SearchPaths, cfg.ExiftoolTimeout())
	report.Results = append(report.Results, exif)
	report.Exiftool = resolved
	return report
}
