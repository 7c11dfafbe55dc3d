package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"mediasort/internal/config"
	"mediasort/internal/ledger"
	"mediasort/internal/scheduler"
	"mediasort/internal/sweep"
)

type passSummary struct {
	Name      string  `json:"name"`
	Total     int     `json:"total"`
	Succeeded int     `json:"succeeded"`
	Failed    int     `json:"failed"`
	Skipped   int     `json:"skipped"`
	Warnings  int     `json:"warnings"`
	Elapsed   float64 `json:"elapsed_seconds"`
	Cancelled bool    `json:"cancelled"`
}

type runSummary struct {
	RunID          string        `json:"run_id"`
	Command        string        `json:"command"`
	Source         string        `json:"source"`
	Destination    string        `json:"destination"`
	Mode           string        `json:"mode"`
	Total          int           `json:"total"`
	Succeeded      int           `json:"succeeded"`
	Failed         int           `json:"failed"`
	Skipped        int           `json:"skipped"`
	Warnings       int           `json:"warnings"`
	Cancelled      bool          `json:"cancelled"`
	ElapsedSeconds float64       `json:"elapsed_seconds"`
	FilesPerSecond float64       `json:"files_per_second"`
	Passes         []passSummary `json:"passes"`
	Errors         []string      `json:"errors,omitempty"`
	Unknown        int           `json:"unknown_left_for_sweep"`
	Unreadable     []string      `json:"unreadable,omitempty"`
	RemovedDirs    int           `json:"removed_dirs"`
	LogPath        string        `json:"log_path"`
}

func newRunSummary(run ledger.Run, command string, cfg *config.Config, result sweep.Result, cancelled bool, logPath string) runSummary {
	combined := result.Combined()
	summary := runSummary{
		RunID:          run.ID,
		Command:        command,
		Source:         cfg.Paths.SourceDir,
		Destination:    cfg.Paths.DestinationDir,
		Mode:           cfg.Placement.Mode,
		Total:          combined.Total,
		Succeeded:      combined.Succeeded,
		Failed:         combined.Failed,
		Skipped:        combined.Skipped,
		Warnings:       combined.Warnings,
		Cancelled:      cancelled,
		ElapsedSeconds: roundSeconds(combined.Elapsed),
		FilesPerSecond: float64(int64(combined.Throughput()*10+0.5)) / 10,
		Errors:         combined.ErrorSummary(scheduler.SummaryErrorLimit),
		Unknown:        result.Unknown,
		Unreadable:     result.Unreadable,
		RemovedDirs:    len(result.RemovedDirs),
		LogPath:        logPath,
	}
	if result.MainRan {
		summary.Passes = append(summary.Passes, newPassSummary(sweep.PassMain, result.Main))
	}
	if result.SweepRan {
		summary.Passes = append(summary.Passes, newPassSummary(sweep.PassSweep, result.Sweep))
	}
	return summary
}

func newPassSummary(name string, r scheduler.RunResult) passSummary {
	return passSummary{
		Name:      name,
		Total:     r.Total,
		Succeeded: r.Succeeded,
		Failed:    r.Failed,
		Skipped:   r.Skipped,
		Warnings:  r.Warnings,
		Elapsed:   roundSeconds(r.Elapsed),
		Cancelled: r.Cancelled,
	}
}

func roundSeconds(d time.Duration) float64 {
	return d.Round(10*time.Millisecond).Seconds()
}

func printRunSummary(out io.Writer, s runSummary) {
	headline := "Run complete"
	if s.Cancelled {
		headline = "Run cancelled; partial results"
	}
	fmt.Fprintf(out, "%s (%s, run %s)\n", headline, s.Command, shortID(s.RunID))

	rows := make([][]string, 0, len(s.Passes)+1)
	for _, pass := range s.Passes {
		rows = append(rows, []string{
			pass.Name,
			strconv.Itoa(pass.Total),
			strconv.Itoa(pass.Succeeded),
			strconv.Itoa(pass.Failed),
			strconv.Itoa(pass.Skipped),
			strconv.Itoa(pass.Warnings),
			formatSeconds(pass.Elapsed),
		})
	}
	if len(s.Passes) > 1 {
		rows = append(rows, []string{
			"total",
			strconv.Itoa(s.Total),
			strconv.Itoa(s.Succeeded),
			strconv.Itoa(s.Failed),
			strconv.Itoa(s.Skipped),
			strconv.Itoa(s.Warnings),
			formatSeconds(s.ElapsedSeconds),
		})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable(
			[]string{"Pass", "Total", "Placed", "Failed", "Skipped", "Warnings", "Elapsed"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
		))
	} else {
		fmt.Fprintln(out, "No files to organize.")
	}

	fmt.Fprintf(out, "Throughput: %.1f files/s\n", s.FilesPerSecond)
	if s.Unknown > 0 && len(s.Passes) == 1 && s.Passes[0].Name == sweep.PassMain {
		fmt.Fprintf(out, "Unknown-type files left in source: %d (run `mediasort sweep` to route them for review)\n", s.Unknown)
	}
	if s.RemovedDirs > 0 {
		fmt.Fprintf(out, "Removed empty source directories: %d\n", s.RemovedDirs)
	}
	if len(s.Unreadable) > 0 {
		fmt.Fprintf(out, "Unreadable paths skipped: %d\n", len(s.Unreadable))
	}
	if len(s.Errors) > 0 {
		fmt.Fprintln(out, "Errors:")
		for _, line := range s.Errors {
			fmt.Fprintf(out, "  - %s\n", line)
		}
	}
	fmt.Fprintf(out, "Log: %s\n", s.LogPath)
}

func formatSeconds(seconds float64) string {
	return (time.Duration(seconds * float64(time.Second))).Round(10 * time.Millisecond).String()
}

func shortID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
