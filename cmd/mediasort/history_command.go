package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/maruel/natural"
	"github.com/spf13/cobra"

	"mediasort/internal/ledger"
)

type historyRun struct {
	ID          string  `json:"id"`
	Command     string  `json:"command"`
	Source      string  `json:"source"`
	Destination string  `json:"destination"`
	Mode        string  `json:"mode"`
	StartedAt   string  `json:"started_at"`
	FinishedAt  string  `json:"finished_at,omitempty"`
	Seconds     float64 `json:"elapsed_seconds"`
	Total       int     `json:"total"`
	Succeeded   int     `json:"succeeded"`
	Failed      int     `json:"failed"`
	Skipped     int     `json:"skipped"`
	Cancelled   bool    `json:"cancelled"`
}

type historyOutcome struct {
	Source      string `json:"source"`
	Destination string `json:"destination,omitempty"`
	Category    string `json:"category"`
	Status      string `json:"status"`
	Sweep       bool   `json:"sweep,omitempty"`
	SourceKept  bool   `json:"source_kept,omitempty"`
	DateSource  string `json:"date_source,omitempty"`
	DateField   string `json:"date_field,omitempty"`
	Suspect     bool   `json:"suspect,omitempty"`
	Warning     string `json:"warning,omitempty"`
	Error       string `json:"error,omitempty"`
	FailureKind string `json:"failure_kind,omitempty"`
}

type historyDetail struct {
	Run      historyRun       `json:"run"`
	Outcomes []historyOutcome `json:"outcomes"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var runID string
	var failedOnly bool
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded runs and their per-file outcomes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			path := cfg.LedgerPath()
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				if jsonOutput {
					return writeJSON(cmd, []historyRun{})
				}
				fmt.Fprintln(out, "No runs recorded yet.")
				return nil
			}
			store, err := ledger.OpenPath(path)
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			defer store.Close()

			if runID == "" {
				if failedOnly {
					return errors.New("--failed requires --run")
				}
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				views := make([]historyRun, 0, len(runs))
				for _, run := range runs {
					views = append(views, newHistoryRun(run))
				}
				if jsonOutput {
					return writeJSON(cmd, views)
				}
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded yet.")
					return nil
				}
				fmt.Fprint(out, renderRunsTable(runs))
				return nil
			}

			run, err := store.GetRun(cmd.Context(), runID)
			if err != nil {
				return err
			}
			records, err := store.Outcomes(cmd.Context(), run.ID, failedOnly)
			if err != nil {
				return err
			}
			sort.SliceStable(records, func(i, j int) bool {
				return natural.Less(records[i].Source, records[j].Source)
			})
			detail := historyDetail{Run: newHistoryRun(run), Outcomes: make([]historyOutcome, 0, len(records))}
			for _, rec := range records {
				detail.Outcomes = append(detail.Outcomes, newHistoryOutcome(rec))
			}
			if jsonOutput {
				return writeJSON(cmd, detail)
			}
			fmt.Fprint(out, renderRunsTable([]ledger.Run{run}))
			if len(records) == 0 {
				fmt.Fprintln(out, "No outcomes recorded.")
				return nil
			}
			fmt.Fprint(out, renderOutcomesTable(records))
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Show the outcomes of one run (id or unique prefix)")
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Only list failed outcomes (with --run)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print history as JSON")
	return cmd
}

func newHistoryRun(run ledger.Run) historyRun {
	view := historyRun{
		ID:          run.ID,
		Command:     run.Command,
		Source:      run.SourceDir,
		Destination: run.DestinationDir,
		Mode:        run.Mode,
		StartedAt:   run.StartedAt.Format(time.RFC3339),
		Total:       run.Total,
		Succeeded:   run.Succeeded,
		Failed:      run.Failed,
		Skipped:     run.Skipped,
		Cancelled:   run.Cancelled,
	}
	if run.Finished() {
		view.FinishedAt = run.FinishedAt.Format(time.RFC3339)
		view.Seconds = roundSeconds(run.FinishedAt.Sub(run.StartedAt))
	}
	return view
}

func newHistoryOutcome(rec ledger.Record) historyOutcome {
	return historyOutcome{
		Source:      rec.Source,
		Destination: rec.Destination,
		Category:    rec.Category,
		Status:      rec.Status,
		Sweep:       rec.Sweep,
		SourceKept:  rec.SourceKept,
		DateSource:  rec.DateSource,
		DateField:   rec.DateField,
		Suspect:     rec.Suspect,
		Warning:     rec.Warning,
		Error:       rec.Error,
		FailureKind: rec.FailureKind,
	}
}

func renderRunsTable(runs []ledger.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		duration := "-"
		if run.Finished() {
			duration = run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String()
		}
		rows = append(rows, []string{
			shortID(run.ID),
			run.Command,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			duration,
			strconv.Itoa(run.Total),
			strconv.Itoa(run.Succeeded),
			strconv.Itoa(run.Failed),
			strconv.Itoa(run.Skipped),
			runState(run),
		})
	}
	return renderTable(
		[]string{"ID", "Command", "Started", "Duration", "Total", "Placed", "Failed", "Skipped", "State"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
	) + "\n"
}

func renderOutcomesTable(records []ledger.Record) string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		detail := rec.Destination
		switch {
		case rec.Error != "":
			detail = rec.Error
		case rec.Warning != "":
			detail = rec.Destination + " (" + rec.Warning + ")"
		}
		pass := "main"
		if rec.Sweep {
			pass = "sweep"
		}
		rows = append(rows, []string{rec.Source, rec.Category, pass, rec.Status, detail})
	}
	return renderTable([]string{"Source", "Category", "Pass", "Status", "Destination / Error"}, rows, nil) + "\n"
}
