package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mediasort/internal/services"
)

// Run is one organize or sweep invocation.
type Run struct {
	ID             string
	Command        string
	SourceDir      string
	DestinationDir string
	Mode           string
	StartedAt      time.Time
	FinishedAt     time.Time
	Total          int
	Succeeded      int
	Failed         int
	Skipped        int
	Cancelled      bool
}

// Finished reports whether FinishRun was recorded.
func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// Totals are the final counters of a run.
type Totals struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
	Cancelled bool
}

// timeLayout has fixed width so stored values sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = `id, command, source_dir, destination_dir, mode, started_at, finished_at,
	total, succeeded, failed, skipped, cancelled`

// BeginRun inserts a run row with a fresh id.
func (s *Store) BeginRun(ctx context.Context, command, sourceDir, destinationDir, mode string) (Run, error) {
	run := Run{
		ID:             uuid.NewString(),
		Command:        command,
		SourceDir:      sourceDir,
		DestinationDir: destinationDir,
		Mode:           mode,
		StartedAt:      time.Now().UTC(),
	}
	err := s.exec(ctx,
		`INSERT INTO runs (id, command, source_dir, destination_dir, mode, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Command, run.SourceDir, run.DestinationDir, run.Mode, formatTime(run.StartedAt),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// FinishRun stores the final counters of a run.
func (s *Store) FinishRun(ctx context.Context, id string, totals Totals) error {
	err := s.exec(ctx,
		`UPDATE runs SET finished_at = ?, total = ?, succeeded = ?, failed = ?, skipped = ?, cancelled = ? WHERE id = ?`,
		formatTime(time.Now().UTC()), totals.Total, totals.Succeeded, totals.Failed, totals.Skipped, boolInt(totals.Cancelled), id,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	return nil
}

// GetRun loads one run by id or unique id prefix.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? ORDER BY started_at DESC LIMIT 2`,
		id, id+"%",
	)
	if err != nil {
		return Run{}, fmt.Errorf("query run: %w", err)
	}
	defer rows.Close()

	runs, err := scanRuns(rows)
	if err != nil {
		return Run{}, err
	}
	for _, run := range runs {
		if run.ID == id {
			return run, nil
		}
	}
	switch len(runs) {
	case 0:
		return Run{}, services.Wrap(services.ErrNotFound, "ledger", "get run", id, nil)
	case 1:
		return runs[0], nil
	default:
		return Run{}, services.Wrap(services.ErrValidation, "ledger", "get run", "ambiguous run id prefix "+id, nil)
	}
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

// LastRun returns the most recent run, or ErrNotFound when the ledger is
// empty.
func (s *Store) LastRun(ctx context.Context) (Run, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, services.Wrap(services.ErrNotFound, "ledger", "last run", "no runs recorded", nil)
	}
	return runs[0], nil
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		var (
			run       Run
			started   string
			finished  sql.NullString
			cancelled int
		)
		if err := rows.Scan(&run.ID, &run.Command, &run.SourceDir, &run.DestinationDir, &run.Mode,
			&started, &finished, &run.Total, &run.Succeeded, &run.Failed, &run.Skipped, &cancelled); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = parseTime(started)
		if finished.Valid {
			run.FinishedAt = parseTime(finished.String)
		}
		run.Cancelled = cancelled != 0
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
