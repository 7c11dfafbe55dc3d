package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mediasort/internal/placement"
)

// Record is a stored per-file outcome.
type Record struct {
	ID          int64
	RunID       string
	Source      string
	Destination string
	Category    string
	Status      string
	Sweep       bool
	SourceKept  bool
	Size        int64
	ModTime     time.Time
	Resolved    time.Time
	DateSource  string
	DateField   string
	Subseconds  string
	Cleaned     bool
	Suspect     bool
	Warning     string
	Error       string
	FailureKind string
	RecordedAt  time.Time
}

// RecordOutcomes stores a batch of outcomes in one transaction.
func (s *Store) RecordOutcomes(ctx context.Context, runID string, outcomes []placement.Outcome) error {
	if len(outcomes) == 0 {
		return nil
	}
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin outcome tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO outcomes (
			run_id, source, destination, category, status, sweep, source_kept, size, mod_time_ns,
			resolved_at, date_source, date_field, subseconds, cleaned, suspect, warning, error,
			failure_kind, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare outcome insert: %w", err)
		}
		defer stmt.Close()

		now := formatTime(time.Now().UTC())
		for _, o := range outcomes {
			var modNs int64
			if !o.ModTime.IsZero() {
				modNs = o.ModTime.UnixNano()
			}
			if _, err := stmt.ExecContext(ctx,
				runID, o.Source, o.Destination, string(o.Category), string(o.Status),
				boolInt(o.Sweep), boolInt(o.SourceKept), o.Size, modNs,
				formatTime(o.Resolved), string(o.DateSource), o.DateField, o.Subseconds,
				boolInt(o.Cleaned), boolInt(o.Suspect), o.Warning, o.Error, o.FailureKind, now,
			); err != nil {
				return fmt.Errorf("insert outcome %s: %w", o.Source, err)
			}
		}
		return tx.Commit()
	})
}

// Outcomes lists the outcomes of a run in insertion order.
func (s *Store) Outcomes(ctx context.Context, runID string, failedOnly bool) ([]Record, error) {
	ctx = ensureContext(ctx)
	query := `SELECT id, run_id, source, destination, category, status, sweep, source_kept, size,
		mod_time_ns, resolved_at, date_source, date_field, subseconds, cleaned, suspect, warning,
		error, failure_kind, recorded_at FROM outcomes WHERE run_id = ?`
	if failedOnly {
		query += ` AND status = 'failed'`
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec                                     Record
			destination, resolved, dateSource       sql.NullString
			dateField, subseconds, warning, errText sql.NullString
			failureKind                             sql.NullString
			recorded                                string
			sweep, kept, cleaned, suspect           int
			modNs                                   int64
		)
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.Source, &destination, &rec.Category, &rec.Status,
			&sweep, &kept, &rec.Size, &modNs, &resolved, &dateSource, &dateField, &subseconds,
			&cleaned, &suspect, &warning, &errText, &failureKind, &recorded); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		rec.Destination = destination.String
		rec.Sweep = sweep != 0
		rec.SourceKept = kept != 0
		if modNs != 0 {
			rec.ModTime = time.Unix(0, modNs).UTC()
		}
		rec.Resolved = parseTime(resolved.String)
		rec.DateSource = dateSource.String
		rec.DateField = dateField.String
		rec.Subseconds = subseconds.String
		rec.Cleaned = cleaned != 0
		rec.Suspect = suspect != 0
		rec.Warning = warning.String
		rec.Error = errText.String
		rec.FailureKind = failureKind.String
		rec.RecordedAt = parseTime(recorded)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return records, nil
}

// PlacedDuringSweep reports whether a sweep already copied this source file
// and left it in place. The fingerprint is path, size and modification time.
func (s *Store) PlacedDuringSweep(ctx context.Context, path string, size int64, modTime time.Time) (bool, error) {
	ctx = ensureContext(ctx)
	var found int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM outcomes
		 WHERE source = ? AND size = ? AND mod_time_ns = ? AND sweep = 1 AND source_kept = 1 AND status = 'placed'`,
		path, size, modTime.UnixNano(),
	).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("query sweep history: %w", err)
	}
	return found > 0, nil
}
