// Package ledger records organize and sweep runs in SQLite.
//
// Each run gets a UUID row in runs; every file the scheduler touches is
// stored in outcomes with its destination, resolved date and failure text.
// The history command reads it back, and sweeps consult it to avoid
// re-copying unknown-type sources they deliberately left in place.
package ledger
