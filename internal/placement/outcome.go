package placement

import (
	"time"

	"mediasort/internal/dating"
	"mediasort/internal/media/category"
	"mediasort/internal/metadata"
)

// Status is the terminal state of one file.
type Status string

const (
	StatusPlaced  Status = "placed"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// MediaFile is a discovered source file.
type MediaFile struct {
	Path     string
	Ext      string
	Category category.Category
	Size     int64
	ModTime  time.Time
	Metadata metadata.Metadata
}

// Plan is everything decided about a file before anything is written.
type Plan struct {
	File       MediaFile
	Resolution dating.Resolution
	Subseconds dating.Subseconds
	Extension  string
	Directory  string
	// Proposed is the collision-free name only at the moment it is reserved.
	Proposed  string
	ErrorTier bool
	// MetadataErr is the reader failure, if any. The plan is still usable.
	MetadataErr error
}

// Outcome records what happened to one file.
type Outcome struct {
	Source      string
	Destination string
	Category    category.Category
	Status      Status
	Sweep       bool
	Size        int64
	ModTime     time.Time
	Resolved    time.Time
	DateSource  dating.Source
	DateField   string
	Subseconds  string
	Cleaned     bool
	Suspect     bool
	SourceKept  bool
	Warning     string
	Error       string
	FailureKind string
	Elapsed     time.Duration
}

// Failed reports whether the outcome counts as a failure.
func (o Outcome) Failed() bool {
	return o.Status == StatusFailed
}
