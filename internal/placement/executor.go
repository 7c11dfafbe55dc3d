package placement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"mediasort/internal/dating"
	"mediasort/internal/fileutil"
	"mediasort/internal/logging"
	"mediasort/internal/media/category"
	"mediasort/internal/metadata"
	"mediasort/internal/naming"
	"mediasort/internal/services"
)

const tagTimeLayout = "2006:01:02 15:04:05"

// Options controls how files are written into the destination.
type Options struct {
	Layout            naming.Layout
	Move              bool
	VerifyCopy        bool
	CorrectExtensions bool
	WriteAllDates     bool
	// Location interprets resolved wall-clock times when stamping the
	// destination mtime, matching how exiftool reads FileModifyDate. Nil
	// means time.Local.
	Location *time.Location
}

// History answers whether a sweep already placed this exact source file.
type History interface {
	PlacedDuringSweep(ctx context.Context, path string, size int64, modTime time.Time) (bool, error)
}

// Dependencies are the collaborators an Executor needs. Reader, Writer and
// History may be nil.
type Dependencies struct {
	FS       afero.Fs
	Reader   metadata.Reader
	Writer   metadata.Writer
	Resolver *dating.Resolver
	History  History
	Logger   *slog.Logger
}

// Executor places single files. It is safe for concurrent use.
type Executor struct {
	opts     Options
	fs       afero.Fs
	reader   metadata.Reader
	writer   metadata.Writer
	resolver *dating.Resolver
	history  History
	logger   *slog.Logger
}

// NewExecutor builds an executor.
func NewExecutor(opts Options, deps Dependencies) *Executor {
	fs := deps.FS
	if fs == nil {
		fs = afero.NewOsFs()
	}
	resolver := deps.Resolver
	if resolver == nil {
		resolver = dating.NewResolver(time.Time{}, 0)
	}
	return &Executor{
		opts:     opts,
		fs:       fs,
		reader:   deps.Reader,
		writer:   deps.Writer,
		resolver: resolver,
		history:  deps.History,
		logger:   logging.NewComponentLogger(deps.Logger, "placement"),
	}
}

// Plan classifies path, reads its metadata, resolves its date and computes
// the proposed destination. It writes nothing.
func (e *Executor) Plan(ctx context.Context, path string, sweep bool) (Plan, error) {
	info, err := e.fs.Stat(path)
	if err != nil {
		return Plan{}, services.Wrap(services.ErrNotFound, "placement", "stat source", path, err)
	}
	if info.IsDir() {
		return Plan{}, services.Wrap(services.ErrValidation, "placement", "stat source", "is a directory", nil)
	}
	file := MediaFile{
		Path:     path,
		Ext:      strings.ToLower(filepath.Ext(path)),
		Category: category.Classify(path),
		Size:     info.Size(),
		ModTime:  info.ModTime(),
	}

	md, mdErr := metadata.ReadOrEmpty(ctx, e.reader, path)
	file.Metadata = md

	res := e.resolver.Resolve(md, path, file.ModTime)
	subsec := dating.ResolveSubseconds(md)

	ext := file.Ext
	if e.opts.CorrectExtensions {
		ext = category.CorrectExtension(e.fs, path, file.Category)
	}
	errorTier := sweep || res.Suspect
	dir := e.opts.Layout.Directory(file.Category, res.Time, file.Size, errorTier)

	return Plan{
		File:        file,
		Resolution:  res,
		Subseconds:  subsec,
		Extension:   ext,
		Directory:   dir,
		Proposed:    filepath.Join(dir, naming.FileName(res.Time, subsec.Value, ext)),
		ErrorTier:   errorTier,
		MetadataErr: mdErr,
	}, nil
}

// Place runs one file through the pipeline. It never returns an error: every
// failure is captured in the outcome so the batch can continue.
func (e *Executor) Place(ctx context.Context, path string, sweep bool) Outcome {
	start := time.Now()
	outcome := e.place(ctx, path, sweep)
	outcome.Elapsed = time.Since(start)
	return outcome
}

func (e *Executor) place(ctx context.Context, path string, sweep bool) Outcome {
	logger := logging.WithContext(ctx, e.logger)
	outcome := Outcome{Source: path, Sweep: sweep, Category: category.Classify(path)}

	fail := func(operation string, err error) Outcome {
		wrapped := err
		if !errors.Is(err, services.ErrNotFound) && !errors.Is(err, services.ErrValidation) {
			wrapped = services.Wrap(services.ErrTransient, "placement", operation, filepath.Base(path), err)
		}
		outcome.Status = StatusFailed
		outcome.Error = wrapped.Error()
		outcome.FailureKind = services.FailureKind(wrapped)
		logging.WarnWithContext(logger, "file placement failed", "placement_failed",
			logging.Source(path),
			logging.Destination(outcome.Destination),
			logging.Error(wrapped),
			logging.String(logging.FieldErrorHint, "check destination permissions and free space"),
			logging.String(logging.FieldImpact, "file left at source"),
		)
		return outcome
	}

	if outcome.Category == category.Unknown && !sweep {
		outcome.Status = StatusSkipped
		logger.Debug("unsupported file type skipped", logging.Source(path))
		return outcome
	}
	if err := ctx.Err(); err != nil {
		return fail("start", err)
	}
	// A started file runs to completion; exiftool's own timeout bounds it.
	ctx = context.WithoutCancel(ctx)

	if sweep && e.history != nil {
		info, err := e.fs.Stat(path)
		if err == nil {
			seen, herr := e.history.PlacedDuringSweep(ctx, path, info.Size(), info.ModTime())
			if herr != nil {
				logger.Debug("sweep history lookup failed", logging.Source(path), logging.Error(herr))
			}
			if seen {
				outcome.Status = StatusSkipped
				outcome.SourceKept = true
				logger.Debug("already placed by an earlier sweep", logging.Source(path))
				return outcome
			}
		}
	}

	plan, err := e.Plan(ctx, path, sweep)
	if err != nil {
		return fail("plan", err)
	}
	if plan.MetadataErr != nil {
		logger.Debug("metadata unavailable; resolving from filename and mtime",
			logging.Source(path),
			logging.Error(plan.MetadataErr),
		)
	}
	outcome.Size = plan.File.Size
	outcome.ModTime = plan.File.ModTime
	outcome.Resolved = plan.Resolution.Time
	outcome.DateSource = plan.Resolution.Source
	outcome.DateField = plan.Resolution.Field
	outcome.Suspect = plan.Resolution.Suspect
	outcome.Subseconds = plan.Subseconds.Value
	outcome.Cleaned = plan.Subseconds.NeedsCleaning

	if err := naming.EnsureDir(e.fs, plan.Directory); err != nil {
		return fail("create directory", err)
	}
	dest, reserved, err := naming.Reserve(e.fs, plan.Proposed)
	if err != nil {
		return fail("reserve destination", err)
	}
	outcome.Destination = dest

	keepSource := sweep && plan.File.Category == category.Unknown
	move := e.opts.Move && !keepSource
	if err := e.transfer(path, dest, reserved, move); err != nil {
		if errors.Is(err, fileutil.ErrSourceNotRemoved) {
			return fail("remove source", err)
		}
		if rmErr := e.fs.Remove(dest); rmErr != nil {
			logger.Debug("reservation cleanup failed", logging.Destination(dest), logging.Error(rmErr))
		}
		outcome.Destination = ""
		return fail("transfer", err)
	}

	if plan.File.Category != category.Unknown {
		if warning := e.rewriteMetadata(ctx, dest, plan); warning != "" {
			outcome.Warning = warning
			logging.WarnWithContext(logger, "metadata rewrite failed", "metadata_write_failed",
				logging.Destination(dest),
				logging.String("reason", warning),
				logging.String(logging.FieldErrorHint, "check exiftool installation"),
				logging.String(logging.FieldImpact, "destination keeps its original timestamp tags"),
			)
		}
	}
	mtime := e.destinationModTime(plan)
	if err := e.fs.Chtimes(dest, mtime, mtime); err != nil {
		logger.Debug("set destination mtime failed", logging.Destination(dest), logging.Error(err))
	}

	switch {
	case move:
	case keepSource:
		outcome.SourceKept = true
	default:
		if err := e.fs.Remove(path); err != nil {
			return fail("remove source", err)
		}
	}

	outcome.Status = StatusPlaced
	logger.Debug("file placed",
		logging.Source(path),
		logging.Destination(dest),
		logging.String("date_source", string(plan.Resolution.Source)),
	)
	return outcome
}

func (e *Executor) transfer(src, dest string, reserved afero.File, move bool) error {
	if !move {
		return fileutil.CopyInto(e.fs, src, reserved, e.opts.VerifyCopy)
	}
	if err := reserved.Close(); err != nil {
		return fmt.Errorf("close reservation: %w", err)
	}
	return fileutil.MoveFile(e.fs, src, dest, e.opts.VerifyCopy)
}

// destinationModTime keeps the source instant for mtime-derived dates. Other
// resolved dates are camera wall-clock values and are read in the local zone.
func (e *Executor) destinationModTime(plan Plan) time.Time {
	if plan.Resolution.Source == dating.SourceModTime && !plan.File.ModTime.IsZero() {
		return plan.File.ModTime
	}
	loc := e.opts.Location
	if loc == nil {
		loc = time.Local
	}
	t := plan.Resolution.Time
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
}

// rewriteMetadata returns a warning message, or "" on success.
func (e *Executor) rewriteMetadata(ctx context.Context, dest string, plan Plan) string {
	if e.writer == nil {
		return ""
	}
	tags := RewriteTags(plan.Resolution.Time, plan.Subseconds, e.opts.WriteAllDates)
	if err := e.writer.Write(ctx, dest, tags); err != nil {
		return err.Error()
	}
	return ""
}

// RewriteTags returns the tag assignments for a placed file. Corrupt
// subseconds clear the SubSec tags and nothing else.
func RewriteTags(t time.Time, subsec dating.Subseconds, allDates bool) []metadata.Tag {
	subsecFields := []string{"SubSecTimeOriginal", "SubSecTimeDigitized", "SubSecTime"}
	if subsec.NeedsCleaning {
		tags := make([]metadata.Tag, 0, len(subsecFields))
		for _, field := range subsecFields {
			tags = append(tags, metadata.Tag{Name: field})
		}
		return tags
	}
	stamp := t.Format(tagTimeLayout)
	tags := []metadata.Tag{{Name: "FileModifyDate", Value: stamp}}
	if allDates {
		for _, field := range []string{"DateTimeOriginal", "CreateDate", "ModifyDate"} {
			tags = append(tags, metadata.Tag{Name: field, Value: stamp})
		}
	}
	if subsec.Value != "" && !strings.Contains(subsec.Value, "964") {
		for _, field := range subsecFields {
			tags = append(tags, metadata.Tag{Name: field, Value: subsec.Value})
		}
	}
	return tags
}
