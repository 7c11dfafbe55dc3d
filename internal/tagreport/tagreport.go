package tagreport

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/maruel/natural"
	"golang.org/x/sync/errgroup"

	"mediasort/internal/logging"
	"mediasort/internal/metadata"
)

// Group is one metadata section and the tag names seen in it.
type Group struct {
	Name string
	Tags []string
}

// Failure records a file whose metadata could not be read.
type Failure struct {
	Path  string
	Error string
}

// Report is the unique-tag inventory of a set of files.
type Report struct {
	Generated time.Time
	Files     int
	Groups    []Group
	Failures  []Failure
	Elapsed   time.Duration
}

// TagCount returns the number of unique section/tag pairs.
func (r Report) TagCount() int {
	total := 0
	for _, group := range r.Groups {
		total += len(group.Tags)
	}
	return total
}

// Options tune Collect.
type Options struct {
	// Workers bounds concurrent metadata reads; values below 1 mean 1.
	Workers int
	// OnFile is called after each file, from any worker.
	OnFile func()
	Logger *slog.Logger
}

// Collect reads every path and gathers the distinct tag names per section.
// Root-level scalars such as SourceFile are not part of any section and are
// left out. Read failures are recorded and do not stop the walk; only
// cancellation does.
func Collect(ctx context.Context, reader metadata.Reader, paths []string, opts Options) (Report, error) {
	logger := logging.NewComponentLogger(opts.Logger, "tagreport")
	started := time.Now()

	var (
		mu       sync.Mutex
		sections = make(map[string]map[string]struct{})
		failures []Failure
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Workers, 1))
	for _, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			md, err := reader.Read(gctx, path)
			if opts.OnFile != nil {
				defer opts.OnFile()
			}
			if err != nil || !hasSections(md) {
				reason := "no metadata found"
				if err != nil {
					reason = err.Error()
				}
				logger.Debug("tag read failed", logging.Source(path), logging.String("reason", reason))
				mu.Lock()
				failures = append(failures, Failure{Path: path, Error: reason})
				mu.Unlock()
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			md.Each(func(section, field, _ string) {
				if section == metadata.Root {
					return
				}
				tags, ok := sections[section]
				if !ok {
					tags = make(map[string]struct{})
					sections[section] = tags
				}
				tags[field] = struct{}{}
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	report := Report{
		Generated: time.Now(),
		Files:     len(paths),
		Groups:    make([]Group, 0, len(sections)),
		Failures:  failures,
		Elapsed:   time.Since(started),
	}
	for name, tags := range sections {
		group := Group{Name: name, Tags: make([]string, 0, len(tags))}
		for tag := range tags {
			group.Tags = append(group.Tags, tag)
		}
		sort.Sort(natural.StringSlice(group.Tags))
		report.Groups = append(report.Groups, group)
	}
	sort.Slice(report.Groups, func(i, j int) bool {
		return natural.Less(report.Groups[i].Name, report.Groups[j].Name)
	})
	sort.Slice(report.Failures, func(i, j int) bool {
		return natural.Less(report.Failures[i].Path, report.Failures[j].Path)
	})
	return report, nil
}

// FormatFor picks the output format for path: csv for a .csv extension,
// text otherwise.
func FormatFor(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return FormatCSV
	}
	return FormatText
}

// hasSections reports whether md holds tags beyond the root scalars.
func hasSections(md metadata.Metadata) bool {
	for section, fields := range md {
		if section != metadata.Root && len(fields) > 0 {
			return true
		}
	}
	return false
}
