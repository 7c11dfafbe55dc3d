package dating

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"mediasort/internal/metadata"
)

// Source names the cascade step that produced a resolution.
type Source string

const (
	SourceFilename      Source = "filename"
	SourceMetadata      Source = "metadata"
	SourceEmbedded      Source = "embedded"
	SourceYearField     Source = "year_field"
	SourceLooseFilename Source = "loose_filename"
	SourceModTime       Source = "mtime"
)

// Resolution is the single capture instant chosen for a file.
type Resolution struct {
	Time   time.Time
	Source Source
	// Field is "section:field" for metadata-derived results.
	Field string
	// Suspect marks an instant at or before the cutoff, or too far in the
	// future. Such files go to manual review.
	Suspect bool
	// Rejected holds the first implausible candidate that was skipped.
	Rejected time.Time
}

var (
	dateSections = []string{"ExifIFD", "IFD0", "XMP-xmp", "Composite", metadata.Root}
	dateFields   = []string{"DateTimeOriginal", "CreateDate", "DateTimeCreated", "MediaCreateDate", "TrackCreateDate", "FileModifyDate"}
	dateLayouts  = []string{
		"2006:01:02 15:04:05",
		"2006-01-02 15:04:05",
		"2006:01:02 15-04-05",
		"2006-01-02 15-04-05",
		"2006-01-02T15:04:05",
		"2006:01:02",
	}
	yearFields  = []string{"TDRC", "Year"}
	yearLayouts = []string{"2006", "2006-01-02", "2006-01"}

	filenamePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})_(\d{2})-(\d{2})-(\d{2})`),
		regexp.MustCompile(`(\d{4})(\d{2})(\d{2})_(\d{2})(\d{2})(\d{2})`),
	}
	zoneSuffix    = regexp.MustCompile(`[-+]\d{2}:\d{2}$`)
	embeddedStamp = regexp.MustCompile(`\d{4}:\d{2}:\d{2} \d{2}:\d{2}:\d{2}`)
	looseDate8    = regexp.MustCompile(`\d{8}`)
	looseDate6    = regexp.MustCompile(`\d{6}`)
	looseTime     = regexp.MustCompile(`(\d{2})[-_]?(\d{2})[-_]?(\d{2})`)
)

// Resolver runs the date cascade with plausibility bounds.
type Resolver struct {
	// Cutoff is the last excluded day; candidates must fall after it.
	Cutoff          time.Time
	FutureTolerance time.Duration
	Now             func() time.Time
}

// NewResolver returns a resolver bounded by cutoff and now+tolerance.
func NewResolver(cutoff time.Time, tolerance time.Duration) *Resolver {
	return &Resolver{Cutoff: cutoff, FutureTolerance: tolerance, Now: time.Now}
}

// Resolve returns the best creation instant for path. It never fails: when
// every other step comes up empty the file's modification time is used.
func (r *Resolver) Resolve(md metadata.Metadata, path string, modTime time.Time) Resolution {
	var rejected time.Time
	consider := func(t time.Time) bool {
		if r.plausible(t) {
			return true
		}
		if rejected.IsZero() {
			rejected = t
		}
		return false
	}
	finish := func(res Resolution) Resolution {
		res.Rejected = rejected
		return res
	}

	name := filepath.Base(path)
	if t, ok := fromFilename(name); ok && consider(t) {
		return finish(Resolution{Time: t, Source: SourceFilename})
	}

	for _, section := range dateSections {
		for _, field := range dateFields {
			value, ok := md.Lookup(section, field)
			if !ok {
				continue
			}
			t, ok := parseStamp(value, dateLayouts)
			if ok && consider(t) {
				return finish(Resolution{Time: t, Source: SourceMetadata, Field: fieldLabel(section, field)})
			}
		}
	}

	if t, field, ok := r.earliestEmbedded(md); ok {
		return finish(Resolution{Time: t, Source: SourceEmbedded, Field: field})
	}

	for _, section := range md.Sections() {
		for _, field := range yearFields {
			value, ok := md.Lookup(section, field)
			if !ok {
				continue
			}
			t, ok := parseStamp(value, yearLayouts)
			if ok && consider(t) {
				return finish(Resolution{Time: t, Source: SourceYearField, Field: fieldLabel(section, field)})
			}
		}
	}

	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if t, ok := fromLooseFilename(stem); ok && consider(t) {
		return finish(Resolution{Time: t, Source: SourceLooseFilename})
	}

	t := modTime.UTC().Truncate(time.Second)
	return finish(Resolution{
		Time:    t,
		Source:  SourceModTime,
		Suspect: !r.plausible(t) || !rejected.IsZero(),
	})
}

func (r *Resolver) plausible(t time.Time) bool {
	if !r.Cutoff.IsZero() {
		lastExcluded := time.Date(r.Cutoff.Year(), r.Cutoff.Month(), r.Cutoff.Day(), 0, 0, 0, 0, time.UTC)
		if t.Before(lastExcluded.AddDate(0, 0, 1)) {
			return false
		}
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	return !t.After(now().UTC().Add(r.FutureTolerance))
}

// earliestEmbedded scans every value for date-time substrings and keeps the
// earliest plausible one.
func (r *Resolver) earliestEmbedded(md metadata.Metadata) (time.Time, string, bool) {
	var (
		best  time.Time
		field string
	)
	md.Each(func(section, name, value string) {
		for _, match := range embeddedStamp.FindAllString(value, -1) {
			t, err := time.ParseInLocation(dateLayouts[0], match, time.UTC)
			if err != nil || !r.plausible(t) {
				continue
			}
			if best.IsZero() || t.Before(best) {
				best = t
				field = fieldLabel(section, name)
			}
		}
	})
	return best, field, !best.IsZero()
}

func fromFilename(name string) (time.Time, bool) {
	for _, pattern := range filenamePatterns {
		m := pattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		if t, ok := buildTime(m[1], m[2], m[3], m[4], m[5], m[6]); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func fromLooseFilename(stem string) (time.Time, bool) {
	if loc := looseDate8.FindStringIndex(stem); loc != nil {
		digits := stem[loc[0]:loc[1]]
		if t, ok := looseDateTime(stem, digits[:4], digits[4:6], digits[6:8], loc[1]); ok {
			return t, true
		}
	}
	if loc := looseDate6.FindStringIndex(stem); loc != nil {
		digits := stem[loc[0]:loc[1]]
		return looseDateTime(stem, "20"+digits[:2], digits[2:4], digits[4:6], loc[1])
	}
	return time.Time{}, false
}

// looseDateTime builds the date, taking a time of day from the text after end
// when one follows.
func looseDateTime(stem, year, month, day string, end int) (time.Time, bool) {
	if m := looseTime.FindStringSubmatch(stem[end:]); m != nil {
		if t, ok := buildTime(year, month, day, m[1], m[2], m[3]); ok {
			return t, true
		}
	}
	return buildTime(year, month, day, "00", "00", "00")
}

// buildTime rejects values that time.Date would silently normalize, such as
// February 30th.
func buildTime(parts ...string) (time.Time, bool) {
	nums := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return time.Time{}, false
		}
		nums[i] = n
	}
	if nums[3] > 23 || nums[4] > 59 || nums[5] > 59 {
		return time.Time{}, false
	}
	t := time.Date(nums[0], time.Month(nums[1]), nums[2], nums[3], nums[4], nums[5], 0, time.UTC)
	if t.Year() != nums[0] || int(t.Month()) != nums[1] || t.Day() != nums[2] {
		return time.Time{}, false
	}
	return t, true
}

func parseStamp(value string, layouts []string) (time.Time, bool) {
	value = zoneSuffix.ReplaceAllString(strings.TrimSpace(value), "")
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func fieldLabel(section, field string) string {
	if section == metadata.Root {
		return field
	}
	return section + ":" + field
}
