package metadata

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Root names the ungrouped top level of a tag dump.
const Root = ""

// ErrUnavailable marks a read that produced no usable metadata: the tool was
// missing, exited non-zero, or printed something that did not parse. Callers
// treat it as an empty mapping.
var ErrUnavailable = errors.New("metadata unavailable")

// Metadata is a two-level tag mapping: section name, then field name. The
// same field may appear in several sections with different values.
type Metadata map[string]map[string]string

// Lookup returns the value of field inside section and whether it exists.
func (m Metadata) Lookup(section, field string) (string, bool) {
	fields, ok := m[section]
	if !ok {
		return "", false
	}
	value, ok := fields[field]
	return value, ok
}

// Set stores value under section and field.
func (m Metadata) Set(section, field, value string) {
	fields, ok := m[section]
	if !ok {
		fields = make(map[string]string)
		m[section] = fields
	}
	fields[field] = value
}

// Sections returns the section names in sorted order, root first.
func (m Metadata) Sections() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len counts fields across all sections.
func (m Metadata) Len() int {
	total := 0
	for _, fields := range m {
		total += len(fields)
	}
	return total
}

// Each visits every field in sorted section and field order.
func (m Metadata) Each(fn func(section, field, value string)) {
	for _, section := range m.Sections() {
		fields := m[section]
		keys := make([]string, 0, len(fields))
		for key := range fields {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fn(section, key, fields[key])
		}
	}
}

// Merge copies fields from other that are not already present.
func (m Metadata) Merge(other Metadata) {
	for section, fields := range other {
		for field, value := range fields {
			if _, exists := m.Lookup(section, field); !exists {
				m.Set(section, field, value)
			}
		}
	}
}

// Tag is one assignment for a Writer. An empty Value clears the tag.
type Tag struct {
	Name  string
	Value string
}

// Reader extracts a tag mapping for one file.
type Reader interface {
	Read(ctx context.Context, path string) (Metadata, error)
}

// Writer rewrites tags on one file in place.
type Writer interface {
	Write(ctx context.Context, path string, tags []Tag) error
}

// ReaderFunc adapts a function to the Reader interface.
type ReaderFunc func(ctx context.Context, path string) (Metadata, error)

func (f ReaderFunc) Read(ctx context.Context, path string) (Metadata, error) {
	return f(ctx, path)
}

// Chain tries each reader in order and returns the first non-empty mapping.
type Chain []Reader

func (c Chain) Read(ctx context.Context, path string) (Metadata, error) {
	var errs []error
	for _, reader := range c {
		if reader == nil {
			continue
		}
		md, err := reader.Read(ctx, path)
		if err == nil && md.Len() > 0 {
			return md, nil
		}
		if err != nil {
			errs = append(errs, err)
		}
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 0 {
		return Metadata{}, nil
	}
	return Metadata{}, fmt.Errorf("%w: %w", ErrUnavailable, errors.Join(errs...))
}

// ReadOrEmpty calls r and always returns a usable mapping. The error is
// returned for logging only.
func ReadOrEmpty(ctx context.Context, r Reader, path string) (Metadata, error) {
	if r == nil {
		return Metadata{}, nil
	}
	md, err := r.Read(ctx, path)
	if md == nil {
		md = Metadata{}
	}
	if err != nil {
		if !errors.Is(err, ErrUnavailable) {
			err = fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return Metadata{}, err
	}
	return md, nil
}
