package testsupport

import (
	"context"
	"sync"

	"mediasort/internal/metadata"
)

// FakeReader serves canned metadata keyed by path. Paths without an entry
// return an empty mapping, or Err when set.
type FakeReader struct {
	mu    sync.Mutex
	Data  map[string]metadata.Metadata
	Err   error
	calls int
}

func (r *FakeReader) Read(ctx context.Context, path string) (metadata.Metadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if err := ctx.Err(); err != nil {
		return metadata.Metadata{}, err
	}
	if md, ok := r.Data[path]; ok {
		return md, nil
	}
	if r.Err != nil {
		return metadata.Metadata{}, r.Err
	}
	return metadata.Metadata{}, nil
}

// Calls returns how many reads were made.
func (r *FakeReader) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// FakeWriter records tag writes per path and optionally fails them.
type FakeWriter struct {
	mu     sync.Mutex
	Err    error
	writes map[string][]metadata.Tag
}

func (w *FakeWriter) Write(_ context.Context, path string, tags []metadata.Tag) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.writes == nil {
		w.writes = make(map[string][]metadata.Tag)
	}
	w.writes[path] = append([]metadata.Tag(nil), tags...)
	return w.Err
}

// Tags returns the last tags written to path.
func (w *FakeWriter) Tags(path string) ([]metadata.Tag, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	tags, ok := w.writes[path]
	return tags, ok
}
