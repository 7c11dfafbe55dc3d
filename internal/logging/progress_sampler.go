package logging

import (
	"strings"
	"sync"
)

// ProgressSampler throttles progress log lines for non-interactive output.
// A line is emitted when the percentage crosses a bucket boundary or the
// pass changes.
type ProgressSampler struct {
	mu         sync.Mutex
	bucketSize float64
	lastPass   string
	lastBucket int
}

// NewProgressSampler constructs a sampler with the given bucket size in
// percent (default 5).
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 5
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether a progress event should be logged. A negative
// percent means unknown and only pass changes emit.
func (s *ProgressSampler) ShouldLog(percent float64, pass string) bool {
	if s == nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	pass = strings.TrimSpace(pass)
	emit := false
	if pass != s.lastPass {
		s.lastPass = pass
		s.lastBucket = -1
		emit = true
	}
	if percent < 0 {
		return emit
	}
	if percent > 100 {
		percent = 100
	}
	bucket := int(percent / s.bucketSize)
	if bucket > s.lastBucket {
		s.lastBucket = bucket
		emit = true
	}
	return emit
}

// Reset clears the sampler state.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.lastPass = ""
	s.lastBucket = -1
	s.mu.Unlock()
}
