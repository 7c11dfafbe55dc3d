package scheduler

import "sync/atomic"

// Batch is a contiguous slice of the discovered files handled by one worker.
type Batch struct {
	Index int
	Paths []string
	Sweep bool
}

// Partition splits paths into count contiguous batches whose sizes differ by
// at most one; the first len(paths)%count batches get the extra file.
func Partition(paths []string, count int, sweep bool) []Batch {
	if len(paths) == 0 {
		return nil
	}
	count = max(1, min(count, len(paths)))
	size, extra := len(paths)/count, len(paths)%count

	batches := make([]Batch, 0, count)
	start := 0
	for i := 0; i < count; i++ {
		n := size
		if i < extra {
			n++
		}
		batches = append(batches, Batch{Index: i, Paths: paths[start : start+n], Sweep: sweep})
		start += n
	}
	return batches
}

// Counter is the shared count of processed files.
type Counter struct {
	n atomic.Int64
}

// Inc records one processed file and returns the new total.
func (c *Counter) Inc() int64 {
	return c.n.Add(1)
}

// Load returns the current total.
func (c *Counter) Load() int64 {
	return c.n.Load()
}
