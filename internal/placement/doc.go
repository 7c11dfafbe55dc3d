// Package placement moves one file from the source tree into the library.
//
// Executor.Place runs the per-file pipeline: classify, read metadata,
// resolve the capture date and subseconds, build the canonical name,
// reserve a collision-free destination, copy or move, rewrite timestamp
// tags, then remove the source. Every failure is captured in the returned
// Outcome; nothing here aborts a batch.
//
// Executor.Plan performs the read-only half of that pipeline and backs the
// inspect command.
package placement
