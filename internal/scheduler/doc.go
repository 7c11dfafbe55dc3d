// Package scheduler fans a file list out to a bounded pool of workers.
//
// Files are split into contiguous batches sized from a resources.Plan. Each
// worker places its batch file by file, bumping a shared atomic Counter that
// a monitor goroutine samples for progress display. Batch outcomes are
// folded into a RunResult as batches finish and handed to a Recorder.
package scheduler
