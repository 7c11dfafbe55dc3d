// Package logging assembles structured slog loggers and formatting helpers used
// across mediasort.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with the run ID, pass, and batch index. Per-run log files are named by
// RunLogPath and pruned by CleanupOldLogs. The package also provides a no-op
// logger for tests and wiring code that cannot fail.
package logging
