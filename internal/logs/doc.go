// Package logs reads the per-run log files written by organize and sweep.
//
// Latest finds the newest run log in the log directory; Tail prints its last
// lines with bounded memory and, in follow mode, polls for appended lines
// until the caller's context ends.
package logs
