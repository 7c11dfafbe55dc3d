// Package sweep drives a complete organize run over a source tree.
//
// A run has up to two passes. The main pass places every file of a known
// type. Empty source directories are then removed, and the sweep pass
// re-scans the source including files of unknown type, routing everything
// it finds to the Error tier for manual review. A cancelled main pass skips
// the sweep.
package sweep
