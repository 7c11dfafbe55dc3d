// Package services defines shared utilities consumed by the placement
// pipeline and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, pass names, and batch indexes for
//     logging.
//   - Structured error markers plus the Wrap helper that keep failures
//     classifiable (FailureKind) after they are flattened into outcome
//     records.
package services
