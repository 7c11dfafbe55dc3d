// Package metadata models per-file tag dumps and the ports used to read and
// write them.
//
// Metadata is a section → field → value mapping with explicit presence
// (Lookup returns ok=false for absent fields). Reader and Writer are the
// capability interfaces the placement pipeline depends on; the exiftool and
// exifnative packages implement them. A failed read is reported as
// ErrUnavailable and treated as an empty mapping.
package metadata
