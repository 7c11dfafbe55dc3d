// Package dating derives a single capture instant for a media file.
//
// Resolve walks a fixed cascade: strict filename patterns, structured
// metadata date fields, date-time strings harvested from any tag, year-only
// tags, loose digit runs in the filename, and finally the file's
// modification time. Candidates before the configured cutoff or too far in
// the future are skipped; when only such candidates exist the result is
// flagged Suspect so placement can route the file to manual review.
//
// ResolveSubseconds extracts sub-second precision and detects the corrupt
// sentinel values some cameras write into SubSec tags.
package dating
