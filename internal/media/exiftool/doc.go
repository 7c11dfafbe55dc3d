// Package exiftool provides a typed wrapper around the exiftool command.
//
// Key types:
//   - Tool: implements metadata.Reader and metadata.Writer by shelling out
//
// Primary entry points:
//   - Tool.Read: runs `exiftool -json -a -u -g1` and parses the first record
//   - Tool.Write: runs `exiftool -overwrite_original -TAG=value ...`
//   - Parse: decodes grouped JSON output into metadata.Metadata
package exiftool
