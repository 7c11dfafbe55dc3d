// Package exifnative reads EXIF capture dates without external tools.
//
// It backs the exiftool reader for JPEG and TIFF-family files when exiftool
// output is unavailable, reporting fields under the same sections exiftool
// uses with -g1.
package exifnative
