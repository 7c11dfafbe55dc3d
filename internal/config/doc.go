// Package config loads, normalizes, and validates mediasort configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MEDIASORT_EXIFTOOL. The Config type centralizes every knob the CLI and the
// placement pipeline need, so source/destination trees, layout options and
// worker sizing are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
