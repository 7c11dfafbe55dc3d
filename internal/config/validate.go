package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

var knownCategories = map[string]struct{}{
	"image":    {},
	"video":    {},
	"audio":    {},
	"document": {},
	"art":      {},
	"unknown":  {},
}

// Validate ensures the configuration is usable. Source and destination may be
// empty here because CLI flags can supply them; ValidateRunPaths checks them
// once a run is about to start.
func (c *Config) Validate() error {
	if err := c.validateLayout(); err != nil {
		return err
	}
	if err := c.validatePlacement(); err != nil {
		return err
	}
	if err := c.validateDates(); err != nil {
		return err
	}
	if err := c.validateExiftool(); err != nil {
		return err
	}
	if err := c.validateWorkers(); err != nil {
		return err
	}
	return c.validateLogging()
}

// ValidateRunPaths checks that a source and destination are set and do not
// contain one another in a way that would make the run eat its own output.
func (c *Config) ValidateRunPaths() error {
	source := strings.TrimSpace(c.Paths.SourceDir)
	dest := strings.TrimSpace(c.Paths.DestinationDir)
	if source == "" {
		return errors.New("paths.source_dir must be set (use --source or MEDIASORT_SOURCE)")
	}
	if dest == "" {
		return errors.New("paths.destination_dir must be set (use --dest or MEDIASORT_DEST)")
	}
	if filepath.Clean(source) == filepath.Clean(dest) {
		return errors.New("paths.source_dir and paths.destination_dir must differ")
	}
	if within(source, dest) {
		return errors.New("paths.source_dir must not be inside paths.destination_dir")
	}
	return nil
}

func within(child, parent string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (c *Config) validateLayout() error {
	if c.Layout.SmallFileThreshold < 0 {
		return errors.New("layout.small_file_threshold must be zero or positive")
	}
	if strings.ContainsAny(c.Layout.SmallFilesFolder, `/\`) {
		return errors.New("layout.small_files_folder must be a single path segment")
	}
	if strings.ContainsAny(c.Layout.ErrorFolder, `/\`) {
		return errors.New("layout.error_folder must be a single path segment")
	}
	for key, value := range c.Layout.CategoryFolders {
		if _, ok := knownCategories[key]; !ok {
			return fmt.Errorf("layout.category_folders: unknown category %q", key)
		}
		if value == "" || strings.ContainsAny(value, `/\`) {
			return fmt.Errorf("layout.category_folders.%s must be a single non-empty path segment", key)
		}
	}
	return nil
}

func (c *Config) validatePlacement() error {
	switch c.Placement.Mode {
	case PlacementCopy, PlacementMove:
		return nil
	default:
		return fmt.Errorf("placement.mode: unsupported value %q (want %q or %q)", c.Placement.Mode, PlacementCopy, PlacementMove)
	}
}

func (c *Config) validateDates() error {
	if _, err := time.Parse(time.DateOnly, strings.TrimSpace(c.Dates.Cutoff)); err != nil {
		return fmt.Errorf("dates.cutoff must be YYYY-MM-DD: %w", err)
	}
	if c.Dates.FutureToleranceHours < 0 {
		return errors.New("dates.future_tolerance_hours must be zero or positive")
	}
	return nil
}

func (c *Config) validateExiftool() error {
	if c.Exiftool.TimeoutSeconds <= 0 {
		return errors.New("exiftool.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateWorkers() error {
	if c.Workers.MaxWorkers < 0 {
		return errors.New("workers.max_workers must be zero (auto) or positive")
	}
	if c.Workers.FilesPerWorker < 0 {
		return errors.New("workers.files_per_worker must be zero (auto) or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be zero or positive")
	}
	return nil
}
