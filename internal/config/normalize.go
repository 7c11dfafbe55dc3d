package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLayout()
	c.normalizePlacement()
	if err := c.normalizeExiftool(); err != nil {
		return err
	}
	c.normalizeWorkers()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.SourceDir) == "" {
		if value, ok := os.LookupEnv("MEDIASORT_SOURCE"); ok {
			c.Paths.SourceDir = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.Paths.DestinationDir) == "" {
		if value, ok := os.LookupEnv("MEDIASORT_DEST"); ok {
			c.Paths.DestinationDir = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}

	var err error
	if c.Paths.SourceDir, err = expandPath(strings.TrimSpace(c.Paths.SourceDir)); err != nil {
		return fmt.Errorf("paths.source_dir: %w", err)
	}
	if c.Paths.DestinationDir, err = expandPath(strings.TrimSpace(c.Paths.DestinationDir)); err != nil {
		return fmt.Errorf("paths.destination_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLayout() {
	c.Layout.SmallFilesFolder = strings.TrimSpace(c.Layout.SmallFilesFolder)
	if c.Layout.SmallFilesFolder == "" {
		c.Layout.SmallFilesFolder = defaultSmallFilesFolder
	}
	c.Layout.ErrorFolder = strings.TrimSpace(c.Layout.ErrorFolder)
	if c.Layout.ErrorFolder == "" {
		c.Layout.ErrorFolder = defaultErrorFolder
	}
	if len(c.Layout.CategoryFolders) > 0 {
		folders := make(map[string]string, len(c.Layout.CategoryFolders))
		for key, value := range c.Layout.CategoryFolders {
			folders[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
		}
		c.Layout.CategoryFolders = folders
	}
}

func (c *Config) normalizePlacement() {
	c.Placement.Mode = strings.ToLower(strings.TrimSpace(c.Placement.Mode))
	if c.Placement.Mode == "" {
		c.Placement.Mode = PlacementCopy
	}
}

func (c *Config) normalizeExiftool() error {
	if value, ok := os.LookupEnv("MEDIASORT_EXIFTOOL"); ok && strings.TrimSpace(value) != "" {
		c.Exiftool.Binary = strings.TrimSpace(value)
	}
	c.Exiftool.Binary = strings.TrimSpace(c.Exiftool.Binary)
	if c.Exiftool.Binary == "" {
		c.Exiftool.Binary = defaultExiftoolBinary
	}
	if strings.ContainsRune(c.Exiftool.Binary, os.PathSeparator) {
		expanded, err := expandPath(c.Exiftool.Binary)
		if err != nil {
			return fmt.Errorf("exiftool.binary: %w", err)
		}
		c.Exiftool.Binary = expanded
	}
	paths := make([]string, 0, len(c.Exiftool.SearchPaths))
	for _, candidate := range c.Exiftool.SearchPaths {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		expanded, err := expandPath(candidate)
		if err != nil {
			return fmt.Errorf("exiftool.search_paths: %w", err)
		}
		paths = append(paths, expanded)
	}
	c.Exiftool.SearchPaths = paths
	return nil
}

func (c *Config) normalizeWorkers() {
	if c.Workers.ProgressIntervalMS <= 0 {
		c.Workers.ProgressIntervalMS = defaultProgressIntervalMS
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}
