package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains source, destination, and state directory configuration.
type Paths struct {
	SourceDir      string `toml:"source_dir"`
	DestinationDir string `toml:"destination_dir"`
	StateDir       string `toml:"state_dir"`
	LogDir         string `toml:"log_dir"`
}

// Layout controls the destination directory structure.
type Layout struct {
	MonthFolders       bool              `toml:"month_folders"`
	SmallFileThreshold int64             `toml:"small_file_threshold"`
	SmallFilesFolder   string            `toml:"small_files_folder"`
	ErrorFolder        string            `toml:"error_folder"`
	CategoryFolders    map[string]string `toml:"category_folders"`
}

// Placement controls how files are transferred into the destination tree.
type Placement struct {
	Mode              string `toml:"mode"`
	VerifyCopy        bool   `toml:"verify_copy"`
	CorrectExtensions bool   `toml:"correct_extensions"`
}

// Dates contains plausibility rules for resolved capture dates.
type Dates struct {
	Cutoff               string `toml:"cutoff"`
	FutureToleranceHours int    `toml:"future_tolerance_hours"`
}

// Exiftool contains configuration for the external metadata tool.
type Exiftool struct {
	Binary         string   `toml:"binary"`
	SearchPaths    []string `toml:"search_paths"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	WriteAllDates  bool     `toml:"write_all_dates"`
	NativeFallback bool     `toml:"native_fallback"`
}

// Workers contains worker pool sizing overrides.
type Workers struct {
	MaxWorkers         int `toml:"max_workers"`
	FilesPerWorker     int `toml:"files_per_worker"`
	ProgressIntervalMS int `toml:"progress_interval_ms"`
}

// Sweep controls the inclusive second pass.
type Sweep struct {
	Enabled          bool `toml:"enabled"`
	CleanupEmptyDirs bool `toml:"cleanup_empty_dirs"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for mediasort.
//
// Configuration sections by subsystem:
//   - Paths: source and destination trees, state and log directories
//   - Layout: category folders, month folders, small-file and error tiers
//   - Placement: copy or move, verification, extension correction
//   - Dates: cutoff and future tolerance for resolved capture dates
//   - Exiftool: metadata tool discovery and write behaviour
//   - Workers: worker pool and progress reporting overrides
//   - Sweep: inclusive second pass and empty directory cleanup
//   - Logging: log format, level, and retention
type Config struct {
	Paths     Paths     `toml:"paths"`
	Layout    Layout    `toml:"layout"`
	Placement Placement `toml:"placement"`
	Dates     Dates     `toml:"dates"`
	Exiftool  Exiftool  `toml:"exiftool"`
	Workers   Workers   `toml:"workers"`
	Sweep     Sweep     `toml:"sweep"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mediasort/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mediasort.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories. Source and
// destination trees are never created here; preflight reports them instead.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LedgerPath returns the SQLite run ledger location.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.StateDir, "ledger.db")
}

// LockDir returns the directory holding per-destination run locks.
func (c *Config) LockDir() string {
	return filepath.Join(c.Paths.StateDir, "locks")
}

// DateCutoff returns the parsed cutoff date. Validate guarantees the value parses.
func (c *Config) DateCutoff() time.Time {
	cutoff, err := time.Parse(time.DateOnly, strings.TrimSpace(c.Dates.Cutoff))
	if err != nil {
		return time.Date(1989, 12, 31, 0, 0, 0, 0, time.UTC)
	}
	return cutoff
}

// FutureTolerance returns how far past now a resolved date may lie.
func (c *Config) FutureTolerance() time.Duration {
	return time.Duration(c.Dates.FutureToleranceHours) * time.Hour
}

// ExiftoolTimeout returns the per-invocation exiftool timeout.
func (c *Config) ExiftoolTimeout() time.Duration {
	return time.Duration(c.Exiftool.TimeoutSeconds) * time.Second
}

// ProgressInterval returns the monitor polling interval.
func (c *Config) ProgressInterval() time.Duration {
	return time.Duration(c.Workers.ProgressIntervalMS) * time.Millisecond
}

// MoveMode reports whether placement renames instead of copying.
func (c *Config) MoveMode() bool {
	return c.Placement.Mode == PlacementMove
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
