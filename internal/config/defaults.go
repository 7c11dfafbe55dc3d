package config

const (
	defaultStateDir             = "~/.local/share/mediasort"
	defaultLogDir               = "~/.local/share/mediasort/logs"
	defaultLogRetentionDays     = 30
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultSmallFileThreshold   = 200 * 1024
	defaultSmallFilesFolder     = "small_files"
	defaultErrorFolder          = "Error"
	defaultDateCutoff           = "1989-12-31"
	defaultFutureToleranceHours = 24
	defaultExiftoolBinary       = "exiftool"
	defaultExiftoolTimeout      = 120
	defaultProgressIntervalMS   = 1000

	// PlacementCopy copies into the destination and removes the source afterwards.
	PlacementCopy = "copy"
	// PlacementMove renames into the destination, falling back to copy across devices.
	PlacementMove = "move"
)

var defaultExiftoolSearchPaths = []string{
	"/usr/local/bin/exiftool",
	"/usr/bin/exiftool",
	"/opt/homebrew/bin/exiftool",
	"/opt/local/bin/exiftool",
	"~/bin/exiftool",
	"~/.local/bin/exiftool",
	"/Applications/ExifTool/exiftool",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	searchPaths := make([]string, len(defaultExiftoolSearchPaths))
	copy(searchPaths, defaultExiftoolSearchPaths)
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Layout: Layout{
			SmallFileThreshold: defaultSmallFileThreshold,
			SmallFilesFolder:   defaultSmallFilesFolder,
			ErrorFolder:        defaultErrorFolder,
		},
		Placement: Placement{
			Mode:              PlacementCopy,
			VerifyCopy:        true,
			CorrectExtensions: true,
		},
		Dates: Dates{
			Cutoff:               defaultDateCutoff,
			FutureToleranceHours: defaultFutureToleranceHours,
		},
		Exiftool: Exiftool{
			Binary:         defaultExiftoolBinary,
			SearchPaths:    searchPaths,
			TimeoutSeconds: defaultExiftoolTimeout,
			NativeFallback: true,
		},
		Workers: Workers{
			ProgressIntervalMS: defaultProgressIntervalMS,
		},
		Sweep: Sweep{
			Enabled:          true,
			CleanupEmptyDirs: true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
