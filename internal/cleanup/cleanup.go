package cleanup

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"mediasort/internal/logging"
)

// Result contains the outcome of an empty-directory cleanup.
type Result struct {
	Removed []string
	Errors  []Error
}

// Error pairs a directory path with its cleanup error.
type Error struct {
	Path  string
	Error error
}

// RemoveEmptyDirs deletes empty directories below root, deepest first, so a
// chain of directories emptied by organizing collapses in one pass. root is
// never removed. Directories listed in keep are left alone.
func RemoveEmptyDirs(ctx context.Context, fsys afero.Fs, root string, logger *slog.Logger, keep ...string) Result {
	result := Result{}
	root = strings.TrimSpace(root)
	if root == "" {
		return result
	}
	logger = logging.NewComponentLogger(logger, "cleanup")

	protected := map[string]struct{}{filepath.Clean(root): {}}
	for _, dir := range keep {
		protected[filepath.Clean(dir)] = struct{}{}
	}

	var dirs []string
	err := afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path != root && !os.IsNotExist(err) {
				result.Errors = append(result.Errors, Error{Path: path, Error: err})
			}
			if info != nil && info.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			if _, skip := protected[filepath.Clean(path)]; skip && path != root {
				return filepath.SkipDir
			}
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		result.Errors = append(result.Errors, Error{Path: root, Error: err})
		return result
	}

	sort.Slice(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], string(filepath.Separator)) > strings.Count(dirs[j], string(filepath.Separator))
	})
	for _, dir := range dirs {
		if ctx.Err() != nil {
			break
		}
		if _, skip := protected[filepath.Clean(dir)]; skip {
			continue
		}
		empty, err := afero.IsEmpty(fsys, dir)
		if err != nil {
			result.Errors = append(result.Errors, Error{Path: dir, Error: err})
			continue
		}
		if !empty {
			continue
		}
		if err := fsys.Remove(dir); err != nil {
			result.Errors = append(result.Errors, Error{Path: dir, Error: err})
			logging.WarnWithContext(logger, "failed to remove empty directory", "cleanup_failed",
				logging.String("path", dir),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check source directory permissions"),
				logging.String(logging.FieldImpact, "empty directory remains in source tree"),
			)
			continue
		}
		result.Removed = append(result.Removed, dir)
		logger.Debug("removed empty directory",
			logging.String("path", dir),
			logging.String(logging.FieldEventType, "empty_dir_removed"),
		)
	}
	return result
}
