package scan

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maruel/natural"
	"github.com/spf13/afero"

	"mediasort/internal/logging"
	"mediasort/internal/media/category"
)

// Options tune a source walk.
type Options struct {
	// IncludeUnknown keeps files whose type is not recognised.
	IncludeUnknown bool
	// Exclude lists directories that are never descended into, such as the
	// destination when it lives inside the source.
	Exclude []string
	// Progress is called with the running count of accepted files.
	Progress func(found int)
	Logger   *slog.Logger
}

// Result is the outcome of a walk.
type Result struct {
	Files []string
	// Unknown counts files left out because their type was not recognised.
	Unknown int
	// Unreadable lists paths that could not be accessed.
	Unreadable []string
}

// Walk lists regular files under root in natural order. Dotfiles and
// dot-directories are ignored, as are symlinks. Access errors below root are
// logged and skipped; only a failure to read root itself is returned.
func Walk(ctx context.Context, fsys afero.Fs, root string, opts Options) (Result, error) {
	logger := logging.NewComponentLogger(opts.Logger, "scan")
	if _, err := fsys.Stat(root); err != nil {
		return Result{}, err
	}
	excluded := make(map[string]struct{}, len(opts.Exclude))
	for _, dir := range opts.Exclude {
		if dir = strings.TrimSpace(dir); dir != "" {
			excluded[filepath.Clean(dir)] = struct{}{}
		}
	}

	var result Result
	err := afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil && path == root {
			return err
		}
		if err != nil {
			result.Unreadable = append(result.Unreadable, path)
			logging.WarnWithContext(logger, "path not accessible; skipping", "scan_access_failed",
				logging.Source(path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check read permissions on the source tree"),
				logging.String(logging.FieldImpact, "files below this path are not organized"),
			)
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}
		if strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			if _, skip := excluded[filepath.Clean(path)]; skip {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if !opts.IncludeUnknown && category.Classify(path) == category.Unknown {
			result.Unknown++
			return nil
		}
		result.Files = append(result.Files, path)
		if opts.Progress != nil {
			opts.Progress(len(result.Files))
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	sort.Slice(result.Files, func(i, j int) bool {
		return natural.Less(result.Files[i], result.Files[j])
	})
	logger.Debug("scan complete",
		logging.String("root", root),
		logging.Int("files", len(result.Files)),
		logging.Int("unknown", result.Unknown),
	)
	return result, nil
}
