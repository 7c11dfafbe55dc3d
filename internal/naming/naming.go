package naming

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"mediasort/internal/media/category"
)

const stampLayout = "2006-01-02_15-04-05"

// FileName builds the canonical name for a capture instant. The -ss suffix
// is dropped when subseconds are empty or carry a corrupt fragment.
func FileName(t time.Time, subseconds, ext string) string {
	name := t.Format(stampLayout)
	if subseconds != "" && !strings.Contains(subseconds, "964") {
		name += "-ss" + subseconds
	}
	return name + strings.ToLower(ext)
}

// Layout describes the destination tree.
type Layout struct {
	Root               string
	Folders            category.Folders
	MonthFolders       bool
	SmallFileThreshold int64
	SmallFilesFolder   string
	ErrorFolder        string
}

// Directory returns <root>/<category>/<year>[/<month>][/small][/error].
func (l Layout) Directory(cat category.Category, t time.Time, size int64, errorTier bool) string {
	parts := []string{l.Root, l.Folders.Name(cat), fmt.Sprintf("%04d", t.Year())}
	if l.MonthFolders {
		parts = append(parts, fmt.Sprintf("%02d", int(t.Month())))
	}
	if size > 0 && size <= l.SmallFileThreshold && l.SmallFilesFolder != "" {
		parts = append(parts, l.SmallFilesFolder)
	}
	if errorTier && l.ErrorFolder != "" {
		parts = append(parts, l.ErrorFolder)
	}
	return filepath.Join(parts...)
}

// EnsureDir creates dir and its parents if absent.
func EnsureDir(fs afero.Fs, dir string) error {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create destination directory %s: %w", dir, err)
	}
	return nil
}
