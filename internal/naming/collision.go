package naming

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/spf13/afero"
)

// MaxAttempts bounds the counter search in Reserve.
const MaxAttempts = 10000

// ErrNoFreeName is returned when every candidate up to MaxAttempts exists.
var ErrNoFreeName = errors.New("no free destination name")

var subsecondMarker = regexp.MustCompile(`-ss\d+$`)

// CollisionCandidate returns the n-th alternative for path. The counter goes
// before a trailing -ss marker when there is one, otherwise before the
// extension. n <= 1 returns path unchanged.
func CollisionCandidate(path string, n int) string {
	if n <= 1 {
		return path
	}
	dir, base := filepath.Split(path)
	ext := filepath.Ext(base)
	stem := base[:len(base)-len(ext)]
	counter := "_" + strconv.Itoa(n)
	if loc := subsecondMarker.FindStringIndex(stem); loc != nil {
		stem = stem[:loc[0]] + counter + stem[loc[0]:]
	} else {
		stem += counter
	}
	return dir + stem + ext
}

// Reserve claims the first free candidate for path by creating it
// exclusively. The returned file is open for writing; the caller owns it and
// must close it, and remove it if placement fails.
func Reserve(fsys afero.Fs, path string) (string, afero.File, error) {
	for n := 1; n <= MaxAttempts; n++ {
		candidate := CollisionCandidate(path, n)
		f, err := fsys.OpenFile(candidate, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return candidate, f, nil
		}
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		return "", nil, fmt.Errorf("reserve %s: %w", candidate, err)
	}
	return "", nil, fmt.Errorf("%w for %s after %d attempts", ErrNoFreeName, path, MaxAttempts)
}
