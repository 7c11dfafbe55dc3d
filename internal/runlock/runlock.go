package runlock

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrHeld is returned when another process is organizing into the same
// destination.
var ErrHeld = errors.New("destination is locked by another mediasort run")

// Lock is an advisory lock on one destination root.
type Lock struct {
	path string
	lock *flock.Flock
}

// PathFor returns the lock file used for destination inside lockDir.
func PathFor(lockDir, destination string) string {
	abs, err := filepath.Abs(destination)
	if err != nil {
		abs = filepath.Clean(destination)
	}
	sum := sha256.Sum256([]byte(abs))
	return filepath.Join(lockDir, "dest-"+hex.EncodeToString(sum[:])[:16]+".lock")
}

// Acquire takes the lock for destination without blocking.
func Acquire(lockDir, destination string) (*Lock, error) {
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	path := PathFor(lockDir, destination)
	l := flock.New(path)
	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrHeld, path)
	}
	return &Lock{path: path, lock: l}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Release drops the lock. It is safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
