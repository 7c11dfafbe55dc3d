package preflight

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"mediasort/internal/deps"
	"mediasort/internal/media/exiftool"
	"mediasort/internal/services"
)

const (
	// AccessRead is the permission set required of a directory that is only scanned.
	AccessRead uint32 = unix.R_OK | unix.X_OK
	// AccessReadWrite is required of directories files are created in or removed from.
	AccessReadWrite uint32 = unix.R_OK | unix.W_OK | unix.X_OK
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return CheckDirectoryMode(name, path, AccessReadWrite)
}

// CheckDirectoryMode verifies that the directory exists and grants mode.
func CheckDirectoryMode(name, path string, mode uint32) Result {
	fail := func(detail string) Result {
		return Result{
			Name:   name,
			Detail: fmt.Sprintf("%s (error: %s)", path, detail),
			Err:    services.Wrap(services.ErrConfiguration, "preflight", name, path+": "+detail, nil),
		}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fail("does not exist")
		}
		return fail(fmt.Sprintf("stat: %v", err))
	}
	if !info.IsDir() {
		return fail("is not a directory")
	}
	if err := unix.Access(path, mode); err != nil {
		return fail(fmt.Sprintf("insufficient permissions: %v", err))
	}
	access := "read ok"
	if mode&unix.W_OK != 0 {
		access = "read/write ok"
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, access)}
}

// CheckExiftool resolves the exiftool binary and asks it for its version.
// The resolved path is returned alongside the result so callers can run the
// same executable that was checked.
func CheckExiftool(ctx context.Context, binary string, searchPaths []string, timeout time.Duration) (Result, string) {
	const name = "exiftool"

	resolved, err := deps.ResolveExiftool(binary, searchPaths)
	if err != nil {
		return Result{Name: name, Detail: "not found", Err: err}, ""
	}
	version, err := exiftool.New(resolved, timeout).Version(ctx)
	if err != nil {
		return Result{
			Name:   name,
			Detail: fmt.Sprintf("%s (error: %v)", resolved, err),
			Err:    services.Wrap(services.ErrExternalTool, "preflight", "exiftool version", resolved, err),
		}, resolved
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (version %s)", resolved, version)}, resolved
}
