package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"golang.org/x/sys/unix"
)

// ErrSourceNotRemoved reports a cross-device move whose copy succeeded but
// whose source could not be deleted. The destination is complete.
var ErrSourceNotRemoved = errors.New("source not removed")

// CopyInto streams src into the already-open dst and closes dst. When verify
// is set the written file is read back and its size and SHA256 compared with
// the source. dst is left in place on failure; the caller owns the
// reservation and decides whether to remove it.
func CopyInto(fsys afero.Fs, src string, dst afero.File, verify bool) error {
	in, err := fsys.Open(src)
	if err != nil {
		_ = dst.Close()
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		_ = dst.Close()
		return fmt.Errorf("stat source: %w", err)
	}
	srcSize := info.Size()

	srcHasher := sha256.New()
	written, err := io.Copy(dst, io.TeeReader(in, srcHasher))
	if err != nil {
		_ = dst.Close()
		return fmt.Errorf("copy: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}
	if written != srcSize {
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcSize, written)
	}
	if !verify {
		return nil
	}

	dstSum, dstSize, err := hashFile(fsys, dst.Name())
	if err != nil {
		return fmt.Errorf("verify destination: %w", err)
	}
	if dstSize != srcSize {
		return fmt.Errorf("copy size mismatch: source %d bytes, destination %d bytes", srcSize, dstSize)
	}
	if !bytes.Equal(srcHasher.Sum(nil), dstSum) {
		return errors.New("copy hash mismatch: file corrupted during copy")
	}
	return nil
}

// MoveFile renames src onto dst, replacing the reservation at dst. Across
// filesystems it falls back to a copy followed by removing src.
func MoveFile(fsys afero.Fs, src, dst string, verify bool) error {
	err := fsys.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, unix.EXDEV) {
		return fmt.Errorf("rename: %w", err)
	}
	out, err := fsys.OpenFile(dst, os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open destination: %w", err)
	}
	if err := CopyInto(fsys, src, out, verify); err != nil {
		return err
	}
	if err := fsys.Remove(src); err != nil {
		return fmt.Errorf("%w: %w", ErrSourceNotRemoved, err)
	}
	return nil
}

func hashFile(fsys afero.Fs, path string) ([]byte, int64, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return nil, 0, err
	}
	return h.Sum(nil), n, nil
}
