package fileutil

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"
	"golang.org/x/sys/unix"
)

const compareChunk = 64 * 1024

// CopyResult describes a completed verified copy.
type CopyResult struct {
	Bytes  int64
	Digest uint64
}

// CopyFileVerified streams src to dst through a temporary sibling, verifies
// size and xxhash digest by re-reading the written data, then renames it into
// place. The partial file is removed on any failure. Source permissions and
// modification time are carried over.
func CopyFileVerified(fs afero.Fs, src, dst string) (CopyResult, error) {
	info, err := fs.Stat(src)
	if err != nil {
		return CopyResult{}, fmt.Errorf("stat source: %w", err)
	}
	if info.IsDir() {
		return CopyResult{}, fmt.Errorf("copy %s: source is a directory", src)
	}

	in, err := fs.Open(src)
	if err != nil {
		return CopyResult{}, err
	}
	defer in.Close()

	tmp, err := afero.TempFile(fs, filepath.Dir(dst), "."+filepath.Base(dst)+".part-*")
	if err != nil {
		return CopyResult{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	closed, committed := false, false
	defer func() {
		if !closed {
			_ = tmp.Close()
		}
		if !committed {
			_ = fs.Remove(tmpName)
		}
	}()

	srcHasher := xxhash.New()
	written, err := io.Copy(tmp, io.TeeReader(in, srcHasher))
	if err != nil {
		return CopyResult{}, err
	}
	if err := tmp.Sync(); err != nil {
		return CopyResult{}, err
	}
	closed = true
	if err := tmp.Close(); err != nil {
		return CopyResult{}, err
	}

	if written != info.Size() {
		return CopyResult{}, fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", info.Size(), written)
	}
	dstDigest, err := Digest(fs, tmpName)
	if err != nil {
		return CopyResult{}, fmt.Errorf("verify copy: %w", err)
	}
	if dstDigest != srcHasher.Sum64() {
		return CopyResult{}, errors.New("copy hash mismatch: file corrupted during copy")
	}

	_ = fs.Chmod(tmpName, info.Mode().Perm())
	_ = fs.Chtimes(tmpName, info.ModTime(), info.ModTime())

	if err := fs.Rename(tmpName, dst); err != nil {
		return CopyResult{}, fmt.Errorf("commit copy: %w", err)
	}
	committed = true
	return CopyResult{Bytes: written, Digest: dstDigest}, nil
}

// MoveFile renames src to dst. When the two paths live on different
// filesystems it falls back to a verified copy followed by removal of src.
func MoveFile(fs afero.Fs, src, dst string) (CopyResult, error) {
	info, err := fs.Stat(src)
	if err != nil {
		return CopyResult{}, fmt.Errorf("stat source: %w", err)
	}
	err = fs.Rename(src, dst)
	if err == nil {
		return CopyResult{Bytes: info.Size()}, nil
	}
	if !IsCrossDevice(err) {
		return CopyResult{}, err
	}

	result, err := CopyFileVerified(fs, src, dst)
	if err != nil {
		return CopyResult{}, fmt.Errorf("cross-device move: %w", err)
	}
	if err := fs.Remove(src); err != nil {
		return result, fmt.Errorf("remove source after cross-device move: %w", err)
	}
	return result, nil
}

// IsCrossDevice reports whether err is a rename failure across filesystems.
func IsCrossDevice(err error) bool {
	if errors.Is(err, unix.EXDEV) {
		return true
	}
	var le *os.LinkError
	return errors.As(err, &le) && errors.Is(le.Err, unix.EXDEV)
}

// Digest returns the xxhash64 of the file contents.
func Digest(fs afero.Fs, path string) (uint64, error) {
	f, err := fs.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

// SameContent reports whether a and b are regular files with identical bytes.
// Files of different sizes are rejected without reading either of them, and a
// directory never matches.
func SameContent(fs afero.Fs, a, b string) (bool, error) {
	ai, err := fs.Stat(a)
	if err != nil {
		return false, err
	}
	bi, err := fs.Stat(b)
	if err != nil {
		return false, err
	}
	if ai.IsDir() || bi.IsDir() {
		return false, nil
	}
	if ai.Size() != bi.Size() {
		return false, nil
	}

	fa, err := fs.Open(a)
	if err != nil {
		return false, err
	}
	defer fa.Close()
	fb, err := fs.Open(b)
	if err != nil {
		return false, err
	}
	defer fb.Close()

	bufA := make([]byte, compareChunk)
	bufB := make([]byte, compareChunk)
	for {
		na, errA := io.ReadFull(fa, bufA)
		nb, errB := io.ReadFull(fb, bufB)
		if na != nb || !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}
		doneA, err := chunkDone(errA)
		if err != nil {
			return false, err
		}
		doneB, err := chunkDone(errB)
		if err != nil {
			return false, err
		}
		if doneA || doneB {
			return doneA == doneB, nil
		}
	}
}

func chunkDone(err error) (bool, error) {
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return true, nil
	default:
		return false, err
	}
}
