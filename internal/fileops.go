package internal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

func WriteAll(w io.Writer, buf []byte) (int, error) {
	total := 0
	remaining := len(buf)
	for remaining > 0 {
		n, err := w.Write(buf[total:])
		if err != nil {
			return total, fmt.Errorf("failed to write: %w", err)
		}
		if n == 0 {
			return total, io.ErrShortWrite
		}

		total += n
		remaining -= n
	}

	return total, nil
}

// NormalizePath cleans up a path typed or pasted by a user: surrounding double quotes are
// dropped, backslashes become slashes, trailing slashes go away and the result is absolute.
func NormalizePath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if len(p) >= 2 && p[0] == '"' && p[len(p)-1] == '"' {
		p = p[1 : len(p)-1]
	}
	p = strings.ReplaceAll(p, "\\", "/")
	for len(p) > 1 && strings.HasSuffix(p, "/") {
		p = p[:len(p)-1]
	}
	if p == "" {
		return "", ErrEmptyPath
	}
	return filepath.Abs(p)
}

func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}

// CheckInputFile makes sure path names an existing regular, readable file and returns its info.
func CheckInputFile(path string) (os.FileInfo, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("input file %s: %w", path, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("input file %s: %w", path, ErrIsDirectory)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("input file %s: %w", path, err)
	}
	f.Close()
	return fi, nil
}

// AtomicFile is written under a temporary name next to its destination and only renamed into
// place by Commit, so a failed run never leaves a complete-looking output behind.
type AtomicFile struct {
	*os.File
	final string
	done  bool
}

func CreateAtomic(final string) (*AtomicFile, error) {
	if fi, err := os.Stat(final); err == nil && fi.IsDir() {
		return nil, fmt.Errorf("output file %s: %w", final, ErrIsDirectory)
	}
	dir, base := filepath.Split(final)
	if dir == "" {
		dir = "."
	}
	tmp := filepath.Join(dir, "."+base+"."+uuid.NewString()+".tmp")
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary output for %s: %w", final, err)
	}
	return &AtomicFile{File: f, final: final}, nil
}

func (a *AtomicFile) Commit() error {
	if a.done {
		return nil
	}
	a.done = true
	if err := a.File.Sync(); err != nil {
		a.File.Close()
		os.Remove(a.File.Name())
		return fmt.Errorf("failed to sync %s: %w", a.File.Name(), err)
	}
	if err := a.File.Close(); err != nil {
		os.Remove(a.File.Name())
		return fmt.Errorf("failed to close %s: %w", a.File.Name(), err)
	}
	if err := os.Rename(a.File.Name(), a.final); err != nil {
		os.Remove(a.File.Name())
		return fmt.Errorf("failed to move output into place at %s: %w", a.final, err)
	}
	return nil
}

// Abort drops the temporary file. It is a no-op after Commit, so it can be deferred.
func (a *AtomicFile) Abort() {
	if a.done {
		return
	}
	a.done = true
	a.File.Close()
	if err := os.Remove(a.File.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warnf("Failed to remove temporary output %s: %v", a.File.Name(), err)
	}
}

// SameFile reports whether a and b resolve to the same existing file.
func SameFile(a, b string) bool {
	fa, err := os.Stat(a)
	if err != nil {
		return false
	}
	fb, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(fa, fb)
}
