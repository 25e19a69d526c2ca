// Package fileutil provides filesystem helpers shared by the sidecar
// writer and the journal.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
)

const tempPattern = ".slatelink-*.tmp"

// WriteFileAtomic writes data to path through a temp file in the same
// directory followed by a rename. If any step fails the temp file is
// removed and a pre-existing file at path is left untouched.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+tempPattern)
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file %s: %w", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp file %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file %s: %w", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename %s to %s: %w", tmpPath, path, err)
	}
	return nil
}

// RemoveStaleTemps deletes leftover temp files for path from interrupted
// writes. Missing directories are not an error.
func RemoveStaleTemps(path string) error {
	pattern := filepath.Join(filepath.Dir(path), filepath.Base(path)+tempPattern)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("glob stale temps for %s: %w", path, err)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove stale temp %s: %w", m, err)
		}
	}
	return nil
}

// EnsureDir creates dir and any missing parents.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}
