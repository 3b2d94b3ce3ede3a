// Package scope resolves the two memory storage domains (global and
// project), owns their store lifecycles, and implements the
// project-overrides-global read rule.
package scope

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// MarkerDirName is the directory whose presence identifies a project
	// root, and which holds project-scoped memory.
	MarkerDirName = ".strata"
	// MarkerFileName is an alternative project root marker for projects that
	// keep configuration in a single file.
	MarkerFileName = "strata.yaml"
	// MemorySubdir is the memory directory inside MarkerDirName.
	MemorySubdir = "memory"
	// DatabaseFilename is the database file inside a memory directory.
	DatabaseFilename = "memory.db"
	// homeEnv overrides the per-user base directory (mainly for tests and
	// sandboxed installs).
	homeEnv = "STRATA_HOME"
)

// DefaultMarkers are the project root markers checked at each ancestor, in
// order.
func DefaultMarkers() []string {
	return []string{MarkerDirName, MarkerFileName}
}

// GlobalDir computes the per-user global memory directory:
// $STRATA_HOME/memory when set, otherwise ~/.strata/memory. Pure path
// computation; the directory is not created.
func GlobalDir() (string, error) {
	if base := os.Getenv(homeEnv); base != "" {
		return filepath.Join(base, MemorySubdir), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, MarkerDirName, MemorySubdir), nil
}

// ProjectDir computes the memory directory for a project root.
func ProjectDir(root string) string {
	return filepath.Join(root, MarkerDirName, MemorySubdir)
}

// DatabasePath computes the database file path inside a memory directory.
func DatabasePath(memoryDir string) string {
	return filepath.Join(memoryDir, DatabaseFilename)
}

// DetectProjectRoot walks from startDir upward through parents, returning
// the first directory containing any of the markers. The second return is
// false when no marker exists anywhere up to the filesystem root. Only
// existence checks touch the filesystem.
func DetectProjectRoot(startDir string, markers []string) (string, bool) {
	if len(markers) == 0 {
		markers = DefaultMarkers()
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false
	}
	for {
		for _, marker := range markers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// EnsureDir idempotently creates the directory and any missing parents. A
// regular file sitting where a directory is expected is reported explicitly
// instead of the opaque ENOTDIR from a later open.
func EnsureDir(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("path %s exists and is not a directory", path)
		}
		return nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}
