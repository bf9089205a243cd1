// Package stagedir manages staging directories for bundle assembly
package stagedir

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const (
	// Prefix for staging directories created next to the build output
	Prefix = ".appshim-staging"
	// MarkerName is the bookkeeping file written into each staging directory
	MarkerName = "staging.json"
)

// PathFor returns the staging directory for a build of outputPath. Staging
// lives next to the output so the final rename stays on one filesystem.
func PathFor(outputPath string) string {
	parent := filepath.Dir(outputPath)
	return filepath.Join(parent, fmt.Sprintf("%s-%d", Prefix, os.Getpid()))
}

// Create makes a fresh staging directory, clearing any leftover from a
// previous run under the same PID.
func Create(outputPath string) (string, error) {
	path := PathFor(outputPath)
	if err := os.RemoveAll(path); err != nil {
		return "", fmt.Errorf("failed to clear staging directory: %w", err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	return path, nil
}

// Remove deletes a staging directory and everything in it
func Remove(path string) error {
	return os.RemoveAll(path)
}

// CacheRoot returns the scratch root used for archive packing and other
// intermediate products
func CacheRoot() string {
	// Check environment variable first
	if cacheDir := os.Getenv("APPSHIM_CACHE_DIR"); cacheDir != "" {
		return cacheDir
	}

	// Use platform-specific defaults
	switch runtime.GOOS {
	case "darwin":
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, "Library", "Caches", "appshim")
		}
	case "linux":
		if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
			return filepath.Join(xdgCache, "appshim")
		}
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, ".cache", "appshim")
		}
	}

	// Fallback to temp directory
	return filepath.Join(os.TempDir(), "appshim")
}

// Scratch creates a unique scratch directory under the cache root
func Scratch(kind string) (string, error) {
	root := filepath.Join(CacheRoot(), kind)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}
	return os.MkdirTemp(root, "work-")
}
