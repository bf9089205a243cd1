package bundle

import (
	"fmt"
	"os"
	"path/filepath"

	apperrors "github.com/bundleworks/appshim/pkg/bundle/errors"
)

// ResolveExecutable returns the absolute path of the running binary with all
// symbolic links and relative segments resolved. The platform query and the
// normalization are distinct failure modes with distinct diagnostics.
func ResolveExecutable() (string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrExecutablePath, err)
	}
	return NormalizeExecutablePath(exePath)
}

// NormalizeExecutablePath resolves symlinks and relative segments in a
// reported executable path. Fails when the path does not refer to an
// existing filesystem entry.
func NormalizeExecutablePath(exePath string) (string, error) {
	resolved, err := filepath.EvalSymlinks(exePath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrPathResolution, err)
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrPathResolution, err)
	}
	return abs, nil
}
