//go:build !windows
// +build !windows

package bundle

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
)

// atomicReplace swaps the staged bundle into place with os.Rename, which is
// atomic on one filesystem. A previous bundle at destPath is moved aside
// first and removed once the swap lands, so a failed rename leaves the old
// bundle restorable.
func atomicReplace(stagedPath, destPath string, logger hclog.Logger) error {
	logger.Debug("Performing atomic bundle replacement",
		"staged", stagedPath,
		"dest", destPath)

	backupPath := destPath + ".previous"
	haveBackup := false
	if _, err := os.Lstat(destPath); err == nil {
		if err := os.RemoveAll(backupPath); err != nil {
			return fmt.Errorf("failed to clear backup path: %w", err)
		}
		if err := os.Rename(destPath, backupPath); err != nil {
			return fmt.Errorf("failed to move previous bundle aside: %w", err)
		}
		haveBackup = true
	}

	if err := os.Rename(stagedPath, destPath); err != nil {
		if haveBackup {
			// Put the old bundle back; the swap never happened
			_ = os.Rename(backupPath, destPath)
		}
		return fmt.Errorf("failed to rename staged bundle: %w", err)
	}

	if haveBackup {
		if err := os.RemoveAll(backupPath); err != nil {
			logger.Warn("Failed to remove previous bundle", "path", backupPath, "error", err)
		}
	}

	logger.Info("✅ Atomic bundle replacement successful",
		"staged", stagedPath,
		"dest", destPath)

	return nil
}
