package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/hashicorp/go-hclog"
)

// Global flag for lock acquisition status
var lockAcquired int32

// IsProcessRunning checks if a process with given PID is still running
func IsProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix, Signal(0) checks if process exists without actually sending a signal
	err = process.Signal(syscall.Signal(0))
	return err == nil
}

// BuildLockPath returns the lock file path guarding a build output
func BuildLockPath(outputPath string) string {
	return outputPath + LockSuffix
}

// TryAcquireBuildLock attempts to acquire an exclusive lock for a build
// output. Returns true if the lock was acquired, false if another live
// process holds it. Stale locks from dead processes are reclaimed.
func TryAcquireBuildLock(lockPath string, logger hclog.Logger) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(lockPath), os.FileMode(DirPerms)); err != nil {
		logger.Debug("Failed to create lock directory", "error", err)
	}

	pid := os.Getpid()

	// Check for stale lock first
	if _, err := os.Stat(lockPath); err == nil {
		logger.Debug("🔍 Lock file exists, checking if it's stale...")

		if data, err := os.ReadFile(lockPath); err == nil {
			contents := strings.TrimSpace(string(data))
			if oldPid, err := strconv.Atoi(contents); err == nil {
				if !IsProcessRunning(oldPid) {
					logger.Info("🧹 Removing stale lock from dead process", "pid", oldPid)
					os.Remove(lockPath)
				} else {
					logger.Debug("🔒 Lock held by active process", "pid", oldPid)
					return false, nil
				}
			} else {
				// Invalid PID in lock file, remove it
				logger.Info("🧹 Removing invalid lock file (couldn't parse PID)")
				os.Remove(lockPath)
			}
		} else {
			// Can't read lock file, try to remove it
			logger.Info("🧹 Removing unreadable lock file")
			os.Remove(lockPath)
		}
	}

	// Try to create lock file exclusively
	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			logger.Debug("🔒 Lock file exists, another process is building")
			return false, nil
		}
		return false, err
	}
	defer file.Close()

	// Write our PID to the lock file
	if _, err := fmt.Fprintf(file, "%d\n", pid); err != nil {
		os.Remove(lockPath)
		return false, err
	}

	logger.Debug("🔒 Acquired build lock", "pid", pid)
	atomic.StoreInt32(&lockAcquired, 1)
	return true, nil
}

// ReleaseBuildLock releases the build lock
func ReleaseBuildLock(lockPath string, logger hclog.Logger) {
	if err := os.Remove(lockPath); err != nil {
		logger.Debug("⚠️ Failed to remove lock file", "error", err)
	} else {
		logger.Debug("🔓 Released build lock")
	}
	atomic.StoreInt32(&lockAcquired, 0)
}

// IsLockAcquired checks if lock is currently acquired
func IsLockAcquired() bool {
	return atomic.LoadInt32(&lockAcquired) != 0
}
