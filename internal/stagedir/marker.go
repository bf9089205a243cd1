// Package stagedir provides ownership markers for staging directories
package stagedir

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Marker records which build owns a staging directory
type Marker struct {
	PID     int       `json:"pid"`
	Bundle  string    `json:"bundle"`
	Tool    string    `json:"tool"`
	Created time.Time `json:"created"`
}

// WriteMarker records ownership of a staging directory
func WriteMarker(stagingPath, bundleName, toolVersion string) error {
	marker := Marker{
		PID:     os.Getpid(),
		Bundle:  bundleName,
		Tool:    toolVersion,
		Created: time.Now().UTC(),
	}

	data, err := json.MarshalIndent(marker, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(stagingPath, MarkerName), data, 0o644)
}

// ReadMarker loads the ownership record from a staging directory
func ReadMarker(stagingPath string) (*Marker, error) {
	data, err := os.ReadFile(filepath.Join(stagingPath, MarkerName))
	if err != nil {
		return nil, err
	}

	var marker Marker
	if err := json.Unmarshal(data, &marker); err != nil {
		return nil, err
	}
	return &marker, nil
}

// ReclaimStale removes sibling staging directories whose owning process is
// gone. Directories without a readable marker are left alone unless they
// are more than a day old.
func ReclaimStale(outputPath string, logger hclog.Logger) {
	parent := filepath.Dir(outputPath)
	entries, err := os.ReadDir(parent)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), Prefix) {
			continue
		}
		path := filepath.Join(parent, entry.Name())
		if path == PathFor(outputPath) {
			continue
		}

		marker, err := ReadMarker(path)
		if err != nil {
			info, statErr := entry.Info()
			if statErr == nil && time.Since(info.ModTime()) > 24*time.Hour {
				logger.Debug("🧹 Removing orphaned staging directory", "path", path)
				_ = os.RemoveAll(path)
			}
			continue
		}

		if processAlive(marker.PID) {
			logger.Debug("Staging directory owned by running build", "path", path, "pid", marker.PID)
			continue
		}

		logger.Info("🧹 Reclaiming stale staging directory", "path", path, "pid", marker.PID)
		if err := os.RemoveAll(path); err != nil {
			logger.Warn("Failed to remove stale staging directory", "path", path, "error", err)
		}
	}
}

// processAlive reports whether a PID refers to a running process
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
