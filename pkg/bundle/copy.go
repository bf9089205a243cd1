package bundle

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// copyFile copies a single file from src to dst, preserving permissions
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	// Copy file permissions
	sourceInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.Chmod(dst, sourceInfo.Mode())
}

// copyFileWithMode copies a single file and applies an explicit mode
func copyFileWithMode(src, dst string, mode os.FileMode) error {
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Chmod(dst, mode)
}

// copyDirAll recursively copies a directory tree
func copyDirAll(src, dst string) error {
	sourceInfo, err := os.Stat(src)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dst, sourceInfo.Mode()); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if err := copyDirAll(srcPath, dstPath); err != nil {
				return err
			}
		} else {
			if err := copyFile(srcPath, dstPath); err != nil {
				return err
			}
		}
	}
	return nil
}

// installResource copies a manifest resource entry (file or directory) into
// the bundle, creating parent directories as needed
func installResource(src, dst string, mode os.FileMode) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat resource %s: %w", src, err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), os.FileMode(DirPerms)); err != nil {
		return fmt.Errorf("failed to create resource directory: %w", err)
	}

	if info.IsDir() {
		return copyDirAll(src, dst)
	}
	if mode != 0 {
		return copyFileWithMode(src, dst, mode)
	}
	return copyFile(src, dst)
}
