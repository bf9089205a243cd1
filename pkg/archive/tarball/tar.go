// Package tarball streams directory trees to and from POSIX tar
package tarball

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// WriteTree writes the tree rooted at root into tw. Entries are named
// prefix/<relative path> and emitted in sorted order so identical trees
// produce identical archives.
func WriteTree(tw *tar.Writer, root, prefix string) error {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return err
	}
	sort.Strings(paths)

	for _, path := range paths {
		if err := writeEntry(tw, root, path, prefix); err != nil {
			return err
		}
	}
	return nil
}

func writeEntry(tw *tar.Writer, root, path, prefix string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}

	var link string
	if info.Mode().Type() == os.ModeSymlink {
		link, err = os.Readlink(path)
		if err != nil {
			return err
		}
		if filepath.IsAbs(link) {
			return fmt.Errorf("absolute symlink not allowed in archive: %s", path)
		}
	}

	header, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return err
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return err
	}
	header.Name = filepath.ToSlash(filepath.Join(prefix, rel))
	if info.IsDir() {
		header.Name += "/"
	}

	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		// Nothing more to write for directories and symlinks
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := io.Copy(tw, file); err != nil {
		return err
	}
	return nil
}

// ExtractTree unpacks a tar stream under destDir. Entry names that would
// land outside destDir are rejected.
func ExtractTree(tr *tar.Reader, destDir string) error {
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		dest, err := safeJoin(destDir, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, fs.FileMode(header.Mode).Perm()); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return err
			}
			if err := extractFile(tr, header, dest); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if header.Linkname == "" || filepath.IsAbs(header.Linkname) {
				return fmt.Errorf("refusing symlink %q -> %q", header.Name, header.Linkname)
			}
			if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return err
			}
			if err := os.Symlink(header.Linkname, dest); err != nil && !os.IsExist(err) {
				return err
			}
		default:
			return fmt.Errorf("unsupported tar entry type %v for %s", header.Typeflag, header.Name)
		}
	}
}

func extractFile(tr *tar.Reader, header *tar.Header, dest string) error {
	file, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fs.FileMode(header.Mode).Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(file, tr); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// safeJoin joins name under dir, rejecting path escapes
func safeJoin(dir, name string) (string, error) {
	cleaned := filepath.Clean(filepath.Join(dir, filepath.FromSlash(name)))
	if cleaned != dir && !strings.HasPrefix(cleaned, dir+string(os.PathSeparator)) {
		return "", fmt.Errorf("tar entry escapes destination: %s", name)
	}
	return cleaned, nil
}
