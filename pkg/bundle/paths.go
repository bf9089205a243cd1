package bundle

import (
	"os"
	"path/filepath"
	"strings"
)

// ScriptPath composes the fixed-named sibling script path for a resolved
// executable path. Purely mechanical: the parent directory plus the fixed
// script name, no existence check.
func ScriptPath(exePath string) string {
	return filepath.Join(filepath.Dir(exePath), LauncherScriptName)
}

// BundlePaths manages all paths inside a .app bundle
type BundlePaths struct {
	root string
	name string
}

// NewBundlePaths creates BundlePaths from the bundle root directory
func NewBundlePaths(root string) *BundlePaths {
	name := strings.TrimSuffix(filepath.Base(root), BundleExtension)
	return &BundlePaths{
		root: root,
		name: name,
	}
}

// NewBundlePathsFromExecutable derives the bundle root from a resolved shim
// path (<root>.app/Contents/MacOS/<shim>). The second return is false when
// the executable does not sit inside a bundle-shaped directory tree.
func NewBundlePathsFromExecutable(exePath string) (*BundlePaths, bool) {
	macosDir := filepath.Dir(exePath)
	contentsDir := filepath.Dir(macosDir)
	root := filepath.Dir(contentsDir)

	if filepath.Base(macosDir) != MacOSDirName ||
		filepath.Base(contentsDir) != ContentsDirName ||
		!strings.HasSuffix(filepath.Base(root), BundleExtension) {
		return nil, false
	}
	return NewBundlePaths(root), true
}

// ==================== Directory Paths ====================

// Root returns the bundle root directory (the .app itself)
func (p *BundlePaths) Root() string {
	return p.root
}

// Contents returns the Contents directory path
func (p *BundlePaths) Contents() string {
	return filepath.Join(p.root, ContentsDirName)
}

// MacOS returns the native executable directory path
func (p *BundlePaths) MacOS() string {
	return filepath.Join(p.Contents(), MacOSDirName)
}

// Resources returns the Resources directory path
func (p *BundlePaths) Resources() string {
	return filepath.Join(p.Contents(), ResourcesDirName)
}

// ==================== File Paths ====================

// InfoPlist returns the Info.plist file path
func (p *BundlePaths) InfoPlist() string {
	return filepath.Join(p.Contents(), InfoPlistName)
}

// PkgInfo returns the PkgInfo file path
func (p *BundlePaths) PkgInfo() string {
	return filepath.Join(p.Contents(), PkgInfoName)
}

// Shim returns the native shim path: the bundle executable carries the
// bundle's own name
func (p *BundlePaths) Shim() string {
	return filepath.Join(p.MacOS(), p.name)
}

// LauncherScript returns the launcher script path next to the shim
func (p *BundlePaths) LauncherScript() string {
	return filepath.Join(p.MacOS(), LauncherScriptName)
}

// SealFile returns the resource seal path
func (p *BundlePaths) SealFile() string {
	return filepath.Join(p.Contents(), SealFileName)
}

// IconFile returns the icon path for a base name (without extension)
func (p *BundlePaths) IconFile(base string) string {
	return filepath.Join(p.Resources(), base+".icns")
}

// ==================== Utility Methods ====================

// Name returns the bundle name without the .app extension
func (p *BundlePaths) Name() string {
	return p.name
}

// Exists checks if the bundle root exists
func (p *BundlePaths) Exists() bool {
	_, err := os.Stat(p.root)
	return err == nil
}

// ContentsExist checks if the Contents directory exists
func (p *BundlePaths) ContentsExist() bool {
	_, err := os.Stat(p.Contents())
	return err == nil
}
