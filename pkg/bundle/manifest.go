package bundle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	apperrors "github.com/bundleworks/appshim/pkg/bundle/errors"
)

// Manifest represents the configuration for building an application bundle.
//
// This struct defines the complete configuration needed to assemble a .app
// directory around the native shim. The same schema is accepted as JSON or
// YAML; the file extension selects the parser.
//
// Required fields:
// - App: bundle identity (name, identifier)
// - Script: the launcher script, either copied from a source file or
//   generated from a command vector
//
// Optional fields:
// - Icon: source image rendered into the bundle icon
// - Resources: files and directories copied into Contents/Resources
// - Archive: distribution archive written after the bundle is finalized
type Manifest struct {
	// Bundle identity (required)
	App AppConfig `json:"app" yaml:"app"`

	// Launcher script configuration (required)
	Script ScriptConfig `json:"script" yaml:"script"`

	// Optional configuration
	Icon      *IconConfig     `json:"icon,omitempty" yaml:"icon,omitempty"`
	Resources []ResourceEntry `json:"resources,omitempty" yaml:"resources,omitempty"`
	Archive   *ArchiveConfig  `json:"archive,omitempty" yaml:"archive,omitempty"`
}

// AppConfig contains the bundle identity written into Info.plist
type AppConfig struct {
	Name           string `json:"name" yaml:"name"`
	DisplayName    string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Identifier     string `json:"identifier" yaml:"identifier"`
	Version        string `json:"version,omitempty" yaml:"version,omitempty"`
	ShortVersion   string `json:"short_version,omitempty" yaml:"short_version,omitempty"`
	MinimumSystem  string `json:"minimum_system,omitempty" yaml:"minimum_system,omitempty"`
	Category       string `json:"category,omitempty" yaml:"category,omitempty"`
	HighResolution *bool  `json:"high_resolution,omitempty" yaml:"high_resolution,omitempty"`
	Background     bool   `json:"background,omitempty" yaml:"background,omitempty"`
}

// ScriptConfig defines the launcher script placed next to the shim.
// Either Source (an existing script copied verbatim) or Command (a shell
// command generated into a fresh script) must be set.
type ScriptConfig struct {
	Source      string            `json:"source,omitempty" yaml:"source,omitempty"`
	Command     string            `json:"command,omitempty" yaml:"command,omitempty"`
	WorkingDir  string            `json:"working_dir,omitempty" yaml:"working_dir,omitempty"`
	Environment map[string]string `json:"environment,omitempty" yaml:"environment,omitempty"`
}

// IconConfig defines the bundle icon rendered from a source image
type IconConfig struct {
	Source string `json:"source" yaml:"source"`
	Sizes  []int  `json:"sizes,omitempty" yaml:"sizes,omitempty"`
}

// ResourceEntry defines a file or directory copied into Contents/Resources
type ResourceEntry struct {
	Source      string `json:"source" yaml:"source"`                               // Source path on disk
	Target      string `json:"target,omitempty" yaml:"target,omitempty"`           // Destination relative to Resources/
	Permissions string `json:"permissions,omitempty" yaml:"permissions,omitempty"` // Unix permissions (e.g., "0755")
}

// ArchiveConfig defines the distribution archive written after the build
type ArchiveConfig struct {
	Format string `json:"format,omitempty" yaml:"format,omitempty"` // "tar.gz" or "tar.bz2"
	Output string `json:"output,omitempty" yaml:"output,omitempty"`
}

// LoadManifest reads and parses a build manifest. YAML is selected by the
// .yaml/.yml extension, JSON otherwise.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest Manifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &manifest); err != nil {
			return nil, fmt.Errorf("failed to parse manifest: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &manifest); err != nil {
			return nil, fmt.Errorf("failed to parse manifest: %w", err)
		}
	}

	if err := manifest.Validate(); err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	manifest.resolveSources(filepath.Dir(absPath))
	return &manifest, nil
}

// resolveSources anchors relative source paths at the manifest's directory
// so builds behave the same from any working directory
func (m *Manifest) resolveSources(baseDir string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(baseDir, p)
	}

	m.Script.Source = resolve(m.Script.Source)
	if m.Icon != nil {
		m.Icon.Source = resolve(m.Icon.Source)
	}
	for i := range m.Resources {
		m.Resources[i].Source = resolve(m.Resources[i].Source)
	}
}

// Validate checks the manifest for the fields a build cannot proceed without
func (m *Manifest) Validate() error {
	if m.App.Name == "" {
		return fmt.Errorf("%w: app.name is required", apperrors.ErrManifestInvalid)
	}
	if strings.ContainsRune(m.App.Name, os.PathSeparator) {
		return fmt.Errorf("%w: app.name must not contain path separators", apperrors.ErrManifestInvalid)
	}
	if strings.HasSuffix(m.App.Name, BundleExtension) {
		return fmt.Errorf("%w: app.name must not carry the %s extension", apperrors.ErrManifestInvalid, BundleExtension)
	}
	if m.App.Identifier == "" {
		return fmt.Errorf("%w: app.identifier is required", apperrors.ErrManifestInvalid)
	}
	if m.Script.Source == "" && m.Script.Command == "" {
		return fmt.Errorf("%w: script.source or script.command is required", apperrors.ErrManifestInvalid)
	}
	if m.Script.Source != "" && m.Script.Command != "" {
		return fmt.Errorf("%w: script.source and script.command are mutually exclusive", apperrors.ErrManifestInvalid)
	}
	for i, resource := range m.Resources {
		if resource.Source == "" {
			return fmt.Errorf("%w: resources[%d].source is required", apperrors.ErrManifestInvalid, i)
		}
		if strings.HasPrefix(resource.Target, "/") || strings.Contains(resource.Target, "..") {
			return fmt.Errorf("%w: resources[%d].target must stay inside the bundle", apperrors.ErrManifestInvalid, i)
		}
	}
	if m.Archive != nil && m.Archive.Format != "" {
		switch strings.ToLower(m.Archive.Format) {
		case "tar.gz", "tgz", "tar.bz2", "tbz2":
		default:
			return fmt.Errorf("%w: unsupported archive format %q", apperrors.ErrManifestInvalid, m.Archive.Format)
		}
	}
	return nil
}

// DisplayName returns the display name, falling back to the bundle name
func (m *Manifest) DisplayName() string {
	if m.App.DisplayName != "" {
		return m.App.DisplayName
	}
	return m.App.Name
}

// BundleVersion returns the build version, falling back to the default
func (m *Manifest) BundleVersion() string {
	if m.App.Version != "" {
		return m.App.Version
	}
	return DefaultBundleVersion
}

// ShortVersion returns the user-visible version, falling back to the build
// version
func (m *Manifest) ShortVersion() string {
	if m.App.ShortVersion != "" {
		return m.App.ShortVersion
	}
	return m.BundleVersion()
}
