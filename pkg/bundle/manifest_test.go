package bundle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/bundleworks/appshim/pkg/bundle/errors"
)

func writeManifest(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadManifest_JSON(t *testing.T) {
	path := writeManifest(t, "app.json", `{
		"app": {
			"name": "Demo",
			"identifier": "io.bundleworks.demo",
			"version": "1.2.0"
		},
		"script": {
			"command": "python3 -m demo",
			"working_dir": "~/demo"
		}
	}`)

	manifest, err := LoadManifest(path)
	require.NoError(t, err)

	assert.Equal(t, "Demo", manifest.App.Name)
	assert.Equal(t, "io.bundleworks.demo", manifest.App.Identifier)
	assert.Equal(t, "1.2.0", manifest.App.Version)
	assert.Equal(t, "python3 -m demo", manifest.Script.Command)
	assert.Equal(t, "~/demo", manifest.Script.WorkingDir)
	assert.Nil(t, manifest.Icon)
	assert.Nil(t, manifest.Archive)
}

func TestLoadManifest_YAML(t *testing.T) {
	path := writeManifest(t, "app.yaml", `
app:
  name: Demo
  display_name: Demo Application
  identifier: io.bundleworks.demo
  background: true
script:
  command: ./serve --port 8080
  environment:
    DEMO_ENV: production
    DEMO_CACHE: "1"
archive:
  format: tar.bz2
`)

	manifest, err := LoadManifest(path)
	require.NoError(t, err)

	assert.Equal(t, "Demo", manifest.App.Name)
	assert.Equal(t, "Demo Application", manifest.App.DisplayName)
	assert.True(t, manifest.App.Background)
	assert.Equal(t, "./serve --port 8080", manifest.Script.Command)
	assert.Equal(t, map[string]string{
		"DEMO_ENV":   "production",
		"DEMO_CACHE": "1",
	}, manifest.Script.Environment)
	require.NotNil(t, manifest.Archive)
	assert.Equal(t, "tar.bz2", manifest.Archive.Format)
}

func TestLoadManifest_RelativeSourcesAnchored(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"app": {"name": "Demo", "identifier": "io.bundleworks.demo"},
		"script": {"source": "run.sh"},
		"icon": {"source": "art/icon.png"},
		"resources": [
			{"source": "data/seed.db"},
			{"source": "/absolute/path.txt"}
		]
	}`), 0o644))

	manifest, err := LoadManifest(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "run.sh"), manifest.Script.Source)
	assert.Equal(t, filepath.Join(dir, "art", "icon.png"), manifest.Icon.Source)
	assert.Equal(t, filepath.Join(dir, "data", "seed.db"), manifest.Resources[0].Source)
	assert.Equal(t, "/absolute/path.txt", manifest.Resources[1].Source)
}

func TestLoadManifest_MissingFile(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read manifest")
}

func TestLoadManifest_MalformedJSON(t *testing.T) {
	path := writeManifest(t, "bad.json", `{"app": {`)
	_, err := LoadManifest(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse manifest")
}

func TestLoadManifest_MalformedYAML(t *testing.T) {
	path := writeManifest(t, "bad.yaml", "app:\n  name: [unclosed")
	_, err := LoadManifest(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse manifest")
}

func TestManifestValidate(t *testing.T) {
	valid := func() *Manifest {
		return &Manifest{
			App: AppConfig{
				Name:       "Demo",
				Identifier: "io.bundleworks.demo",
			},
			Script: ScriptConfig{Command: "python3 -m demo"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Manifest)
		wantErr string
	}{
		{
			name:   "minimal manifest passes",
			mutate: func(m *Manifest) {},
		},
		{
			name:    "missing app name",
			mutate:  func(m *Manifest) { m.App.Name = "" },
			wantErr: "app.name is required",
		},
		{
			name:    "app name with path separator",
			mutate:  func(m *Manifest) { m.App.Name = "Demo/Evil" },
			wantErr: "path separators",
		},
		{
			name:    "app name carrying bundle extension",
			mutate:  func(m *Manifest) { m.App.Name = "Demo.app" },
			wantErr: "must not carry",
		},
		{
			name:    "missing identifier",
			mutate:  func(m *Manifest) { m.App.Identifier = "" },
			wantErr: "app.identifier is required",
		},
		{
			name: "no script at all",
			mutate: func(m *Manifest) {
				m.Script = ScriptConfig{}
			},
			wantErr: "script.source or script.command is required",
		},
		{
			name: "script source and command together",
			mutate: func(m *Manifest) {
				m.Script.Source = "run.sh"
			},
			wantErr: "mutually exclusive",
		},
		{
			name: "resource without source",
			mutate: func(m *Manifest) {
				m.Resources = []ResourceEntry{{Target: "data"}}
			},
			wantErr: "resources[0].source is required",
		},
		{
			name: "resource target escaping the bundle",
			mutate: func(m *Manifest) {
				m.Resources = []ResourceEntry{{Source: "x", Target: "../outside"}}
			},
			wantErr: "must stay inside the bundle",
		},
		{
			name: "resource target absolute",
			mutate: func(m *Manifest) {
				m.Resources = []ResourceEntry{{Source: "x", Target: "/etc/evil"}}
			},
			wantErr: "must stay inside the bundle",
		},
		{
			name: "unsupported archive format",
			mutate: func(m *Manifest) {
				m.Archive = &ArchiveConfig{Format: "7z"}
			},
			wantErr: "unsupported archive format",
		},
		{
			name: "archive format case insensitive",
			mutate: func(m *Manifest) {
				m.Archive = &ArchiveConfig{Format: "TAR.GZ"}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manifest := valid()
			tt.mutate(manifest)

			err := manifest.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrManifestInvalid)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestManifestFallbacks(t *testing.T) {
	manifest := &Manifest{
		App: AppConfig{Name: "Demo", Identifier: "io.bundleworks.demo"},
	}

	assert.Equal(t, "Demo", manifest.DisplayName())
	assert.Equal(t, DefaultBundleVersion, manifest.BundleVersion())
	assert.Equal(t, DefaultBundleVersion, manifest.ShortVersion())

	manifest.App.DisplayName = "Demo Application"
	manifest.App.Version = "3.1.4"
	assert.Equal(t, "Demo Application", manifest.DisplayName())
	assert.Equal(t, "3.1.4", manifest.BundleVersion())
	assert.Equal(t, "3.1.4", manifest.ShortVersion(), "short version falls back to the build version")

	manifest.App.ShortVersion = "3.1"
	assert.Equal(t, "3.1", manifest.ShortVersion())
}
