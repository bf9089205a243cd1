package archive_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bundleworks/appshim/pkg/archive"
	_ "github.com/bundleworks/appshim/pkg/archive/compress" // register archive codecs
)

// stageBundleTree fakes a small .app layout with mixed content
func stageBundleTree(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "Demo.app")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Contents", "MacOS"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Contents", "Resources"), 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(root, "Contents", "MacOS", "Demo"), []byte("shim bytes"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Contents", "MacOS", "launcher.sh"), []byte("#!/bin/bash\nexec ./app\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Contents", "Resources", "data.txt"), []byte("resource payload"), 0o644))

	if err := os.Symlink("data.txt", filepath.Join(root, "Contents", "Resources", "alias.txt")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	return root
}

func TestPackUnpack_RoundTrip(t *testing.T) {
	for _, formatName := range []string{"tar.gz", "tar.bz2"} {
		t.Run(formatName, func(t *testing.T) {
			bundle := stageBundleTree(t)
			dir := t.TempDir()
			format, err := archive.ResolveFormat(formatName)
			require.NoError(t, err)
			archivePath := filepath.Join(dir, "demo"+format.Extension)

			checksum, err := archive.Pack(bundle, archivePath, formatName, hclog.NewNullLogger())
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(checksum, "sha256:"))
			assert.Len(t, strings.TrimPrefix(checksum, "sha256:"), 64)

			// No partial file may linger
			_, err = os.Stat(archivePath + ".partial")
			assert.True(t, os.IsNotExist(err))

			dest := filepath.Join(dir, "unpacked")
			require.NoError(t, archive.Unpack(archivePath, dest, hclog.NewNullLogger()))

			// The tree comes back rooted under the bundle's base name
			shimData, err := os.ReadFile(filepath.Join(dest, "Demo.app", "Contents", "MacOS", "Demo"))
			require.NoError(t, err)
			assert.Equal(t, "shim bytes", string(shimData))

			shimInfo, err := os.Stat(filepath.Join(dest, "Demo.app", "Contents", "MacOS", "Demo"))
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o755), shimInfo.Mode().Perm(), "executable bits must survive the round trip")

			resourceData, err := os.ReadFile(filepath.Join(dest, "Demo.app", "Contents", "Resources", "data.txt"))
			require.NoError(t, err)
			assert.Equal(t, "resource payload", string(resourceData))

			// Relative symlinks survive
			target, err := os.Readlink(filepath.Join(dest, "Demo.app", "Contents", "Resources", "alias.txt"))
			require.NoError(t, err)
			assert.Equal(t, "data.txt", target)
		})
	}
}

func TestPack_RejectsNonDirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "not-a-bundle")
	require.NoError(t, os.WriteFile(file, []byte("flat file"), 0o644))

	_, err := archive.Pack(file, filepath.Join(dir, "out.tar.gz"), "tar.gz", hclog.NewNullLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a bundle directory")

	_, err = archive.Pack(filepath.Join(dir, "missing"), filepath.Join(dir, "out.tar.gz"), "tar.gz", hclog.NewNullLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to stat bundle")
}

func TestPack_UnknownFormat(t *testing.T) {
	bundle := stageBundleTree(t)

	_, err := archive.Pack(bundle, filepath.Join(t.TempDir(), "out.rar"), "rar", hclog.NewNullLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported archive format")
	assert.Contains(t, err.Error(), "tar.bz2, tar.gz", "the error names the supported formats")
}

func TestUnpack_UnknownSuffix(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "mystery.zip")
	require.NoError(t, os.WriteFile(file, []byte("zip-ish"), 0o644))

	err := archive.Unpack(file, filepath.Join(dir, "dest"), hclog.NewNullLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot infer archive format")
}

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		input     string
		wantName  string
		wantCodec string
		wantErr   bool
	}{
		{"tar.gz", "tar.gz", "gzip", false},
		{"tgz", "tar.gz", "gzip", false},
		{"tar.bz2", "tar.bz2", "bzip2", false},
		{"tbz2", "tar.bz2", "bzip2", false},
		{"TAR.GZ", "tar.gz", "gzip", false},
		{"zip", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			format, err := archive.ResolveFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, format.Name)
			assert.Equal(t, tt.wantCodec, format.Codec)
		})
	}
}

func TestFormatForPath(t *testing.T) {
	tests := []struct {
		path     string
		wantName string
		wantErr  bool
	}{
		{"demo-1.0.0.tar.gz", "tar.gz", false},
		{"demo.tgz", "tar.gz", false},
		{"demo.TAR.GZ", "tar.gz", false},
		{"builds/demo.tar.bz2", "tar.bz2", false},
		{"demo.tbz2", "tar.bz2", false},
		{"demo.zip", "", true},
		{"demo.tar", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			format, err := archive.FormatForPath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, format.Name)
		})
	}
}

func TestFormatNames(t *testing.T) {
	assert.Equal(t, []string{"tar.bz2", "tar.gz"}, archive.FormatNames())
}

func TestGetCodec(t *testing.T) {
	for _, name := range []string{"gzip", "bzip2"} {
		codec, err := archive.GetCodec(name)
		require.NoError(t, err)
		assert.Equal(t, name, codec.Name())
	}

	_, err := archive.GetCodec("lzma")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown codec")
}

func TestEstimateArchiveSize(t *testing.T) {
	gzEstimate := archive.EstimateArchiveSize("tar.gz", 1_000_000)
	assert.Greater(t, gzEstimate, int64(0))
	assert.Less(t, gzEstimate, int64(1_000_000), "compression estimate should be below the payload size")

	bz2Estimate := archive.EstimateArchiveSize("tar.bz2", 1_000_000)
	assert.Greater(t, bz2Estimate, int64(0))

	// Unknown formats fall back to the payload size
	assert.Equal(t, int64(12_345), archive.EstimateArchiveSize("zip", 12_345))
}

func TestWriteChecksumFile(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "demo-1.0.0.tar.gz")

	require.NoError(t, archive.WriteChecksumFile(archivePath, "sha256:"+strings.Repeat("ab", 32)))

	data, err := os.ReadFile(archivePath + ".sum")
	require.NoError(t, err)
	assert.Equal(t, "sha256:"+strings.Repeat("ab", 32)+"  demo-1.0.0.tar.gz\n", string(data))
}
