package bundle

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/bundleworks/appshim/pkg/bundle/errors"
)

func TestCalculateChecksum(t *testing.T) {
	data := []byte("bundle payload")

	tests := []struct {
		name      string
		algorithm ChecksumAlgorithm
		prefix    string
		hexLen    int
	}{
		{"sha256", ChecksumSHA256, "sha256:", 64},
		{"sha512", ChecksumSHA512, "sha512:", 128},
		{"adler32", ChecksumAdler32, "adler32:", 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checksum := CalculateChecksum(data, tt.algorithm)
			assert.True(t, strings.HasPrefix(checksum, tt.prefix), "checksum %q should carry prefix %q", checksum, tt.prefix)
			assert.Len(t, strings.TrimPrefix(checksum, tt.prefix), tt.hexLen)
		})
	}
}

func TestCalculateChecksum_KnownValue(t *testing.T) {
	// sha256 of the empty input is a fixed constant
	checksum := CalculateChecksum([]byte{}, ChecksumSHA256)
	assert.Equal(t, "sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", checksum)
}

func TestCalculateChecksum_Deterministic(t *testing.T) {
	data := []byte("same bytes, same digest")
	assert.Equal(t, CalculateChecksum(data, ChecksumSHA256), CalculateChecksum(data, ChecksumSHA256))
	assert.NotEqual(t, CalculateChecksum(data, ChecksumSHA256), CalculateChecksum([]byte("other bytes"), ChecksumSHA256))
}

func TestParseChecksum(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantAlgo ChecksumAlgorithm
		wantHex  string
		wantErr  bool
	}{
		{
			name:     "prefixed sha256",
			input:    "sha256:" + strings.Repeat("ab", 32),
			wantAlgo: ChecksumSHA256,
			wantHex:  strings.Repeat("ab", 32),
		},
		{
			name:     "prefixed sha512",
			input:    "sha512:" + strings.Repeat("cd", 64),
			wantAlgo: ChecksumSHA512,
			wantHex:  strings.Repeat("cd", 64),
		},
		{
			name:     "prefixed adler32",
			input:    "adler32:babe1337",
			wantAlgo: ChecksumAdler32,
			wantHex:  "babe1337",
		},
		{
			name:     "bare 64 chars guesses sha256",
			input:    strings.Repeat("ef", 32),
			wantAlgo: ChecksumSHA256,
			wantHex:  strings.Repeat("ef", 32),
		},
		{
			name:     "bare 128 chars guesses sha512",
			input:    strings.Repeat("01", 64),
			wantAlgo: ChecksumSHA512,
			wantHex:  strings.Repeat("01", 64),
		},
		{
			name:     "bare 8 chars guesses adler32",
			input:    "deadbeef",
			wantAlgo: ChecksumAdler32,
			wantHex:  "deadbeef",
		},
		{
			name:    "unknown algorithm",
			input:   "md5:abcdef",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			algo, hexPart, err := ParseChecksum(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAlgo, algo)
			assert.Equal(t, tt.wantHex, hexPart)
		})
	}
}

func TestVerifyChecksum(t *testing.T) {
	data := []byte("verify me")
	checksum := CalculateChecksum(data, ChecksumSHA256)

	ok, err := VerifyChecksum(data, checksum)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyChecksum([]byte("tampered"), checksum)
	require.NoError(t, err)
	assert.False(t, ok)

	// Bare hex without a prefix still verifies
	bare := strings.TrimPrefix(checksum, "sha256:")
	ok, err = VerifyChecksum(data, bare)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = VerifyChecksum(data, "md5:0123")
	assert.Error(t, err)
}

func TestChecksumFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payload.bin")
	data := []byte("file contents to hash")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	checksum, err := ChecksumFile(path, ChecksumSHA256)
	require.NoError(t, err)
	assert.Equal(t, CalculateChecksum(data, ChecksumSHA256), checksum,
		"streaming and in-memory hashing must agree")

	_, err = ChecksumFile(filepath.Join(dir, "missing.bin"), ChecksumSHA256)
	assert.Error(t, err)
}

func TestVerifyFileChecksum(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payload.bin")
	require.NoError(t, os.WriteFile(path, []byte("original"), 0o644))

	checksum, err := ChecksumFile(path, ChecksumSHA256)
	require.NoError(t, err)
	assert.NoError(t, VerifyFileChecksum(path, checksum))

	require.NoError(t, os.WriteFile(path, []byte("tampered"), 0o644))
	err = VerifyFileChecksum(path, checksum)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrChecksumMismatch)
}

func TestChecksumAlgorithmString(t *testing.T) {
	assert.Equal(t, "sha256", ChecksumSHA256.String())
	assert.Equal(t, "sha512", ChecksumSHA512.String())
	assert.Equal(t, "adler32", ChecksumAdler32.String())
	assert.Equal(t, "unknown", ChecksumAlgorithm(99).String())
}
