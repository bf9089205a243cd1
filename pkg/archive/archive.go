package archive

import (
	"archive/tar"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/bundleworks/appshim/pkg/archive/tarball"
)

// Pack archives the bundle at bundlePath into outputPath using the named
// format. The returned checksum covers the finished archive bytes.
func Pack(bundlePath, outputPath, formatName string, logger hclog.Logger) (string, error) {
	format, err := ResolveFormat(formatName)
	if err != nil {
		return "", err
	}
	codec, err := GetCodec(format.Codec)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(bundlePath)
	if err != nil {
		return "", fmt.Errorf("failed to stat bundle: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a bundle directory: %s", bundlePath)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", err
	}

	// Write to a sibling first so a failed pack never leaves a truncated
	// archive behind
	tmpPath := outputPath + ".partial"
	out, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}

	hasher := sha256.New()
	compressed, err := codec.Compress(io.MultiWriter(out, hasher))
	if err != nil {
		out.Close()
		os.Remove(tmpPath)
		return "", err
	}

	logger.Debug("🗜️ Packing bundle", "bundle", bundlePath, "format", format.Name)
	tw := tar.NewWriter(compressed)
	err = tarball.WriteTree(tw, bundlePath, filepath.Base(bundlePath))
	if err == nil {
		err = tw.Close()
	}
	if err == nil {
		err = compressed.Close()
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to pack archive: %w", err)
	}

	if err := os.Rename(tmpPath, outputPath); err != nil {
		os.Remove(tmpPath)
		return "", err
	}

	checksum := "sha256:" + hex.EncodeToString(hasher.Sum(nil))
	logger.Info("🗜️ Archive written", "output", outputPath, "checksum", checksum)
	return checksum, nil
}

// Unpack extracts an archive into destDir, inferring the format from the
// archive file name
func Unpack(archivePath, destDir string, logger hclog.Logger) error {
	format, err := FormatForPath(archivePath)
	if err != nil {
		return err
	}
	codec, err := GetCodec(format.Codec)
	if err != nil {
		return err
	}

	in, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer in.Close()

	decompressed, err := codec.Decompress(in)
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}
	defer decompressed.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}

	logger.Debug("📂 Unpacking archive", "archive", archivePath, "dest", destDir)
	return tarball.ExtractTree(tar.NewReader(decompressed), destDir)
}

// WriteChecksumFile writes the archive checksum next to the archive in
// "<checksum>  <filename>" form
func WriteChecksumFile(archivePath, checksum string) error {
	line := fmt.Sprintf("%s  %s\n", checksum, filepath.Base(archivePath))
	return os.WriteFile(archivePath+".sum", []byte(line), 0o644)
}

// EstimateArchiveSize estimates the archive size for a payload of the
// given size, falling back to the payload size for unknown formats
func EstimateArchiveSize(formatName string, payloadSize int64) int64 {
	format, err := ResolveFormat(formatName)
	if err != nil {
		return payloadSize
	}
	codec, err := GetCodec(format.Codec)
	if err != nil {
		return payloadSize
	}
	return codec.EstimateSize(payloadSize)
}
