// Checksum utilities supporting multiple algorithms with prefixed format.
//
// Format: "algorithm:hexvalue" (e.g., "sha256:c0ffee123...", "adler32:babe1337")

package bundle

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"hash/adler32"
	"io"
	"os"
	"strings"

	apperrors "github.com/bundleworks/appshim/pkg/bundle/errors"
)

// ChecksumAlgorithm represents supported checksum algorithms
type ChecksumAlgorithm int

const (
	ChecksumSHA256 ChecksumAlgorithm = iota
	ChecksumSHA512
	ChecksumAdler32
)

func (c ChecksumAlgorithm) String() string {
	switch c {
	case ChecksumSHA256:
		return "sha256"
	case ChecksumSHA512:
		return "sha512"
	case ChecksumAdler32:
		return "adler32"
	default:
		return "unknown"
	}
}

// ParseChecksum parses a checksum string that may or may not have a prefix
func ParseChecksum(checksumStr string) (ChecksumAlgorithm, string, error) {
	if strings.Contains(checksumStr, ":") {
		parts := strings.SplitN(checksumStr, ":", 2)
		if len(parts) != 2 {
			return ChecksumSHA256, "", fmt.Errorf("invalid checksum format: %s", checksumStr)
		}

		var algo ChecksumAlgorithm
		switch parts[0] {
		case "sha256":
			algo = ChecksumSHA256
		case "sha512":
			algo = ChecksumSHA512
		case "adler32":
			algo = ChecksumAdler32
		default:
			return ChecksumSHA256, "", fmt.Errorf("unknown checksum algorithm: %s", parts[0])
		}

		return algo, parts[1], nil
	}

	// Unprefixed format - guess based on length
	var algo ChecksumAlgorithm
	switch len(checksumStr) {
	case 64:
		algo = ChecksumSHA256
	case 128:
		algo = ChecksumSHA512
	case 8:
		algo = ChecksumAdler32
	default:
		algo = ChecksumSHA256 // Default
	}

	return algo, checksumStr, nil
}

// newHasher returns a fresh hasher and the matching checksum prefix
func newHasher(algorithm ChecksumAlgorithm) (hash.Hash, string) {
	switch algorithm {
	case ChecksumSHA512:
		return sha512.New(), "sha512:"
	case ChecksumAdler32:
		return adler32.New(), "adler32:"
	default:
		return sha256.New(), "sha256:"
	}
}

// CalculateChecksum calculates checksum with prefix
func CalculateChecksum(data []byte, algorithm ChecksumAlgorithm) string {
	h, prefix := newHasher(algorithm)
	h.Write(data)
	return prefix + hex.EncodeToString(h.Sum(nil))
}

// ChecksumFile streams a file through the hasher so large resources never
// land in memory whole
func ChecksumFile(path string, algorithm ChecksumAlgorithm) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	h, prefix := newHasher(algorithm)
	if _, err := io.Copy(h, file); err != nil {
		return "", err
	}
	return prefix + hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyChecksum verifies data against a checksum string
func VerifyChecksum(data []byte, checksumStr string) (bool, error) {
	algo, expected, err := ParseChecksum(checksumStr)
	if err != nil {
		return false, err
	}

	actual := CalculateChecksum(data, algo)

	// Compare just the hex part
	actualParts := strings.Split(actual, ":")
	actualHex := actualParts[len(actualParts)-1]

	return actualHex == expected, nil
}

// VerifyFileChecksum re-hashes a file and compares against a checksum
// string. Mismatches come back as ErrChecksumMismatch.
func VerifyFileChecksum(path, checksumStr string) error {
	algo, expected, err := ParseChecksum(checksumStr)
	if err != nil {
		return err
	}

	actual, err := ChecksumFile(path, algo)
	if err != nil {
		return err
	}

	actualParts := strings.Split(actual, ":")
	actualHex := actualParts[len(actualParts)-1]
	if actualHex != expected {
		return fmt.Errorf("%w: %s", apperrors.ErrChecksumMismatch, actualHex)
	}
	return nil
}
