package bundle

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/hashicorp/go-hclog"

	apperrors "github.com/bundleworks/appshim/pkg/bundle/errors"
	"github.com/bundleworks/appshim/pkg/utils/permissions"
)

// Seal is the integrity record written into Contents/ at build time. The
// signature covers the canonical JSON encoding of the seal with the
// signature field cleared.
type Seal struct {
	Format    string      `json:"format"`
	Created   string      `json:"created"`
	Bundle    SealBundle  `json:"bundle"`
	Entries   []SealEntry `json:"entries"`
	PublicKey string      `json:"public_key"`
	Signature string      `json:"signature,omitempty"`
}

// SealBundle identifies which build produced the seal
type SealBundle struct {
	Name       string `json:"name"`
	Identifier string `json:"identifier"`
	Version    string `json:"version"`
	Tool       string `json:"tool"`
}

// SealEntry records one sealed file, with its path relative to Contents/
type SealEntry struct {
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Mode     string `json:"mode"`
	Checksum string `json:"checksum"`
}

// signingPayload returns the bytes the Ed25519 signature covers
func (s *Seal) signingPayload() ([]byte, error) {
	unsigned := *s
	unsigned.Signature = ""
	return json.Marshal(&unsigned)
}

// collectSealEntries walks Contents/ and records every regular file except
// the seal itself. Entries come back sorted by path so seal output is
// deterministic for identical trees.
func collectSealEntries(contentsDir string) ([]SealEntry, error) {
	var entries []SealEntry

	err := filepath.Walk(contentsDir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(contentsDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == SealFileName {
			return nil
		}

		checksum, err := ChecksumFile(path, ChecksumSHA256)
		if err != nil {
			return fmt.Errorf("failed to checksum %s: %w", rel, err)
		}

		entries = append(entries, SealEntry{
			Path:     rel,
			Size:     info.Size(),
			Mode:     permissions.FormatOctal(uint16(info.Mode().Perm())),
			Checksum: checksum,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
	return entries, nil
}

// WriteSeal seals the bundle tree rooted at paths. The seal lands in
// Contents/ alongside the files it covers.
func WriteSeal(paths *BundlePaths, bundleInfo SealBundle, privateKey ed25519.PrivateKey, publicKey ed25519.PublicKey, logger hclog.Logger) error {
	entries, err := collectSealEntries(paths.Contents())
	if err != nil {
		return err
	}

	seal := &Seal{
		Format:    SealFormatName,
		Created:   time.Now().UTC().Format("2006-01-02T15:04:05Z"),
		Bundle:    bundleInfo,
		Entries:   entries,
		PublicKey: base64.StdEncoding.EncodeToString(publicKey),
	}

	payload, err := seal.signingPayload()
	if err != nil {
		return fmt.Errorf("failed to encode seal: %w", err)
	}
	seal.Signature = base64.StdEncoding.EncodeToString(ed25519.Sign(privateKey, payload))

	data, err := json.MarshalIndent(seal, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode seal: %w", err)
	}
	data = append(data, '\n')

	logger.Debug("🔏 Sealing bundle", "entries", len(entries))
	if err := os.WriteFile(paths.SealFile(), data, os.FileMode(SealPerms)); err != nil {
		return fmt.Errorf("failed to write seal: %w", err)
	}
	return nil
}

// LoadSeal reads and decodes the seal file
func LoadSeal(path string) (*Seal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.ErrNoSeal
		}
		return nil, err
	}

	var seal Seal
	if err := json.Unmarshal(data, &seal); err != nil {
		return nil, fmt.Errorf("failed to decode seal: %w", err)
	}
	if seal.Format != SealFormatName {
		return nil, fmt.Errorf("unsupported seal format %q", seal.Format)
	}
	return &seal, nil
}

// VerifySealSignature checks the Ed25519 signature over the seal payload
func VerifySealSignature(seal *Seal) error {
	if seal.Signature == "" {
		return apperrors.ErrNoSeal
	}

	publicKey, err := base64.StdEncoding.DecodeString(seal.PublicKey)
	if err != nil || len(publicKey) != ed25519.PublicKeySize {
		return fmt.Errorf("%w: bad public key", apperrors.ErrSignatureInvalid)
	}
	signature, err := base64.StdEncoding.DecodeString(seal.Signature)
	if err != nil || len(signature) != ed25519.SignatureSize {
		return fmt.Errorf("%w: bad signature encoding", apperrors.ErrSignatureInvalid)
	}

	payload, err := seal.signingPayload()
	if err != nil {
		return err
	}
	if !ed25519.Verify(ed25519.PublicKey(publicKey), payload, signature) {
		return apperrors.ErrSignatureInvalid
	}
	return nil
}

// VerifySealEntries re-checks every sealed file on disk. The validation
// level controls how much work happens: minimal stops at existence checks,
// everything above that re-hashes file contents.
func VerifySealEntries(paths *BundlePaths, seal *Seal, level ValidationLevel, logger hclog.Logger) []string {
	var failures []string

	for _, entry := range seal.Entries {
		fullPath := filepath.Join(paths.Contents(), filepath.FromSlash(entry.Path))

		info, err := os.Stat(fullPath)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", entry.Path, apperrors.ErrSealedFileGone))
			continue
		}
		if level >= ValidationMinimal {
			continue
		}

		if info.Size() != entry.Size {
			failures = append(failures, fmt.Sprintf("%s: size changed (%d != %d)", entry.Path, info.Size(), entry.Size))
			continue
		}

		if err := VerifyFileChecksum(fullPath, entry.Checksum); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", entry.Path, err))
			logger.Debug("Checksum mismatch", "path", entry.Path, "error", err)
		}
	}

	return failures
}
