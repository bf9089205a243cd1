package bundle

import (
	"crypto/ed25519"
	cryptorand "crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

// loadKeysFromFiles loads Ed25519 keys from PEM files
func loadKeysFromFiles(privateKeyPath, publicKeyPath string) (ed25519.PrivateKey, ed25519.PublicKey, error) {
	// Load private key
	privateKeyData, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read private key: %w", err)
	}

	block, _ := pem.Decode(privateKeyData)
	if block == nil {
		return nil, nil, fmt.Errorf("failed to decode private key PEM")
	}

	var privateKey ed25519.PrivateKey

	// Try to parse as PKCS8 first (standard format)
	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		var ok bool
		privateKey, ok = key.(ed25519.PrivateKey)
		if !ok {
			return nil, nil, fmt.Errorf("private key is not Ed25519")
		}
	} else if len(block.Bytes) == ed25519.PrivateKeySize {
		// Try raw Ed25519 format
		privateKey = ed25519.PrivateKey(block.Bytes)
	} else {
		return nil, nil, fmt.Errorf("unable to parse private key: %w", err)
	}

	// Derive or load public key
	var publicKey ed25519.PublicKey
	if publicKeyPath != "" {
		publicKeyData, err := os.ReadFile(publicKeyPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read public key: %w", err)
		}

		block, _ := pem.Decode(publicKeyData)
		if block == nil {
			return nil, nil, fmt.Errorf("failed to decode public key PEM")
		}

		// Try to parse as PKIX first
		if key, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
			var ok bool
			publicKey, ok = key.(ed25519.PublicKey)
			if !ok {
				return nil, nil, fmt.Errorf("public key is not Ed25519")
			}
		} else if len(block.Bytes) == ed25519.PublicKeySize {
			// Try raw Ed25519 format
			publicKey = ed25519.PublicKey(block.Bytes)
		} else {
			return nil, nil, fmt.Errorf("unable to parse public key: %w", err)
		}
	} else {
		// Derive public key from private key
		publicKey = privateKey.Public().(ed25519.PublicKey)
	}

	return privateKey, publicKey, nil
}

// resolveSigningKeys produces the Ed25519 key pair used to sign a seal.
// Priority: key files, then a deterministic seed, then random ephemeral keys.
func resolveSigningKeys(privateKeyPath, publicKeyPath, keySeed string) (ed25519.PrivateKey, ed25519.PublicKey, error) {
	if privateKeyPath != "" {
		return loadKeysFromFiles(privateKeyPath, publicKeyPath)
	}

	if keySeed != "" {
		actualSeed := keySeed
		if keySeed == "env" {
			actualSeed = os.Getenv("APPSHIM_KEY_SEED")
			if actualSeed == "" {
				return nil, nil, fmt.Errorf("APPSHIM_KEY_SEED environment variable not set")
			}
		}

		seed := sha256.Sum256([]byte(actualSeed))
		privateKey := ed25519.NewKeyFromSeed(seed[:])
		return privateKey, privateKey.Public().(ed25519.PublicKey), nil
	}

	publicKey, privateKey, err := ed25519.GenerateKey(cryptorand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate ephemeral keys: %w", err)
	}
	return privateKey, publicKey, nil
}

// GenerateKeyFiles writes a fresh Ed25519 key pair as PEM files. The private
// key stays owner-only.
func GenerateKeyFiles(privateKeyPath, publicKeyPath string) error {
	publicKey, privateKey, err := ed25519.GenerateKey(cryptorand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate key pair: %w", err)
	}

	privateDER, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return fmt.Errorf("failed to marshal private key: %w", err)
	}
	privatePEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privateDER})
	if err := os.WriteFile(privateKeyPath, privatePEM, os.FileMode(KeyPerms)); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}

	publicDER, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return fmt.Errorf("failed to marshal public key: %w", err)
	}
	publicPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicDER})
	if err := os.WriteFile(publicKeyPath, publicPEM, os.FileMode(SealPerms)); err != nil {
		return fmt.Errorf("failed to write public key: %w", err)
	}

	return nil
}
