package bundle

import (
	"crypto/ed25519"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSigningKeys_SeedDeterministic(t *testing.T) {
	priv1, pub1, err := resolveSigningKeys("", "", "release-seed")
	require.NoError(t, err)
	priv2, pub2, err := resolveSigningKeys("", "", "release-seed")
	require.NoError(t, err)

	assert.Equal(t, priv1, priv2, "same seed must derive the same private key")
	assert.Equal(t, pub1, pub2)

	priv3, _, err := resolveSigningKeys("", "", "other-seed")
	require.NoError(t, err)
	assert.NotEqual(t, priv1, priv3, "different seeds must derive different keys")
}

func TestResolveSigningKeys_SeedFromEnvironment(t *testing.T) {
	t.Setenv("APPSHIM_KEY_SEED", "env-carried-seed")

	privEnv, _, err := resolveSigningKeys("", "", "env")
	require.NoError(t, err)

	privDirect, _, err := resolveSigningKeys("", "", "env-carried-seed")
	require.NoError(t, err)
	assert.Equal(t, privDirect, privEnv, `seed "env" must read APPSHIM_KEY_SEED`)
}

func TestResolveSigningKeys_SeedEnvMissing(t *testing.T) {
	t.Setenv("APPSHIM_KEY_SEED", "")

	_, _, err := resolveSigningKeys("", "", "env")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APPSHIM_KEY_SEED")
}

func TestResolveSigningKeys_Ephemeral(t *testing.T) {
	priv1, pub1, err := resolveSigningKeys("", "", "")
	require.NoError(t, err)
	priv2, _, err := resolveSigningKeys("", "", "")
	require.NoError(t, err)

	assert.Len(t, []byte(priv1), ed25519.PrivateKeySize)
	assert.Len(t, []byte(pub1), ed25519.PublicKeySize)
	assert.NotEqual(t, priv1, priv2, "ephemeral keys must differ between calls")
}

func TestGenerateKeyFiles_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	privPath := filepath.Join(dir, "signing.key")
	pubPath := filepath.Join(dir, "signing.pub")

	require.NoError(t, GenerateKeyFiles(privPath, pubPath))

	privInfo, err := os.Stat(privPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(KeyPerms), privInfo.Mode().Perm(), "private key must stay owner-only")

	privateKey, publicKey, err := loadKeysFromFiles(privPath, pubPath)
	require.NoError(t, err)
	assert.Len(t, []byte(privateKey), ed25519.PrivateKeySize)
	assert.Equal(t, ed25519.PublicKey(privateKey.Public().(ed25519.PublicKey)), publicKey,
		"public key file must match the private key")

	// Signature made with the loaded pair verifies
	message := []byte("sealed content")
	signature := ed25519.Sign(privateKey, message)
	assert.True(t, ed25519.Verify(publicKey, message, signature))
}

func TestLoadKeysFromFiles_DerivedPublicKey(t *testing.T) {
	dir := t.TempDir()
	privPath := filepath.Join(dir, "signing.key")
	pubPath := filepath.Join(dir, "signing.pub")
	require.NoError(t, GenerateKeyFiles(privPath, pubPath))

	// Omitting the public key path derives it from the private key
	privateKey, derived, err := loadKeysFromFiles(privPath, "")
	require.NoError(t, err)
	assert.Equal(t, privateKey.Public().(ed25519.PublicKey), derived)
}

func TestLoadKeysFromFiles_Errors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := loadKeysFromFiles(filepath.Join(dir, "missing.key"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read private key")

	notPEM := filepath.Join(dir, "garbage.key")
	require.NoError(t, os.WriteFile(notPEM, []byte("not a pem file"), 0o600))
	_, _, err = loadKeysFromFiles(notPEM, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PEM")
}

func TestResolveSigningKeys_FromFiles(t *testing.T) {
	dir := t.TempDir()
	privPath := filepath.Join(dir, "signing.key")
	pubPath := filepath.Join(dir, "signing.pub")
	require.NoError(t, GenerateKeyFiles(privPath, pubPath))

	priv1, pub1, err := resolveSigningKeys(privPath, pubPath, "")
	require.NoError(t, err)
	priv2, pub2, err := resolveSigningKeys(privPath, "", "ignored-when-files-present")
	require.NoError(t, err)

	assert.Equal(t, priv1, priv2, "file-backed keys win over any seed")
	assert.Equal(t, pub1, pub2)
}
