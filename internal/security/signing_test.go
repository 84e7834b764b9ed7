package security

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyPairSaveAndLoad(t *testing.T) {
	pub, priv, err := GenerateKeyPair()
	require.NoError(t, err)

	dir := t.TempDir()
	pubPath := filepath.Join(dir, "server.pub")
	privPath := filepath.Join(dir, "server.priv")
	require.NoError(t, SaveKeyPair(pub, priv, pubPath, privPath))

	pub2, err := LoadPublicKey(pubPath)
	require.NoError(t, err)
	priv2, err := LoadPrivateKey(privPath)
	require.NoError(t, err)
	assert.Equal(t, pub, pub2)
	assert.Equal(t, priv, priv2)
}

func TestEnsureKeyPairGeneratesOnceAndReloads(t *testing.T) {
	dir := t.TempDir()
	pubPath := filepath.Join(dir, "keys", "server.pub")
	privPath := filepath.Join(dir, "keys", "server.priv")

	pub1, _, err := EnsureKeyPair(pubPath, privPath)
	require.NoError(t, err)
	pub2, _, err := EnsureKeyPair(pubPath, privPath)
	require.NoError(t, err)
	assert.Equal(t, pub1, pub2, "second call must load, not regenerate")
}

func TestSignAndVerify(t *testing.T) {
	pub, priv, err := GenerateKeyPair()
	require.NoError(t, err)

	data := []byte("run journal record hash")
	sig := SignData(priv, data)

	ok, err := VerifySignature(pub, data, sig)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifySignature(pub, []byte("tampered"), sig)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWebhookSignature(t *testing.T) {
	body := []byte(`{"kind":"push","ref":"main"}`)
	header := SignWebhookBody("s3cret", body)

	assert.True(t, VerifyWebhookSignature("s3cret", header, body))
	assert.False(t, VerifyWebhookSignature("wrong", header, body))
	assert.False(t, VerifyWebhookSignature("s3cret", header, []byte("other body")))
	assert.False(t, VerifyWebhookSignature("s3cret", "md5=abc", body))
}
