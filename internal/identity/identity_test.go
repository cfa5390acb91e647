// internal/identity/identity_test.go
package identity

import (
	"testing"

	"github.com/minio/sha256-simd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndSign(t *testing.T) {
	id, err := Generate()
	require.NoError(t, err)
	require.Len(t, id.PublicKeyHex(), 64)

	digest := sha256.Sum256([]byte("hello"))
	sig, err := id.Sign(digest)
	require.NoError(t, err)
	require.Len(t, sig, 64)

	assert.True(t, Verify(id.PublicKeyHex(), digest, sig))

	// A different digest must not verify under the same signature.
	other := sha256.Sum256([]byte("tampered"))
	assert.False(t, Verify(id.PublicKeyHex(), other, sig))
}

func TestVerifyRejectsGarbage(t *testing.T) {
	digest := sha256.Sum256([]byte("x"))
	assert.False(t, Verify("nothex", digest, make([]byte, 64)))
	assert.False(t, Verify("00", digest, make([]byte, 64)))

	id, err := Generate()
	require.NoError(t, err)
	assert.False(t, Verify(id.PublicKeyHex(), digest, []byte("short")))
}

func TestFromSecretHexRoundTrip(t *testing.T) {
	id, err := Generate()
	require.NoError(t, err)

	restored, err := FromSecretHex(id.SecretKeyHex())
	require.NoError(t, err)
	assert.Equal(t, id.PublicKeyHex(), restored.PublicKeyHex())

	_, err = FromSecretHex("zz")
	assert.ErrorIs(t, err, ErrCrypto)
}
