package auth

import (
	"testing"

	"github.com/GehirnInc/crypt/md5_crypt"
	"github.com/GehirnInc/crypt/sha256_crypt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)

	ok, legacy := verifyHash(hash, "s3cret")
	assert.True(t, ok)
	assert.False(t, legacy)

	ok, _ = verifyHash(hash, "wrong")
	assert.False(t, ok)
}

func TestVerifyHash_LegacyCryptFormats(t *testing.T) {
	for name, crypter := range map[string]func() (string, error){
		"sha256": func() (string, error) {
			return sha256_crypt.New().Generate([]byte("legacy-pw"), nil)
		},
		"md5": func() (string, error) {
			return md5_crypt.New().Generate([]byte("legacy-pw"), nil)
		},
	} {
		t.Run(name, func(t *testing.T) {
			hash, err := crypter()
			require.NoError(t, err)

			ok, legacy := verifyHash(hash, "legacy-pw")
			assert.True(t, ok)
			assert.True(t, legacy)

			ok, _ = verifyHash(hash, "wrong")
			assert.False(t, ok)
		})
	}
}

func TestVerifyHash_UnknownFormat(t *testing.T) {
	// yescrypt and friends are not supported; they just fail to verify.
	ok, legacy := verifyHash("$y$j9T$salt$hash", "anything")
	assert.False(t, ok)
	assert.False(t, legacy)
}

func TestDecodeSecret(t *testing.T) {
	// Plain text below 16 bytes is padded, never used near-empty.
	short := DecodeSecret("abc")
	assert.Len(t, short, 16)

	// Base64 input decodes to its raw bytes.
	b64, err := NewRandomSecretB64(32)
	require.NoError(t, err)
	assert.Len(t, DecodeSecret(b64), 32)
}
