package crypto

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var testKey = base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))

func TestNewDecrypterRejectsBadKeys(t *testing.T) {
	_, err := NewDecrypter("not base64!", 1)
	assert.Error(t, err)

	_, err = NewDecrypter(base64.StdEncoding.EncodeToString([]byte("short")), 1)
	assert.ErrorIs(t, err, ErrInvalidKey)

	d, err := NewDecrypter(testKey, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Version())
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	d, err := NewDecrypter(testKey, 1)
	require.NoError(t, err)

	rapid.Check(t, func(rt *rapid.T) {
		plain := rapid.String().Draw(rt, "plain")
		nonce, sealed, err := d.Encrypt(plain)
		require.NoError(rt, err)

		got, err := d.Decrypt(nonce, sealed)
		require.NoError(rt, err)
		require.Equal(rt, plain, got)
	})
}

func TestDecryptTampered(t *testing.T) {
	d, err := NewDecrypter(testKey, 1)
	require.NoError(t, err)

	nonce, sealed, err := d.Encrypt("1//refresh-token")
	require.NoError(t, err)

	raw, _ := base64.StdEncoding.DecodeString(sealed)
	raw[0] ^= 0xff
	_, err = d.Decrypt(nonce, base64.StdEncoding.EncodeToString(raw))
	assert.Error(t, err)

	_, err = d.Decrypt(base64.StdEncoding.EncodeToString([]byte("short")), sealed)
	assert.Error(t, err)

	other, err := NewDecrypter(base64.StdEncoding.EncodeToString([]byte(strings.Repeat("x", 32))), 1)
	require.NoError(t, err)
	_, err = other.Decrypt(nonce, sealed)
	assert.Error(t, err)
}
