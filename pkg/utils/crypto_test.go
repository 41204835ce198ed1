package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestEncryptDecryptRoundTrip(t *testing.T) {
	sealed, err := Encrypt([]byte("access-token-value"), testKey)
	require.NoError(t, err)
	require.NotEqual(t, "access-token-value", sealed)

	plain, err := Decrypt(sealed, testKey)
	require.NoError(t, err)
	require.Equal(t, "access-token-value", plain)
}

func TestEncryptProducesFreshNonce(t *testing.T) {
	a, err := Encrypt([]byte("same"), testKey)
	require.NoError(t, err)
	b, err := Encrypt([]byte("same"), testKey)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestDecryptWrongKeyFails(t *testing.T) {
	sealed, err := Encrypt([]byte("secret"), testKey)
	require.NoError(t, err)

	_, err = Decrypt(sealed, []byte("ffffffffffffffffffffffffffffffff"))
	require.Error(t, err)
}

func TestDecryptGarbageFails(t *testing.T) {
	_, err := Decrypt("not base64!!", testKey)
	require.Error(t, err)
}
