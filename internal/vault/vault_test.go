package vault

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	v, err := New([]byte("test key material"))
	require.NoError(t, err)
	return v
}

func TestNew_EmptySecret(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	v := newTestVault(t)

	inputs := []string{
		"x",
		"hello world",
		"multi\nline\ncontent",
		strings.Repeat("long ", 10_000),
		"unicode: héllo wörld — 日本語",
	}
	for _, in := range inputs {
		sealed, err := v.Encrypt(in)
		require.NoError(t, err)
		assert.True(t, IsEncrypted(sealed))

		got, err := v.Decrypt(sealed)
		require.NoError(t, err)
		assert.Equal(t, in, got)
	}
}

func TestEncrypt_FreshNoncePerCall(t *testing.T) {
	v := newTestVault(t)

	a, err := v.Encrypt("same input")
	require.NoError(t, err)
	b, err := v.Encrypt("same input")
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "equal plaintexts must not produce equal envelopes")
}

func TestIsEncrypted_PlaintextNotMistaken(t *testing.T) {
	for _, s := range []string{"", "plain text", "ckv2:nope", "base64==", "ckv1"} {
		assert.False(t, IsEncrypted(s), "%q should not sniff as encrypted", s)
	}
}

func TestDecrypt_MalformedInput(t *testing.T) {
	v := newTestVault(t)

	cases := []string{
		"no prefix at all",
		"ckv1:",
		"ckv1:!!!not-base64!!!",
		"ckv1:c2hvcnQ=", // valid base64, shorter than a nonce
	}
	for _, c := range cases {
		_, err := v.Decrypt(c)
		assert.ErrorIs(t, err, ErrCorruptContent, "input %q", c)
	}
}

func TestDecrypt_TamperedCiphertext(t *testing.T) {
	v := newTestVault(t)

	sealed, err := v.Encrypt("secret")
	require.NoError(t, err)

	// Flip a character in the payload portion.
	tampered := []byte(sealed)
	i := len(tampered) - 3
	if tampered[i] == 'A' {
		tampered[i] = 'B'
	} else {
		tampered[i] = 'A'
	}

	_, err = v.Decrypt(string(tampered))
	assert.ErrorIs(t, err, ErrCorruptContent)
}

func TestDecrypt_WrongKey(t *testing.T) {
	v1 := newTestVault(t)
	v2, err := New([]byte("a different secret"))
	require.NoError(t, err)

	sealed, err := v1.Encrypt("secret")
	require.NoError(t, err)

	_, err = v2.Decrypt(sealed)
	assert.ErrorIs(t, err, ErrCorruptContent)
}
