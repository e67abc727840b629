package cipher

import (
	"bytes"
	"encoding/base64"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newTestCipher(t *testing.T) *AESGCM {
	t.Helper()
	c, err := New("unit-test-key-material", discardLogger())
	require.NoError(t, err)
	return c
}

func TestNew_EmptyKeyMaterial(t *testing.T) {
	c, err := New("", discardLogger())
	assert.Nil(t, c)
	assert.ErrorIs(t, err, ErrEmptyKeyMaterial)
}

func TestRoundTrip(t *testing.T) {
	c := newTestCipher(t)

	tests := []struct {
		name  string
		input string
	}{
		{name: "ascii", input: "s3cr3t-p@ssw0rd"},
		{name: "empty string", input: ""},
		{name: "non-ascii", input: "пароль 密码 🔑"},
		{name: "long", input: strings.Repeat("abc123", 500)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := c.Encrypt(strPtr(tt.input))
			require.NoError(t, err)
			require.NotNil(t, enc)

			dec := c.Decrypt(enc)
			require.NotNil(t, dec)
			assert.Equal(t, tt.input, *dec)
		})
	}
}

func TestEncrypt_NonDeterministic(t *testing.T) {
	c := newTestCipher(t)

	a, err := c.Encrypt(strPtr("same input"))
	require.NoError(t, err)
	b, err := c.Encrypt(strPtr("same input"))
	require.NoError(t, err)

	assert.NotEqual(t, *a, *b)
	assert.Equal(t, "same input", *c.Decrypt(a))
	assert.Equal(t, "same input", *c.Decrypt(b))
}

func TestEncrypt_DoesNotLeakPlaintext(t *testing.T) {
	c := newTestCipher(t)

	enc, err := c.Encrypt(strPtr("hunter2"))
	require.NoError(t, err)
	assert.NotContains(t, *enc, "hunter2")

	_, err = base64.StdEncoding.DecodeString(*enc)
	assert.NoError(t, err, "ciphertext should be standard base64")
}

func TestNilPassthrough(t *testing.T) {
	c := newTestCipher(t)

	enc, err := c.Encrypt(nil)
	require.NoError(t, err)
	assert.Nil(t, enc)
	assert.Nil(t, c.Decrypt(nil))
}

func TestDecrypt_FallbackReturnsInput(t *testing.T) {
	c := newTestCipher(t)

	tests := []struct {
		name  string
		input string
	}{
		{name: "not base64", input: "not-valid-ciphertext"},
		{name: "empty", input: ""},
		{name: "short base64", input: base64.StdEncoding.EncodeToString([]byte("tiny"))},
		{name: "plaintext password", input: "legacy password from before encryption"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := c.Decrypt(strPtr(tt.input))
			require.NotNil(t, dec)
			assert.Equal(t, tt.input, *dec)
		})
	}
}

func TestDecrypt_WrongKeyFallsBack(t *testing.T) {
	a, err := New("key-one", discardLogger())
	require.NoError(t, err)
	b, err := New("key-two", discardLogger())
	require.NoError(t, err)

	enc, err := a.Encrypt(strPtr("secret"))
	require.NoError(t, err)

	dec := b.Decrypt(enc)
	require.NotNil(t, dec)
	assert.Equal(t, *enc, *dec, "undecryptable value must be returned unchanged")
}

func TestDecrypt_TamperedFallsBack(t *testing.T) {
	c := newTestCipher(t)

	enc, err := c.Encrypt(strPtr("secret"))
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(*enc)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	tampered := base64.StdEncoding.EncodeToString(raw)

	dec := c.Decrypt(&tampered)
	require.NotNil(t, dec)
	assert.Equal(t, tampered, *dec)
}

func TestKeyMaterial_AnyLength(t *testing.T) {
	for _, material := range []string{"k", "your-32-byte-base64-encoded-key!", strings.Repeat("x", 257)} {
		c, err := New(material, discardLogger())
		require.NoError(t, err, "key material of length %d", len(material))

		enc, err := c.Encrypt(strPtr("value"))
		require.NoError(t, err)
		assert.Equal(t, "value", *c.Decrypt(enc))
	}
}

func TestSameKeyMaterial_Interoperates(t *testing.T) {
	a, err := New("shared", discardLogger())
	require.NoError(t, err)
	b, err := New("shared", discardLogger())
	require.NoError(t, err)

	enc, err := a.Encrypt(strPtr("cross-instance"))
	require.NoError(t, err)
	assert.Equal(t, "cross-instance", *b.Decrypt(enc))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDecrypt_FallbackLogsWithoutValue(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c, err := New("unit-test-key-material", logger)
	require.NoError(t, err)

	stored := "plaintext-left-over"
	got := c.Decrypt(&stored)

	require.NotNil(t, got)
	assert.Equal(t, stored, *got)
	assert.Contains(t, buf.String(), "decrypt fell back to stored value")
	assert.NotContains(t, buf.String(), stored)
}
