// Package cipher implements the FieldCipher port with AES-256-GCM.
package cipher

import (
	"crypto/aes"
	stdcipher "crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ericfisherdev/credpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.FieldCipher = (*AESGCM)(nil)

// ErrEmptyKeyMaterial is returned by New when no key material is configured.
var ErrEmptyKeyMaterial = errors.New("cipher: empty key material")

// AESGCM encrypts fields with AES-256-GCM. Each ciphertext is the base64
// (standard alphabet) encoding of nonce || sealed data || tag.
type AESGCM struct {
	aead   stdcipher.AEAD
	logger *slog.Logger
}

// New derives a 32-byte key from keyMaterial with SHA-256, so a key of any
// length or format maps onto the exact size AES-256 needs. Decrypt fallbacks
// are logged to logger at debug level.
func New(keyMaterial string, logger *slog.Logger) (*AESGCM, error) {
	if keyMaterial == "" {
		return nil, ErrEmptyKeyMaterial
	}

	key := sha256.Sum256([]byte(keyMaterial))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := stdcipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}

	return &AESGCM{aead: gcm, logger: logger}, nil
}

// Encrypt seals plaintext under a fresh random nonce. Equal inputs produce
// different ciphertexts.
func (c *AESGCM) Encrypt(plaintext *string) (*string, error) {
	if plaintext == nil {
		return nil, nil
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("rand nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(*plaintext), nil)
	encoded := base64.StdEncoding.EncodeToString(sealed)
	return &encoded, nil
}

// Decrypt opens a value produced by Encrypt. Anything that fails to decode or
// authenticate is returned as-is.
func (c *AESGCM) Decrypt(ciphertext *string) *string {
	if ciphertext == nil {
		return nil
	}

	plaintext, err := c.open(*ciphertext)
	if err != nil {
		c.logger.Debug("decrypt fell back to stored value", "error", err)
		fallback := *ciphertext
		return &fallback
	}
	return &plaintext
}

func (c *AESGCM) open(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize+c.aead.Overhead() {
		return "", errors.New("ciphertext too short")
	}

	nonce, sealed := data[:nonceSize], data[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}

	return string(plaintext), nil
}
