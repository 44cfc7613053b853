// Package secretbox provides the symmetric cipher used for tenant
// credentials at rest.
package secretbox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// Cipher encrypts and decrypts small secret strings.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

const prefix = "enc:v1:"

var ErrNotCiphertext = errors.New("secretbox: value is not a recognized ciphertext")

// XChaCha is an XChaCha20-Poly1305 Cipher keyed by a passphrase.
// The passphrase is stretched to 32 bytes with SHA-256 so operators can
// configure any non-empty string.
type XChaCha struct {
	key [32]byte
}

func New(passphrase string) (*XChaCha, error) {
	if strings.TrimSpace(passphrase) == "" {
		return nil, errors.New("secretbox: empty passphrase")
	}
	c := &XChaCha{key: sha256.Sum256([]byte(passphrase))}
	return c, nil
}

func (c *XChaCha) Encrypt(plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(c.key[:])
	if err != nil {
		return "", err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return prefix + base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (c *XChaCha) Decrypt(ciphertext string) (string, error) {
	raw, ok := strings.CutPrefix(ciphertext, prefix)
	if !ok {
		return "", ErrNotCiphertext
	}
	sealed, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return "", ErrNotCiphertext
	}
	if len(sealed) < chacha20poly1305.NonceSizeX {
		return "", ErrNotCiphertext
	}
	aead, err := chacha20poly1305.NewX(c.key[:])
	if err != nil {
		return "", err
	}
	nonce, body := sealed[:chacha20poly1305.NonceSizeX], sealed[chacha20poly1305.NonceSizeX:]
	plain, err := aead.Open(nil, nonce, body, nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// IsEncrypted reports whether a stored value carries the ciphertext prefix.
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, prefix)
}
