package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

const (
	keySize   = 32
	nonceSize = 12
)

var ErrInvalidKey = errors.New("encryption key must be 32 bytes")

// Decrypter opens refresh tokens sealed with AES-256-GCM.
type Decrypter struct {
	aead    cipher.AEAD
	version int
}

// NewDecrypter builds a Decrypter from a base64 encoded 32-byte key.
func NewDecrypter(keyB64 string, version int) (*Decrypter, error) {
	key, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}
	if len(key) != keySize {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, err
	}
	if version <= 0 {
		version = 1
	}
	return &Decrypter{aead: aead, version: version}, nil
}

// Version is the key version new ciphertexts are tagged with.
func (d *Decrypter) Version() int {
	return d.version
}

// Decrypt returns the plaintext for a base64 nonce and ciphertext pair.
func (d *Decrypter) Decrypt(nonceB64, cipherB64 string) (string, error) {
	nonce, err := base64.StdEncoding.DecodeString(nonceB64)
	if err != nil {
		return "", fmt.Errorf("decode nonce: %w", err)
	}
	if len(nonce) != nonceSize {
		return "", fmt.Errorf("nonce must be %d bytes, got %d", nonceSize, len(nonce))
	}
	sealed, err := base64.StdEncoding.DecodeString(cipherB64)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	plain, err := d.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("open ciphertext: %w", err)
	}
	return string(plain), nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (d *Decrypter) Encrypt(plaintext string) (nonceB64, cipherB64 string, err error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", "", err
	}
	sealed := d.aead.Seal(nil, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(nonce), base64.StdEncoding.EncodeToString(sealed), nil
}
