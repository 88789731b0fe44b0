// Package sealer encrypts small secrets (session tokens) before they are
// written to the local database.
package sealer

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	keyLen        = 32
	saltLen       = 16
)

var (
	// ErrNoSecret is returned when a Sealer is built without a secret.
	ErrNoSecret = errors.New("sealer secret is empty")
	// ErrDecrypt is returned when sealed data is corrupted or the secret is wrong.
	ErrDecrypt = errors.New("unable to open sealed data")
)

// Sealer encrypts with AES-256-GCM under an Argon2id key derived from a secret.
type Sealer struct {
	secret []byte
}

// New creates a Sealer for secret.
func New(secret string) (*Sealer, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &Sealer{secret: []byte(secret)}, nil
}

func (s *Sealer) gcm(salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey(s.secret, salt, argon2Time, argon2Memory, argon2Threads, keyLen)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return gcm, nil
}

// Seal encrypts plaintext and returns base64(salt || nonce || ciphertext).
func (s *Sealer) Seal(plaintext string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	gcm, err := s.gcm(salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, saltLen+len(nonce)+len(plaintext)+gcm.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	out = gcm.Seal(out, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Open reverses Seal.
func (s *Sealer) Open(sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", ErrDecrypt
	}
	if len(raw) < saltLen {
		return "", ErrDecrypt
	}

	salt, rest := raw[:saltLen], raw[saltLen:]
	gcm, err := s.gcm(salt)
	if err != nil {
		return "", err
	}

	if len(rest) < gcm.NonceSize()+gcm.Overhead() {
		return "", ErrDecrypt
	}
	nonce, ciphertext := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plaintext), nil
}
