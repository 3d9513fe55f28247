// Package secrets implements the symmetric envelope encryption spec.md §3
// and §6 require for a Model row's provider API key: "the latter's API
// keys enveloped by PBKDF2-derived symmetric encryption". This is the one
// cryptographic protocol the system's non-goals carve out room for
// ("no cryptographic protocol beyond symmetric envelope encryption of
// provider secrets").
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 16
	keySize    = 32 // AES-256
	iterations = 200_000
)

// ErrInvalidEnvelope is returned by Open when the ciphertext is shorter
// than a salt+nonce, i.e. not something Seal produced.
var ErrInvalidEnvelope = errors.New("secrets: invalid envelope")

// Keyring derives a per-secret AES-256 key from one master passphrase.
// Every Seal call draws a fresh random salt, so the derived key — and
// therefore the ciphertext — never repeats even for identical plaintexts.
type Keyring struct {
	passphrase []byte
}

// New returns a Keyring deriving keys from passphrase (e.g. the operator's
// configured master secret; never persisted alongside the ciphertext it
// protects).
func New(passphrase string) *Keyring {
	return &Keyring{passphrase: []byte(passphrase)}
}

func (k *Keyring) deriveKey(salt []byte) []byte {
	return pbkdf2.Key(k.passphrase, salt, iterations, keySize, sha256.New)
}

// Seal encrypts plaintext into a self-contained envelope: salt || nonce ||
// ciphertext+tag. The salt travels with the ciphertext since Model rows
// have exactly one []byte column (APIKeySecret) to hold it in.
func (k *Keyring) Seal(plaintext string) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("secrets: generate salt: %w", err)
	}
	gcm, err := k.gcmFor(salt)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("secrets: generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	envelope := make([]byte, 0, len(salt)+len(nonce)+len(ciphertext))
	envelope = append(envelope, salt...)
	envelope = append(envelope, nonce...)
	envelope = append(envelope, ciphertext...)
	return envelope, nil
}

// Open decrypts an envelope Seal produced. A wrong passphrase or a
// tampered envelope both surface as the same authentication failure —
// AES-GCM never distinguishes the two.
func (k *Keyring) Open(envelope []byte) (string, error) {
	if len(envelope) < saltSize {
		return "", ErrInvalidEnvelope
	}
	salt := envelope[:saltSize]
	rest := envelope[saltSize:]

	gcm, err := k.gcmFor(salt)
	if err != nil {
		return "", err
	}
	if len(rest) < gcm.NonceSize() {
		return "", ErrInvalidEnvelope
	}
	nonce, ciphertext := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("secrets: decrypt: %w", err)
	}
	return string(plaintext), nil
}

func (k *Keyring) gcmFor(salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(k.deriveKey(salt))
	if err != nil {
		return nil, fmt.Errorf("secrets: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("secrets: new gcm: %w", err)
	}
	return gcm, nil
}
