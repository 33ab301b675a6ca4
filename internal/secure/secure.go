// Package secure derives keys from configured secrets and seals session
// records at rest.
package secure

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	purposeCookie = "membersite cookie v1"
	purposeStore  = "membersite session store v1"
)

var ErrOpen = errors.New("secure: sealed value is corrupt or was sealed with another key")

// DeriveKey stretches secret into n bytes bound to purpose.
func DeriveKey(secret, purpose string, n int) ([]byte, error) {
	key := make([]byte, n)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(purpose))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}

// CookieKey returns the base64 AES-256 key format encryptcookie expects.
func CookieKey(secret string) (string, error) {
	key, err := DeriveKey(secret, purposeCookie, 32)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// Sealer encrypts and authenticates opaque blobs with XChaCha20-Poly1305.
// The random nonce is prepended to the ciphertext.
type Sealer struct {
	key []byte
}

func NewSealer(secret string) (*Sealer, error) {
	key, err := DeriveKey(secret, purposeStore, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	return &Sealer{key: key}, nil
}

func (s *Sealer) Seal(plain []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plain, nil), nil
}

func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrOpen
	}
	nonce, body := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, body, nil)
	if err != nil {
		return nil, ErrOpen
	}
	return plain, nil
}
