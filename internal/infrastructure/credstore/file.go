// Package credstore provides the platform adapters behind the credential
// store port: an encrypted file for installations with a real filesystem and
// an in-memory variant for tests and ephemeral sessions.
package credstore

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"github.com/renvo/client-core/internal/core/domain"
	"github.com/renvo/client-core/internal/core/ports"
)

const (
	saltLen  = 16
	fileMode = 0o600
	dirMode  = 0o700

	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// File persists credentials encrypted at rest. The encryption key is derived
// from the configured secret with scrypt (per-file random salt) and the
// payload sealed with ChaCha20-Poly1305. File layout:
//
//	salt (16 bytes) | nonce (12 bytes) | ciphertext
type File struct {
	path   string
	secret []byte
}

func NewFile(path, secret string) *File {
	return &File{path: path, secret: []byte(secret)}
}

func (f *File) Load(_ context.Context) (*ports.Credentials, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrNoCredentials
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	if len(raw) < saltLen+chacha20poly1305.NonceSize {
		return nil, fmt.Errorf("read credentials: file truncated")
	}
	salt := raw[:saltLen]
	nonce := raw[saltLen : saltLen+chacha20poly1305.NonceSize]
	ciphertext := raw[saltLen+chacha20poly1305.NonceSize:]

	aead, err := f.aead(salt)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt credentials: %w", err)
	}

	var creds ports.Credentials
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return nil, fmt.Errorf("decode credentials: %w", err)
	}
	return &creds, nil
}

func (f *File) Save(_ context.Context, creds *ports.Credentials) error {
	plaintext, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}
	aead, err := f.aead(salt)
	if err != nil {
		return err
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, saltLen+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, plaintext, nil)

	if err := os.MkdirAll(filepath.Dir(f.path), dirMode); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, out, fileMode); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

func (f *File) Delete(_ context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete credentials: %w", err)
	}
	return nil
}

func (f *File) aead(salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(f.secret, salt, scryptN, scryptR, scryptP, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return chacha20poly1305.New(key)
}
