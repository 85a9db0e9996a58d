package easee

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

type EncryptOptions struct {
	// Deterministic encryption yields the same blob for the same plaintext.
	Deterministic bool
}

// Encryptor transforms the serialized token pair before it is handed to the
// TokenStore and back after it has been read.
type Encryptor interface {
	Encrypt(plaintext []byte, opts EncryptOptions) ([]byte, error)
	Decrypt(blob []byte) ([]byte, error)
}

// NullEncryptor passes bytes through unchanged.
type NullEncryptor struct{}

func (NullEncryptor) Encrypt(plaintext []byte, opts EncryptOptions) ([]byte, error) {
	return plaintext, nil
}

func (NullEncryptor) Decrypt(blob []byte) ([]byte, error) {
	return blob, nil
}

// AESEncryptor seals tokens with AES-GCM and encodes the nonce-prefixed
// ciphertext as base64.
type AESEncryptor struct {
	key []byte
}

func NewAESEncryptor(key []byte) (*AESEncryptor, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("invalid aes key length %d", len(key))
	}
	return &AESEncryptor{key: append([]byte(nil), key...)}, nil
}

func (e *AESEncryptor) Encrypt(plaintext []byte, opts EncryptOptions) ([]byte, error) {
	gcm, err := e.gcm()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if opts.Deterministic {
		mac := hmac.New(sha256.New, e.key)
		mac.Write(plaintext)
		copy(nonce, mac.Sum(nil))
	} else if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)
	return []byte(base64.StdEncoding.EncodeToString(ciphertext)), nil
}

func (e *AESEncryptor) Decrypt(blob []byte) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.Strict().DecodeString(string(blob))
	if err != nil {
		return nil, fmt.Errorf("could not decode token blob: %w", err)
	}
	gcm, err := e.gcm()
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("token blob too short")
	}
	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("could not decrypt token blob: %w", err)
	}
	return plaintext, nil
}

func (e *AESEncryptor) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
