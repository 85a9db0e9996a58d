package easee

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const testCryptKey = "12345678901234567890123456789012"

func TestAESEncryptor_roundTrip(t *testing.T) {
	e, err := NewAESEncryptor([]byte(testCryptKey))
	assert.Nil(t, err)

	blob, err := e.Encrypt([]byte(`{"accessToken":"T1"}`), EncryptOptions{})
	assert.Nil(t, err)
	assert.NotContains(t, string(blob), "T1")

	plaintext, err := e.Decrypt(blob)
	assert.Nil(t, err)
	assert.Equal(t, `{"accessToken":"T1"}`, string(plaintext))
}

func TestAESEncryptor_deterministic(t *testing.T) {
	e, _ := NewAESEncryptor([]byte(testCryptKey))

	b1, _ := e.Encrypt([]byte("token"), EncryptOptions{Deterministic: true})
	b2, _ := e.Encrypt([]byte("token"), EncryptOptions{Deterministic: true})
	b3, _ := e.Encrypt([]byte("other"), EncryptOptions{Deterministic: true})
	assert.Equal(t, b1, b2)
	assert.NotEqual(t, b1, b3)

	r1, _ := e.Encrypt([]byte("token"), EncryptOptions{})
	r2, _ := e.Encrypt([]byte("token"), EncryptOptions{})
	assert.NotEqual(t, r1, r2)
}

func TestAESEncryptor_invalid(t *testing.T) {
	_, err := NewAESEncryptor([]byte("short"))
	assert.NotNil(t, err)

	e, _ := NewAESEncryptor([]byte(testCryptKey))
	_, err = e.Decrypt([]byte("!!!"))
	assert.NotNil(t, err)
	_, err = e.Decrypt([]byte("YWJj"))
	assert.NotNil(t, err)

	other, _ := NewAESEncryptor([]byte("abcdefghijklmnopqrstuvwxyz012345"))
	blob, _ := other.Encrypt([]byte("token"), EncryptOptions{})
	_, err = e.Decrypt(blob)
	assert.NotNil(t, err)
}

func TestNullEncryptor(t *testing.T) {
	var e NullEncryptor
	blob, err := e.Encrypt([]byte("token"), EncryptOptions{Deterministic: true})
	assert.Nil(t, err)
	assert.Equal(t, "token", string(blob))
	plaintext, _ := e.Decrypt(blob)
	assert.Equal(t, "token", string(plaintext))
}
