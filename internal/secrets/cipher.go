package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

const (
	keySize   = 32
	ivSize    = aes.BlockSize
	separator = ":"
)

// Cipher encrypts credential fields with AES-256-CBC. The stored form is
// hex(iv) ":" hex(ciphertext) and must stay byte-compatible with existing rows.
type Cipher struct {
	block cipher.Block
	rand  io.Reader
}

// CipherOption configures a Cipher.
type CipherOption func(*Cipher)

// WithRandom overrides the IV source (tests only).
func WithRandom(r io.Reader) CipherOption {
	return func(c *Cipher) {
		if r != nil {
			c.rand = r
		}
	}
}

// NewCipher builds a Cipher from a base64 key that must decode to 32 bytes.
func NewCipher(encodedKey string, opts ...CipherOption) (*Cipher, error) {
	encodedKey = strings.TrimSpace(encodedKey)
	if encodedKey == "" {
		return nil, fmt.Errorf("%w: key is not set", ErrConfiguration)
	}
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("%w: key is not valid base64", ErrConfiguration)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("%w: key must decode to %d bytes, got %d", ErrConfiguration, keySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	c := &Cipher{block: block, rand: rand.Reader}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GenerateKey returns a fresh base64-encoded AES-256 key.
func GenerateKey() (string, error) {
	key := make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// Encrypt seals plaintext under a fresh random IV.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(c.rand, iv); err != nil {
		return "", ErrEncryptionFailure
	}
	padded := pad([]byte(plaintext))
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(out, padded)
	return hex.EncodeToString(iv) + separator + hex.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. Format problems return ErrMalformedCredential; every
// cryptographic problem returns the same ErrDecryptionFailure.
func (c *Cipher) Decrypt(serialized string) (string, error) {
	parts := strings.Split(serialized, separator)
	if len(parts) != 2 {
		return "", ErrMalformedCredential
	}
	iv, err := hex.DecodeString(parts[0])
	if err != nil || len(iv) != ivSize {
		return "", ErrMalformedCredential
	}
	ct, err := hex.DecodeString(parts[1])
	if err != nil || len(ct) == 0 {
		return "", ErrMalformedCredential
	}
	if len(ct)%aes.BlockSize != 0 {
		return "", ErrDecryptionFailure
	}
	out := make([]byte, len(ct))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(out, ct)
	plain, ok := unpad(out)
	if !ok || !utf8.Valid(plain) {
		return "", ErrDecryptionFailure
	}
	return string(plain), nil
}

func pad(data []byte) []byte {
	n := aes.BlockSize - len(data)%aes.BlockSize
	out := make([]byte, len(data)+n)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(n)
	}
	return out
}

// unpad checks PKCS#7 padding, comparing every padding byte.
func unpad(data []byte) ([]byte, bool) {
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, false
	}
	n := int(data[len(data)-1])
	if n == 0 || n > aes.BlockSize {
		return nil, false
	}
	good := 1
	for _, b := range data[len(data)-n:] {
		good &= subtle.ConstantTimeByteEq(b, byte(n))
	}
	if good != 1 {
		return nil, false
	}
	return data[:len(data)-n], true
}
