package magiclink

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// Token layout: hex(salt | iv | tag | ciphertext).
// A fresh salt and IV are drawn for every message; the AES key is derived
// from the secret and the salt.
const (
	saltLength       = 64
	ivLength         = 16
	tagLength        = 16
	keyLength        = 32
	pbkdf2Iterations = 100000

	headerLength = saltLength + ivLength + tagLength
)

var ErrDecrypt = errors.New("unable to decrypt magic link token")

// Cipher is AES-256-GCM keyed by PBKDF2-SHA512(secret, salt).
// It's safe to use concurrently.
type Cipher struct {
	secret []byte
	rand   io.Reader
}

func NewCipher(secret string) (*Cipher, error) {
	if secret == "" {
		return nil, errors.New("magic link secret must not be empty")
	}
	return &Cipher{secret: []byte(secret), rand: rand.Reader}, nil
}

func (c *Cipher) Encrypt(plain []byte) (string, error) {
	header := make([]byte, saltLength+ivLength)
	if _, err := io.ReadFull(c.rand, header); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	salt, iv := header[:saltLength], header[saltLength:]

	gcm, err := c.gcm(salt)
	if err != nil {
		return "", err
	}

	// Seal appends the tag after the ciphertext; move it in front.
	sealed := gcm.Seal(nil, iv, plain, nil)
	ct, tag := sealed[:len(sealed)-tagLength], sealed[len(sealed)-tagLength:]

	out := make([]byte, 0, headerLength+len(ct))
	out = append(out, salt...)
	out = append(out, iv...)
	out = append(out, tag...)
	out = append(out, ct...)
	return hex.EncodeToString(out), nil
}

func (c *Cipher) Decrypt(token string) ([]byte, error) {
	raw, err := hex.DecodeString(token)
	if err != nil || len(raw) < headerLength {
		return nil, ErrDecrypt
	}

	salt := raw[:saltLength]
	iv := raw[saltLength : saltLength+ivLength]
	tag := raw[saltLength+ivLength : headerLength]
	ct := raw[headerLength:]

	gcm, err := c.gcm(salt)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(ct)+tagLength)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	plain, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plain, nil
}

func (c *Cipher) gcm(salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key(c.secret, salt, pbkdf2Iterations, keyLength, sha512.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new aes cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, ivLength)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return gcm, nil
}
