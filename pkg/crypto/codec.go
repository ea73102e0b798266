package crypto

import (
	"crypto/subtle"
	"errors"
)

// blobVersion is the first byte of every blob produced by Codec.
const blobVersion byte = 1

// Codec encrypts and decrypts whole data-file blobs with a key derived once
// from the master secret.
//
// Blob layout: version (1 byte) || nonce (12 bytes) || ciphertext+tag.
// The version byte is authenticated as additional data.
type Codec struct {
	key    []byte
	params Params
}

// NewCodec derives the key for secret and caches it.
func NewCodec(secret []byte, p Params) *Codec {
	return &Codec{key: DeriveKey(secret, p), params: p}
}

// Params returns the derivation parameters the codec was built with.
func (c *Codec) Params() Params {
	return c.params
}

// Encrypt seals plaintext. Two calls with the same input produce different
// blobs.
func (c *Codec) Encrypt(plaintext []byte) ([]byte, error) {
	header := []byte{blobVersion}
	ciphertext, nonce, err := Encrypt(c.key, plaintext, header)
	if err != nil {
		return nil, err
	}

	blob := make([]byte, 0, len(header)+len(nonce)+len(ciphertext))
	blob = append(blob, header...)
	blob = append(blob, nonce...)
	blob = append(blob, ciphertext...)
	return blob, nil
}

// Decrypt opens a blob produced by Encrypt. Any failure to authenticate,
// including truncated input and unknown versions, is reported as
// ErrAuthentication.
func (c *Codec) Decrypt(blob []byte) ([]byte, error) {
	if len(blob) < 1+NonceLength+TagLength || blob[0] != blobVersion {
		return nil, ErrAuthentication
	}

	header := blob[:1]
	nonce := blob[1 : 1+NonceLength]
	ciphertext := blob[1+NonceLength:]

	plaintext, err := Decrypt(c.key, ciphertext, nonce, header)
	if err != nil {
		if errors.Is(err, ErrDecryptionFailed) || errors.Is(err, ErrCiphertextTooShort) {
			return nil, ErrAuthentication
		}
		return nil, err
	}
	return plaintext, nil
}

// Matches reports whether secret derives the same key as the codec's.
func (c *Codec) Matches(secret []byte) bool {
	candidate := DeriveKey(secret, c.params)
	defer SecureWipe(candidate)
	return subtle.ConstantTimeCompare(candidate, c.key) == 1
}

// Wipe zeroes the cached key. The codec must not be used afterwards.
func (c *Codec) Wipe() {
	if c.key != nil {
		SecureWipe(c.key)
		c.key = nil
	}
}
