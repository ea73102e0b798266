// Package crypto provides the cryptographic codec for pwkeep data files.
//
// A master secret is stretched with PBKDF2-HMAC-SHA256 into a 256-bit key,
// which then seals the whole vault plaintext with AES-256-GCM.
//
// # Parameters
//
//   - PBKDF2 with HMAC-SHA256, fixed installation-wide salt
//   - 600,000 iterations (DefaultIterations)
//   - AES-256-GCM with a random 96-bit nonce per encryption
//
// The salt is deliberately fixed: the data file carries no per-file salt, so
// every installation shares the same derivation parameters. Callers derive
// once per session through NewCodec and reuse the cached key.
//
// # Example Usage
//
//	codec := crypto.NewCodec([]byte("master secret"), crypto.DefaultParams())
//	defer codec.Wipe()
//
//	blob, err := codec.Encrypt(plaintext)
//	plaintext, err := codec.Decrypt(blob)
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultIterations is the PBKDF2 iteration count for new installations.
	DefaultIterations = 600_000

	// KeyLength is the length of encryption keys in bytes (256 bits).
	KeyLength = 32

	// NonceLength is the length of GCM nonces in bytes (96 bits).
	NonceLength = 12

	// TagLength is the length of the GCM authentication tag.
	TagLength = 16
)

// defaultSalt is shared by every installation.
var defaultSalt = []byte("pwkeep.accounts.v1")

// Sentinel errors returned by crypto functions.
var (
	// ErrInvalidKeyLength indicates the key is not 32 bytes.
	ErrInvalidKeyLength = errors.New("crypto: invalid key length, must be 32 bytes")

	// ErrInvalidNonceLength indicates the nonce is not 12 bytes.
	ErrInvalidNonceLength = errors.New("crypto: invalid nonce length, must be 12 bytes")

	// ErrDecryptionFailed indicates decryption or authentication tag verification failed.
	ErrDecryptionFailed = errors.New("crypto: decryption failed, authentication tag verification failed")

	// ErrCiphertextTooShort indicates the ciphertext is shorter than the GCM tag.
	ErrCiphertextTooShort = errors.New("crypto: ciphertext too short")

	// ErrAuthentication indicates a blob was not produced with the key derived
	// from the given secret (wrong secret, corruption or tampering).
	ErrAuthentication = errors.New("crypto: authentication failed, wrong secret or corrupted data")
)

// Params controls key derivation.
type Params struct {
	Salt       []byte
	Iterations int
}

// DefaultParams returns the fixed derivation parameters used for data files.
func DefaultParams() Params {
	salt := make([]byte, len(defaultSalt))
	copy(salt, defaultSalt)
	return Params{Salt: salt, Iterations: DefaultIterations}
}

// DeriveKey stretches secret into a 256-bit key using PBKDF2-HMAC-SHA256.
// A non-positive iteration count falls back to DefaultIterations.
func DeriveKey(secret []byte, p Params) []byte {
	iter := p.Iterations
	if iter <= 0 {
		iter = DefaultIterations
	}
	salt := p.Salt
	if len(salt) == 0 {
		salt = defaultSalt
	}
	return pbkdf2.Key(secret, salt, iter, KeyLength, sha256.New)
}

// Encrypt seals plaintext with AES-256-GCM under key, authenticating
// additionalData alongside it. A fresh random nonce is returned with the
// ciphertext; the authentication tag is appended to the ciphertext.
func Encrypt(key, plaintext, additionalData []byte) (ciphertext []byte, nonce []byte, err error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, NonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("crypto: failed to generate nonce: %w", err)
	}

	ciphertext = gcm.Seal(nil, nonce, plaintext, additionalData)
	return ciphertext, nonce, nil
}

// Decrypt opens ciphertext produced by Encrypt. ErrDecryptionFailed is
// returned when the tag does not verify.
func Decrypt(key, ciphertext, nonce, additionalData []byte) (plaintext []byte, err error) {
	if len(nonce) != NonceLength {
		return nil, ErrInvalidNonceLength
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.Overhead() {
		return nil, ErrCiphertextTooShort
	}

	plaintext, err = gcm.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeyLength {
		return nil, ErrInvalidKeyLength
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: failed to create GCM: %w", err)
	}
	return gcm, nil
}

// SecureWipe overwrites a byte slice with zeros in a way that prevents
// compiler optimization from removing the operation.
func SecureWipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	// keep b reachable until the loop has run
	runtime.KeepAlive(b)
}
