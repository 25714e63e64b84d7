// Package codec implements symmetric encryption/decryption of cache
// payloads at rest, with a per-artifact algorithm tag so keys can be
// rotated without breaking older artifacts.
package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
)

// Algorithm identifies the cipher used for a given artifact. Stored
// alongside the ciphertext (the "algTag") so older artifacts remain
// decodable after a key rotation changes the algorithm default.
type Algorithm string

const (
	AlgorithmAES256GCM Algorithm = "aes-256-gcm"
	// AlgorithmNone marks a payload that was never encrypted (profile's
	// encrypt=false). decrypt is a no-op for this tag.
	AlgorithmNone Algorithm = "none"
)

// Sentinel errors for codec failures.
var (
	ErrBadKey           = errors.New("codec: bad key")
	ErrAuth             = errors.New("codec: authentication failed")
	ErrCipherUnsupported = errors.New("codec: unsupported cipher algorithm")
)

// Envelope is the self-describing at-rest format for an encrypted payload
// ({alg, iv, ct}): it travels with L2 objects and is embedded inline in L1
// records too, so a rotated key never strands an older artifact.
type Envelope struct {
	Alg        Algorithm
	IV         []byte
	Ciphertext []byte
}

// Codec encrypts and decrypts Envelopes for one configured algorithm.
type Codec struct {
	algo Algorithm
}

// New returns a Codec configured for the given algorithm. Only
// AlgorithmAES256GCM and AlgorithmNone are currently supported; any other
// value fails fast at construction time rather than at first use.
func New(algo Algorithm) (*Codec, error) {
	switch algo {
	case AlgorithmAES256GCM, AlgorithmNone:
		return &Codec{algo: algo}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrCipherUnsupported, algo)
	}
}

// Encrypt seals plaintext under key, returning a fresh IV and the
// ciphertext bound to the configured algorithm tag. A fresh IV is
// generated per call; IVs are never reused under the same key.
func (c *Codec) Encrypt(plaintext, key []byte) (Envelope, error) {
	if c.algo == AlgorithmNone {
		return Envelope{Alg: AlgorithmNone, Ciphertext: plaintext}, nil
	}

	gcm, err := newGCM(key)
	if err != nil {
		return Envelope{}, err
	}

	iv := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return Envelope{}, fmt.Errorf("codec: generating iv: %w", err)
	}

	ct := gcm.Seal(nil, iv, plaintext, nil)
	return Envelope{Alg: c.algo, IV: iv, Ciphertext: ct}, nil
}

// Decrypt opens env under key. It authenticates the AEAD tag before
// returning any plaintext and returns ErrAuth on tag mismatch or algorithm
// mismatch, never partial plaintext.
func (c *Codec) Decrypt(env Envelope, key []byte) ([]byte, error) {
	switch env.Alg {
	case AlgorithmNone:
		return env.Ciphertext, nil

	case AlgorithmAES256GCM:
		gcm, err := newGCM(key)
		if err != nil {
			return nil, err
		}
		plaintext, err := gcm.Open(nil, env.IV, env.Ciphertext, nil)
		if err != nil {
			return nil, ErrAuth
		}
		return plaintext, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrCipherUnsupported, env.Alg)
	}
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadKey, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadKey, err)
	}
	return gcm, nil
}
