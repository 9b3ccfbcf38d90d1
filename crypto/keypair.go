// Package crypto implements the cryptographic primitives underlying the
// Noise secure channel: Curve25519 keypair handling, Ed25519 identity
// signatures, and secure erasure of key material.
//
// Example:
//
//	keys, err := crypto.GenerateKeyPair()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("Public key:", hex.EncodeToString(keys.Public[:]))
package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/box"
)

// KeyPair is a Curve25519 keypair, used for both long-term Noise static
// keys and per-handshake ephemeral keys.
type KeyPair struct {
	Public  [32]byte
	Private [32]byte
}

// GenerateKeyPair creates a new random Curve25519 keypair using the
// system's secure entropy source.
func GenerateKeyPair() (*KeyPair, error) {
	logger := NewLogger("GenerateKeyPair")

	publicKey, privateKey, err := box.GenerateKey(rand.Reader)
	if err != nil {
		logger.WithError(err, "key_generation_failed", "box.GenerateKey").Error("failed to generate keypair")
		return nil, err
	}

	keyPair := &KeyPair{Public: *publicKey, Private: *privateKey}

	logger.WithField("public_key_preview", fmt.Sprintf("%x", keyPair.Public[:8])).
		Debug("generated keypair")

	return keyPair, nil
}

// FromSecretKey derives a KeyPair's public half from a caller-supplied
// private key. This is the path a caller's persisted static Noise key
// takes on process start.
//
// The derivation clamps a working copy of the scalar per RFC 7748 before
// calling ScalarBaseMult, and rejects a secret key that is all zeros or
// that derives to the identity point — a malformed or degenerate scalar
// that must never be used as a Curve25519 private key. The original,
// unclamped secretKey is preserved in KeyPair.Private: the handshake
// engine's DH function expects the raw 32-byte scalar, not a
// pre-clamped one, and clamping happens again internally on each DH
// operation.
func FromSecretKey(secretKey [32]byte) (*KeyPair, error) {
	logger := NewLogger("FromSecretKey")

	if isZeroKey(secretKey) {
		logger.Error("secret key is all zeros")
		return nil, errors.New("invalid secret key: all zeros")
	}

	var clamped [32]byte
	copy(clamped[:], secretKey[:])
	clamped[0] &= 248
	clamped[31] &= 127
	clamped[31] |= 64

	var publicKey [32]byte
	curve25519.ScalarBaseMult(&publicKey, &clamped)
	ZeroBytes(clamped[:])

	if isZeroKey(publicKey) {
		return nil, errors.New("invalid secret key: derives to identity point")
	}

	keyPair := &KeyPair{Public: publicKey, Private: secretKey}
	logger.WithField("public_key_preview", fmt.Sprintf("%x", keyPair.Public[:8])).
		Debug("derived keypair from secret key")

	return keyPair, nil
}

// isZeroKey reports whether key consists of all zero bytes.
func isZeroKey(key [32]byte) bool {
	for _, b := range key {
		if b != 0 {
			return false
		}
	}
	return true
}
