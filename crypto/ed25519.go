package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
)

// SignatureSize is the size of an Ed25519 signature in bytes.
const SignatureSize = ed25519.SignatureSize

// Signature represents an Ed25519 signature.
type Signature [SignatureSize]byte

// Sign creates an Ed25519 signature for a message using the private key.
func Sign(message []byte, privateKey [32]byte) (Signature, error) {
	if len(message) == 0 {
		return Signature{}, errors.New("empty message")
	}

	// Ed25519 private keys are 64 bytes (32 bytes seed + 32 bytes public key).
	edPrivateKey := ed25519.NewKeyFromSeed(privateKey[:])
	signatureBytes := ed25519.Sign(edPrivateKey, message)

	var signature Signature
	copy(signature[:], signatureBytes)
	return signature, nil
}

// Verify checks if a signature is valid for a message and public key.
func Verify(message []byte, signature Signature, publicKey [32]byte) (bool, error) {
	if len(message) == 0 {
		return false, errors.New("empty message")
	}

	var edPublicKey [ed25519.PublicKeySize]byte
	copy(edPublicKey[:], publicKey[:])
	return ed25519.Verify(edPublicKey[:], message, signature[:]), nil
}

// Ed25519Identity is a reference long-term identity backed by Ed25519.
//
// The secure-channel layer treats identity generation, marshalling and
// signing as an external collaborator (see the PeerIdentity-shaped
// interfaces in the root package); this type exists so tests and small
// programs have a concrete, non-Noise identity to authenticate with,
// the same role toxcore's own friend public keys play relative to its
// IK handshake.
type Ed25519Identity struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// NewEd25519Identity generates a fresh random Ed25519 identity.
func NewEd25519Identity() (*Ed25519Identity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &Ed25519Identity{priv: priv, pub: pub}, nil
}

// Bytes returns the marshalled Ed25519 public key.
func (id *Ed25519Identity) Bytes() []byte {
	out := make([]byte, len(id.pub))
	copy(out, id.pub)
	return out
}

// Sign signs message with the identity's private key.
func (id *Ed25519Identity) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(id.priv, message), nil
}

// ID derives a stable string identifier from the raw public key bytes.
func (id *Ed25519Identity) ID() string {
	return string(id.pub)
}

// Ed25519Verifier verifies signatures produced by Ed25519Identity.Sign
// against a peer-declared identity key.
type Ed25519Verifier struct{}

// Verify reports whether signature is a valid Ed25519 signature by
// identityKey over message.
func (Ed25519Verifier) Verify(identityKey, message, signature []byte) (bool, error) {
	if len(identityKey) != ed25519.PublicKeySize {
		return false, errors.New("crypto: identity key has wrong size for ed25519")
	}
	return ed25519.Verify(identityKey, message, signature), nil
}
