// Package crypto implements the cryptographic primitives underlying the
// Noise secure channel: Curve25519 keypair handling for static and
// ephemeral Noise keys, Ed25519 identity signatures, and secure erasure
// of key material.
//
// # Core Types
//
//   - [KeyPair]: Curve25519 keypair (static or ephemeral), the shape the
//     handshake engine's DH token processing expects
//   - [Signature]: Ed25519 signature, used to bind a Noise static key to a
//     long-term peer identity
//   - [Ed25519Identity]: reference long-term identity implementation, for
//     tests and small programs that need a concrete identity collaborator
//
// # Key Generation
//
//	keys, err := crypto.GenerateKeyPair()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer crypto.WipeKeyPair(keys)
//
//	// Derive a KeyPair from a persisted static secret key.
//	keys, err := crypto.FromSecretKey(secretKeyBytes)
//
// # Identity Signatures
//
// The handshake payload's identity signature binds a Noise static key to
// a long-term identity by signing a domain-separated message over the
// static public key:
//
//	sig, _ := identity.Sign(append([]byte("noise-libp2p-static-key:"), staticPub...))
//	ok, _ := (crypto.Ed25519Verifier{}).Verify(identityKey, signedMessage, sig)
//
// # Secure Memory Handling
//
// Ephemeral and static private key material should be wiped once no
// longer needed, in particular after a handshake's Split():
//
//	defer crypto.WipeKeyPair(ephemeralKeys)
//
// [SecureWipe] uses a constant-time XOR the compiler cannot optimize
// away, so the zeroing is not elided.
//
// # Security Considerations
//
//   - Curve25519 scalars are clamped per RFC 7748 before derivation
//   - A secret key that is all-zero or that derives to the identity
//     point is rejected rather than silently accepted
//   - Constant-time operations via crypto/subtle to avoid timing leaks
//   - Pure functions (signing, verification, derivation) are inherently
//     safe for concurrent use
package crypto
