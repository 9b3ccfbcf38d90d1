package noisechannel

import "github.com/opd-ai/noisechannel/crypto"

// maxNonce is the largest nonce value a CipherState may use; an operation
// attempted with the counter past it is fatal (invariant nonce < 2^64 - 1).
const maxNonce = ^uint64(0) - 1

// cipherState is a from-scratch implementation of the Noise spec's
// CipherState object (§4.2): an AEAD key that may not yet be set, and a
// monotonic nonce counter. Every seal/open goes through
// crypto/primitives.go's ChaCha20-Poly1305 wrapper.
type cipherState struct {
	key    [32]byte
	hasKey bool
	nonce  uint64
}

func newCipherState() *cipherState {
	return &cipherState{}
}

// initializeKey implements InitializeKey: sets k and resets n to zero.
func (c *cipherState) initializeKey(key [32]byte) {
	c.key = key
	c.hasKey = true
	c.nonce = 0
}

// encryptWithAd implements EncryptWithAd: with no key set, plaintext
// passes through unchanged — the bare-ephemeral messages a handshake
// sends before any DH has run. Once keyed, it seals under the current
// nonce and advances it.
func (c *cipherState) encryptWithAd(ad, plaintext []byte) ([]byte, error) {
	if !c.hasKey {
		out := make([]byte, len(plaintext))
		copy(out, plaintext)
		return out, nil
	}
	if c.nonce > maxNonce {
		return nil, newErr("encryptWithAd", NonceExhaustion, nil)
	}
	ciphertext, err := crypto.AEADEncrypt(c.key, c.nonce, ad, plaintext)
	if err != nil {
		return nil, newErr("encryptWithAd", ProtocolViolation, err)
	}
	c.nonce++
	return ciphertext, nil
}

// decryptWithAd implements DecryptWithAd, mirroring encryptWithAd: an
// authentication failure does not advance the nonce and is fatal to the
// caller's stream.
func (c *cipherState) decryptWithAd(ad, ciphertext []byte) ([]byte, error) {
	if !c.hasKey {
		out := make([]byte, len(ciphertext))
		copy(out, ciphertext)
		return out, nil
	}
	if c.nonce > maxNonce {
		return nil, newErr("decryptWithAd", NonceExhaustion, nil)
	}
	plaintext, err := crypto.AEADDecrypt(c.key, c.nonce, ad, ciphertext)
	if err != nil {
		return nil, newErr("decryptWithAd", Decrypt, err)
	}
	c.nonce++
	return plaintext, nil
}

// rekey implements §4.2's Rekey(): k = ENCRYPT(k, maxnonce, zerolen,
// zeros)[:32], leaving the nonce counter untouched. Not invoked
// automatically; the 2^64 nonce limit is treated as unreachable in
// practice.
func (c *cipherState) rekey() {
	if !c.hasKey {
		return
	}
	var zeros [32]byte
	out, err := crypto.AEADEncrypt(c.key, ^uint64(0), nil, zeros[:])
	if err != nil {
		return
	}
	copy(c.key[:], out[:32])
}
