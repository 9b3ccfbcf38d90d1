package noisechannel

import "github.com/opd-ai/noisechannel/crypto"

// symmetricState is a from-scratch implementation of the Noise spec's
// SymmetricState object (§4.3): the running chaining key and handshake
// hash, plus an embedded CipherState that MixKey rekeys as DH outputs
// arrive. Every chaining-key derivation and hash update in this package
// goes through crypto/primitives.go's HKDF/SHA-256 wrappers.
type symmetricState struct {
	ck [32]byte
	h  [32]byte
	cs *cipherState
}

// newSymmetricState implements InitializeSymmetric(protocolName): the
// initial hash is the protocol name itself, zero-padded to HASHLEN, or
// its SHA-256 digest if the name is longer than HASHLEN.
func newSymmetricState(protocolName string) *symmetricState {
	var h [32]byte
	if len(protocolName) <= crypto.HashSize {
		copy(h[:], protocolName)
	} else {
		h = crypto.SHA256Hash([]byte(protocolName))
	}
	return &symmetricState{ck: h, h: h, cs: newCipherState()}
}

// mixKey implements MixKey: the chaining key and a fresh CipherState key
// are both derived from the chaining key and the new DH output via
// HKDF(ck, inputKeyMaterial, 2).
func (ss *symmetricState) mixKey(inputKeyMaterial []byte) error {
	outputs, err := crypto.HKDFExpand(ss.ck, inputKeyMaterial, 2)
	if err != nil {
		return newErr("mixKey", ProtocolViolation, err)
	}
	ss.ck = outputs[0]
	ss.cs.initializeKey(outputs[1])
	return nil
}

// mixHash implements MixHash: h = SHA256(h || data).
func (ss *symmetricState) mixHash(data []byte) {
	combined := make([]byte, 0, len(ss.h)+len(data))
	combined = append(combined, ss.h[:]...)
	combined = append(combined, data...)
	ss.h = crypto.SHA256Hash(combined)
}

// mixKeyAndHash implements MixKeyAndHash, used by PSK tokens. None of
// the three supported patterns carry a psk token, so this is unreached
// in practice, but it completes the SymmetricState object per §4.3.
func (ss *symmetricState) mixKeyAndHash(inputKeyMaterial []byte) error {
	outputs, err := crypto.HKDFExpand(ss.ck, inputKeyMaterial, 3)
	if err != nil {
		return newErr("mixKeyAndHash", ProtocolViolation, err)
	}
	ss.ck = outputs[0]
	ss.mixHash(outputs[1][:])
	ss.cs.initializeKey(outputs[2])
	return nil
}

// encryptAndHash implements EncryptAndHash: seal under the running hash
// as associated data, then fold the ciphertext into that hash.
func (ss *symmetricState) encryptAndHash(plaintext []byte) ([]byte, error) {
	ciphertext, err := ss.cs.encryptWithAd(ss.h[:], plaintext)
	if err != nil {
		return nil, err
	}
	ss.mixHash(ciphertext)
	return ciphertext, nil
}

// decryptAndHash implements DecryptAndHash: open under the running hash
// as associated data, then fold the ciphertext (not the plaintext) into
// that hash — mirroring encryptAndHash so both sides converge on the
// same transcript.
func (ss *symmetricState) decryptAndHash(ciphertext []byte) ([]byte, error) {
	plaintext, err := ss.cs.decryptWithAd(ss.h[:], ciphertext)
	if err != nil {
		return nil, err
	}
	ss.mixHash(ciphertext)
	return plaintext, nil
}

// split implements Split(): the pair of transport CipherStates derived
// from the final chaining key, one per direction.
func (ss *symmetricState) split() (*cipherState, *cipherState, error) {
	outputs, err := crypto.HKDFExpand(ss.ck, nil, 2)
	if err != nil {
		return nil, nil, newErr("split", ProtocolViolation, err)
	}
	c1, c2 := newCipherState(), newCipherState()
	c1.initializeKey(outputs[0])
	c2.initializeKey(outputs[1])
	return c1, c2, nil
}
