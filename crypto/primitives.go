package crypto

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

// HashSize is the output size of the fixed hash function (SHA-256).
const HashSize = sha256.Size

// DH performs the fixed X25519 Diffie-Hellman function, returning the
// shared secret for privateKey and peerPublicKey.
func DH(privateKey, peerPublicKey [32]byte) ([32]byte, error) {
	var shared [32]byte
	out, err := curve25519.X25519(privateKey[:], peerPublicKey[:])
	if err != nil {
		return shared, err
	}
	copy(shared[:], out)
	return shared, nil
}

// HKDFExpand implements the Noise spec's HKDF(chainingKey, inputKeyMaterial, n)
// function: HMAC-SHA256-extract against chainingKey followed by expansion
// into n 32-byte outputs using sequential counter bytes, per the Noise
// specification's HKDF definition (n is 1, 2 or 3).
func HKDFExpand(chainingKey [32]byte, inputKeyMaterial []byte, n int) ([][32]byte, error) {
	if n < 1 || n > 3 {
		return nil, errors.New("crypto: HKDF output count must be 1, 2 or 3")
	}

	reader := hkdf.New(sha256.New, inputKeyMaterial, chainingKey[:], nil)

	outputs := make([][32]byte, n)
	for i := 0; i < n; i++ {
		if _, err := readFull(reader, outputs[i][:]); err != nil {
			return nil, err
		}
	}
	return outputs, nil
}

func readFull(r interface{ Read([]byte) (int, error) }, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// AEADNonce encodes a 64-bit little-endian nonce counter into the
// 12-byte form ChaCha20-Poly1305 expects: four zero bytes followed by
// the little-endian counter, per the Noise spec's cipher function
// definitions.
func AEADNonce(counter uint64) [chacha20poly1305.NonceSize]byte {
	var nonce [chacha20poly1305.NonceSize]byte
	binary.LittleEndian.PutUint64(nonce[4:], counter)
	return nonce
}

// AEADEncrypt seals plaintext with ChaCha20-Poly1305 under key, using the
// nonce counter and associated data ad. It is the standalone AEAD used by
// the post-handshake transport record pipeline.
func AEADEncrypt(key [32]byte, counter uint64, ad, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, err
	}
	nonce := AEADNonce(counter)
	return aead.Seal(nil, nonce[:], plaintext, ad), nil
}

// AEADDecrypt opens ciphertext with ChaCha20-Poly1305 under key, using the
// nonce counter and associated data ad. Authentication failure returns an
// error without side effects.
func AEADDecrypt(key [32]byte, counter uint64, ad, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, err
	}
	nonce := AEADNonce(counter)
	return aead.Open(nil, nonce[:], ciphertext, ad)
}

// SHA256Hash returns the SHA-256 digest of data, the fixed hash function
// used throughout the handshake's symmetric state.
func SHA256Hash(data []byte) [HashSize]byte {
	return sha256.Sum256(data)
}
